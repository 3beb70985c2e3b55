package friend

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xcnya/friend-apply/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the friend-application surface. public carries the
// rate-limit middleware when redis is configured; review endpoints skip it
// because they are already gated by the shared credential.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, public ...gin.HandlerFunc) {
	g := rg.Group("/friends")

	g.POST("/apply", append(public, h.apply)...)
	g.POST("/update", append(public, h.applyUpdate)...)
	g.GET("/match", append(public, h.match)...)

	g.GET("/list", h.list)
	g.GET("/detail", h.detail)
	g.POST("/record", h.updateRecord)
	g.POST("/approve", h.approve)
	g.POST("/reject", h.reject)
	g.GET("/preview-diff", h.previewDiff)
}

func (h *Handler) apply(c *gin.Context) {
	var dto ApplyDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "请求参数不完整")
		return
	}
	id, err := h.svc.Submit(c.Request.Context(), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

func (h *Handler) applyUpdate(c *gin.Context) {
	var dto UpdateApplyDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "请求参数不完整")
		return
	}
	id, err := h.svc.SubmitUpdate(c.Request.Context(), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

func (h *Handler) list(c *gin.Context) {
	records, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]applyResponse, 0, len(records))
	for i := range records {
		out = append(out, toResponse(&records[i]))
	}
	response.OK(c, out)
}

func (h *Handler) detail(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		response.BadRequest(c, "缺少 id 参数")
		return
	}
	rec, err := h.svc.Detail(c.Request.Context(), id, credential(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toResponse(rec))
}

func (h *Handler) updateRecord(c *gin.Context) {
	var dto UpdateRecordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "请求参数不完整")
		return
	}
	if dto.Pwd == "" {
		dto.Pwd = credential(c)
	}
	if err := h.svc.UpdateRecord(c.Request.Context(), &dto); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"id": dto.ID})
}

func (h *Handler) approve(c *gin.Context) {
	var dto DecisionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "请求参数不完整")
		return
	}
	if dto.Pwd == "" {
		dto.Pwd = credential(c)
	}
	prURL, err := h.svc.Approve(c.Request.Context(), dto.ID, dto.Pwd)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"id": dto.ID, "pr_url": prURL})
}

func (h *Handler) reject(c *gin.Context) {
	var dto DecisionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "请求参数不完整")
		return
	}
	if dto.Pwd == "" {
		dto.Pwd = credential(c)
	}
	if err := h.svc.Reject(c.Request.Context(), dto.ID, dto.Pwd, dto.Reason); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"id": dto.ID})
}

func (h *Handler) previewDiff(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		response.BadRequest(c, "缺少 id 参数")
		return
	}
	res, err := h.svc.PreviewDiff(c.Request.Context(), id, credential(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, res)
}

func (h *Handler) match(c *gin.Context) {
	link := c.Query("url")
	if link == "" {
		link = c.Query("link")
	}
	if link == "" {
		response.BadRequest(c, "缺少 url 参数")
		return
	}
	entry, err := h.svc.MatchFriend(c.Request.Context(), link)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"entry": entry})
}

func credential(c *gin.Context) string {
	if pwd := c.Query("pwd"); pwd != "" {
		return pwd
	}
	return c.Query("password")
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errUnauthorized):
		response.ForbiddenMsg(c, err.Error())
	case errors.Is(err, errNotFound), errors.Is(err, errOriginalVanished):
		response.NotFoundMsg(c, err.Error())
	default:
		h.log.Error("friend request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.InternalError(c, err)
	}
}
