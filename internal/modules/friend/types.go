package friend

import (
	"errors"
	"time"

	"github.com/xcnya/friend-apply/internal/models"
)

type ApplyDTO struct {
	Name       string `json:"name"       binding:"required"`
	Link       string `json:"link"       binding:"required"`
	AvatarLink string `json:"avatarLink" binding:"required"`
	Descr      string `json:"descr"      binding:"required"`
	Email      string `json:"email"      binding:"required"`
}

type UpdateApplyDTO struct {
	OriginalLink string `json:"originalLink" binding:"required"`
	Name         string `json:"name"         binding:"required"`
	Link         string `json:"link"         binding:"required"`
	AvatarLink   string `json:"avatarLink"   binding:"required"`
	Descr        string `json:"descr"        binding:"required"`
	Email        string `json:"email"        binding:"required"`
}

type DecisionDTO struct {
	ID     string `json:"id"     binding:"required"`
	Pwd    string `json:"pwd"`
	Reason string `json:"reason"`
}

// UpdateRecordDTO is the admin edit of a stored application.
type UpdateRecordDTO struct {
	ID         string             `json:"id"  binding:"required"`
	Pwd        string             `json:"pwd"`
	Name       *string            `json:"name"`
	Link       *string            `json:"link"`
	AvatarLink *string            `json:"avatarLink"`
	Descr      *string            `json:"descr"`
	Email      *string            `json:"email"`
	State      *models.ApplyState `json:"state"`
}

// PreviewResult is what the diff preview returns for review pages.
type PreviewResult struct {
	Diff     string `json:"diff"`
	OldEntry string `json:"oldEntry"`
	NewEntry string `json:"newEntry"`
	Type     string `json:"type"` // "new" | "update"
}

type applyResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Link         string    `json:"link"`
	AvatarLink   string    `json:"avatar_link"`
	Descr        string    `json:"descr"`
	Email        string    `json:"email"`
	State        int       `json:"state"`
	StateLabel   string    `json:"state_label"`
	OriginalLink string    `json:"original_link,omitempty"`
	RejectReason string    `json:"reject_reason,omitempty"`
	Created      time.Time `json:"created"`
	Modified     time.Time `json:"modified"`
}

func toResponse(r *models.FriendApplyModel) applyResponse {
	return applyResponse{
		ID: r.ID, Name: r.Name, Link: r.Link, AvatarLink: r.AvatarLink,
		Descr: r.Descr, Email: r.Email,
		State: int(r.State), StateLabel: r.State.Label(),
		OriginalLink: r.OriginalLink, RejectReason: r.RejectReason,
		Created: r.CreatedAt, Modified: r.UpdatedAt,
	}
}

const defaultRejectReason = "未提供拒绝理由"

var (
	errUnauthorized     = errors.New("密码错误或缺失")
	errNotFound         = errors.New("未找到该申请")
	errOriginalVanished = errors.New("未找到原始友链，无法更新")
)
