package app

import (
	"github.com/gin-gonic/gin"
	"github.com/xcnya/friend-apply/internal/middleware"
	"github.com/xcnya/friend-apply/internal/modules/friend"
	"github.com/xcnya/friend-apply/internal/pkg/bark"
	"github.com/xcnya/friend-apply/internal/pkg/github"
	"github.com/xcnya/friend-apply/internal/pkg/mail"
	pkgredis "github.com/xcnya/friend-apply/internal/pkg/redis"
	"github.com/xcnya/friend-apply/internal/pkg/response"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "friend-apply",
		"author":   "libxcnya.so <me@xcnya.cn>",
		"version":  "1.0.0",
		"homepage": "https://github.com/xcnya/friend-apply",
	}
	r.GET("/", func(c *gin.Context) {
		response.OK(c, appInfo)
	})

	barkSvc := bark.New(a.cfg.Bark)

	// Rate limiting only guards the anonymous submission endpoints,
	// and only when Redis is configured.
	var public []gin.HandlerFunc
	if rc != nil {
		public = append(public, middleware.RateLimit(rc.Raw(), barkSvc))
	}

	store := friend.NewStore(a.db)
	repo := github.New(a.cfg.GitHub)
	mailer := mail.New(a.cfg.Mail)
	svc := friend.NewService(store, repo, mailer, a.cfg, a.logger)

	api := r.Group("/api")
	friend.NewHandler(svc, a.logger).RegisterRoutes(api, public...)
}
