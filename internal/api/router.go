package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/community/config"
	_ "github.com/d60-Lab/community/docs"
	"github.com/d60-Lab/community/internal/api/handler"
)

// NewRouter 组装路由与中间件
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(otelgin.Middleware("community"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		posts := v1.Group("/posts")
		{
			posts.POST("", h.CreatePost)
			posts.GET("/:id", h.GetPost)
			posts.PUT("/:id", h.UpdatePost)
			posts.DELETE("/:id", h.DeletePost)
			// 浏览打点：匿名可用，IP 维度限流
			posts.POST("/:id/view",
				OptionalAuth(cfg.JWT.Secret),
				RateLimit(rate.Limit(10), 20),
				h.RecordView)
			posts.POST("/:id/comments", h.AddComment)
			posts.POST("/:id/like", h.LikePost)
			posts.DELETE("/:id/like", h.UnlikePost)
		}
		v1.DELETE("/comments/:id", h.RemoveComment)
		v1.GET("/search", h.SearchPosts)

		admin := v1.Group("/admin", RequireAuth(cfg.JWT.Secret))
		{
			admin.POST("/search/reindex", h.TriggerReindex)
		}
	}
	return r
}
