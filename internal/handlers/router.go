package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zfogg/reelgraph/internal/config"
	"github.com/zfogg/reelgraph/internal/metrics"
	"github.com/zfogg/reelgraph/internal/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RouterOptions are the cross-cutting pieces the router is built with
type RouterOptions struct {
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Counter  middleware.Counter
}

// NewRouter wires every route onto a fresh gin engine
func NewRouter(h *Handlers, cfg *config.Config, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware(h.log))
	r.Use(middleware.MetricsMiddleware(opts.Metrics))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	window := cfg.RateLimit.Window
	followLimit := middleware.RateLimit(opts.Counter, "follow", cfg.RateLimit.FollowRequests, window, opts.Metrics, h.log)
	likeLimit := middleware.RateLimit(opts.Counter, "like", cfg.RateLimit.Likes, window, opts.Metrics, h.log)

	api := r.Group("/api/v1")
	api.POST("/accounts", h.Signup)

	authed := api.Group("")
	authed.Use(middleware.Auth([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer))
	{
		authed.GET("/accounts/:id", h.GetProfile)
		authed.PUT("/accounts/me/visibility", h.SetVisibility)
		authed.GET("/accounts/:id/relationship", h.GetRelationship)
		authed.GET("/accounts/:id/content", h.GetProfileContent)
		authed.POST("/accounts/:id/follow", followLimit, h.Follow)
		authed.DELETE("/accounts/:id/follow", h.Unfollow)

		requests := authed.Group("/follow-requests")
		requests.GET("/incoming", h.IncomingRequests)
		requests.GET("/outgoing", h.OutgoingRequests)
		requests.POST("/:senderId/accept", h.AcceptRequest)
		requests.POST("/:senderId/reject", h.RejectRequest)
		requests.DELETE("/:receiverId", h.CancelRequest)

		authed.POST("/content", h.PublishContent)
		authed.GET("/content/:id", h.GetContent)
		authed.DELETE("/content/:id", h.DeleteContent)
		authed.PUT("/content/:id/like", likeLimit, h.LikeContent)
		authed.DELETE("/content/:id/like", likeLimit, h.UnlikeContent)
		authed.GET("/content/:id/comments", h.GetComments)
		authed.GET("/content/:id/thread", h.GetThread)
		authed.POST("/content/:id/comments", h.PostComment)

		authed.GET("/comments/:id/replies", h.GetReplies)
		authed.PUT("/comments/:id/like", likeLimit, h.LikeComment)
		authed.DELETE("/comments/:id/like", likeLimit, h.UnlikeComment)
		authed.DELETE("/comments/:id", h.DeleteComment)

		feeds := authed.Group("/feed")
		feeds.GET("/visible", h.VisibleFeed)
		feeds.GET("/explore", h.ExploreFeed)
		feeds.GET("/reels", h.ReelsFeed)
		feeds.GET("/fresh", h.FreshFeed)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "route not found"})
	})

	return r
}
