package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/questlog/internal/ws"
)

const sweepInterval = 10 * time.Minute

// Options tunes the router for a deployment.
type Options struct {
	CORSOrigin   string        // "*" or a comma-separated list
	RateInterval time.Duration // minimum gap between writes from one IP
	RateBurst    int
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", secretHeader, clientHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origin == "" || origin == "*" {
		// Credentials rule out a literal "*", so echo the caller's origin.
		cfg.AllowOriginFunc = func(string) bool { return true }
		return cfg
	}
	for _, o := range strings.Split(origin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}
	return cfg
}

// SetupRoutes configures all application routes and middleware. The rate
// limiter's janitor stops when ctx is cancelled.
func SetupRoutes(ctx context.Context, router *gin.Engine, env *Env, opts Options) {
	// --- Middleware ---
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())
	router.Use(cors.New(corsConfig(opts.CORSOrigin)))

	// --- Rate Limiter Setup ---
	burst := opts.RateBurst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if opts.RateInterval > 0 {
		limit = rate.Every(opts.RateInterval)
	}
	limiter := NewIPRateLimiter(limit, burst)
	go limiter.Janitor(ctx, sweepInterval)

	// --- API Routes ---
	api := router.Group("/api", ClientIdentityMiddleware())
	{
		api.GET("/meta", env.GetMeta)

		api.GET("/posts", env.GetPosts)
		api.POST("/posts", RateLimitMiddleware(limiter), env.CreatePost)
		api.GET("/posts/:id", env.GetPost)
		api.PUT("/posts/:id", env.UpdatePost)
		api.DELETE("/posts/:id", env.DeletePost)
		api.GET("/posts/:id/repost", env.GetRepostDraft)
		api.POST("/posts/:id/verify", env.VerifyPost)
		api.POST("/posts/:id/upvote", env.UpvotePost)
		api.GET("/posts/:id/comments", env.GetComments)
		api.POST("/posts/:id/comments", RateLimitMiddleware(limiter), env.CreateComment)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- WebSocket Route ---
	router.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(env.Hub, c.Writer, c.Request)
	})
}
