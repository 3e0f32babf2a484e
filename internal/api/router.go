package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	targetHandler *TargetHandler,
	requestHandler *RequestHandler,
	userHandler *UserHandler,
	threadHandler *ThreadHandler,
	jwtSecret string,
) *Router {
	r := gin.Default()

	// Public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/auth/token", authHandler.Token)

	// Protected
	auth := r.Group("/api")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.POST("/targets", targetHandler.Create)
		auth.DELETE("/targets", targetHandler.Delete)
		auth.GET("/targets", targetHandler.List)
		auth.GET("/users/:id/targets", targetHandler.ListForUser)

		auth.POST("/requests", requestHandler.Submit)
		auth.GET("/requests/pending", requestHandler.Pending)
		auth.POST("/requests/:id/approve", requestHandler.Approve)
		auth.POST("/requests/:id/deny", requestHandler.Deny)

		auth.GET("/users/:id/preferences", userHandler.GetPreferences)
		auth.PUT("/users/:id/preferences", userHandler.SetPreferences)
		auth.PUT("/users/:id/telegram", userHandler.LinkTelegram)
		auth.DELETE("/users/:id/telegram", userHandler.UnlinkTelegram)

		auth.DELETE("/threads", threadHandler.Forget)
		auth.GET("/threads/recent", threadHandler.Recent)
		auth.GET("/stats", threadHandler.Stats)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
