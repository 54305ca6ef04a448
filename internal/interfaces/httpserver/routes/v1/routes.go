package v1

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/consent-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	group.POST("/recordings", r.handlers.Recording.Upload)

	sessions := group.Group("/sessions")
	sessions.POST("", r.handlers.Session.Start)
	sessions.GET("/:id", r.handlers.Session.Get)
	sessions.DELETE("/:id", r.handlers.Session.Abort)
	sessions.POST("/:id/chunks", r.handlers.Session.PushChunk)
	sessions.POST("/:id/stop", r.handlers.Session.Stop)

	group.GET("/ledger", r.handlers.Ledger.List)
	group.GET("/languages", r.handlers.Consent.Languages)
	group.GET("/consent/:language", r.handlers.Consent.Script)
}
