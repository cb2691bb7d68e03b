package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohini/user-service/internal/container"
	handlers "github.com/mohini/user-service/internal/interface/http"
	"github.com/mohini/user-service/internal/interface/middleware"
)

// UserModule wires the user CRUD and lookup routes under /users.
// Write endpoints get a tighter per-IP rate limit than reads.
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	writeLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), nil)
	readLimiter := middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil)

	users := rg.Group("/users")
	users.Use(readLimiter)
	{
		users.POST("", writeLimiter, m.Handler.Create)
		users.GET("", m.Handler.List)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id", writeLimiter, m.Handler.Update)
		users.DELETE("/:id", writeLimiter, m.Handler.Delete)

		users.GET("/email/:email", m.Handler.GetByEmail)
		users.GET("/username/:username", m.Handler.GetByUsername)
		users.GET("/exists/email/:email", m.Handler.ExistsByEmail)
		users.GET("/exists/username/:username", m.Handler.ExistsByUsername)
		users.GET("/count", m.Handler.Count)

		users.GET("/search", m.Handler.Search)
		users.GET("/search/firstname/:name", m.Handler.FindByFirstName)
		users.GET("/search/lastname/:name", m.Handler.FindByLastName)
		users.GET("/search/username/:fragment", m.Handler.SearchByUsername)
		users.GET("/created", m.Handler.ListCreatedBetween)
	}
}
