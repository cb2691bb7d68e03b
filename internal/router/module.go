package router

import "github.com/gin-gonic/gin"

// Module is a feature unit that mounts its own routes. The registry collects
// modules at startup and registers them against the shared root group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
