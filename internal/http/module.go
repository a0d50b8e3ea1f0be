package http

import "github.com/gin-gonic/gin"

// Module is a bounded context with HTTP routes. The router calls
// RegisterRoutes once, in the order modules are listed on App.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// Drainer is implemented by modules that hold long-lived connections and
// must release them before the server stops accepting requests.
type Drainer interface {
	Drain()
}

// RouterContext carries the route groups a module may mount on.
type RouterContext struct {
	// V1 is /api/v1 with no auth.
	V1 *gin.RouterGroup
	// Protected requires a valid access token.
	Protected *gin.RouterGroup
	// Public is /api/v1/public, rate limited per client IP.
	Public *gin.RouterGroup
}
