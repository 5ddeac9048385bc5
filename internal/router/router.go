package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/raffle-service/internal/config"
    "github.com/iliyamo/raffle-service/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/raffle-service/internal/middleware" // import middleware for JWT authentication and role enforcement
    "github.com/iliyamo/raffle-service/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes and the account
// endpoints that require a valid access token.  Unauthenticated
// operations live under /v1/auth, protected endpoints under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
    auth.POST("/me/topup", a.TopUp)
}

// RegisterPublic registers the unauthenticated browse endpoints: raffle
// listing and detail, published draw results and the sold-ticket board.
// These routes apply no JWT or role middleware.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
    e.GET("/v1/raffles", p.List)
    e.GET("/v1/raffles/:id", p.Get)
    e.GET("/v1/raffles/:id/result", p.Result)
    e.GET("/v1/raffles/:id/tickets", p.SoldTickets)
}

// RegisterPlayer registers the authenticated ticket endpoints.  The
// purchase route additionally passes through the Redis token bucket so
// one buyer cannot flood the inventory.
func RegisterPlayer(e *echo.Echo, p *handler.PlayerHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
    g := e.Group("/v1")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(model.RoleAdmin, model.RolePlayer))

    g.POST("/raffles/:id/purchase", p.Purchase, middleware.NewTokenBucket(rl, rdb))
    g.POST("/tickets/:id/refund", p.Refund)
    g.GET("/my-tickets", p.MyTickets)
}

// RegisterAdmin registers the raffle administration endpoints.  Every
// route requires the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
    g := e.Group("/v1")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(model.RoleAdmin))

    g.POST("/raffles", a.Create)
    g.POST("/raffles/:id/activate", a.Activate)
    g.POST("/raffles/:id/pause", a.Pause)
    g.POST("/raffles/:id/cancel", a.Cancel)
    g.POST("/raffles/:id/end", a.End)
    g.POST("/tick", a.Tick)
}
