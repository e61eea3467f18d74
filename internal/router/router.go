// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/labmate/labmate/internal/config"
	"github.com/labmate/labmate/internal/handler"
	"github.com/labmate/labmate/internal/middleware"
)

// Handlers groups everything route registration needs.
type Handlers struct {
	Auth *handler.AuthHandler
	Res  *handler.ReservationHandler
	Labs *handler.LaboratoryHandler
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check for load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes under /v1/auth. Register,
// login, refresh and logout operate without an existing session; /v1/me
// requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/v1")
	me.Use(middleware.JWTAuth(jwtSecret))
	me.GET("/me", a.Me)
	me.POST("/auth/logout-all", a.LogoutAll)
}

// RegisterPublic registers unauthenticated browse endpoints: the room
// list, the per-day seat map and the availability probes. Guests can
// inspect a laboratory before deciding to register. Read responses go
// through the Redis cache middleware when a client is available.
func RegisterPublic(e *echo.Echo, h Handlers, rdb *redis.Client) {
	g := e.Group("/v1")
	if rdb != nil {
		g.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}
	g.GET("/laboratories", h.Labs.List)
	g.GET("/laboratories/:room/seats", h.Labs.Seats)
	g.GET("/laboratories/:room/reservations", h.Res.ListByRoomAndDate)
	g.POST("/availability", h.Res.Availability)
	g.POST("/availability/end-times", h.Res.EndTimes)
}

// RegisterReservations registers the authenticated reservation routes.
// All of them require a valid access token; the walk-in, list-all and
// patch endpoints are additionally restricted to LABTECH. Mutating
// routes are rate limited through the Redis token bucket when a client
// is available.
func RegisterReservations(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("STUDENT", "LABTECH"))
	if rdb != nil {
		g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}

	g.POST("/reservations", h.Res.Create)
	g.GET("/reservations/:id", h.Res.Get)
	g.DELETE("/reservations/:id", h.Res.Cancel)
	g.GET("/users/:id/reservations", h.Res.ListByUser)

	tech := g.Group("", middleware.RequireRole("LABTECH"))
	tech.GET("/reservations", h.Res.ListAll)
	tech.POST("/reservations/walk-in", h.Res.CreateWalkIn)
	tech.PATCH("/reservations/:id", h.Res.Patch)
}
