// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/handler"
	"github.com/iliyamo/theatre-booking/internal/middleware"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
	"github.com/iliyamo/theatre-booking/internal/service"
)

// Deps are the process-wide resources the routes need.  Redis and Publisher
// may be nil; caching, rate limiting and events are then disabled.
type Deps struct {
	DB        *sql.DB
	Cfg       config.Config
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Publisher service.EventPublisher
	Logger    zerolog.Logger
}

// crudHandler is implemented by every catalogue handler.
type crudHandler interface {
	List(echo.Context) error
	Get(echo.Context) error
	Create(echo.Context) error
	Update(echo.Context) error
	Delete(echo.Context) error
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echomw.Recover())

	e.GET("/healthz", handler.Health(d.DB))
	e.Static(handler.MediaURL, d.Cfg.MediaRoot)

	limiter := middleware.NewTokenBucket(d.RateLimit, d.Redis)

	users := repository.NewUserRepo(d.DB)
	tokens := repository.NewTokenRepo(d.DB)
	RegisterAuth(e, handler.NewAuthHandler(d.Cfg, users, tokens), d.Cfg.JWTSecret, limiter)

	api := e.Group("/v1", middleware.JWTAuth(d.Cfg.JWTSecret), limiter)
	RegisterCatalog(api, d)
	RegisterBooking(api, d)
	return e
}

// RegisterAuth registers the session endpoints.  Only /v1/me needs an access
// token; the rest work with credentials or a refresh token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), limiter)
}

// RegisterCatalog registers genres, actors, plays, theaters and performances.
// Any authenticated user may read; writes need ADMIN and drop the cached
// pages of every group whose output they change.
func RegisterCatalog(api *echo.Group, d Deps) {
	admin := middleware.AdminForWrites(model.RoleAdmin)
	cache := func(group string) echo.MiddlewareFunc { return middleware.NewRedisCache(d.Cache, d.Redis, group) }
	invalidate := func(groups ...string) echo.MiddlewareFunc {
		return middleware.InvalidateCache(d.Cache, d.Redis, groups...)
	}

	plays := repository.NewPlayRepo(d.DB)
	halls := repository.NewHallRepo(d.DB)
	performances := repository.NewPerformanceRepo(d.DB)
	tickets := repository.NewTicketRepo(d.DB)

	crud(api.Group("/genres", admin, invalidate("genres", "plays", "performances")),
		handler.NewGenreHandler(repository.NewGenreRepo(d.DB)), cache("genres"))
	crud(api.Group("/actors", admin, invalidate("actors", "plays", "performances")),
		handler.NewActorHandler(repository.NewActorRepo(d.DB)), cache("actors"))

	ph := handler.NewPlayHandler(plays, d.Cfg.MediaRoot)
	pg := api.Group("/plays", admin, invalidate("plays", "performances"))
	crud(pg, ph, cache("plays"))
	pg.POST("/:id/upload-image", ph.UploadImage)

	crud(api.Group("/theaters", admin, invalidate("theaters", "performances")),
		handler.NewHallHandler(halls), cache("theaters"))
	crud(api.Group("/performances", admin, invalidate("performances")),
		handler.NewPerformanceHandler(performances, plays, halls, tickets), cache("performances"))
}

// RegisterBooking registers tickets and reservations.  Creating either draws
// from the smaller booking bucket on top of the general one.
func RegisterBooking(api *echo.Group, d Deps) {
	booking := service.NewReservationService(d.DB, d.Publisher)
	performances := repository.NewPerformanceRepo(d.DB)
	bookingLimit := middleware.NewTokenBucket(d.RateLimit.WithCapacity(d.RateLimit.BookingCapacity, "booking"), d.Redis)
	// bookings change tickets_available
	invalidate := middleware.InvalidateCache(d.Cache, d.Redis, "performances")

	th := handler.NewTicketHandler(repository.NewTicketRepo(d.DB), performances, booking)
	tg := api.Group("/ticket", invalidate)
	tg.GET("", th.List)
	tg.POST("", th.Create, bookingLimit)
	tg.GET("/:id", th.Get)
	tg.DELETE("/:id", th.Delete)

	rh := handler.NewReservationHandler(repository.NewReservationRepo(d.DB), performances, booking)
	rg := api.Group("/reservations", invalidate)
	rg.GET("", rh.List)
	rg.POST("", rh.Create, bookingLimit)
	rg.GET("/:id", rh.Get)
	rg.DELETE("/:id", rh.Delete)
}

func crud(g *echo.Group, h crudHandler, cache echo.MiddlewareFunc) {
	g.GET("", h.List, cache)
	g.POST("", h.Create)
	g.GET("/:id", h.Get, cache)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
