package server

import (
	"net/http"

	"github.com/Freeeeeet/delivery_slots/internal/config"
	"github.com/Freeeeeet/delivery_slots/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wires the services into the HTTP surface.
type Server struct {
	identity *service.IdentityService
	catalog  *service.CatalogService
	bookings *service.BookingService
	logger   *zap.Logger
}

func New(identity *service.IdentityService, catalog *service.CatalogService, bookings *service.BookingService, logger *zap.Logger) *Server {
	return &Server{
		identity: identity,
		catalog:  catalog,
		bookings: bookings,
		logger:   logger,
	}
}

// Router builds the gin engine with sessions, metrics and all routes.
func (s *Server) Router(cfg *config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("delivery_session", store))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// authentication entry points
	r.POST("/signup", s.signup)
	r.POST("/login", s.login)
	r.POST("/reset_password", s.requestPasswordReset)
	r.POST("/reset_password/:token", s.resetPassword)

	api := r.Group("/api")
	api.Use(s.authRequired())
	{
		api.POST("/logout", s.logout)
		api.POST("/change_password", s.changePassword)

		api.GET("/partners", s.listPartners)
		api.GET("/partners/:id/slots", s.listAvailability)

		api.GET("/bookings", s.listOwnBookings)
		api.POST("/bookings", s.createBooking)
		api.PATCH("/bookings/:id/status", s.updateBookingStatus)

		partner := api.Group("/partner")
		{
			partner.GET("/slots", s.listPartnerSlots)
			partner.POST("/slots", s.createSlot)
			partner.DELETE("/slots/:id", s.deleteSlot)
			partner.GET("/bookings", s.listPartnerBookings)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/accounts", s.listAccounts)
			admin.POST("/partners", s.createPartnerAccount)
			admin.DELETE("/accounts/:id", s.deleteAccount)
			admin.PUT("/accounts/:id/role", s.setRole)
			admin.GET("/bookings", s.listAllBookings)
		}
	}

	return r
}
