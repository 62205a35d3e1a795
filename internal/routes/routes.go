package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/common"
	"github.com/tourika/audiotour/internal/app/domain/auth"
	"github.com/tourika/audiotour/internal/app/domain/poi"
	"github.com/tourika/audiotour/internal/app/domain/purchase"
	"github.com/tourika/audiotour/internal/app/domain/tour"
	"github.com/tourika/audiotour/internal/app/domain/user"
	"github.com/tourika/audiotour/internal/pkg/config"
)

type AppHandlers struct {
	Tour     *tour.Handler
	POI      *poi.Handler
	User     *user.Handler
	Purchase *purchase.Handler
	Auth     *auth.Handler
}

// Setup wires repositories, services and handlers onto the router.
func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) {
	handlers, jwtConfig := setupDependencies(dbPool, cfg, log)
	setupRouter(r, handlers, jwtConfig)
}

func setupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) (*AppHandlers, auth.JWTConfig) {
	respond := common.NewResponder(log, cfg.IsProduction())

	jwtConfig := auth.JWTConfig{
		SecretKey:       cfg.Auth.JWTSecret,
		TokenExpiration: 24 * time.Hour,
		Logger:          log,
	}

	tourRepo := tour.NewRepository(dbPool, log)
	poiRepo := poi.NewRepository(dbPool, log)
	userRepo := user.NewRepository(dbPool, log)
	purchaseRepo := purchase.NewRepository(dbPool, log)
	authRepo := auth.NewPostgresAuthRepo(dbPool, log)

	validators := purchase.NewValidatorRegistry(log)
	purchaseService := purchase.NewServiceImpl(purchaseRepo, userRepo, tourRepo, validators, log)
	tourService := tour.NewServiceImpl(tourRepo, log)
	poiService := poi.NewServiceImpl(poiRepo, tourRepo, log)
	userService := user.NewServiceImpl(userRepo, log)
	authService := auth.NewService(authRepo, jwtConfig, log)

	return &AppHandlers{
		Tour:     tour.NewHandler(tourService, purchaseService, respond, log),
		POI:      poi.NewHandler(poiService, purchaseService, respond, log),
		User:     user.NewHandler(userService, purchaseService, respond, log),
		Purchase: purchase.NewHandler(purchaseService, respond, log),
		Auth:     auth.NewHandler(authService, respond, log),
	}, jwtConfig
}

func setupRouter(r *gin.Engine, h *AppHandlers, jwtConfig auth.JWTConfig) {
	api := r.Group("/api")
	adminOnly := auth.AdminAuthMiddleware(jwtConfig)

	tours := api.Group("/tours")
	{
		tours.GET("", h.Tour.List)
		tours.GET("/:id", h.Tour.Get)
		tours.GET("/:id/pois", h.POI.ListByTour)

		tours.POST("", adminOnly, h.Tour.Create)
		tours.PUT("/:id", adminOnly, h.Tour.Update)
		tours.DELETE("/:id", adminOnly, h.Tour.Delete)
		tours.POST("/:id/pois", adminOnly, h.POI.Create)
		tours.PUT("/:id/pois/reorder", adminOnly, h.POI.Reorder)
		tours.POST("/:id/route", adminOnly, h.POI.UploadRoute)
	}

	pois := api.Group("/pois")
	{
		pois.PUT("/:id", adminOnly, h.POI.Update)
		pois.DELETE("/:id", adminOnly, h.POI.Delete)
	}

	users := api.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/admin/login", h.Auth.Login)
		users.GET("/:deviceId", h.User.Get)
		users.GET("/:deviceId/purchases", h.User.Purchases)
	}

	payments := api.Group("/payments")
	{
		payments.POST("/purchase", h.Purchase.Purchase)
		payments.GET("/status/:transactionId", h.Purchase.Status)
		payments.POST("/restore", h.Purchase.Restore)
	}
}
