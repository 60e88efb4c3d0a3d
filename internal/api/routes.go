package api

import (
	"alcyxob/dating-app/internal/service"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Dependencies groups what the HTTP layer needs.
type Dependencies struct {
	JWTSecret    string
	CORSOrigins  []string
	MaxFileSize  int64
	AuthService  service.AuthService
	PhotoService service.PhotoService
	Health       HealthChecker
	Gatherer     prometheus.Gatherer // nil serves the default registry
	Logger       zerolog.Logger
}

// CORSConfig allows the given origins; "*" or none allows all.
func CORSConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.AuthService, deps.Logger)
	profileHandler := NewProfileHandler(deps.PhotoService, deps.Logger)
	photoHandler := NewPhotoHandler(deps.PhotoService, deps.MaxFileSize, deps.Logger)
	healthHandler := NewHealthHandler(deps.Health)

	router.Use(cors.New(CORSConfig(deps.CORSOrigins)))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(deps.JWTSecret))
	{
		protected.GET("/profile", profileHandler.GetProfile)
		protected.PUT("/profile", profileHandler.UpdateProfile)

		photos := protected.Group("/profile/photos")
		{
			photos.POST("", photoHandler.UploadPhotos)
			photos.DELETE("/:index", photoHandler.RemovePhoto)
			photos.POST("/:index/primary", photoHandler.PromotePhoto)
		}

		protected.GET("/storage/health", healthHandler.StorageHealth)
	}
}
