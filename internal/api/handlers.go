package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cozyplate/backend/config"
	"github.com/cozyplate/backend/internal/middleware"
	"github.com/cozyplate/backend/internal/service"
)

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "CozyPlate API is running",
		"version": "v1.0.0",
	})
}

// Services bundles the service layer for route registration. Tests swap in
// fakes for the external-API members.
type Services struct {
	Auth       service.IAuthService
	Profile    service.IProfileService
	Recipe     service.IRecipeService
	LLM        service.ILLMService
	Image      service.IImageService
	Transcribe service.ITranscribeService
}

// NewServices wires the production service layer.
func NewServices(db *gorm.DB, rdb *redis.Client, cfg *config.Config, s3Config *config.S3Config) *Services {
	return &Services{
		Auth:       service.NewAuthService(db, rdb, cfg),
		Profile:    service.NewProfileService(db),
		Recipe:     service.NewRecipeService(db),
		LLM:        service.NewLLMService(cfg),
		Image:      service.NewImageService(cfg, s3Config),
		Transcribe: service.NewTranscribeService(cfg),
	}
}

// RegisterRoutes registers all API routes. rdb may be nil, which disables
// rate limiting.
func RegisterRoutes(router *gin.Engine, svcs *Services, rdb *redis.Client, devMode bool) {
	router.GET("/health", HealthCheck)
	router.GET("/api/health", HealthCheck)

	analyzeLimiter := middleware.NewAnalyzeRateLimiter(rdb)
	imageLimiter := middleware.NewImageRateLimiter(rdb)

	apiGroup := router.Group("/api")

	NewAuthHandler(svcs.Auth, devMode).RegisterRoutes(apiGroup)
	NewProfileHandler(svcs.Profile, svcs.Recipe, svcs.Auth).RegisterRoutes(apiGroup)
	NewRecipeHandler(svcs.Recipe, svcs.Auth).RegisterRoutes(apiGroup)
	NewAnalyzeHandler(svcs.LLM, svcs.Auth, analyzeLimiter).RegisterRoutes(apiGroup)
	NewImageHandler(svcs.Image, svcs.Auth, imageLimiter).RegisterRoutes(apiGroup)
	NewTranscribeHandler(svcs.Transcribe).RegisterRoutes(apiGroup)
}
