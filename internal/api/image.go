package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cozyplate/backend/internal/middleware"
	"github.com/cozyplate/backend/internal/service"
	"github.com/cozyplate/backend/internal/types"
)

// ImageHandler generates AI hero images for analyzed recipes.
type ImageHandler struct {
	imageService service.IImageService
	authService  service.IAuthService
	rateLimiter  *middleware.RateLimiter
}

func NewImageHandler(imageService service.IImageService, authService service.IAuthService, rateLimiter *middleware.RateLimiter) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
		authService:  authService,
		rateLimiter:  rateLimiter,
	}
}

func (h *ImageHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/recipes/generate-image",
		middleware.RequireAuth(h.authService),
		h.rateLimiter.Middleware(),
		h.GenerateImage,
	)
}

type generateImageRequest struct {
	AnalyzedRecipe *types.AnalyzedRecipe `json:"analyzedRecipe"`
}

// GenerateImage creates a stylized image for the draft and returns its public
// URL. No automatic retry: a failed generation surfaces as an error and the
// user decides whether to spend another attempt.
func (h *ImageHandler) GenerateImage(c *gin.Context) {
	var req generateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AnalyzedRecipe == nil {
		respondError(c, http.StatusBadRequest, "Analyzed recipe data is required")
		return
	}
	if strings.TrimSpace(req.AnalyzedRecipe.Recipe.Title) == "" {
		respondError(c, http.StatusBadRequest, "Analyzed recipe data is required")
		return
	}

	imageURL, prompt, err := h.imageService.GenerateRecipeImage(c.Request.Context(), req.AnalyzedRecipe)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to generate and upload image")
		return
	}

	respondOK(c, gin.H{"imageUrl": imageURL, "prompt": prompt})
}
