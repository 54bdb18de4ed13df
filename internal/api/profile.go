package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cozyplate/backend/internal/middleware"
	"github.com/cozyplate/backend/internal/service"
)

// ProfileHandler serves public profiles and their recipe listings.
type ProfileHandler struct {
	profileService service.IProfileService
	recipeService  service.IRecipeService
	authService    service.IAuthService
}

func NewProfileHandler(profileService service.IProfileService, recipeService service.IRecipeService, authService service.IAuthService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		recipeService:  recipeService,
		authService:    authService,
	}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profiles := router.Group("/profiles")
	{
		profiles.GET("", middleware.RequireAuth(h.authService), h.OwnProfile)
		profiles.POST("", middleware.RequireAuth(h.authService), h.CreateProfile)
		profiles.PATCH("/me", middleware.RequireAuth(h.authService), h.UpdateProfile)
		profiles.GET("/me", middleware.RequireAuth(h.authService), h.MyProfile)
		profiles.GET("/:handle", middleware.OptionalAuth(h.authService), h.GetProfile)
		profiles.GET("/:handle/recipes", middleware.OptionalAuth(h.authService), h.ProfileRecipes)
	}
}

type createProfileRequest struct {
	Handle      string  `json:"handle" binding:"required"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "handle is required")
		return
	}

	profile, err := h.profileService.CreateProfile(c.Request.Context(), userID, req.Handle, req.DisplayName, req.AvatarURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidHandle):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrHandleTaken):
			respondError(c, http.StatusConflict, "handle is already taken")
		case errors.Is(err, service.ErrProfileExists):
			respondError(c, http.StatusConflict, "profile already exists")
		default:
			respondError(c, http.StatusInternalServerError, "failed to create profile")
		}
		return
	}

	respondCreated(c, profile)
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userID, req.DisplayName, req.AvatarURL)
	if err != nil {
		if errors.Is(err, service.ErrProfileMissing) {
			respondError(c, http.StatusNotFound, "profile not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to update profile")
		return
	}

	respondOK(c, profile)
}

// OwnProfile reports the caller's profile and whether one exists yet, so the
// client can route first-time users to profile creation.
func (h *ProfileHandler) OwnProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	profile, err := h.profileService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileMissing) {
			respondOK(c, gin.H{"profile": nil, "hasProfile": false})
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}

	respondOK(c, gin.H{"profile": profile, "hasProfile": true})
}

func (h *ProfileHandler) MyProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	profile, err := h.profileService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileMissing) {
			respondError(c, http.StatusNotFound, "profile not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}

	respondOK(c, profile)
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileService.GetByHandle(c.Request.Context(), c.Param("handle"))
	if err != nil {
		if errors.Is(err, service.ErrProfileMissing) {
			respondError(c, http.StatusNotFound, "profile not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}

	respondOK(c, profile)
}

// ProfileRecipes lists a profile's recipes. The owner sees private ones too.
func (h *ProfileHandler) ProfileRecipes(c *gin.Context) {
	profile, err := h.profileService.GetByHandle(c.Request.Context(), c.Param("handle"))
	if err != nil {
		if errors.Is(err, service.ErrProfileMissing) {
			respondError(c, http.StatusNotFound, "profile not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}

	includePrivate := false
	if viewerID, ok := c.Get("user_id"); ok {
		includePrivate = viewerID.(uuid.UUID) == profile.UserID
	}

	page, pageSize := pageParams(c)
	recipes, total, err := h.recipeService.ListByUser(c.Request.Context(), profile.UserID, includePrivate, page, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list recipes")
		return
	}

	respondPaginated(c, recipes, page, pageSize, total)
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "24"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 24
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
