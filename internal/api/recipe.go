package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cozyplate/backend/internal/middleware"
	"github.com/cozyplate/backend/internal/service"
	"github.com/cozyplate/backend/internal/types"
)

// RecipeHandler serves recipe CRUD, the public feed, search, and the social
// operations (likes and comments).
type RecipeHandler struct {
	recipeService service.IRecipeService
	authService   service.IAuthService
}

func NewRecipeHandler(recipeService service.IRecipeService, authService service.IAuthService) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		authService:   authService,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.Feed)
		recipes.GET("/search", h.Search)
		recipes.GET("/me", middleware.RequireAuth(h.authService), h.MyRecipes)
		recipes.POST("", middleware.RequireAuth(h.authService), h.CreateRecipe)
		recipes.GET("/:id", middleware.OptionalAuth(h.authService), h.GetRecipe)
		recipes.PUT("/:id", middleware.RequireAuth(h.authService), h.UpdateRecipe)
		recipes.DELETE("/:id", middleware.RequireAuth(h.authService), h.DeleteRecipe)
		recipes.POST("/:id/like", middleware.RequireAuth(h.authService), h.ToggleLike)
		recipes.GET("/:id/comments", h.ListComments)
		recipes.POST("/:id/comments", middleware.RequireAuth(h.authService), h.AddComment)
		recipes.DELETE("/:id/comments/:commentID", middleware.RequireAuth(h.authService), h.DeleteComment)
		recipes.POST("/:id/images", middleware.RequireAuth(h.authService), h.AttachImage)
	}
}

// Feed pages the public recipes, newest first. A non-empty search parameter
// switches to substring matching over the same visibility rules.
func (h *RecipeHandler) Feed(c *gin.Context) {
	page, pageSize := pageParams(c)

	if query := strings.TrimSpace(c.Query("search")); query != "" {
		recipes, total, err := h.recipeService.Search(c.Request.Context(), query, page, pageSize)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "search failed")
			return
		}
		respondPaginated(c, recipes, page, pageSize, total)
		return
	}

	recipes, total, err := h.recipeService.Feed(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load feed")
		return
	}
	respondPaginated(c, recipes, page, pageSize, total)
}

// Search is the explicit alias for the feed's search parameter.
func (h *RecipeHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		query = strings.TrimSpace(c.Query("search"))
	}
	if query == "" {
		respondError(c, http.StatusBadRequest, "query parameter q is required")
		return
	}

	page, pageSize := pageParams(c)
	recipes, total, err := h.recipeService.Search(c.Request.Context(), query, page, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "search failed")
		return
	}
	respondPaginated(c, recipes, page, pageSize, total)
}

// MyRecipes lists the signed-in user's recipes, private ones included.
func (h *RecipeHandler) MyRecipes(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	page, pageSize := pageParams(c)
	recipes, total, err := h.recipeService.ListByUser(c.Request.Context(), userID, true, page, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list recipes")
		return
	}
	respondPaginated(c, recipes, page, pageSize, total)
}

// CreateRecipe saves an analyzed draft as a new recipe.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var draft types.AnalyzedRecipe
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondError(c, http.StatusBadRequest, "invalid recipe payload")
		return
	}
	if strings.TrimSpace(draft.Recipe.Title) == "" {
		respondError(c, http.StatusBadRequest, "recipe title is required")
		return
	}

	recipe, err := h.recipeService.CreateFromDraft(c.Request.Context(), userID, &draft)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to create recipe")
		return
	}

	respondCreated(c, gin.H{"id": recipe.ID, "slug": recipe.Slug})
}

// GetRecipe returns a recipe with children and viewer-dependent fields.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	var viewerID *uuid.UUID
	if v, ok := c.Get("user_id"); ok {
		id := v.(uuid.UUID)
		viewerID = &id
	}

	view, err := h.recipeService.Get(c.Request.Context(), viewerID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			respondError(c, http.StatusNotFound, "recipe not found")
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "this recipe is private")
		default:
			respondError(c, http.StatusInternalServerError, "failed to load recipe")
		}
		return
	}

	respondOK(c, view)
}

// UpdateRecipe replaces a recipe's fields and children with the draft's.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var draft types.AnalyzedRecipe
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondError(c, http.StatusBadRequest, "invalid recipe payload")
		return
	}
	if strings.TrimSpace(draft.Recipe.Title) == "" {
		respondError(c, http.StatusBadRequest, "recipe title is required")
		return
	}

	recipe, err := h.recipeService.UpdateFromDraft(c.Request.Context(), userID, c.Param("id"), &draft)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			respondError(c, http.StatusNotFound, "recipe not found")
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "you do not own this recipe")
		default:
			respondError(c, http.StatusInternalServerError, "failed to update recipe")
		}
		return
	}

	respondOK(c, gin.H{"id": recipe.ID, "slug": recipe.Slug})
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	err := h.recipeService.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			respondError(c, http.StatusNotFound, "recipe not found")
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "you do not own this recipe")
		default:
			respondError(c, http.StatusInternalServerError, "failed to delete recipe")
		}
		return
	}

	respondOK(c, gin.H{"message": "recipe deleted"})
}

// ToggleLike flips the viewer's like and returns the new state and count.
func (h *RecipeHandler) ToggleLike(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	recipeID, err := h.resolveRecipeID(c)
	if err != nil {
		return
	}

	liked, count, err := h.recipeService.ToggleLike(c.Request.Context(), userID, recipeID)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			respondError(c, http.StatusNotFound, "recipe not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to toggle like")
		return
	}

	respondOK(c, gin.H{"liked": liked, "like_count": count})
}

func (h *RecipeHandler) ListComments(c *gin.Context) {
	recipeID, err := h.resolveRecipeID(c)
	if err != nil {
		return
	}

	comments, err := h.recipeService.ListComments(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list comments")
		return
	}
	respondOK(c, comments)
}

type commentRequest struct {
	BodyMD string `json:"body_md" binding:"required"`
}

func (h *RecipeHandler) AddComment(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	recipeID, err := h.resolveRecipeID(c)
	if err != nil {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "body_md is required")
		return
	}

	comment, err := h.recipeService.AddComment(c.Request.Context(), userID, recipeID, req.BodyMD)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			respondError(c, http.StatusNotFound, "recipe not found")
		case errors.Is(err, service.ErrEmptyComment):
			respondError(c, http.StatusBadRequest, "body_md is required")
		default:
			respondError(c, http.StatusInternalServerError, "failed to add comment")
		}
		return
	}

	respondCreated(c, comment)
}

func (h *RecipeHandler) DeleteComment(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	commentID, err := uuid.Parse(c.Param("commentID"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid comment id")
		return
	}

	err = h.recipeService.DeleteComment(c.Request.Context(), userID, commentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			respondError(c, http.StatusNotFound, "comment not found")
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "you can only delete your own comments")
		default:
			respondError(c, http.StatusInternalServerError, "failed to delete comment")
		}
		return
	}

	respondOK(c, gin.H{"message": "comment deleted"})
}

type attachImageRequest struct {
	URL     string  `json:"url" binding:"required"`
	Caption *string `json:"caption"`
}

// AttachImage appends a gallery image to an owned recipe.
func (h *RecipeHandler) AttachImage(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	recipeID, err := h.resolveRecipeID(c)
	if err != nil {
		return
	}

	var req attachImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "url is required")
		return
	}

	image, err := h.recipeService.AttachImage(c.Request.Context(), userID, recipeID, req.URL, req.Caption)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			respondError(c, http.StatusNotFound, "recipe not found")
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "you do not own this recipe")
		default:
			respondError(c, http.StatusInternalServerError, "failed to attach image")
		}
		return
	}

	respondCreated(c, image)
}

// resolveRecipeID parses the :id param, responding 400 on malformed ids.
// Slug paths hit Get/Update/Delete; the social endpoints require the uuid.
func (h *RecipeHandler) resolveRecipeID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid recipe id")
		return uuid.Nil, err
	}
	return id, nil
}
