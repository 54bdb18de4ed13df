package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cozyplate/backend/internal/models"
	"github.com/cozyplate/backend/internal/types"
)

var (
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrForbidden       = errors.New("not allowed")
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyComment    = errors.New("comment body is required")
)

// RecipeView is a recipe plus the viewer-dependent social fields.
type RecipeView struct {
	models.Recipe
	LikeCount int64 `json:"like_count"`
	LikedByMe bool  `json:"liked_by_me"`
	IsOwner   bool  `json:"is_owner"`
}

// RecipeService persists analyzed drafts and serves feed, search, and social
// operations. Parent and children are written in one transaction so a failed
// child insert never leaves an orphaned recipe behind.
type RecipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// CreateFromDraft saves an analyzed recipe and all its children atomically.
func (s *RecipeService) CreateFromDraft(ctx context.Context, userID uuid.UUID, draft *types.AnalyzedRecipe) (*models.Recipe, error) {
	if draft == nil || strings.TrimSpace(draft.Recipe.Title) == "" {
		return nil, errors.New("recipe title is required")
	}

	recipe := models.Recipe{
		ID:     uuid.New(),
		UserID: userID,
	}
	applyDraftFields(&recipe, &draft.Recipe)
	recipe.Slug = makeSlug(recipe.Title)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return insertChildren(tx, recipe.ID, draft)
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// UpdateFromDraft replaces a recipe's fields and children with the draft's.
// Children are wiped and reinserted rather than diffed.
func (s *RecipeService) UpdateFromDraft(ctx context.Context, userID uuid.UUID, idOrSlug string, draft *types.AnalyzedRecipe) (*models.Recipe, error) {
	if draft == nil || strings.TrimSpace(draft.Recipe.Title) == "" {
		return nil, errors.New("recipe title is required")
	}

	recipe, err := s.findRecipe(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if recipe.UserID != userID {
		return nil, ErrForbidden
	}

	applyDraftFields(recipe, &draft.Recipe)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(recipe).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		for _, child := range []interface{}{
			&models.Ingredient{}, &models.Step{}, &models.Substitution{}, &models.RecipeImage{},
		} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to clear recipe children: %w", err)
			}
		}
		return insertChildren(tx, recipe.ID, draft)
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete removes a recipe owned by userID. Children go with it.
func (s *RecipeService) Delete(ctx context.Context, userID uuid.UUID, idOrSlug string) error {
	recipe, err := s.findRecipe(ctx, idOrSlug)
	if err != nil {
		return err
	}
	if recipe.UserID != userID {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{
			&models.Ingredient{}, &models.Step{}, &models.Substitution{},
			&models.RecipeImage{}, &models.Comment{}, &models.Like{},
		} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to delete recipe children: %w", err)
			}
		}
		if err := tx.Delete(&models.Recipe{}, "id = ?", recipe.ID).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
}

// Get loads a recipe with children and the viewer's social state. Private
// recipes are invisible to anonymous viewers and forbidden to other users.
func (s *RecipeService) Get(ctx context.Context, viewerID *uuid.UUID, idOrSlug string) (*RecipeView, error) {
	var recipe models.Recipe
	q := s.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("idx") }).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("idx") }).
		Preload("Substitutions").
		Preload("Images").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") })

	var err error
	if id, perr := uuid.Parse(idOrSlug); perr == nil {
		err = q.First(&recipe, "id = ?", id).Error
	} else {
		err = q.First(&recipe, "slug = ?", idOrSlug).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	if !recipe.Public {
		if viewerID == nil {
			return nil, ErrRecipeNotFound
		}
		if *viewerID != recipe.UserID {
			return nil, ErrForbidden
		}
	}

	view := &RecipeView{Recipe: recipe}
	if err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("recipe_id = ?", recipe.ID).Count(&view.LikeCount).Error; err != nil {
		return nil, err
	}
	if viewerID != nil {
		view.IsOwner = *viewerID == recipe.UserID
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Like{}).
			Where("recipe_id = ? AND user_id = ?", recipe.ID, *viewerID).Count(&n).Error; err != nil {
			return nil, err
		}
		view.LikedByMe = n > 0
	}
	return view, nil
}

// Feed pages through public recipes, newest first.
func (s *RecipeService) Feed(ctx context.Context, page, pageSize int) ([]models.Recipe, int64, error) {
	page, pageSize = clampPage(page, pageSize)

	base := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("public = ?", true).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := base.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// Search matches public recipes by title, description, or cuisine substring,
// case-insensitively.
func (s *RecipeService) Search(ctx context.Context, query string, page, pageSize int) ([]models.Recipe, int64, error) {
	page, pageSize = clampPage(page, pageSize)
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	base := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("public = ?", true).
		Where("LOWER(title) LIKE ? OR LOWER(description_md) LIKE ? OR LOWER(cuisine) LIKE ?",
			pattern, pattern, pattern).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := base.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// ListByUser pages a user's recipes. Private ones only show when the viewer
// is the owner.
func (s *RecipeService) ListByUser(ctx context.Context, ownerID uuid.UUID, includePrivate bool, page, pageSize int) ([]models.Recipe, int64, error) {
	page, pageSize = clampPage(page, pageSize)

	base := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("user_id = ?", ownerID)
	if !includePrivate {
		base = base.Where("public = ?", true)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := base.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// ToggleLike flips the like state and returns the new state and total.
func (s *RecipeService) ToggleLike(ctx context.Context, userID, recipeID uuid.UUID) (bool, int64, error) {
	if _, err := s.findRecipe(ctx, recipeID.String()); err != nil {
		return false, 0, err
	}

	var liked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.First(&existing, "user_id = ? AND recipe_id = ?", userID, recipeID).Error
		switch {
		case err == nil:
			liked = false
			return tx.Delete(&models.Like{}, "user_id = ? AND recipe_id = ?", userID, recipeID).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			liked = true
			return tx.Create(&models.Like{UserID: userID, RecipeID: recipeID}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, 0, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("recipe_id = ?", recipeID).Count(&count).Error; err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (s *RecipeService) AddComment(ctx context.Context, userID, recipeID uuid.UUID, bodyMD string) (*models.Comment, error) {
	bodyMD = strings.TrimSpace(bodyMD)
	if bodyMD == "" {
		return nil, ErrEmptyComment
	}
	if _, err := s.findRecipe(ctx, recipeID.String()); err != nil {
		return nil, err
	}

	comment := models.Comment{
		RecipeID: recipeID,
		UserID:   userID,
		BodyMD:   bodyMD,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return &comment, nil
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *RecipeService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if comment.UserID != userID {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", commentID).Error
}

func (s *RecipeService) ListComments(ctx context.Context, recipeID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order("created_at").
		Find(&comments).Error
	return comments, err
}

// AttachImage appends a gallery image to a recipe owned by userID.
func (s *RecipeService) AttachImage(ctx context.Context, userID, recipeID uuid.UUID, url string, caption *string) (*models.RecipeImage, error) {
	recipe, err := s.findRecipe(ctx, recipeID.String())
	if err != nil {
		return nil, err
	}
	if recipe.UserID != userID {
		return nil, ErrForbidden
	}

	image := models.RecipeImage{
		RecipeID: recipeID,
		URL:      url,
		Caption:  caption,
	}
	if err := s.db.WithContext(ctx).Create(&image).Error; err != nil {
		return nil, fmt.Errorf("failed to attach image: %w", err)
	}
	return &image, nil
}

func (s *RecipeService) findRecipe(ctx context.Context, idOrSlug string) (*models.Recipe, error) {
	var recipe models.Recipe
	var err error
	if id, perr := uuid.Parse(idOrSlug); perr == nil {
		err = s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error
	} else {
		err = s.db.WithContext(ctx).First(&recipe, "slug = ?", idOrSlug).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

func applyDraftFields(recipe *models.Recipe, fields *types.RecipeFields) {
	recipe.Title = strings.TrimSpace(fields.Title)
	recipe.DescriptionMD = strDeref(fields.DescriptionMD)
	recipe.YieldText = strDeref(fields.YieldText)
	recipe.TotalTimeMin = fields.TotalTimeMin
	recipe.ActiveTimeMin = fields.ActiveTimeMin
	recipe.Cuisine = strDeref(fields.Cuisine)
	recipe.Difficulty = strDeref(fields.Difficulty)
	recipe.DietTags = models.JSONBStringArray(fields.DietTags)
	recipe.AllergenTags = models.JSONBStringArray(fields.AllergenTags)
	recipe.HeroImageURL = strDeref(fields.HeroImageURL)
	recipe.Nutrition = models.JSONBMap(fields.Nutrition)
	recipe.Public = fields.Public
}

func insertChildren(tx *gorm.DB, recipeID uuid.UUID, draft *types.AnalyzedRecipe) error {
	for i, ing := range draft.Ingredients {
		row := models.Ingredient{
			RecipeID: recipeID,
			Idx:      orIndex(ing.Idx, i),
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
			Item:     ing.Item,
			Notes:    ing.Notes,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create ingredient: %w", err)
		}
	}
	for i, step := range draft.Steps {
		row := models.Step{
			RecipeID:     recipeID,
			Idx:          orIndex(step.Idx, i),
			Instruction:  step.Instruction,
			TimerSeconds: step.TimerSeconds,
			TemperatureC: step.TemperatureC,
			Tool:         step.Tool,
			Tip:          step.Tip,
			ImageURL:     step.ImageURL,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create step: %w", err)
		}
	}
	// Substitutions are keyed by ingredient idx; the model occasionally
	// suggests several swaps for one ingredient, so keep the first.
	seenSubs := make(map[int]bool, len(draft.Substitutions))
	for _, sub := range draft.Substitutions {
		if seenSubs[sub.IngredientIdx] {
			continue
		}
		seenSubs[sub.IngredientIdx] = true
		row := models.Substitution{
			RecipeID:      recipeID,
			IngredientIdx: sub.IngredientIdx,
			Suggestion:    sub.Suggestion,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create substitution: %w", err)
		}
	}
	for _, img := range draft.Images {
		if img.URL == "" {
			continue
		}
		row := models.RecipeImage{
			RecipeID: recipeID,
			URL:      img.URL,
			Caption:  img.Caption,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create image: %w", err)
		}
	}
	return nil
}

// orIndex keeps the draft's explicit idx when set, falling back to position
// for drafts whose indices were lost during repair.
func orIndex(idx, position int) int {
	if idx == 0 && position > 0 {
		return position
	}
	return idx
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func clampPage(page, pageSize int) (int, int) {
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

var slugScrubRe = regexp.MustCompile(`[^a-z0-9]+`)

// makeSlug derives a URL slug from the title plus a short random suffix so
// identical titles never collide.
func makeSlug(title string) string {
	base := slugScrubRe.ReplaceAllString(strings.ToLower(title), "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "recipe"
	}
	if len(base) > 60 {
		base = base[:60]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return base + "-" + suffix
}
