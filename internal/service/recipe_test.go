package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cozyplate/backend/internal/database"
	"github.com/cozyplate/backend/internal/models"
	"github.com/cozyplate/backend/internal/types"
)

func setupRecipeService(t *testing.T) (*RecipeService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return NewRecipeService(db), db
}

func testUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	user := models.User{Email: fmt.Sprintf("%s@example.com", uuid.NewString())}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func sampleDraft(title string) *types.AnalyzedRecipe {
	desc := "A test dish."
	unit := "cup"
	qty := 2.0
	return &types.AnalyzedRecipe{
		Recipe: types.RecipeFields{
			Title:         title,
			DescriptionMD: &desc,
			Public:        true,
		},
		Ingredients: []types.IngredientDraft{
			{Idx: 0, Quantity: &qty, Unit: &unit, Item: "flour"},
			{Idx: 1, Item: "milk"},
		},
		Steps: []types.StepDraft{
			{Idx: 0, Instruction: "Mix everything."},
			{Idx: 1, Instruction: "Cook it."},
		},
		Substitutions: []types.SubstitutionDraft{
			{IngredientIdx: 1, Suggestion: "oat milk"},
		},
	}
}

func TestCreateFromDraftPersistsChildren(t *testing.T) {
	svc, db := setupRecipeService(t)
	userID := testUser(t, db)

	recipe, err := svc.CreateFromDraft(context.Background(), userID, sampleDraft("Pancakes"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, recipe.ID)
	assert.Contains(t, recipe.Slug, "pancakes-")

	view, err := svc.Get(context.Background(), &userID, recipe.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", view.Title)
	require.Len(t, view.Ingredients, 2)
	assert.Equal(t, "flour", view.Ingredients[0].Item)
	require.Len(t, view.Steps, 2)
	require.Len(t, view.Substitutions, 1)
	assert.True(t, view.IsOwner)
}

func TestGetBySlug(t *testing.T) {
	svc, db := setupRecipeService(t)
	userID := testUser(t, db)

	recipe, err := svc.CreateFromDraft(context.Background(), userID, sampleDraft("Slug Dish"))
	require.NoError(t, err)

	view, err := svc.Get(context.Background(), nil, recipe.Slug)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, view.ID)
	assert.False(t, view.IsOwner)
}

func TestPrivateRecipeVisibility(t *testing.T) {
	svc, db := setupRecipeService(t)
	owner := testUser(t, db)
	stranger := testUser(t, db)

	draft := sampleDraft("Secret Sauce")
	draft.Recipe.Public = false
	recipe, err := svc.CreateFromDraft(context.Background(), owner, draft)
	require.NoError(t, err)

	// Anonymous viewers can't tell it exists.
	_, err = svc.Get(context.Background(), nil, recipe.ID.String())
	assert.ErrorIs(t, err, ErrRecipeNotFound)

	// Other users are told it's off limits.
	_, err = svc.Get(context.Background(), &stranger, recipe.ID.String())
	assert.ErrorIs(t, err, ErrForbidden)

	// The owner sees it.
	view, err := svc.Get(context.Background(), &owner, recipe.ID.String())
	require.NoError(t, err)
	assert.True(t, view.IsOwner)
}

func TestUpdateFromDraftReplacesChildren(t *testing.T) {
	svc, db := setupRecipeService(t)
	userID := testUser(t, db)

	recipe, err := svc.CreateFromDraft(context.Background(), userID, sampleDraft("Original"))
	require.NoError(t, err)

	updated := &types.AnalyzedRecipe{
		Recipe: types.RecipeFields{Title: "Updated", Public: true},
		Ingredients: []types.IngredientDraft{
			{Idx: 0, Item: "butter"},
		},
		Steps: []types.StepDraft{
			{Idx: 0, Instruction: "Melt the butter."},
		},
	}
	_, err = svc.UpdateFromDraft(context.Background(), userID, recipe.ID.String(), updated)
	require.NoError(t, err)

	view, err := svc.Get(context.Background(), &userID, recipe.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Updated", view.Title)
	require.Len(t, view.Ingredients, 1)
	assert.Equal(t, "butter", view.Ingredients[0].Item)
	require.Len(t, view.Steps, 1)
	assert.Empty(t, view.Substitutions)
}

func TestUpdateFromDraftOwnershipEnforced(t *testing.T) {
	svc, db := setupRecipeService(t)
	owner := testUser(t, db)
	stranger := testUser(t, db)

	recipe, err := svc.CreateFromDraft(context.Background(), owner, sampleDraft("Mine"))
	require.NoError(t, err)

	_, err = svc.UpdateFromDraft(context.Background(), stranger, recipe.ID.String(), sampleDraft("Stolen"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteRemovesChildren(t *testing.T) {
	svc, db := setupRecipeService(t)
	userID := testUser(t, db)

	recipe, err := svc.CreateFromDraft(context.Background(), userID, sampleDraft("Doomed"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), userID, recipe.ID.String()))

	_, err = svc.Get(context.Background(), &userID, recipe.ID.String())
	assert.ErrorIs(t, err, ErrRecipeNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Ingredient{}).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSearchSubstringPublicOnly(t *testing.T) {
	svc, db := setupRecipeService(t)
	userID := testUser(t, db)

	_, err := svc.CreateFromDraft(context.Background(), userID, sampleDraft("Chocolate Cake"))
	require.NoError(t, err)

	private := sampleDraft("Chocolate Secret")
	private.Recipe.Public = false
	_, err = svc.CreateFromDraft(context.Background(), userID, private)
	require.NoError(t, err)

	results, total, err := svc.Search(context.Background(), "chocolate", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, "Chocolate Cake", results[0].Title)
}

func TestFeedPagination(t *testing.T) {
	svc, db := setupRecipeService(t)
	userID := testUser(t, db)

	for i := 0; i < 5; i++ {
		_, err := svc.CreateFromDraft(context.Background(), userID, sampleDraft(fmt.Sprintf("Dish %d", i)))
		require.NoError(t, err)
	}

	pageOne, total, err := svc.Feed(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, pageOne, 2)

	pageThree, _, err := svc.Feed(context.Background(), 3, 2)
	require.NoError(t, err)
	assert.Len(t, pageThree, 1)
}

func TestToggleLike(t *testing.T) {
	svc, db := setupRecipeService(t)
	owner := testUser(t, db)
	fan := testUser(t, db)

	recipe, err := svc.CreateFromDraft(context.Background(), owner, sampleDraft("Likeable"))
	require.NoError(t, err)

	liked, count, err := svc.ToggleLike(context.Background(), fan, recipe.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	liked, count, err = svc.ToggleLike(context.Background(), fan, recipe.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, count)
}

func TestCommentAuthorOnlyDelete(t *testing.T) {
	svc, db := setupRecipeService(t)
	owner := testUser(t, db)
	commenter := testUser(t, db)

	recipe, err := svc.CreateFromDraft(context.Background(), owner, sampleDraft("Discussed"))
	require.NoError(t, err)

	comment, err := svc.AddComment(context.Background(), commenter, recipe.ID, "Looks great!")
	require.NoError(t, err)

	err = svc.DeleteComment(context.Background(), owner, comment.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.DeleteComment(context.Background(), commenter, comment.ID))

	comments, err := svc.ListComments(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCreateFromDraftDedupesSubstitutions(t *testing.T) {
	svc, db := setupRecipeService(t)
	userID := testUser(t, db)

	// The model sometimes suggests several swaps for one ingredient; the
	// whole create must not fail on the keyed table.
	draft := sampleDraft("Doubled Swaps")
	draft.Substitutions = []types.SubstitutionDraft{
		{IngredientIdx: 1, Suggestion: "oat milk"},
		{IngredientIdx: 1, Suggestion: "soy milk"},
	}

	recipe, err := svc.CreateFromDraft(context.Background(), userID, draft)
	require.NoError(t, err)

	var subs []models.Substitution
	require.NoError(t, db.Where("recipe_id = ?", recipe.ID).Find(&subs).Error)
	require.Len(t, subs, 1)
	assert.Equal(t, "oat milk", subs[0].Suggestion)
}

func TestMakeSlug(t *testing.T) {
	slug := makeSlug("Grandma's Apple Pie!")
	assert.Contains(t, slug, "grandma-s-apple-pie-")

	another := makeSlug("Grandma's Apple Pie!")
	assert.NotEqual(t, slug, another)

	assert.Contains(t, makeSlug("???"), "recipe-")
}
