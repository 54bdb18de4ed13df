package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozyplate/backend/internal/models"
	"github.com/cozyplate/backend/internal/testhelpers"
)

// Verifies the jsonb columns and child-table replace semantics against a real
// Postgres, not just the SQLite shim. Gated behind TEST_POSTGRES=true.
func TestRecipeLifecycleOnPostgres(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	user := &models.User{Email: "pg@example.com"}
	require.NoError(t, db.Create(user).Error)

	draft := sampleDraft("Postgres Paella")
	draft.Recipe.DietTags = []string{"gluten-free"}
	draft.Recipe.Nutrition = map[string]interface{}{"kcal": 640}

	created, err := svc.CreateFromDraft(ctx, user.ID, draft)
	require.NoError(t, err)

	view, err := svc.Get(ctx, &user.ID, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Postgres Paella", view.Title)
	assert.Equal(t, []string{"gluten-free"}, []string(view.DietTags))
	assert.InDelta(t, 640, view.Nutrition["kcal"], 0.001)
	assert.Len(t, view.Ingredients, len(draft.Ingredients))

	draft.Ingredients = draft.Ingredients[:1]
	_, err = svc.UpdateFromDraft(ctx, user.ID, created.ID.String(), draft)
	require.NoError(t, err)

	view, err = svc.Get(ctx, &user.ID, created.ID.String())
	require.NoError(t, err)
	assert.Len(t, view.Ingredients, 1)

	require.NoError(t, svc.Delete(ctx, user.ID, created.ID.String()))

	var orphans int64
	require.NoError(t, db.Model(&models.Ingredient{}).Where("recipe_id = ?", created.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}
