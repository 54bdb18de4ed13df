package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateImageReturnsURLAndPrompt(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env, "cook@example.com")

	payload := map[string]interface{}{
		"analyzedRecipe": draftPayload("Berry Tart", true),
	}
	w := doJSON(t, env, http.MethodPost, "/api/recipes/generate-image", token, payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "https://img.test/recipe.png", data["imageUrl"])
	assert.Equal(t, "test prompt", data["prompt"])
}

func TestGenerateImageRequiresDraft(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env, "cook@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/recipes/generate-image", token,
		map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateImageNoRetryOnFailure(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env, "cook@example.com")

	env.Image.Err = errors.New("dall-e unavailable")

	payload := map[string]interface{}{
		"analyzedRecipe": draftPayload("Doomed Dish", true),
	}
	w := doJSON(t, env, http.MethodPost, "/api/recipes/generate-image", token, payload)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGenerateImageRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)

	w := doJSON(t, env, http.MethodPost, "/api/recipes/generate-image", "",
		map[string]interface{}{"analyzedRecipe": draftPayload("Nope", true)})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
