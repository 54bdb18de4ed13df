package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProfile(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env, "chef@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/profiles", token,
		map[string]string{"handle": "ChefAnna", "display_name": "Chef Anna"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]interface{})
	// Handles are stored lowercase.
	assert.Equal(t, "chefanna", data["handle"])
	assert.Equal(t, "Chef Anna", data["display_name"])
}

func TestCreateProfileAllowsHyphens(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env, "crochet@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/profiles", token,
		map[string]string{"handle": "Granny-Squares"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "granny-squares", data["handle"])
}

func TestCreateProfileInvalidHandle(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env, "chef@example.com")

	for _, handle := range []string{"ab", "has spaces", "emoji🍳", "way-too-long-for-a-handle-aaaaaaaaaa"} {
		w := doJSON(t, env, http.MethodPost, "/api/profiles", token,
			map[string]string{"handle": handle})
		assert.Equal(t, http.StatusBadRequest, w.Code, "handle %q", handle)
	}
}

func TestCreateProfileHandleConflict(t *testing.T) {
	env := setupTestEnv(t)
	_, first := createTestUser(t, env, "first@example.com")
	_, second := createTestUser(t, env, "second@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/profiles", first,
		map[string]string{"handle": "baker"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Same handle, different case: still a conflict.
	w = doJSON(t, env, http.MethodPost, "/api/profiles", second,
		map[string]string{"handle": "Baker"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateProfileOnlyOnePerUser(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env, "chef@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/profiles", token,
		map[string]string{"handle": "original"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, env, http.MethodPost, "/api/profiles", token,
		map[string]string{"handle": "another"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetProfileByHandle(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env, "chef@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/profiles", token,
		map[string]string{"handle": "findme", "display_name": "Find Me"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, env, http.MethodGet, "/api/profiles/findme", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Find Me", data["display_name"])

	w = doJSON(t, env, http.MethodGet, "/api/profiles/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOwnProfileReportsHasProfile(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env, "newbie@example.com")

	w := doJSON(t, env, http.MethodGet, "/api/profiles", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, false, data["hasProfile"])
	assert.Nil(t, data["profile"])

	w = doJSON(t, env, http.MethodPost, "/api/profiles", token,
		map[string]string{"handle": "newbie"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, env, http.MethodGet, "/api/profiles", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["hasProfile"])
	assert.Equal(t, "newbie", data["profile"].(map[string]interface{})["handle"])
}

func TestUpdateProfile(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env, "chef@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/profiles", token,
		map[string]string{"handle": "renameme", "display_name": "Old Name"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, env, http.MethodPatch, "/api/profiles/me", token,
		map[string]string{"display_name": "New Name"})
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "New Name", data["display_name"])
	assert.Equal(t, "renameme", data["handle"])
}

func TestProfileRecipesVisibility(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := createTestUser(t, env, "owner@example.com")
	_, otherToken := createTestUser(t, env, "other@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/profiles", ownerToken,
		map[string]string{"handle": "prolific"})
	require.Equal(t, http.StatusCreated, w.Code)

	createRecipe(t, env, ownerToken, "Shared Dish", true)
	createRecipe(t, env, ownerToken, "Secret Dish", false)

	// Strangers only see public recipes.
	w = doJSON(t, env, http.MethodGet, "/api/profiles/prolific/recipes", otherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"], 1)

	// The owner sees everything.
	w = doJSON(t, env, http.MethodGet, "/api/profiles/prolific/recipes", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"], 2)
}
