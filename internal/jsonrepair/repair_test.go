package jsonrepair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractValidJSON(t *testing.T) {
	content := `{
		"recipe": {"title": "Chocolate Chip Cookies", "difficulty": "easy", "public": true},
		"ingredients": [{"idx": 0, "quantity": 2, "unit": "cup", "item": "flour", "notes": null}],
		"steps": [{"idx": 0, "instruction": "Mix flour and baking soda.", "timer_seconds": null, "temperature_c": null, "tool": null, "tip": null, "image_url": null}],
		"substitutions": [],
		"images": []
	}`

	out := Extract(content)
	require.NotNil(t, out)
	assert.Equal(t, "Chocolate Chip Cookies", out.Recipe.Title)
	require.NotNil(t, out.Recipe.Difficulty)
	assert.Equal(t, "easy", *out.Recipe.Difficulty)
	require.Len(t, out.Ingredients, 1)
	assert.Equal(t, "flour", out.Ingredients[0].Item)
	require.NotNil(t, out.Ingredients[0].Quantity)
	assert.Equal(t, 2.0, *out.Ingredients[0].Quantity)
	require.Len(t, out.Steps, 1)
	assert.Equal(t, "Mix flour and baking soda.", out.Steps[0].Instruction)
}

func TestExtractFencedBlock(t *testing.T) {
	content := "Here is the recipe:\n```json\n{\"recipe\": {\"title\": \"Pancakes\", \"public\": true}, \"ingredients\": [], \"steps\": []}\n```\nEnjoy!"

	out := Extract(content)
	assert.Equal(t, "Pancakes", out.Recipe.Title)
	assert.NotNil(t, out.Substitutions)
	assert.NotNil(t, out.Images)
}

func TestExtractObjectEmbeddedInProse(t *testing.T) {
	content := `Sure! {"recipe": {"title": "Toast", "public": true}, "ingredients": [], "steps": []} Hope that helps.`

	out := Extract(content)
	assert.Equal(t, "Toast", out.Recipe.Title)
}

func TestExtractTruncatedMidValue(t *testing.T) {
	// Stream cut off in the middle of a string value.
	content := `{
		"recipe": {
			"title": "Banana Bread",
			"description_md": "A moist loaf wit`

	out := Extract(content)
	require.NotNil(t, out)
	assert.Equal(t, "Banana Bread", out.Recipe.Title)
	assert.NotNil(t, out.Ingredients)
	assert.NotNil(t, out.Steps)
}

func TestExtractTruncatedMidArray(t *testing.T) {
	content := `{
		"recipe": {"title": "Salad", "public": true},
		"ingredients": [
			{"idx": 0, "item": "lettuce"},
			{"idx": 1, "item": "tomato"}`

	out := Extract(content)
	assert.Equal(t, "Salad", out.Recipe.Title)
	require.Len(t, out.Ingredients, 2)
	assert.Equal(t, "tomato", out.Ingredients[1].Item)
}

func TestExtractTrailingCommas(t *testing.T) {
	content := `{"recipe": {"title": "Soup", "public": true,}, "ingredients": [], "steps": [],}`

	out := Extract(content)
	assert.Equal(t, "Soup", out.Recipe.Title)
}

func TestExtractGarbageFallsBackToPlaceholder(t *testing.T) {
	out := Extract("I'm sorry, I can't help with that.")
	require.NotNil(t, out)
	assert.Equal(t, "Recipe in Progress", out.Recipe.Title)
	assert.True(t, out.Recipe.Public)
	assert.Empty(t, out.Ingredients)
	assert.Empty(t, out.Steps)
	assert.NotNil(t, out.Substitutions)
	assert.NotNil(t, out.Images)
}

func TestExtractEmptyInput(t *testing.T) {
	out := Extract("")
	require.NotNil(t, out)
	assert.Equal(t, "Recipe in Progress", out.Recipe.Title)
}

func TestExtractInvalidDifficultyCleared(t *testing.T) {
	content := `{"recipe": {"title": "Stew", "difficulty": "expert", "public": true}, "ingredients": [], "steps": []}`

	out := Extract(content)
	assert.Nil(t, out.Recipe.Difficulty)
}

func TestExtractDifficultyCaseNormalized(t *testing.T) {
	content := `{"recipe": {"title": "Stew", "difficulty": "Medium", "public": true}, "ingredients": [], "steps": []}`

	out := Extract(content)
	require.NotNil(t, out.Recipe.Difficulty)
	assert.Equal(t, "medium", *out.Recipe.Difficulty)
}

func TestExtractRegexFallbackRecoversFields(t *testing.T) {
	// Malformed beyond structural repair: unquoted token forces field recovery.
	content := `{"recipe": {"title": "Chili", "cuisine": "Tex-Mex", "total_time_min": 45, "difficulty": oops`

	out := Extract(content)
	assert.Equal(t, "Chili", out.Recipe.Title)
	require.NotNil(t, out.Recipe.Cuisine)
	assert.Equal(t, "Tex-Mex", *out.Recipe.Cuisine)
	require.NotNil(t, out.Recipe.TotalTimeMin)
	assert.Equal(t, 45, *out.Recipe.TotalTimeMin)
}

func TestBalancedObjectSpanIgnoresBracesInStrings(t *testing.T) {
	content := `{"recipe": {"title": "Odd {braces} inside", "public": true}, "ingredients": [], "steps": []}`

	out := Extract(content)
	assert.Equal(t, "Odd {braces} inside", out.Recipe.Title)
}

func TestNormalizeNilInput(t *testing.T) {
	out := Normalize(nil)
	require.NotNil(t, out)
	assert.Equal(t, "Recipe in Progress", out.Recipe.Title)
	assert.True(t, out.Recipe.Public)
}
