package types

// RecipeFields is the parent portion of an analyzed recipe draft. Pointer
// fields distinguish "model said null" from "field absent in partial output".
type RecipeFields struct {
	Title         string                 `json:"title"`
	DescriptionMD *string                `json:"description_md"`
	YieldText     *string                `json:"yield_text"`
	TotalTimeMin  *int                   `json:"total_time_min"`
	ActiveTimeMin *int                   `json:"active_time_min"`
	Cuisine       *string                `json:"cuisine"`
	Difficulty    *string                `json:"difficulty"`
	DietTags      []string               `json:"diet_tags"`
	AllergenTags  []string               `json:"allergen_tags"`
	HeroImageURL  *string                `json:"hero_image_url"`
	Nutrition     map[string]interface{} `json:"nutrition_json"`
	Public        bool                   `json:"public"`
}

// IngredientDraft is one line item of a draft, ordered by Idx.
type IngredientDraft struct {
	Idx      int      `json:"idx"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
	Item     string   `json:"item"`
	Notes    *string  `json:"notes"`
}

// StepDraft is one instruction of a draft, ordered by Idx.
type StepDraft struct {
	Idx          int     `json:"idx"`
	Instruction  string  `json:"instruction"`
	TimerSeconds *int    `json:"timer_seconds"`
	TemperatureC *int    `json:"temperature_c"`
	Tool         *string `json:"tool"`
	Tip          *string `json:"tip"`
	ImageURL     *string `json:"image_url"`
}

// SubstitutionDraft suggests a swap for the ingredient at IngredientIdx.
type SubstitutionDraft struct {
	IngredientIdx int    `json:"ingredient_idx"`
	Suggestion    string `json:"suggestion"`
}

// ImageDraft is a gallery image attached to a draft.
type ImageDraft struct {
	URL     string  `json:"url"`
	Caption *string `json:"caption"`
}

// AnalyzedRecipe is the in-flight structured recipe assembled from LLM
// output. It exists only in memory and on the wire; saving it produces the
// persisted Recipe and its children.
type AnalyzedRecipe struct {
	Recipe        RecipeFields        `json:"recipe"`
	Ingredients   []IngredientDraft   `json:"ingredients"`
	Steps         []StepDraft         `json:"steps"`
	Substitutions []SubstitutionDraft `json:"substitutions"`
	Images        []ImageDraft        `json:"images"`
}
