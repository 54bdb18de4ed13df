package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// JSONBMap is a custom type for arbitrary JSONB objects (nutrition blob)
type JSONBMap map[string]interface{}

func (m JSONBMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	return json.Marshal(m)
}

func (m *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONBMap{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Recipe is a published or draft dish record. Children share its id and are
// removed with it (OnDelete:CASCADE).
type Recipe struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Title         string           `gorm:"size:255;not null" json:"title"`
	Slug          string           `gorm:"size:255;uniqueIndex" json:"slug"`
	DescriptionMD string           `gorm:"type:text" json:"description_md"`
	YieldText     string           `gorm:"size:100" json:"yield_text"`
	TotalTimeMin  *int             `json:"total_time_min"`
	ActiveTimeMin *int             `json:"active_time_min"`
	Cuisine       string           `gorm:"size:50" json:"cuisine"`
	Difficulty    string           `gorm:"size:10" json:"difficulty"`
	DietTags      JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"diet_tags"`
	AllergenTags  JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"allergen_tags"`
	HeroImageURL  string           `gorm:"size:512" json:"hero_image_url"`
	Nutrition     JSONBMap         `gorm:"type:jsonb" json:"nutrition_json"`
	Public        bool             `gorm:"not null;default:true" json:"public"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	Ingredients   []Ingredient   `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`
	Steps         []Step         `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
	Substitutions []Substitution `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"substitutions,omitempty"`
	Images        []RecipeImage  `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Comments      []Comment      `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Ingredient is one line item of a recipe, keyed by (recipe_id, idx).
type Ingredient struct {
	RecipeID uuid.UUID `gorm:"type:uuid;primaryKey" json:"recipe_id"`
	Idx      int       `gorm:"primaryKey" json:"idx"`
	Quantity *float64  `json:"quantity"`
	Unit     *string   `gorm:"size:50" json:"unit"`
	Item     string    `gorm:"size:255;not null" json:"item"`
	Notes    *string   `gorm:"type:text" json:"notes"`
}

// Step is one instruction of a recipe, keyed by (recipe_id, idx).
type Step struct {
	RecipeID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"recipe_id"`
	Idx          int       `gorm:"primaryKey" json:"idx"`
	Instruction  string    `gorm:"type:text;not null" json:"instruction"`
	TimerSeconds *int      `json:"timer_seconds"`
	TemperatureC *int      `json:"temperature_c"`
	Tool         *string   `gorm:"size:100" json:"tool"`
	Tip          *string   `gorm:"type:text" json:"tip"`
	ImageURL     *string   `gorm:"size:512" json:"image_url"`
}

// Substitution suggests a swap for the ingredient at IngredientIdx.
type Substitution struct {
	RecipeID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"recipe_id"`
	IngredientIdx int       `gorm:"primaryKey" json:"ingredient_idx"`
	Suggestion    string    `gorm:"type:text;not null" json:"suggestion"`
}

// RecipeImage is a gallery image attached to a recipe, append-only.
type RecipeImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	Caption   *string   `gorm:"size:255" json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

func (i *RecipeImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Comment is a user remark on a recipe, deletable by its author.
type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	BodyMD    string    `gorm:"type:text;not null" json:"body_md"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Like is a (user, recipe) endorsement pair, unique, toggled on and off.
type Like struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}
