package api

import (
	"context"
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cozyplate/backend/config"
	"github.com/cozyplate/backend/internal/database"
	"github.com/cozyplate/backend/internal/models"
	"github.com/cozyplate/backend/internal/service"
	"github.com/cozyplate/backend/internal/types"
)

// fakeLLM scripts AnalyzeRecipeStream for handler tests: it emits Deltas in
// order, then fails with Err if set.
type fakeLLM struct {
	Deltas    []string
	Err       error
	ErrBefore error
}

func (f *fakeLLM) AnalyzeRecipeStream(ctx context.Context, text string, onDelta func(delta, accumulated string) error) (string, error) {
	if f.ErrBefore != nil {
		return "", f.ErrBefore
	}
	var accumulated string
	for _, d := range f.Deltas {
		accumulated += d
		if onDelta != nil {
			if err := onDelta(d, accumulated); err != nil {
				return accumulated, err
			}
		}
	}
	return accumulated, f.Err
}

// fakeImage returns a fixed URL without touching the network.
type fakeImage struct {
	URL    string
	Prompt string
	Err    error
}

func (f *fakeImage) GenerateRecipeImage(ctx context.Context, draft *types.AnalyzedRecipe) (string, string, error) {
	if f.Err != nil {
		return "", "", f.Err
	}
	return f.URL, f.Prompt, nil
}

// fakeTranscribe returns a canned transcription.
type fakeTranscribe struct {
	Result *service.TranscriptionResult
	Err    error
}

func (f *fakeTranscribe) Transcribe(ctx context.Context, filename string, audio []byte) (*service.TranscriptionResult, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}

// testEnv bundles the in-memory stack a handler test runs against.
type testEnv struct {
	Router      *gin.Engine
	DB          *gorm.DB
	AuthService *service.AuthService
	LLM         *fakeLLM
	Image       *fakeImage
	Transcribe  *fakeTranscribe
}

// setupTestEnv builds a router over in-memory SQLite with fake external
// services. No Redis: rate limiting is disabled and sign-in codes use the
// in-process fallback store.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := &config.Config{JWTSecret: "test-secret"}
	authService := service.NewAuthService(db, nil, cfg)

	env := &testEnv{
		DB:          db,
		AuthService: authService,
		LLM:         &fakeLLM{},
		Image:       &fakeImage{URL: "https://img.test/recipe.png", Prompt: "test prompt"},
		Transcribe:  &fakeTranscribe{Result: &service.TranscriptionResult{Text: "two cups flour"}},
	}

	svcs := &Services{
		Auth:       authService,
		Profile:    service.NewProfileService(db),
		Recipe:     service.NewRecipeService(db),
		LLM:        env.LLM,
		Image:      env.Image,
		Transcribe: env.Transcribe,
	}

	router := gin.New()
	RegisterRoutes(router, svcs, nil, true)
	env.Router = router
	return env
}

// createTestUser inserts a user and returns it with a valid session token.
func createTestUser(t *testing.T, env *testEnv, email string) (*models.User, string) {
	t.Helper()

	user := &models.User{Email: email}
	if err := env.DB.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	token, err := env.AuthService.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return user, token
}
