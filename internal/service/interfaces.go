package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/cozyplate/backend/internal/models"
	"github.com/cozyplate/backend/internal/types"
)

// IAuthService defines the interface for sign-in and token operations.
type IAuthService interface {
	GenerateToken(userID uuid.UUID) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GoogleAuthorizeURL(redirectURI, state string) (string, error)
	StartEmailSignIn(ctx context.Context, email string) (string, error)
	StartPhoneSignIn(ctx context.Context, phone string) (string, error)
	ExchangeCode(ctx context.Context, code string) (string, *models.User, error)
	DemoSignIn(ctx context.Context) (string, *models.User, error)
	CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, *models.Profile, error)
}

// IProfileService defines the interface for public profile operations.
type IProfileService interface {
	CreateProfile(ctx context.Context, userID uuid.UUID, handle, displayName string, avatarURL *string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, displayName *string, avatarURL *string) (*models.Profile, error)
	GetByHandle(ctx context.Context, handle string) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// IRecipeService defines the interface for recipe storage and social operations.
type IRecipeService interface {
	CreateFromDraft(ctx context.Context, userID uuid.UUID, draft *types.AnalyzedRecipe) (*models.Recipe, error)
	UpdateFromDraft(ctx context.Context, userID uuid.UUID, idOrSlug string, draft *types.AnalyzedRecipe) (*models.Recipe, error)
	Delete(ctx context.Context, userID uuid.UUID, idOrSlug string) error
	Get(ctx context.Context, viewerID *uuid.UUID, idOrSlug string) (*RecipeView, error)
	Feed(ctx context.Context, page, pageSize int) ([]models.Recipe, int64, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]models.Recipe, int64, error)
	ListByUser(ctx context.Context, ownerID uuid.UUID, includePrivate bool, page, pageSize int) ([]models.Recipe, int64, error)
	ToggleLike(ctx context.Context, userID, recipeID uuid.UUID) (bool, int64, error)
	AddComment(ctx context.Context, userID, recipeID uuid.UUID, bodyMD string) (*models.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error
	ListComments(ctx context.Context, recipeID uuid.UUID) ([]models.Comment, error)
	AttachImage(ctx context.Context, userID, recipeID uuid.UUID, url string, caption *string) (*models.RecipeImage, error)
}

// ILLMService defines the interface for streaming recipe analysis.
type ILLMService interface {
	AnalyzeRecipeStream(ctx context.Context, text string, onDelta func(delta, accumulated string) error) (string, error)
}

// IImageService defines the interface for AI image generation and storage.
type IImageService interface {
	GenerateRecipeImage(ctx context.Context, draft *types.AnalyzedRecipe) (string, string, error)
}

// ITranscribeService defines the interface for audio transcription.
type ITranscribeService interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (*TranscriptionResult, error)
}
