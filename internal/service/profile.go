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
)

var (
	ErrInvalidHandle  = errors.New("handle must be 3-30 characters: letters, digits, underscores, hyphens")
	ErrHandleTaken    = errors.New("handle is already taken")
	ErrProfileExists  = errors.New("profile already exists for this user")
	ErrProfileMissing = errors.New("profile not found")
)

// Validated after lowercasing, so the uppercase half of the allowed charset
// is covered by normalization.
var handleRe = regexp.MustCompile(`^[a-z0-9_-]{3,30}$`)

// ProfileService manages public profiles. Each user gets exactly one; handles
// are stored lowercase and unique.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) CreateProfile(ctx context.Context, userID uuid.UUID, handle, displayName string, avatarURL *string) (*models.Profile, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if !handleRe.MatchString(handle) {
		return nil, ErrInvalidHandle
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = handle
	}
	if len(displayName) > 50 {
		displayName = displayName[:50]
	}

	var existing models.Profile
	if err := s.db.WithContext(ctx).First(&existing, "user_id = ?", userID).Error; err == nil {
		return nil, ErrProfileExists
	}
	if err := s.db.WithContext(ctx).First(&existing, "handle = ?", handle).Error; err == nil {
		return nil, ErrHandleTaken
	}

	profile := models.Profile{
		UserID:      userID,
		Handle:      handle,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile changes display name and avatar. The handle is immutable.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName *string, avatarURL *string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileMissing
		}
		return nil, err
	}

	if displayName != nil {
		name := strings.TrimSpace(*displayName)
		if name != "" {
			if len(name) > 50 {
				name = name[:50]
			}
			profile.DisplayName = name
		}
	}
	if avatarURL != nil {
		profile.AvatarURL = avatarURL
	}

	if err := s.db.WithContext(ctx).Save(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &profile, nil
}

func (s *ProfileService) GetByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "handle = ?", handle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileMissing
		}
		return nil, err
	}
	return &profile, nil
}

func (s *ProfileService) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileMissing
		}
		return nil, err
	}
	return &profile, nil
}
