package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cozyplate/backend/config"
	"github.com/cozyplate/backend/internal/models"
	"github.com/cozyplate/backend/internal/types"
)

var (
	ErrInvalidCode     = errors.New("invalid or expired sign-in code")
	ErrDemoDisabled    = errors.New("demo sign-in is not enabled")
	ErrOAuthNotWired   = errors.New("oauth provider is not configured")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidIdentity = errors.New("a valid email or phone is required")
)

const (
	tokenTTL    = 24 * time.Hour
	codeTTL     = 15 * time.Minute
	codeKeyTmpl = "auth:code:%s"
)

// signInCode is the stored payload behind a pending one-time code. Only the
// bcrypt hash of the secret half is stored.
type signInCode struct {
	UserID     string `json:"user_id"`
	SecretHash string `json:"secret_hash"`
}

type memCode struct {
	payload   signInCode
	expiresAt time.Time
}

// AuthService issues session tokens and runs the passwordless sign-in flows:
// OAuth redirect, one-time email/phone codes, and the gated demo identity.
// Codes live in Redis; without one (dev, tests) they fall back to an
// in-process map, which does not survive restarts or span replicas.
type AuthService struct {
	db                *gorm.DB
	redis             *redis.Client
	jwtSecret         string
	oauthAuthorizeURL string
	oauthClientID     string
	demoMode          bool
	demoUserID        string

	mu       sync.Mutex
	memCodes map[string]memCode
}

func NewAuthService(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                db,
		redis:             rdb,
		jwtSecret:         cfg.JWTSecret,
		oauthAuthorizeURL: cfg.OAuthAuthorizeURL,
		oauthClientID:     cfg.OAuthClientID,
		demoMode:          cfg.DemoMode,
		demoUserID:        cfg.DemoUserID,
		memCodes:          make(map[string]memCode),
	}
}

// GenerateToken signs a 24h session token for the user.
func (s *AuthService) GenerateToken(userID uuid.UUID) (string, error) {
	claims := types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GoogleAuthorizeURL builds the provider redirect for browser sign-in.
func (s *AuthService) GoogleAuthorizeURL(redirectURI, state string) (string, error) {
	if s.oauthAuthorizeURL == "" || s.oauthClientID == "" {
		return "", ErrOAuthNotWired
	}
	q := url.Values{}
	q.Set("client_id", s.oauthClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	if state != "" {
		q.Set("state", state)
	}
	return s.oauthAuthorizeURL + "?" + q.Encode(), nil
}

// StartEmailSignIn creates or finds the user for an email address and returns
// a one-time code. Delivery is the caller's concern.
func (s *AuthService) StartEmailSignIn(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidIdentity
	}

	user, err := s.findOrCreateUser(ctx, email, "")
	if err != nil {
		return "", err
	}
	return s.issueCode(ctx, user.ID)
}

// StartPhoneSignIn is the SMS variant of StartEmailSignIn.
func (s *AuthService) StartPhoneSignIn(ctx context.Context, phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", ErrInvalidIdentity
	}

	user, err := s.findOrCreateUser(ctx, "", phone)
	if err != nil {
		return "", err
	}
	return s.issueCode(ctx, user.ID)
}

// ExchangeCode redeems a one-time code for a session token. Codes are
// single-use: the stored entry is deleted before the token is issued.
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (string, *models.User, error) {
	id, secret, ok := strings.Cut(strings.TrimSpace(code), ".")
	if !ok || id == "" || secret == "" {
		return "", nil, ErrInvalidCode
	}

	stored, err := s.consumeCode(ctx, id, secret)
	if err != nil {
		return "", nil, err
	}

	userID, err := uuid.Parse(stored.UserID)
	if err != nil {
		return "", nil, ErrInvalidCode
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return "", nil, ErrUserNotFound
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// DemoSignIn issues a token for the fixed demo user. Refused unless demo mode
// is explicitly enabled.
func (s *AuthService) DemoSignIn(ctx context.Context) (string, *models.User, error) {
	if !s.demoMode {
		return "", nil, ErrDemoDisabled
	}

	demoID, err := uuid.Parse(s.demoUserID)
	if err != nil {
		return "", nil, fmt.Errorf("invalid demo user id: %w", err)
	}

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", demoID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{ID: demoID, Email: "demo@cozyplate.local"}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return "", nil, fmt.Errorf("failed to create demo user: %w", err)
		}
	} else if err != nil {
		return "", nil, err
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	log.Printf("[AuthService] Demo sign-in as %s", user.ID)
	return token, &user, nil
}

// CurrentUser loads the user and, if present, their profile.
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, *models.Profile, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &user, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &user, &profile, nil
}

func (s *AuthService) findOrCreateUser(ctx context.Context, email, phone string) (*models.User, error) {
	var user models.User
	var err error
	if email != "" {
		err = s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	} else {
		err = s.db.WithContext(ctx).First(&user, "phone = ?", phone).Error
	}
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{Email: email, Phone: phone}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("[AuthService] Created user %s", user.ID)
	return &user, nil
}

// issueCode mints a "<id>.<secret>" code and stores the bcrypt-hashed secret
// under the id.
func (s *AuthService) issueCode(ctx context.Context, userID uuid.UUID) (string, error) {
	id := uuid.NewString()

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate sign-in code: %w", err)
	}
	secret := hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	entry := signInCode{UserID: userID.String(), SecretHash: string(hash)}

	if s.redis == nil {
		s.mu.Lock()
		s.memCodes[id] = memCode{payload: entry, expiresAt: time.Now().Add(codeTTL)}
		s.mu.Unlock()
		return id + "." + secret, nil
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf(codeKeyTmpl, id)
	if err := s.redis.Set(ctx, key, payload, codeTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store sign-in code: %w", err)
	}

	return id + "." + secret, nil
}

// consumeCode looks up, verifies, and deletes the stored code in one pass.
func (s *AuthService) consumeCode(ctx context.Context, id, secret string) (*signInCode, error) {
	var stored signInCode

	if s.redis == nil {
		s.mu.Lock()
		entry, ok := s.memCodes[id]
		if ok {
			delete(s.memCodes, id)
		}
		s.mu.Unlock()
		if !ok || time.Now().After(entry.expiresAt) {
			return nil, ErrInvalidCode
		}
		stored = entry.payload
	} else {
		key := fmt.Sprintf(codeKeyTmpl, id)
		raw, err := s.redis.Get(ctx, key).Result()
		if err == redis.Nil {
			return nil, ErrInvalidCode
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up sign-in code: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			return nil, ErrInvalidCode
		}
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("failed to consume sign-in code: %w", err)
		}
	}

	if bcrypt.CompareHashAndPassword([]byte(stored.SecretHash), []byte(secret)) != nil {
		return nil, ErrInvalidCode
	}
	return &stored, nil
}
