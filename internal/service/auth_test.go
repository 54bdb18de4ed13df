package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cozyplate/backend/config"
	"github.com/cozyplate/backend/internal/database"
	"github.com/cozyplate/backend/internal/types"
)

func newTokenOnlyAuthService(secret string) *AuthService {
	return NewAuthService(nil, nil, &config.Config{JWTSecret: secret})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTokenOnlyAuthService("test-secret")
	userID := uuid.New()

	token, err := svc.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := newTokenOnlyAuthService("test-secret")
	other := newTokenOnlyAuthService("other-secret")

	token, err := svc.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTokenOnlyAuthService("test-secret")

	claims := types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
		UserID: uuid.New(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := newTokenOnlyAuthService("test-secret")

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenMissingUserID(t *testing.T) {
	svc := newTokenOnlyAuthService("test-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}

func newCodeAuthService(t *testing.T) *AuthService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return NewAuthService(db, nil, &config.Config{JWTSecret: "test-secret"})
}

func TestSignInCodeRoundTrip(t *testing.T) {
	svc := newCodeAuthService(t)
	ctx := context.Background()

	code, err := svc.StartEmailSignIn(ctx, "codes@example.com")
	require.NoError(t, err)
	require.Contains(t, code, ".")

	token, user, err := svc.ExchangeCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "codes@example.com", user.Email)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestSignInCodeSingleUse(t *testing.T) {
	svc := newCodeAuthService(t)
	ctx := context.Background()

	code, err := svc.StartEmailSignIn(ctx, "once@example.com")
	require.NoError(t, err)

	_, _, err = svc.ExchangeCode(ctx, code)
	require.NoError(t, err)

	_, _, err = svc.ExchangeCode(ctx, code)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestSignInCodeWrongSecret(t *testing.T) {
	svc := newCodeAuthService(t)
	ctx := context.Background()

	code, err := svc.StartEmailSignIn(ctx, "tamper@example.com")
	require.NoError(t, err)

	id, _, ok := strings.Cut(code, ".")
	require.True(t, ok)

	_, _, err = svc.ExchangeCode(ctx, id+".deadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, ErrInvalidCode)
}
