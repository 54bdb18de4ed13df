package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cozyplate/backend/internal/middleware"
	"github.com/cozyplate/backend/internal/service"
)

// AuthHandler exposes the sign-in surface: a provider-discriminated sign-in
// endpoint, the code-exchange callback, sign-out, and session introspection.
type AuthHandler struct {
	authService service.IAuthService
	devMode     bool
}

func NewAuthHandler(authService service.IAuthService, devMode bool) *AuthHandler {
	return &AuthHandler{authService: authService, devMode: devMode}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/sign-in", h.SignIn)
		auth.GET("/callback", h.Callback)
		auth.POST("/sign-out", h.SignOut)
		auth.GET("/user", middleware.RequireAuth(h.authService), h.CurrentUser)
	}
}

type signInRequest struct {
	Provider   string `json:"provider" binding:"required"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	RedirectTo string `json:"redirectTo"`
}

// SignIn dispatches on the provider. Google returns the authorize URL for the
// browser to follow; email and phone start the one-time-code flow (the code
// is delivered out of band, echoed back only in dev mode); demo issues a
// session for the fixed demo user when demo mode is enabled.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "provider is required")
		return
	}

	switch strings.ToLower(req.Provider) {
	case "google":
		authorizeURL, err := h.authService.GoogleAuthorizeURL(req.RedirectTo, "")
		if err != nil {
			if errors.Is(err, service.ErrOAuthNotWired) {
				respondError(c, http.StatusServiceUnavailable, "oauth sign-in is not configured")
				return
			}
			respondError(c, http.StatusInternalServerError, "failed to build authorize URL")
			return
		}
		respondOK(c, gin.H{"url": authorizeURL})

	case "email":
		code, err := h.authService.StartEmailSignIn(c.Request.Context(), req.Email)
		if err != nil {
			if errors.Is(err, service.ErrInvalidIdentity) {
				respondError(c, http.StatusBadRequest, "a valid email is required")
				return
			}
			respondError(c, http.StatusInternalServerError, "failed to start sign-in")
			return
		}
		h.respondCodeSent(c, code, "check your email for a sign-in code")

	case "phone":
		code, err := h.authService.StartPhoneSignIn(c.Request.Context(), req.Phone)
		if err != nil {
			if errors.Is(err, service.ErrInvalidIdentity) {
				respondError(c, http.StatusBadRequest, "a valid phone number is required")
				return
			}
			respondError(c, http.StatusInternalServerError, "failed to start sign-in")
			return
		}
		h.respondCodeSent(c, code, "check your phone for a sign-in code")

	case "demo":
		token, user, err := h.authService.DemoSignIn(c.Request.Context())
		if err != nil {
			if errors.Is(err, service.ErrDemoDisabled) {
				respondError(c, http.StatusForbidden, "demo sign-in is not enabled")
				return
			}
			respondError(c, http.StatusInternalServerError, "demo sign-in failed")
			return
		}
		h.setSessionCookie(c, token)
		respondOK(c, gin.H{"token": token, "user": user})

	default:
		respondError(c, http.StatusBadRequest, "unknown provider")
	}
}

// Callback redeems the one-time code from the sign-in flow, sets the session
// cookie, and either redirects to `next` or returns the session as JSON.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		respondError(c, http.StatusBadRequest, "code is required")
		return
	}

	token, user, err := h.authService.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) || errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "invalid or expired sign-in code")
			return
		}
		respondError(c, http.StatusInternalServerError, "sign-in failed")
		return
	}

	h.setSessionCookie(c, token)

	if next := c.Query("next"); next != "" {
		c.Redirect(http.StatusTemporaryRedirect, next)
		return
	}
	respondOK(c, gin.H{"token": token, "user": user})
}

// SignOut clears the session cookie. Tokens themselves expire on their own.
func (h *AuthHandler) SignOut(c *gin.Context) {
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	respondOK(c, gin.H{"message": "signed out"})
}

// CurrentUser returns the signed-in user and their profile, if any.
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	user, profile, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load user")
		return
	}

	respondOK(c, gin.H{"user": user, "profile": profile})
}

func (h *AuthHandler) respondCodeSent(c *gin.Context, code, message string) {
	data := gin.H{"message": message}
	if h.devMode {
		data["code"] = code
	}
	respondOK(c, data)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	// 24h, matching the token TTL.
	c.SetCookie(middleware.SessionCookieName, token, 24*60*60, "/", "", false, true)
}
