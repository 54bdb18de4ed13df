package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cozyplate/backend/internal/jsonrepair"
	"github.com/cozyplate/backend/internal/middleware"
	"github.com/cozyplate/backend/internal/service"
)

// AnalyzeHandler streams LLM recipe structuring over Server-Sent Events.
//
// Event envelope, one JSON object per "data:" line:
//
//	{"type": "status",   "message": ...}
//	{"type": "content",  "content": <delta>, "accumulated": <full so far>}
//	{"type": "complete", "recipe": <structured recipe>}
//	{"type": "error",    "error": ...}
//
// Once any content has streamed the terminal event is always "complete":
// partial output goes through repair rather than being thrown away. "error"
// only fires when the upstream call failed before producing anything.
type AnalyzeHandler struct {
	llmService  service.ILLMService
	authService service.IAuthService
	rateLimiter *middleware.RateLimiter
}

func NewAnalyzeHandler(llmService service.ILLMService, authService service.IAuthService, rateLimiter *middleware.RateLimiter) *AnalyzeHandler {
	return &AnalyzeHandler{
		llmService:  llmService,
		authService: authService,
		rateLimiter: rateLimiter,
	}
}

func (h *AnalyzeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/recipes/analyze",
		middleware.RequireAuth(h.authService),
		h.rateLimiter.Middleware(),
		h.Analyze,
	)
}

type analyzeRequest struct {
	Text string `json:"text"`
}

func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(strings.TrimSpace(req.Text)) < 10 {
		respondError(c, http.StatusBadRequest, "Recipe text must be at least 10 characters long")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		respondError(c, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sendEvent(c, flusher, gin.H{"type": "status", "message": "Analyzing recipe..."})

	accumulated, err := h.llmService.AnalyzeRecipeStream(c.Request.Context(), req.Text,
		func(delta, accumulated string) error {
			if err := c.Request.Context().Err(); err != nil {
				return err
			}
			sendEvent(c, flusher, gin.H{"type": "content", "content": delta, "accumulated": accumulated})
			return nil
		})

	if c.Request.Context().Err() != nil {
		// Client went away; nothing left to write.
		return
	}

	if err != nil && accumulated == "" {
		log.Printf("[AnalyzeHandler] analysis failed before any output: %v", err)
		sendEvent(c, flusher, gin.H{"type": "error", "error": "Failed to analyze recipe"})
		return
	}
	if err != nil {
		log.Printf("[AnalyzeHandler] stream interrupted, repairing partial output: %v", err)
	}

	recipe := jsonrepair.Extract(accumulated)
	sendEvent(c, flusher, gin.H{"type": "complete", "recipe": recipe})
}

func sendEvent(c *gin.Context, flusher http.Flusher, payload gin.H) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	flusher.Flush()
}
