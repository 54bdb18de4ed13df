package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cozyplate/backend/config"
)

// analyzeSystemPrompt instructs the model to emit a bare JSON object in the
// structured recipe schema. The wording is aggressive about formatting
// because smaller models love to wrap output in markdown fences anyway; the
// repair layer handles the stragglers.
const analyzeSystemPrompt = `You are an expert recipe analyzer. Your task is to convert natural language recipe descriptions into well-structured recipe data in JSON format.

CRITICAL INSTRUCTIONS:
1. Return ONLY the JSON object - NO markdown formatting, NO code blocks, NO explanations, NO additional text
2. Do NOT wrap the response in ` + "```json or ```" + ` - return pure JSON only
3. Do NOT include any conversational text like "I'm sorry" or "Here's the recipe"
4. Start your response directly with { and end with }
5. Use the exact field names and structure specified below
6. Extract all possible information from the input text
7. If information is missing or unclear, use reasonable defaults or null
8. Be thorough in extracting ingredients, steps, and metadata
9. Preserve cooking tips, temperatures, and timing information
10. Infer difficulty level based on complexity of techniques and time required

Required JSON structure:
{
  "recipe": {
    "title": "string (required - recipe name)",
    "description_md": "string or null (brief description)",
    "yield_text": "string or null (e.g., 'Serves 4', '12 cookies')",
    "total_time_min": "number or null (total time in minutes)",
    "active_time_min": "number or null (active cooking time in minutes)",
    "cuisine": "string or null (e.g., 'Italian', 'Mexican')",
    "difficulty": "easy|medium|hard or null",
    "diet_tags": "array of strings or null (e.g., ['vegetarian', 'gluten-free'])",
    "allergen_tags": "array of strings or null (e.g., ['nuts', 'dairy', 'eggs'])",
    "hero_image_url": "string or null",
    "nutrition_json": "object or null",
    "public": true
  },
  "ingredients": [
    {
      "idx": "number (0-based index)",
      "quantity": "number or null (amount)",
      "unit": "string or null (cup, tbsp, lb, etc.)",
      "item": "string (ingredient name)",
      "notes": "string or null (preparation notes)"
    }
  ],
  "steps": [
    {
      "idx": "number (0-based index)",
      "instruction": "string (detailed step instruction)",
      "timer_seconds": "number or null (timing for this step)",
      "temperature_c": "number or null (temperature in Celsius)",
      "tool": "string or null (equipment needed)",
      "tip": "string or null (helpful tip for this step)",
      "image_url": "string or null"
    }
  ],
  "substitutions": [
    {
      "ingredient_idx": "number (index of ingredient to substitute)",
      "suggestion": "string (substitution suggestion - ONLY include if explicitly mentioned in original text)"
    }
  ],
  "images": []
}

PARSING GUIDELINES:
- Extract quantities as numbers when possible (convert fractions: 1/2 = 0.5, 1/4 = 0.25, etc.)
- Common units: cup, tbsp, tsp, lb, oz, g, kg, ml, l, clove, pinch, dash
- For temperatures, convert to Celsius if given in Fahrenheit
- For times, convert everything to minutes for consistency
- Infer cooking methods and tools from the instructions
- ONLY include substitutions that are explicitly mentioned in the original recipe text or when you are absolutely certain they would be appropriate
- DO NOT automatically suggest substitutions unless they were mentioned or clearly implied in the original text
- Set difficulty: easy (30min, basic techniques), medium (30-60min, some skill), hard (60min+, advanced techniques)
- Extract dietary information (vegetarian, vegan, gluten-free, dairy-free, etc.)
- Common allergens: nuts, dairy, eggs, soy, shellfish, fish, wheat, sesame

FINAL REMINDER:
- Your response must be valid JSON
- Do NOT use markdown formatting
- Do NOT include any text before or after the JSON
- Start with { and end with }`

// chatMessage is a message in a chat completion request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatStreamRequest is a streaming request to an OpenAI-compatible chat API.
type chatStreamRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

// chatStreamChunk is one SSE payload from the chat API.
type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// LLMService streams recipe analysis from an OpenAI-compatible chat API.
type LLMService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

func NewLLMService(cfg *config.Config) *LLMService {
	return &LLMService{
		apiKey: cfg.OpenAIAPIKey,
		apiURL: cfg.OpenAIChatURL,
		model:  cfg.OpenAIChatModel,
		client: &http.Client{
			// Generous: covers the whole stream, not just the first byte.
			Timeout: 5 * time.Minute,
		},
	}
}

// AnalyzeRecipeStream sends the text for structuring and invokes onDelta for
// every content fragment. It returns the full accumulated output. The request
// is bound to ctx, so a disconnected client cancels the upstream call.
func (s *LLMService) AnalyzeRecipeStream(ctx context.Context, text string, onDelta func(delta, accumulated string) error) (string, error) {
	reqBody := chatStreamRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: analyzeSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Please analyze this recipe and convert it to structured JSON format:\n\n%s", text)},
		},
		Temperature: 0.1,
		Stream:      true,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(body))
	}

	var accumulated strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Malformed keepalive or vendor extension; skip it.
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		accumulated.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta, accumulated.String()); err != nil {
				return accumulated.String(), err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return accumulated.String(), fmt.Errorf("chat stream read failed: %w", err)
	}

	return accumulated.String(), nil
}
