package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cozyplate/backend/config"
	"github.com/cozyplate/backend/internal/types"
)

// imageGenerationRequest is a request to an OpenAI-compatible images API.
type imageGenerationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

// imageGenerationResponse is the response from the images API.
type imageGenerationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// ImageService generates a stylized hero image for a recipe and uploads it to
// S3-compatible storage. Generation is a single attempt: the caller surfaces
// failures and the user retries deliberately, since each call costs money.
type ImageService struct {
	apiKey   string
	apiURL   string
	s3Config *config.S3Config
	client   *http.Client
}

func NewImageService(cfg *config.Config, s3Config *config.S3Config) *ImageService {
	return &ImageService{
		apiKey:   cfg.OpenAIAPIKey,
		apiURL:   cfg.OpenAIImagesURL,
		s3Config: s3Config,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GenerateRecipeImage builds a prompt from the draft, generates the image,
// stores it, and returns the public URL and the prompt used.
func (s *ImageService) GenerateRecipeImage(ctx context.Context, draft *types.AnalyzedRecipe) (string, string, error) {
	prompt := buildImagePrompt(draft)
	log.Printf("[ImageService] Generating image for recipe %q", draft.Recipe.Title)

	sourceURL, err := s.generateImage(ctx, prompt)
	if err != nil {
		return "", "", err
	}

	imageData, err := s.downloadImage(ctx, sourceURL)
	if err != nil {
		return "", "", err
	}

	key := imageKey(draft.Recipe.Title)
	publicURL, err := s.upload(ctx, key, imageData)
	if err != nil {
		return "", "", err
	}

	log.Printf("[ImageService] Uploaded recipe image to %s", publicURL)
	return publicURL, prompt, nil
}

func (s *ImageService) generateImage(ctx context.Context, prompt string) (string, error) {
	reqBody := imageGenerationRequest{
		Model:   "dall-e-3",
		Prompt:  prompt,
		N:       1,
		Size:    "1024x1024",
		Quality: "standard",
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("images API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result imageGenerationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode image response: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", fmt.Errorf("images API returned no image")
	}
	return result.Data[0].URL, nil
}

func (s *ImageService) downloadImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download generated image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *ImageService) upload(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to storage: %w", err)
	}
	return s.s3Config.PublicURL(key), nil
}

var imageKeyScrubRe = regexp.MustCompile(`[^a-z0-9]`)

// imageKey derives a storage key from the recipe title plus a millisecond
// timestamp for uniqueness.
func imageKey(title string) string {
	name := imageKeyScrubRe.ReplaceAllString(strings.ToLower(title), "-")
	return fmt.Sprintf("recipe-images/%s-%d.png", name, time.Now().UnixMilli())
}

// buildImagePrompt describes the dish in the house pixel-crochet style.
func buildImagePrompt(draft *types.AnalyzedRecipe) string {
	dish := draft.Recipe.Title
	if draft.Recipe.DescriptionMD != nil && *draft.Recipe.DescriptionMD != "" {
		dish = dish + ": " + *draft.Recipe.DescriptionMD
	}

	items := make([]string, 0, 5)
	for _, ing := range draft.Ingredients {
		if len(items) == 5 {
			break
		}
		if ing.Item != "" {
			items = append(items, ing.Item)
		}
	}
	mainIngredients := strings.Join(items, ", ")

	return fmt.Sprintf("Generate a 16x16 pixel-art image in the style of crocheted granny squares, "+
		"with bright, saturated yet slightly pastel colors, as if each pixel were a small crocheted stitch. "+
		"The scene should depict %s with simple, blocky shapes that clearly show the main ingredients (%s) "+
		"while keeping a cozy, handmade aesthetic. Maintain a balanced color palette with clear contrast "+
		"between ingredients. The background should be soft and unobtrusive, often a solid or subtly "+
		"checkered pastel color, to highlight the food. The final look should be cute, vibrant, and highly "+
		"stylized, prioritizing charm and recognizability over realism. Every pixel should feel like a "+
		"piece of crochet yarn, creating a soft, tactile feel.", dish, mainIngredients)
}
