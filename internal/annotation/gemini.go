package annotation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pixelshelf/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"

	prompt = "describe the image. provide a short title and a detailed description. return your response in json format with 'title' and 'description' fields."

	// Fallback payload substituted whenever the model output cannot be
	// parsed. Annotation failure must never block an upload.
	FallbackTitle       = "error encountered in generating title"
	FallbackDescription = "error encountered in generating description"
)

// Annotator produces a title/description pair for a local image file.
type Annotator interface {
	Analyze(ctx context.Context, imagePath string) (domain.Annotation, error)
}

// GeminiClient calls the Gemini generateContent REST API with the image
// inlined as base64 JPEG.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type annotationPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = defaultModel
	}
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewGeminiClientWithBaseURL is used by tests to point the client at a
// stand-in server.
func NewGeminiClientWithBaseURL(apiKey, model, baseURL string) *GeminiClient {
	c := NewGeminiClient(apiKey, model)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// Analyze submits the image to Gemini and returns the parsed annotation.
// Transport failures are returned as errors; unparseable model output
// degrades to the fixed fallback payload with a nil error.
func (c *GeminiClient) Analyze(ctx context.Context, imagePath string) (domain.Annotation, error) {
	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("failed to read image %s: %w", imagePath, err)
	}

	genReq := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(imageBytes),
				}},
				{Text: prompt},
			},
		}},
	}

	reqBody, err := json.Marshal(genReq)
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("failed to create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("failed to read gemini response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return domain.Annotation{}, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, body)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return domain.Annotation{}, fmt.Errorf("failed to decode gemini response: %w", err)
	}

	return ParseModelOutput(candidateText(genResp)), nil
}

func candidateText(resp generateResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		break
	}
	return sb.String()
}

// ParseModelOutput strips the code fences Gemini wraps around JSON output,
// normalizes embedded control whitespace, and parses the result. Anything
// unparseable, or parseable but missing the required fields, yields the
// fallback annotation rather than an error.
func ParseModelOutput(raw string) domain.Annotation {
	cleaned := sanitize(raw)

	var payload annotationPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		log.Error().Err(err).Str("raw_text", cleaned).Msg("failed to parse model output as JSON")
		return fallbackAnnotation()
	}
	if payload.Title == "" || payload.Description == "" {
		log.Error().Str("raw_text", cleaned).Msg("model output missing title or description")
		return fallbackAnnotation()
	}

	return domain.Annotation{
		Title:       payload.Title,
		Description: payload.Description,
	}
}

func sanitize(raw string) string {
	r := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")
	cleaned := r.Replace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

func fallbackAnnotation() domain.Annotation {
	return domain.Annotation{
		Title:       FallbackTitle,
		Description: FallbackDescription,
		Fallback:    true,
	}
}

var _ Annotator = (*GeminiClient)(nil)
