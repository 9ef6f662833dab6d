package annotation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseModelOutput(t *testing.T) {
	tests := []struct {
		name            string
		raw             string
		wantTitle       string
		wantDescription string
		wantFallback    bool
	}{
		{
			name:            "plain json",
			raw:             `{"title": "Cat", "description": "A cat."}`,
			wantTitle:       "Cat",
			wantDescription: "A cat.",
		},
		{
			name:            "fenced json",
			raw:             "```json\n{\"title\": \"Cat\", \"description\": \"A cat.\"}\n```",
			wantTitle:       "Cat",
			wantDescription: "A cat.",
		},
		{
			name:            "fenced json with embedded control whitespace",
			raw:             "```json\r\n{\"title\":\t\"Sunset\",\n\"description\":\r\"Orange sky.\"}\n```\n",
			wantTitle:       "Sunset",
			wantDescription: "Orange sky.",
		},
		{
			name:            "bare fence without language tag",
			raw:             "```\n{\"title\": \"Dog\", \"description\": \"A dog.\"}\n```",
			wantTitle:       "Dog",
			wantDescription: "A dog.",
		},
		{
			name:         "free text",
			raw:          "Here is a lovely picture of a cat.",
			wantFallback: true,
		},
		{
			name:         "empty output",
			raw:          "",
			wantFallback: true,
		},
		{
			name:         "json missing description",
			raw:          `{"title": "Cat"}`,
			wantFallback: true,
		},
		{
			name:         "json missing title",
			raw:          `{"description": "A cat."}`,
			wantFallback: true,
		},
		{
			name:         "json array",
			raw:          `["title", "description"]`,
			wantFallback: true,
		},
		{
			name:         "truncated json",
			raw:          "```json\n{\"title\": \"Cat\", \"desc",
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseModelOutput(tt.raw)

			if got.Fallback != tt.wantFallback {
				t.Fatalf("Fallback = %v, want %v", got.Fallback, tt.wantFallback)
			}
			if tt.wantFallback {
				if got.Title != FallbackTitle || got.Description != FallbackDescription {
					t.Errorf("fallback payload = %q/%q, want fixed fallback pair", got.Title, got.Description)
				}
				return
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Description != tt.wantDescription {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDescription)
			}
		})
	}
}

func geminiStubResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	payload, _ := json.Marshal(resp)
	return string(payload)
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cat.jpg")
	if err := os.WriteFile(path, []byte("\xff\xd8\xff\xe0 not a real jpeg"), 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	return path
}

func TestGeminiClientAnalyze(t *testing.T) {
	imagePath := writeTestImage(t)

	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(geminiStubResponse("```json\n{\"title\": \"Cat\", \"description\": \"A cat.\"}\n```")))
	}))
	defer srv.Close()

	client := NewGeminiClientWithBaseURL("test-key", "gemini-1.5-flash", srv.URL)

	ann, err := client.Analyze(context.Background(), imagePath)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if ann.Fallback {
		t.Fatal("Analyze returned fallback for a valid response")
	}
	if ann.Title != "Cat" || ann.Description != "A cat." {
		t.Errorf("annotation = %q/%q, want Cat/A cat.", ann.Title, ann.Description)
	}
	if gotPath != "/models/gemini-1.5-flash:generateContent" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
}

func TestGeminiClientAnalyzeUnparseableOutput(t *testing.T) {
	imagePath := writeTestImage(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(geminiStubResponse("What a lovely cat!")))
	}))
	defer srv.Close()

	client := NewGeminiClientWithBaseURL("test-key", "", srv.URL)

	ann, err := client.Analyze(context.Background(), imagePath)
	if err != nil {
		t.Fatalf("Analyze must not fail on unparseable output, got: %v", err)
	}
	if !ann.Fallback {
		t.Fatal("expected fallback annotation")
	}
	if ann.Title != FallbackTitle || ann.Description != FallbackDescription {
		t.Errorf("fallback payload = %q/%q", ann.Title, ann.Description)
	}
}

func TestGeminiClientAnalyzeAPIError(t *testing.T) {
	imagePath := writeTestImage(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewGeminiClientWithBaseURL("test-key", "", srv.URL)

	if _, err := client.Analyze(context.Background(), imagePath); err == nil {
		t.Fatal("expected an error for a non-2xx API response")
	}
}

func TestGeminiClientAnalyzeMissingImage(t *testing.T) {
	client := NewGeminiClientWithBaseURL("test-key", "", "http://127.0.0.1:0")

	if _, err := client.Analyze(context.Background(), filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Fatal("expected an error for a missing image file")
	}
}
