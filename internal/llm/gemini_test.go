package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func geminiServer(t *testing.T, text, finish string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": finish,
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiResolveIntent(t *testing.T) {
	srv := geminiServer(t, `{"response":"Paste a URL into Article Tag."}`, "STOP")

	c, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGeminiClient failed: %v", err)
	}

	got, err := c.ResolveIntent(context.Background(), BuildPrompt("analyze this article"))
	if err != nil {
		t.Fatalf("ResolveIntent failed: %v", err)
	}
	if got.Response != "Paste a URL into Article Tag." {
		t.Errorf("Unexpected response: %q", got.Response)
	}
}

func TestGeminiResolveIntentMaxTokens(t *testing.T) {
	srv := geminiServer(t, `{"response":"Paste`, "MAX_TOKENS")

	c, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGeminiClient failed: %v", err)
	}

	if _, err := c.ResolveIntent(context.Background(), "x"); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

func TestGeminiResolveIntentLive(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY environment variable not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := NewGeminiClient(ctx, GeminiConfig{APIKey: apiKey})
	if err != nil {
		t.Fatalf("NewGeminiClient failed: %v", err)
	}
	got, err := c.ResolveIntent(ctx, BuildPrompt("Check trending topics"))
	if err != nil {
		t.Fatalf("ResolveIntent failed: %v", err)
	}
	t.Logf("Response: %s", got.Response)
}
