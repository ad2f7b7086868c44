package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"truthtrack-assistant/internal/llm"
)

type stubClient struct {
	res    *llm.IntentResult
	err    error
	block  bool
	calls  int
	prompt string
}

func (s *stubClient) ResolveIntent(ctx context.Context, prompt string) (*llm.IntentResult, error) {
	s.calls++
	s.prompt = prompt
	if s.block {
		time.Sleep(time.Hour)
	}
	return s.res, s.err
}

func TestFallbackMatch(t *testing.T) {
	f := NewFallback()
	tests := []struct {
		text    string
		feature string
	}{
		{"show me deepfake detection", "AI Image Detection"},
		{"Is this PHOTO real?", "AI Image Detection"},
		{"what's viral right now", "Trending Search"},
		{"check the news", "Article Tag"},
		{"fact check this", "Article Tag"},
		{"share a template", "Template Share"},
		{"analyze this audio clip", "Voice Assistant"},
		{"viral deepfake image", "AI Image Detection"},
		{"article about a voice clone", "Article Tag"},
	}
	for _, tt := range tests {
		r, ok := f.Match(tt.text)
		if !ok {
			t.Errorf("%q: expected a match", tt.text)
			continue
		}
		if r.Feature != tt.feature {
			t.Errorf("%q: expected %s, got %s", tt.text, tt.feature, r.Feature)
		}
	}

	if _, ok := f.Match("hello there"); ok {
		t.Error("Expected no match for unrelated text")
	}
}

func TestResolveTotality(t *testing.T) {
	inputs := []string{"", "   ", "hello", "show me deepfake detection", "¿qué?", "template"}
	clients := map[string]llm.IntentClient{
		"nil":       nil,
		"transport": &stubClient{err: errors.New("connection refused")},
		"malformed": &stubClient{err: llm.ErrMalformed},
		"empty":     &stubClient{res: &llm.IntentResult{}},
		"nil reply": &stubClient{},
		"ok":        &stubClient{res: &llm.IntentResult{Response: "Sure."}},
	}
	for name, c := range clients {
		r := New(c, WithTimeout(50*time.Millisecond))
		for _, in := range inputs {
			if got := r.Resolve(context.Background(), in); got.ResponseText == "" {
				t.Errorf("%s/%q: empty response text", name, in)
			}
		}
	}
}

func TestResolveFallbackOnFailure(t *testing.T) {
	c := &stubClient{err: errors.New("dial tcp: refused")}
	r := New(c)

	got := r.Resolve(context.Background(), "show me deepfake detection")
	if got.ResponseText != DefaultRoutes[0].Response {
		t.Errorf("Expected image route, got %q", got.ResponseText)
	}
	if got.Source != SourceFallback {
		t.Errorf("Expected fallback source, got %s", got.Source)
	}
	if !errors.Is(got.Err, ErrTransport) {
		t.Errorf("Expected ErrTransport, got %v", got.Err)
	}
	if c.calls != 1 {
		t.Errorf("Expected exactly one remote attempt, got %d", c.calls)
	}
}

func TestResolveEmptyTextSkipsRemote(t *testing.T) {
	c := &stubClient{err: errors.New("down")}
	got := New(c).Resolve(context.Background(), "")
	if got.ResponseText != GenericResponse {
		t.Errorf("Expected generic response, got %q", got.ResponseText)
	}
	if c.calls != 0 {
		t.Errorf("Expected no remote call for empty text, got %d", c.calls)
	}
}

func TestResolveTimeout(t *testing.T) {
	c := &stubClient{block: true}
	r := New(c, WithTimeout(30*time.Millisecond))

	start := time.Now()
	got := r.Resolve(context.Background(), "what is trending")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected resolve to honor timeout, took %v", elapsed)
	}
	if got.ResponseText != DefaultRoutes[1].Response {
		t.Errorf("Expected trending route, got %q", got.ResponseText)
	}
	if !errors.Is(got.Err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", got.Err)
	}
}

func TestResolveMalformed(t *testing.T) {
	c := &stubClient{err: llm.ErrMalformed}
	got := New(c).Resolve(context.Background(), "unrelated")
	if got.ResponseText != GenericResponse {
		t.Errorf("Expected generic fallback, got %q", got.ResponseText)
	}
	if !errors.Is(got.Err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", got.Err)
	}
}

func TestResolveEmptyRemoteSubstitutes(t *testing.T) {
	c := &stubClient{res: &llm.IntentResult{Response: "  ", RelevantFeature: "FAQs"}}
	got := New(c).Resolve(context.Background(), "show me deepfake detection")
	if got.ResponseText != SubstituteResponse {
		t.Errorf("Expected substitute text, got %q", got.ResponseText)
	}
	if got.Source != SourceSubstitute {
		t.Errorf("Expected substitute source, got %s", got.Source)
	}
}

func TestResolveRemote(t *testing.T) {
	c := &stubClient{res: &llm.IntentResult{
		Response:        " Upload an image to AI Image Detection. ",
		SuggestedAction: "open image detection",
		RelevantFeature: "AI Image Detection",
	}}
	got := New(c).Resolve(context.Background(), "  how do I detect deepfakes? ")

	if got.ResponseText != "Upload an image to AI Image Detection." {
		t.Errorf("Unexpected response %q", got.ResponseText)
	}
	if got.SuggestedAction != "open image detection" || got.RelevantFeature != "AI Image Detection" {
		t.Errorf("Expected optional fields carried through, got %+v", got)
	}
	if got.Source != SourceRemote || got.Err != nil {
		t.Errorf("Expected clean remote result, got %+v", got)
	}
	if c.prompt != llm.BuildPrompt("how do I detect deepfakes?") {
		t.Error("Expected trimmed command wrapped in the catalogue prompt")
	}
}

func TestResolveParentCancel(t *testing.T) {
	c := &stubClient{block: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := New(c).Resolve(ctx, "voice")
	if got.ResponseText != DefaultRoutes[4].Response {
		t.Errorf("Expected voice route, got %q", got.ResponseText)
	}
	if !errors.Is(got.Err, ErrTransport) {
		t.Errorf("Expected cancellation classified as transport, got %v", got.Err)
	}
}
