package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"truthtrack-assistant/internal/assistant"
	"truthtrack-assistant/internal/capture"
	"truthtrack-assistant/internal/clipboard"
	"truthtrack-assistant/internal/resolver"
	"truthtrack-assistant/internal/state"
)

type idleCapture struct{}

func (idleCapture) Listen(capture.Listener) {}
func (idleCapture) Start() error            { return capture.ErrUnsupported }
func (idleCapture) Stop()                   {}
func (idleCapture) Abort()                  {}

type quietSpeaker struct{}

func (quietSpeaker) Speak(string) {}
func (quietSpeaker) Stop()        {}

func newOfflineController(clip *clipboard.Memory) *assistant.Controller {
	return assistant.New(assistant.Options{
		Capture:   idleCapture{},
		Resolver:  resolver.New(nil),
		Speaker:   quietSpeaker{},
		Clipboard: clip,
	})
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantArg  string
	}{
		{"", "toggle", ""},
		{"   ", "toggle", ""},
		{"ask  how do I spot a deepfake ", "ask", "how do I spot a deepfake"},
		{"SUGGEST 2", "suggest", "2"},
		{"q", "quit", ""},
		{"exit", "quit", ""},
		{"?", "help", ""},
		{"replay", "replay", ""},
	}
	for _, tt := range tests {
		name, arg := parseLine(tt.line)
		if name != tt.wantName || arg != tt.wantArg {
			t.Errorf("parseLine(%q) = %q, %q; want %q, %q", tt.line, name, arg, tt.wantName, tt.wantArg)
		}
	}
}

func TestReplAskAndCopy(t *testing.T) {
	clip := &clipboard.Memory{}
	ctrl := newOfflineController(clip)
	defer ctrl.Close()

	in := strings.NewReader("ask share a template\n")
	var out bytes.Buffer
	if err := repl(context.Background(), in, &out, ctrl); err != nil {
		t.Fatalf("repl failed: %v", err)
	}
	ctrl.Wait()

	var copyOut bytes.Buffer
	if err := repl(context.Background(), strings.NewReader("copy\nquit\n"), &copyOut, ctrl); err != nil {
		t.Fatalf("repl failed: %v", err)
	}

	want := resolver.DefaultRoutes[3].Response
	if clip.Text != want {
		t.Errorf("Expected clipboard %q, got %q", want, clip.Text)
	}
	if !strings.Contains(copyOut.String(), "Copied") {
		t.Errorf("Expected copy confirmation, got %q", copyOut.String())
	}
}

func TestReplReportsErrors(t *testing.T) {
	ctrl := newOfflineController(&clipboard.Memory{})
	defer ctrl.Close()

	in := strings.NewReader("replay\nsuggest nine\nfrobnicate\n\n")
	var out bytes.Buffer
	if err := repl(context.Background(), in, &out, ctrl); err != nil {
		t.Fatalf("repl failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"no response to replay", "suggest takes a number", "unknown command"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to mention %q, got %q", want, got)
		}
	}

	s := ctrl.State()
	if s.Phase != state.PhaseError || s.Error != assistant.MsgUnsupported {
		t.Errorf("Expected toggle on a host without capture to fail, got %+v", s)
	}
}

func TestRenderState(t *testing.T) {
	s := assistant.State{}
	s.Phase = state.PhaseIdle
	s.Transcript = "check trending topics"
	s.Response = "Check our Trending Search"
	s.RelevantFeature = "Trending Search"

	got := renderState(s)
	for _, want := range []string{"idle", "check trending topics", "Check our Trending Search", "Trending Search"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected render to contain %q, got %q", want, got)
		}
	}

	s.Phase = state.PhaseProcessing
	if strings.Contains(renderState(s), "Check our Trending Search") {
		t.Error("Expected response hidden while processing")
	}
}

func TestPrinterCollapsesInterims(t *testing.T) {
	var out bytes.Buffer
	p := &printer{out: &out}

	listening := assistant.State{}
	listening.Phase = state.PhaseListening
	p.Print(listening)
	listening.Transcript = "show me"
	p.Print(listening)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected status plus one interim line, got %q", out.String())
	}
	if !strings.Contains(lines[1], "... show me") {
		t.Errorf("Expected interim line, got %q", lines[1])
	}
}
