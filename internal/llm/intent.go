package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

var (
	// ErrMalformed is returned when a model reply cannot be read as an
	// intent, even after repair.
	ErrMalformed = errors.New("llm: malformed intent reply")
	// ErrNoContent is returned when the model produced no reply at all.
	ErrNoContent = errors.New("llm: empty reply")
)

// IntentResult is the structured reply requested from the model.
type IntentResult struct {
	Response        string `json:"response" jsonschema:"spoken answer for the user, at most three sentences"`
	SuggestedAction string `json:"suggested_action,omitempty" jsonschema:"optional next step the user could take"`
	RelevantFeature string `json:"relevant_feature,omitempty" jsonschema:"optional product feature the answer refers to"`
}

// IntentClient resolves a prompt into an IntentResult with one remote call.
type IntentClient interface {
	ResolveIntent(ctx context.Context, prompt string) (*IntentResult, error)
}

const (
	intentSchemaName        = "truthtrack_intent"
	intentSchemaDescription = "Answer to a TruthTrack voice command"
)

// IntentSchema returns a fresh JSON schema for IntentResult.
func IntentSchema() (*jsonschema.Schema, error) {
	return jsonschema.For[IntentResult](nil)
}

// Feature is one entry of the product catalogue given to the model.
type Feature struct {
	Name    string
	Summary string
}

// Catalogue lists the TruthTrack features the assistant knows about.
var Catalogue = []Feature{
	{"Trending Search", "Real-time monitoring of viral misinformation across social platforms"},
	{"AI Image Detection", "Advanced deepfake and photo manipulation detection"},
	{"Voice Assistant", "AI-powered voice authentication and synthetic speech detection"},
	{"Article Tag", "Comprehensive fact-checking with source verification and bias detection"},
	{"Template Share", "Community-driven templates and frameworks for detection workflows"},
	{"FAQs", "Knowledge base with expert guidance and best practices"},
}

// BuildPrompt wraps a user command with the assistant persona, the feature
// catalogue and answer guidance.
func BuildPrompt(command string) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful AI assistant for TruthTrack, an advanced misinformation detection platform.\n\n")
	sb.WriteString("TruthTrack Features:\n")
	for _, f := range Catalogue {
		fmt.Fprintf(&sb, "- %s: %s\n", f.Name, f.Summary)
	}
	fmt.Fprintf(&sb, "\nUser's voice command: %q\n\n", command)
	sb.WriteString("Please provide a helpful, concise response (max 2-3 sentences) about TruthTrack features or general assistance. ")
	sb.WriteString("If they're asking about a specific feature, explain how to use it. ")
	sb.WriteString("If they're asking a general question, provide useful information. ")
	sb.WriteString("Keep responses friendly and informative.")
	return sb.String()
}

// decodeIntent parses a model reply, repairing near-JSON output first.
func decodeIntent(data string) (*IntentResult, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, ErrNoContent
	}

	var out IntentResult
	err := json.Unmarshal([]byte(data), &out)
	if err == nil {
		return &out, nil
	}
	if _, ok := err.(*json.SyntaxError); !ok {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	fixed, rerr := jsonrepair.JSONRepair(data)
	if rerr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, rerr)
	}
	if err := json.Unmarshal([]byte(fixed), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &out, nil
}
