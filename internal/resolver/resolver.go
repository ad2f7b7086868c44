package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"truthtrack-assistant/internal/llm"
)

var (
	ErrTransport = errors.New("resolver: transport failure")
	ErrTimeout   = errors.New("resolver: timed out")
	ErrMalformed = errors.New("resolver: malformed reply")
)

// DefaultTimeout bounds the single remote attempt.
const DefaultTimeout = 10 * time.Second

// Source records where a CommandResult's text came from.
type Source string

const (
	SourceRemote     Source = "remote"
	SourceSubstitute Source = "substitute"
	SourceFallback   Source = "fallback"
)

// CommandResult is the outcome of resolving one command. ResponseText is
// never empty.
type CommandResult struct {
	ResponseText    string
	SuggestedAction string
	RelevantFeature string
	Source          Source
	Err             error // classified remote failure when Source is fallback
}

// Resolver turns a command into a CommandResult with at most one remote
// attempt, falling back to the keyword table on any failure.
type Resolver struct {
	client   llm.IntentClient
	fallback *Fallback
	timeout  time.Duration
	log      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithFallback replaces the default keyword table.
func WithFallback(f *Fallback) Option {
	return func(r *Resolver) { r.fallback = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// New creates a resolver. A nil client makes every command use the
// fallback table.
func New(client llm.IntentClient, opts ...Option) *Resolver {
	r := &Resolver{
		client:   client,
		fallback: NewFallback(),
		timeout:  DefaultTimeout,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve answers text. It returns within the configured timeout even if
// the remote client ignores cancellation.
func (r *Resolver) Resolve(ctx context.Context, text string) CommandResult {
	text = strings.TrimSpace(text)
	if text == "" || r.client == nil {
		return r.fallback.Answer(text)
	}

	start := time.Now()
	res, err := r.remote(ctx, text)
	if err != nil {
		r.log.Warn("remote resolution failed, using fallback", "error", err, "elapsed", time.Since(start))
		out := r.fallback.Answer(text)
		out.Err = err
		return out
	}

	if strings.TrimSpace(res.Response) == "" {
		r.log.Info("remote returned empty response, substituting")
		return CommandResult{
			ResponseText:    SubstituteResponse,
			SuggestedAction: res.SuggestedAction,
			RelevantFeature: res.RelevantFeature,
			Source:          SourceSubstitute,
		}
	}

	r.log.Debug("remote resolution succeeded", "elapsed", time.Since(start), "feature", res.RelevantFeature)
	return CommandResult{
		ResponseText:    strings.TrimSpace(res.Response),
		SuggestedAction: res.SuggestedAction,
		RelevantFeature: res.RelevantFeature,
		Source:          SourceRemote,
	}
}

type reply struct {
	res *llm.IntentResult
	err error
}

func (r *Resolver) remote(parent context.Context, text string) (*llm.IntentResult, error) {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	done := make(chan reply, 1)
	go func() {
		res, err := r.client.ResolveIntent(ctx, llm.BuildPrompt(text))
		done <- reply{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, classify(ctx.Err())
	case rep := <-done:
		if rep.err != nil {
			return nil, classify(rep.err)
		}
		if rep.res == nil {
			return nil, fmt.Errorf("%w: no result", ErrMalformed)
		}
		return rep.res, nil
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, llm.ErrMalformed), errors.Is(err, llm.ErrNoContent):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
}
