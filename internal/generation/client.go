package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-idea-board/internal/config"
	"github.com/tbourn/go-idea-board/internal/domain"
)

const defaultRetryDelay = 250 * time.Millisecond

// Client builds prompts, calls the provider under a deadline with bounded
// retries, and parses replies into typed outcomes.
type Client struct {
	Provider    Provider
	Temperature float64

	// Timeout bounds a whole call including retries. Zero means no deadline
	// beyond the caller's context.
	Timeout time.Duration

	// Attempts is the total number of provider calls per request (>= 1).
	Attempts   int
	RetryDelay time.Duration
}

// NewClient wires a provider with the tuning from cfg.
func NewClient(p Provider, cfg config.GenerationConfig) *Client {
	return &Client{
		Provider:    p,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
		Attempts:    cfg.RetryAttempts,
		RetryDelay:  defaultRetryDelay,
	}
}

// Idea asks for a hackathon idea in category. A blank category becomes
// DefaultCategory.
func (c *Client) Idea(ctx context.Context, category string) Outcome[string] {
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}
	raw, err := c.complete(ctx, ideaPrompt(category, c.Temperature))
	if err != nil {
		return Outcome[string]{Err: err}
	}
	text, err := parseIdea(raw)
	c.record(KindIdea, err)
	return Outcome[string]{Value: text, Err: err}
}

// Flashcard asks for one trivia card.
func (c *Client) Flashcard(ctx context.Context) Outcome[domain.Flashcard] {
	raw, err := c.complete(ctx, flashcardPrompt(c.Temperature))
	if err != nil {
		return Outcome[domain.Flashcard]{Err: err}
	}
	card, err := parseFlashcard(raw)
	c.record(KindFlashcard, err)
	return Outcome[domain.Flashcard]{Value: card, Err: err}
}

// complete runs the provider call with deadline and retries. Failures are
// recorded here; successful replies are recorded after parsing.
func (c *Client) complete(ctx context.Context, p Prompt) (string, error) {
	tr := otel.Tracer("generation/Client")
	ctx, span := tr.Start(ctx, "Complete",
		trace.WithAttributes(
			attribute.String("generation.kind", string(p.Kind)),
			attribute.String("generation.provider", c.Provider.Name()),
		),
	)
	defer span.End()

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}

	start := time.Now()
	raw, err := retry.DoWithData(
		func() (string, error) { return c.Provider.Complete(ctx, p) },
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(c.RetryDelay),
		retry.MaxDelay(4*c.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(transient),
	)
	genLatency.WithLabelValues(string(p.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		err = classify(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		c.record(p.Kind, err)
		return "", err
	}
	return raw, nil
}

// record counts the outcome and logs failures.
func (c *Client) record(kind Kind, err error) {
	outcome := outcomeLabel(err)
	genRequests.WithLabelValues(string(kind), outcome).Inc()
	if err != nil {
		log.Warn().
			Err(err).
			Str("kind", string(kind)).
			Str("provider", c.Provider.Name()).
			Str("outcome", outcome).
			Msg("generation failed")
	}
}

// transient reports whether another attempt may succeed.
func transient(err error) bool {
	if errors.Is(err, ErrMalformed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return transientStatus(se.Code)
	}
	return errors.Is(err, ErrUpstream)
}

// classify folds provider and context errors into the package taxonomy.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrMalformed):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, ErrUpstream):
		return err
	default:
		return upstream(err)
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "upstream"
	}
}
