// Package advice asks a chat-completion model for nutrition advice and
// meal plans on behalf of a user.
package advice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/core/metrics"
	"github.com/m3rciful/dietbot/core/telegram/netutil"
	"github.com/m3rciful/dietbot/dietary/catalog"
)

// Request is one chat completion call.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
	// TopP of zero leaves the provider default.
	TopP float32
}

// Completer sends a single request to a model. Transport failures should
// be returned unwrapped or wrapped with %w; HTTP rejections as *StatusError.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type Options struct {
	MaxTokens     int
	PlanMaxTokens int
	Temperature   float32
	TopP          float32
	Timeout       time.Duration
	MaxAttempts   int
	BackoffBase   time.Duration
	BackoffMax    time.Duration
}

// DefaultOptions mirrors the production defaults in core/config.
func DefaultOptions() Options {
	return Options{
		MaxTokens:     500,
		PlanMaxTokens: 2000,
		Temperature:   0.7,
		TopP:          0.9,
		Timeout:       45 * time.Second,
		MaxAttempts:   3,
		BackoffBase:   2 * time.Second,
		BackoffMax:    10 * time.Second,
	}
}

type Service struct {
	llm  Completer
	opts Options
	log  *slog.Logger
}

func NewService(llm Completer, opts Options) *Service {
	def := DefaultOptions()
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.PlanMaxTokens <= 0 {
		opts.PlanMaxTokens = def.PlanMaxTokens
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	return &Service{llm: llm, opts: opts, log: logger.Or(logger.Advice)}
}

// AskDietician answers a free-form question in the user's locale, retrying
// transient upstream failures with capped exponential backoff. The whole
// call, sleeps included, is bounded by Options.Timeout.
func (s *Service) AskDietician(ctx context.Context, question string, d catalog.Diagnoses, locale string) (string, error) {
	const op = "ask"
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	req := Request{
		System:      SystemPrompt(locale),
		User:        QuestionPrompt(question, d, locale),
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
		TopP:        s.opts.TopP,
	}
	s.log.LogAttrs(ctx, slog.LevelInfo, "advice.request",
		slog.String("op", op),
		slog.String("locale", NormalizeLocale(locale)),
		slog.String("query", logger.SanitizeLimit(question, 50)),
	)

	start := time.Now()
	var lastErr error
	attempt := 0
	for attempt < s.opts.MaxAttempts {
		attempt++
		answer, err := s.complete(ctx, req)
		if err == nil {
			s.done(ctx, op, attempt, start)
			return answer, nil
		}
		lastErr = err
		if classify(err) == KindTerminal {
			return "", s.fail(ctx, op, attempt, start, KindTerminal, err)
		}
		if attempt == s.opts.MaxAttempts || ctx.Err() != nil {
			break
		}
		wait := netutil.Backoff(attempt, s.opts.BackoffBase, s.opts.BackoffMax)
		s.log.LogAttrs(ctx, slog.LevelWarn, "advice.retry",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
			slog.Any("err", err),
		)
		if err := netutil.Sleep(ctx, wait); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
	}
	return "", s.fail(ctx, op, attempt, start, KindTransient, lastErr)
}

// GenerateMealPlan asks for a days-long plan. It makes exactly one attempt.
func (s *Service) GenerateMealPlan(ctx context.Context, days int, d catalog.Diagnoses, locale string) (string, error) {
	const op = "meal_plan"
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	answer, err := s.complete(ctx, Request{
		System:      SystemPrompt(locale),
		User:        MealPlanPrompt(days, d, locale),
		MaxTokens:   s.opts.PlanMaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return "", s.fail(ctx, op, 1, start, classify(err), err)
	}
	s.done(ctx, op, 1, start, slog.Int("days", days))
	return answer, nil
}

func (s *Service) complete(ctx context.Context, req Request) (string, error) {
	answer, err := s.llm.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

func (s *Service) done(ctx context.Context, op string, attempts int, start time.Time, extra ...slog.Attr) {
	metrics.LLMRequests.WithLabelValues(op, "ok").Inc()
	metrics.LLMAttempts.Observe(float64(attempts))
	attrs := append([]slog.Attr{
		slog.String("op", op),
		slog.String("status", "ok"),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.Took(start)),
	}, extra...)
	s.log.LogAttrs(ctx, slog.LevelInfo, "advice.answer", attrs...)
}

func (s *Service) fail(ctx context.Context, op string, attempts int, start time.Time, kind Kind, err error) error {
	metrics.LLMRequests.WithLabelValues(op, string(kind)).Inc()
	metrics.LLMAttempts.Observe(float64(attempts))
	s.log.LogAttrs(ctx, slog.LevelError, "advice.failed",
		slog.String("op", op),
		slog.String("status", "fail"),
		slog.String("kind", string(kind)),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.Took(start)),
		slog.Any("err", err),
	)
	return &Error{Kind: kind, Op: op, Attempts: attempts, Err: err}
}
