package services

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/livesync/internal/shared"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = time.Second
)

// TokenProvider supplies a valid access token for an outbound request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Executor wraps outbound operations with credential injection, failure
// classification, and bounded retry with exponential backoff.
//
// It is generic over the underlying operation and knows nothing about
// playlist semantics.
type Executor struct {
	tokens    TokenProvider
	logger    *log.Logger
	attempts  int
	baseDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// ExecutorOpts contains configuration options for creating an Executor.
type ExecutorOpts struct {
	Tokens    TokenProvider
	Logger    *log.Logger
	Attempts  int           // Total attempts including the first (default 3)
	BaseDelay time.Duration // Backoff unit, doubled per retry (default 1s)

	// Sleep overrides the backoff wait, used by tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor with the provided options.
func NewExecutor(opts ExecutorOpts) *Executor {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	return &Executor{
		tokens:    opts.Tokens,
		logger:    opts.Logger,
		attempts:  opts.Attempts,
		baseDelay: opts.BaseDelay,
		sleep:     opts.Sleep,
	}
}

// Do executes op, retrying transient failures with exponential backoff.
//
// A fresh token is obtained before every attempt. Network-level failures and
// 429/5xx rejections are retried up to the attempt cap with delays of
// baseDelay * 2^(retry-1); any other rejection fails immediately. After the
// cap is exhausted the last error is returned unchanged.
func (e *Executor) Do(ctx context.Context, label string, op func(ctx context.Context, token string) error) error {
	var lastErr error

	for attempt := 0; attempt < e.attempts; attempt++ {
		if attempt > 0 {
			delay := e.baseDelay << (attempt - 1)
			e.logger.Warn("retrying request", "label", label, "attempt", attempt+1, "delay", delay, "err", lastErr)
			if err := e.sleep(ctx, delay); err != nil {
				return err
			}
		}

		token, err := e.tokens.Token(ctx)
		if err != nil {
			// Credential failures are not the operation's to retry.
			return err
		}

		if err := op(ctx, token); err != nil {
			lastErr = err
			if !retryable(err) {
				return err
			}
			continue
		}

		return nil
	}

	return lastErr
}

// retryable classifies an operation failure: status-carrying rejections
// follow the RequestError policy, anything else is treated as a
// network-level failure and retried. Context cancellation is terminal.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Retryable()
	}

	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
