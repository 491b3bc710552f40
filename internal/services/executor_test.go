package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/livesync/internal/shared"
)

// stubTokens is a TokenProvider returning a fixed token or error.
type stubTokens struct {
	token string
	err   error
	calls int
}

func (s *stubTokens) Token(ctx context.Context) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func newTestExecutor(tokens TokenProvider, delays *[]time.Duration) *Executor {
	return NewExecutor(ExecutorOpts{
		Tokens: tokens,
		Logger: shared.NewLogger(io.Discard),
		Sleep: func(ctx context.Context, d time.Duration) error {
			if delays != nil {
				*delays = append(*delays, d)
			}
			return nil
		},
	})
}

func TestExecutorDo(t *testing.T) {
	t.Run("Succeeds First Attempt", func(t *testing.T) {
		tokens := &stubTokens{token: "tok"}
		exec := newTestExecutor(tokens, nil)

		attempts := 0
		err := exec.Do(context.Background(), "op", func(ctx context.Context, token string) error {
			attempts++
			if token != "tok" {
				t.Errorf("expected token 'tok', got %s", token)
			}
			return nil
		})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", attempts)
		}
	})

	t.Run("Exhausts Retries On 503", func(t *testing.T) {
		tokens := &stubTokens{token: "tok"}
		var delays []time.Duration
		exec := newTestExecutor(tokens, &delays)

		attempts := 0
		failure := &RequestError{Status: 503, Message: "backend unavailable"}
		err := exec.Do(context.Background(), "op", func(ctx context.Context, token string) error {
			attempts++
			return failure
		})

		if attempts != 3 {
			t.Errorf("expected exactly 3 attempts, got %d", attempts)
		}

		want := []time.Duration{time.Second, 2 * time.Second}
		if len(delays) != len(want) {
			t.Fatalf("expected %d backoff delays, got %v", len(want), delays)
		}
		for i := range want {
			if delays[i] != want[i] {
				t.Errorf("delay %d: expected %v, got %v", i, want[i], delays[i])
			}
		}

		var reqErr *RequestError
		if !errors.As(err, &reqErr) || reqErr != failure {
			t.Errorf("expected the last error unchanged, got %v", err)
		}
	})

	t.Run("Fails Immediately On 404", func(t *testing.T) {
		tokens := &stubTokens{token: "tok"}
		exec := newTestExecutor(tokens, nil)

		attempts := 0
		err := exec.Do(context.Background(), "op", func(ctx context.Context, token string) error {
			attempts++
			return &RequestError{Status: 404, Message: "playlist not found"}
		})

		if attempts != 1 {
			t.Errorf("expected exactly 1 attempt for a 404, got %d", attempts)
		}
		var reqErr *RequestError
		if !errors.As(err, &reqErr) || reqErr.Status != 404 {
			t.Errorf("expected 404 RequestError, got %v", err)
		}
	})

	t.Run("Retries 429", func(t *testing.T) {
		tokens := &stubTokens{token: "tok"}
		exec := newTestExecutor(tokens, nil)

		attempts := 0
		err := exec.Do(context.Background(), "op", func(ctx context.Context, token string) error {
			attempts++
			if attempts < 2 {
				return &RequestError{Status: 429, Message: "quota"}
			}
			return nil
		})

		if err != nil {
			t.Fatalf("expected success after retry, got %v", err)
		}
		if attempts != 2 {
			t.Errorf("expected 2 attempts, got %d", attempts)
		}
	})

	t.Run("Retries Network Failure", func(t *testing.T) {
		tokens := &stubTokens{token: "tok"}
		exec := newTestExecutor(tokens, nil)

		attempts := 0
		err := exec.Do(context.Background(), "op", func(ctx context.Context, token string) error {
			attempts++
			if attempts < 3 {
				return fmt.Errorf("connection reset")
			}
			return nil
		})

		if err != nil {
			t.Fatalf("expected success after retries, got %v", err)
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("Fresh Token Each Attempt", func(t *testing.T) {
		tokens := &stubTokens{token: "tok"}
		exec := newTestExecutor(tokens, nil)

		_ = exec.Do(context.Background(), "op", func(ctx context.Context, token string) error {
			return &RequestError{Status: 500}
		})

		if tokens.calls != 3 {
			t.Errorf("expected a token per attempt (3), got %d", tokens.calls)
		}
	})

	t.Run("Credential Failure Not Retried", func(t *testing.T) {
		tokens := &stubTokens{err: shared.ErrReauthorizationRequired}
		exec := newTestExecutor(tokens, nil)

		attempts := 0
		err := exec.Do(context.Background(), "op", func(ctx context.Context, token string) error {
			attempts++
			return nil
		})

		if !errors.Is(err, shared.ErrReauthorizationRequired) {
			t.Errorf("expected credential error to surface, got %v", err)
		}
		if attempts != 0 {
			t.Errorf("expected no operation attempts, got %d", attempts)
		}
		if tokens.calls != 1 {
			t.Errorf("expected 1 token call, got %d", tokens.calls)
		}
	})

	t.Run("Context Cancellation Is Terminal", func(t *testing.T) {
		tokens := &stubTokens{token: "tok"}
		exec := newTestExecutor(tokens, nil)

		attempts := 0
		err := exec.Do(context.Background(), "op", func(ctx context.Context, token string) error {
			attempts++
			return context.Canceled
		})

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", attempts)
		}
	})
}
