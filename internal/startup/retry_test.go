package startup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2,
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"refused text", fmt.Errorf("HTTP request failed: dial tcp: connection refused"), true},
		{"api error", errors.New("backend API error: status 500"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNetworkError(tt.err); got != tt.want {
				t.Errorf("IsNetworkError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithRetry_RetriesNetworkErrors(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), "backend", fastRetry(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	}, zerolog.Nop())

	if err != nil {
		t.Fatalf("WithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_StopsOnOtherErrors(t *testing.T) {
	calls := 0
	want := errors.New("backend rejected the credentials")
	err := WithRetry(context.Background(), "backend", fastRetry(), func(ctx context.Context) error {
		calls++
		return want
	}, zerolog.Nop())

	if !errors.Is(err, want) {
		t.Errorf("WithRetry() error = %v, want %v", err, want)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), "tmdb", fastRetry(), func(ctx context.Context) error {
		calls++
		return errors.New("no such host")
	}, zerolog.Nop())

	if err == nil {
		t.Fatal("WithRetry() should fail after the last attempt")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fastRetry()
	cfg.InitialDelay = time.Hour
	err := WithRetry(ctx, "tmdb", cfg, func(ctx context.Context) error {
		return errors.New("i/o timeout")
	}, zerolog.Nop())

	if !errors.Is(err, context.Canceled) {
		t.Errorf("WithRetry() error = %v, want context.Canceled", err)
	}
}

func TestProbeAll(t *testing.T) {
	down := errors.New("backend is not configured")
	failed := ProbeAll(context.Background(), []Probe{
		{Name: "tmdb", Check: func(ctx context.Context) error { return nil }},
		{Name: "backend", Check: func(ctx context.Context) error { return down }},
	}, fastRetry(), zerolog.Nop())

	if len(failed) != 1 {
		t.Fatalf("failed = %v, want one entry", failed)
	}
	if !errors.Is(failed["backend"], down) {
		t.Errorf("failed[backend] = %v", failed["backend"])
	}
}
