// Package startup probes the external services while the app boots. A
// service that is down only degrades the features that need it, so probes
// retry network failures for a while and then give up without failing boot.
package startup

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig configures the exponential backoff.
type RetryConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Multiplier   float64
}

// DefaultRetryConfig returns the backoff used at boot.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		MaxAttempts:  5,
		Multiplier:   2.0,
	}
}

// Probe checks one external service.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// IsNetworkError reports whether err looks like the network, not the
// service, is at fault.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"no route to host",
		"host is down",
		"i/o timeout",
		"connection reset",
		"temporary failure in name resolution",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// WithRetry runs fn until it succeeds, fails with a non-network error or
// runs out of attempts.
func WithRetry(ctx context.Context, name string, cfg RetryConfig, fn func(ctx context.Context) error, logger zerolog.Logger) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info().Str("service", name).Int("attempt", attempt).Msg("Service reachable after retry")
			}
			return nil
		}
		lastErr = err

		if !IsNetworkError(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn().
			Err(err).
			Str("service", name).
			Int("attempt", attempt).
			Int("maxAttempts", cfg.MaxAttempts).
			Dur("nextRetryIn", delay).
			Msg("Service unreachable, will retry")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
	}

	return lastErr
}

// ProbeAll runs every probe with retry and returns the failures by name.
// Probes run one after the other; an unreachable service never aborts the
// rest.
func ProbeAll(ctx context.Context, probes []Probe, cfg RetryConfig, logger zerolog.Logger) map[string]error {
	logger = logger.With().Str("component", "startup").Logger()
	failed := make(map[string]error)

	for _, p := range probes {
		if err := WithRetry(ctx, p.Name, cfg, p.Check, logger); err != nil {
			logger.Warn().Err(err).Str("service", p.Name).Msg("Service unavailable at startup")
			failed[p.Name] = err
			continue
		}
		logger.Debug().Str("service", p.Name).Msg("Service reachable")
	}
	return failed
}
