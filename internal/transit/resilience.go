package transit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"trainboard/internal/logger"
)

// BackoffConfig controls exponential backoff behaviour between attempts.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")

	// ErrCircuitOpen marks attempts vetoed by the circuit breaker without
	// touching the network.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetries is returned once every attempt has been exhausted.
	// Callers treat it as a transient per-tick failure, never fatal.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// newBreaker builds the circuit breaker guarding one upstream API. The
// breaker opens after threshold consecutive failures, stays open for the
// recovery delay, then admits exactly one half-open probe; a successful
// probe closes it and resets the failure count.
func newBreaker(name string, threshold uint32, recovery time.Duration, log *logger.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     recovery,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infow("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// connectivityProbe is the lightweight "is the API reachable at all" check
// run before each attempt. It keeps its own consecutive-failure counter,
// used only for retry/backoff reporting; it never feeds the circuit
// breaker's threshold.
type connectivityProbe struct {
	client   *http.Client
	url      string
	failures int
	log      *logger.Logger
}

// Check issues the probe request and reports reachability.
func (p *connectivityProbe) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.failures++
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.failures++
		p.log.Warnw("connectivity check failed", "consecutive_failures", p.failures, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.failures++
		p.log.Warnw("connectivity check failed", "consecutive_failures", p.failures, "status", resp.StatusCode)
		return false
	}
	p.failures = 0
	return true
}

// backoffDelay returns the sleep before retrying after the given zero-based
// attempt: InitialInterval doubling each attempt, capped at MaxInterval.
func backoffDelay(cfg BackoffConfig, attempt int) time.Duration {
	delay := cfg.InitialInterval << uint(attempt)
	if cfg.MaxInterval > 0 && delay > cfg.MaxInterval {
		delay = cfg.MaxInterval
	}
	return delay
}

// doRequestWithResilience executes the HTTP request with a connectivity
// probe, retries with exponential backoff, and the circuit breaker around
// each network attempt. An open breaker skips the attempt without network
// I/O; the skip still counts as a failed attempt for retry purposes.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	probe *connectivityProbe,
	log *logger.Logger,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries <= 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var lastErr error

	for attempt := 0; attempt < cfg.Backoff.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := backoffDelay(cfg.Backoff, attempt-1)
			log.Infow("waiting before retry", "delay", delay, "attempt", attempt+1, "max", cfg.Backoff.MaxRetries)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		if probe != nil && !probe.Check(ctx) {
			lastErr = fmt.Errorf("connectivity check failed (%d consecutive)", probe.failures)
			continue
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}

			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Vetoed without a network attempt; retry after backoff.
			lastErr = fmt.Errorf("%w: %v", ErrCircuitOpen, err)
			continue
		}

		lastErr = err
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, cfg.Backoff.MaxRetries, lastErr)
}
