// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package tilecache

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// UpstreamConfig configures the network leg.
type UpstreamConfig struct {
	// Name labels the circuit breaker in metrics.
	Name string

	// BreakerFailures is the number of consecutive transport failures that
	// opens the breaker. Zero disables the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// RatePerSecond limits upstream fetches. Zero means unlimited.
	RatePerSecond float64
	Burst         int
}

// upstream wraps the next transport with a rate limiter and a circuit
// breaker. Only transport errors count as failures; any HTTP status is a
// successful round trip.
type upstream struct {
	next    http.RoundTripper
	cb      *gobreaker.CircuitBreaker[*http.Response]
	limiter *rate.Limiter
}

func newUpstream(next http.RoundTripper, cfg UpstreamConfig) *upstream {
	if next == nil {
		next = http.DefaultTransport
	}
	u := &upstream{next: next}

	if cfg.RatePerSecond > 0 {
		burst := max(cfg.Burst, 1)
		u.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	if cfg.BreakerFailures > 0 {
		name := cfg.Name
		if name == "" {
			name = "tile-upstream"
		}
		timeout := cfg.BreakerTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		threshold := cfg.BreakerFailures
		log := logging.WithComponent("tilecache")
		u.cb = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
				metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Tile upstream circuit breaker state changed")
			},
		})
		metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	}
	return u
}

// roundTrip performs the upstream fetch. It never adds a timeout of its own;
// only the request context can cut it short.
func (u *upstream) roundTrip(req *http.Request) (*http.Response, error) {
	if u.limiter != nil {
		if err := u.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("upstream rate limit: %w", err)
		}
	}
	if u.cb == nil {
		return u.next.RoundTrip(req)
	}

	name := u.cb.Name()
	resp, err := u.cb.Execute(func() (*http.Response, error) {
		return u.next.RoundTrip(req)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
	}
	return resp, err
}

func (u *upstream) state() string {
	if u.cb == nil {
		return "disabled"
	}
	return u.cb.State().String()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
