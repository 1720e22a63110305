// Package ai holds the optional text polishing collaborator. Nothing in the
// interview depends on it: every failure degrades to the original text.
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Outcomes reported to the Recorder.
const (
	OutcomeEnhanced    = "enhanced"
	OutcomeFailed      = "failed"
	OutcomeEmpty       = "empty"
	OutcomeTimeout     = "timeout"
	OutcomeRateLimited = "rate_limited"
	OutcomeCircuitOpen = "circuit_open"
)

// Request describes where in the interview the text is shown.
type Request struct {
	State         string
	CandidateName string
	Topic         string
}

// Enhancer rewrites a response to sound more natural.
type Enhancer interface {
	Enhance(ctx context.Context, text string, req Request) (string, error)
}

// Recorder receives one observation per Polish call that reached the guard.
type Recorder interface {
	ObserveEnhancement(outcome string, elapsed time.Duration)
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max-requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"min-requests"`
	FailureThreshold float64       `mapstructure:"failure-threshold"`
}

type GuardConfig struct {
	Timeout           time.Duration        `mapstructure:"timeout"`
	RequestsPerMinute int                  `mapstructure:"requests-per-minute"`
	Burst             int                  `mapstructure:"burst"`
	CircuitBreaker    CircuitBreakerConfig `mapstructure:"circuit-breaker"`
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Timeout:           5 * time.Second,
		RequestsPerMinute: 30,
		Burst:             5,
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}
}

// Guard bounds calls to an Enhancer with a timeout, a request budget and a
// circuit breaker.
type Guard struct {
	next     Enhancer
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[string]
	logger   *zap.Logger
	recorder Recorder
}

func NewGuard(next Enhancer, cfg GuardConfig, logger *zap.Logger, recorder Recorder) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	g := &Guard{
		next:     next,
		timeout:  cfg.Timeout,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
		recorder: recorder,
	}

	if cb := cfg.CircuitBreaker; cb.Enabled {
		g.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "enhancer",
			MaxRequests: cb.MaxRequests,
			Interval:    cb.Interval,
			Timeout:     cb.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests == 0 {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= cb.MinRequests && failureRatio >= cb.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info("circuit breaker state changed",
					zap.String("name", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return g
}

// Polish returns the enhanced text, or text unchanged when the enhancer is
// absent, slow, failing, out of budget or behind an open circuit.
func (g *Guard) Polish(ctx context.Context, text string, req Request) string {
	if g == nil || g.next == nil || strings.TrimSpace(text) == "" {
		return text
	}

	if !g.limiter.Allow() {
		g.observe(OutcomeRateLimited, 0)
		g.logger.Debug("enhancement skipped", zap.String("reason", OutcomeRateLimited))
		return text
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	call := func() (string, error) {
		return g.next.Enhance(ctx, text, req)
	}

	var (
		out string
		err error
	)
	if g.breaker != nil {
		out, err = g.breaker.Execute(call)
	} else {
		out, err = call()
	}
	elapsed := time.Since(start)

	if err != nil {
		outcome := classify(err)
		g.observe(outcome, elapsed)
		g.logger.Warn("enhancement failed, using base response",
			zap.String("outcome", outcome),
			zap.String("state", req.State),
			zap.Error(err),
		)
		return text
	}

	out = strings.TrimSpace(out)
	if out == "" {
		g.observe(OutcomeEmpty, elapsed)
		return text
	}

	g.observe(OutcomeEnhanced, elapsed)
	return out
}

func (g *Guard) observe(outcome string, elapsed time.Duration) {
	if g.recorder != nil {
		g.recorder.ObserveEnhancement(outcome, elapsed)
	}
}

func classify(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return OutcomeCircuitOpen
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeFailed
	}
}
