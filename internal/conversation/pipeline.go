package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/spigell/talentscout/internal/ai"
	"go.uber.org/zap"
)

// Turn is one processed input on its way back to the candidate.
type Turn struct {
	Input string
	From  State
	To    State
	Reply string
	// Topic is what the reply is about, passed to the enhancer.
	Topic string
}

// Step post-processes the reply of a turn.
type Step interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, s *Session, t *Turn) error
}

// Status describes a response step.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
}

type statusProvider interface {
	Status() Status
}

// Describe returns status entries for the provided steps.
func Describe(steps []Step) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}
		statuses = append(statuses, Status{Name: step.Name(), Enabled: step.IsEnabled()})
	}
	return statuses
}

// runSteps applies the enabled steps in order. A failing step is logged and
// skipped: the reply produced so far is kept.
func runSteps(ctx context.Context, s *Session, steps []Step, t *Turn) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}

		before := t.Reply
		if err := step.Apply(ctx, s, t); err != nil {
			s.logger.Warn("response step failed", zap.String("name", step.Name()), zap.Error(err))
			t.Reply = before
			continue
		}

		s.logger.Debug("response step",
			zap.String("name", step.Name()),
			zap.Bool("changed", before != t.Reply),
		)
	}
}

type enhanceStep struct {
	polisher Polisher
	enabled  bool
	reason   string
}

func newEnhanceStep(p Polisher) *enhanceStep {
	step := &enhanceStep{polisher: p, enabled: true}
	if p == nil {
		step.Disable("enhancer is not configured")
	}
	return step
}

func (e *enhanceStep) Name() string { return "enhance" }

func (e *enhanceStep) Disable(reason string) {
	e.enabled = false
	e.reason = reason
}

func (e *enhanceStep) IsEnabled() bool { return e.enabled }

func (e *enhanceStep) Apply(ctx context.Context, s *Session, t *Turn) error {
	if !enhanced[t.From] || t.To == Ended {
		return nil
	}

	t.Reply = e.polisher.Polish(ctx, t.Reply, ai.Request{
		State:         t.From.String(),
		CandidateName: s.ctx.Profile.FullName,
		Topic:         t.Topic,
	})
	return nil
}

func (e *enhanceStep) Status() Status {
	return Status{Name: e.Name(), Enabled: e.enabled, Reason: e.reason}
}

var blankLines = regexp.MustCompile(`\n{3,}`)

type tidyStep struct{}

func (tidyStep) Name() string { return "tidy" }

func (tidyStep) Disable(string) {}

func (tidyStep) IsEnabled() bool { return true }

// Apply trims the reply and collapses runs of blank lines.
func (tidyStep) Apply(_ context.Context, _ *Session, t *Turn) error {
	t.Reply = blankLines.ReplaceAllString(strings.TrimSpace(t.Reply), "\n\n")
	return nil
}
