// Package conversation drives the screening interview: it owns the candidate
// profile, dispatches every input to the handler of the current state and
// builds the reply.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/spigell/talentscout/internal/ai"
	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/knowledge"
	"github.com/spigell/talentscout/internal/logger"
	"github.com/spigell/talentscout/internal/patterns"
	"github.com/spigell/talentscout/internal/questions"
	"github.com/spigell/talentscout/internal/scoring"
	"go.uber.org/zap"
)

// Matcher is the pattern matcher used for canned replies and heuristic
// extraction. Sessions work without one.
type Matcher interface {
	Extract(text string) patterns.Result
}

// Polisher rewrites replies. It must return the text unchanged on failure.
type Polisher interface {
	Polish(ctx context.Context, text string, req ai.Request) string
}

// Recorder receives interview events.
type Recorder interface {
	ObserveSession(event string)
	ObserveMessage(state string)
	ObserveTransition(from, to string)
	ObserveValidationFailure(field string)
	ObserveScore(total float64)
}

// Session events reported to the Recorder.
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventEnded     = "ended"
	EventReset     = "reset"
)

// Deps aggregates the collaborators shared by sessions.
type Deps struct {
	Knowledge *knowledge.Base
	Matcher   Matcher
	Polisher  Polisher
	Recorder  Recorder
	Logger    *zap.Logger
}

// Session is a single interview. Its methods serialize access, but the
// interview itself is turn based: every input is fully handled before the
// next one.
type Session struct {
	mu sync.Mutex

	ctx       *SessionContext
	cfg       Config
	order     []candidate.Field
	exit      *regexp.Regexp
	kb        *knowledge.Base
	parser    *candidate.Parser
	generator *questions.Generator
	matcher   Matcher
	recorder  Recorder
	steps     []Step
	rng       *rand.Rand
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a session and records the greeting as the first message. Only
// invalid configuration or missing knowledge data make it fail.
func New(id string, cfg Config, deps Deps) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	order, err := cfg.FieldOrder()
	if err != nil {
		return nil, err
	}

	if deps.Knowledge == nil {
		return nil, errors.New("knowledge base is required")
	}
	if err := deps.Knowledge.Taxonomy.Validate(); err != nil {
		return nil, fmt.Errorf("knowledge base: %w", err)
	}

	exit, err := exitPattern(cfg.normalizedExitKeywords())
	if err != nil {
		return nil, err
	}

	rng := newRand(cfg.Seed)

	s := &Session{
		cfg:       cfg,
		order:     order,
		exit:      exit,
		kb:        deps.Knowledge,
		parser:    candidate.NewParser(deps.Knowledge.Taxonomy),
		generator: questions.New(deps.Knowledge.Questions, cfg.MaxTechnologies, rng),
		matcher:   deps.Matcher,
		recorder:  deps.Recorder,
		rng:       rng,
		logger:    logger.WithSession(deps.Logger, id),
		now:       time.Now,
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}

	s.steps = []Step{newEnhanceStep(deps.Polisher), tidyStep{}}
	for _, status := range Describe(s.steps) {
		if !status.Enabled {
			s.logger.Debug("response step disabled", zap.String("name", status.Name), zap.String("reason", status.Reason))
		}
	}

	s.ctx = newSessionContext(id, s.now())
	s.ctx.addMessage(candidate.RoleAssistant, greetingMessage)
	s.recorder.ObserveSession(EventStarted)

	return s, nil
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// exitPattern matches any keyword as whole words, so "end interview" matches
// but "backend" does not.
func exitPattern(keywords []string) (*regexp.Regexp, error) {
	if len(keywords) == 0 {
		return nil, errors.New("at least one exit keyword is required")
	}

	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		words := strings.Fields(kw)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		parts = append(parts, strings.Join(words, `\s+`))
	}

	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compiling exit keywords: %w", err)
	}
	return re, nil
}

func (s *Session) ID() string {
	return s.ctx.ID
}

// Greeting is the opening message of the interview.
func (s *Session) Greeting() string {
	return greetingMessage
}

// State derives the current phase from the session data.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Session) state() State {
	return deriveState(s.ctx, s.order, s.cfg.MaxTotalQuestions)
}

// Steps describes the response post-processing steps.
func (s *Session) Steps() []Status {
	return Describe(s.steps)
}

// Process handles one candidate input and returns the reply. It never fails:
// internal problems are logged and answered with a re-prompt or an apology.
func (s *Session) Process(ctx context.Context, input string) (reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.state()
	log := s.logger.With(logger.State(from.String()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered while processing input", zap.Any("panic", r))
			reply = apology
			s.ctx.addMessage(candidate.RoleAssistant, reply)
		}
	}()

	input = strings.TrimSpace(input)
	s.recorder.ObserveMessage(from.String())
	s.ctx.addMessage(candidate.RoleUser, input)

	turn := &Turn{Input: input, From: from}
	turn.Reply, turn.Topic = s.dispatch(ctx, log, from, input)
	turn.To = s.state()

	runSteps(ctx, s, s.steps, turn)
	if turn.Reply == "" {
		log.Error("empty reply", zap.Error(inconsistencyError(from, "handler produced no reply")))
		turn.Reply = apology
	}

	s.ctx.addMessage(candidate.RoleAssistant, turn.Reply)

	if turn.To != from {
		s.recorder.ObserveTransition(from.String(), turn.To.String())
		log.Info("state changed", zap.String("to", turn.To.String()))
		s.onEnter(turn.To)
	}

	return turn.Reply
}

func (s *Session) onEnter(state State) {
	switch state {
	case Completed:
		s.recorder.ObserveSession(EventCompleted)
		if report := scoring.Score(s.ctx.Profile, s.ctx.Messages); !report.Failed() {
			s.recorder.ObserveScore(report.TotalScore)
			s.logger.Info("interview completed",
				zap.Float64("score", report.TotalScore),
				zap.String("grade", report.Grade),
			)
		}
	case Ended:
		s.recorder.ObserveSession(EventEnded)
	}
}

func (s *Session) dispatch(ctx context.Context, log *zap.Logger, state State, input string) (string, string) {
	if state != Ended && s.exit.MatchString(input) {
		return s.farewell(state), ""
	}

	switch state {
	case Greeting:
		return s.handleGreeting(log, input), ""
	case CollectingInfo:
		field, _ := s.ctx.Profile.NextField(s.order)
		return s.handleField(log, field, input), field.Label()
	case TechStackCollection:
		return s.handleTechStack(log, input), "tech stack"
	case TechnicalQuestions:
		return s.handleAnswer(log, input), "technical questions"
	case Completed:
		return s.handleCompleted(input)
	case Ended:
		return endedNotice, ""
	default:
		log.Error("unknown state", zap.Error(inconsistencyError(state, "no handler")))
		return apology, ""
	}
}

// End closes the session as if the candidate said goodbye and returns the
// farewell. Ending an ended session returns the ended notice.
func (s *Session) End() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.state()
	if from == Ended {
		return endedNotice
	}

	reply := s.farewell(from)
	s.ctx.addMessage(candidate.RoleAssistant, reply)
	s.recorder.ObserveTransition(from.String(), Ended.String())
	s.onEnter(Ended)
	return reply
}

// Reset discards everything collected and starts over at the greeting.
func (s *Session) Reset() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx = newSessionContext(s.ctx.ID, s.now())
	s.ctx.addMessage(candidate.RoleAssistant, greetingMessage)
	s.recorder.ObserveSession(EventReset)
	s.logger.Info("session reset")
	return greetingMessage
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []candidate.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]candidate.Message(nil), s.ctx.Messages...)
}

// Report scores the session as it is now.
func (s *Session) Report() *scoring.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scoring.Score(s.ctx.Profile, s.ctx.Messages)
}

// Summary is a snapshot of a session for status display and export.
type Summary struct {
	SessionID     string             `json:"session_id"`
	StartedAt     time.Time          `json:"started_at"`
	State         State              `json:"state"`
	Profile       *candidate.Profile `json:"candidate_profile"`
	Questions     questions.Set      `json:"question_set"`
	Industry      string             `json:"industry,omitempty"`
	Responses     []Response         `json:"responses"`
	Answered      int                `json:"answered"`
	MaxQuestions  int                `json:"max_questions"`
	MissingFields []candidate.Field  `json:"missing_fields"`
	Completed     bool               `json:"completion_status"`
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state()
	return Summary{
		SessionID:     s.ctx.ID,
		StartedAt:     s.ctx.StartedAt,
		State:         state,
		Profile:       s.ctx.Profile.Clone(),
		Questions:     append(questions.Set(nil), s.ctx.Questions...),
		Industry:      s.ctx.Industry,
		Responses:     append([]Response(nil), s.ctx.Responses...),
		Answered:      len(s.ctx.Responses),
		MaxQuestions:  s.cfg.MaxTotalQuestions,
		MissingFields: s.ctx.Profile.Missing(s.order),
		Completed:     state.Final(),
	}
}

func (s *Session) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[s.rng.IntN(len(options))]
}

type nopRecorder struct{}

func (nopRecorder) ObserveSession(string)           {}
func (nopRecorder) ObserveMessage(string)           {}
func (nopRecorder) ObserveTransition(string, string) {}
func (nopRecorder) ObserveValidationFailure(string) {}
func (nopRecorder) ObserveScore(float64)            {}
