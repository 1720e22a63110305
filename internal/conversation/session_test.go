package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/spigell/talentscout/internal/ai"
	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/knowledge"
	"github.com/spigell/talentscout/internal/patterns"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var aliceInputs = []string{
	"Alice",
	"alice@x.com",
	"1234567890",
	"5",
	"Backend Developer",
	"NYC",
	"Python, Django, PostgreSQL",
}

type recorder struct {
	sessions    []string
	transitions []string
	failures    []string
	scores      []float64
	messages    int
}

func (r *recorder) ObserveSession(event string)       { r.sessions = append(r.sessions, event) }
func (r *recorder) ObserveMessage(string)             { r.messages++ }
func (r *recorder) ObserveValidationFailure(f string) { r.failures = append(r.failures, f) }
func (r *recorder) ObserveScore(total float64)        { r.scores = append(r.scores, total) }
func (r *recorder) ObserveTransition(from, to string) {
	r.transitions = append(r.transitions, from+"->"+to)
}

type prefixPolisher struct {
	states []string
	fail   bool
}

func (p *prefixPolisher) Polish(_ context.Context, text string, req ai.Request) string {
	p.states = append(p.states, req.State)
	if p.fail {
		return text
	}
	return "[polished] " + text
}

type panickingMatcher struct{}

func (panickingMatcher) Extract(string) patterns.Result {
	panic("matcher exploded")
}

func testDeps(t *testing.T) Deps {
	t.Helper()

	kb, err := knowledge.Default()
	if err != nil {
		t.Fatalf("loading knowledge base: %v", err)
	}
	matcher, err := patterns.Default()
	if err != nil {
		t.Fatalf("loading patterns: %v", err)
	}

	return Deps{Knowledge: kb, Matcher: matcher, Logger: zap.NewNop()}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	return cfg
}

func newSession(t *testing.T, cfg Config, deps Deps) *Session {
	t.Helper()

	s, err := New("test-session", cfg, deps)
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	return s
}

func feed(t *testing.T, s *Session, inputs ...string) string {
	t.Helper()

	var reply string
	for _, in := range inputs {
		reply = s.Process(context.Background(), in)
	}
	return reply
}

func TestAliceScenario(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	deps := testDeps(t)
	deps.Logger = zap.New(core)
	rec := &recorder{}
	deps.Recorder = rec

	s := newSession(t, testConfig(), deps)

	wantStates := []State{
		CollectingInfo,
		CollectingInfo,
		CollectingInfo,
		CollectingInfo,
		CollectingInfo,
		TechStackCollection,
		TechnicalQuestions,
	}

	if s.State() != Greeting {
		t.Fatalf("expected greeting state, got %s", s.State())
	}

	for i, in := range aliceInputs {
		reply := s.Process(context.Background(), in)
		if reply == "" {
			t.Fatalf("input %q produced an empty reply", in)
		}
		if got := s.State(); got != wantStates[i] {
			t.Fatalf("after %q expected state %s, got %s (reply %q)", in, wantStates[i], got, reply)
		}
	}

	summary := s.Summary()
	profile := summary.Profile

	if profile.FullName != "Alice" || profile.Email != "alice@x.com" || profile.Phone != "1234567890" {
		t.Fatalf("unexpected contact details: %+v", profile)
	}
	if profile.ExperienceYears == nil || *profile.ExperienceYears != 5 {
		t.Fatalf("expected 5 years of experience, got %v", profile.ExperienceYears)
	}
	if profile.DesiredPosition != "Backend Developer" || profile.Location != "NYC" {
		t.Fatalf("unexpected position or location: %+v", profile)
	}

	wantStack := candidate.TechStack{
		{Name: "languages", Technologies: []string{"Python"}},
		{Name: "frameworks", Technologies: []string{"Django"}},
		{Name: "databases", Technologies: []string{"Postgresql"}},
	}
	if !reflect.DeepEqual(profile.TechStack, wantStack) {
		t.Fatalf("unexpected tech stack: %#v", profile.TechStack)
	}

	if summary.Questions.Len() == 0 {
		t.Fatal("expected generated questions")
	}
	for _, key := range summary.Questions.Keys() {
		if key != "Python" && key != "Django" && key != "Postgresql" {
			t.Fatalf("unexpected question key %q", key)
		}
	}
	if len(summary.MissingFields) != 0 {
		t.Fatalf("expected no missing fields, got %v", summary.MissingFields)
	}

	answer := "I built a production service with caching and a careful database design for performance."
	var reply string
	for i := 0; i < DefaultMaxTotalQuestions; i++ {
		if got := s.State(); got != TechnicalQuestions {
			t.Fatalf("answer %d: expected technical questions, got %s", i, got)
		}
		reply = s.Process(context.Background(), answer)
	}

	if s.State() != Completed {
		t.Fatalf("expected completed state, got %s", s.State())
	}
	if !strings.Contains(reply, "What happens next?") {
		t.Fatalf("expected wrap-up text, got %q", reply)
	}

	summary = s.Summary()
	if summary.Answered != DefaultMaxTotalQuestions || !summary.Completed {
		t.Fatalf("unexpected summary: answered=%d completed=%v", summary.Answered, summary.Completed)
	}
	for i, r := range summary.Responses {
		if r.Ordinal != i+1 || r.Question == "" || r.Text != answer {
			t.Fatalf("unexpected response record %d: %+v", i, r)
		}
	}

	if report := s.Report(); report.Failed() {
		t.Fatalf("expected a score report, got %q", report.Error)
	}
	if len(rec.scores) != 1 {
		t.Fatalf("expected one score observation, got %v", rec.scores)
	}
	if rec.sessions[0] != EventStarted || rec.sessions[len(rec.sessions)-1] != EventCompleted {
		t.Fatalf("unexpected session events: %v", rec.sessions)
	}

	if n := logs.FilterMessage("state changed").Len(); n != 4 {
		t.Fatalf("expected 4 state changes to be logged, got %d", n)
	}
}

func TestExitFromEveryState(t *testing.T) {
	prefixes := map[State][]string{
		Greeting:            nil,
		CollectingInfo:      aliceInputs[:3],
		TechStackCollection: aliceInputs[:6],
		TechnicalQuestions:  aliceInputs,
	}

	for state, prefix := range prefixes {
		t.Run(string(state), func(t *testing.T) {
			rec := &recorder{}
			deps := testDeps(t)
			deps.Recorder = rec
			s := newSession(t, testConfig(), deps)

			feed(t, s, prefix...)
			if s.State() != state {
				t.Fatalf("expected %s before exit, got %s", state, s.State())
			}

			before := s.Summary().Profile
			reply := s.Process(context.Background(), "Bye!")
			if s.State() != Ended {
				t.Fatalf("expected ended state, got %s", s.State())
			}
			if !strings.Contains(reply, "👋") {
				t.Fatalf("expected a farewell, got %q", reply)
			}
			if !reflect.DeepEqual(before, s.Summary().Profile) {
				t.Fatal("exit must not touch the profile")
			}
			if got := s.Process(context.Background(), "hello again"); got != endedNotice {
				t.Fatalf("expected ended notice, got %q", got)
			}
			if rec.sessions[len(rec.sessions)-1] != EventEnded {
				t.Fatalf("expected ended event, got %v", rec.sessions)
			}
		})
	}

	t.Run(string(Completed), func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxTotalQuestions = 1
		s := newSession(t, cfg, testDeps(t))

		feed(t, s, append(append([]string{}, aliceInputs...), "an answer")...)
		if s.State() != Completed {
			t.Fatalf("expected completed, got %s", s.State())
		}

		reply := s.Process(context.Background(), "ok, goodbye")
		if s.State() != Ended {
			t.Fatalf("expected ended state, got %s", s.State())
		}
		if !strings.Contains(reply, "2-3 business days") {
			t.Fatalf("expected finished farewell, got %q", reply)
		}
	})
}

func TestExitKeywordsMatchWholeWords(t *testing.T) {
	cfg := testConfig()
	cfg.ExitKeywords = []string{"end", "stop interview"}
	s := newSession(t, cfg, testDeps(t))

	feed(t, s, aliceInputs[:4]...)
	s.Process(context.Background(), "Backend Developer")
	if s.State() == Ended {
		t.Fatal("keyword inside a word must not end the session")
	}

	s.Process(context.Background(), "please STOP   interview")
	if s.State() != Ended {
		t.Fatalf("expected ended state, got %s", s.State())
	}

	s = newSession(t, testConfig(), testDeps(t))
	feed(t, s, "Alice", "I am quite sure I typed it")
	if s.State() == Ended {
		t.Fatal(`"quite" must not match the "quit" keyword`)
	}
}

func TestGreeting(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		contains string
	}{
		{name: "bare name", input: "Alice", wantName: "Alice", contains: "Great to meet you, Alice!"},
		{name: "sentence", input: "Hi, my name is bob", wantName: "Bob", contains: "Great to meet you, Bob!"},
		{name: "hello", input: "hi", contains: "What should I call you?"},
		{name: "noise", input: "123 456", contains: nameRetry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, testConfig(), testDeps(t))

			reply := s.Process(context.Background(), tt.input)
			if !strings.Contains(reply, tt.contains) {
				t.Fatalf("expected %q in reply, got %q", tt.contains, reply)
			}
			if got := s.Summary().Profile.FullName; got != tt.wantName {
				t.Fatalf("expected name %q, got %q", tt.wantName, got)
			}
		})
	}
}

func TestHybridExtraction(t *testing.T) {
	s := newSession(t, testConfig(), testDeps(t))
	feed(t, s, "Alice")

	reply := s.Process(context.Background(), "sure, it's alice.smith@example.org")
	if got := s.Summary().Profile.Email; got != "alice.smith@example.org" {
		t.Fatalf("expected extracted email, got %q (reply %q)", got, reply)
	}
	if !strings.Contains(reply, "phone number") {
		t.Fatalf("expected phone prompt, got %q", reply)
	}

	feed(t, s, "my number is (555) 123-4567 but not before 0900 or after 1800")
	if got := s.Summary().Profile.Phone; got != "(555) 123-4567" {
		t.Fatalf("expected extracted phone, got %q", got)
	}

	feed(t, s, "roughly 7 years now")
	if got := s.Summary().Profile.ExperienceYears; got == nil || *got != 7 {
		t.Fatalf("expected extracted experience, got %v", got)
	}
}

func TestValidationReprompts(t *testing.T) {
	deps := testDeps(t)
	deps.Matcher = nil
	rec := &recorder{}
	deps.Recorder = rec
	s := newSession(t, testConfig(), deps)
	feed(t, s, "Alice")

	tests := []struct {
		input string
		want  string
	}{
		{input: "sure, it's alice@example.org", want: invalidPrompts[candidate.FieldEmail]},
		{input: "not-an-email", want: invalidPrompts[candidate.FieldEmail]},
	}
	for _, tt := range tests {
		if got := s.Process(context.Background(), tt.input); got != tt.want {
			t.Fatalf("%q: expected %q, got %q", tt.input, tt.want, got)
		}
	}
	if s.Summary().Profile.Email != "" {
		t.Fatal("rejected input must not be stored")
	}

	feed(t, s, "alice@example.org", "12345")
	if s.Summary().Profile.Phone != "" {
		t.Fatal("short phone must be rejected")
	}

	feed(t, s, "1234567890")
	if got := s.Process(context.Background(), "fifty-one"); got != invalidPrompts[candidate.FieldExperienceYears] {
		t.Fatalf("unexpected experience re-prompt %q", got)
	}
	if got := s.Process(context.Background(), "51"); got != invalidPrompts[candidate.FieldExperienceYears] {
		t.Fatalf("unexpected experience re-prompt %q", got)
	}

	want := []string{"email", "email", "phone", "experience_years", "experience_years"}
	if !reflect.DeepEqual(rec.failures, want) {
		t.Fatalf("unexpected validation failures: %v", rec.failures)
	}
}

func TestMatcherReplyWithReprompt(t *testing.T) {
	s := newSession(t, testConfig(), testDeps(t))
	feed(t, s, "Alice")

	reply := s.Process(context.Background(), "what is the process like?")
	if !strings.Contains(reply, "Here's what happens next") {
		t.Fatalf("expected FAQ reply, got %q", reply)
	}
	if !strings.HasSuffix(reply, promptFor(candidate.FieldEmail)) {
		t.Fatalf("expected email prompt at the end, got %q", reply)
	}
	if s.State() != CollectingInfo {
		t.Fatalf("expected to stay in collecting info, got %s", s.State())
	}
}

func TestTechStackCollection(t *testing.T) {
	t.Run("parse empty", func(t *testing.T) {
		s := newSession(t, testConfig(), testDeps(t))
		feed(t, s, aliceInputs[:6]...)

		if got := s.Process(context.Background(), "I like turtles"); got != strings.TrimSpace(parseEmptyGuidance) {
			t.Fatalf("expected formatting guidance, got %q", got)
		}
		if s.State() != TechStackCollection {
			t.Fatalf("expected to stay in tech stack collection, got %s", s.State())
		}
	})

	t.Run("aliases", func(t *testing.T) {
		s := newSession(t, testConfig(), testDeps(t))
		feed(t, s, aliceInputs[:6]...)

		s.Process(context.Background(), "golang, k8s")
		want := candidate.TechStack{
			{Name: "languages", Technologies: []string{"Go"}},
			{Name: "devops_tools", Technologies: []string{"Kubernetes"}},
		}
		if got := s.Summary().Profile.TechStack; !reflect.DeepEqual(got, want) {
			t.Fatalf("unexpected stack %#v", got)
		}
	})

	t.Run("aliases need the matcher", func(t *testing.T) {
		deps := testDeps(t)
		deps.Matcher = nil
		s := newSession(t, testConfig(), deps)
		feed(t, s, aliceInputs[:6]...)

		s.Process(context.Background(), "golang, k8s")
		if s.State() != TechStackCollection {
			t.Fatalf("expected to stay in tech stack collection, got %s", s.State())
		}
	})

	t.Run("first question", func(t *testing.T) {
		s := newSession(t, testConfig(), testDeps(t))
		reply := feed(t, s, aliceInputs...)

		for _, want := range []string{"Here's what I picked up", "- **Languages**: Python", "💭 **Python**:", "_About Python:"} {
			if !strings.Contains(reply, want) {
				t.Fatalf("expected %q in reply:\n%s", want, reply)
			}
		}
	})
}

func TestTechnicalQuestionsFollowUps(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQuestionsPerTechnology = 1
	cfg.MaxTotalQuestions = 6
	s := newSession(t, cfg, testDeps(t))
	feed(t, s, aliceInputs...)

	if got := s.Process(context.Background(), "   "); !strings.HasPrefix(got, emptyAnswer) {
		t.Fatalf("expected empty answer re-prompt, got %q", got)
	}
	if len(s.Summary().Responses) != 0 {
		t.Fatal("empty answers must not be recorded")
	}

	generated := s.Summary().Questions.Len()
	var replies []string
	for i := 0; i < generated+1; i++ {
		replies = append(replies, s.Process(context.Background(), "We built a project where we fixed a nasty bug"))
	}

	last := replies[len(replies)-1]
	if !strings.Contains(last, advancedLead) && !strings.Contains(last, "**Behavioral**") {
		t.Fatalf("expected a follow-up after the generated questions, got %q", last)
	}

	responses := s.Summary().Responses
	if responses[0].Intent != "project" {
		t.Fatalf("expected project intent, got %q", responses[0].Intent)
	}
}

func TestCompletedAnswersQuestions(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTotalQuestions = 1
	s := newSession(t, cfg, testDeps(t))
	feed(t, s, append(append([]string{}, aliceInputs...), "an answer")...)

	reply := s.Process(context.Background(), "What are the next steps?")
	if !strings.Contains(reply, "Sure thing, Alice! Here's what happens next") {
		t.Fatalf("expected process FAQ, got %q", reply)
	}

	reply = s.Process(context.Background(), "cool")
	if !strings.HasPrefix(reply, "Thanks so much, Alice!") {
		t.Fatalf("expected polite close, got %q", reply)
	}
	if s.State() != Completed {
		t.Fatalf("expected to stay completed, got %s", s.State())
	}
}

func TestEnhancerOnlyPolishesLaterStates(t *testing.T) {
	polisher := &prefixPolisher{}
	deps := testDeps(t)
	deps.Polisher = polisher
	s := newSession(t, testConfig(), deps)

	if reply := feed(t, s, aliceInputs[:6]...); strings.HasPrefix(reply, "[polished]") {
		t.Fatalf("info collection replies must not be polished: %q", reply)
	}
	if len(polisher.states) != 0 {
		t.Fatalf("polisher called in %v", polisher.states)
	}

	if reply := s.Process(context.Background(), "Python"); !strings.HasPrefix(reply, "[polished]") {
		t.Fatalf("expected polished reply, got %q", reply)
	}
	if polisher.states[0] != string(TechStackCollection) {
		t.Fatalf("unexpected polish state %v", polisher.states)
	}

	if reply := s.Process(context.Background(), "bye"); strings.HasPrefix(reply, "[polished]") {
		t.Fatalf("farewell must not be polished: %q", reply)
	}
}

type failingEnhancer struct{}

func (failingEnhancer) Enhance(context.Context, string, ai.Request) (string, error) {
	return "", errors.New("provider down")
}

func TestEnhancerFailureDegradesToBaseText(t *testing.T) {
	plain := newSession(t, testConfig(), testDeps(t))
	want := feed(t, plain, aliceInputs...)

	deps := testDeps(t)
	deps.Polisher = ai.NewGuard(failingEnhancer{}, ai.DefaultGuardConfig(), nil, nil)
	guarded := newSession(t, testConfig(), deps)

	if got := feed(t, guarded, aliceInputs...); got != want {
		t.Fatalf("expected base text\nwant: %q\ngot:  %q", want, got)
	}
}

func TestProcessRecoversFromCollaboratorPanic(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	deps := testDeps(t)
	deps.Matcher = panickingMatcher{}
	deps.Logger = zap.New(core)
	s := newSession(t, testConfig(), deps)

	if got := s.Process(context.Background(), "hello"); got != apology {
		t.Fatalf("expected apology, got %q", got)
	}
	if logs.FilterMessage("recovered while processing input").Len() != 1 {
		t.Fatal("expected the panic to be logged")
	}
}

func TestResetDiscardsEverything(t *testing.T) {
	s := newSession(t, testConfig(), testDeps(t))
	feed(t, s, aliceInputs...)

	if got := s.Reset(); got != s.Greeting() {
		t.Fatalf("expected greeting, got %q", got)
	}

	summary := s.Summary()
	if summary.State != Greeting || !summary.Profile.IsEmpty() || summary.Questions.Len() != 0 {
		t.Fatalf("expected a fresh session, got %+v", summary)
	}
	if msgs := s.Messages(); len(msgs) != 1 || msgs[0].Content != greetingMessage {
		t.Fatalf("expected only the greeting in the transcript, got %d messages", len(msgs))
	}
	if summary.SessionID != "test-session" {
		t.Fatalf("reset must keep the session id, got %q", summary.SessionID)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	s := newSession(t, testConfig(), testDeps(t))
	feed(t, s, "Alice")

	if got := s.End(); !strings.Contains(got, "Alice") {
		t.Fatalf("expected personalized farewell, got %q", got)
	}
	if got := s.End(); got != endedNotice {
		t.Fatalf("expected ended notice, got %q", got)
	}
}

func TestRequiredFieldsSubset(t *testing.T) {
	cfg := testConfig()
	cfg.RequiredFields = []string{"email"}
	s := newSession(t, cfg, testDeps(t))

	feed(t, s, "Alice")
	reply := s.Process(context.Background(), "alice@x.com")
	if s.State() != TechStackCollection {
		t.Fatalf("expected tech stack collection, got %s", s.State())
	}
	if !strings.Contains(reply, techStackPrompt) {
		t.Fatalf("expected tech stack prompt, got %q", reply)
	}
}

func TestSeededSessionsAreDeterministic(t *testing.T) {
	run := func() []string {
		s := newSession(t, testConfig(), testDeps(t))
		replies := make([]string, 0)
		for _, in := range append(append([]string{}, aliceInputs...), "first answer", "second answer", "bye") {
			replies = append(replies, s.Process(context.Background(), in))
		}
		return replies
	}

	if a, b := run(), run(); !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical replies for the same seed")
	}
}

func TestTranscriptAlternates(t *testing.T) {
	s := newSession(t, testConfig(), testDeps(t))
	feed(t, s, aliceInputs[:3]...)

	msgs := s.Messages()
	if len(msgs) != 7 {
		t.Fatalf("expected greeting plus three exchanges, got %d messages", len(msgs))
	}
	for i, m := range msgs {
		want := candidate.RoleAssistant
		if i%2 == 1 {
			want = candidate.RoleUser
		}
		if m.Role != want {
			t.Fatalf("message %d: expected role %s, got %s", i, want, m.Role)
		}
	}
}

func TestIndustryQuestionsFollowDetectedIndustry(t *testing.T) {
	inputs := append([]string(nil), aliceInputs...)
	inputs[4] = "Backend Developer at a fintech company"

	t.Run("enabled", func(t *testing.T) {
		s := newSession(t, testConfig(), testDeps(t))
		feed(t, s, inputs...)

		summary := s.Summary()
		if summary.Industry != "fintech" {
			t.Fatalf("expected fintech, got %q", summary.Industry)
		}
		keys := strings.Join(summary.Questions.Keys(), ",")
		if !strings.HasSuffix(keys, "Python (Fintech),Django (Fintech)") {
			t.Fatalf("expected industry questions after the generated ones, got %s", keys)
		}
		if got := len(summary.Questions.Get("Python (Fintech)")); got != DefaultIndustryQuestions {
			t.Fatalf("expected %d industry questions, got %d", DefaultIndustryQuestions, got)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.IndustryQuestionsPerTechnology = 0
		s := newSession(t, cfg, testDeps(t))
		feed(t, s, inputs...)

		summary := s.Summary()
		if summary.Industry != "fintech" {
			t.Fatalf("detection must still run, got %q", summary.Industry)
		}
		if strings.Contains(strings.Join(summary.Questions.Keys(), ","), "(Fintech)") {
			t.Fatalf("expected no industry questions, got %v", summary.Questions.Keys())
		}
	})

	t.Run("no industry", func(t *testing.T) {
		s := newSession(t, testConfig(), testDeps(t))
		feed(t, s, aliceInputs...)

		if got := s.Summary().Industry; got != knowledge.GeneralIndustry {
			t.Fatalf("expected %q, got %q", knowledge.GeneralIndustry, got)
		}
	})
}

func TestResponseJSONSeparatesRawTextFromAnalysis(t *testing.T) {
	s := newSession(t, testConfig(), testDeps(t))
	feed(t, s, append(append([]string(nil), aliceInputs...), "We built a project with caching")...)

	responses := s.Summary().Responses
	if len(responses) != 1 {
		t.Fatalf("expected one response, got %d", len(responses))
	}

	data, err := json.Marshal(responses[0])
	if err != nil {
		t.Fatalf("marshalling response: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if string(fields["raw_text"]) != `"We built a project with caching"` {
		t.Fatalf("unexpected raw_text in %s", data)
	}
	if _, ok := fields["derived_analysis"]; !ok {
		t.Fatalf("expected derived_analysis in %s", data)
	}
	for _, old := range []string{"text", "analysis"} {
		if _, ok := fields[old]; ok {
			t.Fatalf("unexpected %q key in %s", old, data)
		}
	}
}
