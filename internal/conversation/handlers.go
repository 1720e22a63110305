package conversation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/patterns"
	"github.com/spigell/talentscout/internal/questions"
	"github.com/spigell/talentscout/internal/scoring"
	"go.uber.org/zap"
)

// A bare name: one alphabetic token.
var singleName = regexp.MustCompile(`^[A-Za-z]{2,20}$`)

// minReplyConfidence is what a canned matcher reply needs to be shown next to
// a re-prompt.
const minReplyConfidence = 0.5

func (s *Session) handleGreeting(log *zap.Logger, input string) string {
	var res patterns.Result
	if s.matcher != nil {
		res = s.matcher.Extract(input)
	}

	// "Hi" is a greeting, not a name.
	if singleName.MatchString(input) && res.Rule != "greeting" {
		return s.storeName(log, input)
	}

	if s.matcher != nil && res.Confidence >= s.cfg.ExtractionConfidence {
		if ex, err := patterns.Decode(res.Context); err != nil {
			log.Warn("decoding extraction", zap.Error(collaboratorError(Greeting, "matcher", err)))
		} else if ex.FullName != "" {
			return s.storeName(log, ex.FullName)
		}
	}

	if res.Matched() && res.Confidence > minReplyConfidence {
		return res.Personalize("")
	}

	s.recorder.ObserveValidationFailure(string(candidate.FieldFullName))
	return nameRetry
}

func (s *Session) storeName(log *zap.Logger, name string) string {
	if outcome := s.ctx.Profile.ValidateAndStore(candidate.FieldFullName, name); !outcome.OK() {
		log.Debug("name rejected", zap.Error(validationError(Greeting, candidate.FieldFullName, outcome)))
		s.recorder.ObserveValidationFailure(string(candidate.FieldFullName))
		return nameRetry
	}

	greeting := fmt.Sprintf("Great to meet you, %s!", s.ctx.Profile.FullName)
	next, ok := s.ctx.Profile.NextField(s.order)
	if !ok {
		return greeting + " " + techStackPrompt
	}
	return greeting + " " + promptFor(next)
}

// handleField tries the structured validator first and the matcher's
// extraction of the same field second. Both are validated the same way.
func (s *Session) handleField(log *zap.Logger, field candidate.Field, input string) string {
	outcome := s.ctx.Profile.ValidateAndStore(field, input)
	if outcome.OK() {
		return s.advance(field)
	}

	log.Debug("field rejected", zap.Error(validationError(CollectingInfo, field, outcome)))

	var matched string
	if s.matcher != nil {
		res := s.matcher.Extract(input)

		if res.Confidence >= s.cfg.ExtractionConfidence {
			if value, ok := extracted(log, res, field); ok && s.ctx.Profile.ValidateAndStore(field, value).OK() {
				log.Info("accepted extracted value", zap.String("field", string(field)), zap.Float64("confidence", res.Confidence))
				return s.advance(field)
			}
		}

		if res.Matched() && res.Confidence > minReplyConfidence {
			matched = res.Personalize(s.ctx.Profile.FullName)
		}
	}

	s.recorder.ObserveValidationFailure(string(field))

	if matched != "" {
		return matched + "\n\n" + promptFor(field)
	}
	return invalidPrompt(field)
}

func extracted(log *zap.Logger, res patterns.Result, field candidate.Field) (string, bool) {
	ex, err := patterns.Decode(res.Context)
	if err != nil {
		log.Warn("decoding extraction", zap.Error(collaboratorError(CollectingInfo, "matcher", err)))
		return "", false
	}
	return ex.Value(string(field))
}

func (s *Session) advance(stored candidate.Field) string {
	next, ok := s.ctx.Profile.NextField(s.order)
	if !ok {
		return enterTechStack()
	}
	return transition(stored, s.ctx.Profile.Value(stored)) + " " + promptFor(next)
}

func (s *Session) handleTechStack(log *zap.Logger, input string) string {
	stack := s.parser.Parse(input)

	if stack.Empty() && s.matcher != nil {
		res := s.matcher.Extract(input)
		if res.Confidence >= s.cfg.ExtractionConfidence {
			if ex, err := patterns.Decode(res.Context); err != nil {
				log.Warn("decoding extraction", zap.Error(collaboratorError(TechStackCollection, "matcher", err)))
			} else if len(ex.Technologies) > 0 {
				stack = s.parser.Parse(strings.Join(ex.Technologies, ", "))
			}
		}
	}

	if stack.Empty() {
		log.Debug("tech stack rejected", zap.Error(parseEmptyError(TechStackCollection)))
		s.recorder.ObserveValidationFailure("tech_stack")
		return parseEmptyGuidance
	}

	s.ctx.Profile.TechStack = stack
	s.ctx.Questions = s.generator.Generate(stack, s.cfg.MaxQuestionsPerTechnology, s.ctx.Profile.Experience())
	if s.ctx.Questions.Len() == 0 {
		log.Error("no questions generated", zap.Error(inconsistencyError(TechStackCollection, "empty question set")))
	}

	s.ctx.Industry = s.detectIndustry()
	if industry, ok := s.kb.Industry(s.ctx.Industry); ok && s.cfg.IndustryQuestionsPerTechnology > 0 {
		s.ctx.Questions = s.generator.WithIndustry(s.ctx.Questions, industry, stack, s.cfg.IndustryQuestionsPerTechnology)
	}

	log.Info("tech stack collected",
		zap.String("tech_stack", stack.String()),
		zap.String("industry", s.ctx.Industry),
		zap.Strings("question_keys", s.ctx.Questions.Keys()),
	)

	_, depth, analysis := scoring.TechStackScore(stack)

	var b strings.Builder
	b.WriteString(stackStarter(depth, analysis))
	b.WriteString(" Here's what I picked up:\n\n")
	b.WriteString(formatStack(stack))
	b.WriteString("\n\n")
	b.WriteString(firstQuestionLead)
	b.WriteString("\n\n")
	b.WriteString(s.nextQuestion(""))
	return b.String()
}

// detectIndustry reads the desired position and everything the candidate
// said so far.
func (s *Session) detectIndustry() string {
	texts := []string{s.ctx.Profile.DesiredPosition}
	for _, m := range s.ctx.Messages {
		if m.Role == candidate.RoleUser {
			texts = append(texts, m.Content)
		}
	}

	industry, _ := s.kb.DetectIndustry(texts...)
	return industry
}

func (s *Session) handleAnswer(log *zap.Logger, input string) string {
	if input == "" {
		s.recorder.ObserveValidationFailure("answer")
		return emptyAnswer + "\n\n" + s.ctx.Pending
	}

	intent := patterns.IntentGeneral
	if s.matcher != nil {
		intent = s.matcher.Extract(input).Intent
	}

	analysis := questions.Analyze(input)
	s.ctx.Responses = append(s.ctx.Responses, Response{
		Ordinal:  len(s.ctx.Responses) + 1,
		Question: s.ctx.Pending,
		Text:     input,
		Analysis: analysis,
		Intent:   intent,
	})

	log.Debug("answer recorded",
		zap.Int("ordinal", len(s.ctx.Responses)),
		zap.String("skill_level", string(analysis.SkillLevel)),
		zap.Int("word_count", analysis.WordCount),
	)

	feedback := s.pick(feedbackPhrases)

	if len(s.ctx.Responses) >= s.cfg.MaxTotalQuestions {
		s.ctx.Pending = ""
		return feedback + " " + completionText(displayName(s.ctx.Profile), s.ctx.Profile)
	}

	return feedback + " " + s.nextQuestion(input)
}

// nextQuestion renders the question for the next answer: generated questions
// first, then advanced and behavioral follow-ups taking turns.
func (s *Session) nextQuestion(lastAnswer string) string {
	ordinal := len(s.ctx.Responses)
	items := s.ctx.Questions.Flatten()

	if ordinal < len(items) {
		item := items[ordinal]
		s.ctx.Pending = item.Question

		question := fmt.Sprintf("💭 **%s**: %s", item.Technology, item.Question)
		if ordinal == 0 {
			if insight, ok := s.kb.Lookup(item.Technology); ok {
				question += fmt.Sprintf("\n\n_About %s: %s_", item.Technology, insight.Description)
			}
			return question + "\n\n" + technicalTail
		}
		return s.pick(followUpIntros) + "\n\n" + question + "\n\n" + technicalTail
	}

	extra := ordinal - len(items)
	if extra%2 == 0 {
		if fu, ok := s.generator.Advanced(s.ctx.lastSkillLevel(), s.ctx.Profile.TechStack, extra/2); ok {
			s.ctx.Pending = fu.Question
			return fmt.Sprintf("%s\n\n🎯 **%s** (%s): %s", advancedLead, fu.Topic, fu.Difficulty, fu.Question)
		}
	}

	if q := s.generator.Behavioral(lastAnswer, s.ctx.Profile.Experience()); q != "" {
		s.ctx.Pending = q
		return fmt.Sprintf("%s\n\n💡 **Behavioral**: %s\n\n%s", behavioralLead, q, behavioralTail)
	}

	s.ctx.Pending = closingQuestion
	return closingQuestion
}

func (s *Session) handleCompleted(input string) (string, string) {
	name := displayName(s.ctx.Profile)

	if s.matcher != nil {
		if res := s.matcher.Extract(input); res.Topic != "" {
			return res.Personalize(name), res.Topic
		}
	}

	return politeClose(name), "wrap-up"
}

// farewell ends the session.
func (s *Session) farewell(from State) string {
	s.ctx.Ended = true
	s.ctx.Pending = ""

	goodbye := fmt.Sprintf(s.pick(goodbyes), displayName(s.ctx.Profile))
	return goodbye + "\n\n" + farewellSuffix(from == Completed, s.ctx.collected())
}
