package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/talentscout/internal/ai"
	"github.com/spigell/talentscout/internal/logger"
	"github.com/spigell/talentscout/internal/utils"
	"go.uber.org/zap"
)

const (
	providerName        = "gemini"
	defaultMaxLogLength = 200
	maxFieldRunes       = 120
)

//go:embed prompt.md
var systemPrompt string

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// Enhancer rewrites interview replies in a more conversational tone.
type Enhancer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Enhancer = (*Enhancer)(nil)

func NewEnhancer(generator contentGenerator, log *zap.Logger, maxLogLength int) *Enhancer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Enhancer{
		generator: generator,
		logger:    logger.WithCommonFields(log, providerName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (e *Enhancer) Enhance(ctx context.Context, text string, req ai.Request) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("text to enhance must not be empty")
	}

	message := buildMessage(text, req)

	e.logger.Debug("gemini enhance request",
		logger.State(req.State),
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, systemPrompt, message)
	if err != nil {
		return "", fmt.Errorf("enhance response: %w", err)
	}

	e.logger.Debug("gemini enhance response",
		logger.State(req.State),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	out := stripFences(raw)
	if out == "" {
		return "", errors.New("gemini returned an empty rewrite")
	}
	return out, nil
}

func buildMessage(text string, req ai.Request) string {
	var b strings.Builder
	b.WriteString("Make this recruiting reply more natural and engaging.\n\n")
	b.WriteString("Reply:\n")
	b.WriteString(text)
	b.WriteString("\n\nContext:\n")
	fmt.Fprintf(&b, "- Conversation stage: %s\n", fieldOr(req.State, "unknown"))
	fmt.Fprintf(&b, "- Candidate's name: %s\n", fieldOr(req.CandidateName, "candidate"))
	fmt.Fprintf(&b, "- What we're discussing: %s\n", fieldOr(req.Topic, "general conversation"))
	return b.String()
}

// sanitizeField keeps context values on one line and out of the reply block.
func sanitizeField(value string) string {
	value = strings.NewReplacer("[", "(", "]", ")").Replace(value)
	value = strings.Join(strings.Fields(value), " ")
	if utf8.RuneCountInString(value) > maxFieldRunes {
		value = string([]rune(value)[:maxFieldRunes])
	}
	return value
}

func fieldOr(value, fallback string) string {
	if v := sanitizeField(value); v != "" {
		return v
	}
	return fallback
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```markdown")
		raw = strings.TrimPrefix(raw, "```text")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
