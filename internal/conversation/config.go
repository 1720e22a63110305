package conversation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/questions"
)

const (
	DefaultMaxQuestionsPerTechnology = 3
	DefaultMaxTotalQuestions         = 8
	DefaultExtractionConfidence      = 0.6
	DefaultIndustryQuestions         = 2
)

// DefaultExitKeywords end the interview from any state.
var DefaultExitKeywords = []string{"bye", "goodbye", "exit", "quit", "end interview", "stop interview"}

// Config is the interview section of the configuration file.
type Config struct {
	MaxQuestionsPerTechnology int      `mapstructure:"max-questions-per-technology" validate:"gte=1,lte=10"`
	MaxTechnologies           int      `mapstructure:"max-technologies" validate:"gte=1,lte=20"`
	MaxTotalQuestions         int      `mapstructure:"max-total-questions" validate:"gte=1,lte=50"`
	ExitKeywords              []string `mapstructure:"exit-keywords" validate:"min=1,dive,required"`
	RequiredFields            []string `mapstructure:"required-fields" validate:"dive,required"`
	// ExtractionConfidence is the minimum pattern matcher confidence for a
	// heuristic extraction to be accepted.
	ExtractionConfidence float64 `mapstructure:"extraction-confidence" validate:"gte=0,lte=1"`
	// Seed fixes the random source. Zero picks a random seed per session.
	Seed uint64 `mapstructure:"seed"`
	// IndustryQuestionsPerTechnology caps the extra questions asked once an
	// industry is detected. Zero turns industry questions off.
	IndustryQuestionsPerTechnology int `mapstructure:"industry-questions-per-technology" validate:"gte=0,lte=10"`
}

func DefaultConfig() Config {
	fields := make([]string, 0, len(candidate.FieldOrder))
	for _, f := range candidate.FieldOrder {
		fields = append(fields, string(f))
	}

	return Config{
		MaxQuestionsPerTechnology: DefaultMaxQuestionsPerTechnology,
		MaxTechnologies:           questions.DefaultMaxTechnologies,
		MaxTotalQuestions:         DefaultMaxTotalQuestions,
		ExitKeywords:              append([]string(nil), DefaultExitKeywords...),
		RequiredFields:            fields,
		ExtractionConfidence:      DefaultExtractionConfidence,

		IndustryQuestionsPerTechnology: DefaultIndustryQuestions,
	}
}

var configValidator = validator.New()

func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid interview config: %w", err)
	}
	if _, err := c.FieldOrder(); err != nil {
		return fmt.Errorf("invalid interview config: %w", err)
	}
	return nil
}

// FieldOrder resolves RequiredFields. The name is always collected first, in
// the greeting, so it is prepended when missing. Duplicates are dropped.
func (c Config) FieldOrder() ([]candidate.Field, error) {
	order := []candidate.Field{candidate.FieldFullName}
	seen := map[candidate.Field]struct{}{candidate.FieldFullName: {}}

	for _, name := range c.RequiredFields {
		f, err := candidate.ParseField(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		order = append(order, f)
	}

	return order, nil
}

func (c Config) normalizedExitKeywords() []string {
	out := make([]string, 0, len(c.ExitKeywords))
	for _, kw := range c.ExitKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
