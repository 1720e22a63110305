package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spigell/talentscout/internal/ai"
	"github.com/spigell/talentscout/internal/ai/gemini"
	"github.com/spigell/talentscout/internal/conversation"
	"github.com/spigell/talentscout/internal/knowledge"
	"github.com/spigell/talentscout/internal/metrics"
	"github.com/spigell/talentscout/internal/patterns"
	"github.com/spigell/talentscout/internal/secrets"

	"go.uber.org/zap"
)

// Environment variables consulted for the Gemini key when the config has none.
var geminiKeyEnv = []string{"TALENTSCOUT_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}

// prepareDeps builds the collaborators shared by every session. Only the
// knowledge base is mandatory: a broken matcher or enhancer setup is logged and
// the interview runs without it.
func prepareDeps(ctx context.Context, config *Config, m *metrics.Metrics, logger *zap.Logger) (conversation.Deps, error) {
	kb, err := loadKnowledge(config)
	if err != nil {
		return conversation.Deps{}, err
	}

	deps := conversation.Deps{
		Knowledge: kb,
		Recorder:  m,
		Logger:    logger,
	}

	matcher, err := loadMatcher(config.PatternsFile)
	if err != nil {
		logger.Warn("running without pattern matcher", zap.Error(err))
	} else {
		deps.Matcher = matcher
	}

	enhancer, err := newAIEnhancer(ctx, config.AI, logger)
	switch {
	case err != nil:
		logger.Warn("skipping AI enhancement", zap.Error(err))
	case enhancer != nil:
		deps.Polisher = ai.NewGuard(enhancer, config.AI.GuardConfig, logger, m)
	}

	return deps, nil
}

func loadKnowledge(config *Config) (*knowledge.Base, error) {
	kb, err := knowledge.LoadDir(config.Knowledge.DataDir)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}

	if len(config.Taxonomy) > 0 {
		tax := knowledge.Taxonomy{Categories: config.Taxonomy}
		if err := tax.Validate(); err != nil {
			return nil, fmt.Errorf("taxonomy override: %w", err)
		}
		kb.Taxonomy = tax
	}

	return kb, nil
}

func loadMatcher(path string) (*patterns.Matcher, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return patterns.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading patterns file: %w", err)
	}
	return patterns.Load(data)
}

// newAIEnhancer returns nil without error when AI is disabled.
func newAIEnhancer(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Enhancer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   geminiKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewEnhancer(generator, logger, cfg.Gemini.MaxLogLength), nil
}
