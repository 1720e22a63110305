package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spigell/talentscout/internal/ai"
	"github.com/spigell/talentscout/internal/conversation"
	"github.com/spigell/talentscout/internal/knowledge"
	"github.com/spigell/talentscout/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "talentscout"
	envPrefix = "TALENTSCOUT"
)

type Config struct {
	Interview    conversation.Config  `mapstructure:"interview"`
	Knowledge    KnowledgeConfig      `mapstructure:"knowledge"`
	Taxonomy     []knowledge.Category `mapstructure:"taxonomy"`
	PatternsFile string               `mapstructure:"patterns-file"`
	LogOutput    string               `mapstructure:"log-output"`
	AI           *AIConfig            `mapstructure:"ai"`
}

type KnowledgeConfig struct {
	DataDir string `mapstructure:"data-dir"`
}

type AIConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Provider string `mapstructure:"provider"`

	ai.GuardConfig `mapstructure:",squash"`

	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talentscout is a screening assistant that interviews tech candidates in the terminal",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talentscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

// setDefaults registers every key, so that environment variables can override
// values that are absent from the config file.
func setDefaults(v *viper.Viper) {
	interview := conversation.DefaultConfig()
	v.SetDefault("interview.max-questions-per-technology", interview.MaxQuestionsPerTechnology)
	v.SetDefault("interview.max-technologies", interview.MaxTechnologies)
	v.SetDefault("interview.max-total-questions", interview.MaxTotalQuestions)
	v.SetDefault("interview.industry-questions-per-technology", interview.IndustryQuestionsPerTechnology)
	v.SetDefault("interview.exit-keywords", interview.ExitKeywords)
	v.SetDefault("interview.required-fields", interview.RequiredFields)
	v.SetDefault("interview.extraction-confidence", interview.ExtractionConfidence)
	v.SetDefault("interview.seed", interview.Seed)

	v.SetDefault("knowledge.data-dir", "")
	v.SetDefault("patterns-file", "")
	v.SetDefault("log-output", logger.DefaultOutput)

	guard := ai.DefaultGuardConfig()
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.timeout", guard.Timeout)
	v.SetDefault("ai.requests-per-minute", guard.RequestsPerMinute)
	v.SetDefault("ai.burst", guard.Burst)
	v.SetDefault("ai.circuit-breaker.enabled", guard.CircuitBreaker.Enabled)
	v.SetDefault("ai.circuit-breaker.max-requests", guard.CircuitBreaker.MaxRequests)
	v.SetDefault("ai.circuit-breaker.interval", guard.CircuitBreaker.Interval)
	v.SetDefault("ai.circuit-breaker.timeout", guard.CircuitBreaker.Timeout)
	v.SetDefault("ai.circuit-breaker.min-requests", guard.CircuitBreaker.MinRequests)
	v.SetDefault("ai.circuit-breaker.failure-threshold", guard.CircuitBreaker.FailureThreshold)
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 500)
}

func initConfig() {
	// A .env file is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without an explicit --config the defaults are enough.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := config.Interview.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
