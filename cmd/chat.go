package cmd

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/spigell/talentscout/internal/conversation"
	"github.com/spigell/talentscout/internal/logger"
	"github.com/spigell/talentscout/internal/metrics"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive screening interview",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	addSessionFlags(chatCmd)
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("export", "o", "", "write the session to this file when it ends (.txt for text, JSON otherwise)")
	cmd.Flags().String("metrics-file", "", "write interview metrics in Prometheus text format to this file")
	cmd.Flags().Bool("no-ai", false, "disable AI enhancement even if it is configured")
}

// promptSource reads candidate messages from the terminal.
type promptSource struct {
	prompt promptui.Prompt
}

func (p *promptSource) Next() (string, error) {
	input, err := p.prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", errEndOfInput
		}
		return "", err
	}
	return input, nil
}

// chat is the interactive interview command.
func chat(cmd *cobra.Command) {
	ctx := context.Background()

	logger, session, m := startSession(ctx, cmd)
	ex := &exchange{
		out:        cmd.OutOrStdout(),
		exportPath: flagString(cmd, "export"),
		logger:     logger,
	}

	ex.say(session.Greeting())

	src := &promptSource{prompt: promptui.Prompt{Label: "You"}}
	if err := converse(ctx, session, src, ex); err != nil {
		if !errors.Is(err, errEndOfInput) {
			logger.Error("reading input", zap.Error(err))
		}
		// Closing the terminal counts as leaving the interview.
		ex.say(session.End())
	}

	finish(session, m, ex.exportPath, flagString(cmd, "metrics-file"), logger)
}

// startSession does the setup shared by chat and replay. Setup errors are
// fatal: there is no interview without a knowledge base.
func startSession(ctx context.Context, cmd *cobra.Command) (*zap.Logger, *conversation.Session, *metrics.Metrics) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), viper.GetString("log-output"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if noAI, _ := cmd.Flags().GetBool("no-ai"); noAI {
		config.AI = nil
	}

	logger.Info("starting the talentscout", zap.String("version", version))

	m := metrics.New()

	deps, err := prepareDeps(ctx, config, m, logger)
	if err != nil {
		logger.Fatal("preparing the interview", zap.Error(err))
	}

	manager, err := conversation.NewManager(config.Interview, deps)
	if err != nil {
		logger.Fatal("creating the session manager", zap.Error(err))
	}

	session, err := manager.Start()
	if err != nil {
		logger.Fatal("starting a session", zap.Error(err))
	}

	logger.Debug("session started", zap.String("session_id", session.ID()))
	logSteps(session, logger)

	return logger, session, m
}

func flagString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return strings.TrimSpace(value)
}
