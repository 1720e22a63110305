package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spigell/talentscout/internal/conversation"
	"github.com/spigell/talentscout/internal/export"
	"github.com/spigell/talentscout/internal/metrics"

	"go.uber.org/zap"
)

const (
	CommandReset   = "/reset"
	CommandSummary = "/summary"
	CommandExport  = "/export"
	CommandHelp    = "/help"

	botLabel = "TalentScout"
)

var errEndOfInput = errors.New("end of input")

// inputSource yields candidate messages. It returns errEndOfInput when there
// is nothing more to read.
type inputSource interface {
	Next() (string, error)
}

// exchange carries what a conversation loop needs besides the session.
type exchange struct {
	out        io.Writer
	exportPath string
	logger     *zap.Logger
}

func (e *exchange) say(text string) {
	fmt.Fprintf(e.out, "\n%s: %s\n\n", botLabel, text)
}

// converse feeds inputs to the session until it ends or the source runs dry.
func converse(ctx context.Context, s *conversation.Session, src inputSource, ex *exchange) error {
	for s.State() != conversation.Ended {
		input, err := src.Next()
		if err != nil {
			return err
		}

		if handled, err := handleCommand(s, input, ex); handled {
			if err != nil {
				ex.logger.Warn("command failed", zap.String("command", input), zap.Error(err))
			}
			continue
		}

		ex.say(s.Process(ctx, input))
	}
	return nil
}

func handleCommand(s *conversation.Session, input string, ex *exchange) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case CommandReset:
		ex.say(s.Reset())
		return true, nil
	case CommandSummary:
		fmt.Fprintln(ex.out, formatSummary(s.Summary()))
		return true, nil
	case CommandExport:
		path, err := exportSession(s, ex.exportPath)
		if err != nil {
			return true, err
		}
		ex.logger.Info("session exported", zap.String("filename", path))
		return true, nil
	case CommandHelp:
		fmt.Fprintf(ex.out, "%s  start over\n%s  show progress\n%s  save the session\n", CommandReset, CommandSummary, CommandExport)
		return true, nil
	default:
		return false, nil
	}
}

func formatSummary(sum conversation.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "session:  %s\n", sum.SessionID)
	fmt.Fprintf(&b, "state:    %s\n", sum.State)
	fmt.Fprintf(&b, "answered: %d/%d\n", sum.Answered, sum.MaxQuestions)

	missing := make([]string, 0, len(sum.MissingFields))
	for _, f := range sum.MissingFields {
		missing = append(missing, f.Label())
	}
	if len(missing) == 0 {
		missing = append(missing, "none")
	}
	fmt.Fprintf(&b, "missing:  %s\n", strings.Join(missing, ", "))

	if sum.Profile != nil && !sum.Profile.TechStack.Empty() {
		fmt.Fprintf(&b, "stack:    %s\n", sum.Profile.TechStack)
	}

	return b.String()
}

// exportSession writes the session to path, or to a temporary JSON file when
// path is empty, and returns the file name.
func exportSession(s *conversation.Session, path string) (string, error) {
	doc, err := export.Build(s.Summary(), s.Report(), s.Messages())
	if err != nil {
		return "", err
	}

	if path == "" {
		file, err := os.CreateTemp("", app+"_*.json")
		if err != nil {
			return "", err
		}
		path = file.Name()
		file.Close()
	}

	if err := doc.WriteFile(path); err != nil {
		return "", err
	}
	return path, nil
}

// finish writes the export and the metrics textfile when they were requested.
func finish(s *conversation.Session, m *metrics.Metrics, exportPath, metricsFile string, logger *zap.Logger) {
	if exportPath != "" {
		path, err := exportSession(s, exportPath)
		if err != nil {
			logger.Error("exporting session", zap.Error(err))
		} else {
			logger.Info("session exported", zap.String("filename", path))
		}
	}

	if metricsFile != "" {
		if err := m.WriteToTextfile(metricsFile); err != nil {
			logger.Error("writing metrics", zap.Error(err))
		} else {
			logger.Info("metrics written", zap.String("filename", metricsFile))
		}
	}
}

func logSteps(s *conversation.Session, logger *zap.Logger) {
	for _, st := range s.Steps() {
		fields := []zap.Field{zap.String("name", st.Name), zap.Bool("enabled", st.Enabled)}
		if st.Reason != "" {
			fields = append(fields, zap.String("reason", st.Reason))
		}
		logger.Debug("response step", fields...)
	}
}
