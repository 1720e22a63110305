package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script>",
	Short: "Run an interview from a file with one candidate message per line",
	Long: `Run an interview from a file with one candidate message per line.
Blank lines and lines starting with # are skipped. Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		replay(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)

	addSessionFlags(replayCmd)
}

// scriptSource replays prepared candidate messages and echoes them.
type scriptSource struct {
	lines []string
	out   io.Writer
}

func (s *scriptSource) Next() (string, error) {
	if len(s.lines) == 0 {
		return "", errEndOfInput
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	fmt.Fprintf(s.out, "You: %s\n", line)
	return line, nil
}

func readScript(r io.Reader) ([]string, error) {
	lines := make([]string, 0)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	return lines, nil
}

func openScript(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func replay(cmd *cobra.Command, path string) {
	ctx := context.Background()

	logger, session, m := startSession(ctx, cmd)

	file, err := openScript(path)
	if err != nil {
		logger.Fatal("opening script", zap.Error(err))
	}
	defer file.Close()

	lines, err := readScript(file)
	if err != nil {
		logger.Fatal("reading script", zap.Error(err))
	}

	ex := &exchange{
		out:        cmd.OutOrStdout(),
		exportPath: flagString(cmd, "export"),
		logger:     logger,
	}

	ex.say(session.Greeting())

	err = converse(ctx, session, &scriptSource{lines: lines, out: ex.out}, ex)
	switch {
	case errors.Is(err, errEndOfInput):
		logger.Info("script finished", zap.String("state", session.State().String()))
	case err != nil:
		logger.Error("replaying script", zap.Error(err))
	}

	finish(session, m, ex.exportPath, flagString(cmd, "metrics-file"), logger)
}
