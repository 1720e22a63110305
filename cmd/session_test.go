package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spigell/talentscout/internal/conversation"
	"github.com/spigell/talentscout/internal/knowledge"
	"github.com/spigell/talentscout/internal/metrics"
	"github.com/spigell/talentscout/internal/patterns"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T, m *metrics.Metrics) *conversation.Session {
	t.Helper()

	kb, err := knowledge.Default()
	if err != nil {
		t.Fatalf("loading knowledge base: %v", err)
	}
	matcher, err := patterns.Default()
	if err != nil {
		t.Fatalf("loading patterns: %v", err)
	}

	cfg := conversation.DefaultConfig()
	cfg.Seed = 7

	s, err := conversation.New("cmd-test", cfg, conversation.Deps{
		Knowledge: kb,
		Matcher:   matcher,
		Recorder:  m,
		Logger:    zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	return s
}

func TestReadScript(t *testing.T) {
	script := "# candidate script\nAlice\n\n  alice@example.com  \n#skip\nbye\n"

	lines, err := readScript(strings.NewReader(script))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Alice", "alice@example.com", "bye"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %v, got %v", want, lines)
	}
}

func TestConverseStopsWhenSessionEnds(t *testing.T) {
	var out bytes.Buffer
	s := newTestSession(t, nil)

	src := &scriptSource{lines: []string{"Alice", "alice@example.com", "bye", "never read"}, out: &out}
	ex := &exchange{out: &out, logger: zap.NewNop()}

	if err := converse(context.Background(), s, src, ex); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.State() != conversation.Ended {
		t.Fatalf("expected ended session, got %s", s.State())
	}
	if len(src.lines) != 1 {
		t.Fatalf("expected the last line to stay unread, left %v", src.lines)
	}
	if !strings.Contains(out.String(), "You: alice@example.com") || !strings.Contains(out.String(), botLabel+": ") {
		t.Fatalf("unexpected transcript:\n%s", out.String())
	}
}

func TestConverseReportsEndOfInput(t *testing.T) {
	var out bytes.Buffer
	s := newTestSession(t, nil)

	err := converse(context.Background(), s, &scriptSource{lines: []string{"Alice"}, out: &out}, &exchange{out: &out, logger: zap.NewNop()})
	if !errors.Is(err, errEndOfInput) {
		t.Fatalf("expected end of input, got %v", err)
	}
	if s.State() != conversation.CollectingInfo {
		t.Fatalf("unexpected state %s", s.State())
	}
}

func TestCommands(t *testing.T) {
	var out bytes.Buffer
	s := newTestSession(t, nil)
	exportPath := filepath.Join(t.TempDir(), "session.json")
	ex := &exchange{out: &out, exportPath: exportPath, logger: zap.NewNop()}

	lines := []string{"Alice", CommandSummary, CommandExport, CommandReset, CommandHelp}
	err := converse(context.Background(), s, &scriptSource{lines: lines, out: &out}, ex)
	if !errors.Is(err, errEndOfInput) {
		t.Fatalf("expected end of input, got %v", err)
	}

	if !strings.Contains(out.String(), "missing:  email, phone, experience years, desired position, location") {
		t.Fatalf("expected summary in output:\n%s", out.String())
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid export: %v", err)
	}
	if doc["session_id"] != "cmd-test" {
		t.Fatalf("unexpected export %v", doc)
	}

	if s.State() != conversation.Greeting {
		t.Fatalf("expected reset to the greeting, got %s", s.State())
	}
	if !strings.Contains(out.String(), CommandExport+"  save the session") {
		t.Fatalf("expected help output:\n%s", out.String())
	}
}

func TestFinishWritesMetricsAndExport(t *testing.T) {
	dir := t.TempDir()
	m := metrics.New()
	s := newTestSession(t, m)
	s.Process(context.Background(), "Alice")

	exportPath := filepath.Join(dir, "session.txt")
	metricsPath := filepath.Join(dir, "talentscout.prom")

	finish(s, m, exportPath, metricsPath, zap.NewNop())

	text, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.HasPrefix(string(text), "== exported_at ==") {
		t.Fatalf("expected text export, got:\n%s", text)
	}

	prom, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	if !strings.Contains(string(prom), `talentscout_sessions_total{event="started"} 1`) {
		t.Fatalf("unexpected metrics:\n%s", prom)
	}
}
