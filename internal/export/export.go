// Package export renders a finished interview as JSON or plain text.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/conversation"
	"github.com/spigell/talentscout/internal/questions"
	"github.com/spigell/talentscout/internal/scoring"
)

// Keys are the top-level sections of a document, in rendering order.
var Keys = []string{"exported_at", "session_id", "candidate_profile", "score_report", "question_set", "messages"}

const (
	FormatJSON = "json"
	FormatText = "text"
)

var now = time.Now

// Document is the exported record of one session. Field order matches Keys.
type Document struct {
	ExportedAt time.Time           `json:"exported_at"`
	SessionID  string              `json:"session_id"`
	Profile    *candidate.Profile  `json:"candidate_profile"`
	Score      *scoring.Report     `json:"score_report"`
	Questions  questions.Set       `json:"question_set"`
	Messages   []candidate.Message `json:"messages"`
}

// Build assembles a document. The profile is validated first, so a document
// never carries a value the interview would have rejected.
func Build(summary conversation.Summary, report *scoring.Report, messages []candidate.Message) (*Document, error) {
	if strings.TrimSpace(summary.SessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}

	profile := summary.Profile
	if profile == nil {
		profile = &candidate.Profile{}
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("exporting session %s: %w", summary.SessionID, err)
	}

	if report == nil {
		report = scoring.Score(profile, messages)
	}

	qs := summary.Questions
	if qs == nil {
		qs = questions.Set{}
	}
	msgs := append([]candidate.Message{}, messages...)

	return &Document{
		ExportedAt: now().UTC().Truncate(time.Second),
		SessionID:  summary.SessionID,
		Profile:    profile,
		Score:      report,
		Questions:  qs,
		Messages:   msgs,
	}, nil
}

// JSON renders the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return buf.Bytes(), nil
}

// Text renders one section per key, in the same order as the JSON document.
func (d *Document) Text() string {
	var b strings.Builder

	for i, key := range Keys {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "== %s ==\n", key)

		switch key {
		case "exported_at":
			b.WriteString(d.ExportedAt.Format(time.RFC3339) + "\n")
		case "session_id":
			b.WriteString(d.SessionID + "\n")
		case "candidate_profile":
			writeProfile(&b, d.Profile)
		case "score_report":
			writeReport(&b, d.Score)
		case "question_set":
			writeQuestions(&b, d.Questions)
		case "messages":
			writeMessages(&b, d.Messages)
		}
	}

	return b.String()
}

// Render returns the document in the given format.
func (d *Document) Render(format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		return d.JSON()
	case FormatText, "txt":
		return []byte(d.Text()), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// FormatFor picks the format from the file extension. Anything but .txt is JSON.
func FormatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return FormatText
	}
	return FormatJSON
}

// WriteFile renders the document in the format implied by path.
func (d *Document) WriteFile(path string) error {
	data, err := d.Render(FormatFor(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing export to %s: %w", path, err)
	}
	return nil
}

func writeProfile(b *strings.Builder, p *candidate.Profile) {
	if p.IsEmpty() {
		b.WriteString("(no data collected)\n")
		return
	}

	for _, f := range candidate.FieldOrder {
		if v := p.Value(f); v != "" {
			fmt.Fprintf(b, "%s: %s\n", f.Label(), v)
		}
	}
	if !p.TechStack.Empty() {
		b.WriteString("tech stack:\n")
		for _, line := range strings.Split(p.TechStack.Describe(), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
}

// writeReport prints every report field in JSON order, one "key: value" line
// each. Nested objects are indented by two spaces, list items get a dash.
func writeReport(b *strings.Builder, r *scoring.Report) {
	if r.Failed() {
		msg := scoring.ErrNoCandidateData
		if r != nil {
			msg = r.Error
		}
		b.WriteString(msg + "\n")
		return
	}

	data, err := json.Marshal(r)
	if err != nil {
		fmt.Fprintf(b, "(report unavailable: %v)\n", err)
		return
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if _, err = dec.Token(); err == nil {
		err = writeObject(b, dec, "")
	}
	if err != nil {
		fmt.Fprintf(b, "(report unavailable: %v)\n", err)
	}
}

// writeObject expects the opening brace to be consumed already.
func writeObject(b *strings.Builder, dec *json.Decoder, indent string) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		if tok, err = dec.Token(); err != nil {
			return err
		}

		switch tok {
		case json.Delim('{'):
			fmt.Fprintf(b, "%s%s:\n", indent, key)
			if err := writeObject(b, dec, indent+"  "); err != nil {
				return err
			}
		case json.Delim('['):
			if !dec.More() {
				fmt.Fprintf(b, "%s%s: (none)\n", indent, key)
			} else {
				fmt.Fprintf(b, "%s%s:\n", indent, key)
			}
			for dec.More() {
				item, err := dec.Token()
				if err != nil {
					return err
				}
				fmt.Fprintf(b, "%s  - %v\n", indent, item)
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
		case nil:
			fmt.Fprintf(b, "%s%s: (none)\n", indent, key)
		default:
			fmt.Fprintf(b, "%s%s: %v\n", indent, key, tok)
		}
	}

	_, err := dec.Token()
	return err
}

func writeQuestions(b *strings.Builder, qs questions.Set) {
	if qs.Len() == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, e := range qs {
		b.WriteString(e.Technology + ":\n")
		for i, q := range e.Questions {
			fmt.Fprintf(b, "  %d. %s\n", i+1, q)
		}
	}
}

func writeMessages(b *strings.Builder, msgs []candidate.Message) {
	if len(msgs) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, m := range msgs {
		fmt.Fprintf(b, "[%s] %s\n", m.Role, m.Content)
	}
}
