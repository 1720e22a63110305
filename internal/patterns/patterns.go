// Package patterns is a keyword and regex based matcher that produces canned
// replies and pulls loosely phrased candidate details out of free text.
package patterns

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	IntentGeneral = "general"

	// FallbackConfidence is reported when no rule matched.
	FallbackConfidence = 0.2
	// ExtractionConfidence is the floor reported when at least one detail
	// was extracted from the text.
	ExtractionConfidence = 0.8

	namePlaceholder = "{name}"
	defaultName     = "there"
)

//go:embed data/patterns.yaml
var embedded embed.FS

// Rule is a canned reply triggered by a regex.
type Rule struct {
	Name     string `yaml:"name"`
	Topic    string `yaml:"topic"`
	Pattern  string `yaml:"pattern"`
	Response string `yaml:"response"`

	re *regexp.Regexp
}

// IntentRule tags the text with a coarse intent.
type IntentRule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`

	re *regexp.Regexp
}

type document struct {
	Rules    []Rule            `yaml:"rules"`
	Fallback string            `yaml:"fallback"`
	Intents  []IntentRule      `yaml:"intents"`
	Aliases  map[string]string `yaml:"aliases"`
}

type alias struct {
	from string
	to   string
	re   *regexp.Regexp
}

// Result is the outcome of a single Extract call.
type Result struct {
	Response string
	// Rule is the name of the rule that produced Response, empty for the fallback.
	Rule  string
	Topic string
	// Context holds extracted details keyed by field name. Use Decode to
	// turn it into an Extraction.
	Context    map[string]any
	Confidence float64
	Intent     string
}

// Matched reports whether a rule produced the response.
func (r Result) Matched() bool {
	return r.Rule != ""
}

// Personalize fills the name placeholder of the response.
func (r Result) Personalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultName
	}
	return strings.ReplaceAll(r.Response, namePlaceholder, name)
}

// Matcher is safe for concurrent use once built.
type Matcher struct {
	rules    []Rule
	fallback string
	intents  []IntentRule
	aliases  []alias
}

// Default builds the matcher from the rules shipped with the binary.
func Default() (*Matcher, error) {
	data, err := embedded.ReadFile("data/patterns.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded patterns: %w", err)
	}
	return Load(data)
}

// Load builds a matcher from a YAML document.
func Load(data []byte) (*Matcher, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing patterns: %w", err)
	}

	if strings.TrimSpace(doc.Fallback) == "" {
		return nil, fmt.Errorf("patterns: fallback response is required")
	}

	m := &Matcher{fallback: doc.Fallback}

	for _, rule := range doc.Rules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling rule %q: %w", rule.Name, err)
		}
		rule.re = re
		m.rules = append(m.rules, rule)
	}

	for _, intent := range doc.Intents {
		re, err := regexp.Compile("(?i)" + intent.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling intent %q: %w", intent.Name, err)
		}
		intent.re = re
		m.intents = append(m.intents, intent)
	}

	for from, to := range doc.Aliases {
		from = strings.ToLower(strings.TrimSpace(from))
		re, err := regexp.Compile(`(?:^|[^a-z0-9+#.])(` + regexp.QuoteMeta(from) + `)(?:$|[^a-z0-9+#])`)
		if err != nil {
			return nil, fmt.Errorf("compiling alias %q: %w", from, err)
		}
		m.aliases = append(m.aliases, alias{from: from, to: strings.ToLower(strings.TrimSpace(to)), re: re})
	}
	// Map iteration order is random; keep alias resolution stable.
	sort.Slice(m.aliases, func(i, j int) bool { return m.aliases[i].from < m.aliases[j].from })

	return m, nil
}

// Extract runs every rule over text. It never fails: unmatched text gets the
// fallback response with FallbackConfidence.
func (m *Matcher) Extract(text string) Result {
	result := Result{
		Response:   m.fallback,
		Confidence: FallbackConfidence,
		Intent:     m.Intent(text),
		Context:    m.extractContext(text),
	}

	for _, rule := range m.rules {
		if !rule.re.MatchString(text) {
			continue
		}
		result.Response = rule.Response
		result.Rule = rule.Name
		result.Topic = rule.Topic
		result.Confidence = responseConfidence(rule.Response)
		break
	}

	if len(result.Context) > 0 && result.Confidence < ExtractionConfidence {
		result.Confidence = ExtractionConfidence
	}

	return result
}

// Respond returns only the reply text.
func (m *Matcher) Respond(text string) string {
	return m.Extract(text).Response
}

// Intent returns the first matching intent, or IntentGeneral.
func (m *Matcher) Intent(text string) string {
	for _, intent := range m.intents {
		if intent.re.MatchString(text) {
			return intent.Name
		}
	}
	return IntentGeneral
}

// Fallback is the reply used when nothing matched.
func (m *Matcher) Fallback() string {
	return m.fallback
}

// Longer, more specific replies are trusted more.
func responseConfidence(response string) float64 {
	switch n := len(response); {
	case n > 50:
		return 0.9
	case n > 20:
		return 0.7
	default:
		return 0.5
	}
}
