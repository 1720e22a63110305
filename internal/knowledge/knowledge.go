// Package knowledge loads the static, read-only tables the interview relies on:
// the technology taxonomy, the question bank, technology insights and
// industry profiles.
package knowledge

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

const (
	TechnologiesFile = "technologies.yaml"
	QuestionsFile    = "questions.yaml"
	InsightsFile     = "insights.yaml"
	IndustriesFile   = "industries.yaml"

	// InsightUnavailable is returned by Describe when no insight is known.
	InsightUnavailable = "insight unavailable"
	// GeneralIndustry is returned by DetectIndustry when no industry matched.
	GeneralIndustry = "general"
)

//go:embed data/*.yaml
var embedded embed.FS

// Category is one named bucket of the technology taxonomy.
type Category struct {
	Name         string   `yaml:"name" mapstructure:"name" json:"name"`
	Technologies []string `yaml:"technologies" mapstructure:"technologies" json:"technologies"`
}

// Taxonomy is the ordered list of technology categories.
type Taxonomy struct {
	Categories []Category `yaml:"categories"`
}

// Names returns the category names in taxonomy order.
func (t Taxonomy) Names() []string {
	names := make([]string, 0, len(t.Categories))
	for _, c := range t.Categories {
		names = append(names, c.Name)
	}
	return names
}

// Validate reports an empty taxonomy, unnamed or duplicated categories.
func (t Taxonomy) Validate() error {
	if len(t.Categories) == 0 {
		return errors.New("taxonomy has no categories")
	}

	seen := make(map[string]struct{}, len(t.Categories))
	for i, c := range t.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("taxonomy category #%d has no name", i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("taxonomy category %q is duplicated", name)
		}
		seen[name] = struct{}{}
	}

	return nil
}

// Behavioral holds follow-up questions keyed by what the candidate talked about
// or by their seniority.
type Behavioral struct {
	Project      []string `yaml:"project"`
	Problem      []string `yaml:"problem"`
	Architecture []string `yaml:"architecture"`
	Senior       []string `yaml:"senior"`
	Mid          []string `yaml:"mid"`
	Junior       []string `yaml:"junior"`
}

// QuestionBank is the static source of interview questions.
type QuestionBank struct {
	Technologies map[string][]string `yaml:"technologies"`
	Fallback     map[string][]string `yaml:"fallback"`
	// Advanced maps topic -> difficulty -> questions.
	Advanced   map[string]map[string][]string `yaml:"advanced"`
	Topics     map[string]string              `yaml:"topics"`
	Behavioral Behavioral                     `yaml:"behavioral"`
}

// Insight is a short market profile of a technology.
type Insight struct {
	Description     string   `yaml:"description" json:"description"`
	KeyConcepts     []string `yaml:"key_concepts" json:"key_concepts"`
	DifficultyLevel string   `yaml:"difficulty_level" json:"difficulty_level"`
	MarketDemand    string   `yaml:"market_demand" json:"market_demand"`
	SalaryRange     string   `yaml:"salary_range" json:"salary_range"`
}

// Industry is a business domain with its own flavour of technical questions.
type Industry struct {
	Name     string   `yaml:"name"`
	Title    string   `yaml:"title"`
	Keywords []string `yaml:"keywords"`
	// Questions maps lowercased technology -> questions.
	Questions map[string][]string `yaml:"questions"`
}

// Base bundles every static table.
type Base struct {
	Taxonomy   Taxonomy
	Questions  QuestionBank
	Insights   map[string]Insight
	Industries []Industry
}

// Default loads the tables shipped with the binary.
func Default() (*Base, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("opening embedded knowledge data: %w", err)
	}
	return Load(sub)
}

// LoadDir loads the tables from a directory on disk. An empty dir falls back to
// the embedded tables.
func LoadDir(dir string) (*Base, error) {
	if strings.TrimSpace(dir) == "" {
		return Default()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("knowledge path %q is not a directory", dir)
	}

	return Load(os.DirFS(dir))
}

// Load reads the tables from fsys. A missing or malformed file is an error,
// except for the industries table which is optional.
func Load(fsys fs.FS) (*Base, error) {
	base := &Base{}

	if err := decode(fsys, TechnologiesFile, &base.Taxonomy); err != nil {
		return nil, err
	}
	if err := base.Taxonomy.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", TechnologiesFile, err)
	}

	if err := decode(fsys, QuestionsFile, &base.Questions); err != nil {
		return nil, err
	}
	if len(base.Questions.Technologies) == 0 {
		return nil, fmt.Errorf("%s: no technology questions defined", QuestionsFile)
	}

	if err := decode(fsys, InsightsFile, &base.Insights); err != nil {
		return nil, err
	}

	if err := decode(fsys, IndustriesFile, &base.Industries); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	for i, ind := range base.Industries {
		if strings.TrimSpace(ind.Name) == "" {
			return nil, fmt.Errorf("%s: industry #%d has no name", IndustriesFile, i)
		}
	}

	return base, nil
}

func decode(fsys fs.FS, name string, out any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}

	return nil
}

// Lookup returns the insight for a technology, matched case-insensitively.
func (b *Base) Lookup(name string) (Insight, bool) {
	if b == nil {
		return Insight{}, false
	}

	insight, ok := b.Insights[strings.ToLower(strings.TrimSpace(name))]
	return insight, ok
}

// Describe renders a one-line insight, or InsightUnavailable.
func (b *Base) Describe(name string) string {
	insight, ok := b.Lookup(name)
	if !ok {
		return InsightUnavailable
	}

	return fmt.Sprintf("%s (market demand: %s, difficulty: %s)",
		insight.Description, insight.MarketDemand, insight.DifficultyLevel)
}

// DetectIndustry scores every industry by how many of its keywords start a word
// in texts and returns the best one. Ties go to the industry listed first.
// GeneralIndustry and false are returned when nothing matched.
func (b *Base) DetectIndustry(texts ...string) (string, bool) {
	if b == nil {
		return GeneralIndustry, false
	}

	words := strings.FieldsFunc(strings.ToLower(strings.Join(texts, " ")), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	best, bestScore := GeneralIndustry, 0
	for _, ind := range b.Industries {
		score := 0
		for _, kw := range ind.Keywords {
			kw = strings.ToLower(kw)
			for _, w := range words {
				if strings.HasPrefix(w, kw) {
					score++
					break
				}
			}
		}
		if score > bestScore {
			best, bestScore = ind.Name, score
		}
	}

	return best, bestScore > 0
}

// Industry returns the profile with the given name.
func (b *Base) Industry(name string) (Industry, bool) {
	if b == nil {
		return Industry{}, false
	}

	name = strings.ToLower(strings.TrimSpace(name))
	for _, ind := range b.Industries {
		if ind.Name == name {
			return ind, true
		}
	}
	return Industry{}, false
}

// IndustryQuestions returns the questions an industry has for a technology.
// GeneralIndustry and unknown industries have none.
func (b *Base) IndustryQuestions(industry, technology string) []string {
	ind, ok := b.Industry(industry)
	if !ok {
		return nil
	}
	return ind.Questions[strings.ToLower(strings.TrimSpace(technology))]
}
