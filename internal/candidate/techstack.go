package candidate

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/spigell/talentscout/internal/knowledge"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is one non-empty bucket of a parsed tech stack.
type Category struct {
	Name         string
	Technologies []string
}

// TechStack is an ordered list of categories. It marshals to a JSON object
// whose keys keep the taxonomy order.
type TechStack []Category

// Empty reports whether no technology is present.
func (s TechStack) Empty() bool {
	for _, c := range s {
		if len(c.Technologies) > 0 {
			return false
		}
	}
	return true
}

// Get returns the technologies of a category.
func (s TechStack) Get(category string) []string {
	for _, c := range s {
		if c.Name == category {
			return c.Technologies
		}
	}
	return nil
}

// Technologies returns all technologies in order.
func (s TechStack) Technologies() []string {
	all := make([]string, 0)
	for _, c := range s {
		all = append(all, c.Technologies...)
	}
	return all
}

// Lower returns the set of lower-cased technology names.
func (s TechStack) Lower() map[string]struct{} {
	set := make(map[string]struct{})
	for _, c := range s {
		for _, t := range c.Technologies {
			set[strings.ToLower(t)] = struct{}{}
		}
	}
	return set
}

// NonEmptyCategories counts categories holding at least one technology.
func (s TechStack) NonEmptyCategories() int {
	n := 0
	for _, c := range s {
		if len(c.Technologies) > 0 {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (s TechStack) Clone() TechStack {
	if s == nil {
		return nil
	}
	c := make(TechStack, 0, len(s))
	for _, cat := range s {
		c = append(c, Category{Name: cat.Name, Technologies: append([]string(nil), cat.Technologies...)})
	}
	return c
}

// String renders the stack as a comma separated list.
func (s TechStack) String() string {
	return strings.Join(s.Technologies(), ", ")
}

// Describe renders one line per category, e.g. "Languages: Python, Go".
func (s TechStack) Describe() string {
	lines := make([]string, 0, len(s))
	caser := cases.Title(language.English)
	for _, c := range s {
		if len(c.Technologies) == 0 {
			continue
		}
		label := caser.String(strings.ReplaceAll(c.Name, "_", " "))
		lines = append(lines, label+": "+strings.Join(c.Technologies, ", "))
	}
	return strings.Join(lines, "\n")
}

func (s TechStack) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		techs := c.Technologies
		if techs == nil {
			techs = []string{}
		}
		value, err := json.Marshal(techs)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type entry struct {
	name     string
	category string
	pattern  *regexp.Regexp
}

// Parser extracts technologies from free text using a fixed taxonomy.
type Parser struct {
	entries []entry
	order   []string
}

// NewParser builds a parser for tax. A technology listed under several
// categories is assigned to the first one.
func NewParser(tax knowledge.Taxonomy) *Parser {
	p := &Parser{order: tax.Names()}
	seen := make(map[string]struct{})

	for _, c := range tax.Categories {
		for _, tech := range c.Technologies {
			name := strings.ToLower(strings.TrimSpace(tech))
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}

			p.entries = append(p.entries, entry{
				name:     name,
				category: c.Name,
				pattern:  regexp.MustCompile(`(?:^|[^a-z0-9+#.])(` + regexp.QuoteMeta(name) + `)(?:$|[^a-z0-9+#])`),
			})
		}
	}

	// Longest first so "javascript" wins over "java" and "react native" over "react".
	sort.SliceStable(p.entries, func(i, j int) bool {
		return len(p.entries[i].name) > len(p.entries[j].name)
	})

	return p
}

// Categories returns the taxonomy order used by the parser.
func (p *Parser) Categories() []string {
	return append([]string(nil), p.order...)
}

// Category returns the category a technology belongs to.
func (p *Parser) Category(tech string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(tech))
	for _, e := range p.entries {
		if e.name == name {
			return e.category, true
		}
	}
	return "", false
}

type hit struct {
	pos      int
	name     string
	category string
}

// Parse returns the recognized technologies grouped by category. Technologies
// keep the order in which they first appear in text; only non-empty categories
// are returned.
func (p *Parser) Parse(text string) TechStack {
	masked := []byte(strings.ToLower(text))
	hits := make([]hit, 0)

	for _, e := range p.entries {
		for _, m := range e.pattern.FindAllSubmatchIndex(masked, -1) {
			start, end := m[2], m[3]
			hits = append(hits, hit{pos: start, name: e.name, category: e.category})
			// Blank the span so shorter entries cannot match inside it.
			for i := start; i < end; i++ {
				masked[i] = ' '
			}
		}
	}

	if len(hits) == 0 {
		return nil
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	caser := cases.Title(language.English)
	byCategory := make(map[string][]string)
	seen := make(map[string]struct{})
	for _, h := range hits {
		if _, ok := seen[h.name]; ok {
			continue
		}
		seen[h.name] = struct{}{}
		byCategory[h.category] = append(byCategory[h.category], caser.String(h.name))
	}

	stack := make(TechStack, 0, len(byCategory))
	for _, name := range p.order {
		if techs := byCategory[name]; len(techs) > 0 {
			stack = append(stack, Category{Name: name, Technologies: techs})
		}
	}

	return stack
}
