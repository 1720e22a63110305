// Package questions picks interview questions for a candidate's tech stack.
package questions

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/knowledge"
)

const (
	// JuniorExperienceYears is the boundary below which the junior fallback
	// list is used.
	JuniorExperienceYears = 3
	// FallbackKey is the question set key used when no technology matched.
	FallbackKey = "General"

	DefaultMaxTechnologies = 5

	fallbackGeneral = "general"
	fallbackJunior  = "junior"
)

// categoryPriority orders categories for question selection. Unlisted
// categories come last.
var categoryPriority = map[string]int{
	"languages":       1,
	"frameworks":      2,
	"databases":       3,
	"devops_tools":    4,
	"web_servers":     5,
	"cloud_platforms": 6,
}

const otherPriority = 7

// Entry is the list of questions for one technology.
type Entry struct {
	Technology string   `json:"technology"`
	Questions  []string `json:"questions"`
}

// Set is an ordered technology -> questions mapping.
type Set []Entry

// Keys returns the technologies in order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for _, e := range s {
		keys = append(keys, e.Technology)
	}
	return keys
}

// Get returns the questions for a technology.
func (s Set) Get(technology string) []string {
	for _, e := range s {
		if e.Technology == technology {
			return e.Questions
		}
	}
	return nil
}

// Item is one question together with its technology.
type Item struct {
	Technology string
	Question   string
}

// Flatten lists all questions in asking order.
func (s Set) Flatten() []Item {
	items := make([]Item, 0)
	for _, e := range s {
		for _, q := range e.Questions {
			items = append(items, Item{Technology: e.Technology, Question: q})
		}
	}
	return items
}

// Len is the total number of questions.
func (s Set) Len() int {
	n := 0
	for _, e := range s {
		n += len(e.Questions)
	}
	return n
}

func (s Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Technology)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Questions)
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

// Generator draws questions from a bank. It is not safe for concurrent use
// because it owns a random source.
type Generator struct {
	bank            knowledge.QuestionBank
	maxTechnologies int
	rng             *rand.Rand
}

// New creates a Generator. A nil rng gets a randomly seeded source.
func New(bank knowledge.QuestionBank, maxTechnologies int, rng *rand.Rand) *Generator {
	if maxTechnologies <= 0 {
		maxTechnologies = DefaultMaxTechnologies
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Generator{bank: bank, maxTechnologies: maxTechnologies, rng: rng}
}

type candidateTech struct {
	priority int
	name     string
}

// Generate returns up to maxPerTechnology randomly chosen questions for each
// known technology in stack, for at most maxTechnologies technologies.
// When nothing in the stack is known a generic list picked by experience is
// returned under FallbackKey.
func (g *Generator) Generate(stack candidate.TechStack, maxPerTechnology, experienceYears int) Set {
	if maxPerTechnology <= 0 {
		maxPerTechnology = 1
	}

	set := make(Set, 0)
	for _, tech := range prioritized(stack) {
		if len(set) >= g.maxTechnologies {
			break
		}

		available := g.bank.Technologies[strings.ToLower(tech.name)]
		if len(available) == 0 {
			continue
		}

		set = append(set, Entry{Technology: tech.name, Questions: g.sample(available, maxPerTechnology)})
	}

	if len(set) > 0 {
		return set
	}

	bucket := fallbackGeneral
	if experienceYears < JuniorExperienceYears {
		bucket = fallbackJunior
	}

	fallback := g.bank.Fallback[bucket]
	if len(fallback) == 0 {
		fallback = g.bank.Fallback[fallbackGeneral]
	}
	if len(fallback) == 0 {
		return set
	}

	return Set{{Technology: FallbackKey, Questions: g.sample(fallback, maxPerTechnology)}}
}

// prioritized flattens stack, ordered by category priority.
func prioritized(stack candidate.TechStack) []candidateTech {
	ordered := make([]candidateTech, 0)
	for _, c := range stack {
		priority, ok := categoryPriority[c.Name]
		if !ok {
			priority = otherPriority
		}
		for _, tech := range c.Technologies {
			ordered = append(ordered, candidateTech{priority: priority, name: tech})
		}
	}

	// Stable keeps the candidate's order inside a priority.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].priority < ordered[j].priority
	})
	return ordered
}

func (g *Generator) sample(available []string, n int) []string {
	if n > len(available) {
		n = len(available)
	}

	picked := make([]string, 0, n)
	for _, idx := range g.rng.Perm(len(available))[:n] {
		picked = append(picked, available[idx])
	}
	return picked
}
