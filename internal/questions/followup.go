package questions

import (
	"strings"

	"github.com/spigell/talentscout/internal/candidate"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SkillLevel is a rough reading of how deep an answer went.
type SkillLevel string

const (
	Beginner     SkillLevel = "beginner"
	Intermediate SkillLevel = "intermediate"
	Advanced     SkillLevel = "advanced"

	systemDesignTopic = "system_design"
)

var technicalKeywords = []string{
	"architecture", "performance", "optimization", "scalability", "design pattern",
	"algorithm", "complexity", "memory", "concurrency", "async", "threading",
	"microservices", "monolith", "database", "indexing", "caching", "security",
	"authentication", "authorization", "encryption", "testing", "deployment",
	"ci/cd", "docker", "kubernetes", "cloud", "monitoring", "logging",
}

var experienceKeywords = []string{
	"production", "project", "team", "built", "implemented", "designed",
	"optimized", "scaled", "deployed", "maintained", "refactored",
	"migrated", "integrated", "collaborated", "led", "mentored",
}

// Analysis is derived from a single technical answer.
type Analysis struct {
	SkillLevel        SkillLevel `json:"skill_level"`
	TechnicalSignals  int        `json:"technical_signals"`
	ExperienceSignals int        `json:"experience_signals"`
	WordCount         int        `json:"word_count"`
}

// Analyze counts technical and hands-on experience keywords in answer and
// derives a skill level from them and the answer length.
func Analyze(answer string) Analysis {
	lower := strings.ToLower(answer)
	a := Analysis{
		WordCount:         len(strings.Fields(answer)),
		TechnicalSignals:  countKeywords(lower, technicalKeywords),
		ExperienceSignals: countKeywords(lower, experienceKeywords),
	}

	switch {
	case a.WordCount > 50 && (a.TechnicalSignals >= 3 || a.ExperienceSignals >= 2):
		a.SkillLevel = Advanced
	case a.WordCount > 25 && (a.TechnicalSignals >= 1 || a.ExperienceSignals >= 1):
		a.SkillLevel = Intermediate
	default:
		a.SkillLevel = Beginner
	}

	return a
}

func countKeywords(lower string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			n++
		}
	}
	return n
}

func containsAny(lower string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// FollowUp is a deeper question chosen for the detected skill level.
type FollowUp struct {
	Topic      string
	Question   string
	Difficulty SkillLevel
}

// Advanced picks a follow-up question rotating over the topics the stack
// touches. System design is added for intermediate and advanced candidates.
// The ordinal selects both the topic and the question, so consecutive answers
// get different questions.
func (g *Generator) Advanced(level SkillLevel, stack candidate.TechStack, ordinal int) (FollowUp, bool) {
	topics := make([]string, 0)
	seen := make(map[string]struct{})
	for _, tech := range stack.Technologies() {
		topic, ok := g.bank.Topics[strings.ToLower(tech)]
		if !ok {
			continue
		}
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}

	if level == Intermediate || level == Advanced {
		if _, ok := seen[systemDesignTopic]; !ok {
			topics = append(topics, systemDesignTopic)
		}
	}

	if len(topics) == 0 || ordinal < 0 {
		return FollowUp{}, false
	}

	difficulty := Intermediate
	if level == Advanced {
		difficulty = Advanced
	}

	topic := topics[ordinal%len(topics)]
	list := g.bank.Advanced[topic][string(difficulty)]
	if len(list) == 0 {
		return FollowUp{}, false
	}

	return FollowUp{
		Topic:      cases.Title(language.English).String(strings.ReplaceAll(topic, "_", " ")),
		Question:   list[ordinal%len(list)],
		Difficulty: difficulty,
	}, true
}

// Behavioral picks a follow-up based on what the answer talked about and on
// the candidate's seniority.
func (g *Generator) Behavioral(answer string, experienceYears int) string {
	lower := strings.ToLower(answer)
	b := g.bank.Behavioral

	pool := make([]string, 0)
	if containsAny(lower, "project", "built", "developed", "created", "worked on") {
		pool = append(pool, b.Project...)
	}
	if containsAny(lower, "problem", "issue", "challenge", "bug", "error") {
		pool = append(pool, b.Problem...)
	}
	if containsAny(lower, "architecture", "design", "structure", "pattern") {
		pool = append(pool, b.Architecture...)
	}

	switch {
	case experienceYears >= 5:
		pool = append(pool, b.Senior...)
	case experienceYears >= 2:
		pool = append(pool, b.Mid...)
	default:
		pool = append(pool, b.Junior...)
	}

	if len(pool) == 0 {
		return ""
	}

	return pool[g.rng.IntN(len(pool))]
}
