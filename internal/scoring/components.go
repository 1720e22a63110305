package scoring

import (
	"math"
	"strings"

	"github.com/spigell/talentscout/internal/candidate"
)

const (
	tierOnePoints   = 10
	tierTwoPoints   = 7
	tierThreePoints = 5

	modernStackBonus   = 5
	modernStackMinimum = 3
	fullStackBonus     = 3

	communicationMinMessages = 4
)

// Tiers are assigned by technology name, whatever category it was parsed into.
var tiers = map[string]int{
	// tier 1
	"python": 1, "javascript": 1, "typescript": 1, "go": 1, "rust": 1,
	"react": 1, "vue": 1, "django": 1, "fastapi": 1, "spring": 1,
	"postgresql": 1, "mongodb": 1, "redis": 1,
	"docker": 1, "kubernetes": 1, "aws": 1, "terraform": 1,
	// tier 2
	"java": 2, "c#": 2, "php": 2, "ruby": 2,
	"angular": 2, "flask": 2, "laravel": 2, "rails": 2,
	"mysql": 2, "sqlite": 2,
	"git": 2, "jenkins": 2, "azure": 2, "nginx": 2,
	// tier 3
	"c++": 3, "scala": 3, "kotlin": 3,
	"asp.net": 3,
	"oracle": 3, "cassandra": 3,
	"ansible": 3,
}

var (
	frontendTechs = []string{"react", "vue", "angular", "javascript", "typescript"}
	backendTechs  = []string{"python", "java", "django", "spring", "fastapi"}

	professionalKeywords = []string{"experience", "project", "worked", "developed", "implemented"}
	technicalKeywords    = []string{"algorithm", "architecture", "performance", "optimization", "design"}
)

// TechStackScore returns the breadth and depth sub-scores.
func TechStackScore(stack candidate.TechStack) (float64, float64, TechAnalysis) {
	analysis := TechAnalysis{Categories: stack.NonEmptyCategories()}

	techs := stack.Lower()
	analysis.Technologies = len(techs)

	raw := 0
	for tech := range techs {
		switch tiers[tech] {
		case 1:
			analysis.TierOne++
			raw += tierOnePoints
		case 2:
			analysis.TierTwo++
			raw += tierTwoPoints
		case 3:
			analysis.TierThree++
			raw += tierThreePoints
		}
	}

	// The bonus is added before clamping.
	if analysis.TierOne >= modernStackMinimum {
		analysis.ModernStack = true
		raw += modernStackBonus
	}
	analysis.RawDepthPoints = raw
	depth := clamp(float64(raw))

	breadth := float64(2 * analysis.Categories)
	if hasAny(techs, frontendTechs) && hasAny(techs, backendTechs) && len(stack.Get("databases")) > 0 {
		analysis.FullStack = true
		breadth += fullStackBonus
	}

	return clamp(breadth), depth, analysis
}

func hasAny(set map[string]struct{}, names []string) bool {
	for _, n := range names {
		if _, ok := set[n]; ok {
			return true
		}
	}
	return false
}

func countIn(set map[string]struct{}, names []string) int {
	n := 0
	for _, name := range names {
		if _, ok := set[name]; ok {
			n++
		}
	}
	return n
}

// CommunicationScore rates the user's messages. Fewer than four messages in
// total yields a neutral score flagged as insufficient data.
func CommunicationScore(messages []candidate.Message) (float64, CommunicationAnalysis) {
	if len(messages) < communicationMinMessages {
		return 5, CommunicationAnalysis{InsufficientData: true}
	}

	var analysis CommunicationAnalysis
	users := 0
	totalWords := 0

	for _, m := range messages {
		if m.Role != candidate.RoleUser {
			continue
		}
		users++

		words := len(strings.Fields(m.Content))
		totalWords += words
		if words > 10 {
			analysis.DetailedResponses++
		}

		lower := strings.ToLower(m.Content)
		if containsAny(lower, professionalKeywords) {
			analysis.ProfessionalTone++
		}
		if containsAny(lower, technicalKeywords) {
			analysis.TechnicalDepth++
		}
	}

	if users > 0 {
		analysis.AvgResponseLength = float64(totalWords) / float64(users)
	}

	score := 5.0
	switch {
	case analysis.AvgResponseLength > 15:
		score += 2
	case analysis.AvgResponseLength > 8:
		score++
	}

	if float64(analysis.DetailedResponses) > float64(users)*0.6 {
		score += 2
	}
	if analysis.ProfessionalTone > 0 {
		score++
	}
	if analysis.TechnicalDepth > 0 {
		score += 2
	}

	return clamp(score), analysis
}

func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

type archetype struct {
	name          string
	minExperience int
	required      []string
	bonus         []string
	leadership    []string
}

// archetypes are matched in order against the desired position.
var archetypes = []archetype{
	{
		name:          "senior",
		minExperience: 5,
		required:      []string{"python", "java", "javascript", "react", "django"},
		leadership:    []string{"lead", "senior", "architect", "principal"},
	},
	{
		name:          "full stack",
		minExperience: 2,
		required:      []string{"react", "vue", "angular", "django", "spring", "node", "node.js", "nodejs"},
	},
	{
		name:          "frontend",
		minExperience: 1,
		required:      []string{"javascript", "react", "vue", "angular", "typescript"},
		bonus:         []string{"css", "html", "webpack", "sass"},
	},
	{
		name:          "backend",
		minExperience: 1,
		required:      []string{"python", "java", "django", "spring", "fastapi", "node", "node.js", "nodejs"},
		bonus:         []string{"postgresql", "mongodb", "redis", "docker"},
	},
	{
		name:          "devops",
		minExperience: 2,
		required:      []string{"docker", "kubernetes", "aws", "azure", "terraform"},
		bonus:         []string{"jenkins", "ansible", "nginx"},
	},
}

// RoleFitScore rates how well the stack and experience match the archetype
// found in the desired position.
func RoleFitScore(position string, stack candidate.TechStack, experience int) (float64, RoleFitAnalysis) {
	analysis := RoleFitAnalysis{RoleType: "general"}
	lower := strings.ToLower(strings.ReplaceAll(position, "-", " "))

	score := 5.0
	for _, a := range archetypes {
		if !strings.Contains(lower, a.name) {
			continue
		}

		analysis.RoleType = a.name
		if experience >= a.minExperience {
			analysis.ExperienceMatch = true
			score += 2
		}

		techs := stack.Lower()
		analysis.TechMatchCount = countIn(techs, a.required)
		score += math.Min(1.5*float64(analysis.TechMatchCount), 4)

		analysis.BonusTechCount = countIn(techs, a.bonus)
		score += math.Min(float64(analysis.BonusTechCount), 2)

		if len(a.leadership) > 0 && containsAny(lower, a.leadership) && experience >= 5 {
			analysis.SeniorityMatch = true
			score += 2
		}
		break
	}

	return clamp(score), analysis
}
