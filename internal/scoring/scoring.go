// Package scoring computes a heuristic fitness report for a candidate.
package scoring

import (
	"math"
	"strings"

	"github.com/spigell/talentscout/internal/candidate"
)

// ErrNoCandidateData is reported in Report.Error for an empty profile.
const ErrNoCandidateData = "insufficient data: no candidate data available"

// WeightTable holds the composite weights. They must sum to 1.0.
type WeightTable struct {
	Experience    float64
	TechBreadth   float64
	TechDepth     float64
	Communication float64
	RoleFit       float64
}

// Sum returns the total weight.
func (w WeightTable) Sum() float64 {
	return w.Experience + w.TechBreadth + w.TechDepth + w.Communication + w.RoleFit
}

// Weights is the fixed composite weighting.
var Weights = WeightTable{
	Experience:    0.25,
	TechBreadth:   0.20,
	TechDepth:     0.20,
	Communication: 0.15,
	RoleFit:       0.20,
}

// Scores are the five sub-scores, each in [0,10].
type Scores struct {
	Experience    float64 `json:"experience"`
	TechBreadth   float64 `json:"tech_breadth"`
	TechDepth     float64 `json:"tech_depth"`
	Communication float64 `json:"communication"`
	RoleFit       float64 `json:"role_fit"`
}

// TechAnalysis explains the breadth and depth scores.
type TechAnalysis struct {
	Categories     int  `json:"categories"`
	TierOne        int  `json:"tier_one"`
	TierTwo        int  `json:"tier_two"`
	TierThree      int  `json:"tier_three"`
	ModernStack    bool `json:"modern_stack"`
	FullStack      bool `json:"full_stack"`
	Technologies   int  `json:"technologies"`
	RawDepthPoints int  `json:"raw_depth_points"`
}

// CommunicationAnalysis explains the communication score.
type CommunicationAnalysis struct {
	InsufficientData  bool    `json:"insufficient_data"`
	AvgResponseLength float64 `json:"avg_response_length,omitempty"`
	DetailedResponses int     `json:"detailed_responses,omitempty"`
	ProfessionalTone  int     `json:"professional_tone,omitempty"`
	TechnicalDepth    int     `json:"technical_depth,omitempty"`
}

// RoleFitAnalysis explains the role fit score.
type RoleFitAnalysis struct {
	RoleType        string `json:"role_type"`
	ExperienceMatch bool   `json:"experience_match"`
	TechMatchCount  int    `json:"tech_match_count"`
	BonusTechCount  int    `json:"bonus_tech_count"`
	SeniorityMatch  bool   `json:"seniority_match"`
}

// Report is recomputed on every call to Score and never cached.
type Report struct {
	Error string `json:"error,omitempty"`

	TotalScore      float64               `json:"total_score"`
	Grade           string                `json:"grade"`
	ExperienceLevel string                `json:"experience_level"`
	Scores          Scores                `json:"scores"`
	Tech            TechAnalysis          `json:"tech_stack_analysis"`
	Communication   CommunicationAnalysis `json:"communication_analysis"`
	RoleFit         RoleFitAnalysis       `json:"role_fit_analysis"`
	Recommendations []string              `json:"recommendations"`
}

// Failed reports whether the report is an error record.
func (r *Report) Failed() bool {
	return r == nil || r.Error != ""
}

// Score builds a report from the profile and the full message history. It has
// no side effects and keeps no state between calls.
func Score(profile *candidate.Profile, messages []candidate.Message) *Report {
	if profile.IsEmpty() {
		return &Report{Error: ErrNoCandidateData}
	}

	experience := profile.Experience()
	position := strings.TrimSpace(profile.DesiredPosition)
	if position == "" {
		position = "Developer"
	}

	expScore, expLevel := ExperienceScore(experience)
	breadth, depth, tech := TechStackScore(profile.TechStack)
	comm, commAnalysis := CommunicationScore(messages)
	fit, fitAnalysis := RoleFitScore(position, profile.TechStack, experience)

	scores := Scores{
		Experience:    expScore,
		TechBreadth:   breadth,
		TechDepth:     depth,
		Communication: comm,
		RoleFit:       fit,
	}

	total := scores.Experience*Weights.Experience +
		scores.TechBreadth*Weights.TechBreadth +
		scores.TechDepth*Weights.TechDepth +
		scores.Communication*Weights.Communication +
		scores.RoleFit*Weights.RoleFit

	// The grade reads the unrounded total: 8.95 is an A, shown as 9.0.
	return &Report{
		TotalScore:      round1(total),
		Grade:           Grade(total),
		ExperienceLevel: expLevel,
		Scores:          scores,
		Tech:            tech,
		Communication:   commAnalysis,
		RoleFit:         fitAnalysis,
		Recommendations: recommendations(scores, tech),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}

// ExperienceScore maps years to a sub-score and a level label.
func ExperienceScore(years int) (float64, string) {
	switch {
	case years >= 8:
		return 10, "Senior+"
	case years >= 5:
		return 8, "Senior"
	case years >= 3:
		return 6, "Mid-level"
	case years >= 1:
		return 4, "Junior+"
	default:
		return 2, "Entry-level"
	}
}

type gradeStep struct {
	min   float64
	grade string
}

var gradeTable = []gradeStep{
	{9.0, "A+"},
	{8.5, "A"},
	{8.0, "A-"},
	{7.5, "B+"},
	{7.0, "B"},
	{6.5, "B-"},
	{6.0, "C+"},
	{5.5, "C"},
}

// Grade maps a composite score to a letter grade.
func Grade(score float64) string {
	for _, step := range gradeTable {
		if score >= step.min {
			return step.grade
		}
	}
	return "C-"
}

func recommendations(s Scores, tech TechAnalysis) []string {
	recs := make([]string, 0, 5)

	switch {
	case s.Experience >= 8:
		recs = append(recs, "Strong experience level - excellent for senior roles")
	case s.Experience < 6:
		recs = append(recs, "Consider junior or mid-level positions to build experience")
	}

	if tech.ModernStack {
		recs = append(recs, "Modern tech stack - great for current market demands")
	} else {
		recs = append(recs, "Consider learning modern technologies (React, Python, Docker)")
	}

	if tech.FullStack {
		recs = append(recs, "Full-stack capabilities - versatile for many roles")
	}

	if s.Communication < 6 {
		recs = append(recs, "Encourage more detailed technical discussions in interviews")
	}

	switch {
	case s.RoleFit >= 8:
		recs = append(recs, "Excellent fit for desired role")
	case s.RoleFit < 6:
		recs = append(recs, "May need additional skills for desired role")
	}

	return recs
}
