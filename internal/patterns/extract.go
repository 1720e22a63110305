package patterns

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Context keys set by Extract.
const (
	KeyName            = "full_name"
	KeyEmail           = "email"
	KeyPhone           = "phone"
	KeyExperienceYears = "experience_years"
	KeyDesiredPosition = "desired_position"
	KeyLocation        = "location"
	KeyTechnologies    = "technologies"
)

var (
	nameRe       = regexp.MustCompile(`(?i)\b(?:my name is|call me|i am|i'm)\s+([a-z]{2,20})\b`)
	emailRe      = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe      = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	experienceRe = regexp.MustCompile(`(?i)\b(\d{1,3})\s*\+?\s*(?:years?|yrs?)\b`)
	positionRe   = regexp.MustCompile(`(?i)\b(?:looking for|interested in|applying for|want to be|hoping to be)\s+(?:an?\s+|the\s+)?(.+?)(?:\s+(?:role|position|job))?\s*[.!]?$`)
	locationRe   = regexp.MustCompile(`(?i)\b(?:based in|located in|live in|living in|i'm from|i am from)\s+([a-z][a-z .,'-]*[a-z])`)
)

// Words that follow "i am" without being a name.
var notNames = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "based": {}, "located": {}, "from": {}, "in": {},
	"looking": {}, "currently": {}, "working": {}, "interested": {}, "not": {},
	"just": {}, "here": {}, "very": {}, "so": {}, "good": {}, "fine": {}, "ok": {},
	"okay": {}, "new": {}, "available": {}, "open": {}, "sure": {}, "happy": {},
	"glad": {}, "ready": {}, "applying": {}, "living": {}, "hoping": {}, "done": {},
	"at": {}, "on": {},
}

func (m *Matcher) extractContext(text string) map[string]any {
	ctx := make(map[string]any)

	if match := nameRe.FindStringSubmatch(text); match != nil {
		if _, skip := notNames[strings.ToLower(match[1])]; !skip {
			ctx[KeyName] = cases.Title(language.English).String(strings.ToLower(match[1]))
		}
	}

	if email := emailRe.FindString(text); email != "" {
		ctx[KeyEmail] = email
	}

	if phone := phoneRe.FindString(text); phone != "" {
		ctx[KeyPhone] = strings.TrimSpace(phone)
	}

	if match := experienceRe.FindStringSubmatch(text); match != nil {
		if years, err := strconv.Atoi(match[1]); err == nil {
			ctx[KeyExperienceYears] = years
		}
	}

	if match := positionRe.FindStringSubmatch(strings.TrimSpace(text)); match != nil {
		if position := strings.TrimSpace(match[1]); position != "" {
			ctx[KeyDesiredPosition] = position
		}
	}

	if match := locationRe.FindStringSubmatch(text); match != nil {
		ctx[KeyLocation] = strings.Trim(match[1], " .,")
	}

	if techs := m.resolveAliases(text); len(techs) > 0 {
		ctx[KeyTechnologies] = techs
	}

	return ctx
}

func (m *Matcher) resolveAliases(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	techs := make([]string, 0)

	for _, a := range m.aliases {
		if !a.re.MatchString(lower) {
			continue
		}
		if _, dup := seen[a.to]; dup {
			continue
		}
		seen[a.to] = struct{}{}
		techs = append(techs, a.to)
	}

	return techs
}

// Extraction is the typed view of Result.Context.
type Extraction struct {
	FullName        string   `mapstructure:"full_name"`
	Email           string   `mapstructure:"email"`
	Phone           string   `mapstructure:"phone"`
	ExperienceYears *int     `mapstructure:"experience_years"`
	DesiredPosition string   `mapstructure:"desired_position"`
	Location        string   `mapstructure:"location"`
	Technologies    []string `mapstructure:"technologies"`
}

// Decode converts an extraction context into an Extraction.
func Decode(ctx map[string]any) (Extraction, error) {
	var out Extraction

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, fmt.Errorf("creating extraction decoder: %w", err)
	}

	if err := decoder.Decode(ctx); err != nil {
		return out, fmt.Errorf("decoding extraction: %w", err)
	}

	return out, nil
}

// Value returns the extracted text for a profile field name.
func (e Extraction) Value(field string) (string, bool) {
	var v string
	switch field {
	case KeyName:
		v = e.FullName
	case KeyEmail:
		v = e.Email
	case KeyPhone:
		v = e.Phone
	case KeyExperienceYears:
		if e.ExperienceYears == nil {
			return "", false
		}
		v = strconv.Itoa(*e.ExperienceYears)
	case KeyDesiredPosition:
		v = e.DesiredPosition
	case KeyLocation:
		v = e.Location
	}
	return v, v != ""
}
