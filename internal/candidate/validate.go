package candidate

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	MinPhoneDigits = 10
	MaxPhoneDigits = 15

	MinExperienceYears = 0
	MaxExperienceYears = 50
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Outcome is the result of ValidateAndStore.
type Outcome int

const (
	// Stored means the value was accepted and written to the profile.
	Stored Outcome = iota
	// Invalid means the value was rejected and the profile is unchanged.
	Invalid
	// NeedsReentry means a numeric value could not be used and must be asked again.
	NeedsReentry
)

func (o Outcome) String() string {
	switch o {
	case Stored:
		return "stored"
	case Invalid:
		return "invalid"
	case NeedsReentry:
		return "needs_reentry"
	default:
		return "unknown"
	}
}

// OK reports whether the value was stored.
func (o Outcome) OK() bool { return o == Stored }

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// PhoneDigits strips everything but digits.
func PhoneDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone accepts any formatting as long as the digit count is within bounds.
func ValidPhone(s string) bool {
	n := len(PhoneDigits(s))
	return n >= MinPhoneDigits && n <= MaxPhoneDigits
}

// ParseExperience parses a whole number of years within bounds.
func ParseExperience(s string) (int, bool) {
	years, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	if years < MinExperienceYears || years > MaxExperienceYears {
		return 0, false
	}
	return years, true
}

// ValidateAndStore validates raw for field and writes it into the profile on
// success. On failure the profile is left untouched.
func (p *Profile) ValidateAndStore(field Field, raw string) Outcome {
	if p == nil {
		return Invalid
	}

	value := strings.TrimSpace(raw)

	switch field {
	case FieldEmail:
		if !ValidEmail(value) {
			return Invalid
		}
		p.Email = value
	case FieldPhone:
		if !ValidPhone(value) {
			return Invalid
		}
		p.Phone = value
	case FieldExperienceYears:
		years, ok := ParseExperience(value)
		if !ok {
			return NeedsReentry
		}
		p.ExperienceYears = &years
	case FieldFullName, FieldDesiredPosition, FieldLocation:
		if value == "" {
			return Invalid
		}
		p.setText(field, value)
	default:
		return Invalid
	}

	return Stored
}

func (p *Profile) setText(field Field, value string) {
	switch field {
	case FieldFullName:
		p.FullName = value
	case FieldDesiredPosition:
		p.DesiredPosition = value
	case FieldLocation:
		p.Location = value
	}
}
