// Package candidate holds the candidate profile collected during an interview
// together with the field validators and the tech stack parser.
package candidate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names a single structured profile field.
type Field string

const (
	FieldFullName        Field = "full_name"
	FieldEmail           Field = "email"
	FieldPhone           Field = "phone"
	FieldExperienceYears Field = "experience_years"
	FieldDesiredPosition Field = "desired_position"
	FieldLocation        Field = "location"
)

// FieldOrder is the default collection order.
var FieldOrder = []Field{
	FieldFullName,
	FieldEmail,
	FieldPhone,
	FieldExperienceYears,
	FieldDesiredPosition,
	FieldLocation,
}

// ParseField converts a configured field name into a Field.
func ParseField(name string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range FieldOrder {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown profile field %q", name)
}

// Label is the human readable name of the field.
func (f Field) Label() string {
	return strings.ReplaceAll(string(f), "_", " ")
}

// Profile is the candidate record. Every field is optional until collected.
type Profile struct {
	FullName        string    `json:"full_name,omitempty" validate:"omitempty,max=100"`
	Email           string    `json:"email,omitempty" validate:"omitempty,candidate_email"`
	Phone           string    `json:"phone,omitempty" validate:"omitempty,candidate_phone"`
	ExperienceYears *int      `json:"experience_years,omitempty" validate:"omitnil,gte=0,lte=50"`
	DesiredPosition string    `json:"desired_position,omitempty" validate:"omitempty,max=200"`
	Location        string    `json:"location,omitempty" validate:"omitempty,max=200"`
	TechStack       TechStack `json:"tech_stack,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("candidate_email", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("registering email validation: %v", err))
	}

	if err := v.RegisterValidation("candidate_phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("registering phone validation: %v", err))
	}

	return v
}

// Validate checks the whole record. It is used before a profile is exported.
func (p *Profile) Validate() error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("validating profile: %w", err)
	}
	return nil
}

// IsEmpty reports whether nothing has been collected yet.
func (p *Profile) IsEmpty() bool {
	if p == nil {
		return true
	}
	for _, f := range FieldOrder {
		if p.IsSet(f) {
			return false
		}
	}
	return p.TechStack.Empty()
}

// IsSet reports whether the field holds a value.
func (p *Profile) IsSet(f Field) bool {
	if p == nil {
		return false
	}
	if f == FieldExperienceYears {
		return p.ExperienceYears != nil
	}
	return p.Value(f) != ""
}

// Value returns the field value as display text.
func (p *Profile) Value(f Field) string {
	if p == nil {
		return ""
	}

	switch f {
	case FieldFullName:
		return p.FullName
	case FieldEmail:
		return p.Email
	case FieldPhone:
		return p.Phone
	case FieldExperienceYears:
		if p.ExperienceYears == nil {
			return ""
		}
		return strconv.Itoa(*p.ExperienceYears)
	case FieldDesiredPosition:
		return p.DesiredPosition
	case FieldLocation:
		return p.Location
	default:
		return ""
	}
}

// Experience returns the collected years or zero.
func (p *Profile) Experience() int {
	if p == nil || p.ExperienceYears == nil {
		return 0
	}
	return *p.ExperienceYears
}

// NextField returns the first field of order that is still unset.
func (p *Profile) NextField(order []Field) (Field, bool) {
	for _, f := range order {
		if !p.IsSet(f) {
			return f, true
		}
	}
	return "", false
}

// Missing lists the unset fields of order.
func (p *Profile) Missing(order []Field) []Field {
	missing := make([]Field, 0)
	for _, f := range order {
		if !p.IsSet(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}

	c := *p
	if p.ExperienceYears != nil {
		years := *p.ExperienceYears
		c.ExperienceYears = &years
	}
	c.TechStack = p.TechStack.Clone()
	return &c
}
