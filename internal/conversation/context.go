package conversation

import (
	"time"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/questions"
)

// Response is one accepted answer to a technical question.
type Response struct {
	Ordinal  int                `json:"ordinal"`
	Question string             `json:"question,omitempty"`
	Text     string             `json:"raw_text"`
	Analysis questions.Analysis `json:"derived_analysis"`
	Intent   string             `json:"intent"`
}

// SessionContext is everything a session knows. Handlers receive it by
// pointer; nothing about a session lives outside of it.
type SessionContext struct {
	ID        string
	StartedAt time.Time
	Profile   *candidate.Profile
	// Questions is generated once, when the tech stack is finalized.
	Questions questions.Set
	// Industry is detected alongside Questions; knowledge.GeneralIndustry
	// when nothing matched.
	Industry  string
	Responses []Response
	Messages  []candidate.Message
	Ended     bool
	// Pending is the question waiting for an answer.
	Pending string
}

func newSessionContext(id string, now time.Time) *SessionContext {
	return &SessionContext{
		ID:        id,
		StartedAt: now,
		Profile:   &candidate.Profile{},
		Responses: make([]Response, 0),
		Messages:  make([]candidate.Message, 0),
	}
}

func (sc *SessionContext) addMessage(role candidate.Role, content string) {
	sc.Messages = append(sc.Messages, candidate.Message{Role: role, Content: content})
}

// lastSkillLevel is the level of the most recent answer.
func (sc *SessionContext) lastSkillLevel() questions.SkillLevel {
	if len(sc.Responses) == 0 {
		return questions.Beginner
	}
	return sc.Responses[len(sc.Responses)-1].Analysis.SkillLevel
}

// collected reports whether anything beyond the name was gathered.
func (sc *SessionContext) collected() bool {
	for _, f := range candidate.FieldOrder {
		if f != candidate.FieldFullName && sc.Profile.IsSet(f) {
			return true
		}
	}
	return !sc.Profile.TechStack.Empty()
}
