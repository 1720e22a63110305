package conversation

import "github.com/spigell/talentscout/internal/candidate"

// State is the phase of an interview.
type State string

const (
	Greeting            State = "greeting"
	CollectingInfo      State = "collecting_info"
	TechStackCollection State = "tech_stack_collection"
	TechnicalQuestions  State = "technical_questions"
	Completed           State = "completed"
	Ended               State = "ended"
)

func (s State) String() string { return string(s) }

// Final reports whether the interview part of the session is over.
func (s State) Final() bool {
	return s == Completed || s == Ended
}

// enhanced lists the states whose replies may be polished.
var enhanced = map[State]bool{
	TechStackCollection: true,
	TechnicalQuestions:  true,
	Completed:           true,
}

// deriveState computes the phase from what has been collected so far. There
// is no stored state or field index: the profile is the only source of truth.
func deriveState(sc *SessionContext, order []candidate.Field, maxTotal int) State {
	switch {
	case sc.Ended:
		return Ended
	case !sc.Profile.IsSet(candidate.FieldFullName):
		return Greeting
	}

	if _, pending := sc.Profile.NextField(order); pending {
		return CollectingInfo
	}

	switch {
	case sc.Profile.TechStack.Empty():
		return TechStackCollection
	case len(sc.Responses) < maxTotal:
		return TechnicalQuestions
	default:
		return Completed
	}
}
