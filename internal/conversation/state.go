package conversation

// Stage is a session's position in the dialogue.
type Stage string

const (
	StageAwaitingName     Stage = "awaiting_name"
	StageChatting         Stage = "chatting"
	StageAwaitingDuration Stage = "awaiting_duration"
)

// PendingSlot is an alternative slot offered to the user that still needs a
// yes/no answer before it is booked.
type PendingSlot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Requested string `json:"requested,omitempty"`
}

// State is everything the bot remembers about one session.
type State struct {
	Name           string       `json:"name,omitempty"`
	Stage          Stage        `json:"stage"`
	Condition      string       `json:"condition,omitempty"`
	DurationDays   *int         `json:"duration_days,omitempty"`
	Symptoms       []string     `json:"symptoms"`
	PendingSlot    *PendingSlot `json:"pending_slot,omitempty"`
	CampusPrompted bool         `json:"campus_prompted,omitempty"`
}

// NewState returns a session waiting for the user's name.
func NewState() *State {
	return &State{Stage: StageAwaitingName, Symptoms: []string{}}
}

// Reset returns s to its initial values in place.
func (s *State) Reset() {
	*s = *NewState()
}

// Clone deep-copies s so a failed update can be discarded.
func (s *State) Clone() *State {
	if s == nil {
		return NewState()
	}
	out := *s
	out.Symptoms = append([]string{}, s.Symptoms...)
	if s.DurationDays != nil {
		d := *s.DurationDays
		out.DurationDays = &d
	}
	if s.PendingSlot != nil {
		p := *s.PendingSlot
		out.PendingSlot = &p
	}
	if out.Stage == "" {
		out.Stage = StageAwaitingName
	}
	return &out
}
