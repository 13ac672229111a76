package agent

// State is how far a turn has progressed.
type State int

const (
	Received State = iota
	ContextGathered
	Composed
	Responded
	Persisted
)

func (s State) String() string {
	switch s {
	case Received:
		return "RECEIVED"
	case ContextGathered:
		return "CONTEXT_GATHERED"
	case Composed:
		return "COMPOSED"
	case Responded:
		return "RESPONDED"
	case Persisted:
		return "PERSISTED"
	default:
		return "UNKNOWN"
	}
}
