package view

// State is the progress of the main page's load flow.
type State int

const (
	Uninitialized State = iota
	AwaitingSession
	SessionKnownNoRedirect
	SessionKnownWithPendingGrantRedirect
	GrantApplied
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case AwaitingSession:
		return "awaiting-session"
	case SessionKnownNoRedirect:
		return "session-known"
	case SessionKnownWithPendingGrantRedirect:
		return "grant-pending"
	case GrantApplied:
		return "grant-applied"
	default:
		return "unknown"
	}
}
