package domain

// Outcome names what happened to a request that did not fail with an error.
// Ignored outcomes leave the room unchanged and are never shown to clients.
type Outcome int

const (
	Applied Outcome = iota
	// Overwritten marks a duel answer that replaced an earlier one for the same round.
	Overwritten
	IgnoredNotHost
	IgnoredStale
	IgnoredNotMember
	IgnoredAlreadyFailed
	IgnoredWrongMode
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Overwritten:
		return "overwritten"
	case IgnoredNotHost:
		return "ignored: not host"
	case IgnoredStale:
		return "ignored: stale"
	case IgnoredNotMember:
		return "ignored: not a member"
	case IgnoredAlreadyFailed:
		return "ignored: already failed this round"
	case IgnoredWrongMode:
		return "ignored: wrong mode"
	}
	return "unknown"
}

// Ignored reports whether the request was dropped without effect.
func (o Outcome) Ignored() bool {
	return o >= IgnoredNotHost
}
