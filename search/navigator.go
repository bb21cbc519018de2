package search

// Navigator is a small state machine over a completed session: it tracks the
// currently selected match and wraps around at either end. An index of -1
// means nothing is selected.
type Navigator struct {
	session *Session
	current int
}

func NewNavigator(session *Session) *Navigator {
	n := &Navigator{current: -1}
	n.Bind(session)
	return n
}

// Bind points the navigator at a new session, discarding the previous
// selection. The first match of a completed non-empty session is selected
// automatically; anything else leaves the navigator without a selection.
func (n *Navigator) Bind(session *Session) {
	n.session = session
	n.current = -1
	if session != nil && session.State == Completed && len(session.Matches) > 0 {
		n.current = 0
	}
}

// HasMatches reports whether a match is currently selected.
func (n *Navigator) HasMatches() bool { return n.current >= 0 }

// CurrentIndex returns the selected match index, or -1.
func (n *Navigator) CurrentIndex() int { return n.current }

// Current returns the selected match.
func (n *Navigator) Current() (Match, bool) {
	if n.current < 0 {
		return Match{}, false
	}
	return n.session.Matches[n.current], true
}

// Next advances to the following match, wrapping past the last one. Without
// matches it is a no-op.
func (n *Navigator) Next() (Match, bool) {
	if n.current < 0 {
		return Match{}, false
	}
	n.current = (n.current + 1) % len(n.session.Matches)
	return n.session.Matches[n.current], true
}

// Previous moves to the preceding match, wrapping before the first one.
// Without matches it is a no-op.
func (n *Navigator) Previous() (Match, bool) {
	if n.current < 0 {
		return Match{}, false
	}
	size := len(n.session.Matches)
	n.current = (n.current - 1 + size) % size
	return n.session.Matches[n.current], true
}
