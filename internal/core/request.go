package core

import "github.com/benbjohnson/clock"

// request is a correlated command awaiting exactly one resolution: its
// acknowledgement, its timeout, or cancellation. Whichever settles it first wins.
type request struct {
	id     string
	kind   CommandKind
	roomID string
	// tempID is the optimistic entry a send request must roll back.
	tempID string
	timer  *clock.Timer
	reply  chan error
	done   bool
}

// settle resolves the request once. It returns false when the request was
// already resolved, in which case the caller must not touch session state.
func (r *request) settle(err error) bool {
	if r.done {
		return false
	}
	r.done = true
	if r.timer != nil {
		r.timer.Stop()
	}
	if r.reply != nil {
		r.reply <- err
	}
	return true
}
