package core

// Membership is the room context owned by the join protocol.
// Only join.go changes State.
type Membership struct {
	RoomID string
	State  MembershipState

	// join is the in-flight or last settled join request for RoomID.
	join *request
	// waiters are Join callers blocked until the current attempt settles.
	waiters []chan error
}

// active reports whether the room is Joining or Joined.
func (m *Membership) active() bool {
	return m.State == Joining || m.State == Joined
}

func (m *Membership) addWaiter() chan error {
	ch := make(chan error, 1)
	m.waiters = append(m.waiters, ch)
	return ch
}

// settleWaiters releases every blocked Join caller with err.
func (m *Membership) settleWaiters(err error) {
	for _, ch := range m.waiters {
		ch <- err
	}
	m.waiters = nil
}
