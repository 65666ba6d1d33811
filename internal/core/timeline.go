package core

import (
	"slices"
	"strings"
)

// Timeline is the message list of the targeted room. IDs are unique across
// historical, pushed and optimistic entries.
type Timeline struct {
	messages      []Message
	ids           map[string]struct{}
	chronological bool
}

// NewTimeline constructs an empty timeline. With chronological set, entries are
// kept sorted by CreatedAt with ID as tiebreak instead of arrival order.
func NewTimeline(chronological bool) *Timeline {
	return &Timeline{
		ids:           make(map[string]struct{}),
		chronological: chronological,
	}
}

// Seed replaces the list with history, dropping repeated IDs.
func (t *Timeline) Seed(history []Message) {
	t.Reset()
	for _, m := range history {
		t.Append(m)
	}
}

// Append adds m unless its ID is already present. Returns true if added.
func (t *Timeline) Append(m Message) bool {
	if _, exists := t.ids[m.ID]; exists {
		return false
	}
	t.ids[m.ID] = struct{}{}
	if !t.chronological {
		t.messages = append(t.messages, m)
		return true
	}

	i, _ := slices.BinarySearchFunc(t.messages, m, compareChronological)
	t.messages = slices.Insert(t.messages, i, m)
	return true
}

// Remove deletes the entry with id. Returns true if removed.
func (t *Timeline) Remove(id string) bool {
	if _, exists := t.ids[id]; !exists {
		return false
	}
	delete(t.ids, id)
	t.messages = slices.DeleteFunc(t.messages, func(m Message) bool { return m.ID == id })
	return true
}

// Has reports whether an entry with id exists.
func (t *Timeline) Has(id string) bool {
	_, ok := t.ids[id]
	return ok
}

// Len returns the number of entries.
func (t *Timeline) Len() int {
	return len(t.messages)
}

// Messages returns a copy safe to hand out of the event loop.
func (t *Timeline) Messages() []Message {
	return slices.Clone(t.messages)
}

// Reset empties the list.
func (t *Timeline) Reset() {
	t.messages = nil
	clear(t.ids)
}

func compareChronological(a, b Message) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
