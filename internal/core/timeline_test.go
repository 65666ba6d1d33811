package core

import (
	"testing"
	"time"
)

func TestTimelineAppendRemove(t *testing.T) {
	tl := NewTimeline(false)

	if !tl.Append(Message{ID: "a"}) || !tl.Append(Message{ID: "b"}) {
		t.Fatalf("expected appends to succeed")
	}
	if tl.Append(Message{ID: "a", Text: "again"}) {
		t.Fatalf("expected duplicate append to be rejected")
	}
	if tl.Len() != 2 || !tl.Has("a") {
		t.Fatalf("unexpected timeline: %+v", tl.Messages())
	}

	if !tl.Remove("a") || tl.Remove("a") {
		t.Fatalf("expected exactly one removal")
	}
	if tl.Has("a") || tl.Len() != 1 {
		t.Fatalf("unexpected timeline after remove: %+v", tl.Messages())
	}

	// a removed id may come back
	if !tl.Append(Message{ID: "a"}) {
		t.Fatalf("expected re-append after removal")
	}
}

func TestTimelineSeedReplaces(t *testing.T) {
	tl := NewTimeline(false)
	tl.Append(Message{ID: "old"})

	tl.Seed([]Message{{ID: "h1"}, {ID: "h2"}, {ID: "h1"}})

	got := tl.Messages()
	if len(got) != 2 || got[0].ID != "h1" || got[1].ID != "h2" || tl.Has("old") {
		t.Fatalf("unexpected seeded timeline: %+v", got)
	}
}

func TestTimelineMessagesIsACopy(t *testing.T) {
	tl := NewTimeline(false)
	tl.Append(Message{ID: "a", Text: "original"})

	got := tl.Messages()
	got[0].Text = "mutated"

	if tl.Messages()[0].Text != "original" {
		t.Fatalf("timeline shares its backing array")
	}
}

func TestTimelineChronologicalTiebreak(t *testing.T) {
	tl := NewTimeline(true)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tl.Append(Message{ID: "c", CreatedAt: at.Add(time.Second)})
	tl.Append(Message{ID: "b", CreatedAt: at})
	tl.Append(Message{ID: "a", CreatedAt: at})

	got := tl.Messages()
	if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("unexpected order: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
}
