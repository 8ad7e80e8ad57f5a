package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(seq *Sequence, kind Kind) Event {
	return Event{
		ID:        seq.Next(),
		Category:  CategoryNotification,
		Kind:      kind,
		Message:   "test",
		CreatedAt: time.Now(),
	}
}

func TestLog_NewestFirst(t *testing.T) {
	seq := &Sequence{}
	l := NewLog(5)

	first := newEvent(seq, KindInfo)
	second := newEvent(seq, KindAlert)
	l.Push(first)
	l.Push(second)

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestLog_EvictsOldestAtCap(t *testing.T) {
	// Notification log at cap (10), one more arrives
	seq := &Sequence{}
	l := NewLog(10)

	var oldest Event
	for i := 0; i < 10; i++ {
		e := newEvent(seq, KindInfo)
		if i == 0 {
			oldest = e
		}
		assert.Empty(t, l.Push(e))
	}
	require.Equal(t, 10, l.Len())

	newest := newEvent(seq, KindSuccess)
	evicted := l.Push(newest)

	assert.Equal(t, 10, l.Len())
	require.Len(t, evicted, 1)
	assert.Equal(t, oldest.ID, evicted[0].ID)

	_, found := l.Get(oldest.ID)
	assert.False(t, found)
	assert.Equal(t, newest.ID, l.Items()[0].ID)
}

func TestLog_NeverExceedsCap(t *testing.T) {
	seq := &Sequence{}
	for _, capacity := range []int{1, 3, 10} {
		l := NewLog(capacity)
		for i := 0; i < 50; i++ {
			l.Push(newEvent(seq, KindInfo))
			assert.LessOrEqual(t, l.Len(), capacity)
		}
		assert.Equal(t, capacity, l.Len())
	}
}

func TestLog_RemoveMissingIsNoop(t *testing.T) {
	seq := &Sequence{}
	l := NewLog(3)
	e := newEvent(seq, KindInfo)
	l.Push(e)

	assert.NotPanics(t, func() {
		assert.False(t, l.Remove(9999))
	})
	assert.Equal(t, 1, l.Len())

	assert.True(t, l.Remove(e.ID))
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Remove(e.ID))
}

func TestLog_ItemsIsCopy(t *testing.T) {
	seq := &Sequence{}
	l := NewLog(3)
	l.Push(newEvent(seq, KindInfo))

	items := l.Items()
	items[0].Message = "mutated"
	assert.Equal(t, "test", l.Items()[0].Message)
}

func TestLog_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, NewLog(0).Cap())
	assert.Equal(t, DefaultCapacity, NewLog(-1).Cap())
}

func TestSequence_Monotonic(t *testing.T) {
	seq := &Sequence{}
	prev := uint64(0)
	for i := 0; i < 100; i++ {
		id := seq.Next()
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestValidKind(t *testing.T) {
	tests := []struct {
		category Category
		kind     Kind
		want     bool
	}{
		{CategoryAlert, KindDanger, true},
		{CategoryAlert, KindViolation, false},
		{CategoryNotification, KindSuccess, true},
		{CategoryIncident, KindSafe, true},
		{CategoryIncident, KindWarning, false},
		{CategoryAnalysis, KindFoulPlay, true},
		{CategoryAnalysis, KindInfo, false},
		{Category("bogus"), KindInfo, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ValidKind(tc.category, tc.kind), "%s/%s", tc.category, tc.kind)
	}
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("incident")
	assert.True(t, ok)
	assert.Equal(t, CategoryIncident, c)

	_, ok = ParseCategory("upload")
	assert.False(t, ok)
}
