package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the read-only result of one full load of all three sheets.
// It is replaced wholesale on reload; WithCompleted is the only way to
// derive a modified copy.
type Snapshot struct {
	LoadID   uuid.UUID
	LoadedAt time.Time
	groups   [len(Groups)][]Session
}

// NewSnapshot builds a snapshot from per-group sessions. Each group's
// sessions are kept in ascending row order.
func NewSnapshot(loadedAt time.Time, byGroup map[Group][]Session) *Snapshot {
	s := &Snapshot{LoadID: uuid.New(), LoadedAt: loadedAt}
	for g, sessions := range byGroup {
		if !g.Valid() {
			continue
		}
		cp := slices.Clone(sessions)
		slices.SortStableFunc(cp, func(a, b Session) int { return a.RowIndex - b.RowIndex })
		s.groups[g] = cp
	}
	return s
}

// Sessions returns the sessions of one group in row order. Callers must not
// modify the returned slice.
func (s *Snapshot) Sessions(g Group) []Session {
	if s == nil || !g.Valid() {
		return nil
	}
	return s.groups[g]
}

// All returns every session, grouped in Chest, Back, Legs order.
func (s *Snapshot) All() []Session {
	if s == nil {
		return nil
	}
	var n int
	for _, sessions := range s.groups {
		n += len(sessions)
	}
	all := make([]Session, 0, n)
	for _, sessions := range s.groups {
		all = append(all, sessions...)
	}
	return all
}

// Find looks up a session by its sheet row.
func (s *Snapshot) Find(k Key) (Session, bool) {
	for _, sess := range s.Sessions(k.Group) {
		if sess.RowIndex == k.RowIndex {
			return sess, true
		}
	}
	return Session{}, false
}

// WithCompleted returns a copy of s in which the identified row is marked
// completed on date. The receiver is left untouched. ok is false when the
// row is not part of the snapshot.
func (s *Snapshot) WithCompleted(k Key, date time.Time) (_ *Snapshot, ok bool) {
	if s == nil || !k.Group.Valid() {
		return s, false
	}
	idx := slices.IndexFunc(s.groups[k.Group], func(sess Session) bool { return sess.RowIndex == k.RowIndex })
	if idx < 0 {
		return s, false
	}
	cp := *s
	cp.groups[k.Group] = slices.Clone(s.groups[k.Group])
	d := date
	cp.groups[k.Group][idx].Completed = true
	cp.groups[k.Group][idx].Date = &d
	return &cp, true
}
