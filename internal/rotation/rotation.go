// Package rotation decides which workout session comes next.
//
// Two policies coexist. The cursor policy picks a starting group once per
// load (the group trained least recently) and then cycles through groups on
// skip, always proposing the first open row of the current group. The global
// policy pools every open row across groups for the overview and supports
// paging through alternatives by offset.
package rotation

import (
	"cmp"
	"slices"
	"time"

	"github.com/claude/repcycle/internal/models"
)

// GroupState holds the facts about one group derived from a snapshot.
type GroupState struct {
	Group         models.Group     `json:"group"`
	Sessions      []models.Session `json:"-"`
	LastCompleted *time.Time       `json:"last_completed,omitempty"`
}

// States derives the state of every group, in Chest, Back, Legs order.
func States(snap *models.Snapshot) [len(models.Groups)]GroupState {
	var states [len(models.Groups)]GroupState
	for i, g := range models.Groups {
		sessions := snap.Sessions(g)
		states[i] = GroupState{
			Group:         g,
			Sessions:      sessions,
			LastCompleted: LastCompletedDate(sessions),
		}
	}
	return states
}

// LastCompletedDate returns the latest date among completed sessions, or nil
// when none has a date.
func LastCompletedDate(sessions []models.Session) *time.Time {
	if s, ok := LastCompletedSession(sessions); ok {
		d := *s.Date
		return &d
	}
	return nil
}

// LastCompletedSession returns the completed session with the latest date.
// On equal dates the earlier row wins.
func LastCompletedSession(sessions []models.Session) (models.Session, bool) {
	var last models.Session
	var found bool
	for _, s := range sessions {
		if !s.Completed || s.Date == nil {
			continue
		}
		if !found || s.Date.After(*last.Date) {
			last = s
			found = true
		}
	}
	return last, found
}

// compareHistory orders groups by training recency: a group that was never
// completed comes first, then older last-completed dates. It returns 0 when
// both are absent or equal, leaving the tie to the caller.
func compareHistory(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

// InitialGroup picks the group to start with after a load: the one trained
// least recently, never-trained groups first, ties resolved in
// Chest, Back, Legs order.
func InitialGroup(snap *models.Snapshot) models.Group {
	states := States(snap)
	order := states[:]
	slices.SortStableFunc(order, func(a, b GroupState) int {
		return compareHistory(a.LastCompleted, b.LastCompleted)
	})
	return order[0].Group
}

// NextInGroup returns the open session with the lowest row number in group.
// ok is false when every session of the group is completed.
func NextInGroup(snap *models.Snapshot, group models.Group) (next models.Session, ok bool) {
	for _, s := range snap.Sessions(group) {
		if s.Completed {
			continue
		}
		if !ok || s.RowIndex < next.RowIndex {
			next, ok = s, true
		}
	}
	return next, ok
}

// FindNext pools the open sessions of every group and returns the one at
// offset in priority order: groups never completed first, then groups by
// last completed date ascending, then Chest, Back, Legs, then row number.
// ok is false when the pool is empty or offset is out of range.
func FindNext(snap *models.Snapshot, offset int) (next models.Session, ok bool) {
	if offset < 0 {
		return models.Session{}, false
	}
	states := States(snap)

	var pool []models.Session
	for _, st := range states {
		for _, s := range st.Sessions {
			if !s.Completed {
				pool = append(pool, s)
			}
		}
	}
	if offset >= len(pool) {
		return models.Session{}, false
	}

	slices.SortFunc(pool, func(a, b models.Session) int {
		if c := compareHistory(states[a.Group.Index()].LastCompleted, states[b.Group.Index()].LastCompleted); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Group.Index(), b.Group.Index()); c != 0 {
			return c
		}
		return cmp.Compare(a.RowIndex, b.RowIndex)
	})
	return pool[offset], true
}
