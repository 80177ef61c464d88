package rotation

import "github.com/claude/repcycle/internal/models"

// Cursor is the navigation state between a load and the next one. It is a
// value: Skip returns a new cursor instead of mutating the receiver.
type Cursor struct {
	GroupIndex int `json:"group_index"`
	// Offset pages through FindNext alternatives on the overview.
	Offset int `json:"offset"`
}

// NewCursor positions a cursor on the initial group of snap.
func NewCursor(snap *models.Snapshot) Cursor {
	return Cursor{GroupIndex: InitialGroup(snap).Index()}
}

// Group returns the group the cursor points at.
func (c Cursor) Group() models.Group {
	n := len(models.Groups)
	return models.Groups[((c.GroupIndex%n)+n)%n]
}

// Skip moves to the next group in Chest, Back, Legs order, wrapping around.
// Sessions are never touched.
func (c Cursor) Skip() Cursor {
	c.GroupIndex = (c.GroupIndex + 1) % len(models.Groups)
	return c
}

// Next returns the open session the cursor currently proposes.
func (c Cursor) Next(snap *models.Snapshot) (models.Session, bool) {
	return NextInGroup(snap, c.Group())
}

// WithOffset returns c paging to offset in the overview.
func (c Cursor) WithOffset(offset int) Cursor {
	if offset < 0 {
		offset = 0
	}
	c.Offset = offset
	return c
}
