package ingest

// GroupResult holds the outcome of reading one group's sheet.
type GroupResult struct {
	Group       string `json:"group"`
	RowsRead    int    `json:"rows_read"`
	RowsDropped int    `json:"rows_dropped"`
	Completed   int    `json:"completed"`
	Remaining   int    `json:"remaining"`
}

// Result holds the outcome of a full load of all sheets.
type Result struct {
	LoadID     string        `json:"load_id"`
	Groups     []GroupResult `json:"groups"`
	DurationMs int64         `json:"duration_ms"`
	Message    string        `json:"message,omitempty"`
}

// Sessions returns the number of rows that became sessions across all groups.
func (r *Result) Sessions() int {
	var n int
	for _, g := range r.Groups {
		n += g.RowsRead
	}
	return n
}

// Dropped returns the number of malformed rows skipped across all groups.
func (r *Result) Dropped() int {
	var n int
	for _, g := range r.Groups {
		n += g.RowsDropped
	}
	return n
}
