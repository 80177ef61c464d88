package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Group is one of the three workout categories, each backed by its own sheet.
type Group int

const (
	Chest Group = iota
	Back
	Legs
)

// Groups lists every group in rotation and priority order.
var Groups = [...]Group{Chest, Back, Legs}

var groupLabels = [...]string{"Chest", "Back", "Legs"}

func (g Group) String() string {
	if g < Chest || g > Legs {
		return "Group(" + strconv.Itoa(int(g)) + ")"
	}
	return groupLabels[g]
}

// Index returns the position of g in Groups.
func (g Group) Index() int { return int(g) }

// Valid reports whether g is a known group.
func (g Group) Valid() bool { return g >= Chest && g <= Legs }

// ParseGroup resolves a sheet label such as "chest" or "Legs".
func ParseGroup(label string) (Group, error) {
	for _, g := range Groups {
		if strings.EqualFold(strings.TrimSpace(label), groupLabels[g]) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown workout group %q", label)
}

func (g Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

func (g *Group) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseGroup(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Amount is a numeric spreadsheet cell that may be blank or unreadable.
type Amount struct {
	Value float64
	Known bool
}

// NotAvailable is the placeholder for a missing sibling column.
var NotAvailable = Amount{}

// KnownAmount returns an Amount holding v.
func KnownAmount(v float64) Amount { return Amount{Value: v, Known: true} }

// ParseAmount reads a cell, accepting comma or dot decimals ("102,5" or "102.5").
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotAvailable
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return NotAvailable
	}
	return KnownAmount(f)
}

func (a Amount) String() string {
	if !a.Known {
		return "N/A"
	}
	return strconv.FormatFloat(a.Value, 'f', -1, 64)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Known {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = NotAvailable
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = KnownAmount(v)
	return nil
}

// Exercise is one exercise prescribed in a session row.
type Exercise struct {
	Name     string `json:"name"`
	WeightKg Amount `json:"weight_kg"`
	Reps     Amount `json:"reps"`
	Sets     Amount `json:"sets"`
	VolumeKg Amount `json:"volume_kg"`
	// Difficulty is the rating logged for the exercise, on the sheet's own scale.
	Difficulty Amount `json:"difficulty"`
}

// Session is one row of a group's sheet.
type Session struct {
	Group         Group      `json:"group"`
	RowIndex      int        `json:"row_index"`
	Completed     bool       `json:"completed"`
	Date          *time.Time `json:"date,omitempty"`
	Exercises     []Exercise `json:"exercises"`
	TotalVolumeKg float64    `json:"total_volume_kg"`
	// PredictedDifficulty is written into the sheet by the difficulty model
	// and is unknown until the model has been trained.
	PredictedDifficulty Amount `json:"predicted_difficulty"`
}

// Key identifies a session across reloads: the sheet and its row number.
type Key struct {
	Group    Group
	RowIndex int
}

func (s Session) Key() Key { return Key{Group: s.Group, RowIndex: s.RowIndex} }
