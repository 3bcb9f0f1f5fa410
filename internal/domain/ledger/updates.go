package ledger

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

// Change is one edit of an order or payment, as recorded by the backend.
type Change struct {
	ID          int64
	Kind        Kind
	EntityID    int64
	Description string
	Before      map[string]any
	After       map[string]any
	UpdatedBy   string
	UpdatedAt   time.Time
}

// FieldDiff is a single changed field.
type FieldDiff struct {
	Field  string
	Before any
	After  any
}

func (d FieldDiff) String() string {
	return fmt.Sprintf("%s: %v -> %v", d.Field, d.Before, d.After)
}

// Update is a change with its computed field diffs.
type Update struct {
	Change
	Diffs []FieldDiff
}

// Diff lists the fields whose value differs between before and after,
// sorted by field name. A field present on one side only is a diff.
func Diff(before, after map[string]any) []FieldDiff {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	var out []FieldDiff
	for k := range keys {
		b, bok := before[k]
		a, aok := after[k]
		if bok && aok && equalValues(b, a) {
			continue
		}
		out = append(out, FieldDiff{Field: k, Before: b, After: a})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// equalValues treats numbers and their string spelling as equal, since the
// backend serialises money either way.
func equalValues(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// Updates builds the update feed in chronological order.
func Updates(changes []Change) []Update {
	out := make([]Update, len(changes))
	for i, c := range changes {
		out[i] = Update{Change: c, Diffs: Diff(c.Before, c.After)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
