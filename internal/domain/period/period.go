// Package period holds the date range filter shared by ledger and dashboard
// queries.
package period

import (
	"time"

	"github.com/go-faster/errors"
)

// Layout is the wire format of range bounds.
const Layout = "2006-01-02"

// ErrInvertedRange is returned when the start date is after the end date.
var ErrInvertedRange = errors.New("start date is after end date")

// Range is an inclusive date range. Zero bounds are open.
type Range struct {
	Start time.Time
	End   time.Time
}

// Parse builds a Range from YYYY-MM-DD strings; empty strings are open bounds.
func Parse(start, end string) (Range, error) {
	var r Range
	if start != "" {
		t, err := time.Parse(Layout, start)
		if err != nil {
			return Range{}, errors.Wrapf(err, "parse start date %q", start)
		}
		r.Start = t
	}
	if end != "" {
		t, err := time.Parse(Layout, end)
		if err != nil {
			return Range{}, errors.Wrapf(err, "parse end date %q", end)
		}
		r.End = t
	}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate checks the bounds are ordered.
func (r Range) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return errors.Wrapf(ErrInvertedRange, "%s > %s", r.Start.Format(Layout), r.End.Format(Layout))
	}
	return nil
}

// IsOpen reports whether neither bound is set.
func (r Range) IsOpen() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// StartString returns the formatted start bound or "".
func (r Range) StartString() string {
	if r.Start.IsZero() {
		return ""
	}
	return r.Start.Format(Layout)
}

// EndString returns the formatted end bound or "".
func (r Range) EndString() string {
	if r.End.IsZero() {
		return ""
	}
	return r.End.Format(Layout)
}
