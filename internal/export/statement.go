// Package export writes customer statements.
package export

import (
	"encoding/csv"
	"io"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/salesledger/internal/domain/ledger"
)

// DateLayout is the date format of the statement rows.
const DateLayout = "2006-01-02 15:04"

var header = []string{"date", "kind", "description", "amount", "status", "running_balance"}

// Options controls statement output.
type Options struct {
	// Gzip compresses the CSV stream.
	Gzip bool
	// View selects the feed; empty means the active ledger.
	View ledger.View
}

// Records picks the records of view from a loaded ledger.
func Records(l *ledger.CustomerLedger, view ledger.View) ([]ledger.Record, error) {
	switch view {
	case "", ledger.ViewActive:
		if l.Projection == nil {
			return nil, errors.New("ledger has no active feed loaded")
		}
		return l.Projection.Active(), nil
	case ledger.ViewDeleted:
		return l.Deleted, nil
	default:
		return nil, errors.Errorf("view %q cannot be exported", view)
	}
}

// WriteStatement writes the ledger as CSV to w.
func WriteStatement(w io.Writer, l *ledger.CustomerLedger, opts Options) (rerr error) {
	records, err := Records(l, opts.View)
	if err != nil {
		return err
	}

	if opts.Gzip {
		gz := pgzip.NewWriter(w)
		defer func() {
			if err := gz.Close(); err != nil && rerr == nil {
				rerr = errors.Wrap(err, "close gzip")
			}
		}()
		w = gz
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return errors.Wrapf(err, "write %s %d", r.Kind, r.ReferenceID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	return nil
}

func row(r ledger.Record) []string {
	status := string(r.Status)
	if r.Struck && r.Counts() {
		// Counter-entry of a payment reversed in the same feed.
		status = string(ledger.StatusReversed)
	}
	return []string{
		r.Date.Format(DateLayout),
		string(r.Kind),
		r.Description,
		r.Amount.StringFixed(2),
		status,
		r.Balance.StringFixed(2),
	}
}
