package export

import (
	"bytes"
	"io"
	"testing"
	"time"

	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/salesledger/internal/domain/ledger"
)

var t0 = time.Date(2026, 2, 3, 10, 30, 0, 0, time.UTC)

func sampleLedger() *ledger.CustomerLedger {
	entries := []ledger.Entry{
		{ID: 1, Kind: ledger.KindOrder, ReferenceID: 1, Date: t0, Description: "Order #1", Amount: decimal.NewFromInt(100), Status: ledger.StatusActive},
		{ID: 2, Kind: ledger.KindPayment, ReferenceID: 2, Date: t0.Add(time.Hour), Description: "Cash, thanks", Amount: decimal.NewFromInt(30), Status: ledger.StatusActive},
		{ID: 3, Kind: ledger.KindOrder, ReferenceID: 3, Date: t0.Add(2 * time.Hour), Description: "Order #3", Amount: decimal.NewFromInt(40), Status: ledger.StatusDeleted},
	}
	p := ledger.Project(7, entries)
	return &ledger.CustomerLedger{
		CustomerID: 7,
		Projection: p,
		Deleted:    p.Deleted(),
	}
}

func TestWriteStatement(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatement(&buf, sampleLedger(), Options{}))

	want := "date,kind,description,amount,status,running_balance\n" +
		"2026-02-03 10:30,ORDER,Order #1,100.00,active,100.00\n" +
		"2026-02-03 11:30,PAYMENT,\"Cash, thanks\",30.00,active,70.00\n" +
		"2026-02-03 12:30,ORDER,Order #3,40.00,deleted,70.00\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteStatementDeletedView(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatement(&buf, sampleLedger(), Options{View: ledger.ViewDeleted}))

	assert.Equal(t, "date,kind,description,amount,status,running_balance\n"+
		"2026-02-03 12:30,ORDER,Order #3,40.00,deleted,70.00\n", buf.String())
}

func TestWriteStatementGzip(t *testing.T) {
	var plain, packed bytes.Buffer
	require.NoError(t, WriteStatement(&plain, sampleLedger(), Options{}))
	require.NoError(t, WriteStatement(&packed, sampleLedger(), Options{Gzip: true}))

	gz, err := pgzip.NewReader(&packed)
	require.NoError(t, err)
	defer func() { _ = gz.Close() }()

	got, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, plain.String(), string(got))
}

func TestWriteStatementErrors(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteStatement(&buf, &ledger.CustomerLedger{}, Options{}))
	require.Error(t, WriteStatement(&buf, sampleLedger(), Options{View: ledger.ViewUpdates}))
	assert.Zero(t, buf.Len())
}
