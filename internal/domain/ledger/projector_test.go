package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/salesledger/internal/domain/order"
	"github.com/xenking/salesledger/internal/domain/payment"
)

var t0 = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func orderEntry(id int64, at time.Time, total string) Entry {
	return Entry{ID: id, Kind: KindOrder, ReferenceID: id, Date: at, Amount: dec(total), Status: StatusActive}
}

func paymentEntry(id int64, at time.Time, amount string) Entry {
	return Entry{ID: id, Kind: KindPayment, ReferenceID: id, Date: at, Amount: dec(amount), Status: StatusActive, Method: "CASH"}
}

func balances(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Balance.StringFixed(2)
	}
	return out
}

func TestProject_OrderThenPayment(t *testing.T) {
	p := Project(1, []Entry{
		paymentEntry(2, t0.Add(time.Hour), "50"),
		orderEntry(1, t0, "120"),
	})

	assert.Equal(t, []string{"120.00", "70.00"}, balances(p.Active()))
	s := p.Summary()
	assert.True(t, dec("120").Equal(s.TotalOrders))
	assert.True(t, dec("50").Equal(s.TotalPaid))
	assert.True(t, dec("70").Equal(s.CurrentBalance))
	require.NoError(t, p.Verify(dec("70")))
}

func TestProject_FoldInvariant(t *testing.T) {
	entries := []Entry{
		orderEntry(1, t0, "100"),
		paymentEntry(2, t0.Add(1*time.Hour), "30"),
		orderEntry(3, t0.Add(2*time.Hour), "45.50"),
		paymentEntry(4, t0.Add(3*time.Hour), "10.25"),
	}
	entries[2].Status = StatusDeleted

	p := Project(1, entries)
	prev := decimal.Zero
	for _, r := range p.Active() {
		if r.Struck {
			assert.True(t, prev.Equal(r.Balance), "struck record carries balance")
			continue
		}
		assert.True(t, prev.Add(r.Delta()).Equal(r.Balance))
		prev = r.Balance
	}
	assert.True(t, prev.Equal(p.Summary().CurrentBalance))
	assert.True(t, dec("59.75").Equal(prev))
}

func TestProject_TieBreakBySequence(t *testing.T) {
	a := paymentEntry(10, t0, "5")
	b := orderEntry(3, t0, "20")
	c := paymentEntry(11, t0, "1")

	p := Project(1, []Entry{a, b, c})
	recs := p.Active()
	require.Len(t, recs, 3)
	assert.Equal(t, int64(10), recs[0].ID)
	assert.Equal(t, int64(3), recs[1].ID)
	assert.Equal(t, int64(11), recs[2].ID)

	// Explicit creation sequence wins over input order.
	a.Seq, b.Seq, c.Seq = 3, 1, 2
	recs = Project(1, []Entry{a, b, c}).Active()
	assert.Equal(t, []int64{3, 11, 10}, []int64{recs[0].ID, recs[1].ID, recs[2].ID})
}

func TestProject_TieBreakOrdersFirst(t *testing.T) {
	a := paymentEntry(10, t0, "5")
	b := orderEntry(3, t0, "20")
	a.Seq, b.Seq = 1, 1

	recs := Project(1, []Entry{a, b}).Active()
	assert.Equal(t, KindOrder, recs[0].Kind)
}

func TestProject_ReversalPair(t *testing.T) {
	original := paymentEntry(2, t0.Add(time.Hour), "50")
	original.Status = StatusReversed
	counter := paymentEntry(3, t0.Add(2*time.Hour), "-50")
	counter.ReversalOf = 2

	p := Project(1, []Entry{orderEntry(1, t0, "120"), original, counter})
	recs := p.Active()

	assert.Equal(t, []string{"120.00", "120.00", "120.00"}, balances(recs))
	assert.True(t, recs[1].Struck)
	assert.True(t, recs[2].Struck)
	assert.True(t, dec("50").Equal(recs[1].Amount), "original amount unchanged")
	assert.Equal(t, 1, p.Summary().ReversedCount)
	assert.True(t, dec("120").Equal(p.Summary().CurrentBalance))
}

func TestProject_ReversalPairByReference(t *testing.T) {
	original := paymentEntry(2, t0.Add(time.Hour), "50")
	original.Status = StatusReversed
	counter := paymentEntry(3, t0.Add(2*time.Hour), "-50")
	counter.ReferenceID = 2
	later := paymentEntry(4, t0.Add(3*time.Hour), "20")

	p := Project(1, []Entry{orderEntry(1, t0, "120"), original, counter, later})
	recs := p.Active()

	assert.Equal(t, []string{"120.00", "120.00", "120.00", "100.00"}, balances(recs))
	assert.True(t, recs[2].Struck)
	assert.False(t, recs[3].Struck)
	require.NoError(t, p.Verify(dec("100")))
}

func TestProject_NegativePaymentWithOwnReferenceCounts(t *testing.T) {
	refund := paymentEntry(3, t0.Add(time.Hour), "-50")
	other := paymentEntry(2, t0, "50")
	other.Status = StatusReversed

	p := Project(1, []Entry{other, refund}, WithOpeningBalance(dec("10")))
	assert.Equal(t, []string{"10.00", "60.00"}, balances(p.Active()))
}

func TestProject_UnpairedReversalAddsDebt(t *testing.T) {
	counter := paymentEntry(3, t0.Add(time.Hour), "-50")
	counter.ReversalOf = 2

	p := Project(1, []Entry{orderEntry(1, t0, "10"), counter}, WithOpeningBalance(dec("70")))
	assert.Equal(t, []string{"80.00", "130.00"}, balances(p.Active()))
	assert.True(t, dec("-50").Equal(p.Summary().TotalPaid))
}

func TestProject_DeleteRestoreRoundTrip(t *testing.T) {
	entries := []Entry{
		orderEntry(1, t0, "100"),
		paymentEntry(2, t0.Add(time.Hour), "40"),
		orderEntry(3, t0.Add(2*time.Hour), "15"),
	}
	before := Project(1, entries).Active()

	deleted := make([]Entry, len(entries))
	copy(deleted, entries)
	deleted[1].Status = StatusDeleted
	mid := Project(1, deleted)
	assert.Equal(t, []string{"100.00", "100.00", "115.00"}, balances(mid.Active()))
	require.Len(t, mid.Deleted(), 1)
	assert.Equal(t, int64(2), mid.Deleted()[0].ID)

	restored := make([]Entry, len(deleted))
	copy(restored, deleted)
	restored[1].Status = StatusRestored
	after := Project(1, restored).Active()

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.True(t, before[i].Amount.Equal(after[i].Amount))
		assert.True(t, before[i].Balance.Equal(after[i].Balance), "record %d", i)
		assert.False(t, after[i].Struck)
	}
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	entries := []Entry{orderEntry(2, t0.Add(time.Hour), "1"), orderEntry(1, t0, "1")}
	Project(1, entries)
	assert.Equal(t, int64(2), entries[0].ID)
	assert.Zero(t, entries[0].Seq)
}

func TestVerify_Mismatch(t *testing.T) {
	p := Project(1, []Entry{orderEntry(1, t0, "120")})
	err := p.Verify(dec("100"))

	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.True(t, dec("120").Equal(mm.Expected))
	assert.True(t, dec("100").Equal(mm.Reported))
}

func TestDrift(t *testing.T) {
	good := dec("120")
	bad := dec("75")
	o := orderEntry(1, t0, "120")
	o.ReportedBalance = &good
	pay := paymentEntry(2, t0.Add(time.Hour), "50")
	pay.ReportedBalance = &bad

	drift := Project(1, []Entry{o, pay}).Drift()
	require.Len(t, drift, 1)
	assert.True(t, dec("70").Equal(drift[0].Expected))
}

func TestCounted(t *testing.T) {
	pay := paymentEntry(2, t0.Add(time.Hour), "5")
	pay.Status = StatusDeleted
	p := Project(1, []Entry{orderEntry(1, t0, "10"), pay})
	require.Len(t, p.Counted(), 1)
	assert.Equal(t, int64(1), p.Counted()[0].ID)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusActive, NormalizeStatus("completed"))
	assert.Equal(t, StatusActive, NormalizeStatus(""))
	assert.Equal(t, StatusDeleted, NormalizeStatus("DELETED"))
	assert.Equal(t, StatusReversed, NormalizeStatus("voided"))
	assert.Equal(t, StatusRestored, NormalizeStatus("restored"))
	assert.Equal(t, StatusActive, NormalizeStatus("pending"), "unknown statuses count")
}

func TestFromOrderAndPayment(t *testing.T) {
	o := &order.Order{
		ID:             5,
		Total:          dec("90"),
		Status:         order.StatusRestored,
		DiscountAmount: dec("10"),
		Discount:       &order.Discount{Amount: dec("10"), Type: order.DiscountFixed},
		Items:          []order.Item{{ProductName: "Tea", Quantity: 3, UnitPrice: dec("33.33")}},
		CreatedAt:      t0,
	}
	e := FromOrder(o)
	assert.Equal(t, KindOrder, e.Kind)
	assert.Equal(t, StatusRestored, e.Status)
	assert.Equal(t, "FIXED", e.DiscountType)
	assert.True(t, dec("90").Equal(e.Delta()))

	p := &payment.Payment{ID: 6, Amount: dec("-20"), Method: payment.MethodCheque, Status: payment.StatusActive, ReversalOf: 4}
	pe := FromPayment(p)
	assert.Equal(t, KindPayment, pe.Kind)
	assert.Equal(t, int64(4), pe.ReversalOf)
	assert.True(t, dec("20").Equal(pe.Delta()))
}
