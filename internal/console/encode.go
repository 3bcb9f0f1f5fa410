package console

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/dashboard"
	"github.com/xenking/salesledger/internal/domain/ledger"
	"github.com/xenking/salesledger/internal/domain/order"
	"github.com/xenking/salesledger/internal/domain/period"
	"github.com/xenking/salesledger/internal/session"
)

func money(e *jx.Encoder, name string, d decimal.Decimal) {
	e.FieldStart(name)
	e.Str(d.StringFixed(2))
}

func timestamp(e *jx.Encoder, name string, t time.Time) {
	e.FieldStart(name)
	if t.IsZero() {
		e.Null()
		return
	}
	e.Str(t.Format(time.RFC3339))
}

func str(e *jx.Encoder, name, v string) {
	e.FieldStart(name)
	e.Str(v)
}

func integer(e *jx.Encoder, name string, v int64) {
	e.FieldStart(name)
	e.Int64(v)
}

// anyValue encodes a free-form change value.
func anyValue(e *jx.Encoder, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		e.Null()
		return
	}
	e.Raw(raw)
}

func encodeRange(e *jx.Encoder, r period.Range) {
	e.FieldStart("range")
	e.ObjStart()
	str(e, "startDate", r.StartString())
	str(e, "endDate", r.EndString())
	e.ObjEnd()
}

func encodeRecord(e *jx.Encoder, r ledger.Record) {
	e.ObjStart()
	integer(e, "id", r.ID)
	str(e, "kind", string(r.Kind))
	integer(e, "referenceId", r.ReferenceID)
	timestamp(e, "date", r.Date)
	str(e, "description", r.Description)
	money(e, "amount", r.Amount)
	str(e, "status", string(r.Status))
	if r.Method != "" {
		str(e, "method", r.Method)
	}
	if r.ReversalOf != 0 {
		integer(e, "reversalOf", r.ReversalOf)
	}
	if !r.DiscountAmount.IsZero() {
		money(e, "discountAmount", r.DiscountAmount)
		str(e, "discountType", r.DiscountType)
	}
	if len(r.Items) > 0 {
		e.FieldStart("items")
		e.ArrStart()
		for _, l := range r.Items {
			e.ObjStart()
			str(e, "productName", l.ProductName)
			integer(e, "quantity", int64(l.Quantity))
			money(e, "unitPrice", l.UnitPrice)
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	if r.DeletedAt != nil {
		timestamp(e, "deletedAt", *r.DeletedAt)
		str(e, "deletedBy", r.DeletedBy)
	}
	e.FieldStart("struck")
	e.Bool(r.Struck)
	money(e, "balance", r.Balance)
	e.ObjEnd()
}

func encodeRecords(e *jx.Encoder, records []ledger.Record) {
	e.FieldStart("records")
	e.ArrStart()
	for _, r := range records {
		encodeRecord(e, r)
	}
	e.ArrEnd()
}

func encodeLedger(e *jx.Encoder, l *ledger.CustomerLedger, view ledger.View) {
	e.ObjStart()
	integer(e, "customerId", l.CustomerID)
	str(e, "customerName", l.CustomerName)
	str(e, "view", string(view))
	encodeRange(e, l.Range)

	switch view {
	case ledger.ViewActive:
		s := l.Projection.Summary()
		e.FieldStart("summary")
		e.ObjStart()
		money(e, "openingBalance", s.Opening)
		money(e, "totalOrders", s.TotalOrders)
		money(e, "totalPaid", s.TotalPaid)
		money(e, "currentBalance", s.CurrentBalance)
		integer(e, "orderCount", int64(s.OrderCount))
		integer(e, "paymentCount", int64(s.PaymentCount))
		integer(e, "deletedCount", int64(s.DeletedCount))
		integer(e, "reversedCount", int64(s.ReversedCount))
		e.ObjEnd()

		e.FieldStart("reported")
		e.ObjStart()
		money(e, "totalOrders", l.Reported.TotalOrders)
		money(e, "totalPaid", l.Reported.TotalPaid)
		money(e, "currentBalance", l.Reported.CurrentBalance)
		e.ObjEnd()

		if l.Mismatch != nil {
			str(e, "mismatch", l.Mismatch.Error())
		}
		encodeRecords(e, l.Projection.Active())

	case ledger.ViewDeleted:
		e.FieldStart("summary")
		e.ObjStart()
		money(e, "totalDeletedOrders", l.DeletedSummary.TotalDeletedOrders)
		money(e, "totalDeletedPayments", l.DeletedSummary.TotalDeletedPayments)
		integer(e, "deletedOrdersCount", int64(l.DeletedSummary.DeletedOrdersCount))
		integer(e, "deletedPaymentsCount", int64(l.DeletedSummary.DeletedPaymentsCount))
		e.ObjEnd()
		encodeRecords(e, l.Deleted)

	case ledger.ViewUpdates:
		e.FieldStart("updates")
		e.ArrStart()
		for _, u := range l.Updates {
			e.ObjStart()
			integer(e, "id", u.ID)
			str(e, "kind", string(u.Kind))
			integer(e, "entityId", u.EntityID)
			str(e, "description", u.Description)
			str(e, "updatedBy", u.UpdatedBy)
			timestamp(e, "updatedAt", u.UpdatedAt)
			e.FieldStart("diffs")
			e.ArrStart()
			for _, d := range u.Diffs {
				e.ObjStart()
				str(e, "field", d.Field)
				e.FieldStart("before")
				anyValue(e, d.Before)
				e.FieldStart("after")
				anyValue(e, d.After)
				e.ObjEnd()
			}
			e.ArrEnd()
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	e.ObjEnd()
}

func encodeDebtors(e *jx.Encoder, name string, ds []dashboard.Debtor) {
	e.FieldStart(name)
	e.ArrStart()
	for _, d := range ds {
		e.ObjStart()
		integer(e, "customerId", d.CustomerID)
		str(e, "name", d.Name)
		str(e, "phone", d.Phone)
		money(e, "totalOrders", d.TotalOrders)
		money(e, "totalPaid", d.TotalPaid)
		money(e, "outstandingBalance", d.OutstandingBalance)
		if d.LastPaymentDate != nil {
			timestamp(e, "lastPaymentDate", *d.LastPaymentDate)
		}
		integer(e, "daysSinceLastPayment", int64(d.DaysSinceLastPayment))
		str(e, "riskLevel", string(d.RiskLevel))
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeDashboard(e *jx.Encoder, s *dashboard.Snapshot) {
	e.ObjStart()
	encodeRange(e, s.Range)

	e.FieldStart("kpis")
	e.ObjStart()
	money(e, "grossRevenue", s.KPIs.GrossRevenue)
	money(e, "cashCollected", s.KPIs.CashCollected)
	money(e, "outstandingDebt", s.KPIs.OutstandingDebt)
	money(e, "totalDiscounts", s.KPIs.TotalDiscounts)
	integer(e, "activeCustomers", int64(s.KPIs.ActiveCustomers))
	e.ObjEnd()

	e.FieldStart("cashFlow")
	e.ObjStart()
	e.FieldStart("timeline")
	e.ArrStart()
	for _, p := range s.CashFlow.Timeline {
		e.ObjStart()
		str(e, "date", p.Date.Format(period.Layout))
		money(e, "revenue", p.Revenue)
		money(e, "cash", p.Cash)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("methods")
	e.ArrStart()
	for _, m := range dashboard.Legend(s.CashFlow.Methods) {
		e.ObjStart()
		str(e, "method", m.Method)
		money(e, "amount", m.Amount)
		str(e, "percent", m.Percent)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()

	e.FieldStart("alerts")
	e.ObjStart()
	e.FieldStart("risk")
	e.ObjStart()
	integer(e, "reversedOrVoidedPayments", int64(s.Alerts.Risk.ReversedOrVoidedPayments))
	integer(e, "deletedOrders", int64(s.Alerts.Risk.DeletedOrders))
	integer(e, "modifiedOrders", int64(s.Alerts.Risk.ModifiedOrders))
	e.ObjEnd()
	e.FieldStart("recent")
	e.ArrStart()
	for _, a := range s.Alerts.Recent {
		e.ObjStart()
		integer(e, "id", a.ID)
		str(e, "action", a.Action)
		str(e, "entityType", a.EntityType)
		integer(e, "entityId", a.EntityID)
		str(e, "user", a.User)
		timestamp(e, "date", a.Date)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()

	e.FieldStart("debt")
	e.ObjStart()
	encodeDebtors(e, "topDebtors", s.Debt.TopDebtors)
	encodeDebtors(e, "severelyOverdue", s.Debt.SeverelyOverdue)
	encodeDebtors(e, "regularGoodPayers", s.Debt.RegularGoodPayers)
	e.ObjEnd()

	e.FieldStart("topProducts")
	e.ArrStart()
	for _, p := range s.TopProducts {
		e.ObjStart()
		integer(e, "productId", p.ProductID)
		str(e, "name", p.Name)
		str(e, "sku", p.SKU)
		integer(e, "quantitySold", p.QuantitySold)
		money(e, "revenue", p.Revenue)
		money(e, "discountsOnItem", p.DiscountsOnItem)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeQuote(e *jx.Encoder, q *order.Quote) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range q.Items {
		e.ObjStart()
		integer(e, "productId", it.ProductID)
		str(e, "productName", it.ProductName)
		integer(e, "quantity", int64(it.Quantity))
		money(e, "unitPrice", it.UnitPrice)
		money(e, "subtotal", it.Subtotal)
		e.ObjEnd()
	}
	e.ArrEnd()
	money(e, "subtotal", q.Subtotal)
	money(e, "discount", q.Discount)
	money(e, "total", q.Total)
	e.ObjEnd()
}

func encodeIdentity(e *jx.Encoder, id *session.Identity, routes []session.Route) {
	e.ObjStart()
	str(e, "id", id.ID)
	str(e, "email", id.Email)
	str(e, "username", id.Username)
	str(e, "role", string(id.Role))
	timestamp(e, "expiresAt", id.ExpiresAt)
	str(e, "landing", string(session.Landing(id.Role)))
	e.FieldStart("routes")
	e.ArrStart()
	for _, r := range routes {
		e.Str(string(r))
	}
	e.ArrEnd()
	e.ObjEnd()
}

// writeData wraps the payload in the {"success":true,"data":...} envelope.
func writeData(w http.ResponseWriter, status int, data func(e *jx.Encoder)) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("success")
	e.Bool(true)
	e.FieldStart("data")
	data(&e)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
