package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/xenking/salesledger/internal/domain/dashboard"
	"github.com/xenking/salesledger/internal/domain/ledger"
	"github.com/xenking/salesledger/internal/domain/order"
	"github.com/xenking/salesledger/internal/export"
	"github.com/xenking/salesledger/internal/session"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printIdentity(w io.Writer, id *session.Identity, st session.State, now time.Time) {
	fmt.Fprintf(w, "%s <%s>\n", id.Username, id.Email)
	fmt.Fprintf(w, "role:    %s\n", id.Role)
	fmt.Fprintf(w, "session: %s\n", st)
	if !id.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "expires: %s (in %s)\n", id.ExpiresAt.Format(time.RFC3339), id.ExpiresAt.Sub(now).Round(time.Second))
	}
	routes := session.Routes(id.Role)
	names := make([]string, len(routes))
	for i, r := range routes {
		names[i] = string(r)
	}
	fmt.Fprintf(w, "routes:  %s\n", strings.Join(names, ", "))
}

func printLedger(w io.Writer, l *ledger.CustomerLedger, view ledger.View) {
	fmt.Fprintf(w, "%s (#%d)", l.CustomerName, l.CustomerID)
	if s, e := l.Range.StartString(), l.Range.EndString(); s != "" || e != "" {
		fmt.Fprintf(w, " %s..%s", s, e)
	}
	fmt.Fprintln(w)

	switch view {
	case ledger.ViewUpdates:
		printUpdates(w, l.Updates)
		return
	case ledger.ViewDeleted:
		s := l.DeletedSummary
		fmt.Fprintf(w, "deleted orders: %d (%s)  deleted payments: %d (%s)\n\n",
			s.DeletedOrdersCount, s.TotalDeletedOrders.StringFixed(2),
			s.DeletedPaymentsCount, s.TotalDeletedPayments.StringFixed(2))
		printRecords(w, l.Deleted)
		return
	}

	s := l.Projection.Summary()
	fmt.Fprintf(w, "opening %s  orders %s  paid %s  balance %s\n",
		s.Opening.StringFixed(2), s.TotalOrders.StringFixed(2),
		s.TotalPaid.StringFixed(2), s.CurrentBalance.StringFixed(2))
	if l.Mismatch != nil {
		fmt.Fprintf(w, "warning: %v\n", l.Mismatch)
	}
	fmt.Fprintln(w)
	printRecords(w, l.Projection.Active())
}

func printRecords(w io.Writer, records []ledger.Record) {
	tw := table(w)
	fmt.Fprintln(tw, "DATE\tKIND\tDESCRIPTION\tAMOUNT\tSTATUS\tBALANCE")
	for _, r := range records {
		amount := r.Amount.StringFixed(2)
		if r.Struck {
			amount = "~" + amount + "~"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Date.Format(export.DateLayout), r.Kind, r.Description, amount, r.Status, r.Balance.StringFixed(2))
	}
	_ = tw.Flush()
}

func printUpdates(w io.Writer, updates []ledger.Update) {
	if len(updates) == 0 {
		fmt.Fprintln(w, "No updates.")
		return
	}
	for _, u := range updates {
		fmt.Fprintf(w, "%s  %s #%d by %s: %s\n",
			u.UpdatedAt.Format(export.DateLayout), u.Kind, u.EntityID, u.UpdatedBy, u.Description)
		for _, d := range u.Diffs {
			fmt.Fprintf(w, "    %s: %v -> %v\n", d.Field, d.Before, d.After)
		}
	}
}

func printQuote(w io.Writer, q *order.Quote) {
	tw := table(w)
	fmt.Fprintln(tw, "PRODUCT\tQTY\tPRICE\tSUBTOTAL")
	for _, it := range q.Items {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", it.ProductID, it.Quantity, it.UnitPrice.StringFixed(2), it.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\tsubtotal\t%s\n", q.Subtotal.StringFixed(2))
	fmt.Fprintf(tw, "\t\tdiscount\t%s\n", q.Discount.StringFixed(2))
	fmt.Fprintf(tw, "\t\ttotal\t%s\n", q.Total.StringFixed(2))
	_ = tw.Flush()
}

func printInvoice(w io.Writer, o *order.Order, inv order.Invoice) {
	fmt.Fprintf(w, "Order %d for customer %d\n", o.ID, o.CustomerID)
	tw := table(w)
	fmt.Fprintf(tw, "statement value\t%s\n", inv.StatementValue.StringFixed(2))
	fmt.Fprintf(tw, "discount\t%s\n", inv.Discount.StringFixed(2))
	fmt.Fprintf(tw, "total\t%s\n", inv.Total.StringFixed(2))
	fmt.Fprintf(tw, "items\t%d\n", inv.TotalQuantity)
	fmt.Fprintf(tw, "remaining\t%s\n", inv.Remaining.StringFixed(2))
	if o.CurrentTotalBalance != nil {
		fmt.Fprintf(tw, "previous balance\t%s\n", inv.PreviousBalance.StringFixed(2))
		fmt.Fprintf(tw, "current balance\t%s\n", inv.CurrentBalance.StringFixed(2))
	}
	_ = tw.Flush()
}

func printDashboard(w io.Writer, s *dashboard.Snapshot) {
	if s == nil {
		return
	}
	if st, e := s.Range.StartString(), s.Range.EndString(); st != "" || e != "" {
		fmt.Fprintf(w, "Period %s..%s\n", st, e)
	}
	if k := s.KPIs; k != nil {
		tw := table(w)
		fmt.Fprintf(tw, "gross revenue\t%s\n", k.GrossRevenue.StringFixed(2))
		fmt.Fprintf(tw, "cash collected\t%s\n", k.CashCollected.StringFixed(2))
		fmt.Fprintf(tw, "outstanding debt\t%s\n", k.OutstandingDebt.StringFixed(2))
		fmt.Fprintf(tw, "discounts\t%s\n", k.TotalDiscounts.StringFixed(2))
		fmt.Fprintf(tw, "active customers\t%d\n", k.ActiveCustomers)
		_ = tw.Flush()
	}
	if cf := s.CashFlow; cf != nil && len(cf.Methods) > 0 {
		fmt.Fprintln(w, "\nPayment methods")
		tw := table(w)
		for _, m := range dashboard.Legend(cf.Methods) {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Method, m.Amount.StringFixed(2), m.Percent)
		}
		_ = tw.Flush()
	}
	if a := s.Alerts; a != nil {
		fmt.Fprintf(w, "\nAlerts: %d reversed or voided payments, %d deleted orders, %d modified orders\n",
			a.Risk.ReversedOrVoidedPayments, a.Risk.DeletedOrders, a.Risk.ModifiedOrders)
	}
	if d := s.Debt; d != nil && len(d.TopDebtors) > 0 {
		fmt.Fprintln(w, "\nTop debtors")
		tw := table(w)
		for _, db := range d.TopDebtors {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", db.Name, db.OutstandingBalance.StringFixed(2), db.RiskLevel)
		}
		_ = tw.Flush()
	}
	if len(s.TopProducts) > 0 {
		fmt.Fprintln(w, "\nTop products")
		tw := table(w)
		for _, p := range s.TopProducts {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Name, p.QuantitySold, p.Revenue.StringFixed(2))
		}
		_ = tw.Flush()
	}
}
