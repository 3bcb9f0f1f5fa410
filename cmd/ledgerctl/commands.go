package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/salesledger/internal/domain/ledger"
	"github.com/xenking/salesledger/internal/domain/order"
	"github.com/xenking/salesledger/internal/domain/payment"
	"github.com/xenking/salesledger/internal/domain/period"
	"github.com/xenking/salesledger/internal/export"
	"github.com/xenking/salesledger/internal/session"
)

// require checks the signed-in user may open route.
func (c *cli) require(route session.Route) error {
	id := c.session.Identity()
	if id == nil || c.session.State() != session.Authenticated {
		return errors.New("not signed in: run ledgerctl login")
	}
	if !id.Can(route) {
		return errors.Errorf("role %s may not open %s", id.Role, route)
	}
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (LEDGER_PASSWORD)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("LEDGER_PASSWORD")
	}
	if *email == "" || *password == "" {
		return errors.New("login: -email and a password are required")
	}

	// A stored session cannot be logged into again; sign it out first.
	if c.session.State() != session.Anonymous {
		if err := c.session.Logout(); err != nil {
			return errors.Wrap(err, "drop previous session")
		}
	}
	tokens, _, err := c.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := c.session.Login(tokens); err != nil {
		return errors.Wrap(err, "store session")
	}

	id := c.session.Identity()
	zctx.From(ctx).Info("Signed in", zap.String("user_id", id.ID), zap.String("role", string(id.Role)))
	fmt.Fprintf(c.out, "Signed in as %s (%s). Start at: %s\n", id.Email, id.Role, session.Landing(id.Role))
	return nil
}

func (c *cli) logout() error {
	if c.session.State() == session.Anonymous {
		fmt.Fprintln(c.out, "Not signed in.")
		return nil
	}
	if err := c.session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out.")
	return nil
}

func (c *cli) whoami() error {
	id := c.session.Identity()
	if id == nil {
		fmt.Fprintln(c.out, "Not signed in.")
		return nil
	}
	printIdentity(c.out, id, c.session.State(), c.now())
	return nil
}

func (c *cli) ledger(ctx context.Context, args []string) error {
	fs := newFlags("ledger")
	view := fs.String("view", string(ledger.ViewActive), "active, deleted or updates")
	start := fs.String("start", "", "first day, YYYY-MM-DD")
	end := fs.String("end", "", "last day, YYYY-MM-DD")
	out := fs.String("export", "", "write a CSV statement to this file, - for stdout")
	gz := fs.Bool("gzip", false, "gzip the CSV statement")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.New("ledger: want exactly one customer id")
	}
	customerID, err := parseID(pos[0], "customer")
	if err != nil {
		return err
	}
	v, err := ledger.ParseView(*view)
	if err != nil {
		return err
	}
	rng, err := period.Parse(*start, *end)
	if err != nil {
		return err
	}
	if err := c.require(session.RouteCustomers); err != nil {
		return err
	}

	if err := c.ctl.OpenCustomer(ctx, customerID); err != nil {
		return err
	}
	if err := c.ctl.LoadLedger(ctx, customerID, rng, v); err != nil {
		return err
	}
	l := c.ctl.State().Ledger

	if *out == "" {
		printLedger(c.out, l, v)
		return nil
	}
	return c.exportStatement(l, *out, export.Options{Gzip: *gz, View: v})
}

func (c *cli) exportStatement(l *ledger.CustomerLedger, path string, opts export.Options) (rerr error) {
	var w io.Writer = c.out
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "create export file")
		}
		defer func() {
			if err := f.Close(); err != nil && rerr == nil {
				rerr = errors.Wrap(err, "close export file")
			}
		}()
		w = f
	}
	if err := export.WriteStatement(w, l, opts); err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(c.out, "Wrote %s\n", path)
	}
	return nil
}

func (c *cli) quote(args []string) error {
	fs := newFlags("quote")
	discount := fs.String("discount", "", "discount amount")
	typ := fs.String("type", string(order.DiscountFixed), "discount type: fixed or percentage")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	items, err := parseItems(pos)
	if err != nil {
		return err
	}
	disc, err := parseDiscount(*discount, *typ)
	if err != nil {
		return err
	}

	q, err := c.orders.Quote(items, disc)
	if err != nil {
		return err
	}
	printQuote(c.out, q)
	return nil
}

func (c *cli) order(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("order: want create, delete or restore")
	}
	sub, args := args[0], args[1:]
	if err := c.require(session.RouteOrders); err != nil {
		return err
	}

	switch sub {
	case "create":
		return c.createOrder(ctx, args)
	case "delete", "restore":
		customerID, id, err := customerAndID("order "+sub, "order", args)
		if err != nil {
			return err
		}
		if sub == "delete" {
			err = c.ctl.DeleteOrder(ctx, customerID, id)
		} else {
			err = c.ctl.RestoreOrder(ctx, customerID, id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Order %d %sd.\n", id, sub)
		return nil
	default:
		return errors.Errorf("order: unknown subcommand %q", sub)
	}
}

func (c *cli) createOrder(ctx context.Context, args []string) error {
	fs := newFlags("order create")
	customerID := fs.Int64("customer", 0, "customer id")
	discount := fs.String("discount", "", "discount amount")
	typ := fs.String("type", string(order.DiscountFixed), "discount type: fixed or percentage")
	paid := fs.String("pay", "", "payment taken with the order")
	method := fs.String("method", string(payment.MethodCash), "payment method")
	ref := fs.String("ref", "", "payment reference number")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if *customerID <= 0 {
		return errors.New("order create: -customer is required")
	}
	items, err := parseItems(pos)
	if err != nil {
		return err
	}
	for i, it := range items {
		if it.ProductID == 0 {
			return errors.Errorf("order create: item %d has no product id", i+1)
		}
	}
	disc, err := parseDiscount(*discount, *typ)
	if err != nil {
		return err
	}

	req := order.CreateRequest{CustomerID: *customerID, Items: items, Discount: disc}
	if *paid != "" {
		p, err := paymentRequest(*customerID, *paid, *method)
		if err != nil {
			return err
		}
		p.ReferenceNumber = *ref
		req.Payment = &p
	}

	res, err := c.ctl.PlaceOrder(ctx, req)
	if err != nil {
		return err
	}
	printInvoice(c.out, res.Order, order.InvoiceFor(res.Order))
	return nil
}

func paymentRequest(customerID int64, amount, method string) (payment.Request, error) {
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return payment.Request{}, errors.Errorf("invalid amount %q", amount)
	}
	m, err := payment.ParseMethod(method)
	if err != nil {
		return payment.Request{}, err
	}
	return payment.Request{CustomerID: customerID, Amount: a, Method: m}, nil
}

func (c *cli) pay(ctx context.Context, args []string) error {
	fs := newFlags("pay")
	customerID := fs.Int64("customer", 0, "customer id")
	amount := fs.String("amount", "", "amount paid")
	method := fs.String("method", string(payment.MethodCash), "payment method")
	ref := fs.String("ref", "", "reference number")
	notes := fs.String("notes", "", "notes")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	req, err := paymentRequest(*customerID, *amount, *method)
	if err != nil {
		return err
	}
	req.ReferenceNumber, req.Notes = *ref, *notes
	if err := c.require(session.RoutePayments); err != nil {
		return err
	}

	// Mount the ledger so the write refreshes it.
	if err := c.ctl.OpenCustomer(ctx, req.CustomerID); err != nil {
		return err
	}
	if err := c.ctl.LoadLedger(ctx, req.CustomerID, period.Range{}); err != nil {
		return err
	}
	p, err := c.ctl.RecordPayment(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Payment %d recorded: %s %s.\n", p.ID, p.Amount.StringFixed(2), p.Method)
	if l := c.ctl.State().Ledger; l != nil && l.Projection != nil && l.CustomerID == req.CustomerID {
		fmt.Fprintf(c.out, "Balance now %s.\n", l.Projection.Summary().CurrentBalance.StringFixed(2))
	}
	return nil
}

func (c *cli) reverse(ctx context.Context, args []string) error {
	fs := newFlags("reverse")
	reason := fs.String("reason", "", "why the payment is reversed")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.New("reverse: want exactly one payment id")
	}
	id, err := parseID(pos[0], "payment")
	if err != nil {
		return err
	}
	if err := c.require(session.RoutePayments); err != nil {
		return err
	}

	rev, err := c.ctl.ReversePayment(ctx, id, *reason)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Payment %d reversed by entry %d (%s).\n", id, rev.ID, rev.Amount.StringFixed(2))
	return nil
}

func (c *cli) payment(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("payment: want delete or restore")
	}
	sub, args := args[0], args[1:]
	if sub != "delete" && sub != "restore" {
		return errors.Errorf("payment: unknown subcommand %q", sub)
	}
	customerID, id, err := customerAndID("payment "+sub, "payment", args)
	if err != nil {
		return err
	}
	if err := c.require(session.RoutePayments); err != nil {
		return err
	}

	if sub == "delete" {
		err = c.ctl.DeletePayment(ctx, customerID, id)
	} else {
		err = c.ctl.RestorePayment(ctx, customerID, id)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Payment %d %sd.\n", id, sub)
	return nil
}

// customerAndID parses "-customer N <id>".
func customerAndID(name, what string, args []string) (customerID, id int64, err error) {
	fs := newFlags(name)
	cust := fs.Int64("customer", 0, "customer id")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return 0, 0, err
	}
	if *cust <= 0 {
		return 0, 0, errors.Errorf("%s: -customer is required", name)
	}
	if len(pos) != 1 {
		return 0, 0, errors.Errorf("%s: want exactly one %s id", name, what)
	}
	id, err = parseID(pos[0], what)
	if err != nil {
		return 0, 0, err
	}
	return *cust, id, nil
}

func (c *cli) dashboard(ctx context.Context, args []string) error {
	fs := newFlags("dashboard")
	start := fs.String("start", "", "first day, YYYY-MM-DD")
	end := fs.String("end", "", "last day, YYYY-MM-DD")
	limit := fs.Int("limit", 5, "rows per ranking")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	rng, err := period.Parse(*start, *end)
	if err != nil {
		return err
	}
	if err := c.require(session.RouteDashboard); err != nil {
		return err
	}

	if err := c.ctl.LoadDashboard(ctx, rng, *limit); err != nil {
		return err
	}
	printDashboard(c.out, c.ctl.State().Dashboard)
	return nil
}
