package main

import (
	"flag"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/order"
)

// newFlags returns a subcommand flag set that reports errors instead of
// exiting.
func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseArgs parses flags placed before, between or after positional
// arguments and returns the positionals in order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, errors.Wrap(err, fs.Name())
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

// parseItem reads a line written as [PRODUCT:]QTY@PRICE, e.g. 12:3@25.50.
// Without a product the line can only be quoted.
func parseItem(s string) (order.LineInput, error) {
	qty, price, ok := strings.Cut(s, "@")
	if !ok {
		return order.LineInput{}, errors.Errorf("item %q: want [PRODUCT:]QTY@PRICE", s)
	}

	var l order.LineInput
	if product, q, found := strings.Cut(qty, ":"); found {
		id, err := parseID(product, "product")
		if err != nil {
			return order.LineInput{}, errors.Wrapf(err, "item %q", s)
		}
		l.ProductID, qty = id, q
	}
	n, err := strconv.Atoi(qty)
	if err != nil {
		return order.LineInput{}, errors.Errorf("item %q: invalid quantity %q", s, qty)
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return order.LineInput{}, errors.Errorf("item %q: invalid price %q", s, price)
	}
	l.Quantity, l.UnitPrice = n, p
	return l, nil
}

func parseItems(args []string) ([]order.LineInput, error) {
	items := make([]order.LineInput, 0, len(args))
	for _, a := range args {
		it, err := parseItem(a)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// parseDiscount builds a discount; an empty amount means none.
func parseDiscount(amount, typ string) (*order.Discount, error) {
	if amount == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.Errorf("invalid discount %q", amount)
	}
	t, err := order.ParseDiscountType(typ)
	if err != nil {
		return nil, err
	}
	return &order.Discount{Amount: v, Type: t}, nil
}
