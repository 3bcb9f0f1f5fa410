package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/salesledger/internal/domain/order"
)

func TestParseArgs(t *testing.T) {
	fs := newFlags("ledger")
	view := fs.String("view", "active", "")
	gz := fs.Bool("gzip", false, "")

	pos, err := parseArgs(fs, []string{"7", "-view", "deleted", "extra", "-gzip"})
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "extra"}, pos)
	assert.Equal(t, "deleted", *view)
	assert.True(t, *gz)

	_, err = parseArgs(newFlags("ledger"), []string{"-nope"})
	require.Error(t, err)
}

func TestParseItem(t *testing.T) {
	it, err := parseItem("12:3@25.50")
	require.NoError(t, err)
	assert.Equal(t, int64(12), it.ProductID)
	assert.Equal(t, 3, it.Quantity)
	assert.True(t, decimal.RequireFromString("25.5").Equal(it.UnitPrice))

	it, err = parseItem("2@4")
	require.NoError(t, err)
	assert.Zero(t, it.ProductID)
	assert.Equal(t, 2, it.Quantity)

	for _, bad := range []string{"12", "12:3", "x:3@1", "12:x@1", "12:3@abc", "0:1@1"} {
		_, err := parseItem(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseItems_QuoteTotals(t *testing.T) {
	items, err := parseItems([]string{"1:2@10", "2:1@5.25"})
	require.NoError(t, err)

	q, err := order.Build(items, nil)
	require.NoError(t, err)
	assert.Equal(t, "25.25", q.Total.StringFixed(2))
}

func TestParseDiscount(t *testing.T) {
	d, err := parseDiscount("", "fixed")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDiscount("15", "percentage")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, order.DiscountPercentage, d.Type)
	assert.True(t, decimal.NewFromInt(15).Equal(d.Amount))

	_, err = parseDiscount("15", "bogo")
	require.ErrorIs(t, err, order.ErrInvalidDiscount)

	_, err = parseDiscount("lots", "fixed")
	require.Error(t, err)
}
