package model

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewCheck_TotalAndRest(t *testing.T) {
	products := []Product{
		{Name: "олія соняшникова", Price: d("7.77"), Quantity: d("1.337")},
		{Name: "борошно", Price: d("42.42"), Quantity: d("0.999")},
	}

	c := NewCheck(1, products, Payment{Type: PaymentCash, Amount: d("100.00")})

	assert.Equal(t, "10.39", products[0].LineTotal().StringFixed(2))
	assert.Equal(t, "42.38", products[1].LineTotal().StringFixed(2))
	assert.True(t, c.Total.Equal(d("52.77")), "total %s", c.Total)
	assert.True(t, c.Rest.Equal(d("47.23")), "rest %s", c.Rest)
	assert.Equal(t, int64(1), c.UserID)
}

func TestNewCheck_LineTotalsRoundedBeforeSum(t *testing.T) {
	// Each line is 0.005 -> 0.01; summing unrounded would give 0.01 instead of 0.02.
	products := []Product{
		{Name: "a", Price: d("0.01"), Quantity: d("0.5")},
		{Name: "b", Price: d("0.01"), Quantity: d("0.5")},
	}

	c := NewCheck(1, products, Payment{Type: PaymentCashless, Amount: d("0.01")})

	assert.True(t, c.Total.Equal(d("0.02")), "total %s", c.Total)
	assert.True(t, c.Rest.Equal(d("-0.01")), "rest %s", c.Rest)
}

func TestCheckTotal_Empty(t *testing.T) {
	assert.Equal(t, "0.00", CheckTotal(nil).StringFixed(2))
}

func TestParsePaymentType(t *testing.T) {
	pt, ok := ParsePaymentType("cash")
	require.True(t, ok)
	assert.Equal(t, "Готівка", pt.Label())

	pt, ok = ParsePaymentType("cashless")
	require.True(t, ok)
	assert.Equal(t, "Картка", pt.Label())

	_, ok = ParsePaymentType("wrong")
	assert.False(t, ok)
}

func TestNewPublicID(t *testing.T) {
	a, b := NewPublicID(), NewPublicID()

	assert.Len(t, a, 25)
	assert.True(t, strings.HasPrefix(a, "ch_"))
	assert.NotEqual(t, a, b)
}
