package model

import (
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fsanano/checkout/internal/money"
)

type PaymentType string

const (
	PaymentCash     PaymentType = "cash"
	PaymentCashless PaymentType = "cashless"
)

var paymentLabels = map[PaymentType]string{
	PaymentCash:     "Готівка",
	PaymentCashless: "Картка",
}

// ParsePaymentType accepts only the known payment methods.
func ParsePaymentType(s string) (PaymentType, bool) {
	pt := PaymentType(s)
	_, ok := paymentLabels[pt]
	return pt, ok
}

// Label is the name printed on receipts.
func (t PaymentType) Label() string {
	return paymentLabels[t]
}

type Product struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// LineTotal is price * quantity rounded to cents.
func (p Product) LineTotal() decimal.Decimal {
	return money.Quantize(p.Price.Mul(p.Quantity))
}

type Payment struct {
	Type   PaymentType     `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type Check struct {
	ID        int64           `json:"-"`
	PublicID  string          `json:"id"`
	UserID    int64           `json:"-"`
	Products  []Product       `json:"products"`
	Payment   Payment         `json:"payment"`
	Total     decimal.Decimal `json:"total"`
	Rest      decimal.Decimal `json:"rest"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewCheck builds an unsaved check and derives Total and Rest from the products
// and payment. A negative Rest is returned as is; rejecting it is up to the caller.
func NewCheck(userID int64, products []Product, payment Payment) Check {
	total := CheckTotal(products)
	return Check{
		PublicID: NewPublicID(),
		UserID:   userID,
		Products: products,
		Payment:  payment,
		Total:    total,
		Rest:     money.Quantize(payment.Amount.Sub(total)),
	}
}

// CheckTotal sums the rounded line totals. An empty list yields 0.00.
func CheckTotal(products []Product) decimal.Decimal {
	total := money.Zero
	for _, p := range products {
		total = total.Add(p.LineTotal())
	}
	return money.Quantize(total)
}

const publicIDLen = 22

// NewPublicID returns "ch_" followed by a random UUID in base62, zero padded to 22 chars.
func NewPublicID() string {
	id := uuid.New()
	n := new(big.Int).SetBytes(id[:])
	s := n.Text(62)
	if len(s) < publicIDLen {
		s = strings.Repeat("0", publicIDLen-len(s)) + s
	}
	return "ch_" + s
}
