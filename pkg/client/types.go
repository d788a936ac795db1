package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

type Payment struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// CheckInput is the body of a create request.
type CheckInput struct {
	Products []ProductInput `json:"products"`
	Payment  Payment        `json:"payment"`
}

type ProductInput struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

type Check struct {
	ID        string          `json:"id"`
	Products  []Product       `json:"products"`
	Payment   Payment         `json:"payment"`
	Total     decimal.Decimal `json:"total"`
	Rest      decimal.Decimal `json:"rest"`
	CreatedAt time.Time       `json:"created_at"`
	PublicURL string          `json:"public_url"`
}

type Page struct {
	Items    []Check `json:"items"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Total    int     `json:"total"`
	Pages    int     `json:"pages"`
	HasNext  bool    `json:"has_next"`
	HasPrev  bool    `json:"has_prev"`
}

// ErrorResponse is a non-2xx answer from the API. Detail is either a message
// or a list of field errors.
type ErrorResponse struct {
	StatusCode int             `json:"-"`
	Detail     json.RawMessage `json:"detail"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("checkout api error: status %d: %s", e.StatusCode, e.Detail)
}
