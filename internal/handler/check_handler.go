package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fsanano/checkout/internal/listquery"
	"fsanano/checkout/internal/model"
	"fsanano/checkout/internal/money"
	"fsanano/checkout/internal/receipt"
	"fsanano/checkout/internal/service"
)

type productRequest struct {
	Name     string           `json:"name" validate:"min=1,max=255"`
	Price    *decimal.Decimal `json:"price" validate:"required,nonnegative,places=2"`
	Quantity *decimal.Decimal `json:"quantity" validate:"required,nonnegative,places=3"`
}

type paymentRequest struct {
	Type   string           `json:"type" validate:"oneof=cash cashless"`
	Amount *decimal.Decimal `json:"amount" validate:"required,nonnegative,places=2"`
}

type checkRequest struct {
	Products []productRequest `json:"products" validate:"required,min=1,dive"`
	Payment  *paymentRequest  `json:"payment" validate:"required"`
}

type productResponse struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Total    string `json:"total"`
}

type paymentResponse struct {
	Type   model.PaymentType `json:"type"`
	Amount string            `json:"amount"`
}

type checkResponse struct {
	ID        string            `json:"id"`
	Products  []productResponse `json:"products"`
	Payment   paymentResponse   `json:"payment"`
	Total     string            `json:"total"`
	Rest      string            `json:"rest"`
	CreatedAt string            `json:"created_at"`
	PublicURL string            `json:"public_url"`
}

type pageResponse struct {
	Items    []checkResponse `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int             `json:"total"`
	Pages    int             `json:"pages"`
	HasNext  bool            `json:"has_next"`
	HasPrev  bool            `json:"has_prev"`
}

func (h *Handler) toCheckResponse(c *model.Check) checkResponse {
	products := make([]productResponse, 0, len(c.Products))
	for _, p := range c.Products {
		products = append(products, productResponse{
			Name:     p.Name,
			Price:    money.FormatPlain(p.Price, money.Places),
			Quantity: money.FormatPlain(p.Quantity, money.QuantityPlaces),
			Total:    money.FormatPlain(p.LineTotal(), money.Places),
		})
	}

	return checkResponse{
		ID:       c.PublicID,
		Products: products,
		Payment: paymentResponse{
			Type:   c.Payment.Type,
			Amount: money.FormatPlain(c.Payment.Amount, money.Places),
		},
		Total:     money.FormatPlain(c.Total, money.Places),
		Rest:      money.FormatPlain(c.Rest, money.Places),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		PublicURL: fmt.Sprintf("%s/checks/%s/view", h.hostURL, c.PublicID),
	}
}

func (h *Handler) CreateCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	for i := range req.Products {
		req.Products[i].Name = strings.TrimSpace(req.Products[i].Name)
	}
	if err := h.check(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	products := make([]model.Product, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, model.Product{Name: p.Name, Price: *p.Price, Quantity: *p.Quantity})
	}
	payment := model.Payment{Type: model.PaymentType(req.Payment.Type), Amount: *req.Payment.Amount}

	c, err := h.checks.Create(r.Context(), currentUser(r.Context()), products, payment)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toCheckResponse(c))
}

func (h *Handler) ListChecks(w http.ResponseWriter, r *http.Request) {
	q, err := listParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.checks.List(r.Context(), currentUser(r.Context()), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	items := make([]checkResponse, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, h.toCheckResponse(&res.Items[i]))
	}
	writeJSON(w, http.StatusOK, pageResponse{
		Items:    items,
		Page:     res.Page,
		PageSize: res.PageSize,
		Total:    res.Total,
		Pages:    res.Pages(),
		HasNext:  res.HasNext(),
		HasPrev:  res.HasPrev(),
	})
}

// listParams reads filters, order and paging from the query string.
func listParams(r *http.Request) (listquery.Query, error) {
	values := r.URL.Query()

	var fields []fieldError
	page, ok := intParam(values.Get("page"), listquery.DefaultPage)
	if !ok || page < 1 {
		fields = append(fields, newFieldError("Input should be greater than or equal to 1", "query", "page"))
	}
	size, ok := intParam(values.Get("page_size"), listquery.DefaultPageSize)
	if !ok || size < 1 || size > listquery.MaxPageSize {
		fields = append(fields, newFieldError(
			fmt.Sprintf("Input should be between 1 and %d", listquery.MaxPageSize), "query", "page_size"))
	}
	if len(fields) > 0 {
		return listquery.Query{}, invalid(fields...)
	}

	spec, err := listquery.ParseFilters(values)
	if err != nil {
		return listquery.Query{}, err
	}

	q, err := listquery.Build(listquery.Params{
		Filters:  spec,
		Order:    values.Get("order"),
		Page:     page,
		PageSize: size,
	})
	var unknown *listquery.UnknownFieldError
	if errors.As(err, &unknown) && unknown.Name == values.Get("order") {
		return listquery.Query{}, invalid(newFieldError(
			"Input should be 'created_at', '-created_at', 'total' or '-total'", "query", "order"))
	}
	return q, err
}

func intParam(raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

func (h *Handler) GetCheck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "checkID")

	c, err := h.checks.Get(r.Context(), currentUser(r.Context()), id)
	if err != nil {
		h.fail(w, r, checkNotFound(err, id))
		return
	}

	writeJSON(w, http.StatusOK, h.toCheckResponse(c))
}

// ViewCheck renders the public text receipt. No authentication is required.
func (h *Handler) ViewCheck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "checkID")

	width, ok := intParam(r.URL.Query().Get("width"), receipt.DefaultWidth)
	if !ok || width < receipt.MinWidth || width > receipt.MaxWidth {
		h.fail(w, r, invalid(newFieldError(
			fmt.Sprintf("Input should be between %d and %d", receipt.MinWidth, receipt.MaxWidth), "query", "width")))
		return
	}

	text, err := h.checks.View(r.Context(), id, width)
	if err != nil {
		h.fail(w, r, checkNotFound(err, id))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

func checkNotFound(err error, id string) error {
	if errors.Is(err, service.ErrNotFound) {
		return &httpError{status: http.StatusNotFound, detail: fmt.Sprintf("Check with id '%s' not found", id)}
	}
	return err
}
