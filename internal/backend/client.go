// Package backend is the typed client for the remote restaurant backend.
// All business logic (pricing authority, persistence, shift assignment)
// lives behind it; this process never assumes a write succeeded until the
// backend confirms it.
package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/guonaihong/gout"
	"github.com/spf13/cast"

	"nabilpos/internal/domain"
)

type Client struct {
	base    string
	token   string
	timeout time.Duration

	// latest-wins handle for the report listing fetch
	mu           sync.Mutex
	reportCancel context.CancelFunc
}

func New(base, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{base: base, token: token, timeout: timeout}
}

func (c *Client) headers() gout.H {
	return gout.H{
		"Authorization": "Bearer " + c.token,
		"Content-Type":  "application/json",
		"Accept":        "application/json",
	}
}

func statusErr(path string, code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	return fmt.Errorf("backend: %s returned %d", path, code)
}

// wireProduct tolerates the backend's loose typing: codes may be numbers or
// null, prices arrive as strings.
type wireProduct struct {
	ID       int64  `json:"id"`
	Code     any    `json:"code"`
	Name     string `json:"name"`
	Price    any    `json:"price"`
	Category *struct {
		Name string `json:"name"`
	} `json:"category"`
}

// Products fetches the catalog snapshot. Missing codes are padded from the
// row index; a missing category maps to "Uncategorized".
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var raw []wireProduct
	var code int
	err := gout.GET(c.base+"/api/get-products").
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(c.headers()).
		BindJSON(&raw).
		Code(&code).
		Do()
	if err != nil {
		return nil, err
	}
	if err := statusErr("/api/get-products", code); err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0, len(raw))
	for i, w := range raw {
		p := domain.Product{
			ID:       w.ID,
			Code:     cast.ToString(w.Code),
			Name:     w.Name,
			Price:    cast.ToFloat64(w.Price),
			Category: "Uncategorized",
		}
		if p.Code == "" {
			p.Code = fmt.Sprintf("%02d", i)
		}
		if w.Category != nil && w.Category.Name != "" {
			p.Category = w.Category.Name
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	var code int
	err := gout.GET(c.base+"/api/categories").
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(c.headers()).
		BindJSON(&cats).
		Code(&code).
		Do()
	if err != nil {
		return nil, err
	}
	if err := statusErr("/api/categories", code); err != nil {
		return nil, err
	}
	return cats, nil
}

// User fetches the operator profile, including the embedded shift window for
// counter roles.
func (c *Client) User(ctx context.Context) (*domain.Operator, error) {
	var resp struct {
		User *domain.Operator `json:"user"`
	}
	var code int
	err := gout.GET(c.base+"/api/user").
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(c.headers()).
		BindJSON(&resp).
		Code(&code).
		Do()
	if err != nil {
		return nil, err
	}
	if err := statusErr("/api/user", code); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("backend: /api/user returned no user")
	}
	return resp.User, nil
}

// PreviousOrder is display-only data; callers treat failures as ignorable.
func (c *Client) PreviousOrder(ctx context.Context) (domain.PreviousOrder, error) {
	var prev domain.PreviousOrder
	var code int
	err := gout.GET(c.base+"/api/previous-order-amount").
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(c.headers()).
		BindJSON(&prev).
		Code(&code).
		Do()
	if err != nil {
		return domain.PreviousOrder{}, err
	}
	if err := statusErr("/api/previous-order-amount", code); err != nil {
		return domain.PreviousOrder{}, err
	}
	return prev, nil
}

// SubmitSale persists one sale. The request's transaction id makes retries
// idempotent; a response with duplicate=true carries the original sale and
// is handled by callers exactly like a fresh success.
func (c *Client) SubmitSale(ctx context.Context, req domain.SaleRequest) (*domain.SaleResponse, error) {
	var resp domain.SaleResponse
	var code int
	err := gout.POST(c.base+"/api/sales").
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(c.headers()).
		SetJSON(req).
		BindJSON(&resp).
		Code(&code).
		Do()
	if err != nil {
		return nil, err
	}
	if err := statusErr("/api/sales", code); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReportParams filter the shift sales report.
type ReportParams struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// ReportRow is one line of the sales report listing.
type ReportRow struct {
	OrderNumber   string  `json:"order_number"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
	CreatedAt     string  `json:"created_at"`
}

// SalesReport fetches the report listing with latest-request-wins
// semantics: requesting again with new parameters cancels the previous
// in-flight fetch so a stale response can never overwrite a newer one.
func (c *Client) SalesReport(params ReportParams) ([]ReportRow, error) {
	c.mu.Lock()
	if c.reportCancel != nil {
		c.reportCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.reportCancel = cancel
	c.mu.Unlock()
	defer cancel()

	var rows []ReportRow
	var code int
	err := gout.GET(c.base+"/api/sales-report").
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(c.headers()).
		SetQuery(gout.H{"from": params.From, "to": params.To}).
		BindJSON(&rows).
		Code(&code).
		Do()
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, context.Canceled
		}
		return nil, err
	}
	if err := statusErr("/api/sales-report", code); err != nil {
		return nil, err
	}
	return rows, nil
}
