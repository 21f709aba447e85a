package domain

// Product is read-only reference data fetched from the restaurant backend.
// A code is unique within one loaded catalog but not guaranteed stable
// across reloads.
type Product struct {
	ID       int64   `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// OrderRow is one line of the in-progress order. Code may be empty or match
// no product ("invalid" is representable state, checked at submission).
// Qty is the raw string the operator typed; empty means unset, which is not
// the same thing as zero.
type OrderRow struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Qty  string `json:"qty"`
}

type SaleItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Subtotal  float64 `json:"subtotal"`
}

// SaleRequest is the POST /api/sales payload. TransactionID is the
// client-generated idempotency token; the backend collapses retries carrying
// the same one into a single persisted sale.
type SaleRequest struct {
	Items         []SaleItem `json:"items"`
	TotalAmount   float64    `json:"total_amount"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method"`
	CustomerName  string     `json:"customer_name"`
	TransactionID string     `json:"transaction_id"`
}

// Sale is the backend's persisted view of a submitted order.
type Sale struct {
	ID            int64      `json:"id"`
	OrderNumber   string     `json:"order_number"`
	Items         []SaleItem `json:"items"`
	TotalAmount   float64    `json:"total_amount"`
	CreatedAt     string     `json:"created_at"`
	PaymentMethod string     `json:"payment_method"`
	User          *Operator  `json:"user,omitempty"`
}

// SaleResponse wraps the backend reply. Duplicate means the backend
// recognized a retried transaction id and returned the original sale; the
// client treats that identically to a fresh success.
type SaleResponse struct {
	Sale      *Sale `json:"sale"`
	Duplicate bool  `json:"duplicate,omitempty"`
}

type PreviousOrder struct {
	Amount      float64 `json:"previous_amount"`
	OrderNumber string  `json:"order_number"`
}
