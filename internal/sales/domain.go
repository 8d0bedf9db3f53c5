// Package sales holds the order records produced by checkout and the read
// model over them.
package sales

import (
	"fmt"
	"time"

	"github.com/stockline/stockline/internal/shared"
)

// Transaction statuses. A transaction is inserted pending so its id exists
// before lines are priced, then finalized in the same database transaction.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s names a known transaction status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Transaction is one completed (or attempted) checkout. CartID points back
// at the archived cart it was produced from.
type Transaction struct {
	ID          int64     `json:"id"`
	CartID      int64     `json:"cart_id"`
	CustomerID  int64     `json:"customer_id"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionItem is a priced line snapshot. Name and unit price are copied
// from the catalog at checkout time so later edits do not rewrite history.
type TransactionItem struct {
	ID            int64   `json:"id"`
	TransactionID int64   `json:"-"`
	ProductID     int64   `json:"product_id"`
	ProductName   string  `json:"product_name"`
	UnitPrice     float64 `json:"unit_price"`
	Quantity      int64   `json:"quantity"`
	LineTotal     float64 `json:"line_total"`
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	CustomerID int64
	Status     string
	From       time.Time
	To         time.Time
	Page       int
	PerPage    int
}

var ErrTransactionNotFound = fmt.Errorf("transaction %w", shared.ErrNotFound)
