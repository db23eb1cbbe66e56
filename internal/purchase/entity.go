// AngelaMos | 2026
// entity.go

package purchase

import (
	"time"

	"github.com/carterperez-dev/bloghub/internal/core"
)

type Status string

const (
	StatusPending Status = "Pending"
	StatusPaid    Status = "Paid"
	StatusFailed  Status = "Failed"
)

func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusFailed
}

// CanTransition holds the whole state machine: Pending moves to Paid or
// Failed exactly once, and terminal states never move.
func (s Status) CanTransition(to Status) bool {
	return s == StatusPending && to.Terminal()
}

type Transaction struct {
	ID               string     `db:"id"`
	UserID           string     `db:"user_id"`
	PDFID            string     `db:"pdf_id"`
	BlogID           string     `db:"blog_id"`
	AmountCents      core.Cents `db:"amount_cents"`
	PaymentStatus    Status     `db:"payment_status"`
	PaymentMethod    string     `db:"payment_method"`
	GatewayOrderID   *string    `db:"gateway_order_id"`
	GatewayPaymentID *string    `db:"gateway_payment_id"`
	ReceiptURL       *string    `db:"receipt_url"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// OrderMatches reports whether orderID is the gateway order recorded for
// this transaction.
func (t *Transaction) OrderMatches(orderID string) bool {
	return t.GatewayOrderID != nil && *t.GatewayOrderID != "" && *t.GatewayOrderID == orderID
}

type UserTransaction struct {
	Transaction
	BlogTitle string `db:"blog_title"`
}

type AdminTransaction struct {
	Transaction
	BlogTitle string `db:"blog_title"`
	UserName  string `db:"user_name"`
	UserEmail string `db:"user_email"`
}

type MonthlyRevenue struct {
	Month        string     `db:"month"`
	RevenueCents core.Cents `db:"revenue_cents"`
	Sales        int        `db:"sales"`
}

type TopPDF struct {
	PDFID        string     `db:"pdf_id"`
	BlogID       string     `db:"blog_id"`
	BlogTitle    string     `db:"blog_title"`
	Downloads    int        `db:"downloads"`
	RevenueCents core.Cents `db:"revenue_cents"`
}
