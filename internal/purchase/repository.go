// AngelaMos | 2026
// repository.go

package purchase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/bloghub/internal/core"
)

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id string) (*Transaction, error)
	AttachOrder(ctx context.Context, id, orderID string) error
	MarkPaid(ctx context.Context, id, paymentID, receiptURL string) (bool, error)
	MarkFailed(ctx context.Context, id, paymentID string) (bool, error)
	SweepStale(ctx context.Context, cutoff time.Time) (int64, error)
	HasPaid(ctx context.Context, userID, pdfID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]UserTransaction, error)
	ListAll(ctx context.Context, params ListTransactionsParams) ([]AdminTransaction, int, error)

	TotalRevenue(ctx context.Context) (core.Cents, int, error)
	Buyers(ctx context.Context) (int, error)
	MonthlyRevenue(ctx context.Context, since time.Time) ([]MonthlyRevenue, error)
	TopPDFs(ctx context.Context, limit int) ([]TopPDF, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const transactionColumns = `t.id, t.user_id, t.pdf_id, t.blog_id, t.amount_cents,
		       t.payment_status, t.payment_method, t.gateway_order_id,
		       t.gateway_payment_id, t.receipt_url, t.created_at, t.updated_at`

func (r *repository) Create(ctx context.Context, t *Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, pdf_id, blog_id, amount_cents,
		                          payment_status, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.UserID,
		t.PDFID,
		t.BlogID,
		t.AmountCents,
		t.PaymentStatus,
		t.PaymentMethod,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("create transaction: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create transaction: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions t WHERE t.id = $1`

	var t Transaction
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get transaction: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	return &t, nil
}

// AttachOrder records the gateway order id while the transaction is
// still Pending.
func (r *repository) AttachOrder(ctx context.Context, id, orderID string) error {
	query := `
		UPDATE transactions
		SET gateway_order_id = $2, updated_at = NOW()
		WHERE id = $1 AND payment_status = 'Pending'`

	result, err := r.db.ExecContext(ctx, query, id, orderID)
	if err != nil {
		return fmt.Errorf("attach order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach order: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("attach order: %w", core.ErrInvalidState)
	}

	return nil
}

// MarkPaid moves Pending to Paid. It reports false when another caller
// already moved the row.
func (r *repository) MarkPaid(
	ctx context.Context,
	id, paymentID, receiptURL string,
) (bool, error) {
	query := `
		UPDATE transactions
		SET payment_status = 'Paid',
		    gateway_payment_id = $2,
		    receipt_url = $3,
		    updated_at = NOW()
		WHERE id = $1 AND payment_status = 'Pending'`

	return r.transition(ctx, "mark paid", query, id, paymentID, receiptURL)
}

func (r *repository) MarkFailed(
	ctx context.Context,
	id, paymentID string,
) (bool, error) {
	query := `
		UPDATE transactions
		SET payment_status = 'Failed',
		    gateway_payment_id = $2,
		    updated_at = NOW()
		WHERE id = $1 AND payment_status = 'Pending'`

	return r.transition(ctx, "mark failed", query, id, paymentID)
}

func (r *repository) transition(
	ctx context.Context,
	op, query string,
	args ...any,
) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return rows == 1, nil
}

func (r *repository) SweepStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE transactions
		SET payment_status = 'Failed', updated_at = NOW()
		WHERE payment_status = 'Pending' AND created_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep stale transactions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep stale transactions: %w", err)
	}

	return rows, nil
}

func (r *repository) HasPaid(ctx context.Context, userID, pdfID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE user_id = $1 AND pdf_id = $2 AND payment_status = 'Paid'
		)`

	var paid bool
	if err := r.db.GetContext(ctx, &paid, query, userID, pdfID); err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}

	return paid, nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID string,
) ([]UserTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `, b.title AS blog_title
		FROM transactions t
		JOIN blogs b ON b.id = t.blog_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC`

	var out []UserTransaction
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list user transactions: %w", err)
	}

	return out, nil
}

func (r *repository) ListAll(
	ctx context.Context,
	params ListTransactionsParams,
) ([]AdminTransaction, int, error) {
	params.Normalize()

	where := "TRUE"
	var args []any
	if params.Status != "" {
		where = "t.payment_status = $1"
		args = append(args, params.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions t WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+transactionColumns+`,
		       b.title AS blog_title,
		       u.name AS user_name,
		       u.email AS user_email
		FROM transactions t
		JOIN blogs b ON b.id = t.blog_id
		JOIN users u ON u.id = t.user_id
		WHERE %s
		ORDER BY t.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, params.Offset())

	var out []AdminTransaction
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	return out, total, nil
}

func (r *repository) TotalRevenue(ctx context.Context) (core.Cents, int, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0) AS revenue_cents, COUNT(*) AS sales
		FROM transactions
		WHERE payment_status = 'Paid'`

	var row struct {
		RevenueCents core.Cents `db:"revenue_cents"`
		Sales        int        `db:"sales"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("total revenue: %w", err)
	}

	return row.RevenueCents, row.Sales, nil
}

func (r *repository) Buyers(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(DISTINCT user_id)
		FROM transactions
		WHERE payment_status = 'Paid'`

	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count buyers: %w", err)
	}

	return count, nil
}

// MonthlyRevenue groups settled sales by the month they were paid in.
func (r *repository) MonthlyRevenue(
	ctx context.Context,
	since time.Time,
) ([]MonthlyRevenue, error) {
	query := `
		SELECT to_char(date_trunc('month', updated_at AT TIME ZONE 'UTC'), 'YYYY-MM') AS month,
		       SUM(amount_cents) AS revenue_cents,
		       COUNT(*) AS sales
		FROM transactions
		WHERE payment_status = 'Paid' AND updated_at >= $1
		GROUP BY 1
		ORDER BY 1`

	var out []MonthlyRevenue
	if err := r.db.SelectContext(ctx, &out, query, since); err != nil {
		return nil, fmt.Errorf("monthly revenue: %w", err)
	}

	return out, nil
}

func (r *repository) TopPDFs(ctx context.Context, limit int) ([]TopPDF, error) {
	query := `
		SELECT t.pdf_id, t.blog_id, b.title AS blog_title,
		       COUNT(*) AS downloads,
		       SUM(t.amount_cents) AS revenue_cents
		FROM transactions t
		JOIN blogs b ON b.id = t.blog_id
		WHERE t.payment_status = 'Paid'
		GROUP BY t.pdf_id, t.blog_id, b.title
		ORDER BY downloads DESC, revenue_cents DESC, t.pdf_id
		LIMIT $1`

	var out []TopPDF
	if err := r.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("top pdfs: %w", err)
	}

	return out, nil
}
