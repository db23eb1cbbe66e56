// AngelaMos | 2026
// service.go

package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/bloghub/internal/access"
	"github.com/carterperez-dev/bloghub/internal/blog"
	"github.com/carterperez-dev/bloghub/internal/core"
	"github.com/carterperez-dev/bloghub/internal/notify"
	"github.com/carterperez-dev/bloghub/internal/payment"
	"github.com/carterperez-dev/bloghub/internal/pdf"
	"github.com/carterperez-dev/bloghub/internal/user"
)

type Gateway interface {
	Name() string
	KeyID() string
	CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*payment.Payment, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type PDFLookup interface {
	GetByID(ctx context.Context, id string) (*pdf.PDF, error)
}

type BlogLookup interface {
	GetByID(ctx context.Context, id string) (*blog.Blog, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg notify.Message) bool
}

type Options struct {
	Currency       string
	ReceiptBaseURL string
	CheckoutURL    string
	Metrics        *Metrics
	Now            func() time.Time
}

type Service struct {
	repo     Repository
	gateway  Gateway
	pdfs     PDFLookup
	blogs    BlogLookup
	users    UserLookup
	notifier Notifier
	opts     Options
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	gateway Gateway,
	pdfs PDFLookup,
	blogs BlogLookup,
	users UserLookup,
	notifier Notifier,
	opts Options,
	logger *slog.Logger,
) *Service {
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:     repo,
		gateway:  gateway,
		pdfs:     pdfs,
		blogs:    blogs,
		users:    users,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

// Initiate records a Pending transaction for the caller and opens a
// gateway order whose receipt is the transaction id. A gateway failure
// leaves the transaction Pending for the sweep to retire.
func (s *Service) Initiate(
	ctx context.Context,
	actor *access.Principal,
	req InitiateRequest,
) (*InitiateResponse, error) {
	ctx, span := core.StartSpan(ctx, "purchase.initiate",
		attribute.String("pdf_id", req.PDFID))
	resp, err := s.initiate(ctx, actor, req)
	core.EndSpan(span, err)
	return resp, err
}

func (s *Service) initiate(
	ctx context.Context,
	actor *access.Principal,
	req InitiateRequest,
) (*InitiateResponse, error) {
	if err := access.Authorize(actor, access.InitiatePurchase); err != nil {
		return nil, fmt.Errorf("initiate purchase: %w", err)
	}

	doc, err := s.pdfs.GetByID(ctx, req.PDFID)
	if err != nil {
		return nil, fmt.Errorf("initiate purchase: %w", err)
	}
	if doc.BlogID != req.BlogID {
		return nil, fmt.Errorf("initiate purchase: pdf not attached to blog: %w", core.ErrNotFound)
	}
	if !doc.Purchasable() {
		s.opts.Metrics.observe("initiate", "not_purchasable")
		return nil, fmt.Errorf("initiate purchase: pdf is free: %w", core.ErrInvalidState)
	}

	tx := &Transaction{
		ID:            uuid.New().String(),
		UserID:        actor.SubjectID,
		PDFID:         doc.ID,
		BlogID:        doc.BlogID,
		AmountCents:   *doc.PriceCents,
		PaymentStatus: StatusPending,
		PaymentMethod: s.gateway.Name(),
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("initiate purchase: %w", err)
	}

	core.AddSpanEvent(ctx, "purchase.pending_created",
		attribute.String("transaction_id", tx.ID),
		attribute.Int64("amount_cents", int64(tx.AmountCents)),
	)

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		AmountCents: int64(tx.AmountCents),
		Currency:    s.opts.Currency,
		Receipt:     tx.ID,
		Notes: map[string]string{
			"userId": tx.UserID,
			"pdfId":  tx.PDFID,
			"blogId": tx.BlogID,
		},
	})
	if err != nil {
		s.opts.Metrics.observe("initiate", "gateway_error")
		s.logger.Warn("gateway order failed",
			"upstream", "payment",
			"transaction_id", tx.ID,
			"error", err,
		)
		return nil, fmt.Errorf("initiate purchase: %w", err)
	}

	if err := s.repo.AttachOrder(ctx, tx.ID, order.ID); err != nil {
		return nil, fmt.Errorf("initiate purchase: %w", err)
	}

	s.opts.Metrics.observe("initiate", "ok")
	s.logger.Info("purchase initiated",
		"transaction_id", tx.ID,
		"order_id", order.ID,
		"user_id", tx.UserID,
		"pdf_id", tx.PDFID,
	)

	return &InitiateResponse{
		OrderID:       order.ID,
		Amount:        tx.AmountCents.Amount(),
		Currency:      s.opts.Currency,
		Key:           s.gateway.KeyID(),
		TransactionID: tx.ID,
		CheckoutURL:   s.opts.CheckoutURL,
	}, nil
}

// Verify settles a transaction after checkout. The callback signature
// is checked locally, then the gateway is asked for the payment's real
// status. Only a captured or authorized payment moves Pending to Paid;
// an explicit gateway failure moves it to Failed. Every other failure
// leaves it Pending so the client can retry.
func (s *Service) Verify(
	ctx context.Context,
	actor *access.Principal,
	req VerifyRequest,
) (*VerifyResponse, error) {
	ctx, span := core.StartSpan(ctx, "purchase.verify",
		attribute.String("transaction_id", req.TransactionID))
	resp, err := s.verify(ctx, actor, req)
	core.EndSpan(span, err)
	return resp, err
}

func (s *Service) verify(
	ctx context.Context,
	actor *access.Principal,
	req VerifyRequest,
) (*VerifyResponse, error) {
	if err := access.Authorize(actor, access.VerifyPurchase); err != nil {
		return nil, fmt.Errorf("verify purchase: %w", err)
	}

	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.opts.Metrics.observe("verify", "bad_signature")
		core.AddSpanEvent(ctx, "purchase.signature_rejected",
			attribute.String("transaction_id", req.TransactionID))
		s.logger.Warn("payment signature mismatch",
			"transaction_id", req.TransactionID,
			"order_id", req.OrderID,
			"user_id", actor.SubjectID,
		)
		return nil, fmt.Errorf("verify purchase: %w", core.ErrInvalidSignature)
	}
	core.AddSpanEvent(ctx, "purchase.signature_ok")

	tx, err := s.repo.GetByID(ctx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("verify purchase: %w", err)
	}
	if tx.UserID != actor.SubjectID {
		return nil, fmt.Errorf("verify purchase: not the buyer: %w", core.ErrForbidden)
	}
	if !tx.OrderMatches(req.OrderID) {
		return nil, fmt.Errorf("verify purchase: %w",
			core.Invalid("order does not match transaction"))
	}

	switch tx.PaymentStatus {
	case StatusPaid:
		s.opts.Metrics.observe("verify", "already_paid")
		return s.verified(tx), nil
	case StatusFailed:
		return nil, fmt.Errorf("verify purchase: transaction failed: %w", core.ErrInvalidState)
	}

	p, err := s.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		s.opts.Metrics.observe("verify", "gateway_error")
		return nil, fmt.Errorf("verify purchase: %w", err)
	}
	core.AddSpanEvent(ctx, "purchase.gateway_status",
		attribute.String("status", p.Status))

	if p.OrderID != req.OrderID {
		s.opts.Metrics.observe("verify", "order_mismatch")
		return nil, fmt.Errorf("verify purchase: %w",
			core.Invalid("payment belongs to another order"))
	}

	if p.Failed() {
		return s.fail(ctx, tx, req.PaymentID)
	}

	if !p.Settled() {
		s.opts.Metrics.observe("verify", "not_captured")
		return nil, fmt.Errorf("verify purchase: payment status %q: %w",
			p.Status, core.ErrNotCaptured)
	}

	receipt := s.opts.ReceiptBaseURL + url.PathEscape(req.PaymentID)
	won, err := s.repo.MarkPaid(ctx, tx.ID, req.PaymentID, receipt)
	if err != nil {
		return nil, fmt.Errorf("verify purchase: %w", err)
	}

	if !won {
		return s.settledElsewhere(ctx, tx.ID)
	}

	tx.PaymentStatus = StatusPaid
	tx.GatewayPaymentID = &req.PaymentID
	tx.ReceiptURL = &receipt

	s.opts.Metrics.observe("verify", "paid")
	core.AddSpanEvent(ctx, "purchase.paid",
		attribute.String("transaction_id", tx.ID))
	s.logger.Info("purchase paid",
		"transaction_id", tx.ID,
		"payment_id", req.PaymentID,
		"user_id", tx.UserID,
	)

	s.confirm(ctx, tx)

	return s.verified(tx), nil
}

func (s *Service) fail(
	ctx context.Context,
	tx *Transaction,
	paymentID string,
) (*VerifyResponse, error) {
	won, err := s.repo.MarkFailed(ctx, tx.ID, paymentID)
	if err != nil {
		return nil, fmt.Errorf("verify purchase: %w", err)
	}

	if !won {
		return s.settledElsewhere(ctx, tx.ID)
	}

	s.opts.Metrics.observe("verify", "failed")
	s.logger.Info("purchase failed at gateway",
		"transaction_id", tx.ID,
		"payment_id", paymentID,
	)
	return nil, fmt.Errorf("verify purchase: gateway reported failure: %w", core.ErrNotCaptured)
}

// settledElsewhere handles a lost race: a concurrent Verify already
// moved the row, so report what it ended as.
func (s *Service) settledElsewhere(
	ctx context.Context,
	id string,
) (*VerifyResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("verify purchase: reload: %w", err)
	}

	switch current.PaymentStatus {
	case StatusPaid:
		s.opts.Metrics.observe("verify", "already_paid")
		return s.verified(current), nil
	case StatusFailed:
		return nil, fmt.Errorf("verify purchase: transaction failed: %w", core.ErrInvalidState)
	default:
		return nil, fmt.Errorf("verify purchase: transaction still %s: %w",
			current.PaymentStatus,
			core.ConflictError("transaction is being settled, retry"))
	}
}

func (s *Service) verified(tx *Transaction) *VerifyResponse {
	return &VerifyResponse{
		Success:       true,
		TransactionID: tx.ID,
		Status:        tx.PaymentStatus,
		RedirectURL:   fmt.Sprintf("/blogs/%s/pdf?transactionId=%s", tx.BlogID, tx.ID),
	}
}

// confirm emails the buyer. It runs only for the caller that won the
// Pending to Paid transition.
func (s *Service) confirm(ctx context.Context, tx *Transaction) {
	buyer, err := s.users.GetUser(ctx, tx.UserID)
	if err != nil {
		s.logger.Warn("purchase confirmation skipped",
			"transaction_id", tx.ID,
			"error", err,
		)
		return
	}

	title := ""
	if b, err := s.blogs.GetByID(ctx, tx.BlogID); err == nil {
		title = b.Title
	} else if !errors.Is(err, core.ErrNotFound) {
		s.logger.Warn("purchase confirmation: blog lookup", "error", err)
	}

	receipt := ""
	if tx.ReceiptURL != nil {
		receipt = *tx.ReceiptURL
	}

	s.notifier.Notify(ctx, notify.PurchaseConfirmation(
		buyer.Email,
		buyer.Name,
		title,
		tx.AmountCents.String()+" "+s.opts.Currency,
		receipt,
	))
}

// SweepStale fails Pending transactions created before now minus
// olderThan.
func (s *Service) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("sweep: window must be positive: %w", core.ErrInvalidInput)
	}

	cutoff := s.opts.Now().Add(-olderThan)
	n, err := s.repo.SweepStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.opts.Metrics.observe("sweep", "failed")
		s.logger.Info("stale transactions failed", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// HasPaid reports whether the user holds a Paid transaction for the pdf.
func (s *Service) HasPaid(ctx context.Context, userID, pdfID string) (bool, error) {
	return s.repo.HasPaid(ctx, userID, pdfID)
}

func (s *Service) Get(
	ctx context.Context,
	actor *access.Principal,
	id string,
) (*TransactionResponse, error) {
	if err := access.Authorize(actor, access.ViewOwnPurchases); err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if tx.UserID != actor.SubjectID && !actor.IsAdmin() {
		return nil, fmt.Errorf("get transaction: %w", core.ErrNotFound)
	}

	resp := toTransactionResponse(tx)
	return &resp, nil
}

func (s *Service) ListMine(
	ctx context.Context,
	actor *access.Principal,
) ([]TransactionResponse, error) {
	if err := access.Authorize(actor, access.ViewOwnPurchases); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	rows, err := s.repo.ListByUser(ctx, actor.SubjectID)
	if err != nil {
		return nil, err
	}

	out := make([]TransactionResponse, 0, len(rows))
	for i := range rows {
		resp := toTransactionResponse(&rows[i].Transaction)
		resp.BlogTitle = rows[i].BlogTitle
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) ListAll(
	ctx context.Context,
	actor *access.Principal,
	params ListTransactionsParams,
) ([]TransactionResponse, int, error) {
	if err := access.Authorize(actor, access.ViewTransactions); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	params.Normalize()
	if params.Status != "" {
		switch Status(params.Status) {
		case StatusPending, StatusPaid, StatusFailed:
		default:
			return nil, 0, fmt.Errorf("list transactions: %w",
				core.Invalid("unknown status %q", params.Status))
		}
	}

	rows, total, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	out := make([]TransactionResponse, 0, len(rows))
	for i := range rows {
		resp := toTransactionResponse(&rows[i].Transaction)
		resp.BlogTitle = rows[i].BlogTitle
		resp.UserName = rows[i].UserName
		resp.UserEmail = rows[i].UserEmail
		out = append(out, resp)
	}
	return out, total, nil
}

const (
	revenueMonths = 6
	topPDFLimit   = 5
)

// Revenue reports settled sales: totals, the last six calendar months
// (zero-filled, oldest first) and the best-selling documents.
func (s *Service) Revenue(ctx context.Context) (*RevenueReport, error) {
	total, sales, err := s.repo.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}

	buyers, err := s.repo.Buyers(ctx)
	if err != nil {
		return nil, err
	}

	months := lastMonths(s.opts.Now(), revenueMonths)
	since, _ := time.Parse("2006-01", months[0]) //nolint:errcheck // generated above

	monthly, err := s.repo.MonthlyRevenue(ctx, since)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]MonthlyRevenue, len(monthly))
	for _, m := range monthly {
		byMonth[m.Month] = m
	}

	report := &RevenueReport{
		TotalRevenue:   total.Amount(),
		PaidDownloads:  sales,
		Buyers:         buyers,
		MonthlyRevenue: make([]MonthlyRevenueResponse, 0, len(months)),
	}
	for _, month := range months {
		m := byMonth[month]
		report.MonthlyRevenue = append(report.MonthlyRevenue, MonthlyRevenueResponse{
			Month:   month,
			Revenue: m.RevenueCents.Amount(),
			Sales:   m.Sales,
		})
	}

	top, err := s.repo.TopPDFs(ctx, topPDFLimit)
	if err != nil {
		return nil, err
	}

	report.TopPDFs = make([]TopPDFResponse, 0, len(top))
	for _, t := range top {
		report.TopPDFs = append(report.TopPDFs, TopPDFResponse{
			PDFID:     t.PDFID,
			BlogID:    t.BlogID,
			BlogTitle: t.BlogTitle,
			Downloads: t.Downloads,
			Revenue:   t.RevenueCents.Amount(),
		})
	}

	return report, nil
}

// lastMonths returns n "YYYY-MM" keys ending with now's month.
func lastMonths(now time.Time, n int) []string {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = first.AddDate(0, i-n+1, 0).Format("2006-01")
	}
	return out
}
