// AngelaMos | 2026
// service_test.go

package purchase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/bloghub/internal/access"
	"github.com/carterperez-dev/bloghub/internal/blog"
	"github.com/carterperez-dev/bloghub/internal/core"
	"github.com/carterperez-dev/bloghub/internal/notify"
	"github.com/carterperez-dev/bloghub/internal/payment"
	"github.com/carterperez-dev/bloghub/internal/pdf"
	"github.com/carterperez-dev/bloghub/internal/user"
)

type repoMock struct {
	mock.Mock
}

func (m *repoMock) Create(ctx context.Context, t *Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *repoMock) GetByID(ctx context.Context, id string) (*Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *repoMock) AttachOrder(ctx context.Context, id, orderID string) error {
	return m.Called(ctx, id, orderID).Error(0)
}

func (m *repoMock) MarkPaid(ctx context.Context, id, paymentID, receiptURL string) (bool, error) {
	args := m.Called(ctx, id, paymentID, receiptURL)
	return args.Bool(0), args.Error(1)
}

func (m *repoMock) MarkFailed(ctx context.Context, id, paymentID string) (bool, error) {
	args := m.Called(ctx, id, paymentID)
	return args.Bool(0), args.Error(1)
}

func (m *repoMock) SweepStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *repoMock) HasPaid(ctx context.Context, userID, pdfID string) (bool, error) {
	args := m.Called(ctx, userID, pdfID)
	return args.Bool(0), args.Error(1)
}

func (m *repoMock) ListByUser(ctx context.Context, userID string) ([]UserTransaction, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]UserTransaction), args.Error(1)
}

func (m *repoMock) ListAll(
	ctx context.Context,
	params ListTransactionsParams,
) ([]AdminTransaction, int, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]AdminTransaction), args.Int(1), args.Error(2)
}

func (m *repoMock) TotalRevenue(ctx context.Context) (core.Cents, int, error) {
	args := m.Called(ctx)
	return args.Get(0).(core.Cents), args.Int(1), args.Error(2)
}

func (m *repoMock) Buyers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *repoMock) MonthlyRevenue(ctx context.Context, since time.Time) ([]MonthlyRevenue, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]MonthlyRevenue), args.Error(1)
}

func (m *repoMock) TopPDFs(ctx context.Context, limit int) ([]TopPDF, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]TopPDF), args.Error(1)
}

type gatewayMock struct {
	mock.Mock
}

func (m *gatewayMock) Name() string  { return "razorpay" }
func (m *gatewayMock) KeyID() string { return "rzp_test_key" }

func (m *gatewayMock) CreateOrder(
	ctx context.Context,
	req payment.OrderRequest,
) (*payment.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Order), args.Error(1)
}

func (m *gatewayMock) FetchPayment(ctx context.Context, id string) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *gatewayMock) VerifySignature(orderID, paymentID, signature string) bool {
	return m.Called(orderID, paymentID, signature).Bool(0)
}

type pdfStub map[string]*pdf.PDF

func (s pdfStub) GetByID(_ context.Context, id string) (*pdf.PDF, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, core.ErrNotFound
}

type blogStub struct{}

func (blogStub) GetByID(_ context.Context, id string) (*blog.Blog, error) {
	return &blog.Blog{ID: id, Title: "Go Concurrency"}, nil
}

type userStub struct{}

func (userStub) GetUser(_ context.Context, id string) (*user.User, error) {
	return &user.User{ID: id, Email: "buyer@example.com", Name: "Buyer"}, nil
}

type notifierSpy struct {
	sent []notify.Message
}

func (n *notifierSpy) Notify(_ context.Context, msg notify.Message) bool {
	n.sent = append(n.sent, msg)
	return true
}

const (
	buyerID = "user-1"
	blogID  = "blog-1"
	pdfID   = "pdf-1"
	txID    = "tx-1"
	orderID = "order_1"
	payID   = "pay_1"
	goodSig = "sig"
)

var buyer = &access.Principal{SubjectID: buyerID, Role: "user"}

func price(c core.Cents) *core.Cents { return &c }

type fixture struct {
	repo     *repoMock
	gateway  *gatewayMock
	notifier *notifierSpy
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     &repoMock{},
		gateway:  &gatewayMock{},
		notifier: &notifierSpy{},
	}
	pdfs := pdfStub{
		pdfID:  {ID: pdfID, BlogID: blogID, IsPaid: true, PriceCents: price(999)},
		"free": {ID: "free", BlogID: blogID, IsPaid: false},
	}
	f.svc = NewService(
		f.repo, f.gateway, pdfs, blogStub{}, userStub{}, f.notifier,
		Options{ReceiptBaseURL: "https://receipts.test/"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

func pendingTx() *Transaction {
	order := orderID
	return &Transaction{
		ID:             txID,
		UserID:         buyerID,
		PDFID:          pdfID,
		BlogID:         blogID,
		AmountCents:    999,
		PaymentStatus:  StatusPending,
		GatewayOrderID: &order,
	}
}

func verifyReq() VerifyRequest {
	return VerifyRequest{
		OrderID:       orderID,
		PaymentID:     payID,
		Signature:     goodSig,
		TransactionID: txID,
	}
}

func TestInitiateCreatesPendingAndOrder(t *testing.T) {
	f := newFixture()

	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(tx *Transaction) bool {
		return tx.UserID == buyerID &&
			tx.PaymentStatus == StatusPending &&
			tx.AmountCents == 999 &&
			tx.PaymentMethod == "razorpay"
	})).Return(nil).Once()
	f.gateway.On("CreateOrder", mock.Anything, mock.MatchedBy(func(r payment.OrderRequest) bool {
		return r.AmountCents == 999 && r.Currency == "USD" && r.Receipt != ""
	})).Return(&payment.Order{ID: orderID}, nil).Once()
	f.repo.On("AttachOrder", mock.Anything, mock.Anything, orderID).Return(nil).Once()

	resp, err := f.svc.Initiate(context.Background(), buyer, InitiateRequest{
		BlogID: blogID,
		PDFID:  pdfID,
	})

	require.NoError(t, err)
	assert.Equal(t, orderID, resp.OrderID)
	assert.InDelta(t, 9.99, resp.Amount, 0.0001)
	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, "rzp_test_key", resp.Key)
	assert.NotEmpty(t, resp.TransactionID)
	f.repo.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
}

func TestInitiateRejectsFreePDF(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Initiate(context.Background(), buyer, InitiateRequest{
		BlogID: blogID,
		PDFID:  "free",
	})

	assert.ErrorIs(t, err, core.ErrInvalidState)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInitiateRejectsMismatchedBlog(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Initiate(context.Background(), buyer, InitiateRequest{
		BlogID: "some-other-blog",
		PDFID:  pdfID,
	})

	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInitiateRequiresSession(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Initiate(context.Background(), nil, InitiateRequest{
		BlogID: blogID,
		PDFID:  pdfID,
	})

	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestInitiateGatewayFailureLeavesPending(t *testing.T) {
	f := newFixture()

	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.gateway.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, core.ErrUpstream).Once()

	_, err := f.svc.Initiate(context.Background(), buyer, InitiateRequest{
		BlogID: blogID,
		PDFID:  pdfID,
	})

	assert.ErrorIs(t, err, core.ErrUpstream)
	f.repo.AssertNotCalled(t, "AttachOrder", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyMarksPaidAndEmailsOnce(t *testing.T) {
	f := newFixture()

	paid := pendingTx()
	paid.PaymentStatus = StatusPaid

	f.gateway.On("VerifySignature", orderID, payID, goodSig).Return(true)
	f.repo.On("GetByID", mock.Anything, txID).Return(pendingTx(), nil).Once()
	f.repo.On("GetByID", mock.Anything, txID).Return(paid, nil).Once()
	f.gateway.On("FetchPayment", mock.Anything, payID).
		Return(&payment.Payment{ID: payID, OrderID: orderID, Status: "captured"}, nil).Once()
	f.repo.On("MarkPaid", mock.Anything, txID, payID, "https://receipts.test/pay_1").
		Return(true, nil).Once()

	first, err := f.svc.Verify(context.Background(), buyer, verifyReq())
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, StatusPaid, first.Status)
	assert.Equal(t, "/blogs/blog-1/pdf?transactionId=tx-1", first.RedirectURL)

	second, err := f.svc.Verify(context.Background(), buyer, verifyReq())
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, StatusPaid, second.Status)

	require.Len(t, f.notifier.sent, 1)
	msg := f.notifier.sent[0]
	assert.Equal(t, notify.TemplatePurchaseConfirmation, msg.Template)
	assert.Equal(t, "buyer@example.com", msg.To)
	assert.Equal(t, "9.99 USD", msg.Data["amount"])
	assert.Equal(t, "Go Concurrency", msg.Data["blogTitle"])

	f.repo.AssertNumberOfCalls(t, "MarkPaid", 1)
	f.gateway.AssertNumberOfCalls(t, "FetchPayment", 1)
}

func TestVerifyTamperedSignatureTouchesNothing(t *testing.T) {
	f := newFixture()

	f.gateway.On("VerifySignature", orderID, payID, "forged").Return(false)

	req := verifyReq()
	req.Signature = "forged"
	_, err := f.svc.Verify(context.Background(), buyer, req)

	assert.ErrorIs(t, err, core.ErrInvalidSignature)
	f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.sent)
}

func TestVerifyNotCapturedStaysPending(t *testing.T) {
	f := newFixture()

	f.gateway.On("VerifySignature", orderID, payID, goodSig).Return(true)
	f.repo.On("GetByID", mock.Anything, txID).Return(pendingTx(), nil)
	f.gateway.On("FetchPayment", mock.Anything, payID).
		Return(&payment.Payment{ID: payID, OrderID: orderID, Status: "created"}, nil)

	_, err := f.svc.Verify(context.Background(), buyer, verifyReq())

	assert.ErrorIs(t, err, core.ErrNotCaptured)
	f.repo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyGatewayFailureMarksFailed(t *testing.T) {
	f := newFixture()

	f.gateway.On("VerifySignature", orderID, payID, goodSig).Return(true)
	f.repo.On("GetByID", mock.Anything, txID).Return(pendingTx(), nil)
	f.gateway.On("FetchPayment", mock.Anything, payID).
		Return(&payment.Payment{ID: payID, OrderID: orderID, Status: "failed"}, nil)
	f.repo.On("MarkFailed", mock.Anything, txID, payID).Return(true, nil).Once()

	_, err := f.svc.Verify(context.Background(), buyer, verifyReq())

	assert.ErrorIs(t, err, core.ErrNotCaptured)
	f.repo.AssertExpectations(t)
	assert.Empty(t, f.notifier.sent)
}

func TestVerifyLostRaceReportsWinner(t *testing.T) {
	f := newFixture()

	paid := pendingTx()
	paid.PaymentStatus = StatusPaid

	f.gateway.On("VerifySignature", orderID, payID, goodSig).Return(true)
	f.repo.On("GetByID", mock.Anything, txID).Return(pendingTx(), nil).Once()
	f.gateway.On("FetchPayment", mock.Anything, payID).
		Return(&payment.Payment{ID: payID, OrderID: orderID, Status: "captured"}, nil)
	f.repo.On("MarkPaid", mock.Anything, txID, payID, mock.Anything).Return(false, nil).Once()
	f.repo.On("GetByID", mock.Anything, txID).Return(paid, nil).Once()

	resp, err := f.svc.Verify(context.Background(), buyer, verifyReq())

	require.NoError(t, err)
	assert.Equal(t, StatusPaid, resp.Status)
	assert.Empty(t, f.notifier.sent)
}

func TestVerifyLostRaceStillPendingAsksForRetry(t *testing.T) {
	f := newFixture()

	f.gateway.On("VerifySignature", orderID, payID, goodSig).Return(true)
	f.repo.On("GetByID", mock.Anything, txID).Return(pendingTx(), nil).Twice()
	f.gateway.On("FetchPayment", mock.Anything, payID).
		Return(&payment.Payment{ID: payID, OrderID: orderID, Status: "captured"}, nil)
	f.repo.On("MarkPaid", mock.Anything, txID, payID, mock.Anything).Return(false, nil).Once()

	_, err := f.svc.Verify(context.Background(), buyer, verifyReq())

	require.ErrorIs(t, err, core.ErrConflict)
	appErr := core.ToAppError(err, "transaction")
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Equal(t, "transaction is being settled, retry", appErr.Message)
	assert.Empty(t, f.notifier.sent)
}

func TestVerifyRejections(t *testing.T) {
	otherOrder := func() *Transaction {
		tx := pendingTx()
		o := "order_other"
		tx.GatewayOrderID = &o
		return tx
	}
	failed := func() *Transaction {
		tx := pendingTx()
		tx.PaymentStatus = StatusFailed
		return tx
	}

	tests := []struct {
		name    string
		actor   *access.Principal
		stored  *Transaction
		payment *payment.Payment
		wantErr error
	}{
		{
			name:    "anonymous",
			actor:   nil,
			wantErr: core.ErrUnauthorized,
		},
		{
			name:    "someone else's transaction",
			actor:   &access.Principal{SubjectID: "user-2", Role: "user"},
			stored:  pendingTx(),
			wantErr: core.ErrForbidden,
		},
		{
			name:    "order id does not match",
			actor:   buyer,
			stored:  otherOrder(),
			wantErr: core.ErrInvalidInput,
		},
		{
			name:    "already failed",
			actor:   buyer,
			stored:  failed(),
			wantErr: core.ErrInvalidState,
		},
		{
			name:    "payment from another order",
			actor:   buyer,
			stored:  pendingTx(),
			payment: &payment.Payment{ID: payID, OrderID: "order_x", Status: "captured"},
			wantErr: core.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.gateway.On("VerifySignature", orderID, payID, goodSig).Return(true)
			if tt.stored != nil {
				f.repo.On("GetByID", mock.Anything, txID).Return(tt.stored, nil)
			}
			if tt.payment != nil {
				f.gateway.On("FetchPayment", mock.Anything, payID).Return(tt.payment, nil)
			}

			_, err := f.svc.Verify(context.Background(), tt.actor, verifyReq())

			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			f.repo.AssertNotCalled(t, "MarkPaid",
				mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSweepStaleUsesCutoff(t *testing.T) {
	f := newFixture()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f.svc.opts.Now = func() time.Time { return now }

	f.repo.On("SweepStale", mock.Anything, now.Add(-24*time.Hour)).Return(int64(3), nil).Once()

	n, err := f.svc.SweepStale(context.Background(), 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = f.svc.SweepStale(context.Background(), 0)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestGetHidesOtherUsersTransactions(t *testing.T) {
	f := newFixture()
	f.repo.On("GetByID", mock.Anything, txID).Return(pendingTx(), nil)

	_, err := f.svc.Get(context.Background(),
		&access.Principal{SubjectID: "user-2", Role: "user"}, txID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	resp, err := f.svc.Get(context.Background(),
		&access.Principal{SubjectID: "admin-1", Role: access.RoleAdmin}, txID)
	require.NoError(t, err)
	assert.Equal(t, txID, resp.ID)
}

func TestListAllRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	admin := &access.Principal{SubjectID: "admin-1", Role: access.RoleAdmin}

	_, _, err := f.svc.ListAll(context.Background(), admin, ListTransactionsParams{Status: "Refunded"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, _, err = f.svc.ListAll(context.Background(), buyer, ListTransactionsParams{})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestRevenueZeroFillsMonths(t *testing.T) {
	f := newFixture()
	f.svc.opts.Now = func() time.Time { return time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC) }

	f.repo.On("TotalRevenue", mock.Anything).Return(core.Cents(2997), 3, nil)
	f.repo.On("Buyers", mock.Anything).Return(2, nil)
	f.repo.On("MonthlyRevenue", mock.Anything, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)).
		Return([]MonthlyRevenue{{Month: "2026-01", RevenueCents: 1998, Sales: 2}}, nil)
	f.repo.On("TopPDFs", mock.Anything, 5).
		Return([]TopPDF{{PDFID: pdfID, BlogID: blogID, Downloads: 3, RevenueCents: 2997}}, nil)

	report, err := f.svc.Revenue(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 29.97, report.TotalRevenue, 0.0001)
	assert.Equal(t, 3, report.PaidDownloads)
	assert.Equal(t, 2, report.Buyers)
	require.Len(t, report.MonthlyRevenue, 6)
	assert.Equal(t, "2025-09", report.MonthlyRevenue[0].Month)
	assert.Equal(t, "2026-02", report.MonthlyRevenue[5].Month)
	assert.InDelta(t, 19.98, report.MonthlyRevenue[4].Revenue, 0.0001)
	assert.Zero(t, report.MonthlyRevenue[5].Sales)
	require.Len(t, report.TopPDFs, 1)
}

func TestLastMonthsCrossesYear(t *testing.T) {
	got := lastMonths(time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC), 3)
	assert.Equal(t, []string{"2025-11", "2025-12", "2026-01"}, got)
}
