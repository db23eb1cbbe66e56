// AngelaMos | 2026
// razorpay.go

package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/carterperez-dev/bloghub/internal/config"
	"github.com/carterperez-dev/bloghub/internal/core"
)

// orderAPI and paymentAPI are the slices of the Razorpay SDK the client
// uses. The SDK resources satisfy them directly.
type orderAPI interface {
	Create(
		data map[string]interface{},
		extraHeaders map[string]string,
	) (map[string]interface{}, error)
}

type paymentAPI interface {
	Fetch(
		paymentID string,
		queryParams map[string]interface{},
		extraHeaders map[string]string,
	) (map[string]interface{}, error)
}

type RazorpayClient struct {
	name      string
	keyID     string
	keySecret string
	timeout   time.Duration
	orders    orderAPI
	payments  paymentAPI
}

func NewRazorpayClient(cfg config.PaymentConfig) *RazorpayClient {
	sdk := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	return newRazorpayClient(cfg, sdk.Order, sdk.Payment)
}

func newRazorpayClient(
	cfg config.PaymentConfig,
	orders orderAPI,
	payments paymentAPI,
) *RazorpayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RazorpayClient{
		name:      cfg.Gateway,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		timeout:   timeout,
		orders:    orders,
		payments:  payments,
	}
}

func (c *RazorpayClient) Name() string {
	return c.name
}

// KeyID is the public key the browser checkout needs.
func (c *RazorpayClient) KeyID() string {
	return c.keyID
}

func (c *RazorpayClient) CreateOrder(
	ctx context.Context,
	req OrderRequest,
) (*Order, error) {
	data := map[string]interface{}{
		"amount":   req.AmountCents,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		data["notes"] = req.Notes
	}

	var order Order
	err := c.call(ctx, &order, func() (map[string]interface{}, error) {
		return c.orders.Create(data, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("create order: empty order id: %w", core.ErrUpstream)
	}
	return &order, nil
}

func (c *RazorpayClient) FetchPayment(
	ctx context.Context,
	paymentID string,
) (*Payment, error) {
	var p Payment
	err := c.call(ctx, &p, func() (map[string]interface{}, error) {
		return c.payments.Fetch(paymentID, nil, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch payment: %w", err)
	}
	return &p, nil
}

// VerifySignature checks the checkout callback signature, an HMAC-SHA256
// of "orderId|paymentId" under the key secret.
func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	return core.VerifyHMACSHA256(
		c.keySecret,
		SignatureMessage(orderID, paymentID),
		signature,
	)
}

type sdkResult struct {
	body map[string]interface{}
	err  error
}

// call runs a blocking SDK request under the client timeout and decodes
// the loosely typed response map into out. The SDK takes no context, so
// an abandoned request finishes in the background.
func (c *RazorpayClient) call(
	ctx context.Context,
	out any,
	fn func() (map[string]interface{}, error),
) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan sdkResult, 1)
	go func() {
		body, err := fn()
		done <- sdkResult{body: body, err: err}
	}()

	var res sdkResult
	select {
	case <-ctx.Done():
		return fmt.Errorf("razorpay: %w: %w", core.ErrUpstream, ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		return fmt.Errorf("razorpay: %s: %w", res.err.Error(), core.ErrUpstream)
	}

	raw, err := json.Marshal(res.body)
	if err != nil {
		return fmt.Errorf("razorpay: encode response: %w: %w", core.ErrUpstream, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("razorpay: decode response: %w: %w", core.ErrUpstream, err)
	}
	return nil
}
