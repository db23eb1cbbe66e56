// AngelaMos | 2026
// gateway.go

// Package payment talks to the card payment gateway: order creation,
// payment status lookup and callback signature checks.
package payment

import (
	"strings"
)

const (
	StatusCreated    = "created"
	StatusAuthorized = "authorized"
	StatusCaptured   = "captured"
	StatusRefunded   = "refunded"
	StatusFailed     = "failed"
)

type OrderRequest struct {
	AmountCents int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Receipt     string            `json:"receipt"`
	Notes       map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"method"`
}

// Settled reports whether the gateway considers the money taken.
func (p *Payment) Settled() bool {
	switch strings.ToLower(p.Status) {
	case StatusCaptured, StatusAuthorized:
		return true
	default:
		return false
	}
}

func (p *Payment) Failed() bool {
	return strings.EqualFold(p.Status, StatusFailed)
}

// SignatureMessage is the payload the gateway signs for a checkout
// callback.
func SignatureMessage(orderID, paymentID string) string {
	return orderID + "|" + paymentID
}
