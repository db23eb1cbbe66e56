// AngelaMos | 2026
// dto.go

package purchase

import (
	"strings"
	"time"
)

type InitiateRequest struct {
	BlogID string `json:"blogId" validate:"required,uuid"`
	PDFID  string `json:"pdfId"  validate:"required,uuid"`
}

type InitiateResponse struct {
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Key           string  `json:"key"`
	TransactionID string  `json:"transactionId"`
	CheckoutURL   string  `json:"checkoutUrl,omitempty"`
}

type VerifyRequest struct {
	OrderID       string `json:"orderId"       validate:"required,max=64"`
	PaymentID     string `json:"paymentId"     validate:"required,max=64"`
	Signature     string `json:"signature"     validate:"required,hexadecimal,len=64"`
	TransactionID string `json:"transactionId" validate:"required,uuid"`
}

type VerifyResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Status        Status `json:"paymentStatus"`
	RedirectURL   string `json:"redirectUrl"`
}

type TransactionResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	PDFID         string    `json:"pdfId"`
	BlogID        string    `json:"blogId"`
	BlogTitle     string    `json:"blogTitle,omitempty"`
	UserName      string    `json:"userName,omitempty"`
	UserEmail     string    `json:"userEmail,omitempty"`
	Amount        float64   `json:"amount"`
	PaymentStatus Status    `json:"paymentStatus"`
	PaymentMethod string    `json:"paymentMethod"`
	ReceiptURL    *string   `json:"receiptUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ListTransactionsParams struct {
	Page     int
	PageSize int
	Status   string
}

func (p *ListTransactionsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	p.Status = strings.TrimSpace(p.Status)
}

func (p *ListTransactionsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type MonthlyRevenueResponse struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Sales   int     `json:"sales"`
}

type TopPDFResponse struct {
	PDFID     string  `json:"pdfId"`
	BlogID    string  `json:"blogId"`
	BlogTitle string  `json:"blogTitle"`
	Downloads int     `json:"downloads"`
	Revenue   float64 `json:"revenue"`
}

type RevenueReport struct {
	TotalRevenue   float64                  `json:"totalRevenue"`
	PaidDownloads  int                      `json:"totalDownloads"`
	Buyers         int                      `json:"activeBuyers"`
	MonthlyRevenue []MonthlyRevenueResponse `json:"monthlyRevenue"`
	TopPDFs        []TopPDFResponse         `json:"topPdfs"`
}

func toTransactionResponse(t *Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		PDFID:         t.PDFID,
		BlogID:        t.BlogID,
		Amount:        t.AmountCents.Amount(),
		PaymentStatus: t.PaymentStatus,
		PaymentMethod: t.PaymentMethod,
		ReceiptURL:    t.ReceiptURL,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
