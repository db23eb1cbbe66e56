// AngelaMos | 2026
// message.go

// Package notify renders and delivers transactional email. Delivery is
// best-effort everywhere in the API: the Notifier logs and swallows
// failures so the triggering operation still succeeds.
package notify

import (
	"context"
)

type Template string

const (
	TemplateWelcome              Template = "welcome"
	TemplatePurchaseConfirmation Template = "purchase_confirmation"
	TemplateNewComment           Template = "new_comment"
)

// Message is the unit of work for every dispatcher and the JSON body of
// queued email jobs.
type Message struct {
	To       string            `json:"to"`
	Template Template          `json:"template"`
	Data     map[string]string `json:"data"`
}

type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

func Welcome(to, userName string) Message {
	return Message{
		To:       to,
		Template: TemplateWelcome,
		Data:     map[string]string{"userName": userName},
	}
}

func PurchaseConfirmation(
	to, userName, blogTitle, amount, receiptURL string,
) Message {
	return Message{
		To:       to,
		Template: TemplatePurchaseConfirmation,
		Data: map[string]string{
			"userName":   userName,
			"blogTitle":  blogTitle,
			"amount":     amount,
			"receiptUrl": receiptURL,
		},
	}
}

func NewComment(
	to, authorName, commenterName, blogTitle, commentText, blogURL string,
) Message {
	return Message{
		To:       to,
		Template: TemplateNewComment,
		Data: map[string]string{
			"authorName":    authorName,
			"commenterName": commenterName,
			"blogTitle":     blogTitle,
			"commentText":   commentText,
			"blogUrl":       blogURL,
		},
	}
}
