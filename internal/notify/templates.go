// AngelaMos | 2026
// templates.go

package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/carterperez-dev/bloghub/internal/core"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[Template]emailTemplate{
	TemplateWelcome: {
		subject: "Welcome to BlogHub!",
		body: template.Must(template.New("welcome").Parse(`<h1>Welcome, {{.userName}}!</h1>
<p>Thanks for joining BlogHub. Start reading, commenting and unlocking premium content today.</p>`)),
	},
	TemplatePurchaseConfirmation: {
		subject: "Your BlogHub purchase is confirmed",
		body: template.Must(template.New("purchase").Parse(`<h1>Thanks for your purchase, {{.userName}}!</h1>
<p>You now have access to the premium PDF for <strong>{{.blogTitle}}</strong>.</p>
<p>Amount paid: {{.amount}}</p>
{{if .receiptUrl}}<p><a href="{{.receiptUrl}}">View your receipt</a></p>{{end}}`)),
	},
	TemplateNewComment: {
		subject: "New comment on your post",
		body: template.Must(template.New("comment").Parse(`<h1>Hi {{.authorName}},</h1>
<p>{{.commenterName}} commented on <strong>{{.blogTitle}}</strong>:</p>
<blockquote>{{.commentText}}</blockquote>
{{if .blogUrl}}<p><a href="{{.blogUrl}}">Read the conversation</a></p>{{end}}`)),
	},
}

// Render returns the subject and HTML body for msg.
func Render(msg Message) (string, string, error) {
	tmpl, ok := templates[msg.Template]
	if !ok {
		return "", "", fmt.Errorf(
			"render %q: unknown template: %w",
			msg.Template,
			core.ErrInvalidInput,
		)
	}

	var buf bytes.Buffer
	if err := tmpl.body.Execute(&buf, msg.Data); err != nil {
		return "", "", fmt.Errorf("render %q: %w", msg.Template, err)
	}

	return tmpl.subject, buf.String(), nil
}
