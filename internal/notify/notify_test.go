// AngelaMos | 2026
// notify_test.go

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/bloghub/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type dispatcherSpy struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (d *dispatcherSpy) Send(ctx context.Context, msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	d.sent = append(d.sent, msg)
	return d.err
}

func TestRenderTemplates(t *testing.T) {
	tests := []struct {
		name        string
		msg         Message
		wantSubject string
		wantBody    []string
	}{
		{
			name:        "welcome",
			msg:         Welcome("ada@example.com", "Ada"),
			wantSubject: "Welcome to BlogHub!",
			wantBody:    []string{"Welcome, Ada!"},
		},
		{
			name: "purchase confirmation",
			msg: PurchaseConfirmation(
				"ada@example.com", "Ada", "Go Concurrency", "9.99 USD",
				"https://pay.test/receipts/pay_1",
			),
			wantSubject: "Your BlogHub purchase is confirmed",
			wantBody: []string{
				"Go Concurrency",
				"Amount paid: 9.99 USD",
				`href="https://pay.test/receipts/pay_1"`,
			},
		},
		{
			name: "new comment",
			msg: NewComment(
				"author@example.com", "Grace", "Ada", "Go Concurrency",
				"Great post", "https://bloghub.test/blogs/blog-1",
			),
			wantSubject: "New comment on your post",
			wantBody:    []string{"Hi Grace,", "Ada commented on", "<blockquote>Great post</blockquote>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body, err := Render(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, subject)
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want)
			}
		})
	}
}

func TestRenderEscapesUserContent(t *testing.T) {
	_, body, err := Render(NewComment(
		"author@example.com", "Grace", "<b>mallory</b>", "Title",
		`<script>alert("x")</script>`, "",
	))
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "Read the conversation")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render(Message{To: "a@example.com", Template: "password_reset"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestBuildMIME(t *testing.T) {
	raw := string(BuildMIME(
		"BlogHub <no-reply@bloghub.test>",
		"ada@example.com",
		"Café update",
		"<p>hi</p>",
	))

	assert.True(t, strings.HasPrefix(raw, "From: BlogHub <no-reply@bloghub.test>\r\n"))
	assert.Contains(t, raw, "To: ada@example.com\r\n")
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.Contains(t, raw, "MIME-Version: 1.0\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\n<p>hi</p>"))
}

func TestNotifierSwallowsFailures(t *testing.T) {
	spy := &dispatcherSpy{err: errors.New("smtp down")}
	n := NewNotifier(spy, discardLogger())

	assert.False(t, n.Notify(context.Background(), Welcome("a@example.com", "A")))
	assert.Len(t, spy.sent, 1)

	spy.err = nil
	assert.True(t, n.Notify(context.Background(), Welcome("a@example.com", "A")))
}

func TestNotifierOutlivesCallerCancellation(t *testing.T) {
	spy := &dispatcherSpy{}
	n := NewNotifier(spy, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, n.Notify(ctx, Welcome("a@example.com", "A")))
}

func TestNilNotifier(t *testing.T) {
	var n *Notifier
	assert.False(t, n.Notify(context.Background(), Welcome("a@example.com", "A")))
}

func TestLogDispatcher(t *testing.T) {
	var buf bytes.Buffer
	d := NewLogDispatcher(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, d.Send(context.Background(), Welcome("a@example.com", "A")))
	assert.Contains(t, buf.String(), "Welcome to BlogHub!")

	assert.Error(t, d.Send(context.Background(), Message{Template: "nope"}))
}

type channelSpy struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (c *channelSpy) Publish(
	exchange, key string,
	_, _ bool,
	msg amqp.Publishing,
) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

func TestQueuePublisher(t *testing.T) {
	ch := &channelSpy{}
	p := NewQueuePublisher(ch, "bloghub.mail", "email_jobs")

	msg := Welcome("ada@example.com", "Ada")
	require.NoError(t, p.Send(context.Background(), msg))

	assert.Equal(t, "bloghub.mail", ch.exchange)
	assert.Equal(t, "email_jobs", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var decoded Message
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, msg, decoded)

	ch.err = amqp.ErrClosed
	assert.ErrorIs(t, p.Send(context.Background(), msg), amqp.ErrClosed)
}

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func delivery(t *testing.T, body any, redelivered bool) (amqp.Delivery, *ackRecorder) {
	t.Helper()
	raw, ok := body.([]byte)
	if !ok {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	rec := &ackRecorder{}
	return amqp.Delivery{Acknowledger: rec, Body: raw, Redelivered: redelivered}, rec
}

func TestHandleDelivery(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("sent jobs are acked", func(t *testing.T) {
		spy := &dispatcherSpy{}
		d, rec := delivery(t, Welcome("ada@example.com", "Ada"), false)

		HandleDelivery(ctx, d, spy, logger)

		assert.True(t, rec.acked)
		assert.False(t, rec.nacked)
		require.Len(t, spy.sent, 1)
		assert.Equal(t, "ada@example.com", spy.sent[0].To)
	})

	t.Run("garbage is dropped", func(t *testing.T) {
		spy := &dispatcherSpy{}
		d, rec := delivery(t, []byte("{not json"), false)

		HandleDelivery(ctx, d, spy, logger)

		assert.True(t, rec.nacked)
		assert.False(t, rec.requeue)
		assert.Empty(t, spy.sent)
	})

	t.Run("missing recipient is dropped", func(t *testing.T) {
		spy := &dispatcherSpy{}
		d, rec := delivery(t, Message{Template: TemplateWelcome}, false)

		HandleDelivery(ctx, d, spy, logger)

		assert.True(t, rec.nacked)
		assert.False(t, rec.requeue)
	})

	t.Run("first failure is requeued", func(t *testing.T) {
		spy := &dispatcherSpy{err: errors.New("smtp down")}
		d, rec := delivery(t, Welcome("ada@example.com", "Ada"), false)

		HandleDelivery(ctx, d, spy, logger)

		assert.True(t, rec.nacked)
		assert.True(t, rec.requeue)
	})

	t.Run("redelivered failure is dropped", func(t *testing.T) {
		spy := &dispatcherSpy{err: errors.New("smtp down")}
		d, rec := delivery(t, Welcome("ada@example.com", "Ada"), true)

		HandleDelivery(ctx, d, spy, logger)

		assert.True(t, rec.nacked)
		assert.False(t, rec.requeue)
	})
}
