// AngelaMos | 2026
// notifier.go

package notify

import (
	"context"
	"log/slog"
	"time"
)

const sendTimeout = 10 * time.Second

// Notifier wraps a Dispatcher with best-effort semantics.
type Notifier struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewNotifier(dispatcher Dispatcher, logger *slog.Logger) *Notifier {
	return &Notifier{dispatcher: dispatcher, logger: logger}
}

// Notify sends msg and reports whether it was accepted. Failures are
// logged, never returned. The caller's cancellation does not abort the
// send.
func (n *Notifier) Notify(ctx context.Context, msg Message) bool {
	if n == nil || n.dispatcher == nil {
		return false
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	if err := n.dispatcher.Send(sendCtx, msg); err != nil {
		n.logger.Warn("notification failed",
			"upstream", "mail",
			"template", msg.Template,
			"error", err,
		)
		return false
	}

	return true
}

// LogDispatcher stands in when no mail transport is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(_ context.Context, msg Message) error {
	subject, _, err := Render(msg)
	if err != nil {
		return err
	}
	d.logger.Info("email (not delivered, no transport configured)",
		"to", msg.To,
		"template", msg.Template,
		"subject", subject,
	)
	return nil
}
