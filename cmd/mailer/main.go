// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/carterperez-dev/bloghub/internal/config"
	"github.com/carterperez-dev/bloghub/internal/core"
	"github.com/carterperez-dev/bloghub/internal/notify"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("mailer error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := core.NewLogger(cfg.Log, os.Stdout).With("component", "mailer")
	slog.SetDefault(logger)

	if !cfg.Mail.QueueEnabled() {
		return fmt.Errorf("mail.amqp_url is required")
	}
	if !cfg.Mail.SMTPEnabled() {
		return fmt.Errorf("mail.smtp_host is required")
	}

	conn, err := notify.Connect(cfg.Mail.AMQPURL, cfg.Mail.DialRetries, cfg.Mail.DialBackoff)
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck // process exit

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close() //nolint:errcheck // process exit

	if err := notify.DeclareTopology(ch, cfg.Mail.Exchange, cfg.Mail.Queue, cfg.Mail.Prefetch); err != nil {
		return err
	}

	logger.Info("consuming email jobs",
		"queue", cfg.Mail.Queue,
		"workers", cfg.Mail.Workers,
		"smtp_host", cfg.Mail.SMTPHost,
	)

	err = notify.Consume(
		ctx,
		ch,
		cfg.Mail.Queue,
		cfg.Mail.Workers,
		notify.NewSMTPSender(cfg.Mail),
		logger,
	)
	if err != nil {
		return err
	}

	logger.Info("mailer stopped")
	return nil
}
