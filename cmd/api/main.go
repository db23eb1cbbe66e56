// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/bloghub/internal/access"
	"github.com/carterperez-dev/bloghub/internal/admin"
	"github.com/carterperez-dev/bloghub/internal/auth"
	"github.com/carterperez-dev/bloghub/internal/blog"
	"github.com/carterperez-dev/bloghub/internal/comment"
	"github.com/carterperez-dev/bloghub/internal/config"
	"github.com/carterperez-dev/bloghub/internal/core"
	"github.com/carterperez-dev/bloghub/internal/health"
	"github.com/carterperez-dev/bloghub/internal/middleware"
	"github.com/carterperez-dev/bloghub/internal/notify"
	"github.com/carterperez-dev/bloghub/internal/payment"
	"github.com/carterperez-dev/bloghub/internal/pdf"
	"github.com/carterperez-dev/bloghub/internal/purchase"
	"github.com/carterperez-dev/bloghub/internal/server"
	"github.com/carterperez-dev/bloghub/internal/storage"
	"github.com/carterperez-dev/bloghub/internal/summary"
	"github.com/carterperez-dev/bloghub/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
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
	if err := cfg.Payment.Validate(); err != nil {
		return err
	}

	logger := core.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Migration.Auto {
		if err := core.MigrateUp(db.DB.DB, cfg.Migration.Path); err != nil {
			return err
		}
		logger.Info("migrations applied", "path", cfg.Migration.Path)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	jwtManager.WithRevocations(redis)
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	mail, err := setupMail(cfg.Mail, logger)
	if err != nil {
		return err
	}
	defer mail.close()
	notifier := notify.NewNotifier(mail.dispatcher, logger)

	images, err := setupImageStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	metrics := middleware.NewMetrics("bloghub")

	userSvc := user.NewService(
		user.NewRepository(db.DB),
		images,
		cfg.Storage.MaxImageBytes,
		logger,
	)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(jwtManager, userSvc, redis, notifier, logger)
	authHandler := auth.NewHandler(authSvc, cfg.Session)

	summaries := summary.NewGenerator(summary.NewGeminiClient(cfg.AI), logger)

	blogSvc := blog.NewService(blog.NewRepository(db.DB), userSvc, summaries, logger)
	blogHandler := blog.NewHandler(blogSvc)

	commentSvc := comment.NewService(
		comment.NewRepository(db.DB),
		blogSvc,
		userSvc,
		notifier,
		cfg.Mail.PublicURL,
		logger,
	)
	commentHandler := comment.NewHandler(commentSvc)

	purchaseRepo := purchase.NewRepository(db.DB)

	pdfSvc := pdf.NewService(pdf.NewRepository(db.DB), purchaseRepo, logger)
	pdfHandler := pdf.NewHandler(pdfSvc)

	purchaseSvc := purchase.NewService(
		purchaseRepo,
		payment.NewRazorpayClient(cfg.Payment),
		pdfSvc,
		blogSvc,
		userSvc,
		notifier,
		purchase.Options{
			Currency:       cfg.Payment.Currency,
			ReceiptBaseURL: cfg.Payment.ReceiptBaseURL,
			CheckoutURL:    cfg.Payment.CheckoutURL,
			Metrics:        purchase.NewMetrics(metrics.Registerer()),
		},
		logger,
	)
	purchaseHandler := purchase.NewHandler(purchaseSvc)

	healthHandler := health.NewHandler(append([]health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}, mail.checks...)...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Analytics:  admin.NewAnalytics(purchaseSvc, blogSvc, userSvc, pdfSvc),
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	if telemetry != nil {
		router.Use(middleware.Tracing(telemetry.Tracer))
	}
	if cfg.Metrics.Enabled {
		router.Use(metrics.Middleware)
	}
	router.Use(middleware.Session(jwtManager, cfg.Session.CookieName, logger))
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Scope: "api",
			Limit: middleware.Every(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			KeyFunc:  middleware.KeyByUser,
			FailOpen: true,
			Logger:   logger,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	credentialLimit := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Scope: "credentials",
		Limit: middleware.PerMinute(
			cfg.RateLimit.CredentialRequests,
			cfg.RateLimit.CredentialBurst,
		),
		KeyFunc:  middleware.KeyByIP,
		FailOpen: true,
		Logger:   logger,
	}).Handler

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, credentialLimit)
		userHandler.RegisterRoutes(r)

		blogHandler.RegisterRoutes(r,
			commentHandler.MountUnderBlog,
			pdfHandler.MountUnderBlog,
		)
		commentHandler.RegisterRoutes(r)
		pdfHandler.RegisterRoutes(r)
		purchaseHandler.RegisterRoutes(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(access.Require(access.ViewAdminStats))

			adminHandler.RegisterRoutes(r)
			userHandler.RegisterAdminRoutes(r)
			purchaseHandler.RegisterAdminRoutes(r)
		})
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

type mailSetup struct {
	dispatcher notify.Dispatcher
	checks     []health.Dependency
	close      func()
}

// setupMail picks the email transport: the RabbitMQ queue when a broker
// is configured, direct SMTP when only a relay is, a log line otherwise.
func setupMail(cfg config.MailConfig, logger *slog.Logger) (*mailSetup, error) {
	switch {
	case cfg.QueueEnabled():
		conn, err := notify.Connect(cfg.AMQPURL, cfg.DialRetries, cfg.DialBackoff)
		if err != nil {
			return nil, err
		}

		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close() //nolint:errcheck // cleanup on setup failure
			return nil, err
		}

		if err := notify.DeclareTopology(ch, cfg.Exchange, cfg.Queue, 0); err != nil {
			_ = conn.Close() //nolint:errcheck // cleanup on setup failure
			return nil, err
		}

		logger.Info("mail queue connected", "exchange", cfg.Exchange, "queue", cfg.Queue)

		return &mailSetup{
			dispatcher: notify.NewQueuePublisher(ch, cfg.Exchange, cfg.Queue),
			checks: []health.Dependency{{
				Name: "mail_broker",
				Checker: health.CheckerFunc(func(context.Context) error {
					if conn.IsClosed() {
						return errors.New("broker connection closed")
					}
					return nil
				}),
			}},
			close: func() {
				if err := ch.Close(); err != nil {
					logger.Error("amqp channel close error", "error", err)
				}
				if err := conn.Close(); err != nil {
					logger.Error("amqp connection close error", "error", err)
				}
			},
		}, nil

	case cfg.SMTPEnabled():
		logger.Info("mail via smtp", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return &mailSetup{dispatcher: notify.NewSMTPSender(cfg), close: func() {}}, nil

	default:
		logger.Warn("no mail transport configured, emails will only be logged")
		return &mailSetup{dispatcher: notify.NewLogDispatcher(logger), close: func() {}}, nil
	}
}

func setupImageStore(
	ctx context.Context,
	cfg config.StorageConfig,
	logger *slog.Logger,
) (user.ImageStore, error) {
	if !cfg.Enabled() {
		logger.Warn("object storage not configured, profile images disabled")
		return storage.Disabled{}, nil
	}

	store, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("object storage ready", "bucket", cfg.Bucket, "region", cfg.Region)
	return store, nil
}
