// Package main is the entry point for the course assistant: the HTTP API for
// the web widget and the Telegram bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/academia-artes/course-assistant/internal/catalog"
	"github.com/academia-artes/course-assistant/internal/config"
	"github.com/academia-artes/course-assistant/internal/handler"
	"github.com/academia-artes/course-assistant/internal/intake"
	"github.com/academia-artes/course-assistant/internal/llm"
	natsclient "github.com/academia-artes/course-assistant/internal/nats"
	"github.com/academia-artes/course-assistant/internal/notifier"
	"github.com/academia-artes/course-assistant/internal/retriever"
	"github.com/academia-artes/course-assistant/internal/service"
	"github.com/academia-artes/course-assistant/internal/store"
	"github.com/academia-artes/course-assistant/internal/telegram"
	"github.com/academia-artes/course-assistant/pkg/logger"
	"github.com/academia-artes/course-assistant/pkg/tracing"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()

	var (
		log *logger.Logger
		err error
	)
	if os.Getenv("ENV") == "development" {
		log, err = logger.NewDevelopment()
	} else {
		log, err = logger.New(cfg.LogLevel)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := run(cfg, log); err != nil {
		log.Error("assistant stopped with error", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting course assistant")

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "course-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	checks := map[string]handler.Check{"store": st.Ping}

	// Lead events are optional: without NATS, leads only go out by email.
	var publisher notifier.EventPublisher
	if cfg.NATSURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		natsClient, err := natsclient.Connect(connectCtx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		cancel()
		if err != nil {
			return err
		}
		defer natsClient.Close()

		leads := natsclient.NewLeadStream(natsClient)
		if err := leads.EnsureStream(ctx); err != nil {
			return err
		}
		publisher = leads
		checks["nats"] = func(context.Context) error {
			if !natsClient.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		}
	}

	delivery, err := newNotifier(ctx, cfg)
	if err != nil {
		return err
	}
	leadNotifier := notifier.NewPublishing(delivery, publisher, log)

	llmClient, err := llm.NewClient(llm.Provider(cfg.LLMProvider), cfg.LLMAPIKey())
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	table := catalog.DefaultTable()
	if cfg.TopicsFile != "" {
		if table, err = catalog.LoadTable(cfg.TopicsFile); err != nil {
			return err
		}
	}
	classifier, err := catalog.New(table)
	if err != nil {
		return err
	}

	contextRetriever := retriever.New(retriever.NewHTTPFetcher(cfg.FetchTimeout), retriever.Config{
		Selector:        cfg.ContentSelector,
		PerLocatorLimit: cfg.PerLocatorLimit,
		GlobalLimit:     cfg.ContextLimit,
	}, log)

	machine := intake.NewMachine(st, leadNotifier, log)
	responder := service.NewResponder(llmClient, service.ResponderConfig{
		Model:        cfg.LLMModel,
		Timeout:      cfg.LLMTimeout,
		CTAThreshold: int64(cfg.CTAThreshold),
	}, log)
	router := service.NewRouter(st, classifier, contextRetriever, responder, machine, log)

	server := &http.Server{
		Addr: ":" + cfg.ServerPort,
		Handler: handler.NewRouter(handler.RoutesConfig{
			JWTSecret:         cfg.JWTSecret,
			AllowedOrigins:    cfg.AllowedOrigins,
			RateLimitRequests: cfg.RateLimitRequests,
			RateLimitWindow:   cfg.RateLimitWindow,
			StaticDir:         cfg.StaticDir,
		}, handler.Handlers{
			Ask:     handler.NewAskHandler(router, log),
			Contact: handler.NewContactHandler(router, log),
			Admin:   handler.NewAdminHandler(router, log),
			Health:  handler.NewHealthHandler(checks),
		}, log),
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	botDone := make(chan struct{})
	if cfg.TelegramToken != "" {
		bot, err := telegram.New(cfg.TelegramToken, router, log)
		if err != nil {
			return err
		}
		go func() {
			defer close(botDone)
			if err := bot.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	} else {
		log.Warn("TELEGRAM_TOKEN not set, telegram bot disabled")
		close(botDone)
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		log.Warn("telegram bot did not stop in time")
	}

	log.Info("course assistant stopped")
	return runErr
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, conversation state is kept in memory only")
		return store.NewMemory(), nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return store.NewRedis(connectCtx, store.RedisConfig{
		URL:       cfg.RedisURL,
		IntakeTTL: cfg.IntakeTTL,
	})
}

func newNotifier(ctx context.Context, cfg *config.Config) (notifier.Notifier, error) {
	switch cfg.Notifier {
	case config.NotifierSES:
		return notifier.NewSES(ctx, cfg.AWSRegion, cfg.SESFromAddress, cfg.ContactAddress)
	default:
		return notifier.NewSMTP(notifier.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			To:       cfg.ContactAddress,
		})
	}
}
