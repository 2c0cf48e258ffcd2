package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/shehryarbajwa/browserpilot/internal/api"
	"github.com/shehryarbajwa/browserpilot/internal/browser"
	"github.com/shehryarbajwa/browserpilot/internal/chatlog"
	"github.com/shehryarbajwa/browserpilot/internal/config"
	"github.com/shehryarbajwa/browserpilot/internal/dispatch"
	"github.com/shehryarbajwa/browserpilot/internal/intent"
	"github.com/shehryarbajwa/browserpilot/internal/notify"
	"github.com/shehryarbajwa/browserpilot/internal/provision"
	"github.com/shehryarbajwa/browserpilot/internal/ratelimit"
	"github.com/shehryarbajwa/browserpilot/internal/scaffold"
	"github.com/shehryarbajwa/browserpilot/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.Info("starting browserpilot", "addr", cfg.Addr, "backend", cfg.ProvisionBackend)

	store, err := chatlog.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		log.Fatal("failed to open chat store", "path", cfg.DatabasePath, "error", err)
	}
	defer store.Close()

	backend, err := newBackend(cfg)
	if err != nil {
		log.Fatal("failed to initialize provisioning backend", "error", err)
	}

	sessions := session.NewManager(backend)
	dispatcher := dispatch.NewChain(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.RelayBaseURL, cfg.RelayAPIKey)
	executor := browser.NewExecutor(cfg.Stealth)
	agent := browser.NewAgent(dispatcher, executor)
	hub := notify.NewHub()

	projects, err := scaffold.NewGenerator("")
	if err != nil {
		log.Fatal("failed to initialize project scaffolding", "error", err)
	}

	handler := api.NewHandler(sessions, intent.NewKeyword(), dispatcher, executor, agent, projects, store, hub, api.Options{
		SessionTTL: cfg.SessionTTL,
		Stealth:    cfg.Stealth,
		VNCURL:     cfg.VNCURL,
	})

	limiter := ratelimit.NewLimiter(60, 10)
	router := api.NewRouter(handler, limiter)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", "error", err)
	}

	log.Info("server stopped")
}

// newBackend selects the provisioning backend. The local backend pulls the
// Chrome image up front so the first session does not pay for it.
func newBackend(cfg *config.Config) (provision.Backend, error) {
	if cfg.ProvisionBackend == "local" {
		local, err := provision.NewLocal()
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := local.EnsureImage(ctx); err != nil {
			return nil, err
		}
		return local, nil
	}

	return provision.NewCloud(cfg.BrowserlessBaseURL, cfg.BrowserlessAPIKey), nil
}
