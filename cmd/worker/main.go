package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/Swapnil565/Jarvis/adapters/llm"
	"github.com/Swapnil565/Jarvis/adapters/llm/template"
	"github.com/Swapnil565/Jarvis/adapters/postgres"
	"github.com/Swapnil565/Jarvis/adapters/postgres/migrations"
	"github.com/Swapnil565/Jarvis/app"
	"github.com/Swapnil565/Jarvis/domain/workflow"
	"github.com/Swapnil565/Jarvis/internal"
	"github.com/Swapnil565/Jarvis/internal/config"
	"github.com/Swapnil565/Jarvis/internal/errors"
	"github.com/Swapnil565/Jarvis/ports"
)

func main() {
	interval := flag.Duration("interval", time.Hour, "periodic workflow interval")
	activeWindow := flag.Duration("active-window", 7*24*time.Hour, "how far back a user's last event may be to count as active")
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := internal.NewDefaultLogger("worker")

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	store := postgres.NewEventRepository(db)
	patterns := postgres.NewPatternRepository(db)
	interventions := postgres.NewInterventionRepository(db)
	runs := postgres.NewWorkflowRepository(db)

	retry := app.RetryPolicy{Attempts: cfg.Workflow.RetryAttempts, Backoff: cfg.Workflow.RetryBackoff}
	textgen := buildTextGenerator(cfg, logger)

	correlation := app.NewCorrelationService(store, patterns, cfg.Analytics, retry)
	forecaster := app.NewForecastService(store, cfg.Forecast, retry)
	rules := app.NewInterventionService(interventions, textgen, cfg.Workflow, cfg.Analytics.StreakThreshold)
	orchestrator := app.NewOrchestratorService(
		correlation, forecaster, rules, store, runs,
		cfg.Workflow, cfg.Forecast.LookbackDays, retry,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started, running every %s", *interval)
	runAllUsers(ctx, orchestrator, store, *activeWindow, logger)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			return
		case <-ticker.C:
			runAllUsers(ctx, orchestrator, store, *activeWindow, logger)
		}
	}
}

// runAllUsers fans the periodic workflow out over every recently active user.
// One user's failure never blocks the rest.
func runAllUsers(ctx context.Context, orchestrator *app.OrchestratorService, store ports.EventStore, activeWindow time.Duration, logger *internal.Logger) {
	users, err := store.ActiveUsers(ctx, time.Now().UTC().Add(-activeWindow))
	if err != nil {
		logger.Error("failed to list active users: %v", err)
		return
	}
	logger.Info("running periodic workflow for %d users", len(users))
	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		result := orchestrator.RunPeriodicWorkflow(ctx, userID)
		if result.Status != workflow.StatusSucceeded {
			logger.Warn("run for user %s finished %s: %v", userID, result.Status, result.Errors)
		}
	}
}

// buildTextGenerator prefers the LLM backend, degrading to templates when no
// API key is configured.
func buildTextGenerator(cfg *config.Config, logger *internal.Logger) ports.TextGenerator {
	if cfg.AI.OpenAIKey == "" {
		logger.Info("no OPENAI_API_KEY set, using template text generation")
		return template.New()
	}
	gen, err := llm.NewSummarizerAdapter(llm.Config{
		Model:       cfg.AI.OpenAIModel,
		APIKey:      cfg.AI.OpenAIKey,
		BaseURL:     cfg.AI.BaseURL,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
		Timeout:     cfg.AI.Timeout,
		CacheTTL:    cfg.AI.CacheTTL,
	})
	if err != nil {
		logger.Warn("LLM setup failed (%v), using template text generation", err)
		return template.New()
	}
	return gen
}

// initDatabase connects to PostgreSQL and applies pending migrations.
func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migrations.NewMigrator(db.DB)
	if err := migrator.Up(context.Background()); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}
