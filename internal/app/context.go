// Package app wires storage, the engine and the analyzer from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"goalplanner/internal/analysis"
	"goalplanner/internal/config"
	"goalplanner/internal/db"
	"goalplanner/internal/domain"
	"goalplanner/internal/engine"
	"goalplanner/internal/llm"
	"goalplanner/internal/migrate"
	"goalplanner/internal/plan"
	"goalplanner/internal/repo"
)

// LocalUserEmail owns everything created from the CLI.
const LocalUserEmail = "local@goalplanner"

type Options struct {
	Workspace string
	InMemory  bool
	Config    *config.Config
	// LLMAPIKey is read from the environment by the caller.
	LLMAPIKey string
	Logger    *slog.Logger
	// Model replaces the configured chat model when set.
	Model llm.Generator
}

// App holds the opened database and the services built on it.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Repo     repo.Repo
	Engine   engine.Engine
	Analyzer analysis.Service
	Logger   *slog.Logger
}

// Open opens and migrates the database, then builds the engine and the
// analyzer. A missing model key is not an error: analysis then runs on the
// fallback templates only.
func Open(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := db.Open(db.Config{Workspace: opts.Workspace, InMemory: opts.InMemory})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	eng := engine.New(conn, logger)

	modelCfg := cfg.Model(opts.LLMAPIKey)
	analyzer := analysis.Service{
		ModelName: modelCfg.ModelName(),
		Timeout:   modelCfg.Timeout,
		Sessions:  eng.Repo,
		Fallback:  plan.Synthesize,
		Logger:    logger.With("component", "analysis"),
	}
	switch {
	case opts.Model != nil:
		analyzer.Model = opts.Model
	default:
		chat, err := llm.NewChatModel(ctx, modelCfg)
		switch {
		case errors.Is(err, llm.ErrNotConfigured):
			logger.Info("no model credentials; goal analysis uses fallback templates", "provider", modelCfg.Provider)
		case err != nil:
			conn.Close()
			return nil, fmt.Errorf("model client: %w", err)
		default:
			analyzer.Model = chat
		}
	}
	return &App{
		Config:   cfg,
		DB:       conn,
		Repo:     eng.Repo,
		Engine:   eng,
		Analyzer: analyzer,
		Logger:   logger,
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

// EnsureUser returns the user with this email, creating it on first use.
func (a *App) EnsureUser(ctx context.Context, email, name string) (domain.User, error) {
	email = repo.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, &engine.ValidationError{Problems: []string{"email: a valid address is required"}}
	}
	u, err := a.Repo.GetUserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	u = domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := a.Repo.InsertUser(ctx, nil, u); err != nil {
		// lost a race with a concurrent first login
		if existing, getErr := a.Repo.GetUserByEmail(ctx, email); getErr == nil {
			return existing, nil
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}
