package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/llm"
	"github.com/vinybarreto/extrato/internal/service"
	"github.com/vinybarreto/extrato/internal/storage"
)

// dbPathFromConfig returns the configured database path, unexpanded.
func dbPathFromConfig() string {
	if dbPath := viper.GetString("database.path"); dbPath != "" {
		return dbPath
	}
	return "$HOME/.local/share/extrato/extrato.db"
}

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := expandPath(dbPathFromConfig())

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// expandPath resolves ~ and environment variables in a configured path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// requireUser returns the configured user identity. Every stored row is
// scoped to it.
func requireUser() (string, error) {
	userID := viper.GetString("user.id")
	if userID == "" {
		return "", common.NewUserError(
			"Nenhum utilizador configurado. Defina user.id no config ou EXTRATO_USER_ID.",
			common.ErrNotAuthenticated)
	}
	return userID, nil
}

// newCategorizer builds the AI categorizer when an API key is configured,
// nil otherwise. Imports work fine without it.
func newCategorizer() (*llm.Categorizer, error) {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, nil
	}

	cfg := llm.Config{
		APIKey:            apiKey,
		Model:             viper.GetString("anthropic.model"),
		MaxTokens:         viper.GetInt("anthropic.max_tokens"),
		RequestsPerMinute: viper.GetInt("anthropic.requests_per_minute"),
		CacheTTL:          viper.GetDuration("anthropic.cache_ttl"),
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 15 * time.Minute
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return llm.NewCategorizer(client, cfg), nil
}
