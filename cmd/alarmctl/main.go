// Command alarmctl is the operator CLI for the alarm store.
//
// # Usage
//
//	alarmctl active --severity CRITICAL --ne Benapole
//	alarmctl history --limit 50
//	alarmctl active-full <alarm_id>
//	alarmctl prune-history --older-than 30
//
// alarmctl talks to the same Postgres tables the pipeline writes; it
// never goes through NSP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/corenet-ops/nsp-faultmon/internal/store"
)

var (
	databaseURL string
	debug       bool
)

var rootCmd = &cobra.Command{
	Use:           "alarmctl",
	Short:         "Inspect and maintain the NSP alarm store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database", "",
		"Database URL (defaults to FAULTMON_DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

// resolveDatabaseURL applies the flag > environment > default precedence.
func resolveDatabaseURL() string {
	if databaseURL != "" {
		return databaseURL
	}
	if url := os.Getenv("FAULTMON_DATABASE_URL"); url != "" {
		return url
	}
	return "postgres://localhost:5432/faultmon?sslmode=disable"
}

// openStore connects to the alarm store and verifies the connection.
// The caller owns the returned store and must Close it.
func openStore(ctx context.Context) (*store.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.NewStoreFromURL(connectCtx, resolveDatabaseURL())
	if err != nil {
		return nil, err
	}
	if err := st.Ping(connectCtx); err != nil {
		st.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return st, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
