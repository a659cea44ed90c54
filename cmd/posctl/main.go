// Command posctl is the operator CLI of the POS store: seeding, snapshots and
// revenue reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/app"
	"github.com/xenking/oolio-pos/internal/kv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every subcommand needs.
type env struct {
	lg    *zap.Logger
	cfg   *app.Config
	store kv.Store
	close func()
}

func setup(cmd *cobra.Command, databaseURL string) (*env, error) {
	lg, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	cfg, err := app.LoadEnvConfig()
	if err != nil {
		return nil, err
	}
	if databaseURL != "" {
		cfg.Storage.Driver = app.DriverPostgres
		cfg.Storage.DatabaseURL = databaseURL
	}
	store, closeStore, err := app.OpenStore(cmd.Context(), lg, cfg.Storage)
	if err != nil {
		return nil, err
	}
	return &env{
		lg:    lg,
		cfg:   cfg,
		store: store,
		close: func() {
			closeStore()
			_ = lg.Sync()
		},
	}, nil
}

func rootCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "posctl",
		Short: "Operate the restaurant POS store",
		Long: `Operate the restaurant POS store.

Storage is configured like the server (POS_ environment variables, .env,
config.yaml). --database-url selects PostgreSQL directly.

Examples:
  posctl seed --force
  posctl export --out pos-2026-01.json.gz
  posctl import --in pos-2026-01.json.gz
  posctl report --month 2026-01
`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL")

	cmd.AddCommand(
		seedCmd(&databaseURL),
		exportCmd(&databaseURL),
		importCmd(&databaseURL),
		reportCmd(&databaseURL),
	)
	return cmd
}
