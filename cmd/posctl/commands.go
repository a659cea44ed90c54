package main

import (
	"fmt"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/domain/menu"
	"github.com/xenking/oolio-pos/internal/domain/sale"
	"github.com/xenking/oolio-pos/internal/snapshot"
	"github.com/xenking/oolio-pos/internal/storage/postgres"
)

func seedCmd(databaseURL *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the default menu",
		Long:  "Seed the default menu when none is stored. --force replaces the stored menu.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, *databaseURL)
			if err != nil {
				return err
			}
			defer e.close()

			repo := menu.NewRepository(e.store, e.lg)
			var items []menu.Item
			if force {
				items, err = repo.Reset(cmd.Context())
			} else {
				items, err = repo.List(cmd.Context())
			}
			if err != nil {
				return errors.Wrap(err, "seed menu")
			}
			for _, it := range items {
				e.lg.Info("Menu item",
					zap.Int("id", it.ID),
					zap.String("name", it.Name),
					zap.Stringer("price", it.Price),
				)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace the stored menu with the default catalog")
	return cmd
}

func exportCmd(databaseURL *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a gzip snapshot of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, *databaseURL)
			if err != nil {
				return err
			}
			defer e.close()

			f, err := os.Create(out)
			if err != nil {
				return errors.Wrapf(err, "create %s", out)
			}
			s, err := snapshot.Export(cmd.Context(), e.store, f)
			if cerr := f.Close(); err == nil && cerr != nil {
				err = errors.Wrapf(cerr, "close %s", out)
			}
			if err != nil {
				return err
			}
			e.lg.Info("Snapshot exported", zap.String("path", out), zap.Int("entries", len(s.Entries)))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "pos-snapshot.json.gz", "output file")
	return cmd
}

func importCmd(databaseURL *string) *cobra.Command {
	var (
		in    string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore the store from a gzip snapshot",
		Long: `Restore the store from a gzip snapshot.

This is an offline, destructive restore: every key in the snapshot overwrites
the stored value. Stop pos-server first. A running server keeps its cart in
memory and writes it back on the next cart change, so an imported cart is
ignored and may be overwritten.

The import is refused when the snapshot ledger lacks transactions the store
already holds. Pass --force to replace the ledger anyway.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, *databaseURL)
			if err != nil {
				return err
			}
			defer e.close()

			f, err := os.Open(in)
			if err != nil {
				return errors.Wrapf(err, "open %s", in)
			}
			defer func() { _ = f.Close() }()

			s, err := snapshot.Import(cmd.Context(), e.store, f, snapshot.ImportOptions{Force: force})
			if err != nil {
				return errors.Wrap(err, "import")
			}
			e.lg.Info("Snapshot imported",
				zap.String("path", in),
				zap.Int("entries", len(s.Entries)),
				zap.Time("exported_at", s.ExportedAt),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "pos-snapshot.json.gz", "snapshot file")
	cmd.Flags().BoolVar(&force, "force", false, "replace the stored ledger even if sales would be lost")
	return cmd
}

func reportCmd(databaseURL *string) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print ledger revenue computed by PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if month != "" {
				if _, _, err := sale.ParseMonthKey(month); err != nil {
					return err
				}
			}
			e, err := setup(cmd, *databaseURL)
			if err != nil {
				return err
			}
			defer e.close()

			pg, ok := e.store.(*postgres.Store)
			if !ok {
				return errors.New("report requires the postgres storage driver")
			}
			r, err := pg.LedgerRevenue(cmd.Context(), month, e.cfg.Location())
			if err != nil {
				return err
			}

			label := month
			if label == "" {
				label = "all months"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sales, revenue %s\n", label, r.Count, r.Total.StringFixed(2))
			return err
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to report as YYYY-MM, all months when empty")
	return cmd
}
