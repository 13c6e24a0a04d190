package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"guias/internal/bootstrap"
	"guias/internal/bootstrap/logging"
	"guias/internal/errs"
	"guias/internal/infrastructure/legacy"
	"guias/internal/usecase/guide"
)

var migrateLegacyCmd = &cobra.Command{
	Use:   "migrate-legacy",
	Short: "Copy legacy entry files into the entry table (safe to re-run)",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *guide.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		watch, _ := cmd.Flags().GetBool("watch")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		migrate := func(ctx context.Context) error {
			report, err := svc.MigrateLegacyEntries(ctx)
			if err != nil {
				logging.Error(ctx, "legacy migration failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "migrate legacy entries")
			}
			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"legacy migration: scanned=%d inserted=%d skipped=%d failed=%d\n",
				report.Scanned, report.Inserted, report.Skipped, report.Failed,
			); err != nil {
				return errs.Wrap(err, "write migrate-legacy output")
			}
			return nil
		}

		if err := migrate(ctx); err != nil {
			return err
		}
		if !watch {
			return nil
		}

		logging.Info(ctx, "watching legacy directory", slog.String("dir", app.Config.Legacy.Dir))
		watcher := legacy.NewWatcher(app.Config.Legacy.Dir, debounce)
		return watcher.Run(ctx, migrate)
	}),
}

func init() {
	rootCmd.AddCommand(migrateLegacyCmd)

	migrateLegacyCmd.Flags().Bool("watch", false, "Keep running and migrate again when legacy files change")
	migrateLegacyCmd.Flags().Duration("debounce", 2*time.Second, "Quiet period before a watched change triggers a migration")
}
