package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"guias/internal/bootstrap/logging"
	"guias/internal/errs"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "guias",
	Short:        "Guide aggregation for the fruit reception yard",
	Long:         "Registers intake stages (entry, gross weighing, classification, net weighing, exit) and resolves the consolidated guide and its state.",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logging.SetDefault(logging.NewLogger(rootCmd.ErrOrStderr(), "info", "text"))
	ctx = logging.WithAttrs(ctx, slog.String("app", "guias"))

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default: ./configs/config.yaml when present)")
}
