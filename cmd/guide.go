package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"guias/internal/bootstrap"
	"guias/internal/bootstrap/logging"
	domain "guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/infrastructure/export"
	"guias/internal/usecase/guide"
)

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Resolve and list consolidated guides",
}

var guideShowCmd = &cobra.Command{
	Use:   "show <guide-id>",
	Short: "Resolve one consolidated guide",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *guide.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		formatRaw, _ := cmd.Flags().GetString("format")
		format, err := normalizeFormat(formatRaw, formatJSON, formatYAML)
		if err != nil {
			return err
		}

		resolved, err := svc.Resolve(ctx, strings.TrimSpace(cmd.Flags().Arg(0)))
		if err != nil {
			logging.Error(ctx, "resolve guide failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "resolve guide")
		}
		return writeStructured(cmd.OutOrStdout(), format, resolved)
	}),
}

var guideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List consolidated guides, newest first by the stage timestamp",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *guide.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		formatRaw, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		format, err := normalizeFormat(formatRaw, formatJSON, formatYAML, formatXLSX)
		if err != nil {
			return err
		}
		if format == formatXLSX && strings.TrimSpace(outPath) == "" {
			return fmt.Errorf("--out is required for format %s", formatXLSX)
		}

		filter, err := listFilterFromFlags(cmd)
		if err != nil {
			return err
		}

		items, err := svc.ListGuides(ctx, filter)
		if err != nil {
			logging.Error(ctx, "list guides failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list guides")
		}

		writer, closeFn, err := resolveOutputWriter(cmd, outPath)
		if err != nil {
			return err
		}

		if format == formatXLSX {
			rows := make([]map[string]any, 0, len(items))
			for _, item := range items {
				rows = append(rows, item.Map())
			}
			err = export.WriteXLSX(writer, rows, export.Options{})
		} else {
			err = writeStructured(writer, format, items)
		}
		if err != nil {
			_ = closeFn()
			return errs.Wrap(err, "write guide list")
		}
		if err := closeFn(); err != nil {
			return errs.Wrap(err, "close guide list output")
		}

		logging.Info(ctx, "guide list written", slog.Int("count", len(items)), slog.String("format", format))
		return nil
	}),
}

func listFilterFromFlags(cmd *cobra.Command) (guide.ListFilter, error) {
	stageRaw, _ := cmd.Flags().GetString("stage")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	providerCode, _ := cmd.Flags().GetString("provider-code")
	providerName, _ := cmd.Flags().GetString("provider-name")
	plate, _ := cmd.Flags().GetString("plate")
	includeInactive, _ := cmd.Flags().GetBool("all")
	limit, _ := cmd.Flags().GetInt("limit")

	stage, ok := domain.ParseStage(strings.TrimSpace(stageRaw))
	if !ok {
		return guide.ListFilter{}, fmt.Errorf("unknown stage %q", stageRaw)
	}

	return guide.ListFilter{
		Stage:           stage,
		DateFrom:        from,
		DateTo:          to,
		ProviderCode:    providerCode,
		ProviderName:    providerName,
		Plate:           plate,
		IncludeInactive: includeInactive,
		Limit:           limit,
	}, nil
}

func init() {
	rootCmd.AddCommand(guideCmd)
	guideCmd.AddCommand(guideShowCmd, guideListCmd)

	guideShowCmd.Flags().String("format", formatJSON, "Output format: json|yaml")

	guideListCmd.Flags().String("stage", string(domain.StageEntry), "Stage whose timestamp filters and orders: registro|pesaje|clasificacion|pesaje_neto|salida")
	guideListCmd.Flags().String("from", "", "First local day (YYYY-MM-DD)")
	guideListCmd.Flags().String("to", "", "Last local day (YYYY-MM-DD)")
	guideListCmd.Flags().String("provider-code", "", "Provider code substring")
	guideListCmd.Flags().String("provider-name", "", "Provider name substring")
	guideListCmd.Flags().String("plate", "", "Plate substring")
	guideListCmd.Flags().Bool("all", false, "Include inactive entries")
	guideListCmd.Flags().Int("limit", 200, "Max guides")
	guideListCmd.Flags().String("format", formatJSON, "Output format: json|yaml|xlsx")
	guideListCmd.Flags().String("out", "", "Output file path (default: stdout; required for xlsx)")
}
