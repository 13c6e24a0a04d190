package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"guias/internal/bootstrap"
	"guias/internal/bootstrap/logging"
	domain "guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/usecase/guide"
)

var weighCmd = &cobra.Command{
	Use:   "weigh",
	Short: "Record gross or net weighings",
}

var weighGrossCmd = &cobra.Command{
	Use:   "gross",
	Short: "Record the gross weighing of a guide",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *guide.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		guideID, _ := cmd.Flags().GetString("guide")
		weightRaw, _ := cmd.Flags().GetString("weight")
		method, _ := cmd.Flags().GetString("method")
		image, _ := cmd.Flags().GetString("image")
		transportDoc, _ := cmd.Flags().GetString("transport-doc")

		weight, err := decimal.NewFromString(strings.TrimSpace(weightRaw))
		if err != nil {
			return fmt.Errorf("invalid --weight %q: %w", weightRaw, err)
		}

		if err := svc.RecordGrossWeighing(ctx, guide.GrossWeighingInput{
			GuideID:      guideID,
			GrossWeight:  weight,
			Method:       method,
			Image:        image,
			TransportDoc: transportDoc,
		}); err != nil {
			logging.Error(ctx, "record gross weighing failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "record gross weighing")
		}
		return printStageResult(cmd, "gross weighing", guideID)
	}),
}

var weighNetCmd = &cobra.Command{
	Use:   "net",
	Short: "Record the tare (and optionally net) weighing of a guide",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *guide.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		guideID, _ := cmd.Flags().GetString("guide")
		tareRaw, _ := cmd.Flags().GetString("tare")
		netRaw, _ := cmd.Flags().GetString("net")

		tare, err := parseOptionalDecimal("tare", tareRaw)
		if err != nil {
			return err
		}
		net, err := parseOptionalDecimal("net", netRaw)
		if err != nil {
			return err
		}

		if err := svc.RecordNetWeighing(ctx, guide.NetWeighingInput{
			GuideID:    guideID,
			TareWeight: tare,
			NetWeight:  net,
		}); err != nil {
			logging.Error(ctx, "record net weighing failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "record net weighing")
		}
		return printStageResult(cmd, "net weighing", guideID)
	}),
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Record the classification counts of a guide",
	Long:  "Counts are given as category=count pairs, e.g. --manual verdes=4,sobremaduros=2.",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *guide.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		guideID, _ := cmd.Flags().GetString("guide")
		manual, _ := cmd.Flags().GetStringToInt("manual")
		automatic, _ := cmd.Flags().GetStringToInt("automatic")
		detected, _ := cmd.Flags().GetInt("detected-total")
		status, _ := cmd.Flags().GetString("status")

		if err := svc.RecordClassification(ctx, guide.ClassificationInput{
			GuideID:       guideID,
			Manual:        domain.DefectCounts(manual),
			Automatic:     domain.DefectCounts(automatic),
			DetectedTotal: detected,
			Status:        status,
		}); err != nil {
			logging.Error(ctx, "record classification failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "record classification")
		}
		return printStageResult(cmd, "classification", guideID)
	}),
}

var exitCmd = &cobra.Command{
	Use:   "exit",
	Short: "Record the exit of a guide (closes it)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *guide.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		guideID, _ := cmd.Flags().GetString("guide")
		comments, _ := cmd.Flags().GetString("comments")

		if err := svc.RecordExit(ctx, guide.ExitInput{GuideID: guideID, Comments: comments}); err != nil {
			logging.Error(ctx, "record exit failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "record exit")
		}
		return printStageResult(cmd, "exit", guideID)
	}),
}

func parseOptionalDecimal(flagName string, raw string) (decimal.NullDecimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.NullDecimal{}, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid --%s %q: %w", flagName, raw, err)
	}
	return decimal.NewNullDecimal(value), nil
}

func printStageResult(cmd *cobra.Command, stage string, guideID string) error {
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s recorded: %s\n", stage, strings.TrimSpace(guideID)); err != nil {
		return errs.Wrapf(err, "write %s output", stage)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(weighCmd, classifyCmd, exitCmd)
	weighCmd.AddCommand(weighGrossCmd, weighNetCmd)

	weighGrossCmd.Flags().String("guide", "", "Guide id")
	weighGrossCmd.Flags().String("weight", "", "Gross weight in kg")
	weighGrossCmd.Flags().String("method", "", "Weighing method: directo|virtual|pepa (default from fruit type)")
	weighGrossCmd.Flags().String("image", "", "Stored scale image filename")
	weighGrossCmd.Flags().String("transport-doc", "", "Transport document code")
	_ = weighGrossCmd.MarkFlagRequired("guide")
	_ = weighGrossCmd.MarkFlagRequired("weight")

	weighNetCmd.Flags().String("guide", "", "Guide id")
	weighNetCmd.Flags().String("tare", "", "Tare weight in kg")
	weighNetCmd.Flags().String("net", "", "Net weight in kg (default: gross - tare)")
	_ = weighNetCmd.MarkFlagRequired("guide")

	classifyCmd.Flags().String("guide", "", "Guide id")
	classifyCmd.Flags().StringToInt("manual", nil, "Manual defect counts")
	classifyCmd.Flags().StringToInt("automatic", nil, "Automatic defect counts")
	classifyCmd.Flags().Int("detected-total", 0, "Bunches detected by the automatic count")
	classifyCmd.Flags().String("status", "", "Classification status")
	_ = classifyCmd.MarkFlagRequired("guide")

	exitCmd.Flags().String("guide", "", "Guide id")
	exitCmd.Flags().String("comments", "", "Exit comments")
	_ = exitCmd.MarkFlagRequired("guide")
}
