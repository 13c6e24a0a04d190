package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"guias/internal/bootstrap"
	"guias/internal/bootstrap/logging"
	"guias/internal/errs"
	"guias/internal/usecase/guide"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Register and maintain guide entries",
}

var entryRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new entry (the guide id is derived when --guide is omitted)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *guide.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		guideID, _ := cmd.Flags().GetString("guide")
		providerCode, _ := cmd.Flags().GetString("provider-code")
		providerName, _ := cmd.Flags().GetString("provider-name")
		plate, _ := cmd.Flags().GetString("plate")
		carrier, _ := cmd.Flags().GetString("carrier")
		bunches, _ := cmd.Flags().GetString("bunches")
		fruitType, _ := cmd.Flags().GetString("fruit-type")
		haul, _ := cmd.Flags().GetBool("haul")
		load, _ := cmd.Flags().GetBool("load")
		note, _ := cmd.Flags().GetString("note")
		image, _ := cmd.Flags().GetString("image")

		out, err := svc.RegisterEntry(ctx, guide.RegisterEntryInput{
			GuideID:      guideID,
			ProviderCode: providerCode,
			ProviderName: providerName,
			Plate:        plate,
			Carrier:      carrier,
			BunchCount:   bunches,
			FruitType:    fruitType,
			Haul:         haul,
			Load:         load,
			Note:         note,
			Image:        image,
		})
		if err != nil {
			logging.Error(ctx, "register entry failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "register entry")
		}

		suffix := ""
		if out.Versioned {
			suffix = " (versioned: duplicate submission)"
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "entry registered: %s%s\n", out.GuideID, suffix); err != nil {
			return errs.Wrap(err, "write entry register output")
		}
		return nil
	}),
}

var entryToggleActiveCmd = &cobra.Command{
	Use:   "toggle-active",
	Short: "Activate or deactivate an entry (later stages are left untouched)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *guide.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		guideID, _ := cmd.Flags().GetString("guide")
		inactive, _ := cmd.Flags().GetBool("inactive")

		if err := svc.SetEntryActive(ctx, strings.TrimSpace(guideID), !inactive); err != nil {
			logging.Error(ctx, "toggle entry failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "toggle entry")
		}

		state := "active"
		if inactive {
			state = "inactive"
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "entry %s is now %s\n", guideID, state); err != nil {
			return errs.Wrap(err, "write entry toggle output")
		}
		return nil
	}),
}

var entryCorrectCmd = &cobra.Command{
	Use:   "correct",
	Short: "Apply a corrective edit to an entry using a one-time authorization code",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *guide.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		guideID, _ := cmd.Flags().GetString("guide")
		code, _ := cmd.Flags().GetString("code")

		changes := guide.EntryChanges{
			ProviderName: stringFlagIfChanged(cmd, "provider-name"),
			Plate:        stringFlagIfChanged(cmd, "plate"),
			Carrier:      stringFlagIfChanged(cmd, "carrier"),
			BunchCount:   stringFlagIfChanged(cmd, "bunches"),
			FruitType:    stringFlagIfChanged(cmd, "fruit-type"),
			Note:         stringFlagIfChanged(cmd, "note"),
			Haul:         boolFlagIfChanged(cmd, "haul"),
			Load:         boolFlagIfChanged(cmd, "load"),
		}

		entry, err := svc.CorrectEntry(ctx, guide.CorrectEntryInput{
			GuideID: guideID,
			Code:    code,
			Changes: changes,
		})
		if err != nil {
			logging.Error(ctx, "correct entry failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "correct entry")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "entry corrected: %s\n", entry.GuideID); err != nil {
			return errs.Wrap(err, "write entry correct output")
		}
		return nil
	}),
}

func stringFlagIfChanged(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetString(name)
	return &value
}

func boolFlagIfChanged(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetBool(name)
	return &value
}

func addEntryFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider-name", "", "Provider (grower) name")
	cmd.Flags().String("plate", "", "Vehicle plate")
	cmd.Flags().String("carrier", "", "Carrier name")
	cmd.Flags().String("bunches", "", "Bunch count")
	cmd.Flags().String("fruit-type", "", "Fruit type (PEPA skips classification)")
	cmd.Flags().Bool("haul", false, "Haulage required")
	cmd.Flags().Bool("load", false, "Loading required")
	cmd.Flags().String("note", "", "Free-text note")
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryRegisterCmd, entryToggleActiveCmd, entryCorrectCmd)

	entryRegisterCmd.Flags().String("guide", "", "Explicit guide id (default: <provider>_<YYYYMMDD_HHMMSS>)")
	entryRegisterCmd.Flags().String("provider-code", "", "Provider code")
	entryRegisterCmd.Flags().String("image", "", "Stored image filename")
	addEntryFieldFlags(entryRegisterCmd)
	_ = entryRegisterCmd.MarkFlagRequired("provider-code")
	_ = entryRegisterCmd.MarkFlagRequired("bunches")
	_ = entryRegisterCmd.MarkFlagRequired("fruit-type")

	entryToggleActiveCmd.Flags().String("guide", "", "Guide id")
	entryToggleActiveCmd.Flags().Bool("inactive", false, "Deactivate instead of activate")
	_ = entryToggleActiveCmd.MarkFlagRequired("guide")

	entryCorrectCmd.Flags().String("guide", "", "Guide id")
	entryCorrectCmd.Flags().String("code", "", "Authorization code from `guias authcode issue`")
	addEntryFieldFlags(entryCorrectCmd)
	_ = entryCorrectCmd.MarkFlagRequired("guide")
	_ = entryCorrectCmd.MarkFlagRequired("code")
}
