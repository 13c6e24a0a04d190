package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"guias/internal/bootstrap"
	"guias/internal/bootstrap/logging"
	"guias/internal/errs"
	"guias/internal/usecase/guide"
)

var authcodeCmd = &cobra.Command{
	Use:   "authcode",
	Short: "Manage one-time authorization codes for entry corrections",
}

var authcodeIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a one-time authorization code for a guide",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *guide.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		guideID, _ := cmd.Flags().GetString("guide")

		code, expiresAt, err := svc.IssueAuthorizationCode(ctx, strings.TrimSpace(guideID))
		if err != nil {
			logging.Error(ctx, "issue authorization code failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "issue authorization code")
		}

		local := expiresAt.In(svc.Converter().Location())
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "authorization code for %s: %s (expires %s)\n", guideID, code, local.Format(time.DateTime)); err != nil {
			return errs.Wrap(err, "write authcode output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(authcodeCmd)
	authcodeCmd.AddCommand(authcodeIssueCmd)

	authcodeIssueCmd.Flags().String("guide", "", "Guide id")
	_ = authcodeIssueCmd.MarkFlagRequired("guide")
}
