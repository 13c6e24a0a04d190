package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"guias/internal/bootstrap"
	"guias/internal/bootstrap/logging"
	"guias/internal/errs"
	"guias/internal/usecase/guide"
)

const appLifecycleTimeout = 10 * time.Second

type appRunner func(cmd *cobra.Command, app *bootstrap.App, svc *guide.Service) error

// withApp starts the fx graph around one command run and stops it afterwards.
func withApp(run appRunner) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		fxApp, deps := newFxApp(ctx)

		startCtx, cancelStart := context.WithTimeout(ctx, appLifecycleTimeout)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}
		defer stopFxApp(ctx, fxApp)

		started := time.Now()
		err := run(cmd, deps.app, deps.svc)
		logging.Debug(ctx, "command finished", slog.Duration("elapsed", time.Since(started)))
		if err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}

// commandDeps is filled by fx.Populate when the graph is built.
type commandDeps struct {
	app *bootstrap.App
	svc *guide.Service
}

func newFxApp(ctx context.Context) (*fx.App, *commandDeps) {
	deps := &commandDeps{}
	fxApp := fx.New(
		bootstrap.Module,
		fx.NopLogger,
		fx.Provide(func() context.Context { return ctx }),
		fx.Provide(
			fx.Annotate(
				func() string { return cfgFile },
				fx.ResultTags(`name:"configFile"`),
			),
		),
		fx.Populate(&deps.app, &deps.svc),
	)
	return fxApp, deps
}

func stopFxApp(ctx context.Context, fxApp *fx.App) {
	stopCtx, cancelStop := context.WithTimeout(context.Background(), appLifecycleTimeout)
	defer cancelStop()
	if err := fxApp.Stop(stopCtx); err != nil {
		logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
	}
}
