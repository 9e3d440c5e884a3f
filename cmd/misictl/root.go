package main

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"misicuan-admin/internal/app"
	"misicuan-admin/internal/config"
	"misicuan-admin/internal/logging"
)

// appFactory builds the runtime for one command invocation.
type appFactory func(ctx context.Context, stderr io.Writer, notify bool) (*app.App, error)

func defaultAppFactory(ctx context.Context, stderr io.Writer, notify bool) (*app.App, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	return app.Build(ctx, cfg, logger, app.Options{WhatsApp: notify})
}

// cli carries state shared by the subcommands.
type cli struct {
	factory appFactory
	notify  bool
	app     *app.App
}

func newRootCmd(factory appFactory) *cobra.Command {
	c := &cli{factory: factory}

	root := &cobra.Command{
		Use:           "misictl",
		Short:         "Verify orders and manage missions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if c.app != nil {
				c.app.Close(cmd.Context())
				c.app = nil
			}
		},
	}
	root.PersistentFlags().BoolVar(&c.notify, "notify", false, "send WhatsApp notifications to clients")

	root.AddCommand(
		c.packagesCmd(),
		c.parseCmd(),
		c.planCmd(),
		c.verifyCmd(),
		c.rejectCmd(),
		c.resetCmd(),
		c.migrateCmd(),
	)
	return root
}

// load builds the app once per invocation.
func (c *cli) load(cmd *cobra.Command) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := c.factory(cmd.Context(), cmd.ErrOrStderr(), c.notify)
	if err != nil {
		return nil, err
	}
	if a.WhatsApp != nil {
		if err := a.WhatsApp.Start(cmd.Context()); err != nil {
			a.Close(cmd.Context())
			return nil, err
		}
	}
	c.app = a
	return a, nil
}
