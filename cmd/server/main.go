package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/nestdevhive/internal/server"
	"github.com/dmitrijs2005/nestdevhive/internal/server/config"
	"github.com/spf13/cobra"
)

func newApp(args []string) (*server.App, error) {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return nil, err
	}
	return server.NewApp(cfg)
}

func main() {

	root := &cobra.Command{
		Use:          "nestdevhive",
		Short:        "nestdevhive API server",
		SilenceUsage: true,
	}

	// Flags are parsed by config.LoadConfig so every setting can also come
	// from the environment or a config file.
	serveCmd := &cobra.Command{
		Use:                "serve",
		Short:              "Apply migrations and serve HTTP and gRPC",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(args)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}

	migrateCmd := &cobra.Command{
		Use:                "migrate",
		Short:              "Apply database migrations and exit",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(args)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Migrate(cmd.Context())
		},
	}

	root.AddCommand(serveCmd, migrateCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
