package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/five82/sieve/internal/app"
)

func newServeCmd(c *cli) *cobra.Command {
	var opts app.ServeOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference feed API over SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ConfigPath = c.configPath
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			return app.Serve(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.DBPath, "db", "", "SQLite database path, overrides db_path")
	flags.StringVar(&opts.Listen, "listen", "", "listen address, overrides listen")
	flags.StringVar(&opts.SeedPath, "seed", "", "JSON seed imported before serving")
	return cmd
}
