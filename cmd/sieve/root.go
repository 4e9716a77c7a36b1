package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/sieve/internal/app"
)

// cli holds the persistent flags shared by every command.
type cli struct {
	configPath string
	prefsPath  string
	apiURL     string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:           "sieve",
		Short:         "Triage a curated video feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		Example: strings.TrimSpace(`
  # Start the interactive triage UI
  sieve

  # Scriptable commands
  sieve list --tag go --sort view
  sieve mark BV1xx411c7mD later
  sieve creators set 42 priority 3

  # Run the reference backend with sample data
  sieve serve --seed seed.json
`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTUI(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default ~/.config/sieve/config.toml)")
	flags.StringVar(&c.prefsPath, "prefs", "", "preferences file (default ~/.config/sieve/prefs.toml)")
	flags.StringVar(&c.apiURL, "api", "", "feed API base URL, overrides api_url")

	cmd.AddCommand(
		newTUICmd(c),
		newListCmd(c),
		newDailyCmd(c),
		newMarkCmd(c),
		newCreatorsCmd(c),
		newGroupsCmd(c),
		newStatsCmd(c),
		newServeCmd(c),
		newLogCmd(c),
	)
	return cmd
}

func newTUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive triage UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTUI(cmd)
		},
	}
}

func (c *cli) options() app.Options {
	return app.Options{
		ConfigPath: c.configPath,
		PrefsPath:  c.prefsPath,
		APIURL:     c.apiURL,
	}
}

func (c *cli) runTUI(cmd *cobra.Command) error {
	return app.Run(cmd.Context(), c.options())
}

// session wires a non-interactive session that logs warnings to stderr.
func (c *cli) session(cmd *cobra.Command) (*app.Session, error) {
	opts := c.options()
	opts.Logger = app.NewLogger(cmd.ErrOrStderr(), slog.LevelWarn)
	return app.NewSession(opts)
}
