package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/sieve/internal/config"
	"github.com/five82/sieve/internal/logtail"
)

func newLogCmd(c *cli) *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the end of the session log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if strings.TrimSpace(cfg.LogFile) == "" {
				return fmt.Errorf("log_file is not set")
			}
			raw, err := logtail.Read(cfg.LogFile, lines)
			if err != nil {
				return err
			}

			entries := make([]logtail.Entry, 0, len(raw))
			for _, line := range raw {
				if strings.TrimSpace(line) == "" {
					continue
				}
				entries = append(entries, logtail.Parse(line))
			}
			out := cmd.OutOrStdout()
			for _, e := range logtail.Filter(entries, logtail.ParseLevel(level)) {
				if _, err := fmt.Fprintln(out, logtail.Format(e)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&lines, "lines", "n", 50, "lines to read from the end, 0 for all")
	flags.StringVar(&level, "level", "info", "minimum level: debug, info, warn or error")
	return cmd
}
