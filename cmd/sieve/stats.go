package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/sieve/internal/feed"
)

type statsReport struct {
	Overview feed.StatsOverview `json:"overview"`
	Creators []feed.CreatorStat `json:"creators"`
}

func newStatsCmd(c *cli) *cobra.Command {
	var (
		query  = feed.StatsQuery{Days: 7}
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalogue totals and per-creator activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if query.Days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			s, err := c.session(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ctx := cmd.Context()
			overview, err := s.Client.FetchStatsOverview(ctx, query)
			if err != nil {
				return err
			}
			creators, err := s.Client.FetchCreatorStats(ctx, query)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), statsReport{Overview: overview, Creators: creators})
			}
			return writeStats(cmd.OutOrStdout(), overview, creators, time.Now())
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&query.Days, "days", query.Days, "window in days")
	flags.IntVar(&query.Limit, "limit", 0, "maximum creators (server default 200)")
	flags.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
