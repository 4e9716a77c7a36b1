package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/sieve/internal/app"
	"github.com/five82/sieve/internal/config"
	"github.com/five82/sieve/internal/engine"
	"github.com/five82/sieve/internal/feed"
	"github.com/five82/sieve/internal/state"
)

type listFlags struct {
	query  string
	tag    string
	group  string
	min    int64
	max    int64
	state  string
	all    bool
	sort   string
	limit  int
	offset int
	json   bool
}

// filter layers the flags over the configured base filter.
func (f listFlags) filter(s *app.Session) (feed.Filter, error) {
	filter := s.Config.BaseFilter()
	filter.Sort = s.Prefs.SortKey(filter.Sort)
	filter.Query = strings.TrimSpace(f.query)
	filter.Tag = strings.TrimSpace(f.tag)
	filter.Group = strings.TrimSpace(f.group)
	filter.ViewMin = max(f.min, 0)
	filter.ViewMax = max(f.max, 0)
	filter.Offset = max(f.offset, 0)
	if f.all {
		filter.WhitelistOnly = false
	}
	if v := strings.TrimSpace(f.sort); v != "" {
		filter.Sort = feed.ParseSortKey(v)
	}
	if f.limit > 0 {
		filter.Limit = config.ClampPageSize(f.limit)
	}
	if v := strings.TrimSpace(f.state); v != "" {
		st, err := feed.ParseState(v)
		if err != nil {
			return feed.Filter{}, err
		}
		filter.State = st
	}
	return filter, nil
}

func newListCmd(c *cli) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List videos matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.session(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			filter, err := f.filter(s)
			if err != nil {
				return err
			}
			return showVideos(cmd, s, state.Source{Filter: filter}, f.json)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.query, "query", "q", "", "title substring")
	flags.StringVar(&f.tag, "tag", "", "exact tag")
	flags.StringVar(&f.group, "group", "", "creator group")
	flags.Int64Var(&f.min, "min", 0, "minimum view count")
	flags.Int64Var(&f.max, "max", 0, "maximum view count")
	flags.StringVar(&f.state, "state", "", "only videos in this state")
	flags.BoolVar(&f.all, "all", false, "include creators outside the whitelist")
	flags.StringVar(&f.sort, "sort", "", "sort order: pub or view")
	flags.IntVar(&f.limit, "limit", 0, "page size (1-200)")
	flags.IntVar(&f.offset, "offset", 0, "rows to skip")
	flags.BoolVar(&f.json, "json", false, "print JSON")
	return cmd
}

func newDailyCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show the curated daily subset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.session(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			return showVideos(cmd, s, state.Source{Daily: true}, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func showVideos(cmd *cobra.Command, s *app.Session, src state.Source, asJSON bool) error {
	if err := s.Engine.Load(cmd.Context(), src); err != nil {
		return err
	}
	videos := s.List.Snapshot().Videos
	if asJSON {
		if videos == nil {
			videos = []feed.Video{}
		}
		return writeJSON(cmd.OutOrStdout(), videos)
	}
	return writeVideos(cmd.OutOrStdout(), videos, time.Now())
}

func newMarkCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mark <bvid> <state>",
		Short: "Move one video to a new state",
		Long: strings.TrimSpace(`
Move one video to a new state. States: NEW, LATER, STAR, WATCHED, HIDDEN, READ.
The change goes through the same transition engine as the interactive UI.`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return fmt.Errorf("bvid is required")
			}
			next, err := feed.ParseState(args[1])
			if err != nil {
				return err
			}

			s, err := c.session(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ctx := cmd.Context()
			current, err := currentState(cmd, s.Client, id)
			if err != nil {
				return err
			}
			s.List.Replace(state.Source{}, []feed.Video{{ID: id, State: current}})

			outcome, err := s.Engine.Request(ctx, id, next)
			if err != nil {
				return fmt.Errorf("mark %s %s: %s", id, next, feed.Reason(err))
			}
			out := cmd.OutOrStdout()
			if outcome == engine.NoOp {
				_, err = fmt.Fprintf(out, "%s is already %s\n", id, next)
				return err
			}
			if n, ok := s.Notifier.Current(); ok {
				_, err = fmt.Fprintf(out, "%s: %s\n", id, n.Text)
				return err
			}
			return nil
		},
	}
}

// currentState looks up the last recorded state of id. Videos never touched
// are NEW.
func currentState(cmd *cobra.Command, client *feed.Client, id string) (feed.State, error) {
	records, err := client.FetchStates(cmd.Context(), feed.StateQuery{ID: id, Limit: 1})
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return feed.StateNew, nil
	}
	return records[0].State, nil
}
