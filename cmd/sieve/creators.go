package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/sieve/internal/engine"
	"github.com/five82/sieve/internal/feed"
)

func newCreatorsCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "creators",
		Short: "List creators and their triage settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.session(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if err := s.Editor.Load(cmd.Context()); err != nil {
				return err
			}
			rows := s.Creators.Snapshot().Rows
			if asJSON {
				creators := make([]feed.Creator, 0, len(rows))
				for _, row := range rows {
					creators = append(creators, row.Committed)
				}
				return writeJSON(cmd.OutOrStdout(), creators)
			}
			return writeCreators(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.AddCommand(newCreatorsSetCmd(c))
	return cmd
}

func newCreatorsSetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set <uid> <field> <value>",
		Short: "Change one creator field (enabled, priority or weight)",
		Long: strings.TrimSpace(`
Change one creator field. Priority below zero becomes 0 and weight below one
becomes 1. Weight cannot be changed while the creator is must-watch
(priority above zero).`),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || uid <= 0 {
				return fmt.Errorf("invalid uid %q", args[0])
			}
			field, err := feed.ParseCreatorField(args[1])
			if err != nil {
				return err
			}
			if field == feed.FieldEnabled {
				if _, ok := engine.ParseToggle(args[2]); !ok {
					return fmt.Errorf("enabled takes on/off, got %q", args[2])
				}
			}

			s, err := c.session(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ctx := cmd.Context()
			if err := s.Editor.Load(ctx); err != nil {
				return err
			}
			outcome, err := s.Editor.SetField(ctx, uid, field, args[2])
			if err != nil {
				return fmt.Errorf("set %s on %d: %s", field, uid, feed.Reason(err))
			}

			out := cmd.OutOrStdout()
			switch outcome {
			case engine.EditUnknown:
				return fmt.Errorf("no creator with uid %d", uid)
			case engine.EditLocked:
				return fmt.Errorf("weight is locked while %d is must-watch", uid)
			case engine.EditNoOp:
				_, err = fmt.Fprintf(out, "%d %s unchanged\n", uid, field)
				return err
			}
			row, _ := s.Creators.Row(uid)
			_, err = fmt.Fprintf(out, "%s: %s = %s\n", row.Committed.DisplayName(), field, field.Format(field.Get(row.Committed)))
			return err
		},
	}
}

func newGroupsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List creator groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.session(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			groups, err := s.Client.FetchCreatorGroups(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range groups {
				if _, err := fmt.Fprintln(out, g); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
