package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"NewsRanker/internal/freshness"
	"NewsRanker/internal/report"
)

func newRankCommand(rt *runtime) *cobra.Command {
	var (
		verticals []string
		all       bool
		outDir    string
		date      string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank verticals once and write their reports",
		Example: `  newsranker rank --all
  newsranker rank --vertical stocks --date 2026-03-10 --format text`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all && len(verticals) > 0 {
				return errors.New("--all and --vertical are mutually exclusive")
			}
			if format != "json" && format != "text" {
				return fmt.Errorf("unknown --format %q", format)
			}
			if outDir != "" {
				rt.cfg.Output.Dir = outDir
			}

			a, err := rt.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			day := time.Now().In(a.Location())
			if date != "" {
				day, err = time.ParseInLocation(freshness.DateLayout, date, a.Location())
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			reports, runErr := a.Rank(cmd.Context(), verticals, day)
			out := cmd.OutOrStdout()
			if format == "text" {
				if err := report.RenderText(out, reports...); err != nil {
					return err
				}
			} else {
				docs := make([]report.Document, 0, len(reports))
				for _, r := range reports {
					docs = append(docs, report.Build(r))
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(docs); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringSliceVar(&verticals, "vertical", nil, "vertical to rank (repeatable); defaults to all")
	cmd.Flags().BoolVar(&all, "all", false, "rank every enabled vertical")
	cmd.Flags().StringVar(&outDir, "out", "", "directory for report files (overrides config)")
	cmd.Flags().StringVar(&date, "date", "", "report date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&format, "format", "json", "stdout format: json or text")
	return cmd
}

func newStateCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or prune the seen-URL state",
	}

	show := &cobra.Command{
		Use:   "show <vertical>",
		Short: "Print the stored state of a vertical",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.SeenState(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("reading state: %w", err)
			}
			if state == nil {
				state = freshness.SeenState{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		},
	}

	prune := &cobra.Command{
		Use:   "prune [vertical...]",
		Short: "Drop dates outside the retention window",
		Long: `Delete seen-state dates older than the vertical's retention window.

Prunes every enabled vertical when none is named.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			names := args
			if len(names) == 0 {
				names = a.Verticals()
			}
			today := time.Now().In(a.Location())
			for _, name := range names {
				removed, err := a.PruneState(cmd.Context(), name, today)
				if err != nil {
					return fmt.Errorf("pruning %s: %w", name, err)
				}
				if removed == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: nothing to prune.\n", name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: pruned %d date(s).\n", name, removed)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(show, prune)
	return cmd
}

func newDaemonCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Rank every vertical now and then on the configured interval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Daemon(cmd.Context())
		},
	}
}
