package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/pmtool"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Search and replay event logs",
	}
	cmd.AddCommand(newLogSearchCmd(), newLogTodayCmd(), newLogReplayCmd())
	return cmd
}

func newLogSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search event logs with optional filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			filter := pmtool.SearchFilter{}
			filter.User, _ = cmd.Flags().GetString("user")
			filter.Host, _ = cmd.Flags().GetString("host")
			filter.After, _ = cmd.Flags().GetString("after")
			filter.Before, _ = cmd.Flags().GetString("before")
			pattern, _ := cmd.Flags().GetString("pattern")
			return logSearch(a, filter, pattern)
		},
	}
	cmd.Flags().String("user", "", "Filter by requesting user")
	cmd.Flags().String("host", "", "Filter by host")
	cmd.Flags().String("after", "", "Events on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("before", "", "Events on or before this date (YYYY-MM-DD)")
	cmd.Flags().String("pattern", "", "Only show lines with a field matching this glob pattern")
	return cmd
}

func newLogTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			today := time.Now().Format("2006-01-02")
			return logSearch(a, pmtool.SearchFilter{After: today}, "")
		},
	}
}

func newLogReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <logfile>",
		Short: "Replay a recorded session log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return logReplay(a, args[0])
		},
	}
}

func logSearch(a *app, filter pmtool.SearchFilter, pattern string) error {
	out, err := a.run.LogSearch(filter)
	if err != nil {
		a.log.Error("log-search", "%v", err)
		return err
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if pattern != "" {
		lines, err = matchLines(lines, pattern)
		if err != nil {
			return err
		}
	}

	shown := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		fmt.Fprintln(a.out, line)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(a.out, "No matching events.")
	}
	a.log.Success("log-search", "%d events shown", shown)
	return nil
}

// matchLines keeps lines where the whole line or any whitespace-separated
// field matches the glob pattern.
func matchLines(lines []string, pattern string) ([]string, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var matched []string
	for _, line := range lines {
		if g.Match(line) {
			matched = append(matched, line)
			continue
		}
		for _, field := range strings.Fields(line) {
			if g.Match(field) {
				matched = append(matched, line)
				break
			}
		}
	}
	return matched, nil
}

func logReplay(a *app, logfile string) error {
	if err := a.run.Replay(logfile); err != nil {
		a.log.Error("log-replay", "replaying %s: %v", logfile, err)
		return err
	}
	a.log.Success("log-replay", "replayed %s", logfile)
	return nil
}
