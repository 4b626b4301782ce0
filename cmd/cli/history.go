package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yourusername/quickdl-go/internal/domain"
)

func newHistoryCmd(env *cliEnv) *cobra.Command {
	var platform string
	var limit int
	var stats bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent fetches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stats {
				return env.showHistoryStats()
			}
			return env.showHistory(domain.Platform(strings.ToLower(platform)), limit)
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Filter by platform")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")
	cmd.Flags().BoolVar(&stats, "stats", false, "Show history statistics")
	return cmd
}

func (e *cliEnv) showHistory(platform domain.Platform, limit int) error {
	if platform != "" && !domain.ValidatePlatform(platform) {
		return fmt.Errorf("unsupported platform %q", platform)
	}

	records, err := e.store.FindRecent(platform, limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(e.out, "No fetches yet")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		saved := "-"
		if r.IsRetrieved() {
			saved = r.SavedPath
		}
		rows = append(rows, []string{
			truncate(r.ID, 8),
			string(r.Platform),
			truncate(r.Title, 40),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			saved,
		})
	}

	fmt.Fprintln(e.out, renderTable(
		[]string{"ID", "Platform", "Title", "Fetched", "Saved"},
		rows,
		nil,
	))
	return nil
}

func (e *cliEnv) showHistoryStats() error {
	stats, err := e.store.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	platforms := make([]string, 0, len(stats.ByPlatform))
	for p := range stats.ByPlatform {
		platforms = append(platforms, string(p))
	}
	sort.Strings(platforms)

	rows := [][]string{
		{"Total", strconv.FormatInt(stats.Total, 10)},
		{"Saved", strconv.FormatInt(stats.Retrieved, 10)},
	}
	for _, p := range platforms {
		rows = append(rows, []string{p, strconv.FormatInt(stats.ByPlatform[domain.Platform(p)], 10)})
	}

	fmt.Fprintln(e.out, renderTable([]string{"History", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}
