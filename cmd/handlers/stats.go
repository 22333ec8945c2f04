package handlers

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"currents/internal/config"
	"currents/internal/repo"
)

// NewStatsCmd creates the stats command for repository reporting.
func NewStatsCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show repository statistics for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().UTC()
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date, want YYYY-MM-DD: %w", err)
				}
				day = parsed
			}
			return showStats(day)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to report on (YYYY-MM-DD, default today)")

	return cmd
}

func showStats(day time.Time) error {
	gateway, err := repo.NewGateway(config.GetRepository().Path)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	defer gateway.Close()

	count, err := gateway.CountByDate(day)
	if err != nil {
		return err
	}
	fmt.Printf("Articles enriched on %s: %d\n", day.Format("2006-01-02"), count)

	if count > 0 {
		records, err := gateway.GetByDate(day)
		if err != nil {
			return err
		}
		fmt.Println()
		for _, r := range records {
			fmt.Printf("  [%3d] %-10s %-4s %s\n", r.Relevance, r.Importance, r.GSPaper, r.Title)
		}
	}

	breakdown, err := gateway.SourceBreakdown()
	if err != nil {
		return err
	}
	if len(breakdown) > 0 {
		names := make([]string, 0, len(breakdown))
		for name := range breakdown {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println("\nAll-time by source:")
		for _, name := range names {
			fmt.Printf("  %-20s %d\n", name, breakdown[name])
		}
	}

	return nil
}
