package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/LitReview/internal/backend"
)

var (
	filterStart int
	filterEnd   int
	searchLimit int
)

func addYearFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&filterStart, "start", 0, "Earliest publication year")
	cmd.Flags().IntVar(&filterEnd, "end", 0, "Latest publication year")
}

func filterFrom(cmd *cobra.Command, args []string) backend.Filter {
	return backend.Filter{
		Topic:     strings.TrimSpace(strings.Join(args, " ")),
		StartYear: optionalYear("start", filterStart, cmd),
		EndYear:   optionalYear("end", filterEnd, cmd),
	}
}

var searchCmd = &cobra.Command{
	Use:   "search [topic]",
	Short: "Search the paper collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		res, err := newClient().Search(ctx, filterFrom(cmd, args))
		if err != nil {
			return fmt.Errorf("search failed: %s", backend.Describe(err))
		}

		fmt.Printf("%d paper(s) found\n\n", res.Total)
		for i, p := range res.Results {
			if searchLimit > 0 && i >= searchLimit {
				fmt.Printf("... %d more\n", len(res.Results)-searchLimit)
				break
			}
			fmt.Printf("  [%s] %s\n", p.ID, p.Title)
			meta := strings.Join(nonEmpty(strings.Join(p.Authors, ", "), p.Journal, p.Year.String()), " | ")
			if meta != "" {
				fmt.Printf("        %s\n", meta)
			}
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [topic]",
	Short: "Show collection statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		stats, err := newClient().DashboardStats(ctx, filterFrom(cmd, args))
		if err != nil {
			return fmt.Errorf("loading statistics failed: %s", backend.Describe(err))
		}

		fmt.Println("Papers per year:")
		for _, y := range stats.YearlyCounts {
			fmt.Printf("  %s: %d\n", y.Year, y.Count)
		}
		printNameValues("Top keywords", stats.TopKeywords, 15)
		printNameValues("Attitudes", stats.AttitudeDistribution, 0)
		printNameValues("Research paths", stats.ResearchPathDistribution, 0)
		return nil
	},
}

func init() {
	addYearFlags(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum papers to list (0 for all)")
	addYearFlags(statsCmd)
}

func printNameValues(title string, items []backend.NameValue, limit int) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for i, it := range items {
		if limit > 0 && i >= limit {
			break
		}
		fmt.Printf("  %s: %d\n", it.Name, it.Value)
	}
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
