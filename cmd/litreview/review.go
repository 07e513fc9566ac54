package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/LitReview/internal/backend"
	"github.com/TobiSchelling/LitReview/internal/compose"
	"github.com/TobiSchelling/LitReview/internal/render"
	"github.com/TobiSchelling/LitReview/internal/review"
)

var (
	exportFormat string
	showRaw      bool
	showWidth    int
	showQuiet    bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Generate, refine and export literature reviews",
}

var reviewGenerateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate a new review draft",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signalContext()
		defer stop()

		reviews := newReviews(db)
		topic := strings.Join(args, " ")
		fmt.Printf("Generating review for %q. This can take a few minutes...\n", topic)

		entry, err := reviews.Generate(ctx, review.GenerateInput{
			Topic:     topic,
			StartYear: optionalYear("start", filterStart, cmd),
			EndYear:   optionalYear("end", filterEnd, cmd),
		})
		if err != nil {
			return fmt.Errorf("generation failed: %s", describe(err))
		}

		fmt.Printf("Saved as history entry %s (%d papers).\n\n", entry.ID, len(entry.PaperIDs))
		if showQuiet {
			return nil
		}
		return printDraft(cmd, reviews)
	},
}

var reviewRefineCmd = &cobra.Command{
	Use:   "refine [instruction]",
	Short: "Rewrite the working draft according to an instruction",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signalContext()
		defer stop()

		reviews := newReviews(db)
		d := reviews.Draft()
		fmt.Println("Refining draft...")
		_, err = reviews.Refine(ctx, review.RefineInput{
			Draft:       d.Text,
			Instruction: strings.Join(args, " "),
			Topic:       d.Topic,
			PaperIDs:    d.PaperIDs,
		})
		if err != nil {
			return fmt.Errorf("refinement failed: %s", describe(err))
		}
		if showQuiet {
			fmt.Println("Draft updated.")
			return nil
		}
		fmt.Println()
		return printDraft(cmd, reviews)
	},
}

var reviewExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the working draft as plain text or LaTeX",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, ok := backend.ParseExportFormat(exportFormat)
		if !ok {
			return fmt.Errorf("unknown export format %q (use txt or latex)", exportFormat)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signalContext()
		defer stop()

		reviews := newReviews(db)
		path, err := reviews.Export(ctx, reviews.Draft().Text, format)
		if err != nil {
			return fmt.Errorf("export failed: %s", describe(err))
		}
		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

var reviewShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the working draft with its references",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		return printDraft(cmd, newReviews(db))
	},
}

// --- history subcommands ---

var reviewHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved reviews",
}

var reviewHistoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reviews, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		entries := newReviews(db).History()
		if len(entries) == 0 {
			fmt.Println("No saved reviews. Create one with: litreview review generate TOPIC")
			return nil
		}

		fmt.Printf("Saved reviews (%d/%d):\n\n", len(entries), review.MaxHistory)
		for _, e := range entries {
			line := fmt.Sprintf("  [%s] %s", e.ID, e.Topic)
			if span := compose.YearSpan(e.StartYear, e.EndYear); span != "" {
				line += " (" + span + ")"
			}
			fmt.Println(line)
			fmt.Printf("        %s, %d papers\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), len(e.PaperIDs))
		}
		return nil
	},
}

var reviewHistoryLoadCmd = &cobra.Command{
	Use:   "load [id]",
	Short: "Make a saved review the working draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		reviews := newReviews(db)
		entry, ok := reviews.Entry(args[0])
		if !ok {
			return fmt.Errorf("review %s not found", args[0])
		}
		reviews.LoadFromHistory(entry)
		fmt.Printf("Loaded review [%s]: %s\n", entry.ID, entry.Topic)
		return nil
	},
}

var reviewHistoryDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a saved review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if !newReviews(db).DeleteFromHistory(args[0]) {
			return fmt.Errorf("review %s not found", args[0])
		}
		fmt.Printf("Deleted review [%s]\n", args[0])
		return nil
	},
}

func init() {
	addYearFlags(reviewGenerateCmd)
	for _, c := range []*cobra.Command{reviewGenerateCmd, reviewRefineCmd} {
		c.Flags().BoolVarP(&showQuiet, "quiet", "q", false, "Do not print the resulting draft")
	}
	reviewExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "txt", "Export format: txt or latex")
	reviewShowCmd.Flags().BoolVar(&showRaw, "raw", false, "Print markdown without terminal styling")
	reviewCmd.PersistentFlags().IntVarP(&showWidth, "width", "w", render.DefaultWidth, "Wrap width")

	reviewHistoryCmd.AddCommand(reviewHistoryListCmd)
	reviewHistoryCmd.AddCommand(reviewHistoryLoadCmd)
	reviewHistoryCmd.AddCommand(reviewHistoryDeleteCmd)

	reviewCmd.AddCommand(reviewGenerateCmd)
	reviewCmd.AddCommand(reviewRefineCmd)
	reviewCmd.AddCommand(reviewExportCmd)
	reviewCmd.AddCommand(reviewShowCmd)
	reviewCmd.AddCommand(reviewHistoryCmd)
}

func printDraft(cmd *cobra.Command, reviews *review.Controller) error {
	d := reviews.Draft()
	if strings.TrimSpace(d.Text) == "" {
		fmt.Println("No working draft. Generate one with: litreview review generate TOPIC")
		return nil
	}

	ctx, stop := signalContext()
	defer stop()

	doc := compose.Markdown(compose.Document{
		Topic:      d.Topic,
		StartYear:  d.StartYear,
		EndYear:    d.EndYear,
		Chapters:   reviews.Chapters(),
		References: reviews.References(ctx),
	})
	if showRaw {
		fmt.Fprint(cmd.OutOrStdout(), doc)
		return nil
	}

	out, err := render.Terminal(doc, styleName, showWidth)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// describe turns controller and backend failures into user-facing text.
func describe(err error) string {
	switch {
	case errors.Is(err, review.ErrBusy):
		return "another request of this kind is still running"
	case errors.Is(err, review.ErrNothingToRefine):
		return "there is no working draft to refine, or the instruction is empty"
	case errors.Is(err, review.ErrNoDraft):
		return "there is no working draft"
	case errors.Is(err, backend.ErrEmptyResult):
		return "the service returned an empty draft"
	}
	return backend.Describe(err)
}
