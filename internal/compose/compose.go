// Package compose assembles a review draft and its references into a single
// markdown document.
package compose

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/LitReview/internal/backend"
	"github.com/TobiSchelling/LitReview/internal/chapters"
)

const referencesLabel = "References"

// maxAuthors is how many names a reference lists before "et al.".
const maxAuthors = 3

// Document is everything shown for one review.
type Document struct {
	Topic      string
	StartYear  *int
	EndYear    *int
	Chapters   []chapters.Chapter
	References []backend.PaperBrief
}

// Markdown renders the document. Fallback chapters (full text, preamble) are
// emitted without a heading.
func Markdown(d Document) string {
	var sections []string

	title := "# Literature review"
	if t := strings.TrimSpace(d.Topic); t != "" {
		title += ": " + t
	}
	if span := YearSpan(d.StartYear, d.EndYear); span != "" {
		title += "\n\n_Publications " + span + "_"
	}
	sections = append(sections, title)

	for _, ch := range d.Chapters {
		if ch.Title == chapters.FullTextTitle || ch.Title == chapters.PreambleTitle {
			sections = append(sections, ch.Content)
			continue
		}
		sections = append(sections, fmt.Sprintf("## %s\n\n%s", ch.Title, ch.Content))
	}

	if len(d.References) > 0 {
		var refs []string
		for i, p := range d.References {
			refs = append(refs, FormatReference(i+1, p))
		}
		sections = append(sections, "## "+referencesLabel+"\n\n"+strings.Join(refs, "\n\n"))
	}

	return strings.Join(sections, "\n\n") + "\n"
}

// FormatReference renders one numbered entry as "[n] Authors. Title. Journal, Year."
// leaving out missing parts.
func FormatReference(n int, p backend.PaperBrief) string {
	parts := []string{fmt.Sprintf("[%d]", n)}
	if a := formatAuthors(p.Authors); a != "" {
		parts = append(parts, a+".")
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = p.ID
	}
	parts = append(parts, strings.TrimRight(title, ".")+".")

	var venue []string
	if j := strings.TrimSpace(p.Journal); j != "" {
		venue = append(venue, j)
	}
	if y := p.Year.String(); y != "" {
		venue = append(venue, y)
	}
	if len(venue) > 0 {
		parts = append(parts, strings.Join(venue, ", ")+".")
	}
	return strings.Join(parts, " ")
}

func formatAuthors(authors []string) string {
	var names []string
	for _, a := range authors {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	if len(names) == 0 {
		return ""
	}
	if len(names) > maxAuthors {
		return strings.Join(names[:maxAuthors], ", ") + ", et al"
	}
	return strings.Join(names, ", ")
}

// YearSpan describes an optional year range, e.g. "2019-2021", "since 2019".
func YearSpan(start, end *int) string {
	switch {
	case start != nil && end != nil:
		if *start == *end {
			return fmt.Sprintf("%d", *start)
		}
		return fmt.Sprintf("%d-%d", *start, *end)
	case start != nil:
		return fmt.Sprintf("since %d", *start)
	case end != nil:
		return fmt.Sprintf("until %d", *end)
	}
	return ""
}
