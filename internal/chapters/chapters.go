// Package chapters splits generated review text into titled chapters.
package chapters

import (
	"regexp"
	"strings"
)

// FullTextTitle titles the single chapter produced when text has no headings.
const FullTextTitle = "Full text"

// PreambleTitle titles text that appears before the first heading.
const PreambleTitle = "Preamble"

// Chapter is one titled section of a draft.
type Chapter struct {
	Title   string
	Content string
}

// heading matches a line opening with a Chinese ordinal and a list
// separator, e.g. "一、引言" or "十二．结论".
var heading = regexp.MustCompile(`(?m)^[ \t\x{3000}]*[一二三四五六七八九十百]+[、．.][^\n]*$`)

// Segment splits text at heading lines. Each heading line becomes a chapter
// title; the text up to the next heading is its content. Text without any
// heading yields one FullTextTitle chapter, and so does text whose only
// content comes before the first heading. Chapters with no content are
// dropped. The result depends only on text.
func Segment(text string) []Chapter {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []Chapter{}
	}

	marks := heading.FindAllStringIndex(trimmed, -1)
	if len(marks) == 0 {
		return []Chapter{{Title: FullTextTitle, Content: trimmed}}
	}

	var out []Chapter
	if pre := strings.TrimSpace(trimmed[:marks[0][0]]); pre != "" {
		out = append(out, Chapter{Title: PreambleTitle, Content: pre})
	}
	for i, m := range marks {
		end := len(trimmed)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		title := strings.TrimSpace(trimmed[m[0]:m[1]])
		content := strings.TrimSpace(trimmed[m[1]:end])
		if content == "" {
			continue
		}
		out = append(out, Chapter{Title: title, Content: content})
	}
	if out == nil {
		return []Chapter{}
	}
	// A preamble with nothing after it is the whole text.
	if len(out) == 1 && out[0].Title == PreambleTitle {
		out[0].Title = FullTextTitle
	}
	return out
}

// Join renders chapters back into draft text. Segment(Join(Segment(s)))
// equals Segment(s).
func Join(chs []Chapter) string {
	parts := make([]string, 0, len(chs))
	for _, ch := range chs {
		switch ch.Title {
		case FullTextTitle, PreambleTitle:
			parts = append(parts, ch.Content)
		default:
			parts = append(parts, ch.Title+"\n"+ch.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
