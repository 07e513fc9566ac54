package review

import (
	"strconv"
	"time"
)

// MaxHistory bounds the number of saved reviews.
const MaxHistory = 10

// HistoryKey is the durable-store key holding saved reviews.
const HistoryKey = "review-history"

// Entry is one saved review. Entries are never modified after creation.
type Entry struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	StartYear *int      `json:"startYear,omitempty"`
	EndYear   *int      `json:"endYear,omitempty"`
	Draft     string    `json:"draft"`
	PaperIDs  []string  `json:"paperIds"`
	CreatedAt time.Time `json:"createdAt"`
}

func entryID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// insertEntry prepends e, dropping any entry with the same id and trimming
// the tail to MaxHistory.
func insertEntry(history []Entry, e Entry) []Entry {
	out := make([]Entry, 0, len(history)+1)
	out = append(out, e)
	for _, h := range history {
		if h.ID != e.ID {
			out = append(out, h)
		}
	}
	return truncate(out)
}

// deleteEntry removes the entry with id, keeping the order of the rest.
func deleteEntry(history []Entry, id string) ([]Entry, bool) {
	out := make([]Entry, 0, len(history))
	found := false
	for _, h := range history {
		if h.ID == id {
			found = true
			continue
		}
		out = append(out, h)
	}
	return out, found
}

func truncate(history []Entry) []Entry {
	if len(history) > MaxHistory {
		return history[:MaxHistory]
	}
	return history
}
