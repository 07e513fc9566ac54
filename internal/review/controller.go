// Package review drives review generation, refinement, export and the saved
// review history.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/TobiSchelling/LitReview/internal/backend"
	"github.com/TobiSchelling/LitReview/internal/chapters"
	"github.com/TobiSchelling/LitReview/internal/logger"
	"github.com/TobiSchelling/LitReview/internal/references"
	"github.com/TobiSchelling/LitReview/internal/store"
)

// DraftKey is the session-store key holding the working draft.
const DraftKey = "review-draft"

var (
	ErrBusy            = errors.New("an operation of this kind is already running")
	ErrEmptyTopic      = errors.New("topic is empty")
	ErrNothingToRefine = errors.New("draft and instruction are required")
	ErrNoDraft         = errors.New("there is no draft")
)

// ErrStale means the draft was replaced while a refinement was running.
var ErrStale = errors.New("draft changed while the request was running")

// Backend is the subset of the API the controller needs.
type Backend interface {
	GenerateReview(ctx context.Context, req backend.GenerateRequest) (*backend.GenerateResponse, error)
	RefineReview(ctx context.Context, req backend.RefineRequest) (*backend.RefineResponse, error)
	ExportReview(ctx context.Context, req backend.ExportRequest) (*backend.ExportResponse, error)
}

// Draft is the working review state.
type Draft struct {
	Topic     string   `json:"topic"`
	StartYear *int     `json:"startYear,omitempty"`
	EndYear   *int     `json:"endYear,omitempty"`
	Text      string   `json:"draft"`
	PaperIDs  []string `json:"paperIds"`
}

// GenerateInput selects what to review.
type GenerateInput struct {
	Topic     string
	StartYear *int
	EndYear   *int
}

// RefineInput carries the draft to rewrite and how.
type RefineInput struct {
	Draft       string
	Instruction string
	Topic       string
	PaperIDs    []string
}

// Options wires the controller's collaborators.
type Options struct {
	// Durable holds the history across sessions.
	Durable store.Store
	// Session holds the working draft for the current session.
	Session  store.Store
	Resolver *references.Resolver
	Sink     Sink
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller owns the draft, its chapter display state and the history.
type Controller struct {
	api      Backend
	durable  store.Store
	session  store.Store
	resolver *references.Resolver
	sink     Sink
	now      func() time.Time

	mu         sync.Mutex
	draft      Draft
	version    int
	history    []Entry
	collapsed  map[int]bool
	generating bool
	refining   bool

	refKey    string
	refBriefs []backend.PaperBrief
}

// New creates a controller and reads the persisted history and working draft.
func New(api Backend, opts Options) *Controller {
	c := &Controller{
		api:       api,
		durable:   opts.Durable,
		session:   opts.Session,
		resolver:  opts.Resolver,
		sink:      opts.Sink,
		now:       opts.Now,
		collapsed: make(map[int]bool),
	}
	if c.durable == nil {
		c.durable = store.NewMemoryStore()
	}
	if c.session == nil {
		c.session = store.NewMemoryStore()
	}
	if c.sink == nil {
		c.sink = FileSink{Dir: "."}
	}
	if c.now == nil {
		c.now = time.Now
	}

	var saved []Entry
	if store.LoadJSON(c.durable, HistoryKey, &saved) {
		c.history = truncate(saved)
	}
	store.LoadJSON(c.session, DraftKey, &c.draft)
	return c
}

// Draft returns a copy of the working draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyDraft(c.draft)
}

// History returns the saved reviews, newest first.
func (c *Controller) History() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.history...)
}

// Entry looks up a saved review by id.
func (c *Controller) Entry(id string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.history {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Generate requests a new draft. The current draft is cleared before the
// call; on failure it stays empty.
func (c *Controller) Generate(ctx context.Context, in GenerateInput) (Entry, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return Entry{}, ErrEmptyTopic
	}

	c.mu.Lock()
	if c.generating {
		c.mu.Unlock()
		return Entry{}, ErrBusy
	}
	c.generating = true
	c.replaceLocked(Draft{Topic: topic, StartYear: in.StartYear, EndYear: in.EndYear})
	version := c.version
	c.mu.Unlock()

	logger.Info("generating review", "topic", topic)
	resp, err := c.api.GenerateReview(ctx, backend.GenerateRequest{
		Topic:     topic,
		StartYear: in.StartYear,
		EndYear:   in.EndYear,
	})
	if err == nil && strings.TrimSpace(resp.Draft) == "" {
		err = backend.ErrEmptyResult
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generating = false
	if err != nil {
		logger.Warn("review generation failed", "topic", topic, "err", err)
		return Entry{}, err
	}

	created := c.now()
	entry := Entry{
		ID:        entryID(created),
		Topic:     topic,
		StartYear: in.StartYear,
		EndYear:   in.EndYear,
		Draft:     resp.Draft,
		PaperIDs:  append([]string(nil), resp.PaperIDs...),
		CreatedAt: created,
	}
	c.history = insertEntry(c.history, entry)
	store.SaveJSON(c.durable, HistoryKey, c.history)

	if c.version == version {
		c.replaceLocked(Draft{
			Topic:     topic,
			StartYear: in.StartYear,
			EndYear:   in.EndYear,
			Text:      resp.Draft,
			PaperIDs:  entry.PaperIDs,
		})
	} else {
		logger.Debug("draft replaced while generating, result kept in history only", "id", entry.ID)
	}
	logger.Info("review generated", "id", entry.ID, "papers", len(entry.PaperIDs))
	return entry, nil
}

// Refine rewrites in.Draft according to in.Instruction and replaces the
// working draft text. Paper ids and history are left alone.
func (c *Controller) Refine(ctx context.Context, in RefineInput) (string, error) {
	if strings.TrimSpace(in.Draft) == "" || strings.TrimSpace(in.Instruction) == "" {
		return "", ErrNothingToRefine
	}

	c.mu.Lock()
	if c.refining {
		c.mu.Unlock()
		return "", ErrBusy
	}
	c.refining = true
	version := c.version
	c.mu.Unlock()

	resp, err := c.api.RefineReview(ctx, backend.RefineRequest{
		Draft:    in.Draft,
		Question: strings.TrimSpace(in.Instruction),
		Topic:    in.Topic,
		PaperIDs: in.PaperIDs,
	})
	if err == nil && strings.TrimSpace(resp.Draft) == "" {
		err = backend.ErrEmptyResult
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refining = false
	if err != nil {
		logger.Warn("review refinement failed", "err", err)
		return "", err
	}
	if c.version != version {
		logger.Debug("draft replaced while refining, discarding result")
		return "", ErrStale
	}

	next := copyDraft(c.draft)
	next.Text = resp.Draft
	c.replaceTextLocked(next)
	return resp.Draft, nil
}

// Export renders draft server-side and hands the result to the sink. It
// returns where the sink stored it.
func (c *Controller) Export(ctx context.Context, draft string, format backend.ExportFormat) (string, error) {
	if strings.TrimSpace(draft) == "" {
		return "", ErrNoDraft
	}
	resp, err := c.api.ExportReview(ctx, backend.ExportRequest{Draft: draft, Format: format})
	if err != nil {
		logger.Warn("review export failed", "format", format, "err", err)
		return "", err
	}
	filename := resp.Filename
	if strings.TrimSpace(filename) == "" {
		filename = defaultFilename(format)
	}
	path, err := c.sink.Save(filename, resp.Mime, resp.Content)
	if err != nil {
		return "", fmt.Errorf("saving export: %w", err)
	}
	logger.Info("review exported", "path", path)
	return path, nil
}

func defaultFilename(format backend.ExportFormat) string {
	if format == backend.ExportLaTeX {
		return "literature_review.tex"
	}
	return "literature_review.txt"
}

// LoadFromHistory makes e the working draft. The history is not changed.
func (c *Controller) LoadFromHistory(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceLocked(Draft{
		Topic:     e.Topic,
		StartYear: e.StartYear,
		EndYear:   e.EndYear,
		Text:      e.Draft,
		PaperIDs:  append([]string(nil), e.PaperIDs...),
	})
}

// DeleteFromHistory removes the entry with id and reports whether it existed.
func (c *Controller) DeleteFromHistory(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, found := deleteEntry(c.history, id)
	if !found {
		return false
	}
	c.history = next
	store.SaveJSON(c.durable, HistoryKey, c.history)
	return true
}

// Chapters segments the current draft text.
func (c *Controller) Chapters() []chapters.Chapter {
	c.mu.Lock()
	text := c.draft.Text
	c.mu.Unlock()
	return chapters.Segment(text)
}

// Collapsed reports whether the chapter at position i is collapsed.
func (c *Controller) Collapsed(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collapsed[i]
}

// Toggle flips the collapsed flag of the chapter at position i.
func (c *Controller) Toggle(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collapsed[i] = !c.collapsed[i]
}

// ExpandAll clears every collapsed flag.
func (c *Controller) ExpandAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collapsed = make(map[int]bool)
}

// CollapseAll collapses every chapter of the current draft.
func (c *Controller) CollapseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(chapters.Segment(c.draft.Text))
	c.collapsed = make(map[int]bool, n)
	for i := 0; i < n; i++ {
		c.collapsed[i] = true
	}
}

// References resolves the current draft's paper ids. The result is cached
// until the id set changes.
func (c *Controller) References(ctx context.Context) []backend.PaperBrief {
	c.mu.Lock()
	ids := append([]string(nil), c.draft.PaperIDs...)
	key := strings.Join(ids, "\x00")
	if c.refBriefs != nil && c.refKey == key {
		out := append([]backend.PaperBrief(nil), c.refBriefs...)
		c.mu.Unlock()
		return out
	}
	c.mu.Unlock()

	if c.resolver == nil {
		return []backend.PaperBrief{}
	}
	briefs := c.resolver.Resolve(ctx, ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.Join(c.draft.PaperIDs, "\x00") == key && len(briefs) > 0 {
		c.refKey = key
		c.refBriefs = briefs
	}
	return append([]backend.PaperBrief(nil), briefs...)
}

// replaceLocked swaps the whole draft, which resets display state and the
// reference cache.
func (c *Controller) replaceLocked(d Draft) {
	c.version++
	c.refKey = ""
	c.refBriefs = nil
	c.replaceTextLocked(d)
}

// replaceTextLocked stores d and resets chapter display state.
func (c *Controller) replaceTextLocked(d Draft) {
	c.draft = d
	c.collapsed = make(map[int]bool)
	store.SaveJSON(c.session, DraftKey, c.draft)
}

func copyDraft(d Draft) Draft {
	d.PaperIDs = append([]string(nil), d.PaperIDs...)
	return d
}
