package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/TobiSchelling/LitReview/internal/chapters"
	"github.com/TobiSchelling/LitReview/internal/compose"
	"github.com/TobiSchelling/LitReview/internal/logger"
	"github.com/TobiSchelling/LitReview/internal/render"
	"github.com/TobiSchelling/LitReview/internal/review"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server previews the working review draft and its history.
type Server struct {
	reviews *review.Controller
	pages   map[string]*template.Template
	mux     *http.ServeMux
}

type chapterView struct {
	Index     int
	Title     string
	Heading   bool
	Collapsed bool
	Body      template.HTML
}

// New creates a new Server.
func New(reviews *review.Controller) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":  render.HTML,
		"yearSpan":  compose.YearSpan,
		"reference": compose.FormatReference,
		"inc":       func(i int) int { return i + 1 },
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so {{define "content"}} does not collide.
	pageNames := []string{"draft.html", "history.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{reviews: reviews, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleDraft)
	s.mux.HandleFunc("/document.md", s.handleDocument)
	s.mux.HandleFunc("/chapters/", s.handleChapterAction)
	s.mux.HandleFunc("/history", s.handleHistory)
	s.mux.HandleFunc("/history/", s.handleHistoryAction)
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	draft := s.reviews.Draft()
	var views []chapterView
	for i, ch := range s.reviews.Chapters() {
		views = append(views, chapterView{
			Index:     i,
			Title:     ch.Title,
			Heading:   !isFallback(ch.Title),
			Collapsed: s.reviews.Collapsed(i),
			Body:      render.HTML(ch.Content),
		})
	}

	s.render(w, "draft.html", map[string]any{
		"Draft":      draft,
		"Chapters":   views,
		"References": s.reviews.References(r.Context()),
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	draft := s.reviews.Draft()
	if strings.TrimSpace(draft.Text) == "" {
		http.Error(w, "No draft", http.StatusNotFound)
		return
	}
	doc := compose.Markdown(compose.Document{
		Topic:      draft.Topic,
		StartYear:  draft.StartYear,
		EndYear:    draft.EndYear,
		Chapters:   s.reviews.Chapters(),
		References: s.reviews.References(r.Context()),
	})
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="literature_review.md"`)
	_, _ = w.Write([]byte(doc))
}

func (s *Server) handleChapterAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/chapters/")
	switch path {
	case "expand":
		s.reviews.ExpandAll()
	case "collapse":
		s.reviews.CollapseAll()
	default:
		parts := strings.SplitN(path, "/", 2)
		if len(parts) != 2 || parts[1] != "toggle" {
			http.NotFound(w, r)
			return
		}
		i, err := strconv.Atoi(parts[0])
		if err != nil || i < 0 {
			http.NotFound(w, r)
			return
		}
		s.reviews.Toggle(i)
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.render(w, "history.html", map[string]any{
		"Entries": s.reviews.History(),
		"Max":     review.MaxHistory,
	})
}

func (s *Server) handleHistoryAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/history", http.StatusFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/history/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.Redirect(w, r, "/history", http.StatusFound)
		return
	}

	switch parts[1] {
	case "load":
		entry, ok := s.reviews.Entry(parts[0])
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.reviews.LoadFromHistory(entry)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	case "delete":
		s.reviews.DeleteFromHistory(parts[0])
	}

	http.Redirect(w, r, "/history", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		logger.Error("template not found", "name", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		logger.Error("rendering template", "name", name, "err", err)
	}
}

func isFallback(title string) bool {
	return title == chapters.FullTextTitle || title == chapters.PreambleTitle
}

// Serve starts the HTTP server on the given port.
func Serve(reviews *review.Controller, port int) error {
	srv, err := New(reviews)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	logger.Info("preview server listening", "url", "http://"+addr)
	return http.ListenAndServe(addr, srv.Handler())
}
