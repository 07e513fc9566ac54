package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/LitReview/internal/backend"
	"github.com/TobiSchelling/LitReview/internal/references"
	"github.com/TobiSchelling/LitReview/internal/review"
	"github.com/TobiSchelling/LitReview/internal/store"
)

type stubBackend struct{}

func (stubBackend) GenerateReview(context.Context, backend.GenerateRequest) (*backend.GenerateResponse, error) {
	return nil, backend.ErrTimeout
}

func (stubBackend) RefineReview(context.Context, backend.RefineRequest) (*backend.RefineResponse, error) {
	return nil, backend.ErrTimeout
}

func (stubBackend) ExportReview(context.Context, backend.ExportRequest) (*backend.ExportResponse, error) {
	return nil, backend.ErrTimeout
}

type stubFetcher struct{}

func (stubFetcher) PapersByIDs(_ context.Context, ids []string) ([]backend.PaperBrief, error) {
	var out []backend.PaperBrief
	for _, id := range ids {
		out = append(out, backend.PaperBrief{ID: id, Title: "Title " + id, Authors: []string{"张三"}, Year: 2020, Journal: "J"})
	}
	return out, nil
}

const draft = "一、引言\n引言内容\n二、结论\n结论内容"

func newTestServer(t *testing.T, history []review.Entry) (*Server, *review.Controller) {
	t.Helper()
	durable := store.NewMemoryStore()
	if history != nil {
		store.SaveJSON(durable, review.HistoryKey, history)
	}
	ctrl := review.New(stubBackend{}, review.Options{
		Durable:  durable,
		Session:  store.NewMemoryStore(),
		Resolver: references.NewResolver(stubFetcher{}),
	})
	srv, err := New(ctrl)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, ctrl
}

func do(srv *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestDraftRouteEmpty(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(srv, "GET", "/")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No review yet") {
		t.Error("expected empty-state text in response")
	}
}

func TestDraftRouteShowsChaptersAndReferences(t *testing.T) {
	srv, ctrl := newTestServer(t, nil)
	ctrl.LoadFromHistory(review.Entry{Topic: "数字政府", Draft: draft, PaperIDs: []string{"p1"}})

	rec := do(srv, "GET", "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"数字政府", "<h2>一、引言</h2>", "引言内容", "结论内容", "[1] 张三. Title p1. J, 2020."} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in response", want)
		}
	}
}

func TestUnknownPath(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	if rec := do(srv, "GET", "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestChapterToggleRoute(t *testing.T) {
	srv, ctrl := newTestServer(t, nil)
	ctrl.LoadFromHistory(review.Entry{Topic: "T", Draft: draft})

	rec := do(srv, "POST", "/chapters/1/toggle")
	if rec.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", rec.Code)
	}
	if ctrl.Collapsed(0) || !ctrl.Collapsed(1) {
		t.Error("expected only chapter 1 to be collapsed")
	}

	body := do(srv, "GET", "/").Body.String()
	if strings.Contains(body, "结论内容") {
		t.Error("collapsed chapter body should be hidden")
	}
	if !strings.Contains(body, "引言内容") {
		t.Error("expanded chapter body should be shown")
	}
}

func TestChapterExpandCollapseAll(t *testing.T) {
	srv, ctrl := newTestServer(t, nil)
	ctrl.LoadFromHistory(review.Entry{Topic: "T", Draft: draft})

	do(srv, "POST", "/chapters/collapse")
	if !ctrl.Collapsed(0) || !ctrl.Collapsed(1) {
		t.Error("expected all chapters collapsed")
	}
	do(srv, "POST", "/chapters/expand")
	if ctrl.Collapsed(0) || ctrl.Collapsed(1) {
		t.Error("expected all chapters expanded")
	}
}

func TestChapterActionRejectsGetAndBadIndex(t *testing.T) {
	srv, ctrl := newTestServer(t, nil)
	ctrl.LoadFromHistory(review.Entry{Topic: "T", Draft: draft})

	if rec := do(srv, "GET", "/chapters/0/toggle"); rec.Code != http.StatusFound {
		t.Errorf("expected redirect for GET, got %d", rec.Code)
	}
	if ctrl.Collapsed(0) {
		t.Error("GET must not toggle")
	}
	if rec := do(srv, "POST", "/chapters/x/toggle"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHistoryRoutes(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	srv, ctrl := newTestServer(t, []review.Entry{
		{ID: "2", Topic: "second", Draft: draft, PaperIDs: []string{"p1"}, CreatedAt: created},
		{ID: "1", Topic: "first", Draft: "全文", CreatedAt: created},
	})

	body := do(srv, "GET", "/history").Body.String()
	if !strings.Contains(body, "second") || !strings.Contains(body, "first") {
		t.Error("expected both entries listed")
	}
	if strings.Index(body, "second") > strings.Index(body, "first") {
		t.Error("expected newest entry first")
	}

	rec := do(srv, "POST", "/history/1/load")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Errorf("expected redirect to /, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if got := ctrl.Draft().Topic; got != "first" {
		t.Errorf("expected loaded topic 'first', got %q", got)
	}

	if rec := do(srv, "POST", "/history/missing/load"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown entry, got %d", rec.Code)
	}

	do(srv, "POST", "/history/2/delete")
	history := ctrl.History()
	if len(history) != 1 || history[0].ID != "1" {
		t.Errorf("expected only entry 1 left, got %+v", history)
	}
}

func TestDocumentRoute(t *testing.T) {
	srv, ctrl := newTestServer(t, nil)
	if rec := do(srv, "GET", "/document.md"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without draft, got %d", rec.Code)
	}

	ctrl.LoadFromHistory(review.Entry{Topic: "T", Draft: draft, PaperIDs: []string{"p1"}})
	rec := do(srv, "GET", "/document.md")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "## 一、引言") || !strings.Contains(body, "## References") {
		t.Errorf("unexpected document:\n%s", body)
	}
}

func TestStaticRoute(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	if rec := do(srv, "GET", "/static/style.css"); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
