// Package references resolves paper ids into bibliographic records for
// display. Resolution is best effort and never fails.
package references

import (
	"context"

	"github.com/TobiSchelling/LitReview/internal/backend"
	"github.com/TobiSchelling/LitReview/internal/logger"
)

// Fetcher looks up papers by id.
type Fetcher interface {
	PapersByIDs(ctx context.Context, ids []string) ([]backend.PaperBrief, error)
}

// Resolver maps paper ids to PaperBriefs.
type Resolver struct {
	fetcher Fetcher
}

// NewResolver creates a resolver backed by fetcher.
func NewResolver(fetcher Fetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve returns briefs in the order the backend sent them. An empty id
// list returns immediately; any failure yields an empty result.
func (r *Resolver) Resolve(ctx context.Context, ids []string) []backend.PaperBrief {
	if len(ids) == 0 {
		return []backend.PaperBrief{}
	}
	papers, err := r.fetcher.PapersByIDs(ctx, ids)
	if err != nil {
		logger.Warn("resolving references failed", "ids", len(ids), "err", err)
		return []backend.PaperBrief{}
	}
	if papers == nil {
		return []backend.PaperBrief{}
	}
	return papers
}
