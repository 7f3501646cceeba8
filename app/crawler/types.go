package crawler

import (
	"context"

	"github.com/mouwelfare/crawler/app/sources"
)

// Record is one normalized welfare announcement.
type Record struct {
	City    string `json:"city"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// Complete reports whether the record satisfies the persistence invariant:
// title, date and content must all be non-empty. Partial records are never
// emitted.
func (r Record) Complete() bool {
	return r.Title != "" && r.Date != "" && r.Content != ""
}

// EmitFunc receives each completed record the moment it passes the
// completeness gate.
type EmitFunc func(Record) error

// Source is one crawl strategy. Implementations walk their site topology
// and emit records in traversal order. The visited set is owned by the
// caller and shared across concurrently running sources; per-page failures
// are handled internally and only setup or emit failures are returned.
type Source interface {
	Crawl(ctx context.Context, cfg *sources.Config, visited *Visited, emit EmitFunc) error
}
