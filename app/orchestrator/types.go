package orchestrator

import (
	"github.com/mouwelfare/crawler/app/crawler"
	"github.com/mouwelfare/crawler/app/sources"
)

// Selection names one source to crawl, with optional per-invocation
// overrides.
type Selection struct {
	ID      string             `json:"id"`
	SeedURL string             `json:"seedUrl,omitempty"`
	Config  *sources.Overrides `json:"config,omitempty"`
}

// SourceResult reports the outcome of one source crawl. Error is non-empty
// when the crawl failed after dispatch; records gathered before the failure
// are still included.
type SourceResult struct {
	ID      string           `json:"id"`
	Count   int              `json:"count"`
	Records []crawler.Record `json:"records"`
	Error   string           `json:"error,omitempty"`
}

// Result is the outcome of a whole invocation. Success reflects that the
// invocation ran; individual sources may still have failed.
type Result struct {
	Success        bool           `json:"success"`
	PerSource      []SourceResult `json:"perSource"`
	OutputLocation string         `json:"outputLocation"`
}
