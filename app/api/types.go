package api

import (
	"github.com/mouwelfare/crawler/app/database"
	"github.com/mouwelfare/crawler/app/orchestrator"
	"github.com/mouwelfare/crawler/app/sources"
)

type Handler struct {
	orch    *orchestrator.Orchestrator
	cache   *sources.Cache
	repo    database.RecordRepository
	version string
}

// CrawlRequest selects the sources for one crawl invocation.
type CrawlRequest struct {
	Sources []orchestrator.Selection `json:"sources" binding:"required"`
}
