package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mouwelfare/crawler/app/database"
	"github.com/mouwelfare/crawler/app/orchestrator"
	"github.com/mouwelfare/crawler/app/sources"
)

func NewHandler(orch *orchestrator.Orchestrator, cache *sources.Cache,
	repo database.RecordRepository, version string) *Handler {
	return &Handler{
		orch:    orch,
		cache:   cache,
		repo:    repo,
		version: version,
	}
}

// RunCrawl triggers a crawl invocation for the selected sources and blocks
// until it finishes. Input problems fail the whole request before any site
// is touched; per-source failures after dispatch come back in the result.
func (h *Handler) RunCrawl(c *gin.Context) {
	var req CrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "message": err.Error()})
		return
	}

	if len(req.Sources) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no sources selected"})
		return
	}

	result, err := h.orch.Run(c.Request.Context(), req.Sources)
	if err != nil {
		slog.Error("Crawl request rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRecords serves archived records, optionally filtered by city.
func (h *Handler) GetRecords(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "record archive disabled"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.repo.GetRecords(c.Query("city"), limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_records", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"records": toRecordResponses(records),
	})
}

// HealthCheck reports service status and basic counters.
func (h *Handler) HealthCheck(c *gin.Context) {
	status := gin.H{
		"status":  "ok",
		"version": h.version,
		"sources": h.cache.GetConfigCount(),
	}

	if h.repo != nil {
		count, err := h.repo.GetRecordCount()
		if err != nil {
			slog.Error("Database error", "operation", "get_record_count", "error", err)
			status["status"] = "degraded"
		} else {
			status["records"] = count
		}
	}

	c.JSON(http.StatusOK, status)
}

type recordResponse struct {
	City    string `json:"city"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

func toRecordResponses(records []database.Record) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, recordResponse{
			City:    r.City,
			URL:     r.URL,
			Title:   r.Title,
			Date:    r.Date,
			Content: r.Content,
		})
	}
	return out
}
