package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/mouwelfare/crawler/app/attachment"
	"github.com/mouwelfare/crawler/app/content"
	"github.com/mouwelfare/crawler/app/fetch"
	"github.com/mouwelfare/crawler/app/sources"
)

var _ Source = (*Recursive)(nil)

// Recursive crawls link-following sites over plain HTTP. Traversal uses an
// explicit work-list instead of function recursion, so deep or misconfigured
// link graphs cannot exhaust the stack; the visited set guarantees
// termination on cyclic graphs.
type Recursive struct {
	fetcher     *fetch.Fetcher
	attachments *attachment.Resolver
	maxContent  int
}

func NewRecursive(fetcher *fetch.Fetcher, attachments *attachment.Resolver, maxContent int) *Recursive {
	return &Recursive{
		fetcher:     fetcher,
		attachments: attachments,
		maxContent:  maxContent,
	}
}

func (r *Recursive) Crawl(ctx context.Context, cfg *sources.Config, visited *Visited, emit EmitFunc) error {
	if cfg.SeedURL == "" {
		return fmt.Errorf("source %s requires a seed URL", cfg.Name)
	}

	// LIFO work-list keeps depth/branch order: children of the current
	// page are explored before its siblings.
	stack := []string{cfg.SeedURL}

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pageURL := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visited.Add(pageURL) {
			continue
		}

		body, err := r.fetcher.GetHTML(ctx, pageURL)
		if err != nil {
			slog.Warn("Page fetch failed, abandoning branch", "source", cfg.Name, "url", pageURL, "error", err)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			slog.Warn("Page parse failed, abandoning branch", "source", cfg.Name, "url", pageURL, "error", err)
			continue
		}

		// A page matching the link-list selector is a list page, even if
		// it also matches the content selector: traversal takes priority
		// over leaf extraction.
		links := collectLinks(doc.Find(cfg.Selectors.Links), cfg.BaseURL, cfg.Settings.MaxLinksPerPage)
		if len(links) > 0 {
			slog.Debug("List page discovered", "source", cfg.Name, "url", pageURL, "links", len(links))
			for i := len(links) - 1; i >= 0; i-- {
				stack = append(stack, links[i])
			}
			continue
		}

		if doc.Find(cfg.Selectors.Stop).Length() == 0 {
			// Not every non-list page is a content page.
			continue
		}

		record, ok := r.extractRecord(ctx, cfg, visited, doc, body, pageURL)
		if !ok {
			continue
		}

		if err := emit(record); err != nil {
			return fmt.Errorf("failed to emit record: %w", err)
		}
	}

	return nil
}

func (r *Recursive) extractRecord(ctx context.Context, cfg *sources.Config, visited *Visited,
	doc *goquery.Document, body []byte, pageURL string) (Record, bool) {

	title := cleanTitle(doc.Find(cfg.Selectors.Title).First().Text())
	date := content.NormalizeDate(doc.Find(cfg.Selectors.Date).First().Text())

	builder := content.NewBuilder(r.maxContent)

	primary := r.selectorText(doc, cfg.Selectors.Content)
	if primary == "" {
		primary = r.readabilityFallback(body, pageURL)
	}
	builder.Append(primary)

	supplements := 0

	if cfg.Selectors.Tabs != "" {
		tabs := collectLinks(doc.Find(cfg.Selectors.Tabs), cfg.BaseURL, cfg.Settings.MaxTabs)
		supplements += len(tabs)
		for _, tabURL := range tabs {
			if builder.Remaining() <= 0 || !visited.Add(tabURL) {
				continue
			}
			tabBody, err := r.fetcher.GetHTML(ctx, tabURL)
			if err != nil {
				slog.Warn("Tab fetch failed, skipping", "source", cfg.Name, "url", tabURL, "error", err)
				continue
			}
			tabDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(tabBody))
			if err != nil {
				continue
			}
			builder.Append(r.selectorText(tabDoc, cfg.Selectors.Content))
		}
	}

	if cfg.Selectors.Attachments != "" {
		files := collectLinks(doc.Find(cfg.Selectors.Attachments), cfg.BaseURL, 0)
		supplements += len(files)
		for _, fileURL := range files {
			if builder.Remaining() <= 0 {
				break
			}
			builder.Append(r.attachments.Resolve(ctx, fileURL))
		}
	}

	assembled := builder.String()

	// Short stub pages with no means of supplementing the text are not
	// useful records.
	if len([]rune(assembled)) < cfg.Settings.MinContentLen && supplements == 0 {
		slog.Debug("Content too short with no supplements, dropping", "source", cfg.Name, "url", pageURL)
		return Record{}, false
	}

	record := Record{
		City:    cfg.City,
		URL:     pageURL,
		Title:   title,
		Date:    date,
		Content: assembled,
	}

	if !record.Complete() {
		slog.Debug("Incomplete record dropped", "source", cfg.Name, "url", pageURL,
			"has_title", title != "", "has_date", date != "", "has_content", assembled != "")
		return Record{}, false
	}

	slog.Info("Record extracted", "source", cfg.Name, "title", record.Title, "date", record.Date)
	return record, true
}

func (r *Recursive) selectorText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}

	var parts []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

func (r *Recursive) readabilityFallback(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(article.TextContent)
}
