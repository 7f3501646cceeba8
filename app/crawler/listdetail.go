package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mouwelfare/crawler/app/attachment"
	"github.com/mouwelfare/crawler/app/content"
	"github.com/mouwelfare/crawler/app/sources"
)

var _ Source = (*ListDetail)(nil)

// ListDetail crawls sites that only render usefully in a browser: a site
// map of categories leads to detail pages, some of which are plain
// announcement pages and some tabular listings of attachment-bearing rows.
// One browser session is reused for the whole run and torn down on every
// exit path.
type ListDetail struct {
	sessions     SessionFactory
	attachments  *attachment.Resolver
	maxContent   int
	userAgent    string
	pageTimeout  time.Duration
	defaultDelay time.Duration
}

func NewListDetail(sessions SessionFactory, attachments *attachment.Resolver,
	maxContent int, userAgent string, pageTimeout, defaultDelay time.Duration) *ListDetail {
	return &ListDetail{
		sessions:     sessions,
		attachments:  attachments,
		maxContent:   maxContent,
		userAgent:    userAgent,
		pageTimeout:  pageTimeout,
		defaultDelay: defaultDelay,
	}
}

func (l *ListDetail) Crawl(ctx context.Context, cfg *sources.Config, visited *Visited, emit EmitFunc) error {
	session, err := l.sessions(l.userAgent, l.pageTimeout)
	if err != nil {
		return fmt.Errorf("failed to start browser session: %w", err)
	}
	defer session.Close()

	html, err := session.Navigate(cfg.SeedURL)
	if err != nil {
		return fmt.Errorf("failed to load site map: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse site map: %w", err)
	}

	categories := collectLinks(doc.Find(cfg.Selectors.Categories), cfg.BaseURL, cfg.Settings.MaxCategories)
	slog.Debug("Categories discovered", "source", cfg.Name, "count", len(categories))

	for _, categoryURL := range categories {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		categoryHTML, err := session.Navigate(categoryURL)
		if err != nil {
			slog.Warn("Category load failed, skipping", "source", cfg.Name, "url", categoryURL, "error", err)
			continue
		}

		categoryDoc, err := goquery.NewDocumentFromReader(strings.NewReader(categoryHTML))
		if err != nil {
			continue
		}

		detailLinks := collectLinks(categoryDoc.Find(cfg.Selectors.DetailLinks), cfg.BaseURL, 0)
		slog.Debug("Detail links discovered", "source", cfg.Name, "category", categoryURL, "count", len(detailLinks))

		for _, detailURL := range detailLinks {
			if !visited.Add(detailURL) {
				continue
			}

			if err := l.courtesyWait(ctx, cfg); err != nil {
				return err
			}

			detailHTML, err := session.Navigate(detailURL)
			if err != nil {
				slog.Warn("Detail load failed, skipping", "source", cfg.Name, "url", detailURL, "error", err)
				continue
			}

			detailDoc, err := goquery.NewDocumentFromReader(strings.NewReader(detailHTML))
			if err != nil {
				continue
			}

			if err := l.processDetail(ctx, cfg, detailDoc, detailURL, emit); err != nil {
				return err
			}
		}
	}

	return nil
}

func (l *ListDetail) processDetail(ctx context.Context, cfg *sources.Config,
	doc *goquery.Document, detailURL string, emit EmitFunc) error {

	title := cleanTitle(doc.Find(cfg.Selectors.DetailTitle).First().Text())
	date := content.NormalizeDate(labeledCell(doc, cfg.Selectors.DateLabel))
	body := strings.TrimSpace(labeledCell(doc, cfg.Selectors.ContentLabel))

	if title != "" && body != "" {
		builder := content.NewBuilder(l.maxContent)
		builder.Append(body)

		record := Record{
			City:    cfg.City,
			URL:     detailURL,
			Title:   title,
			Date:    date,
			Content: builder.String(),
		}
		if !record.Complete() {
			slog.Debug("Incomplete detail record dropped", "source", cfg.Name, "url", detailURL)
			return nil
		}

		slog.Info("Record extracted", "source", cfg.Name, "title", record.Title, "date", record.Date)
		return emit(record)
	}

	// No direct fields: reinterpret the page as a listing of
	// attachment-bearing rows.
	return l.processTableRows(ctx, cfg, doc, detailURL, emit)
}

// processTableRows turns each qualifying table row into one independent
// record. Rows without a resolvable, non-empty, supported attachment are
// skipped entirely: no record is ever emitted without real content.
func (l *ListDetail) processTableRows(ctx context.Context, cfg *sources.Config,
	doc *goquery.Document, pageURL string, emit EmitFunc) error {

	var emitErr error

	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 3 {
			// Header rows and malformed rows.
			return true
		}

		title := cleanTitle(cells.Eq(cfg.Settings.TableTitleCell).Text())
		date := content.NormalizeDate(cells.Eq(cfg.Settings.TableDateCell).Text())

		fileURL := firstAttachmentLink(row, cfg.BaseURL)
		if fileURL == "" {
			return true
		}

		text := l.attachments.Resolve(ctx, fileURL)
		if text == "" {
			slog.Debug("Row attachment yielded no text, skipping", "source", cfg.Name, "attachment", fileURL)
			return true
		}

		builder := content.NewBuilder(l.maxContent)
		builder.Append(text)

		record := Record{
			City:    cfg.City,
			URL:     pageURL,
			Title:   title,
			Date:    date,
			Content: builder.String(),
		}
		if !record.Complete() {
			return true
		}

		slog.Info("Record extracted from table row", "source", cfg.Name, "title", record.Title, "date", record.Date)
		if err := emit(record); err != nil {
			emitErr = err
			return false
		}
		return true
	})

	return emitErr
}

// labeledCell finds the td of the table row whose th matches label, the
// way sites label their publish-date and content cells.
func labeledCell(doc *goquery.Document, label string) string {
	if label == "" {
		return ""
	}

	var value string
	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		header := strings.TrimSpace(row.Find("th").First().Text())
		if header == "" || !strings.Contains(header, label) {
			return true
		}
		value = strings.TrimSpace(row.Find("td").First().Text())
		return false
	})
	return value
}

func firstAttachmentLink(row *goquery.Selection, base string) string {
	var fileURL string
	row.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return true
		}
		resolved := ResolveURL(base, href)
		if !attachment.Supported(resolved) {
			return true
		}
		fileURL = resolved
		return false
	})
	return fileURL
}

func (l *ListDetail) courtesyWait(ctx context.Context, cfg *sources.Config) error {
	delay := l.defaultDelay
	if cfg.Settings.CourtesyDelay > 0 {
		delay = time.Duration(cfg.Settings.CourtesyDelay) * time.Millisecond
	}
	if delay <= 0 {
		return nil
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
