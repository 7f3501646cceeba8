package attachment

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mouwelfare/crawler/app/fetch"
)

type format int

const (
	formatUnknown format = iota
	formatPDF
	formatDocx
	formatODT
	formatText
	formatImage
)

// Resolver downloads linked documents and extracts supplemental text from
// them under strict bounds. It never returns an error to callers: every
// failure mode (unsupported format, oversized download, extraction timeout,
// noise-gated text) degrades to an empty string.
//
// Stateless apart from its bounded worker pool, so it is safe to call from
// multiple concurrent page crawls.
type Resolver struct {
	fetcher       *fetch.Fetcher
	sem           chan struct{}
	timeout       time.Duration
	maxPages      int
	maxParagraphs int
	minChars      int
	maxDigitRatio float64
}

func NewResolver(fetcher *fetch.Fetcher, workers int, timeout time.Duration, maxPages int) *Resolver {
	return &Resolver{
		fetcher:       fetcher,
		sem:           make(chan struct{}, workers),
		timeout:       timeout,
		maxPages:      maxPages,
		maxParagraphs: 100,
		minChars:      40,
		maxDigitRatio: 0.4,
	}
}

// Supported reports whether the URL points at a document type the resolver
// can extract text from, judged by file extension.
func Supported(fileURL string) bool {
	switch formatFromURL(fileURL) {
	case formatPDF, formatDocx, formatODT, formatText:
		return true
	}
	return false
}

// Resolve downloads and extracts text from the document at fileURL.
// Extraction runs in its own goroutine under a hard deadline; a pathological
// document costs at most the timeout and its result is discarded.
func (r *Resolver) Resolve(ctx context.Context, fileURL string) string {
	f := formatFromURL(fileURL)
	if f == formatImage {
		return ""
	}

	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return ""
	}
	defer func() { <-r.sem }()

	deadlineCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resultChan := make(chan string, 1)
	go func() {
		resultChan <- r.extract(deadlineCtx, fileURL, f)
	}()

	select {
	case text := <-resultChan:
		return text
	case <-deadlineCtx.Done():
		slog.Warn("Attachment extraction timed out, dropping", "url", fileURL, "timeout", r.timeout.String())
		return ""
	}
}

func (r *Resolver) extract(ctx context.Context, fileURL string, f format) string {
	data, contentType, err := r.fetcher.GetRaw(ctx, fileURL)
	if err != nil {
		slog.Warn("Attachment download failed", "url", fileURL, "error", err)
		return ""
	}

	if f == formatUnknown {
		f = sniffFormat(data, contentType)
	}

	var text string
	switch f {
	case formatPDF:
		text, err = extractPDF(data, r.maxPages)
	case formatDocx:
		text, err = extractZippedXML(data, "word/document.xml", r.maxParagraphs)
	case formatODT:
		text, err = extractZippedXML(data, "content.xml", r.maxParagraphs)
	case formatText:
		text = extractPlainText(data, r.maxParagraphs)
	default:
		slog.Debug("Unsupported attachment format, skipping", "url", fileURL)
		return ""
	}
	if err != nil {
		slog.Warn("Attachment parsing failed", "url", fileURL, "error", err)
		return ""
	}

	text = filterParagraphs(text, r.maxParagraphs)

	if !r.passesQualityGate(text) {
		slog.Debug("Attachment text rejected as noise", "url", fileURL, "length", len(text))
		return ""
	}

	return text
}

// passesQualityGate rejects extracted text that is too short to be useful
// prose, or numeric-dense enough to be a table dump or ID list.
func (r *Resolver) passesQualityGate(text string) bool {
	runes := []rune(text)
	if len(runes) < r.minChars {
		return false
	}

	digits := 0
	total := 0
	for _, c := range runes {
		if c == ' ' || c == '\n' || c == '\t' {
			continue
		}
		total++
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	if total == 0 {
		return false
	}

	return float64(digits)/float64(total) <= r.maxDigitRatio
}

func formatFromURL(fileURL string) format {
	u, err := url.Parse(fileURL)
	if err != nil {
		return formatUnknown
	}
	return formatFromExt(strings.ToLower(path.Ext(u.Path)))
}

func formatFromExt(ext string) format {
	switch ext {
	case ".pdf":
		return formatPDF
	case ".docx":
		return formatDocx
	case ".odt":
		return formatODT
	case ".txt", ".text":
		return formatText
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg":
		return formatImage
	}
	return formatUnknown
}

func sniffFormat(data []byte, contentType string) format {
	mtype := mimetype.Detect(data)

	switch {
	case mtype.Is("application/pdf"):
		return formatPDF
	case mtype.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return formatDocx
	case mtype.Is("application/vnd.oasis.opendocument.text"):
		return formatODT
	case strings.HasPrefix(mtype.String(), "image/"):
		return formatImage
	case strings.HasPrefix(mtype.String(), "text/"),
		strings.HasPrefix(contentType, "text/plain"):
		return formatText
	}

	return formatUnknown
}
