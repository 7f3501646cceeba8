package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mouwelfare/crawler/app/attachment"
	"github.com/mouwelfare/crawler/app/crawler"
	"github.com/mouwelfare/crawler/app/fetch"
	"github.com/mouwelfare/crawler/app/output"
	"github.com/mouwelfare/crawler/app/sources"
)

// stubSource emits canned records and optionally blocks or fails, so pool
// behavior can be observed without touching the network.
type stubSource struct {
	records map[string][]crawler.Record // keyed by source name
	err     error
	delay   time.Duration
	calls   int64
}

func (s *stubSource) Crawl(_ context.Context, cfg *sources.Config, _ *crawler.Visited, emit crawler.EmitFunc) error {
	atomic.AddInt64(&s.calls, 1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	for _, rec := range s.records[cfg.Name] {
		if err := emit(rec); err != nil {
			return err
		}
	}
	return s.err
}

func writeSourceConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

const recursiveYAML = `
city: 測試市
strategy: recursive
base_url: %s
seed_url: %s
selectors:
  stop: ".article"
  links: "a.child"
  title: "h1"
  date: ".date"
  content: ".article"
settings:
  enabled: true
  min_content_len: 10
`

func newTestCache(t *testing.T, configs map[string]string) *sources.Cache {
	t.Helper()

	dir := t.TempDir()
	for name, body := range configs {
		writeSourceConfig(t, dir, name, body)
	}

	cache := sources.NewCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected configurations to load, got %v", err)
	}
	return cache
}

func readSinkFile(t *testing.T, path string) []crawler.Record {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected output file, got %v", err)
	}
	var records []crawler.Record
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("Expected valid JSON array, got %v", err)
	}
	return records
}

func TestOrchestratorRunMultipleSources(t *testing.T) {
	cache := newTestCache(t, map[string]string{
		"taipei": fmt.Sprintf(recursiveYAML, "http://a.test", "http://a.test/list"),
		"nantou": fmt.Sprintf(recursiveYAML, "http://b.test", "http://b.test/list"),
	})

	stub := &stubSource{records: map[string][]crawler.Record{
		"taipei": {{City: "臺北市", URL: "http://a.test/1", Title: "甲", Date: "2024-01-01", Content: "內容一"}},
		"nantou": {{City: "南投縣", URL: "http://b.test/1", Title: "乙", Date: "2024-01-02", Content: "內容二"}},
	}}

	sinkPath := filepath.Join(t.TempDir(), "records.json")
	o := New(cache, map[string]crawler.Source{sources.StrategyRecursive: stub},
		output.NewSink(sinkPath), nil, 2)

	result, err := o.Run(context.Background(), []Selection{{ID: "taipei"}, {ID: "nantou"}})
	if err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}

	if !result.Success {
		t.Error("Expected successful result")
	}
	if result.OutputLocation != sinkPath {
		t.Errorf("Expected output location %q, got %q", sinkPath, result.OutputLocation)
	}
	if len(result.PerSource) != 2 {
		t.Fatalf("Expected 2 per-source results, got %d", len(result.PerSource))
	}
	for _, sr := range result.PerSource {
		if sr.Count != 1 || sr.Error != "" {
			t.Errorf("Expected source %s to yield 1 record without error, got count=%d error=%q",
				sr.ID, sr.Count, sr.Error)
		}
	}

	if records := readSinkFile(t, sinkPath); len(records) != 2 {
		t.Errorf("Expected 2 records in output file, got %d", len(records))
	}
}

func TestOrchestratorWorkerPoolBound(t *testing.T) {
	cache := newTestCache(t, map[string]string{
		"a": fmt.Sprintf(recursiveYAML, "http://a.test", "http://a.test/list"),
		"b": fmt.Sprintf(recursiveYAML, "http://b.test", "http://b.test/list"),
		"c": fmt.Sprintf(recursiveYAML, "http://c.test", "http://c.test/list"),
	})

	stub := &stubSource{delay: 50 * time.Millisecond}

	o := New(cache, map[string]crawler.Source{sources.StrategyRecursive: stub},
		output.NewSink(filepath.Join(t.TempDir(), "records.json")), nil, 2)

	var mu sync.Mutex
	current, max := 0, 0
	o.crawlStartHook = func(string) {
		mu.Lock()
		current++
		if current > max {
			max = current
		}
		mu.Unlock()
	}
	o.crawlDoneHook = func(string) {
		mu.Lock()
		current--
		mu.Unlock()
	}

	_, err := o.Run(context.Background(), []Selection{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	if err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}

	if max > 2 {
		t.Errorf("Expected at most 2 concurrent crawls, observed %d", max)
	}
	if got := atomic.LoadInt64(&stub.calls); got != 3 {
		t.Errorf("Expected all 3 sources crawled, got %d", got)
	}
}

func TestOrchestratorRejectsUnknownSourceBeforeDispatch(t *testing.T) {
	cache := newTestCache(t, map[string]string{
		"known": fmt.Sprintf(recursiveYAML, "http://a.test", "http://a.test/list"),
	})

	stub := &stubSource{}
	sinkPath := filepath.Join(t.TempDir(), "records.json")
	o := New(cache, map[string]crawler.Source{sources.StrategyRecursive: stub},
		output.NewSink(sinkPath), nil, 2)

	_, err := o.Run(context.Background(), []Selection{{ID: "known"}, {ID: "missing"}})
	if err == nil {
		t.Fatal("Expected error for unknown source")
	}

	if got := atomic.LoadInt64(&stub.calls); got != 0 {
		t.Errorf("Expected no crawl dispatched on validation failure, got %d", got)
	}
	if _, statErr := os.Stat(sinkPath); !os.IsNotExist(statErr) {
		t.Error("Expected output file untouched on validation failure")
	}
}

func TestOrchestratorRejectsMissingSeedURL(t *testing.T) {
	// The file itself carries no seed; the selection must supply one.
	noSeed := `
city: 測試市
strategy: recursive
base_url: http://a.test
selectors:
  stop: ".article"
  links: "a.child"
settings:
  enabled: true
`
	cache := newTestCache(t, map[string]string{"noseed": noSeed})

	stub := &stubSource{}
	o := New(cache, map[string]crawler.Source{sources.StrategyRecursive: stub},
		output.NewSink(filepath.Join(t.TempDir(), "records.json")), nil, 2)

	if _, err := o.Run(context.Background(), []Selection{{ID: "noseed"}}); err == nil {
		t.Fatal("Expected error for source without seed URL")
	}

	result, err := o.Run(context.Background(), []Selection{
		{ID: "noseed", SeedURL: "http://a.test/list"},
	})
	if err != nil {
		t.Fatalf("Expected selection seed URL to satisfy validation, got %v", err)
	}
	if !result.Success {
		t.Error("Expected successful result")
	}
}

func TestOrchestratorPartialFailureReported(t *testing.T) {
	cache := newTestCache(t, map[string]string{
		"good": fmt.Sprintf(recursiveYAML, "http://a.test", "http://a.test/list"),
		"bad":  fmt.Sprintf(recursiveYAML, "http://b.test", "http://b.test/list"),
	})

	good := &stubSource{records: map[string][]crawler.Record{
		"good": {{City: "測試市", URL: "http://a.test/1", Title: "甲", Date: "2024-01-01", Content: "內容"}},
		"bad":  {{City: "測試市", URL: "http://b.test/1", Title: "乙", Date: "2024-01-02", Content: "內容"}},
	}}
	// Both sources share the strategy; make it fail after emitting.
	good.err = fmt.Errorf("site unreachable")

	o := New(cache, map[string]crawler.Source{sources.StrategyRecursive: good},
		output.NewSink(filepath.Join(t.TempDir(), "records.json")), nil, 2)

	result, err := o.Run(context.Background(), []Selection{{ID: "good"}, {ID: "bad"}})
	if err != nil {
		t.Fatalf("Expected partial failure to not abort the invocation, got %v", err)
	}

	if !result.Success {
		t.Error("Expected invocation-level success despite source failures")
	}
	for _, sr := range result.PerSource {
		if sr.Error == "" {
			t.Errorf("Expected source %s to carry its error", sr.ID)
		}
		if sr.Count != 1 {
			t.Errorf("Expected records emitted before the failure kept, got %d for %s", sr.Count, sr.ID)
		}
	}
}

func TestOrchestratorOverrideOutputPath(t *testing.T) {
	cache := newTestCache(t, map[string]string{
		"taipei": fmt.Sprintf(recursiveYAML, "http://a.test", "http://a.test/list"),
	})

	stub := &stubSource{records: map[string][]crawler.Record{
		"taipei": {{City: "臺北市", URL: "http://a.test/1", Title: "甲", Date: "2024-01-01", Content: "內容"}},
	}}

	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "records.json")
	overridePath := filepath.Join(dir, "override.json")

	o := New(cache, map[string]crawler.Source{sources.StrategyRecursive: stub},
		output.NewSink(defaultPath), nil, 2)

	_, err := o.Run(context.Background(), []Selection{
		{ID: "taipei", Config: &sources.Overrides{OutputPath: overridePath}},
	})
	if err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}

	if records := readSinkFile(t, overridePath); len(records) != 1 {
		t.Errorf("Expected record routed to override sink, got %d", len(records))
	}
	if records := readSinkFile(t, defaultPath); len(records) != 0 {
		t.Errorf("Expected default sink truncated and empty, got %d records", len(records))
	}
}

func TestOrchestratorEndToEndRecursive(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><a class="child" href="/detail/1">公告</a></body></html>`))
	})
	mux.HandleFunc("/detail/1", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body>
			<h1>中低收入老人生活津貼公告</h1>
			<span class="date">113-01-09</span>
			<div class="article">本津貼自即日起受理申請，設籍本市之六十五歲以上長者請向戶籍地區公所提出。</div>
		</body></html>`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	cache := newTestCache(t, map[string]string{
		"e2e": fmt.Sprintf(recursiveYAML, server.URL, server.URL+"/list"),
	})

	fetcher := fetch.NewFetcher(server.Client(), "test-agent", 5*time.Second, 10<<20)
	resolver := attachment.NewResolver(fetcher, 2, 5*time.Second, 3)
	recursive := crawler.NewRecursive(fetcher, resolver, 4000)

	sinkPath := filepath.Join(t.TempDir(), "records.json")
	o := New(cache, map[string]crawler.Source{sources.StrategyRecursive: recursive},
		output.NewSink(sinkPath), nil, 2)

	result, err := o.Run(context.Background(), []Selection{{ID: "e2e"}})
	if err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}

	if len(result.PerSource) != 1 || result.PerSource[0].Count != 1 {
		t.Fatalf("Expected exactly 1 record, got %+v", result.PerSource)
	}

	records := readSinkFile(t, sinkPath)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record in output file, got %d", len(records))
	}
	rec := records[0]
	if rec.Title != "中低收入老人生活津貼公告" {
		t.Errorf("Unexpected title %q", rec.Title)
	}
	if rec.Date != "2024-01-09" {
		t.Errorf("Expected normalized date, got %q", rec.Date)
	}
	if rec.URL != server.URL+"/detail/1" {
		t.Errorf("Unexpected record URL %q", rec.URL)
	}
}
