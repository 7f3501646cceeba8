package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mouwelfare/crawler/app/crawler"
	"github.com/mouwelfare/crawler/app/database"
	"github.com/mouwelfare/crawler/app/output"
	"github.com/mouwelfare/crawler/app/sources"
)

// Orchestrator runs a set of source crawls through a bounded worker pool.
// Each invocation gets a fresh visited set and freshly truncated sinks, so
// invocations never leak state into each other.
type Orchestrator struct {
	cache      *sources.Cache
	strategies map[string]crawler.Source
	sink       *output.Sink
	repo       database.RecordRepository // optional, nil disables archiving
	workers    int

	// Test seams for observing pool behavior.
	crawlStartHook func(id string)
	crawlDoneHook  func(id string)
}

func New(cache *sources.Cache, strategies map[string]crawler.Source,
	sink *output.Sink, repo database.RecordRepository, workers int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		cache:      cache,
		strategies: strategies,
		sink:       sink,
		repo:       repo,
		workers:    workers,
	}
}

type job struct {
	index     int
	selection Selection
	config    *sources.Config
	strategy  crawler.Source
	sink      *output.Sink
}

// Run executes the selected source crawls. Every selection is validated
// before any crawl is dispatched: one bad selection fails the whole request
// and no site is touched. After dispatch, failures are per-source and do
// not abort the invocation.
func (o *Orchestrator) Run(ctx context.Context, selections []Selection) (*Result, error) {
	if len(selections) == 0 {
		return nil, fmt.Errorf("no sources selected")
	}

	jobs := make([]job, 0, len(selections))
	overrideSinks := make(map[string]*output.Sink)

	for i, sel := range selections {
		config, err := o.cache.GetConfig(sel.ID)
		if err != nil {
			return nil, err
		}
		if !config.Settings.Enabled {
			return nil, fmt.Errorf("source %s is disabled", sel.ID)
		}

		merged := config.Merged(sel.Config)
		if sel.SeedURL != "" {
			merged.SeedURL = sel.SeedURL
		}

		strategy, ok := o.strategies[merged.Strategy]
		if !ok {
			return nil, fmt.Errorf("source %s has unsupported strategy %q", sel.ID, merged.Strategy)
		}

		if merged.SeedURL == "" {
			return nil, fmt.Errorf("source %s requires a seed URL", sel.ID)
		}

		sink := o.sink
		if sel.Config != nil && sel.Config.OutputPath != "" {
			path := sel.Config.OutputPath
			if existing, ok := overrideSinks[path]; ok {
				sink = existing
			} else {
				sink = output.NewSink(path)
				overrideSinks[path] = sink
			}
		}

		jobs = append(jobs, job{
			index:     i,
			selection: sel,
			config:    merged,
			strategy:  strategy,
			sink:      sink,
		})
	}

	if err := o.sink.Truncate(); err != nil {
		return nil, fmt.Errorf("failed to reset output: %w", err)
	}
	for path, sink := range overrideSinks {
		if err := sink.Truncate(); err != nil {
			return nil, fmt.Errorf("failed to reset output %s: %w", path, err)
		}
	}

	visited := crawler.NewVisited()
	results := make([]SourceResult, len(selections))

	jobChan := make(chan job)
	var wg sync.WaitGroup

	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				results[j.index] = o.runOne(ctx, j, visited)
			}
		}()
	}

	for _, j := range jobs {
		jobChan <- j
	}
	close(jobChan)
	wg.Wait()

	slog.Info("Crawl invocation finished", "sources", len(jobs),
		"visited", visited.Len(), "output", o.sink.Path())

	return &Result{
		Success:        true,
		PerSource:      results,
		OutputLocation: o.sink.Path(),
	}, nil
}

func (o *Orchestrator) runOne(ctx context.Context, j job, visited *crawler.Visited) SourceResult {
	if o.crawlStartHook != nil {
		o.crawlStartHook(j.selection.ID)
	}
	if o.crawlDoneHook != nil {
		defer o.crawlDoneHook(j.selection.ID)
	}

	slog.Info("Source crawl started", "source", j.selection.ID,
		"city", j.config.City, "strategy", j.config.Strategy)

	result := SourceResult{ID: j.selection.ID, Records: []crawler.Record{}}

	emit := func(rec crawler.Record) error {
		if err := j.sink.Append(rec); err != nil {
			return err
		}
		if o.repo != nil {
			dbRec := database.Record{
				City:    rec.City,
				URL:     rec.URL,
				Title:   rec.Title,
				Date:    rec.Date,
				Content: rec.Content,
			}
			// Archive failures must not lose the record from the
			// invocation output.
			if err := o.repo.UpsertRecord(dbRec); err != nil {
				slog.Warn("Record archive failed", "source", j.selection.ID, "url", rec.URL, "error", err)
			}
		}
		result.Records = append(result.Records, rec)
		result.Count++
		return nil
	}

	if err := j.strategy.Crawl(ctx, j.config, visited, emit); err != nil {
		slog.Error("Source crawl failed", "source", j.selection.ID, "error", err)
		result.Error = err.Error()
		return result
	}

	slog.Info("Source crawl finished", "source", j.selection.ID, "records", result.Count)
	return result
}
