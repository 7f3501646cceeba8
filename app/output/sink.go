package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mouwelfare/crawler/app/crawler"
)

// Sink persists records as a single JSON array on disk. The file always
// holds a valid array: Truncate resets it to [] at the start of an
// invocation and Append rewrites the whole array under a lock, so readers
// never observe a torn document and concurrent source crawls never lose
// records.
type Sink struct {
	path string
	mu   sync.Mutex
}

func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Path returns the output file location.
func (s *Sink) Path() string {
	return s.path
}

// Truncate resets the output file to an empty JSON array, creating parent
// directories as needed.
func (s *Sink) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	return s.write([]crawler.Record{})
}

// Append adds one record to the array. Read-modify-write keeps the file a
// valid JSON document after every call.
func (s *Sink) Append(record crawler.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}

	return s.write(append(records, record))
}

func (s *Sink) read() ([]crawler.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []crawler.Record{}, nil
		}
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}

	var records []crawler.Record
	if err := json.Unmarshal(data, &records); err != nil {
		// A corrupt file is abandoned rather than poisoning the run.
		return []crawler.Record{}, nil
	}

	return records, nil
}

func (s *Sink) write(records []crawler.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	return f.Close()
}
