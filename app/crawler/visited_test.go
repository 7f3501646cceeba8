package crawler

import (
	"fmt"
	"sync"
	"testing"
)

func TestVisitedAdd(t *testing.T) {
	v := NewVisited()

	if !v.Add("https://example.com/a") {
		t.Error("Expected first add to report true")
	}
	if v.Add("https://example.com/a") {
		t.Error("Expected second add of same URL to report false")
	}
	if !v.Add("https://example.com/b") {
		t.Error("Expected add of distinct URL to report true")
	}
	if v.Len() != 2 {
		t.Errorf("Expected 2 URLs, got %d", v.Len())
	}
}

func TestVisitedConcurrentAdd(t *testing.T) {
	v := NewVisited()

	const goroutines = 8
	const urls = 100

	var wg sync.WaitGroup
	var mu sync.Mutex
	added := 0

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < urls; i++ {
				if v.Add(fmt.Sprintf("https://example.com/page/%d", i)) {
					mu.Lock()
					added++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if added != urls {
		t.Errorf("Expected exactly %d successful adds across goroutines, got %d", urls, added)
	}
	if v.Len() != urls {
		t.Errorf("Expected %d unique URLs, got %d", urls, v.Len())
	}
}
