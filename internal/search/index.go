// Package search provides full-document lookup over titles, tags, and
// content. The in-memory index holds only summaries plus lowercased
// search text; document bodies stay in the repository.
package search

import (
	"sort"
	"strings"
	"sync"

	"github.com/greyhaven-ai/datapack/internal/domain/models"
)

// Match scores. A document matching on several fields gets the sum.
const (
	scoreTitle   = 3.0
	scoreTag     = 2.0
	scoreContent = 1.0
)

// Index is a searchable view over documents.
type Index interface {
	Index(doc *models.Document)
	Remove(id string)
	Query(query string, filter models.ListFilter, limit int) []models.SearchHit
}

type entry struct {
	summary models.Summary
	title   string // lowercased
	tags    []string
	content string
	author  string
	status  models.Status
	seq     uint64
}

// MemoryIndex is a mutex-guarded substring index. Safe for concurrent
// use.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]*entry
	seq     uint64
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]*entry)}
}

// Index adds or replaces a document in the index.
func (ix *MemoryIndex) Index(doc *models.Document) {
	e := &entry{
		summary: doc.Summarize(),
		title:   strings.ToLower(doc.Metadata.Title),
		content: strings.ToLower(doc.Content),
		author:  doc.Metadata.Author,
		status:  doc.Metadata.Status,
	}
	for _, tag := range doc.Metadata.Tags {
		e.tags = append(e.tags, strings.ToLower(tag))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if prev, ok := ix.entries[doc.ID]; ok {
		e.seq = prev.seq
	} else {
		ix.seq++
		e.seq = ix.seq
	}
	ix.entries[doc.ID] = e
}

// Remove drops a document from the index. Unknown ids are a no-op.
func (ix *MemoryIndex) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.entries, id)
}

// Query returns scored hits for the query, best first. Ties break by
// insertion order so results are stable. An empty query matches every
// document that passes the filter. limit <= 0 means no limit.
func (ix *MemoryIndex) Query(query string, filter models.ListFilter, limit int) []models.SearchHit {
	q := strings.ToLower(strings.TrimSpace(query))

	ix.mu.RLock()
	type scored struct {
		hit models.SearchHit
		seq uint64
	}
	var results []scored
	for _, e := range ix.entries {
		if !e.matchesFilter(filter) {
			continue
		}
		score := e.score(q)
		if score <= 0 {
			continue
		}
		results = append(results, scored{
			hit: models.SearchHit{Score: score, Summary: e.summary},
			seq: e.seq,
		})
	}
	ix.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].hit.Score != results[j].hit.Score {
			return results[i].hit.Score > results[j].hit.Score
		}
		return results[i].seq < results[j].seq
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	hits := make([]models.SearchHit, len(results))
	for i, r := range results {
		hits[i] = r.hit
	}
	return hits
}

func (e *entry) matchesFilter(filter models.ListFilter) bool {
	if filter.Status != "" && e.status != filter.Status {
		return false
	}
	if filter.Author != "" && e.author != filter.Author {
		return false
	}
	if filter.Tag != "" {
		want := strings.ToLower(filter.Tag)
		found := false
		for _, tag := range e.tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (e *entry) score(q string) float64 {
	if q == "" {
		return scoreContent
	}
	var score float64
	if strings.Contains(e.title, q) {
		score += scoreTitle
	}
	for _, tag := range e.tags {
		if strings.Contains(tag, q) {
			score += scoreTag
			break
		}
	}
	if strings.Contains(e.content, q) {
		score += scoreContent
	}
	return score
}
