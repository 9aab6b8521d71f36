// Package extract derives metadata from document content when the
// caller supplies none. The heuristic default is pure and local;
// implementations backed by external services take the context.
package extract

import (
	"context"
	"sort"
	"strings"
	"unicode"
)

// Extracted holds fields derived from content. Empty fields mean the
// heuristic found nothing.
type Extracted struct {
	Title string
	Tags  []string
}

// Extractor derives metadata from content.
type Extractor interface {
	Extract(ctx context.Context, content string) (Extracted, error)
}

// Heuristic is the default extractor: first markdown heading becomes
// the title and the most frequent significant words become tags.
type Heuristic struct {
	MaxTags int // defaults to 5
}

// NewHeuristic creates an extractor with default settings.
func NewHeuristic() *Heuristic {
	return &Heuristic{MaxTags: 5}
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "from": {}, "has": {},
	"have": {}, "in": {}, "is": {}, "it": {}, "its": {}, "not": {},
	"of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "this": {},
	"to": {}, "was": {}, "were": {}, "will": {}, "with": {},
}

const minWordLen = 4
const minFrequency = 2

// Extract derives a title and tags from markdown content. It never
// fails; the error is part of the Extractor contract.
func (h *Heuristic) Extract(_ context.Context, content string) (Extracted, error) {
	var out Extracted
	out.Title = firstHeading(content)
	out.Tags = frequentWords(content, h.maxTags())
	return out, nil
}

func (h *Heuristic) maxTags() int {
	if h.MaxTags > 0 {
		return h.MaxTags
	}
	return 5
}

func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
	}
	return ""
}

func frequentWords(content string, limit int) []string {
	counts := make(map[string]int)
	order := make(map[string]int)
	words := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, word := range words {
		if len(word) < minWordLen {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if _, seen := counts[word]; !seen {
			order[word] = i
		}
		counts[word]++
	}

	var candidates []string
	for word, n := range counts {
		if n >= minFrequency {
			candidates = append(candidates, word)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if counts[candidates[i]] != counts[candidates[j]] {
			return counts[candidates[i]] > counts[candidates[j]]
		}
		return order[candidates[i]] < order[candidates[j]]
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
