package extract

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func titleOf(h *Heuristic, content string) string {
	out, _ := h.Extract(context.Background(), content)
	return out.Title
}

func tagsOf(h *Heuristic, content string) []string {
	out, _ := h.Extract(context.Background(), content)
	return out.Tags
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"h1 first line", "# Deployment Guide\n\nbody", "Deployment Guide"},
		{"h2 after prose", "intro paragraph\n\n## Section Two\n", "Section Two"},
		{"indented heading", "  ### Padded\n", "Padded"},
		{"no heading", "just plain text\nwith lines\n", ""},
		{"empty", "", ""},
	}
	h := NewHeuristic()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titleOf(h, tt.content); got != tt.want {
				t.Errorf("Title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTags(t *testing.T) {
	content := strings.Repeat("kubernetes cluster ", 3) +
		strings.Repeat("deployment ", 2) +
		"once mentioned words stay out"
	got := tagsOf(NewHeuristic(), content)
	want := []string{"kubernetes", "cluster", "deployment"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags = %v, want %v", got, want)
	}
}

func TestExtractTagsSkipsStopwordsAndShortWords(t *testing.T) {
	content := "the the the and and for for it it api api"
	got := tagsOf(NewHeuristic(), content)
	if len(got) != 0 {
		t.Errorf("Tags = %v, want none", got)
	}
}

func TestExtractTagsLimit(t *testing.T) {
	var b strings.Builder
	for _, w := range []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golfball"} {
		b.WriteString(strings.Repeat(w+" ", 2))
	}
	h := &Heuristic{MaxTags: 3}
	if got := tagsOf(h, b.String()); len(got) != 3 {
		t.Errorf("got %d tags, want 3", len(got))
	}
}
