package mdpfile

import (
	"strings"
	"testing"
	"time"

	"github.com/greyhaven-ai/datapack/internal/domain/models"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantTitle   any
		wantContent string
	}{
		{
			name:        "frontmatter and body",
			input:       "---\ntitle: Hello\n---\n\n# Body\n",
			wantTitle:   "Hello",
			wantContent: "# Body\n",
		},
		{
			name:        "no frontmatter",
			input:       "# Just content\n",
			wantTitle:   nil,
			wantContent: "# Just content\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, content, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatal(err)
			}
			if meta["title"] != tt.wantTitle {
				t.Errorf("title = %v, want %v", meta["title"], tt.wantTitle)
			}
			if content != tt.wantContent {
				t.Errorf("content = %q, want %q", content, tt.wantContent)
			}
		})
	}
}

func TestDecodeUnterminatedFrontmatter(t *testing.T) {
	inputs := []string{
		"---\ntitle: broken\n",
		"---",
		"---\n",
	}
	for _, input := range inputs {
		if _, _, err := Decode([]byte(input)); err == nil {
			t.Errorf("Decode(%q): expected error for unterminated frontmatter", input)
		}
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	doc := &models.Document{
		ID:  "5bc9cd36-4138-4a94-bbcf-84fa39ffb1e6",
		URI: "mdp://greyhaven/datapack/guides/intro",
		Metadata: models.Metadata{
			Title:     "Intro Guide",
			CreatedAt: created,
			Author:    "ops",
			Tags:      []string{"guide", "intro"},
			Status:    models.StatusPublished,
			Extra:     map[string]any{"x_team": "platform"},
		},
		Content: "# Intro\n\nWelcome.\n",
		Relationships: []models.Relationship{
			{
				EdgeID:        "edge-1",
				SourceID:      "5bc9cd36-4138-4a94-bbcf-84fa39ffb1e6",
				Target:        models.TargetByRef("mdp://greyhaven/datapack/guides/advanced"),
				Type:          models.RelReferences,
				Bidirectional: true,
				CreatedAt:     created,
			},
		},
		ParentCollection: "col-42",
	}

	data, err := EncodeDocument(doc)
	if err != nil {
		t.Fatal(err)
	}

	got, bad, err := DecodeDocument(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(bad) != 0 {
		t.Fatalf("unexpected bad fields: %v", bad)
	}

	if got.ID != doc.ID || got.URI != doc.URI {
		t.Errorf("identity lost: got (%s, %s)", got.ID, got.URI)
	}
	if got.Metadata.Title != "Intro Guide" || got.Metadata.Author != "ops" {
		t.Errorf("metadata lost: %+v", got.Metadata)
	}
	if !got.Metadata.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", got.Metadata.CreatedAt, created)
	}
	if len(got.Metadata.Tags) != 2 || got.Metadata.Tags[0] != "guide" {
		t.Errorf("tags lost: %v", got.Metadata.Tags)
	}
	if got.Metadata.Extra["x_team"] != "platform" {
		t.Errorf("custom field lost: %v", got.Metadata.Extra)
	}
	if got.ParentCollection != "col-42" {
		t.Errorf("collection membership lost: %q", got.ParentCollection)
	}
	if len(got.Relationships) != 1 {
		t.Fatalf("relationships lost: %v", got.Relationships)
	}
	rel := got.Relationships[0]
	if rel.EdgeID != "edge-1" || !rel.Bidirectional || rel.Type != models.RelReferences {
		t.Errorf("relationship fields lost: %+v", rel)
	}
	if rel.Target.Ref != "mdp://greyhaven/datapack/guides/advanced" {
		t.Errorf("relationship target lost: %+v", rel.Target)
	}
	if got.Content != doc.Content {
		t.Errorf("content = %q, want %q", got.Content, doc.Content)
	}
}

func TestDecodeDocumentLegacyRelationshipForm(t *testing.T) {
	input := strings.Join([]string{
		"---",
		"title: Legacy",
		"created_at: 2024-01-02",
		"uuid: 3e1a2deb-d968-46fc-b453-f51dd1c5a97b",
		"relationships:",
		"  - type: related",
		"    path: notes/sibling",
		"  - type: reference",
		"    id: 123e4567-e89b-12d3-a456-426614174000",
		"parent_document: guides/parent",
		"---",
		"",
		"body",
	}, "\n")

	doc, bad, err := DecodeDocument([]byte(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(bad) != 0 {
		t.Fatalf("unexpected bad fields: %v", bad)
	}
	if len(doc.Relationships) != 3 {
		t.Fatalf("got %d relationships, want 3", len(doc.Relationships))
	}
	if doc.Relationships[0].Target.Ref != "notes/sibling" {
		t.Errorf("path target: %+v", doc.Relationships[0].Target)
	}
	if doc.Relationships[1].Target.ID != "123e4567-e89b-12d3-a456-426614174000" {
		t.Errorf("uuid target should be resolved: %+v", doc.Relationships[1].Target)
	}
	if doc.Relationships[2].Type != models.RelChildOf || doc.Relationships[2].Target.Ref != "guides/parent" {
		t.Errorf("parent_document edge: %+v", doc.Relationships[2])
	}
}

func TestDecodeDocumentBadTags(t *testing.T) {
	input := "---\ntitle: T\ntags: not-a-list\n---\n\nbody"
	_, bad, err := DecodeDocument([]byte(input))
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range bad {
		if f == "tags" {
			found = true
		}
	}
	if !found {
		t.Errorf("bad fields = %v, want to include tags", bad)
	}
}
