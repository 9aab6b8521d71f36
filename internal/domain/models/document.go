package models

import "time"

// Document is the unit of the context graph: stable identity, validated
// metadata, opaque content, and the outgoing relationship edges it owns.
type Document struct {
	ID       string   `json:"id"`
	URI      string   `json:"uri"`
	Metadata Metadata `json:"metadata"`
	Content  string   `json:"content"`

	// Outgoing edges, in creation order.
	Relationships []Relationship `json:"relationships,omitempty"`

	// ParentCollection is a weak back-reference for lookup only; the
	// collection does not own the document.
	ParentCollection string `json:"parent_collection,omitempty"`
}

// Clone returns a deep copy, used for snapshot-consistent reads.
func (d *Document) Clone() *Document {
	out := *d
	out.Metadata = d.Metadata.Clone()
	if d.Relationships != nil {
		out.Relationships = make([]Relationship, len(d.Relationships))
		for i, rel := range d.Relationships {
			out.Relationships[i] = rel.Clone()
		}
	}
	return &out
}

// Summarize returns the listing view of the document.
func (d *Document) Summarize() Summary {
	return Summary{
		ID:        d.ID,
		URI:       d.URI,
		Title:     d.Metadata.Title,
		Author:    d.Metadata.Author,
		Tags:      append([]string(nil), d.Metadata.Tags...),
		Status:    d.Metadata.Status,
		CreatedAt: d.Metadata.CreatedAt,
	}
}

// Summary is the metadata-only listing view of a document.
type Summary struct {
	ID        string    `json:"id"`
	URI       string    `json:"uri"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Status    Status    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchHit pairs a relevance score with a document summary.
type SearchHit struct {
	Score   float64 `json:"score"`
	Summary Summary `json:"summary"`
}

// ListFilter narrows list and search results. Zero fields match everything.
type ListFilter struct {
	Tag    string `json:"tag,omitempty"`
	Status Status `json:"status,omitempty"`
	Author string `json:"author,omitempty"`
}

// Matches reports whether the document passes the filter.
func (f ListFilter) Matches(d *Document) bool {
	if f.Tag != "" && !d.Metadata.HasTag(f.Tag) {
		return false
	}
	if f.Status != "" && d.Metadata.Status != f.Status {
		return false
	}
	if f.Author != "" && d.Metadata.Author != f.Author {
		return false
	}
	return true
}
