package models

import "time"

// Relationship types. The set is open: custom type strings are accepted.
const (
	RelReferences  = "references"
	RelChildOf     = "child_of"
	RelParentOf    = "parent_of"
	RelExtends     = "extends"
	RelDerivedFrom = "derived_from"
	RelRelated     = "related"
)

// TargetRef is the target of a relationship edge: either a resolved document
// id or an unresolved reference string (URI or path) that is looked up
// lazily at traversal time. Exactly one of the two fields is set.
type TargetRef struct {
	ID  string `json:"id,omitempty" yaml:"id,omitempty"`
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// TargetByID returns a resolved target reference.
func TargetByID(id string) TargetRef { return TargetRef{ID: id} }

// TargetByRef returns an unresolved target reference.
func TargetByRef(ref string) TargetRef { return TargetRef{Ref: ref} }

// Resolved reports whether the target carries a document id.
func (t TargetRef) Resolved() bool { return t.ID != "" }

// String returns whichever form the reference carries.
func (t TargetRef) String() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Ref
}

// Relationship is a typed directed edge owned by its source document.
// A bidirectional edge is stored once; the inverse view is computed at
// query time, never materialized, so the two sides cannot drift.
type Relationship struct {
	EdgeID        string         `json:"edge_id" yaml:"edge_id"`
	SourceID      string         `json:"source_id" yaml:"source_id"`
	Target        TargetRef      `json:"target" yaml:"target"`
	Type          string         `json:"type" yaml:"type"`
	Meta          map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
	Bidirectional bool           `json:"bidirectional,omitempty" yaml:"bidirectional,omitempty"`
	CreatedAt     time.Time      `json:"created_at" yaml:"created_at"`
}

// Clone returns a deep copy.
func (r Relationship) Clone() Relationship {
	out := r
	if r.Meta != nil {
		out.Meta = make(map[string]any, len(r.Meta))
		for k, v := range r.Meta {
			out.Meta[k] = v
		}
	}
	return out
}

// Inverse returns the computed reverse view of a bidirectional edge as seen
// from the target document.
func (r Relationship) Inverse(targetDocID string) Relationship {
	inv := r.Clone()
	inv.SourceID = targetDocID
	inv.Target = TargetByID(r.SourceID)
	return inv
}
