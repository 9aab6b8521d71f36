package models

import "time"

// Collection is a named, ordered, optionally nested group of document
// references. Membership is grouping, not containment: deleting a
// collection leaves its member documents in place. Insertion order is
// meaningful - the first member may be a designated cover document.
type Collection struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Members   []string       `json:"members"` // document ids, no duplicates
	ParentID  *string        `json:"parent_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Clone returns a deep copy.
func (c *Collection) Clone() *Collection {
	out := *c
	if c.Metadata != nil {
		out.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	out.Members = append([]string(nil), c.Members...)
	if c.ParentID != nil {
		parent := *c.ParentID
		out.ParentID = &parent
	}
	return &out
}

// HasMember reports whether the document id is a member.
func (c *Collection) HasMember(docID string) bool {
	for _, m := range c.Members {
		if m == docID {
			return true
		}
	}
	return false
}

// RemoveMember drops the document id from the member list if present and
// reports whether anything changed.
func (c *Collection) RemoveMember(docID string) bool {
	for i, m := range c.Members {
		if m == docID {
			c.Members = append(c.Members[:i], c.Members[i+1:]...)
			return true
		}
	}
	return false
}

// CollectionTree is the nested hierarchy view rooted at one collection.
// CycleBroken flags a node whose parent chain was found malformed in
// stored data and cut during assembly.
type CollectionTree struct {
	Collection  *Collection       `json:"collection"`
	Children    []*CollectionTree `json:"children,omitempty"`
	CycleBroken bool              `json:"cycle_broken,omitempty"`
}
