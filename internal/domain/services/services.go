// Package services declares the behavior boundaries of the document context
// graph. Handlers and the protocol client depend on these interfaces, not
// on the implementations in internal/service.
package services

import (
	"context"

	"github.com/greyhaven-ai/datapack/internal/domain/models"
)

// CreateDocumentRequest carries everything needed to create a document.
// ID and URI are optional; missing values are assigned by the store.
type CreateDocumentRequest struct {
	ID       string         `json:"id,omitempty"`
	URI      string         `json:"uri,omitempty"`
	Path     string         `json:"path,omitempty"` // logical path; uri derived with the default namespace
	Metadata map[string]any `json:"metadata"`
	Content  string         `json:"content"`
}

// UpdateDocumentRequest is a partial update. Nil fields are left unchanged;
// the metadata patch is merged and re-validated all-or-nothing.
type UpdateDocumentRequest struct {
	Content  *string        `json:"content,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AddRelationshipRequest describes a new typed edge. TargetRef may be a
// UUID, an mdp URI, or a logical path, and may point at a document that
// does not exist yet.
type AddRelationshipRequest struct {
	SourceID      string         `json:"source_id"`
	TargetRef     string         `json:"target_ref"`
	Type          string         `json:"type"`
	Meta          map[string]any `json:"meta,omitempty"`
	Bidirectional bool           `json:"bidirectional,omitempty"`
}

/// DocumentService is the document store: the transactional boundary through
// which every document mutation funnels.
type DocumentService interface {
	Create(ctx context.Context, req *CreateDocumentRequest) (*models.Document, error)
	Get(ctx context.Context, ref string) (*models.Document, error)
	Update(ctx context.Context, id string, req *UpdateDocumentRequest) (*models.Document, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ListFilter) ([]models.Summary, error)
	Search(ctx context.Context, query string, filter models.ListFilter) ([]models.SearchHit, error)
	FetchContext(ctx context.Context, ref string, maxDepth int) (*models.ContextBundle, error)
}

// Resolver maps any reference form - UUID, mdp URI, or logical path - to a
// document. Resolution never mutates the store.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (*models.Document, error)
}

// GraphService maintains and traverses the typed edge set.
type GraphService interface {
	// AddRelationship stores a new edge on the source document and
	// returns its edge id.
	AddRelationship(ctx context.Context, req *AddRelationshipRequest) (string, error)

	// Relationships returns the document's outgoing edges plus the
	// computed inverse of other documents' bidirectional edges pointing
	// at it, in creation order. typeFilter narrows by edge type when
	// non-empty.
	Relationships(ctx context.Context, docID, typeFilter string) ([]models.Relationship, error)

	// Traverse walks the graph breadth-first from startID up to maxDepth.
	// Only depth >= 1 nodes are returned, each once at its shortest depth.
	Traverse(ctx context.Context, startID string, maxDepth int, typeFilter string) (*models.TraversalResult, error)

	// RemoveInboundEdges removes other documents' edges that point at the
	// document by id or by uri. Called by the store after deletion; the
	// document's own edges go with its row.
	RemoveInboundEdges(ctx context.Context, docID, uri string) error
}

// CollectionService manages document grouping and nesting.
type CollectionService interface {
	Create(ctx context.Context, name string, metadata map[string]any, parentID *string) (*models.Collection, error)
	Get(ctx context.Context, id string) (*models.Collection, error)
	List(ctx context.Context) ([]*models.Collection, error)
	Delete(ctx context.Context, id string) error

	// AddMember inserts at position (append when nil). Fails with a
	// ConflictError if the document is already a member.
	AddMember(ctx context.Context, collectionID, docID string, position *int) error

	// RemoveMember is idempotent: removing an absent member succeeds.
	RemoveMember(ctx context.Context, collectionID, docID string) error

	// SetParent nests the collection. Fails with a CycleError when
	// parentID is the collection itself or any transitive descendant.
	SetParent(ctx context.Context, collectionID, parentID string) error

	// Hierarchy returns the nested tree rooted at the collection.
	Hierarchy(ctx context.Context, rootID string) (*models.CollectionTree, error)

	// LinkByReferences ensures graph edges exist between co-members whose
	// relationships reference each other. Idempotent; returns the number
	// of edges added.
	LinkByReferences(ctx context.Context, collectionID string) (int, error)

	// RemoveDocumentMemberships drops the document from every member
	// list. Called by the store on document deletion.
	RemoveDocumentMemberships(ctx context.Context, docID string) error
}
