package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/repositories"
	"github.com/greyhaven-ai/datapack/internal/domain/services"
	"github.com/greyhaven-ai/datapack/internal/identity"
)

type graphService struct {
	docRepo  repositories.DocumentRepository
	resolver services.Resolver
	ids      *identity.Generator
	locks    *IDLocks
	logger   *slog.Logger
}

// NewGraph creates the relationship graph service.
func NewGraph(
	docRepo repositories.DocumentRepository,
	resolver services.Resolver,
	ids *identity.Generator,
	locks *IDLocks,
	logger *slog.Logger,
) services.GraphService {
	return &graphService{
		docRepo:  docRepo,
		resolver: resolver,
		ids:      ids,
		locks:    locks,
		logger:   logger,
	}
}

// AddRelationship stores a new edge on the source document. The target
// may reference a document that does not exist yet; resolution happens
// at traversal time.
func (s *graphService) AddRelationship(ctx context.Context, req *services.AddRelationshipRequest) (string, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.SourceID, validation.Required),
		validation.Field(&req.TargetRef, validation.Required),
		validation.Field(&req.Type, validation.Required),
	); err != nil {
		return "", asValidationError(err)
	}

	edgeID, err := s.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate edge id: %w", err)
	}

	unlock := s.locks.lock(req.SourceID)
	defer unlock()

	doc, err := s.docRepo.GetByID(ctx, req.SourceID)
	if err != nil {
		return "", err
	}

	target := models.TargetByRef(req.TargetRef)
	if identity.IsUUID(req.TargetRef) {
		target = models.TargetByID(req.TargetRef)
	}

	rels := append(doc.Relationships, models.Relationship{
		EdgeID:        edgeID,
		SourceID:      req.SourceID,
		Target:        target,
		Type:          req.Type,
		Meta:          req.Meta,
		Bidirectional: req.Bidirectional,
		CreatedAt:     time.Now().UTC(),
	})
	if err := s.docRepo.ReplaceRelationships(ctx, req.SourceID, rels); err != nil {
		return "", err
	}
	return edgeID, nil
}

// Relationships returns the document's outgoing edges plus the computed
// inverse of bidirectional edges stored on other documents, in creation
// order.
func (s *graphService) Relationships(ctx context.Context, docID, typeFilter string) ([]models.Relationship, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	var edges []models.Relationship
	for _, rel := range doc.Relationships {
		if typeFilter != "" && rel.Type != typeFilter {
			continue
		}
		edges = append(edges, rel.Clone())
	}

	others, err := s.docRepo.List(ctx, models.ListFilter{})
	if err != nil {
		return nil, err
	}
	for _, other := range others {
		if other.ID == docID {
			continue
		}
		for _, rel := range other.Relationships {
			if !rel.Bidirectional || !s.targets(rel, doc) {
				continue
			}
			if typeFilter != "" && rel.Type != typeFilter {
				continue
			}
			edges = append(edges, rel.Inverse(docID))
		}
	}

	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].CreatedAt.Before(edges[j].CreatedAt)
	})
	return edges, nil
}

// Traverse walks the graph breadth-first from startID. Each reachable
// document appears once at its shortest depth; self-edges are not
// expanded and unresolvable targets become diagnostics.
func (s *graphService) Traverse(ctx context.Context, startID string, maxDepth int, typeFilter string) (*models.TraversalResult, error) {
	if err := validation.Validate(maxDepth, validation.Min(0)); err != nil {
		return nil, &domain.ValidationError{Message: "max_depth " + err.Error(), Fields: []string{"max_depth"}}
	}

	start, err := s.docRepo.GetByID(ctx, startID)
	if err != nil {
		return nil, err
	}

	result := &models.TraversalResult{}
	visited := map[string]int{start.ID: 0}

	type frame struct {
		doc   *models.Document
		depth int
		path  []string
	}
	queue := []frame{{doc: start, depth: 0}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			continue
		}

		edges, err := s.Relationships(ctx, cur.doc.ID, typeFilter)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}

		for _, edge := range edges {
			next, err := s.resolveTarget(ctx, edge.Target)
			if err != nil {
				result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
					Ref:    edge.Target.String(),
					EdgeID: edge.EdgeID,
					Detail: "target did not resolve",
				})
				continue
			}
			depth := cur.depth + 1
			if prev, seen := visited[next.ID]; seen && prev <= depth {
				continue
			}
			visited[next.ID] = depth

			path := make([]string, len(cur.path), len(cur.path)+1)
			copy(path, cur.path)
			path = append(path, edge.Type)

			result.Nodes = append(result.Nodes, models.TraversalNode{
				Document: next,
				Depth:    depth,
				Path:     path,
			})
			queue = append(queue, frame{doc: next, depth: depth, path: path})
		}
	}
	return result, nil
}

// RemoveInboundEdges drops every edge on other documents that targets
// the document by id or by exact uri. Unresolved references by path are
// left in place and surface as diagnostics later. Each source document
// is re-read and rewritten under its own stripe lock, one at a time, so
// a concurrent AddRelationship on the same source cannot be lost.
func (s *graphService) RemoveInboundEdges(ctx context.Context, docID, uri string) error {
	others, err := s.docRepo.List(ctx, models.ListFilter{})
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID == docID {
			continue
		}
		unlock := s.locks.lock(other.ID)
		err := s.removeEdgesTo(ctx, other.ID, docID, uri)
		unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *graphService) removeEdgesTo(ctx context.Context, sourceID, docID, uri string) error {
	source, err := s.docRepo.GetByID(ctx, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	kept := source.Relationships[:0:0]
	changed := false
	for _, rel := range source.Relationships {
		if rel.Target.ID == docID || (uri != "" && rel.Target.Ref == uri) {
			changed = true
			continue
		}
		kept = append(kept, rel)
	}
	if !changed {
		return nil
	}
	return s.docRepo.ReplaceRelationships(ctx, sourceID, kept)
}

// targets reports whether the edge points at doc, by id or by exact uri.
func (s *graphService) targets(rel models.Relationship, doc *models.Document) bool {
	return rel.Target.ID == doc.ID || rel.Target.Ref == doc.URI
}

func (s *graphService) resolveTarget(ctx context.Context, target models.TargetRef) (*models.Document, error) {
	if target.Resolved() {
		return s.docRepo.GetByID(ctx, target.ID)
	}
	return s.resolver.Resolve(ctx, target.Ref)
}
