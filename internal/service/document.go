package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/repositories"
	"github.com/greyhaven-ai/datapack/internal/domain/services"
	"github.com/greyhaven-ai/datapack/internal/extract"
	"github.com/greyhaven-ai/datapack/internal/identity"
	"github.com/greyhaven-ai/datapack/internal/search"
)

// documentService implements the DocumentService interface. It is the
// transactional boundary: every document mutation funnels through it and
// is serialized per document id.
type documentService struct {
	docRepo     repositories.DocumentRepository
	txManager   repositories.TransactionManager
	resolver    services.Resolver
	graph       services.GraphService
	collections services.CollectionService
	index       search.Index
	extractor   extract.Extractor
	ids         *identity.Generator
	locks       *IDLocks
	namespace   string
	logger      *slog.Logger
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	txManager repositories.TransactionManager,
	resolver services.Resolver,
	graph services.GraphService,
	collections services.CollectionService,
	index search.Index,
	extractor extract.Extractor,
	ids *identity.Generator,
	locks *IDLocks,
	namespace string,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:     docRepo,
		txManager:   txManager,
		resolver:    resolver,
		graph:       graph,
		collections: collections,
		index:       index,
		extractor:   extractor,
		ids:         ids,
		locks:       locks,
		namespace:   namespace,
		logger:      logger,
	}
}

// Create validates the metadata, fills missing identity and extracted
// fields, and persists the document. A caller-supplied uri that collides
// with an existing document fails without touching the store.
func (s *documentService) Create(ctx context.Context, req *services.CreateDocumentRequest) (*models.Document, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ID, validation.By(optionalUUID)),
	); err != nil {
		return nil, asValidationError(err)
	}

	meta, bad := models.MetadataFromMap(req.Metadata)
	if len(bad) > 0 {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("ill-typed metadata fields: %s", strings.Join(bad, ", ")),
			Fields:  bad,
		}
	}

	doc := &models.Document{
		ID:       req.ID,
		URI:      req.URI,
		Metadata: meta,
		Content:  req.Content,
	}

	if doc.Metadata.Title == "" || len(doc.Metadata.Tags) == 0 {
		extracted, err := s.extractor.Extract(ctx, doc.Content)
		if err != nil {
			s.logger.Warn("metadata extraction failed", "error", err)
		}
		if doc.Metadata.Title == "" {
			doc.Metadata.Title = extracted.Title
		}
		if len(doc.Metadata.Tags) == 0 {
			doc.Metadata.Tags = extracted.Tags
		}
	}
	if err := doc.Metadata.Validate(); err != nil {
		return nil, asValidationError(err)
	}
	if doc.Metadata.CreatedAt.IsZero() {
		doc.Metadata.CreatedAt = time.Now().UTC()
	}

	if doc.ID == "" {
		id, err := s.ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate document id: %w", err)
		}
		doc.ID = id
	}
	if doc.URI == "" {
		path := req.Path
		if path == "" {
			path = slugify(doc.Metadata.Title)
		}
		uri, err := identity.BuildURI(s.namespace, path)
		if err != nil {
			return nil, err
		}
		doc.URI = uri
	} else if _, _, err := identity.ParseURI(doc.URI); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(doc.ID)
	defer unlock()

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.index.Index(doc)
	s.logger.Debug("document created", "id", doc.ID, "uri", doc.URI)
	return doc, nil
}

// Get resolves any reference form to a document.
func (s *documentService) Get(ctx context.Context, ref string) (*models.Document, error) {
	return s.resolver.Resolve(ctx, ref)
}

// Update applies a partial update. The merged metadata is re-validated
// before anything is written; a bad patch changes nothing.
func (s *documentService) Update(ctx context.Context, id string, req *services.UpdateDocumentRequest) (*models.Document, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Metadata != nil {
		merged, bad := doc.Metadata.ApplyPatch(req.Metadata)
		if len(bad) > 0 {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("invalid metadata fields: %s", strings.Join(bad, ", ")),
				Fields:  bad,
			}
		}
		doc.Metadata = merged
	}
	if req.Content != nil {
		doc.Content = *req.Content
	}
	doc.Metadata.UpdatedAt = time.Now().UTC()

	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}
	s.index.Index(doc)
	return doc, nil
}

// Delete removes the document, severs its graph edges, and drops it
// from every collection member list. The row is removed first under
// the document's stripe; inbound edges and member lists are scrubbed
// afterwards under their owners' stripes. New memberships and resolved
// edges cannot appear in between because AddMember and AddRelationship
// re-read the document and fail once the row is gone.
func (s *documentService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		unlock()
		return err
	}
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if len(doc.Relationships) > 0 {
			if err := s.docRepo.ReplaceRelationships(txCtx, id, nil); err != nil {
				return err
			}
		}
		if err := s.docRepo.Delete(txCtx, id); err != nil {
			return err
		}
		s.index.Remove(id)
		return nil
	})
	unlock()
	if err != nil {
		return err
	}

	if err := s.graph.RemoveInboundEdges(ctx, id, doc.URI); err != nil {
		return err
	}
	return s.collections.RemoveDocumentMemberships(ctx, id)
}

// List returns document summaries matching the filter.
func (s *documentService) List(ctx context.Context, filter models.ListFilter) ([]models.Summary, error) {
	docs, err := s.docRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.Summary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, doc.Summarize())
	}
	return summaries, nil
}

// Search queries the index. Hits whose document no longer exists are
// dropped, so results reference live documents at call time.
func (s *documentService) Search(ctx context.Context, query string, filter models.ListFilter) ([]models.SearchHit, error) {
	hits := s.index.Query(query, filter, 0)
	live := hits[:0:0]
	for _, hit := range hits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := s.docRepo.GetByID(ctx, hit.Summary.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.index.Remove(hit.Summary.ID)
				continue
			}
			return nil, err
		}
		live = append(live, hit)
	}
	return live, nil
}

// FetchContext resolves the reference and returns its bounded-depth
// neighborhood.
func (s *documentService) FetchContext(ctx context.Context, ref string, maxDepth int) (*models.ContextBundle, error) {
	start, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	result, err := s.graph.Traverse(ctx, start.ID, maxDepth, "")
	if err != nil {
		return nil, err
	}
	return &models.ContextBundle{
		Start:       start,
		Nodes:       result.Nodes,
		Diagnostics: result.Diagnostics,
	}, nil
}

// slugify turns a title into a path segment.
func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
