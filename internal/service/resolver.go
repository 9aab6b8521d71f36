package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/repositories"
	"github.com/greyhaven-ai/datapack/internal/domain/services"
	"github.com/greyhaven-ai/datapack/internal/identity"
)

type resolverService struct {
	docRepo     repositories.DocumentRepository
	searchPaths []string // namespace prefixes tried for bare paths, in order
}

// NewResolver creates a resolver that tries URI, then UUID, then each
// search path in order. Search paths are two-segment namespaces.
func NewResolver(docRepo repositories.DocumentRepository, searchPaths []string) services.Resolver {
	return &resolverService{
		docRepo:     docRepo,
		searchPaths: searchPaths,
	}
}

// Resolve maps a reference to a document. The first matching strategy
// wins; the returned NotFoundError lists every strategy tried.
func (s *resolverService) Resolve(ctx context.Context, ref string) (*models.Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &domain.ValidationError{Message: "empty reference"}
	}

	var attempted []string

	if identity.IsURI(ref) {
		attempted = append(attempted, "uri")
		doc, err := s.docRepo.GetByURI(ctx, ref)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// A well-formed URI resolves by exact match or not at all.
		return nil, &domain.NotFoundError{Ref: ref, Attempted: attempted}
	}

	if identity.IsUUID(ref) {
		attempted = append(attempted, "uuid")
		doc, err := s.docRepo.GetByID(ctx, ref)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, &domain.NotFoundError{Ref: ref, Attempted: attempted}
	}

	path := strings.Trim(ref, "/")
	for _, ns := range s.searchPaths {
		uri, err := identity.BuildURI(ns, path)
		if err != nil {
			continue
		}
		attempted = append(attempted, fmt.Sprintf("path:%s", ns))
		doc, err := s.docRepo.GetByURI(ctx, uri)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if len(attempted) == 0 {
		attempted = append(attempted, "path")
	}

	return nil, &domain.NotFoundError{Ref: ref, Attempted: attempted}
}
