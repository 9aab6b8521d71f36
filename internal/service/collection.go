package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/repositories"
	"github.com/greyhaven-ai/datapack/internal/domain/services"
	"github.com/greyhaven-ai/datapack/internal/identity"
)

type collectionService struct {
	collRepo repositories.CollectionRepository
	docRepo  repositories.DocumentRepository
	resolver services.Resolver
	ids      *identity.Generator
	locks    *IDLocks

	// parentMu serializes reparenting. The ancestor walk reads
	// collections whose stripes are not held, so two walks over
	// disjoint pairs could otherwise jointly close a cycle.
	parentMu sync.Mutex

	logger *slog.Logger
}

// NewCollection creates the collection hierarchy service.
func NewCollection(
	collRepo repositories.CollectionRepository,
	docRepo repositories.DocumentRepository,
	resolver services.Resolver,
	ids *identity.Generator,
	locks *IDLocks,
	logger *slog.Logger,
) services.CollectionService {
	return &collectionService{
		collRepo: collRepo,
		docRepo:  docRepo,
		resolver: resolver,
		ids:      ids,
		locks:    locks,
		logger:   logger,
	}
}

// Create makes an empty collection, optionally nested under a parent.
func (s *collectionService) Create(ctx context.Context, name string, metadata map[string]any, parentID *string) (*models.Collection, error) {
	if err := validation.Validate(name, validation.Required); err != nil {
		return nil, &domain.ValidationError{Message: "collection name " + err.Error(), Fields: []string{"name"}}
	}
	if parentID != nil {
		if _, err := s.collRepo.GetByID(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	id, err := s.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate collection id: %w", err)
	}
	coll := &models.Collection{
		ID:        id,
		Name:      name,
		Metadata:  metadata,
		Members:   []string{},
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.collRepo.Create(ctx, coll); err != nil {
		return nil, err
	}
	return coll, nil
}

func (s *collectionService) Get(ctx context.Context, id string) (*models.Collection, error) {
	return s.collRepo.GetByID(ctx, id)
}

func (s *collectionService) List(ctx context.Context) ([]*models.Collection, error) {
	return s.collRepo.List(ctx)
}

// Delete removes the collection and clears the back-reference on its
// member documents. Members themselves are not deleted and child
// collections are re-rooted, not removed. The row goes first under the
// collection's stripe; back-references and children are then fixed up
// one at a time under their own stripes, so no two stripes are ever
// held together and a concurrent AddMember or SetParent cannot be
// lost. AddMember on the deleted collection fails once the row is
// gone.
func (s *collectionService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	coll, err := s.collRepo.GetByID(ctx, id)
	if err == nil {
		err = s.collRepo.Delete(ctx, id)
	}
	unlock()
	if err != nil {
		return err
	}

	for _, docID := range coll.Members {
		unlockDoc := s.locks.lock(docID)
		err := s.clearParentCollection(ctx, docID, id)
		unlockDoc()
		if err != nil {
			return err
		}
	}

	children, err := s.collRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.ParentID == nil || *child.ParentID != id {
			continue
		}
		unlockChild := s.locks.lock(child.ID)
		err := s.rerootChild(ctx, child.ID, id, coll.ParentID)
		unlockChild()
		if err != nil {
			return err
		}
	}
	return nil
}

// rerootChild re-reads the child under its stripe and moves it to the
// deleted collection's parent, unless a concurrent SetParent already
// moved it elsewhere.
func (s *collectionService) rerootChild(ctx context.Context, childID, deletedID string, newParent *string) error {
	child, err := s.collRepo.GetByID(ctx, childID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if child.ParentID == nil || *child.ParentID != deletedID {
		return nil
	}
	child.ParentID = newParent
	return s.collRepo.Update(ctx, child)
}

// AddMember inserts the document at position, appending when nil.
func (s *collectionService) AddMember(ctx context.Context, collectionID, docID string, position *int) error {
	unlock := s.locks.lockPair(collectionID, docID)
	defer unlock()

	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	coll, err := s.collRepo.GetByID(ctx, collectionID)
	if err != nil {
		return err
	}
	if coll.HasMember(docID) {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document %s is already a member of collection %s", docID, collectionID),
			ResourceType: "collection",
			ResourceID:   collectionID,
		}
	}

	at := len(coll.Members)
	if position != nil {
		at = *position
		if at < 0 || at > len(coll.Members) {
			return &domain.ValidationError{
				Message: fmt.Sprintf("position %d out of range [0, %d]", at, len(coll.Members)),
				Fields:  []string{"position"},
			}
		}
	}
	coll.Members = append(coll.Members, "")
	copy(coll.Members[at+1:], coll.Members[at:])
	coll.Members[at] = docID

	if err := s.collRepo.Update(ctx, coll); err != nil {
		return err
	}

	doc.ParentCollection = collectionID
	return s.docRepo.Update(ctx, doc)
}

// RemoveMember is idempotent: removing an absent member succeeds. Both
// stripes are held because the document's back-reference is rewritten
// along with the member list.
func (s *collectionService) RemoveMember(ctx context.Context, collectionID, docID string) error {
	unlock := s.locks.lockPair(collectionID, docID)
	defer unlock()

	coll, err := s.collRepo.GetByID(ctx, collectionID)
	if err != nil {
		return err
	}
	if !coll.HasMember(docID) {
		return nil
	}
	coll.RemoveMember(docID)
	if err := s.collRepo.Update(ctx, coll); err != nil {
		return err
	}
	return s.clearParentCollection(ctx, docID, collectionID)
}

// SetParent nests the collection under parentID, refusing any nesting
// that would close a cycle. Reparenting is globally serialized: the
// ancestor walk must not race another walk over a disjoint pair.
func (s *collectionService) SetParent(ctx context.Context, collectionID, parentID string) error {
	s.parentMu.Lock()
	defer s.parentMu.Unlock()
	unlock := s.locks.lockPair(collectionID, parentID)
	defer unlock()

	coll, err := s.collRepo.GetByID(ctx, collectionID)
	if err != nil {
		return err
	}
	if _, err := s.collRepo.GetByID(ctx, parentID); err != nil {
		return err
	}

	// Walking up from the proposed parent must not reach the collection.
	cursor := parentID
	seen := map[string]bool{}
	for cursor != "" && !seen[cursor] {
		if cursor == collectionID {
			return &domain.CycleError{CollectionID: collectionID, ParentID: parentID}
		}
		seen[cursor] = true
		ancestor, err := s.collRepo.GetByID(ctx, cursor)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				break
			}
			return err
		}
		if ancestor.ParentID == nil {
			break
		}
		cursor = *ancestor.ParentID
	}

	coll.ParentID = &parentID
	return s.collRepo.Update(ctx, coll)
}

// Hierarchy returns the nested tree rooted at the collection. Cycles in
// stored data are cut during assembly and flagged on the repeated node.
func (s *collectionService) Hierarchy(ctx context.Context, rootID string) (*models.CollectionTree, error) {
	root, err := s.collRepo.GetByID(ctx, rootID)
	if err != nil {
		return nil, err
	}

	all, err := s.collRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	childrenOf := make(map[string][]*models.Collection)
	for _, coll := range all {
		if coll.ParentID != nil {
			childrenOf[*coll.ParentID] = append(childrenOf[*coll.ParentID], coll)
		}
	}

	seen := map[string]bool{}
	var build func(coll *models.Collection) *models.CollectionTree
	build = func(coll *models.Collection) *models.CollectionTree {
		node := &models.CollectionTree{Collection: coll}
		if seen[coll.ID] {
			node.CycleBroken = true
			return node
		}
		seen[coll.ID] = true
		for _, child := range childrenOf[coll.ID] {
			node.Children = append(node.Children, build(child))
		}
		return node
	}
	return build(root), nil
}

// LinkByReferences resolves unresolved relationship targets that point
// at co-members, rewriting them to id form. Returns how many edges were
// linked. Running it twice links nothing the second time.
func (s *collectionService) LinkByReferences(ctx context.Context, collectionID string) (int, error) {
	coll, err := s.collRepo.GetByID(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	members := make(map[string]bool, len(coll.Members))
	for _, id := range coll.Members {
		members[id] = true
	}

	linked := 0
	for _, docID := range coll.Members {
		n, err := s.linkMember(ctx, docID, members)
		linked += n
		if err != nil {
			return linked, err
		}
	}
	return linked, nil
}

// linkMember rewrites one member's resolvable targets under its stripe.
func (s *collectionService) linkMember(ctx context.Context, docID string, members map[string]bool) (int, error) {
	unlock := s.locks.lock(docID)
	defer unlock()

	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	linked := 0
	for i, rel := range doc.Relationships {
		if rel.Target.Resolved() {
			continue
		}
		target, err := s.resolver.Resolve(ctx, rel.Target.Ref)
		if err != nil || !members[target.ID] {
			continue
		}
		doc.Relationships[i].Target = models.TargetByID(target.ID)
		linked++
	}
	if linked == 0 {
		return 0, nil
	}
	return linked, s.docRepo.ReplaceRelationships(ctx, docID, doc.Relationships)
}

// RemoveDocumentMemberships drops the document from every member list.
// Called by the store after the document row is deleted; each member
// list is re-read and rewritten under its collection's stripe so a
// concurrent AddMember on the same collection cannot be lost.
func (s *collectionService) RemoveDocumentMemberships(ctx context.Context, docID string) error {
	colls, err := s.collRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, coll := range colls {
		if !coll.HasMember(docID) {
			continue
		}
		unlock := s.locks.lock(coll.ID)
		err := s.removeMembership(ctx, coll.ID, docID)
		unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *collectionService) removeMembership(ctx context.Context, collectionID, docID string) error {
	coll, err := s.collRepo.GetByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if !coll.HasMember(docID) {
		return nil
	}
	coll.RemoveMember(docID)
	return s.collRepo.Update(ctx, coll)
}

func (s *collectionService) clearParentCollection(ctx context.Context, docID, collectionID string) error {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if doc.ParentCollection == collectionID {
		doc.ParentCollection = ""
		return s.docRepo.Update(ctx, doc)
	}
	return nil
}
