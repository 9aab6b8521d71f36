package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/repositories"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const documentColumns = "id, uri, metadata, content, relationships, parent_collection"

// Create inserts a new document. Duplicate id or uri surfaces as a
// structured ConflictError naming the existing document.
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	metadata, rels, err := encodeDocumentFields(doc)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, uri, metadata, content, relationships, parent_collection, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	now := time.Now().UTC()
	_, err = executor.Exec(ctx, query,
		doc.ID,
		doc.URI,
		metadata,
		doc.Content,
		rels,
		doc.ParentCollection,
		now,
		now,
	)

	if err != nil {
		if IsPgDuplicateError(err) {
			existingID, queryErr := r.existingIDForURI(ctx, doc.URI)
			if queryErr != nil {
				return fmt.Errorf("document %s already exists: %w", doc.URI, domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document uri %s already exists", doc.URI),
				ResourceType: "document",
				ResourceID:   existingID,
			}
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by id.
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)
	return r.queryOne(ctx, query, id)
}

// GetByURI retrieves a document by its mdp URI.
func (r *PostgresDocumentRepository) GetByURI(ctx context.Context, uri string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE uri = $1`, documentColumns, r.tables.Documents)
	return r.queryOne(ctx, query, uri)
}

// List retrieves documents matching the filter, ordered by creation time.
func (r *PostgresDocumentRepository) List(ctx context.Context, filter models.ListFilter) ([]*models.Document, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		conditions = append(conditions, fmt.Sprintf("metadata->'tags' @> jsonb_build_array($%d::text)", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("metadata->>'status' = $%d", len(args)))
	}
	if filter.Author != "" {
		args = append(args, filter.Author)
		conditions = append(conditions, fmt.Sprintf("metadata->>'author' = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, documentColumns, r.tables.Documents)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at"

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Update replaces the stored document.
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	metadata, rels, err := encodeDocumentFields(doc)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET uri = $2, metadata = $3, content = $4, relationships = $5, parent_collection = $6, updated_at = $7
		WHERE id = $1
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		doc.ID, doc.URI, metadata, doc.Content, rels, doc.ParentCollection, time.Now().UTC())
	if err != nil {
		if IsPgDuplicateError(err) {
			existingID, queryErr := r.existingIDForURI(ctx, doc.URI)
			if queryErr != nil {
				existingID = ""
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document uri %s already exists", doc.URI),
				ResourceType: "document",
				ResourceID:   existingID,
			}
		}
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}
	return nil
}

// ReplaceRelationships swaps only the relationships column.
func (r *PostgresDocumentRepository) ReplaceRelationships(ctx context.Context, docID string, rels []models.Relationship) error {
	encoded, err := json.Marshal(rels)
	if err != nil {
		return fmt.Errorf("encode relationships: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET relationships = $2, updated_at = $3 WHERE id = $1`, r.tables.Documents)
	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, docID, encoded, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("replace relationships: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a document.
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)
	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresDocumentRepository) existingIDForURI(ctx context.Context, uri string) (string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE uri = $1`, r.tables.Documents)
	executor := GetExecutor(ctx, r.pool)
	var id string
	if err := executor.QueryRow(ctx, query, uri).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *PostgresDocumentRepository) queryOne(ctx context.Context, query string, arg interface{}) (*models.Document, error) {
	executor := GetExecutor(ctx, r.pool)
	row := executor.QueryRow(ctx, query, arg)
	doc, err := scanDocument(row)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %v: %w", arg, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		doc          models.Document
		metadataJSON []byte
		relsJSON     []byte
	)
	if err := row.Scan(&doc.ID, &doc.URI, &metadataJSON, &doc.Content, &relsJSON, &doc.ParentCollection); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if err := json.Unmarshal(relsJSON, &doc.Relationships); err != nil {
		return nil, fmt.Errorf("decode relationships: %w", err)
	}
	return &doc, nil
}

func encodeDocumentFields(doc *models.Document) (metadata, rels []byte, err error) {
	metadata, err = json.Marshal(doc.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("encode metadata: %w", err)
	}
	if doc.Relationships == nil {
		rels = []byte("[]")
	} else if rels, err = json.Marshal(doc.Relationships); err != nil {
		return nil, nil, fmt.Errorf("encode relationships: %w", err)
	}
	return metadata, rels, nil
}
