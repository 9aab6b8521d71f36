package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/repositories"
)

// PostgresCollectionRepository implements the CollectionRepository interface
type PostgresCollectionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(config *RepositoryConfig) repositories.CollectionRepository {
	return &PostgresCollectionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const collectionColumns = "id, name, metadata, members, parent_id, created_at"

// Create inserts a new collection.
func (r *PostgresCollectionRepository) Create(ctx context.Context, coll *models.Collection) error {
	metadata, members, err := encodeCollectionFields(coll)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, metadata, members, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Collections)

	executor := GetExecutor(ctx, r.pool)
	_, err = executor.Exec(ctx, query,
		coll.ID, coll.Name, metadata, members, coll.ParentID, coll.CreatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("collection %s already exists", coll.ID),
				ResourceType: "collection",
				ResourceID:   coll.ID,
			}
		}
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// GetByID retrieves a collection by id.
func (r *PostgresCollectionRepository) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, collectionColumns, r.tables.Collections)
	executor := GetExecutor(ctx, r.pool)
	coll, err := scanCollection(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return coll, nil
}

// List retrieves all collections ordered by creation time.
func (r *PostgresCollectionRepository) List(ctx context.Context) ([]*models.Collection, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at`, collectionColumns, r.tables.Collections)
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var colls []*models.Collection
	for rows.Next() {
		coll, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		colls = append(colls, coll)
	}
	return colls, rows.Err()
}

// Update replaces the stored collection.
func (r *PostgresCollectionRepository) Update(ctx context.Context, coll *models.Collection) error {
	metadata, members, err := encodeCollectionFields(coll)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET name = $2, metadata = $3, members = $4, parent_id = $5 WHERE id = $1
	`, r.tables.Collections)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, coll.ID, coll.Name, metadata, members, coll.ParentID)
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("collection %s: %w", coll.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a collection. Child collections keep their parent_id;
// orphan handling is the caller's concern.
func (r *PostgresCollectionRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Collections)
	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanCollection(row rowScanner) (*models.Collection, error) {
	var (
		coll         models.Collection
		metadataJSON []byte
		membersJSON  []byte
	)
	if err := row.Scan(&coll.ID, &coll.Name, &metadataJSON, &membersJSON, &coll.ParentID, &coll.CreatedAt); err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &coll.Metadata); err != nil {
			return nil, fmt.Errorf("decode collection metadata: %w", err)
		}
	}
	if err := json.Unmarshal(membersJSON, &coll.Members); err != nil {
		return nil, fmt.Errorf("decode collection members: %w", err)
	}
	if coll.Members == nil {
		coll.Members = []string{}
	}
	return &coll, nil
}

func encodeCollectionFields(coll *models.Collection) (metadata, members []byte, err error) {
	if coll.Metadata != nil {
		metadata, err = json.Marshal(coll.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("encode collection metadata: %w", err)
		}
	} else {
		metadata = []byte("{}")
	}
	if coll.Members == nil {
		members = []byte("[]")
	} else if members, err = json.Marshal(coll.Members); err != nil {
		return nil, nil, fmt.Errorf("encode collection members: %w", err)
	}
	return metadata, members, nil
}
