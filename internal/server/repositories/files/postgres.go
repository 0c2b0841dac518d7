// Package files stores the file node hierarchy in PostgreSQL.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/google/uuid"
)

const columns = `id, user_id, name, type, parent_id, is_public, blob_key, created_at`

// PostgresRepository implements file node storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts node and returns the stored row.
//
// For a non-root parent the insert is conditional on the parent being a
// folder owned by the same user, so the parent check and the write are one
// statement. When nothing is inserted the parent is looked up again only to
// report ErrParentNotFound or ErrParentNotFolder.
func (r *PostgresRepository) Create(ctx context.Context, node *models.FileNode) (*models.FileNode, error) {
	var row *sql.Row
	if node.ParentID.IsRoot() {
		query := `
			INSERT INTO files (user_id, name, type, parent_id, is_public, blob_key)
			VALUES ($1, $2, $3, NULL, $4, $5)
			RETURNING ` + columns
		row = r.db.QueryRowContext(ctx, query,
			node.UserID.String(), node.Name, string(node.Type), node.IsPublic, nullString(node.BlobKey))
	} else {
		if !isUUID(node.ParentID) {
			return nil, common.ErrParentNotFound
		}
		query := `
			INSERT INTO files (user_id, name, type, parent_id, is_public, blob_key)
			SELECT $1, $2, $3, p.id, $5, $6 FROM files p
			WHERE p.id = $4 AND p.user_id = $1 AND p.type = 'folder'
			RETURNING ` + columns
		row = r.db.QueryRowContext(ctx, query,
			node.UserID.String(), node.Name, string(node.Type), node.ParentID.String(), node.IsPublic, nullString(node.BlobKey))
	}

	created, err := scanNode(row)
	if errors.Is(err, common.ErrorNotFound) && !node.ParentID.IsRoot() {
		if _, verr := r.ValidateParent(ctx, node.ParentID, node.UserID); verr != nil {
			return nil, verr
		}
		return nil, common.ErrParentNotFound
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ValidateParent checks that parentID may hold children of ownerID. The
// root sentinel always passes and yields a nil folder.
func (r *PostgresRepository) ValidateParent(ctx context.Context, parentID, ownerID models.ID) (*models.FileNode, error) {
	if parentID.IsRoot() {
		return nil, nil
	}

	parent, err := r.GetByIDForOwner(ctx, parentID, ownerID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrParentNotFound
	}
	if err != nil {
		return nil, err
	}
	if parent.Type != models.FileTypeFolder {
		return nil, common.ErrParentNotFolder
	}
	return parent, nil
}

// GetByID returns a node regardless of owner.
func (r *PostgresRepository) GetByID(ctx context.Context, id models.ID) (*models.FileNode, error) {
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + columns + ` FROM files WHERE id = $1`
	return scanNode(r.db.QueryRowContext(ctx, query, id.String()))
}

// GetByIDForOwner returns a node only if it belongs to ownerID.
func (r *PostgresRepository) GetByIDForOwner(ctx context.Context, id, ownerID models.ID) (*models.FileNode, error) {
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + columns + ` FROM files WHERE id = $1 AND user_id = $2`
	return scanNode(r.db.QueryRowContext(ctx, query, id.String(), ownerID.String()))
}

// ListByParent returns one page of ownerID's nodes directly under parentID,
// oldest first.
func (r *PostgresRepository) ListByParent(ctx context.Context, ownerID, parentID models.ID, limit, offset int) ([]*models.FileNode, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID.IsRoot() {
		query := `SELECT ` + columns + ` FROM files
			WHERE user_id = $1 AND parent_id IS NULL
			ORDER BY created_at, id
			LIMIT $2 OFFSET $3`
		rows, err = r.db.QueryContext(ctx, query, ownerID.String(), limit, offset)
	} else {
		if !isUUID(parentID) {
			return []*models.FileNode{}, nil
		}
		query := `SELECT ` + columns + ` FROM files
			WHERE user_id = $1 AND parent_id = $2
			ORDER BY created_at, id
			LIMIT $3 OFFSET $4`
		rows, err = r.db.QueryContext(ctx, query, ownerID.String(), parentID.String(), limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := []*models.FileNode{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetPublic updates is_public on the node matching both id and ownerID in a
// single statement and returns the updated row.
func (r *PostgresRepository) SetPublic(ctx context.Context, id, ownerID models.ID, public bool) (*models.FileNode, error) {
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}
	query := `UPDATE files SET is_public = $3
		WHERE id = $1 AND user_id = $2
		RETURNING ` + columns
	return scanNode(r.db.QueryRowContext(ctx, query, id.String(), ownerID.String(), public))
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(s scanner) (*models.FileNode, error) {
	var (
		node             models.FileNode
		id, userID, kind string
		parentID         sql.NullString
		blobKey          sql.NullString
	)
	err := s.Scan(&id, &userID, &node.Name, &kind, &parentID, &node.IsPublic, &blobKey, &node.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	node.ID = models.ID(id)
	node.UserID = models.ID(userID)
	node.Type = models.FileType(kind)
	node.ParentID = models.RootID
	if parentID.Valid {
		node.ParentID = models.ID(parentID.String)
	}
	node.BlobKey = blobKey.String
	return &node, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUUID(id models.ID) bool {
	_, err := uuid.Parse(id.String())
	return err == nil
}
