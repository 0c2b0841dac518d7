package files

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, node *models.FileNode) (*models.FileNode, error)
	ValidateParent(ctx context.Context, parentID, ownerID models.ID) (*models.FileNode, error)
	GetByID(ctx context.Context, id models.ID) (*models.FileNode, error)
	GetByIDForOwner(ctx context.Context, id, ownerID models.ID) (*models.FileNode, error)
	ListByParent(ctx context.Context, ownerID, parentID models.ID, limit, offset int) ([]*models.FileNode, error)
	SetPublic(ctx context.Context, id, ownerID models.ID, public bool) (*models.FileNode, error)
	Count(ctx context.Context) (int64, error)
}
