// Package auth answers whether a caller may act on a resource, and hashes
// account passwords.
package auth

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// SessionResolver maps a session token to its user.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (models.ID, bool, error)
}

type Gateway struct {
	sessions SessionResolver
}

func NewGateway(sessions SessionResolver) *Gateway {
	return &Gateway{sessions: sessions}
}

// Authenticate returns the user behind token. A missing, unknown or expired
// token all yield common.ErrorUnauthorized; a failing session store is an
// internal error.
func (g *Gateway) Authenticate(ctx context.Context, token string) (models.ID, error) {
	if token == "" {
		return "", common.ErrorUnauthorized
	}

	userID, ok, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return "", common.ErrorUnauthorized
	}
	return userID, nil
}

// AuthorizeOwnerOrPublic grants access to public nodes for anyone, and to
// private nodes only for their owner. token may be empty.
func (g *Gateway) AuthorizeOwnerOrPublic(ctx context.Context, node *models.FileNode, token string) (bool, error) {
	if node.IsPublic {
		return true, nil
	}
	if token == "" {
		return false, nil
	}

	userID, ok, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return ok && userID == node.UserID, nil
}
