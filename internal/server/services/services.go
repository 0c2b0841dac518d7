// Package services holds the server's business logic: accounts and
// sessions, the file tree, and service status.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Authenticator resolves session tokens to users and gates content access.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.ID, error)
	AuthorizeOwnerOrPublic(ctx context.Context, node *models.FileNode, token string) (bool, error)
}

// SessionIssuer creates and destroys sessions.
type SessionIssuer interface {
	Issue(ctx context.Context, userID models.ID) (string, error)
	Revoke(ctx context.Context, token string) error
}

// Enqueuer schedules background tasks.
type Enqueuer interface {
	Enqueue(ctx context.Context, kind string, payload any) (int64, error)
}

// internal wraps an unexpected dependency failure in common.ErrorInternal.
// Errors that already carry a client-facing class pass through unchanged.
func internal(op string, err error) error {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorInternal):
		return err
	}
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}
