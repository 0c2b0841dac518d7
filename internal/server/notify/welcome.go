// Package notify sends account notifications. Delivery is a log line for
// now.
package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

var (
	ErrMissingUserID = errors.New("missing userId")
	ErrUserNotFound  = errors.New("user not found")
)

// WelcomeHandler greets newly registered users.
type WelcomeHandler struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewWelcomeHandler(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *WelcomeHandler {
	return &WelcomeHandler{db: db, repomanager: m, logger: logger}
}

func (h *WelcomeHandler) Handle(ctx context.Context, job *models.Job) error {
	var p models.WelcomePayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if p.UserID == "" {
		return ErrMissingUserID
	}

	user, err := h.repomanager.Users(h.db).GetByID(ctx, p.UserID)
	if errors.Is(err, common.ErrorNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	h.logger.Info(ctx, fmt.Sprintf("Welcome %s!", user.Email), "user_id", user.ID)
	return nil
}
