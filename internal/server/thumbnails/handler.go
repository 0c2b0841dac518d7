// Package thumbnails generates the scaled derivatives of uploaded images.
package thumbnails

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blobstore"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

var (
	ErrMissingFileID = errors.New("missing fileId")
	ErrMissingUserID = errors.New("missing userId")
	ErrFileNotFound  = errors.New("file not found")
)

// Handler processes thumbnail tasks. Running it twice for the same file
// overwrites the derivatives with identical content.
type Handler struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	logger      logging.Logger
}

func NewHandler(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store, logger logging.Logger) *Handler {
	return &Handler{db: db, repomanager: m, blobs: blobs, logger: logger}
}

// Handle writes one derivative per width in models.ThumbnailWidths. A
// failing width does not stop the others; all failures are returned
// together.
func (h *Handler) Handle(ctx context.Context, job *models.Job) error {
	var p models.ThumbnailPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if p.FileID == "" {
		return ErrMissingFileID
	}
	if p.UserID == "" {
		return ErrMissingUserID
	}

	node, err := h.repomanager.Files(h.db).GetByIDForOwner(ctx, p.FileID, p.UserID)
	if errors.Is(err, common.ErrorNotFound) {
		return ErrFileNotFound
	}
	if err != nil {
		return err
	}
	if node.Type != models.FileTypeImage {
		return nil
	}

	data, err := h.blobs.Get(ctx, node.BlobKey)
	if err != nil {
		return fmt.Errorf("read source blob: %w", err)
	}
	src, format, err := Decode(data)
	if err != nil {
		return err
	}

	var errs []error
	for _, width := range models.ThumbnailWidths {
		if err := h.generate(ctx, node, src, format, width); err != nil {
			errs = append(errs, fmt.Errorf("width %d: %w", width, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	h.logger.Info(ctx, "thumbnails generated", "file_id", node.ID)
	return nil
}

func (h *Handler) generate(ctx context.Context, node *models.FileNode, src image.Image, format string, width int) error {
	out, err := Scale(src, format, width)
	if err != nil {
		return err
	}
	return h.blobs.Put(ctx, models.DerivativeKey(node.BlobKey, width), out)
}
