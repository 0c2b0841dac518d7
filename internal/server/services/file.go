package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"mime"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blobstore"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// PageSize is the number of nodes per List page.
const PageSize = 20

const defaultContentType = "application/octet-stream"

// UploadRequest describes a new node. Data is base64 encoded and required
// for every type except folder.
type UploadRequest struct {
	Name     string
	Type     string
	ParentID models.ID
	IsPublic bool
	Data     string
}

// Content is the payload returned by Fetch.
type Content struct {
	Data        []byte
	ContentType string
}

// FileService manages the file tree of each user.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	auth        Authenticator
	blobs       blobstore.Store
	queue       Enqueuer
	logger      logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, a Authenticator, blobs blobstore.Store, queue Enqueuer, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		auth:        a,
		blobs:       blobs,
		queue:       queue,
		logger:      logger,
	}
}

// Upload creates a folder, file or image.
//
// Content is written to the blob store before the node is inserted; an
// insert failure leaves the blob orphaned. For images a thumbnail task is
// enqueued after the insert commits, and failing to enqueue does not fail
// the upload.
func (s *FileService) Upload(ctx context.Context, token string, req UploadRequest) (*models.FileNode, error) {
	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	if req.Name == "" {
		return nil, common.ErrMissingName
	}
	kind := models.FileType(req.Type)
	if !kind.Valid() {
		return nil, common.ErrMissingType
	}

	var content []byte
	if kind != models.FileTypeFolder {
		if req.Data == "" {
			return nil, common.ErrMissingData
		}
		content, err = base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return nil, common.ErrMissingData
		}
	}

	parentID := req.ParentID
	if parentID.IsRoot() {
		parentID = models.RootID
	}

	repo := s.repomanager.Files(s.db)

	// fail fast before writing content; Create re-checks atomically
	if _, err := repo.ValidateParent(ctx, parentID, userID); err != nil {
		return nil, internal("validate parent", err)
	}

	node := &models.FileNode{
		UserID:   userID,
		Name:     req.Name,
		Type:     kind,
		ParentID: parentID,
		IsPublic: req.IsPublic,
	}

	if kind != models.FileTypeFolder {
		node.BlobKey = blobstore.NewKey()
		if err := s.blobs.Put(ctx, node.BlobKey, content); err != nil {
			return nil, internal("write blob", err)
		}
	}

	created, err := repo.Create(ctx, node)
	if err != nil {
		return nil, internal("create file", err)
	}

	if created.Type == models.FileTypeImage {
		payload := models.ThumbnailPayload{FileID: created.ID, UserID: userID}
		if _, err := s.queue.Enqueue(ctx, models.JobKindThumbnail, payload); err != nil {
			s.logger.Warn(ctx, "thumbnail task not scheduled", "file_id", created.ID, "error", err)
		}
	}

	s.logger.Info(ctx, "file uploaded", "file_id", created.ID, "type", created.Type)
	return created, nil
}

// Show returns one of the caller's nodes. Nodes of other users are
// reported as not found.
func (s *FileService) Show(ctx context.Context, token string, id models.ID) (*models.FileNode, error) {
	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	node, err := s.repomanager.Files(s.db).GetByIDForOwner(ctx, id, userID)
	if err != nil {
		return nil, internal("get file", err)
	}
	return node, nil
}

// List returns page (zero based) of the caller's nodes under parentID.
func (s *FileService) List(ctx context.Context, token string, parentID models.ID, page int) ([]*models.FileNode, error) {
	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	if page < 0 {
		page = 0
	}
	if parentID.IsRoot() {
		parentID = models.RootID
	}

	nodes, err := s.repomanager.Files(s.db).ListByParent(ctx, userID, parentID, PageSize, page*PageSize)
	if err != nil {
		return nil, internal("list files", err)
	}
	return nodes, nil
}

// SetPublic publishes or unpublishes one of the caller's nodes.
func (s *FileService) SetPublic(ctx context.Context, token string, id models.ID, public bool) (*models.FileNode, error) {
	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	node, err := s.repomanager.Files(s.db).SetPublic(ctx, id, userID, public)
	if err != nil {
		return nil, internal("set public", err)
	}
	return node, nil
}

// Fetch returns the content of a node, or of one of its derivatives when
// size is set. token may be empty; private nodes of other users are
// reported as not found.
func (s *FileService) Fetch(ctx context.Context, token string, id models.ID, size string) (*Content, error) {
	node, err := s.repomanager.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, internal("get file", err)
	}

	ok, err := s.auth.AuthorizeOwnerOrPublic(ctx, node, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorNotFound
	}

	if node.Type == models.FileTypeFolder {
		return nil, common.ErrFolderHasNoContent
	}

	key := node.BlobKey
	if size != "" {
		width, err := strconv.Atoi(size)
		if err != nil || !models.IsThumbnailWidth(width) {
			return nil, common.ErrInvalidSize
		}
		key = models.DerivativeKey(node.BlobKey, width)
	}

	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, internal("read blob", err)
	}

	return &Content{Data: data, ContentType: contentType(node.Name)}, nil
}

func contentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return defaultContentType
}
