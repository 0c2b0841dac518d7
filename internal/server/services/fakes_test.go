package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

// --- users ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[models.ID]*models.User
	getErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[models.ID]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	c := *u
	c.ID = models.ID(fmt.Sprintf("user-%d", len(f.byID)+1))
	c.CreatedAt = time.Now()
	f.byID[c.ID] = &c
	return &c, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id models.ID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

// --- files ---

type fakeFilesRepo struct {
	mu        sync.Mutex
	nodes     []*models.FileNode
	createErr error
}

func (f *fakeFilesRepo) find(id models.ID) *models.FileNode {
	for _, n := range f.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (f *fakeFilesRepo) validate(parentID, ownerID models.ID) (*models.FileNode, error) {
	if parentID.IsRoot() {
		return nil, nil
	}
	p := f.find(parentID)
	if p == nil || p.UserID != ownerID {
		return nil, common.ErrParentNotFound
	}
	if p.Type != models.FileTypeFolder {
		return nil, common.ErrParentNotFolder
	}
	c := *p
	return &c, nil
}

func (f *fakeFilesRepo) Create(ctx context.Context, n *models.FileNode) (*models.FileNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, err := f.validate(n.ParentID, n.UserID); err != nil {
		return nil, err
	}
	c := *n
	c.ID = models.ID(fmt.Sprintf("node-%d", len(f.nodes)+1))
	c.CreatedAt = time.Now()
	f.nodes = append(f.nodes, &c)
	out := c
	return &out, nil
}

func (f *fakeFilesRepo) ValidateParent(ctx context.Context, parentID, ownerID models.ID) (*models.FileNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validate(parentID, ownerID)
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id models.ID) (*models.FileNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.find(id)
	if n == nil {
		return nil, common.ErrorNotFound
	}
	c := *n
	return &c, nil
}

func (f *fakeFilesRepo) GetByIDForOwner(ctx context.Context, id, ownerID models.ID) (*models.FileNode, error) {
	n, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	return n, nil
}

func (f *fakeFilesRepo) ListByParent(ctx context.Context, ownerID, parentID models.ID, limit, offset int) ([]*models.FileNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*models.FileNode
	for _, n := range f.nodes {
		if n.UserID == ownerID && n.ParentID == parentID {
			c := *n
			matched = append(matched, &c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	if offset >= len(matched) {
		return []*models.FileNode{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (f *fakeFilesRepo) SetPublic(ctx context.Context, id, ownerID models.ID, public bool) (*models.FileNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.find(id)
	if n == nil || n.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	n.IsPublic = public
	c := *n
	return &c, nil
}

func (f *fakeFilesRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.nodes)), nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	f *fakeFilesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository        { return m.u }
func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository        { return m.f }
func (m *fakeRepoManager) Jobs(db dbx.DBTX) jobs.Repository          { return nil }

// --- sessions, queue, blobs ---

type fakeSessions struct {
	mu     sync.Mutex
	tokens map[string]models.ID
	n      int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: map[string]models.ID{}}
}

func (f *fakeSessions) Issue(ctx context.Context, userID models.ID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	tok := fmt.Sprintf("tok-%d", f.n)
	f.tokens[tok] = userID
	return tok, nil
}

func (f *fakeSessions) Resolve(ctx context.Context, token string) (models.ID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[token]
	return id, ok, nil
}

func (f *fakeSessions) Revoke(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeSessions) login(userID models.ID) string {
	tok, _ := f.Issue(context.Background(), userID)
	return tok
}

type enqueued struct {
	kind    string
	payload any
}

type fakeQueue struct {
	mu   sync.Mutex
	got  []enqueued
	fail bool
}

func (q *fakeQueue) Enqueue(ctx context.Context, kind string, payload any) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail {
		return 0, errors.New("queue unavailable")
	}
	q.got = append(q.got, enqueued{kind: kind, payload: payload})
	return int64(len(q.got)), nil
}

type fakeBlobs struct {
	mu     sync.Mutex
	data   map[string][]byte
	putErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{data: map[string][]byte{}}
}

func (b *fakeBlobs) Put(ctx context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	b.data[key] = append([]byte(nil), data...)
	return nil
}

func (b *fakeBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.data[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return d, nil
}

// env wires the services over fakes.
type env struct {
	rm       *fakeRepoManager
	sessions *fakeSessions
	queue    *fakeQueue
	blobs    *fakeBlobs
	users    *UserService
	files    *FileService
}

func newEnv() *env {
	e := &env{
		rm:       &fakeRepoManager{u: newFakeUsersRepo(), f: &fakeFilesRepo{}},
		sessions: newFakeSessions(),
		queue:    &fakeQueue{},
		blobs:    newFakeBlobs(),
	}
	gw := auth.NewGateway(e.sessions)
	e.users = NewUserService(nil, e.rm, gw, e.sessions, e.queue, nopLogger{})
	e.files = NewFileService(nil, e.rm, gw, e.blobs, e.queue, nopLogger{})
	return e
}
