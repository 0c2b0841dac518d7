package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type aliveFlag bool

func (a aliveFlag) Alive() bool { return bool(a) }

func TestStatus(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	e := newEnv()
	s := NewStatusService(db, e.rm, aliveFlag(true))

	mock.ExpectPing()
	st := s.Status(context.Background())
	assert.True(t, st.Sessions)
	assert.True(t, st.DB)

	mock.ExpectPing().WillReturnError(assert.AnError)
	s = NewStatusService(db, e.rm, aliveFlag(false))
	st = s.Status(context.Background())
	assert.False(t, st.Sessions)
	assert.False(t, st.DB)
}

func TestStats(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	_, err := e.users.Register(ctx, "a@b.com", "pw")
	require.NoError(t, err)
	tok := e.sessions.login("alice")
	_, err = e.files.Upload(ctx, tok, UploadRequest{Name: "d", Type: "folder"})
	require.NoError(t, err)
	_, err = e.files.Upload(ctx, tok, UploadRequest{Name: "e", Type: "folder"})
	require.NoError(t, err)

	stats, err := NewStatusService(nil, e.rm, aliveFlag(true)).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(2), stats.Files)
}
