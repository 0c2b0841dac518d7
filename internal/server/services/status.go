package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// SessionHealth reports whether the session store is usable.
type SessionHealth interface {
	Alive() bool
}

type Status struct {
	Sessions bool
	DB       bool
}

type Stats struct {
	Users int64
	Files int64
}

// StatusService reports dependency health and record counts.
type StatusService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    SessionHealth
}

func NewStatusService(db *sql.DB, m repomanager.RepositoryManager, sessions SessionHealth) *StatusService {
	return &StatusService{db: db, repomanager: m, sessions: sessions}
}

func (s *StatusService) Status(ctx context.Context) Status {
	return Status{
		Sessions: s.sessions.Alive(),
		DB:       s.db.PingContext(ctx) == nil,
	}
}

func (s *StatusService) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.repomanager.Users(s.db).Count(ctx)
	if err != nil {
		return nil, internal("count users", err)
	}
	files, err := s.repomanager.Files(s.db).Count(ctx)
	if err != nil {
		return nil, internal("count files", err)
	}
	return &Stats{Users: users, Files: files}, nil
}
