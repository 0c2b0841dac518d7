package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// UserService handles registration and the session lifecycle.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	auth        Authenticator
	sessions    SessionIssuer
	queue       Enqueuer
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, a Authenticator, sessions SessionIssuer, queue Enqueuer, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		auth:        a,
		sessions:    sessions,
		queue:       queue,
		logger:      logger,
	}
}

// Register creates an account and schedules its welcome notification.
// A failed enqueue is logged and does not fail the registration.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, common.ErrMissingEmail
	}
	if password == "" {
		return nil, common.ErrMissingPassword
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, common.ErrPasswordTooLong
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrAlreadyExists
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, internal("lookup user", err)
	}

	digest, err := auth.HashPassword(password)
	if err != nil {
		return nil, internal("hash password", err)
	}

	// the unique index still decides when two registrations race
	user, err := repo.Create(ctx, &models.User{Email: email, PasswordDigest: digest})
	if err != nil {
		return nil, internal("create user", err)
	}

	if _, err := s.queue.Enqueue(ctx, models.JobKindWelcome, models.WelcomePayload{UserID: user.ID}); err != nil {
		s.logger.Warn(ctx, "welcome notification not scheduled", "user_id", user.ID, "error", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

var (
	dummyDigestOnce sync.Once
	dummyDigest     string
)

// Connect checks credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Connect(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		// spend the same bcrypt time as a real check
		dummyDigestOnce.Do(func() { dummyDigest, _ = auth.HashPassword("filevault") })
		auth.CheckPassword(dummyDigest, password)
		return "", common.ErrorUnauthorized
	}
	if err != nil {
		return "", internal("lookup user", err)
	}

	if !auth.CheckPassword(user.PasswordDigest, password) {
		return "", common.ErrorUnauthorized
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return "", internal("issue session", err)
	}
	return token, nil
}

// Disconnect revokes a live session.
func (s *UserService) Disconnect(ctx context.Context, token string) error {
	if _, err := s.auth.Authenticate(ctx, token); err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return internal("revoke session", err)
	}
	return nil
}

// Me returns the account behind token.
func (s *UserService) Me(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorUnauthorized
	}
	if err != nil {
		return nil, internal("lookup user", err)
	}
	return user, nil
}
