package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ecopoints/internal/common"
	"github.com/dmitrijs2005/ecopoints/internal/cryptox"
	"github.com/dmitrijs2005/ecopoints/internal/logging"
	"github.com/dmitrijs2005/ecopoints/internal/server/metrics"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/repomanager"
)

// maxPasswordBytes is the longest password bcrypt hashes without truncation.
const maxPasswordBytes = 72

// Registration carries the fields required to open an account.
type Registration struct {
	Phone     string
	FirstName string
	LastName  string
	Username  string
	Password  string
	Email     string
}

func (r *Registration) normalize() {
	r.Phone = strings.TrimSpace(r.Phone)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *Registration) valid() bool {
	for _, v := range []string{r.Phone, r.FirstName, r.LastName, r.Username, r.Password, r.Email} {
		if v == "" {
			return false
		}
	}
	return len(r.Password) <= maxPasswordBytes
}

// UserService handles account registration and login and hands out
// sessions through the SessionManager.
type UserService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	sessions     *SessionManager
	storeTimeout time.Duration
	log          logging.Logger
}

// NewUserService constructs a UserService. db may be nil for in-memory stores.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionManager, storeTimeout time.Duration, log logging.Logger) *UserService {
	return &UserService{
		db:           db,
		repomanager:  m,
		sessions:     sessions,
		storeTimeout: storeTimeout,
		log:          log.With("module", "users"),
	}
}

// Register creates an account and signs it in. A phone or username that is
// already taken yields common.ErrDuplicateUser.
func (s *UserService) Register(ctx context.Context, reg Registration) (*models.Session, error) {
	reg.normalize()
	if !reg.valid() {
		return nil, common.ErrInvalidInput
	}

	member, err := s.createAccount(ctx, reg)
	metrics.RecordLogin("register", err == nil)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUser) {
			s.log.Info(ctx, "registration rejected, phone or username taken", "username", reg.Username)
		} else {
			s.log.Error(ctx, "registration failed", "op", "register", "username", reg.Username, "error", err)
		}
		return nil, err
	}

	s.log.Info(ctx, "member registered", "member_id", member.ID, "username", member.Username)
	return s.sessions.Issue(ctx, models.MemberRef{ID: member.ID, Username: member.Username})
}

func (s *UserService) createAccount(ctx context.Context, reg Registration) (*models.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	repo := s.repomanager.Members(s.db)

	_, err := repo.FindByPhoneOrUsername(ctx, reg.Phone, reg.Username)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateUser
	case !errors.Is(err, common.ErrorNotFound):
		return nil, storeError(err)
	}

	hash, err := cryptox.HashPassword([]byte(reg.Password))
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	m, err := repo.CreateRegistered(ctx, &models.Member{
		Phone:        reg.Phone,
		Username:     reg.Username,
		PasswordHash: hash,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Email:        reg.Email,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateKey) {
			return nil, common.ErrDuplicateUser
		}
		return nil, storeError(err)
	}
	return m, nil
}

// Login verifies username and password and issues a fresh session.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, common.ErrInvalidInput
	}

	member, err := s.authenticate(ctx, username, password)
	metrics.RecordLogin("login", err == nil)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound), errors.Is(err, common.ErrInvalidCredentials):
			s.log.Info(ctx, "login rejected", "username", username, "reason", err.Error())
		default:
			s.log.Error(ctx, "login failed", "op", "login", "username", username, "error", err)
		}
		return nil, err
	}

	return s.sessions.Issue(ctx, models.MemberRef{ID: member.ID, Username: member.Username})
}

func (s *UserService) authenticate(ctx context.Context, username, password string) (*models.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	m, err := s.repomanager.Members(s.db).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, storeError(err)
	}
	if !m.Registered() {
		return nil, common.ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(m.PasswordHash, []byte(password)); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: verify password: %v", common.ErrorInternal, err)
	}
	return m, nil
}

// Logout destroys the session.
func (s *UserService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Destroy(ctx, sessionID)
}
