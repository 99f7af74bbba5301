package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/logging"
	"github.com/nhle/novelstudio/internal/model"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// ErrInvalidCredentials is returned by Login for an unknown email or a
// wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Users is the account storage the service needs.
type Users interface {
	CreateUser(ctx context.Context, u model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Session is the result of a successful register or login.
type Session struct {
	User      model.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// Service issues and verifies session tokens.
type Service struct {
	users  Users
	secret []byte
	ttl    time.Duration
	log    *logging.Logger
	now    func() time.Time
}

// NewService creates a Service signing tokens with secret.
func NewService(users Users, secret string, ttl time.Duration, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		log:    log.With("component", "auth"),
		now:    time.Now,
	}
}

// Register creates an account and returns a session for it.
func (s *Service) Register(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" {
		return nil, common.Required("email")
	}
	if len(password) < MinPasswordLength {
		return nil, &common.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	u, err := s.users.CreateUser(ctx, model.User{Email: email, PasswordHash: string(hash)})
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", "user_id", u.ID)
	return s.issue(*u)
}

// Login checks credentials and returns a new session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindUserByEmail(ctx, email)
	if common.IsNotFound(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("login rejected", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}
	return s.issue(*u)
}

// Verify returns the user id carried by a valid token.
func (s *Service) Verify(token string) (string, error) {
	return UserIDFromToken(token, s.secret)
}

func (s *Service) issue(u model.User) (*Session, error) {
	now := s.now()
	token, err := GenerateToken(u.ID, s.secret, s.ttl, now)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return &Session{User: u, Token: token, ExpiresAt: now.Add(s.ttl)}, nil
}
