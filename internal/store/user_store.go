package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/docstore"
	"github.com/nhle/novelstudio/internal/model"
)

// userMu serialises the check-then-create of CreateUser.
var userMu sync.Mutex

func setUser(u *model.User, d docstore.Document) { u.ID = d.ID }

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new account. Emails are unique.
func (s *DocStore) CreateUser(ctx context.Context, u model.User) (*model.User, error) {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return nil, common.Required("email")
	}
	if u.PasswordHash == "" {
		return nil, common.Required("password")
	}

	userMu.Lock()
	defer userMu.Unlock()

	if _, err := s.FindUserByEmail(ctx, u.Email); err == nil {
		return nil, fmt.Errorf("user %s: %w", u.Email, common.ErrAlreadyExists)
	} else if !common.IsNotFound(err) {
		return nil, err
	}

	id, err := s.ds.Create(ctx, usersPath(), map[string]any{
		fEmail:        u.Email,
		fPasswordHash: u.PasswordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser returns one account.
func (s *DocStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	d, err := s.ds.Get(ctx, usersPath().Doc(id))
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return decodeOne(d, setUser)
}

// FindUserByEmail scans the users collection for an address.
func (s *DocStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	docs, err := s.ds.List(ctx, usersPath(), docstore.OrderBy{})
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users, err := decodeAll(docs, setUser)
	if err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, common.ErrNotFound)
}
