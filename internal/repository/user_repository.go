package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/spec-kit/support-console/internal/domain"
)

// Account is a user profile plus its credential.
type Account struct {
	User         domain.User
	PasswordHash string
}

// UserRepository defines access to login accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	mu      sync.RWMutex
	byID    map[string]*Account
	byEmail map[string]*Account
}

// NewUserRepository returns an in-memory implementation holding accounts.
// Emails are matched case-insensitively.
func NewUserRepository(accounts []Account) UserRepository {
	r := &userRepository{
		byID:    make(map[string]*Account, len(accounts)),
		byEmail: make(map[string]*Account, len(accounts)),
	}
	for i := range accounts {
		acc := accounts[i]
		r.byID[acc.User.ID] = &acc
		r.byEmail[strings.ToLower(acc.User.Email)] = &acc
	}
	return r
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := acc.User
	return &user, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r *userRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.byID))
	for _, acc := range r.byID {
		out = append(out, acc.User)
	}
	return out, nil
}
