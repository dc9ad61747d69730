package jsonfile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"taskpanel/internal/domain"
	"taskpanel/internal/store"
)

// UserStore is the file-backed implementation of store.UserStore. The
// persisted document maps username to account record; the username
// lives in the key, not the record.
type UserStore struct {
	mu     sync.RWMutex
	users  map[string]*domain.User
	path   string
	logger *slog.Logger
}

var _ store.UserStore = (*UserStore)(nil)

// SeedAccount is a bootstrap account written to a fresh user registry.
// Passwords arrive pre-hashed; this package never sees plaintext.
type SeedAccount struct {
	Username       string
	HashedPassword string
	Role           domain.Role
}

// OpenUserStore loads the user registry from path. When the file does
// not exist the store is seeded with the given bootstrap accounts and
// written out immediately. A file that exists but cannot be decoded
// aborts startup with store.ErrCorruptState.
func OpenUserStore(path string, seeds []SeedAccount, logger *slog.Logger) (*UserStore, error) {
	logger = logger.With("component", "user_store")

	users := make(map[string]*domain.User)
	found, err := loadFile(path, &users)
	if err != nil {
		if found {
			return nil, fmt.Errorf("%w: %v", store.ErrCorruptState, err)
		}
		return nil, err
	}

	s := &UserStore{
		users:  users,
		path:   path,
		logger: logger,
	}

	if !found {
		for _, seed := range seeds {
			user, err := domain.NewUser(seed.Username, seed.HashedPassword, seed.Role)
			if err != nil {
				return nil, fmt.Errorf("seed account %q: %w", seed.Username, err)
			}
			users[seed.Username] = user
		}
		if err := s.save(); err != nil {
			return nil, err
		}
		logger.Info("user registry seeded", "path", path, "accounts", len(seeds))
	} else {
		// The username is the document key; restore it on each record.
		for username, user := range users {
			user.Username = username
		}
		logger.Info("user registry loaded", "path", path, "users", len(users))
	}

	return s, nil
}

// save persists the whole registry. Callers must hold the write lock.
func (s *UserStore) save() error {
	if err := writeFileAtomic(s.path, s.users); err != nil {
		s.logger.Error("failed to persist user registry", "error", err, "path", s.path)
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	return nil
}

// Get retrieves a user by username.
func (s *UserStore) Get(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user.Clone(), nil
}

// List returns every registered user.
func (s *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user.Clone())
	}
	return users, nil
}

// Create saves a new user and persists the registry.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Username]; ok {
		return store.ErrUsernameExists
	}

	s.users[user.Username] = user.Clone()
	return s.save()
}

// RecordLogin stamps the user's lastLogin with the current time.
func (s *UserStore) RecordLogin(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return store.ErrUserNotFound
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	return s.save()
}

// AddTask appends a task ID to the user's owned-task set.
func (s *UserStore) AddTask(ctx context.Context, username, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return store.ErrUserNotFound
	}

	user.TaskIDs = append(user.TaskIDs, taskID)
	return s.save()
}

// RemoveTask removes a task ID from the user's owned-task set.
func (s *UserStore) RemoveTask(ctx context.Context, username, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return store.ErrUserNotFound
	}

	for i, id := range user.TaskIDs {
		if id == taskID {
			user.TaskIDs = append(user.TaskIDs[:i], user.TaskIDs[i+1:]...)
			break
		}
	}
	return s.save()
}

// Delete removes a user and persists the registry. Owned tasks stay in
// the task registry; see store.UserStore for the orphaning policy.
func (s *UserStore) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return store.ErrUserNotFound
	}

	delete(s.users, username)
	return s.save()
}

// Flush forces a durable write of the registry.
func (s *UserStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}
