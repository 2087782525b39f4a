package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/matheuskafuri/newsdesk/internal/kv"
)

var errIncompleteUser = errors.New("stored user is missing id or email")

// Option mutates Store configuration.
type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCredentials replaces the canonical credential record.
func WithCredentials(c Credentials) Option {
	return func(s *Store) {
		s.creds = c
	}
}

// Store is the session state machine. It starts in StatusUnknown; call
// CheckAuth once at startup.
type Store struct {
	kv     kv.Store
	creds  Credentials
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

func NewStore(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:     store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.creds.hash) == 0 {
		s.creds = DefaultCredentials()
	}
	return s
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// snapshot copies the state so callers cannot mutate the held user.
// Callers hold s.mu.
func (s *Store) snapshot() State {
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.state.Loading = loading
	s.mu.Unlock()
}

func (s *Store) transition(status Status, user *User) {
	s.mu.Lock()
	s.state.Status = status
	s.state.User = user
	s.mu.Unlock()
}

// CheckAuth restores the session from storage. It never fails: anything
// short of both keys present and consistent yields StatusUnauthenticated.
// The returned State is settled, with Loading false.
func (s *Store) CheckAuth(ctx context.Context) State {
	s.setLoading(true)

	user, err := s.restore(ctx)
	if err != nil {
		s.logger.Error("checking auth", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.state.Status = StatusUnauthenticated
	} else {
		s.state.Status = StatusAuthenticated
	}
	s.state.User = user
	s.state.Loading = false
	return s.snapshot()
}

func (s *Store) restore(ctx context.Context) (*User, error) {
	data, hasUser, err := s.kv.Get(ctx, UserKey)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", UserKey, err)
	}
	flag, hasFlag, err := s.kv.Get(ctx, AuthenticatedKey)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", AuthenticatedKey, err)
	}
	if !hasUser || data == "" || !hasFlag || flag != "true" {
		return nil, nil
	}
	var user User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("decoding stored user: %w", err)
	}
	if user.ID == "" || user.Email == "" {
		return nil, errIncompleteUser
	}
	return &user, nil
}

// Login checks email and password against the canonical credentials and
// persists the session on success.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if !s.creds.Match(email, password) {
		s.transition(StatusUnauthenticated, nil)
		return ErrInvalidCredentials
	}

	user := s.creds.User()
	if err := s.persist(ctx, user); err != nil {
		s.transition(StatusUnauthenticated, nil)
		return fmt.Errorf("saving session: %w", err)
	}
	s.transition(StatusAuthenticated, &user)
	s.logger.Info("logged in", "user_id", user.ID)
	return nil
}

func (s *Store) persist(ctx context.Context, user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.kv.Set(ctx, UserKey, string(data)); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, AuthenticatedKey, "true"); err != nil {
		if rmErr := s.kv.Remove(ctx, UserKey); rmErr != nil {
			s.logger.Warn("rolling back partial session", "error", rmErr)
		}
		return err
	}
	return nil
}

// Logout clears the persisted session and always ends unauthenticated.
// Storage errors are logged, not returned.
func (s *Store) Logout(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	err := errors.Join(
		s.kv.Remove(ctx, UserKey),
		s.kv.Remove(ctx, AuthenticatedKey),
	)
	if err != nil {
		s.logger.Error("logging out", "error", err)
	}
	s.transition(StatusUnauthenticated, nil)
}

// UpdateProfile sets the display name of the logged-in user.
func (s *Store) UpdateProfile(ctx context.Context, name string) error {
	s.mu.Lock()
	if s.state.Status != StatusAuthenticated || s.state.User == nil {
		s.mu.Unlock()
		return ErrNoUser
	}
	updated := *s.state.User
	s.state.Loading = true
	s.mu.Unlock()
	defer s.setLoading(false)

	updated.Name = strings.TrimSpace(name)
	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.kv.Set(ctx, UserKey, string(data)); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	s.mu.Lock()
	if s.state.Status == StatusAuthenticated {
		s.state.User = &updated
	}
	s.mu.Unlock()
	return nil
}
