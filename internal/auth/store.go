package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fjod/plantshop/internal/logging"
	"github.com/fjod/plantshop/internal/storage"
)

const (
	// UsersKey holds the credential table, shared by every session on the same storage.
	UsersKey = "bolt_users"
	// SessionKey holds the identity of the logged-in user.
	SessionKey = "bolt_logged_in_user"
)

var ErrClosed = errors.New("auth store is closed")

// Identity is the public part of a logged-in user.
type Identity struct {
	Username string `json:"username"`
}

// Listener is called with the session after it changes. authenticated is
// false after logout.
type Listener func(id Identity, authenticated bool)

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(l) }
}

func WithHasher(h Hasher) Option {
	return func(s *Store) { s.hasher = h }
}

// Store tracks who is logged in for one session and manages the credential
// table. The table is read from storage on every operation so that sessions
// sharing a backend see each other's registrations.
type Store struct {
	mu        sync.Mutex
	kv        storage.KV
	hasher    Hasher
	logger    *zap.Logger
	current   *Identity
	listeners []subscription
	nextID    int
	closed    bool
}

// New restores the persisted session from kv. A corrupt saved identity
// starts the session anonymous.
func New(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:     kv,
		hasher: PlainHasher{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	saved, ok, err := storage.GetJSON[Identity](ctx, kv, SessionKey)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		s.logger.Warn("discarding corrupt saved session", zap.Error(err))
	case err != nil:
		return nil, fmt.Errorf("failed to load session: %w", err)
	case ok && saved.Username != "":
		s.current = &saved
	}
	return s, nil
}

// Current returns the logged-in identity, if any.
func (s *Store) Current() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Identity{}, false
	}
	return *s.current, true
}

// Login checks the credentials and switches the session on success. A failed
// login leaves the session as it was and never says which field was wrong.
func (s *Store) Login(ctx context.Context, username, password string) (Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Result{}, ErrClosed
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	stored, known := users[username]
	if !known || !s.hasher.Matches(stored, password) {
		s.mu.Unlock()
		s.logger.Info("login rejected", zap.String("username", username))
		return failed(FailureInvalidCredentials), nil
	}

	return s.commitLocked(ctx, Identity{Username: username}, "login")
}

// Register validates the input, adds the user to the credential table and
// logs them in. Validation is reported before uniqueness.
func (s *Store) Register(ctx context.Context, username, password string) (Result, error) {
	if f := ValidateUsername(username); f != FailureNone {
		return failed(f), nil
	}
	if f := ValidatePassword(password); f != FailureNone {
		return failed(f), nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Result{}, ErrClosed
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	if _, taken := users[username]; taken {
		s.mu.Unlock()
		return failed(FailureUsernameTaken), nil
	}

	stored, err := s.hasher.Hash(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		s.mu.Unlock()
		return failed(FailurePasswordTooLong), nil
	}
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	users[username] = stored
	if err := storage.SetJSON(ctx, s.kv, UsersKey, users); err != nil {
		s.mu.Unlock()
		return Result{}, fmt.Errorf("failed to save credentials: %w", err)
	}
	s.logger.Info("user registered", zap.String("username", username))

	return s.commitLocked(ctx, Identity{Username: username}, "register")
}

// Logout ends the session. Logging out while anonymous does nothing.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.current == nil {
		s.mu.Unlock()
		return nil
	}

	previous := s.current.Username
	s.current = nil
	errPersist := s.kv.Delete(ctx, SessionKey)
	if errors.Is(errPersist, storage.ErrNotFound) {
		errPersist = nil
	}
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.logger.Info("user logged out", zap.String("username", previous))
	if errPersist != nil {
		s.logger.Error("failed to clear saved session", zap.Error(errPersist))
		errPersist = fmt.Errorf("failed to clear session: %w", errPersist)
	}
	for _, l := range listeners {
		l(Identity{}, false)
	}
	return errPersist
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: l})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool { return sub.id == id })
	}
}

// Close forgets listeners and rejects further operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.listeners = nil
	return nil
}

// commitLocked switches the session to id and releases s.mu. As with the
// cart, the session change stands even when saving it fails.
func (s *Store) commitLocked(ctx context.Context, id Identity, op string) (Result, error) {
	s.current = &id
	errPersist := storage.SetJSON(ctx, s.kv, SessionKey, id)
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.logger.Info("session started", zap.String("op", op), zap.String("username", id.Username))
	if errPersist != nil {
		s.logger.Error("failed to persist session", zap.Error(errPersist))
		errPersist = fmt.Errorf("failed to persist session: %w", errPersist)
	}
	for _, l := range listeners {
		l(id, true)
	}
	return succeeded(id), errPersist
}

// loadUsers reads the credential table. A corrupt table is an error and is
// never written back, so registered accounts cannot be lost or reclaimed.
func (s *Store) loadUsers(ctx context.Context) (map[string]string, error) {
	users, ok, err := storage.GetJSON[map[string]string](ctx, s.kv, UsersKey)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		s.logger.Error("credential table is corrupt", zap.Error(err))
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	case err != nil:
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	case !ok || users == nil:
		return make(map[string]string), nil
	}
	return users, nil
}

type subscription struct {
	id int
	fn Listener
}

// snapshotListeners returns the listeners in subscription order.
func (s *Store) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, sub := range s.listeners {
		out = append(out, sub.fn)
	}
	return out
}
