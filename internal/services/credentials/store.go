package credentials

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/storage"
)

// Config holds configuration for the credential store
type Config struct {
	// Secret, when set, seals tokens before they reach storage
	Secret string
}

// Store holds the current user's identity/token pair on top of durable
// storage. Writes are serialized; the pair is persisted as one record so a
// concurrent Get sees either the old or the new value.
type Store struct {
	storage storage.Storage
	sealer  *sealer
	logger  *slog.Logger

	mu sync.Mutex
}

// New creates a new credential Store
func New(storage storage.Storage, cfg Config, logger *slog.Logger) (*Store, error) {
	sealer, err := newSealer(cfg.Secret)
	if err != nil {
		return nil, err
	}
	return &Store{
		storage: storage,
		sealer:  sealer,
		logger:  logger.With(slog.String("component", "credentials")),
	}, nil
}

// Get returns the stored credentials, or nil when nobody is logged in
func (s *Store) Get(ctx context.Context) (*model.UserAuth, error) {
	stored, err := s.storage.GetUserAuth(ctx)
	if err != nil {
		if errors.Is(err, model.ErrUserAuthNotFound) {
			return nil, nil
		}
		return nil, err
	}

	token, err := s.sealer.open(stored.Token)
	if err != nil {
		// A token we cannot read is as good as no login
		s.logger.Warn("discarding unreadable credentials",
			slog.String("username", stored.Username),
			slog.String("error", err.Error()))
		return nil, nil
	}
	return &model.UserAuth{Username: stored.Username, Token: token}, nil
}

// Put replaces the stored credentials
func (s *Store) Put(ctx context.Context, auth model.UserAuth) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.sealer.seal(auth.Token)
	if err != nil {
		return err
	}
	return s.storage.SaveUserAuth(ctx, &model.UserAuth{Username: auth.Username, Token: token})
}

// Clear forgets the stored credentials
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.DeleteUserAuth(ctx)
}
