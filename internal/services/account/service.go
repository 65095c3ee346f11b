package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/rasync/internal/dependencies/clock"
	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/notify"
	"github.com/mcoot/rasync/internal/raapi"
)

// ErrInvalidCredentials is returned when a login is attempted without a
// username or password
var ErrInvalidCredentials = errors.New("username and password are required")

// CredentialStore persists the logged in user's auth
type CredentialStore interface {
	Get(ctx context.Context) (*model.UserAuth, error)
	Put(ctx context.Context, auth model.UserAuth) error
	Clear(ctx context.Context) error
}

// Service handles login and logout against the achievements service
type Service struct {
	api      raapi.Client
	creds    CredentialStore
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	onLogin []func(ctx context.Context)
}

// New creates a new account Service
func New(api raapi.Client, creds CredentialStore, notifier notify.Notifier, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		api:      api,
		creds:    creds,
		notifier: notifier,
		clock:    clock,
		logger:   logger.With(slog.String("component", "account")),
	}
}

// OnLogin registers a hook run after every successful login
func (s *Service) OnLogin(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogin = append(s.onLogin, fn)
}

// Login exchanges a password for a token and stores the resulting auth.
// The password itself is never persisted.
func (s *Service) Login(ctx context.Context, username, password string) (model.AccountState, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.AccountState{}, ErrInvalidCredentials
	}

	auth, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.logger.Warn("login failed",
			slog.String("username", username),
			slog.String("error", err.Error()))
		return model.AccountState{}, err
	}

	if err := s.creds.Put(ctx, auth); err != nil {
		return model.AccountState{}, fmt.Errorf("storing credentials: %w", err)
	}

	s.logger.Info("logged in", slog.String("username", auth.Username))

	state := model.LoggedIn(auth.Username)
	s.changed(state)

	s.mu.Lock()
	hooks := append([]func(context.Context){}, s.onLogin...)
	s.mu.Unlock()
	for _, hook := range hooks {
		hook(ctx)
	}

	return state, nil
}

// Logout forgets the stored credentials
func (s *Service) Logout(ctx context.Context) error {
	if err := s.creds.Clear(ctx); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	s.logger.Info("logged out")
	s.changed(model.LoggedOut())
	return nil
}

// State reports the current account state. It is Unknown only when the
// credential store cannot be read.
func (s *Service) State(ctx context.Context) model.AccountState {
	auth, err := s.creds.Get(ctx)
	if err != nil {
		s.logger.Error("failed to read credentials", slog.String("error", err.Error()))
		return model.AccountState{Status: model.AccountUnknown}
	}
	if auth == nil {
		return model.LoggedOut()
	}
	return model.LoggedIn(auth.Username)
}

// AuthRejected handles the server refusing the stored token. The user has
// to log in again.
func (s *Service) AuthRejected(ctx context.Context) {
	s.logger.Warn("stored credentials rejected by server, logging out")
	if err := s.Logout(ctx); err != nil {
		s.logger.Error("failed to clear rejected credentials", slog.String("error", err.Error()))
	}
}

func (s *Service) changed(state model.AccountState) {
	s.notifier.Notify(model.Notification{
		Type:      model.NotificationAccountChanged,
		Timestamp: s.clock.Now(),
		Account:   &state,
	})
}
