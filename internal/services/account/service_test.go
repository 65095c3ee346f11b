package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rasync/internal/dependencies/mocks"
	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/notify"
	"github.com/mcoot/rasync/internal/services/credentials"
	"github.com/mcoot/rasync/internal/storage/memory"
	"github.com/mcoot/rasync/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	api           *mocks.MockAPI
	creds         *credentials.Store
	service       *Service
	notifications []model.Notification
	ctx           context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.api = mocks.NewMockAPI()
	s.ctx = context.Background()
	s.notifications = nil

	creds, err := credentials.New(memory.New(), credentials.Config{}, testutil.NopLogger())
	s.Require().NoError(err)
	s.creds = creds

	record := notify.Func(func(n model.Notification) { s.notifications = append(s.notifications, n) })
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.api, s.creds, record, clk, testutil.NopLogger())
}

func (s *ServiceSuite) TestInitialStateIsLoggedOut() {
	s.Equal(model.LoggedOut(), s.service.State(s.ctx))
}

func (s *ServiceSuite) TestLoginStoresToken() {
	state, err := s.service.Login(s.ctx, "alice", "hunter2")

	s.Require().NoError(err)
	s.Equal(model.LoggedIn("alice"), state)
	s.Equal(model.LoggedIn("alice"), s.service.State(s.ctx))

	auth, err := s.creds.Get(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(auth)
	s.Equal("token-alice", auth.Token)
}

func (s *ServiceSuite) TestLoginNotifiesAndRunsHooks() {
	hookCalls := 0
	s.service.OnLogin(func(context.Context) { hookCalls++ })

	_, err := s.service.Login(s.ctx, "alice", "hunter2")

	s.Require().NoError(err)
	s.Equal(1, hookCalls)
	s.Require().Len(s.notifications, 1)
	s.Equal(model.NotificationAccountChanged, s.notifications[0].Type)
	s.Equal("alice", s.notifications[0].Account.AccountName)
}

func (s *ServiceSuite) TestLoginRequiresCredentials() {
	_, err := s.service.Login(s.ctx, "  ", "hunter2")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.service.Login(s.ctx, "alice", "")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestFailedLoginKeepsState() {
	_, _ = s.service.Login(s.ctx, "alice", "hunter2")
	s.api.LoginFunc = func(string, string) (model.UserAuth, error) {
		return model.UserAuth{}, model.ErrAuthRejected
	}

	_, err := s.service.Login(s.ctx, "bob", "wrong")

	s.True(errors.Is(err, model.ErrAuthRejected))
	s.Equal(model.LoggedIn("alice"), s.service.State(s.ctx))
}

func (s *ServiceSuite) TestLogout() {
	_, _ = s.service.Login(s.ctx, "alice", "hunter2")

	s.Require().NoError(s.service.Logout(s.ctx))

	s.Equal(model.LoggedOut(), s.service.State(s.ctx))
	s.Equal(model.AccountLoggedOut, s.notifications[len(s.notifications)-1].Account.Status)
}

func (s *ServiceSuite) TestAuthRejectedLogsOut() {
	_, _ = s.service.Login(s.ctx, "alice", "hunter2")

	s.service.AuthRejected(s.ctx)

	s.Equal(model.LoggedOut(), s.service.State(s.ctx))
}
