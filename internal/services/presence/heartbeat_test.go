package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rasync/internal/dependencies/mocks"
	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/testutil"
)

type staticCreds struct {
	auth *model.UserAuth
}

func (c staticCreds) Get(context.Context) (*model.UserAuth, error) {
	return c.auth, nil
}

type HeartbeatSuite struct {
	suite.Suite
	api       *mocks.MockAPI
	heartbeat *Heartbeat
}

func TestHeartbeatSuite(t *testing.T) {
	suite.Run(t, new(HeartbeatSuite))
}

func (s *HeartbeatSuite) SetupTest() {
	s.api = mocks.NewMockAPI()
	creds := staticCreds{auth: &model.UserAuth{Username: "alice", Token: "tok"}}
	s.heartbeat = New(s.api, creds, testutil.NopLogger(), Config{Interval: 5 * time.Millisecond})
}

func (s *HeartbeatSuite) TearDownTest() {
	s.heartbeat.Stop()
}

func (s *HeartbeatSuite) TestStartPostsSessionAndPings() {
	s.heartbeat.Start(context.Background(), 10)

	s.Eventually(func() bool { return len(s.api.StartSessionCalls()) == 1 }, time.Second, time.Millisecond)
	s.Eventually(func() bool { return len(s.api.PingCalls()) >= 2 }, time.Second, time.Millisecond)
	s.Equal(model.GameID(10), s.api.PingCalls()[0])

	id, active := s.heartbeat.Active()
	s.True(active)
	s.Equal(model.GameID(10), id)
}

func (s *HeartbeatSuite) TestStopHaltsPings() {
	s.heartbeat.Start(context.Background(), 10)
	s.Eventually(func() bool { return len(s.api.PingCalls()) >= 1 }, time.Second, time.Millisecond)

	s.heartbeat.Stop()
	pings := len(s.api.PingCalls())
	time.Sleep(20 * time.Millisecond)

	s.Equal(pings, len(s.api.PingCalls()))
	_, active := s.heartbeat.Active()
	s.False(active)
}

func (s *HeartbeatSuite) TestRestartSwitchesGame() {
	s.heartbeat.Start(context.Background(), 10)
	s.heartbeat.Start(context.Background(), 11)

	s.Eventually(func() bool {
		calls := s.api.StartSessionCalls()
		return len(calls) >= 1 && calls[len(calls)-1] == 11
	}, time.Second, time.Millisecond)
	id, _ := s.heartbeat.Active()
	s.Equal(model.GameID(11), id)
}

func (s *HeartbeatSuite) TestSurvivesCallerCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	s.heartbeat.Start(ctx, 10)
	cancel()

	s.Eventually(func() bool { return len(s.api.PingCalls()) >= 1 }, time.Second, time.Millisecond)
}

func (s *HeartbeatSuite) TestLoggedOutSkipsCalls() {
	heartbeat := New(s.api, staticCreds{}, testutil.NopLogger(), Config{Interval: time.Millisecond})
	heartbeat.Start(context.Background(), 10)
	time.Sleep(10 * time.Millisecond)
	heartbeat.Stop()

	s.Empty(s.api.StartSessionCalls())
	s.Empty(s.api.PingCalls())
}

func (s *HeartbeatSuite) TestStopWithoutStartIsNoop() {
	s.NotPanics(func() { s.heartbeat.Stop() })
}
