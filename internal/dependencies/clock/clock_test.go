package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/rasync/internal/dependencies/clock"
	"github.com/mcoot/rasync/internal/dependencies/mocks"
)

func TestSince(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := mocks.NewMockClock(now)

	assert.Equal(t, time.Hour, clock.Since(clk, now.Add(-time.Hour)))

	clk.Advance(30 * time.Minute)
	assert.Equal(t, 90*time.Minute, clock.Since(clk, now.Add(-time.Hour)))
}

func TestSinceZeroIsOlderThanAnyWindow(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	assert.Greater(t, clock.Since(clk, time.Time{}), 100*365*24*time.Hour)
}
