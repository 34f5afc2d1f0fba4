package notify

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-weather/internal/weather"
)

func TestCenter_RecentNewestFirst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCenter(time.Minute, slog.Default(), clock)

	c.Notify("Added London to your cities", weather.LevelSuccess)
	clock.Advance(time.Second)
	c.Notify("City not found in selected country", weather.LevelError)

	got := c.Recent()
	require.Len(t, got, 2)
	assert.Equal(t, "City not found in selected country", got[0].Message)
	assert.Equal(t, weather.LevelError, got[0].Level)
	assert.Equal(t, "Added London to your cities", got[1].Message)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestCenter_Expiry(t *testing.T) {
	c := NewCenter(20*time.Millisecond, slog.Default(), nil)
	c.Notify("Updated weather for Paris", weather.LevelInfo)
	require.Len(t, c.Recent(), 1)

	assert.Eventually(t, func() bool { return len(c.Recent()) == 0 }, time.Second, 10*time.Millisecond)
}

func TestCenter_Dismiss(t *testing.T) {
	c := NewCenter(time.Minute, slog.Default(), nil)
	c.Notify("Please enter a city", weather.LevelWarning)

	got := c.Recent()
	require.Len(t, got, 1)
	c.Dismiss(got[0].ID)
	assert.Empty(t, c.Recent())
}

func TestCenter_LogsAtMatchingLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	c := NewCenter(time.Minute, logger, nil)

	c.Notify("Updated weather for Rome", weather.LevelInfo)
	assert.Empty(t, buf.String())

	c.Notify("Failed to refresh city data", weather.LevelError)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "Failed to refresh city data")
}
