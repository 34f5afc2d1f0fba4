// Package notify keeps the short-lived user notifications produced by city
// operations. Entries expire after a TTL the way a toast disappears.
package notify

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/patrickmn/go-cache"

	"github.com/i474232898/city-weather/internal/weather"
)

// Notification is one user-facing message.
type Notification struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Level     weather.Level `json:"level"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Center logs notifications and keeps recent ones for the API.
type Center struct {
	cache  *cache.Cache
	logger *slog.Logger
	clock  clockwork.Clock
}

// NewCenter creates a Center whose entries live for ttl.
func NewCenter(ttl time.Duration, logger *slog.Logger, clock clockwork.Clock) *Center {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Center{
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
		clock:  clock,
	}
}

// Notify implements weather.Notifier.
func (c *Center) Notify(message string, level weather.Level) {
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Level:     level,
		CreatedAt: c.clock.Now().UTC(),
	}
	c.cache.Set(n.ID, n, cache.DefaultExpiration)

	c.logger.Log(context.Background(), slogLevel(level), "notification", "level", string(level), "message", message)
}

// Recent returns unexpired notifications, newest first.
func (c *Center) Recent() []Notification {
	items := c.cache.Items()
	out := make([]Notification, 0, len(items))
	for _, it := range items {
		if n, ok := it.Object.(Notification); ok {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Dismiss drops a notification before it expires.
func (c *Center) Dismiss(id string) {
	c.cache.Delete(id)
}

func slogLevel(l weather.Level) slog.Level {
	switch l {
	case weather.LevelError:
		return slog.LevelError
	case weather.LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
