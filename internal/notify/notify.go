// Package notify is the single notification channel pages publish to. Notices
// are queued per visitor and drained by the next rendered page.
package notify

import (
	"context"
	"time"

	"github.com/industrieimport/storefront/middleware"
	"github.com/rs/zerolog"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// maxPending caps how many notices a visitor can accumulate between pages.
const maxPending = 20

type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Store interface {
	Push(ctx context.Context, key string, n Notice) error
	Drain(ctx context.Context, key string) ([]Notice, error)
}

type Center struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewCenter(store Store, log zerolog.Logger) *Center {
	return &Center{store: store, log: log, now: time.Now}
}

// Publish queues a notice for key. Store failures are logged and swallowed.
func (c *Center) Publish(ctx context.Context, key string, level Level, msg string) {
	if c == nil || key == "" || msg == "" {
		return
	}
	n := Notice{Level: level, Message: msg, At: c.now().UTC()}
	if err := c.store.Push(ctx, key, n); err != nil {
		c.log.Warn().Err(err).Str("visitor_id", key).Str("level", string(level)).Msg("notice dropped")
	}
}

// Success, Info, Warning and Error publish to the visitor carried by ctx.
func (c *Center) Success(ctx context.Context, msg string) {
	c.Publish(ctx, middleware.GetVisitorID(ctx), LevelSuccess, msg)
}

func (c *Center) Info(ctx context.Context, msg string) {
	c.Publish(ctx, middleware.GetVisitorID(ctx), LevelInfo, msg)
}

func (c *Center) Warning(ctx context.Context, msg string) {
	c.Publish(ctx, middleware.GetVisitorID(ctx), LevelWarning, msg)
}

func (c *Center) Error(ctx context.Context, msg string) {
	c.Publish(ctx, middleware.GetVisitorID(ctx), LevelError, msg)
}

// Drain returns and clears everything pending for key.
func (c *Center) Drain(ctx context.Context, key string) []Notice {
	if c == nil || key == "" {
		return nil
	}
	out, err := c.store.Drain(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("visitor_id", key).Msg("notice drain failed")
		return nil
	}
	return out
}
