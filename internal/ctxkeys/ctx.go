package ctxkeys

import (
	"context"

	"github.com/hubmatrix/cloudtree/internal/config"
	"github.com/hubmatrix/cloudtree/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	SessionKey contextKey = "session"
	ConfigKey  contextKey = "config"
)

// Session returns the per-request identity state, or nil when the identity
// middleware did not run.
func Session(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(SessionKey).(*model.Session)
	return sess
}

func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}
