package store

import (
	"context"

	"github.com/brizzai/discord-verify/internal/config"
	"go.uber.org/fx"
)

// Module provides the configured Store and closes it on shutdown
var Module = fx.Module("store",
	fx.Provide(NewFromConfig),
)

// NewFromConfig opens the backend named in cfg. A corrupt document fails
// the fx application before anything starts serving.
func NewFromConfig(lc fx.Lifecycle, cfg *config.Config) (Store, error) {
	s, err := New(context.Background(), cfg.Store)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})
	return s, nil
}
