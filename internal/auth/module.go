package auth

import (
	"github.com/brizzai/discord-verify/internal/auth/providers"
	"github.com/brizzai/discord-verify/internal/config"
	"go.uber.org/fx"
)

// Module provides the Discord provider and the OAuth service
var Module = fx.Module("auth",
	fx.Provide(
		fx.Annotate(
			func(cfg *config.Config) *providers.DiscordProvider {
				return providers.NewDiscordProvider(&cfg.Discord)
			},
			fx.As(new(providers.Provider)),
		),
		NewService,
	),
)
