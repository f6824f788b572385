package bot

import (
	"github.com/brizzai/discord-verify/internal/auth"
	"github.com/brizzai/discord-verify/internal/config"
	"github.com/brizzai/discord-verify/internal/logger"
	"github.com/brizzai/discord-verify/internal/store"
	"go.uber.org/fx"
)

// Module starts the bot alongside the callback server when bot.enabled is set
var Module = fx.Module("bot",
	fx.Provide(func(cfg *config.Config, st store.Store, svc *auth.Service) (*Bot, error) {
		return New(cfg, st, svc)
	}),
	fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, b *Bot) {
		if !cfg.Bot.Enabled {
			logger.Info("Discord bot disabled")
			lc.Append(fx.Hook{OnStop: b.Stop})
			return
		}
		lc.Append(fx.Hook{
			OnStart: b.Start,
			OnStop:  b.Stop,
		})
	}),
)
