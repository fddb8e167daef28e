package notify

import (
	"github.com/openbanc/bankrecon/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideNotifier(cfg config.Config, log *zap.Logger) Notifier {
	return NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel, log)
}

var Module = fx.Module("notify",
	fx.Provide(provideNotifier),
)
