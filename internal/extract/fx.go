package extract

import (
	"github.com/openbanc/bankrecon/internal/config"
	"go.uber.org/fx"
)

func provideFallback(cfg config.Config) Fallback {
	if cfg.FallbackExtractorURL == "" {
		return NoOpFallback{}
	}
	return NewHTTPFallback(cfg.FallbackExtractorURL)
}

var Module = fx.Module("extract",
	fx.Provide(New),
	fx.Provide(provideFallback),
)
