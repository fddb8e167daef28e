package match

import (
	"github.com/openbanc/bankrecon/internal/config"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideMatcher(cfg config.Config, log *zap.Logger) *Matcher {
	tolerance, err := decimal.NewFromString(cfg.AmountTolerance)
	if err != nil || tolerance.LessThanOrEqual(decimal.Zero) {
		log.Warn("invalid amount tolerance, using 1.0",
			zap.String("amount_tolerance", cfg.AmountTolerance),
		)
		tolerance = decimal.NewFromInt(1)
	}
	return New(tolerance)
}

var Module = fx.Module("match",
	fx.Provide(provideMatcher),
)
