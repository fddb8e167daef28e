package odoo

import (
	"github.com/openbanc/bankrecon/internal/config"
	orderdomain "github.com/openbanc/bankrecon/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideClient(cfg config.Config, log *zap.Logger) *Client {
	return NewClient(cfg.OdooURL, cfg.OdooDatabase, cfg.OdooUserID, cfg.OdooAPIKey, log)
}

var Module = fx.Module("odoo",
	fx.Provide(
		provideClient,
		func(c *Client) orderdomain.Query { return c },
		func(c *Client) orderdomain.Writer { return c },
	),
)
