package action

import (
	"go.uber.org/fx"

	"github.com/openbanc/bankrecon/internal/action/service"
)

var Module = fx.Module("action",
	fx.Provide(service.New),
)
