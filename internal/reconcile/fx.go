package reconcile

import (
	"go.uber.org/fx"

	"github.com/openbanc/bankrecon/internal/reconcile/service"
)

var Module = fx.Module("reconcile",
	fx.Provide(service.New),
)
