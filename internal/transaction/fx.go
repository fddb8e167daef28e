package transaction

import (
	"github.com/openbanc/bankrecon/internal/transaction/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("transaction",
	fx.Provide(repository.Provide),
)
