package main

import (
	"go.uber.org/fx"

	"github.com/openbanc/bankrecon/internal/action"
	"github.com/openbanc/bankrecon/internal/config"
	"github.com/openbanc/bankrecon/internal/extract"
	"github.com/openbanc/bankrecon/internal/logger"
	"github.com/openbanc/bankrecon/internal/match"
	"github.com/openbanc/bankrecon/internal/metrics"
	"github.com/openbanc/bankrecon/internal/migration"
	"github.com/openbanc/bankrecon/internal/notify"
	"github.com/openbanc/bankrecon/internal/odoo"
	"github.com/openbanc/bankrecon/internal/reconcile"
	"github.com/openbanc/bankrecon/internal/server"
	"github.com/openbanc/bankrecon/internal/tasks"
	"github.com/openbanc/bankrecon/internal/transaction"
	"github.com/openbanc/bankrecon/pkg/db"
	"github.com/openbanc/bankrecon/pkg/id"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		id.Module,
		db.Module,
		migration.Module,
		metrics.Module,
		tasks.Module,

		extract.Module,
		match.Module,
		odoo.Module,
		notify.Module,
		transaction.Module,
		reconcile.Module,
		action.Module,

		server.Module,
	)
	app.Run()
}
