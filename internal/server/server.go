package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	actiondomain "github.com/openbanc/bankrecon/internal/action/domain"
	"github.com/openbanc/bankrecon/internal/config"
	"github.com/openbanc/bankrecon/internal/metrics"
	reconciledomain "github.com/openbanc/bankrecon/internal/reconcile/domain"
	"github.com/openbanc/bankrecon/internal/tasks"
	txdomain "github.com/openbanc/bankrecon/internal/transaction/domain"
)

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	runner       *tasks.Runner
	reconcileSvc reconciledomain.Service
	actionSvc    actiondomain.Service
	txRepo       txdomain.Repository
	metrics      *metrics.Metrics
}

type Params struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	Runner       *tasks.Runner
	ReconcileSvc reconciledomain.Service
	ActionSvc    actiondomain.Service
	TxRepo       txdomain.Repository
	Metrics      *metrics.Metrics
}

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())
	return r
}

func NewServer(p Params) *Server {
	s := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("server"),
		runner:       p.Runner,
		reconcileSvc: p.ReconcileSvc,
		actionSvc:    p.ActionSvc,
		txRepo:       p.TxRepo,
		metrics:      p.Metrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}),
	))

	api := s.engine.Group("/api")
	api.POST("/webhooks/bank", s.handleBankWebhook)
	api.POST("/slack/actions", s.handleSlackAction)
	api.GET("/transactions", s.listTransactions)
	api.GET("/transactions/:id", s.getTransaction)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.ListenAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)
