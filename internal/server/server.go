package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
	"github.com/kelplabs/pricebook/internal/config"
	costdomain "github.com/kelplabs/pricebook/internal/costmodel/domain"
	kitdomain "github.com/kelplabs/pricebook/internal/kit/domain"
	"github.com/kelplabs/pricebook/internal/observability/logger"
	"github.com/kelplabs/pricebook/internal/observability/metrics"
	pricingdomain "github.com/kelplabs/pricebook/internal/pricing/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     config.Config
	AnalyteSvc analytedomain.Service
	CostSvc    costdomain.Service
	KitSvc     kitdomain.Service
	PricingSvc pricingdomain.Service
	AuditSvc   auditdomain.Service
}

type Server struct {
	log        *zap.Logger
	cfg        config.Config
	analyteSvc analytedomain.Service
	costSvc    costdomain.Service
	kitSvc     kitdomain.Service
	pricingSvc pricingdomain.Service
	auditSvc   auditdomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		log:        p.Log.Named("http.server"),
		cfg:        p.Config,
		analyteSvc: p.AnalyteSvc,
		costSvc:    p.CostSvc,
		kitSvc:     p.KitSvc,
		pricingSvc: p.PricingSvc,
		auditSvc:   p.AuditSvc,
	}
}

func NewEngine(cfg config.Config, m *metrics.Metrics) *gin.Engine {
	if !cfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(cfg.Debug()))
	engine.Use(m.GinMiddleware())
	engine.Use(ErrorHandlingMiddleware())
	return engine
}

func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")

	analytes := api.Group("/analytes")
	analytes.POST("", s.CreateAnalyte)
	analytes.GET("", s.ListAnalytes)
	analytes.GET("/:id", s.GetAnalyte)
	analytes.PATCH("/:id", s.UpdateAnalyte)
	analytes.POST("/:id/activate", s.ActivateAnalyte)
	analytes.POST("/:id/deactivate", s.DeactivateAnalyte)
	analytes.PUT("/:id/cost", s.AssignAnalyteCost)

	costs := api.Group("/costs")
	costs.GET("", s.ListCosts)
	costs.GET("/:cost_id", s.GetCost)
	costs.PUT("/:cost_id", s.UpsertCost)
	costs.POST("/bulk/labor-rate", s.BulkSetLaborRate)
	costs.POST("/bulk/overhead", s.BulkAdjustOverhead)
	costs.POST("/import", s.ImportCosts)

	kits := api.Group("/kits")
	kits.POST("", s.CreateKit)
	kits.GET("", s.ListKits)
	kits.GET("/:id", s.GetKit)
	kits.PATCH("/:id", s.UpdateKit)
	kits.POST("/:id/activate", s.ActivateKit)
	kits.POST("/:id/deactivate", s.DeactivateKit)
	kits.GET("/:id/pricing", s.KitPricing)

	pricing := api.Group("/pricing")
	pricing.GET("/analytes/:id", s.AnalyteSummary)
	pricing.GET("/margin", s.Margin)
	pricing.GET("/suggested", s.Suggested)
	pricing.GET("/competitive", s.Competitive)
	pricing.POST("/kit", s.PriceKitAdHoc)

	api.GET("/audit", s.QueryAudit)

	export := api.Group("/export")
	export.GET("/analytes.csv", s.ExportAnalytesCSV)
	export.GET("/kits.csv", s.ExportKitsCSV)
	export.GET("/costs.csv", s.ExportCostsCSV)
	export.GET("/audit.csv", s.ExportAuditCSV)
	export.POST("/custom", s.ExportCustomJSON)
}

func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server, engine *gin.Engine) { s.RegisterRoutes(engine) }),
	fx.Invoke(RunHTTP),
)
