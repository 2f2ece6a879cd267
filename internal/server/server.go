package server

import (
	"context"
	"net/http"
	"time"

	"github.com/aquilabs/waterworks/internal/audit"
	auditdomain "github.com/aquilabs/waterworks/internal/audit/domain"
	"github.com/aquilabs/waterworks/internal/bill"
	billdomain "github.com/aquilabs/waterworks/internal/bill/domain"
	"github.com/aquilabs/waterworks/internal/config"
	"github.com/aquilabs/waterworks/internal/customer"
	customerdomain "github.com/aquilabs/waterworks/internal/customer/domain"
	"github.com/aquilabs/waterworks/internal/ledger"
	"github.com/aquilabs/waterworks/internal/locker"
	"github.com/aquilabs/waterworks/internal/ratetable"
	ratetabledomain "github.com/aquilabs/waterworks/internal/ratetable/domain"
	"github.com/aquilabs/waterworks/internal/settlement"
	settlementdomain "github.com/aquilabs/waterworks/internal/settlement/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	ledger.Module,
	locker.Module,
	ratetable.Module,
	customer.Module,
	bill.Module,
	settlement.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	auditSvc      auditdomain.Service
	rateTableSvc  ratetabledomain.Service
	customerSvc   customerdomain.Service
	billSvc       billdomain.Service
	settlementSvc settlementdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	AuditSvc      auditdomain.Service `optional:"true"`
	RateTableSvc  ratetabledomain.Service
	CustomerSvc   customerdomain.Service
	BillSvc       billdomain.Service
	SettlementSvc settlementdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		auditSvc:      p.AuditSvc,
		rateTableSvc:  p.RateTableSvc,
		customerSvc:   p.CustomerSvc,
		billSvc:       p.BillSvc,
		settlementSvc: p.SettlementSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Rate Classes --------
	v1.GET("/rate-classes", s.ListRateClasses)
	v1.POST("/rate-classes", s.CreateRateClass)
	v1.PATCH("/rate-classes/:code", s.UpdateRateClass)

	// -------- Customers --------
	v1.GET("/customers", s.ListCustomers)
	v1.POST("/customers", s.CreateCustomer)
	v1.GET("/customers/:id", s.GetCustomerByID)
	v1.GET("/customers/:id/bills", s.ListCustomerBills)

	// -------- Bills --------
	v1.POST("/bills", s.CreateBill)
	v1.GET("/bills/:id", s.GetBillByID)

	// -------- Settlements --------
	v1.POST("/settlements", s.CreateSettlement)
	v1.GET("/settlements/:id", s.GetSettlementByID)
}
