package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rareminds/skillpassport-billing/internal/access"
	accessdomain "github.com/rareminds/skillpassport-billing/internal/access/domain"
	"github.com/rareminds/skillpassport-billing/internal/auth"
	"github.com/rareminds/skillpassport-billing/internal/catalog"
	catalogdomain "github.com/rareminds/skillpassport-billing/internal/catalog/domain"
	"github.com/rareminds/skillpassport-billing/internal/config"
	"github.com/rareminds/skillpassport-billing/internal/discount"
	"github.com/rareminds/skillpassport-billing/internal/entitlement"
	entitlementdomain "github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
	"github.com/rareminds/skillpassport-billing/internal/lifecycle"
	"github.com/rareminds/skillpassport-billing/internal/notification"
	obsmetrics "github.com/rareminds/skillpassport-billing/internal/observability/metrics"
	obstracing "github.com/rareminds/skillpassport-billing/internal/observability/tracing"
	"github.com/rareminds/skillpassport-billing/internal/order"
	orderdomain "github.com/rareminds/skillpassport-billing/internal/order/domain"
	"github.com/rareminds/skillpassport-billing/internal/organization"
	organizationdomain "github.com/rareminds/skillpassport-billing/internal/organization/domain"
	"github.com/rareminds/skillpassport-billing/internal/payment"
	"github.com/rareminds/skillpassport-billing/internal/ratelimit"
	"github.com/rareminds/skillpassport-billing/internal/redislock"
	"github.com/rareminds/skillpassport-billing/internal/subscription"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(auth.NewVerifier),
	catalog.Module,
	discount.Module,
	order.Module,
	entitlement.Module,
	subscription.Module,
	organization.Module,
	access.Module,
	payment.Module,
	notification.Module,
	redislock.Module,
	ratelimit.Module,
	lifecycle.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
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

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	verifier        *auth.Verifier
	catalogSvc      catalogdomain.Service
	orderSvc        orderdomain.Service
	entitlementSvc  entitlementdomain.Service
	accessSvc       accessdomain.Service
	organizationSvc organizationdomain.Service
	scheduler       *lifecycle.Scheduler
	limiter         *ratelimit.TokenBucket
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Verifier        *auth.Verifier
	CatalogSvc      catalogdomain.Service
	OrderSvc        orderdomain.Service
	EntitlementSvc  entitlementdomain.Service
	AccessSvc       accessdomain.Service
	OrganizationSvc organizationdomain.Service
	Scheduler       *lifecycle.Scheduler
	Limiter         *ratelimit.TokenBucket `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		verifier:        p.Verifier,
		catalogSvc:      p.CatalogSvc,
		orderSvc:        p.OrderSvc,
		entitlementSvc:  p.EntitlementSvc,
		accessSvc:       p.AccessSvc,
		organizationSvc: p.OrganizationSvc,
		scheduler:       p.Scheduler,
		limiter:         p.Limiter,
	}

	svc.registerAPIRoutes()
	svc.registerOrgRoutes()
	svc.registerInternalRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1", s.RateLimit())

	v1.GET("/catalog", s.ListCatalog)

	// Access checks answer 401 with has_access=false instead of the
	// generic error envelope so clients can treat it as a denial.
	v1.GET("/access", s.AccessSoftAuth(), s.CheckAccess)
	v1.GET("/access/features/:feature_key", s.AccessSoftAuth(), s.CheckFeatureAccess)

	authed := v1.Group("", s.AuthRequired())
	{
		authed.POST("/orders/addon", s.CreateAddOnOrder)
		authed.POST("/orders/bundle", s.CreateBundleOrder)
		authed.POST("/payments/verify", s.VerifyPayment)

		authed.GET("/entitlements", s.ListEntitlements)
		authed.POST("/entitlements/:id/cancel", s.CancelEntitlement)
		authed.POST("/entitlements/:id/auto-renew", s.SetEntitlementAutoRenew)
	}
}

func (s *Server) registerOrgRoutes() {
	org := s.engine.Group("/v1/organizations", s.SystemAuthRequired())

	org.POST("/subscriptions", s.CreateOrgSubscription)
	org.GET("/subscriptions/:id/licenses", s.ListOrgLicenses)
	org.POST("/pools", s.CreateLicensePool)
	org.POST("/seats", s.AssignSeat)
	org.DELETE("/seats", s.RevokeSeat)
}

func (s *Server) registerInternalRoutes() {
	internal := s.engine.Group("/internal", s.SystemAuthRequired())

	internal.POST("/lifecycle/run", s.RunLifecycle)
}
