package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/hourstay/internal/audit/domain"
	"github.com/smallbiznis/hourstay/internal/authorization"
	bookingdomain "github.com/smallbiznis/hourstay/internal/booking/domain"
	"github.com/smallbiznis/hourstay/internal/config"
	invoicedomain "github.com/smallbiznis/hourstay/internal/invoice/domain"
	"github.com/smallbiznis/hourstay/internal/observability"
	obsmiddleware "github.com/smallbiznis/hourstay/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/hourstay/internal/observability/metrics"
	obstracing "github.com/smallbiznis/hourstay/internal/observability/tracing"
	"github.com/smallbiznis/hourstay/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module serves the full API. Binaries that expose a subset provide
// NewEngine and NewServer themselves and pick the route groups they need.
var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterAPIRoutes()
		s.RegisterDocumentRoutes()
	}),
	fx.Invoke(RunHTTP),
)

type EngineParams struct {
	fx.In

	ObsCfg      observability.Config
	Log         *zap.Logger
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Logger:          p.Log,
		Debug:           p.ObsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(p.HTTPMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
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
	engine     *gin.Engine
	cfg        config.Config
	bookingSvc bookingdomain.Service
	invoiceSvc invoicedomain.Service
	authzSvc   authorization.Service
	auditSvc   auditdomain.Service
	limiter    *ratelimit.DocumentLimiter
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	BookingSvc bookingdomain.Service
	InvoiceSvc invoicedomain.Service
	AuthzSvc   authorization.Service
	AuditSvc   auditdomain.Service        `optional:"true"`
	Limiter    *ratelimit.DocumentLimiter `optional:"true"`
	ObsMetrics *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		bookingSvc: p.BookingSvc,
		invoiceSvc: p.InvoiceSvc,
		authzSvc:   p.AuthzSvc,
		auditSvc:   p.AuditSvc,
		limiter:    p.Limiter,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterAPIRoutes mounts the JSON API.
func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api", s.ActorContext())

	// -------- Breakdowns --------
	api.POST("/invoice-breakdowns", s.authorize(authorization.ObjectBreakdown, authorization.ActionBreakdownPreview), s.PreviewBreakdown)
	api.GET("/amount-in-words", s.authorize(authorization.ObjectBreakdown, authorization.ActionBreakdownPreview), s.AmountInWords)

	// -------- Bookings --------
	api.GET("/bookings", s.authorize(authorization.ObjectBooking, authorization.ActionBookingView), s.ListBookings)
	api.POST("/bookings", s.authorize(authorization.ObjectBooking, authorization.ActionBookingCreate), s.CreateBooking)
	api.GET("/bookings/:id", s.authorize(authorization.ObjectBooking, authorization.ActionBookingView), s.GetBookingByID)

	// -------- Invoices --------
	api.POST("/bookings/:id/invoice", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceIssue), s.IssueInvoice)
	api.GET("/bookings/:id/invoice", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.GetInvoice)
	api.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceList), s.ListInvoices)

	// -------- Audit --------
	if s.auditSvc != nil {
		api.GET("/audit-logs", s.authorize(authorization.ObjectAudit, authorization.ActionAuditView), s.ListAuditLogs)
	}
}

// RegisterDocumentRoutes mounts the printable invoice downloads.
func (s *Server) RegisterDocumentRoutes() {
	docs := s.engine.Group("/api/bookings/:id", s.ActorContext(), s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.DocumentRateLimit())

	docs.GET("/invoice.html", s.RenderInvoice(invoicedomain.FormatHTML))
	docs.GET("/invoice.pdf", s.RenderInvoice(invoicedomain.FormatPDF))
	docs.GET("/invoice.doc", s.RenderInvoice(invoicedomain.FormatWord))
}
