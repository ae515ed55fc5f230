package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/hourstay/internal/booking/domain"
	"github.com/smallbiznis/hourstay/internal/cache"
	"github.com/smallbiznis/hourstay/internal/clock"
	"github.com/smallbiznis/hourstay/internal/config"
	"github.com/smallbiznis/hourstay/internal/invoice/breakdown"
	invoicedomain "github.com/smallbiznis/hourstay/internal/invoice/domain"
	invoiceformat "github.com/smallbiznis/hourstay/internal/invoice/format"
	"github.com/smallbiznis/hourstay/internal/invoice/render"
	"github.com/smallbiznis/hourstay/internal/money"
	"github.com/smallbiznis/hourstay/internal/observability/logger"
	"github.com/smallbiznis/hourstay/internal/observability/metrics"
	"github.com/smallbiznis/hourstay/internal/providers/pdf"
	"github.com/smallbiznis/hourstay/internal/ratelimit"
	"github.com/smallbiznis/hourstay/pkg/db"
	"github.com/smallbiznis/hourstay/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxIssueAttempts bounds retries when two bookings race for one sequence.
const maxIssueAttempts = 3

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     invoicedomain.Repository
	Bookings bookingdomain.Service
	Settings *config.InvoiceSettingsHolder
	Renderer render.Renderer
	PDF      pdf.Provider
	Config   config.Config `optional:"true"`

	Cache      cache.DocumentCache        `optional:"true"`
	Limiter    *ratelimit.DocumentLimiter `optional:"true"`
	Metrics    *metrics.Metrics           `optional:"true"`
	DocMetrics *metrics.DocumentMetrics   `optional:"true"`
	Clock      clock.Clock                `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	repo     invoicedomain.Repository
	bookings bookingdomain.Service
	settings *config.InvoiceSettingsHolder
	renderer render.Renderer
	pdf      pdf.Provider

	cache      cache.DocumentCache
	cacheTTL   time.Duration
	limiter    *ratelimit.DocumentLimiter
	metrics    *metrics.Metrics
	docMetrics *metrics.DocumentMetrics
	clock      clock.Clock
}

func NewService(p ServiceParam) invoicedomain.Service {
	svc := &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,

		repo:       p.Repo,
		bookings:   p.Bookings,
		settings:   p.Settings,
		renderer:   p.Renderer,
		pdf:        p.PDF,
		cache:      p.Cache,
		cacheTTL:   time.Duration(p.Config.DocumentCacheTTLSeconds) * time.Second,
		limiter:    p.Limiter,
		metrics:    p.Metrics,
		docMetrics: p.DocMetrics,
		clock:      p.Clock,
	}
	if svc.settings == nil {
		svc.settings = config.NewStaticInvoiceSettingsHolder(config.DefaultInvoiceSettings())
	}
	if svc.cache == nil {
		svc.cache = cache.NewNoopDocumentCache()
	}
	if svc.clock == nil {
		svc.clock = clock.NewSystem()
	}
	return svc
}

func (s *Service) Preview(ctx context.Context, req invoicedomain.PreviewRequest) invoicedomain.Preview {
	amount := money.NormalizeAmountToRupees(req.Amount)
	bd := breakdown.Calculate(amount)
	s.docMetrics.ObserveDrift(bd.Drift())

	return invoicedomain.Preview{
		Amount:        bd.InputAmount,
		Breakdown:     bd,
		Lines:         bd.Lines(),
		AmountInWords: bd.Words(),
		Drift:         bd.Drift(),
	}
}

// Issue assigns the booking its tax invoice number. Repeated calls return the
// invoice issued first.
func (s *Service) Issue(ctx context.Context, bookingID string) (invoicedomain.InvoiceRecord, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return invoicedomain.InvoiceRecord{}, err
	}
	log := logger.WithBooking(logger.WithContext(ctx, s.log), booking.ID.String())

	existing, err := s.repo.FindByBookingID(ctx, s.db, booking.ID)
	if err != nil {
		return invoicedomain.InvoiceRecord{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	token, ok, err := s.limiter.TryLockIssue(ctx, booking.ID.String())
	if err != nil {
		return invoicedomain.InvoiceRecord{}, err
	}
	if !ok {
		return invoicedomain.InvoiceRecord{}, invoicedomain.ErrIssueInProgress
	}
	defer func() {
		if err := s.limiter.ReleaseIssue(context.WithoutCancel(ctx), booking.ID.String(), token); err != nil {
			log.Warn("failed to release invoice issue lock", zap.Error(err))
		}
	}()

	settings := s.settings.Get()
	bd := breakdown.FromMoney(booking.Paid())
	issuedAt := s.clock.Now().UTC()
	fiscalYear := invoiceformat.FiscalYear(issuedAt)

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		var (
			record  invoicedomain.InvoiceRecord
			created bool
		)
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := s.repo.FindByBookingID(ctx, tx, booking.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				record = *existing
				return nil
			}

			seq, err := s.repo.NextSequence(ctx, tx, fiscalYear)
			if err != nil {
				return err
			}
			number, err := invoiceformat.FormatInvoiceNumber(settings.NumberTemplate, settings.NumberPrefix, issuedAt, seq)
			if err != nil {
				log.Error("invoice number cannot be formatted",
					zap.String("template", settings.NumberTemplate),
					zap.Int64("sequence", seq),
					zap.Error(err),
				)
				return fmt.Errorf("%w: %w", invoicedomain.ErrNumberingUnavailable, err)
			}

			record = invoicedomain.InvoiceRecord{
				ID:          s.genID.Generate(),
				BookingID:   booking.ID,
				FiscalYear:  fiscalYear,
				Sequence:    seq,
				Number:      number,
				FinalAmount: money.FromMajor(bd.FinalAmount, booking.Currency).AmountMinor,
				Currency:    booking.Currency,
				Seller:      sellerFromSettings(settings).ToMap(),
				IssuedAt:    issuedAt,
				CreatedAt:   issuedAt,
				UpdatedAt:   issuedAt,
			}
			if err := s.repo.Insert(ctx, tx, &record); err != nil {
				return err
			}
			created = true
			return nil
		})
		if err == nil {
			if created {
				s.metrics.RecordInvoiceIssued(ctx, record.Currency, bd.FinalAmount)
				s.docMetrics.ObserveDrift(bd.Drift())
				log.Info("invoice issued",
					zap.String("invoice_id", record.ID.String()),
					zap.String("number", record.Number),
					zap.Float64("final_amount", bd.FinalAmount),
					zap.Float64("drift", bd.Drift()),
				)
			}
			return record, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return invoicedomain.InvoiceRecord{}, err
		}

		// Another writer either issued this booking or took the sequence.
		existing, findErr := s.repo.FindByBookingID(ctx, s.db, booking.ID)
		if findErr != nil {
			return invoicedomain.InvoiceRecord{}, findErr
		}
		if existing != nil {
			return *existing, nil
		}
		log.Warn("invoice sequence conflict, retrying",
			zap.Int("attempt", attempt+1),
			zap.String("fiscal_year", fiscalYear),
			zap.String("constraint", db.UniqueConstraint(err)),
		)
	}

	return invoicedomain.InvoiceRecord{}, invoicedomain.ErrSequenceExhausted
}

func (s *Service) Get(ctx context.Context, bookingID string) (invoicedomain.InvoiceDocument, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return invoicedomain.InvoiceDocument{}, err
	}

	record, err := s.repo.FindByBookingID(ctx, s.db, booking.ID)
	if err != nil {
		return invoicedomain.InvoiceDocument{}, err
	}
	if record == nil {
		return invoicedomain.InvoiceDocument{}, invoicedomain.ErrInvoiceNotIssued
	}

	return s.buildDocument(booking, *record, s.settings.Get()), nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	page := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(req.PageSize),
	}

	items, err := s.repo.List(ctx, s.db, invoicedomain.ListInvoiceFilter{
		FiscalYear: strings.TrimSpace(req.FiscalYear),
	}, page)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Limit(), func(record *invoicedomain.InvoiceRecord) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        record.ID.String(),
			CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	invoices := make([]invoicedomain.InvoiceRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	resp := invoicedomain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) buildDocument(booking bookingdomain.Booking, record invoicedomain.InvoiceRecord, settings config.InvoiceSettings) invoicedomain.InvoiceDocument {
	bd := breakdown.FromMoney(booking.Paid())

	seller := invoicedomain.SellerFromMap(record.Seller)
	if seller.Name == "" {
		seller = sellerFromSettings(settings)
	}

	lines := bd.Lines()
	docLines := make([]invoicedomain.DocumentLine, 0, len(lines))
	for _, line := range lines {
		description, sac := describeLine(line.Kind, settings)
		docLines = append(docLines, invoicedomain.DocumentLine{
			Line:        line,
			Description: description,
			SAC:         sac,
		})
	}

	return invoicedomain.InvoiceDocument{
		Invoice:       record,
		Booking:       booking,
		Seller:        seller,
		Breakdown:     bd,
		Lines:         docLines,
		AmountInWords: bd.Words(),
	}
}

func describeLine(kind breakdown.LineKind, settings config.InvoiceSettings) (string, string) {
	switch kind {
	case breakdown.LineAccommodation:
		return "Accommodation charges", settings.AccommodationSAC
	case breakdown.LineService:
		return "Service charges", settings.ServiceSAC
	case breakdown.LineConvenience:
		return "Convenience fee", settings.ServiceSAC
	default:
		return string(kind), settings.ServiceSAC
	}
}

func sellerFromSettings(settings config.InvoiceSettings) invoicedomain.Seller {
	return invoicedomain.Seller{
		Name:    settings.SellerName,
		GSTIN:   strings.ToUpper(strings.TrimSpace(settings.SellerGSTIN)),
		Address: settings.SellerAddress,
		State:   settings.SellerState,
		Email:   settings.SellerEmail,
	}
}
