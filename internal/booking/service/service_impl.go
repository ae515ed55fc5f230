package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hourstay/internal/booking/domain"
	"github.com/smallbiznis/hourstay/internal/clock"
	"github.com/smallbiznis/hourstay/internal/money"
	"github.com/smallbiznis/hourstay/internal/observability/metrics"
	"github.com/smallbiznis/hourstay/pkg/db"
	"github.com/smallbiznis/hourstay/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxSlotHours = 24

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock      `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("booking.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   clk,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBookingRequest) (domain.Booking, error) {
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		return domain.Booking{}, domain.ErrInvalidReference
	}

	hotel := strings.TrimSpace(req.HotelName)
	if hotel == "" {
		return domain.Booking{}, domain.ErrInvalidHotel
	}

	guest := strings.TrimSpace(req.GuestName)
	if guest == "" {
		return domain.Booking{}, domain.ErrInvalidGuestName
	}

	email := strings.TrimSpace(req.GuestEmail)
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Booking{}, domain.ErrInvalidEmail
	}

	stayType, slotHours, err := resolveStay(req)
	if err != nil {
		return domain.Booking{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = money.DefaultCurrency
	}
	if len(currency) != 3 {
		return domain.Booking{}, domain.ErrInvalidCurrency
	}

	amount := resolveAmount(req)
	if amount < 0 {
		return domain.Booking{}, domain.ErrInvalidAmount
	}

	existing, err := s.repo.FindByReference(ctx, s.db, reference)
	if err != nil {
		return domain.Booking{}, err
	}
	if existing != nil {
		return domain.Booking{}, domain.ErrDuplicateReference
	}

	metadata := datatypes.JSONMap{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	now := s.clock.Now().UTC()
	booking := domain.Booking{
		ID:               s.genID.Generate(),
		Reference:        reference,
		HotelName:        hotel,
		HotelCity:        strings.TrimSpace(req.HotelCity),
		RoomType:         strings.TrimSpace(req.RoomType),
		StayType:         stayType,
		SlotHours:        slotHours,
		CheckIn:          req.CheckIn.UTC(),
		CheckOut:         req.CheckOut.UTC(),
		GuestName:        guest,
		GuestEmail:       email,
		GuestPhone:       strings.TrimSpace(req.GuestPhone),
		AmountPaid:       amount,
		Currency:         currency,
		PaymentReference: strings.TrimSpace(req.PaymentReference),
		PaidAt:           req.PaidAt,
		Metadata:         metadata,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if booking.PaidAt != nil {
		paidAt := booking.PaidAt.UTC()
		booking.PaidAt = &paidAt
	}

	if err := s.repo.Insert(ctx, s.db, &booking); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Booking{}, domain.ErrDuplicateReference
		}
		return domain.Booking{}, err
	}

	s.metrics.RecordBooking(ctx, string(stayType))
	s.log.Info("booking recorded",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("stay_type", string(booking.StayType)),
		zap.Int64("amount_paid", booking.AmountPaid),
	)

	return booking, nil
}

func (s *Service) List(ctx context.Context, req domain.ListBookingRequest) (domain.ListBookingResponse, error) {
	filter := domain.ListBookingFilter{
		Reference:   strings.TrimSpace(req.Reference),
		GuestEmail:  strings.TrimSpace(req.GuestEmail),
		StayType:    strings.TrimSpace(req.StayType),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}

	page := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(req.PageSize),
	}

	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListBookingResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Limit(), func(booking *domain.Booking) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        booking.ID.String(),
			CreatedAt: booking.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	bookings := make([]domain.Booking, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		bookings = append(bookings, *item)
	}

	resp := domain.ListBookingResponse{Bookings: bookings}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Booking, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Booking{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if item == nil {
		return domain.Booking{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) GetByReference(ctx context.Context, reference string) (domain.Booking, error) {
	if strings.TrimSpace(reference) == "" {
		return domain.Booking{}, domain.ErrInvalidReference
	}

	item, err := s.repo.FindByReference(ctx, s.db, reference)
	if err != nil {
		return domain.Booking{}, err
	}
	if item == nil {
		return domain.Booking{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// resolveAmount prefers the explicit minor-unit amount and falls back to the
// loosely typed legacy field.
func resolveAmount(req domain.CreateBookingRequest) int64 {
	if req.AmountPaidMinor != nil {
		return *req.AmountPaidMinor
	}
	return money.FromMajor(money.NormalizeAmountToRupees(req.AmountPaid), money.DefaultCurrency).AmountMinor
}

func resolveStay(req domain.CreateBookingRequest) (domain.StayType, int, error) {
	if req.CheckIn.IsZero() || req.CheckOut.IsZero() || !req.CheckOut.After(req.CheckIn) {
		return "", 0, domain.ErrInvalidStayWindow
	}

	switch domain.StayType(strings.ToLower(strings.TrimSpace(req.StayType))) {
	case domain.StayHourly:
		slot := req.SlotHours
		if slot == 0 {
			window := req.CheckOut.Sub(req.CheckIn)
			slot = int(window / time.Hour)
			if window%time.Hour != 0 {
				slot++
			}
		}
		if slot <= 0 || slot > maxSlotHours {
			return "", 0, domain.ErrInvalidSlot
		}
		return domain.StayHourly, slot, nil
	case domain.StayFullDay, "":
		return domain.StayFullDay, 0, nil
	default:
		return "", 0, domain.ErrInvalidStayType
	}
}
