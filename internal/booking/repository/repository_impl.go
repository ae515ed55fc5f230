package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hourstay/internal/booking/domain"
	"github.com/smallbiznis/hourstay/pkg/db/option"
	"github.com/smallbiznis/hourstay/pkg/db/pagination"
	"github.com/smallbiznis/hourstay/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, booking *domain.Booking) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bookings (id, reference, hotel_name, hotel_city, room_type, stay_type, slot_hours,
			check_in, check_out, guest_name, guest_email, guest_phone, amount_paid, currency,
			payment_reference, paid_at, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.Reference,
		booking.HotelName,
		booking.HotelCity,
		booking.RoomType,
		booking.StayType,
		booking.SlotHours,
		booking.CheckIn,
		booking.CheckOut,
		booking.GuestName,
		booking.GuestEmail,
		booking.GuestPhone,
		booking.AmountPaid,
		booking.Currency,
		booking.PaymentReference,
		booking.PaidAt,
		booking.Metadata,
		booking.CreatedAt,
		booking.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	return repository.ProvideStore[domain.Booking](db).FindOne(ctx, &domain.Booking{ID: id})
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.Booking, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	return repository.ProvideStore[domain.Booking](db).FindOne(ctx, &domain.Booking{Reference: reference})
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListBookingFilter, page pagination.Pagination) ([]*domain.Booking, error) {
	opts := []option.QueryOption{
		option.WithEqual("reference", filter.Reference),
		option.WithEqual("guest_email", filter.GuestEmail),
		option.WithEqual("stay_type", filter.StayType),
	}
	if filter.CreatedFrom != nil {
		opts = append(opts, option.WithWhere("created_at >= ?", *filter.CreatedFrom))
	}
	if filter.CreatedTo != nil {
		opts = append(opts, option.WithWhere("created_at <= ?", *filter.CreatedTo))
	}
	opts = append(opts, option.ApplyPagination(page))

	return repository.ProvideStore[domain.Booking](db).Find(ctx, nil, opts...)
}
