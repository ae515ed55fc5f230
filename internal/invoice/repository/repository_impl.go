package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hourstay/internal/invoice/domain"
	"github.com/smallbiznis/hourstay/pkg/db/option"
	"github.com/smallbiznis/hourstay/pkg/db/pagination"
	"github.com/smallbiznis/hourstay/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.InvoiceRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (id, booking_id, fiscal_year, sequence, number, final_amount, currency, seller, issued_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.BookingID,
		record.FiscalYear,
		record.Sequence,
		record.Number,
		record.FinalAmount,
		record.Currency,
		record.Seller,
		record.IssuedAt,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*domain.InvoiceRecord, error) {
	if bookingID == 0 {
		return nil, nil
	}
	return repository.ProvideStore[domain.InvoiceRecord](db).FindOne(ctx, &domain.InvoiceRecord{BookingID: bookingID})
}

func (r *repo) NextSequence(ctx context.Context, db *gorm.DB, fiscalYear string) (int64, error) {
	var current int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(sequence), 0) FROM invoices WHERE fiscal_year = ?`,
		fiscalYear,
	).Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.InvoiceRecord, error) {
	return repository.ProvideStore[domain.InvoiceRecord](db).Find(ctx, nil,
		option.WithEqual("fiscal_year", filter.FiscalYear),
		option.ApplyPagination(page),
	)
}
