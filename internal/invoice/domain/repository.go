package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hourstay/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *InvoiceRecord) error
	FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*InvoiceRecord, error)
	// NextSequence returns the next free sequence number of a fiscal year.
	NextSequence(ctx context.Context, db *gorm.DB, fiscalYear string) (int64, error)
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter, page pagination.Pagination) ([]*InvoiceRecord, error)
}
