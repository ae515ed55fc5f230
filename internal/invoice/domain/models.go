// Package domain contains persistence models for tax invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hourstay/internal/money"
	"gorm.io/datatypes"
)

// InvoiceRecord is the issued tax invoice of a booking. One booking has at most
// one invoice; numbers are sequential within an Indian fiscal year.
type InvoiceRecord struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	BookingID   snowflake.ID      `gorm:"not null;uniqueIndex" json:"booking_id"`
	FiscalYear  string            `gorm:"type:text;not null;uniqueIndex:ux_invoice_sequence" json:"fiscal_year"`
	Sequence    int64             `gorm:"not null;uniqueIndex:ux_invoice_sequence" json:"sequence"`
	Number      string            `gorm:"type:text;not null;uniqueIndex" json:"number"`
	FinalAmount int64             `gorm:"not null" json:"final_amount"`
	Currency    string            `gorm:"type:text;not null" json:"currency"`
	Seller      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"seller"`
	IssuedAt    time.Time         `gorm:"not null" json:"issued_at"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (InvoiceRecord) TableName() string { return "invoices" }

func (r InvoiceRecord) Total() money.Money {
	return money.New(r.FinalAmount, r.Currency)
}

// Seller is the supplier block printed on the invoice. It is captured when the
// invoice is issued so later settings changes do not alter issued documents.
type Seller struct {
	Name    string `json:"name"`
	GSTIN   string `json:"gstin"`
	Address string `json:"address"`
	State   string `json:"state"`
	Email   string `json:"email"`
}

func (s Seller) ToMap() datatypes.JSONMap {
	return datatypes.JSONMap{
		"name":    s.Name,
		"gstin":   s.GSTIN,
		"address": s.Address,
		"state":   s.State,
		"email":   s.Email,
	}
}

func SellerFromMap(m datatypes.JSONMap) Seller {
	str := func(key string) string {
		v, _ := m[key].(string)
		return v
	}
	return Seller{
		Name:    str("name"),
		GSTIN:   str("gstin"),
		Address: str("address"),
		State:   str("state"),
		Email:   str("email"),
	}
}
