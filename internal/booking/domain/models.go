package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hourstay/internal/money"
	"gorm.io/datatypes"
)

type StayType string

const (
	StayHourly  StayType = "hourly"
	StayFullDay StayType = "full_day"
)

// Booking is a paid reservation. AmountPaid is the gross amount collected from
// the guest in minor units, the input of every invoice breakdown.
type Booking struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	Reference        string            `gorm:"not null;uniqueIndex" json:"reference"`
	HotelName        string            `gorm:"not null" json:"hotel_name"`
	HotelCity        string            `gorm:"column:hotel_city" json:"hotel_city,omitempty"`
	RoomType         string            `gorm:"column:room_type" json:"room_type,omitempty"`
	StayType         StayType          `gorm:"not null" json:"stay_type"`
	SlotHours        int               `gorm:"not null;default:0" json:"slot_hours,omitempty"`
	CheckIn          time.Time         `gorm:"not null" json:"check_in"`
	CheckOut         time.Time         `gorm:"not null" json:"check_out"`
	GuestName        string            `gorm:"not null" json:"guest_name"`
	GuestEmail       string            `gorm:"not null" json:"guest_email"`
	GuestPhone       string            `gorm:"column:guest_phone" json:"guest_phone,omitempty"`
	AmountPaid       int64             `gorm:"column:amount_paid;not null" json:"amount_paid"`
	Currency         string            `gorm:"not null" json:"currency"`
	PaymentReference string            `gorm:"column:payment_reference" json:"payment_reference,omitempty"`
	PaidAt           *time.Time        `gorm:"column:paid_at" json:"paid_at,omitempty"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// Paid returns the collected amount as Money.
func (b Booking) Paid() money.Money {
	return money.New(b.AmountPaid, b.Currency)
}

// Nights counts calendar nights for full-day stays. Hourly stays report zero.
func (b Booking) Nights() int {
	if b.StayType != StayFullDay {
		return 0
	}
	in := time.Date(b.CheckIn.Year(), b.CheckIn.Month(), b.CheckIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(b.CheckOut.Year(), b.CheckOut.Month(), b.CheckOut.Day(), 0, 0, 0, 0, time.UTC)
	nights := int(out.Sub(in).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return nights
}
