package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/hourstay/internal/booking/domain"
	"github.com/smallbiznis/hourstay/internal/booking/repository"
	"github.com/smallbiznis/hourstay/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Booking{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clk,
	})
	return svc, clk
}

func validRequest(reference string) domain.CreateBookingRequest {
	checkIn := time.Date(2024, 7, 12, 14, 0, 0, 0, time.UTC)
	minor := int64(105263)
	return domain.CreateBookingRequest{
		Reference:       reference,
		HotelName:       "Lakeview Residency",
		HotelCity:       "Pune",
		RoomType:        "Deluxe",
		StayType:        "hourly",
		SlotHours:       6,
		CheckIn:         checkIn,
		CheckOut:        checkIn.Add(6 * time.Hour),
		GuestName:       "Asha Rao",
		GuestEmail:      "asha@example.com",
		AmountPaidMinor: &minor,
	}
}

func TestCreateBooking(t *testing.T) {
	svc, _ := newTestService(t)

	booking, err := svc.Create(context.Background(), validRequest("HS-1001"))
	require.NoError(t, err)

	assert.NotZero(t, booking.ID)
	assert.Equal(t, domain.StayHourly, booking.StayType)
	assert.Equal(t, 6, booking.SlotHours)
	assert.Equal(t, int64(105263), booking.AmountPaid)
	assert.Equal(t, "INR", booking.Currency)

	got, err := svc.GetByID(context.Background(), booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, booking.Reference, got.Reference)
	assert.Equal(t, "Lakeview Residency", got.HotelName)

	byRef, err := svc.GetByReference(context.Background(), "HS-1001")
	require.NoError(t, err)
	assert.Equal(t, booking.ID, byRef.ID)
}

func TestCreateBookingRejectsDuplicateReference(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), validRequest("HS-1002"))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validRequest("HS-1002"))
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
}

func TestCreateBookingLegacyAmount(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name   string
		ref    string
		amount any
		want   int64
	}{
		{name: "rupees", ref: "HS-L1", amount: 999.5, want: 99950},
		{name: "paise", ref: "HS-L2", amount: "150050", want: 150050},
		{name: "garbage", ref: "HS-L3", amount: "abc", want: 0},
		{name: "missing", ref: "HS-L4", amount: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(tt.ref)
			req.AmountPaidMinor = nil
			req.AmountPaid = tt.amount

			booking, err := svc.Create(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, booking.AmountPaid)
		})
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc, _ := newTestService(t)

	negative := int64(-1)
	tests := []struct {
		name   string
		mutate func(*domain.CreateBookingRequest)
		want   error
	}{
		{name: "reference", mutate: func(r *domain.CreateBookingRequest) { r.Reference = " " }, want: domain.ErrInvalidReference},
		{name: "hotel", mutate: func(r *domain.CreateBookingRequest) { r.HotelName = "" }, want: domain.ErrInvalidHotel},
		{name: "guest", mutate: func(r *domain.CreateBookingRequest) { r.GuestName = "" }, want: domain.ErrInvalidGuestName},
		{name: "email", mutate: func(r *domain.CreateBookingRequest) { r.GuestEmail = "not-an-email" }, want: domain.ErrInvalidEmail},
		{name: "stay type", mutate: func(r *domain.CreateBookingRequest) { r.StayType = "weekly" }, want: domain.ErrInvalidStayType},
		{name: "window", mutate: func(r *domain.CreateBookingRequest) { r.CheckOut = r.CheckIn }, want: domain.ErrInvalidStayWindow},
		{name: "slot", mutate: func(r *domain.CreateBookingRequest) { r.SlotHours = 30 }, want: domain.ErrInvalidSlot},
		{name: "currency", mutate: func(r *domain.CreateBookingRequest) { r.Currency = "RUPEE" }, want: domain.ErrInvalidCurrency},
		{name: "amount", mutate: func(r *domain.CreateBookingRequest) { r.AmountPaidMinor = &negative }, want: domain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest("HS-V")
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateBookingDerivesSlotHours(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest("HS-S1")
	req.SlotHours = 0
	req.CheckOut = req.CheckIn.Add(2*time.Hour + 30*time.Minute)

	booking, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, booking.SlotHours)

	full := validRequest("HS-S2")
	full.StayType = ""
	full.CheckOut = full.CheckIn.Add(48 * time.Hour)
	booking, err = svc.Create(context.Background(), full)
	require.NoError(t, err)
	assert.Equal(t, domain.StayFullDay, booking.StayType)
	assert.Equal(t, 2, booking.Nights())
}

func TestGetBookingErrors(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(context.Background(), "1234567890")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByReference(context.Background(), "HS-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListBookingsPaginates(t *testing.T) {
	svc, clk := newTestService(t)

	for _, ref := range []string{"HS-P1", "HS-P2", "HS-P3"} {
		_, err := svc.Create(context.Background(), validRequest(ref))
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	first, err := svc.List(context.Background(), domain.ListBookingRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Bookings, 2)
	assert.True(t, first.HasMore)
	assert.NotEmpty(t, first.NextPageToken)
	assert.Equal(t, "HS-P3", first.Bookings[0].Reference)
	assert.Equal(t, "HS-P2", first.Bookings[1].Reference)

	second, err := svc.List(context.Background(), domain.ListBookingRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Bookings, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, "HS-P1", second.Bookings[0].Reference)

	filtered, err := svc.List(context.Background(), domain.ListBookingRequest{Reference: "HS-P2"})
	require.NoError(t, err)
	require.Len(t, filtered.Bookings, 1)
}
