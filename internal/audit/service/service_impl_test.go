package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/hourstay/internal/audit/domain"
	"github.com/smallbiznis/hourstay/internal/audit/repository"
	"github.com/smallbiznis/hourstay/internal/clock"
	obscontext "github.com/smallbiznis/hourstay/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 7, 12, 6, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clk,
	})
	return svc, clk
}

func TestRecordCapturesActorAndMasksGuestDetails(t *testing.T) {
	svc, _ := newTestService(t)

	ctx := obscontext.WithActor(context.Background(), "hotel_admin", "user-7")
	ctx = obscontext.WithClient(ctx, "10.0.0.4", "curl/8.0")
	ctx = obscontext.WithRequestID(ctx, "req-1")

	err := svc.Record(ctx, domain.Entry{
		Action:     domain.ActionBookingCreate,
		TargetType: domain.TargetBooking,
		TargetID:   "42",
		Metadata: map[string]any{
			"reference":   "HS-1001",
			"guest_email": "asha@example.com",
			"guest_phone": "+91 98765 43210",
		},
	})
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), domain.ListAuditLogRequest{TargetID: "42"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "hotel_admin", entry.ActorRole)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "user-7", *entry.ActorID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.4", *entry.IPAddress)
	assert.Equal(t, "HS-1001", entry.Metadata["reference"])
	assert.Equal(t, "a****@example.com", entry.Metadata["guest_email"])
	assert.Equal(t, "****3210", entry.Metadata["guest_phone"])
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
}

func TestRecordWithoutActorUsesSystem(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Record(context.Background(), domain.Entry{Action: domain.ActionInvoiceIssue}))

	resp, err := svc.List(context.Background(), domain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "system", resp.AuditLogs[0].ActorRole)
	assert.Equal(t, "unknown", resp.AuditLogs[0].TargetType)
	assert.Nil(t, resp.AuditLogs[0].ActorID)
}

func TestRecordRequiresAction(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Record(context.Background(), domain.Entry{Action: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(ctx, domain.Entry{Action: domain.ActionInvoiceDownload, TargetType: domain.TargetInvoice}))
		clk.Advance(time.Minute)
	}
	require.NoError(t, svc.Record(ctx, domain.Entry{Action: domain.ActionBookingCreate, TargetType: domain.TargetBooking}))

	first, err := svc.List(ctx, domain.ListAuditLogRequest{Action: domain.ActionInvoiceDownload, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(ctx, domain.ListAuditLogRequest{Action: domain.ActionInvoiceDownload, PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
	assert.NotEqual(t, first.AuditLogs[0].ID, second.AuditLogs[0].ID)
	assert.NotEqual(t, first.AuditLogs[1].ID, second.AuditLogs[0].ID)
}

func TestListRejectsInvertedRange(t *testing.T) {
	svc, _ := newTestService(t)

	start := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err := svc.List(context.Background(), domain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}
