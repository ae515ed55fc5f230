package obscontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithActor(ctx, "hotel_admin", "u-9")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	role, id := ActorFromContext(ctx)
	assert.Equal(t, "hotel_admin", role)
	assert.Equal(t, "u-9", id)
}
