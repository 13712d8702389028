package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "reviewhub/pkg/domain"
)

func TestUserIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.True(t, UserID(ctx).IsNil())

	userID := id.NewUserID()
	assert.Equal(t, userID, UserID(WithUserID(ctx, userID)))
}

func TestNowPrefersInjectedTime(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "req-1", RequestID(WithRequestID(context.Background(), "req-1")))
}
