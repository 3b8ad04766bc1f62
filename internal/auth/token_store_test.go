package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenStore_FailsSafeWithoutRedis(t *testing.T) {
	store := NewTokenStore(nil)
	ctx := context.Background()

	assert.NoError(t, store.BlacklistAccessToken(ctx, "jti", time.Minute))

	blacklisted, err := store.IsAccessTokenBlacklisted(ctx, "jti")
	assert.NoError(t, err)
	assert.False(t, blacklisted)
}
