package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClient_NilIsNoop(t *testing.T) {
	var c *Client
	ctx := context.Background()

	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)

	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Close())
}
