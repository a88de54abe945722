package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestMarkOnce_NoClient(t *testing.T) {
	var r *Redis
	first, err := r.MarkOnce(context.Background(), "helpdesk:sla-warning:t-1:0", time.Hour)
	assert.Error(t, err)
	assert.False(t, first)
}

func TestMarkOnce_UnreachableServer(t *testing.T) {
	r := &Redis{Client: redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})}
	defer r.Close()

	first, err := r.MarkOnce(context.Background(), "helpdesk:sla-warning:t-1:0", time.Hour)
	assert.Error(t, err)
	assert.False(t, first)
}

func TestPublish_NoClient(t *testing.T) {
	var r *Redis
	assert.NoError(t, r.Publish(context.Background(), "ch", []byte("x")))
	assert.Error(t, r.Ping(context.Background()))
}
