package redisqueue

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	msg := redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			payloadField: `{"id":"r1","tenant_id":"t1","document_id":"d1","operation":"create","pending_steps":["balance:P1","finalized"],"reason":"timeout","enqueued_at":"2026-03-01T12:00:00Z"}`,
		},
	}
	item, err := decode(msg)
	require.NoError(t, err)
	assert.Equal(t, "d1", item.DocumentID)
	assert.Equal(t, []string{"balance:P1", "finalized"}, item.PendingSteps)
	assert.True(t, item.EnqueuedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := decode(redis.XMessage{ID: "1-0", Values: map[string]interface{}{}})
	assert.Error(t, err)

	_, err = decode(redis.XMessage{ID: "2-0", Values: map[string]interface{}{payloadField: "{"}})
	assert.Error(t, err)
}
