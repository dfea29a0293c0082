package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"github.com/PaulBabatuyi/FileDrop/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewMessageOmitsContent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := NewMessage(service.Event{
		Kind: service.EventCreated,
		At:   at,
		File: models.FileRecord{ID: "f1", Name: "a.txt", MediaType: "text/plain", Size: 10, Stored: true, Data: "data:text/plain;base64,AAAA"},
	})

	b, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"created","file_id":"f1","name":"a.txt","type":"text/plain","size":10,"stored":true,"at":"2026-03-01T12:00:00Z"}`, string(b))
}

func TestRedisPublisher(t *testing.T) {
	addr := os.Getenv("FILEDROP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FILEDROP_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, "")
	require.NoError(t, err)
	defer client.Close()

	sub := client.Subscribe(ctx, "filedrop:test")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	p := NewRedisPublisher(client, "filedrop:test", zap.NewNop())
	p.HandleEvent(ctx, service.Event{Kind: service.EventDeleted, File: models.FileRecord{ID: "f9"}})

	select {
	case m := <-sub.Channel():
		var got Message
		require.NoError(t, json.Unmarshal([]byte(m.Payload), &got))
		assert.Equal(t, service.EventDeleted, got.Kind)
		assert.Equal(t, "f9", got.FileID)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNewRedisClientUnreachable(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "127.0.0.1:1", "")
	assert.Error(t, err)
}
