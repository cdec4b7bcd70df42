package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"jobtracker/tracker-service/internal/events"
	"jobtracker/tracker-service/internal/kanban"
)

func TestRedisPublisher_PublishesOnTypeChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, kanban.EventCardMoved)
	t.Cleanup(func() { sub.Close() })
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	idx := 2
	pub := events.NewRedisPublisher(rdb)
	err := pub.Publish(ctx, kanban.Event{
		Type:          kanban.EventCardMoved,
		ApplicationID: "app-1",
		UserID:        "u1",
		From:          kanban.StatusApplied,
		To:            kanban.StatusOffer,
		OrderIndex:    &idx,
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("ReceiveMessage: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got["type"] != "EVENT_CARD_MOVED" || got["applicationId"] != "app-1" ||
		got["from"] != "Applied" || got["to"] != "Offer" || got["orderIndex"] != float64(2) {
		t.Errorf("payload = %v", got)
	}
}

func TestRedisPublisher_ReportsConnectionErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	err := events.NewRedisPublisher(rdb).Publish(context.Background(), kanban.Event{Type: kanban.EventApplicationDeleted})
	if err == nil {
		t.Error("Publish to a closed server returned nil error")
	}
}
