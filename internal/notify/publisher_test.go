package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tradepulse/config"
)

func TestNotify(t *testing.T) {
	mr := miniredis.RunT(t)

	pub, err := New(config.RedisConfig{Addr: mr.Addr(), Channel: "tradepulse:changes"}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pub.Close()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ps := sub.Subscribe(ctx, "tradepulse:changes")
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub.Notify("whales.json", 1760529600000)

	msg, err := ps.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	var c Change
	if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
		t.Fatal(err)
	}
	if c.Name != "whales.json" || c.Version != 1760529600000 {
		t.Errorf("unexpected change %+v", c)
	}
}

func TestNewUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := New(config.RedisConfig{Addr: addr}, zap.NewNop()); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestPublishAfterClose(t *testing.T) {
	mr := miniredis.RunT(t)
	pub := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "c", zap.NewNop())
	if err := pub.Close(); err != nil {
		t.Fatal(err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	if err := pub.Publish(context.Background(), Change{Name: "a.json", Version: 1}); err == nil {
		t.Fatal("expected error on closed client")
	}
	// Notify after Close is a no-op
	pub.Notify("a.json", 2)
}

func TestNotifyDoesNotWaitOnRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	pub := NewWithClient(redis.NewClient(&redis.Options{Addr: addr}), "c", zap.NewNop())
	defer pub.Close()

	start := time.Now()
	for i := 0; i < 7*queueSize; i++ {
		pub.Notify("whales.json", int64(i))
	}
	if d := time.Since(start); d > 100*time.Millisecond {
		t.Errorf("Notify blocked for %v with Redis unreachable", d)
	}
}
