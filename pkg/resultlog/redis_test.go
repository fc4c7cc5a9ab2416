package resultlog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestPublisher(t *testing.T, name string, ttl int) (*RedisPublisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	p := NewRedisPublisher(Config{Address: mr.Addr(), Name: name, TTL: ttl})
	t.Cleanup(func() { p.Close() })
	return p, mr
}

func TestPublish_SetsStateWithTTL(t *testing.T) {
	p, mr := newTestPublisher(t, "orders", 60)

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	result := ScanResult{Source: "orders.tds", StartedAt: started, ResultSets: 2, Rows: 6100, Fingerprint: "0123456789abcdef"}
	result.Finish(started.Add(1500*time.Millisecond), nil)

	if err := p.Publish(context.Background(), result); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	raw, err := mr.Get(StateKey("orders"))
	if err != nil {
		t.Fatalf("state key missing: %v", err)
	}
	var got ScanResult
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("invalid state JSON: %v", err)
	}
	if got.Name != "orders" || got.Status != StatusSuccess || got.Rows != 6100 || got.DurationMs != 1500 {
		t.Errorf("unexpected state: %+v", got)
	}
	if got.Error != nil {
		t.Errorf("Expected no error, got %q", *got.Error)
	}
	if ttl := mr.TTL(StateKey("orders")); ttl != time.Minute {
		t.Errorf("Expected TTL 1m, got %v", ttl)
	}
}

func TestPublish_Event(t *testing.T) {
	p, mr := newTestPublisher(t, "orders", 0)
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	sub := rdb.Subscribe(ctx, EventChannel("orders"))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	result := ScanResult{Source: "mssql", StartedAt: time.Now()}
	result.Finish(time.Now(), errors.New("failed to decode row: truncated record"))
	if err := p.Publish(ctx, result); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got ScanResult
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("invalid event JSON: %v", err)
		}
		if got.Status != StatusFailed {
			t.Errorf("Expected status failed, got %s", got.Status)
		}
		if got.Error == nil || *got.Error != "failed to decode row: truncated record" {
			t.Errorf("unexpected error field: %v", got.Error)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	if ttl := mr.TTL(StateKey("orders")); ttl != 0 {
		t.Errorf("Expected no TTL, got %v", ttl)
	}
}

func TestPublish_NameOverride(t *testing.T) {
	p, mr := newTestPublisher(t, "default", 0)

	if err := p.Publish(context.Background(), ScanResult{Name: "nightly"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !mr.Exists(StateKey("nightly")) {
		t.Error("Expected state under result name")
	}
	if mr.Exists(StateKey("default")) {
		t.Error("Unexpected state under config name")
	}
}

func TestPublish_EmptyName(t *testing.T) {
	p, _ := newTestPublisher(t, "", 0)
	if err := p.Publish(context.Background(), ScanResult{}); err == nil {
		t.Error("Expected error for empty name")
	}
}

func TestPublish_ServerDown(t *testing.T) {
	p, mr := newTestPublisher(t, "orders", 0)
	mr.Close()
	if err := p.Publish(context.Background(), ScanResult{}); err == nil {
		t.Error("Expected error when Redis is unavailable")
	}
}
