package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestSnapshotUpsert(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	written := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	if err := client.StoreSnapshot(ctx, "whales.json", []byte(`[]`), 100, written); err != nil {
		t.Fatalf("first store: %v", err)
	}
	if err := client.StoreSnapshot(ctx, "whales.json", []byte(`[1]`), 200, written.Add(time.Second)); err != nil {
		t.Fatalf("second store: %v", err)
	}

	got, err := client.GetSnapshot(ctx, "whales.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != `[1]` || got.Version != 200 {
		t.Errorf("expected latest row, got %+v", got)
	}

	// a stale version must not replace a newer one
	if err := client.StoreSnapshot(ctx, "whales.json", []byte(`[0]`), 150, written); err != nil {
		t.Fatalf("stale store: %v", err)
	}
	got, _ = client.GetSnapshot(ctx, "whales.json")
	if got.Version != 200 {
		t.Errorf("stale write replaced newer row: %+v", got)
	}

	records, err := client.ListSnapshots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("expected a single row per artifact, got %d", len(records))
	}
}

func TestSnapshotSameVersionRewrite(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	written := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	// two writes inside one millisecond carry the same version
	if err := client.StoreSnapshot(ctx, "orderflow.json", []byte(`{"a":1}`), 500, written); err != nil {
		t.Fatal(err)
	}
	if err := client.StoreSnapshot(ctx, "orderflow.json", []byte(`{"a":2}`), 500, written); err != nil {
		t.Fatal(err)
	}

	got, err := client.GetSnapshot(ctx, "orderflow.json")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != `{"a":2}` {
		t.Errorf("same-version rewrite was dropped, mirror holds %s", got.Content)
	}
}

func TestGetSnapshotMissing(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GetSnapshot(context.Background(), "nope.json")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestListSnapshotsOrdered(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	now := time.Now()

	for i, name := range []string{"whales.json", "orderflow.json", "full_trades_chrono.txt"} {
		if err := client.StoreSnapshot(ctx, name, []byte("x"), int64(i+1), now); err != nil {
			t.Fatal(err)
		}
	}

	records, err := client.ListSnapshots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[0].Name != "full_trades_chrono.txt" || records[2].Name != "whales.json" {
		t.Errorf("unexpected order %+v", records)
	}
}
