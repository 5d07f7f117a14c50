package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dip_bot/internal/models"
)

func trackedOrder(id, dip string) models.TrackedOrder {
	return models.TrackedOrder{
		OrderID:    id,
		DipPercent: dec(dip),
		Price:      dec("99000000"),
		BaseAmount: dec("0.0001"),
		PlacedAt:   time.Now(),
	}
}

func TestTrackerRecordAndList(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newMemStore())

	for _, o := range []models.TrackedOrder{
		trackedOrder("b", "3"),
		trackedOrder("a", "1"),
		trackedOrder("c", "2"),
	} {
		if err := tracker.Record(ctx, o); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	if tracker.Len() != 3 {
		t.Fatalf("Len = %d, want 3", tracker.Len())
	}

	// снапшот отсортирован по скидке
	list := tracker.ListAll()
	for i, want := range []string{"a", "c", "b"} {
		if list[i].OrderID != want {
			t.Errorf("list[%d] = %s, want %s", i, list[i].OrderID, want)
		}
	}
}

func TestTrackerRemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newMemStore())

	if err := tracker.Record(ctx, trackedOrder("a", "1")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := tracker.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := tracker.Remove(ctx, "a"); err != nil {
		t.Fatalf("second Remove must be no-op, got %v", err)
	}
	if err := tracker.Remove(ctx, "never-existed"); err != nil {
		t.Fatalf("Remove of unknown id must be no-op, got %v", err)
	}
	if tracker.Len() != 0 {
		t.Fatalf("Len = %d, want 0", tracker.Len())
	}
}

func TestTrackerLoad(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.orders["a"] = trackedOrder("a", "1")
	store.orders["b"] = trackedOrder("b", "2")

	tracker := NewTracker(store)
	if err := tracker.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tracker.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tracker.Len())
	}
}

func TestTrackerClear(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	tracker := NewTracker(store)

	_ = tracker.Record(ctx, trackedOrder("a", "1"))
	_ = tracker.Record(ctx, trackedOrder("b", "2"))
	if err := tracker.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if tracker.Len() != 0 || len(store.orders) != 0 {
		t.Fatal("Clear must empty both memory and store")
	}
}

func TestTrackerStoreFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	tracker := NewTracker(store)

	_ = tracker.Record(ctx, trackedOrder("a", "1"))

	// стор отказал — память не мутируем, сначала durable-запись
	store.insertErr = errors.New("pg down")
	if err := tracker.Record(ctx, trackedOrder("b", "2")); err == nil {
		t.Fatal("Record must surface store error")
	}
	if tracker.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tracker.Len())
	}

	store.deleteErr = errors.New("pg down")
	if err := tracker.Remove(ctx, "a"); err == nil {
		t.Fatal("Remove must surface store error")
	}
	if tracker.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after failed remove", tracker.Len())
	}
}
