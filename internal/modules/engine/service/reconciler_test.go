package service

import (
	"context"
	"errors"
	"testing"

	"dip_bot/internal/models"
)

func TestReconcilePartition(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	tracker := NewTracker(newMemStore())
	rec := NewReconciler(ex, tracker, "KRW-BTC")

	for _, id := range []string{"a", "b", "c"} {
		_ = tracker.Record(ctx, trackedOrder(id, "1"))
	}
	ex.openIDs = []string{"b"}

	res, err := rec.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(res.StillOpen) != 1 || res.StillOpen[0].OrderID != "b" {
		t.Errorf("StillOpen = %v, want [b]", res.StillOpen)
	}
	if len(res.FilledOrVanished) != 2 {
		t.Errorf("FilledOrVanished = %v, want [a c]", res.FilledOrVanished)
	}

	// разбиение точное: объединение — весь трекер, пересечение пусто
	seen := map[string]int{}
	for _, o := range res.StillOpen {
		seen[o.OrderID]++
	}
	for _, o := range res.FilledOrVanished {
		seen[o.OrderID]++
	}
	if len(seen) != tracker.Len() {
		t.Errorf("partition covers %d orders, tracker has %d", len(seen), tracker.Len())
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("order %s appears %d times in partition", id, n)
		}
	}
}

func TestReconcileIgnoresForeignOrders(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	tracker := NewTracker(newMemStore())
	rec := NewReconciler(ex, tracker, "KRW-BTC")

	_ = tracker.Record(ctx, trackedOrder("mine", "1"))
	// чужая заявка в открытом списке не попадает ни в одну часть
	ex.openIDs = []string{"mine", "someone-elses"}

	res, err := rec.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(res.StillOpen) != 1 || len(res.FilledOrVanished) != 0 {
		t.Errorf("partition = %v / %v, want only [mine] open", res.StillOpen, res.FilledOrVanished)
	}
}

func TestCancelOpenHappyPath(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	tracker := NewTracker(newMemStore())
	rec := NewReconciler(ex, tracker, "KRW-BTC")

	filled := trackedOrder("filled", "1")
	filled.BaseAmount = dec("0.001")
	filled.Price = dec("99000000")
	open := trackedOrder("open", "2")
	_ = tracker.Record(ctx, filled)
	_ = tracker.Record(ctx, open)
	ex.openIDs = []string{"open"}

	summary, cancelled, err := rec.CancelOpen(ctx)
	if err != nil {
		t.Fatalf("CancelOpen: %v", err)
	}
	if cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", cancelled)
	}
	if summary.Orders != 1 {
		t.Errorf("summary.Orders = %d, want 1", summary.Orders)
	}
	if tracker.Len() != 0 {
		t.Errorf("tracker.Len = %d, want 0 after close", tracker.Len())
	}
}

func TestCancelOpenKeepsFailedCancels(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	tracker := NewTracker(newMemStore())
	rec := NewReconciler(ex, tracker, "KRW-BTC")

	_ = tracker.Record(ctx, trackedOrder("sticky", "1"))
	_ = tracker.Record(ctx, trackedOrder("fine", "2"))
	ex.openIDs = []string{"sticky", "fine"}
	ex.cancelErr["sticky"] = errors.New("exchange 500")

	_, cancelled, err := rec.CancelOpen(ctx)
	if err != nil {
		t.Fatalf("CancelOpen: %v", err)
	}
	if cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", cancelled)
	}
	// не снятая заявка остаётся в трекере до следующей попытки
	if tracker.Len() != 1 {
		t.Fatalf("tracker.Len = %d, want 1", tracker.Len())
	}
	if tracker.ListAll()[0].OrderID != "sticky" {
		t.Errorf("kept order = %s, want sticky", tracker.ListAll()[0].OrderID)
	}
}

func TestCancelOpenNotFoundCountsAsFilled(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	tracker := NewTracker(newMemStore())
	rec := NewReconciler(ex, tracker, "KRW-BTC")

	o := trackedOrder("ghost", "1")
	o.BaseAmount = dec("0.001")
	o.Price = dec("99000000")
	_ = tracker.Record(ctx, o)
	// в открытом списке есть, но к моменту отмены уже исчезла
	ex.openIDs = []string{"ghost"}
	ex.cancelErr["ghost"] = models.ErrOrderNotFound

	summary, cancelled, err := rec.CancelOpen(ctx)
	if err != nil {
		t.Fatalf("CancelOpen: %v", err)
	}
	if cancelled != 0 {
		t.Errorf("cancelled = %d, want 0", cancelled)
	}
	if summary.Orders != 1 {
		t.Errorf("summary.Orders = %d, want 1: vanished order treated as filled", summary.Orders)
	}
	if tracker.Len() != 0 {
		t.Errorf("tracker.Len = %d, want 0", tracker.Len())
	}
}

func TestSummarizeWeightedAverage(t *testing.T) {
	a := trackedOrder("a", "1")
	a.BaseAmount = dec("0.001")
	a.Price = dec("99000000")
	b := trackedOrder("b", "2")
	b.BaseAmount = dec("0.002")
	b.Price = dec("98000000")

	s := Summarize([]models.TrackedOrder{a, b})
	if s.Orders != 2 {
		t.Errorf("Orders = %d, want 2", s.Orders)
	}
	if !s.TotalBase.Equal(dec("0.003")) {
		t.Errorf("TotalBase = %s, want 0.003", s.TotalBase)
	}
	if !s.TotalQuote.Equal(dec("295000")) {
		t.Errorf("TotalQuote = %s, want 295000", s.TotalQuote)
	}
	if !s.WeightedAvgPrice.Equal(dec("98333333.33")) {
		t.Errorf("WeightedAvgPrice = %s, want 98333333.33", s.WeightedAvgPrice)
	}
}

func TestMergeSummariesMatchesSinglePass(t *testing.T) {
	a := trackedOrder("a", "1")
	a.BaseAmount = dec("0.001")
	a.Price = dec("99000000")
	b := trackedOrder("b", "2")
	b.BaseAmount = dec("0.002")
	b.Price = dec("98000000")

	// закрытие в два прохода даёт тот же итог, что и в один
	merged := mergeSummaries(Summarize([]models.TrackedOrder{a}), Summarize([]models.TrackedOrder{b}))
	whole := Summarize([]models.TrackedOrder{a, b})

	if merged.Orders != whole.Orders ||
		!merged.TotalBase.Equal(whole.TotalBase) ||
		!merged.TotalQuote.Equal(whole.TotalQuote) ||
		!merged.WeightedAvgPrice.Equal(whole.WeightedAvgPrice) {
		t.Fatalf("merged = %+v, want %+v", merged, whole)
	}

	empty := mergeSummaries(models.FillSummary{}, models.FillSummary{})
	if empty.Orders != 0 || !empty.WeightedAvgPrice.IsZero() {
		t.Fatalf("empty merge = %+v, want zeros", empty)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Orders != 0 || !s.WeightedAvgPrice.IsZero() || !s.TotalBase.IsZero() {
		t.Errorf("empty summary = %+v, want zeros", s)
	}
}
