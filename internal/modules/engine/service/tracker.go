package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dip_bot/internal/models"
)

// OrderStore — durable-хранилище трекера. Мутация пишется в стор синхронно,
// до обновления памяти: окно «заявка на бирже, но не в трекере» остаётся
// только между вызовом биржи и Record.
type OrderStore interface {
	Insert(ctx context.Context, order models.TrackedOrder) error
	Delete(ctx context.Context, orderID string) error
	DeleteAll(ctx context.Context) error
	SelectAll(ctx context.Context) ([]models.TrackedOrder, error)
}

// Tracker — единственный владелец записей о наших заявках. Reconciler и
// монитор читают снапшоты и просят удаления, напрямую не мутируют.
type Tracker struct {
	store OrderStore

	mu     sync.RWMutex
	orders map[string]models.TrackedOrder
}

func NewTracker(store OrderStore) *Tracker {
	return &Tracker{
		store:  store,
		orders: make(map[string]models.TrackedOrder),
	}
}

// Load поднимает трекер из стора на старте процесса.
func (t *Tracker) Load(ctx context.Context) error {
	rows, err := t.store.SelectAll(ctx)
	if err != nil {
		return fmt.Errorf("tracker load: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.orders = make(map[string]models.TrackedOrder, len(rows))
	for _, o := range rows {
		t.orders[o.OrderID] = o
	}
	return nil
}

func (t *Tracker) Record(ctx context.Context, order models.TrackedOrder) error {
	if err := t.store.Insert(ctx, order); err != nil {
		return fmt.Errorf("tracker record %s: %w", order.OrderID, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.orders[order.OrderID] = order
	return nil
}

// Remove идемпотентен: неизвестный id — no-op, ретраи безопасны.
func (t *Tracker) Remove(ctx context.Context, orderID string) error {
	if err := t.store.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("tracker remove %s: %w", orderID, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.orders, orderID)
	return nil
}

func (t *Tracker) Clear(ctx context.Context) error {
	if err := t.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("tracker clear: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.orders = make(map[string]models.TrackedOrder)
	return nil
}

// ListAll — снапшот, отсортированный по скидке.
func (t *Tracker) ListAll() []models.TrackedOrder {
	t.mu.RLock()
	defer t.mu.RUnlock()

	res := make([]models.TrackedOrder, 0, len(t.orders))
	for _, o := range t.orders {
		res = append(res, o)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].DipPercent.LessThan(res[j].DipPercent)
	})
	return res
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.orders)
}
