package service

import (
	"context"
	"errors"
	"fmt"

	"dip_bot/internal/models"
	"dip_bot/pkg/logger"

	"github.com/shopspring/decimal"
)

// Exchange — контракт биржи, который потребляет движок.
type Exchange interface {
	OpeningPrice(ctx context.Context, market string) (decimal.Decimal, error)
	Balance(ctx context.Context, currency string) (models.Balance, error)
	PlaceLimitBuy(ctx context.Context, market string, volume, price decimal.Decimal) (string, error)
	CancelOrder(ctx context.Context, orderID string) error
	OpenOrders(ctx context.Context, market string) ([]string, error)
}

// ReconcileResult — точное разбиение трекера: объединение двух списков даёт
// ListAll, пересечение пусто.
type ReconcileResult struct {
	StillOpen        []models.TrackedOrder
	FilledOrVanished []models.TrackedOrder
}

// Reconciler сверяет трекер с авторитетным списком открытых заявок биржи.
// Не имеет своей блокировки: все вызовы сериализует движок.
type Reconciler struct {
	ex      Exchange
	tracker *Tracker
	market  string
}

func NewReconciler(ex Exchange, tracker *Tracker, market string) *Reconciler {
	return &Reconciler{
		ex:      ex,
		tracker: tracker,
		market:  market,
	}
}

// Reconcile разбивает трекер по принадлежности к открытым заявкам биржи.
// Заявка, пропавшая из списка, считается исполненной: апстрим не отличает
// fill от внешней отмены, эту неоднозначность фиксируем в логе, не решаем.
func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileResult, error) {
	openIDs, err := r.ex.OpenOrders(ctx, r.market)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("reconcile open orders: %w", err)
	}

	open := make(map[string]struct{}, len(openIDs))
	for _, id := range openIDs {
		open[id] = struct{}{}
	}

	var res ReconcileResult
	for _, o := range r.tracker.ListAll() {
		if _, ok := open[o.OrderID]; ok {
			res.StillOpen = append(res.StillOpen, o)
		} else {
			res.FilledOrVanished = append(res.FilledOrVanished, o)
		}
	}
	return res, nil
}

// CancelOpen снимает все ещё открытые наши заявки и считает статистику дня
// по исполненным. Возвращает итог и число успешно снятых заявок.
// Частичные сбои не прерывают цикл: не снятая заявка остаётся в трекере и
// будет переснята на следующем тике.
func (r *Reconciler) CancelOpen(ctx context.Context) (models.FillSummary, int, error) {
	res, err := r.Reconcile(ctx)
	if err != nil {
		return models.FillSummary{}, 0, err
	}

	cancelled := 0
	filled := res.FilledOrVanished
	for _, o := range res.StillOpen {
		if err := r.ex.CancelOrder(ctx, o.OrderID); err != nil {
			if errors.Is(err, models.ErrOrderNotFound) {
				// исчезла между Reconcile и Cancel — та же неоднозначность,
				// что и отсутствие в открытом списке
				logger.Info("reconciliation ambiguity: order %s vanished before cancel", o.OrderID)
				filled = append(filled, o)
				continue
			}
			logger.Error("cancel order %s failed, will retry next cycle: %v", o.OrderID, err)
			continue
		}
		cancelled++
		if err := r.tracker.Remove(ctx, o.OrderID); err != nil {
			logger.Error("untrack cancelled order %s: %v", o.OrderID, err)
		}
	}

	summary := Summarize(filled)
	for _, o := range filled {
		if err := r.tracker.Remove(ctx, o.OrderID); err != nil {
			logger.Error("untrack filled order %s: %v", o.OrderID, err)
		}
	}
	return summary, cancelled, nil
}

// Summarize — статистика покупок: суммарный объём и средневзвешенная цена.
// При пустом входе средняя равна нулю, на ноль не делим.
func Summarize(filled []models.TrackedOrder) models.FillSummary {
	totalBase := decimal.Zero
	totalQuote := decimal.Zero
	for _, o := range filled {
		totalBase = totalBase.Add(o.BaseAmount)
		totalQuote = totalQuote.Add(o.BaseAmount.Mul(o.Price))
	}

	avg := decimal.Zero
	if totalBase.IsPositive() {
		avg = totalQuote.DivRound(totalBase, 2)
	}
	return models.FillSummary{
		Orders:           len(filled),
		TotalBase:        totalBase,
		TotalQuote:       totalQuote,
		WeightedAvgPrice: avg,
	}
}

// mergeSummaries складывает итоги нескольких проходов закрытия и
// пересчитывает средневзвешенную цену по суммам.
func mergeSummaries(a, b models.FillSummary) models.FillSummary {
	totalBase := a.TotalBase.Add(b.TotalBase)
	totalQuote := a.TotalQuote.Add(b.TotalQuote)

	avg := decimal.Zero
	if totalBase.IsPositive() {
		avg = totalQuote.DivRound(totalBase, 2)
	}
	return models.FillSummary{
		Orders:           a.Orders + b.Orders,
		TotalBase:        totalBase,
		TotalQuote:       totalQuote,
		WeightedAvgPrice: avg,
	}
}
