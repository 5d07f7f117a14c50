package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dip_bot/internal/models"
	"dip_bot/internal/modules/config"
	"dip_bot/internal/modules/health"
	"dip_bot/internal/notify"
	"dip_bot/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

// Engine — дневной цикл Idle → Placing → Monitoring → Closing → Idle.
// Переходы только по времени, единственное исключение — ручной /cancel из
// Monitoring. Все мутации трекера и вызовы реконсилера идут под одним
// мьютексом: гонка «заявка уже на бирже, но ещё не в трекере» — главная,
// которую здесь давим.
type Engine struct {
	mu sync.Mutex

	cfg     *config.Config
	params  TierParams
	ex      Exchange
	tracker *Tracker
	rec     *Reconciler
	n       notify.Notifier
	metrics *health.Metrics

	loc *time.Location
	now func() time.Time

	phase        models.Phase
	placedDay    string // календарный день последнего размещения, защита от повторного входа
	lastSummary  *models.FillSummary
	daySummary   models.FillSummary // итог закрытия, копится между ретраями
	dayCancelled int
	notified     map[string]struct{} // uuid заявок, о которых монитор уже сообщил
}

func NewEngine(
	cfg *config.Config,
	ex Exchange,
	tracker *Tracker,
	n notify.Notifier,
	metrics *health.Metrics,
) (*Engine, error) {
	params, err := ParamsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		params:   params,
		ex:       ex,
		tracker:  tracker,
		rec:      NewReconciler(ex, tracker, cfg.Market),
		n:        n,
		metrics:  metrics,
		loc:      cfg.Location(),
		now:      time.Now,
		phase:    models.PhaseIdle,
		notified: make(map[string]struct{}),
	}, nil
}

// Bootstrap поднимает трекер из стора и восстанавливает фазу после рестарта:
// непустой трекер внутри окна — продолжаем мониторить, вне окна — первый же
// Tick закроет осиротевшие заявки.
func (e *Engine) Bootstrap(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.tracker.Load(ctx); err != nil {
		return err
	}
	if e.tracker.Len() == 0 {
		return nil
	}

	now := e.now().In(e.loc)
	e.phase = models.PhaseMonitoring
	if e.inWindow(now) {
		e.placedDay = now.Format("2006-01-02")
	}
	e.metrics.TrackedOpen.Set(float64(e.tracker.Len()))
	logger.Info("recovered %d tracked orders, phase=%s", e.tracker.Len(), e.phase)
	return nil
}

// Tick — единственный вход для обоих дневных переходов. Идемпотентен к
// дублям: повторный тик внутри того же дня ничего не переразмещает,
// повторное закрытие пустого трекера — no-op.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().In(e.loc)
	day := now.Format("2006-01-02")

	switch {
	case e.phase == models.PhaseMonitoring && !e.inWindow(now):
		if err := e.closeCycle(ctx); err != nil {
			logger.Error("close cycle: %v", err)
		}
	case e.phase == models.PhaseMonitoring && e.placedDay != day:
		// хвост вчерашнего закрытия дотянулся до нового окна — сначала
		// дожимаем его, размещение нового дня пойдёт следующим тиком
		if err := e.closeCycle(ctx); err != nil {
			logger.Error("close stale cycle: %v", err)
		}
	case e.phase == models.PhaseIdle && e.inWindow(now) && e.placedDay != day:
		if err := e.placeCycle(ctx, day); err != nil {
			logger.Error("place cycle: %v", err)
		}
	}
}

// PlaceToday — ручное размещение. Идущий цикл не трогаем.
func (e *Engine) PlaceToday(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != models.PhaseIdle {
		return models.ErrCycleActive
	}
	return e.placeCycle(ctx, e.now().In(e.loc).Format("2006-01-02"))
}

// CancelToday — ручной cancel-now: ранний вход в Closing из Monitoring.
func (e *Engine) CancelToday(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != models.PhaseMonitoring && e.tracker.Len() == 0 {
		return models.ErrNoActiveCycle
	}
	return e.closeCycle(ctx)
}

// Status — снапшот для команды /status.
func (e *Engine) Status() models.EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	return models.EngineStatus{
		Phase:       e.phase,
		Day:         e.placedDay,
		OpenOrders:  e.tracker.ListAll(),
		LastSummary: e.lastSummary,
	}
}

// PollFills — для монитора: какие наши заявки исполнились с прошлого опроса.
// Из трекера ничего не удаляет, итоговую статистику считает closeCycle.
func (e *Engine) PollFills(ctx context.Context) ([]models.TrackedOrder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != models.PhaseMonitoring {
		return nil, nil
	}

	res, err := e.rec.Reconcile(ctx)
	if err != nil {
		return nil, err
	}

	var fresh []models.TrackedOrder
	for _, o := range res.FilledOrVanished {
		if _, seen := e.notified[o.OrderID]; seen {
			continue
		}
		e.notified[o.OrderID] = struct{}{}
		fresh = append(fresh, o)
	}
	return fresh, nil
}

func (e *Engine) Phase() models.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// placeCycle вызывается под e.mu. Транзиентный сбой (цена открытия, баланс)
// оставляет фазу и трекер нетронутыми — ретрай на следующем тике, placedDay
// не ставим.
func (e *Engine) placeCycle(ctx context.Context, day string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "engine.placeCycle")
	defer span.Finish()

	e.phase = models.PhasePlacing

	ref, err := e.ex.OpeningPrice(ctx, e.cfg.Market)
	if err != nil {
		e.phase = models.PhaseIdle
		return fmt.Errorf("reference price: %w", err)
	}

	ladder, err := ComputeLadder(e.params, ref)
	if err != nil {
		// параметры валидировались на старте, сюда не попадаем; на всякий
		// случай день закрываем, чтобы не молотить ошибку весь день
		e.phase = models.PhaseIdle
		e.placedDay = day
		e.n.Sendf("❗️ Лесенка не посчиталась: %v", err)
		return err
	}
	for _, ex := range ladder.Excluded {
		logger.Error("tier %s%% excluded: %s", ex.DipPercent, ex.Reason)
	}

	bal, err := e.ex.Balance(ctx, quoteCurrency(e.cfg.Market))
	if err != nil {
		e.phase = models.PhaseIdle
		return fmt.Errorf("quote balance: %w", err)
	}

	check := CheckFunds(ladder, bal.Free, bal.Locked)
	if !check.Sufficient {
		e.phase = models.PhaseIdle
		e.placedDay = day
		e.metrics.CyclesSkipped.Inc()
		e.n.Send(msgSkipped(check))
		return nil
	}

	var placed []models.TrackedOrder
	for _, tier := range ladder.Tiers {
		id, err := e.ex.PlaceLimitBuy(ctx, e.cfg.Market, tier.BaseAmount, tier.TargetPrice)
		if err != nil {
			// сбой одной ступени не прерывает размещение остальных
			if errors.Is(err, models.ErrPlacementRejected) {
				logger.Error("tier %s%% rejected by exchange: %v", tier.DipPercent, err)
			} else {
				logger.Error("tier %s%% placement failed: %v", tier.DipPercent, err)
			}
			continue
		}

		o := models.TrackedOrder{
			OrderID:    id,
			DipPercent: tier.DipPercent,
			Price:      tier.TargetPrice,
			BaseAmount: tier.BaseAmount,
			PlacedAt:   e.now(),
		}
		if err := e.tracker.Record(ctx, o); err != nil {
			// заявка уже на бирже, а в трекер не записалась — известное окно
			// риска; заявку подберёт оператор по /check
			logger.Error("record placed order %s: %v", id, err)
		}
		placed = append(placed, o)
		e.metrics.OrdersPlaced.Inc()
	}

	e.placedDay = day
	e.metrics.TrackedOpen.Set(float64(e.tracker.Len()))
	e.n.Send(msgPlaced(placed, ladder.Excluded))

	if len(placed) > 0 {
		e.phase = models.PhaseMonitoring
	} else {
		e.phase = models.PhaseIdle
	}
	return nil
}

// closeCycle вызывается под e.mu. Итог дня копится в daySummary между
// ретраями: отчёт и lastSummary выставляются ровно один раз, когда трекер
// полностью осушен, иначе каждый ретрай слал бы дубль с потерянной
// статистикой.
func (e *Engine) closeCycle(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "engine.closeCycle")
	defer span.Finish()

	if e.tracker.Len() == 0 {
		// повторный вход с пустым трекером — безвредный no-op
		e.phase = models.PhaseIdle
		return nil
	}

	e.phase = models.PhaseClosing
	summary, cancelled, err := e.rec.CancelOpen(ctx)
	if err != nil {
		// открытый список не получили — фазу и трекер не трогаем, ретрай
		e.phase = models.PhaseMonitoring
		return err
	}

	e.daySummary = mergeSummaries(e.daySummary, summary)
	e.dayCancelled += cancelled
	e.metrics.OrdersCancelled.Add(float64(cancelled))
	e.metrics.TrackedOpen.Set(float64(e.tracker.Len()))

	if e.tracker.Len() > 0 {
		// часть заявок не снялась — остаёмся в Monitoring и пробуем снова
		e.phase = models.PhaseMonitoring
		return nil
	}

	final := e.daySummary
	cancelledTotal := e.dayCancelled
	e.daySummary = models.FillSummary{}
	e.dayCancelled = 0
	e.lastSummary = &final
	e.notified = make(map[string]struct{})
	e.n.Send(msgClosed(cancelledTotal, final))
	e.phase = models.PhaseIdle
	return nil
}

func (e *Engine) inWindow(now time.Time) bool {
	sh, sm := e.cfg.StartClock()
	eh, em := e.cfg.EndClock()
	start := time.Date(now.Year(), now.Month(), now.Day(), sh, sm, 0, 0, e.loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), eh, em, 0, 0, e.loc)
	return !now.Before(start) && now.Before(end)
}

// quoteCurrency "KRW-BTC" → "KRW".
func quoteCurrency(market string) string {
	if i := strings.Index(market, "-"); i > 0 {
		return market[:i]
	}
	return market
}
