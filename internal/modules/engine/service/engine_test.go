package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dip_bot/internal/models"

	"github.com/shopspring/decimal"
)

func TestTickPlacesLadderInWindow(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	e, tracker, n := newTestEngine(t, ex)

	at(e, 1, 0)
	e.Tick(ctx)

	if got := e.Phase(); got != models.PhaseMonitoring {
		t.Fatalf("phase = %s, want monitoring", got)
	}
	if len(ex.placed) != 3 {
		t.Fatalf("placed %d orders, want 3", len(ex.placed))
	}
	if tracker.Len() != 3 {
		t.Fatalf("tracker.Len = %d, want 3", tracker.Len())
	}
	if len(n.msgs) != 1 {
		t.Fatalf("got %d notifications, want 1", len(n.msgs))
	}
}

func TestTickIdempotentWithinDay(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	e, _, _ := newTestEngine(t, ex)

	at(e, 1, 0)
	e.Tick(ctx)
	placedOnce := len(ex.placed)

	// повторные тики того же дня ничего не переразмещают
	e.Tick(ctx)
	at(e, 12, 0)
	e.Tick(ctx)

	if len(ex.placed) != placedOnce {
		t.Fatalf("placed grew from %d to %d on duplicate ticks", placedOnce, len(ex.placed))
	}
}

func TestTickOutsideWindowDoesNothing(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	e, _, _ := newTestEngine(t, ex)

	// до старта окна
	at(e, 0, 0)
	e.Tick(ctx)

	if e.Phase() != models.PhaseIdle {
		t.Fatalf("phase = %s, want idle", e.Phase())
	}
	if len(ex.placed) != 0 {
		t.Fatalf("placed %d orders before window start", len(ex.placed))
	}
}

func TestTickClosesAtWindowEnd(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	e, tracker, n := newTestEngine(t, ex)

	at(e, 1, 0)
	e.Tick(ctx)

	// одна исполнилась, две остались открытыми
	ex.markFilled(ex.placed[0])

	at(e, 23, 50)
	e.Tick(ctx)

	if e.Phase() != models.PhaseIdle {
		t.Fatalf("phase = %s, want idle", e.Phase())
	}
	if tracker.Len() != 0 {
		t.Fatalf("tracker.Len = %d, want 0", tracker.Len())
	}
	if len(ex.cancelled) != 2 {
		t.Fatalf("cancelled %d, want 2", len(ex.cancelled))
	}

	st := e.Status()
	if st.LastSummary == nil || st.LastSummary.Orders != 1 {
		t.Fatalf("LastSummary = %+v, want 1 filled order", st.LastSummary)
	}
	if len(n.msgs) != 2 {
		t.Fatalf("got %d notifications, want place+close", len(n.msgs))
	}
}

func TestSkipDayOnInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	ex.balance = models.Balance{Free: dec("100")}
	e, _, n := newTestEngine(t, ex)

	at(e, 1, 0)
	e.Tick(ctx)

	if e.Phase() != models.PhaseIdle {
		t.Fatalf("phase = %s, want idle", e.Phase())
	}
	if len(ex.placed) != 0 {
		t.Fatalf("placed %d orders on insufficient funds", len(ex.placed))
	}
	if len(n.msgs) != 1 {
		t.Fatalf("got %d notifications, want skip message", len(n.msgs))
	}

	// день пропущен целиком, не перепроверяем
	e.Tick(ctx)
	if len(n.msgs) != 1 {
		t.Fatal("skip decision must hold for the rest of the day")
	}
}

func TestReservedFundsCountAsAvailable(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	// свободных не хватает, но вместе с резервом в открытых заявках — хватает
	ex.balance = models.Balance{Free: dec("15000"), Locked: dec("10000")}
	e, _, _ := newTestEngine(t, ex)

	at(e, 1, 0)
	e.Tick(ctx)

	if len(ex.placed) != 3 {
		t.Fatalf("placed %d orders, want 3", len(ex.placed))
	}
}

func TestTransientFailureRetriesSameDay(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	ex.openingErr = errors.New("exchange 503")
	e, _, _ := newTestEngine(t, ex)

	at(e, 1, 0)
	e.Tick(ctx)

	if e.Phase() != models.PhaseIdle {
		t.Fatalf("phase = %s, want idle after transient failure", e.Phase())
	}

	// биржа ожила — тот же день размещается
	ex.openingErr = nil
	at(e, 1, 5)
	e.Tick(ctx)

	if len(ex.placed) != 3 {
		t.Fatalf("placed %d orders after recovery, want 3", len(ex.placed))
	}
}

func TestRejectedTierDoesNotAbortLadder(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	ex.placeErr = func(price decimal.Decimal) error {
		if price.Equal(dec("98000000")) {
			return models.ErrPlacementRejected
		}
		return nil
	}
	e, tracker, _ := newTestEngine(t, ex)

	at(e, 1, 0)
	e.Tick(ctx)

	if len(ex.placed) != 2 {
		t.Fatalf("placed %d orders, want 2 of 3", len(ex.placed))
	}
	if tracker.Len() != 2 {
		t.Fatalf("tracker.Len = %d, want 2", tracker.Len())
	}
	if e.Phase() != models.PhaseMonitoring {
		t.Fatalf("phase = %s, want monitoring", e.Phase())
	}
}

func TestManualPlaceAndCancel(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	e, tracker, _ := newTestEngine(t, ex)
	at(e, 12, 0)

	if err := e.PlaceToday(ctx); err != nil {
		t.Fatalf("PlaceToday: %v", err)
	}
	if err := e.PlaceToday(ctx); !errors.Is(err, models.ErrCycleActive) {
		t.Fatalf("second PlaceToday err = %v, want ErrCycleActive", err)
	}

	if err := e.CancelToday(ctx); err != nil {
		t.Fatalf("CancelToday: %v", err)
	}
	if e.Phase() != models.PhaseIdle || tracker.Len() != 0 {
		t.Fatalf("phase = %s, tracker = %d, want idle and empty", e.Phase(), tracker.Len())
	}

	if err := e.CancelToday(ctx); !errors.Is(err, models.ErrNoActiveCycle) {
		t.Fatalf("CancelToday on idle err = %v, want ErrNoActiveCycle", err)
	}
}

func TestCloseFailureStaysMonitoring(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	e, tracker, _ := newTestEngine(t, ex)

	at(e, 1, 0)
	e.Tick(ctx)

	ex.openErr = errors.New("exchange 500")
	at(e, 23, 50)
	e.Tick(ctx)

	// список открытых не получили — ничего не трогаем, ретрай на следующем тике
	if e.Phase() != models.PhaseMonitoring {
		t.Fatalf("phase = %s, want monitoring", e.Phase())
	}
	if tracker.Len() != 3 {
		t.Fatalf("tracker.Len = %d, want 3", tracker.Len())
	}

	ex.openErr = nil
	at(e, 23, 55)
	e.Tick(ctx)
	if e.Phase() != models.PhaseIdle || tracker.Len() != 0 {
		t.Fatalf("retry close failed: phase = %s, tracker = %d", e.Phase(), tracker.Len())
	}
}

func TestCloseRetryNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	e, tracker, n := newTestEngine(t, ex)

	at(e, 1, 0)
	e.Tick(ctx)

	// одна исполнилась, одна из оставшихся не снимается
	ex.markFilled(ex.placed[0])
	sticky := ex.placed[1]
	ex.cancelErr[sticky] = errors.New("exchange 500")

	at(e, 23, 50)
	e.Tick(ctx)
	at(e, 23, 51)
	e.Tick(ctx)

	// пока закрытие не добито — только отчёт о размещении, без дублей
	if len(n.msgs) != 1 {
		t.Fatalf("got %d notifications mid-close, want 1", len(n.msgs))
	}
	if e.Phase() != models.PhaseMonitoring {
		t.Fatalf("phase = %s, want monitoring", e.Phase())
	}
	if st := e.Status(); st.LastSummary != nil {
		t.Fatalf("LastSummary = %+v before close completes, want nil", st.LastSummary)
	}

	delete(ex.cancelErr, sticky)
	at(e, 23, 52)
	e.Tick(ctx)

	if len(n.msgs) != 2 {
		t.Fatalf("got %d notifications, want exactly one close report", len(n.msgs))
	}
	st := e.Status()
	if st.LastSummary == nil || st.LastSummary.Orders != 1 {
		t.Fatalf("LastSummary = %+v, want the filled order preserved across retries", st.LastSummary)
	}
	if e.Phase() != models.PhaseIdle || tracker.Len() != 0 {
		t.Fatalf("phase = %s, tracker = %d, want idle and empty", e.Phase(), tracker.Len())
	}
}

func TestStaleMonitoringClosesNextDay(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	e, tracker, n := newTestEngine(t, ex)

	at(e, 1, 0)
	e.Tick(ctx)

	// биржа лежит весь вечер — закрытие не удаётся до конца blackout
	ex.openErr = errors.New("exchange 500")
	at(e, 23, 50)
	e.Tick(ctx)
	if e.Phase() != models.PhaseMonitoring {
		t.Fatalf("phase = %s, want monitoring", e.Phase())
	}

	nextDay := func(hour, min int) {
		e.now = func() time.Time {
			return time.Date(2026, 3, 11, hour, min, 0, 0, time.UTC)
		}
	}

	// новый день внутри окна: сначала дожимаем вчерашнее закрытие
	ex.openErr = nil
	nextDay(0, 16)
	e.Tick(ctx)

	if e.Phase() != models.PhaseIdle {
		t.Fatalf("phase = %s after stale close, want idle", e.Phase())
	}
	if tracker.Len() != 0 {
		t.Fatalf("tracker.Len = %d, want 0", tracker.Len())
	}

	// следующий тик размещает лесенку нового дня
	nextDay(0, 17)
	e.Tick(ctx)
	if len(ex.placed) != 6 {
		t.Fatalf("placed %d orders total, want 3 per day", len(ex.placed))
	}
	if e.Phase() != models.PhaseMonitoring {
		t.Fatalf("phase = %s, want monitoring after next-day placement", e.Phase())
	}
	if len(n.msgs) != 3 {
		t.Fatalf("got %d notifications, want place+close+place", len(n.msgs))
	}
}

func TestPollFillsReportsEachFillOnce(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	e, _, _ := newTestEngine(t, ex)

	at(e, 1, 0)
	e.Tick(ctx)

	fresh, err := e.PollFills(ctx)
	if err != nil {
		t.Fatalf("PollFills: %v", err)
	}
	if len(fresh) != 0 {
		t.Fatalf("got %d fills before any fill", len(fresh))
	}

	ex.markFilled(ex.placed[1])

	fresh, err = e.PollFills(ctx)
	if err != nil {
		t.Fatalf("PollFills: %v", err)
	}
	if len(fresh) != 1 || fresh[0].OrderID != ex.placed[1] {
		t.Fatalf("fresh = %v, want [%s]", fresh, ex.placed[1])
	}

	// повторный опрос молчит про уже объявленное
	fresh, err = e.PollFills(ctx)
	if err != nil {
		t.Fatalf("PollFills: %v", err)
	}
	if len(fresh) != 0 {
		t.Fatalf("got %d fills on repeat poll, want 0", len(fresh))
	}
}

func TestPollFillsIdleIsNoop(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	e, _, _ := newTestEngine(t, ex)

	fresh, err := e.PollFills(ctx)
	if err != nil {
		t.Fatalf("PollFills: %v", err)
	}
	if fresh != nil {
		t.Fatalf("fresh = %v, want nil outside monitoring", fresh)
	}
}

func TestBootstrapRecoversTrackedOrders(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()

	store := newMemStore()
	store.orders["a"] = trackedOrder("a", "1")
	tracker := NewTracker(store)
	n := &fakeNotifier{}
	e, err := NewEngine(testConfig(), ex, tracker, n, testMetrics())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	at(e, 12, 0)

	if err := e.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if e.Phase() != models.PhaseMonitoring {
		t.Fatalf("phase = %s, want monitoring after recovery", e.Phase())
	}
	if tracker.Len() != 1 {
		t.Fatalf("tracker.Len = %d, want 1", tracker.Len())
	}
}
