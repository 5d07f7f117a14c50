package service

import (
	"context"
	"time"

	"dip_bot/internal/modules/health"
	"dip_bot/internal/notify"
	"dip_bot/pkg/logger"
)

// Monitor — фоновый опрос исполнений. Работает только в Monitoring, по
// одному уведомлению на свежеисполненную заявку. Остановка естественная:
// по отмене контекста просто не планируем следующий опрос, висящий вызов
// биржи не обрываем.
type Monitor struct {
	e        *Engine
	n        notify.Notifier
	metrics  *health.Metrics
	interval time.Duration
	timeout  time.Duration
}

func NewMonitor(e *Engine, n notify.Notifier, metrics *health.Metrics) *Monitor {
	return &Monitor{
		e:        e,
		n:        n,
		metrics:  metrics,
		interval: e.cfg.Schedule.FillPoll,
		timeout:  e.cfg.Schedule.TickTimeout,
	}
}

func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	// бюджет короче интервала: зависший опрос не наслаивается на следующий
	tctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	fresh, err := m.e.PollFills(tctx)
	if err != nil {
		// транзиентно, следующий тик повторит
		logger.Error("fill poll: %v", err)
		return
	}
	for _, o := range fresh {
		m.metrics.OrdersFilled.Inc()
		m.n.Send(msgFill(o))
	}
}
