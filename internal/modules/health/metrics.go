package health

import "github.com/prometheus/client_golang/prometheus"

// Metrics — счётчики дневного цикла, отдаются на /metrics.
type Metrics struct {
	OrdersPlaced    prometheus.Counter
	OrdersCancelled prometheus.Counter
	OrdersFilled    prometheus.Counter
	CyclesSkipped   prometheus.Counter
	TrackedOpen     prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dip_orders_placed_total",
			Help: "Limit buy orders placed",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dip_orders_cancelled_total",
			Help: "Orders cancelled at cycle close",
		}),
		OrdersFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dip_orders_filled_total",
			Help: "Orders detected as filled",
		}),
		CyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dip_cycles_skipped_total",
			Help: "Daily cycles skipped (insufficient funds)",
		}),
		TrackedOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dip_tracked_open_orders",
			Help: "Orders currently tracked by the engine",
		}),
	}
	prometheus.MustRegister(
		m.OrdersPlaced,
		m.OrdersCancelled,
		m.OrdersFilled,
		m.CyclesSkipped,
		m.TrackedOpen,
	)
	return m
}
