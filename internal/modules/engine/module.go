package engine

import (
	"context"
	"time"

	"dip_bot/internal/modules/config"
	"dip_bot/internal/modules/engine/service"
	"dip_bot/internal/modules/engine/service/pg"
	healthsvc "dip_bot/internal/modules/health/service"
	"dip_bot/internal/notify"
	"dip_bot/pkg/logger"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			pg.NewOrders, // *pg.Orders
			func(o *pg.Orders) service.OrderStore {
				return o
			},
			service.NewTracker,
			service.NewEngine,
			service.NewMonitor,
		),

		// Загрузка трекера, восстановление фазы, запуск обоих драйверов:
		// дневных границ и монитора исполнений.
		fx.Invoke(func(
			lc fx.Lifecycle,
			ctx context.Context,
			cfg *config.Config,
			e *service.Engine,
			m *service.Monitor,
			state *healthsvc.State,
			n notify.Notifier,
		) {
			lc.Append(fx.Hook{
				OnStart: func(startCtx context.Context) error {
					if err := e.Bootstrap(startCtx); err != nil {
						return err
					}
					state.SetReady(true)

					// драйвер дневных границ: place на старте окна, cancel на конце
					go func() {
						ticker := time.NewTicker(cfg.Schedule.BoundaryPoll)
						defer ticker.Stop()
						for {
							select {
							case <-ctx.Done():
								return
							case <-ticker.C:
								tctx, cancel := context.WithTimeout(ctx, cfg.Schedule.TickTimeout)
								e.Tick(tctx)
								cancel()
							}
						}
					}()

					go m.Run(ctx)

					logger.Info("engine started: market=%s window=%s-%s", cfg.Market, cfg.Schedule.Start, cfg.Schedule.End)
					n.Sendf("🤖 Бот запущен.\nПара: %s\nОкно: %s–%s (%s)",
						cfg.Market, cfg.Schedule.Start, cfg.Schedule.End, cfg.Schedule.Timezone)
					return nil
				},
			})
		}),
	)
}
