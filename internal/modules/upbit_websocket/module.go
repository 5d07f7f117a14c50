package upbit_websocket

import (
	"context"

	"dip_bot/internal/modules/upbit_websocket/service"

	"go.uber.org/fx"
)

// Module поднимает стример тикеров Upbit.
func Module() fx.Option {
	return fx.Module("upbit_websocket",
		fx.Provide(
			service.NewClient,
		),
		fx.Invoke(func(lc fx.Lifecycle, ctx context.Context, c *service.Client) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go c.Start(ctx)
					return nil
				},
			})
		}),
	)
}
