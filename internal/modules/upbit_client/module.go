package upbit_client

import (
	enginesvc "dip_bot/internal/modules/engine/service"
	"dip_bot/internal/modules/upbit_client/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("upbit_client",
		fx.Provide(
			service.NewClient,
			func(c *service.Client) enginesvc.Exchange {
				return c
			},
		),
	)
}
