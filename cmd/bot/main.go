package main

import (
	"context"
	"log"

	"dip_bot/internal/modules/config"
	"dip_bot/internal/modules/engine"
	"dip_bot/internal/modules/health"
	"dip_bot/internal/modules/postgres"
	telegram "dip_bot/internal/modules/telegram_bot"
	"dip_bot/internal/modules/upbit_client"
	"dip_bot/internal/modules/upbit_websocket"
	"dip_bot/pkg/logger"
	"dip_bot/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	if err := logger.Init("dip_bot"); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		health.Module(),
		upbit_client.Module(),
		upbit_websocket.Module(),
		engine.Module(),
		telegram.Module(),

		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			tracing.SetServiceName("dip_bot")
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
	)
	app.Run()
}
