package telegram

import (
	"context"

	"dip_bot/internal/modules/config"
	"dip_bot/internal/modules/telegram_bot/service"
	"dip_bot/internal/notify"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("telegram",
		// Бот отдельно от сервиса: нотифайер движка зависит только от него,
		// иначе цикл движок <-> telegram.
		fx.Provide(
			func(cfg *config.Config) (*tgbot.BotAPI, error) {
				return tgbot.NewBotAPI(cfg.Telegram.Token)
			},
		),

		fx.Provide(
			func(cfg *config.Config, bot *tgbot.BotAPI) notify.Notifier {
				return notify.NewTelegram(bot, cfg.Telegram.ChatID)
			},
		),

		fx.Provide(
			service.NewTelegram,
		),

		// Запуск основного цикла через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, ctx context.Context, t *service.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(context.Context) error {
						go func() { _ = t.Start(ctx) }()
						return nil
					},
					OnStop: func(context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
