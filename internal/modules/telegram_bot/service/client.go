package service

import (
	"context"
	"fmt"

	"dip_bot/internal/modules/config"
	enginesvc "dip_bot/internal/modules/engine/service"
	healthsvc "dip_bot/internal/modules/health/service"
	upbitsvc "dip_bot/internal/modules/upbit_client/service"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram — командный интерфейс оператора. Один чат, один владелец:
// апдейты из чужих чатов игнорируем.
type Telegram struct {
	bot    *tgbot.BotAPI
	cfg    *config.Config
	engine *enginesvc.Engine
	upbit  *upbitsvc.Client
	state  *healthsvc.State
	chatID int64
}

func NewTelegram(
	cfg *config.Config,
	bot *tgbot.BotAPI,
	engine *enginesvc.Engine,
	upbit *upbitsvc.Client,
	state *healthsvc.State,
) *Telegram {
	return &Telegram{
		bot:    bot,
		cfg:    cfg,
		engine: engine,
		upbit:  upbit,
		state:  state,
		chatID: cfg.Telegram.ChatID,
	}
}

func (t *Telegram) Send(msg string) {
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) {
	t.Send(fmt.Sprintf(format, args...))
}

// Start ...
func (t *Telegram) Start(ctx context.Context) error {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)
	for update := range updates {
		t.handleUpdate(ctx, update)
	}
	return nil
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
}
