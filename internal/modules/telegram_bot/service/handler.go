package service

import (
	"context"
	"errors"

	"dip_bot/internal/models"
	"dip_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	if msg.Chat.ID != t.chatID {
		// не наш чат
		return
	}
	if !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		t.handleStart()
	case "check":
		t.handleCheck(ctx)
	case "place":
		t.handlePlace(ctx)
	case "cancel":
		t.handleCancel(ctx)
	case "status":
		t.handleStatus()
	default:
		t.Send("Не знаю такой команды. Доступно: /check /place /cancel /status")
	}
}

func (t *Telegram) handleStart() {
	t.Sendf(
		"Привет! Я бот покупки просадок на Upbit.\n\n"+
			"Пара: %s\n"+
			"Окно: %s–%s (%s)\n\n"+
			"Команды:\n"+
			"/check — балансы аккаунта\n"+
			"/place — выставить лесенку сейчас\n"+
			"/cancel — закрыть день сейчас\n"+
			"/status — фаза и открытые заявки",
		t.cfg.Market, t.cfg.Schedule.Start, t.cfg.Schedule.End, t.cfg.Schedule.Timezone,
	)
}

// /check — сырые балансы, полезно перед ручным /place.
func (t *Telegram) handleCheck(ctx context.Context) {
	balances, err := t.upbit.Balances(ctx)
	if err != nil {
		logger.Error("handleCheck: %v", err)
		t.Sendf("❗️ Не удалось получить балансы: %v", err)
		return
	}
	t.Send(formatBalances(balances))
}

func (t *Telegram) handlePlace(ctx context.Context) {
	err := t.engine.PlaceToday(ctx)
	switch {
	case err == nil:
		// движок сам отчитался о результате размещения
	case errors.Is(err, models.ErrCycleActive):
		t.Send("⚠️ Цикл уже активен — сначала /cancel.")
	default:
		logger.Error("handlePlace: %v", err)
		t.Sendf("❗️ Размещение не удалось: %v", err)
	}
}

func (t *Telegram) handleCancel(ctx context.Context) {
	err := t.engine.CancelToday(ctx)
	switch {
	case err == nil:
		// движок сам отчитался итогом дня
	case errors.Is(err, models.ErrNoActiveCycle):
		t.Send("⚠️ Активного цикла нет — отменять нечего.")
	default:
		logger.Error("handleCancel: %v", err)
		t.Sendf("❗️ Закрытие дня не удалось: %v", err)
	}
}

func (t *Telegram) handleStatus() {
	t.Send(formatStatus(t.engine.Status(), t.state))
}
