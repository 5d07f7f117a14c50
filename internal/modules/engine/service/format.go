package service

import (
	"fmt"
	"strings"

	"dip_bot/internal/models"
)

// Тексты уведомлений дневного цикла. Ровно одно сообщение на каждый
// терминальный исход: размещено / пропущено / закрыто.

func msgPlaced(placed []models.TrackedOrder, excluded []models.ExcludedTier) string {
	var b strings.Builder
	if len(placed) == 0 {
		b.WriteString("❗️ Ни одна заявка не разместилась")
	} else {
		fmt.Fprintf(&b, "📥 Размещено заявок: %d\n", len(placed))
		for _, o := range placed {
			fmt.Fprintf(&b, "- %s%% дип: %s BTC @ %s KRW\n", o.DipPercent, o.BaseAmount, o.Price)
		}
	}
	for _, ex := range excluded {
		fmt.Fprintf(&b, "\n⚠️ Ступень %s%% исключена: %s", ex.DipPercent, ex.Reason)
	}
	return b.String()
}

func msgSkipped(check models.FundsCheck) string {
	return fmt.Sprintf(
		"💤 День пропущен: недостаточно средств.\nНужно: %s KRW\nДоступно: %s KRW",
		check.Required, check.Available,
	)
}

func msgClosed(cancelled int, summary models.FillSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📤 Снято заявок: %d\n", cancelled)
	if summary.Orders > 0 {
		fmt.Fprintf(&b, "📊 Куплено сегодня: %s BTC в %d заявках\nСредневзвешенная цена: %s KRW",
			summary.TotalBase, summary.Orders, summary.WeightedAvgPrice)
	} else {
		b.WriteString("📊 Сегодня ничего не исполнилось")
	}
	return b.String()
}

func msgFill(o models.TrackedOrder) string {
	return fmt.Sprintf("✅ Исполнилась заявка: %s%% дип, %s BTC @ %s KRW",
		o.DipPercent, o.BaseAmount, o.Price)
}
