package service

import (
	"fmt"
	"strings"
	"time"

	"dip_bot/internal/models"
	healthsvc "dip_bot/internal/modules/health/service"
)

func formatStatus(st models.EngineStatus, state *healthsvc.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 Статус\n")
	fmt.Fprintf(&b, "Фаза: %s\n", st.Phase)
	if st.Day != "" {
		fmt.Fprintf(&b, "День: %s\n", st.Day)
	}

	ws := "❌"
	if state.WSConnected() {
		ws = "✅"
	}
	fmt.Fprintf(&b, "WS: %s", ws)
	if p := state.LastPrice(); p.Sign() > 0 {
		fmt.Fprintf(&b, ", цена %s", p.StringFixed(0))
	}
	fmt.Fprintf(&b, "\nАптайм: %s\n", state.Uptime().Round(time.Second))

	if len(st.OpenOrders) == 0 {
		b.WriteString("\n📭 Открытых заявок нет")
	} else {
		fmt.Fprintf(&b, "\n📋 Открытые заявки (%d):\n", len(st.OpenOrders))
		for _, o := range st.OpenOrders {
			fmt.Fprintf(&b, "• -%s%%: %s по %s\n",
				o.DipPercent.String(), o.BaseAmount.String(), o.Price.StringFixed(0))
		}
	}

	if s := st.LastSummary; s != nil {
		b.WriteString("\n\n")
		b.WriteString(formatSummary(*s))
	}

	return b.String()
}

func formatSummary(s models.FillSummary) string {
	if s.Orders == 0 {
		return "Итог прошлого дня: исполнений не было"
	}
	return fmt.Sprintf(
		"Итог прошлого дня: %d заявок\nКуплено: %s\nПотрачено: %s\nСредняя: %s",
		s.Orders, s.TotalBase.String(), s.TotalQuote.StringFixed(0), s.WeightedAvgPrice.StringFixed(2),
	)
}

func formatBalances(balances []models.AccountBalance) string {
	if len(balances) == 0 {
		return "📭 Балансы пустые"
	}
	var b strings.Builder
	b.WriteString("💰 Балансы:\n")
	for _, bal := range balances {
		fmt.Fprintf(&b, "• %s: %s\n", bal.Currency, bal.Total.String())
	}
	return b.String()
}
