package service

import (
	"dip_bot/internal/models"

	"github.com/shopspring/decimal"
)

// CheckFunds сравнивает капитал с потребностью лесенки. Зарезервированное в
// наших же открытых заявках считается доступным: при отмене оно вернётся,
// поэтому для сайзинга следующего дня это живые деньги.
// Недостаток — не ошибка, вызывающий сам решает пропускать день или нет.
func CheckFunds(ladder Ladder, freeBalance, reservedInOpenOrders decimal.Decimal) models.FundsCheck {
	required := ladder.RequiredQuote()
	available := freeBalance.Add(reservedInOpenOrders)
	return models.FundsCheck{
		Sufficient: available.GreaterThanOrEqual(required),
		Required:   required,
		Available:  available,
	}
}
