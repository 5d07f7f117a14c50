package models

import "github.com/shopspring/decimal"

// FillSummary — итог торгового дня по исполненным заявкам.
type FillSummary struct {
	Orders           int
	TotalBase        decimal.Decimal // суммарно куплено BTC
	TotalQuote       decimal.Decimal // суммарно потрачено KRW
	WeightedAvgPrice decimal.Decimal // средневзвешенная цена, 0 если ничего не куплено
}

// FundsCheck — результат проверки капитала перед размещением лесенки.
// Недостаток средств — не ошибка, а нормальный исход (день пропускаем).
type FundsCheck struct {
	Sufficient bool
	Required   decimal.Decimal
	Available  decimal.Decimal
}

// Balance — баланс одного актива на бирже.
type Balance struct {
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// AccountBalance — строка для команды /check.
type AccountBalance struct {
	Currency string
	Total    decimal.Decimal
}
