package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier — одна ступень лесенки: лимитная заявка на покупку со скидкой
// DipPercent от цены открытия дня.
type Tier struct {
	DipPercent  decimal.Decimal
	TargetPrice decimal.Decimal // цена заявки, кратна шагу цены биржи
	QuoteAmount decimal.Decimal // сколько KRW выделено на ступень
	BaseAmount  decimal.Decimal // объём BTC = QuoteAmount / TargetPrice
}

// ExcludedTier — ступень, выброшенная из лесенки (например, цена после
// округления ушла в ноль). Не теряем молча, отчитываемся.
type ExcludedTier struct {
	DipPercent decimal.Decimal
	Reason     string
}

// TrackedOrder — заявка, которую разместил именно наш движок.
// Владеет записями только трекер, остальные читают снапшоты.
type TrackedOrder struct {
	OrderID    string
	DipPercent decimal.Decimal
	Price      decimal.Decimal
	BaseAmount decimal.Decimal
	PlacedAt   time.Time
}
