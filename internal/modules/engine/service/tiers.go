package service

import (
	"fmt"
	"math"

	"dip_bot/internal/models"
	"dip_bot/internal/modules/config"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// TierParams — неизменяемые параметры лесенки на весь запуск.
type TierParams struct {
	MinDip               decimal.Decimal
	MaxDip               decimal.Decimal
	DipStep              decimal.Decimal
	BaseQuoteAmount      decimal.Decimal
	QuoteAmountIncrement decimal.Decimal
	PriceTickSize        decimal.Decimal
}

// Ladder — вычисленная лесенка плюс ступени, исключённые с причиной.
type Ladder struct {
	Tiers    []models.Tier
	Excluded []models.ExcludedTier
}

// RequiredQuote — суммарный капитал на всю лесенку.
func (l Ladder) RequiredQuote() decimal.Decimal {
	total := decimal.Zero
	for _, t := range l.Tiers {
		total = total.Add(t.QuoteAmount)
	}
	return total
}

// ParamsFromConfig переводит float-конфиг в decimal и повторяет валидацию:
// конфиг уже проверен на старте, но калькулятор самодостаточен для тестов.
func ParamsFromConfig(cfg *config.Config) (TierParams, error) {
	s := cfg.Strategy
	for name, v := range map[string]float64{
		"min_dip": s.MinDip, "max_dip": s.MaxDip, "dip_step": s.DipStep,
		"base_quote_amount":      s.BaseQuoteAmount,
		"quote_amount_increment": s.QuoteAmountIncrement,
		"price_tick_size":        s.PriceTickSize,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return TierParams{}, fmt.Errorf("%w: %s is not finite", models.ErrInvalidConfiguration, name)
		}
	}
	p := TierParams{
		MinDip:               decimal.NewFromFloat(s.MinDip),
		MaxDip:               decimal.NewFromFloat(s.MaxDip),
		DipStep:              decimal.NewFromFloat(s.DipStep),
		BaseQuoteAmount:      decimal.NewFromFloat(s.BaseQuoteAmount),
		QuoteAmountIncrement: decimal.NewFromFloat(s.QuoteAmountIncrement),
		PriceTickSize:        decimal.NewFromFloat(s.PriceTickSize),
	}
	return p, p.validate()
}

func (p TierParams) validate() error {
	if p.MinDip.GreaterThan(p.MaxDip) {
		return fmt.Errorf("%w: min dip %s > max dip %s", models.ErrInvalidConfiguration, p.MinDip, p.MaxDip)
	}
	if p.DipStep.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: dip step must be > 0", models.ErrInvalidConfiguration)
	}
	if p.BaseQuoteAmount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: base quote amount must be > 0", models.ErrInvalidConfiguration)
	}
	if p.QuoteAmountIncrement.IsNegative() {
		return fmt.Errorf("%w: quote amount increment must be >= 0", models.ErrInvalidConfiguration)
	}
	if p.PriceTickSize.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: price tick size must be > 0", models.ErrInvalidConfiguration)
	}
	return nil
}

// ComputeLadder строит лесенку от referencePrice. Чистая функция, без I/O.
// Скидка идёт от MinDip к MaxDip с шагом DipStep; значение, вылезающее за
// MaxDip, исключается, а не прижимается. Цена ступени округляется вниз до
// кратного PriceTickSize; ступень с неположительной ценой попадает в
// Excluded с причиной.
func ComputeLadder(p TierParams, referencePrice decimal.Decimal) (Ladder, error) {
	if err := p.validate(); err != nil {
		return Ladder{}, err
	}
	if referencePrice.LessThanOrEqual(decimal.Zero) {
		return Ladder{}, fmt.Errorf("%w: reference price must be > 0", models.ErrInvalidConfiguration)
	}

	var ladder Ladder
	for i, dip := 0, p.MinDip; dip.LessThanOrEqual(p.MaxDip); i, dip = i+1, dip.Add(p.DipStep) {
		raw := referencePrice.Mul(hundred.Sub(dip)).Div(hundred)
		price := raw.Div(p.PriceTickSize).Floor().Mul(p.PriceTickSize)
		if price.LessThanOrEqual(decimal.Zero) {
			ladder.Excluded = append(ladder.Excluded, models.ExcludedTier{
				DipPercent: dip,
				Reason:     fmt.Sprintf("target price %s rounds to zero at tick %s", raw, p.PriceTickSize),
			})
			continue
		}

		quote := p.BaseQuoteAmount.Add(p.QuoteAmountIncrement.Mul(decimal.NewFromInt(int64(i))))
		ladder.Tiers = append(ladder.Tiers, models.Tier{
			DipPercent:  dip,
			TargetPrice: price,
			QuoteAmount: quote,
			BaseAmount:  quote.Div(price).Round(8),
		})
	}
	return ladder, nil
}
