package models

import (
	"github.com/shopspring/decimal"
)

// Amounts are serialized as JSON numbers, not strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

const MoneyScale = 2

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ToMinorUnits converts an amount to cents (sen) for gateways that bill in
// minor units.
func ToMinorUnits(d decimal.Decimal) int64 {
	return RoundMoney(d).Shift(MoneyScale).IntPart()
}

func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -MoneyScale)
}

func MaxMoney(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
