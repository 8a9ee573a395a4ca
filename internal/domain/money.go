package domain

import (
	"math"
	"strconv"
	"strings"
)

// All balances and payouts are stored as signed 64-bit counts of nano-TON.
// Anything that mutates a balance works on these integers directly; floats
// only appear in display formatting and offer-price conversion, which happen
// before an amount is frozen into a task or transaction.
const NanoPerTON = int64(1_000_000_000)

// FormatTON renders a nano amount as a decimal TON string, trimming
// trailing zeros ("1.5", "0.001", "-2").
func FormatTON(nano int64) string {
	neg := nano < 0
	if neg {
		nano = -nano
	}

	whole := nano / NanoPerTON
	frac := nano % NanoPerTON

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatInt(whole, 10))

	if frac > 0 {
		fracStr := strconv.FormatInt(frac, 10)
		fracStr = strings.Repeat("0", 9-len(fracStr)) + fracStr
		fracStr = strings.TrimRight(fracStr, "0")
		b.WriteByte('.')
		b.WriteString(fracStr)
	}

	return b.String()
}

// USDCentsToNano converts a network payout quoted in USD cents to nano-TON
// at the given TON/USD rate, rounding down so conversion error never
// inflates a payout.
func USDCentsToNano(cents int64, tonUSDRate float64) int64 {
	if cents <= 0 || tonUSDRate <= 0 {
		return 0
	}
	ton := float64(cents) / 100 / tonUSDRate
	return int64(math.Floor(ton * float64(NanoPerTON)))
}
