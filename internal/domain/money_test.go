package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTON(t *testing.T) {
	assert.Equal(t, "0", FormatTON(0))
	assert.Equal(t, "1", FormatTON(NanoPerTON))
	assert.Equal(t, "1.5", FormatTON(NanoPerTON+NanoPerTON/2))
	assert.Equal(t, "0.001", FormatTON(1_000_000))
	assert.Equal(t, "0.000000001", FormatTON(1))
	assert.Equal(t, "-2", FormatTON(-2*NanoPerTON))
	assert.Equal(t, "-0.25", FormatTON(-NanoPerTON/4))
	assert.Equal(t, "12.345", FormatTON(12_345_000_000))
}

func TestUSDCentsToNano(t *testing.T) {
	// $1.00 at $2/TON is half a TON.
	assert.Equal(t, NanoPerTON/2, USDCentsToNano(100, 2.0))
	assert.Equal(t, NanoPerTON, USDCentsToNano(200, 2.0))
	assert.Equal(t, int64(0), USDCentsToNano(0, 2.0))
	assert.Equal(t, int64(0), USDCentsToNano(-50, 2.0))
	assert.Equal(t, int64(0), USDCentsToNano(100, 0))
}

func TestUSDCentsToNanoRoundsDown(t *testing.T) {
	// 1 cent at $3/TON: 0.00333... TON, truncated not rounded up.
	got := USDCentsToNano(1, 3.0)
	assert.LessOrEqual(t, got, int64(3_333_334))
	assert.Greater(t, got, int64(3_333_000))

	// Never above the exact value for any small input.
	for cents := int64(1); cents <= 500; cents++ {
		nano := USDCentsToNano(cents, 1.7)
		exact := float64(cents) / 100 / 1.7 * float64(NanoPerTON)
		assert.LessOrEqual(t, float64(nano), exact)
	}
}
