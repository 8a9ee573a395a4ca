package ton

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	assert.True(t, ValidateAddress("EQDrjaLahLkMB-hMCmkzOyBuHJ139ZUYmPHu6RRBKnbdLIYI"))
	assert.True(t, ValidateAddress("UQDrjaLahLkMB-hMCmkzOyBuHJ139ZUYmPHu6RRBKnbdLNsz"))
	assert.True(t, ValidateAddress("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"))

	assert.False(t, ValidateAddress(""))
	assert.False(t, ValidateAddress("EQshort"))
	assert.False(t, ValidateAddress("not an address"))
	assert.False(t, ValidateAddress("0123456789abcdef"))
}

func TestNormalizeAddressRawPassthrough(t *testing.T) {
	raw := "0:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	got, err := NormalizeAddress(raw)
	assert.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestNormalizeAddressRejectsGarbage(t *testing.T) {
	_, err := NormalizeAddress("xyz")
	assert.Error(t, err)
}
