package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", Money(1234.5, "USD"))
	assert.Equal(t, "$1,234.57", Money(1234.567, "usd"))
	assert.Equal(t, "-$10.00", Money(-10, "USD"))
	assert.Equal(t, "12.30 XYZ", Money(12.3, "XYZ"))
}

func TestSignedMoney(t *testing.T) {
	assert.Equal(t, "+$5.00", SignedMoney(5, "USD"))
	assert.Equal(t, "$0.00", SignedMoney(0, "USD"))
}

func TestPctAndUnits(t *testing.T) {
	assert.Equal(t, "15.00%", Pct(15))
	assert.Equal(t, "-2.50%", SignedPct(-2.5))
	assert.Equal(t, "+2.50%", SignedPct(2.5))
	assert.Equal(t, "0.6000", Units(0.6000000000000001))
}
