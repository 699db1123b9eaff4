package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandleWindows(t *testing.T) {
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(2*maxCandleWindow + 48*time.Hour)

	windows := candleWindows(from, to, maxCandleWindow)

	require.Len(t, windows, 3)
	assert.Equal(t, from, windows[0].from)
	assert.Equal(t, windows[0].to, windows[1].from)
	assert.Equal(t, windows[1].to, windows[2].from)
	assert.Equal(t, to, windows[2].to)
	assert.Equal(t, 48*time.Hour, windows[2].to.Sub(windows[2].from))
}

func TestCandleWindows_Empty(t *testing.T) {
	now := time.Now()
	assert.Empty(t, candleWindows(now, now, maxCandleWindow))
	assert.Empty(t, candleWindows(now.Add(time.Hour), now, maxCandleWindow))
}

func TestTickerForUID(t *testing.T) {
	remember("SBER", "uid-sber")

	ticker, ok := tickerForUID("uid-sber")
	require.True(t, ok)
	assert.Equal(t, "SBER", ticker)

	_, ok = tickerForUID("uid-unknown")
	assert.False(t, ok)
}
