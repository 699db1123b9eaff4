package broker

import (
	"fmt"
	"sync"
)

var (
	instrumentCache sync.Map // instrumentUID -> ticker
	uidCache        sync.Map // ticker -> instrumentUID
)

func tickerForUID(uid string) (string, bool) {
	cached, ok := instrumentCache.Load(uid)
	if !ok {
		return "", false
	}
	return cached.(string), true
}

// ResolveTickerToUID resolves a ticker to its instrument UID using the instruments service.
// Only exact ticker matches are accepted so a price is never attributed to a
// different instrument.
func (bc *BrokerClient) ResolveTickerToUID(ticker string) (string, error) {
	if cached, ok := uidCache.Load(ticker); ok {
		return cached.(string), nil
	}

	instruments := bc.Client.NewInstrumentsServiceClient()
	resp, err := instruments.FindInstrument(ticker)
	if err != nil {
		return "", fmt.Errorf("find instrument %s: %w", ticker, err)
	}

	var fallback string
	for _, inst := range resp.GetInstruments() {
		if inst.GetTicker() != ticker {
			continue
		}
		uid := inst.GetUid()
		if inst.GetApiTradeAvailableFlag() {
			remember(ticker, uid)
			return uid, nil
		}
		if fallback == "" {
			fallback = uid
		}
	}
	if fallback != "" {
		remember(ticker, fallback)
		return fallback, nil
	}

	return "", fmt.Errorf("instrument not found: %s", ticker)
}

func remember(ticker, uid string) {
	instrumentCache.Store(uid, ticker)
	uidCache.Store(ticker, uid)
}
