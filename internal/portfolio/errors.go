package portfolio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingPriceData    = errors.New("missing price data")
	ErrInvalidAllocation   = errors.New("invalid allocation request")
	ErrDegenerateValuation = errors.New("portfolio value is zero")
	ErrStoreUnavailable    = errors.New("profile store unavailable")
	ErrRevisionConflict    = errors.New("document was modified concurrently")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileExists       = errors.New("profile already exists")
	ErrAssetNotFound       = errors.New("asset not found")
)

// MissingPriceError names the tickers that had no resolvable price.
// It matches ErrMissingPriceData with errors.Is.
type MissingPriceError struct {
	Tickers []string
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("missing price data for %s", strings.Join(e.Tickers, ", "))
}

func (e *MissingPriceError) Is(target error) bool {
	return target == ErrMissingPriceData
}

func invalidAllocation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAllocation, fmt.Sprintf(format, args...))
}
