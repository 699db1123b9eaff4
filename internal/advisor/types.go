package advisor

import (
	"time"

	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/drift"
	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/rebalance"
)

type Request struct {
	Profile *portfolio.Profile
	Drift   drift.Result
	Plan    rebalance.Plan
}

type Review struct {
	Summary string   `json:"summary"`
	Risks   []string `json:"risks"`
	Proceed bool     `json:"proceed"`
}

func timeout(cfg config.AdvisorConfig) time.Duration {
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}
