package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/camuig/alphastream/internal/advisor"
	"github.com/camuig/alphastream/internal/deploy"
	"github.com/camuig/alphastream/internal/drift"
	"github.com/camuig/alphastream/internal/rebalance"
)

// Repository keeps the audit trail next to the profile document.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Rebalance trades

func (r *Repository) RecordRebalance(ctx context.Context, profile string, exec *rebalance.Execution) error {
	if len(exec.Record.Changes) == 0 {
		return nil
	}
	trades := make([]RebalanceTrade, 0, len(exec.Record.Changes))
	for _, c := range exec.Record.Changes {
		trades = append(trades, RebalanceTrade{
			CreatedAt: exec.Record.Timestamp,
			RecordID:  exec.Record.ID,
			Profile:   profile,
			Ticker:    c.Ticker,
			Action:    c.Action,
			UnitDelta: c.Delta,
			Price:     c.Price,
			Value:     math.Abs(c.Delta) * c.Price,
		})
	}
	return r.db.WithContext(ctx).Create(&trades).Error
}

func (r *Repository) GetRecentTrades(ctx context.Context, profile string, limit int) ([]RebalanceTrade, error) {
	var trades []RebalanceTrade
	err := r.db.WithContext(ctx).Where("profile = ?", profile).
		Order("created_at DESC, id DESC").Limit(limit).Find(&trades).Error
	return trades, err
}

// TurnoverSince sums the traded value of a profile's rebalances after since.
func (r *Repository) TurnoverSince(ctx context.Context, profile string, since time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&RebalanceTrade{}).
		Where("profile = ? AND created_at >= ?", profile, since).
		Select("COALESCE(SUM(value), 0)").Scan(&total).Error
	return total, err
}

// Deployments

func (r *Repository) RecordDeployment(ctx context.Context, profile string, dep *deploy.Deployment) error {
	lots, err := json.Marshal(dep.Lots)
	if err != nil {
		return fmt.Errorf("marshal lots: %w", err)
	}
	return r.db.WithContext(ctx).Create(&DeploymentLog{
		Profile:      profile,
		Pct:          dep.Pct,
		Amount:       dep.Amount,
		AllocatedPct: dep.AllocatedPct,
		LotsJSON:     string(lots),
	}).Error
}

func (r *Repository) GetDeployments(ctx context.Context, profile string, limit int) ([]DeploymentLog, error) {
	var logs []DeploymentLog
	err := r.db.WithContext(ctx).Where("profile = ?", profile).
		Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// Drift snapshots

func (r *Repository) RecordDrift(ctx context.Context, profile string, result drift.Result) error {
	details, err := json.Marshal(result.Details)
	if err != nil {
		return fmt.Errorf("marshal drift details: %w", err)
	}
	return r.db.WithContext(ctx).Create(&DriftSnapshot{
		Profile:        profile,
		CurrentValue:   result.CurrentValue,
		NeedsRebalance: result.NeedsRebalance,
		Reason:         string(result.Reason),
		DetailsJSON:    string(details),
	}).Error
}

// GetLatestSnapshot returns nil without error when the monitor has not
// checked the profile yet.
func (r *Repository) GetLatestSnapshot(ctx context.Context, profile string) (*DriftSnapshot, error) {
	var snapshot DriftSnapshot
	err := r.db.WithContext(ctx).Where("profile = ?", profile).
		Order("created_at DESC, id DESC").First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Advisor logs

func (r *Repository) SaveAdvisorLog(ctx context.Context, log *AdvisorLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// RecordAdvice stores one advisor exchange. A failed review is logged with
// its error so the raw response can still be inspected.
func (r *Repository) RecordAdvice(ctx context.Context, profile string, review *advisor.Review, raw string, reviewErr error) error {
	entry := &AdvisorLog{Profile: profile, Response: raw}
	if review != nil {
		entry.Summary = review.Summary
		entry.Proceed = review.Proceed
	}
	if reviewErr != nil {
		entry.Error = reviewErr.Error()
	}
	return r.SaveAdvisorLog(ctx, entry)
}
