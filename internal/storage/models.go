package storage

import "time"

// DocumentRow holds the whole profile document as JSON, versioned by Revision.
type DocumentRow struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `gorm:"uniqueIndex;not null" json:"name"`
	Revision int64  `gorm:"not null;default:0" json:"revision"`
	Body     string `gorm:"type:text;not null" json:"body"`
}

// RebalanceTrade is one per-ticker unit change applied by a rebalance.
type RebalanceTrade struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	RecordID  string  `gorm:"index;not null" json:"record_id"`
	Profile   string  `gorm:"index;not null" json:"profile"`
	Ticker    string  `gorm:"index;not null" json:"ticker"`
	Action    string  `gorm:"not null" json:"action"` // BUY or SELL
	UnitDelta float64 `gorm:"not null" json:"unit_delta"`
	Price     float64 `gorm:"not null" json:"price"`
	Value     float64 `json:"value"`
}

// DeploymentLog records one capital deployment.
type DeploymentLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Profile      string  `gorm:"index;not null" json:"profile"`
	Pct          float64 `json:"pct"`
	Amount       float64 `json:"amount"`
	AllocatedPct float64 `json:"allocated_pct"`
	LotsJSON     string  `gorm:"type:text" json:"lots_json"`
}

// DriftSnapshot is the outcome of one drift check for one profile.
type DriftSnapshot struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Profile        string  `gorm:"index;not null" json:"profile"`
	CurrentValue   float64 `json:"current_value"`
	NeedsRebalance bool    `json:"needs_rebalance"`
	Reason         string  `json:"reason"`
	DetailsJSON    string  `gorm:"type:text" json:"details_json"`
}

// AdvisorLog keeps the raw advisor exchange for a rebalance review.
type AdvisorLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Profile  string `gorm:"index" json:"profile"`
	Response string `gorm:"type:text" json:"response"`
	Summary  string `gorm:"type:text" json:"summary"`
	Proceed  bool   `json:"proceed"`
	Error    string `json:"error"`
}
