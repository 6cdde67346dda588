package models

import "time"

// ComparisonRun stores one computed comparison so older results can be inspected later.
type ComparisonRun struct {
	ID        string          `json:"id" gorm:"primaryKey;size:36"`
	SourceID  int64           `json:"source_id" gorm:"index;not null"`
	TargetID  int64           `json:"target_id" gorm:"index;not null"`
	ItemCount int             `json:"item_count"`
	CreatedAt time.Time       `json:"created_at" gorm:"index"`
	Rows      []ComparisonRow `json:"rows,omitempty" gorm:"foreignKey:RunID;references:ID"`
}

// ComparisonRow is a flattened ComparisonRecord belonging to a run.
// Prices are stored as copper totals, Rank is the 1-based output position.
type ComparisonRow struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	RunID          string  `json:"run_id" gorm:"size:36;index;not null"`
	Rank           int     `json:"rank"`
	ItemID         int64   `json:"item_id" gorm:"index"`
	Name           string  `json:"name"`
	StackSize      int64   `json:"stack_size"`
	SourcePrice    int64   `json:"source_price"`
	TargetPrice    int64   `json:"target_price"`
	Diff           int64   `json:"diff"`
	DiffPercentage float64 `json:"diff_percentage"`
}
