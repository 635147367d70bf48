package referral

import (
	"time"

	"gorm.io/datatypes"
)

// Balance is one row per user carrying the authoritative points total. Every
// mutation goes through the journal in the same transaction.
type Balance struct {
	BalanceID string    `gorm:"column:balance_id;primaryKey" json:"balance_id"`
	UserID    string    `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	Points    int64     `gorm:"column:points;not null;default:0" json:"points"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type TransactionType string

// 'earn', 'redeem'
var (
	TypeEarn   TransactionType = "earn"
	TypeRedeem TransactionType = "redeem"
)

// PointTransaction journals every balance movement. ReferenceID is unique so
// replayed earning events and double-submitted redemptions insert at most
// one row.
type PointTransaction struct {
	TransactionID string          `gorm:"column:transaction_id;primaryKey" json:"transaction_id"`
	UserID        string          `gorm:"column:user_id;index;not null" json:"user_id"`
	ReferenceID   string          `gorm:"column:reference_id;uniqueIndex;not null" json:"reference_id"`
	Type          TransactionType `gorm:"column:type;type:varchar(10);not null" json:"type"`
	Delta         int64           `gorm:"column:delta;not null" json:"delta"`
	Metadata      datatypes.JSON  `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
