package coupon

import (
	"strings"
	"time"
)

type DiscountType string

// 'percentage', 'fixed'
var (
	Percentage DiscountType = "percentage"
	Fixed      DiscountType = "fixed"
)

func (t DiscountType) String() string {
	switch t {
	case Percentage, Fixed:
		return string(t)
	default:
		return ""
	}
}

// Coupon is a discount code. Uses only ever increments; no refund or
// cancellation path decrements it.
type Coupon struct {
	CouponID      string       `gorm:"column:coupon_id;primaryKey" json:"coupon_id"`
	Code          string       `gorm:"column:code;uniqueIndex;not null" json:"code"`
	DiscountType  DiscountType `gorm:"column:discount_type;type:varchar(20);not null" json:"discount_type"`
	DiscountValue float64      `gorm:"column:discount_value;not null" json:"discount_value"`
	ExpiresAt     *time.Time   `gorm:"column:expires_at" json:"expires_at,omitempty"`
	MaxUses       *int         `gorm:"column:max_uses" json:"max_uses,omitempty"`
	Uses          int          `gorm:"column:uses;not null;default:0" json:"uses"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Applied is the result of a successful validation: the code snapshot and the
// clamped discount for the given subtotal.
type Applied struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

// NormalizeCode trims and uppercases a user-supplied code.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
