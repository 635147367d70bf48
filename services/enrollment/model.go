package enrollment

import (
	"time"

	"bookshala-commerce/services/catalog"
)

type Status string

// 'pending', 'approved', 'rejected'
var (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) String() string {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return string(s)
	default:
		return ""
	}
}

// Terminal reports whether s admits no further decision. Approved and
// rejected enrollments stay that way.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type PaymentMethod string

var (
	MethodQR       PaymentMethod = "qr"
	MethodMobile   PaymentMethod = "mobile"
	MethodFree     PaymentMethod = "free"
	MethodReferral PaymentMethod = "referral_points"
)

func (m PaymentMethod) String() string {
	switch m {
	case MethodQR, MethodMobile, MethodFree, MethodReferral:
		return string(m)
	default:
		return ""
	}
}

// Enrollment is a user's purchase of non-book content. ItemName, ItemType and
// the price fields are write-time snapshots; they are never refreshed if the
// catalog item changes afterwards.
type Enrollment struct {
	EnrollmentID   string           `gorm:"column:enrollment_id;primaryKey" json:"enrollment_id"`
	EnrollmentCode string           `gorm:"column:enrollment_code;uniqueIndex;not null" json:"enrollment_code"`
	UserID         string           `gorm:"column:user_id;index;not null" json:"user_id"`
	ItemID         string           `gorm:"column:item_id;index;not null" json:"item_id"`
	ItemName       string           `gorm:"column:item_name;not null" json:"item_name"`
	ItemType       catalog.ItemType `gorm:"column:item_type;not null" json:"item_type"`
	Status         Status           `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	Subtotal       float64          `gorm:"column:subtotal;not null" json:"subtotal"`
	Discount       float64          `gorm:"column:discount;not null;default:0" json:"discount"`
	Total          float64          `gorm:"column:total;not null" json:"total"`
	CouponCode     string           `gorm:"column:coupon_code" json:"coupon_code,omitempty"`
	PaymentMethod  PaymentMethod    `gorm:"column:payment_method;not null" json:"payment_method"`
	PaymentRef     string           `gorm:"column:payment_ref" json:"payment_ref,omitempty"`
	DecidedBy      string           `gorm:"column:decided_by" json:"decided_by,omitempty"`
	DecidedAt      *time.Time       `gorm:"column:decided_at" json:"decided_at,omitempty"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
