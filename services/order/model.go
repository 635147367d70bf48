package order

import (
	"time"

	"gorm.io/datatypes"
)

type Status string

// 'Pending', 'Shipped', 'Delivered', 'Cancelled'
var (
	StatusPending   Status = "Pending"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

func (s Status) String() string {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return string(s)
	default:
		return ""
	}
}

// transitions is the explicit table for the admin-driven lifecycle:
// Pending -> Shipped -> Delivered, with Cancelled reachable from Pending or
// Shipped. Delivered and Cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition reports whether s -> to is a legal transition.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Order is a book purchase. CouponCode/CouponDiscount are write-time
// snapshots of the applied coupon and are never refreshed if the coupon
// later changes.
type Order struct {
	OrderID        string         `gorm:"column:order_id;primaryKey" json:"order_id"`
	OrderCode      string         `gorm:"column:order_code;uniqueIndex;not null" json:"order_code"`
	UserID         string         `gorm:"column:user_id;index;not null" json:"user_id"`
	Subtotal       float64        `gorm:"column:subtotal;not null" json:"subtotal"`
	Discount       float64        `gorm:"column:discount;not null;default:0" json:"discount"`
	Total          float64        `gorm:"column:total;not null" json:"total"`
	Status         Status         `gorm:"column:status;type:varchar(20);not null;default:'Pending'" json:"status"`
	Address        string         `gorm:"column:address;type:text;not null" json:"address"`
	PaymentMethod  string         `gorm:"column:payment_method" json:"payment_method"`
	PaymentID      string         `gorm:"column:payment_id" json:"payment_id"`
	TrackingID     string         `gorm:"column:tracking_id" json:"tracking_id,omitempty"`
	TrackingURL    string         `gorm:"column:tracking_url" json:"tracking_url,omitempty"`
	CouponCode     string         `gorm:"column:coupon_code" json:"coupon_code,omitempty"`
	CouponDiscount float64        `gorm:"column:coupon_discount;not null;default:0" json:"coupon_discount"`
	Metadata       datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:OrderID" json:"items"`
}

// OrderItem snapshots name and price at checkout time.
type OrderItem struct {
	LineID   string  `gorm:"column:line_id;primaryKey" json:"line_id"`
	OrderID  string  `gorm:"column:order_id;index;not null" json:"order_id"`
	ItemID   string  `gorm:"column:item_id;not null" json:"item_id"`
	Name     string  `gorm:"column:name;not null" json:"name"`
	Price    float64 `gorm:"column:price;not null" json:"price"`
	Quantity int     `gorm:"column:quantity;not null;default:1" json:"quantity"`
	ImageURL string  `gorm:"column:image_url" json:"image_url"`
}
