package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"bookshala-commerce/pkg/errutil"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
	}
}

// Evaluate checks a coupon against the current time and subtotal and returns
// the clamped discount. Pure: callers decide whether the read came from a
// plain query (preview validation) or a locked row inside a commit
// transaction (authoritative re-check).
func Evaluate(c *Coupon, subtotal float64, now time.Time) (float64, error) {
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return 0, errutil.UnprocessableEntity("coupon expired", nil)
	}
	if c.MaxUses != nil && c.Uses >= *c.MaxUses {
		return 0, errutil.UnprocessableEntity("coupon limit reached", nil)
	}

	var raw float64
	switch c.DiscountType {
	case Percentage:
		raw = subtotal * c.DiscountValue / 100
	case Fixed:
		raw = c.DiscountValue
	default:
		return 0, errutil.UnprocessableEntity("unsupported discount type", nil)
	}

	// the discount never exceeds the subtotal, so the total never goes below zero
	if raw > subtotal {
		raw = subtotal
	}
	if raw < 0 {
		raw = 0
	}

	return raw, nil
}

// Validate resolves a raw code against the current stored state and computes
// the discount for the given subtotal. Read-only: the usage counter is only
// incremented at commit time by the order/enrollment writers, which re-check
// the coupon under a row lock.
func (s *Service) Validate(ctx context.Context, rawCode string, subtotal float64) (*Applied, error) {
	if subtotal < 0 {
		return nil, errutil.BadRequest("subtotal must not be negative", nil)
	}

	code := NormalizeCode(rawCode)
	if code == "" {
		return nil, errutil.BadRequest("coupon code required", nil)
	}

	var c Coupon
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("invalid coupon", err)
		}
		return nil, errutil.Internal("failed to look up coupon", err)
	}

	discount, err := Evaluate(&c, subtotal, time.Now())
	if err != nil {
		return nil, err
	}

	return &Applied{Code: c.Code, Discount: discount}, nil
}

type CreateCouponRequest struct {
	Code          string       `json:"code" binding:"required"`
	DiscountType  DiscountType `json:"discount_type" binding:"required"`
	DiscountValue float64      `json:"discount_value" binding:"required"`
	ExpiresAt     *time.Time   `json:"expires_at"`
	MaxUses       *int         `json:"max_uses"`
}

func (s *Service) Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error) {
	if req.DiscountType.String() == "" {
		return nil, errutil.BadRequest("discount type must be percentage or fixed", nil)
	}
	if req.DiscountValue <= 0 {
		return nil, errutil.BadRequest("discount value must be positive", nil)
	}
	if req.DiscountType == Percentage && req.DiscountValue > 100 {
		return nil, errutil.BadRequest("percentage discount must be between 1 and 100", nil)
	}
	if req.MaxUses != nil && *req.MaxUses <= 0 {
		return nil, errutil.BadRequest("max uses must be positive", nil)
	}

	c := &Coupon{
		CouponID:      s.node.Generate().String(),
		Code:          NormalizeCode(req.Code),
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		ExpiresAt:     req.ExpiresAt,
		MaxUses:       req.MaxUses,
	}
	if c.Code == "" {
		return nil, errutil.BadRequest("coupon code required", nil)
	}

	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errutil.Conflict("coupon code already exists", err)
		}
		return nil, errutil.Internal("failed to create coupon", err)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	var coupons []Coupon
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, errutil.Internal("failed to list coupons", err)
	}
	return coupons, nil
}
