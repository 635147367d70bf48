package order

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bookshala-commerce/pkg/db/option"
	"bookshala-commerce/pkg/errutil"
	"bookshala-commerce/pkg/report"
	"bookshala-commerce/pkg/sequence"
	"bookshala-commerce/services/catalog"
	"bookshala-commerce/services/coupon"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	seq      sequence.Generator
	items    catalog.Repository
	reporter *report.Reporter
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator
	Items    catalog.Repository
	Reporter *report.Reporter
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		seq:      p.Seq,
		items:    p.Items,
		reporter: p.Reporter,
	}
}

type CheckoutRequest struct {
	Items         []CartItem `json:"items" binding:"required,dive"`
	Address       string     `json:"address" binding:"required"`
	PaymentMethod string     `json:"payment_method" binding:"required"`
	PaymentID     string     `json:"payment_id"`
	CouponCode    string     `json:"coupon_code"`
}

// Checkout creates the order and, if a coupon was applied, increments its
// usage counter in the same transaction. The coupon row is re-read under a
// row lock and re-checked against expiry and the usage cap immediately before
// commit; the stale preview read done by the validator is never trusted here.
// Either both writes land or neither does.
func (s *Service) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*Order, error) {
	if userID == "" {
		return nil, errutil.Unauthorized("authentication required", nil)
	}
	if len(req.Items) == 0 {
		return nil, errutil.BadRequest("cart is empty", nil)
	}
	if req.Address == "" {
		return nil, errutil.BadRequest("shipping address required", nil)
	}

	orderID := s.node.Generate().String()
	lines := make([]OrderItem, 0, len(req.Items))
	for _, ci := range req.Items {
		item, err := s.items.GetByID(ctx, ci.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errutil.NotFound("item not found", err)
			}
			return nil, errutil.Internal("failed to fetch item", err)
		}
		if !item.Active || item.Type != catalog.TypeBook {
			return nil, errutil.BadRequest("item is not an orderable book", nil)
		}
		if ci.Quantity < 1 {
			return nil, errutil.BadRequest("quantity must be at least 1", nil)
		}

		lines = append(lines, OrderItem{
			LineID:   s.node.Generate().String(),
			OrderID:  orderID,
			ItemID:   item.ItemID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: ci.Quantity,
			ImageURL: item.ImageURL,
		})
	}

	orderCode, err := s.seq.NextOrderCode(ctx)
	if err != nil {
		return nil, errutil.Internal("failed to generate order code", err)
	}

	subtotal := Subtotal(lines)
	ord := &Order{
		OrderID:       orderID,
		OrderCode:     orderCode,
		UserID:        userID,
		Subtotal:      subtotal,
		Status:        StatusPending,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		PaymentID:     req.PaymentID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.CouponCode != "" {
			var cpn coupon.Coupon
			if err := tx.Scopes(option.LockingUpdate).
				Where("code = ?", coupon.NormalizeCode(req.CouponCode)).
				First(&cpn).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errutil.NotFound("invalid coupon", err)
				}
				return err
			}

			discount, err := coupon.Evaluate(&cpn, subtotal, time.Now())
			if err != nil {
				return err
			}

			ord.CouponCode = cpn.Code
			ord.CouponDiscount = discount
			ord.Discount = discount

			if err := tx.Model(&coupon.Coupon{}).
				Where("coupon_id = ?", cpn.CouponID).
				Update("uses", gorm.Expr("uses + 1")).Error; err != nil {
				return err
			}
		}

		ord.Total = Total(ord.Subtotal, ord.Discount)

		if err := tx.Create(ord).Error; err != nil {
			return err
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		var base errutil.BaseError
		if errors.As(err, &base) {
			return nil, err
		}
		if report.IsPermissionDenied(err) {
			s.reporter.Publish(report.Event{
				Op:      "order.checkout",
				Path:    "orders/" + orderID,
				Payload: ord,
				Err:     err,
			})
		}
		zap.L().Error("checkout failed", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.Internal("could not place order", err)
	}

	ord.Items = lines
	return ord, nil
}

type UpdateStatusRequest struct {
	Status      Status `json:"status" binding:"required"`
	TrackingID  string `json:"tracking_id"`
	TrackingURL string `json:"tracking_url"`
}

// UpdateStatus applies an admin-driven transition. Illegal transitions,
// including any transition out of a terminal status, are rejected at this
// boundary rather than left to UI discipline.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, req UpdateStatusRequest) (*Order, error) {
	if req.Status.String() == "" {
		return nil, errutil.BadRequest("unknown order status", nil)
	}

	var ord Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(option.LockingUpdate).
			Where("order_id = ?", orderID).
			First(&ord).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errutil.NotFound("order not found", err)
			}
			return err
		}

		if !ord.Status.CanTransition(req.Status) {
			return errutil.UnprocessableEntity("illegal status transition from "+ord.Status.String()+" to "+req.Status.String(), nil)
		}
		if (req.Status == StatusShipped || req.Status == StatusDelivered) && ord.Address == "" {
			return errutil.UnprocessableEntity("order has no shipping address", nil)
		}

		updates := map[string]any{
			"status":     req.Status,
			"updated_at": time.Now(),
		}
		// tracking may be set at or after the Shipped transition
		if req.TrackingID != "" || req.TrackingURL != "" {
			if req.Status != StatusShipped && ord.Status != StatusShipped {
				return errutil.UnprocessableEntity("tracking can only be set at or after shipping", nil)
			}
			if req.TrackingID != "" {
				updates["tracking_id"] = req.TrackingID
			}
			if req.TrackingURL != "" {
				updates["tracking_url"] = req.TrackingURL
			}
		}

		return tx.Model(&Order{}).Where("order_id = ?", orderID).Updates(updates).Error
	})
	if err != nil {
		var base errutil.BaseError
		if errors.As(err, &base) {
			return nil, err
		}
		return nil, errutil.Internal("failed to update order status", err)
	}

	return s.Get(ctx, orderID)
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	var ord Order
	if err := s.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ?", orderID).
		First(&ord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("order not found", err)
		}
		return nil, errutil.Internal("failed to fetch order", err)
	}
	return &ord, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	var orders []Order
	if err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, errutil.Internal("failed to list orders", err)
	}
	return orders, nil
}

func (s *Service) List(ctx context.Context, status Status) ([]Order, error) {
	query := s.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if status != "" {
		if status.String() == "" {
			return nil, errutil.BadRequest("unknown order status", nil)
		}
		query = query.Where("status = ?", status)
	}

	var orders []Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, errutil.Internal("failed to list orders", err)
	}
	return orders, nil
}
