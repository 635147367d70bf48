package enrollment

import (
	"context"
	"errors"
	"regexp"
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

var mobileRefPattern = regexp.MustCompile(`^[0-9]{10}$`)

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

type EnrollRequest struct {
	ItemID        string        `json:"item_id" binding:"required"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentRef    string        `json:"payment_ref"`
	CouponCode    string        `json:"coupon_code"`
}

// Enroll records a purchase request for a piece of content. Paid enrollments
// start pending and wait for an admin decision; free items are approved on
// the spot. When a coupon is applied, the coupon row is re-read under a row
// lock and its usage counter incremented in the same transaction that
// creates the enrollment.
func (s *Service) Enroll(ctx context.Context, userID string, req EnrollRequest) (*Enrollment, error) {
	if userID == "" {
		return nil, errutil.Unauthorized("authentication required", nil)
	}

	item, err := s.items.GetByID(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("item not found", err)
		}
		return nil, errutil.Internal("failed to fetch item", err)
	}
	if !item.Active {
		return nil, errutil.UnprocessableEntity("item is no longer available", nil)
	}
	if item.Type == catalog.TypeBook {
		return nil, errutil.BadRequest("books are purchased through orders", nil)
	}

	free := item.IsFree || item.Price == 0
	if !free {
		switch req.PaymentMethod {
		case MethodQR:
			if req.PaymentRef == "" {
				return nil, errutil.ValidationFailed("payment reference required", nil)
			}
		case MethodMobile:
			if !mobileRefPattern.MatchString(req.PaymentRef) {
				return nil, errutil.ValidationFailed("mobile payment reference must be 10 digits", nil)
			}
		default:
			return nil, errutil.BadRequest("unsupported payment method", nil)
		}
	}

	code, err := s.seq.NextEnrollmentCode(ctx)
	if err != nil {
		return nil, errutil.Internal("failed to generate enrollment code", err)
	}

	enr := &Enrollment{
		EnrollmentID:   s.node.Generate().String(),
		EnrollmentCode: code,
		UserID:         userID,
		ItemID:         item.ItemID,
		ItemName:       item.Name,
		ItemType:       item.Type,
		Status:         StatusPending,
		Subtotal:       item.Price,
		PaymentMethod:  req.PaymentMethod,
		PaymentRef:     req.PaymentRef,
	}
	if free {
		now := time.Now()
		enr.Status = StatusApproved
		enr.PaymentMethod = MethodFree
		enr.PaymentRef = ""
		enr.DecidedAt = &now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Enrollment{}).
			Where("user_id = ? AND item_id = ? AND status IN ?", userID, item.ItemID,
				[]Status{StatusPending, StatusApproved}).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errutil.Conflict("enrollment already exists for this item", nil)
		}

		if !free && req.CouponCode != "" {
			var cpn coupon.Coupon
			if err := tx.Scopes(option.LockingUpdate).
				Where("code = ?", coupon.NormalizeCode(req.CouponCode)).
				First(&cpn).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errutil.NotFound("invalid coupon", err)
				}
				return err
			}

			discount, err := coupon.Evaluate(&cpn, enr.Subtotal, time.Now())
			if err != nil {
				return err
			}

			enr.CouponCode = cpn.Code
			enr.Discount = discount

			if err := tx.Model(&coupon.Coupon{}).
				Where("coupon_id = ?", cpn.CouponID).
				Update("uses", gorm.Expr("uses + 1")).Error; err != nil {
				return err
			}
		}

		enr.Total = enr.Subtotal - enr.Discount
		if enr.Total < 0 {
			enr.Total = 0
		}

		return tx.Create(enr).Error
	})
	if err != nil {
		var base errutil.BaseError
		if errors.As(err, &base) {
			return nil, err
		}
		if report.IsPermissionDenied(err) {
			s.reporter.Publish(report.Event{
				Op:      "enrollment.enroll",
				Path:    "enrollments/" + enr.EnrollmentID,
				Payload: enr,
				Err:     err,
			})
		}
		zap.L().Error("enrollment failed", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.Internal("could not create enrollment", err)
	}

	return enr, nil
}

// CreateApprovedTx inserts an already-approved enrollment inside a caller
// owned transaction. The redemption engine uses this so the points debit and
// the access grant commit or roll back together.
func (s *Service) CreateApprovedTx(ctx context.Context, tx *gorm.DB, userID string, item *catalog.Item, method PaymentMethod) (*Enrollment, error) {
	code, err := s.seq.NextEnrollmentCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	enr := &Enrollment{
		EnrollmentID:   s.node.Generate().String(),
		EnrollmentCode: code,
		UserID:         userID,
		ItemID:         item.ItemID,
		ItemName:       item.Name,
		ItemType:       item.Type,
		Status:         StatusApproved,
		Subtotal:       item.Price,
		Total:          item.Price,
		PaymentMethod:  method,
		DecidedAt:      &now,
	}
	if err := tx.Create(enr).Error; err != nil {
		return nil, err
	}
	return enr, nil
}

type DecideRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// Decide resolves a pending enrollment. The stored status is re-read under a
// row lock before the write; a second decision against an already decided
// enrollment is rejected regardless of what the caller's screen showed.
func (s *Service) Decide(ctx context.Context, enrollmentID, adminID string, req DecideRequest) (*Enrollment, error) {
	var enr Enrollment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(option.LockingUpdate).
			Where("enrollment_id = ?", enrollmentID).
			First(&enr).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errutil.NotFound("enrollment not found", err)
			}
			return err
		}

		if enr.Status.Terminal() {
			return errutil.UnprocessableEntity("enrollment already decided", nil)
		}

		status := StatusRejected
		if req.Approve {
			status = StatusApproved
		}

		now := time.Now()
		res := tx.Model(&Enrollment{}).
			Where("enrollment_id = ? AND status = ?", enrollmentID, StatusPending).
			Updates(map[string]any{
				"status":     status,
				"decided_by": adminID,
				"decided_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errutil.UnprocessableEntity("enrollment already decided", nil)
		}

		enr.Status = status
		enr.DecidedBy = adminID
		enr.DecidedAt = &now
		return nil
	})
	if err != nil {
		var base errutil.BaseError
		if errors.As(err, &base) {
			return nil, err
		}
		return nil, errutil.Internal("failed to decide enrollment", err)
	}

	return &enr, nil
}

// HasAccess reports whether an approved enrollment grants the user this item.
func (s *Service) HasAccess(ctx context.Context, userID, itemID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Enrollment{}).
		Where("user_id = ? AND item_id = ? AND status = ?", userID, itemID, StatusApproved).
		Count(&count).Error; err != nil {
		return false, errutil.Internal("failed to check access", err)
	}
	return count > 0, nil
}

func (s *Service) Get(ctx context.Context, enrollmentID string) (*Enrollment, error) {
	var enr Enrollment
	if err := s.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		First(&enr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("enrollment not found", err)
		}
		return nil, errutil.Internal("failed to fetch enrollment", err)
	}
	return &enr, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Enrollment, error) {
	var enrollments []Enrollment
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, errutil.Internal("failed to list enrollments", err)
	}
	return enrollments, nil
}

func (s *Service) List(ctx context.Context, status Status) ([]Enrollment, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		if status.String() == "" {
			return nil, errutil.BadRequest("unknown enrollment status", nil)
		}
		query = query.Where("status = ?", status)
	}

	var enrollments []Enrollment
	if err := query.Find(&enrollments).Error; err != nil {
		return nil, errutil.Internal("failed to list enrollments", err)
	}
	return enrollments, nil
}
