package referral

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	queue "bookshala-commerce/pkg/asynq"
	"bookshala-commerce/pkg/config"
	"bookshala-commerce/pkg/db/option"
	"bookshala-commerce/pkg/errutil"
	"bookshala-commerce/pkg/report"
	"bookshala-commerce/services/catalog"
	"bookshala-commerce/services/enrollment"
)

type Service struct {
	db          *gorm.DB
	node        *snowflake.Node
	items       catalog.Repository
	enrollments *enrollment.Service
	reporter    *report.Reporter
	client      *asynq.Client
	redeemCost  int64
}

type ServiceParams struct {
	fx.In
	DB          *gorm.DB
	Node        *snowflake.Node
	Items       catalog.Repository
	Enrollments *enrollment.Service
	Reporter    *report.Reporter
	Client      *asynq.Client `optional:"true"`
	Config      *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:          p.DB,
		node:        p.Node,
		items:       p.Items,
		enrollments: p.Enrollments,
		reporter:    p.Reporter,
		client:      p.Client,
		redeemCost:  p.Config.Referral.RedeemCost,
	}
}

// GetBalance returns the user's balance row, materializing a zero row for
// users who have never earned.
func (s *Service) GetBalance(ctx context.Context, userID string) (*Balance, error) {
	var bal Balance
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Balance{UserID: userID, Points: 0}, nil
	}
	if err != nil {
		return nil, errutil.Internal("failed to fetch balance", err)
	}
	return &bal, nil
}

type RedeemRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

type RedeemResult struct {
	Balance    *Balance               `json:"balance"`
	Enrollment *enrollment.Enrollment `json:"enrollment"`
}

// Redeem exchanges points for an approved test-series enrollment. The debit
// and the grant run in one transaction against a locked, re-read balance;
// neither a stale screen nor a concurrent redemption can push the balance
// below zero or grant access without the debit landing.
func (s *Service) Redeem(ctx context.Context, userID string, req RedeemRequest) (*RedeemResult, error) {
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
	if !item.Active || item.Type != catalog.TypeTest {
		return nil, errutil.UnprocessableEntity("points can only be redeemed for test series", nil)
	}

	var result RedeemResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bal Balance
		if err := tx.Scopes(option.LockingUpdate).
			Where("user_id = ?", userID).
			First(&bal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errutil.UnprocessableEntity("insufficient points", nil)
			}
			return err
		}

		if bal.Points < s.redeemCost {
			return errutil.UnprocessableEntity("insufficient points", nil)
		}

		// points >= cost is re-asserted in the WHERE so a racing debit
		// that slipped past the lock still cannot overdraw
		res := tx.Model(&Balance{}).
			Where("balance_id = ? AND points >= ?", bal.BalanceID, s.redeemCost).
			Update("points", gorm.Expr("points - ?", s.redeemCost))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errutil.UnprocessableEntity("insufficient points", nil)
		}

		txnID := s.node.Generate().String()
		meta, _ := json.Marshal(map[string]string{"item_id": item.ItemID, "item_name": item.Name})
		if err := tx.Create(&PointTransaction{
			TransactionID: txnID,
			UserID:        userID,
			ReferenceID:   "redeem:" + txnID,
			Type:          TypeRedeem,
			Delta:         -s.redeemCost,
			Metadata:      datatypes.JSON(meta),
		}).Error; err != nil {
			return err
		}

		enr, err := s.enrollments.CreateApprovedTx(ctx, tx, userID, item, enrollment.MethodReferral)
		if err != nil {
			return err
		}

		bal.Points -= s.redeemCost
		result.Balance = &bal
		result.Enrollment = enr
		return nil
	})
	if err != nil {
		var base errutil.BaseError
		if errors.As(err, &base) {
			return nil, err
		}
		if report.IsPermissionDenied(err) {
			s.reporter.Publish(report.Event{
				Op:      "referral.redeem",
				Path:    "balances/" + userID,
				Payload: req,
				Err:     err,
			})
		}
		zap.L().Error("redemption failed", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.Internal("could not redeem points", err)
	}

	return &result, nil
}

// Earn credits points for a referral event. ReferenceID makes it idempotent:
// a replayed event hits the journal's unique index and leaves the balance
// untouched.
func (s *Service) Earn(ctx context.Context, userID, referenceID string, points int64, metadata map[string]string) error {
	if points <= 0 {
		return errutil.BadRequest("points must be positive", nil)
	}
	if referenceID == "" {
		return errutil.BadRequest("reference id required", nil)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meta, _ := json.Marshal(metadata)
		txn := &PointTransaction{
			TransactionID: s.node.Generate().String(),
			UserID:        userID,
			ReferenceID:   referenceID,
			Type:          TypeEarn,
			Delta:         points,
			Metadata:      datatypes.JSON(meta),
		}
		if err := tx.Create(txn).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errutil.Conflict("event already processed", err)
			}
			return err
		}

		var bal Balance
		err := tx.Scopes(option.LockingUpdate).
			Where("user_id = ?", userID).
			First(&bal).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&Balance{
				BalanceID: s.node.Generate().String(),
				UserID:    userID,
				Points:    points,
			}).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&Balance{}).
			Where("balance_id = ?", bal.BalanceID).
			Update("points", gorm.Expr("points + ?", points)).Error
	})
	if err != nil {
		var base errutil.BaseError
		if errors.As(err, &base) {
			return err
		}
		return errutil.Internal("failed to credit points", err)
	}
	return nil
}

// EnqueueEarning hands a referral event to the worker queue.
func (s *Service) EnqueueEarning(ctx context.Context, payload ProcessEarningPayload) error {
	if s.client == nil {
		return errutil.Internal("task queue unavailable", nil)
	}
	if payload.EventID == "" || payload.UserID == "" {
		return errutil.BadRequest("event id and user id required", nil)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errutil.Internal("failed to encode task", err)
	}

	task := asynq.NewTask(ReferralProcessEarning, body)
	info, err := s.client.EnqueueContext(ctx, task,
		asynq.Queue(queue.QueueReferral),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return errutil.Internal("failed to enqueue task", err)
	}

	zap.L().Info("referral earning enqueued",
		zap.String("task_id", info.ID),
		zap.String("event_id", payload.EventID),
	)
	return nil
}

func (s *Service) ListTransactions(ctx context.Context, userID string) ([]PointTransaction, error) {
	var txns []PointTransaction
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&txns).Error; err != nil {
		return nil, errutil.Internal("failed to list transactions", err)
	}
	return txns, nil
}
