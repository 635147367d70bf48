package referral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"bookshala-commerce/pkg/errutil"
)

// HandleProcessEarningTask credits points for one referral event. Replayed
// deliveries hit the journal's unique reference and succeed without a second
// credit.
func (s *Service) HandleProcessEarningTask(ctx context.Context, task *asynq.Task) error {
	var payload ProcessEarningPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w: %w", ReferralProcessEarning, err, asynq.SkipRetry)
	}

	meta := map[string]string{"referred_user_id": payload.ReferredUserID}
	err := s.Earn(ctx, payload.UserID, payload.EventID, payload.Points, meta)
	if err != nil {
		var base errutil.BaseError
		if errors.As(err, &base) && base.Code == errutil.StatusConflict {
			zap.L().Info("referral event already processed",
				zap.String("event_id", payload.EventID),
			)
			return nil
		}
		return err
	}

	zap.L().Info("referral points credited",
		zap.String("event_id", payload.EventID),
		zap.String("user_id", payload.UserID),
		zap.Int64("points", payload.Points),
	)
	return nil
}

func registerTaskHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(ReferralProcessEarning, svc.HandleProcessEarningTask)
}
