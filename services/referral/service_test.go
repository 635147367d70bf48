package referral

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bookshala-commerce/pkg/config"
	"bookshala-commerce/pkg/errutil"
	"bookshala-commerce/pkg/report"
	"bookshala-commerce/services/catalog"
	"bookshala-commerce/services/enrollment"
	"bookshala-commerce/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t,
		&catalog.Item{},
		&enrollment.Enrollment{},
		&Balance{},
		&PointTransaction{},
	)
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	items := catalog.NewRepository(db)
	reporter := report.NewReporter()
	enrollments := enrollment.NewService(enrollment.ServiceParams{
		DB:       db,
		Node:     node,
		Seq:      &testutil.SeqStub{},
		Items:    items,
		Reporter: reporter,
	})

	cfg := &config.Config{}
	cfg.Referral.RedeemCost = 200

	svc := NewService(ServiceParams{
		DB:          db,
		Node:        node,
		Items:       items,
		Enrollments: enrollments,
		Reporter:    reporter,
		Config:      cfg,
	})
	return svc, db
}

func seedTestSeries(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&catalog.Item{
		ItemID: "mock-101",
		Type:   catalog.TypeTest,
		Name:   "Mock-101",
		Price:  200,
		Active: true,
	}).Error)
}

func TestEarnCreatesBalance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Earn(ctx, "user-1", "evt-1", 100, nil))

	bal, err := svc.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(100), bal.Points)
}

func TestEarnIsIdempotentPerReference(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Earn(ctx, "user-1", "evt-1", 100, nil))

	err := svc.Earn(ctx, "user-1", "evt-1", 100, nil)
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusConflict, base.Code)

	bal, err := svc.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(100), bal.Points)
}

func TestGetBalanceUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	bal, err := svc.GetBalance(context.Background(), "nobody")
	require.NoError(t, err)
	require.Equal(t, int64(0), bal.Points)
}

func TestRedeemDebitsAndGrants(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedTestSeries(t, db)

	require.NoError(t, svc.Earn(ctx, "user-1", "evt-1", 250, nil))

	result, err := svc.Redeem(ctx, "user-1", RedeemRequest{ItemID: "mock-101"})
	require.NoError(t, err)
	require.Equal(t, int64(50), result.Balance.Points)
	require.Equal(t, enrollment.StatusApproved, result.Enrollment.Status)
	require.Equal(t, enrollment.MethodReferral, result.Enrollment.PaymentMethod)
	require.Equal(t, "Mock-101", result.Enrollment.ItemName)

	var txns []PointTransaction
	require.NoError(t, db.Where("user_id = ? AND type = ?", "user-1", TypeRedeem).Find(&txns).Error)
	require.Len(t, txns, 1)
	require.Equal(t, int64(-200), txns[0].Delta)
}

func TestRedeemInsufficientPoints(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedTestSeries(t, db)

	require.NoError(t, svc.Earn(ctx, "user-1", "evt-1", 180, nil))

	_, err := svc.Redeem(ctx, "user-1", RedeemRequest{ItemID: "mock-101"})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, "insufficient points", base.Message)

	bal, err := svc.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(180), bal.Points)

	var count int64
	require.NoError(t, db.Model(&enrollment.Enrollment{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRedeemNoBalanceRow(t *testing.T) {
	svc, db := newTestService(t)
	seedTestSeries(t, db)

	_, err := svc.Redeem(context.Background(), "user-1", RedeemRequest{ItemID: "mock-101"})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, "insufficient points", base.Message)
}

func TestRedeemRejectsNonTestItem(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&catalog.Item{
		ItemID: "ssc-course",
		Type:   catalog.TypeCourse,
		Name:   "SSC Course",
		Price:  999,
		Active: true,
	}).Error)
	require.NoError(t, svc.Earn(ctx, "user-1", "evt-1", 250, nil))

	_, err := svc.Redeem(ctx, "user-1", RedeemRequest{ItemID: "ssc-course"})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusUnprocessableEntity, base.Code)
}

func TestHandleProcessEarningTask(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	payload, err := json.Marshal(ProcessEarningPayload{
		EventID:        "evt-1",
		UserID:         "user-1",
		ReferredUserID: "user-2",
		Points:         50,
	})
	require.NoError(t, err)

	task := asynq.NewTask(ReferralProcessEarning, payload)
	require.NoError(t, svc.HandleProcessEarningTask(ctx, task))

	bal, err := svc.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(50), bal.Points)

	// redelivery credits nothing and does not fail
	require.NoError(t, svc.HandleProcessEarningTask(ctx, task))

	bal, err = svc.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(50), bal.Points)
}

func TestHandleProcessEarningTaskBadPayload(t *testing.T) {
	svc, _ := newTestService(t)

	task := asynq.NewTask(ReferralProcessEarning, []byte("{not json"))
	err := svc.HandleProcessEarningTask(context.Background(), task)
	require.Error(t, err)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
