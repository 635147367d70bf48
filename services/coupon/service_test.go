package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookshala-commerce/pkg/errutil"
	"bookshala-commerce/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Coupon{})
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestEvaluatePercentage(t *testing.T) {
	c := &Coupon{Code: "SAVE20", DiscountType: Percentage, DiscountValue: 20}

	discount, err := Evaluate(c, 500, time.Now())
	require.NoError(t, err)
	require.Equal(t, float64(100), discount)
}

func TestEvaluateFixedClampedToSubtotal(t *testing.T) {
	c := &Coupon{Code: "FLAT200", DiscountType: Fixed, DiscountValue: 200}

	discount, err := Evaluate(c, 150, time.Now())
	require.NoError(t, err)
	require.Equal(t, float64(150), discount)
}

func TestEvaluateExpired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	c := &Coupon{Code: "OLD", DiscountType: Fixed, DiscountValue: 50, ExpiresAt: &past}

	_, err := Evaluate(c, 500, time.Now())
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusUnprocessableEntity, base.Code)
	require.Equal(t, "coupon expired", base.Message)
}

func TestEvaluateLimitReached(t *testing.T) {
	maxUses := 5
	c := &Coupon{Code: "CAPPED", DiscountType: Fixed, DiscountValue: 50, MaxUses: &maxUses, Uses: 5}

	_, err := Evaluate(c, 500, time.Now())
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, "coupon limit reached", base.Message)
}

func TestEvaluateUnderLimit(t *testing.T) {
	maxUses := 5
	c := &Coupon{Code: "CAPPED", DiscountType: Fixed, DiscountValue: 50, MaxUses: &maxUses, Uses: 4}

	discount, err := Evaluate(c, 500, time.Now())
	require.NoError(t, err)
	require.Equal(t, float64(50), discount)
}

func TestValidateNormalizesCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCouponRequest{Code: "save20", DiscountType: Percentage, DiscountValue: 20})
	require.NoError(t, err)

	applied, err := svc.Validate(ctx, "  save20 ", 500)
	require.NoError(t, err)
	require.Equal(t, "SAVE20", applied.Code)
	require.Equal(t, float64(100), applied.Discount)
}

func TestValidateUnknownCode(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Validate(context.Background(), "NOPE", 500)
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Code)
}

func TestValidateDoesNotConsumeUse(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCouponRequest{Code: "SAVE20", DiscountType: Percentage, DiscountValue: 20})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Validate(ctx, "SAVE20", 500)
		require.NoError(t, err)
	}

	var stored Coupon
	require.NoError(t, svc.db.Where("coupon_id = ?", created.CouponID).First(&stored).Error)
	require.Equal(t, 0, stored.Uses)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCouponRequest{Code: "SAVE20", DiscountType: Percentage, DiscountValue: 20})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateCouponRequest{Code: "save20", DiscountType: Fixed, DiscountValue: 10})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusConflict, base.Code)
}

func TestCreateRejectsBadValues(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCouponRequest{Code: "X", DiscountType: Percentage, DiscountValue: 120})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateCouponRequest{Code: "X", DiscountType: Fixed, DiscountValue: 0})
	require.Error(t, err)

	zero := 0
	_, err = svc.Create(ctx, CreateCouponRequest{Code: "X", DiscountType: Fixed, DiscountValue: 10, MaxUses: &zero})
	require.Error(t, err)
}
