package enrollment

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bookshala-commerce/pkg/errutil"
	"bookshala-commerce/pkg/report"
	"bookshala-commerce/services/catalog"
	"bookshala-commerce/services/coupon"
	"bookshala-commerce/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &catalog.Item{}, &coupon.Coupon{}, &Enrollment{})
	node, err := snowflake.NewNode(6)
	require.NoError(t, err)

	svc := NewService(ServiceParams{
		DB:       db,
		Node:     node,
		Seq:      &testutil.SeqStub{},
		Items:    catalog.NewRepository(db),
		Reporter: report.NewReporter(),
	})
	return svc, db
}

func seedItem(t *testing.T, db *gorm.DB, id string, typ catalog.ItemType, price float64, free bool) {
	t.Helper()

	require.NoError(t, db.Create(&catalog.Item{
		ItemID: id,
		Type:   typ,
		Name:   id,
		Price:  price,
		IsFree: free,
		Active: true,
	}).Error)
}

func TestEnrollPaidCourseStartsPending(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "ssc-course", catalog.TypeCourse, 999, false)

	enr, err := svc.Enroll(context.Background(), "user-1", EnrollRequest{
		ItemID:        "ssc-course",
		PaymentMethod: MethodQR,
		PaymentRef:    "upi-txn-889",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, enr.Status)
	require.Equal(t, float64(999), enr.Total)
	require.Equal(t, "ssc-course", enr.ItemName)
	require.NotEmpty(t, enr.EnrollmentCode)
}

func TestEnrollFreeItemApprovedImmediately(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "free-pyq", catalog.TypePYQ, 0, true)

	enr, err := svc.Enroll(context.Background(), "user-1", EnrollRequest{ItemID: "free-pyq"})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, enr.Status)
	require.Equal(t, MethodFree, enr.PaymentMethod)
	require.NotNil(t, enr.DecidedAt)
}

func TestEnrollRejectsBook(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "quant-book", catalog.TypeBook, 300, false)

	_, err := svc.Enroll(context.Background(), "user-1", EnrollRequest{
		ItemID:        "quant-book",
		PaymentMethod: MethodQR,
		PaymentRef:    "upi-txn-1",
	})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusBadRequest, base.Code)
}

func TestEnrollValidatesMobileReference(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "ssc-course", catalog.TypeCourse, 999, false)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, "user-1", EnrollRequest{
		ItemID:        "ssc-course",
		PaymentMethod: MethodMobile,
		PaymentRef:    "12345",
	})
	require.Error(t, err)

	enr, err := svc.Enroll(ctx, "user-1", EnrollRequest{
		ItemID:        "ssc-course",
		PaymentMethod: MethodMobile,
		PaymentRef:    "9876543210",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, enr.Status)
}

func TestEnrollDuplicateRejected(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "ssc-course", catalog.TypeCourse, 999, false)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, "user-1", EnrollRequest{
		ItemID:        "ssc-course",
		PaymentMethod: MethodQR,
		PaymentRef:    "upi-txn-1",
	})
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, "user-1", EnrollRequest{
		ItemID:        "ssc-course",
		PaymentMethod: MethodQR,
		PaymentRef:    "upi-txn-2",
	})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusConflict, base.Code)
}

func TestEnrollWithCouponIncrementsUses(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "ssc-course", catalog.TypeCourse, 1000, false)

	expiry := time.Now().Add(24 * time.Hour)
	require.NoError(t, db.Create(&coupon.Coupon{
		CouponID:      "c1",
		Code:          "SAVE20",
		DiscountType:  coupon.Percentage,
		DiscountValue: 20,
		ExpiresAt:     &expiry,
	}).Error)

	enr, err := svc.Enroll(context.Background(), "user-1", EnrollRequest{
		ItemID:        "ssc-course",
		PaymentMethod: MethodQR,
		PaymentRef:    "upi-txn-1",
		CouponCode:    "save20",
	})
	require.NoError(t, err)
	require.Equal(t, float64(200), enr.Discount)
	require.Equal(t, float64(800), enr.Total)
	require.Equal(t, "SAVE20", enr.CouponCode)

	var stored coupon.Coupon
	require.NoError(t, db.Where("code = ?", "SAVE20").First(&stored).Error)
	require.Equal(t, 1, stored.Uses)
}

func TestEnrollExpiredCouponRollsBack(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "ssc-course", catalog.TypeCourse, 1000, false)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&coupon.Coupon{
		CouponID:      "c1",
		Code:          "OLD",
		DiscountType:  coupon.Fixed,
		DiscountValue: 100,
		ExpiresAt:     &past,
	}).Error)

	_, err := svc.Enroll(context.Background(), "user-1", EnrollRequest{
		ItemID:        "ssc-course",
		PaymentMethod: MethodQR,
		PaymentRef:    "upi-txn-1",
		CouponCode:    "OLD",
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&Enrollment{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestDecideApprove(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "ssc-course", catalog.TypeCourse, 999, false)
	ctx := context.Background()

	enr, err := svc.Enroll(ctx, "user-1", EnrollRequest{
		ItemID:        "ssc-course",
		PaymentMethod: MethodQR,
		PaymentRef:    "upi-txn-1",
	})
	require.NoError(t, err)

	decided, err := svc.Decide(ctx, enr.EnrollmentID, "admin-1", DecideRequest{Approve: true})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, decided.Status)
	require.Equal(t, "admin-1", decided.DecidedBy)
	require.NotNil(t, decided.DecidedAt)
}

func TestDecideTwiceRejected(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "ssc-course", catalog.TypeCourse, 999, false)
	ctx := context.Background()

	enr, err := svc.Enroll(ctx, "user-1", EnrollRequest{
		ItemID:        "ssc-course",
		PaymentMethod: MethodQR,
		PaymentRef:    "upi-txn-1",
	})
	require.NoError(t, err)

	_, err = svc.Decide(ctx, enr.EnrollmentID, "admin-1", DecideRequest{Approve: false})
	require.NoError(t, err)

	_, err = svc.Decide(ctx, enr.EnrollmentID, "admin-2", DecideRequest{Approve: true})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, "enrollment already decided", base.Message)

	stored, err := svc.Get(ctx, enr.EnrollmentID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, stored.Status)
	require.Equal(t, "admin-1", stored.DecidedBy)
}

func TestHasAccess(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "ssc-course", catalog.TypeCourse, 999, false)
	ctx := context.Background()

	enr, err := svc.Enroll(ctx, "user-1", EnrollRequest{
		ItemID:        "ssc-course",
		PaymentMethod: MethodQR,
		PaymentRef:    "upi-txn-1",
	})
	require.NoError(t, err)

	granted, err := svc.HasAccess(ctx, "user-1", "ssc-course")
	require.NoError(t, err)
	require.False(t, granted)

	_, err = svc.Decide(ctx, enr.EnrollmentID, "admin-1", DecideRequest{Approve: true})
	require.NoError(t, err)

	granted, err = svc.HasAccess(ctx, "user-1", "ssc-course")
	require.NoError(t, err)
	require.True(t, granted)
}
