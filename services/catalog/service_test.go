package catalog

import (
	"context"
	"testing"

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

	db := testutil.NewTestDB(t, &Item{})
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	return NewService(ServiceParams{Node: node, Items: NewRepository(db)})
}

func TestCreateAndGetItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateItemRequest{Type: TypeCourse, Name: "SSC CGL Full Course", Price: 999})
	require.NoError(t, err)
	require.True(t, created.Active)

	fetched, err := svc.Get(ctx, created.ItemID)
	require.NoError(t, err)
	require.Equal(t, "SSC CGL Full Course", fetched.Name)
	require.Equal(t, float64(999), fetched.Price)
}

func TestCreateFreeItemZeroesPrice(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(context.Background(), CreateItemRequest{Type: TypePYQ, Name: "PYQ Pack", Price: 50, IsFree: true})
	require.NoError(t, err)
	require.Equal(t, float64(0), created.Price)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), CreateItemRequest{Type: "subscription", Name: "X"})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusBadRequest, base.Code)
}

func TestGetUnknownItem(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Code)
}

func TestListFiltersByType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateItemRequest{Type: TypeBook, Name: "Quant Book", Price: 300})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateItemRequest{Type: TypeTest, Name: "Mock Series", Price: 200})
	require.NoError(t, err)

	books, err := svc.List(ctx, ListParams{Type: TypeBook})
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, "Quant Book", books[0].Name)
}
