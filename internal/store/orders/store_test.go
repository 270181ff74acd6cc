package orders

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "orders.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testOrder(orderNo string, createdAt time.Time) *domain.RedeemOrder {
	return &domain.RedeemOrder{
		OrderNo:     orderNo,
		CommunityID: "g1",
		CustomerID:  "u1",
		ServiceID:   "nitro-1m",
		ServiceName: "Nitro 1 month",
		Cost:        50000,
		Status:      domain.OrderPending,
		CreatedAt:   createdAt,
	}
}

func TestStore_CreateGetOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.CreateOrder(ctx, testOrder("REDEEM-123456", now)))

	got, err := s.GetOrder(ctx, "REDEEM-123456")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.CustomerID)
	assert.Equal(t, int64(50000), got.Cost)
	assert.Equal(t, domain.OrderPending, got.Status)
	assert.True(t, got.CreatedAt.Equal(now))
	assert.Nil(t, got.FulfilledAt)

	_, err = s.GetOrder(ctx, "REDEEM-000000")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestStore_MarkFulfilled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateOrder(ctx, testOrder("REDEEM-111111", now)))

	changed, err := s.MarkFulfilled(ctx, "REDEEM-111111", now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := s.GetOrder(ctx, "REDEEM-111111")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDone, got.Status)
	require.NotNil(t, got.FulfilledAt)

	firstFulfilledAt := *got.FulfilledAt

	// Confirming twice is a no-op, not an error.
	changed, err = s.MarkFulfilled(ctx, "REDEEM-111111", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	got, err = s.GetOrder(ctx, "REDEEM-111111")
	require.NoError(t, err)
	assert.True(t, got.FulfilledAt.Equal(firstFulfilledAt),
		"second confirmation must not move the fulfillment time")

	_, err = s.MarkFulfilled(ctx, "REDEEM-404404", now)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestStore_ListOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, no := range []string{"REDEEM-000001", "REDEEM-000002", "REDEEM-000003"} {
		require.NoError(t, s.CreateOrder(ctx, testOrder(no, base.Add(time.Duration(i)*time.Minute))))
	}

	other := testOrder("REDEEM-999999", base)
	other.CommunityID = "g2"
	require.NoError(t, s.CreateOrder(ctx, other))

	list, err := s.ListOrders(ctx, "g1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "REDEEM-000003", list[0].OrderNo, "newest first")

	list, err = s.ListOrders(ctx, "g1", 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestStore_BillOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	bill := &domain.BillOrder{
		ID:          "bill_abc",
		CommunityID: "g1",
		CustomerID:  "u1",
		Product:     "Spotify Premium",
		Price:       "30.000đ",
		Status:      domain.OrderPending,
		CreatedAt:   now,
	}
	require.NoError(t, s.CreateBillOrder(ctx, bill))

	changed, err := s.MarkBillDone(ctx, "bill_abc")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.MarkBillDone(ctx, "bill_abc")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = s.MarkBillDone(ctx, "bill_missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	list, err := s.ListBillOrders(ctx, "g1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.OrderDone, list[0].Status)
	assert.Equal(t, "", list[0].BillURL)
}
