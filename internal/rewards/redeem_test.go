package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
	"github.com/atlantisbot/atlantis-ledger/internal/errors"
)

func TestRedeem_Success(t *testing.T) {
	rig := newTestRig(t, defaultSettings())
	ctx := context.Background()

	_, err := rig.st.Credit("g1", "u1", 2000)
	require.NoError(t, err)

	order, err := rig.svc.Redeem(ctx, "g1", "u1", "vip")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, "VIP role", order.ServiceName)
	assert.Equal(t, int64(1500), order.Cost)
	assert.Contains(t, order.OrderNo, "REDEEM-")

	b, err := rig.svc.GetBalance("g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), b.Money)
	assert.Equal(t, 1, b.Invites, "a redemption spend is not a leave")
	assert.Equal(t, 0, b.Leaves)

	// The order is durable and retrievable.
	list, err := rig.svc.ListOrders(ctx, "g1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, order.OrderNo, list[0].OrderNo)
}

func TestRedeem_InsufficientFundsNoMutation(t *testing.T) {
	rig := newTestRig(t, defaultSettings())
	ctx := context.Background()

	_, err := rig.st.Credit("g1", "u1", 1000)
	require.NoError(t, err)

	_, err = rig.svc.Redeem(ctx, "g1", "u1", "vip") // costs 1500
	assert.ErrorIs(t, err, errors.ErrInsufficientFunds)

	b, err := rig.svc.GetBalance("g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), b.Money, "rejected redemption must not touch the balance")

	list, err := rig.svc.ListOrders(ctx, "g1", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedeem_ValidationOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("feature disabled wins over everything", func(t *testing.T) {
		settings := defaultSettings()
		settings.RedeemEnabled = false
		settings.Catalog = nil
		rig := newTestRig(t, settings)

		_, err := rig.svc.Redeem(ctx, "g1", "u1", "nope")
		assert.ErrorIs(t, err, errors.ErrFeatureDisabled)
	})

	t.Run("empty catalog", func(t *testing.T) {
		settings := defaultSettings()
		settings.Catalog = &domain.Catalog{}
		rig := newTestRig(t, settings)

		_, err := rig.svc.Redeem(ctx, "g1", "u1", "nope")
		assert.ErrorIs(t, err, errors.ErrEmptyCatalog)
	})

	t.Run("unknown service", func(t *testing.T) {
		rig := newTestRig(t, defaultSettings())

		_, err := rig.svc.Redeem(ctx, "g1", "u1", "nope")
		assert.ErrorIs(t, err, errors.ErrUnknownService)
	})
}

func TestMarkOrderFulfilled_Idempotent(t *testing.T) {
	rig := newTestRig(t, defaultSettings())
	ctx := context.Background()

	_, err := rig.st.Credit("g1", "u1", 2000)
	require.NoError(t, err)
	order, err := rig.svc.Redeem(ctx, "g1", "u1", "vip")
	require.NoError(t, err)

	rig.gw.mu.Lock()
	logsBefore := len(rig.gw.logs)
	rig.gw.mu.Unlock()

	rig.advance(time.Hour)
	got, changed, err := rig.svc.MarkOrderFulfilled(ctx, order.OrderNo)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.OrderDone, got.Status)

	rig.gw.mu.Lock()
	logsAfterFirst := len(rig.gw.logs)
	rig.gw.mu.Unlock()
	assert.Equal(t, logsBefore+1, logsAfterFirst, "fulfillment notifies once")

	got, changed, err = rig.svc.MarkOrderFulfilled(ctx, order.OrderNo)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.OrderDone, got.Status)

	rig.gw.mu.Lock()
	logsAfterSecond := len(rig.gw.logs)
	rig.gw.mu.Unlock()
	assert.Equal(t, logsAfterFirst, logsAfterSecond, "repeat signal must not re-notify")

	b, _ := rig.svc.GetBalance("g1", "u1")
	assert.Equal(t, int64(500), b.Money, "repeat signal must not re-mutate the balance")

	_, _, err = rig.svc.MarkOrderFulfilled(ctx, "REDEEM-000000")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestBillLifecycle(t *testing.T) {
	rig := newTestRig(t, defaultSettings())
	ctx := context.Background()

	bill, err := rig.svc.LogBill(ctx, "g1", "u1", "Spotify Premium", "30.000đ", "https://example.com/bill.png")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, bill.Status)
	assert.Contains(t, bill.ID, "bill-")

	changed, err := rig.svc.MarkBillDone(ctx, bill.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = rig.svc.MarkBillDone(ctx, bill.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	list, err := rig.svc.ListBills(ctx, "g1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.OrderDone, list[0].Status)
}
