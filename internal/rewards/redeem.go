package rewards

import (
	"context"
	"fmt"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
	"github.com/atlantisbot/atlantis-ledger/internal/errors"
	"github.com/atlantisbot/atlantis-ledger/internal/id"
	"github.com/atlantisbot/atlantis-ledger/internal/store/orders"
)

// Redeem spends a customer's balance against a catalog service and opens a
// pending order for external fulfillment.
//
// Validation order: feature flag, catalog non-empty, service exists,
// sufficient funds. Any failure returns a typed error with no mutation.
// The funds check and the debit run under a per-community lock so two
// concurrent redemptions cannot both pass the check against the same money.
func (s *Service) Redeem(ctx context.Context, communityID, customerID, serviceID string) (*domain.RedeemOrder, error) {
	settings := s.Settings()

	if !settings.RedeemEnabled {
		return nil, errors.FeatureDisabled("redeeming is currently disabled")
	}
	if settings.Catalog.Empty() {
		return nil, errors.EmptyCatalog("no services are available to redeem")
	}
	service := settings.Catalog.Find(serviceID)
	if service == nil {
		return nil, errors.UnknownService(fmt.Sprintf("unknown service %q", serviceID))
	}

	unlock := s.lockRedeem(communityID)
	defer unlock()

	balance, err := s.store.GetBalance(communityID, customerID)
	if err != nil {
		return nil, errors.Internal("failed to load balance", err)
	}
	if balance.Money < service.Cost {
		return nil, errors.InsufficientFunds(fmt.Sprintf(
			"need %s, have %s", s.format.Format(service.Cost), s.format.Format(balance.Money)))
	}

	if _, err := s.store.Debit(communityID, customerID, service.Cost); err != nil {
		return nil, errors.Internal("failed to debit balance", err)
	}

	now := s.now()
	order := &domain.RedeemOrder{
		OrderNo:     id.OrderNumber(settings.OrderPrefix, now),
		CommunityID: communityID,
		CustomerID:  customerID,
		ServiceID:   service.ID,
		ServiceName: service.Name,
		Cost:        service.Cost,
		Status:      domain.OrderPending,
		CreatedAt:   now,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		// The debit landed but the order did not; give the money back.
		if _, refundErr := s.store.Refund(communityID, customerID, service.Cost); refundErr != nil {
			s.logger.Error("Refund after failed order insert also failed",
				"community_id", communityID,
				"customer_id", customerID,
				"amount", service.Cost,
				"error", refundErr)
		}
		return nil, errors.Internal("failed to create order", err)
	}

	s.logger.Info("Redemption accepted",
		"community_id", communityID,
		"customer_id", customerID,
		"order_no", order.OrderNo,
		"service_id", service.ID,
		"cost", service.Cost)

	_ = s.gateway.EmitLog(ctx, communityID, fmt.Sprintf(
		"Order %s: <@%s> redeemed %s for %s",
		order.OrderNo, customerID, service.Name, s.format.Format(service.Cost)))

	return order, nil
}

// MarkOrderFulfilled flips a pending order to done. Fulfillment is one-way
// and idempotent: a repeated signal reports changed=false, re-mutates
// nothing, and re-notifies nobody.
func (s *Service) MarkOrderFulfilled(ctx context.Context, orderNo string) (*domain.RedeemOrder, bool, error) {
	changed, err := s.orders.MarkFulfilled(ctx, orderNo, s.now())
	if errors.Is(err, orders.ErrOrderNotFound) {
		return nil, false, errors.NotFound(fmt.Sprintf("order %q not found", orderNo))
	}
	if err != nil {
		return nil, false, errors.Internal("failed to mark order fulfilled", err)
	}

	order, err := s.orders.GetOrder(ctx, orderNo)
	if err != nil {
		return nil, false, errors.Internal("failed to load order", err)
	}

	if changed {
		s.logger.Info("Order fulfilled", "order_no", orderNo,
			"community_id", order.CommunityID, "customer_id", order.CustomerID)
		_ = s.gateway.EmitLog(ctx, order.CommunityID, fmt.Sprintf(
			"Order %s for <@%s> has been fulfilled", orderNo, order.CustomerID))
	}
	return order, changed, nil
}

// ListOrders returns a community's redemption orders, newest first.
func (s *Service) ListOrders(ctx context.Context, communityID string, limit int) ([]*domain.RedeemOrder, error) {
	list, err := s.orders.ListOrders(ctx, communityID, limit)
	if err != nil {
		return nil, errors.Internal("failed to list orders", err)
	}
	return list, nil
}

// LogBill records a manual sale in the orders log. Bills never touch the
// balance ledger; they exist for the audit trail.
func (s *Service) LogBill(ctx context.Context, communityID, customerID, product, price, billURL string) (*domain.BillOrder, error) {
	billID, err := id.Generate("bill")
	if err != nil {
		return nil, errors.Internal("failed to generate bill ID", err)
	}

	bill := &domain.BillOrder{
		ID:          billID,
		CommunityID: communityID,
		CustomerID:  customerID,
		Product:     product,
		Price:       price,
		BillURL:     billURL,
		Status:      domain.OrderPending,
		CreatedAt:   s.now(),
	}
	if err := s.orders.CreateBillOrder(ctx, bill); err != nil {
		return nil, errors.Internal("failed to create bill order", err)
	}

	s.logger.Info("Bill logged", "bill_id", bill.ID,
		"community_id", communityID, "customer_id", customerID, "product", product)
	return bill, nil
}

// MarkBillDone flips a pending bill to done, idempotently.
func (s *Service) MarkBillDone(ctx context.Context, billID string) (bool, error) {
	changed, err := s.orders.MarkBillDone(ctx, billID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		return false, errors.NotFound(fmt.Sprintf("bill %q not found", billID))
	}
	if err != nil {
		return false, errors.Internal("failed to mark bill done", err)
	}
	return changed, nil
}

// ListBills returns a community's logged sales, newest first.
func (s *Service) ListBills(ctx context.Context, communityID string, limit int) ([]*domain.BillOrder, error) {
	list, err := s.orders.ListBillOrders(ctx, communityID, limit)
	if err != nil {
		return nil, errors.Internal("failed to list bills", err)
	}
	return list, nil
}
