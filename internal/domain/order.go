package domain

import "time"

// OrderStatus tracks the fulfillment state of an order.
type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderDone    OrderStatus = "done"
)

// RedeemOrder records a redemption: a debit against the balance ledger in
// exchange for a catalog service, awaiting external fulfillment.
type RedeemOrder struct {
	OrderNo     string      `json:"order_no"`
	CommunityID string      `json:"community_id"`
	CustomerID  string      `json:"customer_id"`
	ServiceID   string      `json:"service_id"`
	ServiceName string      `json:"service_name"`
	Cost        int64       `json:"cost"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	FulfilledAt *time.Time  `json:"fulfilled_at,omitempty"`
}

// Done reports whether the order has been fulfilled.
func (o *RedeemOrder) Done() bool {
	return o.Status == OrderDone
}

// BillOrder records a manual sale logged by an admin. Unlike redemptions it
// carries a free-form price string and never touches the balance ledger.
type BillOrder struct {
	ID          string      `json:"id"`
	CommunityID string      `json:"community_id"`
	CustomerID  string      `json:"customer_id"`
	Product     string      `json:"product"`
	Price       string      `json:"price"`
	BillURL     string      `json:"bill_url,omitempty"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}
