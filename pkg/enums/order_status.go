package enums

import "strings"

// OrderStatus tracks where a placed order is in fulfillment.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
)

var orderStatuses = set[OrderStatus]{
	OrderStatusPending,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCanceled,
}

func (s OrderStatus) IsValid() bool { return orderStatuses.has(s) }

// ParseOrderStatus accepts any casing, so "Pending" from older clients maps to pending.
func ParseOrderStatus(value string) (OrderStatus, error) {
	return orderStatuses.parse("order status", strings.ToLower(strings.TrimSpace(value)))
}
