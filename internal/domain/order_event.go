package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
	EventOrderDeleted       = "order.deleted"
)

type OrderCreatedEvent struct {
	OrderID   string           `json:"orderId"`
	UserID    string           `json:"userId"`
	Items     []OrderEventItem `json:"items"`
	Total     decimal.Decimal  `json:"total"`
	CreatedAt time.Time        `json:"createdAt"`
}

type OrderEventItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderStatusUpdatedEvent struct {
	OrderID   string      `json:"orderId"`
	Status    OrderStatus `json:"status"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type OrderDeletedEvent struct {
	OrderID string `json:"orderId"`
}

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	items := make([]OrderEventItem, 0, len(o.OrderItems))
	for _, it := range o.OrderItems {
		items = append(items, OrderEventItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return OrderCreatedEvent{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Items:     items,
		Total:     o.Total(),
		CreatedAt: o.CreatedAt,
	}
}
