package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Order struct {
	ID         string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID     string      `json:"userId" gorm:"type:varchar(36);not null;index"`
	Status     OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	OrderItems []OrderItem `json:"orderItems" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time   `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time   `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// Total is the sum of unitPrice * quantity over the order's items. It is
// never stored.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.OrderItems {
		total = total.Add(item.Subtotal())
	}
	return total
}

// OrderItem is created together with its order and never updated.
type OrderItem struct {
	ID        string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	OrderID   string          `json:"orderId" gorm:"type:varchar(36);not null;index"`
	ProductID string          `json:"productId" gorm:"type:varchar(36);not null;index"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RequestedItem is one line of a proposed order. A nil UnitPrice means the
// product's current price is captured.
type RequestedItem struct {
	ProductID string
	Quantity  int
	UnitPrice *decimal.Decimal
}

// StockDecrement asks the store to lower a product's stock by Quantity,
// only if at least Quantity is on hand.
type StockDecrement struct {
	ProductID string
	Quantity  int
}
