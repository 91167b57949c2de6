package http

import (
	"comazon/internal/domain"
	"comazon/internal/repository"

	"github.com/shopspring/decimal"
)

type PreferenceRequest struct {
	ReceiveEmail *bool   `json:"receiveEmail"`
	Theme        *string `json:"theme" binding:"omitempty,min=1,max=20"`
}

type CreateUserRequest struct {
	Email      string             `json:"email" binding:"required,email,max=255"`
	Name       string             `json:"name" binding:"required,max=100"`
	Preference *PreferenceRequest `json:"preference"`
}

func (r CreateUserRequest) toUser() *domain.User {
	u := &domain.User{Email: r.Email, Name: r.Name, Preference: &domain.UserPreference{}}
	if r.Preference != nil {
		if r.Preference.ReceiveEmail != nil {
			u.Preference.ReceiveEmail = *r.Preference.ReceiveEmail
		}
		if r.Preference.Theme != nil {
			u.Preference.Theme = *r.Preference.Theme
		}
	}
	return u
}

type UpdateUserRequest struct {
	Email      *string            `json:"email" binding:"omitempty,email,max=255"`
	Name       *string            `json:"name" binding:"omitempty,min=1,max=100"`
	Preference *PreferenceRequest `json:"preference"`
}

func (r UpdateUserRequest) toPatch() repository.UserPatch {
	patch := repository.UserPatch{Email: r.Email, Name: r.Name}
	if r.Preference != nil {
		patch.ReceiveEmail = r.Preference.ReceiveEmail
		patch.Theme = r.Preference.Theme
	}
	return patch
}

type SaveItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type CreateProductRequest struct {
	Name     string           `json:"name" binding:"required,max=255"`
	Price    *decimal.Decimal `json:"price" binding:"required"`
	Category string           `json:"category" binding:"required,max=50"`
	Stock    *int             `json:"stock" binding:"required,min=0"`
}

func (r CreateProductRequest) toProduct() *domain.Product {
	return &domain.Product{
		Name:     r.Name,
		Price:    *r.Price,
		Category: r.Category,
		Stock:    *r.Stock,
	}
}

type UpdateProductRequest struct {
	Name     *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Price    *decimal.Decimal `json:"price"`
	Category *string          `json:"category" binding:"omitempty,min=1,max=50"`
	Stock    *int             `json:"stock" binding:"omitempty,min=0"`
}

func (r UpdateProductRequest) toPatch() repository.ProductPatch {
	return repository.ProductPatch{Name: r.Name, Price: r.Price, Category: r.Category, Stock: r.Stock}
}

type OrderItemRequest struct {
	ProductID string           `json:"productId" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,min=1,max=1000000"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

type CreateOrderRequest struct {
	UserID     string             `json:"userId" binding:"required"`
	OrderItems []OrderItemRequest `json:"orderItems" binding:"required,min=1,dive"`
}

func (r CreateOrderRequest) items() []domain.RequestedItem {
	out := make([]domain.RequestedItem, 0, len(r.OrderItems))
	for _, it := range r.OrderItems {
		out = append(out, domain.RequestedItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return out
}

type UpdateOrderRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required,orderstatus"`
}

// OrderResponse adds the derived total to the stored order.
type OrderResponse struct {
	*domain.Order
	Total decimal.Decimal `json:"total"`
}

func newOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{Order: o, Total: o.Total()}
}

func newOrderResponses(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	return out
}
