package http

import (
	"net/http"

	"comazon/internal/services"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), services.PlaceOrderRequest{
		UserID:         req.UserID,
		Items:          req.items(),
		IdempotencyKey: c.GetHeader(idempotencyHeader),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

func (h *Handler) ListOrders(c *gin.Context) {
	var q listQuery
	if !bindQuery(c, &q) {
		return
	}
	opts, err := q.options(0, false)
	if err != nil {
		_ = c.Error(err)
		return
	}
	opts.Category = ""

	orders, err := h.orders.ListOrders(c.Request.Context(), opts)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponses(orders))
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrderById(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

func (h *Handler) UpdateOrder(c *gin.Context) {
	var req UpdateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	if err := h.orders.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
