package http

import (
	"net/http"

	"comazon/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.users.CreateUser(c.Request.Context(), req.toUser())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) ListUsers(c *gin.Context) {
	var q listQuery
	if !bindQuery(c, &q) {
		return
	}
	opts, err := q.options(defaultPageSize, false)
	if err != nil {
		_ = c.Error(err)
		return
	}

	users, err := h.users.ListUsers(c.Request.Context(), opts)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.users.GetUserById(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Email == nil && req.Name == nil && req.Preference == nil {
		_ = c.Error(&domain.ValidationError{Field: "body", Message: "no updatable fields provided"})
		return
	}

	u, err := h.users.UpdateUser(c.Request.Context(), c.Param("id"), req.toPatch())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.users.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListSavedItems(c *gin.Context) {
	items, err := h.users.SavedItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) SaveItem(c *gin.Context) {
	var req SaveItemRequest
	if !bindJSON(c, &req) {
		return
	}

	items, err := h.users.SaveItem(c.Request.Context(), c.Param("id"), req.ProductID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, items)
}

func (h *Handler) RemoveSavedItem(c *gin.Context) {
	if err := h.users.RemoveSavedItem(c.Request.Context(), c.Param("id"), c.Param("productId")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListUserOrders(c *gin.Context) {
	orders, err := h.orders.ListUserOrders(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponses(orders))
}
