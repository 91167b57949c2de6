package http

import (
	"net/http"

	"comazon/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.products.CreateProduct(c.Request.Context(), req.toProduct())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListProducts(c *gin.Context) {
	var q listQuery
	if !bindQuery(c, &q) {
		return
	}
	opts, err := q.options(defaultPageSize, true)
	if err != nil {
		_ = c.Error(err)
		return
	}
	opts.UserID = ""

	products, err := h.products.ListProducts(c.Request.Context(), opts)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.products.GetProductById(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var req UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	patch := req.toPatch()
	if patch.Empty() {
		_ = c.Error(&domain.ValidationError{Field: "body", Message: "no updatable fields provided"})
		return
	}

	p, err := h.products.UpdateProduct(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.products.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
