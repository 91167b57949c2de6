package http

import (
	"context"
	"net/http"
	"time"

	"comazon/internal/services"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency for GET /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handler struct {
	users    *services.UserService
	products *services.ProductService
	orders   *services.OrderService
	checks   []HealthCheck
}

func NewHandler(users *services.UserService, products *services.ProductService, orders *services.OrderService, checks ...HealthCheck) *Handler {
	return &Handler{users: users, products: products, orders: orders, checks: checks}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) error {
	if err := RegisterValidators(); err != nil {
		return err
	}

	r.Use(ErrorTranslator())

	r.GET("/health", h.Health)

	users := r.Group("/users")
	users.POST("", h.CreateUser)
	users.GET("", h.ListUsers)
	users.GET("/:id", h.GetUser)
	users.PATCH("/:id", h.UpdateUser)
	users.DELETE("/:id", h.DeleteUser)
	users.GET("/:id/saved-items", h.ListSavedItems)
	users.POST("/:id/saved-items", h.SaveItem)
	users.DELETE("/:id/saved-items/:productId", h.RemoveSavedItem)
	users.GET("/:id/orders", h.ListUserOrders)

	products := r.Group("/products")
	products.POST("", h.CreateProduct)
	products.GET("", h.ListProducts)
	products.GET("/:id", h.GetProduct)
	products.PATCH("/:id", h.UpdateProduct)
	products.DELETE("/:id", h.DeleteProduct)

	orders := r.Group("/orders")
	orders.POST("", h.CreateOrder)
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.PATCH("/:id", h.UpdateOrder)
	orders.DELETE("/:id", h.DeleteOrder)

	return nil
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for _, hc := range h.checks {
		if err := hc.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			deps[hc.Name] = err.Error()
			continue
		}
		deps[hc.Name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "dependencies": deps})
}

// bindJSON marks binding failures so the error translator answers 400.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, q *listQuery) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return false
	}
	return true
}
