package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"comazon/internal/domain"
	"comazon/internal/mocks"
	"comazon/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderMocks struct {
	orders    *mocks.MockOrderRepository
	products  *mocks.MockProductRepository
	users     *mocks.MockUserRepository
	publisher *mocks.MockPublisher
}

func newOrderMocks() orderMocks {
	return orderMocks{
		orders:    new(mocks.MockOrderRepository),
		products:  new(mocks.MockProductRepository),
		users:     new(mocks.MockUserRepository),
		publisher: new(mocks.MockPublisher),
	}
}

func (m orderMocks) service() *OrderService {
	return NewOrderService(m.orders, m.products, m.users, m.publisher)
}

func (m orderMocks) assert(t *testing.T) {
	m.orders.AssertExpectations(t)
	m.products.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestOrderService_PlaceOrder(t *testing.T) {
	override := decimal.RequireFromString("7.50")

	tests := []struct {
		name       string
		items      []domain.RequestedItem
		setupMocks func(m orderMocks)
		wantErr    error
		check      func(t *testing.T, order *domain.Order, err error)
	}{
		{
			name:    "no items",
			items:   nil,
			wantErr: nil,
			check: func(t *testing.T, order *domain.Order, err error) {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "orderItems", ve.Field)
			},
		},
		{
			name:  "zero quantity",
			items: []domain.RequestedItem{item(testProductID, 0)},
			check: func(t *testing.T, order *domain.Order, err error) {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "orderItems[0].quantity", ve.Field)
			},
		},
		{
			name:  "missing product id",
			items: []domain.RequestedItem{item(testProductID, 1), item("", 1)},
			check: func(t *testing.T, order *domain.Order, err error) {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "orderItems[1].productId", ve.Field)
			},
		},
		{
			name: "negative unit price",
			items: []domain.RequestedItem{{
				ProductID: testProductID,
				Quantity:  1,
				UnitPrice: func() *decimal.Decimal { d := decimal.NewFromInt(-1); return &d }(),
			}},
			check: func(t *testing.T, order *domain.Order, err error) {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "orderItems[0].unitPrice", ve.Field)
			},
		},
		{
			name:  "quantity above line limit",
			items: []domain.RequestedItem{item(testProductID, domain.MaxItemQuantity+1)},
			check: func(t *testing.T, order *domain.Order, err error) {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "orderItems[0].quantity", ve.Field)
			},
		},
		{
			name: "unit price finer than cents",
			items: []domain.RequestedItem{{
				ProductID: testProductID,
				Quantity:  1,
				UnitPrice: func() *decimal.Decimal { d := decimal.RequireFromString("1.005"); return &d }(),
			}},
			check: func(t *testing.T, order *domain.Order, err error) {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "orderItems[0].unitPrice", ve.Field)
			},
		},
		{
			name:  "owner does not exist",
			items: []domain.RequestedItem{item(testProductID, 1)},
			setupMocks: func(m orderMocks) {
				m.users.On("Exists", mock.Anything, testUserID).Return(false, nil)
			},
			wantErr: domain.ErrOwnerNotFound,
		},
		{
			name:  "exact stock succeeds",
			items: []domain.RequestedItem{item(testProductID, 5)},
			setupMocks: func(m orderMocks) {
				m.users.On("Exists", mock.Anything, testUserID).Return(true, nil)
				m.products.On("FindByIDs", mock.Anything, []string{testProductID}).
					Return([]domain.Product{*newProduct(testProductID, "12.50", 5)}, nil)
				m.orders.On("CreateWithStock", mock.Anything, mock.AnythingOfType("*domain.Order"),
					[]domain.StockDecrement{{ProductID: testProductID, Quantity: 5}}).
					Return(nil).Run(func(args mock.Arguments) {
					args.Get(1).(*domain.Order).ID = testOrderID
				})
				m.publisher.On("Publish", mock.Anything, domain.EventOrderCreated, mock.AnythingOfType("domain.OrderCreatedEvent")).Return(nil)
			},
			check: func(t *testing.T, order *domain.Order, err error) {
				require.NoError(t, err)
				assert.Equal(t, testOrderID, order.ID)
				assert.Equal(t, testUserID, order.UserID)
				assert.Equal(t, domain.StatusPending, order.Status)
				require.Len(t, order.OrderItems, 1)
				assert.True(t, order.OrderItems[0].UnitPrice.Equal(decimal.RequireFromString("12.50")))
				assert.True(t, order.Total().Equal(decimal.RequireFromString("62.50")))
			},
		},
		{
			name:  "one over stock fails",
			items: []domain.RequestedItem{item(testProductID, 6)},
			setupMocks: func(m orderMocks) {
				m.users.On("Exists", mock.Anything, testUserID).Return(true, nil)
				m.products.On("FindByIDs", mock.Anything, []string{testProductID}).
					Return([]domain.Product{*newProduct(testProductID, "12.50", 5)}, nil)
			},
			check: func(t *testing.T, order *domain.Order, err error) {
				var se *domain.InsufficientStockError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, []domain.Shortage{{ProductID: testProductID, Requested: 6, Available: 5}}, se.Shortages)
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
				assert.NotErrorIs(t, err, domain.ErrUnknownProduct)
			},
		},
		{
			name:  "duplicate lines are summed before checking",
			items: []domain.RequestedItem{item(testProductID, 3), item(testProductID, 3)},
			setupMocks: func(m orderMocks) {
				m.users.On("Exists", mock.Anything, testUserID).Return(true, nil)
				m.products.On("FindByIDs", mock.Anything, []string{testProductID}).
					Return([]domain.Product{*newProduct(testProductID, "1", 5)}, nil)
			},
			check: func(t *testing.T, order *domain.Order, err error) {
				var se *domain.InsufficientStockError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, 6, se.Shortages[0].Requested)
			},
		},
		{
			name:  "unknown product is reported",
			items: []domain.RequestedItem{item("b-missing", 1), item("a-present", 1)},
			setupMocks: func(m orderMocks) {
				m.users.On("Exists", mock.Anything, testUserID).Return(true, nil)
				m.products.On("FindByIDs", mock.Anything, []string{"a-present", "b-missing"}).
					Return([]domain.Product{*newProduct("a-present", "1", 10)}, nil)
			},
			check: func(t *testing.T, order *domain.Order, err error) {
				assert.ErrorIs(t, err, domain.ErrUnknownProduct)
				var se *domain.InsufficientStockError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, []domain.Shortage{{ProductID: "b-missing", Requested: 1, Unknown: true}}, se.Shortages)
			},
		},
		{
			name: "unit price override and multi product decrements",
			items: []domain.RequestedItem{
				{ProductID: "p2", Quantity: 2, UnitPrice: &override},
				item("p1", 1),
				item("p2", 1),
			},
			setupMocks: func(m orderMocks) {
				m.users.On("Exists", mock.Anything, testUserID).Return(true, nil)
				m.products.On("FindByIDs", mock.Anything, []string{"p1", "p2"}).
					Return([]domain.Product{*newProduct("p1", "3", 1), *newProduct("p2", "10", 3)}, nil)
				m.orders.On("CreateWithStock", mock.Anything, mock.AnythingOfType("*domain.Order"),
					[]domain.StockDecrement{{ProductID: "p1", Quantity: 1}, {ProductID: "p2", Quantity: 3}}).
					Return(nil)
				m.publisher.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, order *domain.Order, err error) {
				require.NoError(t, err)
				require.Len(t, order.OrderItems, 3)
				assert.Equal(t, "p2", order.OrderItems[0].ProductID)
				assert.True(t, order.OrderItems[0].UnitPrice.Equal(override))
				assert.True(t, order.OrderItems[2].UnitPrice.Equal(decimal.NewFromInt(10)))
				// 2*7.50 + 1*3 + 1*10
				assert.True(t, order.Total().Equal(decimal.RequireFromString("28")))
			},
		},
		{
			name:  "stock taken between check and commit",
			items: []domain.RequestedItem{item(testProductID, 4)},
			setupMocks: func(m orderMocks) {
				m.users.On("Exists", mock.Anything, testUserID).Return(true, nil)
				m.products.On("FindByIDs", mock.Anything, []string{testProductID}).
					Return([]domain.Product{*newProduct(testProductID, "1", 5)}, nil)
				m.orders.On("CreateWithStock", mock.Anything, mock.Anything, mock.Anything).
					Return(&domain.InsufficientStockError{Shortages: []domain.Shortage{
						{ProductID: testProductID, Requested: 4, Available: -1},
					}})
			},
			wantErr: domain.ErrInsufficientStock,
		},
		{
			name:  "repository failure",
			items: []domain.RequestedItem{item(testProductID, 1)},
			setupMocks: func(m orderMocks) {
				m.users.On("Exists", mock.Anything, testUserID).Return(true, nil)
				m.products.On("FindByIDs", mock.Anything, mock.Anything).Return(nil, errors.New("database error"))
			},
			check: func(t *testing.T, order *domain.Order, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "database error")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newOrderMocks()
			if tt.setupMocks != nil {
				tt.setupMocks(m)
			}
			svc := m.service()

			order, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: testUserID, Items: tt.items})
			svc.Drain()

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, order, err)
			}
			if err != nil {
				assert.Nil(t, order)
			}
			m.assert(t)
		})
	}
}

func TestOrderService_PlaceOrderIdempotency(t *testing.T) {
	const key = "checkout-42"

	t.Run("duplicate key is rejected before touching stock", func(t *testing.T) {
		m := newOrderMocks()
		c := new(mocks.MockCache)
		c.On("Claim", mock.Anything, key).Return(false, nil)

		svc := m.service()
		svc.SetIdempotencyStore(c)

		order, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID: testUserID, Items: []domain.RequestedItem{item(testProductID, 1)}, IdempotencyKey: key,
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateRequest)
		assert.Nil(t, order)
		c.AssertExpectations(t)
		m.users.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
	})

	t.Run("failed placement releases the key", func(t *testing.T) {
		m := newOrderMocks()
		c := new(mocks.MockCache)
		c.On("Claim", mock.Anything, key).Return(true, nil)
		c.On("Release", mock.Anything, key).Return(nil)
		m.users.On("Exists", mock.Anything, testUserID).Return(false, nil)

		svc := m.service()
		svc.SetIdempotencyStore(c)

		_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID: testUserID, Items: []domain.RequestedItem{item(testProductID, 1)}, IdempotencyKey: key,
		})
		assert.ErrorIs(t, err, domain.ErrOwnerNotFound)
		c.AssertExpectations(t)
	})

	t.Run("successful placement keeps the key", func(t *testing.T) {
		store := newMemStore(newProduct(testProductID, "2", 3))
		users := new(mocks.MockUserRepository)
		users.On("Exists", mock.Anything, testUserID).Return(true, nil)
		c := new(mocks.MockCache)
		c.On("Claim", mock.Anything, key).Return(true, nil)
		c.On("InvalidateProducts", mock.Anything, []string{testProductID}).Return(nil)

		svc := NewOrderService(memOrders{store}, memProducts{store}, users, nil)
		svc.SetIdempotencyStore(c)
		svc.SetCache(c)

		_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID: testUserID, Items: []domain.RequestedItem{item(testProductID, 1)}, IdempotencyKey: key,
		})
		require.NoError(t, err)
		c.AssertExpectations(t)
		c.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})

	t.Run("store failure aborts placement", func(t *testing.T) {
		m := newOrderMocks()
		c := new(mocks.MockCache)
		c.On("Claim", mock.Anything, key).Return(false, errors.New("redis down"))

		svc := m.service()
		svc.SetIdempotencyStore(c)

		_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID: testUserID, Items: []domain.RequestedItem{item(testProductID, 1)}, IdempotencyKey: key,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis down")
	})
}

func TestOrderService_PlaceOrderAgainstStore(t *testing.T) {
	users := new(mocks.MockUserRepository)
	users.On("Exists", mock.Anything, testUserID).Return(true, nil)

	t.Run("failed order leaves stock untouched", func(t *testing.T) {
		store := newMemStore(newProduct("p1", "1", 5), newProduct("p2", "1", 1))
		svc := NewOrderService(memOrders{store}, memProducts{store}, users, nil)

		_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID: testUserID,
			Items:  []domain.RequestedItem{item("p1", 5), item("p2", 2)},
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, 5, store.stock("p1"))
		assert.Equal(t, 1, store.stock("p2"))
		assert.Equal(t, 0, store.orderCount())
	})

	t.Run("repeated lines above the product limit leave stock untouched", func(t *testing.T) {
		store := newMemStore(newProduct("p1", "1", 5))
		svc := NewOrderService(memOrders{store}, memProducts{store}, users, nil)

		_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID: testUserID,
			Items:  []domain.RequestedItem{item("p1", domain.MaxItemQuantity), item("p1", domain.MaxItemQuantity)},
		})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "orderItems[1].quantity", ve.Field)
		assert.Equal(t, 5, store.stock("p1"))
		assert.Equal(t, 0, store.orderCount())
	})

	t.Run("exact stock drains to zero", func(t *testing.T) {
		store := newMemStore(newProduct("p1", "1", 5))
		svc := NewOrderService(memOrders{store}, memProducts{store}, users, nil)

		order, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID: testUserID, Items: []domain.RequestedItem{item("p1", 5)},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, store.stock("p1"))

		got, err := svc.GetOrderById(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	})
}

func TestAggregateDemand(t *testing.T) {
	tests := []struct {
		name      string
		items     []domain.RequestedItem
		want      map[string]int
		wantIDs   []string
		wantField string
	}{
		{
			name:    "lines for one product are summed",
			items:   []domain.RequestedItem{item("b", 2), item("a", 1), item("b", 3)},
			want:    map[string]int{"a": 1, "b": 5},
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "sum may reach the limit",
			items:   []domain.RequestedItem{item("a", domain.MaxItemQuantity-1), item("a", 1)},
			want:    map[string]int{"a": domain.MaxItemQuantity},
			wantIDs: []string{"a"},
		},
		{
			name:      "sum above the limit",
			items:     []domain.RequestedItem{item("a", domain.MaxItemQuantity), item("a", 1)},
			wantField: "orderItems[1].quantity",
		},
		{
			name:      "lines that would wrap around",
			items:     []domain.RequestedItem{item("a", math.MaxInt), item("a", math.MaxInt)},
			wantField: "orderItems[0].quantity",
		},
		{
			name:      "non-positive line",
			items:     []domain.RequestedItem{item("a", 3), item("b", -4)},
			wantField: "orderItems[1].quantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			demand, ids, err := aggregateDemand(tt.items)
			if tt.wantField != "" {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, demand)
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestOrderService_ConcurrentPlacementNeverOversells(t *testing.T) {
	users := new(mocks.MockUserRepository)
	users.On("Exists", mock.Anything, testUserID).Return(true, nil)

	tests := []struct {
		name        string
		stock       int
		perOrder    int
		workers     int
		wantSuccess int32
		wantStock   int
	}{
		{name: "two orders of 60 against 100", stock: 100, perOrder: 60, workers: 2, wantSuccess: 1, wantStock: 40},
		{name: "ten orders of 15 against 100", stock: 100, perOrder: 15, workers: 10, wantSuccess: 6, wantStock: 10},
		{name: "fifty single units against 20", stock: 20, perOrder: 1, workers: 50, wantSuccess: 20, wantStock: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(newProduct(testProductID, "1", tt.stock))
			svc := NewOrderService(memOrders{store}, memProducts{store}, users, nil)

			var (
				wg        sync.WaitGroup
				succeeded atomic.Int32
				start     = make(chan struct{})
			)
			for i := 0; i < tt.workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
						UserID: testUserID, Items: []domain.RequestedItem{item(testProductID, tt.perOrder)},
					})
					if err == nil {
						succeeded.Add(1)
						return
					}
					assert.ErrorIs(t, err, domain.ErrInsufficientStock)
				}()
			}
			close(start)
			wg.Wait()

			assert.Equal(t, tt.wantSuccess, succeeded.Load())
			assert.Equal(t, tt.wantStock, store.stock(testProductID))
			assert.Equal(t, int(tt.wantSuccess), store.orderCount())
		})
	}
}

func TestOrderService_GetOrderById(t *testing.T) {
	m := newOrderMocks()
	m.orders.On("FindByID", mock.Anything, testOrderID).Return(newOrder(testOrderID, domain.StatusPending), nil)
	m.orders.On("FindByID", mock.Anything, "missing").Return(nil, nil)
	svc := m.service()

	o, err := svc.GetOrderById(context.Background(), testOrderID)
	require.NoError(t, err)
	assert.Equal(t, testOrderID, o.ID)

	o, err = svc.GetOrderById(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, o)
	m.assert(t)
}

func TestOrderService_ListUserOrders(t *testing.T) {
	m := newOrderMocks()
	m.users.On("Exists", mock.Anything, testUserID).Return(true, nil)
	m.users.On("Exists", mock.Anything, "ghost").Return(false, nil)
	m.orders.On("List", mock.Anything, repository.ListOptions{UserID: testUserID, Sort: repository.SortNewest}).
		Return([]domain.Order{*newOrder(testOrderID, domain.StatusPending)}, nil)
	svc := m.service()

	orders, err := svc.ListUserOrders(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	_, err = svc.ListUserOrders(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	m.assert(t)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		status     domain.OrderStatus
		setupMocks func(m orderMocks)
		wantErr    error
	}{
		{
			name:   "shipped",
			id:     testOrderID,
			status: domain.StatusShipped,
			setupMocks: func(m orderMocks) {
				m.orders.On("UpdateStatus", mock.Anything, testOrderID, domain.StatusShipped).
					Return(newOrder(testOrderID, domain.StatusShipped), nil)
				m.publisher.On("Publish", mock.Anything, domain.EventOrderStatusUpdated, mock.AnythingOfType("domain.OrderStatusUpdatedEvent")).Return(nil)
			},
		},
		{
			name:    "unknown status",
			id:      testOrderID,
			status:  "lost",
			wantErr: &domain.ValidationError{},
		},
		{
			name:   "missing order",
			id:     "missing",
			status: domain.StatusCancelled,
			setupMocks: func(m orderMocks) {
				m.orders.On("UpdateStatus", mock.Anything, "missing", domain.StatusCancelled).Return(nil, nil)
			},
			wantErr: domain.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newOrderMocks()
			if tt.setupMocks != nil {
				tt.setupMocks(m)
			}
			svc := m.service()

			o, err := svc.UpdateStatus(context.Background(), tt.id, tt.status)
			svc.Drain()

			switch want := tt.wantErr.(type) {
			case nil:
				require.NoError(t, err)
				assert.Equal(t, tt.status, o.Status)
			case *domain.ValidationError:
				assert.ErrorAs(t, err, &want)
			default:
				assert.ErrorIs(t, err, want)
			}
			m.assert(t)
		})
	}
}

func TestOrderService_DeleteOrder(t *testing.T) {
	m := newOrderMocks()
	m.orders.On("Delete", mock.Anything, testOrderID).Return(true, nil)
	m.orders.On("Delete", mock.Anything, "missing").Return(false, nil)
	m.publisher.On("Publish", mock.Anything, domain.EventOrderDeleted, domain.OrderDeletedEvent{OrderID: testOrderID}).Return(nil)
	svc := m.service()

	require.NoError(t, svc.DeleteOrder(context.Background(), testOrderID))
	assert.ErrorIs(t, svc.DeleteOrder(context.Background(), "missing"), domain.ErrOrderNotFound)

	svc.Drain()
	m.assert(t)
}

func TestOrderService_PublishFailureDoesNotFailPlacement(t *testing.T) {
	store := newMemStore(newProduct(testProductID, "1", 1))
	users := new(mocks.MockUserRepository)
	users.On("Exists", mock.Anything, testUserID).Return(true, nil)
	pub := new(mocks.MockPublisher)
	pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(errors.New("broker unavailable"))

	svc := NewOrderService(memOrders{store}, memProducts{store}, users, pub)
	order, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: testUserID, Items: []domain.RequestedItem{item(testProductID, 1)},
	})
	svc.Drain()

	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	pub.AssertExpectations(t)
}
