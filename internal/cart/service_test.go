package cart_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/siriwatk/bookstore-backend/internal/cart"
	"github.com/siriwatk/bookstore-backend/internal/catalog"
)

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetQuantity(ctx context.Context, userID, productID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID, productID)
	return args.Int(0), args.Error(1)
}

func (m *MockCartRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	args := m.Called(ctx, userID, productID, quantity)
	return args.Error(0)
}

func (m *MockCartRepository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	args := m.Called(ctx, userID, productID, quantity)
	return args.Error(0)
}

func (m *MockCartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *MockCartRepository) ListItems(ctx context.Context, userID uuid.UUID) ([]cart.Item, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.Item), args.Error(1)
}

func (m *MockCartRepository) Total(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) ListActive(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) ListAll(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestService() (cart.Service, *MockCartRepository, *MockProductRepository) {
	carts := new(MockCartRepository)
	products := new(MockProductRepository)
	return cart.NewService(carts, products), carts, products
}

func activeProduct(id uuid.UUID, stock int) *catalog.Product {
	return &catalog.Product{ID: id, Title: "The Go Programming Language", Price: 59800, Stock: stock, IsActive: true}
}

func TestService_AddItem_Success(t *testing.T) {
	svc, carts, products := newTestService()

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	products.On("GetByID", mock.Anything, productID).Return(activeProduct(productID, 10), nil).Once()
	carts.On("GetQuantity", mock.Anything, userID, productID).Return(2, nil).Once()
	carts.On("Upsert", mock.Anything, userID, productID, 3).Return(nil).Once()

	err := svc.AddItem(context.Background(), userID, productID, 3)

	require.NoError(t, err)
	carts.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestService_AddItem_StockExceeded(t *testing.T) {
	svc, carts, products := newTestService()

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	products.On("GetByID", mock.Anything, productID).Return(activeProduct(productID, 3), nil).Once()
	carts.On("GetQuantity", mock.Anything, userID, productID).Return(2, nil).Once()

	err := svc.AddItem(context.Background(), userID, productID, 2)

	require.ErrorIs(t, err, cart.ErrStockExceeded)
	carts.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_AddItem_ProductNotFound(t *testing.T) {
	svc, carts, products := newTestService()

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	products.On("GetByID", mock.Anything, productID).Return(nil, catalog.ErrProductNotFound).Once()

	err := svc.AddItem(context.Background(), userID, productID, 1)

	require.ErrorIs(t, err, cart.ErrProductNotFound)
	carts.AssertNotCalled(t, "GetQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_AddItem_InactiveProduct(t *testing.T) {
	svc, _, products := newTestService()

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	p := activeProduct(productID, 10)
	p.IsActive = false
	products.On("GetByID", mock.Anything, productID).Return(p, nil).Once()

	err := svc.AddItem(context.Background(), userID, productID, 1)

	require.ErrorIs(t, err, cart.ErrProductNotFound)
}

func TestService_AddItem_InvalidQuantity(t *testing.T) {
	svc, _, products := newTestService()

	err := svc.AddItem(context.Background(), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), 0)

	require.ErrorIs(t, err, cart.ErrInvalidQuantity)
	products.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestService_SetQuantity_Success(t *testing.T) {
	svc, carts, products := newTestService()

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	products.On("GetByID", mock.Anything, productID).Return(activeProduct(productID, 10), nil).Once()
	carts.On("SetQuantity", mock.Anything, userID, productID, 5).Return(nil).Once()

	err := svc.SetQuantity(context.Background(), userID, productID, 5)

	require.NoError(t, err)
	carts.AssertExpectations(t)
}

func TestService_SetQuantity_ExceedsStock(t *testing.T) {
	svc, carts, products := newTestService()

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	products.On("GetByID", mock.Anything, productID).Return(activeProduct(productID, 4), nil).Once()

	err := svc.SetQuantity(context.Background(), userID, productID, 5)

	require.ErrorIs(t, err, cart.ErrStockExceeded)
	carts.AssertNotCalled(t, "SetQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SetQuantity_LineNotFound(t *testing.T) {
	svc, carts, products := newTestService()

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	products.On("GetByID", mock.Anything, productID).Return(activeProduct(productID, 10), nil).Once()
	carts.On("SetQuantity", mock.Anything, userID, productID, 2).Return(cart.ErrLineNotFound).Once()

	err := svc.SetQuantity(context.Background(), userID, productID, 2)

	require.ErrorIs(t, err, cart.ErrItemNotInCart)
}

func TestService_RemoveItem_NotInCart(t *testing.T) {
	svc, carts, _ := newTestService()

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	carts.On("Remove", mock.Anything, userID, productID).Return(cart.ErrLineNotFound).Once()

	err := svc.RemoveItem(context.Background(), userID, productID)

	require.ErrorIs(t, err, cart.ErrItemNotInCart)
}

func TestService_ListItems(t *testing.T) {
	svc, carts, _ := newTestService()

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())
	items := []cart.Item{{ProductID: productID, Title: "The Go Programming Language", Price: 59800, Stock: 10, Quantity: 2}}

	carts.On("ListItems", mock.Anything, userID).Return(items, nil).Once()

	got, err := svc.ListItems(context.Background(), userID)

	require.NoError(t, err)
	require.Equal(t, items, got)
}
