package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll() ([]models.Product, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func TestCatalogSource_UnresolvedUntilFirstRead(t *testing.T) {
	repo := new(MockProductRepository)
	repo.On("GetAll").Return(nil, errors.New("database unavailable")).Once()
	source := services.NewCatalogSource(repo, time.Minute)

	products, ok := source.Latest()
	assert.False(t, ok)
	assert.Nil(t, products)

	_, err := source.Lookup("p1")
	assert.ErrorIs(t, err, services.ErrCatalogLoading)

	assert.Error(t, source.Refresh())
	_, ok = source.Latest()
	assert.False(t, ok, "a failed read must not resolve the catalog")

	repo.On("GetAll").Return([]models.Product{product("p1", "A", "10.00")}, nil).Once()
	require.NoError(t, source.Refresh())

	products, ok = source.Latest()
	assert.True(t, ok)
	assert.Len(t, products, 1)

	found, err := source.Lookup("p1")
	require.NoError(t, err)
	assert.Equal(t, "A", found.Title)

	_, err = source.Lookup("nope")
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	repo.AssertExpectations(t)
}

func TestCatalogSource_EmptyCatalogIsResolved(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	source := services.NewCatalogSource(repo, time.Minute)

	require.NoError(t, source.Refresh())
	products, ok := source.Latest()
	assert.True(t, ok)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestCatalogSource_SubscribersSeeLatestSnapshot(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	require.NoError(t, repo.Create(&models.Product{ID: "p1", Title: "A", Price: decimal.RequireFromString("10.00")}))
	source := services.NewCatalogSource(repo, time.Minute)

	updates, unsubscribe := source.Subscribe()

	require.NoError(t, source.Refresh())
	require.NoError(t, repo.Create(&models.Product{ID: "p2", Title: "B", Price: decimal.RequireFromString("2.00")}))
	require.NoError(t, source.Refresh())

	// two refreshes without a read: only the newest snapshot is kept
	select {
	case snapshot := <-updates:
		assert.Len(t, snapshot, 2)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	late, unsubscribeLate := source.Subscribe()
	select {
	case snapshot := <-late:
		assert.Len(t, snapshot, 2, "new subscribers get the current snapshot")
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered to late subscriber")
	}

	unsubscribe()
	unsubscribe()
	_, open := <-updates
	assert.False(t, open)
	unsubscribeLate()
}

func TestCatalogSource_RunRefreshesUntilCancelled(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	source := services.NewCatalogSource(repo, 10*time.Millisecond)
	updates, unsubscribe := source.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		source.Run(ctx)
		close(done)
	}()

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("catalog never resolved")
	}

	require.NoError(t, repo.Create(&models.Product{ID: "late", Title: "Late", Price: decimal.RequireFromString("1.00")}))
	assert.Eventually(t, func() bool {
		_, err := source.Lookup("late")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestCatalogSource_SkipsInvalidProducts(t *testing.T) {
	repo := new(MockProductRepository)
	repo.On("GetAll").Return([]models.Product{
		product("p1", "A", "10.00"),
		product("p2", "", "3.00"),
		product("p3", "Refund", "-1.00"),
	}, nil).Once()
	source := services.NewCatalogSource(repo, time.Minute)

	require.NoError(t, source.Refresh())

	products, ok := source.Latest()
	require.True(t, ok)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)
}
