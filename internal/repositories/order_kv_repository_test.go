package repositories_test

import (
	"errors"
	"testing"
	"time"

	"webstudio/internal/models"
	"webstudio/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(id, customer string) *models.Order {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.Order{
		ID:        id,
		Customer:  models.CustomerSnapshot{ID: customer},
		Status:    models.OrderStatusPending,
		Price:     249,
		Deposit:   75,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestKVOrderRepository_CreateAndGet(t *testing.T) {
	repo := repositories.NewKVOrderRepository(repositories.NewMockKVStore())

	orders, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, orders)

	require.NoError(t, repo.Create(newOrder("o1", "c1")))
	require.NoError(t, repo.Create(newOrder("o2", "c2")))
	require.NoError(t, repo.Create(newOrder("o3", "c1")))

	orders, err = repo.GetAll()
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []string{"o1", "o2", "o3"}, []string{orders[0].ID, orders[1].ID, orders[2].ID})

	order, err := repo.GetByID("o2")
	require.NoError(t, err)
	assert.Equal(t, "c2", order.Customer.ID)

	_, err = repo.GetByID("nope")
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)

	err = repo.Create(newOrder("o1", "c1"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestKVOrderRepository_Update(t *testing.T) {
	store := repositories.NewMockKVStore()
	repo := repositories.NewKVOrderRepository(store)
	require.NoError(t, repo.Create(newOrder("o1", "c1")))

	updated, err := repo.Update("o1", func(o *models.Order) error {
		o.DepositPaid = true
		o.Status = models.OrderStatusDepositPaid
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.DepositPaid)

	// A fresh repository over the same store sees the persisted state.
	reloaded, err := repositories.NewKVOrderRepository(store).GetByID("o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDepositPaid, reloaded.Status)
	assert.True(t, reloaded.DepositPaid)

	_, err = repo.Update("missing", func(*models.Order) error { return nil })
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
}

func TestKVOrderRepository_FailedMutationWritesNothing(t *testing.T) {
	repo := repositories.NewKVOrderRepository(repositories.NewMockKVStore())
	require.NoError(t, repo.Create(newOrder("o1", "c1")))

	boom := errors.New("boom")
	_, err := repo.Update("o1", func(o *models.Order) error {
		o.Status = models.OrderStatusCancelled
		return boom
	})
	assert.ErrorIs(t, err, boom)

	order, err := repo.GetByID("o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestKVOrderRepository_CorruptListIsDiscarded(t *testing.T) {
	store := repositories.NewMockKVStore()
	require.NoError(t, store.Set(repositories.KeyOrders, []byte("{not json")))
	repo := repositories.NewKVOrderRepository(store)

	orders, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = store.Get(repositories.KeyOrders)
	assert.ErrorIs(t, err, repositories.ErrKeyNotFound)

	require.NoError(t, repo.Create(newOrder("o1", "c1")))
	orders, err = repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestKVOrderRepository_OnGORMStore(t *testing.T) {
	repo := repositories.NewKVOrderRepository(newSQLiteStore(t))
	require.NoError(t, repo.Create(newOrder("o1", "c1")))

	order, err := repo.GetByID("o1")
	require.NoError(t, err)
	assert.Equal(t, int64(75), order.Deposit)
	assert.True(t, order.CreatedAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
}
