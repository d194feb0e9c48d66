//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/vpay/internal/errs"
	"github.com/and161185/vpay/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupStorage(t *testing.T) *PostgresStorage {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("vpay"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewPostgresStorage(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	return store
}

func createUser(t *testing.T, store *PostgresStorage, login string) model.User {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, login, "hash"))

	user, _, err := store.GetUserByLogin(ctx, login)
	require.NoError(t, err)
	return user
}

func TestIntegration_Users(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()

	user := createUser(t, store, "asha")
	assert.True(t, user.Balance.Equal(InitialBalance))

	err := store.CreateUser(ctx, "asha", "hash")
	require.ErrorIs(t, err, errs.ErrLoginAlreadyExists)

	_, err = store.GetUserByID(ctx, user.ID+100)
	require.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestIntegration_CreateAndVerifyOrder(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()
	user := createUser(t, store, "ravi")

	req := model.OrderRequest{Amount: 500, Biller: model.ElectricityBoard, Category: "Electricity"}
	receipt, err := store.CreateOrder(ctx, user, req, "key-1")
	require.NoError(t, err)
	require.NotEmpty(t, receipt.OrderID)

	again, err := store.CreateOrder(ctx, user, req, "key-1")
	require.NoError(t, err)
	assert.Equal(t, receipt.OrderID, again.OrderID)

	settled, err := store.VerifyPayment(ctx, user, receipt.OrderID, 400)
	require.NoError(t, err)
	assert.False(t, settled, "amount mismatch must not settle")

	settled, err = store.VerifyPayment(ctx, user, receipt.OrderID, 500)
	require.NoError(t, err)
	assert.True(t, settled)

	settled, err = store.VerifyPayment(ctx, user, receipt.OrderID, 500)
	require.NoError(t, err)
	assert.True(t, settled)

	balance, err := store.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(2000)), "balance %s", balance)

	list, err := store.ListTransactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.TxSuccess, list[0].Status)
	assert.Equal(t, model.Debit, list[0].Type)
	assert.Equal(t, "Electricity Board", list[0].Biller)
}

func TestIntegration_InsufficientFunds(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()
	user := createUser(t, store, "meera")

	_, err := store.CreateOrder(ctx, user, model.OrderRequest{Amount: 3000}, "")
	require.ErrorIs(t, err, errs.ErrInsufficientFunds)
}

func TestIntegration_ExpireStaleOrder(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()
	user := createUser(t, store, "kiran")

	receipt, err := store.CreateOrder(ctx, user, model.OrderRequest{Amount: 100}, "")
	require.NoError(t, err)

	stale, err := store.GetStalePendingOrders(ctx, 0)
	require.NoError(t, err)
	require.Contains(t, stale, receipt.OrderID)

	expired, err := store.ExpireOrder(ctx, receipt.OrderID)
	require.NoError(t, err)
	assert.True(t, expired)

	expired, err = store.ExpireOrder(ctx, receipt.OrderID)
	require.NoError(t, err)
	assert.False(t, expired)

	settled, err := store.VerifyPayment(ctx, user, receipt.OrderID, 100)
	require.NoError(t, err)
	assert.False(t, settled, "expired order must not settle")

	status, err := store.GetOrderStatus(ctx, user, receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.TxExpired, status)
}
