// Package history keeps the last transaction list fetched from the ledger for
// every account.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/and161185/vpay/internal/errs"
	"github.com/and161185/vpay/internal/model"
	"go.uber.org/zap"
)

type Lister interface {
	ListTransactions(ctx context.Context, accountID int) ([]model.TransactionRecord, error)
}

type Cache struct {
	ledger Lister
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	entries map[int][]model.TransactionRecord
}

func NewCache(ledger Lister, logger *zap.SugaredLogger) *Cache {
	return &Cache{
		ledger:  ledger,
		logger:  logger,
		entries: make(map[int][]model.TransactionRecord),
	}
}

// RefreshHistory reloads the account's list from the ledger. On failure the
// previously cached list is kept.
func (c *Cache) RefreshHistory(ctx context.Context, accountID int) error {
	_, err := c.load(ctx, accountID)
	return err
}

// Transactions reads through to the ledger. When the ledger fails and a cached
// list exists, the cached list is returned with the error so callers can show
// stale data.
func (c *Cache) Transactions(ctx context.Context, accountID int) ([]model.TransactionRecord, error) {
	list, err := c.load(ctx, accountID)
	if err == nil {
		return list, nil
	}

	c.mu.RLock()
	cached, ok := c.entries[accountID]
	c.mu.RUnlock()
	if ok {
		return cached, err
	}
	return nil, err
}

func (c *Cache) load(ctx context.Context, accountID int) ([]model.TransactionRecord, error) {
	list, err := c.ledger.ListTransactions(ctx, accountID)
	if err != nil {
		c.logger.Errorf("list transactions for account %d: %v", accountID, err)
		return nil, fmt.Errorf("%w: %w", errs.ErrHistoryUnavailable, err)
	}

	c.mu.Lock()
	c.entries[accountID] = list
	c.mu.Unlock()

	return list, nil
}
