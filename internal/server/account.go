package server

import (
	"context"
	"fmt"

	"github.com/and161185/vpay/internal/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// accountView takes the coordinator's optimistic balance and checks it
// against the ledger. The ledger debits on verify, so the proposal should
// match; a mismatch means another debit raced this one.
type accountView struct {
	storage Storage
	logger  *zap.SugaredLogger
}

func (a *accountView) ProposeBalance(ctx context.Context, accountID int, balance decimal.Decimal) error {
	actual, err := a.storage.GetBalance(ctx, accountID)
	if err != nil {
		return fmt.Errorf("read ledger balance: %w", err)
	}

	if !actual.Equal(balance) {
		a.logger.Warnw("balance drift", "account", accountID, "proposed", balance.String(), "ledger", actual.String())
		return nil
	}

	a.logger.Debugw("balance confirmed", "account", accountID, "balance", balance.String())
	return nil
}

type logNotifier struct {
	logger *zap.SugaredLogger
}

func (n *logNotifier) Notify(_ context.Context, note payment.Notification) {
	n.logger.Infow("notification",
		"account", note.AccountID,
		"order", note.OrderID,
		"kind", note.Kind,
		"reason", note.Reason,
		"message", note.Message,
	)
}
