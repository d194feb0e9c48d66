package payment

import (
	"context"

	"github.com/and161185/vpay/internal/model"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=../mocks/mock_payment.go -package=mocks github.com/and161185/vpay/internal/payment OrderService,AccountService,HistoryRefresher,Notifier

// OrderService is the two-phase order backend. CreateOrder and VerifyPayment
// each issue exactly one request.
type OrderService interface {
	CreateOrder(ctx context.Context, req model.OrderRequest, token string) (model.OrderReceipt, error)
	VerifyPayment(ctx context.Context, orderID string, amount int64, token string) (bool, error)
}

// AccountService receives the optimistic balance after a settled order. The
// value is a proposal: the ledger stays authoritative.
type AccountService interface {
	ProposeBalance(ctx context.Context, accountID int, balance decimal.Decimal) error
}

type HistoryRefresher interface {
	RefreshHistory(ctx context.Context, accountID int) error
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
