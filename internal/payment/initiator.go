package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/vpay/internal/errs"
	"github.com/and161185/vpay/internal/model"
)

// Initiator creates pending orders. It never retries.
type Initiator struct {
	orders OrderService
}

func NewInitiator(orders OrderService) *Initiator {
	return &Initiator{orders: orders}
}

func (in *Initiator) CreateOrder(ctx context.Context, amount int64, biller model.Biller, category, token string) (model.PendingOrder, error) {
	if amount <= 0 {
		return model.PendingOrder{}, fmt.Errorf("create order: amount %d: %w", amount, errs.ErrRejected)
	}

	receipt, err := in.orders.CreateOrder(ctx, model.OrderRequest{
		Amount:   amount,
		Biller:   biller,
		Category: category,
	}, token)
	if err != nil {
		return model.PendingOrder{}, fmt.Errorf("create order: %w", classifyOrderError(err))
	}
	if receipt.OrderID == "" {
		return model.PendingOrder{}, fmt.Errorf("create order: empty order id: %w", errs.ErrRejected)
	}

	return model.PendingOrder{
		OrderID:  receipt.OrderID,
		Amount:   amount,
		Biller:   biller,
		Category: category,
		Status:   model.Created,
	}, nil
}

func classifyOrderError(err error) error {
	switch {
	case errors.Is(err, errs.ErrUnauthorized),
		errors.Is(err, errs.ErrRejected),
		errors.Is(err, errs.ErrServiceUnavailable):
		return err
	case errors.Is(err, errs.ErrInsufficientFunds):
		return fmt.Errorf("%w: %w", errs.ErrRejected, err)
	default:
		return fmt.Errorf("%w: %w", errs.ErrServiceUnavailable, err)
	}
}
