package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/vpay/internal/errs"
	"github.com/and161185/vpay/internal/model"
)

// Verifier confirms settlement of an order created in the same attempt.
type Verifier struct {
	orders OrderService
}

func NewVerifier(orders OrderService) *Verifier {
	return &Verifier{orders: orders}
}

// VerifyPayment returns nil when the order settled, ErrVerificationFailed on
// an explicit negative answer and ErrServiceUnavailable when the answer never
// arrived.
func (v *Verifier) VerifyPayment(ctx context.Context, order model.PendingOrder, token string) error {
	settled, err := v.orders.VerifyPayment(ctx, order.OrderID, order.Amount, token)
	if err != nil {
		if errors.Is(err, errs.ErrServiceUnavailable) || !isAnswer(err) {
			return fmt.Errorf("verify %s: %w: %w", order.OrderID, errs.ErrServiceUnavailable, err)
		}
		return fmt.Errorf("verify %s: %w: %w", order.OrderID, errs.ErrVerificationFailed, err)
	}
	if !settled {
		return fmt.Errorf("verify %s: %w", order.OrderID, errs.ErrVerificationFailed)
	}
	return nil
}

// isAnswer reports whether err is a response from the service rather than a
// transport failure.
func isAnswer(err error) bool {
	return errors.Is(err, errs.ErrVerificationFailed) ||
		errors.Is(err, errs.ErrUnauthorized) ||
		errors.Is(err, errs.ErrRejected)
}
