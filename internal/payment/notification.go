package payment

import (
	"errors"
	"fmt"

	"github.com/and161185/vpay/internal/errs"
	"github.com/and161185/vpay/internal/model"
)

type NotificationKind string

const (
	KindSuccess NotificationKind = "success"
	KindFailure NotificationKind = "failure"
	KindInfo    NotificationKind = "info"
)

type Notification struct {
	AccountID int              `json:"account_id"`
	OrderID   string           `json:"order_id,omitempty"`
	Kind      NotificationKind `json:"kind"`
	Reason    string           `json:"reason,omitempty"`
	Message   string           `json:"message"`
}

var reasons = []struct {
	err     error
	code    string
	message string
}{
	{errs.ErrNoActionableIntent, "no_actionable_intent", `No payment detected. Try saying "Pay my electricity bill 500".`},
	{errs.ErrInsufficientFunds, "insufficient_funds", "Insufficient balance."},
	{errs.ErrUnauthorized, "unauthorized", "Your session has expired. Please sign in again."},
	{errs.ErrAmbiguousSettlement, "ambiguous_settlement", "We could not confirm your payment. Check your transaction history before paying again."},
	{errs.ErrVerificationFailed, "verification_failed", "The payment was not confirmed by the bank. No money was taken."},
	{errs.ErrRejected, "rejected", "The payment request was declined."},
	{errs.ErrServiceUnavailable, "service_unavailable", "The payment service is unavailable. Please try again later."},
}

// ReasonCode maps a pipeline error to a stable machine-readable code.
func ReasonCode(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return "unknown"
}

func ReasonMessage(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.message
		}
	}
	return "An error occurred. Please try again later."
}

func successMessage(order model.PendingOrder) string {
	payee := string(order.Biller)
	if payee == "" {
		payee = "Merchant"
	}
	return fmt.Sprintf("Payment of ₹%d to %s successful!", order.Amount, payee)
}
