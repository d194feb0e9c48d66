package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type IntentKind string

const (
	Unknown     IntentKind = "unknown"
	BillPayment IntentKind = "bill_payment"
)

type Biller string

const (
	BillerNone       Biller = ""
	ElectricityBoard Biller = "Electricity Board"
	WaterBoard       Biller = "Water Board"
	MobileRecharge   Biller = "Mobile Recharge"
)

// Category is the display label that goes with a biller.
func (b Biller) Category() string {
	switch b {
	case ElectricityBoard:
		return "Electricity"
	case WaterBoard:
		return "Water"
	case MobileRecharge:
		return "Recharge"
	default:
		return ""
	}
}

// Intent is the parsed form of one transcript. Amount 0 and BillerNone mean
// "not determined".
type Intent struct {
	Kind     IntentKind `json:"type"`
	Amount   int64      `json:"amount"`
	Biller   Biller     `json:"biller,omitempty"`
	Category string     `json:"category,omitempty"`
}

// Actionable reports whether the intent can start a payment attempt.
func (i Intent) Actionable() bool {
	return i.Kind == BillPayment && i.Amount > 0
}

type OrderStatus string

const (
	Created   OrderStatus = "CREATED"
	Verifying OrderStatus = "VERIFYING"
	Settled   OrderStatus = "SETTLED"
	Failed    OrderStatus = "FAILED"
)

type PendingOrder struct {
	OrderID  string      `json:"order_id"`
	Amount   int64       `json:"amount"`
	Biller   Biller      `json:"biller,omitempty"`
	Category string      `json:"category,omitempty"`
	Status   OrderStatus `json:"status"`
}

type AccountSnapshot struct {
	ID      int             `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

type TransactionType string

const (
	Debit  TransactionType = "debit"
	Credit TransactionType = "credit"
)

// ledger-side transaction statuses
const (
	TxPending = "pending"
	TxSuccess = "success"
	TxExpired = "expired"
)

type TransactionRecord struct {
	ID        int             `json:"id"`
	OrderID   string          `json:"order_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Biller    string          `json:"biller"`
	Category  string          `json:"category"`
	Type      TransactionType `json:"type"`
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

type User struct {
	ID      int
	Login   string
	Balance decimal.Decimal
}

func (u User) Snapshot() AccountSnapshot {
	return AccountSnapshot{ID: u.ID, Balance: u.Balance}
}
