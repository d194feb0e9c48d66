package payment

import (
	"github.com/and161185/vpay/internal/model"
	"github.com/shopspring/decimal"
)

// CanAfford is true iff the snapshot balance covers amount.
func CanAfford(snapshot model.AccountSnapshot, amount int64) bool {
	return snapshot.Balance.GreaterThanOrEqual(decimal.NewFromInt(amount))
}
