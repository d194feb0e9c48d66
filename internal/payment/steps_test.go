package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/and161185/vpay/internal/errs"
	"github.com/and161185/vpay/internal/mocks"
	"github.com/and161185/vpay/internal/model"
	"github.com/and161185/vpay/internal/payment"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAfford(t *testing.T) {
	tests := []struct {
		balance string
		amount  int64
		want    bool
	}{
		{"2500", 500, true},
		{"500", 500, true},
		{"300", 500, false},
		{"499.99", 500, false},
		{"500.01", 500, true},
		{"0", 0, true},
	}

	for _, tt := range tests {
		snap := model.AccountSnapshot{ID: 1, Balance: decimal.RequireFromString(tt.balance)}
		if got := payment.CanAfford(snap, tt.amount); got != tt.want {
			t.Errorf("CanAfford(%s, %d) = %v; want %v", tt.balance, tt.amount, got, tt.want)
		}
	}
}

func TestInitiator_CreateOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderService(ctrl)
	in := payment.NewInitiator(orders)

	orders.EXPECT().
		CreateOrder(gomock.Any(), model.OrderRequest{Amount: 200, Biller: model.MobileRecharge, Category: "Recharge"}, "tok").
		Return(model.OrderReceipt{OrderID: "order_9", Status: "created"}, nil)

	order, err := in.CreateOrder(context.Background(), 200, model.MobileRecharge, "Recharge", "tok")
	require.NoError(t, err)
	assert.Equal(t, model.PendingOrder{
		OrderID:  "order_9",
		Amount:   200,
		Biller:   model.MobileRecharge,
		Category: "Recharge",
		Status:   model.Created,
	}, order)
}

func TestInitiator_RejectsNonPositiveAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderService(ctrl)
	orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := payment.NewInitiator(orders).CreateOrder(context.Background(), 0, model.WaterBoard, "Water", "tok")
	require.ErrorIs(t, err, errs.ErrRejected)
}

func TestInitiator_EmptyOrderIDIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderService(ctrl)
	orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.OrderReceipt{}, nil)

	_, err := payment.NewInitiator(orders).CreateOrder(context.Background(), 10, model.WaterBoard, "Water", "tok")
	require.ErrorIs(t, err, errs.ErrRejected)
}

func TestInitiator_InsufficientFundsFromServerIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderService(ctrl)
	orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.OrderReceipt{}, errs.ErrInsufficientFunds)

	_, err := payment.NewInitiator(orders).CreateOrder(context.Background(), 10, model.WaterBoard, "Water", "tok")
	require.ErrorIs(t, err, errs.ErrRejected)
	require.ErrorIs(t, err, errs.ErrInsufficientFunds)
}

func TestVerifier_VerifyPayment(t *testing.T) {
	order := model.PendingOrder{OrderID: "order_1", Amount: 500, Status: model.Created}

	tests := []struct {
		name    string
		settled bool
		err     error
		want    error
	}{
		{"settled", true, nil, nil},
		{"negative answer", false, nil, errs.ErrVerificationFailed},
		{"explicit failure", false, errs.ErrVerificationFailed, errs.ErrVerificationFailed},
		{"unauthorized answer", false, errs.ErrUnauthorized, errs.ErrVerificationFailed},
		{"unreachable", false, errs.ErrServiceUnavailable, errs.ErrServiceUnavailable},
		{"transport error", false, errors.New("i/o timeout"), errs.ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			orders := mocks.NewMockOrderService(ctrl)
			orders.EXPECT().VerifyPayment(gomock.Any(), "order_1", int64(500), "tok").Return(tt.settled, tt.err)

			err := payment.NewVerifier(orders).VerifyPayment(context.Background(), order, "tok")
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReasonCode(t *testing.T) {
	assert.Equal(t, "ambiguous_settlement", payment.ReasonCode(errors.Join(errs.ErrAmbiguousSettlement, errs.ErrServiceUnavailable)))
	assert.Equal(t, "verification_failed", payment.ReasonCode(errs.ErrVerificationFailed))
	assert.Equal(t, "unknown", payment.ReasonCode(errors.New("boom")))
	assert.NotEqual(t, payment.ReasonMessage(errs.ErrAmbiguousSettlement), payment.ReasonMessage(errs.ErrVerificationFailed))
}
