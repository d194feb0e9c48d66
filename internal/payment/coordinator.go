// Package payment drives a bill payment intent from detection to a settled
// or failed outcome.
//
// An attempt walks Idle → Detecting → Guarding → OrderPending → Verifying and
// ends in Settled or Failed. The balance guard always runs before an order is
// created, and only the order created by the attempt is ever verified. Once an
// order exists the attempt ignores caller cancellation and runs to a terminal
// state under the settlement timeout.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/and161185/vpay/internal/errs"
	"github.com/and161185/vpay/internal/intent"
	"github.com/and161185/vpay/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type State string

const (
	Idle         State = "IDLE"
	Detecting    State = "DETECTING"
	Guarding     State = "GUARDING"
	OrderPending State = "ORDER_PENDING"
	Verifying    State = "VERIFYING"
	Settled      State = "SETTLED"
	Failed       State = "FAILED"
)

const (
	defaultSettlementTimeout = 30 * time.Second
	historyRefreshTimeout    = 10 * time.Second
)

type Outcome struct {
	State        State
	Intent       model.Intent
	Order        model.PendingOrder
	NewBalance   decimal.Decimal
	Reason       error
	Notification Notification
}

type Coordinator struct {
	initiator *Initiator
	verifier  *Verifier
	accounts  AccountService
	history   HistoryRefresher
	notifier  Notifier
	logger    *zap.SugaredLogger

	settlementTimeout time.Duration

	mu   sync.Mutex
	busy map[int]struct{}
	wg   sync.WaitGroup
}

type Option func(*Coordinator)

func WithSettlementTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.settlementTimeout = d
		}
	}
}

func NewCoordinator(orders OrderService, accounts AccountService, history HistoryRefresher, notifier Notifier, logger *zap.SugaredLogger, opts ...Option) *Coordinator {
	c := &Coordinator{
		initiator:         NewInitiator(orders),
		verifier:          NewVerifier(orders),
		accounts:          accounts,
		history:           history,
		notifier:          notifier,
		logger:            logger,
		settlementTimeout: defaultSettlementTimeout,
		busy:              make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) ProcessTranscript(text string) model.Intent {
	return intent.Extract(text)
}

// HandleIntent runs one payment attempt for the snapshot's account. The error
// is non-nil only when the attempt did not start: the caller's context was
// already done, or another attempt for the same account is in flight
// (ErrAttemptInProgress). Payment failures are reported through
// Outcome.Reason.
func (c *Coordinator) HandleIntent(ctx context.Context, in model.Intent, snapshot model.AccountSnapshot, token string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{State: Idle, Intent: in}, err
	}
	if !c.acquire(snapshot.ID) {
		return Outcome{State: Idle, Intent: in}, errs.ErrAttemptInProgress
	}
	defer c.release(snapshot.ID)

	a := &attempt{accountID: snapshot.ID, state: Idle, logger: c.logger}
	out := Outcome{Intent: in}

	a.to(Detecting)
	if !in.Actionable() {
		a.to(Idle)
		out.State = Idle
		out.Reason = errs.ErrNoActionableIntent
		out.Notification = c.notify(ctx, Notification{
			AccountID: snapshot.ID,
			Kind:      KindInfo,
			Reason:    ReasonCode(out.Reason),
			Message:   ReasonMessage(out.Reason),
		})
		return out, nil
	}

	a.to(Guarding)
	if !CanAfford(snapshot, in.Amount) {
		return c.fail(ctx, a, out, errs.ErrInsufficientFunds), nil
	}

	// from here on the attempt must reach a terminal state
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.settlementTimeout)
	defer cancel()

	a.to(OrderPending)
	order, err := c.initiator.CreateOrder(settleCtx, in.Amount, in.Biller, in.Category, token)
	if err != nil {
		return c.fail(ctx, a, out, err), nil
	}
	a.orderID = order.OrderID

	a.to(Verifying)
	order.Status = model.Verifying
	out.Order = order
	if err := c.verifier.VerifyPayment(settleCtx, order, token); err != nil {
		out.Order.Status = model.Failed
		if errors.Is(err, errs.ErrServiceUnavailable) {
			err = fmt.Errorf("%w: %w", errs.ErrAmbiguousSettlement, err)
		}
		return c.fail(ctx, a, out, err), nil
	}

	a.to(Settled)
	out.State = Settled
	out.Order.Status = model.Settled
	out.NewBalance = snapshot.Balance.Sub(decimal.NewFromInt(order.Amount))

	if err := c.accounts.ProposeBalance(settleCtx, snapshot.ID, out.NewBalance); err != nil {
		c.logger.Warnf("propose balance for account %d: %v", snapshot.ID, err)
	}

	out.Notification = c.notify(ctx, Notification{
		AccountID: snapshot.ID,
		OrderID:   order.OrderID,
		Kind:      KindSuccess,
		Message:   successMessage(order),
	})
	c.logger.Infof("account %d: order %s settled, proposed balance %s", snapshot.ID, order.OrderID, out.NewBalance)

	c.refreshHistory(ctx, snapshot.ID)

	return out, nil
}

// Wait blocks until every background history refresh has returned.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) fail(ctx context.Context, a *attempt, out Outcome, reason error) Outcome {
	a.to(Failed)
	out.State = Failed
	out.Reason = reason
	out.Notification = c.notify(ctx, Notification{
		AccountID: a.accountID,
		OrderID:   a.orderID,
		Kind:      KindFailure,
		Reason:    ReasonCode(reason),
		Message:   ReasonMessage(reason),
	})
	c.logger.Warnf("account %d: payment failed: %v", a.accountID, reason)
	return out
}

func (c *Coordinator) notify(ctx context.Context, n Notification) Notification {
	c.notifier.Notify(context.WithoutCancel(ctx), n)
	return n
}

func (c *Coordinator) refreshHistory(ctx context.Context, accountID int) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyRefreshTimeout)
		defer cancel()

		if err := c.history.RefreshHistory(refreshCtx, accountID); err != nil {
			c.logger.Warnf("account %d: %v", accountID, fmt.Errorf("%w: %w", errs.ErrHistoryUnavailable, err))
		}
	}()
}

func (c *Coordinator) acquire(accountID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.busy[accountID]; ok {
		return false
	}
	c.busy[accountID] = struct{}{}
	return true
}

func (c *Coordinator) release(accountID int) {
	c.mu.Lock()
	delete(c.busy, accountID)
	c.mu.Unlock()
}

type attempt struct {
	accountID int
	orderID   string
	state     State
	logger    *zap.SugaredLogger
}

func (a *attempt) to(next State) {
	a.logger.Debugw("payment state", "account", a.accountID, "order", a.orderID, "from", a.state, "to", next)
	a.state = next
}
