package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/vpay/internal/errs"
	"github.com/and161185/vpay/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var InitialBalance = decimal.NewFromInt(2500)

type PostgresStorage struct {
	db *pgxpool.Pool
}

func (store *PostgresStorage) initSchema(ctx context.Context) error {
	const initSchemaQuery = `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		login TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		balance NUMERIC(14, 2) NOT NULL DEFAULT 2500 CHECK (balance >= 0),
		created_at TIMESTAMPTZ DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS transactions (
		id SERIAL PRIMARY KEY,
		order_id TEXT UNIQUE NOT NULL,
		user_id INT NOT NULL REFERENCES users(id),
		amount NUMERIC(14, 2) NOT NULL,
		type TEXT NOT NULL DEFAULT 'debit',
		biller TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		idempotency_key TEXT,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW(),
		UNIQUE (user_id, idempotency_key)
	);`

	_, err := store.db.Exec(ctx, initSchemaQuery)
	return err
}

func NewPostgresStorage(ctx context.Context, databaseURI string) (*PostgresStorage, error) {
	db, err := pgxpool.New(ctx, databaseURI)
	if err != nil {
		return nil, err
	}

	storage := &PostgresStorage{db: db}

	if err := storage.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := storage.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

func (store *PostgresStorage) Ping(ctx context.Context) error {
	return store.db.Ping(ctx)
}

func (store *PostgresStorage) Close() {
	store.db.Close()
}

func (store *PostgresStorage) CreateUser(ctx context.Context, login string, passwordHash string) error {
	const insertUserQuery = `INSERT INTO users (login, password_hash, balance) VALUES ($1, $2, $3::text::numeric)`

	_, err := store.db.Exec(ctx, insertUserQuery, login, passwordHash, InitialBalance.String())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// unique_violation
			return errs.ErrLoginAlreadyExists
		}
		return err
	}

	return nil
}

func (s *PostgresStorage) GetUserByLogin(ctx context.Context, login string) (model.User, string, error) {
	const query = `SELECT id, login, balance::text, password_hash FROM users WHERE login = $1`

	var user model.User
	var balance, hash string

	err := s.db.QueryRow(ctx, query, login).Scan(&user.ID, &user.Login, &balance, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, "", errs.ErrUserNotFound
		}
		return model.User{}, "", fmt.Errorf("get user by login: %w", err)
	}

	if user.Balance, err = decimal.NewFromString(balance); err != nil {
		return model.User{}, "", fmt.Errorf("parse balance: %w", err)
	}

	return user, hash, nil
}

func (s *PostgresStorage) GetUserByID(ctx context.Context, id int) (model.User, error) {
	const query = `SELECT id, login, balance::text FROM users WHERE id = $1`

	var user model.User
	var balance string

	err := s.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Login, &balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, errs.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user by id: %w", err)
	}

	if user.Balance, err = decimal.NewFromString(balance); err != nil {
		return model.User{}, fmt.Errorf("parse balance: %w", err)
	}

	return user, nil
}

func (s *PostgresStorage) GetBalance(ctx context.Context, userID int) (decimal.Decimal, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.Balance, nil
}

// CreateOrder records a pending debit for the user. A repeated idempotency
// key returns the order created the first time.
func (s *PostgresStorage) CreateOrder(ctx context.Context, user model.User, req model.OrderRequest, idempotencyKey string) (model.OrderReceipt, error) {
	const lockUserQuery = `SELECT balance::text FROM users WHERE id = $1 FOR UPDATE`

	const existingOrderQuery = `
		SELECT order_id, amount::text, status
		FROM transactions
		WHERE user_id = $1 AND idempotency_key = $2`

	const insertOrderQuery = `
		INSERT INTO transactions (order_id, user_id, amount, type, biller, category, status, idempotency_key)
		VALUES ($1, $2, $3, 'debit', $4, $5, 'pending', $6)`

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return model.OrderReceipt{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var balanceText string
	err = tx.QueryRow(ctx, lockUserQuery, user.ID).Scan(&balanceText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.OrderReceipt{}, errs.ErrUserNotFound
		}
		return model.OrderReceipt{}, fmt.Errorf("lock user: %w", err)
	}

	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey

		var receipt model.OrderReceipt
		var amount string
		err = tx.QueryRow(ctx, existingOrderQuery, user.ID, idempotencyKey).Scan(&receipt.OrderID, &amount, &receipt.Status)
		if err == nil {
			d, err := decimal.NewFromString(amount)
			if err != nil {
				return model.OrderReceipt{}, fmt.Errorf("parse amount: %w", err)
			}
			receipt.Amount = d.IntPart()
			return receipt, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return model.OrderReceipt{}, fmt.Errorf("select existing order: %w", err)
		}
	}

	balance, err := decimal.NewFromString(balanceText)
	if err != nil {
		return model.OrderReceipt{}, fmt.Errorf("parse balance: %w", err)
	}
	if balance.LessThan(decimal.NewFromInt(req.Amount)) {
		return model.OrderReceipt{}, errs.ErrInsufficientFunds
	}

	orderID := "order_" + uuid.NewString()
	_, err = tx.Exec(ctx, insertOrderQuery, orderID, user.ID, req.Amount, string(req.Biller), req.Category, key)
	if err != nil {
		return model.OrderReceipt{}, fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.OrderReceipt{}, fmt.Errorf("commit: %w", err)
	}

	return model.OrderReceipt{OrderID: orderID, Amount: req.Amount, Status: "created"}, nil
}

// VerifyPayment settles a pending order and debits the balance in one
// transaction. Verifying a settled order again reports true without a second
// debit. Unknown, expired or mismatching orders report false.
func (s *PostgresStorage) VerifyPayment(ctx context.Context, user model.User, orderID string, amount int64) (bool, error) {
	const lockOrderQuery = `
		SELECT status, amount::text
		FROM transactions
		WHERE order_id = $1 AND user_id = $2
		FOR UPDATE`

	const debitQuery = `UPDATE users SET balance = balance - $2 WHERE id = $1 AND balance >= $2`

	const settleQuery = `UPDATE transactions SET status = 'success', updated_at = NOW() WHERE order_id = $1`

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status, amountText string
	err = tx.QueryRow(ctx, lockOrderQuery, orderID, user.ID).Scan(&status, &amountText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock order: %w", err)
	}

	orderAmount, err := decimal.NewFromString(amountText)
	if err != nil {
		return false, fmt.Errorf("parse amount: %w", err)
	}
	if !orderAmount.Equal(decimal.NewFromInt(amount)) {
		return false, nil
	}

	switch status {
	case model.TxSuccess:
		return true, nil
	case model.TxPending:
	default:
		return false, nil
	}

	cmdTag, err := tx.Exec(ctx, debitQuery, user.ID, amount)
	if err != nil {
		return false, fmt.Errorf("debit balance: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, settleQuery, orderID); err != nil {
		return false, fmt.Errorf("settle order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}

	return true, nil
}

func (s *PostgresStorage) GetOrderStatus(ctx context.Context, user model.User, orderID string) (string, error) {
	const query = `SELECT status FROM transactions WHERE order_id = $1 AND user_id = $2`

	var status string
	err := s.db.QueryRow(ctx, query, orderID, user.ID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrOrderNotFound
		}
		return "", fmt.Errorf("get order status: %w", err)
	}

	return status, nil
}

func (s *PostgresStorage) ListTransactions(ctx context.Context, userID int) ([]model.TransactionRecord, error) {
	const query = `
		SELECT id, order_id, amount::text, type, biller, category, status, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	defer rows.Close()

	var list []model.TransactionRecord
	for rows.Next() {
		var tr model.TransactionRecord
		var amount, txType string
		err := rows.Scan(&tr.ID, &tr.OrderID, &amount, &txType, &tr.Biller, &tr.Category, &tr.Status, &tr.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tr.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		tr.Type = model.TransactionType(txType)
		list = append(list, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return list, nil
}

func (s *PostgresStorage) GetStalePendingOrders(ctx context.Context, olderThan time.Duration) ([]string, error) {
	const query = `
		SELECT order_id
		FROM transactions
		WHERE status = 'pending' AND created_at < NOW() - make_interval(secs => $1)
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, olderThan.Seconds())
	if err != nil {
		return nil, fmt.Errorf("get stale orders: %w", err)
	}
	defer rows.Close()

	var list []string
	for rows.Next() {
		var orderID string
		if err := rows.Scan(&orderID); err != nil {
			return nil, fmt.Errorf("scan stale order: %w", err)
		}
		list = append(list, orderID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return list, nil
}

// ExpireOrder moves a still pending order to expired. It reports false when
// the order was settled or expired in the meantime.
func (s *PostgresStorage) ExpireOrder(ctx context.Context, orderID string) (bool, error) {
	const query = `
		UPDATE transactions
		SET status = 'expired', updated_at = NOW()
		WHERE order_id = $1 AND status = 'pending'`

	cmdTag, err := s.db.Exec(ctx, query, orderID)
	if err != nil {
		return false, fmt.Errorf("expire order: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}
