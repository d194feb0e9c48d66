package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/and161185/vpay/internal/config"
	"github.com/and161185/vpay/internal/deps"
	"github.com/and161185/vpay/internal/history"
	"github.com/and161185/vpay/internal/middleware"
	"github.com/and161185/vpay/internal/model"
	"github.com/and161185/vpay/internal/orderclient"
	"github.com/and161185/vpay/internal/payment"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=../mocks/mock_storage.go -package=mocks github.com/and161185/vpay/internal/server Storage

type Storage interface {
	CreateUser(ctx context.Context, login, passwordHash string) error
	GetUserByLogin(ctx context.Context, login string) (model.User, string, error)
	GetUserByID(ctx context.Context, id int) (model.User, error)
	GetBalance(ctx context.Context, userID int) (decimal.Decimal, error)

	CreateOrder(ctx context.Context, user model.User, req model.OrderRequest, idempotencyKey string) (model.OrderReceipt, error)
	VerifyPayment(ctx context.Context, user model.User, orderID string, amount int64) (bool, error)
	GetOrderStatus(ctx context.Context, user model.User, orderID string) (string, error)
	ListTransactions(ctx context.Context, userID int) ([]model.TransactionRecord, error)

	GetStalePendingOrders(ctx context.Context, olderThan time.Duration) ([]string, error)
	ExpireOrder(ctx context.Context, orderID string) (bool, error)
}

type Server struct {
	storage     Storage
	config      *config.Config
	deps        *deps.Deps
	history     *history.Cache
	coordinator *payment.Coordinator
}

func NewServer(storage Storage, config *config.Config, deps *deps.Deps) *Server {
	logger := deps.Logger

	cache := history.NewCache(storage, logger)
	orders := orderclient.New(config.OrderServiceAddress, nil, logger)
	coordinator := payment.NewCoordinator(
		orders,
		&accountView{storage: storage, logger: logger},
		cache,
		&logNotifier{logger: logger},
		logger,
		payment.WithSettlementTimeout(config.SettlementTimeout),
	)

	return &Server{
		storage:     storage,
		config:      config,
		deps:        deps,
		history:     cache,
		coordinator: coordinator,
	}
}

func (srv *Server) buildRouter() http.Handler {
	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(middleware.RequestID)
	router.Use(middleware.LogMiddleware(srv.deps.Logger))
	router.Use(middleware.DecompressMiddleware)
	router.Use(middleware.CompressMiddleware(srv.deps.Logger))

	router.Post("/api/user/register", srv.RegisterHandler)
	router.Post("/api/user/login", srv.LoginHandler)

	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(srv.storage, srv.deps.TokenManager))

		r.Get("/api/user/balance", srv.GetBalanceHandler)
		r.Get("/api/user/transactions", srv.GetTransactionsHandler)

		r.Post("/api/payment/create-order", srv.CreateOrderHandler)
		r.Post("/api/payment/verify-payment", srv.VerifyPaymentHandler)
		r.Get("/api/payment/orders/{orderID}", srv.GetOrderStatusHandler)

		r.Post("/api/voice/intent", srv.IntentHandler)
		r.Post("/api/voice/command", srv.VoiceCommandHandler)
		r.Post("/api/speech/process-audio", srv.ProcessAudioHandler)
	})

	return router
}

func (srv *Server) Run(ctx context.Context) error {
	router := srv.buildRouter()

	server := &http.Server{
		Addr:              srv.config.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srv.deps.Logger.Fatalf("server error: %v", err)
		}
	}()

	go srv.ExpireStaleOrders(ctx)

	srv.deps.Logger.Infof("listening on %s, order service at %s", srv.config.RunAddress, srv.config.OrderServiceAddress)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.Shutdown(shutdownCtx)

	srv.coordinator.Wait()
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
