package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/vpay/internal/config"
	"github.com/and161185/vpay/internal/deps"
	"github.com/and161185/vpay/internal/server"
	"github.com/and161185/vpay/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}

	deps := deps.NewDependencies(config.SecretKey, config.DevTranscript)
	defer deps.Logger.Sync()

	storage, err := storage.NewPostgresStorage(ctx, config.DatabaseURI)
	if err != nil {
		deps.Logger.Fatal(err)
	}
	defer storage.Close()

	srv := server.NewServer(storage, config, deps)
	if err := srv.Run(ctx); err != nil {
		deps.Logger.Fatal(err)
	}
}
