package deps

import (
	"github.com/and161185/vpay/internal/auth"
	"github.com/and161185/vpay/internal/speech"
	"go.uber.org/zap"
)

type Deps struct {
	Logger       *zap.SugaredLogger
	TokenManager *auth.TokenManager
	Transcriber  speech.Transcriber
}

func NewDependencies(secretKey string, transcript string) *Deps {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stdout", "server.log"}

	logger := zap.Must(logCfg.Build())

	deps := Deps{
		Logger:       logger.Sugar(),
		TokenManager: auth.NewTokenManager(secretKey),
		Transcriber:  speech.StaticTranscriber{Transcript: transcript},
	}

	return &deps
}
