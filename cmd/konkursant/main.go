package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/bootstrap"
)

func main() {
	logger, err := newLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := bootstrap.Run(context.Background(), logger); err != nil {
		logger.Error("service exited", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("KONKURSANT_ENV") == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
