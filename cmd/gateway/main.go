package main

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shortform-pipeline/config"
	"shortform-pipeline/gateway"
)

func main() {
	godotenv.Load()

	zl, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zl.Sync()
	log := zl.Sugar().Named("gateway")

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalw("config load failed", "error", err)
	}
	if err := os.MkdirAll(cfg.Paths.Raw, 0755); err != nil {
		log.Fatalw("create upload dir failed", "dir", cfg.Paths.Raw, "error", err)
	}

	srv := gateway.New(cfg, log)
	if err := srv.Run(); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
