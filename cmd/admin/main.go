package main

import (
	"context"
	"fmt"
	"os"

	"shop-catalog/internal/config"
	"shop-catalog/internal/database"
	"shop-catalog/internal/logger"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	var dbService database.Service
	connect := func() (*env, error) {
		dbService, err = database.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		db := dbService.DB()

		users := service.NewUserService(
			repository.NewUserRepository(db),
			repository.NewRefreshTokenRepository(db),
			database.NewTxManager(db),
			cfg.JWT,
		)
		return &env{out: os.Stdout, logger: log, db: db, users: users}, nil
	}

	root := newRoot(os.Stdout)
	runErr := root.Execute(context.Background(), os.Args[1:], connect)

	if dbService != nil {
		if err := dbService.Close(); err != nil {
			log.Warn("Failed to close database connection", zap.Error(err))
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
