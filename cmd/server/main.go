package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/shopspring/decimal"

	"github.com/skycourt-league/auction-backend/internal/auction"
	"github.com/skycourt-league/auction-backend/internal/auth"
	"github.com/skycourt-league/auction-backend/internal/config"
	"github.com/skycourt-league/auction-backend/internal/engine"
	"github.com/skycourt-league/auction-backend/internal/httpapi"
	"github.com/skycourt-league/auction-backend/internal/hub"
	"github.com/skycourt-league/auction-backend/internal/store"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("database open", zap.Error(err))
	}

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	rules := engine.Rules{
		MinIncrement:    decimal.NewFromInt(cfg.MinIncrement),
		BasePlayerPrice: decimal.NewFromInt(cfg.BasePlayerPrice),
	}

	ctx := context.Background()
	state, err := st.Load(ctx, rules)
	if err != nil {
		log.Fatal("state load", zap.Error(err))
	}

	h := hub.NewHub(ctx, log)
	coord := auction.NewCoordinator(ctx, state, st, h, log)
	verifier := auth.NewVerifier(cfg.JWTSecret)

	handler := httpapi.SetupRoutes(coord, st, h, verifier, log)

	log.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}
