// Seed provisions teams and a player pool for a new season. Profile CRUD
// lives outside the auction service; this tool exists so a fresh database
// can run an auction end to end.
package main

import (
	"flag"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/skycourt-league/auction-backend/internal/config"
	"github.com/skycourt-league/auction-backend/internal/engine"
	"github.com/skycourt-league/auction-backend/internal/store"
)

func main() {
	teamNames := flag.String("teams", "", "comma-separated team names, e.g. 'Ophelia Strikers,Orion Blasters'")
	playerNames := flag.String("players", "", "comma-separated player names, registered as fee-paid batsmen")
	flag.Parse()

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
	if err := store.New(db).Migrate(); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	for _, name := range split(*teamNames) {
		team := store.Team{
			Name:         name,
			ShortName:    shortName(name),
			TotalBudget:  decimal.NewFromInt(cfg.DefaultPurse),
			Spent:        decimal.Zero,
			MinSquadSize: cfg.MinSquadSize,
			MaxSquadSize: cfg.MaxSquadSize,
		}
		if err := db.Where(store.Team{Name: name}).FirstOrCreate(&team).Error; err != nil {
			log.Fatal("seed team", zap.String("name", name), zap.Error(err))
		}
		log.Info("team ready", zap.String("name", name), zap.Uint("id", team.ID))
	}

	for _, name := range split(*playerNames) {
		player := store.Player{
			Name:      name,
			Role:      "batsman",
			BasePrice: decimal.NewFromInt(cfg.BasePlayerPrice),
			Status:    engine.StatusAvailable,
			SoldPrice: decimal.Zero,
			FeePaid:   true,
		}
		if err := db.Where(store.Player{Name: name}).FirstOrCreate(&player).Error; err != nil {
			log.Fatal("seed player", zap.String("name", name), zap.Error(err))
		}
		log.Info("player ready", zap.String("name", name), zap.Uint("id", player.ID))
	}
}

func split(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func shortName(name string) string {
	upper := strings.ToUpper(strings.ReplaceAll(name, " ", ""))
	if len(upper) > 3 {
		upper = upper[:3]
	}
	return upper
}
