package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`

	// League rules, in whole rupees.
	DefaultPurse    int64 `env:"DEFAULT_PURSE" envDefault:"500000"`
	BasePlayerPrice int64 `env:"BASE_PLAYER_PRICE" envDefault:"10000"`
	MinIncrement    int64 `env:"MIN_INCREMENT" envDefault:"5000"`
	MinSquadSize    int   `env:"MIN_SQUAD_SIZE" envDefault:"10"`
	MaxSquadSize    int   `env:"MAX_SQUAD_SIZE" envDefault:"14"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return env.ParseAs[Config]()
}
