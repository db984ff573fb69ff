package app

import (
	"time"

	"stream_server/server/common/config"
)

type Config struct {
	Port             string        `env:"PORT" envDefault:"3004"`
	HistoryLimit     int           `env:"CHAT_HISTORY_LIMIT" envDefault:"50"`
	MaxMessageLength int           `env:"CHAT_MAX_MESSAGE_LENGTH" envDefault:"1000"`
	DedupeTTL        time.Duration `env:"CHAT_DEDUPE_TTL" envDefault:"24h"`

	HTTP     config.HTTP
	Auth     config.Auth
	Postgres config.Postgres
	Redis    config.Redis
	MQ       config.MQ
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Parse(&cfg); err != nil {
		return Config{}, err
	}
	cfg.HTTP.Resolve()
	return cfg, nil
}
