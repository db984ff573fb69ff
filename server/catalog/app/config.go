package app

import (
	"stream_server/server/common/config"
	cmnenv "stream_server/server/common/env"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"3002"`
	ChunkSize int64  `env:"STREAM_CHUNK_SIZE" envDefault:"1000000"`
	PublicURL string

	HTTP     config.HTTP
	Postgres config.Postgres
	Storage  config.Storage
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Parse(&cfg); err != nil {
		return Config{}, err
	}
	cfg.HTTP.Resolve()
	if err := cfg.Storage.Resolve(); err != nil {
		return Config{}, err
	}
	cfg.PublicURL = cmnenv.First("CATALOG_PUBLIC_URL", "STREAMING_PUBLIC_URL")
	return cfg, nil
}
