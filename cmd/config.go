package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	UploadDir            string        `env:"UPLOAD_DIR,default=uploads"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	ReapInterval         time.Duration `env:"REAP_INTERVAL,default=60s"`
	InactiveUserTTL      time.Duration `env:"INACTIVE_USER_TTL,default=30m"`
	StaleUploadTTL       time.Duration `env:"STALE_UPLOAD_TTL,default=15m"`
	PresenceWindow       time.Duration `env:"PRESENCE_WINDOW,default=2m"`
	PresenceLimit        int           `env:"PRESENCE_LIMIT,default=50"`
	HistoryLimit         int           `env:"HISTORY_LIMIT,default=100"`
	SeedShowcaseData     bool          `env:"SEED_SHOWCASE_DATA,default=true"`
}
