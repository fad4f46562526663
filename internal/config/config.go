// Package config is the single source of truth for server-wide tunables,
// loaded from environment variables (optionally via a .env file).
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Server holds every tunable the authoritative server reads at startup.
type Server struct {
	TickRate int // simulation ticks per second

	UDPBindAddr string
	AdminAddr   string // admin/metrics HTTP bind address

	MaxPacketBytes    int // replication MTU budget
	FullStateInterval int // ticks between forced full snapshots

	ChecksumInterval uint64 // ticks between desync checksum comparisons
	TimeoutThreshold uint64 // ticks of silence before a desync timeout fires

	RollbackCapacity int // ring buffer depth, in ticks

	LevelDir string // directory holding registry.json and level_*.json
}

// Default returns the server configuration used when no environment
// variable overrides a field.
func Default() Server {
	return Server{
		TickRate:          60,
		UDPBindAddr:       ":9000",
		AdminAddr:         "127.0.0.1:9001",
		MaxPacketBytes:    1400,
		FullStateInterval: 60,
		ChecksumInterval:  60,
		TimeoutThreshold:  180,
		RollbackCapacity:  120,
		LevelDir:          "levels",
	}
}

// Load reads a .env file (if present) and returns the Server config with
// every field overridable by its environment variable.
func Load() Server {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file found, using environment variables only")
	}

	cfg := Default()
	cfg.TickRate = getEnvInt("TICK_RATE", cfg.TickRate)
	cfg.UDPBindAddr = getEnvString("UDP_BIND_ADDR", cfg.UDPBindAddr)
	cfg.AdminAddr = getEnvString("ADMIN_BIND_ADDR", cfg.AdminAddr)
	cfg.MaxPacketBytes = getEnvInt("MAX_PACKET_BYTES", cfg.MaxPacketBytes)
	cfg.FullStateInterval = getEnvInt("FULL_STATE_INTERVAL", cfg.FullStateInterval)
	cfg.ChecksumInterval = uint64(getEnvInt("CHECKSUM_INTERVAL", int(cfg.ChecksumInterval)))
	cfg.TimeoutThreshold = uint64(getEnvInt("TIMEOUT_THRESHOLD", int(cfg.TimeoutThreshold)))
	cfg.RollbackCapacity = getEnvInt("ROLLBACK_CAPACITY", cfg.RollbackCapacity)
	cfg.LevelDir = getEnvString("LEVEL_DIR", cfg.LevelDir)
	return cfg
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("env", key).WithError(err).Warn("ignoring malformed integer env var")
		return fallback
	}
	return n
}
