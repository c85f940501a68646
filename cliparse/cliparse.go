package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	QueuePath    string

	FingerprintSalt string

	WorkerCount    int
	MaxJobAttempts int
	JobTimeout     time.Duration

	AdmissionTTL    time.Duration
	BroadcastWindow time.Duration
	ResultCacheTTL  time.Duration
}

// ParseFlags validates flags, applies environment fallbacks, and fills in
// pipeline defaults. A .env file in the working directory is loaded first if
// present.
func ParseFlags(args []string) (Config, error) {
	// Best effort: absence of .env is not an error
	_ = godotenv.Load()

	var cfg Config

	fs := flag.NewFlagSet("livepoll", flag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.QueuePath, "q", "", "Vote queue file path")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.FingerprintSalt, "fingerprint-salt", "", "Voter fingerprint salt (prefer env)")

	// Pipeline tuning
	fs.IntVar(&cfg.WorkerCount, "workers", 0, "Vote processor concurrency")
	fs.IntVar(&cfg.MaxJobAttempts, "max-attempts", 0, "Deliveries before a job is dead-lettered")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3319 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.QueuePath == "" {
		cfg.QueuePath = os.Getenv("QUEUE_PATH")
		if cfg.QueuePath == "" {
			cfg.QueuePath = "votes.queue"
		}
	}

	// Secrets - MUST be provided
	if cfg.FingerprintSalt == "" {
		cfg.FingerprintSalt = os.Getenv("FINGERPRINT_SALT")
	}
	if cfg.FingerprintSalt == "" {
		return Config{}, errors.New("FINGERPRINT_SALT required")
	}

	if cfg.WorkerCount == 0 {
		if s := os.Getenv("WORKER_COUNT"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return Config{}, errors.New("invalid WORKER_COUNT env variable")
			}
			cfg.WorkerCount = n
		} else {
			cfg.WorkerCount = 5
		}
	}
	if cfg.MaxJobAttempts == 0 {
		cfg.MaxJobAttempts = 5
	}
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = 10 * time.Second
	}

	// TTL windows. These are tuning knobs, not correctness constraints: the
	// ledger insert is what prevents double counting, and broadcasts carry
	// full state so a longer window only delays freshness.
	if cfg.AdmissionTTL == 0 {
		cfg.AdmissionTTL = 24 * time.Hour
	}
	if cfg.BroadcastWindow == 0 {
		cfg.BroadcastWindow = time.Second
	}
	if cfg.ResultCacheTTL == 0 {
		cfg.ResultCacheTTL = time.Hour
	}

	return cfg, nil
}
