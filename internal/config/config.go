package config

import (
	"log"
	"os"
	"time"
)

type Config struct {
	Port        string
	DBDSN       string
	JWTSecret   string
	CacheTTL    time.Duration
	MetricsAddr string
	LogFile     string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "curio.db"
	} // sqlite file in project root
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}
	ttl := 60 * time.Second
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ttl = d
		}
	}
	metricsAddr := os.Getenv("METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = ":9091"
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./curio.log"
	}

	cfg := Config{Port: port, DBDSN: dsn, JWTSecret: secret, CacheTTL: ttl, MetricsAddr: metricsAddr, LogFile: logFile}
	log.Printf("[config] PORT=%s DB_DSN=%s CACHE_TTL=%s METRICS_ADDR=%s LOG_FILE=%s", cfg.Port, cfg.DBDSN, cfg.CacheTTL, cfg.MetricsAddr, cfg.LogFile)
	return cfg
}
