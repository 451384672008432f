// Package config reads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr       string
	LogLevel   string
	LogConsole bool
	LogSampleN int

	Dataset           string
	TaggedOnly        bool
	H3Res             int
	H3MaxCells        int
	LocationCacheSize int
	MaxBodyBytes      int64

	RedisAddr          string
	ExtentStoreEnabled bool
	ExtentTTL          time.Duration
	CacheOpTimeout     time.Duration
}

func FromEnv() Config {
	res := getint("H3_RES", 6)
	if res < 0 {
		res = 0
	}
	if res > 15 {
		res = 15
	}

	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),

		Dataset:           getenv("DATASET", "default"),
		TaggedOnly:        getbool("TAGGED_ONLY", false),
		H3Res:             res,
		H3MaxCells:        getint("H3_MAX_CELLS", 4096),
		LocationCacheSize: getint("LOCATION_CACHE_SIZE", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 64<<20)),

		RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
		ExtentStoreEnabled: getbool("EXTENT_STORE_ENABLED", false),
		ExtentTTL:          getduration("EXTENT_TTL", 24*time.Hour),
		CacheOpTimeout:     getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
