package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Dosada05/volley-tournament/utils"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string
	ServerPort  int
	LogLevel    slog.Level
	LogJSON     bool

	CORSAllowedOrigins []string

	// Cloudflare R2 для архивов экспорта. Все поля необязательны.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
	ArchiveRetention  int // 0: хранить все архивы

	RatingRetryCron string
	ArchiveCron     string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	port, err := strconv.Atoi(utils.GetEnvOrDefault("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(utils.GetEnvOrDefault("LOG_LEVEL", "INFO"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}

	retention, err := strconv.Atoi(utils.GetEnvOrDefault("ARCHIVE_RETENTION", "30"))
	if err != nil || retention < 0 {
		return nil, fmt.Errorf("ARCHIVE_RETENTION must be a non-negative integer, got %q", os.Getenv("ARCHIVE_RETENTION"))
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		ServerPort:         port,
		LogLevel:           level,
		LogJSON:            utils.GetEnvBool("LOG_JSON", true),
		CORSAllowedOrigins: splitList(utils.GetEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
		ArchiveRetention:   retention,
		// Формат с секундами: сек мин час день месяц день_недели
		RatingRetryCron: utils.GetEnvOrDefault("RATING_RETRY_CRON", "0 */5 * * * *"),
		ArchiveCron:     utils.GetEnvOrDefault("ARCHIVE_CRON", "0 0 3 * * *"),
	}

	return cfg, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
