package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	R2       R2Config
	Forecast ForecastConfig
}

// R2Config описывает доступ к бакету Cloudflare R2 для CSV-отчётов.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

// Enabled сообщает, задан ли бакет. Без него отчёты не выгружаются.
func (c R2Config) Enabled() bool {
	return c.AccountID != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080" // Порт по умолчанию
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	r2, err := loadR2()
	if err != nil {
		return nil, err
	}

	forecast, err := LoadForecast()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,
		R2:           r2,
		Forecast:     forecast,
	}

	return cfg, nil
}

// loadR2 читает R2_* переменные: либо все заданы, либо ни одной.
func loadR2() (R2Config, error) {
	var cfg R2Config
	vars := []struct {
		name string
		dst  *string
	}{
		{"R2_ACCOUNT_ID", &cfg.AccountID},
		{"R2_ACCESS_KEY_ID", &cfg.AccessKeyID},
		{"R2_SECRET_ACCESS_KEY", &cfg.SecretAccessKey},
		{"R2_BUCKET_NAME", &cfg.BucketName},
		{"R2_PUBLIC_BASE_URL", &cfg.PublicBaseURL},
	}

	set := 0
	for _, v := range vars {
		*v.dst = os.Getenv(v.name)
		if *v.dst != "" {
			set++
		}
	}
	if set != 0 && set != len(vars) {
		return R2Config{}, fmt.Errorf("R2 storage is partially configured: set all of R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME, R2_PUBLIC_BASE_URL or none")
	}
	return cfg, nil
}
