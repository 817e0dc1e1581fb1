package app

import (
	"os"
	"strings"
)

// Config описывает настройки запуска приложения.
type Config struct {
	// HTTPAddr — адрес основного API.
	HTTPAddr string
	// MetricsAddr — адрес служебного листенера (/metrics, /healthz).
	MetricsAddr string
	// PostgresDSN — строка подключения; пустая включает in-memory хранилище.
	PostgresDSN string
	// KafkaBrokers — список брокеров через запятую; пустой отключает события.
	KafkaBrokers string
	// KafkaGroupID — consumer group аудита событий заказов;
	// пустой отключает чтение topic'а.
	KafkaGroupID string
	// AllowedOrigins — разрешённые CORS origin'ы; пустой список разрешает все.
	AllowedOrigins []string
}

// DefaultConfig возвращает базовые адреса для API и метрик.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
	}
}

// LoadConfig читает конфигурацию из окружения поверх значений по умолчанию.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if addr := os.Getenv("ECOM_HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}
	if addr := os.Getenv("ECOM_METRICS_ADDR"); addr != "" {
		cfg.MetricsAddr = addr
	}
	cfg.PostgresDSN = os.Getenv("ECOM_POSTGRES_DSN")
	cfg.KafkaBrokers = os.Getenv("ECOM_KAFKA_BROKERS")
	cfg.KafkaGroupID = os.Getenv("ECOM_KAFKA_GROUP_ID")
	if origins := os.Getenv("ECOM_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	return cfg
}
