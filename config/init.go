package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/expirehq/domain-monitor/internal/logger"
	"github.com/expirehq/domain-monitor/internal/tracing"
)

type Config struct {
	AppConfig             *AppConfig
	Logger                *logger.Config
	Tracing               *tracing.JaegerConfig
	MonitorDatabaseConfig *MonitorDatabaseConfig
	DNSConfig             *DNSConfig
	SchedulerConfig       *SchedulerConfig
	WatcherConfig         *WatcherConfig
	WebhookConfig         *WebhookConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:             &AppConfig{},
		Logger:                &logger.Config{},
		Tracing:               &tracing.JaegerConfig{},
		MonitorDatabaseConfig: &MonitorDatabaseConfig{},
		DNSConfig:             &DNSConfig{},
		SchedulerConfig:       &SchedulerConfig{},
		WatcherConfig:         &WatcherConfig{},
		WebhookConfig:         &WebhookConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading domain-monitor config: %v", err)
	}

	return config, nil
}
