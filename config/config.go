package config

type AppConfig struct {
	APIPort string `env:"PORT" envDefault:"3010"`
	APIKey  string `env:"API_KEY,required"`
}

type MonitorDatabaseConfig struct {
	Host            string `env:"MONITOR_POSTGRES_HOST,required"`
	Port            string `env:"MONITOR_POSTGRES_PORT,required"`
	User            string `env:"MONITOR_POSTGRES_USER,required"`
	DBName          string `env:"MONITOR_POSTGRES_DB_NAME,required"`
	Password        string `env:"MONITOR_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"MONITOR_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"MONITOR_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"MONITOR_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"MONITOR_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"MONITOR_POSTGRES_SSL_MODE" envDefault:"disable"`
}

type DNSConfig struct {
	TimeoutSeconds  int      `env:"DNS_TIMEOUT_SECONDS" envDefault:"5"`
	RetryCount      int      `env:"DNS_RETRY_COUNT" envDefault:"2"`
	PrimaryServer   string   `env:"DNS_PRIMARY_SERVER" envDefault:"8.8.8.8"`
	SecondaryServer string   `env:"DNS_SECONDARY_SERVER" envDefault:"1.1.1.1"`
	SupportedTlds   []string `env:"SUPPORTED_TLDS" envSeparator:"," envDefault:"fr,com,net"`
}

type SchedulerConfig struct {
	CheckIntervalHours      int `env:"CHECK_INTERVAL_HOURS" envDefault:"2"`
	BatchSize               int `env:"BATCH_SIZE" envDefault:"50"`
	DelayBetweenChecksMs    int `env:"DELAY_BETWEEN_CHECKS_MS" envDefault:"100"`
	DoubleCheckDelaySeconds int `env:"DOUBLE_CHECK_DELAY_SECONDS" envDefault:"5"`
}

type WatcherConfig struct {
	PollIntervalSeconds int `env:"WATCHER_POLL_INTERVAL_SECONDS" envDefault:"2"`
}

type WebhookConfig struct {
	URL               string `env:"WEBHOOK_URL"`
	RetryCount        int    `env:"WEBHOOK_RETRY_COUNT" envDefault:"3"`
	RetryDelaySeconds int    `env:"WEBHOOK_RETRY_DELAY_SECONDS" envDefault:"2"`
	TimeoutSeconds    int    `env:"WEBHOOK_TIMEOUT_SECONDS" envDefault:"10"`
}
