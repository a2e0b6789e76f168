package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Domain availability sweep. When empty, the schedule is derived from
	// CHECK_INTERVAL_HOURS instead.
	CronScheduleDomainCheck string `env:"CRON_SCHEDULE_DOMAIN_CHECK"`
}
