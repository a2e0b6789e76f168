package services

import (
	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/interfaces"
	"github.com/expirehq/domain-monitor/internal/logger"
	"github.com/expirehq/domain-monitor/internal/repository"
	"github.com/expirehq/domain-monitor/services/availability"
	"github.com/expirehq/domain-monitor/services/dnscheck"
	"github.com/expirehq/domain-monitor/services/monitor"
	"github.com/expirehq/domain-monitor/services/notifier"
	"github.com/expirehq/domain-monitor/services/watcher"
)

type Services struct {
	DNSCheckerService   interfaces.DNSCheckerService
	AvailabilityService interfaces.AvailabilityService
	NotifierService     interfaces.NotifierService
	WatcherService      interfaces.WatcherService
	MonitorService      interfaces.MonitorService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) *Services {
	dnsCheckerService := dnscheck.NewDNSCheckerService(cfg.DNSConfig, log)
	availabilityService := availability.NewAvailabilityService(cfg.DNSConfig, cfg.SchedulerConfig, repos, dnsCheckerService, log)
	notifierService := notifier.NewNotifierService(cfg.WebhookConfig, repos, log)
	watcherService := watcher.NewWatcherService(cfg.WatcherConfig, repos, dnsCheckerService, notifierService, log)
	monitorService := monitor.NewMonitorService(cfg.SchedulerConfig, repos, availabilityService, notifierService, watcherService, log)

	return &Services{
		DNSCheckerService:   dnsCheckerService,
		AvailabilityService: availabilityService,
		NotifierService:     notifierService,
		WatcherService:      watcherService,
		MonitorService:      monitorService,
	}
}
