package handlers

import (
	"time"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/internal/repository"
	"github.com/expirehq/domain-monitor/services"
)

type APIHandlers struct {
	Domains       *DomainsHandler
	Stats         *StatsHandler
	Notifications *NotificationsHandler
}

func InitHandlers(cfg *config.Config, repos *repository.Repositories, s *services.Services, nextRun func() time.Time) *APIHandlers {
	return &APIHandlers{
		Domains:       NewDomainsHandler(cfg.DNSConfig, repos, s.DNSCheckerService, s.MonitorService, s.WatcherService),
		Stats:         NewStatsHandler(repos, nextRun, s.WatcherService.ActiveCount),
		Notifications: NewNotificationsHandler(s.NotifierService),
	}
}
