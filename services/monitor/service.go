package monitor

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/interfaces"
	"github.com/expirehq/domain-monitor/internal/logger"
	"github.com/expirehq/domain-monitor/internal/models"
	"github.com/expirehq/domain-monitor/internal/repository"
	"github.com/expirehq/domain-monitor/internal/tracing"
	"github.com/expirehq/domain-monitor/internal/utils"
)

type monitorService struct {
	cfg          *config.SchedulerConfig
	repos        *repository.Repositories
	availability interfaces.AvailabilityService
	notifier     interfaces.NotifierService
	watchers     interfaces.WatcherService
	log          logger.Logger
}

func NewMonitorService(
	cfg *config.SchedulerConfig,
	repos *repository.Repositories,
	availability interfaces.AvailabilityService,
	notifier interfaces.NotifierService,
	watchers interfaces.WatcherService,
	log logger.Logger,
) interfaces.MonitorService {
	return &monitorService{
		cfg:          cfg,
		repos:        repos,
		availability: availability,
		notifier:     notifier,
		watchers:     watchers,
		log:          log,
	}
}

type cycleStats struct {
	total             int
	checked           int
	available         int
	notificationsSent int
	errors            int
}

// RunCheckCycle sweeps every active domain in batches. A failing domain
// never aborts the cycle, it is counted and the sweep moves on.
func (s *monitorService) RunCheckCycle(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MonitorService.RunCheckCycle")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	startTime := time.Now()
	s.log.Info("starting domain check cycle")

	domains, err := s.repos.DomainRepository.GetActiveDomains(ctx)
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to load active domains"))
		return err
	}

	stats := cycleStats{total: len(domains)}
	s.log.Infof("found %d active domains to check", stats.total)

	if stats.total == 0 {
		s.log.Warn("no active domains found, skipping cycle")
		return nil
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	totalBatches := (stats.total + batchSize - 1) / batchSize
	pacing := time.Duration(s.cfg.DelayBetweenChecksMs) * time.Millisecond

	for i := 0; i < stats.total; i += batchSize {
		end := i + batchSize
		if end > stats.total {
			end = stats.total
		}
		batch := domains[i:end]
		s.log.Infof("processing batch %d/%d (%d domains)", i/batchSize+1, totalBatches, len(batch))

		for j := range batch {
			if ctx.Err() != nil {
				span.LogKV("event", "cycle interrupted")
				return ctx.Err()
			}

			result, err := s.CheckDomain(ctx, &batch[j])
			if err != nil {
				stats.errors++
				s.log.Errorf("error checking domain %s: %v", batch[j].Domain, err)
				continue
			}

			stats.checked++
			if result.IsAvailable {
				stats.available++
			}
			if result.ShouldNotify {
				stats.notificationsSent++
			}

			// Pacing between probes so the resolvers are not hammered.
			if err := utils.SleepWithContext(ctx, pacing); err != nil {
				return err
			}
		}
	}

	duration := time.Since(startTime)
	s.log.Infof("check cycle completed in %.2fs: total=%d checked=%d available=%d notified=%d errors=%d",
		duration.Seconds(), stats.total, stats.checked, stats.available, stats.notificationsSent, stats.errors)
	span.LogFields(
		tracingLog.Int("stats.total", stats.total),
		tracingLog.Int("stats.checked", stats.checked),
		tracingLog.Int("stats.available", stats.available),
		tracingLog.Int("stats.notificationsSent", stats.notificationsSent),
		tracingLog.Int("stats.errors", stats.errors),
	)

	// Retention cleanup rides along at the end of each cycle. A failure
	// here never fails the cycle.
	if err := s.repos.CheckLogRepository.CleanupOldLogs(ctx); err != nil {
		s.log.Warnf("cleanup of old check logs failed: %v", err)
	}

	return nil
}

// CheckDomain verifies one domain, persists its audit trail and handles the
// side effects of a confirmed catch: the webhook announcement and the fast
// poll watcher. The returned result reports ShouldNotify as true only when
// the announcement was actually delivered.
func (s *monitorService) CheckDomain(ctx context.Context, domain *models.Domain) (*interfaces.VerificationResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MonitorService.CheckDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("request.domain", domain.Domain)

	result, err := s.availability.VerifyDomain(ctx, domain)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if err := s.availability.SaveCheckLogs(ctx, domain.ID, result.CheckLogs); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if result.IsAvailable {
		if result.ShouldNotify {
			s.log.Infof("sending notification for %s", domain.Domain)
			notifResult := s.notifier.SendAvailableNotification(ctx, domain)
			if notifResult.Success {
				if err := s.repos.CheckLogRepository.MarkLatestNotificationSent(ctx, domain.ID); err != nil {
					s.log.Errorf("failed to mark notification sent for %s: %v", domain.Domain, err)
				}
			} else {
				result.ShouldNotify = false
				s.log.Errorf("notification for %s failed: %s", domain.Domain, notifResult.Error)
			}
		}

		if !s.watchers.IsWatching(domain.ID) {
			s.watchers.StartWatcher(domain.ID, domain.Domain)
		}
	}

	span.LogFields(
		tracingLog.Bool("result.available", result.IsAvailable),
		tracingLog.Bool("result.notified", result.ShouldNotify),
	)
	return result, nil
}
