package cron

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/interfaces"
	cron_config "github.com/expirehq/domain-monitor/internal/cron/config"
	"github.com/expirehq/domain-monitor/internal/logger"
	"github.com/expirehq/domain-monitor/internal/tracing"
)

// GroupMonitor is the group for domain monitoring jobs
const GroupMonitor = "monitor"

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupMonitor: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg     *config.Config
	log     logger.Logger
	cron    *cronv3.Cron
	stopCh  chan struct{}
	jobIDs  map[string]cronv3.EntryID
	monitor interfaces.MonitorService
}

func NewCronManager(cfg *config.Config, log logger.Logger, monitor interfaces.MonitorService) *CronManager {
	return &CronManager{
		cfg:     cfg,
		log:     log,
		stopCh:  make(chan struct{}),
		jobIDs:  make(map[string]cronv3.EntryID),
		monitor: monitor,
	}
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// NextRun reports when the next domain check sweep fires. Zero time when
// the job is not scheduled.
func (cm *CronManager) NextRun() time.Time {
	if cm.cron == nil {
		return time.Time{}
	}
	id, ok := cm.jobIDs["domain_check"]
	if !ok {
		return time.Time{}
	}
	return cm.cron.Entry(id).Next
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	// Load cron config from environment variables
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	// Register heartbeat job
	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	// Add domain availability sweep job
	schedule := cronConfig.CronScheduleDomainCheck
	if schedule == "" {
		schedule = fmt.Sprintf("@every %dh", cm.cfg.SchedulerConfig.CheckIntervalHours)
	}
	id, err := c.AddFunc(schedule, func() {
		defer tracing.RecoverAndLogToJaeger(cm.log)
		jobLocks.locks[GroupMonitor].Lock()
		defer jobLocks.locks[GroupMonitor].Unlock()
		cm.runDomainCheckCycle()
	})
	if err != nil {
		cm.log.Fatalf("Could not add domain check cron job: %v", err)
	}
	cm.jobIDs["domain_check"] = id
	cm.log.Infof("Registered domain check job with schedule: %s", schedule)
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	if cm.cron != nil {
		cm.log.Warn("Cron manager is already running")
		return
	}
	cm.log.Info("Starting cron manager")
	// Create a new cron with seconds field enabled and panic recovery
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger), // Skip if still running
			cronv3.Recover(cronv3.DefaultLogger),            // Default recovery as backup
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
	cm.log.Infof("Next domain check cycle: %s", cm.NextRun())
}

func (cm *CronManager) runDomainCheckCycle() {
	cm.log.Info("Running scheduled domain check cycle")

	// Create a background context for the operation
	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.runDomainCheckCycle")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if err := cm.monitor.RunCheckCycle(ctx); err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Domain check cycle failed: %v", err)
		return
	}

	cm.log.Info("Successfully completed domain check cycle")
}
