package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/interfaces"
	"github.com/expirehq/domain-monitor/internal/enum"
	"github.com/expirehq/domain-monitor/internal/logger"
	"github.com/expirehq/domain-monitor/internal/repository"
	"github.com/expirehq/domain-monitor/internal/tracing"
	"github.com/expirehq/domain-monitor/internal/utils"
)

// domainWatcher polls one available domain on a tight interval until the
// domain is taken or the watcher is cancelled.
type domainWatcher struct {
	domainID   uint64
	domainName string
	cancel     context.CancelFunc
	done       chan struct{}
}

type watcherService struct {
	cfg        *config.WatcherConfig
	repos      *repository.Repositories
	dnsChecker interfaces.DNSCheckerService
	notifier   interfaces.NotifierService
	log        logger.Logger

	mu       sync.Mutex
	watchers map[uint64]*domainWatcher
}

func NewWatcherService(
	cfg *config.WatcherConfig,
	repos *repository.Repositories,
	dnsChecker interfaces.DNSCheckerService,
	notifier interfaces.NotifierService,
	log logger.Logger,
) interfaces.WatcherService {
	return &watcherService{
		cfg:        cfg,
		repos:      repos,
		dnsChecker: dnsChecker,
		notifier:   notifier,
		log:        log,
		watchers:   make(map[uint64]*domainWatcher),
	}
}

func (s *watcherService) StartWatcher(domainID uint64, domainName string) {
	s.mu.Lock()
	// Another StartWatcher may have registered a fresh watcher while the
	// lock was released for stopAndWait, so re-check until the slot is
	// empty. Two loops for one domain id must never coexist.
	for {
		existing, ok := s.watchers[domainID]
		if !ok {
			break
		}
		s.mu.Unlock()
		s.stopAndWait(existing)
		s.mu.Lock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	watcher := &domainWatcher{
		domainID:   domainID,
		domainName: domainName,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.watchers[domainID] = watcher
	s.mu.Unlock()

	go s.watchLoop(ctx, watcher)
	s.log.Infof("started watcher for domain %s (id %d), polling every %ds", domainName, domainID, s.cfg.PollIntervalSeconds)
}

func (s *watcherService) StopWatcher(domainID uint64) {
	s.mu.Lock()
	watcher, ok := s.watchers[domainID]
	s.mu.Unlock()
	if !ok {
		return
	}

	s.stopAndWait(watcher)
	s.log.Infof("stopped watcher for domain id %d", domainID)
}

func (s *watcherService) StopAll() {
	s.mu.Lock()
	active := make([]*domainWatcher, 0, len(s.watchers))
	for _, watcher := range s.watchers {
		active = append(active, watcher)
	}
	s.mu.Unlock()

	s.log.Infof("stopping all %d active watchers", len(active))
	for _, watcher := range active {
		s.stopAndWait(watcher)
	}
}

func (s *watcherService) IsWatching(domainID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.watchers[domainID]
	return ok
}

func (s *watcherService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

func (s *watcherService) stopAndWait(watcher *domainWatcher) {
	watcher.cancel()
	<-watcher.done
}

// remove drops the watcher from the registry if it is still the registered
// one. A restart may already have replaced it.
func (s *watcherService) remove(watcher *domainWatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.watchers[watcher.domainID]; ok && current == watcher {
		delete(s.watchers, watcher.domainID)
	}
}

func (s *watcherService) watchLoop(ctx context.Context, watcher *domainWatcher) {
	defer close(watcher.done)
	defer s.remove(watcher)
	defer tracing.RecoverAndLogToJaeger(s.log)

	pollInterval := time.Duration(s.cfg.PollIntervalSeconds) * time.Second
	s.log.Infof("watching %s, checking every %ds", watcher.domainName, s.cfg.PollIntervalSeconds)

	for {
		stillWatching, err := s.checkOnce(ctx, watcher)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Keep polling through transient failures.
			s.log.Errorf("watcher error for %s: %v", watcher.domainName, err)
		}
		if !stillWatching {
			return
		}

		if err := utils.SleepWithContext(ctx, pollInterval); err != nil {
			return
		}
	}
}

// checkOnce runs a single fast probe. It returns false when the watcher
// should terminate, either because the domain was lost or no longer exists.
func (s *watcherService) checkOnce(ctx context.Context, watcher *domainWatcher) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "WatcherService.checkOnce")
	defer span.Finish()
	tracing.TagComponentWatcher(span)
	span.LogKV("domain", watcher.domainName)

	domain, err := s.repos.DomainRepository.GetByID(ctx, watcher.domainID)
	if err != nil {
		tracing.TraceErr(span, err)
		return true, err
	}
	if domain == nil {
		s.log.Errorf("domain %s not found, stopping watcher", watcher.domainName)
		return false, nil
	}

	server := s.dnsChecker.ServerForTld(domain.Tld)
	checkResult := s.dnsChecker.CheckDomainAvailability(ctx, domain.Domain, server)

	if checkResult.Available {
		// Still available. No notification, the catch announcement
		// already went out.
		s.log.Debugf("%s is still available", domain.Domain)
		domain.LastChecked = utils.NowPtr()
		if err := s.repos.DomainRepository.Update(ctx, domain); err != nil {
			tracing.TraceErr(span, err)
			return true, err
		}
		return true, nil
	}

	s.log.Warnf("%s became unavailable, stopping watcher", domain.Domain)
	domain.PreviousStatus = domain.Status
	domain.Status = enum.DomainStatusUnavailable
	domain.IsActive = false
	domain.LastChecked = utils.NowPtr()
	if err := s.repos.DomainRepository.Update(ctx, domain); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to persist lost domain"))
		return true, err
	}

	if result := s.notifier.SendLostNotification(ctx, domain); !result.Success {
		s.log.Errorf("failed to send lost notification for %s: %s", domain.Domain, result.Error)
	}
	return false, nil
}
