package availability

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/interfaces"
	"github.com/expirehq/domain-monitor/internal/enum"
	"github.com/expirehq/domain-monitor/internal/logger"
	"github.com/expirehq/domain-monitor/internal/models"
	"github.com/expirehq/domain-monitor/internal/repository"
	"github.com/expirehq/domain-monitor/internal/tracing"
	"github.com/expirehq/domain-monitor/internal/utils"
)

type availabilityService struct {
	dnsCfg     *config.DNSConfig
	schedCfg   *config.SchedulerConfig
	repos      *repository.Repositories
	dnsChecker interfaces.DNSCheckerService
	log        logger.Logger
}

func NewAvailabilityService(
	dnsCfg *config.DNSConfig,
	schedCfg *config.SchedulerConfig,
	repos *repository.Repositories,
	dnsChecker interfaces.DNSCheckerService,
	log logger.Logger,
) interfaces.AvailabilityService {
	return &availabilityService{
		dnsCfg:     dnsCfg,
		schedCfg:   schedCfg,
		repos:      repos,
		dnsChecker: dnsChecker,
		log:        log,
	}
}

// VerifyDomain probes the domain once against the primary resolver. An
// available answer is never trusted on its own: after a cooldown the probe
// is repeated against an independent secondary resolver, and only agreement
// between the two promotes the domain to available.
func (s *availabilityService) VerifyDomain(ctx context.Context, domain *models.Domain) (*interfaces.VerificationResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AvailabilityService.VerifyDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("request.domain", domain.Domain)

	previousStatus := domain.Status
	result := &interfaces.VerificationResult{
		PreviousStatus: previousStatus,
	}

	// The recursive primary resolver answers for every TLD. Registry
	// servers stay reserved for the fast poll watchers, their referral
	// responses carry no answer records for registered names.
	firstCheck := s.dnsChecker.CheckDomainAvailability(ctx, domain.Domain, s.dnsCfg.PrimaryServer)
	result.CheckLogs = append(result.CheckLogs, checkLogDraft(domain.ID, firstCheck))

	if firstCheck.Available {
		// Cooldown before the confirmation probe so a propagating change
		// or a lying resolver does not trigger a false alert.
		cooldown := time.Duration(s.schedCfg.DoubleCheckDelaySeconds) * time.Second
		if err := utils.SleepWithContext(ctx, cooldown); err != nil {
			return nil, err
		}

		secondCheck := s.dnsChecker.CheckDomainAvailability(ctx, domain.Domain, s.dnsCfg.SecondaryServer)
		result.CheckLogs = append(result.CheckLogs, checkLogDraft(domain.ID, secondCheck))

		if secondCheck.Available {
			result.IsAvailable = true
			result.NewStatus = enum.DomainStatusAvailable
			result.ShouldNotify = previousStatus != enum.DomainStatusAvailable
		} else {
			// The probes disagree. Stay conservative.
			span.SetTag("result.conflict", true)
			s.log.Warnf("availability conflict for %s: %s says available, %s says taken",
				domain.Domain, firstCheck.CheckMethod, secondCheck.CheckMethod)
			result.NewStatus = enum.DomainStatusUnavailable
		}
	} else {
		result.NewStatus = enum.DomainStatusUnavailable
	}

	now := utils.Now()
	domain.PreviousStatus = previousStatus
	domain.Status = result.NewStatus
	domain.LastChecked = &now
	if result.IsAvailable {
		domain.LastAvailable = &now
	}

	if err := s.repos.DomainRepository.Update(ctx, domain); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to persist domain status"))
		return nil, err
	}

	span.LogFields(
		tracingLog.Bool("result.available", result.IsAvailable),
		tracingLog.Bool("result.shouldNotify", result.ShouldNotify),
		tracingLog.String("result.newStatus", result.NewStatus.String()),
	)
	return result, nil
}

func (s *availabilityService) SaveCheckLogs(ctx context.Context, domainID uint64, checkLogs []models.CheckLog) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AvailabilityService.SaveCheckLogs")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domainId", domainID)

	for i := range checkLogs {
		checkLogs[i].DomainID = domainID
		if err := s.repos.CheckLogRepository.Create(ctx, &checkLogs[i]); err != nil {
			tracing.TraceErr(span, errors.Wrap(err, "failed to save check log"))
			return err
		}
	}
	return nil
}

func checkLogDraft(domainID uint64, check interfaces.DNSCheckResult) models.CheckLog {
	status := enum.CheckStatusUnavailable
	if check.Available {
		status = enum.CheckStatusAvailable
	}
	if check.Error != "" {
		status = enum.CheckStatusError
	}
	return models.CheckLog{
		DomainID:       domainID,
		StatusFound:    status,
		CheckMethod:    check.CheckMethod,
		ResponseTimeMs: check.ResponseTimeMs,
		ErrorMessage:   check.Error,
		CheckedAt:      utils.Now(),
	}
}
