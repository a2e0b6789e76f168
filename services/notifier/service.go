package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/interfaces"
	er "github.com/expirehq/domain-monitor/internal/errors"
	"github.com/expirehq/domain-monitor/internal/logger"
	"github.com/expirehq/domain-monitor/internal/models"
	"github.com/expirehq/domain-monitor/internal/repository"
	"github.com/expirehq/domain-monitor/internal/tracing"
	"github.com/expirehq/domain-monitor/internal/utils"
)

type notifierService struct {
	cfg        *config.WebhookConfig
	repos      *repository.Repositories
	log        logger.Logger
	httpClient *http.Client
}

func NewNotifierService(cfg *config.WebhookConfig, repos *repository.Repositories, log logger.Logger) interfaces.NotifierService {
	return &notifierService{
		cfg:   cfg,
		repos: repos,
		log:   log,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

func (s *notifierService) SendAvailableNotification(ctx context.Context, domain *models.Domain) interfaces.NotificationResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotifierService.SendAvailableNotification")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("request.domain", domain.Domain)

	s.log.Infof("sending available notification for domain %s", domain.Domain)
	return s.deliver(ctx, span, availableEmbed(domain), &domain.ID)
}

func (s *notifierService) SendLostNotification(ctx context.Context, domain *models.Domain) interfaces.NotificationResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotifierService.SendLostNotification")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("request.domain", domain.Domain)

	s.log.Infof("sending lost notification for domain %s", domain.Domain)
	return s.deliver(ctx, span, lostEmbed(domain), &domain.ID)
}

func (s *notifierService) SendTestNotification(ctx context.Context) interfaces.NotificationResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotifierService.SendTestNotification")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	s.log.Info("sending test notification")
	// Test sends skip the audit trail, they carry no domain.
	return s.deliver(ctx, span, testEmbed(), nil)
}

// deliver posts the payload with retries and records exactly one audit row
// for the terminal outcome when a domain is attached. 204 is the only
// success response. 429 honors the retry_after hint from the body, other
// failures back off linearly with the attempt number.
func (s *notifierService) deliver(ctx context.Context, span opentracing.Span, payload webhookPayload, domainID *uint64) interfaces.NotificationResult {
	if s.cfg.URL == "" {
		tracing.TraceErr(span, er.ErrWebhookNotConfigured)
		result := interfaces.NotificationResult{
			Error: er.ErrWebhookNotConfigured.Error(),
		}
		// A misconfigured webhook is still a terminal outcome and gets
		// its audit row.
		if domainID != nil {
			s.saveAuditRow(ctx, span, *domainID, result)
		}
		return result
	}

	body, err := json.Marshal(payload)
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to marshal payload"))
		return interfaces.NotificationResult{Error: err.Error()}
	}

	retryDelay := time.Duration(s.cfg.RetryDelaySeconds) * time.Second
	attempts := s.cfg.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	var result interfaces.NotificationResult
	for attempt := 1; attempt <= attempts; attempt++ {
		status, responseBody, err := s.post(ctx, body)

		if err != nil {
			s.log.Errorf("webhook delivery failed (attempt %d/%d): %v", attempt, attempts, err)
			result = interfaces.NotificationResult{Error: err.Error()}
			if attempt < attempts {
				if sleepErr := utils.SleepWithContext(ctx, retryDelay*time.Duration(attempt)); sleepErr != nil {
					break
				}
				continue
			}
			break
		}

		if status == http.StatusNoContent {
			result = interfaces.NotificationResult{
				Success:    true,
				HTTPStatus: &status,
				Response:   "Success",
			}
			break
		}

		if status == http.StatusTooManyRequests {
			s.log.Warnf("webhook rate limited (attempt %d/%d)", attempt, attempts)
			result = interfaces.NotificationResult{
				HTTPStatus: &status,
				Response:   responseBody,
				Error:      "rate limit exceeded",
			}
			if attempt < attempts {
				if sleepErr := utils.SleepWithContext(ctx, s.retryAfter(responseBody)); sleepErr != nil {
					break
				}
				continue
			}
			break
		}

		s.log.Errorf("webhook delivery rejected with HTTP %d (attempt %d/%d)", status, attempt, attempts)
		result = interfaces.NotificationResult{
			HTTPStatus: &status,
			Response:   responseBody,
			Error:      fmt.Sprintf("HTTP %d", status),
		}
		if attempt < attempts {
			if sleepErr := utils.SleepWithContext(ctx, retryDelay*time.Duration(attempt)); sleepErr != nil {
				break
			}
			continue
		}
		break
	}

	span.LogFields(tracingLog.Bool("result.success", result.Success))
	if domainID != nil {
		s.saveAuditRow(ctx, span, *domainID, result)
	}
	return result
}

func (s *notifierService) post(ctx context.Context, body []byte) (int, string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.httpClient.Do(request)
	if err != nil {
		return 0, "", err
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, 64*1024))
	if err != nil {
		return response.StatusCode, "", err
	}
	return response.StatusCode, string(responseBody), nil
}

// retryAfter extracts the retry_after hint, in seconds, from a 429 body.
// Falls back to the configured delay when the hint is absent or unreadable.
func (s *notifierService) retryAfter(responseBody string) time.Duration {
	var rateLimit struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal([]byte(responseBody), &rateLimit); err == nil && rateLimit.RetryAfter > 0 {
		return time.Duration(rateLimit.RetryAfter * float64(time.Second))
	}
	return time.Duration(s.cfg.RetryDelaySeconds) * time.Second
}

func (s *notifierService) saveAuditRow(ctx context.Context, span opentracing.Span, domainID uint64, result interfaces.NotificationResult) {
	response := result.Response
	if response == "" {
		response = result.Error
	}
	notification := &models.Notification{
		DomainID:        domainID,
		Success:         result.Success,
		HTTPStatus:      result.HTTPStatus,
		WebhookResponse: response,
	}
	if err := s.repos.NotificationRepository.Create(ctx, notification); err != nil {
		// The webhook outcome stands even if the audit write fails.
		tracing.TraceErr(span, errors.Wrap(err, "failed to save notification"))
		s.log.Errorf("failed to save notification for domain %d: %v", domainID, err)
	}
}
