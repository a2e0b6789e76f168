package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/internal/enum"
	"github.com/expirehq/domain-monitor/internal/logger"
	"github.com/expirehq/domain-monitor/internal/models"
	"github.com/expirehq/domain-monitor/internal/repository"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	return m.Called(ctx, notification).Error(0)
}

func (m *mockNotificationRepo) RecentByDomain(ctx context.Context, domainID uint64, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, domainID, limit)
	notifications, _ := args.Get(0).([]models.Notification)
	return notifications, args.Error(1)
}

func (m *mockNotificationRepo) CountSuccessfulSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestService(url string, notificationRepo *mockNotificationRepo) *notifierService {
	cfg := &config.WebhookConfig{
		URL:               url,
		RetryCount:        3,
		RetryDelaySeconds: 0,
		TimeoutSeconds:    2,
	}
	repos := &repository.Repositories{
		NotificationRepository: notificationRepo,
	}
	return NewNotifierService(cfg, repos, getLogger()).(*notifierService)
}

func testDomain() *models.Domain {
	lastAvailable := time.Now().UTC().Add(-90 * time.Minute)
	return &models.Domain{
		ID:               7,
		Domain:           "example.com",
		Tld:              "com",
		Niche:            "automotive",
		Traffic:          1234,
		ReferringDomains: 56,
		Status:           enum.DomainStatusAvailable,
		LastAvailable:    &lastAvailable,
	}
}

func TestSendAvailableNotification_SuccessOn204(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notificationRepo := &mockNotificationRepo{}
	notificationRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.DomainID == 7 && n.Success && n.HTTPStatus != nil && *n.HTTPStatus == http.StatusNoContent
	})).Return(nil).Once()

	svc := newTestService(server.URL, notificationRepo)
	result := svc.SendAvailableNotification(context.Background(), testDomain())

	assert.True(t, result.Success)
	require.NotNil(t, result.HTTPStatus)
	assert.Equal(t, http.StatusNoContent, *result.HTTPStatus)
	require.Len(t, received.Embeds, 1)
	assert.Equal(t, "Domain available", received.Embeds[0].Title)
	notificationRepo.AssertExpectations(t)
}

func TestSendAvailableNotification_RateLimitThenSuccess(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"retry_after": 0.01}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notificationRepo := &mockNotificationRepo{}
	notificationRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Success
	})).Return(nil).Once()

	svc := newTestService(server.URL, notificationRepo)
	result := svc.SendAvailableNotification(context.Background(), testDomain())

	assert.True(t, result.Success)
	assert.Equal(t, 2, calls)
	notificationRepo.AssertExpectations(t)
}

func TestSendAvailableNotification_RateLimitExhaustsRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"retry_after": 0.01}`))
	}))
	defer server.Close()

	notificationRepo := &mockNotificationRepo{}
	notificationRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return !n.Success && n.HTTPStatus != nil && *n.HTTPStatus == http.StatusTooManyRequests
	})).Return(nil).Once()

	svc := newTestService(server.URL, notificationRepo)
	result := svc.SendAvailableNotification(context.Background(), testDomain())

	assert.False(t, result.Success)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "rate limit exceeded", result.Error)
	notificationRepo.AssertExpectations(t)
}

func TestSendAvailableNotification_ServerErrorExhaustsRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	notificationRepo := &mockNotificationRepo{}
	notificationRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return !n.Success && n.WebhookResponse == "boom"
	})).Return(nil).Once()

	svc := newTestService(server.URL, notificationRepo)
	result := svc.SendAvailableNotification(context.Background(), testDomain())

	assert.False(t, result.Success)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "HTTP 500", result.Error)
	notificationRepo.AssertExpectations(t)
}

func TestSendAvailableNotification_ConnectionErrorIsAudited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	notificationRepo := &mockNotificationRepo{}
	notificationRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return !n.Success && n.HTTPStatus == nil && n.WebhookResponse != ""
	})).Return(nil).Once()

	svc := newTestService(server.URL, notificationRepo)
	result := svc.SendAvailableNotification(context.Background(), testDomain())

	assert.False(t, result.Success)
	assert.Nil(t, result.HTTPStatus)
	assert.NotEmpty(t, result.Error)
	notificationRepo.AssertExpectations(t)
}

func TestSendAvailableNotification_MissingWebhookURLIsAudited(t *testing.T) {
	notificationRepo := &mockNotificationRepo{}
	notificationRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return !n.Success && n.HTTPStatus == nil
	})).Return(nil).Once()

	svc := newTestService("", notificationRepo)
	result := svc.SendAvailableNotification(context.Background(), testDomain())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "webhook")
	notificationRepo.AssertExpectations(t)
}

func TestSendAvailableNotification_ZeroRetryBudgetStillDeliversOnce(t *testing.T) {
	deliveries := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deliveries++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notificationRepo := &mockNotificationRepo{}
	notificationRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Success
	})).Return(nil).Once()

	svc := newTestService(server.URL, notificationRepo)
	svc.cfg.RetryCount = 0
	result := svc.SendAvailableNotification(context.Background(), testDomain())

	assert.True(t, result.Success)
	assert.Equal(t, 1, deliveries)
	notificationRepo.AssertExpectations(t)
}

func TestSendLostNotification_IncludesTimeAvailable(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notificationRepo := &mockNotificationRepo{}
	notificationRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	svc := newTestService(server.URL, notificationRepo)
	result := svc.SendLostNotification(context.Background(), testDomain())

	assert.True(t, result.Success)
	require.Len(t, received.Embeds, 1)
	assert.Equal(t, "Domain lost", received.Embeds[0].Title)

	var timeAvailable string
	for _, field := range received.Embeds[0].Fields {
		if field.Name == "Time available" {
			timeAvailable = field.Value
		}
	}
	assert.Equal(t, "1h 30m", timeAvailable)
}

func TestSendTestNotification_SkipsAuditTrail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notificationRepo := &mockNotificationRepo{}

	svc := newTestService(server.URL, notificationRepo)
	result := svc.SendTestNotification(context.Background())

	assert.True(t, result.Success)
	notificationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,234", formatNumber(1234))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
}
