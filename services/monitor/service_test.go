package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/interfaces"
	"github.com/expirehq/domain-monitor/internal/enum"
	"github.com/expirehq/domain-monitor/internal/logger"
	"github.com/expirehq/domain-monitor/internal/models"
	"github.com/expirehq/domain-monitor/internal/repository"
)

type mockAvailability struct {
	mock.Mock
}

func (m *mockAvailability) VerifyDomain(ctx context.Context, domain *models.Domain) (*interfaces.VerificationResult, error) {
	args := m.Called(ctx, domain)
	result, _ := args.Get(0).(*interfaces.VerificationResult)
	return result, args.Error(1)
}

func (m *mockAvailability) SaveCheckLogs(ctx context.Context, domainID uint64, checkLogs []models.CheckLog) error {
	return m.Called(ctx, domainID, checkLogs).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendAvailableNotification(ctx context.Context, domain *models.Domain) interfaces.NotificationResult {
	args := m.Called(ctx, domain)
	return args.Get(0).(interfaces.NotificationResult)
}

func (m *mockNotifier) SendLostNotification(ctx context.Context, domain *models.Domain) interfaces.NotificationResult {
	args := m.Called(ctx, domain)
	return args.Get(0).(interfaces.NotificationResult)
}

func (m *mockNotifier) SendTestNotification(ctx context.Context) interfaces.NotificationResult {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.NotificationResult)
}

type mockWatchers struct {
	mock.Mock
}

func (m *mockWatchers) StartWatcher(domainID uint64, domainName string) {
	m.Called(domainID, domainName)
}

func (m *mockWatchers) StopWatcher(domainID uint64) {
	m.Called(domainID)
}

func (m *mockWatchers) StopAll() {
	m.Called()
}

func (m *mockWatchers) IsWatching(domainID uint64) bool {
	return m.Called(domainID).Bool(0)
}

func (m *mockWatchers) ActiveCount() int {
	return m.Called().Int(0)
}

type mockDomainRepo struct {
	mock.Mock
}

func (m *mockDomainRepo) Create(ctx context.Context, domain *models.Domain) error {
	return m.Called(ctx, domain).Error(0)
}

func (m *mockDomainRepo) GetByID(ctx context.Context, id uint64) (*models.Domain, error) {
	args := m.Called(ctx, id)
	domain, _ := args.Get(0).(*models.Domain)
	return domain, args.Error(1)
}

func (m *mockDomainRepo) GetByName(ctx context.Context, domain string) (*models.Domain, error) {
	args := m.Called(ctx, domain)
	record, _ := args.Get(0).(*models.Domain)
	return record, args.Error(1)
}

func (m *mockDomainRepo) GetActiveDomains(ctx context.Context) ([]models.Domain, error) {
	args := m.Called(ctx)
	domains, _ := args.Get(0).([]models.Domain)
	return domains, args.Error(1)
}

func (m *mockDomainRepo) List(ctx context.Context, filters repository.DomainQueryFilters) ([]models.Domain, int64, error) {
	args := m.Called(ctx, filters)
	domains, _ := args.Get(0).([]models.Domain)
	return domains, args.Get(1).(int64), args.Error(2)
}

func (m *mockDomainRepo) Update(ctx context.Context, domain *models.Domain) error {
	return m.Called(ctx, domain).Error(0)
}

func (m *mockDomainRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockDomainRepo) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockDomainRepo) CountByStatus(ctx context.Context) (map[enum.DomainStatus]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[enum.DomainStatus]int64)
	return counts, args.Error(1)
}

func (m *mockDomainRepo) CountByTld(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}

func (m *mockDomainRepo) LastCheckedAt(ctx context.Context) (*time.Time, error) {
	args := m.Called(ctx)
	lastChecked, _ := args.Get(0).(*time.Time)
	return lastChecked, args.Error(1)
}

type mockCheckLogRepo struct {
	mock.Mock
}

func (m *mockCheckLogRepo) Create(ctx context.Context, checkLog *models.CheckLog) error {
	return m.Called(ctx, checkLog).Error(0)
}

func (m *mockCheckLogRepo) RecentByDomain(ctx context.Context, domainID uint64, limit int) ([]models.CheckLog, error) {
	args := m.Called(ctx, domainID, limit)
	checkLogs, _ := args.Get(0).([]models.CheckLog)
	return checkLogs, args.Error(1)
}

func (m *mockCheckLogRepo) MarkLatestNotificationSent(ctx context.Context, domainID uint64) error {
	return m.Called(ctx, domainID).Error(0)
}

func (m *mockCheckLogRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCheckLogRepo) CleanupOldLogs(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

type testHarness struct {
	availability *mockAvailability
	notifier     *mockNotifier
	watchers     *mockWatchers
	domainRepo   *mockDomainRepo
	checkLogRepo *mockCheckLogRepo
	svc          interfaces.MonitorService
}

func newHarness() *testHarness {
	h := &testHarness{
		availability: &mockAvailability{},
		notifier:     &mockNotifier{},
		watchers:     &mockWatchers{},
		domainRepo:   &mockDomainRepo{},
		checkLogRepo: &mockCheckLogRepo{},
	}
	cfg := &config.SchedulerConfig{
		BatchSize:            2,
		DelayBetweenChecksMs: 0,
	}
	repos := &repository.Repositories{
		DomainRepository:   h.domainRepo,
		CheckLogRepository: h.checkLogRepo,
	}
	h.svc = NewMonitorService(cfg, repos, h.availability, h.notifier, h.watchers, getLogger())
	return h
}

func testDomain(id uint64, name string) models.Domain {
	return models.Domain{
		ID:       id,
		Domain:   name,
		Tld:      "com",
		Status:   enum.DomainStatusUnavailable,
		IsActive: true,
	}
}

func TestCheckDomain_ConfirmedCatchNotifiesAndStartsWatcher(t *testing.T) {
	h := newHarness()
	domain := testDomain(1, "caught.com")

	h.availability.On("VerifyDomain", mock.Anything, &domain).Return(&interfaces.VerificationResult{
		IsAvailable:  true,
		ShouldNotify: true,
		NewStatus:    enum.DomainStatusAvailable,
		CheckLogs:    []models.CheckLog{{CheckMethod: "dns_199_7_91_13"}},
	}, nil)
	h.availability.On("SaveCheckLogs", mock.Anything, uint64(1), mock.Anything).Return(nil)
	h.notifier.On("SendAvailableNotification", mock.Anything, &domain).
		Return(interfaces.NotificationResult{Success: true})
	h.checkLogRepo.On("MarkLatestNotificationSent", mock.Anything, uint64(1)).Return(nil)
	h.watchers.On("IsWatching", uint64(1)).Return(false)
	h.watchers.On("StartWatcher", uint64(1), "caught.com").Return()

	result, err := h.svc.CheckDomain(context.Background(), &domain)

	require.NoError(t, err)
	assert.True(t, result.IsAvailable)
	assert.True(t, result.ShouldNotify)
	h.notifier.AssertExpectations(t)
	h.checkLogRepo.AssertExpectations(t)
	h.watchers.AssertExpectations(t)
}

func TestCheckDomain_FailedNotificationIsNotMarkedSent(t *testing.T) {
	h := newHarness()
	domain := testDomain(1, "caught.com")

	h.availability.On("VerifyDomain", mock.Anything, &domain).Return(&interfaces.VerificationResult{
		IsAvailable:  true,
		ShouldNotify: true,
		NewStatus:    enum.DomainStatusAvailable,
	}, nil)
	h.availability.On("SaveCheckLogs", mock.Anything, uint64(1), mock.Anything).Return(nil)
	h.notifier.On("SendAvailableNotification", mock.Anything, &domain).
		Return(interfaces.NotificationResult{Success: false, Error: "HTTP 500"})
	h.watchers.On("IsWatching", uint64(1)).Return(false)
	h.watchers.On("StartWatcher", uint64(1), "caught.com").Return()

	result, err := h.svc.CheckDomain(context.Background(), &domain)

	require.NoError(t, err)
	assert.False(t, result.ShouldNotify)
	h.checkLogRepo.AssertNotCalled(t, "MarkLatestNotificationSent", mock.Anything, mock.Anything)
}

func TestCheckDomain_AlreadyWatchedDomainIsNotRestarted(t *testing.T) {
	h := newHarness()
	domain := testDomain(1, "caught.com")

	h.availability.On("VerifyDomain", mock.Anything, &domain).Return(&interfaces.VerificationResult{
		IsAvailable: true,
		NewStatus:   enum.DomainStatusAvailable,
	}, nil)
	h.availability.On("SaveCheckLogs", mock.Anything, uint64(1), mock.Anything).Return(nil)
	h.watchers.On("IsWatching", uint64(1)).Return(true)

	_, err := h.svc.CheckDomain(context.Background(), &domain)

	require.NoError(t, err)
	h.watchers.AssertNotCalled(t, "StartWatcher", mock.Anything, mock.Anything)
	h.notifier.AssertNotCalled(t, "SendAvailableNotification", mock.Anything, mock.Anything)
}

func TestCheckDomain_UnavailableDomainHasNoSideEffects(t *testing.T) {
	h := newHarness()
	domain := testDomain(1, "taken.com")

	h.availability.On("VerifyDomain", mock.Anything, &domain).Return(&interfaces.VerificationResult{
		IsAvailable: false,
		NewStatus:   enum.DomainStatusUnavailable,
	}, nil)
	h.availability.On("SaveCheckLogs", mock.Anything, uint64(1), mock.Anything).Return(nil)

	result, err := h.svc.CheckDomain(context.Background(), &domain)

	require.NoError(t, err)
	assert.False(t, result.IsAvailable)
	h.notifier.AssertNotCalled(t, "SendAvailableNotification", mock.Anything, mock.Anything)
	h.watchers.AssertNotCalled(t, "StartWatcher", mock.Anything, mock.Anything)
	h.watchers.AssertNotCalled(t, "IsWatching", mock.Anything)
}

func TestRunCheckCycle_SweepsAllBatchesAndCleansUp(t *testing.T) {
	h := newHarness()
	domains := []models.Domain{
		testDomain(1, "one.com"),
		testDomain(2, "two.com"),
		testDomain(3, "three.com"),
	}

	h.domainRepo.On("GetActiveDomains", mock.Anything).Return(domains, nil)
	h.availability.On("VerifyDomain", mock.Anything, mock.Anything).Return(&interfaces.VerificationResult{
		IsAvailable: false,
		NewStatus:   enum.DomainStatusUnavailable,
	}, nil).Times(3)
	h.availability.On("SaveCheckLogs", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)
	h.checkLogRepo.On("CleanupOldLogs", mock.Anything).Return(nil).Once()

	err := h.svc.RunCheckCycle(context.Background())

	require.NoError(t, err)
	h.availability.AssertExpectations(t)
	h.checkLogRepo.AssertExpectations(t)
}

func TestRunCheckCycle_EmptySweepSkipsCleanup(t *testing.T) {
	h := newHarness()
	h.domainRepo.On("GetActiveDomains", mock.Anything).Return([]models.Domain{}, nil)

	err := h.svc.RunCheckCycle(context.Background())

	require.NoError(t, err)
	h.checkLogRepo.AssertNotCalled(t, "CleanupOldLogs", mock.Anything)
}

func TestRunCheckCycle_DomainErrorDoesNotAbortSweep(t *testing.T) {
	h := newHarness()
	domains := []models.Domain{
		testDomain(1, "broken.com"),
		testDomain(2, "fine.com"),
	}

	h.domainRepo.On("GetActiveDomains", mock.Anything).Return(domains, nil)
	h.availability.On("VerifyDomain", mock.Anything, mock.MatchedBy(func(d *models.Domain) bool {
		return d.ID == 1
	})).Return(nil, assert.AnError)
	h.availability.On("VerifyDomain", mock.Anything, mock.MatchedBy(func(d *models.Domain) bool {
		return d.ID == 2
	})).Return(&interfaces.VerificationResult{NewStatus: enum.DomainStatusUnavailable}, nil)
	h.availability.On("SaveCheckLogs", mock.Anything, uint64(2), mock.Anything).Return(nil)
	h.checkLogRepo.On("CleanupOldLogs", mock.Anything).Return(nil).Once()

	err := h.svc.RunCheckCycle(context.Background())

	require.NoError(t, err)
	h.availability.AssertExpectations(t)
}

func TestRunCheckCycle_CleanupFailureIsSwallowed(t *testing.T) {
	h := newHarness()
	h.domainRepo.On("GetActiveDomains", mock.Anything).Return([]models.Domain{testDomain(1, "one.com")}, nil)
	h.availability.On("VerifyDomain", mock.Anything, mock.Anything).Return(&interfaces.VerificationResult{
		NewStatus: enum.DomainStatusUnavailable,
	}, nil)
	h.availability.On("SaveCheckLogs", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	h.checkLogRepo.On("CleanupOldLogs", mock.Anything).Return(assert.AnError).Once()

	err := h.svc.RunCheckCycle(context.Background())

	require.NoError(t, err)
}
