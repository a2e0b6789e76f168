package dnscheck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestService(t *testing.T, exchange func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error)) *dnsCheckerService {
	t.Helper()
	cfg := &config.DNSConfig{
		TimeoutSeconds: 1,
		RetryCount:     2,
		PrimaryServer:  "8.8.8.8",
		SupportedTlds:  []string{"fr", "com", "net"},
	}
	svc := NewDNSCheckerService(cfg, getLogger()).(*dnsCheckerService)
	svc.exchange = exchange
	return svc
}

func responseWithRcode(rcode int) *dns.Msg {
	msg := new(dns.Msg)
	msg.Rcode = rcode
	return msg
}

func responseWithARecord(t *testing.T) *dns.Msg {
	t.Helper()
	msg := responseWithRcode(dns.RcodeSuccess)
	rr, err := dns.NewRR("example.com. 300 IN A 93.184.216.34")
	require.NoError(t, err)
	msg.Answer = append(msg.Answer, rr)
	return msg
}

func TestCheckDomainAvailability_NxdomainMeansAvailable(t *testing.T) {
	svc := newTestService(t, func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
		return responseWithRcode(dns.RcodeNameError), 0, nil
	})

	result := svc.CheckDomainAvailability(context.Background(), "free-name.com", "8.8.8.8")

	assert.True(t, result.Available)
	assert.Empty(t, result.Error)
	assert.Equal(t, "dns_8_8_8_8", result.CheckMethod)
}

func TestCheckDomainAvailability_AnswerRecordsMeanTaken(t *testing.T) {
	svc := newTestService(t, func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
		return responseWithARecord(t), 0, nil
	})

	result := svc.CheckDomainAvailability(context.Background(), "example.com", "8.8.8.8")

	assert.False(t, result.Available)
	assert.Empty(t, result.Error)
}

func TestCheckDomainAvailability_TransientFailuresRetryThenDegradeToAvailable(t *testing.T) {
	attempts := 0
	svc := newTestService(t, func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
		attempts++
		return nil, 0, errors.New("i/o timeout")
	})

	result := svc.CheckDomainAvailability(context.Background(), "flaky.com", "8.8.8.8")

	// RetryCount is the total attempt budget.
	assert.Equal(t, 2, attempts)
	assert.True(t, result.Available)
	assert.Contains(t, result.Error, "no definitive answer after 2 attempts")
	assert.Contains(t, result.Error, "i/o timeout")
}

func TestCheckDomainAvailability_ServfailRecoversOnRetry(t *testing.T) {
	attempts := 0
	svc := newTestService(t, func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
		attempts++
		if attempts == 1 {
			return responseWithRcode(dns.RcodeServerFailure), 0, nil
		}
		return responseWithRcode(dns.RcodeNameError), 0, nil
	})

	result := svc.CheckDomainAvailability(context.Background(), "recovers.net", "8.8.8.8")

	assert.Equal(t, 2, attempts)
	assert.True(t, result.Available)
	assert.Empty(t, result.Error)
}

func TestCheckDomainAvailability_EmptyAnswerSectionIsTransient(t *testing.T) {
	attempts := 0
	svc := newTestService(t, func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
		attempts++
		return responseWithRcode(dns.RcodeSuccess), 0, nil
	})

	result := svc.CheckDomainAvailability(context.Background(), "lame-delegation.fr", "192.134.4.1")

	assert.Equal(t, 2, attempts)
	assert.True(t, result.Available)
	assert.Contains(t, result.Error, "no answer records")
}

func TestCheckDomainAvailability_UnexpectedRcodeIsTakenWithoutRetry(t *testing.T) {
	attempts := 0
	svc := newTestService(t, func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
		attempts++
		return responseWithRcode(dns.RcodeFormatError), 0, nil
	})

	result := svc.CheckDomainAvailability(context.Background(), "weird.com", "8.8.8.8")

	assert.Equal(t, 1, attempts)
	assert.False(t, result.Available)
	assert.Contains(t, result.Error, "FORMERR")
}

func TestCheckDomainAvailability_ZeroRetryCountStillProbesOnce(t *testing.T) {
	attempts := 0
	svc := newTestService(t, func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
		attempts++
		return responseWithRcode(dns.RcodeNameError), 0, nil
	})
	svc.cfg.RetryCount = 0

	result := svc.CheckDomainAvailability(context.Background(), "free-name.com", "8.8.8.8")

	assert.Equal(t, 1, attempts)
	assert.True(t, result.Available)
}

func TestCheckDomainAvailability_LatencyExcludesRetryPauses(t *testing.T) {
	attempts := 0
	svc := newTestService(t, func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
		attempts++
		if attempts == 1 {
			return responseWithRcode(dns.RcodeServerFailure), 0, nil
		}
		return responseWithRcode(dns.RcodeNameError), 0, nil
	})

	result := svc.CheckDomainAvailability(context.Background(), "recovers.com", "8.8.8.8")

	// The 500ms pause before the second attempt is not resolver latency.
	assert.Equal(t, 2, attempts)
	assert.Less(t, result.ResponseTimeMs, int64(400))
}

func TestCheckDomainAvailability_QueriesARecordForFqdn(t *testing.T) {
	var captured *dns.Msg
	var capturedAddr string
	svc := newTestService(t, func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
		captured = msg
		capturedAddr = addr
		return responseWithRcode(dns.RcodeNameError), 0, nil
	})

	svc.CheckDomainAvailability(context.Background(), "example.fr", "192.134.4.1")

	require.NotNil(t, captured)
	require.Len(t, captured.Question, 1)
	assert.Equal(t, "example.fr.", captured.Question[0].Name)
	assert.Equal(t, dns.TypeA, captured.Question[0].Qtype)
	assert.Equal(t, "192.134.4.1:53", capturedAddr)
}

func TestServerForTld(t *testing.T) {
	svc := newTestService(t, nil)

	assert.Equal(t, "192.134.4.1", svc.ServerForTld("fr"))
	assert.Equal(t, "199.7.91.13", svc.ServerForTld("com"))
	assert.Equal(t, "199.7.91.13", svc.ServerForTld("net"))
	assert.Equal(t, "8.8.8.8", svc.ServerForTld("io"))
	assert.Equal(t, "192.134.4.1", svc.ServerForTld("FR"))
}

func TestExtractTld(t *testing.T) {
	svc := newTestService(t, nil)

	assert.Equal(t, "com", svc.ExtractTld("example.com"))
	assert.Equal(t, "fr", svc.ExtractTld("sub.example.FR"))
	assert.Equal(t, "net", svc.ExtractTld("example.net."))
	assert.Equal(t, "", svc.ExtractTld("localhost"))
	assert.Equal(t, "", svc.ExtractTld(""))
}

func TestIsSupportedTld(t *testing.T) {
	svc := newTestService(t, nil)

	assert.True(t, svc.IsSupportedTld("example.com"))
	assert.True(t, svc.IsSupportedTld("example.fr"))
	assert.False(t, svc.IsSupportedTld("example.io"))
	assert.False(t, svc.IsSupportedTld("localhost"))
}
