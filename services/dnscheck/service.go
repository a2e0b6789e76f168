package dnscheck

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/opentracing/opentracing-go"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/interfaces"
	"github.com/expirehq/domain-monitor/internal/logger"
	"github.com/expirehq/domain-monitor/internal/tracing"
	"github.com/expirehq/domain-monitor/internal/utils"
)

// Pause between retries of a transient probe failure. Long enough to ride
// out a resolver hiccup, short enough to keep the double-check window tight.
const transientRetryPause = 500 * time.Millisecond

// Registry-operated servers answer faster and more authoritatively for
// their own zone than a public recursive resolver.
var tldServers = map[string]string{
	"fr":  "192.134.4.1", // AFNIC
	"com": "199.7.91.13", // Verisign
	"net": "199.7.91.13",
}

type dnsCheckerService struct {
	cfg *config.DNSConfig
	log logger.Logger

	// swapped out in tests
	exchange func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error)
}

func NewDNSCheckerService(cfg *config.DNSConfig, log logger.Logger) interfaces.DNSCheckerService {
	client := &dns.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	return &dnsCheckerService{
		cfg: cfg,
		log: log,
		exchange: func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
			return client.ExchangeContext(ctx, msg, addr)
		},
	}
}

func (s *dnsCheckerService) CheckDomainAvailability(ctx context.Context, domain, server string) interfaces.DNSCheckResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DNSCheckerService.CheckDomainAvailability")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("request.domain", domain)
	span.LogKV("request.server", server)

	result := interfaces.DNSCheckResult{
		CheckMethod: checkMethod(server),
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	addr := net.JoinHostPort(server, "53")

	attempts := s.cfg.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	var lastFailure string
	var elapsed time.Duration
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := utils.SleepWithContext(ctx, transientRetryPause); err != nil {
				lastFailure = err.Error()
				break
			}
		}

		// Each attempt is timed on its own, the pauses between attempts
		// are not resolver latency.
		start := time.Now()
		response, _, err := s.exchange(ctx, msg, addr)
		elapsed = time.Since(start)
		if err != nil {
			// Timeouts and connection failures are transient.
			lastFailure = err.Error()
			s.log.Warnf("dns probe for %s against %s failed (attempt %d/%d): %v", domain, server, attempt, attempts, err)
			continue
		}

		switch response.Rcode {
		case dns.RcodeNameError:
			// NXDOMAIN, the zone has no such name.
			result.Available = true
			result.ResponseTimeMs = elapsed.Milliseconds()
			span.SetTag("result.available", true)
			return result

		case dns.RcodeSuccess:
			if hasAddressRecords(response) {
				result.Available = false
				result.ResponseTimeMs = elapsed.Milliseconds()
				span.SetTag("result.available", false)
				return result
			}
			// NOERROR with an empty answer section means the name exists
			// but carries no A records, or the resolver is lame. Retry.
			lastFailure = "no answer records"
			continue

		case dns.RcodeServerFailure, dns.RcodeRefused:
			lastFailure = dns.RcodeToString[response.Rcode]
			continue

		default:
			// FORMERR, NOTIMP and friends will not improve on retry.
			// Treat the name as taken rather than risk a false alert.
			result.Available = false
			result.ResponseTimeMs = elapsed.Milliseconds()
			result.Error = fmt.Sprintf("unexpected rcode %s", dns.RcodeToString[response.Rcode])
			span.SetTag("result.available", false)
			return result
		}
	}

	// Every attempt failed in a transient way. Report the name as available
	// with a diagnostic so the confirmation probe gets the final word.
	result.Available = true
	result.ResponseTimeMs = elapsed.Milliseconds()
	result.Error = fmt.Sprintf("no definitive answer after %d attempts: %s", attempts, lastFailure)
	span.SetTag("result.available", true)
	span.LogKV("result.error", result.Error)
	return result
}

func (s *dnsCheckerService) ServerForTld(tld string) string {
	if server, ok := tldServers[strings.ToLower(tld)]; ok {
		return server
	}
	return s.cfg.PrimaryServer
}

func (s *dnsCheckerService) ExtractTld(domain string) string {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	idx := strings.LastIndex(domain, ".")
	if idx < 0 || idx == len(domain)-1 {
		return ""
	}
	return domain[idx+1:]
}

func (s *dnsCheckerService) IsSupportedTld(domain string) bool {
	tld := s.ExtractTld(domain)
	if tld == "" {
		return false
	}
	return utils.IsStringInSlice(tld, s.cfg.SupportedTlds)
}

func hasAddressRecords(response *dns.Msg) bool {
	for _, rr := range response.Answer {
		switch rr.(type) {
		case *dns.A, *dns.AAAA, *dns.CNAME:
			return true
		}
	}
	return false
}

func checkMethod(server string) string {
	return "dns_" + strings.ReplaceAll(server, ".", "_")
}
