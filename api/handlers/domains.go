package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/interfaces"
	"github.com/expirehq/domain-monitor/internal/enum"
	er "github.com/expirehq/domain-monitor/internal/errors"
	"github.com/expirehq/domain-monitor/internal/models"
	"github.com/expirehq/domain-monitor/internal/repository"
	"github.com/expirehq/domain-monitor/internal/tracing"
)

type CreateDomainRequest struct {
	Domain           string `json:"domain" binding:"required"`
	Niche            string `json:"niche"`
	Traffic          *int   `json:"traffic"`
	ReferringDomains *int   `json:"referringDomains"`
}

type UpdateDomainRequest struct {
	Niche            *string `json:"niche"`
	Traffic          *int    `json:"traffic"`
	ReferringDomains *int    `json:"referringDomains"`
}

type DomainListResponse struct {
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	Domains []models.Domain `json:"domains"`
}

type DomainWithChecksResponse struct {
	models.Domain
	RecentChecks []models.CheckLog `json:"recentChecks"`
}

type DomainsHandler struct {
	dnsCfg     *config.DNSConfig
	repos      *repository.Repositories
	dnsChecker interfaces.DNSCheckerService
	monitor    interfaces.MonitorService
	watchers   interfaces.WatcherService
}

func NewDomainsHandler(
	dnsCfg *config.DNSConfig,
	repos *repository.Repositories,
	dnsChecker interfaces.DNSCheckerService,
	monitor interfaces.MonitorService,
	watchers interfaces.WatcherService,
) *DomainsHandler {
	return &DomainsHandler{
		dnsCfg:     dnsCfg,
		repos:      repos,
		dnsChecker: dnsChecker,
		monitor:    monitor,
		watchers:   watchers,
	}
}

// List returns domains with filtering, sorting and pagination
func (h *DomainsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.List")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		filters := repository.DomainQueryFilters{
			Search:    c.Query("search"),
			SortBy:    c.DefaultQuery("sort_by", "created_at"),
			SortOrder: c.DefaultQuery("sort_order", "desc"),
		}

		if status := c.Query("status"); status != "" {
			domainStatus := enum.DomainStatus(status)
			switch domainStatus {
			case enum.DomainStatusAvailable, enum.DomainStatusUnavailable, enum.DomainStatusUnknown:
				filters.Status = &domainStatus
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid status: %s", status)})
				return
			}
		}
		if tld := c.Query("tld"); tld != "" {
			filters.Tld = &tld
		}
		if isActive := c.Query("is_active"); isActive != "" {
			active, err := strconv.ParseBool(isActive)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid is_active value"})
				return
			}
			filters.IsActive = &active
		}

		filters.Limit = intQuery(c, "limit", 50)
		if filters.Limit < 1 || filters.Limit > 200 {
			filters.Limit = 50
		}
		filters.Offset = intQuery(c, "offset", 0)
		if filters.Offset < 0 {
			filters.Offset = 0
		}

		domains, total, err := h.repos.DomainRepository.List(ctx, filters)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list domains"})
			return
		}

		c.JSON(http.StatusOK, DomainListResponse{
			Total:   total,
			Limit:   filters.Limit,
			Offset:  filters.Offset,
			Domains: domains,
		})
	}
}

// Get returns one domain with its 10 most recent checks
func (h *DomainsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.Get")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domain, ok := h.loadDomain(c, span)
		if !ok {
			return
		}

		recentChecks, err := h.repos.CheckLogRepository.RecentByDomain(ctx, domain.ID, 10)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load check history"})
			return
		}

		c.JSON(http.StatusOK, DomainWithChecksResponse{
			Domain:       *domain,
			RecentChecks: recentChecks,
		})
	}
}

// Create registers a new domain for monitoring
func (h *DomainsHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.Create")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req CreateDomainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		domainName := strings.ToLower(strings.TrimSpace(req.Domain))
		if !h.dnsChecker.IsSupportedTld(domainName) {
			tld := h.dnsChecker.ExtractTld(domainName)
			tracing.TraceErr(span, er.ErrTldNotSupported)
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("TLD '%s' is not supported. Supported TLDs: %s",
					tld, strings.Join(h.dnsCfg.SupportedTlds, ", ")),
			})
			return
		}

		existing, err := h.repos.DomainRepository.GetByName(ctx, domainName)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing domain"})
			return
		}
		if existing != nil {
			tracing.TraceErr(span, er.ErrDomainAlreadyExists)
			c.JSON(http.StatusConflict, gin.H{"error": "Domain already exists"})
			return
		}

		domain := &models.Domain{
			Domain:           domainName,
			Tld:              h.dnsChecker.ExtractTld(domainName),
			Niche:            req.Niche,
			Traffic:          intOrZero(req.Traffic),
			ReferringDomains: intOrZero(req.ReferringDomains),
			Status:           enum.DomainStatusUnknown,
			PreviousStatus:   enum.DomainStatusUnknown,
			IsActive:         true,
		}
		if err := h.repos.DomainRepository.Create(ctx, domain); err != nil {
			tracing.TraceErr(span, errors.Wrap(err, "failed to create domain"))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create domain"})
			return
		}

		c.JSON(http.StatusCreated, domain)
	}
}

// Update changes domain metadata, availability fields are owned by the monitor
func (h *DomainsHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.Update")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domain, ok := h.loadDomain(c, span)
		if !ok {
			return
		}

		var req UpdateDomainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.Niche != nil {
			domain.Niche = *req.Niche
		}
		if req.Traffic != nil {
			domain.Traffic = *req.Traffic
		}
		if req.ReferringDomains != nil {
			domain.ReferringDomains = *req.ReferringDomains
		}

		if err := h.repos.DomainRepository.Update(ctx, domain); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update domain"})
			return
		}

		c.JSON(http.StatusOK, domain)
	}
}

// Delete removes a domain, check logs and notifications cascade with it
func (h *DomainsHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.Delete")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domain, ok := h.loadDomain(c, span)
		if !ok {
			return
		}

		h.watchers.StopWatcher(domain.ID)

		if err := h.repos.DomainRepository.Delete(ctx, domain.ID); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete domain"})
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// ForceCheck verifies a domain immediately, outside the scheduled cycle
func (h *DomainsHandler) ForceCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.ForceCheck")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domain, ok := h.loadDomain(c, span)
		if !ok {
			return
		}

		if _, err := h.monitor.CheckDomain(ctx, domain); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check domain"})
			return
		}

		c.JSON(http.StatusOK, domain)
	}
}

// Notifications returns the most recent webhook deliveries for a domain
func (h *DomainsHandler) Notifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.Notifications")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domain, ok := h.loadDomain(c, span)
		if !ok {
			return
		}

		limit := intQuery(c, "limit", 20)
		if limit < 1 || limit > 200 {
			limit = 20
		}

		notifications, err := h.repos.NotificationRepository.RecentByDomain(ctx, domain.ID, limit)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notification history"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"domainId": domain.ID, "notifications": notifications})
	}
}

// Toggle flips monitoring on or off for a domain
func (h *DomainsHandler) Toggle() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.Toggle")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domain, ok := h.loadDomain(c, span)
		if !ok {
			return
		}

		if err := h.repos.DomainRepository.SetActive(ctx, domain.ID, !domain.IsActive); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle domain"})
			return
		}
		domain.IsActive = !domain.IsActive

		// A deactivated domain must not keep a fast poll running.
		if !domain.IsActive {
			h.watchers.StopWatcher(domain.ID)
		}

		c.JSON(http.StatusOK, domain)
	}
}

func (h *DomainsHandler) loadDomain(c *gin.Context, span opentracing.Span) (*models.Domain, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid domain id"})
		return nil, false
	}

	domain, err := h.repos.DomainRepository.GetByID(c.Request.Context(), id)
	if err != nil {
		tracing.TraceErr(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load domain"})
		return nil, false
	}
	if domain == nil {
		tracing.TraceErr(span, er.ErrDomainNotFound)
		c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
		return nil, false
	}
	return domain, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func intOrZero(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}
