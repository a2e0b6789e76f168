package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/expirehq/domain-monitor/internal/repository"
	"github.com/expirehq/domain-monitor/internal/tracing"
	"github.com/expirehq/domain-monitor/internal/utils"
)

type StatsResponse struct {
	TotalDomains       int64            `json:"totalDomains"`
	ActiveDomains      int64            `json:"activeDomains"`
	ByStatus           map[string]int64 `json:"byStatus"`
	ByTld              map[string]int64 `json:"byTld"`
	LastCheckCycle     *time.Time       `json:"lastCheckCycle"`
	NextCheckCycle     *time.Time       `json:"nextCheckCycle"`
	ChecksToday        int64            `json:"checksToday"`
	NotificationsToday int64            `json:"notificationsToday"`
	ActiveWatchers     int              `json:"activeWatchers"`
}

type StatsHandler struct {
	repos          *repository.Repositories
	nextRun        func() time.Time
	activeWatchers func() int
}

func NewStatsHandler(repos *repository.Repositories, nextRun func() time.Time, activeWatchers func() int) *StatsHandler {
	return &StatsHandler{
		repos:          repos,
		nextRun:        nextRun,
		activeWatchers: activeWatchers,
	}
}

// Get aggregates monitoring statistics across all domains
func (h *StatsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "StatsHandler.Get")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		byStatus, err := h.repos.DomainRepository.CountByStatus(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
			return
		}

		byTld, err := h.repos.DomainRepository.CountByTld(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
			return
		}

		activeOnly := true
		_, activeDomains, err := h.repos.DomainRepository.List(ctx, repository.DomainQueryFilters{IsActive: &activeOnly, Limit: 1})
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
			return
		}

		lastCheckCycle, err := h.repos.DomainRepository.LastCheckedAt(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
			return
		}

		todayStart := utils.Now().Truncate(24 * time.Hour)
		checksToday, err := h.repos.CheckLogRepository.CountSince(ctx, todayStart)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
			return
		}

		notificationsToday, err := h.repos.NotificationRepository.CountSuccessfulSince(ctx, todayStart)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
			return
		}

		var totalDomains int64
		statusCounts := make(map[string]int64, len(byStatus))
		for status, count := range byStatus {
			totalDomains += count
			statusCounts[status.String()] = count
		}

		var nextCheckCycle *time.Time
		if next := h.nextRun(); !next.IsZero() {
			nextCheckCycle = &next
		}

		c.JSON(http.StatusOK, StatsResponse{
			TotalDomains:       totalDomains,
			ActiveDomains:      activeDomains,
			ByStatus:           statusCounts,
			ByTld:              byTld,
			LastCheckCycle:     lastCheckCycle,
			NextCheckCycle:     nextCheckCycle,
			ChecksToday:        checksToday,
			NotificationsToday: notificationsToday,
			ActiveWatchers:     h.activeWatchers(),
		})
	}
}
