package repository

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"gorm.io/gorm"

	"github.com/expirehq/domain-monitor/internal/models"
	"github.com/expirehq/domain-monitor/internal/tracing"
	"github.com/expirehq/domain-monitor/internal/utils"
)

type CheckLogRepository interface {
	Create(ctx context.Context, checkLog *models.CheckLog) error
	RecentByDomain(ctx context.Context, domainID uint64, limit int) ([]models.CheckLog, error)
	MarkLatestNotificationSent(ctx context.Context, domainID uint64) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CleanupOldLogs(ctx context.Context) error
}

type checkLogRepository struct {
	db *gorm.DB
}

func NewCheckLogRepository(db *gorm.DB) CheckLogRepository {
	return &checkLogRepository{
		db: db,
	}
}

func (r *checkLogRepository) Create(ctx context.Context, checkLog *models.CheckLog) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CheckLogRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domainId", checkLog.DomainID)

	if checkLog.CheckedAt.IsZero() {
		checkLog.CheckedAt = utils.Now()
	}

	err := r.db.WithContext(ctx).Create(checkLog).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *checkLogRepository) RecentByDomain(ctx context.Context, domainID uint64, limit int) ([]models.CheckLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CheckLogRepository.RecentByDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domainId", domainID)

	var checkLogs []models.CheckLog
	err := r.db.WithContext(ctx).
		Where("domain_id = ?", domainID).
		Order("checked_at desc").
		Limit(limit).
		Find(&checkLogs).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	span.LogFields(tracingLog.Int("response.count", len(checkLogs)))
	return checkLogs, nil
}

func (r *checkLogRepository) MarkLatestNotificationSent(ctx context.Context, domainID uint64) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CheckLogRepository.MarkLatestNotificationSent")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domainId", domainID)

	err := r.db.WithContext(ctx).
		Model(&models.CheckLog{}).
		Where("id = (?)", r.db.Model(&models.CheckLog{}).
			Select("id").
			Where("domain_id = ?", domainID).
			Order("checked_at desc").
			Limit(1)).
		UpdateColumn("notification_sent", true).
		Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *checkLogRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CheckLogRepository.CountSince")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CheckLog{}).
		Where("checked_at >= ?", since).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return 0, err
	}
	return count, nil
}

func (r *checkLogRepository) CleanupOldLogs(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CheckLogRepository.CleanupOldLogs")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Exec("SELECT cleanup_old_logs()").Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}
