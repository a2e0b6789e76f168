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

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	RecentByDomain(ctx context.Context, domainID uint64, limit int) ([]models.Notification, error)
	CountSuccessfulSince(ctx context.Context, since time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{
		db: db,
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotificationRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domainId", notification.DomainID)

	if notification.SentAt.IsZero() {
		notification.SentAt = utils.Now()
	}

	err := r.db.WithContext(ctx).Create(notification).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *notificationRepository) RecentByDomain(ctx context.Context, domainID uint64, limit int) ([]models.Notification, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotificationRepository.RecentByDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domainId", domainID)

	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("domain_id = ?", domainID).
		Order("sent_at desc").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	span.LogFields(tracingLog.Int("response.count", len(notifications)))
	return notifications, nil
}

func (r *notificationRepository) CountSuccessfulSince(ctx context.Context, since time.Time) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotificationRepository.CountSuccessfulSince")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("success = ? AND sent_at >= ?", true, since).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return 0, err
	}
	return count, nil
}
