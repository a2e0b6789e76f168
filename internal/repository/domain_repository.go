package repository

import (
	"context"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"gorm.io/gorm"

	"github.com/expirehq/domain-monitor/internal/enum"
	"github.com/expirehq/domain-monitor/internal/models"
	"github.com/expirehq/domain-monitor/internal/tracing"
	"github.com/expirehq/domain-monitor/internal/utils"
)

// DomainQueryFilters narrows List results. Nil fields are ignored.
type DomainQueryFilters struct {
	Status    *enum.DomainStatus
	Tld       *string
	IsActive  *bool
	Search    string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

type DomainRepository interface {
	Create(ctx context.Context, domain *models.Domain) error
	GetByID(ctx context.Context, id uint64) (*models.Domain, error)
	GetByName(ctx context.Context, domain string) (*models.Domain, error)
	GetActiveDomains(ctx context.Context) ([]models.Domain, error)
	List(ctx context.Context, filters DomainQueryFilters) ([]models.Domain, int64, error)
	Update(ctx context.Context, domain *models.Domain) error
	SetActive(ctx context.Context, id uint64, active bool) error
	Delete(ctx context.Context, id uint64) error
	CountByStatus(ctx context.Context) (map[enum.DomainStatus]int64, error)
	CountByTld(ctx context.Context) (map[string]int64, error)
	LastCheckedAt(ctx context.Context) (*time.Time, error)
}

type domainRepository struct {
	db *gorm.DB
}

func NewDomainRepository(db *gorm.DB) DomainRepository {
	return &domainRepository{
		db: db,
	}
}

func (r *domainRepository) Create(ctx context.Context, domain *models.Domain) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domain", domain.Domain)

	now := utils.Now()
	domain.CreatedAt = now
	domain.UpdatedAt = now

	err := r.db.WithContext(ctx).Create(domain).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *domainRepository) GetByID(ctx context.Context, id uint64) (*models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domainId", id)

	var domain models.Domain
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &domain, nil
}

func (r *domainRepository) GetByName(ctx context.Context, domain string) (*models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetByName")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domain", domain)

	var record models.Domain
	err := r.db.WithContext(ctx).
		Where("domain = ?", domain).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &record, nil
}

func (r *domainRepository) GetActiveDomains(ctx context.Context) ([]models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetActiveDomains")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var domains []models.Domain
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id asc").
		Find(&domains).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	span.LogFields(tracingLog.Int("response.count", len(domains)))
	return domains, nil
}

func (r *domainRepository) List(ctx context.Context, filters DomainQueryFilters) ([]models.Domain, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query := r.db.WithContext(ctx).Model(&models.Domain{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Tld != nil {
		query = query.Where("tld = ?", strings.ToLower(*filters.Tld))
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.Search != "" {
		query = query.Where("domain LIKE ?", "%"+strings.ToLower(filters.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var domains []models.Domain
	if err := query.Order(orderClause(filters)).Find(&domains).Error; err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, 0, err
	}

	span.LogFields(tracingLog.Int("response.count", len(domains)))
	return domains, total, nil
}

// orderClause whitelists the sortable columns, everything else falls back
// to created_at.
func orderClause(filters DomainQueryFilters) string {
	column := "created_at"
	switch filters.SortBy {
	case "domain":
		column = "domain"
	case "last_checked":
		column = "last_checked"
	}
	direction := "desc"
	if strings.EqualFold(filters.SortOrder, "asc") {
		direction = "asc"
	}
	return column + " " + direction
}

func (r *domainRepository) Update(ctx context.Context, domain *models.Domain) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domainId", domain.ID)

	domain.UpdatedAt = utils.Now()

	err := r.db.WithContext(ctx).Save(domain).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *domainRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.SetActive")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domainId", id)

	err := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active).
		UpdateColumn("updated_at", utils.Now()).
		Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *domainRepository) Delete(ctx context.Context, id uint64) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domainId", id)

	err := r.db.WithContext(ctx).
		Delete(&models.Domain{}, id).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *domainRepository) CountByStatus(ctx context.Context) (map[enum.DomainStatus]int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.CountByStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var rows []struct {
		Status enum.DomainStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	counts := make(map[enum.DomainStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *domainRepository) CountByTld(ctx context.Context) (map[string]int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.CountByTld")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var rows []struct {
		Tld   string
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Select("tld, count(*) as count").
		Group("tld").
		Scan(&rows).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Tld] = row.Count
	}
	return counts, nil
}

func (r *domainRepository) LastCheckedAt(ctx context.Context) (*time.Time, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.LastCheckedAt")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var row struct {
		LastChecked *time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Select("max(last_checked) as last_checked").
		Scan(&row).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}
	return row.LastChecked, nil
}
