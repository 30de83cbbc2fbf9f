package repository

import (
	"context"
	"errors"

	"github.com/clicktally/clicktally/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrInvalidFilter signals a filter whose date fields do not parse.
	ErrInvalidFilter = errors.New("invalid filter")
)

// PlatformAggregate is one row of the per-platform click breakdown.
type PlatformAggregate struct {
	PlatformID   string `json:"platform_id"`
	PlatformName string `json:"platform_name"`
	Clicks       int64  `json:"clicks"`
}

// ClickEventRepository defines the data access contract for click events.
// Writes are synchronous: Create returns only after the row is durable.
type ClickEventRepository interface {
	Create(ctx context.Context, event *model.ClickEvent) error
	List(ctx context.Context, filter ClickFilter, limit, offset int) ([]model.ClickEvent, error)
	ListAll(ctx context.Context, filter ClickFilter) ([]model.ClickEvent, error)
	Count(ctx context.Context, filter ClickFilter) (int64, error)
	AggregateByPlatform(ctx context.Context) ([]PlatformAggregate, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type clickEventRepository struct {
	db *gorm.DB
}

// NewClickEventRepository returns a GORM-backed ClickEventRepository.
func NewClickEventRepository(db *gorm.DB) ClickEventRepository {
	return &clickEventRepository{db: db}
}

func (r *clickEventRepository) Create(ctx context.Context, event *model.ClickEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// apply binds the compiled filter conditions onto a query. Both the count and
// the page/export paths go through here, so they always agree.
func apply(db *gorm.DB, filter ClickFilter) *gorm.DB {
	conds, args := filter.Conditions()
	for i, cond := range conds {
		db = db.Where(cond, args[i])
	}
	return db
}

func (r *clickEventRepository) List(ctx context.Context, filter ClickFilter, limit, offset int) ([]model.ClickEvent, error) {
	var result []model.ClickEvent
	q := apply(r.db.WithContext(ctx).Model(&model.ClickEvent{}), filter)
	if err := q.
		Order(`"timestamp" DESC`).
		Limit(limit).
		Offset(offset).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// ListAll returns every matching event, newest first, with no page bound.
// This backs the CSV export.
func (r *clickEventRepository) ListAll(ctx context.Context, filter ClickFilter) ([]model.ClickEvent, error) {
	var result []model.ClickEvent
	q := apply(r.db.WithContext(ctx).Model(&model.ClickEvent{}), filter)
	if err := q.Order(`"timestamp" DESC`).Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *clickEventRepository) Count(ctx context.Context, filter ClickFilter) (int64, error) {
	var total int64
	q := apply(r.db.WithContext(ctx).Model(&model.ClickEvent{}), filter)
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *clickEventRepository) AggregateByPlatform(ctx context.Context) ([]PlatformAggregate, error) {
	var rows []PlatformAggregate
	if err := r.db.WithContext(ctx).
		Model(&model.ClickEvent{}).
		Select("platform_id, platform_name, COUNT(*) AS clicks").
		Group("platform_id, platform_name").
		Order("clicks DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteAll removes every click event in a single statement, so the wipe is
// atomic: a concurrent reader sees all rows or none.
func (r *clickEventRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.ClickEvent{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
