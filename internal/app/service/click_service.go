package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clicktally/clicktally/internal/app/model"
	"github.com/clicktally/clicktally/internal/app/repository"
)

var (
	// ErrMissingFields signals a click with an empty required field.
	ErrMissingFields = errors.New("platform_id, platform_name and platform_url are required")
)

const (
	// DefaultPageSize is the history page size when the caller supplies none.
	DefaultPageSize = 50
)

// ClickService records inbound clicks and serves the paginated history.
type ClickService interface {
	Record(ctx context.Context, input RecordClickInput) (int64, error)
	History(ctx context.Context, filter repository.ClickFilter, page, limit int) (*HistoryPage, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// RecordClickInput captures one inbound click. IPAddress and UserAgent are
// best-effort request metadata and stored as given.
type RecordClickInput struct {
	PlatformID   string
	PlatformName string
	PlatformURL  string
	IPAddress    string
	UserAgent    string
}

// Pagination describes the position of a history page within the full result.
type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalRecords int64 `json:"total_records"`
	PerPage      int   `json:"per_page"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}

// HistoryPage is one page of click events, newest first.
type HistoryPage struct {
	Records    []model.ClickEvent `json:"records"`
	Pagination Pagination         `json:"pagination"`
}

type clickService struct {
	repo repository.ClickEventRepository
}

// NewClickService returns a service implementation backed by the given repository.
func NewClickService(repo repository.ClickEventRepository) ClickService {
	return &clickService{repo: repo}
}

func (s *clickService) Record(ctx context.Context, input RecordClickInput) (int64, error) {
	if strings.TrimSpace(input.PlatformID) == "" ||
		strings.TrimSpace(input.PlatformName) == "" ||
		strings.TrimSpace(input.PlatformURL) == "" {
		return 0, ErrMissingFields
	}

	event := &model.ClickEvent{
		PlatformID:   input.PlatformID,
		PlatformName: input.PlatformName,
		PlatformURL:  input.PlatformURL,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return 0, fmt.Errorf("record click: %w", err)
	}
	return event.ID, nil
}

// History returns one page of the filtered click log. Out-of-range page and
// limit values are normalized to defaults rather than rejected: they are
// user-tunable query parameters, not structural input.
func (s *clickService) History(ctx context.Context, filter repository.ClickFilter, page, limit int) (*HistoryPage, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	offset := (page - 1) * limit

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count history: %w", err)
	}

	records, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if records == nil {
		records = []model.ClickEvent{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &HistoryPage{
		Records: records,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalRecords: total,
			PerPage:      limit,
			HasNext:      int64(offset+limit) < total,
			HasPrev:      page > 1,
		},
	}, nil
}

func (s *clickService) DeleteAll(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete clicks: %w", err)
	}
	return deleted, nil
}
