package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clicktally/clicktally/internal/app/model"
	"github.com/clicktally/clicktally/internal/app/repository"
)

type mockClickRepository struct {
	createFn    func(ctx context.Context, event *model.ClickEvent) error
	listFn      func(ctx context.Context, filter repository.ClickFilter, limit, offset int) ([]model.ClickEvent, error)
	listAllFn   func(ctx context.Context, filter repository.ClickFilter) ([]model.ClickEvent, error)
	countFn     func(ctx context.Context, filter repository.ClickFilter) (int64, error)
	aggregateFn func(ctx context.Context) ([]repository.PlatformAggregate, error)
	deleteAllFn func(ctx context.Context) (int64, error)
}

func (m *mockClickRepository) Create(ctx context.Context, event *model.ClickEvent) error {
	if m.createFn != nil {
		return m.createFn(ctx, event)
	}
	return nil
}

func (m *mockClickRepository) List(ctx context.Context, filter repository.ClickFilter, limit, offset int) ([]model.ClickEvent, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter, limit, offset)
	}
	return nil, nil
}

func (m *mockClickRepository) ListAll(ctx context.Context, filter repository.ClickFilter) ([]model.ClickEvent, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockClickRepository) Count(ctx context.Context, filter repository.ClickFilter) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, filter)
	}
	return 0, nil
}

func (m *mockClickRepository) AggregateByPlatform(ctx context.Context) ([]repository.PlatformAggregate, error) {
	if m.aggregateFn != nil {
		return m.aggregateFn(ctx)
	}
	return nil, nil
}

func (m *mockClickRepository) DeleteAll(ctx context.Context) (int64, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx)
	}
	return 0, nil
}

func TestClickService_Record(t *testing.T) {
	repo := &mockClickRepository{
		createFn: func(ctx context.Context, event *model.ClickEvent) error {
			if event.PlatformID != "kwai" || event.PlatformName != "Kwai" {
				t.Fatalf("unexpected event: %+v", event)
			}
			event.ID = 42
			return nil
		},
	}

	svc := NewClickService(repo)
	id, err := svc.Record(context.Background(), RecordClickInput{
		PlatformID:   "kwai",
		PlatformName: "Kwai",
		PlatformURL:  "https://kwai.example/ref",
		IPAddress:    "203.0.113.9",
		UserAgent:    "Mozilla/5.0",
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
}

func TestClickService_RecordRejectsMissingFields(t *testing.T) {
	created := false
	repo := &mockClickRepository{
		createFn: func(ctx context.Context, event *model.ClickEvent) error {
			created = true
			return nil
		},
	}
	svc := NewClickService(repo)

	inputs := []RecordClickInput{
		{PlatformName: "Kwai", PlatformURL: "https://kwai.example"},
		{PlatformID: "kwai", PlatformURL: "https://kwai.example"},
		{PlatformID: "kwai", PlatformName: "Kwai"},
		{PlatformID: "  ", PlatformName: "Kwai", PlatformURL: "https://kwai.example"},
		{},
	}
	for _, input := range inputs {
		if _, err := svc.Record(context.Background(), input); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("input %+v: expected ErrMissingFields, got %v", input, err)
		}
	}
	if created {
		t.Fatal("invalid click must not reach the repository")
	}
}

func TestClickService_HistoryPagination(t *testing.T) {
	const total = 120

	repo := &mockClickRepository{
		countFn: func(ctx context.Context, filter repository.ClickFilter) (int64, error) {
			return total, nil
		},
		listFn: func(ctx context.Context, filter repository.ClickFilter, limit, offset int) ([]model.ClickEvent, error) {
			n := total - offset
			if n > limit {
				n = limit
			}
			if n < 0 {
				n = 0
			}
			records := make([]model.ClickEvent, n)
			for i := range records {
				records[i] = model.ClickEvent{ID: int64(total - offset - i), Timestamp: time.Now()}
			}
			return records, nil
		},
	}
	svc := NewClickService(repo)
	ctx := context.Background()

	page1, err := svc.History(ctx, repository.ClickFilter{}, 1, 50)
	if err != nil {
		t.Fatalf("History page 1 returned error: %v", err)
	}
	if len(page1.Records) != 50 {
		t.Fatalf("page 1: expected 50 records, got %d", len(page1.Records))
	}
	p := page1.Pagination
	if p.CurrentPage != 1 || p.TotalPages != 3 || p.TotalRecords != total || p.PerPage != 50 {
		t.Fatalf("page 1: unexpected pagination %+v", p)
	}
	if p.HasPrev || !p.HasNext {
		t.Fatalf("page 1: expected has_prev=false has_next=true, got %+v", p)
	}

	page3, err := svc.History(ctx, repository.ClickFilter{}, 3, 50)
	if err != nil {
		t.Fatalf("History page 3 returned error: %v", err)
	}
	if len(page3.Records) != 20 {
		t.Fatalf("page 3: expected 20 records, got %d", len(page3.Records))
	}
	if page3.Pagination.HasNext {
		t.Fatal("page 3: expected has_next=false")
	}
	if !page3.Pagination.HasPrev {
		t.Fatal("page 3: expected has_prev=true")
	}
}

func TestClickService_HistoryNormalizesPageAndLimit(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockClickRepository{
		countFn: func(ctx context.Context, filter repository.ClickFilter) (int64, error) {
			return 10, nil
		},
		listFn: func(ctx context.Context, filter repository.ClickFilter, limit, offset int) ([]model.ClickEvent, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	svc := NewClickService(repo)

	history, err := svc.History(context.Background(), repository.ClickFilter{}, -3, 0)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if gotLimit != DefaultPageSize || gotOffset != 0 {
		t.Fatalf("expected normalized limit=%d offset=0, got limit=%d offset=%d", DefaultPageSize, gotLimit, gotOffset)
	}
	if history.Pagination.CurrentPage != 1 || history.Pagination.PerPage != DefaultPageSize {
		t.Fatalf("unexpected pagination %+v", history.Pagination)
	}
	if history.Records == nil {
		t.Fatal("records must serialize as an empty array, not null")
	}
}

func TestClickService_HistoryRejectsBadFilter(t *testing.T) {
	svc := NewClickService(&mockClickRepository{})
	_, err := svc.History(context.Background(), repository.ClickFilter{StartDate: "not-a-date"}, 1, 50)
	if !errors.Is(err, repository.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestClickService_DeleteAll(t *testing.T) {
	repo := &mockClickRepository{
		deleteAllFn: func(ctx context.Context) (int64, error) {
			return 7, nil
		},
	}
	svc := NewClickService(repo)

	deleted, err := svc.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("DeleteAll returned error: %v", err)
	}
	if deleted != 7 {
		t.Fatalf("expected 7 deleted, got %d", deleted)
	}
}
