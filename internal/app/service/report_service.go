package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/clicktally/clicktally/internal/app/repository"
)

// DefaultUnitValue is the value credited per click. Kept configurable; the
// current deployments pay a flat 1.00 per click regardless of platform.
const DefaultUnitValue = 1.00

// csvTimeLayout renders timestamps the way the admin panel displays them,
// in the server's local time.
const csvTimeLayout = "02/01/2006 15:04:05"

var csvHeader = []string{"ID", "Platform", "Name", "URL", "Date/Time", "IP", "User-Agent"}

// PlatformStats is the aggregate for one platform, including its click value.
type PlatformStats struct {
	PlatformID   string  `json:"platform_id"`
	PlatformName string  `json:"platform_name"`
	Clicks       int64   `json:"clicks"`
	Value        float64 `json:"value"`
}

// Stats is the full per-platform breakdown, ordered by clicks descending.
type Stats struct {
	TotalClicks int64           `json:"total_clicks"`
	TotalValue  float64         `json:"total_value"`
	Platforms   []PlatformStats `json:"platforms"`
}

// ReportService produces aggregated stats and the CSV history export.
type ReportService interface {
	Stats(ctx context.Context) (*Stats, error)
	WriteCSV(ctx context.Context, filter repository.ClickFilter, w io.Writer) (int, error)
}

type reportService struct {
	repo      repository.ClickEventRepository
	unitValue float64
}

// NewReportService returns a ReportService that values every click at
// unitValue. Pass DefaultUnitValue unless configured otherwise.
func NewReportService(repo repository.ClickEventRepository, unitValue float64) ReportService {
	return &reportService{repo: repo, unitValue: unitValue}
}

func (s *reportService) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.repo.AggregateByPlatform(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}

	stats := &Stats{Platforms: make([]PlatformStats, 0, len(rows))}
	for _, row := range rows {
		stats.TotalClicks += row.Clicks
		stats.Platforms = append(stats.Platforms, PlatformStats{
			PlatformID:   row.PlatformID,
			PlatformName: row.PlatformName,
			Clicks:       row.Clicks,
			Value:        float64(row.Clicks) * s.unitValue,
		})
	}
	stats.TotalValue = float64(stats.TotalClicks) * s.unitValue

	return stats, nil
}

// WriteCSV renders every matching event, newest first, as RFC 4180 CSV with a
// UTF-8 byte-order mark so spreadsheet tools pick the right encoding. Returns
// the number of data rows written.
func (s *reportService) WriteCSV(ctx context.Context, filter repository.ClickFilter, w io.Writer) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	events, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("export clicks: %w", err)
	}

	if _, err := w.Write([]byte("\xEF\xBB\xBF")); err != nil {
		return 0, fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write CSV header: %w", err)
	}

	for _, event := range events {
		record := []string{
			strconv.FormatInt(event.ID, 10),
			event.PlatformID,
			event.PlatformName,
			event.PlatformURL,
			event.Timestamp.Local().Format(csvTimeLayout),
			event.IPAddress,
			event.UserAgent,
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush CSV: %w", err)
	}
	return len(events), nil
}
