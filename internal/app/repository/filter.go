package repository

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ClickFilter is the one filter shape shared by the count, page and export
// queries so the three cannot drift apart. All fields are optional and
// combine with AND. Dates constrain the calendar-date portion of the event
// timestamp, inclusively on both ends.
type ClickFilter struct {
	PlatformID string
	StartDate  string // YYYY-MM-DD
	EndDate    string // YYYY-MM-DD
}

// Validate checks that any provided date parses as YYYY-MM-DD. Platform is an
// exact-match opaque identifier and needs no validation.
func (f ClickFilter) Validate() error {
	if f.StartDate != "" {
		if _, err := time.Parse(dateLayout, f.StartDate); err != nil {
			return fmt.Errorf("%w: start_date %q is not a valid YYYY-MM-DD date", ErrInvalidFilter, f.StartDate)
		}
	}
	if f.EndDate != "" {
		if _, err := time.Parse(dateLayout, f.EndDate); err != nil {
			return fmt.Errorf("%w: end_date %q is not a valid YYYY-MM-DD date", ErrInvalidFilter, f.EndDate)
		}
	}
	return nil
}

// IsZero reports whether the filter constrains nothing.
func (f ClickFilter) IsZero() bool {
	return f.PlatformID == "" && f.StartDate == "" && f.EndDate == ""
}

// Conditions compiles the filter into parameter-bound SQL fragments. Values
// are never interpolated into the query text; every fragment carries exactly
// one bind placeholder.
func (f ClickFilter) Conditions() (conds []string, args []interface{}) {
	if f.PlatformID != "" {
		conds = append(conds, "platform_id = ?")
		args = append(args, f.PlatformID)
	}
	if f.StartDate != "" {
		conds = append(conds, `"timestamp"::date >= ?::date`)
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conds = append(conds, `"timestamp"::date <= ?::date`)
		args = append(args, f.EndDate)
	}
	return conds, args
}
