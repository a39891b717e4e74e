package activities

import (
	"errors"
	"time"
)

// ErrInvalidDateRange signals a from/to filter where from lies after
// to. The working set is empty in that case; callers surface this as a
// user warning, not as a failure.
var ErrInvalidDateRange = errors.New("invalid date range: start after end")

// AllActivityTypes is the sentinel selection that bypasses activity
// type filtering ("Alle" in the Dutch exports, "All" accepted too).
var AllActivityTypes = map[string]bool{
	"Alle": true,
	"All":  true,
}

// FilterParams describes the working subset of the canonical dataset.
// Zero values mean "no constraint".
type FilterParams struct {
	From  *time.Time `json:"from,omitempty"`
	To    *time.Time `json:"to,omitempty"`
	Types []string   `json:"types,omitempty"`
}

// FilterByDateRange keeps rows with start <= date <= end. Comparison is
// on calendar dates, the time component is ignored. A start after end
// yields an empty set together with ErrInvalidDateRange.
func FilterByDateRange(rows []Activity, start, end time.Time) ([]Activity, error) {
	startDay := truncateToDay(start)
	endDay := truncateToDay(end)
	if startDay.After(endDay) {
		return nil, ErrInvalidDateRange
	}

	out := make([]Activity, 0, len(rows))
	for _, row := range rows {
		day := truncateToDay(row.Date)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// FilterByActivityType keeps rows whose type is in the selection. An
// empty selection or one containing the "Alle"/"All" sentinel bypasses
// filtering entirely.
func FilterByActivityType(rows []Activity, selected []string) []Activity {
	if len(selected) == 0 {
		return rows
	}
	wanted := make(map[string]bool, len(selected))
	for _, t := range selected {
		if AllActivityTypes[t] {
			return rows
		}
		wanted[t] = true
	}

	out := make([]Activity, 0, len(rows))
	for _, row := range rows {
		if wanted[row.ActivityType] {
			out = append(out, row)
		}
	}
	return out
}

// Apply runs the configured filters over the dataset and reports an
// invalid date range through the error without ever failing hard.
func (p FilterParams) Apply(rows []Activity) ([]Activity, error) {
	var rangeErr error
	if p.From != nil && p.To != nil {
		rows, rangeErr = FilterByDateRange(rows, *p.From, *p.To)
		if rangeErr != nil {
			return nil, rangeErr
		}
	} else if p.From != nil {
		rows, _ = FilterByDateRange(rows, *p.From, maxDate)
	} else if p.To != nil {
		rows, _ = FilterByDateRange(rows, minDate, *p.To)
	}
	return FilterByActivityType(rows, p.Types), nil
}

var (
	minDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	maxDate = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
