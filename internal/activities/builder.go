package activities

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing the date cell. Tracker
// exports are inconsistent here, some carry a time component and some
// use day-first Dutch notation.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006",
	"02/01/2006",
}

// BuildReport describes what happened while building canonical rows
// out of one tabular source.
type BuildReport struct {
	TotalRows    int `json:"totalRows"`
	BuiltRows    int `json:"builtRows"`
	DroppedDates int `json:"droppedDates"`
}

// ParseDate parses a raw date cell against the known layouts.
func ParseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BuildActivities turns mapped raw rows into canonical activity rows.
// Rows with an unparseable date are dropped (counted in the report),
// all other malformed values degrade to their documented defaults.
// The result is sorted ascending by date.
func BuildActivities(rows []RawRow, mapping FieldMapping) ([]Activity, BuildReport) {
	report := BuildReport{TotalRows: len(rows)}

	canonical := ApplyMapping(rows, mapping)
	out := make([]Activity, 0, len(canonical))
	for _, row := range canonical {
		date, ok := ParseDate(row[FieldDate])
		if !ok {
			report.DroppedDates++
			continue
		}

		activityType := strings.TrimSpace(row[FieldActivityType])
		if activityType == "" {
			activityType = UnknownActivityType
		}

		weekStart := date.AddDate(0, 0, -mondayOffset(date))
		activity := Activity{
			Date:             date,
			ActivityType:     activityType,
			Title:            strings.TrimSpace(row[FieldTitle]),
			DistanceKm:       ParseLocaleFloat(row[FieldDistanceKm]),
			CaloriesKcal:     ParseLocaleFloat(row[FieldCaloriesKcal]),
			Steps:            int(ParseLocaleFloat(row[FieldSteps])),
			DurationSeconds:  ParseDurationSeconds(row[FieldDurationRaw]),
			AvgHeartRateBpm:  ParseLocaleFloat(row[FieldAvgHeartRate]),
			MaxHeartRateBpm:  ParseLocaleFloat(row[FieldMaxHeartRate]),
			AvgCadence:       ParseLocaleFloat(row[FieldAvgCadence]),
			MaxCadence:       ParseLocaleFloat(row[FieldMaxCadence]),
			AvgPaceSecPerKm:  ParsePaceSecondsPerUnit(row[FieldAvgPaceRaw]),
			BestPaceSecPerKm: ParsePaceSecondsPerUnit(row[FieldBestPaceRaw]),
			ElevationGainM:   ParseLocaleFloat(row[FieldElevationGainM]),
			ElevationLossM:   ParseLocaleFloat(row[FieldElevationLossM]),
			YearWeek:         YearWeek(date),
			YearMonth:        date.Format("2006-01"),
			WeekStart:        weekStart,
			WeekEnd:          weekStart.AddDate(0, 0, 6),
		}
		out = append(out, activity)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	report.BuiltRows = len(out)
	return out, report
}

// YearWeek renders the Monday-anchored week key, strftime "%Y-%W"
// style: days before the first Monday of the year fall in week 00.
func YearWeek(t time.Time) string {
	yday := t.YearDay() - 1
	week := (yday + 7 - mondayOffset(t)) / 7
	return fmt.Sprintf("%d-%02d", t.Year(), week)
}

// mondayOffset is the number of days since the most recent Monday.
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
