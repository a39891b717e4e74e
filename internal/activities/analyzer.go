package activities

import (
	"context"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mvdwal/sportlog/internal/telemetry/tracing"
)

// Analyzer computes the derived tables of the dashboard: per-activity
// overviews for the FIT dataset and period aggregates / KPIs for the
// tabular dataset.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// ActivityOverviews aggregates FIT samples into one row per activity.
// Distance is the max of the cumulative distance field, the average
// heart rate excludes zero readings (sensor dropout, not a true zero),
// and the average speed is derived from the session timer with a
// division-by-zero guard.
func (a *Analyzer) ActivityOverviews(ctx context.Context, samples []Sample, summaries []Summary) []Overview {
	_, span := tracing.GlobalTracer.Start(ctx, "analyzer.activityOverviews")
	defer span.End()
	span.SetAttributes(attribute.Int("samples", len(samples)))

	summaryByID := make(map[string]Summary, len(summaries))
	for _, s := range summaries {
		summaryByID[s.ActivityID] = s
	}

	type acc struct {
		minDate  time.Time
		distance float64
		hrSum    float64
		hrCount  int
		maxHR    float64
	}
	accs := make(map[string]*acc)
	order := make([]string, 0)
	for _, s := range samples {
		ac, ok := accs[s.ActivityID]
		if !ok {
			ac = &acc{}
			accs[s.ActivityID] = ac
			order = append(order, s.ActivityID)
		}
		if ac.minDate.IsZero() || s.Timestamp.Before(ac.minDate) {
			ac.minDate = s.Timestamp
		}
		if s.DistanceKm > ac.distance {
			ac.distance = s.DistanceKm
		}
		if s.HeartRateBpm > 0 {
			ac.hrSum += s.HeartRateBpm
			ac.hrCount++
		}
		if s.HeartRateBpm > ac.maxHR {
			ac.maxHR = s.HeartRateBpm
		}
	}
	// only activities that produced samples make it into the overview,
	// a summary on its own has nothing to report
	sort.Strings(order)

	overviews := make([]Overview, 0, len(order))
	for _, id := range order {
		ac := accs[id]
		summary := summaryByID[id]

		avgHR := 0.0
		if ac.hrCount > 0 {
			avgHR = ac.hrSum / float64(ac.hrCount)
		}
		avgSpeed := 0.0
		if summary.TotalTimerSeconds > 0 {
			avgSpeed = ac.distance / (summary.TotalTimerSeconds / 3600)
		}
		activityType := summary.ActivityType
		if activityType == "" {
			activityType = UnknownActivityType
		}

		overviews = append(overviews, Overview{
			ActivityID:        id,
			Date:              ac.minDate.Format("2006-01-02"),
			ActivityType:      activityType,
			DistanceKm:        round(ac.distance, 2),
			TotalTimerSeconds: summary.TotalTimerSeconds,
			Duration:          FormatDuration(int(summary.TotalTimerSeconds)),
			AvgSpeedKmh:       round(avgSpeed, 1),
			AvgHeartRateBpm:   int(math.Round(avgHR)),
			MaxHeartRateBpm:   int(math.Round(ac.maxHR)),
		})
	}
	return overviews
}

// AggregateByPeriod groups canonical activities per week or month.
// Periods with no matching rows are absent from the output, there are
// no zero-filled gaps. Heart-rate averages exclude zero readings.
func (a *Analyzer) AggregateByPeriod(ctx context.Context, rows []Activity, period Period) []PeriodAggregate {
	_, span := tracing.GlobalTracer.Start(ctx, "analyzer.aggregateByPeriod")
	defer span.End()
	span.SetAttributes(attribute.String("period", string(period)))

	type acc struct {
		count    int
		distance float64
		duration int
		calories float64
		hrSum    float64
		hrCount  int
	}
	accs := make(map[string]*acc)
	for _, row := range rows {
		key := row.YearWeek
		if period == PeriodMonth {
			key = row.YearMonth
		}
		ac, ok := accs[key]
		if !ok {
			ac = &acc{}
			accs[key] = ac
		}
		ac.count++
		ac.distance += row.DistanceKm
		ac.duration += row.DurationSeconds
		ac.calories += row.CaloriesKcal
		if row.AvgHeartRateBpm > 0 {
			ac.hrSum += row.AvgHeartRateBpm
			ac.hrCount++
		}
	}

	periods := make([]string, 0, len(accs))
	for key := range accs {
		periods = append(periods, key)
	}
	sort.Strings(periods)

	aggregates := make([]PeriodAggregate, 0, len(periods))
	for _, key := range periods {
		ac := accs[key]
		avgHR := 0.0
		if ac.hrCount > 0 {
			avgHR = ac.hrSum / float64(ac.hrCount)
		}
		aggregates = append(aggregates, PeriodAggregate{
			Period:               key,
			Activities:           ac.count,
			TotalDistanceKm:      round(ac.distance, 2),
			AvgDistanceKm:        round(ac.distance/float64(ac.count), 2),
			TotalDurationSeconds: ac.duration,
			AvgDurationSeconds:   ac.duration / ac.count,
			TotalCaloriesKcal:    round(ac.calories, 0),
			AvgHeartRateBpm:      round(avgHR, 1),
		})
	}
	return aggregates
}

// OverviewKPI computes the dashboard headline numbers over the
// filtered working set.
func (a *Analyzer) OverviewKPI(ctx context.Context, rows []Activity) KPI {
	_, span := tracing.GlobalTracer.Start(ctx, "analyzer.overviewKPI")
	defer span.End()

	kpi := KPI{Activities: len(rows)}
	for _, row := range rows {
		kpi.TotalDistanceKm += row.DistanceKm
		kpi.TotalDurationSeconds += row.DurationSeconds
		kpi.TotalCaloriesKcal += row.CaloriesKcal
	}
	if len(rows) > 0 {
		kpi.AvgDistanceKm = round(kpi.TotalDistanceKm/float64(len(rows)), 2)
		kpi.AvgDurationSeconds = kpi.TotalDurationSeconds / len(rows)
	}
	kpi.TotalDistanceKm = round(kpi.TotalDistanceKm, 2)
	kpi.TotalCaloriesKcal = round(kpi.TotalCaloriesKcal, 0)
	kpi.TotalDuration = FormatDuration(kpi.TotalDurationSeconds)
	return kpi
}

// ActivityTypes returns the distinct activity types present, sorted.
func (a *Analyzer) ActivityTypes(rows []Activity) []string {
	seen := make(map[string]bool)
	var types []string
	for _, row := range rows {
		if !seen[row.ActivityType] {
			seen[row.ActivityType] = true
			types = append(types, row.ActivityType)
		}
	}
	sort.Strings(types)
	return types
}

func round(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
