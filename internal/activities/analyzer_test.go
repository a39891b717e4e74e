package activities

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAnalyzer_ActivityOverviews(t *testing.T) {
	analyzer := NewAnalyzer()

	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	samples := []Sample{
		{ActivityID: "run.fit", Timestamp: base, DistanceKm: 0, HeartRateBpm: 140},
		{ActivityID: "run.fit", Timestamp: base.Add(time.Minute), DistanceKm: 0.5, HeartRateBpm: 0}, // dropout
		{ActivityID: "run.fit", Timestamp: base.Add(2 * time.Minute), DistanceKm: 1.0, HeartRateBpm: 160},
	}
	summaries := []Summary{
		{ActivityID: "run.fit", ActivityType: "running", TotalTimerSeconds: 600},
	}

	overviews := analyzer.ActivityOverviews(context.Background(), samples, summaries)
	require.Len(t, overviews, 1)

	overview := overviews[0]
	assert.Equal(t, "run.fit", overview.ActivityID)
	assert.Equal(t, "2024-03-04", overview.Date)
	assert.Equal(t, "running", overview.ActivityType)
	assert.InDelta(t, 1.0, overview.DistanceKm, 0.0001)
	assert.Equal(t, "00:10:00", overview.Duration)
	// zero heart rate readings are excluded from the mean
	assert.Equal(t, 150, overview.AvgHeartRateBpm)
	assert.Equal(t, 160, overview.MaxHeartRateBpm)
	// 1 km in 600s timer time
	assert.InDelta(t, 6.0, overview.AvgSpeedKmh, 0.0001)
}

func TestAnalyzer_ActivityOverviews_NoTimer(t *testing.T) {
	analyzer := NewAnalyzer()

	samples := []Sample{
		{ActivityID: "x.fit", Timestamp: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), DistanceKm: 2},
	}
	overviews := analyzer.ActivityOverviews(context.Background(), samples, nil)
	require.Len(t, overviews, 1)

	// no summary means no timer, average speed stays zero
	assert.Zero(t, overviews[0].AvgSpeedKmh)
	assert.Equal(t, UnknownActivityType, overviews[0].ActivityType)
	assert.Zero(t, overviews[0].AvgHeartRateBpm)
}

func TestAnalyzer_ActivityOverviews_SummaryWithoutSamples(t *testing.T) {
	analyzer := NewAnalyzer()

	// a summary whose activity produced no samples gets no overview row
	overviews := analyzer.ActivityOverviews(context.Background(), nil, []Summary{
		{ActivityID: "empty.fit", ActivityType: "cycling", TotalTimerSeconds: 300},
	})
	assert.Empty(t, overviews)
}

func TestAnalyzer_AggregateByPeriod_Week(t *testing.T) {
	analyzer := NewAnalyzer()
	rows := testActivities(t)

	aggregates := analyzer.AggregateByPeriod(context.Background(), rows, PeriodWeek)
	require.Len(t, aggregates, 2)

	week1 := aggregates[0]
	assert.Equal(t, "2024-10", week1.Period)
	assert.Equal(t, 2, week1.Activities)
	assert.InDelta(t, 42.5, week1.TotalDistanceKm, 0.0001)
	assert.InDelta(t, 21.25, week1.AvgDistanceKm, 0.0001)
	assert.Equal(t, 10800, week1.TotalDurationSeconds)
	assert.Equal(t, 5400, week1.AvgDurationSeconds)
	// the zero heart rate row does not drag the mean down
	assert.InDelta(t, 140.0, week1.AvgHeartRateBpm, 0.0001)

	week2 := aggregates[1]
	assert.Equal(t, "2024-11", week2.Period)
	assert.Equal(t, 1, week2.Activities)
}

func TestAnalyzer_AggregateByPeriod_Month(t *testing.T) {
	analyzer := NewAnalyzer()
	rows := testActivities(t)

	aggregates := analyzer.AggregateByPeriod(context.Background(), rows, PeriodMonth)
	require.Len(t, aggregates, 1)
	assert.Equal(t, "2024-03", aggregates[0].Period)
	assert.Equal(t, 3, aggregates[0].Activities)
}

func TestAnalyzer_AggregateByPeriod_Empty(t *testing.T) {
	analyzer := NewAnalyzer()
	aggregates := analyzer.AggregateByPeriod(context.Background(), nil, PeriodWeek)
	assert.Empty(t, aggregates)
}

func TestAnalyzer_OverviewKPI(t *testing.T) {
	analyzer := NewAnalyzer()
	rows := testActivities(t)

	kpi := analyzer.OverviewKPI(context.Background(), rows)
	assert.Equal(t, 3, kpi.Activities)
	assert.InDelta(t, 47.5, kpi.TotalDistanceKm, 0.0001)
	assert.InDelta(t, 15.83, kpi.AvgDistanceKm, 0.0001)
	assert.Equal(t, 12600, kpi.TotalDurationSeconds)
	assert.Equal(t, "03:30:00", kpi.TotalDuration)
	assert.Equal(t, 4200, kpi.AvgDurationSeconds)
}

func TestAnalyzer_OverviewKPI_Empty(t *testing.T) {
	analyzer := NewAnalyzer()
	kpi := analyzer.OverviewKPI(context.Background(), nil)
	assert.Zero(t, kpi.Activities)
	assert.Equal(t, "00:00:00", kpi.TotalDuration)
}

func TestAnalyzer_ActivityTypes(t *testing.T) {
	analyzer := NewAnalyzer()
	types := analyzer.ActivityTypes(testActivities(t))
	assert.Equal(t, []string{"Fietsen", "Hardlopen"}, types)
}

func testActivities(t *testing.T) []Activity {
	t.Helper()
	gofakeit.Seed(42)

	mondayWeek10 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := []Activity{
		{
			Date:            mondayWeek10,
			ActivityType:    "Hardlopen",
			Title:           gofakeit.City(),
			DistanceKm:      12.5,
			DurationSeconds: 3600,
			AvgHeartRateBpm: 140,
			CaloriesKcal:    800,
		},
		{
			Date:            mondayWeek10.AddDate(0, 0, 1),
			ActivityType:    "Fietsen",
			Title:           gofakeit.City(),
			DistanceKm:      30,
			DurationSeconds: 7200,
			AvgHeartRateBpm: 0, // no heart rate data
			CaloriesKcal:    950,
		},
		{
			Date:            mondayWeek10.AddDate(0, 0, 8),
			ActivityType:    "Hardlopen",
			Title:           gofakeit.City(),
			DistanceKm:      5,
			DurationSeconds: 1800,
			AvgHeartRateBpm: 150,
			CaloriesKcal:    400,
		},
	}
	for i := range rows {
		rows[i].YearWeek = YearWeek(rows[i].Date)
		rows[i].YearMonth = rows[i].Date.Format("2006-01")
	}
	return rows
}
