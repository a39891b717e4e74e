package activities

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSV export of the canonical datasets and derived tables. Column
// orders match the tables shown in the dashboard.

func WriteActivitiesCSV(w io.Writer, rows []Activity) error {
	cw := csv.NewWriter(w)
	header := []string{
		"date", "activity_type", "title", "distance_km", "duration_seconds",
		"calories_kcal", "steps", "avg_heart_rate_bpm", "max_heart_rate_bpm",
		"avg_cadence", "max_cadence", "avg_pace_sec_per_km", "best_pace_sec_per_km",
		"total_elevation_gain_m", "total_elevation_loss_m", "year_week", "year_month",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Date.Format("2006-01-02 15:04:05"),
			row.ActivityType,
			row.Title,
			formatFloat(row.DistanceKm),
			strconv.Itoa(row.DurationSeconds),
			formatFloat(row.CaloriesKcal),
			strconv.Itoa(row.Steps),
			formatFloat(row.AvgHeartRateBpm),
			formatFloat(row.MaxHeartRateBpm),
			formatFloat(row.AvgCadence),
			formatFloat(row.MaxCadence),
			strconv.Itoa(row.AvgPaceSecPerKm),
			strconv.Itoa(row.BestPaceSecPerKm),
			formatFloat(row.ElevationGainM),
			formatFloat(row.ElevationLossM),
			row.YearWeek,
			row.YearMonth,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteSamplesCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	header := []string{
		"activity_id", "timestamp", "latitude", "longitude", "distance_m",
		"distance_km", "heart_rate_bpm", "cadence", "speed_kmh", "altitude_m",
		"power_watts",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		record := []string{
			s.ActivityID,
			s.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			formatFloatPtr(s.Latitude),
			formatFloatPtr(s.Longitude),
			formatFloat(s.DistanceM),
			formatFloat(s.DistanceKm),
			formatFloat(s.HeartRateBpm),
			formatFloat(s.Cadence),
			formatFloat(s.SpeedKmh),
			formatFloat(s.AltitudeM),
			formatFloat(s.PowerWatts),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteOverviewsCSV(w io.Writer, overviews []Overview) error {
	cw := csv.NewWriter(w)
	header := []string{
		"activity_id", "date", "activity_type", "distance_km", "duration",
		"avg_speed_kmh", "avg_heart_rate_bpm", "max_heart_rate_bpm",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, o := range overviews {
		record := []string{
			o.ActivityID,
			o.Date,
			o.ActivityType,
			formatFloat(o.DistanceKm),
			o.Duration,
			formatFloat(o.AvgSpeedKmh),
			strconv.Itoa(o.AvgHeartRateBpm),
			strconv.Itoa(o.MaxHeartRateBpm),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WritePeriodAggregatesCSV(w io.Writer, aggregates []PeriodAggregate) error {
	cw := csv.NewWriter(w)
	header := []string{
		"period", "activities", "total_distance_km", "avg_distance_km",
		"total_duration", "avg_duration", "total_calories_kcal", "avg_heart_rate_bpm",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, agg := range aggregates {
		record := []string{
			agg.Period,
			strconv.Itoa(agg.Activities),
			formatFloat(agg.TotalDistanceKm),
			formatFloat(agg.AvgDistanceKm),
			FormatDuration(agg.TotalDurationSeconds),
			FormatDuration(agg.AvgDurationSeconds),
			formatFloat(agg.TotalCaloriesKcal),
			formatFloat(agg.AvgHeartRateBpm),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
