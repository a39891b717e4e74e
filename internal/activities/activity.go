package activities

import "time"

// Activity is one canonical row per recorded activity, as produced from
// a tabular (CSV/XLSX) tracker export after header mapping and unit
// normalization. Rows without a parseable date never make it here.
type Activity struct {
	Date             time.Time `json:"date"`
	ActivityType     string    `json:"activityType"`
	Title            string    `json:"title"`
	DistanceKm       float64   `json:"distanceKm"`
	CaloriesKcal     float64   `json:"caloriesKcal"`
	Steps            int       `json:"steps"`
	DurationSeconds  int       `json:"durationSeconds"`
	AvgHeartRateBpm  float64   `json:"avgHeartRateBpm"`
	MaxHeartRateBpm  float64   `json:"maxHeartRateBpm"`
	AvgCadence       float64   `json:"avgCadence"`
	MaxCadence       float64   `json:"maxCadence"`
	AvgPaceSecPerKm  int       `json:"avgPaceSecPerKm"`
	BestPaceSecPerKm int       `json:"bestPaceSecPerKm"`
	ElevationGainM   float64   `json:"elevationGainM"`
	ElevationLossM   float64   `json:"elevationLossM"`

	// derived period keys
	YearWeek  string    `json:"yearWeek"`
	YearMonth string    `json:"yearMonth"`
	WeekStart time.Time `json:"weekStart"`
	WeekEnd   time.Time `json:"weekEnd"`
}

// Sample is one canonical row per sensor tick within one FIT activity.
// Samples are kept sorted ascending by timestamp; ticks without a valid
// timestamp are dropped at the decode boundary.
type Sample struct {
	ActivityID   string    `json:"activityId"`
	Timestamp    time.Time `json:"timestamp"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	DistanceM    float64   `json:"distanceM"`
	DistanceKm   float64   `json:"distanceKm"`
	HeartRateBpm float64   `json:"heartRateBpm"`
	Cadence      float64   `json:"cadence"`
	SpeedKmh     float64   `json:"speedKmh"`
	AltitudeM    float64   `json:"altitudeM"`
	PowerWatts   float64   `json:"powerWatts"`
}

// Summary holds the session-level totals of one FIT activity. Only the
// first session message of a file is authoritative; any further session
// messages are ignored.
type Summary struct {
	ActivityID        string  `json:"activityId"`
	ActivityType      string  `json:"activityType"`
	TotalCalories     float64 `json:"totalCalories"`
	MaxSpeedKmh       float64 `json:"maxSpeedKmh"`
	ElevationGainM    float64 `json:"elevationGainM"`
	TotalTimerSeconds float64 `json:"totalTimerSeconds"`
}

// Overview is one aggregated row per FIT activity, the source of the
// activities overview table.
type Overview struct {
	ActivityID        string  `json:"activityId"`
	Date              string  `json:"date"`
	ActivityType      string  `json:"activityType"`
	DistanceKm        float64 `json:"distanceKm"`
	TotalTimerSeconds float64 `json:"totalTimerSeconds"`
	Duration          string  `json:"duration"`
	AvgSpeedKmh       float64 `json:"avgSpeedKmh"`
	AvgHeartRateBpm   int     `json:"avgHeartRateBpm"`
	MaxHeartRateBpm   int     `json:"maxHeartRateBpm"`
}

// PeriodAggregate is one row per week or month over canonical activities.
type PeriodAggregate struct {
	Period               string  `json:"period"`
	Activities           int     `json:"activities"`
	TotalDistanceKm      float64 `json:"totalDistanceKm"`
	AvgDistanceKm        float64 `json:"avgDistanceKm"`
	TotalDurationSeconds int     `json:"totalDurationSeconds"`
	AvgDurationSeconds   int     `json:"avgDurationSeconds"`
	TotalCaloriesKcal    float64 `json:"totalCaloriesKcal"`
	AvgHeartRateBpm      float64 `json:"avgHeartRateBpm"`
}

// KPI is the overview block shown above the charts in the dashboard.
type KPI struct {
	Activities           int     `json:"activities"`
	TotalDistanceKm      float64 `json:"totalDistanceKm"`
	AvgDistanceKm        float64 `json:"avgDistanceKm"`
	TotalDurationSeconds int     `json:"totalDurationSeconds"`
	TotalDuration        string  `json:"totalDuration"`
	AvgDurationSeconds   int     `json:"avgDurationSeconds"`
	TotalCaloriesKcal    float64 `json:"totalCaloriesKcal"`
}

// Period selects the aggregation bucket for PeriodAggregate rows.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// UnknownActivityType is the default for rows and sessions that carry
// no sport / activity type information.
const UnknownActivityType = "Onbekend"
