package fitimport

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mvdwal/sportlog/internal/activities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSummary(t *testing.T) {
	summary := BuildSummary("run.fit", SessionData{
		Sport:          "trail_running",
		TotalCalories:  512,
		MaxSpeed:       3000, // 3 m/s
		TotalAscent:    120,
		TotalTimerTime: 3_723_000, // ms
	})

	assert.Equal(t, "run.fit", summary.ActivityID)
	assert.Equal(t, "Trail Running", summary.ActivityType)
	assert.Equal(t, float64(512), summary.TotalCalories)
	assert.InDelta(t, 10.8, summary.MaxSpeedKmh, 0.0001)
	assert.Equal(t, float64(120), summary.ElevationGainM)
	assert.Equal(t, float64(3723), summary.TotalTimerSeconds)
}

func TestBuildSummary_InvalidSentinels(t *testing.T) {
	summary := BuildSummary("ride.fit", SessionData{
		Sport:          "",
		TotalCalories:  invalidUint16,
		MaxSpeed:       invalidUint16,
		TotalAscent:    invalidUint16,
		TotalTimerTime: invalidUint32,
	})

	assert.Equal(t, activities.UnknownActivityType, summary.ActivityType)
	assert.Zero(t, summary.TotalCalories)
	assert.Zero(t, summary.MaxSpeedKmh)
	assert.Zero(t, summary.ElevationGainM)
	assert.Zero(t, summary.TotalTimerSeconds)
}

func TestDefaultSummary(t *testing.T) {
	summary := DefaultSummary("empty.fit")
	assert.Equal(t, "empty.fit", summary.ActivityID)
	assert.Equal(t, activities.UnknownActivityType, summary.ActivityType)
}

func TestBuildSample(t *testing.T) {
	ts := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	sample, ok := BuildSample("run.fit", RecordData{
		Timestamp:      ts,
		LatSemicircles: 1 << 30, // 90 degrees
		LonSemicircles: 1 << 29, // 45 degrees
		Distance:       123_456, // cm
		Speed:          2500,    // mm/s
		Altitude:       2600,    // (2600/5)-500 = 20 m
		HeartRate:      140,
		Cadence:        85,
		Power:          210,
	})
	require.True(t, ok)

	assert.Equal(t, ts, sample.Timestamp)
	require.NotNil(t, sample.Latitude)
	require.NotNil(t, sample.Longitude)
	assert.InDelta(t, 90.0, *sample.Latitude, 0.0001)
	assert.InDelta(t, 45.0, *sample.Longitude, 0.0001)
	assert.InDelta(t, 1234.56, sample.DistanceM, 0.0001)
	assert.InDelta(t, 1.23456, sample.DistanceKm, 0.0001)
	assert.InDelta(t, 9.0, sample.SpeedKmh, 0.0001)
	assert.InDelta(t, 20.0, sample.AltitudeM, 0.0001)
	assert.Equal(t, float64(140), sample.HeartRateBpm)
	assert.Equal(t, float64(85), sample.Cadence)
	assert.Equal(t, float64(210), sample.PowerWatts)
}

func TestBuildSample_MissingTimestamp(t *testing.T) {
	_, ok := BuildSample("run.fit", RecordData{
		HeartRate: 140,
	})
	assert.False(t, ok)
}

func TestBuildSample_InvalidSentinels(t *testing.T) {
	ts := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	sample, ok := BuildSample("run.fit", RecordData{
		Timestamp: ts,
		Distance:  invalidUint32,
		Speed:     invalidUint16,
		Altitude:  invalidUint16,
		HeartRate: invalidUint8,
		Cadence:   invalidUint8,
		Power:     invalidUint16,
	})
	require.True(t, ok)

	assert.Nil(t, sample.Latitude)
	assert.Nil(t, sample.Longitude)
	assert.Zero(t, sample.DistanceM)
	assert.Zero(t, sample.SpeedKmh)
	assert.Zero(t, sample.AltitudeM)
	assert.Zero(t, sample.HeartRateBpm)
	assert.Zero(t, sample.Cadence)
	assert.Zero(t, sample.PowerWatts)
}

func TestBuildSample_PositionSentinel(t *testing.T) {
	ts := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	// a sentinel longitude converts to roughly 180 degrees, which is
	// inside the valid range, so the bounds check alone cannot catch it
	sample, ok := BuildSample("run.fit", RecordData{
		Timestamp:      ts,
		LatSemicircles: 1 << 29, // 45 degrees
		LonSemicircles: invalidSint32,
	})
	require.True(t, ok)
	assert.Nil(t, sample.Latitude)
	assert.Nil(t, sample.Longitude)

	sample, ok = BuildSample("run.fit", RecordData{
		Timestamp:      ts,
		LatSemicircles: invalidSint32,
		LonSemicircles: 1 << 29,
	})
	require.True(t, ok)
	assert.Nil(t, sample.Latitude)
	assert.Nil(t, sample.Longitude)
}

func TestBuildSamples_SortsAndDrops(t *testing.T) {
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	samples, dropped := BuildSamples("run.fit", []RecordData{
		{Timestamp: base.Add(2 * time.Second), HeartRate: 142},
		{HeartRate: 99}, // no timestamp, dropped
		{Timestamp: base, HeartRate: 140},
		{Timestamp: base.Add(time.Second), HeartRate: 141},
	})

	assert.Equal(t, 1, dropped)
	require.Len(t, samples, 3)
	assert.Equal(t, float64(140), samples[0].HeartRateBpm)
	assert.Equal(t, float64(141), samples[1].HeartRateBpm)
	assert.Equal(t, float64(142), samples[2].HeartRateBpm)
}

func TestDecode_GarbageInput(t *testing.T) {
	_, err := Decode(context.Background(), "bogus.fit", strings.NewReader("this is not a fit file"))
	require.Error(t, err)
}
