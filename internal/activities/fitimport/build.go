package fitimport

import (
	"sort"
	"strings"
	"time"

	"github.com/mvdwal/sportlog/internal/activities"
)

// FIT profile invalid-value sentinels.
const (
	invalidUint8  = 0xFF
	invalidUint16 = 0xFFFF
	invalidUint32 = 0xFFFFFFFF
	invalidSint32 = 0x7FFFFFFF
)

// SessionData carries the raw session message values of one FIT file,
// still in FIT profile units (timer ms, speed mm/s).
type SessionData struct {
	Sport          string
	TotalCalories  uint16
	MaxSpeed       uint16
	TotalAscent    uint16
	TotalTimerTime uint32
}

// RecordData carries the raw values of one record message, still in
// FIT profile units (semicircles, distance cm, speed mm/s, scaled
// altitude).
type RecordData struct {
	Timestamp      time.Time
	LatSemicircles int32
	LonSemicircles int32
	Distance       uint32
	Speed          uint16
	Altitude       uint16
	HeartRate      uint8
	Cadence        uint8
	Power          uint16
}

// BuildSummary converts raw session values into a canonical Summary.
// Invalid sentinel values count as absent and become zero.
func BuildSummary(activityID string, s SessionData) activities.Summary {
	summary := activities.Summary{
		ActivityID:   activityID,
		ActivityType: formatSport(s.Sport),
	}

	if s.TotalCalories != invalidUint16 {
		summary.TotalCalories = float64(s.TotalCalories)
	}
	if s.MaxSpeed != invalidUint16 {
		// speed: mm/s
		summary.MaxSpeedKmh = activities.MsToKmh(float64(s.MaxSpeed) / 1000.0)
	}
	if s.TotalAscent != invalidUint16 {
		summary.ElevationGainM = float64(s.TotalAscent)
	}
	if s.TotalTimerTime != invalidUint32 {
		// timer: ms
		summary.TotalTimerSeconds = float64(s.TotalTimerTime) / 1000.0
	}

	return summary
}

// formatSport turns FIT sport identifiers like "trail_running" into
// display names ("Trail Running"). Absent or invalid sports fall back
// to the unknown type.
func formatSport(sport string) string {
	if sport == "" || sport == "invalid" {
		return activities.UnknownActivityType
	}
	words := strings.Split(sport, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// DefaultSummary is used for FIT files without any session message.
func DefaultSummary(activityID string) activities.Summary {
	return activities.Summary{
		ActivityID:   activityID,
		ActivityType: activities.UnknownActivityType,
	}
}

// BuildSample converts one raw record into a canonical Sample. Records
// without a valid timestamp are rejected.
func BuildSample(activityID string, r RecordData) (activities.Sample, bool) {
	if r.Timestamp.IsZero() {
		return activities.Sample{}, false
	}

	sample := activities.Sample{
		ActivityID: activityID,
		Timestamp:  r.Timestamp,
	}

	if validSemicircles(r.LatSemicircles) && validSemicircles(r.LonSemicircles) {
		lat := activities.SemicirclesToDegrees(r.LatSemicircles)
		lon := activities.SemicirclesToDegrees(r.LonSemicircles)
		if lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 {
			sample.Latitude = &lat
			sample.Longitude = &lon
		}
	}

	if r.Distance != invalidUint32 {
		// distance: cm
		sample.DistanceM = float64(r.Distance) / 100.0
		sample.DistanceKm = activities.MetersToKm(sample.DistanceM)
	}
	if r.Speed != invalidUint16 {
		sample.SpeedKmh = activities.MsToKmh(float64(r.Speed) / 1000.0)
	}
	if r.Altitude != invalidUint16 && r.Altitude != 0 {
		// altitude: scale 5, offset 500
		sample.AltitudeM = float64(r.Altitude)/5.0 - 500.0
	}
	if r.HeartRate != invalidUint8 {
		sample.HeartRateBpm = float64(r.HeartRate)
	}
	if r.Cadence != invalidUint8 {
		sample.Cadence = float64(r.Cadence)
	}
	if r.Power != invalidUint16 {
		sample.PowerWatts = float64(r.Power)
	}

	return sample, true
}

// validSemicircles reports whether a raw position value carries a real
// coordinate. The FIT profile marks absent sint32 positions with
// 0x7FFFFFFF, zero is treated as absent as well.
func validSemicircles(v int32) bool {
	return v != 0 && v != invalidSint32
}

// BuildSamples converts, drops invalid records and sorts ascending by
// timestamp.
func BuildSamples(activityID string, records []RecordData) (samples []activities.Sample, dropped int) {
	for _, r := range records {
		sample, ok := BuildSample(activityID, r)
		if !ok {
			dropped++
			continue
		}
		samples = append(samples, sample)
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
	return samples, dropped
}
