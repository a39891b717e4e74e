package fitimport

import (
	"context"
	"fmt"
	"io"

	"github.com/mvdwal/sportlog/internal/activities"
	"github.com/mvdwal/sportlog/internal/telemetry/tracing"

	"github.com/tormoder/fit"
)

// Result holds everything decoded from a single FIT upload.
type Result struct {
	Summary        activities.Summary
	Samples        []activities.Sample
	DroppedRecords int
}

// Decode reads a FIT file and converts the first session plus all
// record messages into canonical form. Files without sessions or
// records yield an empty Result, not an error.
func Decode(ctx context.Context, activityID string, r io.Reader) (res *Result, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "fitimport.decode")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	fitFile, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode fit file: %w", err)
	}

	activityFile, err := fitFile.Activity()
	if err != nil {
		return nil, fmt.Errorf("get fit activity: %w", err)
	}

	result := &Result{}

	if len(activityFile.Sessions) > 0 {
		// only the first session holds the file totals
		session := activityFile.Sessions[0]
		result.Summary = BuildSummary(activityID, SessionData{
			Sport:          session.Sport.String(),
			TotalCalories:  session.TotalCalories,
			MaxSpeed:       session.MaxSpeed,
			TotalAscent:    session.TotalAscent,
			TotalTimerTime: session.TotalTimerTime,
		})
	} else {
		result.Summary = DefaultSummary(activityID)
	}

	records := make([]RecordData, 0, len(activityFile.Records))
	for _, record := range activityFile.Records {
		var lat, lon int32
		if !record.PositionLat.Invalid() {
			lat = record.PositionLat.Semicircles()
		}
		if !record.PositionLong.Invalid() {
			lon = record.PositionLong.Semicircles()
		}
		records = append(records, RecordData{
			Timestamp:      record.Timestamp,
			LatSemicircles: lat,
			LonSemicircles: lon,
			Distance:       record.Distance,
			Speed:          record.Speed,
			Altitude:       record.Altitude,
			HeartRate:      record.HeartRate,
			Cadence:        record.Cadence,
			Power:          record.Power,
		})
	}

	result.Samples, result.DroppedRecords = BuildSamples(activityID, records)

	return result, nil
}
