package session

import (
	"testing"
	"time"

	"github.com/mvdwal/sportlog/internal/activities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ReplaceDataset(t *testing.T) {
	store := NewStore(0)
	assert.Nil(t, store.Dataset())

	first := &Snapshot{SourceName: "activities.csv"}
	store.ReplaceDataset(first)
	assert.Same(t, first, store.Dataset())

	// a new upload replaces the previous dataset wholesale
	second := &Snapshot{SourceName: "activities-v2.csv"}
	store.ReplaceDataset(second)
	assert.Same(t, second, store.Dataset())
}

func TestStore_ReplaceFit(t *testing.T) {
	store := NewStore(0)
	assert.Nil(t, store.Fit())

	fitSnapshot := &FitSnapshot{
		Files: 2,
		Summaries: []activities.Summary{
			{ActivityID: "morning.fit", ActivityType: "running"},
			{ActivityID: "evening.fit", ActivityType: "cycling"},
		},
	}
	store.ReplaceFit(fitSnapshot)
	assert.Same(t, fitSnapshot, store.Fit())

	store.Clear()
	assert.Nil(t, store.Fit())
	assert.Nil(t, store.Dataset())
}

func TestFingerprint(t *testing.T) {
	content := []byte("Datum,Afstand\n2024-01-01,5")

	fp1 := Fingerprint(content, nil)
	fp2 := Fingerprint(content, nil)
	assert.Equal(t, fp1, fp2)

	fp3 := Fingerprint(content, map[string]string{"steps": "Stappen"})
	assert.NotEqual(t, fp1, fp3)

	fp4 := Fingerprint([]byte("Datum,Afstand\n2024-01-01,6"), nil)
	assert.NotEqual(t, fp1, fp4)

	// override order must not matter
	fp5 := Fingerprint(content, map[string]string{"steps": "Stappen", "tss": "TSS"})
	fp6 := Fingerprint(content, map[string]string{"tss": "TSS", "steps": "Stappen"})
	assert.Equal(t, fp5, fp6)
}

func TestStore_SnapshotCache(t *testing.T) {
	store := NewStore(0)

	fingerprint := Fingerprint([]byte("some,csv,content"), nil)
	_, found := store.CachedSnapshot(fingerprint)
	assert.False(t, found)

	snapshot := &Snapshot{
		UploadedAt:  time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		SourceName:  "activities.csv",
		ContentHash: fingerprint,
		Headers:     []string{"Datum", "Afstand"},
		Mapping: activities.FieldMapping{
			activities.FieldDate:       "Datum",
			activities.FieldDistanceKm: "Afstand",
		},
	}
	store.CacheSnapshot(fingerprint, snapshot)

	cached, found := store.CachedSnapshot(fingerprint)
	require.True(t, found)
	assert.Equal(t, snapshot.SourceName, cached.SourceName)
	assert.Equal(t, snapshot.Headers, cached.Headers)
	assert.Equal(t, snapshot.Mapping, cached.Mapping)
}
