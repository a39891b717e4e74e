package activities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanHeader(t *testing.T) {
	assert.Equal(t, "Gem. HS", CleanHeader("Gem. HSÂ®"))
	assert.Equal(t, "Gem. HS", CleanHeader("Gem. HS®"))
	assert.Equal(t, "Afstand", CleanHeader("  Afstand "))
	assert.Equal(t, "Afstand", CleanHeader("Afstand "))
	assert.Equal(t, "", CleanHeader("Â®"))
}

func TestBuildMapping_DisplayNames(t *testing.T) {
	headers := []string{"Datum", "Activiteittype", "Afstand", "Tijd", "Gem. HS", "Calorieën", "Stappen"}

	mapping, missing := BuildMapping(headers)
	assert.Empty(t, missing)
	assert.Equal(t, "Datum", mapping[FieldDate])
	assert.Equal(t, "Activiteittype", mapping[FieldActivityType])
	assert.Equal(t, "Afstand", mapping[FieldDistanceKm])
	assert.Equal(t, "Tijd", mapping[FieldDurationRaw])
	assert.Equal(t, "Gem. HS", mapping[FieldAvgHeartRate])
	assert.Equal(t, "Calorieën", mapping[FieldCaloriesKcal])
	assert.Equal(t, "Stappen", mapping[FieldSteps])
}

func TestBuildMapping_Aliases(t *testing.T) {
	headers := []string{"Date", "Distance", "Duration", "Avg HR", "Sport"}

	mapping, missing := BuildMapping(headers)
	assert.Empty(t, missing)
	assert.Equal(t, "Date", mapping[FieldDate])
	assert.Equal(t, "Distance", mapping[FieldDistanceKm])
	assert.Equal(t, "Duration", mapping[FieldDurationRaw])
	assert.Equal(t, "Avg HR", mapping[FieldAvgHeartRate])
	assert.Equal(t, "Sport", mapping[FieldActivityType])
}

func TestBuildMapping_MissingRequired(t *testing.T) {
	mapping, missing := BuildMapping([]string{"Titel", "Stappen"})
	assert.Equal(t, []string{FieldDate, FieldDistanceKm, FieldDurationRaw}, missing)
	assert.NotContains(t, mapping, FieldDate)
	assert.Equal(t, "Titel", mapping[FieldTitle])
}

func TestBuildMapping_HeaderClaimedOnce(t *testing.T) {
	// "Tijd" must not serve both the duration and another field
	mapping, _ := BuildMapping([]string{"Datum", "Afstand", "Tijd"})
	claims := 0
	for _, header := range mapping {
		if header == "Tijd" {
			claims++
		}
	}
	assert.Equal(t, 1, claims)
}

func TestMergeOverrides(t *testing.T) {
	mapping, missing := BuildMapping([]string{"Datum", "Afstand"})
	require.Equal(t, []string{FieldDurationRaw}, missing)

	merged, stillMissing := MergeOverrides(mapping, map[string]string{
		FieldDurationRaw: "Verstreken tijd",
		"no_such_field":  "whatever",
	})
	assert.Empty(t, stillMissing)
	assert.Equal(t, "Verstreken tijd", merged[FieldDurationRaw])
	assert.NotContains(t, merged, "no_such_field")

	// an empty header unsets the field again
	unset, nowMissing := MergeOverrides(merged, map[string]string{FieldDurationRaw: ""})
	assert.Equal(t, []string{FieldDurationRaw}, nowMissing)
	assert.NotContains(t, unset, FieldDurationRaw)

	// the original mapping is not mutated
	assert.NotContains(t, mapping, FieldDurationRaw)
}

func TestApplyMapping(t *testing.T) {
	mapping := FieldMapping{
		FieldDate:       "Datum",
		FieldDistanceKm: "Afstand",
	}
	rows := []RawRow{
		{"Datum": "2024-03-04", "Afstand": "12,5", "Onbekend kolom": "x"},
	}

	mapped := ApplyMapping(rows, mapping)
	require.Len(t, mapped, 1)
	assert.Equal(t, "2024-03-04", mapped[0][FieldDate])
	assert.Equal(t, "12,5", mapped[0][FieldDistanceKm])
	// unresolved canonical fields materialize empty
	assert.Equal(t, "", mapped[0][FieldSteps])
	assert.NotContains(t, mapped[0], "Onbekend kolom")
}

func TestApplyMapping_Idempotent(t *testing.T) {
	mapping := FieldMapping{
		FieldDate:       "Datum",
		FieldDistanceKm: "Afstand",
	}
	rows := []RawRow{
		{"Datum": "2024-03-04", "Afstand": "12,5"},
	}

	once := ApplyMapping(rows, mapping)
	twice := ApplyMapping(once, mapping)
	assert.Equal(t, once, twice)
}
