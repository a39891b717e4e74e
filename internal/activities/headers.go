package activities

import (
	"sort"
	"strings"
	"unicode"
)

// RawRow is one record as read from a tabular source, keyed by the
// (cleaned) source header. Values are raw cell text.
type RawRow map[string]string

// FieldMapping maps canonical field names to the source header that
// feeds them in one specific file. Canonical fields that no header
// resolved to are simply absent.
type FieldMapping map[string]string

// Canonical field names. All heterogeneous source schemas are mapped
// onto this closed set.
const (
	FieldDate           = "date"
	FieldActivityType   = "activity_type"
	FieldFavorite       = "favorite"
	FieldTitle          = "title"
	FieldDistanceKm     = "distance_km"
	FieldCaloriesKcal   = "calories_kcal"
	FieldDurationRaw    = "duration_raw"
	FieldAvgHeartRate   = "avg_heart_rate_bpm"
	FieldMaxHeartRate   = "max_heart_rate_bpm"
	FieldAvgCadence     = "avg_cadence"
	FieldMaxCadence     = "max_cadence"
	FieldAvgPaceRaw     = "avg_pace_raw"
	FieldBestPaceRaw    = "best_pace_raw"
	FieldElevationGainM = "total_elevation_gain_m"
	FieldElevationLossM = "total_elevation_loss_m"
	FieldStrideLengthCm = "avg_stride_length_cm"
	FieldTSS            = "tss"
	FieldSteps          = "steps"
	FieldMinTempCelsius = "min_temp_celsius"
	FieldDecompression  = "decompression"
	FieldBestOverall    = "best_overall"
)

type fieldSpec struct {
	name     string
	display  string // Dutch display name used by the tracker export
	aliases  []string
	required bool
}

// fieldSpecs is the known displayName table plus per-field alias
// heuristics. Aliases are in normalized form (see normalizeHeader) and
// are tried in declared order; the first match wins, no scoring.
var fieldSpecs = []fieldSpec{
	{name: FieldDate, display: "Datum", aliases: []string{"date", "dag"}, required: true},
	{name: FieldActivityType, display: "Activiteittype", aliases: []string{"activiteitstype", "activiteit", "type", "sport"}},
	{name: FieldFavorite, display: "Favoriet", aliases: []string{"favorite"}},
	{name: FieldTitle, display: "Titel", aliases: []string{"title", "naam"}},
	{name: FieldDistanceKm, display: "Afstand", aliases: []string{"afstandkm", "distance", "distancekm"}, required: true},
	{name: FieldCaloriesKcal, display: "Calorieën", aliases: []string{"calorieen", "calorieën", "kcal", "calories"}},
	{name: FieldDurationRaw, display: "Tijd", aliases: []string{"duur", "duration", "time"}, required: true},
	{name: FieldAvgHeartRate, display: "Gem. HS", aliases: []string{"gemhs", "gemiddeldehs", "gemiddeldehartslag", "avghr", "avgheartrate"}},
	{name: FieldMaxHeartRate, display: "Max. HS", aliases: []string{"maxhs", "maximalehs", "maximalehartslag", "maxhr", "maxheartrate"}},
	{name: FieldAvgCadence, display: "Gem. cadans", aliases: []string{"gemcadans", "gemiddeldecadans", "avgcadence"}},
	{name: FieldMaxCadence, display: "Maximale cadans", aliases: []string{"maxcadans", "maximalecadans", "maxcadence"}},
	{name: FieldAvgPaceRaw, display: "Gemiddeld tempo", aliases: []string{"gemtempo", "gemiddeldtempo", "avgpace"}},
	{name: FieldBestPaceRaw, display: "Beste tempo", aliases: []string{"bestetempo", "bestpace"}},
	{name: FieldElevationGainM, display: "Totale stijging", aliases: []string{"totalestijging", "stijging", "elevationgain"}},
	{name: FieldElevationLossM, display: "Totale daling", aliases: []string{"totaledaling", "daling", "elevationloss"}},
	{name: FieldStrideLengthCm, display: "Gem. staplengte", aliases: []string{"gemstaplengte", "staplengte"}},
	{name: FieldTSS, display: "Training Stress Score", aliases: []string{"tss"}},
	{name: FieldSteps, display: "Stappen", aliases: []string{"steps", "aantalstappen"}},
	{name: FieldMinTempCelsius, display: "Min. temp.", aliases: []string{"mintemp", "minimaletemperatuur"}},
	{name: FieldDecompression, display: "Decompressie", aliases: []string{"decompression"}},
	{name: FieldBestOverall, display: "Beste", aliases: []string{"best"}},
}

// RequiredFields returns the canonical fields that must resolve to a
// source header before a tabular dataset is accepted.
func RequiredFields() []string {
	var required []string
	for _, spec := range fieldSpecs {
		if spec.required {
			required = append(required, spec.name)
		}
	}
	return required
}

// CanonicalFields returns all canonical field names in declared order.
func CanonicalFields() []string {
	fields := make([]string, 0, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		fields = append(fields, spec.name)
	}
	return fields
}

// CleanHeader trims whitespace and removes the encoding artifacts that
// tracker exports tend to carry: the degraded registered-trademark
// sequence "Â®" and non-breaking spaces.
func CleanHeader(raw string) string {
	cleaned := strings.ReplaceAll(raw, "Â®", "")
	cleaned = strings.ReplaceAll(cleaned, "®", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	return strings.TrimSpace(cleaned)
}

// normalizeHeader reduces a header to lowercase letters and digits so
// that "Gem. HS", "gem hs" and "Gem.HS" all compare equal.
func normalizeHeader(header string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(CleanHeader(header)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildMapping resolves canonical fields against the given source
// headers: first an exact (normalized) match against the known display
// names, then the per-field aliases in declared order. It returns the
// resolved mapping and the list of required fields left unresolved;
// the caller decides how to obtain manual overrides for those.
func BuildMapping(headers []string) (FieldMapping, []string) {
	normalized := make(map[string]string, len(headers)) // normalized -> cleaned header
	for _, h := range headers {
		n := normalizeHeader(h)
		if n == "" {
			continue
		}
		if _, ok := normalized[n]; !ok {
			normalized[n] = CleanHeader(h)
		}
	}

	mapping := FieldMapping{}
	claimed := make(map[string]bool, len(headers))

	resolve := func(spec fieldSpec) (string, bool) {
		candidates := append([]string{normalizeHeader(spec.display)}, spec.aliases...)
		for _, candidate := range candidates {
			header, ok := normalized[candidate]
			if ok && !claimed[header] {
				return header, true
			}
		}
		return "", false
	}

	var missing []string
	for _, spec := range fieldSpecs {
		if header, ok := resolve(spec); ok {
			mapping[spec.name] = header
			claimed[header] = true
			continue
		}
		if spec.required {
			missing = append(missing, spec.name)
		}
	}
	sort.Strings(missing)
	return mapping, missing
}

// MergeOverrides applies user-supplied field overrides on top of an
// automatically built mapping and returns the remaining unresolved
// required fields. Overrides with an empty header unset the field.
func MergeOverrides(mapping FieldMapping, overrides map[string]string) (FieldMapping, []string) {
	merged := FieldMapping{}
	for field, header := range mapping {
		merged[field] = header
	}
	known := make(map[string]bool, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		known[spec.name] = true
	}
	for field, header := range overrides {
		if !known[field] {
			continue
		}
		header = CleanHeader(header)
		if header == "" {
			delete(merged, field)
			continue
		}
		merged[field] = header
	}

	var missing []string
	for _, spec := range fieldSpecs {
		if spec.required && merged[spec.name] == "" {
			missing = append(missing, spec.name)
		}
	}
	sort.Strings(missing)
	return merged, missing
}

// ApplyMapping re-keys raw rows by canonical field name. Every
// canonical field is materialized: fields without a resolved source
// column get an empty value, so downstream code never has to deal with
// a missing key. Applying the same mapping twice is idempotent.
func ApplyMapping(rows []RawRow, mapping FieldMapping) []RawRow {
	out := make([]RawRow, 0, len(rows))
	for _, row := range rows {
		canonical := RawRow{}
		for _, spec := range fieldSpecs {
			header, ok := mapping[spec.name]
			if !ok {
				canonical[spec.name] = ""
				continue
			}
			if v, ok := row[header]; ok {
				canonical[spec.name] = v
			} else if v, ok := row[spec.name]; ok {
				// row already canonical, re-application is a no-op
				canonical[spec.name] = v
			} else {
				canonical[spec.name] = ""
			}
		}
		out = append(out, canonical)
	}
	return out
}
