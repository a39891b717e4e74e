package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/mvdwal/sportlog/internal/activities"
	"github.com/mvdwal/sportlog/internal/activities/tabular"
	"github.com/mvdwal/sportlog/internal/telemetry/metrics"
	"github.com/mvdwal/sportlog/internal/telemetry/tracing"
	"github.com/mvdwal/sportlog/pkg"
)

type UploadDatasetResponse struct {
	SourceName    string                  `json:"sourceName"`
	ContentHash   string                  `json:"contentHash"`
	Cached        bool                    `json:"cached"`
	Headers       []string                `json:"headers"`
	Mapping       activities.FieldMapping `json:"mapping"`
	MissingFields []string                `json:"missingFields"`
	Report        activities.BuildReport  `json:"report"`
}

type MappingResponse struct {
	Headers       []string                `json:"headers"`
	Mapping       activities.FieldMapping `json:"mapping"`
	MissingFields []string                `json:"missingFields"`
}

type ActivitiesResponse struct {
	Activities   []activities.Activity `json:"activities"`
	Total        int                   `json:"total"`
	InvalidRange bool                  `json:"invalidRange,omitempty"`
}

type KPIResponse struct {
	activities.KPI
	InvalidRange bool `json:"invalidRange,omitempty"`
}

type ActivityTypesResponse struct {
	Types []string `json:"types"`
}

type AggregateResponse struct {
	Period       activities.Period            `json:"period"`
	Aggregates   []activities.PeriodAggregate `json:"aggregates"`
	InvalidRange bool                         `json:"invalidRange,omitempty"`
}

type Handler struct {
	store          *Store
	analyzer       *activities.Analyzer
	metrics        *metrics.Manager
	maxUploadBytes int64
	now            func() time.Time
}

func NewHandler(store *Store, metricsManager *metrics.Manager, maxUploadSizeMB int64) *Handler {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = 32
	}
	return &Handler{
		store:          store,
		analyzer:       activities.NewAnalyzer(),
		metrics:        metricsManager,
		maxUploadBytes: maxUploadSizeMB << 20,
		now:            time.Now,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/dataset", handler.HandleDatasetUpload).Methods("POST", "OPTIONS").Name("upload-dataset")
	router.HandleFunc("/dataset", handler.HandleDatasetClear).Methods("DELETE", "OPTIONS").Name("clear-dataset")
	router.HandleFunc("/dataset/mapping", handler.HandleGetMapping).Methods("GET", "OPTIONS").Name("get-mapping")
	router.HandleFunc("/dataset/mapping", handler.HandleUpdateMapping).Methods("POST", "OPTIONS").Name("update-mapping")
	router.HandleFunc("/activities", handler.HandleListActivities).Methods("GET", "OPTIONS").Name("list-activities")
	router.HandleFunc("/activities/types", handler.HandleActivityTypes).Methods("GET", "OPTIONS").Name("activity-types")
	router.HandleFunc("/activities/kpi", handler.HandleKPI).Methods("GET", "OPTIONS").Name("activities-kpi")
	router.HandleFunc("/activities/aggregate/{period}", handler.HandleAggregate).Methods("GET", "OPTIONS").Name("activities-aggregate")
	router.HandleFunc("/export/activities.csv", handler.HandleExportActivities).Methods("GET", "OPTIONS").Name("export-activities")
	router.HandleFunc("/export/aggregate/{period}.csv", handler.HandleExportAggregate).Methods("GET", "OPTIONS").Name("export-aggregate")
}

func (handler *Handler) HandleDatasetUpload(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.dataset.upload")
	defer span.End()

	if err := r.ParseMultipartForm(handler.maxUploadBytes); err != nil {
		log.Errorf("upload dataset, parse multipart form: %s", err)
		http.Error(w, "invalid upload or file too big", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Errorf("upload dataset, get file: %s", err)
		http.Error(w, "failed to get file", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		log.Errorf("upload dataset, read file [%s]: %s", fileHeader.Filename, err)
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	fingerprint := Fingerprint(content, nil)
	if cached, found := handler.store.CachedSnapshot(fingerprint); found {
		log.Debugf("dataset [%s] served from cache", fileHeader.Filename)
		handler.metrics.CounterDatasetCacheHits.Inc()
		handler.store.ReplaceDataset(cached)
		handler.writeUploadResponse(w, cached, true)
		return
	}

	startedAt := handler.now()
	table, err := tabular.ReadTable(fileHeader.Filename, bytes.NewReader(content))
	if err != nil {
		log.Errorf("upload dataset, parse [%s]: %s", fileHeader.Filename, err)
		handler.metrics.CounterFileParseFailures.WithLabelValues("dataset").Inc()
		if errors.Is(err, tabular.ErrUnsupportedFileType) {
			http.Error(w, "unsupported file type", http.StatusBadRequest)
		} else {
			http.Error(w, "failed to parse file", http.StatusBadRequest)
		}
		return
	}

	mapping, missing := activities.BuildMapping(table.Headers)

	snapshot := &Snapshot{
		UploadedAt:    handler.now(),
		SourceName:    fileHeader.Filename,
		ContentHash:   fingerprint,
		Headers:       table.Headers,
		Mapping:       mapping,
		MissingFields: missing,
		Rows:          table.Rows,
	}
	// required fields unresolved: hold the raw rows so mapping
	// overrides can complete the dataset, but do not build activities
	if len(missing) == 0 {
		snapshot.Activities, snapshot.Report = activities.BuildActivities(table.Rows, mapping)
	} else {
		log.Warnf("dataset [%s] unresolved required fields: %v", fileHeader.Filename, missing)
		snapshot.Report = activities.BuildReport{TotalRows: len(table.Rows)}
	}
	handler.store.ReplaceDataset(snapshot)
	handler.store.CacheSnapshot(fingerprint, snapshot)

	handler.metrics.CounterFilesProcessed.WithLabelValues("dataset").Inc()
	handler.metrics.CounterRowsDropped.Add(float64(snapshot.Report.DroppedDates))
	handler.metrics.HistFileProcessDuration.Observe(handler.now().Sub(startedAt).Seconds())

	log.Debugf(
		"dataset [%s] processed: %d rows, %d built, %d dropped",
		fileHeader.Filename, snapshot.Report.TotalRows, snapshot.Report.BuiltRows, snapshot.Report.DroppedDates,
	)

	handler.writeUploadResponse(w, snapshot, false)
}

func (handler *Handler) writeUploadResponse(w http.ResponseWriter, snapshot *Snapshot, cached bool) {
	respJson, err := json.Marshal(UploadDatasetResponse{
		SourceName:    snapshot.SourceName,
		ContentHash:   snapshot.ContentHash,
		Cached:        cached,
		Headers:       snapshot.Headers,
		Mapping:       snapshot.Mapping,
		MissingFields: snapshot.MissingFields,
		Report:        snapshot.Report,
	})
	if err != nil {
		log.Errorf("failed to marshal upload response: %s", err)
		http.Error(w, "failed to marshal upload response", http.StatusInternalServerError)
		return
	}

	// unresolved required fields: the dataset is held but not
	// installed, the caller has to complete the mapping first
	statusCode := http.StatusCreated
	if len(snapshot.MissingFields) > 0 {
		statusCode = http.StatusOK
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, statusCode)
}

func (handler *Handler) HandleDatasetClear(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.dataset.clear")
	defer span.End()

	handler.store.Clear()
	pkg.WriteJSONResponseOK(w, `{"status": "cleared"}`)
}

func (handler *Handler) HandleGetMapping(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.dataset.getMapping")
	defer span.End()

	snapshot := handler.store.Dataset()
	if snapshot == nil {
		http.Error(w, "no dataset uploaded", http.StatusNotFound)
		return
	}

	respJson, err := json.Marshal(MappingResponse{
		Headers:       snapshot.Headers,
		Mapping:       snapshot.Mapping,
		MissingFields: snapshot.MissingFields,
	})
	if err != nil {
		log.Errorf("failed to marshal mapping response: %s", err)
		http.Error(w, "failed to marshal mapping response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.dataset.updateMapping")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	snapshot := handler.store.Dataset()
	if snapshot == nil {
		http.Error(w, "no dataset uploaded", http.StatusNotFound)
		return
	}

	var overrides map[string]string
	if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
		log.Tracef("update mapping, unmarshal json params: %s", err)
		http.Error(w, "update mapping failed", http.StatusBadRequest)
		return
	}

	mapping, missing := activities.MergeOverrides(snapshot.Mapping, overrides)

	remapped := &Snapshot{
		UploadedAt:    handler.now(),
		SourceName:    snapshot.SourceName,
		ContentHash:   Fingerprint([]byte(snapshot.ContentHash), overrides),
		Headers:       snapshot.Headers,
		Mapping:       mapping,
		MissingFields: missing,
		Rows:          snapshot.Rows,
	}
	if len(missing) == 0 {
		remapped.Activities, remapped.Report = activities.BuildActivities(snapshot.Rows, mapping)
	} else {
		log.Warnf("dataset [%s] still has unresolved required fields: %v", snapshot.SourceName, missing)
		remapped.Report = activities.BuildReport{TotalRows: len(snapshot.Rows)}
	}
	handler.store.ReplaceDataset(remapped)

	handler.writeUploadResponse(w, remapped, false)
}

func (handler *Handler) HandleListActivities(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.list")
	defer span.End()

	rows, invalidRange, ok := handler.filteredActivities(w, r)
	if !ok {
		return
	}

	respJson, err := json.Marshal(ActivitiesResponse{
		Activities:   rows,
		Total:        len(rows),
		InvalidRange: invalidRange,
	})
	if err != nil {
		log.Errorf("failed to marshal activities response: %s", err)
		http.Error(w, "failed to marshal activities response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleActivityTypes(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.types")
	defer span.End()

	snapshot := handler.store.Dataset()
	if snapshot == nil {
		http.Error(w, "no dataset uploaded", http.StatusNotFound)
		return
	}
	if len(snapshot.MissingFields) > 0 {
		http.Error(w, "dataset mapping incomplete", http.StatusConflict)
		return
	}

	// "Alle" is the select-all option shown first in the type filter
	types := append([]string{"Alle"}, handler.analyzer.ActivityTypes(snapshot.Activities)...)
	respJson, err := json.Marshal(ActivityTypesResponse{Types: types})
	if err != nil {
		log.Errorf("failed to marshal activity types: %s", err)
		http.Error(w, "failed to marshal activity types", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleKPI(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.kpi")
	defer span.End()

	rows, invalidRange, ok := handler.filteredActivities(w, r)
	if !ok {
		return
	}

	respJson, err := json.Marshal(KPIResponse{
		KPI:          handler.analyzer.OverviewKPI(ctx, rows),
		InvalidRange: invalidRange,
	})
	if err != nil {
		log.Errorf("failed to marshal kpi response: %s", err)
		http.Error(w, "failed to marshal kpi response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.aggregate")
	defer span.End()

	period, ok := periodFromRequest(w, r)
	if !ok {
		return
	}

	rows, invalidRange, ok := handler.filteredActivities(w, r)
	if !ok {
		return
	}

	aggregates := handler.analyzer.AggregateByPeriod(ctx, rows, period)
	respJson, err := json.Marshal(AggregateResponse{
		Period:       period,
		Aggregates:   aggregates,
		InvalidRange: invalidRange,
	})
	if err != nil {
		log.Errorf("failed to marshal aggregate response: %s", err)
		http.Error(w, "failed to marshal aggregate response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleExportActivities(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.export.activities")
	defer span.End()

	rows, _, ok := handler.filteredActivities(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := activities.WriteActivitiesCSV(&buf, rows); err != nil {
		log.Errorf("failed to write activities csv: %s", err)
		http.Error(w, "failed to write activities csv", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="activities.csv"`)
	pkg.WriteResponseBytes(w, pkg.ContentType.CSV, buf.Bytes(), http.StatusOK)
}

func (handler *Handler) HandleExportAggregate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.export.aggregate")
	defer span.End()

	period, ok := periodFromRequest(w, r)
	if !ok {
		return
	}

	rows, _, ok := handler.filteredActivities(w, r)
	if !ok {
		return
	}

	aggregates := handler.analyzer.AggregateByPeriod(ctx, rows, period)

	var buf bytes.Buffer
	if err := activities.WritePeriodAggregatesCSV(&buf, aggregates); err != nil {
		log.Errorf("failed to write aggregate csv: %s", err)
		http.Error(w, "failed to write aggregate csv", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(period)+".csv"))
	pkg.WriteResponseBytes(w, pkg.ContentType.CSV, buf.Bytes(), http.StatusOK)
}

// filteredActivities resolves the current dataset and applies the
// request's date range and type filters, writing the error response
// itself when it returns ok == false. A from date after the to date
/// is not an error: it yields an empty set with invalidRange set, the
// caller reports the flag with a 200.
func (handler *Handler) filteredActivities(w http.ResponseWriter, r *http.Request) (rows []activities.Activity, invalidRange, ok bool) {
	snapshot := handler.store.Dataset()
	if snapshot == nil {
		http.Error(w, "no dataset uploaded", http.StatusNotFound)
		return nil, false, false
	}
	if len(snapshot.MissingFields) > 0 {
		http.Error(w, "dataset mapping incomplete", http.StatusConflict)
		return nil, false, false
	}

	params, err := filterParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false, false
	}

	rows, err = params.Apply(snapshot.Activities)
	if err != nil {
		if errors.Is(err, activities.ErrInvalidDateRange) {
			return nil, true, true
		}
		log.Errorf("failed to filter activities: %s", err)
		http.Error(w, "failed to filter activities", http.StatusInternalServerError)
		return nil, false, false
	}
	return rows, false, true
}

func filterParamsFromRequest(r *http.Request) (activities.FilterParams, error) {
	var params activities.FilterParams

	query := r.URL.Query()
	if fromStr := query.Get("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return params, fmt.Errorf("invalid <from> date: %s", fromStr)
		}
		params.From = &from
	}
	if toStr := query.Get("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return params, fmt.Errorf("invalid <to> date: %s", toStr)
		}
		params.To = &to
	}
	params.Types = query["type"]

	return params, nil
}

func periodFromRequest(w http.ResponseWriter, r *http.Request) (activities.Period, bool) {
	vars := mux.Vars(r)
	switch vars["period"] {
	case "week":
		return activities.PeriodWeek, true
	case "month":
		return activities.PeriodMonth, true
	default:
		http.Error(w, "error, unknown period", http.StatusBadRequest)
		return "", false
	}
}
