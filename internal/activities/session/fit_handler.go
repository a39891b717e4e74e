package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/mvdwal/sportlog/internal/activities"
	"github.com/mvdwal/sportlog/internal/activities/fitimport"
	"github.com/mvdwal/sportlog/internal/telemetry/metrics"
	"github.com/mvdwal/sportlog/internal/telemetry/tracing"
	"github.com/mvdwal/sportlog/pkg"
)

type FitUploadResponse struct {
	Files          int                  `json:"files"`
	Failed         []string             `json:"failed,omitempty"`
	NoSamples      []string             `json:"noSamples,omitempty"`
	Samples        int                  `json:"samples"`
	DroppedRecords int                  `json:"droppedRecords"`
	Summaries      []activities.Summary `json:"summaries"`
}

type FitSummariesResponse struct {
	Summaries []activities.Summary  `json:"summaries"`
	Overviews []activities.Overview `json:"overviews"`
}

type FitHandler struct {
	store          *Store
	analyzer       *activities.Analyzer
	metrics        *metrics.Manager
	maxUploadBytes int64
	maxUploadFiles int
	now            func() time.Time
}

func NewFitHandler(store *Store, metricsManager *metrics.Manager, maxUploadSizeMB int64, maxUploadFiles int) *FitHandler {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = 32
	}
	if maxUploadFiles <= 0 {
		maxUploadFiles = 25
	}
	return &FitHandler{
		store:          store,
		analyzer:       activities.NewAnalyzer(),
		metrics:        metricsManager,
		maxUploadBytes: maxUploadSizeMB << 20,
		maxUploadFiles: maxUploadFiles,
		now:            time.Now,
	}
}

func (handler *FitHandler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/fit", handler.HandleFitUpload).Methods("POST", "OPTIONS").Name("upload-fit")
	router.HandleFunc("/fit/summaries", handler.HandleSummaries).Methods("GET", "OPTIONS").Name("fit-summaries")
	router.HandleFunc("/export/samples.csv", handler.HandleExportSamples).Methods("GET", "OPTIONS").Name("export-samples")
	router.HandleFunc("/export/overviews.csv", handler.HandleExportOverviews).Methods("GET", "OPTIONS").Name("export-overviews")
}

func (handler *FitHandler) HandleFitUpload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fit.upload")
	defer span.End()

	if err := r.ParseMultipartForm(handler.maxUploadBytes); err != nil {
		log.Errorf("upload fit, parse multipart form: %s", err)
		http.Error(w, "invalid upload or files too big", http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		http.Error(w, "error, no files", http.StatusBadRequest)
		return
	}
	if len(fileHeaders) > handler.maxUploadFiles {
		http.Error(w, "error, too many files", http.StatusBadRequest)
		return
	}

	snapshot := &FitSnapshot{UploadedAt: handler.now()}
	var failed, noSamples []string
	for _, fileHeader := range fileHeaders {
		log.Debugf("decoding fit file: %s", fileHeader.Filename)
		startedAt := handler.now()

		file, err := fileHeader.Open()
		if err != nil {
			log.Errorf("upload fit, open [%s]: %s", fileHeader.Filename, err)
			failed = append(failed, fileHeader.Filename)
			continue
		}

		result, err := fitimport.Decode(ctx, fileHeader.Filename, file)
		_ = file.Close()
		if err != nil {
			log.Errorf("upload fit, decode [%s]: %s", fileHeader.Filename, err)
			handler.metrics.CounterFileParseFailures.WithLabelValues("fit").Inc()
			failed = append(failed, fileHeader.Filename)
			continue
		}

		if len(result.Samples) == 0 {
			// decoded fine but no record carried a valid timestamp,
			// the activity is left out of the stored batch entirely
			log.Warnf("upload fit, no usable samples in [%s]", fileHeader.Filename)
			noSamples = append(noSamples, fileHeader.Filename)
			handler.metrics.CounterRowsDropped.Add(float64(result.DroppedRecords))
			continue
		}

		snapshot.Files++
		snapshot.Summaries = append(snapshot.Summaries, result.Summary)
		snapshot.Samples = append(snapshot.Samples, result.Samples...)
		snapshot.DroppedRecords += result.DroppedRecords

		handler.metrics.CounterFilesProcessed.WithLabelValues("fit").Inc()
		handler.metrics.CounterRowsDropped.Add(float64(result.DroppedRecords))
		handler.metrics.HistFileProcessDuration.Observe(handler.now().Sub(startedAt).Seconds())
	}

	if snapshot.Files == 0 {
		http.Error(w, "error, no fit file yielded usable samples", http.StatusBadRequest)
		return
	}

	// a new upload batch replaces any previous fit state
	handler.store.ReplaceFit(snapshot)

	respJson, err := json.Marshal(FitUploadResponse{
		Files:          snapshot.Files,
		Failed:         failed,
		NoSamples:      noSamples,
		Samples:        len(snapshot.Samples),
		DroppedRecords: snapshot.DroppedRecords,
		Summaries:      snapshot.Summaries,
	})
	if err != nil {
		log.Errorf("failed to marshal fit upload response: %s", err)
		http.Error(w, "failed to marshal fit upload response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

func (handler *FitHandler) HandleSummaries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fit.summaries")
	defer span.End()

	snapshot := handler.store.Fit()
	if snapshot == nil {
		http.Error(w, "no fit files uploaded", http.StatusNotFound)
		return
	}

	overviews := handler.analyzer.ActivityOverviews(ctx, snapshot.Samples, snapshot.Summaries)
	respJson, err := json.Marshal(FitSummariesResponse{
		Summaries: snapshot.Summaries,
		Overviews: overviews,
	})
	if err != nil {
		log.Errorf("failed to marshal fit summaries response: %s", err)
		http.Error(w, "failed to marshal fit summaries response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *FitHandler) HandleExportSamples(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.export.samples")
	defer span.End()

	snapshot := handler.store.Fit()
	if snapshot == nil {
		http.Error(w, "no fit files uploaded", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := activities.WriteSamplesCSV(&buf, snapshot.Samples); err != nil {
		log.Errorf("failed to write samples csv: %s", err)
		http.Error(w, "failed to write samples csv", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="samples.csv"`)
	pkg.WriteResponseBytes(w, pkg.ContentType.CSV, buf.Bytes(), http.StatusOK)
}

func (handler *FitHandler) HandleExportOverviews(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.export.overviews")
	defer span.End()

	snapshot := handler.store.Fit()
	if snapshot == nil {
		http.Error(w, "no fit files uploaded", http.StatusNotFound)
		return
	}

	overviews := handler.analyzer.ActivityOverviews(ctx, snapshot.Samples, snapshot.Summaries)

	var buf bytes.Buffer
	if err := activities.WriteOverviewsCSV(&buf, overviews); err != nil {
		log.Errorf("failed to write overviews csv: %s", err)
		http.Error(w, "failed to write overviews csv", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="overviews.csv"`)
	pkg.WriteResponseBytes(w, pkg.ContentType.CSV, buf.Bytes(), http.StatusOK)
}
