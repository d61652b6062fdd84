package training

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/logger"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/observability/metrics"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// EpochSource returns the most recently cached epoch of a run.
type EpochSource interface {
	LatestEpoch(ctx context.Context, runID string) (models.EpochMetric, error)
}

// RunLookup reads recorded runs from the registry.
type RunLookup interface {
	Get(ctx context.Context, runID uuid.UUID) (*RunModel, error)
	List(ctx context.Context, limit int) ([]RunModel, error)
}

var (
	_ EpochSource = (*storage.MetricsCache)(nil)
	_ RunLookup   = (*Repository)(nil)
)

// StatusSources are the optional backends behind the status endpoint. Routes
// for a nil source answer 404.
type StatusSources struct {
	Epochs EpochSource
	Runs   RunLookup
}

// StatusServer exposes the progress of the current run over HTTP while it
// trains. It is only started when an address is configured.
type StatusServer struct {
	server *http.Server
}

func NewStatusRouter(runID uuid.UUID, sources StatusSources) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, struct {
			RunID string `json:"run_id"`
			metrics.Snapshot
		}{RunID: runID.String(), Snapshot: metrics.Current()})
	}).Methods(http.MethodGet)
	api.HandleFunc("/run/latest", latestEpochHandler(runID, sources.Epochs)).Methods(http.MethodGet)
	api.HandleFunc("/runs", listRunsHandler(sources.Runs)).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", getRunHandler(sources.Runs)).Methods(http.MethodGet)
	return router
}

func StartStatusServer(addr string, runID uuid.UUID, sources StatusSources) *StatusServer {
	s := &StatusServer{server: &http.Server{
		Addr:              addr,
		Handler:           NewStatusRouter(runID, sources),
		ReadHeaderTimeout: 5 * time.Second,
	}}

	go func() {
		logger.WithField("addr", addr).Info("Status endpoint started")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Warn("Status endpoint stopped")
		}
	}()
	return s
}

func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func latestEpochHandler(runID uuid.UUID, source EpochSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil {
			writeError(w, http.StatusNotFound, "metrics cache not configured")
			return
		}
		metric, err := source.LatestEpoch(r.Context(), runID.String())
		if errors.Is(err, redis.Nil) {
			writeError(w, http.StatusNotFound, "no epoch cached yet")
			return
		}
		if err != nil {
			logger.Log.WithError(err).Warn("Failed to read cached epoch")
			writeError(w, http.StatusInternalServerError, "failed to read cached epoch")
			return
		}
		writeJSONResponse(w, http.StatusOK, metric)
	}
}

func listRunsHandler(runs RunLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runs == nil {
			writeError(w, http.StatusNotFound, "run registry not configured")
			return
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}
		list, err := runs.List(r.Context(), limit)
		if err != nil {
			logger.Log.WithError(err).Warn("Failed to list runs")
			writeError(w, http.StatusInternalServerError, "failed to list runs")
			return
		}
		writeJSONResponse(w, http.StatusOK, map[string]interface{}{"runs": list, "count": len(list)})
	}
}

func getRunHandler(runs RunLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runs == nil {
			writeError(w, http.StatusNotFound, "run registry not configured")
			return
		}
		id, err := uuid.Parse(mux.Vars(r)["id"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid run id")
			return
		}
		run, err := runs.Get(r.Context(), id)
		if errors.Is(err, ErrRunNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			logger.Log.WithError(err).Warn("Failed to load run")
			writeError(w, http.StatusInternalServerError, "failed to load run")
			return
		}
		writeJSONResponse(w, http.StatusOK, run)
	}
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSONResponse(w, status, map[string]string{"error": message})
}

func writeJSONResponse(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("failed to encode status response")
	}
}
