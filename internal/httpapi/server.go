package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/climatewatch/internal/domain"
	apimw "github.com/hamed0406/climatewatch/internal/httpapi/middleware"
	"github.com/hamed0406/climatewatch/internal/metrics"
	"github.com/hamed0406/climatewatch/internal/repo"
	"github.com/hamed0406/climatewatch/internal/scheduler"
)

// Runner executes a task on the scheduler loop.
type Runner interface {
	Do(ctx context.Context, task scheduler.Task) error
}

// ArchiveFetcher returns raw historical weather JSON for a location.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, loc domain.Location) ([]byte, error)
}

type Server struct {
	Logger         *zap.Logger
	Sched          Runner
	Archive        ArchiveFetcher
	History        repo.EventStore
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
}

func NewServer(
	l *zap.Logger,
	sched Runner,
	archive ArchiveFetcher,
	history repo.EventStore,
	m *metrics.Metrics,
	timeout time.Duration,
) *Server {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Server{Logger: l, Sched: sched, Archive: archive, History: history, Metrics: m, RequestTimeout: timeout}
}

// Router wires the endpoints. Routes that cause outbound calls share one
// per-client rate limit of outboundRPM requests per minute.
func (s *Server) Router(outboundRPM, outboundBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())

	r.Get("/readings", s.handleReadings)
	r.Get("/outdoor", s.handleOutdoor)
	r.Post("/setLocation", s.handleSetLocation)
	r.Get("/alerts", s.handleAlerts)

	limited := apimw.RateLimit(outboundRPM, outboundBurst)
	r.With(limited).Get("/testAlert", s.handleTestAlert)
	r.With(limited).Get("/api", s.handleArchive)

	return r
}

// run executes task on the scheduler loop within the request budget. It
// writes a 503 and returns false when the loop did not get to it in time.
func (s *Server) run(w http.ResponseWriter, r *http.Request, task scheduler.Task) bool {
	ctx, cancel := context.WithTimeout(r.Context(), s.RequestTimeout)
	defer cancel()

	if err := s.Sched.Do(ctx, task); err != nil {
		s.Logger.Warn("request_not_served", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "busy, try again", http.StatusServiceUnavailable)
		return false
	}
	return true
}

type readingsResponse struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Valid       bool    `json:"valid"`
	Uptime      int64   `json:"uptime"`
	AlertActive bool    `json:"alertActive"`
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	var out readingsResponse
	ok := s.run(w, r, func(_ context.Context, st *scheduler.Station) {
		out = readingsResponse{
			Temperature: st.Reading.Temperature,
			Humidity:    st.Reading.Humidity,
			Valid:       st.Reading.Valid,
			Uptime:      int64(st.Uptime() / time.Second),
			AlertActive: st.Alerts.State().Active,
		}
	})
	if ok {
		writeJSON(w, out)
	}
}

func (s *Server) handleOutdoor(w http.ResponseWriter, r *http.Request) {
	var out domain.OutdoorSnapshot
	ok := s.run(w, r, func(_ context.Context, st *scheduler.Station) {
		out = st.Outdoor.Current()
	})
	if ok {
		writeJSON(w, out)
	}
}

func (s *Server) handleTestAlert(w http.ResponseWriter, r *http.Request) {
	var kind domain.AlertKind
	ok := s.run(w, r, func(ctx context.Context, st *scheduler.Station) {
		kind = st.Alerts.Force(ctx, st.Now(), st.Reading)
	})
	if !ok {
		return
	}
	s.Logger.Info("test_alert_forced", zap.String("kind", kind.String()))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Test alert sent (%s)\n", kind.Label())
}

func (s *Server) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	lat, errLat := strconv.ParseFloat(r.PostForm.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.PostForm.Get("lon"), 64)
	loc := domain.Location{Latitude: lat, Longitude: lon}
	if errLat != nil || errLon != nil || !loc.Valid() {
		http.Error(w, "lat and lon must be valid coordinates", http.StatusBadRequest)
		return
	}

	ok := s.run(w, r, func(_ context.Context, st *scheduler.Station) {
		st.Location = loc
	})
	if !ok {
		return
	}
	s.Logger.Info("location_updated", zap.Float64("lat", lat), zap.Float64("lon", lon))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Location updated\n"))
}

// handleArchive runs the upstream call on the loop, like every other
// outbound call.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	var (
		body []byte
		err  error
	)
	ok := s.run(w, r, func(ctx context.Context, st *scheduler.Station) {
		body, err = s.Archive.Fetch(ctx, st.Location)
	})
	if !ok {
		return
	}
	if err != nil {
		s.Logger.Warn("archive_fetch_failed", zap.Error(err))
		http.Error(w, "archive service unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// handleAlerts lists recent alert events, newest first. The store is safe
// for concurrent use, so this does not go through the loop.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events := []domain.AlertEvent{}
	if s.History != nil {
		got, err := s.History.Recent(r.Context(), limit)
		if err != nil {
			s.Logger.Error("alert_history_failed", zap.Error(err))
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		events = append(events, got...)
	}
	writeJSON(w, events)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
