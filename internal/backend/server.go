package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/five82/sieve/internal/feed"
)

// Server exposes a Store over the feed REST API.
type Server struct {
	store  *Store
	logger *slog.Logger
}

// NewServer wraps store. A nil logger discards.
func NewServer(store *Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{store: store, logger: logger}
}

// Handler returns the routed API with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/videos", s.handleVideos)
	mux.HandleFunc("GET /api/daily", s.handleDaily)
	mux.HandleFunc("POST /api/state", s.handleSetState)
	mux.HandleFunc("GET /api/state", s.handleListStates)
	mux.HandleFunc("GET /api/creators", s.handleCreators)
	mux.HandleFunc("POST /api/creators", s.handleUpdateCreators)
	mux.HandleFunc("GET /api/creator-groups", s.handleGroups)
	mux.HandleFunc("GET /api/stats/overview", s.handleStatsOverview)
	mux.HandleFunc("GET /api/stats/creators", s.handleCreatorStats)
	return s.logRequests(mux)
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("feed api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := feed.Filter{
		Query:         q.Get("q"),
		Tag:           q.Get("tag"),
		Group:         q.Get("group"),
		WhitelistOnly: true,
	}
	var err error
	if filter.ViewMin, err = int64Param(q.Get("view_min")); err != nil {
		s.writeError(w, r, invalidf("view_min: %v", err))
		return
	}
	if filter.ViewMax, err = int64Param(q.Get("view_max")); err != nil {
		s.writeError(w, r, invalidf("view_max: %v", err))
		return
	}
	if v := q.Get("only_whitelist"); v != "" {
		if filter.WhitelistOnly, err = strconv.ParseBool(v); err != nil {
			s.writeError(w, r, invalidf("only_whitelist: %v", err))
			return
		}
	}
	if v := q.Get("state"); v != "" {
		if filter.State, err = feed.ParseState(v); err != nil {
			s.writeError(w, r, invalidf("%v", err))
			return
		}
	}
	switch sortKey := q.Get("sort"); sortKey {
	case "", string(feed.SortPub):
		filter.Sort = feed.SortPub
	case string(feed.SortView):
		filter.Sort = feed.SortView
	default:
		s.writeError(w, r, invalidf("sort must be pub or view"))
		return
	}
	if filter.Limit, err = intParam(q.Get("limit"), 50); err != nil {
		s.writeError(w, r, invalidf("limit: %v", err))
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		s.writeError(w, r, invalidf("offset: %v", err))
		return
	}

	videos, err := s.store.ListVideos(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := DailyQuery{Group: q.Get("group"), Sample: true}
	var err error
	if query.Hours, err = intParam(q.Get("hours"), 24); err != nil {
		s.writeError(w, r, invalidf("hours: %v", err))
		return
	}
	if query.Limit, err = intParam(q.Get("limit"), 50); err != nil {
		s.writeError(w, r, invalidf("limit: %v", err))
		return
	}
	sample, err := intParam(q.Get("sample"), 1)
	if err != nil || sample < 0 || sample > 200 {
		s.writeError(w, r, invalidf("sample must be between 0 and 200"))
		return
	}
	query.Sample = sample > 0
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.writeError(w, r, invalidf("seed: %v", err))
			return
		}
		query.Seed = &seed
	}

	videos, err := s.store.Daily(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	var in feed.StateUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.store.SetState(r.Context(), in.ID, feed.State(strings.ToUpper(string(in.State))))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("state updated", "bvid", rec.ID, "state", rec.State)
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListStates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := feed.StateQuery{ID: q.Get("bvid")}
	var err error
	if v := q.Get("state"); v != "" {
		if query.State, err = feed.ParseState(v); err != nil {
			s.writeError(w, r, invalidf("%v", err))
			return
		}
	}
	if query.Limit, err = intParam(q.Get("limit"), 200); err != nil {
		s.writeError(w, r, invalidf("limit: %v", err))
		return
	}
	if query.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		s.writeError(w, r, invalidf("offset: %v", err))
		return
	}
	records, err := s.store.ListStates(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCreators(w http.ResponseWriter, r *http.Request) {
	creators, err := s.store.ListCreators(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, creators)
}

func (s *Server) handleUpdateCreators(w http.ResponseWriter, r *http.Request) {
	var patches []feed.CreatorPatch
	if err := decodeJSON(w, r, &patches); err != nil {
		s.writeError(w, r, err)
		return
	}
	creators, err := s.store.UpdateCreators(r.Context(), patches)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, creators)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.CreatorGroups(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleStatsOverview(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r.URL.Query().Get("days"), 7)
	if err != nil {
		s.writeError(w, r, invalidf("days: %v", err))
		return
	}
	overview, err := s.store.StatsOverview(r.Context(), days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleCreatorStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var query feed.StatsQuery
	var err error
	if query.Days, err = intParam(q.Get("days"), 30); err != nil {
		s.writeError(w, r, invalidf("days: %v", err))
		return
	}
	if query.Limit, err = intParam(q.Get("limit"), 200); err != nil {
		s.writeError(w, r, invalidf("limit: %v", err))
		return
	}
	stats, err := s.store.CreatorStats(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write response failed", "err", err)
	}
}

// writeError answers with {"detail": ...}. Invalid requests get 422.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ErrInvalid) {
		status = http.StatusUnprocessableEntity
	} else {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dest); err != nil {
		return invalidf("decode body: %v", err)
	}
	return nil
}

func intParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func int64Param(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
