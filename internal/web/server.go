// Package web serves the ordering store over HTTP: hierarchy reads, the two
// container-scoped bulk reorder writes, and a websocket change feed.
package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"curriculum-cli/internal/model"
	"curriculum-cli/internal/store"
)

const (
	maxBodyBytes        = 1 << 20
	defaultPollInterval = 2 * time.Second
)

type ServerConfig struct {
	Addr     string
	Dir      string
	ReadOnly bool
	Logger   *slog.Logger

	// PollInterval controls how often subscribed courses are checked for writes
	// made outside this server (e.g. `curriculum import`).
	PollInterval time.Duration
}

type Server struct {
	mu  sync.RWMutex
	cfg ServerConfig
	log *slog.Logger
	bc  *courseBroadcaster
}

func NewServer(cfg ServerConfig) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	s := &Server{cfg: cfg, log: log}
	s.bc = newCourseBroadcaster(s.store(), cfg.PollInterval, log)
	return s
}

func (s *Server) store() store.Store {
	s.mu.RLock()
	d := s.cfg.Dir
	s.mu.RUnlock()
	return store.Store{Dir: d}
}

func (s *Server) readOnly() bool {
	s.mu.RLock()
	ro := s.cfg.ReadOnly
	s.mu.RUnlock()
	return ro
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /courses", s.handleCourses)
	mux.HandleFunc("GET /courses/{courseId}/hierarchy", s.handleHierarchy)
	mux.HandleFunc("GET /courses/{courseId}/version", s.handleVersion)
	mux.HandleFunc("GET /courses/{courseId}/events", s.handleEvents)
	mux.HandleFunc("POST /courses/{courseId}/chapters/reorder", s.handleReorderChapters)
	mux.HandleFunc("POST /courses/{courseId}/chapters/{chapterId}/lessons/reorder", s.handleReorderLessons)
	return s.logRequests(mux)
}

// Close stops the change feed poller. ListenAndServe does this on return.
func (s *Server) Close() { s.bc.Stop() }

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.mu.RLock()
	addr := s.cfg.Addr
	s.mu.RUnlock()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		s.bc.Stop()
		return err
	case <-ctx.Done():
	}
	s.bc.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", r.Header.Get("X-Request-Id")),
			slog.Int("status", sw.status),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Hijack is needed for websocket upgrades.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "readOnly": s.readOnly()})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.store().Courses(r.Context())
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("courseId"))
	if id == "" {
		http.Error(w, "missing course id", http.StatusBadRequest)
		return
	}
	h, err := s.store().Hierarchy(r.Context(), id)
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

type versionResponse struct {
	CourseID string `json:"courseId"`
	Version  int64  `json:"version"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("courseId"))
	v, err := s.store().CourseVersion(r.Context(), id)
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{CourseID: id, Version: v})
}

type reorderChaptersRequest struct {
	Chapters []model.RankUpdate `json:"chapters"`
}

type reorderLessonsRequest struct {
	Lessons []model.RankUpdate `json:"lessons"`
}

func (s *Server) handleReorderChapters(w http.ResponseWriter, r *http.Request) {
	courseID := strings.TrimSpace(r.PathValue("courseId"))
	var req reorderChaptersRequest
	if err := decodeBody(r, &req); err != nil {
		writeResponse(w, http.StatusBadRequest, model.Response{Status: model.StatusError, Message: "Invalid data"})
		return
	}
	var err error
	if s.readOnly() {
		err = store.ErrReadOnly
	} else {
		err = s.store().ReorderChapters(r.Context(), courseID, req.Chapters)
	}
	s.finishWrite(w, r.Context(), courseID, err, store.MsgChaptersReordered)
}

func (s *Server) handleReorderLessons(w http.ResponseWriter, r *http.Request) {
	courseID := strings.TrimSpace(r.PathValue("courseId"))
	chapterID := strings.TrimSpace(r.PathValue("chapterId"))
	var req reorderLessonsRequest
	if err := decodeBody(r, &req); err != nil {
		writeResponse(w, http.StatusBadRequest, model.Response{Status: model.StatusError, Message: "Invalid data"})
		return
	}
	var err error
	if s.readOnly() {
		err = store.ErrReadOnly
	} else {
		err = s.store().ReorderLessons(r.Context(), courseID, chapterID, req.Lessons)
	}
	s.finishWrite(w, r.Context(), courseID, err, store.MsgLessonsReordered)
}

func (s *Server) finishWrite(w http.ResponseWriter, ctx context.Context, courseID string, err error, okMsg string) {
	resp, storeErr := store.Respond(err, okMsg)
	switch {
	case storeErr != nil:
		s.log.Error("reorder failed", slog.String("course_id", courseID), slog.Any("err", storeErr))
		writeResponse(w, http.StatusInternalServerError, model.Response{Status: model.StatusError, Message: "Failed to persist order"})
	case !resp.OK():
		s.log.Info("reorder rejected", slog.String("course_id", courseID), slog.String("message", resp.Message))
		writeResponse(w, rejectionStatus(err), resp)
	default:
		writeResponse(w, http.StatusOK, resp)
		s.bc.notify(ctx, courseID)
	}
}

func rejectionStatus(err error) int {
	var nf store.NotFoundError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.Is(err, store.ErrReadOnly):
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) writeStoreErr(w http.ResponseWriter, err error) {
	var nf store.NotFoundError
	if errors.As(err, &nf) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.log.Error("store read failed", slog.Any("err", err))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeResponse(w http.ResponseWriter, code int, resp model.Response) {
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
