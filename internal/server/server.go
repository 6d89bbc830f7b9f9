// Package server implements the GraphNIST HTTP API.
//
// The API exposes the same pipeline the CLI uses: layout computation,
// connection proposals, rendering, and named topology storage. Handlers
// return data only; applying positions or proposed connections to a
// topology is the caller's job.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/graphnist/graphnist/pkg/connect"
	gnerrors "github.com/graphnist/graphnist/pkg/errors"
	"github.com/graphnist/graphnist/pkg/observability"
	"github.com/graphnist/graphnist/pkg/pipeline"
	"github.com/graphnist/graphnist/pkg/store"
	"github.com/graphnist/graphnist/pkg/topology"
)

// maxBodyBytes caps request bodies to keep pathological topologies from
// exhausting memory.
const maxBodyBytes = 8 << 20

// Server holds the dependencies shared by all handlers.
type Server struct {
	Runner *pipeline.Runner
	Store  store.Store
	Logger *log.Logger
}

// New creates a server. A nil runner gets an uncached default, a nil
// logger a discard logger. The store may be nil, in which case the
// topology storage routes respond 503.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, nil)
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{Runner: runner, Store: st, Logger: logger}
}

// Handler builds the chi router for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/connect", s.handleConnect)
		r.Post("/render", s.handleRender)

		r.Route("/topologies", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Get("/{name}", s.handleLoad)
			r.Put("/{name}", s.handleSave)
			r.Delete("/{name}", s.handleDelete)
			r.Patch("/{name}/positions", s.handleSavePositions)
		})
	})

	return r
}

// logRequests emits one structured log line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
		s.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// =============================================================================
// Request/Response Types
// =============================================================================

// LayoutRequest carries a topology and pipeline options.
type LayoutRequest struct {
	Topology topology.Document `json:"topology"`
	Options  pipeline.Options  `json:"options"`
}

// LayoutResponse returns the computed positions with pipeline metadata.
type LayoutResponse struct {
	Positions    map[string]topology.Point `json:"positions"`
	TopologyHash string                    `json:"topology_hash"`
	Devices      int                       `json:"devices"`
	Connections  int                       `json:"connections"`
	LayoutMs     int64                     `json:"layout_ms"`
	CacheHit     bool                      `json:"cache_hit"`
}

// ConnectRequest carries a topology and a connection strategy.
type ConnectRequest struct {
	Topology   topology.Document `json:"topology"`
	Strategy   string            `json:"strategy"`
	TargetType string            `json:"target_type,omitempty"`
	KeepOrder  bool              `json:"keep_order,omitempty"`
}

// ConnectResponse returns the proposed connections. Existing edges and
// both orientations of a proposed pair are never repeated.
type ConnectResponse struct {
	Connections []topology.Connection `json:"connections"`
}

// RenderRequest carries a topology, pipeline options, and a single output
// format. Positions already present on the devices are used as-is unless
// options request a fresh layout.
type RenderRequest struct {
	Topology topology.Document `json:"topology"`
	Options  pipeline.Options  `json:"options"`
	Format   string            `json:"format"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if !s.decode(w, r, &req) {
		return
	}
	topo, err := topology.ToTopology(req.Topology)
	if err != nil {
		s.writeError(w, gnerrors.Wrap(gnerrors.ErrCodeInvalidTopology, err, "invalid topology"))
		return
	}

	opts := s.layoutOnly(req.Options)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, gnerrors.Wrap(gnerrors.ErrCodeInvalidInput, err, "invalid options"))
		return
	}

	result, err := s.Runner.Execute(r.Context(), topo, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, LayoutResponse{
		Positions:    result.Positions,
		TopologyHash: result.TopologyHash,
		Devices:      result.Stats.DeviceCount,
		Connections:  result.Stats.ConnectionCount,
		LayoutMs:     result.Stats.LayoutTime.Milliseconds(),
		CacheHit:     result.CacheInfo.LayoutHit,
	})
}

// layoutOnly restricts pipeline options to the layout stage. The layout
// endpoint returns positions, not artifacts, so rendering is skipped by
// requesting the cheap JSON format and discarding it.
func (s *Server) layoutOnly(opts pipeline.Options) pipeline.Options {
	opts.Formats = []string{pipeline.FormatJSON}
	opts.Logger = s.Logger
	return opts
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !s.decode(w, r, &req) {
		return
	}
	topo, err := topology.ToTopology(req.Topology)
	if err != nil {
		s.writeError(w, gnerrors.Wrap(gnerrors.ErrCodeInvalidTopology, err, "invalid topology"))
		return
	}

	strategy, err := connect.ParseStrategy(req.Strategy)
	if err != nil {
		s.writeError(w, gnerrors.Wrap(gnerrors.ErrCodeInvalidStrategy, err, "invalid strategy"))
		return
	}

	opts := connect.Options{KeepOrder: req.KeepOrder}
	if req.TargetType != "" {
		dt, ok := topology.ParseDeviceType(req.TargetType)
		if !ok {
			s.writeError(w, gnerrors.New(gnerrors.ErrCodeInvalidInput, "invalid target type: %q", req.TargetType))
			return
		}
		opts.TargetType = dt
	}

	observability.Pipeline().OnConnectStart(r.Context(), req.Strategy, topo.DeviceCount())
	proposed, err := connect.Propose(topo.Devices(), strategy, topo.Connections(), opts)
	observability.Pipeline().OnConnectComplete(r.Context(), req.Strategy, len(proposed), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if proposed == nil {
		proposed = []topology.Connection{}
	}
	s.writeJSON(w, http.StatusOK, ConnectResponse{Connections: proposed})
}

// artifactContentTypes maps output formats to MIME types.
var artifactContentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Format == "" {
		req.Format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(req.Format); err != nil {
		s.writeError(w, gnerrors.Wrap(gnerrors.ErrCodeInvalidFormat, err, "invalid format"))
		return
	}
	topo, err := topology.ToTopology(req.Topology)
	if err != nil {
		s.writeError(w, gnerrors.Wrap(gnerrors.ErrCodeInvalidTopology, err, "invalid topology"))
		return
	}

	opts := req.Options
	opts.Formats = []string{req.Format}
	opts.Logger = s.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, gnerrors.Wrap(gnerrors.ErrCodeInvalidInput, err, "invalid options"))
		return
	}

	result, err := s.Runner.Execute(r.Context(), topo, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", artifactContentTypes[req.Format])
	w.WriteHeader(http.StatusOK)
	w.Write(result.Artifacts[req.Format])
}

// =============================================================================
// Storage Handlers
// =============================================================================

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	infos, err := s.Store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if infos == nil {
		infos = []store.Info{}
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	doc, err := s.Store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var doc topology.Document
	if !s.decode(w, r, &doc) {
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.Store.Save(r.Context(), name, &doc); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSavePositions(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var positions map[string]topology.Point
	if !s.decode(w, r, &positions) {
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.Store.SavePositions(r.Context(), name, positions); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.Store == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "topology storage is not configured",
			Code:  string(gnerrors.ErrCodeUnsupported),
		})
		return false
	}
	return true
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("invalid request body: %v", err),
			Code:  string(gnerrors.ErrCodeInvalidInput),
		})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

// writeError maps an error to an HTTP status by its code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch gnerrors.GetCode(err) {
	case gnerrors.ErrCodeInvalidInput, gnerrors.ErrCodeInvalidStrategy,
		gnerrors.ErrCodeInvalidViewport, gnerrors.ErrCodeInvalidTopology,
		gnerrors.ErrCodeInvalidFormat, gnerrors.ErrCodeInvalidName:
		status = http.StatusBadRequest
	case gnerrors.ErrCodeNotFound, gnerrors.ErrCodeTopologyNotFound,
		gnerrors.ErrCodeDeviceNotFound, gnerrors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case gnerrors.ErrCodeUnsupported:
		status = http.StatusNotImplemented
	default:
		// Validation sentinels from the domain packages map to 400 too.
		if errors.Is(err, topology.ErrInvalidViewport) {
			status = http.StatusBadRequest
		}
	}
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{
		Error: gnerrors.UserMessage(err),
		Code:  string(gnerrors.GetCode(err)),
	})
}
