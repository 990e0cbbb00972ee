package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/metrics"
	"github.com/renato0307/grove/internal/services"
)

const (
	maxCommandBytes = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// EventSource is the event bus as seen by the streaming endpoints
type EventSource interface {
	Subscribe(filter services.EventFilter) *services.Subscription
	Unsubscribe(sub *services.Subscription)
}

// OutputSource replays and follows one session's output log
type OutputSource interface {
	Stream(ctx context.Context, sessionID string, afterSeq int64) (<-chan domain.OutputMessage, error)
}

// PermissionPrompter blocks until a tool call raised by the MCP bridge is decided
type PermissionPrompter interface {
	RequestPermission(ctx context.Context, id string, tool domain.ToolCall) (domain.PermissionDecision, error)
}

// PromptRequest is the body of POST /api/sessions/{id}/permission-prompt
type PromptRequest struct {
	Input     json.RawMessage `json:"input"`
	ToolName  string          `json:"toolName"`
	ToolUseID string          `json:"toolUseId"`
}

// HTTPServer serves the command endpoint, the event and output streams, the
// permission bridge endpoint, health and metrics
type HTTPServer struct {
	addr       string
	dispatcher *Dispatcher
	events     EventSource
	httpServer *http.Server
	outputs    OutputSource
	prompter   PermissionPrompter
}

// NewHTTPServer creates a new HTTPServer listening on addr
func NewHTTPServer(
	addr string,
	dispatcher *Dispatcher,
	events EventSource,
	outputs OutputSource,
	prompter PermissionPrompter,
) *HTTPServer {
	return &HTTPServer{
		addr:       addr,
		dispatcher: dispatcher,
		events:     events,
		outputs:    outputs,
		prompter:   prompter,
	}
}

// Handler builds the router
func (s *HTTPServer) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger)

	router.Get("/healthz", s.handleHealthz)
	router.Handle("/metrics", metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Post("/commands", s.handleCommand)
		r.Get("/events", s.handleEvents)
		r.Get("/sessions/{sessionID}/output", s.handleOutput)
		r.Post("/sessions/{sessionID}/permission-prompt", s.handlePermissionPrompt)
	})
	return router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *HTTPServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve is Start on an existing listener
func (s *HTTPServer) Serve(ctx context.Context, listener net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Logger.Info("HTTP gateway listening", "address", listener.Addr().String())
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logging.Logger.Info("Stopping HTTP gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req Request
	body := http.MaxBytesReader(w, r.Body, maxCommandBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Error: &Error{Code: CodeValidation, Message: "malformed command envelope: " + err.Error()},
		})
		return
	}

	resp := s.dispatcher.Dispatch(r.Context(), req)
	status := http.StatusOK
	if resp.Error != nil {
		status = statusFor(resp.Error.Code)
	}
	respondJSON(w, status, resp)
}

func (s *HTTPServer) handlePermissionPrompt(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))

	var req PromptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBytes)).Decode(&req); err != nil {
		respondError(w, &Error{Code: CodeValidation, Message: "malformed permission prompt: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.ToolName) == "" {
		respondError(w, &Error{Code: CodeValidation, Message: "toolName is required"})
		return
	}

	logging.Logger.Info("Permission prompt received", "session_id", sessionID, "tool", req.ToolName, "tool_use_id", req.ToolUseID)
	decision, err := s.prompter.RequestPermission(r.Context(), sessionID, domain.DecodeToolCall(req.ToolUseID, req.ToolName, req.Input))
	if err != nil {
		respondError(w, toError(err))
		return
	}
	respondJSON(w, http.StatusOK, decision)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Logger.Warn("Failed to write response", "error", err)
	}
}

func respondError(w http.ResponseWriter, apiErr *Error) {
	respondJSON(w, statusFor(apiErr.Code), Response{Error: apiErr})
}

func statusFor(code string) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound, CodeUnknown:
		return http.StatusNotFound
	case CodeConflict, CodeProcess:
		return http.StatusConflict
	case CodeGit:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger logs each request at debug level
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// drain discards the rest of a body so keep-alive connections can be reused
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
