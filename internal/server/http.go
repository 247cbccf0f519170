package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tmeadows/outboxd/internal/action"
	"github.com/tmeadows/outboxd/internal/logging"
)

const (
	// DefaultAPIAddr is the default address for the HTTP API server.
	DefaultAPIAddr = ":8080"

	// DefaultAPIReadTimeout bounds request reads on the API server.
	DefaultAPIReadTimeout = 15 * time.Second

	// DefaultAPIWriteTimeout bounds response writes on the API server.
	// Sends can take a while against the Gmail API, so this is generous.
	DefaultAPIWriteTimeout = 120 * time.Second
)

// sendEmailRequest is the JSON body for POST /api/send-email.
type sendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// voiceCommandRequest is the JSON body for POST /api/voice-command.
type voiceCommandRequest struct {
	Text string `json:"text"`
}

// errorResponse is the JSON error body for API failures.
type errorResponse struct {
	Error string `json:"error"`
}

// sendEmailResponse is the JSON body for a successful send.
type sendEmailResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"message_id,omitempty"`
}

// APIServer serves the JSON HTTP API consumed by frontends.
type APIServer struct {
	sc         *ServerContext
	health     *HealthChecker
	httpServer *http.Server
	addr       string
}

// NewAPIServer creates the API server.
func NewAPIServer(sc *ServerContext, health *HealthChecker, addr string) *APIServer {
	if addr == "" {
		addr = DefaultAPIAddr
	}
	return &APIServer{
		sc:     sc,
		health: health,
		addr:   addr,
	}
}

// Handler builds the API routing. Exposed separately from Start so tests
// can drive it through httptest.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/send-email", s.instrument("/api/send-email", s.handleSendEmail))
	mux.Handle("POST /api/voice-command", s.instrument("/api/voice-command", s.handleVoiceCommand))

	if s.health != nil {
		s.health.RegisterHealthEndpoints(mux)
	}

	return mux
}

// Start starts the API server in a blocking manner.
func (s *APIServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultAPIReadTimeout,
		WriteTimeout:      DefaultAPIWriteTimeout,
	}

	s.sc.Logger().Info("starting API server", slog.String("addr", s.addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the API server.
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.sc.Logger().Info("shutting down API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the API server.
func (s *APIServer) Addr() string {
	return s.addr
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with HTTP request metrics.
func (s *APIServer) instrument(path string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		handler(rec, r)

		s.sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, path, rec.status, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleSendEmail handles POST /api/send-email. Requests with missing
// fields are rejected with 400 before any send is attempted; send
// failures map to 500 with the failure reason.
func (s *APIServer) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	required := []struct {
		name  string
		value string
	}{
		{"to", req.To},
		{"subject", req.Subject},
		{"body", req.Body},
	}
	for _, field := range required {
		if field.value == "" {
			writeError(w, http.StatusBadRequest, "Missing required field: "+field.name)
			return
		}
	}

	result := s.sc.Registry().Dispatch(r.Context(), "send_email", map[string]any{
		"to":      req.To,
		"subject": req.Subject,
		"body":    req.Body,
	})

	if !result.Success {
		s.sc.Logger().Warn("send-email request failed",
			logging.Operation("send_email"),
			slog.String("reason", result.Message))
		writeError(w, http.StatusInternalServerError, result.Message)
		return
	}

	writeJSON(w, http.StatusOK, sendEmailResponse{
		Success:   true,
		Message:   result.Message,
		MessageID: result.MessageID,
	})
}

// handleVoiceCommand handles POST /api/voice-command.
func (s *APIServer) handleVoiceCommand(w http.ResponseWriter, r *http.Request) {
	var req voiceCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: text")
		return
	}

	writeJSON(w, http.StatusOK, action.ClassifyCommand(req.Text))
}
