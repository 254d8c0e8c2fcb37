// Package web serves the HTTP command writer.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/ipc"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/logging"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mailbox"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
)

const shutdownTimeout = 5 * time.Second

// Submitter writes a command into the mailbox.
type Submitter interface {
	Submit(mailbox.Command) error
}

// ControllerEnsurer starts the mode controller when it is not running.
type ControllerEnsurer interface {
	EnsureController(ctx context.Context) error
}

// StatusFunc asks the running controller for its snapshot.
type StatusFunc func(ctx context.Context) (ipc.Response, error)

// Options configures a Server.
type Options struct {
	Logger     *slog.Logger
	Addr       string
	Mailbox    Submitter
	Supervisor ControllerEnsurer
	Status     StatusFunc
	Clock      func() time.Time
}

// Server is the command writer HTTP surface.
type Server struct {
	logger     *slog.Logger
	mailbox    Submitter
	supervisor ControllerEnsurer
	status     StatusFunc
	now        func() time.Time
	httpServer *http.Server
}

type runRequest struct {
	Script string `json:"script"`
}

type runResponse struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Mode        string  `json:"mode"`
	Controller  string  `json:"controller"`
	PID         int     `json:"pid,omitempty"`
	LastApplied float64 `json:"last_applied,omitempty"`
}

// NewServer builds the router and HTTP server.
func NewServer(opts Options) *Server {
	s := &Server{
		logger:     opts.Logger,
		mailbox:    opts.Mailbox,
		supervisor: opts.Supervisor,
		status:     opts.Status,
		now:        opts.Clock,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.ensureController)

	r.Post("/run", s.handleRun)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/status", s.handleStatus)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("command writer listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ensureController lazily starts the controller before every request. A
// start failure is logged and never fails the request.
func (s *Server) ensureController(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.supervisor != nil {
			if err := s.supervisor.EnsureController(r.Context()); err != nil {
				s.logger.Error("ensure controller", "error", err.Error())
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	m, err := mode.Resolve(req.Script)
	if err != nil {
		s.logger.Warn("unknown mode request", "script", req.Script)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Unknown mode for script: " + strings.ToLower(req.Script)})
		return
	}

	cmd := mailbox.NewCommand(m, s.now())
	if err := s.mailbox.Submit(cmd); err != nil {
		s.logger.Error("submit command", "mode", string(m), "id", cmd.ID, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to send command to controller"})
		return
	}

	s.logger.Info("command submitted", "mode", string(m), "time", cmd.Time, "id", cmd.ID, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, runResponse{Message: mode.RequestedMessage(m), Mode: string(m)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	down := statusResponse{Mode: string(mode.None), Controller: "down"}
	if s.status == nil {
		writeJSON(w, http.StatusOK, down)
		return
	}

	resp, err := s.status(r.Context())
	if err != nil || !resp.OK {
		writeJSON(w, http.StatusOK, down)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Mode:        resp.Mode,
		Controller:  "up",
		PID:         resp.PID,
		LastApplied: resp.LastApplied,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
