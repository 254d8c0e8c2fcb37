package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/ipc"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mailbox"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
	"github.com/stretchr/testify/require"
)

type failingSubmitter struct{}

func (failingSubmitter) Submit(mailbox.Command) error {
	return errors.New("read-only file system")
}

type countingEnsurer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *countingEnsurer) EnsureController(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.err
}

func (e *countingEnsurer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newTestServer(t *testing.T) (*Server, *mailbox.Mailbox, *countingEnsurer) {
	t.Helper()

	box := mailbox.New(filepath.Join(t.TempDir(), "control_command.json"))
	ensurer := &countingEnsurer{}
	srv := NewServer(Options{
		Mailbox:    box,
		Supervisor: ensurer,
		Clock:      func() time.Time { return time.Unix(1_700_000_000, 500_000_000) },
	})
	return srv, box, ensurer
}

func postRun(t *testing.T, srv *Server, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var decoded map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&decoded))
	return w, decoded
}

func TestHandleRunSubmitsResolvedMode(t *testing.T) {
	tests := []struct {
		script  string
		mode    mode.Mode
		message string
	}{
		{script: "AImouse.py", mode: mode.Hand, message: "HAND mode requested. Previous mode will stop automatically."},
		{script: "handgesture", mode: mode.Hand, message: "HAND mode requested. Previous mode will stop automatically."},
		{script: "EyeControl", mode: mode.Eye, message: "EYE mode requested. Previous mode will stop automatically."},
		{script: "voicecommand.py", mode: mode.Voice, message: "VOICE mode requested. Previous mode will stop automatically."},
		{script: "AIKeyboard", mode: mode.Keyboard, message: "KEYBOARD mode requested. Previous mode will stop automatically."},
		{script: "stop", mode: mode.None, message: "All control modes stopped."},
	}

	for _, tc := range tests {
		t.Run(tc.script, func(t *testing.T) {
			srv, box, _ := newTestServer(t)

			w, body := postRun(t, srv, `{"script":"`+tc.script+`"}`)
			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, "application/json", w.Header().Get("Content-Type"))
			require.Equal(t, tc.message, body["message"])
			require.Equal(t, string(tc.mode), body["mode"])

			cmd, ok, err := box.Peek()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, tc.mode, cmd.Mode)
			require.InDelta(t, 1_700_000_000.5, cmd.Time, 1e-3)
			require.NotEmpty(t, cmd.ID)
		})
	}
}

func TestHandleRunUnknownScript(t *testing.T) {
	srv, box, _ := newTestServer(t)

	w, body := postRun(t, srv, `{"script":"calculator"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Unknown mode for script: calculator", body["error"])

	_, ok, err := box.Peek()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHandleRunUnknownScriptIsLowercased(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w, body := postRun(t, srv, `{"script":"Calculator.PY"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Unknown mode for script: calculator.py", body["error"])
}

func TestHandleRunInvalidBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w, body := postRun(t, srv, `not-json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid request body", body["error"])
}

func TestHandleRunSubmitFailure(t *testing.T) {
	srv := NewServer(Options{Mailbox: failingSubmitter{}})

	w, body := postRun(t, srv, `{"script":"eye"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Failed to send command to controller", body["error"])
}

func TestHandleRunLatestWins(t *testing.T) {
	srv, box, _ := newTestServer(t)

	postRun(t, srv, `{"script":"hand"}`)
	postRun(t, srv, `{"script":"voice"}`)

	cmd, ok, err := box.Peek()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, mode.Voice, cmd.Mode)
}

func TestEnsureControllerRunsForEveryRequest(t *testing.T) {
	srv, _, ensurer := newTestServer(t)
	ensurer.err = errors.New("exec: not found")

	w, _ := postRun(t, srv, `{"script":"eye"}`)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, 2, ensurer.count())
}

func TestHandleHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
}

func TestHandleStatus(t *testing.T) {
	tests := []struct {
		name   string
		status StatusFunc
		want   map[string]any
	}{
		{
			name: "up",
			status: func(context.Context) (ipc.Response, error) {
				return ipc.Response{OK: true, Mode: "eye", PID: 321, LastApplied: 12.5}, nil
			},
			want: map[string]any{"mode": "eye", "controller": "up", "pid": float64(321), "last_applied": 12.5},
		},
		{
			name: "down",
			status: func(context.Context) (ipc.Response, error) {
				return ipc.Response{}, errors.New("connect: no such file or directory")
			},
			want: map[string]any{"mode": "none", "controller": "down"},
		},
		{
			name:   "unwired",
			status: nil,
			want:   map[string]any{"mode": "none", "controller": "down"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := NewServer(Options{Mailbox: failingSubmitter{}, Status: tc.status})

			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			var body map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			require.Equal(t, tc.want, body)
		})
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
