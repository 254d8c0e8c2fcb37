package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func socketPathForTest(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "touchless.sock")
}

// serveForTest runs Serve on path and returns a func that stops it.
func serveForTest(t *testing.T, path string, handler HandlerFunc) func() {
	t.Helper()

	listener, err := net.Listen("unix", path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, listener, handler) }()

	var stopped bool
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		require.NoError(t, <-done)
	}
	t.Cleanup(stop)
	return stop
}

// rawServerForTest accepts one connection and answers it with reply.
func rawServerForTest(t *testing.T, path string, reply func(net.Conn)) {
	t.Helper()

	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reply(conn)
	}()
}

func controllerSnapshot(_ context.Context, req Request) Response {
	if req.Command != CommandStatus {
		return Response{Error: "unknown command: " + req.Command}
	}
	return Response{OK: true, Mode: "eye", PID: 42, LastApplied: 100.5, Message: "status"}
}

func TestSendReturnsControllerSnapshot(t *testing.T) {
	path := socketPathForTest(t)
	serveForTest(t, path, controllerSnapshot)

	resp, err := Send(context.Background(), path, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, Response{OK: true, Mode: "eye", PID: 42, LastApplied: 100.5, Message: "status"}, resp)
}

func TestStatusTurnsRejectionIntoError(t *testing.T) {
	path := socketPathForTest(t)
	serveForTest(t, path, func(context.Context, Request) Response {
		return Response{Mode: "none", Error: "controller shutting down"}
	})

	resp, err := Status(context.Background(), path, 200*time.Millisecond)
	require.EqualError(t, err, "status: controller shutting down")
	require.Equal(t, "none", resp.Mode)
}

func TestStatusMissingSocket(t *testing.T) {
	_, err := Status(context.Background(), socketPathForTest(t), 100*time.Millisecond)
	require.Error(t, err)
	require.True(t, nobodyListening(err))
}

func TestSendBrokenPeer(t *testing.T) {
	tests := []struct {
		name    string
		reply   func(net.Conn)
		wantErr string
	}{
		{
			name: "garbage reply",
			reply: func(conn net.Conn) {
				_, _ = bufio.NewReader(conn).ReadBytes('\n')
				_, _ = conn.Write([]byte("hand mode on\n"))
			},
			wantErr: "decode response",
		},
		{
			name: "hangs up",
			reply: func(conn net.Conn) {
				_, _ = bufio.NewReader(conn).ReadBytes('\n')
			},
			wantErr: "read response",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := socketPathForTest(t)
			rawServerForTest(t, path, tc.reply)

			_, err := Send(context.Background(), path, Request{Command: CommandStatus}, 200*time.Millisecond)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestServeRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr string
	}{
		{name: "not json", line: "status\n", wantErr: "decode request"},
		{name: "empty command", line: `{"command":""}` + "\n", wantErr: "empty command"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := socketPathForTest(t)
			serveForTest(t, path, func(context.Context, Request) Response {
				t.Error("handler must not run for a bad request")
				return Response{OK: true}
			})

			conn, err := net.Dial("unix", path)
			require.NoError(t, err)
			defer conn.Close()

			_, err = conn.Write([]byte(tc.line))
			require.NoError(t, err)

			var resp Response
			require.NoError(t, json.NewDecoder(conn).Decode(&resp))
			require.False(t, resp.OK)
			require.Contains(t, resp.Error, tc.wantErr)
		})
	}
}

func TestServeWaitsForInFlightRequest(t *testing.T) {
	path := socketPathForTest(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	stop := serveForTest(t, path, func(ctx context.Context, req Request) Response {
		close(entered)
		<-release
		return controllerSnapshot(ctx, req)
	})

	result := make(chan error, 1)
	go func() {
		_, err := Status(context.Background(), path, 2*time.Second)
		result <- err
	}()

	<-entered
	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Serve returned before the in-flight request finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-result)
	<-stopped
}

func TestProbe(t *testing.T) {
	path := socketPathForTest(t)
	stop := serveForTest(t, path, controllerSnapshot)

	alive, err := Probe(context.Background(), path, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, alive)

	stop()

	alive, err = Probe(context.Background(), path, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}

func TestResponseErr(t *testing.T) {
	require.NoError(t, Response{OK: true}.Err())
	require.EqualError(t, Response{}.Err(), "controller rejected request")
	require.EqualError(t, Response{Error: "unknown command: ping"}.Err(), "unknown command: ping")
}
