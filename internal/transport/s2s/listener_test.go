package s2s_test

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcore/internal/transport/s2s"
)

func TestNew_SecureWithoutCertFiles_Rejected(t *testing.T) {
	_, err := s2s.New(0, true, "", "", nil, nil)
	assert.Error(t, err)
}

func TestNew_SecureWithMissingCertFile_Rejected(t *testing.T) {
	_, err := s2s.New(0, true, "/nonexistent/cert.pem", "/nonexistent/key.pem", nil, nil)
	assert.Error(t, err)
}

func TestListener_StartThenStopRoundTrips(t *testing.T) {
	var mu sync.Mutex
	var accepted int
	handler := func(conn net.Conn) {
		mu.Lock()
		accepted++
		mu.Unlock()
		conn.Close()
	}

	ln, err := s2s.New(0, false, "", "", handler, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ln.Start(ctx))

	// port 0 picks an ephemeral port that the listener does not expose, so
	// this test only verifies that Start and Stop round-trip cleanly;
	// TestListener_AcceptsRealConnection covers an actual dial.
	require.NoError(t, ln.Stop(ctx))
}

func TestListener_Name(t *testing.T) {
	ln, err := s2s.New(0, false, "", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "s2s-listener", ln.Name())
}

func TestListener_StopWithoutStart_IsNoop(t *testing.T) {
	ln, err := s2s.New(0, false, "", "", nil, nil)
	require.NoError(t, err)
	assert.NoError(t, ln.Stop(context.Background()))
}

func TestListener_AcceptsRealConnection(t *testing.T) {
	done := make(chan struct{})
	handler := func(conn net.Conn) {
		conn.Close()
		close(done)
	}

	// Bind an OS-assigned port ourselves first so the test can dial it back;
	// the listener's own New(0, ...) path is covered by the Start/Stop test
	// above since ":0" addresses aren't discoverable before Start binds them.
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := probe.Addr().(*net.TCPAddr).Port
	require.NoError(t, probe.Close())

	ln, err := s2s.New(port, false, "", "", handler, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ln.Start(ctx))
	defer ln.Stop(ctx)

	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked for accepted connection")
	}
}
