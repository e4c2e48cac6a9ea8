package status

import (
	stderrors "errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svcboot/pkg/config"
	"svcboot/pkg/errors"
)

const expectedResponse = "HTTP/1.1 200 OK\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n<html><body>ok</body></html>\r\n"

func startLocal(t *testing.T, poolSize string) *Handle {
	t.Helper()
	h, err := Start(config.New(map[string]string{
		config.KeyHTTPIP:       "127.0.0.1",
		config.KeyHTTPPort:     "0",
		config.KeyHTTPPoolSize: poolSize,
	}))
	require.NoError(t, err)
	require.NotNil(t, h)
	t.Cleanup(func() { h.Close() })
	return h
}

func dial(t *testing.T, h *Handle) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", h.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readResponse reads until the server closes the connection
func readResponse(t *testing.T, conn net.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(data)
}

func TestServer_NilConfig(t *testing.T) {
	h, err := NewServer(nil).Start()
	assert.Error(t, err)
	assert.Nil(t, h)
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.CodeOf(err))
}

func TestServer_StartTwice(t *testing.T) {
	s := NewServer(&config.StatusServerConfig{IP: "127.0.0.1", Port: "0", PoolSize: 1})

	h, err := s.Start()
	require.NoError(t, err)
	defer h.Close()

	_, err = s.Start()
	assert.Error(t, err)
}

func TestServer_Defaults(t *testing.T) {
	s := NewServer(&config.StatusServerConfig{IP: "127.0.0.1", Port: "0"})
	h, err := s.Start()
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, config.DefaultHTTPPoolSize, h.PoolSize())
	assert.Equal(t, 0, h.BusyWorkers())
}

func TestServer_RespondsWithFixedPayload(t *testing.T) {
	h := startLocal(t, "2")
	assert.Equal(t, 2, h.PoolSize())

	before := testutil.ToFloat64(responsesSent)

	conn := dial(t, h)
	_, err := conn.Write([]byte("GET /anything HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	assert.Equal(t, expectedResponse, readResponse(t, conn))
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(responsesSent) == before+1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_PeerClosesWithoutSending(t *testing.T) {
	h := startLocal(t, "1")
	before := testutil.ToFloat64(connectionErrors.WithLabelValues(stageRead))

	conn := dial(t, h)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(connectionErrors.WithLabelValues(stageRead)) == before+1
	}, 2*time.Second, 10*time.Millisecond)

	// the worker is free again
	next := dial(t, h)
	_, err := next.Write([]byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, expectedResponse, readResponse(t, next))
}

func TestServer_BoundedPool(t *testing.T) {
	h := startLocal(t, "2")

	// two silent peers occupy both workers
	slow1 := dial(t, h)
	slow2 := dial(t, h)
	require.Eventually(t, func() bool {
		return h.BusyWorkers() == 2
	}, 2*time.Second, 10*time.Millisecond)

	queued := make([]net.Conn, 3)
	for i := range queued {
		queued[i] = dial(t, h)
		_, err := queued[i].Write([]byte("GET / HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
	}

	// queued peers wait instead of being served by extra workers
	require.NoError(t, queued[0].SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, err := queued[0].Read(make([]byte, 1))
	var netErr net.Error
	require.True(t, stderrors.As(err, &netErr), "expected a timeout, got %v", err)
	assert.True(t, netErr.Timeout())
	assert.Equal(t, 2, h.BusyWorkers())

	// release the workers
	for _, c := range []net.Conn{slow1, slow2} {
		_, err := c.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
	}

	all := append([]net.Conn{slow1, slow2}, queued...)
	var wg sync.WaitGroup
	responses := make([]string, len(all))
	for i, c := range all {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SetReadDeadline(time.Now().Add(5 * time.Second))
			data, _ := io.ReadAll(c)
			responses[i] = string(data)
		}()
	}
	wg.Wait()

	for i, r := range responses {
		assert.Equal(t, expectedResponse, r, "connection %d", i)
	}
	assert.LessOrEqual(t, h.BusyWorkers(), 2)
}

func TestServer_BindInUse(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	_, port, err := net.SplitHostPort(occupied.Addr().String())
	require.NoError(t, err)

	h, err := Start(config.New(map[string]string{
		config.KeyHTTPIP:   "127.0.0.1",
		config.KeyHTTPPort: port,
	}))
	require.Error(t, err)
	assert.Nil(t, h)
	assert.Equal(t, errors.ErrCodeUnavailable, errors.CodeOf(err))

	var opErr *net.OpError
	assert.True(t, stderrors.As(err, &opErr))
	assert.Contains(t, err.Error(), "failed to bind status listener on 127.0.0.1:"+port)
}

func TestHandle_CloseEndsWait(t *testing.T) {
	h := startLocal(t, "3")

	done := make(chan error, 1)
	go func() { done <- h.Wait() }()

	select {
	case <-done:
		t.Fatal("Wait returned before Close")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, h.Close())
	assert.NoError(t, h.Close(), "second close is a no-op")

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after Close")
	}

	_, err := net.DialTimeout("tcp", h.Addr().String(), time.Second)
	assert.Error(t, err)
}

func TestHandle_WaitAfterCloseWaitsForBusyWorker(t *testing.T) {
	h := startLocal(t, "1")
	before := testutil.ToFloat64(connectionsAccepted)

	silent := dial(t, h)
	require.Eventually(t, func() bool {
		return h.BusyWorkers() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// accepted, but stuck in the hand-off while the only worker is busy
	pending := dial(t, h)
	_, err := pending.Write([]byte("ping"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(connectionsAccepted) == before+2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.Close())
	done := make(chan error, 1)
	go func() { done <- h.Wait() }()

	select {
	case <-done:
		t.Fatal("Wait returned while the accept loop was still handing off")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, silent.Close())
	assert.Equal(t, expectedResponse, readResponse(t, pending))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after the worker freed up")
	}
}

func TestServer_CountsAccepted(t *testing.T) {
	h := startLocal(t, "1")
	before := testutil.ToFloat64(connectionsAccepted)

	conn := dial(t, h)
	_, err := conn.Write([]byte("x"))
	require.NoError(t, err)
	readResponse(t, conn)

	assert.Equal(t, before+1, testutil.ToFloat64(connectionsAccepted))
}

// flakyListener fails every Accept with a temporary error until closed.
type flakyListener struct {
	accepts atomic.Int32
	closed  atomic.Bool
}

func (l *flakyListener) Accept() (net.Conn, error) {
	l.accepts.Add(1)
	if l.closed.Load() {
		return nil, net.ErrClosed
	}
	return nil, stderrors.New("too many open files")
}

func (l *flakyListener) Close() error {
	l.closed.Store(true)
	return nil
}

func (l *flakyListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func TestAcceptLoop_PacesErrorsAndStopsOnClose(t *testing.T) {
	ln := &flakyListener{}
	h := newHandle(ln, 1)
	errsBefore := testutil.ToFloat64(connectionErrors.WithLabelValues(stageAccept))

	loopDone := make(chan error, 1)
	go func() { loopDone <- h.acceptLoop() }()

	time.Sleep(350 * time.Millisecond)
	calls := int(ln.accepts.Load())
	assert.GreaterOrEqual(t, calls, 2)
	assert.LessOrEqual(t, calls, 6, "failing accepts are retried at most %d times a second", acceptErrorRate)

	require.NoError(t, h.Close())
	select {
	case err := <-loopDone:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("accept loop kept waiting after Close")
	}

	assert.GreaterOrEqual(t, testutil.ToFloat64(connectionErrors.WithLabelValues(stageAccept))-errsBefore, float64(2))
	_, open := <-h.conns
	assert.False(t, open, "the loop closes the hand-off channel on exit")
}
