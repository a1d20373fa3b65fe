package chat

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/parley/pkg/channel"
	"github.com/marmos91/parley/pkg/identity"
)

// startServer runs an adapter on an ephemeral port and returns it along with
// the context cancel that triggers shutdown and a channel carrying Serve's
// return value.
func startServer(t *testing.T, config Config) (*Adapter, context.CancelFunc, chan error) {
	t.Helper()

	d := NewDispatcher(identity.NewRegistry(), channel.NewRegistry(), nil)

	config.BindAddress = "127.0.0.1"
	config.Port = 0
	a := New(config, d, nil)

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		serveErr <- a.Serve(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-serveDone:
		case <-time.After(10 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return a, cancel, serveErr
}

// chatClient wraps one client connection with line-oriented send/expect
// helpers.
type chatClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dialServer(t *testing.T, a *Adapter) *chatClient {
	t.Helper()

	conn, err := net.Dial("tcp", a.ListenerAddr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &chatClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *chatClient) send(line string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

func (c *chatClient) expect(want string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	got, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)
	require.Equal(c.t, want+"\n", got)
}

// expectNothing asserts that no line arrives within the window. Used for the
// silent SAY paths, where the only observable correct behavior is absence.
func (c *chatClient) expectNothing(window time.Duration) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(window)))
	line, err := c.reader.ReadString('\n')
	if err == nil {
		c.t.Fatalf("expected silence, got %q", line)
	}
	netErr, ok := err.(net.Error)
	require.True(c.t, ok, "expected a timeout, got %v", err)
	require.True(c.t, netErr.Timeout())
}

func TestServer_RegisterAndLogin(t *testing.T) {
	a, _, _ := startServer(t, Config{})
	c := dialServer(t, a)

	c.send("REGISTER alice secret")
	c.expect("RESULT REGISTER 1")
	c.send("REGISTER alice secret")
	c.expect("RESULT REGISTER 0")
	c.send("LOGIN alice wrong")
	c.expect("RESULT LOGIN 0")
	c.send("LOGIN alice secret")
	c.expect("RESULT LOGIN 1")
}

func TestServer_BroadcastAcrossConnections(t *testing.T) {
	a, _, _ := startServer(t, Config{})

	alice := dialServer(t, a)
	alice.send("REGISTER alice pw")
	alice.expect("RESULT REGISTER 1")
	alice.send("LOGIN alice pw")
	alice.expect("RESULT LOGIN 1")

	bob := dialServer(t, a)
	bob.send("REGISTER bob pw")
	bob.expect("RESULT REGISTER 1")
	bob.send("LOGIN bob pw")
	bob.expect("RESULT LOGIN 1")

	alice.send("CREATE lobby")
	alice.expect("RESULT CREATE lobby 1")
	alice.send("JOIN lobby")
	alice.expect("RESULT JOIN lobby 1")
	bob.send("JOIN lobby")
	bob.expect("RESULT JOIN lobby 1")

	bob.send("SAY lobby hello world")
	alice.expect("RECV bob lobby hello world")
	bob.expect("RECV bob lobby hello world")
}

func TestServer_NonMemberSayIsSilent(t *testing.T) {
	a, _, _ := startServer(t, Config{})

	alice := dialServer(t, a)
	alice.send("REGISTER alice pw")
	alice.expect("RESULT REGISTER 1")
	alice.send("LOGIN alice pw")
	alice.expect("RESULT LOGIN 1")
	alice.send("CREATE lobby")
	alice.expect("RESULT CREATE lobby 1")
	alice.send("JOIN lobby")
	alice.expect("RESULT JOIN lobby 1")

	carol := dialServer(t, a)
	carol.send("REGISTER carol pw")
	carol.expect("RESULT REGISTER 1")
	carol.send("LOGIN carol pw")
	carol.expect("RESULT LOGIN 1")

	carol.send("SAY lobby sneaky")
	carol.expectNothing(300 * time.Millisecond)
	alice.expectNothing(300 * time.Millisecond)

	// Both sessions still work afterwards.
	carol.send("CHANNELS")
	carol.expect("RESULT CHANNELS lobby")
}

func TestServer_PipelinedRequestsKeepOrder(t *testing.T) {
	a, _, _ := startServer(t, Config{})
	c := dialServer(t, a)

	// One write carrying several requests: replies must come back in request
	// order.
	_, err := c.conn.Write([]byte("REGISTER alice pw\nLOGIN alice pw\nCREATE lobby\nJOIN lobby\nCHANNELS\n"))
	require.NoError(t, err)

	c.expect("RESULT REGISTER 1")
	c.expect("RESULT LOGIN 1")
	c.expect("RESULT CREATE lobby 1")
	c.expect("RESULT JOIN lobby 1")
	c.expect("RESULT CHANNELS lobby")
}

func TestServer_ArityAndUnknownVerbs(t *testing.T) {
	a, _, _ := startServer(t, Config{})
	c := dialServer(t, a)

	c.send("REGISTER onlyone")
	c.expect("RESULT REGISTER ERROR not enough arguments")
	c.send("REGISTER a b c")
	c.expect("RESULT REGISTER ERROR too many arguments")
	c.send("WHISPER alice hi")
	c.expect("RESULT ERROR unknown message type")

	// The connection survives protocol errors.
	c.send("CHANNELS")
	c.expect("RESULT CHANNELS ")
}

func TestServer_DisconnectReleasesLogin(t *testing.T) {
	a, _, _ := startServer(t, Config{})

	first := dialServer(t, a)
	first.send("REGISTER alice pw")
	first.expect("RESULT REGISTER 1")
	first.send("LOGIN alice pw")
	first.expect("RESULT LOGIN 1")

	second := dialServer(t, a)
	second.send("LOGIN alice pw")
	second.expect("RESULT LOGIN 0")

	require.NoError(t, first.conn.Close())

	// The server notices the disconnect and frees the identity.
	require.Eventually(t, func() bool {
		u := a.dispatcher.Users().Find("alice")
		return a.dispatcher.Users().Bound(u) == nil
	}, 5*time.Second, 50*time.Millisecond)

	second.send("LOGIN alice pw")
	second.expect("RESULT LOGIN 1")
}

func TestServer_MaxConnectionsLimit(t *testing.T) {
	a, _, _ := startServer(t, Config{MaxConnections: 1})

	first := dialServer(t, a)
	first.send("CHANNELS")
	first.expect("RESULT CHANNELS ")

	// The second dial may connect at TCP level (it sits in the accept
	// backlog) but the server must not serve it until the first leaves.
	second := dialServer(t, a)
	second.send("CHANNELS")
	second.expectNothing(300 * time.Millisecond)

	require.NoError(t, first.conn.Close())
	second.expect("RESULT CHANNELS ")
}

func TestServer_GracefulShutdown(t *testing.T) {
	a, cancel, serveErr := startServer(t, Config{})

	quiet := dialServer(t, a)
	busy := dialServer(t, a)
	busy.send("REGISTER alice pw")
	busy.expect("RESULT REGISTER 1")

	start := time.Now()
	cancel()

	select {
	case err := <-serveErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	// Both idle and active clients observe EOF promptly: no flush, no hang.
	for _, c := range []*chatClient{quiet, busy} {
		require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, err := c.reader.ReadString('\n')
		assert.Error(t, err)
	}
	assert.Less(t, time.Since(start), 4*time.Second)

	assert.Equal(t, int32(0), a.ActiveConnections())

	// New connections are refused once the listener is down.
	_, err := net.Dial("tcp", a.ListenerAddr())
	assert.Error(t, err)
}
