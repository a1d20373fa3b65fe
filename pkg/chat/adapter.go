// Package chat implements the TCP chat protocol: the listener lifecycle, the
// per-connection session with its line framer and outbound queue, and the
// verb dispatcher.
//
// Concurrency model: one goroutine owns each connection's read-and-dispatch
// path, so request order equals dispatch order equals reply order for that
// connection. Shared state (user and channel registries) is guarded inside
// the registries themselves. A second per-session goroutine drains the
// outbound queue so broadcast fan-out never blocks on a slow peer's socket.
package chat

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/parley/internal/logger"
	"github.com/marmos91/parley/pkg/metrics"
)

// readPollInterval is the read-deadline granularity of every session loop.
// It bounds how long a quiet connection takes to observe server shutdown;
// the documented shutdown bound (~2x this value) depends on it.
const readPollInterval = 1 * time.Second

// recvBufferSize is the maximum number of bytes consumed per socket read.
const recvBufferSize = 1024

// Config holds the chat adapter configuration.
type Config struct {
	// BindAddress is the IP address to bind to. Defaults to localhost.
	BindAddress string

	// Port is the TCP port to listen on.
	Port int

	// MaxConnections limits the number of concurrent client connections.
	// 0 means unlimited.
	MaxConnections int

	// ShutdownTimeout is the maximum duration to wait for session goroutines
	// to finish during shutdown before force-closing.
	ShutdownTimeout time.Duration
}

// Adapter owns the TCP listener and the lifecycle of all chat sessions.
//
// All exported methods are safe for concurrent use. Shutdown is idempotent:
// it may be triggered by context cancellation or Stop, in any order.
type Adapter struct {
	// Config holds the listener configuration.
	Config Config

	dispatcher *Dispatcher
	metrics    metrics.ChatMetrics

	// listener accepts client connections; closed on shutdown.
	listener   net.Listener
	listenerMu sync.RWMutex

	// ListenerReady is closed when the listener is accepting connections.
	// Used by tests to synchronize with server startup.
	ListenerReady chan struct{}

	// Shutdown signals that shutdown has been initiated.
	Shutdown     chan struct{}
	shutdownOnce sync.Once

	// activeConns tracks session goroutines for shutdown.
	activeConns sync.WaitGroup
	connCount   atomic.Int32

	// connSemaphore limits concurrent connections when MaxConnections > 0.
	connSemaphore chan struct{}

	// activeSessions maps remote address to *Session for forced closure.
	activeSessions sync.Map
}

// New creates a chat adapter serving the given dispatcher.
//
// Metrics may be nil to disable collection.
func New(config Config, dispatcher *Dispatcher, m metrics.ChatMetrics) *Adapter {
	if config.BindAddress == "" {
		config.BindAddress = "localhost"
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 5 * time.Second
	}

	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
	}

	return &Adapter{
		Config:        config,
		dispatcher:    dispatcher,
		metrics:       m,
		ListenerReady: make(chan struct{}),
		Shutdown:      make(chan struct{}),
		connSemaphore: connSemaphore,
	}
}

// Serve runs the accept loop until the context is cancelled or a fatal
// listener error occurs.
//
// Returns:
//   - nil on graceful shutdown
//   - an error if the listener cannot be created or shutdown timed out
func (a *Adapter) Serve(ctx context.Context) error {
	listenAddr := fmt.Sprintf("%s:%d", a.Config.BindAddress, a.Config.Port)
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to create chat listener on %s: %w", listenAddr, err)
	}

	a.listenerMu.Lock()
	a.listener = listener
	a.listenerMu.Unlock()
	close(a.ListenerReady)

	logger.Info("Chat server listening", "address", listener.Addr().String())

	// Monitor context cancellation in a separate goroutine
	go func() {
		<-ctx.Done()
		logger.Info("Chat shutdown signal received", "error", ctx.Err())
		a.initiateShutdown()
	}()

	for {
		if a.connSemaphore != nil {
			select {
			case a.connSemaphore <- struct{}{}:
			case <-a.Shutdown:
				return a.awaitSessions()
			}
		}

		conn, err := a.listener.Accept()
		if err != nil {
			if a.connSemaphore != nil {
				<-a.connSemaphore
			}

			select {
			case <-a.Shutdown:
				// Expected error: listener closed during shutdown
				return a.awaitSessions()
			default:
				logger.Debug("Error accepting chat connection", "error", err)
				continue
			}
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				logger.Debug("Failed to set TCP_NODELAY", "error", err)
			}
		}

		a.activeConns.Add(1)
		count := a.connCount.Add(1)

		session := newSession(a, conn)
		addr := conn.RemoteAddr().String()
		a.activeSessions.Store(addr, session)

		if a.metrics != nil {
			a.metrics.RecordConnectionAccepted()
			a.metrics.SetActiveConnections(count)
		}

		logger.Info("Accepted connection", "address", addr, "active", count)

		go func() {
			defer func() {
				a.activeSessions.Delete(addr)
				a.activeConns.Done()
				remaining := a.connCount.Add(-1)
				if a.connSemaphore != nil {
					<-a.connSemaphore
				}

				if a.metrics != nil {
					a.metrics.RecordConnectionClosed()
					a.metrics.SetActiveConnections(remaining)
				}

				logger.Info("Connection closed", "address", addr, "active", remaining)
			}()

			session.serve(ctx)
		}()
	}
}

// initiateShutdown closes the listener and every session socket.
//
// Pending outbound replies are intentionally not flushed: clients of a
// shutting-down server observe EOF, not a trailing burst of messages.
// Safe to call multiple times and from multiple goroutines.
func (a *Adapter) initiateShutdown() {
	a.shutdownOnce.Do(func() {
		logger.Debug("Chat shutdown initiated")

		close(a.Shutdown)

		a.listenerMu.Lock()
		if a.listener != nil {
			if err := a.listener.Close(); err != nil {
				logger.Debug("Error closing chat listener", "error", err)
			}
		}
		a.listenerMu.Unlock()

		a.activeSessions.Range(func(_, value any) bool {
			if s, ok := value.(*Session); ok {
				s.Close()
			}
			return true
		})
	})
}

// awaitSessions waits for session goroutines to finish, up to the shutdown
// timeout. Sockets are already closed by initiateShutdown, so this normally
// completes within one read-poll tick.
func (a *Adapter) awaitSessions() error {
	active := a.connCount.Load()
	logger.Info("Chat shutdown: waiting for sessions", "active", active, "timeout", a.Config.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		a.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Chat shutdown complete")
		return nil

	case <-time.After(a.Config.ShutdownTimeout):
		remaining := a.connCount.Load()
		logger.Warn("Chat shutdown timeout exceeded", "active", remaining)
		if a.metrics != nil {
			for i := int32(0); i < remaining; i++ {
				a.metrics.RecordConnectionForceClosed()
			}
		}
		return fmt.Errorf("chat shutdown timeout: %d sessions still active", remaining)
	}
}

// Stop initiates shutdown without a context. Safe to call concurrently with
// Serve.
func (a *Adapter) Stop() {
	a.initiateShutdown()
}

// ActiveConnections returns the current number of live sessions.
func (a *Adapter) ActiveConnections() int32 {
	return a.connCount.Load()
}

// ListenerAddr returns the address the server is listening on.
// Blocks until the listener is ready, making it safe for tests that start
// Serve on port 0.
func (a *Adapter) ListenerAddr() string {
	<-a.ListenerReady

	a.listenerMu.RLock()
	defer a.listenerMu.RUnlock()

	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}
