package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/marmos91/parley/internal/logger"
	"github.com/marmos91/parley/pkg/identity"
)

// Session is the server-side state of one client connection.
//
// A session's lifetime equals the connection's: created on accept, destroyed
// on peer close, fatal socket error, or server shutdown. Teardown always
// releases the bound user so the identity can log in again.
type Session struct {
	adapter *Adapter
	conn    net.Conn

	// mu guards user, outbound, and closed.
	mu       sync.Mutex
	user     *identity.User
	outbound []string
	closed   bool

	// readBuf accumulates the partial trailing line between reads. Only the
	// read loop touches it.
	readBuf []byte

	// notify wakes the write loop when outbound becomes non-empty.
	notify chan struct{}

	// done is closed exactly once on teardown.
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(a *Adapter, conn net.Conn) *Session {
	return &Session{
		adapter: a,
		conn:    conn,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// User returns the identity this session is logged in as, or nil.
func (s *Session) User() *identity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// SetUser binds the session to a user after a successful LOGIN.
func (s *Session) SetUser(u *identity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// Push enqueues one outbound line for delivery and returns immediately.
//
// Implements identity.Pusher, so broadcasts from other sessions' dispatch
// goroutines land here. Lines pushed to a closed session are dropped.
func (s *Session) Push(line string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.outbound = append(s.outbound, line)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Close tears the session down: the bound user (if any) is released, the
// socket is closed, and both loops are signalled to exit. Idempotent and
// safe to call from any goroutine; pending outbound lines are discarded.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		user := s.user
		s.user = nil
		s.mu.Unlock()

		if user != nil {
			s.adapter.dispatcher.users.Logout(user)
		}

		close(s.done)
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Debug("Error closing session socket", "address", s.conn.RemoteAddr(), "error", err)
		}
	})
}

// serve runs the session until the peer disconnects, a fatal error occurs,
// or the server shuts down. It owns the read-and-dispatch path; a second
// goroutine drains the outbound queue.
func (s *Session) serve(ctx context.Context) {
	defer s.Close()

	go s.writeLoop()

	addr := s.conn.RemoteAddr().String()
	buf := make([]byte, recvBufferSize)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.adapter.Shutdown:
			return
		case <-s.done:
			return
		default:
		}

		// The deadline doubles as the shutdown poll tick: a quiet connection
		// re-checks the channels above at least once per interval.
		if err := s.conn.SetReadDeadline(time.Now().Add(readPollInterval)); err != nil {
			logger.Debug("Failed to set read deadline", "address", addr, "error", err)
			return
		}

		n, err := s.conn.Read(buf)
		if n > 0 {
			s.ingest(buf[:n])
		}

		if err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				continue
			case errors.Is(err, io.EOF):
				logger.Info("Peer closed connection", "address", addr)
				return
			case errors.Is(err, net.ErrClosed):
				return
			default:
				logger.Warn("Read error", "address", addr, "error", err)
				return
			}
		}
	}
}

// ingest frames newly received bytes into request lines and dispatches each
// complete line in arrival (FIFO) order.
//
// The final fragment after the last newline stays buffered until the next
// read. Empty lines are dropped. A line that is not valid UTF-8 is logged
// and discarded; the connection stays open.
func (s *Session) ingest(data []byte) {
	s.readBuf = append(s.readBuf, data...)

	for {
		idx := bytes.IndexByte(s.readBuf, '\n')
		if idx < 0 {
			return
		}

		line := s.readBuf[:idx]
		s.readBuf = s.readBuf[idx+1:]

		if len(line) == 0 {
			continue
		}
		if !utf8.Valid(line) {
			logger.Warn("Discarding undecodable request line", "address", s.conn.RemoteAddr(), "bytes", len(line))
			continue
		}

		s.adapter.dispatcher.Dispatch(s, string(line))
	}
}

// writeLoop drains the outbound queue to the socket, appending the newline
// terminator to every line. Exits on teardown or write failure; a failed
// write tears the session down since the peer is unreachable.
func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.notify:
		}

		for {
			s.mu.Lock()
			if len(s.outbound) == 0 {
				s.mu.Unlock()
				break
			}
			line := s.outbound[0]
			s.outbound = s.outbound[1:]
			s.mu.Unlock()

			wire := make([]byte, 0, len(line)+1)
			wire = append(wire, line...)
			wire = append(wire, '\n')

			if _, err := s.conn.Write(wire); err != nil {
				if !errors.Is(err, net.ErrClosed) {
					logger.Warn("Write error", "address", s.conn.RemoteAddr(), "error", err)
				}
				s.Close()
				return
			}
		}
	}
}
