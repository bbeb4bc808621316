package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"QuantDesk/internal/domain/repository"
	"QuantDesk/pkg/logger"
)

const acceptRetryDelay = 50 * time.Millisecond

// Listener accepts client connections and serves each in its own goroutine.
type Listener struct {
	addr    string
	engine  Engine
	log     *logger.Logger
	metrics repository.Metrics

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewListener creates a TCP listener for addr (host:port).
func NewListener(addr string, engine Engine, log *logger.Logger, metrics repository.Metrics) *Listener {
	return &Listener{addr: addr, engine: engine, log: log, metrics: metrics,
		conns: make(map[net.Conn]struct{})}
}

// Start binds the address and begins accepting in a background goroutine.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", l.addr, err)
	}
	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()

	l.log.Info("tcp server listening", logger.String("addr", ln.Addr().String()))
	l.wg.Add(1)
	go l.acceptLoop(ctx)
	return nil
}

// Addr returns the bound address, useful when the port was 0.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Stop closes the listener and every live session, then waits for their
// goroutines to finish.
func (l *Listener) Stop() {
	l.mu.Lock()
	if l.ln != nil {
		_ = l.ln.Close()
	}
	for conn := range l.conns {
		_ = conn.Close()
	}
	l.mu.Unlock()
	l.wg.Wait()
	l.log.Info("tcp server stopped")
}

func (l *Listener) acceptLoop(ctx context.Context) {
	defer l.wg.Done()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			// transient accept failure (fd exhaustion, aborted handshake)
			l.log.Warn("accept failed", logger.Error(err))
			time.Sleep(acceptRetryDelay)
			continue
		}
		l.mu.Lock()
		l.conns[conn] = struct{}{}
		l.mu.Unlock()

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			NewSession(conn, l.engine, l.log, l.metrics).Serve(ctx)
			l.mu.Lock()
			delete(l.conns, conn)
			l.mu.Unlock()
		}()
	}
}
