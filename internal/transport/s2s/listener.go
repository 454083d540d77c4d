// Package s2s implements the optional inbound remote-process-group listener
// (spec.md §6: `remote.input.socket.port`, `site.to.site.secure`).
package s2s

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"flowcore/internal/ferrors"
	"flowcore/pkg/logger"
)

// Handler processes one accepted remote-process-group connection.
type Handler func(conn net.Conn)

// Listener accepts inbound site-to-site connections on a configured port,
// optionally behind TLS.
type Listener struct {
	addr     string
	tlsConf  *tls.Config
	handler  Handler
	log      *logger.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// New constructs a Listener bound to port. If secure is true, certFile/
// keyFile must both be non-empty — an absent certificate with secure=true
// is a hard configuration error (spec.md §6), returned by New itself.
func New(port int, secure bool, certFile, keyFile string, handler Handler, log *logger.Logger) (*Listener, error) {
	l := &Listener{addr: fmt.Sprintf(":%d", port), handler: handler, log: log}
	if secure {
		if certFile == "" || keyFile == "" {
			return nil, ferrors.New(ferrors.ErrCodeInvalidArgument, "site.to.site.secure requires both a certificate and key file")
		}
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, ferrors.Instantiation("s2s.tls", err)
		}
		l.tlsConf = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	}
	return l, nil
}

// Name satisfies system.Service.
func (l *Listener) Name() string { return "s2s-listener" }

// Start binds the listener and begins accepting connections in the
// background. It satisfies system.Service.
func (l *Listener) Start(ctx context.Context) error {
	var ln net.Listener
	var err error
	if l.tlsConf != nil {
		ln, err = tls.Listen("tcp", l.addr, l.tlsConf)
	} else {
		ln, err = net.Listen("tcp", l.addr)
	}
	if err != nil {
		return ferrors.Communication(l.addr, err)
	}

	l.mu.Lock()
	l.listener = ln
	l.mu.Unlock()

	l.wg.Add(1)
	go l.acceptLoop(ctx, ln)
	return nil
}

// Stop closes the listener and waits for the accept loop to exit.
func (l *Listener) Stop(ctx context.Context) error {
	l.mu.Lock()
	ln := l.listener
	l.listener = nil
	l.mu.Unlock()
	if ln == nil {
		return nil
	}
	err := ln.Close()
	l.wg.Wait()
	return err
}

func (l *Listener) acceptLoop(ctx context.Context, ln net.Listener) {
	defer l.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			l.mu.Lock()
			closed := l.listener == nil
			l.mu.Unlock()
			if closed {
				return
			}
			if l.log != nil {
				l.log.WithField("err", err).Debug("s2s accept failed")
			}
			continue
		}
		if l.handler != nil {
			go l.handler(conn)
		} else {
			conn.Close()
		}
	}
}
