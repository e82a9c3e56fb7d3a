package httpserver

import (
	"net"
	"sync"
	"time"
)

// Config bundles the §6.4 persistence-independent knobs that size a
// running server: buffer pool dimensions, the connection cap, idle
// timeout, trusted-proxy flag and response prefix.
type Config struct {
	ListenAddr string

	ReadBufferCount, ReadBufferSize   int
	WriteBufferCount, WriteBufferSize int

	MaxConnections     int
	IdleTimeoutSeconds int64
	TrustedProxy       bool
	ResponsePrefix     string
}

// Server owns the listener, buffer pools and connection manager, mirroring
// the accept-loop-plus-semaphore shape of a socket-serving daemon: one
// goroutine per accepted connection, gated by a buffered channel acting as
// a connection-count semaphore.
type Server struct {
	cfg    Config
	pools  *BufferPools
	conns  *ConnectionManager
	router *Router

	listener net.Listener
	sem      chan struct{}

	mu       sync.Mutex
	shutdown bool
	stopOnce sync.Once
	doneCh   chan struct{}
}

// NewServer wires a server around router; Start begins accepting.
func NewServer(cfg Config, router *Router) *Server {
	pools := NewBufferPools(cfg.ReadBufferCount, cfg.ReadBufferSize, cfg.WriteBufferCount, cfg.WriteBufferSize)
	return &Server{
		cfg:    cfg,
		pools:  pools,
		conns:  NewConnectionManager(pools, time.Duration(cfg.IdleTimeoutSeconds)*time.Second, cfg.TrustedProxy),
		router: router,
		sem:    make(chan struct{}, cfg.MaxConnections),
		doneCh: make(chan struct{}),
	}
}

// Start opens the listener and runs the accept loop until Stop is called.
// It blocks the calling goroutine; callers typically invoke it from a
// dedicated goroutine.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.conns.Start()
	defer s.conns.Stop()
	defer close(s.doneCh)

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			shutdown := s.shutdown
			s.mu.Unlock()
			if shutdown {
				return nil
			}
			return err
		}

		select {
		case s.sem <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-s.sem }()
				s.conns.Accept(c, s.router, s.cfg.ResponsePrefix)
			}(conn)
		default:
			conn.Close()
		}
	}
}

// Stop closes the listener, causing Start's accept loop to return, and
// force-disconnects every still-open connection.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.shutdown = true
		listener := s.listener
		s.mu.Unlock()
		if listener != nil {
			listener.Close()
		}
	})
	<-s.doneCh
}

// ActiveConnections reports the current open-connection count.
func (s *Server) ActiveConnections() int64 {
	return s.conns.ActiveConnections()
}

// Pools exposes the buffer pools for diagnostics.
func (s *Server) Pools() *BufferPools {
	return s.pools
}
