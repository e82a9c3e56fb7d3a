package httpserver

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danij/Forum-sub001/internal/index"
)

// ConnectionManager tracks every open connection and pairs each with a
// companion timeout manager that force-disconnects idle ones (§4.6).
type ConnectionManager struct {
	pools   *BufferPools
	idle    time.Duration
	trustedProxy bool

	mu      sync.Mutex
	conns   map[int64]*connState
	nextID  int64

	timeouts *index.Ordered[int64] // keyed by expireAt (unix nanos), id is the connection id

	stop chan struct{}
	wg   sync.WaitGroup

	activeCount atomic.Int64
}

type connState struct {
	id       int64
	conn     net.Conn
	expireAt int64
}

// NewConnectionManager creates a manager that leases its buffers from
// pools and disconnects a connection after idle has elapsed since its last
// request. trustedProxy, when true, makes RemoteAddr honor
// X-Forwarded-For.
func NewConnectionManager(pools *BufferPools, idle time.Duration, trustedProxy bool) *ConnectionManager {
	return &ConnectionManager{
		pools:        pools,
		idle:         idle,
		trustedProxy: trustedProxy,
		conns:        make(map[int64]*connState),
		timeouts:     index.NewOrdered[int64](func(a, b int64) bool { return a < b }),
		stop:         make(chan struct{}),
	}
}

// Start launches the periodic timeout sweep.
func (m *ConnectionManager) Start() {
	m.wg.Add(1)
	go m.sweepLoop()
}

// Stop halts the sweep and closes every still-open connection.
func (m *ConnectionManager) Stop() {
	close(m.stop)
	m.wg.Wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cs := range m.conns {
		cs.conn.Close()
	}
}

func (m *ConnectionManager) sweepLoop() {
	defer m.wg.Done()
	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-tick.C:
			m.sweepExpired()
		}
	}
}

func (m *ConnectionManager) sweepExpired() {
	now := time.Now().UnixNano()
	var toClose []net.Conn

	m.mu.Lock()
	for {
		ids := m.timeouts.Page(0, 1, true)
		if len(ids) == 0 {
			break
		}
		connID, _ := strconv.ParseInt(ids[0], 10, 64)
		cs, ok := m.conns[connID]
		if !ok || cs.expireAt > now {
			break
		}
		m.timeouts.Remove(cs.expireAt, ids[0])
		delete(m.conns, connID)
		m.activeCount.Add(-1)
		toClose = append(toClose, cs.conn)
	}
	m.mu.Unlock()

	for _, c := range toClose {
		c.Close()
	}
}

// register tracks conn under a fresh id and schedules its first idle
// deadline.
func (m *ConnectionManager) register(conn net.Conn) *connState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cs := &connState{id: m.nextID, conn: conn, expireAt: time.Now().Add(m.idle).UnixNano()}
	m.conns[cs.id] = cs
	m.timeouts.Insert(cs.expireAt, strconv.FormatInt(cs.id, 10))
	m.activeCount.Add(1)
	return cs
}

// touch pushes out conn's idle deadline, as handleConnection does after
// every completed request (Keep-Alive resets the timer, not just the
// buffers).
func (m *ConnectionManager) touch(cs *connState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts.Remove(cs.expireAt, strconv.FormatInt(cs.id, 10))
	cs.expireAt = time.Now().Add(m.idle).UnixNano()
	m.timeouts.Insert(cs.expireAt, strconv.FormatInt(cs.id, 10))
}

// unregister removes conn from tracking, e.g. once its handler loop exits
// on its own (client closed, parse error, non-Keep-Alive response).
func (m *ConnectionManager) unregister(cs *connState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conns[cs.id]; !ok {
		return
	}
	delete(m.conns, cs.id)
	m.timeouts.Remove(cs.expireAt, strconv.FormatInt(cs.id, 10))
	m.activeCount.Add(-1)
}

// ActiveConnections reports the number of connections currently tracked,
// for /metrics-style reporting.
func (m *ConnectionManager) ActiveConnections() int64 {
	return m.activeCount.Load()
}

// Accept registers conn and runs its request loop with router, leasing
// buffers from the manager's pools for the connection's lifetime.
func (m *ConnectionManager) Accept(conn net.Conn, router *Router, responsePrefix string) {
	cs := m.register(conn)
	defer func() {
		m.unregister(cs)
		conn.Close()
	}()

	readBuf := m.pools.Read.Lease()
	defer m.pools.Read.Release(readBuf)

	writeBuf := m.pools.Write.Lease()
	defer m.pools.Write.Release(writeBuf)

	bw := bufio.NewWriterSize(conn, len(*writeBuf))
	parser := NewParser(*readBuf)
	req := &Request{}
	resp := NewResponse(bw, responsePrefix)

	for {
		status, err := parser.Parse(conn, req, makeBodySink(req))
		if err != nil {
			return
		}
		if status != ParseOK {
			resp.reset(bw)
			resp.WriteStatus(status.HTTPStatus())
			resp.WriteEmptyBody()
			bw.Flush()
			return
		}

		req.RemoteIP, _ = m.remoteAddr(conn, req)

		resp.reset(bw)
		router.Dispatch(req, resp)
		bw.Flush()

		keepAlive := shouldKeepAlive(req)
		m.touch(cs)
		parser.Reset()
		if !keepAlive {
			return
		}
	}
}

// shouldKeepAlive honors HTTP/1.1's keep-alive-by-default and HTTP/1.0's
// opt-in Connection: keep-alive, and either version's explicit
// Connection: close.
func shouldKeepAlive(req *Request) bool {
	if conn, ok := req.Header("Connection"); ok {
		v := strings.ToLower(string(conn))
		if strings.Contains(v, "close") {
			return false
		}
		if strings.Contains(v, "keep-alive") {
			return true
		}
	}
	return req.Version == "HTTP/1.1"
}

// remoteAddr resolves the logical client address: the socket peer, unless
// the deployment is configured to trust a reverse proxy, in which case the
// first X-Forwarded-For value is used instead (§4.6).
func (m *ConnectionManager) remoteAddr(conn net.Conn, req *Request) (net.IP, bool) {
	if m.trustedProxy {
		if xff, ok := req.Header("X-Forwarded-For"); ok {
			first := xff
			for i, c := range xff {
				if c == ',' {
					first = xff[:i]
					break
				}
			}
			if ip := net.ParseIP(strings.TrimSpace(string(first))); ip != nil {
				return ip, true
			}
		}
	}
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return nil, false
	}
	return net.ParseIP(host), false
}

// makeBodySink assembles a request body into req.Body across up to
// MaxReadChunks appends, refusing (and so failing the request with
// PayloadTooLarge) once that chain is exhausted (§4.6: "bounded ...
// compile-time").
func makeBodySink(req *Request) BodySink {
	chunks := 0
	return func(chunk []byte) bool {
		chunks++
		if chunks > MaxReadChunks {
			return false
		}
		req.Body = append(req.Body, chunk...)
		return true
	}
}
