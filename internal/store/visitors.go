package store

import (
	"net"
	"sync"

	"github.com/danij/Forum-sub001/internal/idgen"
)

// Visitors tracks anonymous hits by source IP over a trailing window
// (§5 "the visitor collection"; §6.4 visitorOnlineForSeconds), so the
// online-user count includes unauthenticated traffic alongside logged-in
// users' lastSeen timestamps. It is deliberately separate from the
// entity collection: visitor entries are not persisted to the event log,
// since they carry no durable meaning once the process restarts.
type Visitors struct {
	mu       sync.Mutex
	lastSeen map[string]idgen.Timestamp
}

func NewVisitors() *Visitors {
	return &Visitors{lastSeen: make(map[string]idgen.Timestamp)}
}

// Touch records ip as seen at now, coalescing repeated hits from the same
// address.
func (v *Visitors) Touch(ip net.IP, now idgen.Timestamp) {
	if ip == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastSeen[ip.String()] = now
}

// Count returns the number of distinct IPs seen within windowSeconds of
// now, pruning everything older as it goes.
func (v *Visitors) Count(now idgen.Timestamp, windowSeconds int64) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	cutoff := int64(now) - windowSeconds
	for ip, seen := range v.lastSeen {
		if int64(seen) < cutoff {
			delete(v.lastSeen, ip)
		}
	}
	return len(v.lastSeen)
}
