package store

import (
	"net"
	"sync"

	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/index"
)

// Collection is the single in-memory entity graph (§3, §4.2): one owning
// set per entity type plus every secondary index the service's queries
// need, all guarded by one reader/writer lock. There is exactly one
// Collection per running process (§5: "Entity collection: one instance").
//
// Collection itself knows nothing about authorization, throttling, or the
// event log — those are layered on top by the Repository types in this
// package and by internal/authz. Collection only ever does two things:
// maintain the entity graph, and keep every index in exact agreement with
// it (§3 invariant, §4.1 "replace at iterator" contract).
type Collection struct {
	mu sync.RWMutex

	// batchMode suspends derived-index maintenance that is expensive to
	// keep incrementally correct during a large event-log replay (§4.4
	// step 7, §9 "Batch-insert mode"). rebuildDerivedIndexesLocked restores
	// consistency once batch mode ends.
	batchMode bool

	users      map[string]*entities.User
	usersByAuth map[string]string // auth handle -> user id, unique
	usersByName *index.Ordered[string]
	usersByCreated *index.Ordered[idgen.Timestamp]
	usersByLastSeen *index.Ordered[idgen.Timestamp]
	usersByThreadCount *index.Ordered[int]
	usersByMessageCount *index.Ordered[int]

	threads                       map[string]*entities.DiscussionThread
	threadsByName                 *index.Ordered[string]
	threadsByCreated              *index.Ordered[idgen.Timestamp]
	threadsByLastUpdated          *index.Ordered[idgen.Timestamp]
	threadsByLatestMessageCreated *index.Ordered[idgen.Timestamp]
	threadsByMessageCount         *index.Ordered[int]
	threadsByPinDisplayOrder      *index.Ordered[int]
	threadsByTag                  *index.Hashed[string] // tag id -> thread ids
	threadsByUser                 *index.Hashed[string] // creator id -> thread ids

	messages          map[string]*entities.DiscussionThreadMessage
	messagesByCreated *index.Ordered[idgen.Timestamp]
	messagesByThread  map[string]*index.Ordered[idgen.Timestamp] // thread id -> ranked-by-created
	messagesByUser    *index.Hashed[string]                      // author id -> message ids

	comments          map[string]*entities.MessageComment
	commentsByMessage *index.Hashed[string]

	tags                map[string]*entities.DiscussionTag
	tagsByName          *index.Ordered[string]
	tagsByThread        *index.Hashed[string] // thread id -> tag ids (inverse of thread.Tags)

	categories       map[string]*entities.DiscussionCategory
	categoriesByName *index.Ordered[string]

	requiredPrivileges entities.RequiredPrivilegeTable
	requiredOverrides  map[entities.RequiredPrivilegeOverrideKey]int
	assignedPrivileges map[entities.AssignedPrivilegeKey]entities.AssignedPrivilegeGrant

	// pendingVisitDeltas accumulates per-thread visit counts between
	// event-log flushes (§3 "visited counter batched in memory"; §4.3 "the
	// writer ... coalesces many calls into one
	// INCREMENT_DISCUSSION_THREAD_NUMBER_OF_VISITS record on rotation").
	pendingVisitDeltas map[string]uint32

	observers []Observer

	// Visitors tracks anonymous-hit source IPs for the online-user count
	// (§5, §6.4 visitorOnlineForSeconds); it has its own mutex and sits
	// outside the entity graph's lock.
	Visitors *Visitors
}

// NewCollection creates an empty collection seeded with the sentinel
// anonymous user (§3).
func NewCollection() *Collection {
	c := &Collection{
		users:       make(map[string]*entities.User),
		usersByAuth: make(map[string]string),
		usersByName: index.NewOrdered(stringLess),
		usersByCreated: index.NewOrdered(timestampLess),
		usersByLastSeen: index.NewOrdered(timestampLess),
		usersByThreadCount: index.NewOrdered(intLess),
		usersByMessageCount: index.NewOrdered(intLess),

		threads:                       make(map[string]*entities.DiscussionThread),
		threadsByName:                 index.NewOrdered(stringLess),
		threadsByCreated:              index.NewOrdered(timestampLess),
		threadsByLastUpdated:          index.NewOrdered(timestampLess),
		threadsByLatestMessageCreated: index.NewOrdered(timestampLess),
		threadsByMessageCount:         index.NewOrdered(intLess),
		threadsByPinDisplayOrder:      index.NewOrdered(intLess),
		threadsByTag:                  index.NewHashed[string](),
		threadsByUser:                 index.NewHashed[string](),

		messages:          make(map[string]*entities.DiscussionThreadMessage),
		messagesByCreated: index.NewOrdered(timestampLess),
		messagesByThread:  make(map[string]*index.Ordered[idgen.Timestamp]),
		messagesByUser:    index.NewHashed[string](),

		comments:          make(map[string]*entities.MessageComment),
		commentsByMessage: index.NewHashed[string](),

		tags:         make(map[string]*entities.DiscussionTag),
		tagsByName:   index.NewOrdered(stringLess),
		tagsByThread: index.NewHashed[string](),

		categories:       make(map[string]*entities.DiscussionCategory),
		categoriesByName: index.NewOrdered(stringLess),

		requiredPrivileges: make(entities.RequiredPrivilegeTable),
		requiredOverrides:  make(map[entities.RequiredPrivilegeOverrideKey]int),
		assignedPrivileges: make(map[entities.AssignedPrivilegeKey]entities.AssignedPrivilegeGrant),
		pendingVisitDeltas: make(map[string]uint32),
		Visitors:           NewVisitors(),
	}
	anon := entities.NewAnonymousUser()
	c.users[anon.ID.String()] = anon
	c.usersByName.Insert(anon.Name, anon.ID.String())
	c.usersByCreated.Insert(anon.Created, anon.ID.String())
	c.usersByLastSeen.Insert(anon.LastSeen, anon.ID.String())
	c.usersByThreadCount.Insert(0, anon.ID.String())
	c.usersByMessageCount.Insert(0, anon.ID.String())
	return c
}

func stringLess(a, b string) bool       { return a < b }
func intLess(a, b int) bool             { return a < b }
func timestampLess(a, b idgen.Timestamp) bool { return a < b }

// indexOrderedTimestamp creates an empty per-thread message rank index
// (§4.1 "ranked ordered index ... message rank within thread").
func indexOrderedTimestamp() *index.Ordered[idgen.Timestamp] {
	return index.NewOrdered(timestampLess)
}

// AddObserver registers a sink called synchronously, in registration
// order, while the writer lock is held (§9). The event-log writer (C6) is
// the only observer wired by cmd/forumd.
func (c *Collection) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

func (c *Collection) notify(evt WriteEvent) {
	for _, o := range c.observers {
		o.OnWrite(evt)
	}
}

// EnterBatchMode suspends expensive derived-index maintenance for the
// duration of an event-log import (§4.4 step 7, §9). Must be paired with
// ExitBatchMode, which runs rebuildDerivedIndexesLocked.
func (c *Collection) EnterBatchMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchMode = true
}

// ExitBatchMode turns batch mode off and rebuilds every derived index that
// was suspended.
func (c *Collection) ExitBatchMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchMode = false
	c.rebuildDerivedIndexesLocked()
}

// rebuildDerivedIndexesLocked recomputes every derived field/index from
// primary state. Must be called with mu held for writing.
func (c *Collection) rebuildDerivedIndexesLocked() {
	for id, t := range c.threads {
		c.recomputeThreadDerivedLocked(id, t)
	}
	for id, cat := range c.categories {
		c.recomputeCategoryCountersLocked(id, cat)
	}
}

func (c *Collection) recomputeThreadDerivedLocked(id string, t *entities.DiscussionThread) {
	c.threadsByMessageCount.Remove(t.MessageCount, id)
	c.threadsByLatestMessageCreated.Remove(t.LatestMessageCreated, id)

	t.MessageCount = len(t.Messages)
	latest := t.Created
	for _, mid := range t.Messages {
		m := c.messages[mid.String()]
		if m == nil || !m.Approved {
			continue
		}
		if m.Created > latest {
			latest = m.Created
		}
		if m.LastUpdated.At > latest {
			latest = m.LastUpdated.At
		}
	}
	t.LatestMessageCreated = latest
	if latest > t.LatestVisibleChange {
		t.LatestVisibleChange = latest
	}

	c.threadsByMessageCount.Insert(t.MessageCount, id)
	c.threadsByLatestMessageCreated.Insert(t.LatestMessageCreated, id)
}

func (c *Collection) recomputeCategoryCountersLocked(id string, cat *entities.DiscussionCategory) {
	// Transitive aggregation over descendants (§3): a recursive walk from
	// cat through its children, visiting each category once; correctness
	// does not depend on traversal order.
	var threadCount, messageCount int
	var walk func(c2 *entities.DiscussionCategory)
	visited := make(map[string]bool)
	walk = func(node *entities.DiscussionCategory) {
		key := node.ID.String()
		if visited[key] {
			return
		}
		visited[key] = true
		for _, tagID := range keysOf(node.Tags) {
			tag := c.tags[tagID]
			if tag == nil {
				continue
			}
			for threadID := range tag.Threads {
				threadCount++
				if th := c.threads[threadID.String()]; th != nil {
					messageCount += th.MessageCount
				}
			}
		}
		for _, childID := range node.Children {
			if child := c.categories[childID.String()]; child != nil {
				walk(child)
			}
		}
	}
	walk(cat)
	cat.ThreadCount = threadCount
	cat.MessageCount = messageCount
}

// DrainVisitDeltas returns and clears the accumulated per-thread visit
// deltas since the last drain (§4.3: the writer periodically coalesces
// these into one event per thread).
func (c *Collection) DrainVisitDeltas() map[string]uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pendingVisitDeltas) == 0 {
		return nil
	}
	out := c.pendingVisitDeltas
	c.pendingVisitDeltas = make(map[string]uint32)
	return out
}

func keysOf(m map[idgen.ID]struct{}) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id.String())
	}
	return out
}

// sourceIPOrUnspecified normalizes a possibly-nil net.IP the way every
// CreationDetails/LastUpdated.IP field expects it stored.
func sourceIPOrUnspecified(ip net.IP) net.IP {
	if ip == nil {
		return net.IPv4zero
	}
	return ip
}
