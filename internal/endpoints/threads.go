package endpoints

import (
	"encoding/json"

	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/store"
)

func threadOrderByFromQuery(req *httpserver.Request) store.ThreadOrderBy {
	raw, _ := req.QueryParam("orderBy")
	switch string(raw) {
	case "created":
		return store.ThreadByCreated
	case "lastupdated":
		return store.ThreadByLastUpdated
	case "latestmessage":
		return store.ThreadByLatestMessageCreated
	case "messagecount":
		return store.ThreadByMessageCount
	case "pinorder":
		return store.ThreadByPinDisplayOrder
	default:
		return store.ThreadByName
	}
}

// ListThreads: GET threads
func (d *Deps) ListThreads(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	dc := displayContext(req)
	threads := d.Repos.Threads.ListThreads(dc, threadOrderByFromQuery(req))
	writeStatus(resp, store.OK, newThreadDTOs(threads))
}

// ListThreadsByTag: GET threads/tag/<tagId>
func (d *Deps) ListThreadsByTag(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	tagID, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	writeStatus(resp, store.OK, newThreadDTOs(d.Repos.Threads.ListThreadsByTag(tagID)))
}

// GetThreadByID: GET threads/id/<id>, honoring If-Modified-Since via the
// checkNotChangedSince query parameter (§4.1).
func (d *Deps) GetThreadByID(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	dc := displayContext(req)
	if raw, has := req.QueryParam("checkNotChangedSince"); has {
		if n, err := parseTimestamp(raw); err == nil {
			dc.CheckNotChangedSince = n
		}
	}
	if status := d.Repos.Threads.CheckNotModifiedSince(id, dc); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	t, found := d.Repos.Threads.GetByID(id)
	if !found {
		writeStatusOnly(resp, store.NotFound)
		return
	}
	d.Repos.Threads.IncrementVisits(id, 1)
	writeStatus(resp, store.OK, newThreadDTO(t))
}

type addThreadRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// AddThread: POST threads
func (d *Deps) AddThread(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	if status := d.checkAndThrottle(ac, entities.PrivAddNewDiscussionThread, authz.ActionNewContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	var body addThreadRequest
	if len(req.Body) > 0 && req.Body[0] == '{' {
		if json.Unmarshal(req.Body, &body) != nil {
			writeStatusOnly(resp, store.InvalidParameters)
			return
		}
	} else {
		body.Name = string(req.Body)
	}
	tagIDs := make([]idgen.ID, 0, len(body.Tags))
	for _, s := range body.Tags {
		if id, err := idgen.ParseID(s); err == nil {
			tagIDs = append(tagIDs, id)
		}
	}
	status, t := d.Repos.Threads.AddThread(ac.obs, body.Name, tagIDs)
	if status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	writeStatus(resp, store.OK, newThreadDTO(t))
}

// UpdateThreadName: PUT threads/name/<id> (body = new name)
func (d *Deps) UpdateThreadName(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivEditDiscussionThread, id, d.Repos.Collection.CheckThread, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Threads.UpdateName(ac.obs, id, string(req.Body))
	writeStatusOnly(resp, status)
}

// UpdateThreadPinOrder: PUT threads/pin/<id>/<order>
func (d *Deps) UpdateThreadPinOrder(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	order, ok := pathInt(req, 1)
	if !ok {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivEditDiscussionThread, id, d.Repos.Collection.CheckThread, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Threads.UpdatePinOrder(ac.obs, id, order)
	writeStatusOnly(resp, status)
}

// UpdateThreadApproval: PUT threads/approval/<id>/<0|1>
func (d *Deps) UpdateThreadApproval(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	flag, ok := pathInt(req, 1)
	if !ok {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivEditDiscussionThread, id, d.Repos.Collection.CheckThread, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Threads.UpdateApproval(ac.obs, id, flag != 0)
	writeStatusOnly(resp, status)
}

// DeleteThread: DELETE threads/<id>
func (d *Deps) DeleteThread(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivDeleteDiscussionThread, id, d.Repos.Collection.CheckThread, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Threads.DeleteThread(ac.obs, id)
	writeStatusOnly(resp, status)
}

// SubscribeToThread: POST threads/subscribe/<id>
func (d *Deps) SubscribeToThread(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivSubscribeToThread, id, d.Repos.Collection.CheckThread, authz.ActionSubscribe); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Threads.Subscribe(ac.obs, id, ac.obs.PerformedBy)
	writeStatusOnly(resp, status)
}

// UnsubscribeFromThread: POST threads/unsubscribe/<id>
func (d *Deps) UnsubscribeFromThread(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivUnsubscribeFromThread, id, d.Repos.Collection.CheckThread, authz.ActionSubscribe); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Threads.Unsubscribe(ac.obs, id, ac.obs.PerformedBy)
	writeStatusOnly(resp, status)
}

// AttachTagToThread: POST threads/tag/<threadId>/<tagId>
func (d *Deps) AttachTagToThread(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	threadID, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	tagID, ok := pathID(req, resp, 1)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivAttachTagToThread, threadID, d.Repos.Collection.CheckThread, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Threads.AttachTag(ac.obs, threadID, tagID)
	writeStatusOnly(resp, status)
}

// DetachTagFromThread: DELETE threads/tag/<threadId>/<tagId>
func (d *Deps) DetachTagFromThread(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	threadID, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	tagID, ok := pathID(req, resp, 1)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivDetachTagFromThread, threadID, d.Repos.Collection.CheckThread, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Threads.DetachTag(ac.obs, threadID, tagID)
	writeStatusOnly(resp, status)
}

// MergeThreads: POST threads/merge/<dstId> (body = newline-separated source ids)
func (d *Deps) MergeThreads(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	dst, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivMergeDiscussionThreads, dst, d.Repos.Collection.CheckThread, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	srcs := splitIDs(req.Body)
	status := d.Repos.Threads.MergeThreads(ac.obs, dst, srcs)
	writeStatusOnly(resp, status)
}
