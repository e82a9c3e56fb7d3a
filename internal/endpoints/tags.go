package endpoints

import (
	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/danij/Forum-sub001/internal/store"
)

// ListTags: GET tags
func (d *Deps) ListTags(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	writeStatus(resp, store.OK, newTagDTOs(d.Repos.Tags.ListTags(displayContext(req))))
}

// GetTagByID: GET tags/id/<id>
func (d *Deps) GetTagByID(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	t, found := d.Repos.Tags.GetByID(id)
	if !found {
		writeStatusOnly(resp, store.NotFound)
		return
	}
	writeStatus(resp, store.OK, newTagDTO(t))
}

// AddTag: POST tags (body = name)
func (d *Deps) AddTag(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	if status := d.checkAndThrottle(ac, entities.PrivAddNewDiscussionTag, authz.ActionNewContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status, t := d.Repos.Tags.AddTag(ac.obs, string(req.Body), nil)
	if status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	writeStatus(resp, store.OK, newTagDTO(t))
}

// UpdateTagName: PUT tags/name/<id> (body = new name)
func (d *Deps) UpdateTagName(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.checkAndThrottle(ac, entities.PrivEditDiscussionTag, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Tags.UpdateTagName(ac.obs, id, string(req.Body))
	writeStatusOnly(resp, status)
}

// UpdateTagUI: PUT tags/ui/<id> (body = raw UI blob)
func (d *Deps) UpdateTagUI(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.checkAndThrottle(ac, entities.PrivEditDiscussionTag, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Tags.UpdateTagUI(ac.obs, id, req.Body)
	writeStatusOnly(resp, status)
}

// DeleteTag: DELETE tags/<id>
func (d *Deps) DeleteTag(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.checkAndThrottle(ac, entities.PrivDeleteDiscussionTag, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Tags.DeleteTag(ac.obs, id)
	writeStatusOnly(resp, status)
}

// MergeTags: POST tags/merge/<dstId>/<srcId>
func (d *Deps) MergeTags(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	dst, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	src, ok := pathID(req, resp, 1)
	if !ok {
		return
	}
	if status := d.checkAndThrottle(ac, entities.PrivDeleteDiscussionTag, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Tags.MergeTags(ac.obs, dst, src)
	writeStatusOnly(resp, status)
}
