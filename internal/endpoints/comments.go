package endpoints

import (
	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/danij/Forum-sub001/internal/store"
)

// ListCommentsByMessage: GET message_comments/<messageId>
func (d *Deps) ListCommentsByMessage(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	messageID, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	writeStatus(resp, store.OK, newCommentDTOs(d.Repos.Comments.ListByMessage(messageID)))
}

// AddComment: POST message_comments/<messageId> (body = content)
func (d *Deps) AddComment(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	messageID, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivAddComment, messageID, d.checkMessage, authz.ActionNewContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status, c := d.Repos.Comments.AddComment(ac.obs, messageID, string(req.Body))
	if status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	writeStatus(resp, store.OK, newCommentDTO(c))
}

// SolveComment: PUT message_comments/solved/<id>/<0|1>
func (d *Deps) SolveComment(req *httpserver.Request, resp *httpserver.Response) {
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
	c, found := d.Repos.Comments.GetByID(id)
	if !found {
		writeStatusOnly(resp, store.NotFound)
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivSetCommentToSolved, c.ParentMessage, d.checkMessage, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Comments.SolveComment(ac.obs, id, flag != 0)
	writeStatusOnly(resp, status)
}

// DeleteComment: DELETE message_comments/<id>
func (d *Deps) DeleteComment(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	c, found := d.Repos.Comments.GetByID(id)
	if !found {
		writeStatusOnly(resp, store.NotFound)
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivDeleteComment, c.ParentMessage, d.checkMessage, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Comments.DeleteComment(ac.obs, id)
	writeStatusOnly(resp, status)
}
