package endpoints

import (
	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/store"
)

// ListMessagesByThread: GET thread_messages/<threadId>
func (d *Deps) ListMessagesByThread(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	threadID, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	dc := displayContext(req)
	writeStatus(resp, store.OK, newMessageDTOs(d.Repos.Messages.ListByThread(threadID, dc)))
}

// GetMessageByID: GET thread_messages/id/<id>
func (d *Deps) GetMessageByID(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	m, found := d.Repos.Messages.GetByID(id)
	if !found {
		writeStatusOnly(resp, store.NotFound)
		return
	}
	writeStatus(resp, store.OK, newMessageDTO(m))
}

// AddMessage: POST thread_messages/<threadId> (body = content)
func (d *Deps) AddMessage(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	threadID, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivAddNewDiscussionThreadMessage, threadID, d.Repos.Collection.CheckThread, authz.ActionNewContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status, m := d.Repos.Messages.AddMessage(ac.obs, threadID, string(req.Body))
	if status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	writeStatus(resp, store.OK, newMessageDTO(m))
}

// EditMessageContent: PUT thread_messages/content/<msgId> (body = content;
// extraPath[1] = reason, §6.2).
func (d *Deps) EditMessageContent(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	reason := ""
	if req.ExtraPathPartsCount > 1 {
		reason = string(req.ExtraPathParts[1])
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivEditDiscussionThreadMessageContent, id, d.checkMessage, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Messages.EditContent(ac.obs, id, string(req.Body), reason)
	writeStatusOnly(resp, status)
}

// checkMessage adapts Collection.CheckMessage to scopedCheckThrottle's
// (user, priv, scopeID, now) shape.
func (d *Deps) checkMessage(user idgen.ID, priv entities.Privilege, messageID idgen.ID, now idgen.Timestamp) bool {
	return d.Repos.Collection.CheckMessage(user, priv, messageID, now)
}

// DeleteMessage: DELETE thread_messages/<id>
func (d *Deps) DeleteMessage(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivDeleteDiscussionThreadMessage, id, d.checkMessage, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Messages.DeleteMessage(ac.obs, id)
	writeStatusOnly(resp, status)
}

// MoveMessages: POST thread_messages/move/<dstThreadId> (body =
// newline-separated message ids)
func (d *Deps) MoveMessages(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	dst, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivMoveDiscussionThreadMessage, dst, d.Repos.Collection.CheckThread, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	ids := splitIDs(req.Body)
	status := d.Repos.Messages.MoveMessages(ac.obs, dst, ids)
	writeStatusOnly(resp, status)
}

// UpVoteMessage: POST thread_messages/upvote/<msgId>
func (d *Deps) UpVoteMessage(req *httpserver.Request, resp *httpserver.Response) {
	d.vote(req, resp, entities.PrivUpVote, authz.ActionVote, func(repo *messageVoter, ctx store.ObserverContext, id idgen.ID, user idgen.ID) store.StatusCode {
		return repo.UpVote(ctx, id, user)
	})
}

// DownVoteMessage: POST thread_messages/downvote/<msgId>
func (d *Deps) DownVoteMessage(req *httpserver.Request, resp *httpserver.Response) {
	d.vote(req, resp, entities.PrivDownVote, authz.ActionVote, func(repo *messageVoter, ctx store.ObserverContext, id idgen.ID, user idgen.ID) store.StatusCode {
		return repo.DownVote(ctx, id, user)
	})
}

// ResetVoteOnMessage: POST thread_messages/resetvote/<msgId>
func (d *Deps) ResetVoteOnMessage(req *httpserver.Request, resp *httpserver.Response) {
	d.vote(req, resp, entities.PrivResetVote, authz.ActionVote, func(repo *messageVoter, ctx store.ObserverContext, id idgen.ID, user idgen.ID) store.StatusCode {
		return repo.ResetVote(ctx, id, user)
	})
}

// messageVoter is *store.MessageRepository, aliased so the three vote
// handlers above can share one dispatcher without an import cycle.
type messageVoter = store.MessageRepository

func (d *Deps) vote(req *httpserver.Request, resp *httpserver.Response, priv entities.Privilege, action authz.ActionClass, fn func(*messageVoter, store.ObserverContext, idgen.ID, idgen.ID) store.StatusCode) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, priv, id, d.checkMessage, action); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := fn(d.Repos.Messages, ac.obs, id, ac.obs.PerformedBy)
	writeStatusOnly(resp, status)
}
