package endpoints

import (
	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/danij/Forum-sub001/internal/store"
)

func userOrderByFromQuery(req *httpserver.Request) store.UserOrderBy {
	raw, _ := req.QueryParam("orderBy")
	switch string(raw) {
	case "created":
		return store.UserByCreated
	case "lastseen":
		return store.UserByLastSeen
	case "threadcount":
		return store.UserByThreadCount
	case "messagecount":
		return store.UserByMessageCount
	default:
		return store.UserByName
	}
}

// ListUsers: GET users
func (d *Deps) ListUsers(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	dc := displayContext(req)
	users := d.Repos.Users.ListUsers(dc, userOrderByFromQuery(req))
	writeStatus(resp, store.OK, newUserDTOs(users))
}

// GetUserByID: GET users/id/<id>
func (d *Deps) GetUserByID(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	u, found := d.Repos.Users.GetByID(id)
	if !found {
		writeStatusOnly(resp, store.NotFound)
		return
	}
	writeStatus(resp, store.OK, newUserDTO(u))
}

type addUserRequest struct {
	Name string `json:"name"`
	Auth string `json:"auth"`
}

// AddUser: POST users (body = name[, auth])
func (d *Deps) AddUser(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	if status := d.checkAndThrottle(ac, entities.PrivAddUser, authz.ActionNewContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	var body addUserRequest
	if !bindJSONOrRawName(req.Body, &body, &body.Name) {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	status, u := d.Repos.Users.AddUser(ac.obs, body.Name, body.Auth)
	if status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	writeStatus(resp, store.OK, newUserDTO(u))
}

// UpdateUserName: PUT users/name/<id> (body = new name)
func (d *Deps) UpdateUserName(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if ac.obs.PerformedBy != id {
		writeStatusOnly(resp, store.Unauthorized)
		return
	}
	if status := d.throttleOnly(ac, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Users.UpdateUserName(ac.obs, id, string(req.Body))
	writeStatusOnly(resp, status)
}

// UpdateUserTitle: PUT users/title/<id> (body = new title)
func (d *Deps) UpdateUserTitle(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if ac.obs.PerformedBy != id {
		writeStatusOnly(resp, store.Unauthorized)
		return
	}
	if status := d.throttleOnly(ac, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Users.UpdateUserTitle(ac.obs, id, string(req.Body))
	writeStatusOnly(resp, status)
}

// UpdateUserSignature: PUT users/signature/<id> (body = new signature)
func (d *Deps) UpdateUserSignature(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if ac.obs.PerformedBy != id {
		writeStatusOnly(resp, store.Unauthorized)
		return
	}
	if status := d.throttleOnly(ac, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Users.UpdateUserSignature(ac.obs, id, string(req.Body))
	writeStatusOnly(resp, status)
}

// UpdateUserLogo: PUT users/logo/<id> (body = raw image bytes)
func (d *Deps) UpdateUserLogo(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if ac.obs.PerformedBy != id {
		writeStatusOnly(resp, store.Unauthorized)
		return
	}
	if status := d.throttleOnly(ac, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	w, h := probeImageBounds(req.Body)
	status := d.Repos.Users.UpdateUserLogo(ac.obs, id, req.Body, w, h)
	writeStatusOnly(resp, status)
}

// GetUserLogo: GET users/logo/<id> — image/png, no JSON prefix (§7).
func (d *Deps) GetUserLogo(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	u, found := d.Repos.Users.GetByID(id)
	if !found || len(u.Logo) == 0 {
		resp.WriteStatus(404)
		resp.WriteHeader("Cache-Control", "no-cache, no-store, must-revalidate")
		resp.WriteEmptyBody()
		return
	}
	writePNG(resp, u.Logo)
}

// GetOnlineUsers: GET users/online — the count of distinct logged-in users
// whose lastSeen falls within visitorOnlineForSeconds, plus the count of
// distinct anonymous visitor IPs seen in the same window (§6.4
// onlineUsersIntervalSeconds/visitorOnlineForSeconds).
func (d *Deps) GetOnlineUsers(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	window := d.Repos.Users.Limits().VisitorOnlineForSeconds
	loggedIn := d.Repos.Users.CountOnline(ac.obs.CurrentTime, window)
	anonymous := d.Repos.Collection.Visitors.Count(ac.obs.CurrentTime, window)
	writeStatus(resp, store.OK, struct {
		LoggedIn  int `json:"loggedIn"`
		Anonymous int `json:"anonymous"`
	}{loggedIn, anonymous})
}

// DeleteUser: DELETE users/<id>
func (d *Deps) DeleteUser(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if ac.obs.PerformedBy != id {
		writeStatusOnly(resp, store.Unauthorized)
		return
	}
	if status := d.throttleOnly(ac, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Users.DeleteUser(ac.obs, id)
	writeStatusOnly(resp, status)
}
