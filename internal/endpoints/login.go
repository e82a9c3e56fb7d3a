package endpoints

import (
	"encoding/json"

	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/danij/Forum-sub001/internal/store"
)

type loginRequest struct {
	Auth string `json:"auth"`
}

// Login implements "POST login → issue session cookie (auth listener
// only)" (§6.2). The request body names the auth handle; on a match it
// mints a session token and sets it as a cookie. Treated as
// NEW_CONTENT-rate-limited traffic since §4.5 defines no distinct
// throttle class for authentication attempts.
func (d *Deps) Login(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	if status := d.throttleOnly(ac, authz.ActionNewContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}

	var body loginRequest
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &body); err != nil {
			writeStatusOnly(resp, store.InvalidParameters)
			return
		}
	}
	if body.Auth == "" {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}

	user, ok := d.Repos.Users.GetByAuth(body.Auth)
	if !ok {
		writeStatusOnly(resp, store.NotFound)
		return
	}
	if !d.Repos.Collection.CheckForumWide(user.ID, entities.PrivLoginUser, ac.obs.CurrentTime) {
		writeStatusOnly(resp, store.Unauthorized)
		return
	}

	tok := d.Sessions.Issue(user.ID)
	resp.WriteStatus(200)
	resp.WriteHeader("Cache-Control", "no-cache, no-store, must-revalidate")
	resp.WriteCookie(httpserver.Cookie{Name: sessionCookieName, Value: tok, Path: "/", HTTPOnly: true})
	out, _ := json.Marshal(statusBody{Status: store.OK.String()})
	resp.WriteBodyAndContentLength("application/json", out)
}

// Logout revokes the caller's session cookie, if any.
func (d *Deps) Logout(req *httpserver.Request, resp *httpserver.Response) {
	if raw, ok := req.Cookie(sessionCookieName); ok {
		d.Sessions.Revoke(string(raw))
	}
	writeStatusOnly(resp, store.OK)
}
