// Package endpoints is C9: it translates parsed HTTP requests into
// repository commands/queries, extracting trailing path segments, query
// and cookie values, and body bytes as parameters, then renders a status
// and a JSON body through the response builder.
//
// The endpoint handlers are the one place authorization (C5) is actually
// invoked: repositories expect their caller to have already checked
// privileges (see e.g. UserRepository.AddUser's doc comment), so every
// handler here resolves the current user, checks throttling and the
// relevant privilege, and only then calls into internal/store.
package endpoints

import (
	"encoding/json"
	"net"
	"strconv"

	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/eventlog"
	"github.com/danij/Forum-sub001/internal/forumlog"
	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/store"
)

// Deps bundles everything a handler needs: the repositories, the shared
// collection (for authorization lookups), the throttler, the session
// table, and a logger for swallowed errors.
type Deps struct {
	Repos     *eventlog.Repositories
	Throttle  *authz.Throttler
	Sessions  *Sessions
	Log       *forumlog.Logger

	DisableCommands                  bool
	DisableCommandsForAnonymousUsers bool
}

// actionCtx is the resolved per-request identity + observer context every
// handler builds once at the top.
type actionCtx struct {
	obs     store.ObserverContext
	actor   string // throttle actor key: user id string, or source IP
	isAnon  bool
}

// resolve builds an actionCtx from the request: the session cookie (if
// any and still valid) names the current user, else the anonymous
// sentinel is used and the source IP becomes the throttle actor key (§4.5).
func (d *Deps) resolve(req *httpserver.Request) actionCtx {
	userID := idgen.AnonymousUserID
	isAnon := true
	if raw, ok := req.Cookie(sessionCookieName); ok {
		if uid, ok := d.Sessions.Lookup(string(raw)); ok {
			userID = uid
			isAnon = false
		}
	}

	now := idgen.Now()
	d.Repos.Collection.TouchLastSeen(userID, now, 0)

	actor := userID.String()
	if isAnon {
		actor = remoteIPKey(req.RemoteIP)
		d.Repos.Collection.Visitors.Touch(req.RemoteIP, now)
	}

	return actionCtx{
		obs: store.ObserverContext{
			PerformedBy: userID,
			CurrentTime: now,
			SourceIP:    req.RemoteIP,
		},
		actor:  actor,
		isAnon: isAnon,
	}
}

func remoteIPKey(ip net.IP) string {
	if ip == nil {
		return "unknown"
	}
	return ip.String()
}

// commandsAllowed implements the service.disableCommands /
// disableCommandsForAnonymousUsers kill switches (§6.4): a read-only mode
// flips every mutating endpoint to NotAllowed without touching the store.
func (d *Deps) commandsAllowed(ac actionCtx) bool {
	if d.DisableCommands {
		return false
	}
	if ac.isAnon && d.DisableCommandsForAnonymousUsers {
		return false
	}
	return true
}

// checkAndThrottle runs the §4.5 authorization + throttling sequence for a
// forum-wide-scoped mutation: required privilege, then the action class's
// sliding window. Scoped checks (thread/tag/message/category) are done by
// the individual handler since they need the target id.
func (d *Deps) checkAndThrottle(ac actionCtx, priv entities.Privilege, action authz.ActionClass) store.StatusCode {
	if !d.commandsAllowed(ac) {
		return store.NotAllowed
	}
	if !d.Repos.Collection.CheckForumWide(ac.obs.PerformedBy, priv, ac.obs.CurrentTime) {
		return store.Unauthorized
	}
	if !d.Repos.Collection.HasNoThrottling(ac.obs.PerformedBy, ac.obs.CurrentTime) {
		if !d.Throttle.Allow(ac.actor, action, int64(ac.obs.CurrentTime)) {
			return store.Throttled
		}
	}
	return store.OK
}

// throttleOnly runs just the sliding-window check, for handlers whose
// privilege check is scope-specific and already done by the caller.
func (d *Deps) throttleOnly(ac actionCtx, action authz.ActionClass) store.StatusCode {
	if !d.commandsAllowed(ac) {
		return store.NotAllowed
	}
	if d.Repos.Collection.HasNoThrottling(ac.obs.PerformedBy, ac.obs.CurrentTime) {
		return store.OK
	}
	if !d.Throttle.Allow(ac.actor, action, int64(ac.obs.CurrentTime)) {
		return store.Throttled
	}
	return store.OK
}

// scopedCheckThrottle is checkAndThrottle's counterpart for a privilege
// resolved at a specific scope (thread/tag/message/category) rather than
// forum-wide: check walks the scope chain via one of the
// store.Collection.Check* methods the caller supplies.
func (d *Deps) scopedCheckThrottle(ac actionCtx, priv entities.Privilege, scopeID idgen.ID, check func(user idgen.ID, priv entities.Privilege, scopeID idgen.ID, now idgen.Timestamp) bool, action authz.ActionClass) store.StatusCode {
	if !d.commandsAllowed(ac) {
		return store.NotAllowed
	}
	if !check(ac.obs.PerformedBy, priv, scopeID, ac.obs.CurrentTime) {
		return store.Unauthorized
	}
	if d.Repos.Collection.HasNoThrottling(ac.obs.PerformedBy, ac.obs.CurrentTime) {
		return store.OK
	}
	if !d.Throttle.Allow(ac.actor, action, int64(ac.obs.CurrentTime)) {
		return store.Throttled
	}
	return store.OK
}

// parseTimestamp parses a decimal unix-seconds query value.
func parseTimestamp(raw []byte) (idgen.Timestamp, error) {
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return idgen.Timestamp(n), nil
}

// splitIDs splits a newline-separated body of id strings, skipping any
// that fail to parse.
func splitIDs(body []byte) []idgen.ID {
	var out []idgen.ID
	start := 0
	for i := 0; i <= len(body); i++ {
		if i == len(body) || body[i] == '\n' {
			if i > start {
				if id, err := idgen.ParseID(string(body[start:i])); err == nil {
					out = append(out, id)
				}
			}
			start = i + 1
		}
	}
	return out
}

// writeStatus renders status with the §7 headers always set:
// Cache-Control, and — for non-nil bodies — Content-Type plus the
// configured prefix.
func writeStatus(resp *httpserver.Response, status store.StatusCode, body any) {
	resp.WriteStatus(status.HTTPStatus())
	resp.WriteHeader("Cache-Control", "no-cache, no-store, must-revalidate")
	if body == nil {
		resp.WriteEmptyBody()
		return
	}
	out, err := json.Marshal(body)
	if err != nil {
		resp.WriteBodyAndContentLength("application/json", []byte(`{"status":"INTERNAL"}`))
		return
	}
	resp.WriteBodyAndContentLength("application/json", out)
}

// writeStatusOnly renders just {"status": "..."} — the common shape for a
// command that has no entity to render back.
func writeStatusOnly(resp *httpserver.Response, status store.StatusCode) {
	writeStatus(resp, status, statusBody{Status: status.String()})
}

type statusBody struct {
	Status string `json:"status"`
}

// writePNG renders a 200 image/png body without the JSON prefix or
// Content-Type: application/json (§7: "image endpoints emit image/png
// without the JSON prefix").
func writePNG(resp *httpserver.Response, body []byte) {
	resp.WriteStatus(200)
	resp.WriteHeader("Cache-Control", "no-cache, no-store, must-revalidate")
	resp.WriteImageBody("image/png", body)
}

// pathID parses req.ExtraPathParts[idx] as an idgen.ID, writing an
// INVALID_PARAMETERS status body and returning ok=false on failure.
func pathID(req *httpserver.Request, resp *httpserver.Response, idx int) (idgen.ID, bool) {
	if idx >= req.ExtraPathPartsCount {
		writeStatus(resp, store.InvalidParameters, statusBody{Status: store.InvalidParameters.String()})
		return idgen.Zero, false
	}
	id, err := idgen.ParseID(string(req.ExtraPathParts[idx]))
	if err != nil {
		writeStatus(resp, store.InvalidParameters, statusBody{Status: store.InvalidParameters.String()})
		return idgen.Zero, false
	}
	return id, true
}

// pathInt parses req.ExtraPathParts[idx] as a base-10 int.
func pathInt(req *httpserver.Request, idx int) (int, bool) {
	if idx >= req.ExtraPathPartsCount {
		return 0, false
	}
	n, err := strconv.Atoi(string(req.ExtraPathParts[idx]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// bindJSONOrRawName accepts either a JSON object body (unmarshaled into
// dst) or a bare-text body, in which case *name is set to the raw body.
// Several §6.2 routes document their body as "= name" rather than a JSON
// envelope; accepting both keeps simple curl-style clients working.
func bindJSONOrRawName(body []byte, dst any, name *string) bool {
	if len(body) == 0 {
		return false
	}
	if body[0] == '{' {
		return json.Unmarshal(body, dst) == nil
	}
	*name = string(body)
	return true
}

// probeImageBounds sniffs a PNG's width/height from its IHDR chunk
// (offsets 16/20, big-endian uint32), returning 0,0 for anything else —
// no image-decoding library is in the dependency pack, and §6.4's
// maxLogoWidth/maxLogoHeight bounds only need the dimensions, not a
// decoded image.
func probeImageBounds(b []byte) (width, height int) {
	if len(b) < 24 || string(b[:8]) != "\x89PNG\r\n\x1a\n" {
		return 0, 0
	}
	width = int(b[16])<<24 | int(b[17])<<16 | int(b[18])<<8 | int(b[19])
	height = int(b[20])<<24 | int(b[21])<<16 | int(b[22])<<8 | int(b[23])
	return width, height
}

// displayContext builds a store.DisplayContext from the page/sort query
// parameters every list endpoint honors (§6.2).
func displayContext(req *httpserver.Request) store.DisplayContext {
	dc := store.DisplayContext{SortOrder: store.Ascending}
	if raw, ok := req.QueryParam("page"); ok {
		if n, err := strconv.Atoi(string(raw)); err == nil && n >= 0 {
			dc.PageNumber = n
		}
	}
	if raw, ok := req.QueryParam("sort"); ok && string(raw) == "descending" {
		dc.SortOrder = store.Descending
	}
	return dc
}
