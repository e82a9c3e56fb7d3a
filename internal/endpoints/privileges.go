package endpoints

import (
	"encoding/json"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/danij/Forum-sub001/internal/store"
)

// assignedValueGroup collapses duplicate concurrent GetAssignedPrivilege
// lookups for the same (user, scope, scopeId, privilege) key into one resolution,
// under read-heavy polling of a hot privilege row.
var assignedValueGroup singleflight.Group

// scopeFromPath decodes a scope name in a path segment, defaulting to
// forum-wide on an unrecognized value.
func scopeFromPath(raw string) entities.Scope {
	switch raw {
	case "category":
		return entities.ScopeCategory
	case "tag":
		return entities.ScopeTag
	case "thread":
		return entities.ScopeThread
	case "message":
		return entities.ScopeMessage
	default:
		return entities.ScopeForumWide
	}
}

func privilegeFromPath(raw string) (entities.Privilege, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return entities.Privilege(n), true
}

// GetRequiredPrivilege: GET privileges/required/<scope>/<privilege>/<scopeId>
// (scopeId is the zero id for forum-wide)
func (d *Deps) GetRequiredPrivilege(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	if req.ExtraPathPartsCount < 2 {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	scope := scopeFromPath(string(req.ExtraPathParts[0]))
	priv, ok := privilegeFromPath(string(req.ExtraPathParts[1]))
	if !ok {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	scopeID, ok := pathID(req, resp, 2)
	if !ok {
		return
	}
	value := d.Repos.Collection.RequiredValue(priv, scope, scopeID)
	writeStatus(resp, store.OK, struct {
		Value int `json:"value"`
	}{value})
}

// GetAssignedPrivilege: GET privileges/assigned/<scope>/<privilege>/<userId>/<scopeId>
func (d *Deps) GetAssignedPrivilege(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	if req.ExtraPathPartsCount < 2 {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	scope := scopeFromPath(string(req.ExtraPathParts[0]))
	priv, ok := privilegeFromPath(string(req.ExtraPathParts[1]))
	if !ok {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	user, ok := pathID(req, resp, 2)
	if !ok {
		return
	}
	scopeID, ok := pathID(req, resp, 3)
	if !ok {
		return
	}
	key := user.String() + "|" + scope.String() + "|" + scopeID.String() + "|" + strconv.Itoa(int(priv))
	v, _, _ := assignedValueGroup.Do(key, func() (any, error) {
		return d.Repos.Collection.AssignedValue(user, priv, scope, scopeID, ac.obs.CurrentTime), nil
	})
	writeStatus(resp, store.OK, struct {
		Value int `json:"value"`
	}{v.(int)})
}

type adjustAssignedRequest struct {
	Value    int   `json:"value"`
	Duration int64 `json:"durationSeconds"`
}

// AdjustAssignedPrivilege: POST privileges/assigned/<scope>/<privilege>/<userId>/<scopeId>
// (body = adjustAssignedRequest)
func (d *Deps) AdjustAssignedPrivilege(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	if status := d.checkAndThrottle(ac, entities.PrivAdjustPrivilege, authz.ActionEditPrivileges); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	if req.ExtraPathPartsCount < 2 {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	scope := scopeFromPath(string(req.ExtraPathParts[0]))
	priv, ok := privilegeFromPath(string(req.ExtraPathParts[1]))
	if !ok {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	target, ok := pathID(req, resp, 2)
	if !ok {
		return
	}
	scopeID, ok := pathID(req, resp, 3)
	if !ok {
		return
	}
	var body adjustAssignedRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	status := d.Repos.Collection.AdjustAssignedPrivilege(ac.obs.PerformedBy, target, priv, scope, scopeID, body.Value, ac.obs.CurrentTime, body.Duration)
	writeStatusOnly(resp, status)
}

type adjustRequiredRequest struct {
	Value int `json:"value"`
}

// AdjustRequiredPrivilege: POST privileges/required/<scope>/<privilege>/<scopeId>
// (body = adjustRequiredRequest)
func (d *Deps) AdjustRequiredPrivilege(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	if status := d.checkAndThrottle(ac, entities.PrivAdjustPrivilege, authz.ActionEditPrivileges); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	if req.ExtraPathPartsCount < 2 {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	scope := scopeFromPath(string(req.ExtraPathParts[0]))
	priv, ok := privilegeFromPath(string(req.ExtraPathParts[1]))
	if !ok {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	scopeID, ok := pathID(req, resp, 2)
	if !ok {
		return
	}
	var body adjustRequiredRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	status := d.Repos.Collection.AdjustRequiredPrivilege(ac.obs.PerformedBy, priv, scope, scopeID, body.Value, ac.obs.CurrentTime)
	writeStatusOnly(resp, status)
}
