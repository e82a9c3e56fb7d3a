package store

import (
	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
)

// activeGrantValue returns (value, true) if user has an active grant for
// priv at the given scope/target at time now, else (0, false).
func (c *Collection) activeGrantValue(user idgen.ID, scope entities.Scope, scopeID idgen.ID, priv entities.Privilege, now idgen.Timestamp) (int, bool) {
	key := entities.AssignedPrivilegeKey{User: user, Scope: scope, ScopeID: scopeID, Privilege: priv}
	grant, ok := c.assignedPrivileges[key]
	if !ok || !grant.Active(now) {
		return 0, false
	}
	return grant.Value, true
}

// §4.5 step 1 resolves assigned privilege by collecting every active grant
// across the *entire* scope chain into one flat slice, then combining them
// with a single authz.ResolveAssigned call (max positive, minus the max
// magnitude negative, clipped once at zero). Resolving level-by-level and
// clipping at each level would silently discard an outer negative grant
// whenever an inner scope carried a positive one, so the collectAssigned*
// helpers below only gather values — they never resolve or clip.

// collectAssignedValuesForMessageLocked gathers every active grant for a
// message target: message, its parent thread, each tag on that thread, and
// forum-wide. Caller must hold at least a read lock.
func (c *Collection) collectAssignedValuesForMessageLocked(user idgen.ID, priv entities.Privilege, messageID idgen.ID, now idgen.Timestamp) []int {
	var values []int
	if v, ok := c.activeGrantValue(user, entities.ScopeMessage, messageID, priv, now); ok {
		values = append(values, v)
	}
	if msg := c.messages[messageID.String()]; msg != nil {
		values = append(values, c.collectAssignedValuesForThreadLocked(user, priv, msg.ParentThread, now)...)
	} else if v, ok := c.activeGrantValue(user, entities.ScopeForumWide, idgen.Zero, priv, now); ok {
		values = append(values, v)
	}
	return values
}

// collectAssignedValuesForThreadLocked gathers every active grant for a
// thread target: thread, each tag on it, and forum-wide.
func (c *Collection) collectAssignedValuesForThreadLocked(user idgen.ID, priv entities.Privilege, threadID idgen.ID, now idgen.Timestamp) []int {
	var values []int
	if v, ok := c.activeGrantValue(user, entities.ScopeThread, threadID, priv, now); ok {
		values = append(values, v)
	}
	if th := c.threads[threadID.String()]; th != nil {
		for tagID := range th.Tags {
			if v, ok := c.activeGrantValue(user, entities.ScopeTag, tagID, priv, now); ok {
				values = append(values, v)
			}
		}
	}
	if v, ok := c.activeGrantValue(user, entities.ScopeForumWide, idgen.Zero, priv, now); ok {
		values = append(values, v)
	}
	return values
}

// collectAssignedValuesForTagLocked gathers every active grant for a tag
// target: tag, and forum-wide.
func (c *Collection) collectAssignedValuesForTagLocked(user idgen.ID, priv entities.Privilege, tagID idgen.ID, now idgen.Timestamp) []int {
	var values []int
	if v, ok := c.activeGrantValue(user, entities.ScopeTag, tagID, priv, now); ok {
		values = append(values, v)
	}
	if v, ok := c.activeGrantValue(user, entities.ScopeForumWide, idgen.Zero, priv, now); ok {
		values = append(values, v)
	}
	return values
}

// collectAssignedValuesForCategoryLocked gathers every active grant for a
// category target: category, and forum-wide.
func (c *Collection) collectAssignedValuesForCategoryLocked(user idgen.ID, priv entities.Privilege, categoryID idgen.ID, now idgen.Timestamp) []int {
	var values []int
	if v, ok := c.activeGrantValue(user, entities.ScopeCategory, categoryID, priv, now); ok {
		values = append(values, v)
	}
	if v, ok := c.activeGrantValue(user, entities.ScopeForumWide, idgen.Zero, priv, now); ok {
		values = append(values, v)
	}
	return values
}

func (c *Collection) assignedValueForMessageLocked(user idgen.ID, priv entities.Privilege, messageID idgen.ID, now idgen.Timestamp) int {
	return authz.ResolveAssigned(c.collectAssignedValuesForMessageLocked(user, priv, messageID, now))
}

func (c *Collection) assignedValueForThreadLocked(user idgen.ID, priv entities.Privilege, threadID idgen.ID, now idgen.Timestamp) int {
	return authz.ResolveAssigned(c.collectAssignedValuesForThreadLocked(user, priv, threadID, now))
}

func (c *Collection) assignedValueForTagLocked(user idgen.ID, priv entities.Privilege, tagID idgen.ID, now idgen.Timestamp) int {
	return authz.ResolveAssigned(c.collectAssignedValuesForTagLocked(user, priv, tagID, now))
}

func (c *Collection) assignedValueForCategoryLocked(user idgen.ID, priv entities.Privilege, categoryID idgen.ID, now idgen.Timestamp) int {
	return authz.ResolveAssigned(c.collectAssignedValuesForCategoryLocked(user, priv, categoryID, now))
}

// assignedValueForumWideLocked is the base case: a single possible grant,
// nothing to aggregate.
func (c *Collection) assignedValueForumWideLocked(user idgen.ID, priv entities.Privilege, now idgen.Timestamp) int {
	if v, ok := c.activeGrantValue(user, entities.ScopeForumWide, idgen.Zero, priv, now); ok {
		return v
	}
	return 0
}

// requiredValueLocked implements §4.5 step 2's "most specific scope with a
// non-default value" lookup.
func (c *Collection) requiredValueLocked(priv entities.Privilege, scope entities.Scope, scopeID idgen.ID) int {
	if scope != entities.ScopeForumWide {
		if v, ok := c.requiredOverrides[entities.RequiredPrivilegeOverrideKey{Scope: scope, ScopeID: scopeID, Privilege: priv}]; ok {
			return v
		}
	}
	return c.requiredPrivileges[priv]
}

// HasNoThrottling reports whether user holds the forum-wide NO_THROTTLING
// privilege (§4.5).
func (c *Collection) HasNoThrottling(user idgen.ID, now idgen.Timestamp) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assignedValueForumWideLocked(user, entities.PrivNoThrottling, now) > 0
}

// CheckMessage evaluates priv for user against messageID, the most
// specific scope chain (§4.5).
func (c *Collection) CheckMessage(user idgen.ID, priv entities.Privilege, messageID idgen.ID, now idgen.Timestamp) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	assigned := c.assignedValueForMessageLocked(user, priv, messageID, now)
	required := c.requiredValueLocked(priv, entities.ScopeMessage, messageID)
	return authz.Allowed(assigned, required)
}

// CheckThread evaluates priv for user against threadID.
func (c *Collection) CheckThread(user idgen.ID, priv entities.Privilege, threadID idgen.ID, now idgen.Timestamp) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	assigned := c.assignedValueForThreadLocked(user, priv, threadID, now)
	required := c.requiredValueLocked(priv, entities.ScopeThread, threadID)
	return authz.Allowed(assigned, required)
}

// CheckTag evaluates priv for user against tagID.
func (c *Collection) CheckTag(user idgen.ID, priv entities.Privilege, tagID idgen.ID, now idgen.Timestamp) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	assigned := c.assignedValueForTagLocked(user, priv, tagID, now)
	required := c.requiredValueLocked(priv, entities.ScopeTag, tagID)
	return authz.Allowed(assigned, required)
}

// CheckCategory evaluates priv for user against categoryID.
func (c *Collection) CheckCategory(user idgen.ID, priv entities.Privilege, categoryID idgen.ID, now idgen.Timestamp) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	assigned := c.assignedValueForCategoryLocked(user, priv, categoryID, now)
	required := c.requiredValueLocked(priv, entities.ScopeCategory, categoryID)
	return authz.Allowed(assigned, required)
}

// CheckForumWide evaluates priv for user at forum-wide scope.
func (c *Collection) CheckForumWide(user idgen.ID, priv entities.Privilege, now idgen.Timestamp) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	assigned := c.assignedValueForumWideLocked(user, priv, now)
	required := c.requiredValueLocked(priv, entities.ScopeForumWide, idgen.Zero)
	return authz.Allowed(assigned, required)
}

// AssignedValue exposes the raw resolved value (e.g. for a "required
// privileges for thread" read endpoint, §6.2) without comparing to a
// required threshold.
func (c *Collection) AssignedValue(user idgen.ID, priv entities.Privilege, scope entities.Scope, scopeID idgen.ID, now idgen.Timestamp) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch scope {
	case entities.ScopeMessage:
		return c.assignedValueForMessageLocked(user, priv, scopeID, now)
	case entities.ScopeThread:
		return c.assignedValueForThreadLocked(user, priv, scopeID, now)
	case entities.ScopeTag:
		return c.assignedValueForTagLocked(user, priv, scopeID, now)
	case entities.ScopeCategory:
		return c.assignedValueForCategoryLocked(user, priv, scopeID, now)
	default:
		return c.assignedValueForumWideLocked(user, priv, now)
	}
}

// RequiredValue exposes the resolved required threshold for a scope.
func (c *Collection) RequiredValue(priv entities.Privilege, scope entities.Scope, scopeID idgen.ID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requiredValueLocked(priv, scope, scopeID)
}

// AdjustAssignedPrivilege implements the ADJUST_PRIVILEGE-gated grant
// command (§4.5). grantorCurrent is the grantor's own current assigned
// value for priv at the same scope, used for the "|current| > |v| strictly"
// check. Self-assignment is forbidden by the caller (repository layer)
// before this is invoked.
func (c *Collection) AdjustAssignedPrivilege(grantor, target idgen.ID, priv entities.Privilege, scope entities.Scope, scopeID idgen.ID, value int, from idgen.Timestamp, duration int64) StatusCode {
	c.mu.Lock()
	defer c.mu.Unlock()

	if grantor == target {
		return NotAllowed
	}
	grantorCurrent := 0
	switch scope {
	case entities.ScopeMessage:
		grantorCurrent = c.assignedValueForMessageLocked(grantor, priv, scopeID, from)
	case entities.ScopeThread:
		grantorCurrent = c.assignedValueForThreadLocked(grantor, priv, scopeID, from)
	case entities.ScopeTag:
		grantorCurrent = c.assignedValueForTagLocked(grantor, priv, scopeID, from)
	case entities.ScopeCategory:
		grantorCurrent = c.assignedValueForCategoryLocked(grantor, priv, scopeID, from)
	default:
		grantorCurrent = c.assignedValueForumWideLocked(grantor, priv, from)
	}
	if !authz.CanGrant(grantorCurrent, value) {
		return NotAllowed
	}

	key := entities.AssignedPrivilegeKey{User: target, Scope: scope, ScopeID: scopeID, Privilege: priv}
	c.assignedPrivileges[key] = entities.AssignedPrivilegeGrant{Value: value, From: from, Duration: duration}
	c.notify(WriteEvent{
		Type: EventUpdateAssignedPrivilege,
		Ctx:  ObserverContext{PerformedBy: grantor, CurrentTime: from},
		Payload: AssignedPrivilegeChange{AssignedPrivilegeKey: key, Value: value, Duration: duration},
	})
	return OK
}

// AdjustRequiredPrivilege implements the required-value update command.
func (c *Collection) AdjustRequiredPrivilege(grantor idgen.ID, priv entities.Privilege, scope entities.Scope, scopeID idgen.ID, newValue int, now idgen.Timestamp) StatusCode {
	c.mu.Lock()
	defer c.mu.Unlock()

	var grantorCurrent int
	switch scope {
	case entities.ScopeMessage:
		grantorCurrent = c.assignedValueForMessageLocked(grantor, priv, scopeID, now)
	case entities.ScopeThread:
		grantorCurrent = c.assignedValueForThreadLocked(grantor, priv, scopeID, now)
	case entities.ScopeTag:
		grantorCurrent = c.assignedValueForTagLocked(grantor, priv, scopeID, now)
	case entities.ScopeCategory:
		grantorCurrent = c.assignedValueForCategoryLocked(grantor, priv, scopeID, now)
	default:
		grantorCurrent = c.assignedValueForumWideLocked(grantor, priv, now)
	}
	if !authz.CanSetRequired(grantorCurrent, newValue) {
		return NotAllowed
	}

	if scope == entities.ScopeForumWide {
		c.requiredPrivileges[priv] = newValue
	} else {
		c.requiredOverrides[entities.RequiredPrivilegeOverrideKey{Scope: scope, ScopeID: scopeID, Privilege: priv}] = newValue
	}
	c.notify(WriteEvent{
		Type: EventUpdateRequiredPrivilege,
		Ctx:  ObserverContext{PerformedBy: grantor, CurrentTime: now},
		Payload: RequiredPrivilegeChange{Scope: scope, ScopeID: scopeID, Privilege: priv, Value: newValue},
	})
	return OK
}

// DirectSetRequiredPrivilege and DirectSetAssignedPrivilege are the
// import-time direct-write counterparts (§4.4, §9 "direct-write path"):
// same mutation, no grantor check.
func (c *Collection) DirectSetRequiredPrivilege(priv entities.Privilege, scope entities.Scope, scopeID idgen.ID, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if scope == entities.ScopeForumWide {
		c.requiredPrivileges[priv] = value
	} else {
		c.requiredOverrides[entities.RequiredPrivilegeOverrideKey{Scope: scope, ScopeID: scopeID, Privilege: priv}] = value
	}
}

func (c *Collection) DirectSetAssignedPrivilege(target idgen.ID, priv entities.Privilege, scope entities.Scope, scopeID idgen.ID, value int, from idgen.Timestamp, duration int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := entities.AssignedPrivilegeKey{User: target, Scope: scope, ScopeID: scopeID, Privilege: priv}
	c.assignedPrivileges[key] = entities.AssignedPrivilegeGrant{Value: value, From: from, Duration: duration}
}

// DefaultPrivilegeGrants seeds a set of default assigned privileges at
// forum-wide scope, per §6.4 "defaultPrivilegeGrants". Intended for
// initial store setup only, not for mid-run use.
func (c *Collection) DefaultPrivilegeGrants(user idgen.ID, grants map[entities.Privilege]int, at idgen.Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for priv, value := range grants {
		key := entities.AssignedPrivilegeKey{User: user, Scope: entities.ScopeForumWide, Privilege: priv}
		c.assignedPrivileges[key] = entities.AssignedPrivilegeGrant{Value: value, From: at, Duration: 0}
	}
}

// SetDefaultRequiredPrivileges seeds the forum-wide required-privilege
// table from config (§6.4 "defaultPrivileges").
func (c *Collection) SetDefaultRequiredPrivileges(defaults map[entities.Privilege]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for priv, value := range defaults {
		c.requiredPrivileges[priv] = value
	}
}
