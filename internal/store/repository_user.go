package store

import (
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
)

// UserRepository groups every command/query on User entities (§4.2: "command
// /query entry points grouped by entity").
type UserRepository struct {
	col    *Collection
	limits *Limits
}

// NewUserRepository wires a repository to the shared collection and the
// current (immutable-per-request) limits snapshot.
func NewUserRepository(col *Collection, limits *Limits) *UserRepository {
	return &UserRepository{col: col, limits: limits}
}

// touchLastSeenLocked bumps a user's lastSeen if more than
// LastSeenUpdatePrecision seconds have elapsed (§3). Must be called with
// the collection's write lock held; queries defer this until after their
// read lock is released (§4.2) by calling TouchLastSeen instead.
func (c *Collection) touchLastSeenLocked(userID idgen.ID, now idgen.Timestamp, precision int64) {
	u := c.users[userID.String()]
	if u == nil {
		return
	}
	if int64(now)-int64(u.LastSeen) <= precision {
		return
	}
	c.usersByLastSeen.Remove(u.LastSeen, u.ID.String())
	u.LastSeen = now
	c.usersByLastSeen.Insert(u.LastSeen, u.ID.String())
}

// TouchLastSeen bumps lastSeen for userID under its own short writer
// acquisition. Called by queries after their reader lock has been
// released, per §4.2's "defer lastSeen bump until after release to avoid
// upgrading the lock".
func (c *Collection) TouchLastSeen(userID idgen.ID, now idgen.Timestamp, precision int64) {
	if userID.IsZero() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLastSeenLocked(userID, now, precision)
}

// ImportSetLastSeen unconditionally sets a user's lastSeen, bypassing the
// precision throttle touchLastSeenLocked applies (§4.4 importer
// post-processing: "set each user's lastSeen to the maximum context
// timestamp seen for that user").
func (r *UserRepository) ImportSetLastSeen(id idgen.ID, ts idgen.Timestamp) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	u := r.col.users[id.String()]
	if u == nil || ts <= u.LastSeen {
		return
	}
	r.col.usersByLastSeen.Remove(u.LastSeen, id.String())
	u.LastSeen = ts
	r.col.usersByLastSeen.Insert(u.LastSeen, id.String())
}

// AddUser creates a new user (§6.2 "POST users"). Authorization for
// ADD_USER is expected to have been checked by the caller (endpoint layer)
// since an anonymous visitor performs this command.
func (r *UserRepository) AddUser(ctx ObserverContext, name, auth string) (StatusCode, *entities.User) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	normalized, status := validateName(name, r.limits.MinNameLength, r.limits.MaxNameLength)
	if status != OK {
		return status, nil
	}
	if _, exists := r.col.usersByAuth[auth]; auth != "" && exists {
		return UserWithSameAuthAlreadyExists, nil
	}
	for _, id := range r.col.usersByName.All() {
		if r.col.users[id].Name == normalized {
			return AlreadyExists, nil
		}
	}

	id := idgen.NewID()
	u := &entities.User{
		Base: entities.Base{ID: id, Created: ctx.CurrentTime, CreationDetails: sourceIPOrUnspecified(ctx.SourceIP)},
		Name: normalized,
		Auth: auth,
	}
	r.col.users[id.String()] = u
	r.col.usersByName.Insert(u.Name, id.String())
	r.col.usersByCreated.Insert(u.Created, id.String())
	r.col.usersByLastSeen.Insert(u.LastSeen, id.String())
	r.col.usersByThreadCount.Insert(0, id.String())
	r.col.usersByMessageCount.Insert(0, id.String())
	if auth != "" {
		r.col.usersByAuth[auth] = id.String()
	}

	r.col.notify(WriteEvent{Type: EventAddUser, Ctx: ctx, Payload: u})
	return OK, u
}

// ImportAddUser replays an ADD_NEW_USER record, preserving the original id
// instead of minting a new one (§9 "direct-write entry surface"; §4.4 step
// 6). Uniqueness is not re-checked: the log is assumed internally
// consistent.
func (r *UserRepository) ImportAddUser(ctx ObserverContext, id idgen.ID, name, auth string) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	if _, exists := r.col.users[id.String()]; exists {
		return
	}
	u := &entities.User{
		Base: entities.Base{ID: id, Created: ctx.CurrentTime, CreationDetails: sourceIPOrUnspecified(ctx.SourceIP)},
		Name: name,
		Auth: auth,
	}
	r.col.users[id.String()] = u
	r.col.usersByName.Insert(u.Name, id.String())
	r.col.usersByCreated.Insert(u.Created, id.String())
	r.col.usersByLastSeen.Insert(u.LastSeen, id.String())
	r.col.usersByThreadCount.Insert(0, id.String())
	r.col.usersByMessageCount.Insert(0, id.String())
	if auth != "" {
		r.col.usersByAuth[auth] = id.String()
	}
}

// UpdateUserName changes a user's display name (§6.2 "PUT users/name/<id>").
func (r *UserRepository) UpdateUserName(ctx ObserverContext, id idgen.ID, newName string) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	u := r.col.users[id.String()]
	if u == nil {
		return NotFound
	}
	normalized, status := validateName(newName, r.limits.MinNameLength, r.limits.MaxNameLength)
	if status != OK {
		return status
	}
	if normalized == u.Name {
		return NoEffect
	}
	for _, otherID := range r.col.usersByName.All() {
		if otherID != id.String() && r.col.users[otherID].Name == normalized {
			return AlreadyExists
		}
	}

	r.col.usersByName.Remove(u.Name, id.String())
	u.Name = normalized
	u.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}
	r.col.usersByName.Insert(u.Name, id.String())

	r.col.notify(WriteEvent{Type: EventUpdateUserName, Ctx: ctx, Payload: u})
	return OK
}

// UpdateUserInfo, UpdateUserTitle, UpdateUserSignature mutate the
// corresponding bounded text field the same way UpdateUserName does,
// without the uniqueness check (§3: "optional info/title/signature").
func (r *UserRepository) UpdateUserInfo(ctx ObserverContext, id idgen.ID, info []byte) StatusCode {
	return r.updateBoundedBlob(ctx, id, info, r.limits.MinInfoLength, r.limits.MaxInfoLength, EventUpdateUserInfo, func(u *entities.User, v []byte) { u.Info = v })
}

func (r *UserRepository) UpdateUserTitle(ctx ObserverContext, id idgen.ID, title string) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)
	u := r.col.users[id.String()]
	if u == nil {
		return NotFound
	}
	trimmed, status := validateFreeText(title, r.limits.MinTitleLength, r.limits.MaxTitleLength)
	if status != OK {
		return status
	}
	u.Title = trimmed
	u.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}
	r.col.notify(WriteEvent{Type: EventUpdateUserTitle, Ctx: ctx, Payload: u})
	return OK
}

func (r *UserRepository) UpdateUserSignature(ctx ObserverContext, id idgen.ID, signature string) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)
	u := r.col.users[id.String()]
	if u == nil {
		return NotFound
	}
	trimmed, status := validateFreeText(signature, r.limits.MinSignatureLength, r.limits.MaxSignatureLength)
	if status != OK {
		return status
	}
	u.Signature = trimmed
	u.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}
	r.col.notify(WriteEvent{Type: EventUpdateUserSignature, Ctx: ctx, Payload: u})
	return OK
}

func (r *UserRepository) updateBoundedBlob(ctx ObserverContext, id idgen.ID, value []byte, min, max int, evt EventType, apply func(*entities.User, []byte)) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)
	u := r.col.users[id.String()]
	if u == nil {
		return NotFound
	}
	if len(value) < min {
		return ValueTooShort
	}
	if len(value) > max {
		return ValueTooLong
	}
	apply(u, value)
	u.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}
	r.col.notify(WriteEvent{Type: evt, Ctx: ctx, Payload: u})
	return OK
}

// UpdateUserLogo validates the bounded byte size; decoded-dimension
// bounds are checked by the caller via an image-metadata probe collaborator
// (§4.2: "the store consumes an image-metadata probe from a collaborator")
// before this is invoked, since decoding image formats is outside this
// package's concern.
func (r *UserRepository) UpdateUserLogo(ctx ObserverContext, id idgen.ID, logo []byte, probedWidth, probedHeight int) StatusCode {
	if len(logo) > r.limits.MaxLogoBinarySize {
		return ValueTooLong
	}
	if probedWidth > r.limits.MaxLogoWidth || probedHeight > r.limits.MaxLogoHeight {
		return InvalidParameters
	}
	return r.updateBoundedBlob(ctx, id, logo, 0, r.limits.MaxLogoBinarySize, EventUpdateUserLogo, func(u *entities.User, v []byte) { u.Logo = v })
}

// DeleteUser cascades per §3's invariant: authorship weak refs are nulled,
// not cascaded (the user's threads/messages survive, attributed to no
// one), matching "deleting a user nulls its authorship weak refs".
func (r *UserRepository) DeleteUser(ctx ObserverContext, id idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	u := r.col.users[id.String()]
	if u == nil {
		return NotFound
	}
	if id == idgen.AnonymousUserID {
		return NotAllowed
	}

	for _, tid := range u.ThreadsAuthored {
		if t := r.col.threads[tid.String()]; t != nil {
			t.CreatedBy = idgen.Zero
		}
	}
	for _, mid := range u.MessagesAuthored {
		if m := r.col.messages[mid.String()]; m != nil {
			m.CreatedBy = idgen.Zero
		}
	}
	for _, tid := range u.SubscribedThreads {
		if t := r.col.threads[tid.String()]; t != nil {
			delete(t.SubscribedUsers, id)
		}
	}

	r.col.usersByName.Remove(u.Name, id.String())
	r.col.usersByCreated.Remove(u.Created, id.String())
	r.col.usersByLastSeen.Remove(u.LastSeen, id.String())
	r.col.usersByThreadCount.Remove(u.ThreadCount, id.String())
	r.col.usersByMessageCount.Remove(u.MessageCount, id.String())
	if u.Auth != "" {
		delete(r.col.usersByAuth, u.Auth)
	}
	delete(r.col.users, id.String())

	r.col.notify(WriteEvent{Type: EventDeleteUser, Ctx: ctx, Payload: u})
	return OK
}

// GetByID is a direct lookup query; no paging involved.
func (r *UserRepository) GetByID(id idgen.ID) (*entities.User, bool) {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	u, ok := r.col.users[id.String()]
	return u, ok
}

// GetByName looks a user up by its unique display name.
func (r *UserRepository) GetByName(name string) (*entities.User, bool) {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	for _, id := range r.col.usersByName.All() {
		if r.col.users[id].Name == name {
			return r.col.users[id], true
		}
	}
	return nil, false
}

// GetByAuth looks a user up by its unique authentication handle, the
// lookup the login endpoint uses (§6.2 "POST login").
func (r *UserRepository) GetByAuth(auth string) (*entities.User, bool) {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	id, ok := r.col.usersByAuth[auth]
	if !ok {
		return nil, false
	}
	return r.col.users[id], true
}

// UserOrderBy enumerates the orderBy values §6.2 documents for GET users.
type UserOrderBy int

const (
	UserByName UserOrderBy = iota
	UserByCreated
	UserByLastSeen
	UserByThreadCount
	UserByMessageCount
)

// ListUsers pages the requested index (§4.1).
func (r *UserRepository) ListUsers(dc DisplayContext, orderBy UserOrderBy) []*entities.User {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()

	var ids []string
	ascending := dc.SortOrder == Ascending
	switch orderBy {
	case UserByName:
		ids = r.col.usersByName.Page(dc.PageNumber, r.limits.MaxUsersPerPage, ascending)
	case UserByCreated:
		ids = r.col.usersByCreated.Page(dc.PageNumber, r.limits.MaxUsersPerPage, ascending)
	case UserByLastSeen:
		ids = r.col.usersByLastSeen.Page(dc.PageNumber, r.limits.MaxUsersPerPage, ascending)
	case UserByThreadCount:
		ids = r.col.usersByThreadCount.Page(dc.PageNumber, r.limits.MaxUsersPerPage, ascending)
	case UserByMessageCount:
		ids = r.col.usersByMessageCount.Page(dc.PageNumber, r.limits.MaxUsersPerPage, ascending)
	}

	out := make([]*entities.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.col.users[id])
	}
	return out
}

// Limits exposes the repository's immutable-per-request limits snapshot,
// for callers (e.g. the online-users endpoint) that need a numeric bound
// without a dedicated query method.
func (r *UserRepository) Limits() *Limits {
	return r.limits
}

// CountOnline returns the number of users whose lastSeen falls within
// windowSeconds of now (§6.4 visitorOnlineForSeconds), via the
// usersByLastSeen index's ascending key order.
func (r *UserRepository) CountOnline(now idgen.Timestamp, windowSeconds int64) int {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	cutoff := idgen.Timestamp(int64(now) - windowSeconds)
	return r.col.usersByLastSeen.CountFrom(cutoff)
}
