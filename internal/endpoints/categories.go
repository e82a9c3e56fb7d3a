package endpoints

import (
	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/store"
)

// ListRootCategories: GET categories/root
func (d *Deps) ListRootCategories(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	writeStatus(resp, store.OK, newCategoryDTOs(d.Repos.Categories.ListRootCategories()))
}

// ListChildCategories: GET categories/children/<id>
func (d *Deps) ListChildCategories(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	writeStatus(resp, store.OK, newCategoryDTOs(d.Repos.Categories.ListChildren(id)))
}

// GetCategoryByID: GET categories/id/<id>
func (d *Deps) GetCategoryByID(req *httpserver.Request, resp *httpserver.Response) {
	d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	cat, found := d.Repos.Categories.GetByID(id)
	if !found {
		writeStatusOnly(resp, store.NotFound)
		return
	}
	writeStatus(resp, store.OK, newCategoryDTO(cat))
}

type addCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AddCategory: POST categories/<parentId> (body = addCategoryRequest; parentId
// may be the zero id for a root category)
func (d *Deps) AddCategory(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	parent, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.checkAndThrottle(ac, entities.PrivAddNewDiscussionCategory, authz.ActionNewContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	var body addCategoryRequest
	var raw string
	if !bindJSONOrRawName(req.Body, &body, &raw) {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	if body.Name == "" {
		body.Name = raw
	}
	status, cat := d.Repos.Categories.AddCategory(ac.obs, body.Name, body.Description, parent)
	if status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	writeStatus(resp, store.OK, newCategoryDTO(cat))
}

// checkCategory adapts Collection.CheckCategory to scopedCheckThrottle's shape.
func (d *Deps) checkCategory(user idgen.ID, priv entities.Privilege, categoryID idgen.ID, now idgen.Timestamp) bool {
	return d.Repos.Collection.CheckCategory(user, priv, categoryID, now)
}

// UpdateCategoryName: PUT categories/name/<id> (body = new name)
func (d *Deps) UpdateCategoryName(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivEditDiscussionCategory, id, d.checkCategory, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Categories.UpdateName(ac.obs, id, string(req.Body))
	writeStatusOnly(resp, status)
}

// UpdateCategoryDescription: PUT categories/description/<id> (body = description)
func (d *Deps) UpdateCategoryDescription(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivEditDiscussionCategory, id, d.checkCategory, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Categories.UpdateDescription(ac.obs, id, string(req.Body))
	writeStatusOnly(resp, status)
}

// ReparentCategory: PUT categories/parent/<id>/<newParentId>
func (d *Deps) ReparentCategory(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	newParent, ok := pathID(req, resp, 1)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivEditDiscussionCategory, id, d.checkCategory, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Categories.Reparent(ac.obs, id, newParent)
	writeStatusOnly(resp, status)
}

// ReorderCategory: PUT categories/order/<id>/<newOrder>
func (d *Deps) ReorderCategory(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	newOrder, ok := pathInt(req, 1)
	if !ok {
		writeStatusOnly(resp, store.InvalidParameters)
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivEditDiscussionCategoryDisplayOrder, id, d.checkCategory, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Categories.Reorder(ac.obs, id, newOrder)
	writeStatusOnly(resp, status)
}

// AttachTagToCategory: POST categories/tags/<categoryId>/<tagId>
func (d *Deps) AttachTagToCategory(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	categoryID, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	tagID, ok := pathID(req, resp, 1)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivAttachTagToCategory, categoryID, d.checkCategory, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Categories.AttachTag(ac.obs, categoryID, tagID)
	writeStatusOnly(resp, status)
}

// DetachTagFromCategory: DELETE categories/tags/<categoryId>/<tagId>
func (d *Deps) DetachTagFromCategory(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	categoryID, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	tagID, ok := pathID(req, resp, 1)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivDetachTagFromCategory, categoryID, d.checkCategory, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Categories.DetachTag(ac.obs, categoryID, tagID)
	writeStatusOnly(resp, status)
}

// DeleteCategory: DELETE categories/<id>
func (d *Deps) DeleteCategory(req *httpserver.Request, resp *httpserver.Response) {
	ac := d.resolve(req)
	id, ok := pathID(req, resp, 0)
	if !ok {
		return
	}
	if status := d.scopedCheckThrottle(ac, entities.PrivDeleteDiscussionCategory, id, d.checkCategory, authz.ActionEditContent); status != store.OK {
		writeStatusOnly(resp, status)
		return
	}
	status := d.Repos.Categories.DeleteCategory(ac.obs, id)
	writeStatusOnly(resp, status)
}
