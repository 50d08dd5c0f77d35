// Package authz is the single place where "may this actor do that to
// this resource" is decided. Handlers and services never compare roles or
// owner ids themselves; they build a Resource and ask Can. The rule set
// is a closed table so it can be tested exhaustively without any
// transport or storage in the way.
package authz

import (
	"github.com/tlemoine/blog-platform/backend/internal/apperr"
	"github.com/tlemoine/blog-platform/backend/internal/models"
)

type Action int

const (
	PostCreate Action = iota
	PostUpdate
	PostDelete
	CommentCreate
	CommentUpdate
	CommentDelete
	LikeCreate
	LikeDelete
	CategoryCreate
	CategoryUpdate
	CategoryDelete
	UserDelete
	UserSetRole
	AdminView
)

// Resource describes the thing being acted on. OwnerID is the id of the
// owning user where ownership matters (post author, comment author, the
// like's user, or the target user itself). TargetRole is set only when
// the resource is a user, so the admin-cannot-delete-admin rule can see
// the target's role.
type Resource struct {
	OwnerID    string
	TargetRole models.Role
}

// Owned is shorthand for a resource identified only by its owner.
func Owned(ownerID string) Resource { return Resource{OwnerID: ownerID} }

type rule struct {
	allow func(actor *models.User, res Resource) bool
	deny  string
}

func authenticated(*models.User, Resource) bool { return true }

func ownerOnly(actor *models.User, res Resource) bool {
	return actor.ID == res.OwnerID
}

func ownerOrAdmin(actor *models.User, res Resource) bool {
	return actor.ID == res.OwnerID || actor.IsAdmin()
}

func adminOnly(actor *models.User, _ Resource) bool {
	return actor.IsAdmin()
}

// selfOrAdminOnNonAdmin: a user may delete itself; an admin may delete
// any non-admin. An admin account is never a valid target of an
// admin-initiated deletion, but self-deletion is allowed even for admins.
func selfOrAdminOnNonAdmin(actor *models.User, res Resource) bool {
	if actor.ID == res.OwnerID {
		return true
	}
	return actor.IsAdmin() && res.TargetRole != models.RoleAdmin
}

var rules = map[Action]rule{
	PostCreate:    {authenticated, "Not authorized"},
	PostUpdate:    {ownerOrAdmin, "Not authorized to update this post"},
	PostDelete:    {ownerOrAdmin, "Not authorized to delete this post"},
	CommentCreate: {authenticated, "Not authorized"},
	CommentUpdate: {ownerOrAdmin, "Not authorized to update this comment"},
	CommentDelete: {ownerOrAdmin, "Not authorized to delete this comment"},
	LikeCreate:    {authenticated, "Not authorized"},
	LikeDelete:    {ownerOnly, "Not authorized"},

	CategoryCreate: {adminOnly, "Admin access required"},
	CategoryUpdate: {adminOnly, "Admin access required"},
	CategoryDelete: {adminOnly, "Admin access required"},

	UserDelete:  {selfOrAdminOnNonAdmin, "Cannot delete this user"},
	UserSetRole: {adminOnly, "Admin access required"},
	AdminView:   {adminOnly, "Admin access required"},
}

// Can returns nil if actor may perform action on res, an Authentication
// error for anonymous actors, and an Authorization error otherwise.
// Read-only listing and detail operations are public and never pass
// through here.
func Can(actor *models.User, action Action, res Resource) error {
	if actor == nil {
		return apperr.E(apperr.Authentication, "No token, authorization denied")
	}
	r, ok := rules[action]
	if !ok {
		return apperr.E(apperr.Authorization, "Not authorized")
	}
	if !r.allow(actor, res) {
		return apperr.E(apperr.Authorization, "%s", r.deny)
	}
	return nil
}
