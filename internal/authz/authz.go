// Package authz centralizes the permission predicates used by handlers
// and middleware. Handlers resolve the session into an Actor once and
// pass it around; the predicates never touch the database.
package authz

// Actor is the authenticated (or anonymous) principal behind a request.
type Actor struct {
	ID            uint
	IsAdmin       bool
	Authenticated bool
}

// Anonymous is the zero actor for requests with no session.
var Anonymous = Actor{}

// CanEditIdea reports whether the actor may edit an idea owned by ownerID.
// Owners and admins may edit.
func (a Actor) CanEditIdea(ownerID uint) bool {
	return a.Authenticated && (a.ID == ownerID || a.IsAdmin)
}

// CanEditComment reports whether the actor may edit or delete a comment
// authored by authorID. Only the author may.
func (a Actor) CanEditComment(authorID uint) bool {
	return a.Authenticated && a.ID == authorID
}

// CanModerateComment reports whether the actor may toggle a comment's
// publish flag. Only the owner of the idea the comment sits on may.
func (a Actor) CanModerateComment(ideaOwnerID uint) bool {
	return a.Authenticated && a.ID == ideaOwnerID
}

// CanAccessAdmin gates the dashboard and the user management pages.
func (a Actor) CanAccessAdmin() bool {
	return a.Authenticated && a.IsAdmin
}

// CanToggleAdmin reports whether the actor may flip the admin flag of
// targetID. Admins may, but never on their own account.
func (a Actor) CanToggleAdmin(targetID uint) bool {
	return a.CanAccessAdmin() && a.ID != targetID
}

// CanDeleteUser reports whether the actor may delete targetID. Admins
// may, but never their own account.
func (a Actor) CanDeleteUser(targetID uint) bool {
	return a.CanAccessAdmin() && a.ID != targetID
}
