package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ideabank/internal/authz"
)

func TestCanEditIdea(t *testing.T) {
	owner := authz.Actor{ID: 1, Authenticated: true}
	admin := authz.Actor{ID: 2, IsAdmin: true, Authenticated: true}
	other := authz.Actor{ID: 3, Authenticated: true}

	assert.True(t, owner.CanEditIdea(1))
	assert.True(t, admin.CanEditIdea(1))
	assert.False(t, other.CanEditIdea(1))
	assert.False(t, authz.Anonymous.CanEditIdea(1))
}

func TestCanEditComment(t *testing.T) {
	author := authz.Actor{ID: 5, Authenticated: true}
	admin := authz.Actor{ID: 6, IsAdmin: true, Authenticated: true}

	assert.True(t, author.CanEditComment(5))
	// Admins do not get to edit other people's comments.
	assert.False(t, admin.CanEditComment(5))
	assert.False(t, authz.Anonymous.CanEditComment(5))
}

func TestCanModerateComment(t *testing.T) {
	ideaOwner := authz.Actor{ID: 7, Authenticated: true}
	commentAuthor := authz.Actor{ID: 8, Authenticated: true}

	assert.True(t, ideaOwner.CanModerateComment(7))
	assert.False(t, commentAuthor.CanModerateComment(7))
}

func TestCanAccessAdmin(t *testing.T) {
	assert.True(t, authz.Actor{ID: 1, IsAdmin: true, Authenticated: true}.CanAccessAdmin())
	assert.False(t, authz.Actor{ID: 1, Authenticated: true}.CanAccessAdmin())
	// An unauthenticated actor with a stray admin flag still fails.
	assert.False(t, authz.Actor{ID: 1, IsAdmin: true}.CanAccessAdmin())
}

func TestAdminSelfProtection(t *testing.T) {
	admin := authz.Actor{ID: 9, IsAdmin: true, Authenticated: true}

	assert.True(t, admin.CanToggleAdmin(10))
	assert.False(t, admin.CanToggleAdmin(9))

	assert.True(t, admin.CanDeleteUser(10))
	assert.False(t, admin.CanDeleteUser(9))

	regular := authz.Actor{ID: 11, Authenticated: true}
	assert.False(t, regular.CanToggleAdmin(10))
	assert.False(t, regular.CanDeleteUser(10))
}
