package authz

import (
	"net/http"
	"testing"

	"mutualaid/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice uint = 1
	bob   uint = 2
	admin uint = 99
)

var (
	anon       = Anonymous()
	badToken   = InvalidCredential()
	asAlice    = Authenticated(alice, false)
	asBob      = Authenticated(bob, false)
	asAdmin    = Authenticated(admin, true)
	aliceAdmin = Authenticated(alice, true)
)

func TestEngine_Authorize(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name   string
		caller Caller
		action Action
		res    Resource
		want   Decision
	}{
		// authentication
		{"anonymous read post", anon, ActionRead, Resource{Kind: KindPost, OwnerID: alice}, Allow()},
		{"anonymous create post", anon, ActionCreate, Resource{Kind: KindPost}, Deny(ReasonMissingToken)},
		{"invalid token create post", badToken, ActionCreate, Resource{Kind: KindPost}, Deny(ReasonInvalidToken)},
		{"invalid token on public read is anonymous", badToken, ActionRead, Resource{Kind: KindCategory}, Allow()},
		{"valid credential without user id", Caller{Credential: CredentialValid}, ActionCreate, Resource{Kind: KindPost}, Deny(ReasonInvalidToken)},

		// admin-only
		{"non-admin create category", asAlice, ActionCreate, Resource{Kind: KindCategory}, Deny(ReasonForbidden)},
		{"admin create category", asAdmin, ActionCreate, Resource{Kind: KindCategory}, Allow()},
		{"non-admin delete location", asAlice, ActionDelete, Resource{Kind: KindLocation}, Deny(ReasonForbidden)},
		{"admin update location", asAdmin, ActionUpdate, Resource{Kind: KindLocation}, Allow()},
		{"anonymous create category", anon, ActionCreate, Resource{Kind: KindCategory}, Deny(ReasonMissingToken)},
		{"invalid token beats admin-only", badToken, ActionUpdate, Resource{Kind: KindCategory}, Deny(ReasonInvalidToken)},
		{"non-admin promote", asAlice, ActionUpdate, Resource{Kind: KindUserRole, OwnerID: bob}, Deny(ReasonForbidden)},
		{"admin promote", asAdmin, ActionUpdate, Resource{Kind: KindUserRole, OwnerID: bob}, Allow()},

		// user: self only, no admin override
		{"self update", asAlice, ActionUpdate, Resource{Kind: KindUser, OwnerID: alice}, Allow()},
		{"other update", asBob, ActionUpdate, Resource{Kind: KindUser, OwnerID: alice}, Deny(ReasonForbidden)},
		{"admin update other user", asAdmin, ActionUpdate, Resource{Kind: KindUser, OwnerID: alice}, Deny(ReasonForbidden)},
		{"self delete", asAlice, ActionDelete, Resource{Kind: KindUser, OwnerID: alice}, Allow()},
		{"admin delete other user", asAdmin, ActionDelete, Resource{Kind: KindUser, OwnerID: alice}, Deny(ReasonForbidden)},

		// post: owner or admin
		{"owner update post", asAlice, ActionUpdate, Resource{Kind: KindPost, OwnerID: alice}, Allow()},
		{"stranger update post", asBob, ActionUpdate, Resource{Kind: KindPost, OwnerID: alice}, Deny(ReasonForbidden)},
		{"admin update post", asAdmin, ActionUpdate, Resource{Kind: KindPost, OwnerID: alice}, Allow()},
		{"stranger delete post", asBob, ActionDelete, Resource{Kind: KindPost, OwnerID: alice}, Deny(ReasonForbidden)},
		{"admin delete post", asAdmin, ActionDelete, Resource{Kind: KindPost, OwnerID: alice}, Allow()},

		// message: parties only
		{"sender reads message", asAlice, ActionRead, Resource{Kind: KindMessage, Parties: []uint{alice, bob}}, Allow()},
		{"receiver deletes message", asBob, ActionDelete, Resource{Kind: KindMessage, Parties: []uint{alice, bob}}, Allow()},
		{"outsider reads message", asAdmin, ActionRead, Resource{Kind: KindMessage, Parties: []uint{alice, bob}}, Deny(ReasonForbidden)},
		{"anonymous reads message", anon, ActionRead, Resource{Kind: KindMessage, Parties: []uint{alice, bob}}, Deny(ReasonMissingToken)},

		// follow
		{"follow other", asAlice, ActionCreate, Resource{Kind: KindFollow, OwnerID: alice, TargetID: bob}, Allow()},
		{"follow self", asAlice, ActionCreate, Resource{Kind: KindFollow, OwnerID: alice, TargetID: alice}, Deny(ReasonCannotFollowSelf)},
		{"admin follow self", aliceAdmin, ActionCreate, Resource{Kind: KindFollow, OwnerID: alice, TargetID: alice}, Deny(ReasonCannotFollowSelf)},
		{"anonymous follow", anon, ActionCreate, Resource{Kind: KindFollow, TargetID: bob}, Deny(ReasonMissingToken)},
		{"follower unfollows", asAlice, ActionDelete, Resource{Kind: KindFollow, OwnerID: alice, TargetID: bob}, Allow()},
		{"other removes follow", asBob, ActionDelete, Resource{Kind: KindFollow, OwnerID: alice, TargetID: bob}, Deny(ReasonForbidden)},

		// collection: owner only
		{"owner reads collection", asAlice, ActionRead, Resource{Kind: KindCollection, OwnerID: alice}, Allow()},
		{"other reads collection", asBob, ActionRead, Resource{Kind: KindCollection, OwnerID: alice}, Deny(ReasonForbidden)},
		{"admin relates collection", asAdmin, ActionRelate, Resource{Kind: KindCollection, OwnerID: alice}, Deny(ReasonForbidden)},
		{"owner relates collection", asAlice, ActionRelate, Resource{Kind: KindCollection, OwnerID: alice}, Allow()},

		// images and media follow the parent post
		{"post owner adds image", asAlice, ActionCreate, Resource{Kind: KindImage, OwnerID: alice}, Allow()},
		{"stranger adds image", asBob, ActionCreate, Resource{Kind: KindImage, OwnerID: alice}, Deny(ReasonForbidden)},
		{"admin deletes media", asAdmin, ActionDelete, Resource{Kind: KindMedia, OwnerID: alice}, Allow()},

		// engagement
		{"like post", asBob, ActionCreate, Resource{Kind: KindLike, TargetID: 7}, Allow()},
		{"unlike someone else's like", asBob, ActionDelete, Resource{Kind: KindLike, OwnerID: alice}, Deny(ReasonForbidden)},
		{"comment author edits", asAlice, ActionUpdate, Resource{Kind: KindComment, OwnerID: alice}, Allow()},
		{"admin deletes comment", asAdmin, ActionDelete, Resource{Kind: KindComment, OwnerID: alice}, Allow()},
		{"stranger edits comment", asBob, ActionUpdate, Resource{Kind: KindComment, OwnerID: alice}, Deny(ReasonForbidden)},

		// defaults for unlisted pairs
		{"unlisted read is public", anon, ActionRead, Resource{Kind: Kind("widget")}, Allow()},
		{"unlisted write needs auth", anon, ActionUpdate, Resource{Kind: Kind("widget")}, Deny(ReasonMissingToken)},
		{"unlisted write allows any user", asBob, ActionUpdate, Resource{Kind: Kind("widget")}, Allow()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Authorize(tt.caller, tt.action, tt.res))
		})
	}
}

func TestEngine_Precheck(t *testing.T) {
	e := NewEngine()

	// Ownership is not evaluated before the record is loaded.
	assert.True(t, e.Precheck(asBob, ActionUpdate, KindPost).Allowed)
	assert.True(t, e.Precheck(asBob, ActionRead, KindMessage).Allowed)

	assert.Equal(t, Deny(ReasonMissingToken), e.Precheck(anon, ActionUpdate, KindPost))
	assert.Equal(t, Deny(ReasonInvalidToken), e.Precheck(badToken, ActionDelete, KindMessage))
	assert.Equal(t, Deny(ReasonForbidden), e.Precheck(asAlice, ActionDelete, KindCategory))
	assert.True(t, e.Precheck(badToken, ActionRead, KindPost).Allowed)
}

func TestEngine_AnonymousNeverMutates(t *testing.T) {
	e := NewEngine()
	for kind, byAction := range DefaultPolicies() {
		for action, p := range byAction {
			if p.Public {
				continue
			}
			d := e.Authorize(anon, action, Resource{Kind: kind})
			assert.Falsef(t, d.Allowed, "%s %s allowed anonymously", kind, action)
			assert.Equal(t, ReasonMissingToken, d.Reason)
		}
	}
}

func TestEngine_Observer(t *testing.T) {
	type seen struct {
		kind    Kind
		action  Action
		outcome string
	}
	var got []seen
	e := NewEngine(WithObserver(func(k Kind, a Action, d Decision) {
		got = append(got, seen{k, a, d.Outcome()})
	}))

	e.Authorize(asAlice, ActionUpdate, Resource{Kind: KindPost, OwnerID: bob})
	e.Precheck(asAlice, ActionRead, KindPost)
	e.Precheck(anon, ActionCreate, KindPost)

	require.Len(t, got, 2)
	assert.Equal(t, seen{KindPost, ActionUpdate, "deny"}, got[0])
	assert.Equal(t, seen{KindPost, ActionCreate, "deny"}, got[1])
}

func TestEngine_WithPolicy(t *testing.T) {
	e := NewEngine(WithPolicy(KindCategory, ActionRead, Policy{AdminOnly: true}))
	assert.Equal(t, Deny(ReasonForbidden), e.Authorize(asAlice, ActionRead, Resource{Kind: KindCategory}))
	assert.True(t, e.Authorize(asAdmin, ActionRead, Resource{Kind: KindCategory}).Allowed)
}

func TestDecision_StatusAndErr(t *testing.T) {
	tests := []struct {
		d      Decision
		status int
		code   string
	}{
		{Allow(), http.StatusOK, ""},
		{Deny(ReasonMissingToken), http.StatusUnauthorized, models.CodeUnauthorized},
		{Deny(ReasonInvalidToken), http.StatusUnauthorized, models.CodeUnauthorized},
		{Deny(ReasonForbidden), http.StatusForbidden, models.CodeForbidden},
		{Deny(ReasonCannotFollowSelf), http.StatusBadRequest, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.d.Outcome()+"/"+string(tt.d.Reason), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.d.Status())
			err := tt.d.Err()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, models.IsCode(err, tt.code))
			assert.Equal(t, tt.status, models.StatusFor(err))
		})
	}

	assert.Equal(t, "You cannot follow yourself", Deny(ReasonCannotFollowSelf).Err().(*models.AppError).Message)
}
