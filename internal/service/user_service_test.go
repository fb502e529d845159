package service

import (
	"context"
	"strings"
	"testing"

	"mutualaid/internal/authz"
	"mutualaid/internal/models"
	"mutualaid/internal/storage"
	"mutualaid/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(env *testEnv) *UserService {
	return NewUserService(env.users, env.posts, env.locations, env.media, nil, env.hasher, validation.CredentialPolicy{}, nil, env.engine)
}

func strPtr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, false)
	svc := newUserService(env)
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, callerFor(user), user.ID, UpdateProfileInput{
		Name:           strPtr("New Name"),
		Bio:            strPtr(""),
		Password:       strPtr("changed"),
		SocialLinks:    models.SocialLinks{"instagram": "https://instagram.com/me"},
		City:           strPtr("Porto"),
		Country:        strPtr("Portugal"),
		ShippingOption: strPtr("SHIPPING"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "https://instagram.com/me", updated.SocialLinks["instagram"])
	assert.Equal(t, models.ShippingOptionShipping, updated.ShippingOption)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Porto", updated.Location.City)
	assert.NoError(t, env.hasher.Verify(updated.Password, "changed"))
	assert.False(t, updated.IsAdmin)
}

func TestUpdateProfileConflicts(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, false)
	other := env.user(t, false)
	svc := newUserService(env)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, callerFor(user), user.ID, UpdateProfileInput{Username: &other.Username})
	requireCode(t, err, models.CodeConflict)

	_, err = svc.UpdateProfile(ctx, callerFor(user), user.ID, UpdateProfileInput{Email: &other.Email})
	requireCode(t, err, models.CodeConflict)

	_, err = svc.UpdateProfile(ctx, callerFor(user), user.ID, UpdateProfileInput{Email: strPtr("broken")})
	requireCode(t, err, models.CodeValidation)

	// Keeping the current username is not a conflict.
	_, err = svc.UpdateProfile(ctx, callerFor(user), user.ID, UpdateProfileInput{Username: &user.Username})
	require.NoError(t, err)
}

func TestUpdateProfileOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, false)
	admin := env.user(t, true)
	svc := newUserService(env)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, callerFor(admin), user.ID, UpdateProfileInput{Name: strPtr("Hijacked")})
	requireCode(t, err, models.CodeForbidden)

	_, err = svc.UpdateProfile(ctx, authz.Anonymous(), user.ID, UpdateProfileInput{Name: strPtr("x")})
	requireCode(t, err, models.CodeUnauthorized)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, false)
	other := env.user(t, false)
	env.post(t, user, env.category(t, "Misc"))
	svc := newUserService(env)
	ctx := context.Background()

	requireCode(t, svc.DeleteUser(ctx, callerFor(other), user.ID), models.CodeForbidden)
	require.NoError(t, svc.DeleteUser(ctx, callerFor(user), user.ID))

	_, err := svc.GetUser(ctx, user.ID)
	requireCode(t, err, models.CodeNotFound)
	_, err = svc.GetUserPosts(ctx, user.ID, 20, 0)
	requireCode(t, err, models.CodeNotFound)
}

func TestDeleteUserRemovesStoredUploads(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, false)
	other := env.user(t, false)
	cat := env.category(t, "Art")
	posts, store := newPostService(t, env)
	svc := NewUserService(env.users, env.posts, env.locations, env.media, store, env.hasher, validation.CredentialPolicy{}, nil, env.engine)
	ctx := context.Background()

	upload := func() *storage.Upload {
		return &storage.Upload{Filename: "art.png", ContentType: "image/png", Content: pngBytes(t)}
	}
	mine, err := posts.CreatePost(ctx, callerFor(user), CreatePostInput{Title: "Print", CategoryID: cat.ID, Upload: upload()})
	require.NoError(t, err)
	theirs, err := posts.CreatePost(ctx, callerFor(other), CreatePostInput{Title: "Print", CategoryID: cat.ID, Upload: upload()})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, callerFor(user), user.ID))
	assert.False(t, storedFileExists(t, store, mine.Images[0].URL))
	assert.True(t, storedFileExists(t, store, theirs.Images[0].URL))
}

func TestUpdateProfileRejectsOverlongPassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, false)
	svc := newUserService(env)

	_, err := svc.UpdateProfile(context.Background(), callerFor(user), user.ID, UpdateProfileInput{
		Password: strPtr(strings.Repeat("p", validation.MaxPasswordBytes+1)),
	})
	requireCode(t, err, models.CodeValidation)
}

func TestSetAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, true)
	user := env.user(t, false)
	svc := newUserService(env)
	ctx := context.Background()

	_, err := svc.SetAdmin(ctx, callerFor(user), user.ID, true)
	requireCode(t, err, models.CodeForbidden)

	promoted, err := svc.SetAdmin(ctx, callerFor(admin), user.ID, true)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)

	demoted, err := svc.SetAdmin(ctx, callerFor(admin), user.ID, false)
	require.NoError(t, err)
	assert.False(t, demoted.IsAdmin)

	_, err = svc.SetAdmin(ctx, callerFor(admin), 999, true)
	requireCode(t, err, models.CodeNotFound)
}
