package service

import (
	"context"
	"testing"

	"mutualaid/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollections(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, false)
	other := env.user(t, false)
	admin := env.user(t, true)
	post := env.post(t, other, env.category(t, "Bikes"))
	svc := NewCollectionService(env.collections, env.engine)
	ctx := context.Background()

	_, err := svc.Create(ctx, callerFor(owner), " ")
	requireCode(t, err, models.CodeValidation)

	col, err := svc.Create(ctx, callerFor(owner), "Wishlist")
	require.NoError(t, err)
	assert.Empty(t, col.Posts)

	col, err = svc.AddPost(ctx, callerFor(owner), col.ID, post.ID)
	require.NoError(t, err)
	require.Len(t, col.Posts, 1)

	col, err = svc.AddPost(ctx, callerFor(owner), col.ID, post.ID)
	require.NoError(t, err)
	assert.Len(t, col.Posts, 1)

	_, err = svc.AddPost(ctx, callerFor(owner), col.ID, 999)
	requireCode(t, err, models.CodeNotFound)

	// Collections are private, even to admins.
	_, err = svc.Get(ctx, callerFor(admin), col.ID)
	requireCode(t, err, models.CodeForbidden)
	_, err = svc.AddPost(ctx, callerFor(other), col.ID, post.ID)
	requireCode(t, err, models.CodeForbidden)

	renamed, err := svc.Rename(ctx, callerFor(owner), col.ID, "Someday")
	require.NoError(t, err)
	assert.Equal(t, "Someday", renamed.Name)

	col, err = svc.RemovePost(ctx, callerFor(owner), col.ID, post.ID)
	require.NoError(t, err)
	assert.Empty(t, col.Posts)

	mine, err := svc.ListMine(ctx, callerFor(owner))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	requireCode(t, svc.Delete(ctx, callerFor(other), col.ID), models.CodeForbidden)
	require.NoError(t, svc.Delete(ctx, callerFor(owner), col.ID))
	_, err = svc.Get(ctx, callerFor(owner), col.ID)
	requireCode(t, err, models.CodeNotFound)
}
