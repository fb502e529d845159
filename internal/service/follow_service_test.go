package service

import (
	"context"
	"testing"

	"mutualaid/internal/authz"
	"mutualaid/internal/models"
	"mutualaid/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFollow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, false)
	bob := env.user(t, false)
	pub := new(mockPublisher)
	pub.On("PublishEvent", mock.Anything, bob.ID, notifications.EventNewFollower, mock.Anything).Return(nil).Once()
	svc := NewFollowService(env.follows, env.users, pub, env.engine)
	ctx := context.Background()

	follow, err := svc.Follow(ctx, callerFor(alice), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, follow.FollowerID)
	assert.Equal(t, bob.ID, follow.FollowingID)
	pub.AssertExpectations(t)

	_, err = svc.Follow(ctx, callerFor(alice), bob.ID)
	requireCode(t, err, models.CodeConflict)

	following, err := svc.Following(ctx, callerFor(alice))
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, bob.ID, following[0].ID)

	followers, err := svc.Followers(ctx, callerFor(bob))
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, alice.ID, followers[0].ID)
}

func TestFollowSelf(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, true)
	svc := NewFollowService(env.follows, env.users, nil, env.engine)

	_, err := svc.Follow(context.Background(), callerFor(admin), admin.ID)
	appErr := requireCode(t, err, models.CodeValidation)
	assert.Equal(t, "You cannot follow yourself", appErr.Message)
	assert.Equal(t, 400, models.StatusFor(err))
}

func TestFollowRejections(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, false)
	svc := NewFollowService(env.follows, env.users, nil, env.engine)
	ctx := context.Background()

	_, err := svc.Follow(ctx, authz.Anonymous(), alice.ID)
	requireCode(t, err, models.CodeUnauthorized)

	_, err = svc.Follow(ctx, callerFor(alice), 999)
	requireCode(t, err, models.CodeNotFound)

	_, err = svc.Following(ctx, authz.InvalidCredential())
	requireCode(t, err, models.CodeUnauthorized)
}

func TestUnfollow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, false)
	bob := env.user(t, false)
	svc := NewFollowService(env.follows, env.users, nil, env.engine)
	ctx := context.Background()

	requireCode(t, svc.Unfollow(ctx, callerFor(alice), bob.ID), models.CodeNotFound)

	_, err := svc.Follow(ctx, callerFor(alice), bob.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Unfollow(ctx, callerFor(alice), bob.ID))

	following, err := svc.Following(ctx, callerFor(alice))
	require.NoError(t, err)
	assert.Empty(t, following)
}
