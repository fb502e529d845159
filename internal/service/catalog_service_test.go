package service

import (
	"context"
	"testing"

	"mutualaid/internal/cache"
	"mutualaid/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, true)
	user := env.user(t, false)
	svc := NewCatalogService(env.categories, env.locations, nil, env.engine)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, callerFor(user), "Electronics")
	requireCode(t, err, models.CodeForbidden)

	cat, err := svc.CreateCategory(ctx, callerFor(admin), " Electronics ")
	require.NoError(t, err)
	assert.Equal(t, "Electronics", cat.Name)

	_, err = svc.CreateCategory(ctx, callerFor(admin), "Electronics")
	requireCode(t, err, models.CodeConflict)

	_, err = svc.CreateCategory(ctx, callerFor(admin), "  ")
	requireCode(t, err, models.CodeValidation)

	renamed, err := svc.RenameCategory(ctx, callerFor(admin), cat.ID, "Gadgets")
	require.NoError(t, err)
	assert.Equal(t, "Gadgets", renamed.Name)

	require.NoError(t, svc.DeleteCategory(ctx, callerFor(admin), cat.ID))
	requireCode(t, svc.DeleteCategory(ctx, callerFor(admin), cat.ID), models.CodeNotFound)
}

func TestCategoryListCacheInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := newTestEnv(t)
	admin := env.user(t, true)
	svc := NewCatalogService(env.categories, env.locations, cache.New(rdb), env.engine)
	ctx := context.Background()

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
	assert.True(t, mr.Exists(cache.CategoriesKey))

	_, err = svc.CreateCategory(ctx, callerFor(admin), "Books")
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.CategoriesKey))

	cats, err = svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Books", cats[0].Name)
}

func TestLocations(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, true)
	user := env.user(t, false)
	svc := NewCatalogService(env.categories, env.locations, nil, env.engine)
	ctx := context.Background()

	_, err := svc.CreateLocation(ctx, callerFor(user), LocationInput{City: "Oslo", Country: "Norway"})
	requireCode(t, err, models.CodeForbidden)

	_, err = svc.CreateLocation(ctx, callerFor(admin), LocationInput{City: "Oslo"})
	requireCode(t, err, models.CodeValidation)

	lat := 59.91
	loc, err := svc.CreateLocation(ctx, callerFor(admin), LocationInput{City: "Oslo", Country: "Norway", Latitude: &lat})
	require.NoError(t, err)
	assert.Equal(t, "Oslo", loc.City)
	require.NotNil(t, loc.Latitude)
	assert.InDelta(t, lat, *loc.Latitude, 0.0001)

	countries, err := svc.ListCountries(ctx)
	require.NoError(t, err)
	require.Len(t, countries, 1)

	second, err := svc.CreateLocation(ctx, callerFor(admin), LocationInput{City: "Bergen", CountryID: countries[0].ID})
	require.NoError(t, err)

	_, err = svc.CreateLocation(ctx, callerFor(admin), LocationInput{City: "Nowhere", CountryID: 999})
	requireCode(t, err, models.CodeValidation)

	city := "Trondheim"
	updated, err := svc.UpdateLocation(ctx, callerFor(admin), second.ID, LocationUpdate{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Trondheim", updated.City)

	require.NoError(t, svc.DeleteLocation(ctx, callerFor(admin), second.ID))
	_, err = svc.GetLocation(ctx, second.ID)
	requireCode(t, err, models.CodeNotFound)

	locs, err := svc.ListLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, locs, 1)
}
