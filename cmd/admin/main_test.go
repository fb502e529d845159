package main

import (
	"context"
	"testing"
	"time"

	"mutualaid/internal/cache"
	"mutualaid/internal/database"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestSetAdminDropsCachedIdentity(t *testing.T) {
	db, err := database.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb, err := cache.NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	identities := cache.New(rdb)

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	user := &models.User{
		Username:               "operator",
		Email:                  "operator@example.com",
		Password:               "hash",
		Name:                   "Operator",
		RegistrationStatus:     models.RegistrationComplete,
		ShippingOption:         models.ShippingOptionPickup,
		ShippingResponsibility: models.ShippingResponsibilityReceiver,
	}
	require.NoError(t, users.Create(ctx, user))
	require.NoError(t, identities.SetJSON(ctx, cache.UserKey(user.ID), user, time.Minute))

	require.NoError(t, setAdmin(ctx, users, identities, user.Email, true))
	assert.False(t, mr.Exists(cache.UserKey(user.ID)))

	promoted, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)

	assert.Error(t, setAdmin(ctx, users, identities, "9999", false))
}
