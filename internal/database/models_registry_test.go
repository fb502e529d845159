package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestMigrate_CreatesEveryTable(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))

	for _, table := range []string{
		"countries", "locations", "categories", "users", "posts", "images", "media",
		"likes", "favorites", "comments", "follows", "messages", "collections", "collection_posts",
	} {
		assert.Truef(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	assert.True(t, db.Migrator().HasIndex("users", "idx_users_email"))
	assert.True(t, db.Migrator().HasIndex("follows", "idx_follows_pair"))
	assert.True(t, db.Migrator().HasIndex("likes", "idx_likes_user_post"))
}

func TestPersistentModels_NoDuplicates(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range PersistentModels() {
		name := typeName(m)
		assert.Falsef(t, seen[name], "duplicate model %s", name)
		seen[name] = true
	}
}
