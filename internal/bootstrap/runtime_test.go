package bootstrap

import (
	"context"
	"testing"

	"mutualaid/internal/config"
	"mutualaid/internal/database"
	"mutualaid/internal/models"
	"mutualaid/internal/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestPrepare_SeedsAndPromotesBootstrapAdmin(t *testing.T) {
	db := openTestDB(t)
	cfg := &config.Config{BcryptCost: bcrypt.MinCost, BootstrapAdminEmail: " TweetSmiles@gmail.com "}

	require.NoError(t, Prepare(context.Background(), cfg, db, Options{Seed: true}))

	var categories int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	assert.EqualValues(t, len(seed.FixtureCategories), categories)

	var luna models.User
	require.NoError(t, db.Where("email = ?", "tweetsmiles@gmail.com").First(&luna).Error)
	assert.True(t, luna.IsAdmin)
}

func TestPrepare_UnknownBootstrapAdminIsNotFatal(t *testing.T) {
	db := openTestDB(t)
	cfg := &config.Config{BootstrapAdminEmail: "nobody@example.com"}

	assert.NoError(t, Prepare(context.Background(), cfg, db, Options{}))

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestPrepare_NoopWithoutOptions(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Prepare(context.Background(), &config.Config{}, db, Options{}))

	var countries int64
	require.NoError(t, db.Model(&models.Country{}).Count(&countries).Error)
	assert.Zero(t, countries)
}
