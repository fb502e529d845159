package seed

import (
	"context"
	"testing"

	"mutualaid/internal/database"
	"mutualaid/internal/models"

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

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestFixtures_PopulatesReferenceData(t *testing.T) {
	db := openTestDB(t)
	s := NewSeeder(db, Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, s.Fixtures(context.Background()))

	assert.EqualValues(t, 3, count(t, db, &models.Country{}))
	assert.EqualValues(t, 4, count(t, db, &models.Location{}))
	assert.EqualValues(t, len(FixtureCategories), count(t, db, &models.Category{}))
	assert.EqualValues(t, 2, count(t, db, &models.User{}))
	assert.EqualValues(t, 3, count(t, db, &models.Post{}))
	assert.EqualValues(t, 2, count(t, db, &models.Like{}))
	assert.EqualValues(t, 2, count(t, db, &models.Favorite{}))
	assert.EqualValues(t, 1, count(t, db, &models.Comment{}))
	assert.EqualValues(t, 2, count(t, db, &models.Message{}))
	assert.EqualValues(t, 2, count(t, db, &models.Follow{}))

	var admin models.User
	require.NoError(t, db.Where("email = ?", "elle.scarps@gmail.com").First(&admin).Error)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, models.RegistrationComplete, admin.RegistrationStatus)
	assert.NotNil(t, admin.LocationID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(FixturePassword)))

	var col models.Collection
	require.NoError(t, db.Preload("Posts").Where("user_id = ?", admin.ID).First(&col).Error)
	assert.Len(t, col.Posts, 2)
}

func TestFixtures_Idempotent(t *testing.T) {
	db := openTestDB(t)
	opts := Options{SkipBcrypt: true}
	require.NoError(t, Seed(context.Background(), db, opts))
	require.NoError(t, Seed(context.Background(), db, opts))

	assert.EqualValues(t, 3, count(t, db, &models.Country{}))
	assert.EqualValues(t, len(FixtureCategories), count(t, db, &models.Category{}))
	assert.EqualValues(t, 2, count(t, db, &models.User{}))
	assert.EqualValues(t, 3, count(t, db, &models.Post{}))
	assert.EqualValues(t, 2, count(t, db, &models.Like{}))
	assert.EqualValues(t, 1, count(t, db, &models.Comment{}))
	assert.EqualValues(t, 1, count(t, db, &models.Collection{}))

	var pairs int64
	require.NoError(t, db.Table("collection_posts").Count(&pairs).Error)
	assert.EqualValues(t, 2, pairs)
}

func TestFixtures_KeepsExistingUser(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.Country{Name: "Turtle Island", Code: "TI"}).Error)
	require.NoError(t, db.Create(&models.User{
		Name:     "Luna",
		Username: "luna-original",
		Email:    "tweetsmiles@gmail.com",
		Password: "kept",
	}).Error)

	require.NoError(t, Seed(context.Background(), db, Options{SkipBcrypt: true}))

	var luna models.User
	require.NoError(t, db.Where("email = ?", "tweetsmiles@gmail.com").First(&luna).Error)
	assert.Equal(t, "luna-original", luna.Username)
	assert.Equal(t, "kept", luna.Password)
	assert.EqualValues(t, 3, count(t, db, &models.Country{}))
}

func TestDemo_CreatesUsersAndPosts(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Seed(context.Background(), db, Options{SkipBcrypt: true, DemoUsers: 5, DemoPosts: 12}))

	assert.EqualValues(t, 7, count(t, db, &models.User{}))
	assert.EqualValues(t, 15, count(t, db, &models.Post{}))

	var orphans int64
	require.NoError(t, db.Model(&models.Post{}).Where("category_id = 0").Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestDemo_RequiresCategories(t *testing.T) {
	db := openTestDB(t)
	err := NewSeeder(db, Options{SkipBcrypt: true}).Demo(context.Background(), 1, 1)
	assert.Error(t, err)
}

func TestFactory_BuildPost(t *testing.T) {
	f := NewFactory(nil, 42)
	loc := uint(3)
	user := &models.User{
		ID:             9,
		LocationID:     &loc,
		ShippingOption: models.ShippingOptionShipping,
	}

	post := f.BuildPost(user, 4)
	assert.NotEmpty(t, post.Title)
	assert.True(t, post.Type.Valid())
	assert.Equal(t, uint(9), post.UserID)
	assert.Equal(t, uint(4), post.CategoryID)
	assert.Equal(t, &loc, post.LocationID)
	require.NotNil(t, post.ShippingCost)
	assert.GreaterOrEqual(t, *post.ShippingCost, 0.0)

	custom := f.BuildPost(user, 4, func(p *models.Post) { p.Title = "Couch" })
	assert.Equal(t, "Couch", custom.Title)
}

func TestFactory_SameSeedSameUsers(t *testing.T) {
	a := NewFactory(nil, 7).BuildUser("x")
	b := NewFactory(nil, 7).BuildUser("x")
	assert.Equal(t, a.Username, b.Username)
	assert.Equal(t, a.Email, b.Email)
	assert.Equal(t, models.RegistrationComplete, a.RegistrationStatus)
}
