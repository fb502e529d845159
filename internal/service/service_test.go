package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mutualaid/internal/auth"
	"mutualaid/internal/authz"
	"mutualaid/internal/database"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires real repositories over an in-memory sqlite database.
type testEnv struct {
	db          *gorm.DB
	users       repository.UserRepository
	posts       repository.PostRepository
	categories  repository.CategoryRepository
	locations   repository.LocationRepository
	messages    repository.MessageRepository
	follows     repository.FollowRepository
	collections repository.CollectionRepository
	engagement  repository.EngagementRepository
	media       repository.MediaRepository
	hasher      auth.PasswordHasher
	tokens      *auth.JWTIssuer
	engine      *authz.Engine
	seq         int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	return &testEnv{
		db:          db,
		users:       repository.NewUserRepository(db),
		posts:       repository.NewPostRepository(db),
		categories:  repository.NewCategoryRepository(db),
		locations:   repository.NewLocationRepository(db),
		messages:    repository.NewMessageRepository(db),
		follows:     repository.NewFollowRepository(db),
		collections: repository.NewCollectionRepository(db),
		engagement:  repository.NewEngagementRepository(db),
		media:       repository.NewMediaRepository(db),
		hasher:      auth.NewBcryptHasher(bcrypt.MinCost),
		tokens:      auth.NewJWTIssuer("test-secret-with-some-length", "mutualaid-test"),
		engine:      authz.NewEngine(),
	}
}

// user creates a COMPLETE account whose password is "password".
func (e *testEnv) user(t *testing.T, admin bool) *models.User {
	t.Helper()
	e.seq++
	hash, err := e.hasher.Hash("password")
	require.NoError(t, err)
	u := &models.User{
		Username:               fmt.Sprintf("member%d", e.seq),
		Email:                  fmt.Sprintf("member%d@example.com", e.seq),
		Password:               hash,
		Name:                   fmt.Sprintf("Member %d", e.seq),
		RegistrationStatus:     models.RegistrationComplete,
		ShippingOption:         models.ShippingOptionPickup,
		ShippingResponsibility: models.ShippingResponsibilityReceiver,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	if admin {
		require.NoError(t, e.users.SetAdmin(context.Background(), u.ID, true))
		u.IsAdmin = true
	}
	return u
}

func (e *testEnv) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name}
	require.NoError(t, e.categories.Create(context.Background(), c))
	return c
}

func (e *testEnv) post(t *testing.T, owner *models.User, cat *models.Category) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:       "Free " + cat.Name,
		Type:        models.PostTypePost,
		IsAvailable: true,
		UserID:      owner.ID,
		CategoryID:  cat.ID,
	}
	require.NoError(t, e.posts.Create(context.Background(), p))
	return p
}

func callerFor(u *models.User) authz.Caller {
	return authz.Authenticated(u.ID, u.IsAdmin)
}

func requireCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.Truef(t, errors.As(err, &appErr), "expected *models.AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code, appErr.Message)
	return appErr
}

// mockPublisher records realtime events.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEvent(ctx context.Context, userID uint, eventType string, payload interface{}) error {
	args := m.Called(ctx, userID, eventType, payload)
	return args.Error(0)
}
