package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"mutualaid/internal/middleware"
	"mutualaid/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities with generated content.
// It is a thin helper used by Demo and tests.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	rng   *rand.Rand
}

// NewFactory creates a Factory bound to db. A fixed seed yields the same
// sequence of entities on every run.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:    db,
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)), // #nosec G404
	}
}

// BuildUser constructs a completed member without persisting it.
func (f *Factory) BuildUser(passwordHash string, overrides ...func(*models.User)) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	handle := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, f.faker.Number(100, 9999)))
	user := &models.User{
		Name:                   first + " " + last,
		Username:               handle,
		Email:                  handle + "@example.com",
		Password:               passwordHash,
		Bio:                    f.faker.Sentence(10),
		ProfilePicURL:          fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		RegistrationStatus:     models.RegistrationComplete,
		ShippingOption:         pick(f.rng, models.ShippingOptionPickup, models.ShippingOptionShipping, models.ShippingOptionDropoff),
		ShippingResponsibility: pick(f.rng, models.ShippingResponsibilityGiver, models.ShippingResponsibilityReceiver, models.ShippingResponsibilityShared),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildPost constructs a giveaway or callout for user without persisting it.
// CreatedAt is spread over the last 90 days.
func (f *Factory) BuildPost(user *models.User, categoryID uint, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Title:                  strings.TrimSuffix(f.faker.Sentence(4), "."),
		Description:            f.faker.Paragraph(1, 3, 8, " "),
		Type:                   pick(f.rng, models.PostTypePost, models.PostTypePost, models.PostTypeCallout),
		IsAvailable:            f.rng.Float32() < 0.8,
		UserID:                 user.ID,
		CategoryID:             categoryID,
		LocationID:             user.LocationID,
		ShippingOption:         user.ShippingOption,
		ShippingResponsibility: user.ShippingResponsibility,
	}
	if post.ShippingOption == models.ShippingOptionShipping {
		cost := float64(f.rng.Intn(2000)) / 100
		post.ShippingCost = &cost
	}
	daysBack := f.rng.Intn(90)
	hoursBack := f.rng.Intn(24)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreateUser builds and persists a member.
func (f *Factory) CreateUser(passwordHash string, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(passwordHash, overrides...)
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.CreateInBatches(&posts, 100).Error
}

// CreateComment persists a generated comment by user on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content: f.faker.Sentence(8),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	return f.db.Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error
}

func pick[T any](r *rand.Rand, options ...T) T {
	return options[r.Intn(len(options))]
}

// Demo adds generated members, each placed in a fixture location, and
// numPosts posts spread across the catalog.
func (s *Seeder) Demo(ctx context.Context, numUsers, numPosts int) error {
	db := s.db.WithContext(ctx)
	f := NewFactory(db, 0)

	var locations []models.Location
	if err := db.Find(&locations).Error; err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	var categories []models.Category
	if err := db.Find(&categories).Error; err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	if len(categories) == 0 {
		return fmt.Errorf("demo data needs categories; run the fixtures first")
	}

	hashed, err := s.hashPassword(FixturePassword)
	if err != nil {
		return err
	}

	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := f.CreateUser(hashed, func(u *models.User) {
			if len(locations) > 0 {
				loc := locations[f.rng.Intn(len(locations))]
				u.LocationID = &loc.ID
			}
		})
		if err != nil {
			middleware.Logger.Warn("demo user skipped", slog.String("error", err.Error()))
			continue
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return nil
	}

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[f.rng.Intn(len(users))]
		cat := categories[f.rng.Intn(len(categories))]
		posts = append(posts, f.BuildPost(author, cat.ID))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return fmt.Errorf("create demo posts: %w", err)
	}

	for _, post := range posts {
		liker := users[f.rng.Intn(len(users))]
		if liker.ID == post.UserID {
			continue
		}
		if err := f.CreateLike(liker, post); err != nil {
			return fmt.Errorf("create demo like: %w", err)
		}
		if f.rng.Float32() < 0.3 {
			if _, err := f.CreateComment(liker, post); err != nil {
				return fmt.Errorf("create demo comment: %w", err)
			}
		}
	}

	middleware.Logger.Info("demo data created",
		slog.Int("users", len(users)),
		slog.Int("posts", len(posts)),
	)
	return nil
}
