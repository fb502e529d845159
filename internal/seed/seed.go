// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"mutualaid/internal/middleware"
	"mutualaid/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// FixturePassword is the plaintext password of every fixture member.
const FixturePassword = "lincoln123"

// Options configuration for the seeder
type Options struct {
	// DemoUsers and DemoPosts add generated members and posts on top of the fixtures.
	DemoUsers  int
	DemoPosts  int
	BcryptCost int
	// SkipBcrypt stores the plaintext password; only for throwaway databases.
	SkipBcrypt bool
}

// Seeder writes the fixture set. Every step skips rows that already exist
// by their unique key, so running it twice leaves the database unchanged.
type Seeder struct {
	db   *gorm.DB
	opts Options
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.BcryptCost < bcrypt.MinCost {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Seeder{db: db, opts: opts}
}

var (
	fixtureCountries = []models.Country{
		{Name: "Turtle Island", Code: "TI"},
		{Name: "Palestine", Code: "PS"},
		{Name: "Kanata", Code: "KA"},
	}

	fixtureLocations = []struct {
		city        string
		countryCode string
		lat, lng    float64
	}{
		{"New York City", "TI", 40.713051, -74.007233},
		{"Ramallah", "PS", 31.9038, 35.2034},
		{"Prince Edward Island", "KA", 46.31379699707031, -63.25200653076172},
		{"Chicago", "TI", 41.8755616, -87.6244212},
	}

	// FixtureCategories is the catalog every fresh install starts with.
	FixtureCategories = []string{
		"Clothing",
		"Home Goods",
		"Furniture",
		"Kitchen & Appliances",
		"Books",
		"Electronics",
		"Bathroom Needs",
		"Mobility Aids & Assistive Devices",
		"Food",
		"Pet Supplies",
		"Sporting Goods",
		"Toys & Games",
		"Musical Instruments",
		"Health & Beauty",
	}

	fixtureUsers = []struct {
		user models.User
		city string
	}{
		{
			user: models.User{
				Name:                   "Michelle Rose",
				Username:               "michelle.rose",
				Email:                  "elle.scarps@gmail.com",
				IsAdmin:                true,
				ProfilePicURL:          "https://static.wikia.nocookie.net/courage/images/4/46/New_Courage.png",
				Bio:                    "Mutual Aid and Community Activist",
				WebsiteURL:             "https://michelle-rose.dev",
				ShippingOption:         models.ShippingOptionShipping,
				ShippingResponsibility: models.ShippingResponsibilityShared,
				SocialLinks: models.SocialLinks{
					"instagram": "https://instagram.com/michelle.rose",
					"twitter":   "https://twitter.com/michellecodes",
					"linkedin":  "https://linkedin.com/in/michellerose",
				},
			},
			city: "New York City",
		},
		{
			user: models.User{
				Name:                   "Luna B",
				Username:               "lunab",
				Email:                  "tweetsmiles@gmail.com",
				ProfilePicURL:          "https://static.vecteezy.com/system/resources/thumbnails/008/006/949/small_2x/the-moon-and-deep-space-photo.jpg",
				Bio:                    "Moonchild sharing love & light",
				WebsiteURL:             "https://lunab.dev",
				ShippingOption:         models.ShippingOptionShipping,
				ShippingResponsibility: models.ShippingResponsibilityGiver,
				SocialLinks: models.SocialLinks{
					"instagram": "https://instagram.com/lunab",
					"tiktok":    "https://tiktok.com/@lunab",
				},
			},
			city: "New York City",
		},
	}

	fixturePosts = []models.Post{
		{
			Title:                  "Along for the Ride",
			Description:            "YA Romance Novel by Sarah Dessen",
			Type:                   models.PostTypePost,
			ShippingOption:         models.ShippingOptionShipping,
			ShippingResponsibility: models.ShippingResponsibilityReceiver,
		},
		{
			Title:                  "the Green Witch Tarot Companion",
			Description:            "Tarot Cards Book",
			Type:                   models.PostTypeCallout,
			ShippingOption:         models.ShippingOptionPickup,
			ShippingResponsibility: models.ShippingResponsibilityGiver,
		},
		{
			Title:                  "One Day, Everyone Will Have Always Been Against This",
			Description:            "Book by Omar El Akkad",
			Type:                   models.PostTypePost,
			ShippingOption:         models.ShippingOptionDropoff,
			ShippingResponsibility: models.ShippingResponsibilityShared,
		},
	}
)

// Seed populates the database with the fixture set and, when requested, demo data.
func Seed(ctx context.Context, db *gorm.DB, opts Options) error {
	s := NewSeeder(db, opts)
	if err := s.Fixtures(ctx); err != nil {
		return err
	}
	if opts.DemoUsers > 0 {
		if err := s.Demo(ctx, opts.DemoUsers, opts.DemoPosts); err != nil {
			return err
		}
	}
	return nil
}

// Fixtures writes the fixed reference data and a small social graph
// between the fixture members.
func (s *Seeder) Fixtures(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	steps := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"countries", s.seedCountries},
		{"locations", s.seedLocations},
		{"categories", s.seedCategories},
		{"users", s.seedUsers},
		{"posts", s.seedPosts},
		{"engagement", s.seedEngagement},
		{"social", s.seedSocial},
	}
	for _, step := range steps {
		if err := step.fn(db); err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
		middleware.Logger.Info("seed step completed", slog.String("step", step.name))
	}
	return nil
}

func (s *Seeder) seedCountries(db *gorm.DB) error {
	for _, c := range fixtureCountries {
		var country models.Country
		if err := db.Where(models.Country{Code: c.Code}).
			Attrs(models.Country{Name: c.Name}).
			FirstOrCreate(&country).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedLocations(db *gorm.DB) error {
	for _, l := range fixtureLocations {
		var country models.Country
		if err := db.Where("code = ?", l.countryCode).First(&country).Error; err != nil {
			return err
		}
		lat, lng := l.lat, l.lng
		var loc models.Location
		if err := db.Where(models.Location{City: l.city, CountryID: country.ID}).
			Attrs(models.Location{Latitude: &lat, Longitude: &lng}).
			FirstOrCreate(&loc).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedCategories(db *gorm.DB) error {
	for _, name := range FixtureCategories {
		var cat models.Category
		if err := db.Where(models.Category{Name: name}).FirstOrCreate(&cat).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) hashPassword(plain string) (string, error) {
	if s.opts.SkipBcrypt {
		return plain, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), s.opts.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *Seeder) seedUsers(db *gorm.DB) error {
	hashed, err := s.hashPassword(FixturePassword)
	if err != nil {
		return err
	}
	for _, fx := range fixtureUsers {
		var existing int64
		if err := db.Model(&models.User{}).Where("email = ?", fx.user.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			middleware.Logger.Debug("seed user exists", slog.String("email", fx.user.Email))
			continue
		}

		var loc models.Location
		if err := db.Where("city = ?", fx.city).First(&loc).Error; err != nil {
			return err
		}
		user := fx.user
		user.Password = hashed
		user.LocationID = &loc.ID
		user.RegistrationStatus = models.RegistrationComplete
		if err := db.Create(&user).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) fixtureMembers(db *gorm.DB) ([]models.User, error) {
	emails := make([]string, 0, len(fixtureUsers))
	for _, fx := range fixtureUsers {
		emails = append(emails, fx.user.Email)
	}
	var found []models.User
	if err := db.Where("email IN ?", emails).Find(&found).Error; err != nil {
		return nil, err
	}
	byEmail := make(map[string]models.User, len(found))
	for _, u := range found {
		byEmail[u.Email] = u
	}
	users := make([]models.User, 0, len(emails))
	for _, email := range emails {
		u, ok := byEmail[email]
		if !ok {
			return nil, fmt.Errorf("fixture member %s missing", email)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Seeder) seedPosts(db *gorm.DB) error {
	members, err := s.fixtureMembers(db)
	if err != nil {
		return err
	}
	var books models.Category
	if err := db.Where("name = ?", "Books").First(&books).Error; err != nil {
		return err
	}
	var nyc models.Location
	if err := db.Where("city = ?", "New York City").First(&nyc).Error; err != nil {
		return err
	}

	for _, fx := range fixturePosts {
		var existing int64
		if err := db.Model(&models.Post{}).Where("title = ?", fx.Title).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			continue
		}
		cost := 5.0
		post := fx
		post.UserID = members[0].ID
		post.CategoryID = books.ID
		post.LocationID = &nyc.ID
		post.ShippingCost = &cost
		post.IsAvailable = true
		post.IsFeatured = true
		if err := db.Create(&post).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) fixturePostsByTitle(db *gorm.DB) ([]models.Post, error) {
	titles := make([]string, 0, len(fixturePosts))
	for _, p := range fixturePosts {
		titles = append(titles, p.Title)
	}
	var found []models.Post
	if err := db.Where("title IN ?", titles).Find(&found).Error; err != nil {
		return nil, err
	}
	byTitle := make(map[string]models.Post, len(found))
	for _, p := range found {
		byTitle[p.Title] = p
	}
	posts := make([]models.Post, 0, len(titles))
	for _, title := range titles {
		p, ok := byTitle[title]
		if !ok {
			return nil, fmt.Errorf("fixture post %q missing", title)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Seeder) seedEngagement(db *gorm.DB) error {
	members, err := s.fixtureMembers(db)
	if err != nil {
		return err
	}
	posts, err := s.fixturePostsByTitle(db)
	if err != nil {
		return err
	}
	michelle, luna := members[0], members[1]

	for _, l := range []models.Like{
		{UserID: michelle.ID, PostID: posts[1].ID},
		{UserID: luna.ID, PostID: posts[0].ID},
	} {
		var like models.Like
		if err := db.Where(models.Like{UserID: l.UserID, PostID: l.PostID}).FirstOrCreate(&like).Error; err != nil {
			return err
		}
	}

	for _, f := range []models.Favorite{
		{UserID: michelle.ID, PostID: posts[0].ID},
		{UserID: michelle.ID, PostID: posts[2].ID},
	} {
		var fav models.Favorite
		if err := db.Where(models.Favorite{UserID: f.UserID, PostID: f.PostID}).FirstOrCreate(&fav).Error; err != nil {
			return err
		}
	}

	var comment models.Comment
	return db.Where(models.Comment{UserID: michelle.ID, PostID: posts[0].ID}).
		Attrs(models.Comment{Content: "Love this book!"}).
		FirstOrCreate(&comment).Error
}

func (s *Seeder) seedSocial(db *gorm.DB) error {
	members, err := s.fixtureMembers(db)
	if err != nil {
		return err
	}
	michelle, luna := members[0], members[1]

	for _, m := range []models.Message{
		{SenderID: michelle.ID, ReceiverID: luna.ID, Content: "Hey could we do a local pickup?"},
		{SenderID: luna.ID, ReceiverID: michelle.ID, Content: "Yes! Let's meet at a coffee shop near us or halfway!"},
	} {
		var msg models.Message
		if err := db.Where(models.Message{SenderID: m.SenderID, ReceiverID: m.ReceiverID, Content: m.Content}).
			FirstOrCreate(&msg).Error; err != nil {
			return err
		}
	}

	for _, f := range []models.Follow{
		{FollowerID: michelle.ID, FollowingID: luna.ID},
		{FollowerID: luna.ID, FollowingID: michelle.ID},
	} {
		var follow models.Follow
		if err := db.Where(models.Follow{FollowerID: f.FollowerID, FollowingID: f.FollowingID}).
			FirstOrCreate(&follow).Error; err != nil {
			return err
		}
	}

	var col models.Collection
	if err := db.Where(models.Collection{UserID: michelle.ID, Name: "Reading List"}).
		FirstOrCreate(&col).Error; err != nil {
		return err
	}
	posts, err := s.fixturePostsByTitle(db)
	if err != nil {
		return err
	}
	// Association Append skips pairs already in the join table.
	return db.Model(&col).Association("Posts").Append(&posts[0], &posts[2])
}
