package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"mutualaid/internal/config"
	"mutualaid/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterProvisional(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRegistrationService(env.users, env.hasher, env.tokens, nil)
	ctx := context.Background()

	res, err := svc.RegisterProvisional(ctx, RegisterInput{
		Username: "alice",
		Name:     "Alice",
		Email:    "  Alice@Example.com ",
		Password: "secret",
	})
	require.NoError(t, err)
	require.NotZero(t, res.UserID)

	user, err := env.users.GetByID(ctx, res.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationProvisional, user.RegistrationStatus)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, DefaultProfilePicURL, user.ProfilePicURL)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "secret", user.Password)
	assert.NoError(t, env.hasher.Verify(user.Password, "secret"))
}

func TestRegisterProvisionalDenials(t *testing.T) {
	env := newTestEnv(t)
	existing := env.user(t, false)
	svc := NewRegistrationService(env.users, env.hasher, env.tokens, nil)

	tests := []struct {
		name   string
		in     RegisterInput
		reason string
	}{
		{"missing password", RegisterInput{Username: "bob", Name: "Bob", Email: "bob@example.com"}, models.ReasonMissingField},
		{"missing name", RegisterInput{Username: "bob", Email: "bob@example.com", Password: "pw"}, models.ReasonMissingField},
		{"bad email", RegisterInput{Username: "bob", Name: "Bob", Email: "not-an-email", Password: "pw"}, models.ReasonInvalidEmail},
		{"duplicate email", RegisterInput{Username: "bob", Name: "Bob", Email: existing.Email, Password: "pw"}, models.ReasonDuplicateEmail},
		{"duplicate email any case", RegisterInput{Username: "bob", Name: "Bob", Email: "MEMBER1@example.com", Password: "pw"}, models.ReasonDuplicateEmail},
		{"duplicate username", RegisterInput{Username: existing.Username, Name: "Bob", Email: "bob@example.com", Password: "pw"}, models.ReasonDuplicateUsername},
		{"password over bcrypt limit", RegisterInput{Username: "bob", Name: "Bob", Email: "bob@example.com", Password: strings.Repeat("p", 100)}, models.ReasonWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterProvisional(context.Background(), tt.in)
			appErr := requireCode(t, err, models.CodeRegistration)
			assert.Equal(t, tt.reason, appErr.Reason)
			assert.Equal(t, 400, models.StatusFor(err))
		})
	}
}

func TestRegisterProvisionalStrictPolicy(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRegistrationService(env.users, env.hasher, env.tokens, &config.Config{StrictPasswords: true})

	_, err := svc.RegisterProvisional(context.Background(), RegisterInput{
		Username: "carol", Name: "Carol", Email: "carol@example.com", Password: "short",
	})
	appErr := requireCode(t, err, models.CodeRegistration)
	assert.Equal(t, models.ReasonWeakPassword, appErr.Reason)

	_, err = svc.RegisterProvisional(context.Background(), RegisterInput{
		Username: "carol", Name: "Carol", Email: "carol@example.com", Password: "Str0ng!Password",
	})
	require.NoError(t, err)
}

func TestRegisterProvisionalConcurrentSameEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRegistrationService(env.users, env.hasher, env.tokens, nil)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RegisterProvisional(context.Background(), RegisterInput{
				Username: "racer" + string(rune('a'+i)),
				Name:     "Racer",
				Email:    "race@example.com",
				Password: "pw",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		appErr := requireCode(t, err, models.CodeRegistration)
		assert.Equal(t, models.ReasonDuplicateEmail, appErr.Reason)
	}
	assert.Equal(t, 1, succeeded)
}

func TestCompleteRegistration(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRegistrationService(env.users, env.hasher, env.tokens, nil)
	ctx := context.Background()

	res, err := svc.RegisterProvisional(ctx, RegisterInput{
		Username: "dave", Name: "Dave", Email: "dave@example.com", Password: "pw",
	})
	require.NoError(t, err)

	out, err := svc.CompleteRegistration(ctx, CompleteInput{
		UserID:                 res.UserID,
		City:                   "Lisbon",
		Country:                "Portugal",
		ShippingOption:         "shipping",
		ShippingResponsibility: "nonsense",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.Token)
	assert.WithinDuration(t, time.Now().Add(DefaultRegistrationTokenTTL), out.ExpiresAt, time.Minute)
	assert.Equal(t, models.RegistrationComplete, out.User.RegistrationStatus)
	assert.Equal(t, models.ShippingOptionShipping, out.User.ShippingOption)
	assert.Equal(t, models.ShippingResponsibilityReceiver, out.User.ShippingResponsibility)
	require.NotNil(t, out.User.Location)
	assert.Equal(t, "Lisbon", out.User.Location.City)

	claims, err := env.tokens.Verify(out.Token)
	require.NoError(t, err)
	assert.Equal(t, res.UserID, claims.UserID)

	_, err = svc.CompleteRegistration(ctx, CompleteInput{UserID: res.UserID})
	appErr := requireCode(t, err, models.CodeRegistration)
	assert.Equal(t, models.ReasonAlreadyComplete, appErr.Reason)
}

func TestCompleteRegistrationErrors(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRegistrationService(env.users, env.hasher, env.tokens, nil)

	_, err := svc.CompleteRegistration(context.Background(), CompleteInput{})
	appErr := requireCode(t, err, models.CodeRegistration)
	assert.Equal(t, models.ReasonMissingField, appErr.Reason)

	_, err = svc.CompleteRegistration(context.Background(), CompleteInput{UserID: 999})
	requireCode(t, err, models.CodeNotFound)
}

func TestCompleteRegistrationConcurrent(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRegistrationService(env.users, env.hasher, env.tokens, nil)
	ctx := context.Background()

	res, err := svc.RegisterProvisional(ctx, RegisterInput{
		Username: "erin", Name: "Erin", Email: "erin@example.com", Password: "pw",
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CompleteRegistration(ctx, CompleteInput{UserID: res.UserID})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		appErr := requireCode(t, err, models.CodeRegistration)
		assert.Equal(t, models.ReasonAlreadyComplete, appErr.Reason)
	}
	assert.Equal(t, 1, succeeded)
}
