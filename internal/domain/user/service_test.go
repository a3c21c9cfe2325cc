// internal/domain/user/service_test.go
package user

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&User{},
		&Profile{},
		&cart.Cart{},
	))

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Storefront API"},
		JWT: config.JWTConfig{
			Secret:               "test-secret-key-0123456789abcdef",
			AccessTokenExpiry:    15 * time.Minute,
			RefreshTokenExpiry:   24 * time.Hour,
			RefreshTokenRotation: true,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, nil, testConfig()), db
}

func registerRequest(username string) *RegisterRequest {
	return &RegisterRequest{
		Username:        username,
		Email:           username + "@example.com",
		FirstName:       "Test",
		LastName:        "User",
		Password:        "Sup3rSecret!",
		PasswordConfirm: "Sup3rSecret!",
	}
}

func TestRegister(t *testing.T) {
	svc, db := newTestService(t)

	response, err := svc.Register(registerRequest("alice"))
	require.NoError(t, err)
	require.Equal(t, "alice", response.User.Username)
	require.Empty(t, response.User.Password)
	require.NotEmpty(t, response.AccessToken)
	require.NotEmpty(t, response.RefreshToken)
	require.EqualValues(t, (15 * time.Minute).Seconds(), response.ExpiresIn)

	// Registration provisions a profile and an empty cart
	var profile Profile
	require.NoError(t, db.Where("user_id = ?", response.User.ID).First(&profile).Error)

	var userCart cart.Cart
	require.NoError(t, db.Where("user_id = ?", response.User.ID).First(&userCart).Error)

	// Stored password is hashed
	var stored User
	require.NoError(t, db.First(&stored, response.User.ID).Error)
	require.NotEmpty(t, stored.Password)
	require.NotEqual(t, "Sup3rSecret!", stored.Password)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc, _ := newTestService(t)

	req := registerRequest("alice")
	req.PasswordConfirm = "different"

	_, err := svc.Register(req)
	require.Error(t, err)
	require.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestRegisterPasswordTooShort(t *testing.T) {
	svc, _ := newTestService(t)

	req := registerRequest("alice")
	req.Password = "short"
	req.PasswordConfirm = "short"

	_, err := svc.Register(req)
	require.Error(t, err)
	require.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(registerRequest("alice"))
	require.NoError(t, err)

	// Same username
	_, err = svc.Register(registerRequest("alice"))
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Same email, different username
	req := registerRequest("alice2")
	req.Email = "alice@example.com"
	_, err = svc.Register(req)
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestLogin(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.Register(registerRequest("alice"))
	require.NoError(t, err)

	response, err := svc.Login(&LoginRequest{Username: "alice", Password: "Sup3rSecret!"})
	require.NoError(t, err)
	require.Equal(t, "alice", response.User.Username)
	require.NotEmpty(t, response.AccessToken)

	var stored User
	require.NoError(t, db.Where("username = ?", "alice").First(&stored).Error)
	require.NotNil(t, stored.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(registerRequest("alice"))
	require.NoError(t, err)

	_, err = svc.Login(&LoginRequest{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	require.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(&LoginRequest{Username: "nobody", Password: "whatever"})
	require.Error(t, err)
	require.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestLoginInactiveUser(t *testing.T) {
	svc, db := newTestService(t)

	response, err := svc.Register(registerRequest("alice"))
	require.NoError(t, err)

	require.NoError(t, db.Model(&User{}).Where("id = ?", response.User.ID).
		Update("is_active", false).Error)

	_, err = svc.Login(&LoginRequest{Username: "alice", Password: "Sup3rSecret!"})
	require.Error(t, err)
	require.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestRefreshToken(t *testing.T) {
	svc, _ := newTestService(t)

	registered, err := svc.Register(registerRequest("alice"))
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(registered.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Equal(t, "alice", refreshed.User.Username)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	svc, _ := newTestService(t)

	registered, err := svc.Register(registerRequest("alice"))
	require.NoError(t, err)

	_, err = svc.RefreshToken(registered.AccessToken)
	require.Error(t, err)
	require.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)

	registered, err := svc.Register(registerRequest("alice"))
	require.NoError(t, err)

	phone := "+1-555-0100"
	address := "1 Main St"
	profile, err := svc.UpdateProfile(registered.User.ID, &UpdateProfileRequest{
		Phone:   &phone,
		Address: &address,
	})
	require.NoError(t, err)
	require.Equal(t, phone, profile.Phone)
	require.Equal(t, address, profile.Address)

	fetched, err := svc.GetProfile(registered.User.ID)
	require.NoError(t, err)
	require.Equal(t, phone, fetched.Phone)
}

func TestGetProfileMissing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetProfile(9999)
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestEmailNormalizedOnCreate(t *testing.T) {
	svc, db := newTestService(t)

	req := registerRequest("alice")
	req.Email = "Alice@Example.COM"

	response, err := svc.Register(req)
	require.NoError(t, err)

	var stored User
	require.NoError(t, db.First(&stored, response.User.ID).Error)
	require.Equal(t, "alice@example.com", stored.Email)
}
