package main

import (
	"errors"
	"time"

	"educenter/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// bcrypt cost used for every stored password.
const bcryptCost = 12

// errInvalidCredentials is the single outward error for every authentication
// failure: unknown email, wrong password, inactive account, unknown or
// expired refresh token. Callers must not be able to tell which check failed.
var errInvalidCredentials = errors.New("invalid credentials")

// sessionTokens is what the issuer hands back: a signed short-lived access
// token, a freshly stored single-use refresh token and the account summary.
type sessionTokens struct {
	AccessToken  string
	RefreshToken string
	User         models.User
}

// Authenticate looks an account up by email and verifies the password.
// bcrypt's compare is constant-time over the hash. Inactive accounts fail
// the same way bad credentials do.
func Authenticate(email, password string) (models.User, error) {
	var user models.User
	if err := db.Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
		return models.User{}, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.User{}, errInvalidCredentials
	}
	if !user.IsActive {
		return models.User{}, errInvalidCredentials
	}
	return user, nil
}

// LoginUser authenticates a credential pair, records the login time and
// issues a fresh token pair.
func LoginUser(email, password string) (sessionTokens, error) {
	user, err := Authenticate(email, password)
	if err != nil {
		return sessionTokens{}, err
	}
	now := time.Now()
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("last_login", now).Error; err != nil {
		return sessionTokens{}, err
	}
	user.LastLogin = &now
	return issueTokenPair(db, user)
}

// signAccessToken builds and signs the short-lived access token for user.
// The role must already be resolved on the struct.
func signAccessToken(user models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(accessTokenTTL).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// issueTokenPair signs an access token and persists a new opaque refresh
// token for user on tx. Called at login and at every rotation.
func issueTokenPair(tx *gorm.DB, user models.User) (sessionTokens, error) {
	access, err := signAccessToken(user)
	if err != nil {
		return sessionTokens{}, err
	}
	rt := models.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := tx.Create(&rt).Error; err != nil {
		return sessionTokens{}, err
	}
	return sessionTokens{AccessToken: access, RefreshToken: rt.Token, User: user}, nil
}

// RefreshSession exchanges a presented refresh token for a new pair.
// The token is claimed with a conditional delete inside one transaction:
// under concurrent refreshes of the same token only one delete reports a
// row, so only one caller wins, and a crash can never leave the old token
// deleted without its replacement stored.
func RefreshSession(presented string) (sessionTokens, error) {
	var out sessionTokens
	err := db.Transaction(func(tx *gorm.DB) error {
		var rt models.RefreshToken
		if err := tx.Where("token = ?", presented).First(&rt).Error; err != nil {
			return errInvalidCredentials
		}
		res := tx.Where("token = ?", presented).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errInvalidCredentials // lost the race to a concurrent refresh
		}
		if !rt.ExpiresAt.After(time.Now()) {
			// Expired rows stay around (the rollback restores this one); the
			// lookup-time check here is the only expiry enforcement.
			return errInvalidCredentials
		}
		var user models.User
		if err := tx.Preload("Role").First(&user, rt.UserID).Error; err != nil {
			return errInvalidCredentials
		}
		if !user.IsActive {
			return errInvalidCredentials
		}
		pair, err := issueTokenPair(tx, user)
		if err != nil {
			return err
		}
		out = pair
		return nil
	})
	if err != nil {
		return sessionTokens{}, err
	}
	return out, nil
}

// LogoutSession deletes the refresh token matching the presented string.
// Idempotent: unknown tokens are not an error.
func LogoutSession(presented string) error {
	return db.Where("token = ?", presented).Delete(&models.RefreshToken{}).Error
}

// LogoutAllSessions invalidates every refresh token owned by the account.
// Used when an account is deactivated or deleted.
func LogoutAllSessions(userID uint) error {
	return db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}
