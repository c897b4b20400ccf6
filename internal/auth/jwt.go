package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/subtrack/subtrack/internal/config"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenExpiry = 7 * 24 * time.Hour

type jwtAuth struct {
	AuthConfig config.AuthConfig
	now        func() time.Time
}

func NewProvider(cfg *config.Configuration) Provider {
	return &jwtAuth{
		AuthConfig: cfg.Auth,
		now:        time.Now,
	}
}

func (a *jwtAuth) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ierr.NewError("password is required").
			WithHint("Password is required").
			Mark(ierr.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to hash password").
			Mark(ierr.ErrSystem)
	}
	return string(hashed), nil
}

func (a *jwtAuth) ComparePassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ierr.NewError("invalid credentials").
			WithHint("Invalid email or password").
			Mark(ierr.ErrUnauthorized)
	}
	return nil
}

func (a *jwtAuth) GenerateToken(userID string) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, ierr.NewError("missing required parameter: userID").
			WithHint("User ID is required").
			Mark(ierr.ErrValidation)
	}

	expiry := a.AuthConfig.Expiry
	if expiry <= 0 {
		expiry = defaultTokenExpiry
	}

	issuedAt := a.now()
	expiresAt := issuedAt.Add(expiry)

	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     expiresAt.Unix(),
		"iat":     issuedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.AuthConfig.Secret))
	if err != nil {
		return "", time.Time{}, ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}
	return signed, expiresAt, nil
}

func (a *jwtAuth) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrUnauthorized)
		}
		return []byte(a.AuthConfig.Secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid or expired token").
			Mark(ierr.ErrUnauthorized)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrUnauthorized)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrUnauthorized)
	}

	result := &Claims{UserID: userID}
	if exp, ok := claims["exp"].(float64); ok {
		result.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return result, nil
}
