package auth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sparhub/sparrow/pkg/config"
)

// Token is the access token response for the OAuth2 password flow.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Service issues and verifies HS256 bearer tokens against the user store.
type Service struct {
	store  *Store
	secret []byte
	expiry time.Duration
	logger *slog.Logger
}

// NewService builds the auth service from the configured secret and token
// lifetime.
func NewService(settings *config.Settings, store *Store) *Service {
	return &Service{
		store:  store,
		secret: []byte(settings.SecretKey),
		expiry: time.Duration(settings.AccessTokenExpireMinutes) * time.Minute,
		logger: slog.Default().With("component", "auth"),
	}
}

// Store exposes the backing user store for account management endpoints.
func (s *Service) Store() *Store { return s.store }

// Login exchanges credentials for a bearer token carrying the user's
// scopes.
func (s *Service) Login(username, password string) (Token, error) {
	user, err := s.store.Authenticate(username, password)
	if err != nil {
		s.logger.Warn("login failed", "username", username)
		return Token{}, err
	}
	if user.Disabled {
		return Token{}, &InactiveUserError{Username: user.Username}
	}

	expiresAt := time.Now().Add(s.expiry)
	claims := jwt.MapClaims{
		"sub":    user.Username,
		"scopes": user.Scopes,
		"exp":    jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("signing token: %w", err)
	}

	s.logger.Info("issued access token", "username", user.Username, "scopes", user.Scopes)
	return Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(s.expiry.Seconds()),
	}, nil
}

// Verify validates a bearer token and resolves it to an active user. The
// user must still exist in the store; scopes come from the current store
// record, not the token, so revocations take effect immediately.
func (s *Service) Verify(tokenString string) (*User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, &InvalidTokenError{Reason: err.Error()}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, &InvalidTokenError{Reason: "unexpected claims type"}
	}
	username, err := claims.GetSubject()
	if err != nil || username == "" {
		return nil, &InvalidTokenError{Reason: "missing subject"}
	}

	user := s.store.Get(username)
	if user == nil {
		return nil, &InvalidTokenError{Reason: "unknown user"}
	}
	if user.Disabled {
		return nil, &InactiveUserError{Username: user.Username}
	}
	return user, nil
}

// RequireScopes checks that the user carries every scope.
func RequireScopes(user *User, scopes ...string) error {
	for _, scope := range scopes {
		if !user.HasScope(scope) {
			return &InsufficientPermissionsError{Scope: scope}
		}
	}
	return nil
}
