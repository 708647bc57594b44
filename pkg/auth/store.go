// Package auth provides JWT bearer authentication with scope-based
// authorization on top of an in-memory user store.
package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Scopes understood by the API. Admin endpoints require ScopeAdmin,
// mutating endpoints ScopeWrite, everything else ScopeRead.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// User is the account identity attached to authenticated requests.
type User struct {
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	Disabled bool     `json:"disabled"`
	Scopes   []string `json:"scopes"`
}

// HasScope reports whether the user carries the scope.
func (u *User) HasScope(scope string) bool {
	for _, s := range u.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// UserCreate is the payload for registering a new account.
type UserCreate struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
}

type storedUser struct {
	User
	hashedPassword []byte
}

// Store is an in-memory user database. A real deployment would back this
// with persistent storage; the account surface is small enough that the
// seeded admin/user pair covers the API's needs.
type Store struct {
	mu    sync.RWMutex
	users map[string]storedUser
}

// NewStore seeds the default accounts: admin (admin/read/write scopes)
// and user (read scope).
func NewStore() *Store {
	s := &Store{users: make(map[string]storedUser)}
	s.seed(UserCreate{
		Username: "admin",
		Password: "admin123",
		Email:    "admin@example.com",
		FullName: "Admin User",
		Scopes:   []string{ScopeAdmin, ScopeRead, ScopeWrite},
	})
	s.seed(UserCreate{
		Username: "user",
		Password: "user123",
		Email:    "user@example.com",
		FullName: "Regular User",
		Scopes:   []string{ScopeRead},
	})
	return s
}

func (s *Store) seed(create UserCreate) {
	_, _ = s.Create(create)
}

// Create registers a new account with a bcrypt-hashed password. Accounts
// without explicit scopes get read access.
func (s *Store) Create(create UserCreate) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(create.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	scopes := create.Scopes
	if len(scopes) == 0 {
		scopes = []string{ScopeRead}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[create.Username]; exists {
		return nil, &UserExistsError{Username: create.Username}
	}

	stored := storedUser{
		User: User{
			Username: create.Username,
			Email:    create.Email,
			FullName: create.FullName,
			Scopes:   scopes,
		},
		hashedPassword: hashed,
	}
	s.users[create.Username] = stored
	user := stored.User
	return &user, nil
}

// Get returns the account for username, or nil when unknown.
func (s *Store) Get(username string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.users[username]
	if !ok {
		return nil
	}
	user := stored.User
	return &user
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords produce the same error.
func (s *Store) Authenticate(username, password string) (*User, error) {
	s.mu.RLock()
	stored, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return nil, &InvalidCredentialsError{}
	}
	if bcrypt.CompareHashAndPassword(stored.hashedPassword, []byte(password)) != nil {
		return nil, &InvalidCredentialsError{}
	}
	user := stored.User
	return &user, nil
}
