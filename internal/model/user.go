package model

// Visibility selects which user fields a lookup returns. Email and password
// hash are hidden unless explicitly requested.
type Visibility int

const (
	PublicFields Visibility = iota
	WithCredentials
)

// User represents an account record.
type User struct {
	ID           string `json:"_id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"-"`
}

// Public returns a copy of u with hidden fields cleared.
func (u User) Public() User {
	return User{ID: u.ID, Username: u.Username}
}

// SignupRequest represents a signup request.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
