package domain

import "time"

// User represents an account row. PasswordHash never leaves the service;
// responses carry the Profile projection instead.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	Role         string
	IsVerified   bool
	LastLogin    *time.Time
	CreatedAt    time.Time
}

// Profile is the client-visible projection of a user.
type Profile struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Public returns the client-visible projection of the user.
func (u *User) Public() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}
