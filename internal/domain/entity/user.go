package entity

import "time"

// User is an account that owns expenses or reviews them
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may review expenses
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
