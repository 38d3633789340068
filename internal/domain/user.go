package domain

import "time"

// User is a storefront customer as shown on the users page.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	MobileNumber string    `json:"mobile_number,omitempty"`
	Role         string    `json:"role,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the operator identity attached to an authenticated session.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Session is the authentication state the router guards on.
type Session struct {
	Token    string  `json:"token"`
	Operator Profile `json:"operator"`
}
