package domain

import "time"

// Roles, most to least privileged last.
const (
	RoleCustomer   = "CUSTOMER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// Account statuses. Only ACTIVE accounts may authenticate past login;
// the check is re-applied at every session state transition.
const (
	StatusPending    = "PENDING"
	StatusActive     = "ACTIVE"
	StatusSuspended  = "SUSPENDED"
	StatusTerminated = "TERMINATED"
)

type User struct {
	ID            string
	Email         string
	PasswordHash  string // bcrypt encoded
	FirstName     string
	LastName      string
	Phone         string
	Role          string
	Status        string
	EmailVerified bool
	// TOTPSecret is the base32 TOTP secret (nullable). A user has at most one
	// active secret; enrollment replaces, never appends.
	TOTPSecret       *string
	TwoFactorEnabled bool
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CanAuthenticate reports whether the account may complete a session state
// transition (login, 2FA completion, refresh).
func (u User) CanAuthenticate() bool {
	return u.Status == StatusActive && u.EmailVerified
}

// UserView is the client-safe projection of a User. Password hash and TOTP
// secret never leave the service.
type UserView struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Phone            string     `json:"phone,omitempty"`
	Role             string     `json:"role"`
	Status           string     `json:"status"`
	EmailVerified    bool       `json:"emailVerified"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// View returns the client-safe projection of u.
func (u User) View() UserView {
	return UserView{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Phone:            u.Phone,
		Role:             u.Role,
		Status:           u.Status,
		EmailVerified:    u.EmailVerified,
		TwoFactorEnabled: u.TwoFactorEnabled,
		LastLoginAt:      u.LastLoginAt,
		CreatedAt:        u.CreatedAt,
	}
}
