package domain

import (
	"errors"
	"time"
)

// User validation errors.
var (
	ErrEmptyUsername       = errors.New("username cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
	ErrInvalidRole         = errors.New("role must be admin or user")
)

// Role determines what a principal may see and do.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is a registered account. The username is the unique, immutable
// key; it doubles as the owner reference on tasks. The password hash
// is never exposed on any read path.
type User struct {
	Username       string     `json:"-"`
	HashedPassword string     `json:"password"`
	Role           Role       `json:"role"`
	TaskIDs        []string   `json:"tasks"`
	Created        time.Time  `json:"created"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
}

// NewUser creates a user with the given, already hashed, password.
func NewUser(username, hashedPassword string, role Role) (*User, error) {
	user := &User{
		Username:       username,
		HashedPassword: hashedPassword,
		Role:           role,
		TaskIDs:        []string{},
		Created:        time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks that the user has valid data.
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrEmptyUsername
	}
	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	c := *u
	c.TaskIDs = append([]string(nil), u.TaskIDs...)
	if u.LastLogin != nil {
		ll := *u.LastLogin
		c.LastLogin = &ll
	}
	return &c
}

// Principal is the authenticated identity attached to a request or
// websocket connection.
type Principal struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess reports whether the principal may read or control the
// given task: admins see everything, everyone else only their own
// tasks. A task whose owner account has been deleted is therefore
// reachable by admins only.
func (p Principal) CanAccess(task *Task) bool {
	return p.IsAdmin() || p.Username == task.Owner
}
