// Package model defines the records exchanged with the backend.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a server identifier. The backend sends it as a JSON number from REST
// endpoints and as a string from GraphQL; both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// User is the identity returned by auth operations. It is never persisted.
type User struct {
	ID    ID     `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
}

// Role values accepted by createmember.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Roles lists the selectable member roles.
var Roles = []string{RoleAdmin, RoleMember}

// ValidRole reports whether r is a selectable role.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleMember
}

// Member is a team member managed by the current user.
type Member struct {
	ID          ID     `json:"id" yaml:"id"`
	FirstName   string `json:"firstName" yaml:"first_name"`
	LastName    string `json:"lastName" yaml:"last_name"`
	Email       string `json:"email" yaml:"email"`
	Role        string `json:"role" yaml:"role"`
	PasswordSet bool   `json:"passwordSet" yaml:"password_set"`
}

// Member status labels.
const (
	StatusAccepted = "Accepted"
	StatusPending  = "Pending"
)

// Status is Accepted once the member has set a password, Pending before.
func (m Member) Status() string {
	if m.PasswordSet {
		return StatusAccepted
	}
	return StatusPending
}

// AuthPayload is returned by login, signup and updatepassword.
type AuthPayload struct {
	User   *User    `json:"user" yaml:"user"`
	Token  string   `json:"token" yaml:"-"`
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// CreateMemberPayload is returned by createmember.
type CreateMemberPayload struct {
	Employee *Member  `json:"employee" yaml:"employee"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ProbeResult is the body of GET /welcome and GET /invitation.
type ProbeResult struct {
	Message       string `json:"message" yaml:"message"`
	CurrentUserID ID     `json:"current_user_id" yaml:"current_user_id"`
}

// SignupInput carries the signup form.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// MemberInput carries the add-member form.
type MemberInput struct {
	FirstName string
	LastName  string
	Email     string
	Role      string
}
