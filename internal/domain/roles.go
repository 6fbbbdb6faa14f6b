package domain

import (
	"encoding/json"
)

// Role is closed: the shop API only distinguishes admins from everyone else.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

// ParseRole maps the API's role tag. Anything other than "admin" is a user.
func ParseRole(s string) Role {
	if s == "admin" {
		return RoleAdmin
	}
	return RoleUser
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	}
	return "user"
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// null or a non-string tag: not an admin
		*r = RoleUser
		return nil
	}
	*r = ParseRole(s)
	return nil
}
