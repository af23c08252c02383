package domain

import (
	"artisan-link/errors"
	"fmt"
	"strings"
)

// Role is the kind of actor behind an authenticated identity.
// The zero value is RoleUser, the least privileged role.
type Role int

const (
	RoleUser Role = iota
	RoleNGO
	RoleArtisan
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleNGO:
		return "ngo"
	case RoleArtisan:
		return "artisan"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole converts the role claim carried by tokens and directory rows.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "ngo":
		return RoleNGO, nil
	case "artisan":
		return RoleArtisan, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUser, fmt.Errorf("%w: %q", errors.ErrUnknownRole, s)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
