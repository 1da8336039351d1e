package auth

import (
	"fmt"
	"strings"
)

const adminMarker = "admin"

// Identity is what the gateway knows about the caller from its bearer token.
type Identity struct {
	Subject  string   `json:"sub"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	IsAdmin  bool     `json:"is_admin"`
	Verified bool     `json:"verified"`
}

// Name is the best human readable handle of the caller.
func (id Identity) Name() string {
	if id.Username != "" {
		return id.Username
	}
	return id.Subject
}

func identityFromClaims(claims map[string]interface{}) Identity {
	id := Identity{
		Subject:  claimString(claims, "sub"),
		Username: claimString(claims, "username", "preferred_username", "user_name"),
		Email:    claimString(claims, "email"),
	}
	if id.Subject == "" {
		id.Subject = id.Username
	}
	id.Roles = append(claimRoles(claims["roles"]), claimRoles(claims["authorities"])...)
	id.IsAdmin = isAdmin(id, claims)
	return id
}

// isAdmin holds every admin heuristic the platform relies on.
func isAdmin(id Identity, claims map[string]interface{}) bool {
	if strings.Contains(strings.ToLower(id.Subject), adminMarker) {
		return true
	}
	if id.Username != "" && strings.Contains(strings.ToLower(id.Username), adminMarker) {
		return true
	}
	for _, role := range id.Roles {
		if strings.Contains(strings.ToLower(role), adminMarker) {
			return true
		}
	}
	for _, key := range []string{"is_admin", "isAdmin", "admin"} {
		if b, ok := claims[key].(bool); ok && b {
			return true
		}
	}
	return false
}

func claimString(claims map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// claimRoles accepts a single role, a list of roles, or a list of objects
// such as {"authority": "ROLE_ADMIN"}.
func claimRoles(raw interface{}) []string {
	var roles []string
	switch v := raw.(type) {
	case string:
		for _, r := range strings.FieldsFunc(v, func(c rune) bool { return c == ',' || c == ' ' }) {
			roles = append(roles, r)
		}
	case []interface{}:
		for _, item := range v {
			switch r := item.(type) {
			case string:
				roles = append(roles, r)
			case map[string]interface{}:
				if name := claimString(r, "authority", "name", "role"); name != "" {
					roles = append(roles, name)
				}
			}
		}
	}
	return roles
}
