package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claim set issued by the firm's identity service.
// The engine only cares about the subject (user id) and the role string;
// everything else rides along for diagnostics.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email,omitempty"`
	Name                 string `json:"name,omitempty"`
	Role                 string `json:"role"` // opaque role string, e.g. "admin", "partner", "staff"
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}

// Identity is the resolved caller identity attached to a request after
// authentication. Role is compared against the privileged-role set for
// authorization decisions; the engine never interprets it beyond that.
type Identity struct {
	UserID string
	Role   string
}

// PrivilegedRoles are the roles allowed to act on documents they are not
// assigned to (recording judgments, archiving, deleting).
var PrivilegedRoles = map[string]bool{
	"admin":   true,
	"partner": true,
	"manager": true,
}

// FinalizeRoles are the roles allowed to force-finalize a document that
// has no reviewers. Deliberately tighter than PrivilegedRoles: only the
// two most senior roles may bypass review entirely.
var FinalizeRoles = map[string]bool{
	"admin":   true,
	"partner": true,
}

// Privileged reports whether the identity holds one of the privileged roles.
func (id Identity) Privileged() bool {
	return PrivilegedRoles[id.Role]
}

// CanForceFinalize reports whether the identity may force-finalize.
func (id Identity) CanForceFinalize() bool {
	return FinalizeRoles[id.Role]
}
