package auth

import (
	"github.com/labstack/echo/v4"

	"manpower/internal/model"
)

// BootstrapAdminID is the id carried by tokens issued for the configured
// admin credential, which has no row in the user table.
const BootstrapAdminID = "admin"

const principalContextKey = "principal"

// Principal is the acting user of a request, as confirmed by the store.
type Principal struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

// PrincipalFromUser builds the principal for a persisted user.
func PrincipalFromUser(u *model.User) Principal {
	return Principal{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role}
}

// HasRole reports whether p holds any of roles.
func (p *Principal) HasRole(roles ...model.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// SetPrincipal stores p on the echo context.
func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(principalContextKey, p)
}

// PrincipalFrom returns the principal stored by the authentication
// middleware, or nil on unauthenticated routes.
func PrincipalFrom(c echo.Context) *Principal {
	p, _ := c.Get(principalContextKey).(*Principal)
	return p
}
