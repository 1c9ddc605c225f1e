package app

import "reading-portal/internal/domain"

// SessionContext exposes the current identity to the route guard. The guard
// reads it fresh on every check; identity can change underneath mounted routes.
type SessionContext interface {
	CurrentIdentity() (domain.Identity, bool)
}

// Decision is the outcome of one guard evaluation. When Allowed is false,
// RedirectTo carries the destination and nothing from the subtree may render.
type Decision struct {
	Allowed      bool            `json:"allowed"`
	RedirectTo   string          `json:"redirectTo,omitempty"`
	Identity     domain.Identity `json:"identity,omitempty"`
	Capabilities Capabilities    `json:"capabilities"`
}

// Capabilities is the per-role feature set, resolved once by the guard and
// consumed downstream as plain data instead of ad-hoc role checks.
type Capabilities struct {
	CanEditLessons bool `json:"canEditLessons"`
	CanTakeChecks  bool `json:"canTakeChecks"`
}

// CapabilitiesFor resolves the capabilities of a role. Roles outside the
// enumeration get the empty (view-only) set.
func CapabilitiesFor(role domain.Role) Capabilities {
	switch role {
	case domain.RoleTeacher:
		return Capabilities{CanEditLessons: true}
	case domain.RoleStudent:
		return Capabilities{CanTakeChecks: true}
	}
	return Capabilities{}
}

// RouteGuard decides whether the current session may enter a role-scoped
// route subtree.
type RouteGuard struct {
	sessions SessionContext
}

func NewRouteGuard(sessions SessionContext) *RouteGuard {
	return &RouteGuard{sessions: sessions}
}

// Authorize evaluates the guard for a subtree restricted to the given roles.
// No identity redirects to the public entry point; a role outside the allowed
// set (including unknown roles) redirects to that role's own landing path.
// Redirects are silent; the guard never fails navigation.
func (g *RouteGuard) Authorize(allowed ...domain.Role) Decision {
	identity, ok := g.sessions.CurrentIdentity()
	if !ok {
		return Decision{RedirectTo: domain.PublicEntryPath}
	}
	for _, role := range allowed {
		if identity.Role == role && identity.Role.Valid() {
			return Decision{
				Allowed:      true,
				Identity:     identity,
				Capabilities: CapabilitiesFor(identity.Role),
			}
		}
	}
	return Decision{RedirectTo: identity.Role.LandingPath()}
}
