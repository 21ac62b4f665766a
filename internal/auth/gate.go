package auth

import "github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"

// Surface names a protected page or route group. Each surface declares the
// exact set of roles it accepts; there is no implicit customer < manager <
// admin ordering to leak privileges through.
type Surface string

const (
	SurfaceDashboard      Surface = "dashboard"
	SurfaceManagerConsole Surface = "manager_console"
	SurfaceAdminConsole   Surface = "admin_console"
	SurfaceAdminAPI       Surface = "admin_api"
)

// Well-known navigation targets.
const (
	PathLogin      = "/login"
	PathAdminLogin = "/admin-login"
	PathDashboard  = "/dashboard"
	PathManager    = "/manager"
	PathAdmin      = "/admin"
)

// Decision is the outcome of an access check, computed fresh per request.
type Decision struct {
	Allow          bool
	RedirectTarget string
}

type surfacePolicy struct {
	allowed map[domain.Role]struct{}
	// login page an anonymous visitor is sent to
	loginTarget string
}

func roleSet(roles ...domain.Role) map[domain.Role]struct{} {
	set := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

var policies = map[Surface]surfacePolicy{
	SurfaceDashboard: {
		allowed:     roleSet(domain.RoleCustomer, domain.RoleManager, domain.RoleAdmin),
		loginTarget: PathLogin,
	},
	SurfaceManagerConsole: {
		allowed:     roleSet(domain.RoleManager, domain.RoleAdmin),
		loginTarget: PathAdminLogin,
	},
	SurfaceAdminConsole: {
		allowed:     roleSet(domain.RoleAdmin),
		loginTarget: PathAdminLogin,
	},
	SurfaceAdminAPI: {
		allowed:     roleSet(domain.RoleAdmin),
		loginTarget: PathAdminLogin,
	},
}

// RoleHome returns the default post-login destination for a role.
func RoleHome(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return PathAdmin
	case domain.RoleManager:
		return PathManager
	default:
		return PathDashboard
	}
}

// Decide converts (surface, role, authenticated) into an access decision.
// Pure and deterministic: no hidden state, safe to call from any request.
// Anonymous visitors are pointed at the surface's login page; authenticated
// visitors with the wrong role are pointed at their own home, never at a
// generic error page.
func Decide(surface Surface, role domain.Role, authenticated bool) Decision {
	policy, ok := policies[surface]
	if !ok {
		// unknown surface: fail closed
		return Decision{Allow: false, RedirectTarget: PathLogin}
	}
	if !authenticated {
		return Decision{Allow: false, RedirectTarget: policy.loginTarget}
	}
	if _, allowed := policy.allowed[role]; allowed {
		return Decision{Allow: true}
	}
	return Decision{Allow: false, RedirectTarget: RoleHome(role)}
}
