// Package guard decides whether a session may see a protected view. Decisions
// are pure functions over session state; callers perform the actual redirect
// or render.
package guard

import (
	"github.com/admitd-dev/admitd/internal/models"
	"github.com/admitd-dev/admitd/internal/session"
)

// Outcome is the guard's decision state
type Outcome string

const (
	// Loading blocks rendering until the session store's bootstrap resolves
	Loading Outcome = "loading"
	// Unauthenticated redirects to the login view
	Unauthenticated Outcome = "unauthenticated"
	// Unauthorized redirects to the unauthorized view
	Unauthorized Outcome = "unauthorized"
	// Authorized renders the requested view
	Authorized Outcome = "authorized"
)

// Paths for the guard's redirect targets and the role dashboards
const (
	LoginPath              = "/login"
	UnauthorizedPath       = "/unauthorized"
	DashboardPathGeneric   = "/dashboard"
	DashboardPathCounselor = "/counselor/dashboard"
	DashboardPathAdmin     = "/admin/dashboard"
)

// Decision is the result of guarding one navigation
type Decision struct {
	Outcome Outcome

	// RedirectTo is set for Unauthenticated and Unauthorized outcomes
	RedirectTo string

	// From carries the originally requested path so login can return the user
	From string

	// Allowed carries the route's allow-list for a human-readable explanation
	// on the unauthorized view
	Allowed []models.Role
}

// Decide gates a view behind an allow-list of roles. An empty allow-list
// admits every role. While the store is loading, nothing renders and nothing
// redirects.
func Decide(st session.State, allowed []models.Role, requestedPath string) Decision {
	if len(allowed) == 0 {
		allowed = models.Roles()
	}

	if st.Loading {
		return Decision{Outcome: Loading, From: requestedPath}
	}

	if st.User == nil {
		return Decision{
			Outcome:    Unauthenticated,
			RedirectTo: LoginPath,
			From:       requestedPath,
		}
	}

	for _, role := range allowed {
		if st.User.Role == role {
			return Decision{Outcome: Authorized, From: requestedPath}
		}
	}

	return Decision{
		Outcome:    Unauthorized,
		RedirectTo: UnauthorizedPath,
		From:       requestedPath,
		Allowed:    allowed,
	}
}

// DashboardPath returns the role-specific dashboard path.
func DashboardPath(role models.Role) string {
	switch role {
	case models.RoleCounselor:
		return DashboardPathCounselor
	case models.RoleAdmin:
		return DashboardPathAdmin
	default:
		return DashboardPathGeneric
	}
}

// DecideRedirect returns where an authenticated user landing on currentPath
// should be sent, if anywhere. It returns false when the user is already on
// their role's dashboard, so the redirect cannot loop.
func DecideRedirect(role models.Role, currentPath string) (string, bool) {
	target := DashboardPath(role)
	if currentPath == target {
		return "", false
	}
	if currentPath != DashboardPathGeneric {
		// Only the generic dashboard path triggers the one-shot redirect.
		return "", false
	}
	return target, true
}
