package session

import "net/url"

// Paths
const (
	LoginPath      = "/"
	DashboardPath  = "/dashboard"
	StatisticsPath = "/estadisticas"

	nextParam = "next"
)

var (
	// AnyStaffRoles may reach the roster.
	AnyStaffRoles = []string{RoleAdmin, RoleTutor}
	// AdminRoles may reach the statistics.
	AdminRoles = []string{RoleAdmin}
)

// Decision is the outcome of Decide: either Allow, or a redirect to RedirectTo.
// From holds the originally requested location when the redirect goes to login.
type Decision struct {
	Allow      bool
	RedirectTo string
	From       string
}

// Decide checks a role against the roles required by a view.
// A nil requiredRoles lets any logged-in role through.
func Decide(role string, requiredRoles []string, requested ...string) Decision {
	if role == "" {
		d := Decision{RedirectTo: LoginPath}
		if len(requested) > 0 {
			d.From = requested[0]
		}
		return d
	}
	if requiredRoles != nil && !contains(requiredRoles, role) {
		return Decision{RedirectTo: DashboardPath}
	}
	return Decision{Allow: true}
}

// Location returns the URL to redirect to, carrying From as the `next` query param.
func (d Decision) Location() string {
	if d.From == "" {
		return d.RedirectTo
	}
	return d.RedirectTo + "?" + url.Values{nextParam: []string{d.From}}.Encode()
}

// LandingPath is where a role lands after login.
func LandingPath(role string) string {
	if role == RoleAdmin {
		return StatisticsPath
	}
	return DashboardPath
}

func contains(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
