package guard

import (
	"reflect"
	"testing"

	"github.com/admitd-dev/admitd/internal/models"
	"github.com/admitd-dev/admitd/internal/session"
)

func userWithRole(role models.Role) *models.User {
	return &models.User{ID: "01HTEST", Name: "Test User", Email: "test@example.com", Role: role}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name        string
		state       session.State
		allowed     []models.Role
		wantOutcome Outcome
		wantTarget  string
	}{
		{
			name:        "loading blocks without redirect",
			state:       session.State{Loading: true},
			allowed:     []models.Role{models.RoleAdmin},
			wantOutcome: Loading,
		},
		{
			name:        "loading blocks even with a user present",
			state:       session.State{Loading: true, User: userWithRole(models.RoleAdmin)},
			allowed:     []models.Role{models.RoleAdmin},
			wantOutcome: Loading,
		},
		{
			name:        "no session redirects to login",
			state:       session.State{},
			allowed:     []models.Role{models.RoleStudent},
			wantOutcome: Unauthenticated,
			wantTarget:  LoginPath,
		},
		{
			name:        "role in allow-list renders",
			state:       session.State{User: userWithRole(models.RoleCounselor)},
			allowed:     []models.Role{models.RoleCounselor},
			wantOutcome: Authorized,
		},
		{
			name:        "role outside allow-list redirects to unauthorized",
			state:       session.State{User: userWithRole(models.RoleCounselor)},
			allowed:     []models.Role{models.RoleAdmin},
			wantOutcome: Unauthorized,
			wantTarget:  UnauthorizedPath,
		},
		{
			name:        "empty allow-list admits every role",
			state:       session.State{User: userWithRole(models.RoleStudent)},
			allowed:     nil,
			wantOutcome: Authorized,
		},
		{
			name:        "student cannot reach admin routes",
			state:       session.State{User: userWithRole(models.RoleStudent)},
			allowed:     []models.Role{models.RoleCounselor, models.RoleAdmin},
			wantOutcome: Unauthorized,
			wantTarget:  UnauthorizedPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Decide(tt.state, tt.allowed, "/requested")

			if decision.Outcome != tt.wantOutcome {
				t.Errorf("Decide() outcome = %v, want %v", decision.Outcome, tt.wantOutcome)
			}
			if decision.RedirectTo != tt.wantTarget {
				t.Errorf("Decide() redirect = %q, want %q", decision.RedirectTo, tt.wantTarget)
			}
			if decision.From != "/requested" {
				t.Errorf("Decide() from = %q, want %q", decision.From, "/requested")
			}
		})
	}
}

func TestDecideCarriesAllowedRoles(t *testing.T) {
	state := session.State{User: userWithRole(models.RoleCounselor)}
	decision := Decide(state, []models.Role{models.RoleAdmin}, "/admin/dashboard")

	if decision.Outcome != Unauthorized {
		t.Fatalf("Decide() outcome = %v, want %v", decision.Outcome, Unauthorized)
	}
	want := []models.Role{models.RoleAdmin}
	if !reflect.DeepEqual(decision.Allowed, want) {
		t.Errorf("Decide() allowed = %v, want %v", decision.Allowed, want)
	}
}

func TestDashboardPath(t *testing.T) {
	tests := []struct {
		role models.Role
		want string
	}{
		{models.RoleStudent, DashboardPathGeneric},
		{models.RoleCounselor, DashboardPathCounselor},
		{models.RoleAdmin, DashboardPathAdmin},
	}

	for _, tt := range tests {
		if got := DashboardPath(tt.role); got != tt.want {
			t.Errorf("DashboardPath(%s) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestDecideRedirect(t *testing.T) {
	tests := []struct {
		name        string
		role        models.Role
		currentPath string
		wantTarget  string
		wantOK      bool
	}{
		{
			name:        "admin on generic dashboard redirects once",
			role:        models.RoleAdmin,
			currentPath: DashboardPathGeneric,
			wantTarget:  DashboardPathAdmin,
			wantOK:      true,
		},
		{
			name:        "admin on own dashboard stays put",
			role:        models.RoleAdmin,
			currentPath: DashboardPathAdmin,
			wantOK:      false,
		},
		{
			name:        "counselor on generic dashboard redirects once",
			role:        models.RoleCounselor,
			currentPath: DashboardPathGeneric,
			wantTarget:  DashboardPathCounselor,
			wantOK:      true,
		},
		{
			name:        "student owns the generic dashboard",
			role:        models.RoleStudent,
			currentPath: DashboardPathGeneric,
			wantOK:      false,
		},
		{
			name:        "non-dashboard paths never redirect",
			role:        models.RoleAdmin,
			currentPath: "/profile",
			wantOK:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := DecideRedirect(tt.role, tt.currentPath)
			if ok != tt.wantOK {
				t.Fatalf("DecideRedirect() ok = %v, want %v", ok, tt.wantOK)
			}
			if target != tt.wantTarget {
				t.Errorf("DecideRedirect() target = %q, want %q", target, tt.wantTarget)
			}
		})
	}
}

// A redirect followed by re-evaluating at the target must settle: for every
// role the second evaluation returns no further redirect.
func TestDecideRedirectSettles(t *testing.T) {
	for _, role := range models.Roles() {
		current := DashboardPathGeneric
		target, ok := DecideRedirect(role, current)
		if ok {
			current = target
		}
		if _, again := DecideRedirect(role, current); again {
			t.Errorf("redirect for role %s did not settle at %q", role, current)
		}
	}
}
