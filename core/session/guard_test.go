package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required []string
		want     Decision
	}{
		{name: "absent role, protected view", role: "", required: AnyStaffRoles, want: Decision{RedirectTo: LoginPath, From: "/dashboard"}},
		{name: "absent role, admin view", role: "", required: AdminRoles, want: Decision{RedirectTo: LoginPath, From: "/dashboard"}},
		{name: "absent role, no requirement", role: "", required: nil, want: Decision{RedirectTo: LoginPath, From: "/dashboard"}},
		{name: "tutor on admin view", role: RoleTutor, required: AdminRoles, want: Decision{RedirectTo: DashboardPath}},
		{name: "unknown role on admin view", role: "director", required: AdminRoles, want: Decision{RedirectTo: DashboardPath}},
		{name: "case matters", role: "Admin", required: AdminRoles, want: Decision{RedirectTo: DashboardPath}},
		{name: "unknown role on staff view", role: "director", required: AnyStaffRoles, want: Decision{RedirectTo: DashboardPath}},
		{name: "unknown role, no requirement", role: "director", required: nil, want: Decision{Allow: true}},
		{name: "tutor on staff view", role: RoleTutor, required: AnyStaffRoles, want: Decision{Allow: true}},
		{name: "admin on admin view", role: RoleAdmin, required: AdminRoles, want: Decision{Allow: true}},
		{name: "admin on staff view", role: RoleAdmin, required: AnyStaffRoles, want: Decision{Allow: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.role, tt.required, "/dashboard"))
		})
	}
}

func TestDecide_nonAdminRolesNeverReachAdminView(t *testing.T) {
	for _, role := range []string{RoleTutor, "ADMIN", "admin ", "root", "alumno", "x"} {
		d := Decide(role, AdminRoles)
		assert.False(t, d.Allow, role)
		assert.Equal(t, DashboardPath, d.RedirectTo, role)
	}
}

func TestDecide_afterClear(t *testing.T) {
	store := &memStore{}
	_ = store.Save(New(RoleAdmin, "admin@iplacex.cl"))

	sess, _ := store.Load()
	assert.True(t, Decide(sess.Role, AdminRoles).Allow)

	_ = store.Clear()
	sess, ok := store.Load()
	assert.False(t, ok)
	d := Decide(sess.Role, AdminRoles, StatisticsPath)
	assert.False(t, d.Allow)
	assert.Equal(t, LoginPath, d.RedirectTo)
}

func TestDecision_Location(t *testing.T) {
	assert.Equal(t, "/dashboard", Decision{RedirectTo: DashboardPath}.Location())
	assert.Equal(t, "/?next=%2Festadisticas%3Fx%3D1", Decision{RedirectTo: LoginPath, From: "/estadisticas?x=1"}.Location())
}

func TestLandingPath(t *testing.T) {
	assert.Equal(t, StatisticsPath, LandingPath(RoleAdmin))
	assert.Equal(t, DashboardPath, LandingPath(RoleTutor))
	assert.Equal(t, DashboardPath, LandingPath("whatever"))
}

type memStore struct {
	sess *Session
}

func (m *memStore) Save(s Session) error { m.sess = &s; return nil }

func (m *memStore) Load() (Session, bool) {
	if m.sess == nil {
		return Session{}, false
	}
	return *m.sess, true
}

func (m *memStore) Clear() error { m.sess = nil; return nil }
