package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admitd-dev/admitd/internal/config"
	"github.com/admitd-dev/admitd/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:       "0",
			CORSOrigin: "http://localhost:3000",
		},
		Database: config.DatabaseConfig{
			URL: filepath.Join(t.TempDir(), "portal.sqlite"),
		},
		Redis: config.RedisConfig{
			Address: "localhost:6379",
		},
		Identity: config.IdentityConfig{
			URL:     "http://localhost:9999",
			AnonKey: "test-anon-key",
		},
	}

	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// registerUser creates an account through the API and returns its token.
func registerUser(t *testing.T, srv *Server, name, email string, role models.Role) string {
	t.Helper()

	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", payload{
		"name":     name,
		"email":    email,
		"password": "password123",
		"role":     string(role),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

type payload = map[string]interface{}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", decodeBody(t, w)["status"])
}

func TestRegisterLoginMe(t *testing.T) {
	srv := newTestServer(t)

	token := registerUser(t, srv, "Amy Admin", "amy@example.com", models.RoleAdmin)

	w := doJSON(t, srv, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeBody(t, w)
	assert.Equal(t, "Amy Admin", me["name"])
	assert.Equal(t, "admin", me["role"])

	// A fresh login produces a fresh, equally valid token.
	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", payload{
		"email":    "amy@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	login := decodeBody(t, w)
	assert.NotEmpty(t, login["token"])

	user, ok := login["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "admin", user["role"])
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", payload{
		"name":     "Eve",
		"email":    "eve@example.com",
		"password": "password123",
		"role":     "superadmin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "Amy", "amy@example.com", models.RoleStudent)

	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", payload{
		"name":     "Amy Again",
		"email":    "amy@example.com",
		"password": "password123",
		"role":     "student",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "Amy", "amy@example.com", models.RoleStudent)

	w := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", payload{
		"email":    "amy@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/enquiries", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRouteWithGarbageToken(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/enquiries", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleGating(t *testing.T) {
	srv := newTestServer(t)

	studentToken := registerUser(t, srv, "Sam Student", "sam@example.com", models.RoleStudent)
	counselorToken := registerUser(t, srv, "Cora Counselor", "cora@example.com", models.RoleCounselor)
	adminToken := registerUser(t, srv, "Amy Admin", "amy@example.com", models.RoleAdmin)

	// Stats are staff-only.
	w := doJSON(t, srv, http.MethodGet, "/api/stats", studentToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "/unauthorized", body["redirect_to"])
	assert.Equal(t, "/api/stats", body["from"])
	assert.ElementsMatch(t, []interface{}{"counselor", "admin"}, body["allowed_roles"])

	w = doJSON(t, srv, http.MethodGet, "/api/stats", counselorToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/stats", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// User management is admin-only.
	w = doJSON(t, srv, http.MethodGet, "/api/users", counselorToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Follow-ups belong to counselors.
	w = doJSON(t, srv, http.MethodGet, "/api/followups", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/followups", counselorToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDashboardRedirects(t *testing.T) {
	srv := newTestServer(t)

	studentToken := registerUser(t, srv, "Sam", "sam@example.com", models.RoleStudent)
	counselorToken := registerUser(t, srv, "Cora", "cora@example.com", models.RoleCounselor)
	adminToken := registerUser(t, srv, "Amy", "amy@example.com", models.RoleAdmin)

	// Students get the generic dashboard directly.
	w := doJSON(t, srv, http.MethodGet, "/dashboard", studentToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Counselors and admins are redirected exactly once to their own path.
	w = doJSON(t, srv, http.MethodGet, "/dashboard", counselorToken, nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/counselor/dashboard", w.Header().Get("Location"))

	w = doJSON(t, srv, http.MethodGet, "/counselor/dashboard", counselorToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/dashboard", adminToken, nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))

	w = doJSON(t, srv, http.MethodGet, "/admin/dashboard", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Crossing into another role's dashboard is forbidden, not redirected.
	w = doJSON(t, srv, http.MethodGet, "/admin/dashboard", counselorToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/counselor/dashboard", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEnquiryLifecycle(t *testing.T) {
	srv := newTestServer(t)

	counselorToken := registerUser(t, srv, "Cora", "cora@example.com", models.RoleCounselor)

	// Enquiries come in from the public site, no session required.
	w := doJSON(t, srv, http.MethodPost, "/api/enquiries", "", payload{
		"student_name": "Pat Prospect",
		"email":        "pat@example.com",
		"course":       "Computer Science",
		"message":      "What are the admission requirements?",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	enquiry := decodeBody(t, w)
	enquiryID, _ := enquiry["id"].(string)
	require.NotEmpty(t, enquiryID)
	assert.Equal(t, "pending", enquiry["status"])

	// A staff reply moves it out of pending.
	w = doJSON(t, srv, http.MethodPost, "/api/enquiries/"+enquiryID+"/responses", counselorToken, payload{
		"message": "You need a high school diploma.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodGet, "/api/enquiries/"+enquiryID, counselorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "responded", decodeBody(t, w)["status"])

	// Closing is allowed; reopening is not.
	w = doJSON(t, srv, http.MethodPatch, "/api/enquiries/"+enquiryID+"/status", counselorToken, payload{
		"status": "closed",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPatch, "/api/enquiries/"+enquiryID+"/status", counselorToken, payload{
		"status": "pending",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEnquiryTiedToSignedInStudent(t *testing.T) {
	srv := newTestServer(t)

	studentToken := registerUser(t, srv, "Sam", "sam@example.com", models.RoleStudent)

	// Submitting with a session ties the enquiry to the student.
	w := doJSON(t, srv, http.MethodPost, "/api/enquiries", studentToken, payload{
		"student_name": "Sam",
		"email":        "sam@example.com",
		"course":       "Computer Science",
		"message":      "Can I transfer credits?",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody(t, w)
	enquiryID, _ := created["id"].(string)
	require.NotEmpty(t, enquiryID)
	assert.NotEmpty(t, created["student_id"], "a signed-in student's enquiry must carry their id")

	// And it shows up in the student's own listing.
	w = doJSON(t, srv, http.MethodGet, "/api/enquiries", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.Enquiry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, enquiryID, mine[0].ID)

	// Anonymous submissions still work and stay unowned.
	w = doJSON(t, srv, http.MethodPost, "/api/enquiries", "", payload{
		"student_name": "Pat Prospect",
		"email":        "pat@example.com",
		"course":       "Computer Science",
		"message":      "What are the fees?",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, decodeBody(t, w)["student_id"])

	// As does a submission with a stale token.
	w = doJSON(t, srv, http.MethodPost, "/api/enquiries", "stale-token", payload{
		"student_name": "Pat Prospect",
		"email":        "pat@example.com",
		"course":       "Computer Science",
		"message":      "Is there a deadline?",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, decodeBody(t, w)["student_id"])
}

func TestStudentsOnlySeeOwnEnquiries(t *testing.T) {
	srv := newTestServer(t)

	samToken := registerUser(t, srv, "Sam", "sam@example.com", models.RoleStudent)
	registerUser(t, srv, "Other", "other@example.com", models.RoleStudent)
	counselorToken := registerUser(t, srv, "Cora", "cora@example.com", models.RoleCounselor)

	// Seed one enquiry per student directly.
	for i, studentEmail := range []string{"sam@example.com", "other@example.com"} {
		var profile models.User
		require.NoError(t, srv.GetDB().Where("email = ?", studentEmail).First(&profile).Error)
		require.NoError(t, srv.GetDB().Create(&models.Enquiry{
			StudentID:   profile.ID,
			StudentName: profile.Name,
			Email:       studentEmail,
			Course:      fmt.Sprintf("Course %d", i),
			Message:     "hello",
			Status:      models.EnquiryPending,
		}).Error)
	}

	w := doJSON(t, srv, http.MethodGet, "/api/enquiries", samToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.Enquiry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	w = doJSON(t, srv, http.MethodGet, "/api/enquiries", counselorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Enquiry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)
}

func TestEnrollmentFlow(t *testing.T) {
	srv := newTestServer(t)

	studentToken := registerUser(t, srv, "Sam", "sam@example.com", models.RoleStudent)
	counselorToken := registerUser(t, srv, "Cora", "cora@example.com", models.RoleCounselor)

	w := doJSON(t, srv, http.MethodPost, "/api/enrollments", studentToken, payload{
		"course":        "Computer Science",
		"date_of_birth": "2004-05-01",
		"address":       "1 Main St",
		"city":          "Springfield",
		"country":       "USA",
		"phone":         "555-0100",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody(t, w)
	enrollmentID, _ := created["id"].(string)
	require.NotEmpty(t, enrollmentID)
	assert.Equal(t, "submitted", created["status"])
	assert.EqualValues(t, 25, created["progress"])

	// Counselors cannot file enrollments.
	w = doJSON(t, srv, http.MethodPost, "/api/enrollments", counselorToken, payload{
		"course": "Business Administration",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Review moves progress forward.
	w = doJSON(t, srv, http.MethodPatch, "/api/enrollments/"+enrollmentID+"/status", counselorToken, payload{
		"status": "under_review",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodGet, "/api/enrollments/"+enrollmentID, studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	reviewed := decodeBody(t, w)
	assert.Equal(t, "under_review", reviewed["status"])
	assert.EqualValues(t, 50, reviewed["progress"])

	// Terminal states stay terminal.
	w = doJSON(t, srv, http.MethodPatch, "/api/enrollments/"+enrollmentID+"/status", counselorToken, payload{
		"status": "approved",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPatch, "/api/enrollments/"+enrollmentID+"/status", counselorToken, payload{
		"status": "rejected",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStatsCountPendingWork(t *testing.T) {
	srv := newTestServer(t)

	adminToken := registerUser(t, srv, "Amy", "amy@example.com", models.RoleAdmin)
	registerUser(t, srv, "Sam", "sam@example.com", models.RoleStudent)

	require.NoError(t, srv.GetDB().Create(&models.Enquiry{
		StudentName: "Pat",
		Email:       "pat@example.com",
		Course:      "Computer Science",
		Message:     "hello",
		Status:      models.EnquiryPending,
	}).Error)

	w := doJSON(t, srv, http.MethodGet, "/api/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	stats := decodeBody(t, w)
	assert.EqualValues(t, 1, stats["total_students"])
	assert.EqualValues(t, 1, stats["total_enquiries"])
	assert.EqualValues(t, 1, stats["pending_enquiries"])
}

func TestAdminUserManagement(t *testing.T) {
	srv := newTestServer(t)

	adminToken := registerUser(t, srv, "Amy", "amy@example.com", models.RoleAdmin)

	w := doJSON(t, srv, http.MethodPost, "/api/users", adminToken, payload{
		"name":     "New Counselor",
		"email":    "nc@example.com",
		"password": "password123",
		"role":     "counselor",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created, ok := decodeBody(t, w)["user"].(map[string]interface{})
	require.True(t, ok)
	createdID, _ := created["id"].(string)
	require.NotEmpty(t, createdID)

	w = doJSON(t, srv, http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)

	// Admins cannot delete themselves.
	var admin models.User
	require.NoError(t, srv.GetDB().Where("email = ?", "amy@example.com").First(&admin).Error)
	w = doJSON(t, srv, http.MethodDelete, "/api/users/"+admin.ID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv, http.MethodDelete, "/api/users/"+createdID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// The deleted user's credentials no longer work.
	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", payload{
		"email":    "nc@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	srv := newTestServer(t)

	token := registerUser(t, srv, "Amy", "amy@example.com", models.RoleAdmin)

	w := doJSON(t, srv, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Tokens are stateless, so logging out twice is harmless.
	w = doJSON(t, srv, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnconfiguredIdentityDisablesAuth(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: "0", CORSOrigin: "http://localhost:3000"},
		Database: config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "portal.sqlite")},
		Redis:    config.RedisConfig{Address: "localhost:6379"},
	}
	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)

	w := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", payload{
		"email":    "amy@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/enquiries", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Public routes keep working.
	w = doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
