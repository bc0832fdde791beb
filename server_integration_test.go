package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"educenter/models"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	loadConfig()
	initDB()
	r := gin.New()
	setupRoutes(r)
	return r
}

func seededAdminPassword() string {
	if v := os.Getenv("SEED_ADMIN_PASSWORD"); v != "" {
		return v
	}
	return "admin123"
}

type authBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
}

func loginAs(t *testing.T, r http.Handler, email, password string) authBody {
	t.Helper()
	resp := performRequest(r, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("login %s failed status=%d body=%s", email, resp.Code, resp.Body.String())
	}
	var body authBody
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("login response: %v", err)
	}
	if body.AccessToken == "" || body.RefreshToken == "" {
		t.Fatalf("login returned empty tokens: %s", resp.Body.String())
	}
	return body
}

func TestSessionLifecycle(t *testing.T) {
	r := setupTestServer(t)

	admin := loginAs(t, r, "admin@educenter.local", seededAdminPassword())
	if admin.User.Role != "admin" {
		t.Fatalf("seeded admin role = %q", admin.User.Role)
	}

	// A refresh row must be persisted with an expiry about 7 days out.
	var rt models.RefreshToken
	if err := db.Where("token = ?", admin.RefreshToken).First(&rt).Error; err != nil {
		t.Fatalf("refresh token not persisted: %v", err)
	}
	until := time.Until(rt.ExpiresAt)
	if until < refreshTokenTTL-time.Minute || until > refreshTokenTTL+time.Minute {
		t.Errorf("refresh expiry %v from now, want about %v", until, refreshTokenTTL)
	}

	// Unknown address and wrong password must be indistinguishable.
	badPass := performRequest(r, http.MethodPost, "/auth/login", map[string]string{
		"email": "admin@educenter.local", "password": "definitely-wrong",
	}, "")
	noUser := performRequest(r, http.MethodPost, "/auth/login", map[string]string{
		"email": "nobody@educenter.local", "password": "whatever1",
	}, "")
	if badPass.Code != http.StatusUnauthorized || noUser.Code != http.StatusUnauthorized {
		t.Fatalf("bad credential statuses = %d/%d, want 401/401", badPass.Code, noUser.Code)
	}
	if badPass.Body.String() != noUser.Body.String() {
		t.Errorf("credential errors differ: %q vs %q", badPass.Body.String(), noUser.Body.String())
	}

	// Rotation: first refresh wins, replay of the consumed token fails.
	first := performRequest(r, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": admin.RefreshToken}, "")
	if first.Code != http.StatusOK {
		t.Fatalf("refresh failed status=%d body=%s", first.Code, first.Body.String())
	}
	var rotated authBody
	_ = json.Unmarshal(first.Body.Bytes(), &rotated)
	if rotated.RefreshToken == admin.RefreshToken {
		t.Fatal("refresh returned the same token instead of rotating")
	}
	replay := performRequest(r, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": admin.RefreshToken}, "")
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("replayed refresh status=%d, want 401", replay.Code)
	}

	// Logout revokes, and is idempotent on unknown tokens.
	out := performRequest(r, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": rotated.RefreshToken}, "")
	if out.Code != http.StatusOK {
		t.Fatalf("logout status=%d", out.Code)
	}
	afterLogout := performRequest(r, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": rotated.RefreshToken}, "")
	if afterLogout.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status=%d, want 401", afterLogout.Code)
	}
	again := performRequest(r, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": rotated.RefreshToken}, "")
	if again.Code != http.StatusOK {
		t.Fatalf("repeated logout status=%d, want 200", again.Code)
	}

	// Expired rows are rejected and left in place.
	expired := models.RefreshToken{UserID: admin.User.ID, Token: fmt.Sprintf("expired-%d", time.Now().UnixNano()), ExpiresAt: time.Now().Add(-time.Hour)}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("seed expired token: %v", err)
	}
	stale := performRequest(r, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": expired.Token}, "")
	if stale.Code != http.StatusUnauthorized {
		t.Fatalf("expired refresh status=%d, want 401", stale.Code)
	}
	var still models.RefreshToken
	if err := db.Where("token = ?", expired.Token).First(&still).Error; err != nil {
		t.Errorf("expired row should persist until a sweep exists: %v", err)
	}
	db.Delete(&still)

	// logoutAll kills every session of the account.
	s1 := loginAs(t, r, "admin@educenter.local", seededAdminPassword())
	s2 := loginAs(t, r, "admin@educenter.local", seededAdminPassword())
	if err := LogoutAllSessions(admin.User.ID); err != nil {
		t.Fatalf("LogoutAllSessions: %v", err)
	}
	for _, tok := range []string{s1.RefreshToken, s2.RefreshToken} {
		resp := performRequest(r, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": tok}, "")
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("refresh after logoutAll status=%d, want 401", resp.Code)
		}
	}

	// Profile requires the bearer token and echoes the claims.
	admin = loginAs(t, r, "admin@educenter.local", seededAdminPassword())
	prof := performRequest(r, http.MethodGet, "/auth/profile", nil, admin.AccessToken)
	if prof.Code != http.StatusOK {
		t.Fatalf("profile status=%d", prof.Code)
	}
	var profile struct {
		UserID uint   `json:"userId"`
		Email  string `json:"email"`
		Role   string `json:"role"`
	}
	_ = json.Unmarshal(prof.Body.Bytes(), &profile)
	if profile.UserID != admin.User.ID || profile.Role != "admin" {
		t.Errorf("profile = %+v", profile)
	}
	if rec := performRequest(r, http.MethodGet, "/auth/profile", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated profile status=%d, want 401", rec.Code)
	}
}

func TestUserManagement(t *testing.T) {
	r := setupTestServer(t)
	admin := loginAs(t, r, "admin@educenter.local", seededAdminPassword())
	suffix := time.Now().UnixNano()

	// Role list feeds the user form.
	rolesResp := performRequest(r, http.MethodGet, "/users/roles", nil, admin.AccessToken)
	if rolesResp.Code != http.StatusOK {
		t.Fatalf("list roles status=%d", rolesResp.Code)
	}
	var roles []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	_ = json.Unmarshal(rolesResp.Body.Bytes(), &roles)
	var secretaryRole uint
	for _, role := range roles {
		if role.Name == "secretary" {
			secretaryRole = role.ID
		}
	}
	if secretaryRole == 0 {
		t.Fatal("secretary role not seeded")
	}

	username := fmt.Sprintf("sec%d", suffix)
	email := fmt.Sprintf("sec%d@educenter.local", suffix)
	create := performRequest(r, http.MethodPost, "/users", map[string]any{
		"username": username, "email": email, "password": "Secret1", "roleId": secretaryRole,
	}, admin.AccessToken)
	if create.Code != http.StatusCreated {
		t.Fatalf("create user status=%d body=%s", create.Code, create.Body.String())
	}
	var created struct {
		ID   uint   `json:"id"`
		Role string `json:"role"`
	}
	_ = json.Unmarshal(create.Body.Bytes(), &created)
	if created.Role != "secretary" {
		t.Errorf("created role = %q", created.Role)
	}

	dup := performRequest(r, http.MethodPost, "/users", map[string]any{
		"username": username, "email": "other@educenter.local", "password": "Secret1", "roleId": secretaryRole,
	}, admin.AccessToken)
	if dup.Code != http.StatusConflict {
		t.Errorf("duplicate username status=%d, want 409", dup.Code)
	}
	badRole := performRequest(r, http.MethodPost, "/users", map[string]any{
		"username": username + "x", "email": "x" + email, "password": "Secret1", "roleId": 999999,
	}, admin.AccessToken)
	if badRole.Code != http.StatusNotFound {
		t.Errorf("unknown role status=%d, want 404", badRole.Code)
	}
	badName := performRequest(r, http.MethodPost, "/users", map[string]any{
		"username": "bad name!", "email": "y" + email, "password": "Secret1", "roleId": secretaryRole,
	}, admin.AccessToken)
	if badName.Code != http.StatusBadRequest {
		t.Errorf("invalid username status=%d, want 400", badName.Code)
	}

	// Role gates: a secretary can read users but not create them.
	sec := loginAs(t, r, email, "Secret1")
	if rec := performRequest(r, http.MethodGet, "/users?search="+username, nil, sec.AccessToken); rec.Code != http.StatusOK {
		t.Errorf("secretary list users status=%d", rec.Code)
	}
	forbidden := performRequest(r, http.MethodPost, "/users", map[string]any{
		"username": "nope", "email": "nope@educenter.local", "password": "Secret1", "roleId": secretaryRole,
	}, sec.AccessToken)
	if forbidden.Code != http.StatusForbidden {
		t.Errorf("secretary create user status=%d, want 403", forbidden.Code)
	}

	userPath := fmt.Sprintf("/users/%d", created.ID)

	// Password change: wrong current 400, weak new 400, then a real change.
	if rec := performRequest(r, http.MethodPut, userPath+"/password", map[string]string{
		"currentPassword": "wrong", "newPassword": "Newpass1",
	}, admin.AccessToken); rec.Code != http.StatusBadRequest {
		t.Errorf("wrong current password status=%d, want 400", rec.Code)
	}
	if rec := performRequest(r, http.MethodPut, userPath+"/password", map[string]string{
		"currentPassword": "Secret1", "newPassword": "weak",
	}, admin.AccessToken); rec.Code != http.StatusBadRequest {
		t.Errorf("weak new password status=%d, want 400", rec.Code)
	}
	if rec := performRequest(r, http.MethodPut, userPath+"/password", map[string]string{
		"currentPassword": "Secret1", "newPassword": "Newpass1",
	}, sec.AccessToken); rec.Code != http.StatusOK {
		t.Fatalf("password change status=%d body=%s", rec.Code, rec.Body.String())
	}
	sec = loginAs(t, r, email, "Newpass1")

	// Deactivation revokes the account's sessions and blocks login.
	toggle := performRequest(r, http.MethodPatch, userPath+"/toggle-status", nil, admin.AccessToken)
	if toggle.Code != http.StatusOK {
		t.Fatalf("toggle status=%d", toggle.Code)
	}
	if rec := performRequest(r, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": sec.RefreshToken}, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh for deactivated user status=%d, want 401", rec.Code)
	}
	if rec := performRequest(r, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "Newpass1"}, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("login for deactivated user status=%d, want 401", rec.Code)
	}

	// Last-admin invariant.
	if countActiveAdmins() == 1 {
		adminPath := fmt.Sprintf("/users/%d", admin.User.ID)
		if rec := performRequest(r, http.MethodPatch, adminPath+"/toggle-status", nil, admin.AccessToken); rec.Code != http.StatusBadRequest {
			t.Errorf("deactivating only admin status=%d, want 400", rec.Code)
		}
	}
	if countAdmins() == 1 {
		adminPath := fmt.Sprintf("/users/%d", admin.User.ID)
		if rec := performRequest(r, http.MethodDelete, adminPath, nil, admin.AccessToken); rec.Code != http.StatusBadRequest {
			t.Errorf("deleting only admin status=%d, want 400", rec.Code)
		}
	}

	// Cleanup.
	if rec := performRequest(r, http.MethodDelete, userPath, nil, admin.AccessToken); rec.Code != http.StatusOK {
		t.Fatalf("delete user status=%d", rec.Code)
	}
	if rec := performRequest(r, http.MethodGet, userPath, nil, admin.AccessToken); rec.Code != http.StatusNotFound {
		t.Errorf("deleted user lookup status=%d, want 404", rec.Code)
	}
}

func TestResourceCRUD(t *testing.T) {
	r := setupTestServer(t)
	admin := loginAs(t, r, "admin@educenter.local", seededAdminPassword())
	suffix := time.Now().UnixNano()

	cases := []struct {
		base    string
		listKey string
		create  map[string]any
		update  map[string]any
		invalid map[string]any
	}{
		{
			base:    "/processes",
			listKey: "processes",
			create:  map[string]any{"name": fmt.Sprintf("proc-%d", suffix), "code": fmt.Sprintf("%d", suffix%1000000)},
			update:  map[string]any{"name": fmt.Sprintf("proc-%d-b", suffix)},
			invalid: map[string]any{"name": fmt.Sprintf("proc-%d-c", suffix), "code": "NOT-DIGITS"},
		},
		{
			base:    "/sedes",
			listKey: "sedes",
			create:  map[string]any{"name": fmt.Sprintf("sede-%d", suffix), "code": fmt.Sprintf("SC-%d", suffix%1000000)},
			update:  map[string]any{"name": fmt.Sprintf("sede-%d-b", suffix)},
			invalid: map[string]any{"name": "bad name!", "code": "SC-1"},
		},
		{
			base:    "/turns",
			listKey: "turns",
			create:  map[string]any{"name": fmt.Sprintf("turn_%d", suffix), "startTime": "08:00:00", "endTime": "12:00:00"},
			update:  map[string]any{"endTime": "13:00:00"},
			invalid: map[string]any{"name": fmt.Sprintf("turn_%d_c", suffix), "startTime": "25:00:00", "endTime": "12:00:00"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.listKey, func(t *testing.T) {
			create := performRequest(r, http.MethodPost, tc.base, tc.create, admin.AccessToken)
			if create.Code != http.StatusCreated {
				t.Fatalf("create status=%d body=%s", create.Code, create.Body.String())
			}
			var created struct {
				ID       uint `json:"id"`
				IsActive bool `json:"isActive"`
			}
			_ = json.Unmarshal(create.Body.Bytes(), &created)
			if !created.IsActive {
				t.Error("created resource should be active")
			}
			path := fmt.Sprintf("%s/%d", tc.base, created.ID)

			if rec := performRequest(r, http.MethodPost, tc.base, tc.create, admin.AccessToken); rec.Code != http.StatusConflict {
				t.Errorf("duplicate create status=%d, want 409", rec.Code)
			}
			if rec := performRequest(r, http.MethodPost, tc.base, tc.invalid, admin.AccessToken); rec.Code != http.StatusBadRequest {
				t.Errorf("invalid create status=%d, want 400", rec.Code)
			}

			list := performRequest(r, http.MethodGet, tc.base+"?search="+tc.create["name"].(string), nil, admin.AccessToken)
			if list.Code != http.StatusOK {
				t.Fatalf("list status=%d", list.Code)
			}
			var page map[string]json.RawMessage
			_ = json.Unmarshal(list.Body.Bytes(), &page)
			for _, key := range []string{tc.listKey, "total", "page", "totalPages"} {
				if _, ok := page[key]; !ok {
					t.Errorf("list response missing %q: %s", key, list.Body.String())
				}
			}

			if rec := performRequest(r, http.MethodGet, path, nil, admin.AccessToken); rec.Code != http.StatusOK {
				t.Errorf("get status=%d", rec.Code)
			}
			if rec := performRequest(r, http.MethodPut, path, tc.update, admin.AccessToken); rec.Code != http.StatusOK {
				t.Errorf("update status=%d body=%s", rec.Code, rec.Body.String())
			}

			toggled := performRequest(r, http.MethodPatch, path+"/toggle-status", nil, admin.AccessToken)
			if toggled.Code != http.StatusOK {
				t.Fatalf("toggle status=%d", toggled.Code)
			}
			var after struct {
				IsActive bool `json:"isActive"`
			}
			_ = json.Unmarshal(toggled.Body.Bytes(), &after)
			if after.IsActive {
				t.Error("toggle should have deactivated the resource")
			}

			if rec := performRequest(r, http.MethodDelete, path, nil, admin.AccessToken); rec.Code != http.StatusOK {
				t.Errorf("delete status=%d", rec.Code)
			}
			if rec := performRequest(r, http.MethodGet, path, nil, admin.AccessToken); rec.Code != http.StatusNotFound {
				t.Errorf("get after delete status=%d, want 404", rec.Code)
			}
			if rec := performRequest(r, http.MethodDelete, path, nil, admin.AccessToken); rec.Code != http.StatusNotFound {
				t.Errorf("repeated delete status=%d, want 404", rec.Code)
			}
		})
	}

	// Resource routes reject requests without a staff role.
	if rec := performRequest(r, http.MethodGet, "/processes", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated list status=%d, want 401", rec.Code)
	}
}
