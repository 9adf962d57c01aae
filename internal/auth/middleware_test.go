package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// adminRouter mounts an admin-only route behind Resolve+Require and
// returns session tokens for a teacher and an admin.
func adminRouter(t *testing.T) (r *gin.Engine, teacherToken, adminToken string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := NewMemorySessions(time.Hour)
	teacher := Identity{UserID: "tea-1", Role: RoleTeacher}
	admin := Identity{UserID: "adm-1", Role: RoleAdmin}

	teacherToken, err := sessions.Create(context.Background(), teacher)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	adminToken, err = sessions.Create(context.Background(), admin)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	a := newTestAuthenticator(sessions, teacher, admin)
	r = gin.New()
	r.Use(Resolve(a))
	r.GET("/admin", Require(Roles(RoleAdmin)), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r, teacherToken, adminToken
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRedirectsBrowserWithoutCredential(t *testing.T) {
	r, _, _ := adminRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	w := serve(r, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("Location = %q, want /login", loc)
	}
}

func TestRequireAnswers401ForProgrammaticWithoutCredential(t *testing.T) {
	r, _, _ := adminRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Accept", "application/json")

	w := serve(r, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireAnswers403ForInsufficientRole(t *testing.T) {
	r, teacherToken, _ := adminRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: teacherToken})

	w := serve(r, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestRequireAnswers401ForFailedCredentialEvenInBrowser(t *testing.T) {
	// A presented-but-bad credential gets its specific 401, never the
	// login redirect.
	r, _, _ := adminRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Authorization", "Bearer garbage")

	w := serve(r, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(w.Body.String(), "invalid credential") {
		t.Fatalf("body = %q, want invalid credential message", w.Body.String())
	}
}

func TestRequireAnswers401ForExpiredBearer(t *testing.T) {
	r, _, _ := adminRouter(t)
	tokens, err := Issue(Identity{UserID: "adm-1", Role: RoleAdmin}, "rollcall", testKey, -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	w := serve(r, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(w.Body.String(), "credential expired") {
		t.Fatalf("body = %q, want credential expired message", w.Body.String())
	}
}

func TestRequireAdmitsPermittedRole(t *testing.T) {
	r, _, adminToken := adminRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: adminToken})

	w := serve(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "ok" {
		t.Fatalf("body = %q, want ok", w.Body.String())
	}
}
