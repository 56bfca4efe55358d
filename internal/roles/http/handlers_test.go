package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/roles/domain"
)

type stubRoleService struct {
	assignMsg    string
	assignErr    error
	role         auth.Role
	roleErr      error
	identities   []domain.IdentityInfo
	listErr      error
	firstSeenErr error
	profile      *domain.Profile

	assignedTarget string
	assignedRole   auth.Role
}

func (s *stubRoleService) AssignRole(_ context.Context, _ auth.Identity, targetUID string, role auth.Role) (string, error) {
	if s.assignErr != nil {
		return "", s.assignErr
	}
	s.assignedTarget = targetUID
	s.assignedRole = role
	return s.assignMsg, nil
}

func (s *stubRoleService) GetRole(_ context.Context, caller auth.Identity, targetUID string) (string, auth.Role, error) {
	if s.roleErr != nil {
		return "", "", s.roleErr
	}
	if targetUID == "" {
		targetUID = caller.UID
	}
	return targetUID, s.role, nil
}

func (s *stubRoleService) ListIdentities(context.Context, auth.Identity) ([]domain.IdentityInfo, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.identities, nil
}

func (s *stubRoleService) EnsureFirstSeen(context.Context, string, string, string) error {
	return s.firstSeenErr
}

func (s *stubRoleService) Profile(context.Context, auth.Identity) (*domain.Profile, error) {
	return s.profile, nil
}

func newTestRouter(svc RoleService, ident *auth.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if ident != nil {
			auth.SetIdentity(c, *ident)
		}
		c.Next()
	})
	New(svc).Register(r.Group("/"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func TestAssignRoleHandler(t *testing.T) {
	caller := &auth.Identity{UID: "admin1", Role: auth.RoleAdmin}

	t.Run("success", func(t *testing.T) {
		svc := &stubRoleService{assignMsg: "role changed to admin"}
		r := newTestRouter(svc, caller)

		w, body := doJSON(t, r, http.MethodPost, "/roles/assign", `{"userId":"u1","role":"admin"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "u1", svc.assignedTarget)
		assert.Equal(t, auth.RoleAdmin, svc.assignedRole)
	})

	t.Run("missing fields", func(t *testing.T) {
		r := newTestRouter(&stubRoleService{}, caller)
		w, _ := doJSON(t, r, http.MethodPost, "/roles/assign", `{"userId":"u1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no identity in context", func(t *testing.T) {
		r := newTestRouter(&stubRoleService{}, nil)
		w, _ := doJSON(t, r, http.MethodPost, "/roles/assign", `{"userId":"u1","role":"admin"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := []struct {
			err  error
			want int
		}{
			{domain.ErrUnauthenticated, http.StatusUnauthorized},
			{domain.ErrPermissionDenied, http.StatusForbidden},
			{domain.ErrSelfDemotion, http.StatusForbidden},
			{domain.ErrInvalidRole, http.StatusBadRequest},
			{domain.ErrUserNotFound, http.StatusNotFound},
		}
		for _, tc := range cases {
			r := newTestRouter(&stubRoleService{assignErr: tc.err}, caller)
			w, _ := doJSON(t, r, http.MethodPost, "/roles/assign", `{"userId":"u1","role":"admin"}`)
			assert.Equal(t, tc.want, w.Code, "error %v", tc.err)
		}
	})
}

func TestGetRoleHandlers(t *testing.T) {
	caller := &auth.Identity{UID: "u1", Role: auth.RoleUser}

	t.Run("own role", func(t *testing.T) {
		r := newTestRouter(&stubRoleService{role: auth.RoleUser}, caller)
		w, body := doJSON(t, r, http.MethodGet, "/roles", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1", body["userId"])
		assert.Equal(t, "user", body["role"])
	})

	t.Run("specific user", func(t *testing.T) {
		r := newTestRouter(&stubRoleService{role: auth.RoleAdmin}, caller)
		w, body := doJSON(t, r, http.MethodGet, "/roles/other", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "other", body["userId"])
	})

	t.Run("denied", func(t *testing.T) {
		r := newTestRouter(&stubRoleService{roleErr: domain.ErrPermissionDenied}, caller)
		w, _ := doJSON(t, r, http.MethodGet, "/roles/other", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestListUsersHandler(t *testing.T) {
	caller := &auth.Identity{UID: "admin1", Role: auth.RoleAdmin}

	t.Run("success", func(t *testing.T) {
		svc := &stubRoleService{identities: []domain.IdentityInfo{{UID: "u1", Role: "user"}}}
		r := newTestRouter(svc, caller)

		w, body := doJSON(t, r, http.MethodGet, "/users", "")
		require.Equal(t, http.StatusOK, w.Code)
		users, ok := body["users"].([]any)
		require.True(t, ok)
		assert.Len(t, users, 1)
	})

	t.Run("denied", func(t *testing.T) {
		r := newTestRouter(&stubRoleService{listErr: domain.ErrPermissionDenied}, caller)
		w, _ := doJSON(t, r, http.MethodGet, "/users", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestSyncUserHandler(t *testing.T) {
	caller := &auth.Identity{UID: "u1", Email: "u1@example.com", Role: auth.RoleUser}

	t.Run("synced with profile", func(t *testing.T) {
		svc := &stubRoleService{profile: &domain.Profile{UID: "u1", Role: "user"}}
		r := newTestRouter(svc, caller)

		w, body := doJSON(t, r, http.MethodPost, "/users/sync", `{"displayName":"User One"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["synced"])
		assert.NotNil(t, body["user"])
	})

	t.Run("empty body is fine", func(t *testing.T) {
		r := newTestRouter(&stubRoleService{}, caller)
		w, body := doJSON(t, r, http.MethodPost, "/users/sync", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["synced"])
	})

	t.Run("mirror failure still returns ok", func(t *testing.T) {
		svc := &stubRoleService{firstSeenErr: domain.ErrMissingUserID}
		r := newTestRouter(svc, caller)

		w, body := doJSON(t, r, http.MethodPost, "/users/sync", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, body["synced"])
	})
}
