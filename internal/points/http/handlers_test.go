package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/domain"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/service"
)

type stubPointService struct {
	createID  string
	createErr error
	createIn  service.CreateInput

	points  []domain.Point
	listErr error

	transitionErr    error
	transitionTarget domain.ModerationStatus
	transitionPoint  string

	saveErr   error
	unsaveErr error
	isSaved   bool
	savedID   string
}

func (s *stubPointService) Create(_ context.Context, _ auth.Identity, in service.CreateInput) (string, error) {
	s.createIn = in
	if s.createErr != nil {
		return "", s.createErr
	}
	return s.createID, nil
}

func (s *stubPointService) List(context.Context, domain.StatusFilter) ([]domain.Point, error) {
	return s.points, s.listErr
}

func (s *stubPointService) ListOwned(context.Context, auth.Identity) ([]domain.Point, error) {
	return s.points, s.listErr
}

func (s *stubPointService) ListPending(context.Context, auth.Identity) ([]domain.Point, error) {
	return s.points, s.listErr
}

func (s *stubPointService) ListSaved(context.Context, auth.Identity) ([]domain.Point, error) {
	return s.points, s.listErr
}

func (s *stubPointService) Transition(_ context.Context, _ auth.Identity, pointID string, newStatus domain.ModerationStatus) error {
	s.transitionPoint = pointID
	s.transitionTarget = newStatus
	return s.transitionErr
}

func (s *stubPointService) Save(_ context.Context, _ auth.Identity, pointID string) error {
	s.savedID = pointID
	return s.saveErr
}

func (s *stubPointService) Unsave(_ context.Context, _ auth.Identity, pointID string) error {
	return s.unsaveErr
}

func (s *stubPointService) IsSaved(context.Context, auth.Identity, string) (bool, error) {
	return s.isSaved, nil
}

func newTestRouter(svc PointService, ident *auth.Identity) *gin.Engine {
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

func multipartBody(t *testing.T, fields map[string]string, imageName string, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if imageName != "" {
		fw, err := mw.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write(imageData)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func pointFields() map[string]string {
	return map[string]string{
		"lat":      "-33.45",
		"lng":      "-70.66",
		"category": "RAMPA",
		"status":   "BUENO",
		"comments": "rampa ancha",
	}
}

func TestCreatePointHandler(t *testing.T) {
	caller := &auth.Identity{UID: "u1", Role: auth.RoleUser}

	t.Run("without image", func(t *testing.T) {
		svc := &stubPointService{createID: "p1"}
		r := newTestRouter(svc, caller)

		body, contentType := multipartBody(t, pointFields(), "", nil)
		req := httptest.NewRequest(http.MethodPost, "/points", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "p1")
		assert.Equal(t, domain.CategoryRampa, svc.createIn.Category)
		assert.Equal(t, domain.ConditionBueno, svc.createIn.Condition)
		assert.Nil(t, svc.createIn.Image)
	})

	t.Run("with image", func(t *testing.T) {
		svc := &stubPointService{createID: "p1"}
		r := newTestRouter(svc, caller)

		body, contentType := multipartBody(t, pointFields(), "rampa.jpg", []byte("jpegdata"))
		req := httptest.NewRequest(http.MethodPost, "/points", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, svc.createIn.Image)
		assert.Equal(t, "rampa.jpg", svc.createIn.Image.Filename)
		assert.Equal(t, []byte("jpegdata"), svc.createIn.Image.Data)
	})

	t.Run("zero coordinates are valid", func(t *testing.T) {
		fields := pointFields()
		fields["lat"] = "0"
		fields["lng"] = "6.45"
		svc := &stubPointService{createID: "p1"}
		r := newTestRouter(svc, caller)

		body, contentType := multipartBody(t, fields, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/points", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Zero(t, svc.createIn.Lat)
		assert.InDelta(t, 6.45, svc.createIn.Lng, 1e-9)
	})

	t.Run("missing coordinate still rejected", func(t *testing.T) {
		fields := pointFields()
		delete(fields, "lng")
		r := newTestRouter(&stubPointService{}, caller)

		body, contentType := multipartBody(t, fields, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/points", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing required field", func(t *testing.T) {
		fields := pointFields()
		delete(fields, "category")
		r := newTestRouter(&stubPointService{}, caller)

		body, contentType := multipartBody(t, fields, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/points", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no identity", func(t *testing.T) {
		r := newTestRouter(&stubPointService{}, nil)

		body, contentType := multipartBody(t, pointFields(), "", nil)
		req := httptest.NewRequest(http.MethodPost, "/points", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("upload errors map to bad gateway", func(t *testing.T) {
		svc := &stubPointService{createErr: domain.ErrUploadPermission}
		r := newTestRouter(svc, caller)

		body, contentType := multipartBody(t, pointFields(), "rampa.jpg", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/points", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestListPointsHandler(t *testing.T) {
	t.Run("default listing", func(t *testing.T) {
		svc := &stubPointService{points: []domain.Point{{ID: "p1", Status: domain.StatusAprobado}}}
		r := newTestRouter(svc, &auth.Identity{UID: "u1", Role: auth.RoleUser})

		req := httptest.NewRequest(http.MethodGet, "/points", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body map[string][]domain.Point
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Len(t, body["points"], 1)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		r := newTestRouter(&stubPointService{}, &auth.Identity{UID: "u1", Role: auth.RoleUser})

		req := httptest.NewRequest(http.MethodGet, "/points?status="+url.QueryEscape("rejected"), nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCallerListingsRequireIdentity(t *testing.T) {
	for _, path := range []string{"/points/mine", "/points/pending", "/points/saved"} {
		t.Run(path, func(t *testing.T) {
			r := newTestRouter(&stubPointService{}, nil)

			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestTransitionPointHandler(t *testing.T) {
	admin := &auth.Identity{UID: "a1", Role: auth.RoleAdmin}

	t.Run("success", func(t *testing.T) {
		svc := &stubPointService{}
		r := newTestRouter(svc, admin)

		req := httptest.NewRequest(http.MethodPatch, "/points/p1/status", strings.NewReader(`{"status":"APROBADO"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "p1", svc.transitionPoint)
		assert.Equal(t, domain.StatusAprobado, svc.transitionTarget)
	})

	t.Run("missing status", func(t *testing.T) {
		r := newTestRouter(&stubPointService{}, admin)

		req := httptest.NewRequest(http.MethodPatch, "/points/p1/status", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := []struct {
			err  error
			want int
		}{
			{domain.ErrPermissionDenied, http.StatusForbidden},
			{domain.ErrAlreadyModerated, http.StatusBadRequest},
			{domain.ErrInvalidTransition, http.StatusBadRequest},
			{domain.ErrPointNotFound, http.StatusNotFound},
		}
		for _, tc := range cases {
			r := newTestRouter(&stubPointService{transitionErr: tc.err}, admin)

			req := httptest.NewRequest(http.MethodPatch, "/points/p1/status", strings.NewReader(`{"status":"APROBADO"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code, "error %v", tc.err)
		}
	})
}

func TestBookmarkHandlers(t *testing.T) {
	caller := &auth.Identity{UID: "u1", Role: auth.RoleUser}

	t.Run("save", func(t *testing.T) {
		svc := &stubPointService{}
		r := newTestRouter(svc, caller)

		req := httptest.NewRequest(http.MethodPut, "/points/p1/bookmark", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"saved":true`)
		assert.Equal(t, "p1", svc.savedID)
	})

	t.Run("unsave", func(t *testing.T) {
		r := newTestRouter(&stubPointService{}, caller)

		req := httptest.NewRequest(http.MethodDelete, "/points/p1/bookmark", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"saved":false`)
	})

	t.Run("status", func(t *testing.T) {
		r := newTestRouter(&stubPointService{isSaved: true}, caller)

		req := httptest.NewRequest(http.MethodGet, "/points/p1/bookmark", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"saved":true`)
	})

	t.Run("no identity", func(t *testing.T) {
		r := newTestRouter(&stubPointService{}, nil)

		req := httptest.NewRequest(http.MethodPut, "/points/p1/bookmark", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
