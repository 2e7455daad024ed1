package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/vidfriends/mediahub/internal/aggregate"
	"github.com/vidfriends/mediahub/internal/auth"
	"github.com/vidfriends/mediahub/internal/catalog"
	"github.com/vidfriends/mediahub/internal/media"
	"github.com/vidfriends/mediahub/internal/middleware"
	"github.com/vidfriends/mediahub/internal/repositories"
)

type uploaderStub struct{}

func (uploaderStub) Upload(_ context.Context, localPath string) (media.Asset, error) {
	name := filepath.Base(localPath)
	return media.Asset{URL: "https://cdn.example.com/" + name, PublicID: name, Duration: 12}, nil
}

func (uploaderStub) PublicID(url string) (string, bool) {
	return strings.CutPrefix(url, "https://cdn.example.com/")
}

type testServer struct {
	t       *testing.T
	router  *mux.Router
	store   *repositories.MemoryStore
	limiter middleware.RateLimiter
}

func newTestServer(t *testing.T, limiter middleware.RateLimiter) *testServer {
	t.Helper()

	store := repositories.NewMemoryStore()
	tokens, err := auth.NewTokenService(auth.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, store)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	svc := catalog.New(store, catalog.WithMedia(uploaderStub{}))

	router := mux.NewRouter()
	RegisterRoutes(router, Dependencies{
		Accounts:    svc,
		Sessions:    tokens,
		Catalog:     svc,
		Reads:       aggregate.New(store),
		Uploads:     Uploads{Dir: t.TempDir(), MaxBytes: 1 << 20},
		AuthLimiter: limiter,
	})
	return &testServer{t: t, router: router, store: store, limiter: limiter}
}

func (s *testServer) do(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func jsonRequest(method, path string, body any, token string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files map[string]string, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for field, filename := range files {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = io.WriteString(part, "bytes of "+filename)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func dataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %#v", env.Data)
	}
	return data
}

// registerAndLogin creates an account through the API and returns its id and access token.
func (s *testServer) registerAndLogin(username string) (string, string) {
	s.t.Helper()
	req := multipartRequest(s.t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"fullName": "Full " + username,
		"password": "hunter22",
	}, map[string]string{"avatar": "avatar.png"}, "")
	rec, env := s.do(req)
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: status %d (%s)", username, rec.Code, env.Message)
	}
	id, _ := dataMap(s.t, env)["id"].(string)

	rec, env = s.do(jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": username,
		"password": "hunter22",
	}, ""))
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: status %d (%s)", username, rec.Code, env.Message)
	}
	token, _ := dataMap(s.t, env)["accessToken"].(string)
	return id, token
}
