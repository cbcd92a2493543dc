package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/novak29/thrive/internal/domain"
	"github.com/novak29/thrive/internal/repository"
	"github.com/novak29/thrive/internal/service"
	"github.com/novak29/thrive/internal/transport/http/middleware"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string, includeSecret bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			if !includeSecret {
				cp.PasswordHash = ""
			}
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	if patch.FullName != nil {
		u.Profile.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		u.Profile.Phone = patch.Phone
	}
	if patch.DateOfBirth != nil {
		u.Profile.DateOfBirth = patch.DateOfBirth
	}
	if patch.Location != nil {
		u.Profile.Location = patch.Location
	}
	if patch.Bio != nil {
		u.Profile.Bio = *patch.Bio
	}
	if patch.Interests != nil {
		u.Preferences.Interests = *patch.Interests
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp, nil
}

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

const testSecret = "test-secret"

// newTestServer wires the routes exactly as cmd/server does, backed by the
// in-memory repo.
func newTestServer(t *testing.T) (*httptest.Server, *memUserRepo) {
	t.Helper()

	repo := newMemUserRepo()
	authService := service.NewAuthService(repo, testSecret, time.Hour, bcrypt.MinCost)
	authHandler := NewAuthHandler(authService)
	auth := middleware.Auth(testSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/auth/me", auth(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/profile", auth(http.HandlerFunc(authHandler.UpdateProfile)))
	mux.Handle("POST /api/auth/logout", auth(http.HandlerFunc(authHandler.Logout)))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, repo
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAuthFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	// register
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email":    "a@x.com",
		"password": "secret1",
		"fullName": "Ann A",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	user := body["user"].(map[string]any)
	userID := user["id"].(string)
	require.NotEmpty(t, userID)

	// login with the same credentials
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, userID, body["user"].(map[string]any)["id"])
	token = body["token"].(string)
	require.NotEmpty(t, token)

	// current profile
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	profile := body["user"].(map[string]any)["profile"].(map[string]any)
	assert.Equal(t, "Ann A", profile["fullName"])

	// partial profile update
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/auth/profile", token, map[string]string{
		"bio": "hi",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)

	// bio visible on the next read, name untouched
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	profile = body["user"].(map[string]any)["profile"].(map[string]any)
	assert.Equal(t, "hi", profile["bio"])
	assert.Equal(t, "Ann A", profile["fullName"])

	// logout just acknowledges
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.NotEmpty(t, body["message"])
}

func TestRegisterValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email":    "not-an-email",
		"password": "123",
		"fullName": "A",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])

	fields := errObj["fields"].(map[string]any)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "fullName")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv, repo := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "secret1", "fullName": "Ann A",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email": "A@x.com", "password": "secret2", "fullName": "Bob B",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "EMAIL_TAKEN", body["error"].(map[string]any)["code"])
	assert.Len(t, repo.users, 1)
}

func TestLoginGenericUnauthorized(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "secret1", "fullName": "Ann A",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// wrong password for an existing account
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong11",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	wrongPass := decodeBody(t, resp)["error"].(map[string]any)["message"]

	// unknown account: identical status and message, nothing leaks
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email": "nobody@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	unknown := decodeBody(t, resp)["error"].(map[string]any)["message"]

	assert.Equal(t, wrongPass, unknown)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	srv, repo := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "secret1", "fullName": "Ann A",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := decodeBody(t, resp)["user"].(map[string]any)
	repo.users[user["id"].(string)].IsActive = false

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterResponseOmitsSecrets(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "secret1", "fullName": "Ann A",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	user := decodeBody(t, resp)["user"].(map[string]any)
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "emailVerificationToken")
	assert.NotContains(t, user, "passwordResetToken")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPut, "/api/auth/profile"},
		{http.MethodPost, "/api/auth/logout"},
	} {
		resp := doJSON(t, tc.method, srv.URL+tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
		resp.Body.Close()
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "secret1", "fullName": "Ann A",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := decodeBody(t, resp)["token"].(string)

	longBio := make([]byte, 501)
	for i := range longBio {
		longBio[i] = 'b'
	}
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/auth/profile", token, map[string]string{
		"bio": string(longBio),
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	assert.Contains(t, errObj["fields"].(map[string]any), "bio")
}
