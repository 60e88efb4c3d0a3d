package api

import (
	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/repository"
	"alcyxob/dating-app/internal/service"
	"alcyxob/dating-app/internal/upload"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (m *memUsers) Create(ctx context.Context, u *domain.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return "", repository.ErrDuplicate
	}
	u.ID = "user-" + u.Email
	m.users[u.Email] = *u
	return u.ID, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

// stubPhotos records calls and returns canned results.
type stubPhotos struct {
	result   *domain.BatchResult
	err      error
	gotFiles []domain.UploadFile
	gotOwner string
	gotIndex int
}

func (s *stubPhotos) GetProfile(ctx context.Context, ownerID string) (*domain.Profile, error) {
	return &domain.Profile{OwnerID: ownerID, Photos: domain.PhotoList{"p0", "p1"}}, nil
}

func (s *stubPhotos) UpdateProfile(ctx context.Context, ownerID, displayName, bio string) (*domain.Profile, error) {
	return &domain.Profile{OwnerID: ownerID, DisplayName: displayName, Bio: bio}, nil
}

func (s *stubPhotos) UploadPhotos(ctx context.Context, ownerID string, files []domain.UploadFile, progress upload.ProgressFunc) (*domain.BatchResult, error) {
	s.gotOwner, s.gotFiles = ownerID, files
	return s.result, s.err
}

func (s *stubPhotos) RemovePhoto(ctx context.Context, ownerID string, index int) (*domain.Profile, error) {
	s.gotOwner, s.gotIndex = ownerID, index
	return &domain.Profile{OwnerID: ownerID, Photos: domain.PhotoList{"p1"}}, s.err
}

func (s *stubPhotos) PromotePhoto(ctx context.Context, ownerID string, index int) (*domain.Profile, error) {
	s.gotOwner, s.gotIndex = ownerID, index
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Profile{OwnerID: ownerID, Photos: domain.PhotoList{"p1", "p0"}}, nil
}

type stubHealth struct {
	snapshot    domain.StorageHealth
	checks      int
	ctxErr      error
	hasDeadline bool
}

func (h *stubHealth) Snapshot() domain.StorageHealth { return h.snapshot }

func (h *stubHealth) Check(ctx context.Context, ownerID string) (domain.StorageHealth, bool) {
	h.checks++
	h.ctxErr = ctx.Err()
	_, h.hasDeadline = ctx.Deadline()
	h.snapshot = domain.StorageHealth{BucketExists: true, CanRead: true, CanWrite: true, LastCheckedAt: time.Now()}
	return h.snapshot, true
}

type testServer struct {
	router *gin.Engine
	photos *stubPhotos
	health *stubHealth
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := service.NewAuthService(&memUsers{users: map[string]domain.User{}}, testSecret, time.Hour)
	_, err := auth.Register(context.Background(), "Alex", "alex@example.com", "password123")
	require.NoError(t, err)
	token, _, err := auth.Login(context.Background(), "alex@example.com", "password123")
	require.NoError(t, err)

	s := &testServer{router: gin.New(), photos: &stubPhotos{}, health: &stubHealth{}, token: token}
	SetupRoutes(s.router, Dependencies{
		JWTSecret:    testSecret,
		MaxFileSize:  1024,
		AuthService:  auth,
		PhotoService: s.photos,
		Health:       s.health,
		Gatherer:     prometheus.NewRegistry(),
		Logger:       zerolog.Nop(),
	})
	return s
}

func (s *testServer) do(req *http.Request, auth bool) *httptest.ResponseRecorder {
	if auth {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, contentType := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files[]"; filename="`+name+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("data-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadRequest(t *testing.T, files map[string]string) *http.Request {
	body, contentType := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/photos", body)
	req.Header.Set("Content-Type", contentType)
	return req
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil), false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = s.do(req, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil), true)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user-alex@example.com", resp.OwnerID)
	assert.Equal(t, "p0", resp.PrimaryPhoto)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"alex@example.com","password":"wrong-password"}`))
	req.Header.Set("Content-Type", "application/json")

	w := s.do(req, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterDuplicate(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"name":"A","email":"alex@example.com","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")

	w := s.do(req, false)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidatesEmailSyntax(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"name":"Sam","email":"not-an-email","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")

	w := s.do(req, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Validation error")
}

func TestUploadStatusCodes(t *testing.T) {
	ok := domain.UploadOutcome{State: domain.StateSucceeded, URL: "u"}
	bad := domain.UploadOutcome{State: domain.StateFailed, Reason: domain.ReasonCorruptImage}

	cases := []struct {
		name   string
		result *domain.BatchResult
		err    error
		want   int
	}{
		{"all succeeded", &domain.BatchResult{Outcomes: []domain.UploadOutcome{ok}, Succeeded: 1}, nil, http.StatusOK},
		{"mixed", &domain.BatchResult{Outcomes: []domain.UploadOutcome{ok, bad}, Succeeded: 1, Failed: 1}, nil, http.StatusMultiStatus},
		{"all failed", &domain.BatchResult{Outcomes: []domain.UploadOutcome{bad}, Failed: 1}, nil, http.StatusUnprocessableEntity},
		{"save failed", &domain.BatchResult{Outcomes: []domain.UploadOutcome{ok}, Succeeded: 1, ProfileSaveFailed: true}, service.ErrProfileSaveFailed, http.StatusInternalServerError},
		{"too many", nil, service.ErrTooManyPhotos, http.StatusBadRequest},
		{"busy", nil, service.ErrUploadInProgress, http.StatusConflict},
		{"rate limited", nil, service.ErrRateLimited, http.StatusTooManyRequests},
		{"storage down", nil, service.ErrStorageUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			s.photos.result, s.photos.err = tc.result, tc.err

			w := s.do(uploadRequest(t, map[string]string{"a.png": "image/png"}), true)
			assert.Equal(t, tc.want, w.Code)
			if tc.result != nil {
				var got domain.BatchResult
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tc.result.ProfileSaveFailed, got.ProfileSaveFailed)
				assert.Len(t, got.Outcomes, len(tc.result.Outcomes))
			}
		})
	}
}

func TestUploadPassesFilesThrough(t *testing.T) {
	s := newTestServer(t)
	s.photos.result = &domain.BatchResult{Succeeded: 1}

	w := s.do(uploadRequest(t, map[string]string{"me.jpg": "image/jpeg"}), true)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, s.photos.gotFiles, 1)
	f := s.photos.gotFiles[0]
	assert.Equal(t, "me.jpg", f.Name)
	assert.Equal(t, "image/jpeg", f.ContentType)
	assert.Equal(t, []byte("data-me.jpg"), f.Data)
	assert.Equal(t, "user-alex@example.com", s.photos.gotOwner)
}

func TestPromoteAndRemove(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodPost, "/api/v1/profile/photos/1/primary", nil), true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.photos.gotIndex)

	w = s.do(httptest.NewRequest(http.MethodDelete, "/api/v1/profile/photos/0", nil), true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, s.photos.gotIndex)

	w = s.do(httptest.NewRequest(http.MethodDelete, "/api/v1/profile/photos/first", nil), true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.photos.err = service.ErrPhotoIndexOutOfRange
	w = s.do(httptest.NewRequest(http.MethodPost, "/api/v1/profile/photos/9/primary", nil), true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStorageHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/storage/health", nil), true)
	require.Equal(t, http.StatusOK, w.Code)
	var resp StorageHealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Checked)
	assert.Zero(t, s.health.checks)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/storage/health?refresh=true", nil), true)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Refreshed)
	assert.True(t, resp.CanWrite)
	assert.Equal(t, 1, s.health.checks)
}

func TestStorageHealthRefreshOutlivesClient(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/storage/health?refresh=true", nil).WithContext(ctx)
	s.do(req, true)

	require.Equal(t, 1, s.health.checks)
	assert.NoError(t, s.health.ctxErr)
	assert.True(t, s.health.hasDeadline)
}

func TestPingAndMetrics(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/ping", nil), false).Code)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), false).Code)
}
