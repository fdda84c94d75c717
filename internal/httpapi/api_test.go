package httpapi_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membertrack/internal/attendance"
	"membertrack/internal/auth"
	"membertrack/internal/config"
	"membertrack/internal/httpapi"
	"membertrack/internal/inmem"
	"membertrack/internal/member"
	"membertrack/internal/storage"
)

type testEnv struct {
	router  *gin.Engine
	members *inmem.MemberRepo
	svc     *member.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	memberRepo := inmem.NewMemberRepo()
	attRepo := inmem.NewAttendanceRepo()
	users := inmem.NewUserStore()
	memberSvc := member.NewService(memberRepo, users, attRepo)
	attSvc := attendance.NewService(attRepo, memberSvc)
	uploader := storage.NewUploader(nil, t.TempDir())
	sessions := inmem.NewSessionStore()

	cfg := config.App{
		Env:           "test",
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		CookieName:    "membertrack_session",
		UploadDir:     t.TempDir(),
	}

	srv := httpapi.NewServer(cfg, memberSvc, attSvc, uploader, users, sessions)
	r := gin.New()
	srv.Routes(r)

	return &testEnv{router: r, members: memberRepo, svc: memberSvc}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (e *testEnv) registerMember(t *testing.T) map[string]any {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/members/register", gin.H{
		"username":        "mina1",
		"password":        "secret123",
		"confirmPassword": "secret123",
		"phone":           "01012345678",
		"fullName":        "Mina",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)
}

func TestRegisterScanAndProfileFlow(t *testing.T) {
	env := newTestEnv(t)

	reg := env.registerMember(t)
	memberID, _ := reg["sequentialId"].(string)
	require.NotEmpty(t, memberID)
	require.NotEmpty(t, reg["sessionToken"])

	rec := env.do(t, http.MethodPost, "/api/v1/attendance", gin.H{"memberId": memberID}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	scanned := decode(t, rec)
	assert.Equal(t, "Mina", scanned["memberName"])
	assert.Equal(t, "present", scanned["status"])

	rec = env.do(t, http.MethodGet, "/api/v1/attendance/today", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	today := decode(t, rec)
	records, _ := today["records"].([]any)
	require.Len(t, records, 1)
	first, _ := records[0].(map[string]any)
	assert.Equal(t, "Mina", first["memberName"])

	rec = env.do(t, http.MethodGet, "/api/v1/members/"+memberID+"/profile", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode(t, rec)
	assert.Equal(t, float64(1), profile["totalAttendance"])
	assert.Equal(t, float64(100), profile["attendancePercentage"])
}

func TestRecordAttendanceUnknownMember(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/attendance", gin.H{"memberId": "ghost"}, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])

	today := env.do(t, http.MethodGet, "/api/v1/attendance/today", nil, "")
	assert.Nil(t, decode(t, today)["records"])
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	payload := gin.H{
		"username":        "mina1",
		"password":        "secret123",
		"confirmPassword": "secret123",
		"phone":           "01012345678",
	}
	rec := env.do(t, http.MethodPost, "/api/v1/members/register", payload, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	payload["phone"] = "01087654321"
	rec = env.do(t, http.MethodPost, "/api/v1/members/register", payload, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode(t, rec)["code"])
}

func TestAdminLoginAndProtectedAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	_, err = env.members.CreateAdmin(ctx, member.Admin{Username: "admin", PasswordHash: hash, IsActive: true})
	require.NoError(t, err)

	// Wrong password and unknown username look identical to the caller.
	rec := env.do(t, http.MethodPost, "/api/v1/admin/login", gin.H{"username": "admin", "password": "wrong"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec)["code"])
	rec = env.do(t, http.MethodPost, "/api/v1/admin/login", gin.H{"username": "ghost", "password": "admin123"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/admin/login", gin.H{"username": "admin", "password": "admin123"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode(t, rec)
	token, _ := login["sessionToken"].(string)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))

	// Protected listing works with the bearer token fallback.
	rec = env.do(t, http.MethodGet, "/api/v1/admin/members", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/members", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec)["code"])
}

func TestAdminSoftDeleteAndSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	_, err = env.members.CreateAdmin(ctx, member.Admin{Username: "admin", PasswordHash: hash, IsActive: true})
	require.NoError(t, err)
	login := decode(t, env.do(t, http.MethodPost, "/api/v1/admin/login", gin.H{"username": "admin", "password": "admin123"}, ""))
	token, _ := login["sessionToken"].(string)

	rec := env.do(t, http.MethodPost, "/api/v1/admin/members", gin.H{"name": "Mina", "phone": "01012345678"}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	id, _ := created["id"].(string)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/members/search?query=mina", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	results, _ := decode(t, rec)["members"].([]any)
	require.Len(t, results, 1)

	rec = env.do(t, http.MethodDelete, "/api/v1/admin/members/"+id, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/members", nil, token)
	listed, _ := decode(t, rec)["members"].([]any)
	assert.Empty(t, listed)
}

func TestUploadImageFallsBackToDisk(t *testing.T) {
	env := newTestEnv(t)

	payload := base64.StdEncoding.EncodeToString([]byte("fake-image"))
	rec := env.do(t, http.MethodPost, "/api/v1/members/image", gin.H{
		"base64":   "data:image/jpeg;base64," + payload,
		"fileName": "me.jpg",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "/uploads/me.jpg", out["url"])
	assert.Equal(t, true, out["usedFallback"])
}

func TestMemberQRCode(t *testing.T) {
	env := newTestEnv(t)

	m, err := env.svc.Create(context.Background(), member.NewMember{Name: "Mina"})
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/v1/members/"+m.MemberID+"/qr", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = env.do(t, http.MethodGet, "/api/v1/members/ghost/qr", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)

	reg := env.registerMember(t)
	token, _ := reg["sessionToken"].(string)
	require.NotEmpty(t, token)

	rec := env.do(t, http.MethodGet, "/api/v1/attendance", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	// The token still carries a valid signature but its jti is revoked.
	rec = env.do(t, http.MethodGet, "/api/v1/attendance", nil, token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec)["code"])
}

func TestPasswordChangeRevokesExistingSessions(t *testing.T) {
	env := newTestEnv(t)

	reg := env.registerMember(t)
	token, _ := reg["sessionToken"].(string)
	memberID, _ := reg["sequentialId"].(string)

	rec := env.do(t, http.MethodGet, "/api/v1/attendance", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/members/password", gin.H{
		"memberId":    memberID,
		"newPassword": "brandnew1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/attendance", nil, token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec)["code"])

	// The new password signs in and yields a working session.
	rec = env.do(t, http.MethodPost, "/api/v1/members/login", gin.H{
		"username": "mina1",
		"password": "brandnew1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fresh, _ := decode(t, rec)["sessionToken"].(string)

	rec = env.do(t, http.MethodGet, "/api/v1/attendance", nil, fresh)
	assert.Equal(t, http.StatusOK, rec.Code)
}
