package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"membertrack/internal/attendance"
	"membertrack/internal/auth"
	"membertrack/internal/config"
	"membertrack/internal/member"
	"membertrack/internal/storage"
)

// Server holds the handler dependencies.
type Server struct {
	cfg        config.App
	members    *member.Service
	attendance *attendance.Service
	uploader   *storage.Uploader
	users      auth.UserLoader
	sessions   auth.SessionStore
}

// NewServer creates the API server.
func NewServer(cfg config.App, members *member.Service, att *attendance.Service,
	uploader *storage.Uploader, users auth.UserLoader, sessions auth.SessionStore) *Server {
	return &Server{
		cfg:        cfg,
		members:    members,
		attendance: att,
		uploader:   uploader,
		users:      users,
		sessions:   sessions,
	}
}

// Routes registers all API routes on the engine.
func (s *Server) Routes(r *gin.Engine) {
	protected := auth.RequireSession(s.cfg.CookieName, s.cfg.SessionSecret, s.sessions, s.users)

	api := r.Group("/api/v1")

	api.GET("/auth/me", s.handleMe)
	api.POST("/auth/logout", s.handleLogout)

	api.POST("/admin/login", s.handleAdminLogin)
	adminGrp := api.Group("/admin", protected)
	adminGrp.GET("/members", s.handleListMembers)
	adminGrp.POST("/members", s.handleCreateMember)
	adminGrp.PUT("/members/:id", s.handleUpdateMember)
	adminGrp.DELETE("/members/:id", s.handleDeleteMember)
	adminGrp.GET("/members/search", s.handleSearchMembers)

	api.POST("/attendance", s.handleRecordAttendance)
	api.GET("/attendance/today", s.handleTodayAttendance)
	api.GET("/attendance/member/:id", s.handleMemberAttendance)
	api.GET("/attendance", protected, s.handleAllAttendance)

	api.POST("/members/register", s.handleRegister)
	api.POST("/members/login", s.handleMemberLogin)
	api.GET("/members/:id/profile", s.handleProfile)
	api.GET("/members/:id/qr", s.handleMemberQR)
	api.PUT("/members/profile", s.handleUpdateProfile)
	api.POST("/members/password", s.handleChangePassword)
	api.POST("/members/image", s.handleUploadImage)

	r.Static("/uploads", s.cfg.UploadDir)
}

// issueSession signs a token for the credential, tracks it for revocation
// and sets the long-lived session cookie.
func (s *Server) issueSession(c *gin.Context, subject, role, name string) (string, error) {
	token, claims, err := auth.IssueSession(subject, role, name, s.cfg.SessionSecret, s.cfg.SessionTTL)
	if err != nil {
		return "", err
	}
	// Tracking is best effort; the signed token stands on its own.
	_ = s.sessions.Track(c.Request.Context(), subject, claims.ID, s.cfg.SessionTTL)

	secure := s.cfg.Env == "production" || s.cfg.Env == "prod"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.CookieName, token, int(s.cfg.SessionTTL/time.Second), "/", "", secure, true)
	return token, nil
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.CookieName, "", -1, "/", "", false, true)
}
