package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"membertrack/internal/auth"
)

// handleMe returns the users row for the current session, or null when the
// request carries no usable session. It never errors; the client uses it
// to decide whether a login screen is needed.
func (s *Server) handleMe(c *gin.Context) {
	token := auth.TokenFromRequest(c, s.cfg.CookieName)
	if token == "" {
		c.JSON(http.StatusOK, nil)
		return
	}
	claims, err := auth.ParseSession(token, s.cfg.SessionSecret)
	if err != nil || s.sessions.IsRevoked(c.Request.Context(), claims.ID) {
		c.JSON(http.StatusOK, nil)
		return
	}
	user, err := s.users.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, user)
}

// handleLogout clears the cookie and revokes the presented session.
func (s *Server) handleLogout(c *gin.Context) {
	token := auth.TokenFromRequest(c, s.cfg.CookieName)
	if token != "" {
		if claims, err := auth.ParseSession(token, s.cfg.SessionSecret); err == nil {
			_ = s.sessions.Revoke(c.Request.Context(), claims.ID, s.cfg.SessionTTL)
		}
	}
	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
