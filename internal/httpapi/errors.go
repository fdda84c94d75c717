package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"membertrack/internal/member"
)

// Error codes surfaced to clients, mirroring the RPC taxonomy.
const (
	codeUnauthorized = "UNAUTHORIZED"
	codeNotFound     = "NOT_FOUND"
	codeBadRequest   = "BAD_REQUEST"
	codeInternal     = "INTERNAL_SERVER_ERROR"
)

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, member.ErrNotFound), errors.Is(err, member.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": codeNotFound})
	case errors.Is(err, member.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": codeUnauthorized})
	case errors.Is(err, member.ErrUsernameTaken),
		errors.Is(err, member.ErrAccountExists),
		errors.Is(err, member.ErrPasswordMismatch),
		errors.Is(err, member.ErrInvalidPhone),
		errors.Is(err, member.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": codeBadRequest})
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": codeInternal})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": codeBadRequest})
}
