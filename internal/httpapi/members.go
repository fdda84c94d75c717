package httpapi

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"membertrack/internal/member"
)

func (s *Server) handleMemberLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	account, m, err := s.members.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := s.issueSession(c, account.ID, "user", m.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, memberSessionResponse(m, account.Username, token))
}

type registerRequest struct {
	Username           string  `json:"username" binding:"required"`
	Password           string  `json:"password" binding:"required"`
	ConfirmPassword    string  `json:"confirmPassword" binding:"required"`
	Phone              string  `json:"phone" binding:"required"`
	FullName           string  `json:"fullName"`
	DateOfBirth        string  `json:"dateOfBirth"`
	Address            *string `json:"address"`
	FatherOfConfession *string `json:"fatherOfConfession"`
	ImageURL           *string `json:"imageUrl"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		badRequest(c, "invalid dateOfBirth")
		return
	}

	m, account, err := s.members.Register(c.Request.Context(), member.Registration{
		Username:           req.Username,
		Password:           req.Password,
		ConfirmPassword:    req.ConfirmPassword,
		Phone:              req.Phone,
		FullName:           req.FullName,
		DateOfBirth:        dob,
		Address:            req.Address,
		FatherOfConfession: req.FatherOfConfession,
		ImageURL:           req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := s.issueSession(c, account.ID, "user", m.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, memberSessionResponse(m, account.Username, token))
}

// memberSessionResponse is the login/register payload: session identifiers
// plus the profile fields the member dashboard shows.
func memberSessionResponse(m *member.Member, username, token string) gin.H {
	phone := ""
	if m.Phone != nil {
		phone = *m.Phone
	}
	return gin.H{
		"memberId":           m.ID,
		"sequentialId":       m.MemberID,
		"username":           username,
		"name":               m.Name,
		"phone":              phone,
		"dateOfBirth":        m.DateOfBirth,
		"address":            m.Address,
		"fatherOfConfession": m.FatherOfConfession,
		"imageUrl":           m.ImageURL,
		"sessionToken":       token,
	}
}

func (s *Server) handleProfile(c *gin.Context) {
	profile, err := s.members.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleMemberQR(c *gin.Context) {
	m, err := s.members.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	png, err := qrcode.Encode(m.MemberID, qrcode.Medium, 256)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

type updateProfileRequest struct {
	MemberID string `json:"memberId" binding:"required"`
	memberPayload
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	upd, err := updateFromPayload(req.memberPayload)
	if err != nil {
		badRequest(c, "invalid dateOfBirth")
		return
	}
	// The public member id is not editable through the profile form.
	upd.MemberID = nil

	updated, err := s.members.UpdateProfile(c.Request.Context(), req.MemberID, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleChangePassword(c *gin.Context) {
	var req struct {
		MemberID    string `json:"memberId" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	accountID, err := s.members.ChangePassword(c.Request.Context(), req.MemberID, req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	// Old sessions stop working once the password changes.
	_ = s.sessions.RevokeAll(c.Request.Context(), accountID, s.cfg.SessionTTL)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleUploadImage(c *gin.Context) {
	var req struct {
		Base64   string `json:"base64" binding:"required"`
		FileName string `json:"fileName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	// Strip a data URL prefix when present.
	payload := req.Base64
	if idx := strings.LastIndex(payload, ","); idx >= 0 {
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		badRequest(c, "invalid base64 payload")
		return
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("profile-%d.jpg", time.Now().UnixMilli())
	}

	result, err := s.uploader.Put("profiles/"+fileName, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": result.URL, "usedFallback": result.UsedFallback})
}
