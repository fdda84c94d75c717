package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"membertrack/internal/member"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleAdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	admin, err := s.members.AdminLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	name := admin.Username
	if admin.FullName != nil && *admin.FullName != "" {
		name = *admin.FullName
	}
	token, err := s.issueSession(c, admin.ID, "admin", name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "admin": admin, "sessionToken": token})
}

func (s *Server) handleListMembers(c *gin.Context) {
	members, err := s.members.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

type memberPayload struct {
	MemberID           string  `json:"memberId"`
	Name               string  `json:"name"`
	Phone              *string `json:"phone"`
	Email              *string `json:"email"`
	DateOfBirth        string  `json:"dateOfBirth"`
	Address            *string `json:"address"`
	FatherOfConfession *string `json:"fatherOfConfession"`
	AcademicStatus     *string `json:"academicStatus"`
	AcademicYear       *string `json:"academicYear"`
	ImageURL           *string `json:"imageUrl"`
}

// parseDate accepts the date-only form used by the profile forms as well
// as full RFC3339 timestamps.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Server) handleCreateMember(c *gin.Context) {
	var req memberPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Name == "" {
		badRequest(c, "name is required")
		return
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		badRequest(c, "invalid dateOfBirth")
		return
	}

	created, err := s.members.Create(c.Request.Context(), member.NewMember{
		MemberID:           req.MemberID,
		Name:               req.Name,
		Phone:              req.Phone,
		Email:              req.Email,
		DateOfBirth:        dob,
		Address:            req.Address,
		FatherOfConfession: req.FatherOfConfession,
		AcademicStatus:     req.AcademicStatus,
		AcademicYear:       req.AcademicYear,
		ImageURL:           req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func updateFromPayload(req memberPayload) (member.Update, error) {
	upd := member.Update{
		Phone:              req.Phone,
		Email:              req.Email,
		Address:            req.Address,
		FatherOfConfession: req.FatherOfConfession,
		AcademicStatus:     req.AcademicStatus,
		AcademicYear:       req.AcademicYear,
		ImageURL:           req.ImageURL,
	}
	if req.MemberID != "" {
		upd.MemberID = &req.MemberID
	}
	if req.Name != "" {
		upd.Name = &req.Name
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return member.Update{}, err
	}
	upd.DateOfBirth = dob
	return upd, nil
}

func (s *Server) handleUpdateMember(c *gin.Context) {
	var req memberPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	upd, err := updateFromPayload(req)
	if err != nil {
		badRequest(c, "invalid dateOfBirth")
		return
	}

	updated, err := s.members.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteMember(c *gin.Context) {
	if err := s.members.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleSearchMembers(c *gin.Context) {
	results, err := s.members.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": results})
}
