package member

import (
	"errors"
	"time"
)

// Member statuses. Inactive acts as a soft-delete flag: inactive members
// are excluded from every list query but the row is never removed.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var (
	ErrNotFound           = errors.New("member not found")
	ErrAccountNotFound    = errors.New("member account not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrAccountExists      = errors.New("member already has an account")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidPhone       = errors.New("phone number must be 11 digits")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
)

// Member is the identity record for a tracked individual. MemberID is the
// public, QR-encodable identifier; MemberIDSeq mirrors it numerically when
// it was allocated from the counter.
type Member struct {
	ID                 string     `json:"id"`
	MemberID           string     `json:"memberId"`
	MemberIDSeq        int64      `json:"memberIdSequential,omitempty"`
	Name               string     `json:"name"`
	Phone              *string    `json:"phone"`
	Email              *string    `json:"email"`
	DateOfBirth        *time.Time `json:"dateOfBirth"`
	Address            *string    `json:"address"`
	FatherOfConfession *string    `json:"fatherOfConfession"`
	AcademicStatus     *string    `json:"academicStatus"`
	AcademicYear       *string    `json:"academicYear"`
	ImageURL           *string    `json:"imageUrl"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// WithAccount joins a member with its account, if any. The admin member
// list shows both.
type WithAccount struct {
	Member
	Username   *string `json:"username"`
	HasAccount bool    `json:"hasAccount"`
}

// Account is the login credential attached to exactly one member.
type Account struct {
	ID           string    `json:"id"`
	MemberRef    string    `json:"memberId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Admin is a staff credential, not linked to any member.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     *string   `json:"fullName"`
	Email        *string   `json:"email"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Update carries optional field changes; nil fields are left untouched.
type Update struct {
	MemberID           *string
	Name               *string
	Phone              *string
	Email              *string
	DateOfBirth        *time.Time
	Address            *string
	FatherOfConfession *string
	AcademicStatus     *string
	AcademicYear       *string
	ImageURL           *string
}

// Profile is a member plus computed attendance stats.
type Profile struct {
	Member
	TotalAttendance      int `json:"totalAttendance"`
	AttendancePercentage int `json:"attendancePercentage"`
}
