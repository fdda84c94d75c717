package member

import (
	"context"
	"math"
	"strconv"
	"time"

	"membertrack/internal/auth"
)

// UserUpserter mirrors a credential into the users table on login so the
// session guard can authorize it.
type UserUpserter interface {
	Upsert(ctx context.Context, id, name, role string) error
}

// AttendanceStats supplies the counts behind profile statistics.
type AttendanceStats interface {
	CountForMember(ctx context.Context, memberRef string) (int, error)
	DistinctDates(ctx context.Context) (int, error)
}

// Service implements member registration, login and administration.
type Service struct {
	repo  Repository
	users UserUpserter
	stats AttendanceStats
}

// NewService creates a service backed by a repository.
func NewService(repo Repository, users UserUpserter, stats AttendanceStats) *Service {
	return &Service{repo: repo, users: users, stats: stats}
}

// Resolve finds a member by public member id first, falling back to the
// internal id. Scanned QR payloads and profile links use either form.
func (s *Service) Resolve(ctx context.Context, id string) (*Member, error) {
	m, err := s.repo.MemberByPublicID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		if m, err = s.repo.MemberByID(ctx, id); err != nil {
			return nil, err
		}
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

// NewMember is the admin-facing creation input.
type NewMember struct {
	MemberID           string
	Name               string
	Phone              *string
	Email              *string
	DateOfBirth        *time.Time
	Address            *string
	FatherOfConfession *string
	AcademicStatus     *string
	AcademicYear       *string
	ImageURL           *string
}

// Create allocates the next sequential id and writes the member. When no
// explicit member id is supplied the sequential number becomes the public
// id.
func (s *Service) Create(ctx context.Context, in NewMember) (Member, error) {
	seq, err := s.repo.NextSequentialID(ctx)
	if err != nil {
		return Member{}, err
	}
	publicID := in.MemberID
	if publicID == "" {
		publicID = strconv.FormatInt(seq, 10)
	}
	return s.repo.CreateMember(ctx, Member{
		MemberID:           publicID,
		MemberIDSeq:        seq,
		Name:               in.Name,
		Phone:              in.Phone,
		Email:              in.Email,
		DateOfBirth:        in.DateOfBirth,
		Address:            in.Address,
		FatherOfConfession: in.FatherOfConfession,
		AcademicStatus:     in.AcademicStatus,
		AcademicYear:       in.AcademicYear,
		ImageURL:           in.ImageURL,
		Status:             StatusActive,
	})
}

// List returns all active members with their account usernames.
func (s *Service) List(ctx context.Context) ([]WithAccount, error) {
	return s.repo.ActiveMembersWithAccounts(ctx)
}

// Search filters active members by substring over name, member id, phone
// and username.
func (s *Service) Search(ctx context.Context, query string) ([]WithAccount, error) {
	return s.repo.SearchMembers(ctx, query)
}

// Update applies a partial update by internal id.
func (s *Service) Update(ctx context.Context, id string, upd Update) (*Member, error) {
	m, err := s.repo.UpdateMember(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

// Delete soft-deletes: the member drops out of list queries but the row
// stays, preserving attendance history.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.SoftDeleteMember(ctx, id)
}

// AdminLogin verifies an admin credential and mirrors it into users. Bad
// username and bad password both come back as ErrInvalidCredentials.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (*Admin, error) {
	admin, err := s.repo.AdminByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if admin == nil || !admin.IsActive || !auth.CheckPassword(password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	name := admin.Username
	if admin.FullName != nil && *admin.FullName != "" {
		name = *admin.FullName
	}
	if err := s.users.Upsert(ctx, admin.ID, name, "admin"); err != nil {
		return nil, err
	}
	return admin, nil
}

// Login verifies a member account credential and returns the account with
// its linked member.
func (s *Service) Login(ctx context.Context, username, password string) (*Account, *Member, error) {
	account, err := s.repo.AccountByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if account == nil || !auth.CheckPassword(password, account.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	m, err := s.repo.MemberByID(ctx, account.MemberRef)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, ErrNotFound
	}

	if err := s.users.Upsert(ctx, account.ID, m.Name, "user"); err != nil {
		return nil, nil, err
	}
	return account, m, nil
}

// Registration is the self-service sign-up input.
type Registration struct {
	Username           string
	Password           string
	ConfirmPassword    string
	Phone              string
	FullName           string
	DateOfBirth        *time.Time
	Address            *string
	FatherOfConfession *string
	ImageURL           *string
}

func validPhone(phone string) bool {
	if len(phone) != 11 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Register creates (or reuses, matched by phone) the underlying member,
// then attaches a new account to it. At most one account per member.
func (s *Service) Register(ctx context.Context, in Registration) (*Member, *Account, error) {
	if len(in.Password) < 6 {
		return nil, nil, ErrPasswordTooShort
	}
	if in.Password != in.ConfirmPassword {
		return nil, nil, ErrPasswordMismatch
	}
	if !validPhone(in.Phone) {
		return nil, nil, ErrInvalidPhone
	}

	existing, err := s.repo.AccountByUsername(ctx, in.Username)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrUsernameTaken
	}

	name := in.FullName
	if name == "" {
		name = in.Username
	}

	m, err := s.repo.MemberByPhone(ctx, in.Phone)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		created, err := s.Create(ctx, NewMember{
			Name:               name,
			Phone:              &in.Phone,
			DateOfBirth:        in.DateOfBirth,
			Address:            in.Address,
			FatherOfConfession: in.FatherOfConfession,
			ImageURL:           in.ImageURL,
		})
		if err != nil {
			return nil, nil, err
		}
		m = &created
	} else {
		upd := Update{
			DateOfBirth:        in.DateOfBirth,
			Address:            in.Address,
			FatherOfConfession: in.FatherOfConfession,
			ImageURL:           in.ImageURL,
		}
		if in.FullName != "" {
			upd.Name = &in.FullName
		}
		if m, err = s.Update(ctx, m.ID, upd); err != nil {
			return nil, nil, err
		}
	}

	if account, err := s.repo.AccountByMemberRef(ctx, m.ID); err != nil {
		return nil, nil, err
	} else if account != nil {
		return nil, nil, ErrAccountExists
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}
	account, err := s.repo.CreateAccount(ctx, Account{
		MemberRef:    m.ID,
		Username:     in.Username,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.Upsert(ctx, account.ID, m.Name, "user"); err != nil {
		return nil, nil, err
	}
	return m, &account, nil
}

// Profile returns the member with attendance stats attached. The
// percentage is the member's record count over the number of distinct
// attendance dates across all members, rounded.
func (s *Service) Profile(ctx context.Context, id string) (*Profile, error) {
	m, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	total, err := s.stats.CountForMember(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	meetings, err := s.stats.DistinctDates(ctx)
	if err != nil {
		return nil, err
	}
	if meetings < 1 {
		meetings = 1
	}
	pct := int(math.Round(float64(total) / float64(meetings) * 100))

	return &Profile{Member: *m, TotalAttendance: total, AttendancePercentage: pct}, nil
}

// UpdateProfile applies a partial update addressed by public or internal
// id.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd Update) (*Member, error) {
	targetID := id
	if m, err := s.repo.MemberByPublicID(ctx, id); err != nil {
		return nil, err
	} else if m != nil {
		targetID = m.ID
	}
	return s.Update(ctx, targetID, upd)
}

// ChangePassword rehashes the linked account's password and returns the
// account id so the caller can revoke its sessions.
func (s *Service) ChangePassword(ctx context.Context, id, newPassword string) (string, error) {
	if len(newPassword) < 6 {
		return "", ErrPasswordTooShort
	}

	targetID := id
	if m, err := s.repo.MemberByPublicID(ctx, id); err != nil {
		return "", err
	} else if m != nil {
		targetID = m.ID
	}

	account, err := s.repo.AccountByMemberRef(ctx, targetID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", ErrAccountNotFound
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateAccountPassword(ctx, account.ID, hash); err != nil {
		return "", err
	}
	return account.ID, nil
}
