package member_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membertrack/internal/attendance"
	"membertrack/internal/auth"
	"membertrack/internal/inmem"
	"membertrack/internal/member"
)

func newService(t *testing.T) (*member.Service, *inmem.MemberRepo, *inmem.AttendanceRepo, *inmem.UserStore) {
	t.Helper()
	repo := inmem.NewMemberRepo()
	att := inmem.NewAttendanceRepo()
	users := inmem.NewUserStore()
	return member.NewService(repo, users, att), repo, att, users
}

func registration(username, phone string) member.Registration {
	return member.Registration{
		Username:        username,
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Phone:           phone,
		FullName:        "Mina",
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, member.NewMember{Name: "First"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, member.NewMember{Name: "Second"})
	require.NoError(t, err)

	assert.Equal(t, "1", first.MemberID)
	assert.Equal(t, int64(1), first.MemberIDSeq)
	assert.Equal(t, "2", second.MemberID)
	assert.Equal(t, int64(2), second.MemberIDSeq)
}

func TestCreateKeepsExplicitMemberID(t *testing.T) {
	svc, _, _, _ := newService(t)

	m, err := svc.Create(context.Background(), member.NewMember{MemberID: "YG-42", Name: "Custom"})
	require.NoError(t, err)

	assert.Equal(t, "YG-42", m.MemberID)
	assert.Equal(t, int64(1), m.MemberIDSeq)
}

func TestConcurrentCreatesNeverCollide(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	const n = 50
	ids := make(chan string, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := svc.Create(ctx, member.NewMember{Name: "Member " + strconv.Itoa(i)})
			if err != nil {
				errs <- err
				return
			}
			ids <- m.MemberID
		}(i)
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate member id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestSoftDeleteHidesMemberButKeepsRecord(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, member.NewMember{Name: "Gone Soon"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, m.ID))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// The row persists with inactive status; direct resolution still works.
	kept, err := svc.Resolve(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, member.StatusInactive, kept.Status)
}

func TestRegisterCreatesMemberAndAccount(t *testing.T) {
	svc, _, _, users := newService(t)
	ctx := context.Background()

	m, account, err := svc.Register(ctx, registration("mina1", "01012345678"))
	require.NoError(t, err)

	assert.Equal(t, "Mina", m.Name)
	assert.Equal(t, "1", m.MemberID)
	assert.Equal(t, "mina1", account.Username)
	assert.NotEqual(t, "secret123", account.PasswordHash)

	u, err := users.Get(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "user", u.Role)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc, repo, _, _ := newService(t)
	ctx := context.Background()

	_, first, err := svc.Register(ctx, registration("mina1", "01012345678"))
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, registration("mina1", "01087654321"))
	assert.ErrorIs(t, err, member.ErrUsernameTaken)

	// The first account is untouched.
	kept, err := repo.AccountByUsername(ctx, "mina1")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, first.ID, kept.ID)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	short := registration("u1", "01012345678")
	short.Password, short.ConfirmPassword = "abc", "abc"
	_, _, err := svc.Register(ctx, short)
	assert.ErrorIs(t, err, member.ErrPasswordTooShort)

	mismatch := registration("u2", "01012345678")
	mismatch.ConfirmPassword = "different1"
	_, _, err = svc.Register(ctx, mismatch)
	assert.ErrorIs(t, err, member.ErrPasswordMismatch)

	badPhone := registration("u3", "12345")
	_, _, err = svc.Register(ctx, badPhone)
	assert.ErrorIs(t, err, member.ErrInvalidPhone)
}

func TestRegisterReusesMemberByPhone(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	existing, err := svc.Create(ctx, member.NewMember{Name: "Walk In", Phone: strPtr("01012345678")})
	require.NoError(t, err)

	m, _, err := svc.Register(ctx, registration("mina1", "01012345678"))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, m.ID)
	assert.Equal(t, "Mina", m.Name)

	// A second account for the same member is refused.
	_, _, err = svc.Register(ctx, registration("mina2", "01012345678"))
	assert.ErrorIs(t, err, member.ErrAccountExists)
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registration("mina1", "01012345678"))
	require.NoError(t, err)

	account, m, err := svc.Login(ctx, "mina1", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "mina1", account.Username)
	assert.Equal(t, "Mina", m.Name)

	_, _, err = svc.Login(ctx, "mina1", "wrongpass")
	assert.ErrorIs(t, err, member.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, member.ErrInvalidCredentials)
}

func TestAdminLogin(t *testing.T) {
	svc, repo, _, users := newService(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	created, err := repo.CreateAdmin(ctx, member.Admin{Username: "admin", PasswordHash: hash, IsActive: true})
	require.NoError(t, err)

	admin, err := svc.AdminLogin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, admin.ID)

	u, err := users.Get(ctx, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "admin", u.Role)

	_, err = svc.AdminLogin(ctx, "admin", "nope")
	assert.ErrorIs(t, err, member.ErrInvalidCredentials)
	_, err = svc.AdminLogin(ctx, "ghost", "admin123")
	assert.ErrorIs(t, err, member.ErrInvalidCredentials)
}

func TestProfilePercentage(t *testing.T) {
	svc, _, att, _ := newService(t)
	ctx := context.Background()

	mina, err := svc.Create(ctx, member.NewMember{Name: "Mina"})
	require.NoError(t, err)
	other, err := svc.Create(ctx, member.NewMember{Name: "Other"})
	require.NoError(t, err)

	// Five distinct meeting dates system-wide; Mina attended three.
	base := time.Date(2024, 3, 1, 18, 0, 0, 0, time.Local)
	for day := 0; day < 5; day++ {
		date := base.AddDate(0, 0, day)
		ref := other.ID
		if day < 3 {
			ref = mina.ID
		}
		_, err := att.Insert(ctx, attendanceRecord(ref, date))
		require.NoError(t, err)
	}

	profile, err := svc.Profile(ctx, mina.MemberID)
	require.NoError(t, err)
	assert.Equal(t, 3, profile.TotalAttendance)
	assert.Equal(t, 60, profile.AttendancePercentage)
}

func TestProfileUnknownMember(t *testing.T) {
	svc, _, _, _ := newService(t)

	_, err := svc.Profile(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, member.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, repo, _, _ := newService(t)
	ctx := context.Background()

	m, account, err := svc.Register(ctx, registration("mina1", "01012345678"))
	require.NoError(t, err)

	accountID, err := svc.ChangePassword(ctx, m.MemberID, "newsecret1")
	require.NoError(t, err)
	assert.Equal(t, account.ID, accountID)

	updated, err := repo.AccountByUsername(ctx, "mina1")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("newsecret1", updated.PasswordHash))
	assert.False(t, auth.CheckPassword("secret123", updated.PasswordHash))

	_, err = svc.ChangePassword(ctx, "no-such-member", "newsecret1")
	assert.ErrorIs(t, err, member.ErrAccountNotFound)

	_, err = svc.ChangePassword(ctx, m.MemberID, "abc")
	assert.ErrorIs(t, err, member.ErrPasswordTooShort)
}

func attendanceRecord(memberRef string, date time.Time) attendance.Record {
	return attendance.Record{
		MemberRef:      memberRef,
		MemberIDStr:    memberRef,
		MemberName:     "snapshot",
		AttendanceDate: date,
	}
}

func strPtr(s string) *string { return &s }
