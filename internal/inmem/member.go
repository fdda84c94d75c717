// Package inmem provides in-memory repository implementations used by
// tests and local development without a database.
package inmem

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"membertrack/internal/member"
)

// MemberRepo is an in-memory member.Repository.
type MemberRepo struct {
	mu       sync.Mutex
	members  map[string]member.Member
	accounts map[string]member.Account
	admins   map[string]member.Admin
	counter  int64
}

// NewMemberRepo creates an empty repo.
func NewMemberRepo() *MemberRepo {
	return &MemberRepo{
		members:  make(map[string]member.Member),
		accounts: make(map[string]member.Account),
		admins:   make(map[string]member.Admin),
	}
}

func (r *MemberRepo) NextSequentialID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter++
	return r.counter, nil
}

func (r *MemberRepo) CreateMember(ctx context.Context, m member.Member) (member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = member.StatusActive
	}
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	r.members[m.ID] = m
	return m, nil
}

func (r *MemberRepo) MemberByID(ctx context.Context, id string) (*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		cp := m
		return &cp, nil
	}
	return nil, nil
}

func (r *MemberRepo) MemberByPublicID(ctx context.Context, memberID string) (*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.MemberID == memberID {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemberRepo) MemberByPhone(ctx context.Context, phone string) (*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Phone != nil && *m.Phone == phone {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemberRepo) withAccount(m member.Member) member.WithAccount {
	wa := member.WithAccount{Member: m}
	for _, a := range r.accounts {
		if a.MemberRef == m.ID {
			username := a.Username
			wa.Username = &username
			wa.HasAccount = true
			break
		}
	}
	return wa
}

func (r *MemberRepo) ActiveMembersWithAccounts(ctx context.Context) ([]member.WithAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []member.WithAccount
	for _, m := range r.members {
		if m.Status == member.StatusActive {
			res = append(res, r.withAccount(m))
		}
	}
	return res, nil
}

func (r *MemberRepo) SearchMembers(ctx context.Context, query string) ([]member.WithAccount, error) {
	all, err := r.ActiveMembersWithAccounts(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var res []member.WithAccount
	for _, wa := range all {
		phone := ""
		if wa.Phone != nil {
			phone = *wa.Phone
		}
		username := ""
		if wa.Username != nil {
			username = strings.ToLower(*wa.Username)
		}
		if strings.Contains(strings.ToLower(wa.Name), q) ||
			strings.Contains(strings.ToLower(wa.MemberID), q) ||
			strings.Contains(phone, query) ||
			strings.Contains(username, q) {
			res = append(res, wa)
		}
	}
	return res, nil
}

func (r *MemberRepo) UpdateMember(ctx context.Context, id string, upd member.Update) (*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, nil
	}
	if upd.MemberID != nil {
		m.MemberID = *upd.MemberID
	}
	if upd.Name != nil {
		m.Name = *upd.Name
	}
	if upd.Phone != nil {
		m.Phone = upd.Phone
	}
	if upd.Email != nil {
		m.Email = upd.Email
	}
	if upd.DateOfBirth != nil {
		m.DateOfBirth = upd.DateOfBirth
	}
	if upd.Address != nil {
		m.Address = upd.Address
	}
	if upd.FatherOfConfession != nil {
		m.FatherOfConfession = upd.FatherOfConfession
	}
	if upd.AcademicStatus != nil {
		m.AcademicStatus = upd.AcademicStatus
	}
	if upd.AcademicYear != nil {
		m.AcademicYear = upd.AcademicYear
	}
	if upd.ImageURL != nil {
		m.ImageURL = upd.ImageURL
	}
	m.UpdatedAt = time.Now()
	r.members[id] = m
	cp := m
	return &cp, nil
}

func (r *MemberRepo) SoftDeleteMember(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		m.Status = member.StatusInactive
		m.UpdatedAt = time.Now()
		r.members[id] = m
	}
	return nil
}

func (r *MemberRepo) CreateAccount(ctx context.Context, a member.Account) (member.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	r.accounts[a.ID] = a
	return a, nil
}

func (r *MemberRepo) AccountByUsername(ctx context.Context, username string) (*member.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username == username {
			cp := a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemberRepo) AccountByMemberRef(ctx context.Context, memberRef string) (*member.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.MemberRef == memberRef {
			cp := a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemberRepo) UpdateAccountPassword(ctx context.Context, accountID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[accountID]; ok {
		a.PasswordHash = passwordHash
		a.UpdatedAt = time.Now()
		r.accounts[accountID] = a
	}
	return nil
}

func (r *MemberRepo) AdminByUsername(ctx context.Context, username string) (*member.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Username == username {
			cp := a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemberRepo) CreateAdmin(ctx context.Context, a member.Admin) (member.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	r.admins[a.ID] = a
	return a, nil
}

var _ member.Repository = (*MemberRepo)(nil)
