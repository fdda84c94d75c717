package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository is the persistence surface the service needs. Lookups return
// nil (not an error) on a miss; the caller decides whether that is fatal.
type Repository interface {
	NextSequentialID(ctx context.Context) (int64, error)
	CreateMember(ctx context.Context, m Member) (Member, error)
	MemberByID(ctx context.Context, id string) (*Member, error)
	MemberByPublicID(ctx context.Context, memberID string) (*Member, error)
	MemberByPhone(ctx context.Context, phone string) (*Member, error)
	ActiveMembersWithAccounts(ctx context.Context) ([]WithAccount, error)
	SearchMembers(ctx context.Context, query string) ([]WithAccount, error)
	UpdateMember(ctx context.Context, id string, upd Update) (*Member, error)
	SoftDeleteMember(ctx context.Context, id string) error

	CreateAccount(ctx context.Context, a Account) (Account, error)
	AccountByUsername(ctx context.Context, username string) (*Account, error)
	AccountByMemberRef(ctx context.Context, memberRef string) (*Account, error)
	UpdateAccountPassword(ctx context.Context, accountID, passwordHash string) error

	AdminByUsername(ctx context.Context, username string) (*Admin, error)
	CreateAdmin(ctx context.Context, a Admin) (Admin, error)
}

// PGRepository persists members, accounts and admins in Postgres.
type PGRepository struct {
	db *sql.DB
}

// NewPGRepository creates a repo.
func NewPGRepository(db *sql.DB) *PGRepository {
	return &PGRepository{db: db}
}

const memberColumns = `id, member_id, COALESCE(member_id_seq, 0), name, phone, email,
	date_of_birth, address, father_of_confession, academic_status, academic_year,
	image_url, status, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.MemberID, &m.MemberIDSeq, &m.Name, &m.Phone, &m.Email,
		&m.DateOfBirth, &m.Address, &m.FatherOfConfession, &m.AcademicStatus, &m.AcademicYear,
		&m.ImageURL, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// NextSequentialID increments the members counter inside a transaction and
// returns the new value. The row-level lock taken by UPDATE serializes
// concurrent allocations, so no two calls see the same id.
func (r *PGRepository) NextSequentialID(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var next int64
	err = tx.QueryRowContext(ctx, `
		UPDATE counters SET last_sequential_id = last_sequential_id + 1
		WHERE name = 'members'
		RETURNING last_sequential_id
	`).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		next = 1
		_, err = tx.ExecContext(ctx, `
			INSERT INTO counters (name, last_sequential_id) VALUES ('members', 1)
		`)
	}
	if err != nil {
		return 0, err
	}
	return next, tx.Commit()
}

// CreateMember writes a new member row.
func (r *PGRepository) CreateMember(ctx context.Context, m Member) (Member, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = StatusActive
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO members (id, member_id, member_id_seq, name, phone, email,
			date_of_birth, address, father_of_confession, academic_status, academic_year,
			image_url, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at
	`, m.ID, m.MemberID, m.MemberIDSeq, m.Name, m.Phone, m.Email,
		m.DateOfBirth, m.Address, m.FatherOfConfession, m.AcademicStatus, m.AcademicYear,
		m.ImageURL, m.Status)
	if err := row.Scan(&m.CreatedAt, &m.UpdatedAt); err != nil {
		return Member{}, err
	}
	return m, nil
}

// MemberByID looks a member up by internal id.
func (r *PGRepository) MemberByID(ctx context.Context, id string) (*Member, error) {
	return scanMember(r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
}

// MemberByPublicID looks a member up by the public member id.
func (r *PGRepository) MemberByPublicID(ctx context.Context, memberID string) (*Member, error) {
	return scanMember(r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE member_id = $1`, memberID))
}

// MemberByPhone looks a member up by phone number.
func (r *PGRepository) MemberByPhone(ctx context.Context, phone string) (*Member, error) {
	return scanMember(r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE phone = $1 LIMIT 1`, phone))
}

const memberAccountColumns = `m.id, m.member_id, COALESCE(m.member_id_seq, 0), m.name, m.phone, m.email,
	m.date_of_birth, m.address, m.father_of_confession, m.academic_status, m.academic_year,
	m.image_url, m.status, m.created_at, m.updated_at, a.username`

func scanWithAccounts(rows *sql.Rows) ([]WithAccount, error) {
	var res []WithAccount
	for rows.Next() {
		var wa WithAccount
		err := rows.Scan(&wa.ID, &wa.MemberID, &wa.MemberIDSeq, &wa.Name, &wa.Phone, &wa.Email,
			&wa.DateOfBirth, &wa.Address, &wa.FatherOfConfession, &wa.AcademicStatus, &wa.AcademicYear,
			&wa.ImageURL, &wa.Status, &wa.CreatedAt, &wa.UpdatedAt, &wa.Username)
		if err != nil {
			return nil, err
		}
		wa.HasAccount = wa.Username != nil
		res = append(res, wa)
	}
	return res, rows.Err()
}

// ActiveMembersWithAccounts lists active members joined with their account
// usernames. Inactive (soft-deleted) members never appear.
func (r *PGRepository) ActiveMembersWithAccounts(ctx context.Context) ([]WithAccount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+memberAccountColumns+`
		FROM members m
		LEFT JOIN member_accounts a ON a.member_id = m.id
		WHERE m.status = 'active'
		ORDER BY m.member_id_seq NULLS LAST, m.member_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWithAccounts(rows)
}

// SearchMembers does a substring match over name, member id, phone and
// account username, active members only.
func (r *PGRepository) SearchMembers(ctx context.Context, query string) ([]WithAccount, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+memberAccountColumns+`
		FROM members m
		LEFT JOIN member_accounts a ON a.member_id = m.id
		WHERE m.status = 'active' AND (
			m.name ILIKE $1 OR
			m.member_id ILIKE $1 OR
			COALESCE(m.phone, '') LIKE $1 OR
			COALESCE(a.username, '') ILIKE $1
		)
		ORDER BY m.member_id_seq NULLS LAST, m.member_id
	`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWithAccounts(rows)
}

// UpdateMember applies the non-nil fields of upd and returns the updated
// row, or nil when the member does not exist.
func (r *PGRepository) UpdateMember(ctx context.Context, id string, upd Update) (*Member, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.MemberID != nil {
		add("member_id", *upd.MemberID)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.DateOfBirth != nil {
		add("date_of_birth", *upd.DateOfBirth)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if upd.FatherOfConfession != nil {
		add("father_of_confession", *upd.FatherOfConfession)
	}
	if upd.AcademicStatus != nil {
		add("academic_status", *upd.AcademicStatus)
	}
	if upd.AcademicYear != nil {
		add("academic_year", *upd.AcademicYear)
	}
	if upd.ImageURL != nil {
		add("image_url", *upd.ImageURL)
	}

	query := "UPDATE members SET " + joinClauses(sets, ", ") + " WHERE id = $1"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	return r.MemberByID(ctx, id)
}

// SoftDeleteMember flips status to inactive; the row persists.
func (r *PGRepository) SoftDeleteMember(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE members SET status = 'inactive', updated_at = NOW() WHERE id = $1
	`, id)
	return err
}

// CreateAccount writes a new member account.
func (r *PGRepository) CreateAccount(ctx context.Context, a Account) (Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO member_accounts (id, member_id, username, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, a.ID, a.MemberRef, a.Username, a.PasswordHash)
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return Account{}, err
	}
	return a, nil
}

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.MemberRef, &a.Username, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// AccountByUsername looks an account up by username.
func (r *PGRepository) AccountByUsername(ctx context.Context, username string) (*Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx, `
		SELECT id, member_id, username, password_hash, created_at, updated_at
		FROM member_accounts WHERE username = $1
	`, username))
}

// AccountByMemberRef looks an account up by its member's internal id.
func (r *PGRepository) AccountByMemberRef(ctx context.Context, memberRef string) (*Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx, `
		SELECT id, member_id, username, password_hash, created_at, updated_at
		FROM member_accounts WHERE member_id = $1 LIMIT 1
	`, memberRef))
}

// UpdateAccountPassword replaces the stored hash.
func (r *PGRepository) UpdateAccountPassword(ctx context.Context, accountID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE member_accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, accountID, passwordHash)
	return err
}

// AdminByUsername looks an admin credential up by username.
func (r *PGRepository) AdminByUsername(ctx context.Context, username string) (*Admin, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, full_name, email, is_active, created_at, updated_at
		FROM admins WHERE username = $1
	`, username)
	var a Admin
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.FullName, &a.Email, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// CreateAdmin writes a new admin credential.
func (r *PGRepository) CreateAdmin(ctx context.Context, a Admin) (Admin, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO admins (id, username, password_hash, full_name, email, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, a.ID, a.Username, a.PasswordHash, a.FullName, a.Email, a.IsActive)
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return Admin{}, err
	}
	return a, nil
}

func joinClauses(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}

var _ Repository = (*PGRepository)(nil)
