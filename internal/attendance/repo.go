package attendance

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Record is one append-only presence event. Member name and public id are
// snapshotted at write time so history survives later edits to the member.
type Record struct {
	ID             string    `json:"id"`
	MemberRef      string    `json:"memberId"`
	MemberIDStr    string    `json:"memberIdStr"`
	MemberName     string    `json:"memberName"`
	AttendanceDate time.Time `json:"attendanceDate"`
	Status         string    `json:"status"`
	Notes          *string   `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Repository is the persistence surface for attendance records. Records
// are never updated or deleted.
type Repository interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	ByMember(ctx context.Context, memberRef string) ([]Record, error)
	All(ctx context.Context) ([]Record, error)
	Between(ctx context.Context, from, to time.Time) ([]Record, error)
	HasAttendanceOn(ctx context.Context, memberRef string, day time.Time) (bool, error)
	CountForMember(ctx context.Context, memberRef string) (int, error)
	DistinctDates(ctx context.Context) (int, error)
}

// PGRepository persists attendance records in Postgres.
type PGRepository struct {
	db *sql.DB
}

// NewPGRepository creates a repo.
func NewPGRepository(db *sql.DB) *PGRepository {
	return &PGRepository{db: db}
}

const recordColumns = `id, member_id, member_id_str, member_name, attendance_date, status, notes, created_at`

// Insert writes a new record.
func (r *PGRepository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.AttendanceDate.IsZero() {
		rec.AttendanceDate = time.Now()
	}
	if rec.Status == "" {
		rec.Status = "present"
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, member_id, member_id_str, member_name, attendance_date, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, rec.ID, rec.MemberRef, rec.MemberIDStr, rec.MemberName, rec.AttendanceDate, rec.Status, rec.Notes)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *PGRepository) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var rec Record
		err := rows.Scan(&rec.ID, &rec.MemberRef, &rec.MemberIDStr, &rec.MemberName,
			&rec.AttendanceDate, &rec.Status, &rec.Notes, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// ByMember returns all records for one member.
func (r *PGRepository) ByMember(ctx context.Context, memberRef string) ([]Record, error) {
	return r.query(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE member_id = $1 ORDER BY attendance_date DESC
	`, memberRef)
}

// All returns the full history.
func (r *PGRepository) All(ctx context.Context) ([]Record, error) {
	return r.query(ctx, `
		SELECT `+recordColumns+` FROM attendance_records ORDER BY attendance_date DESC
	`)
}

// Between returns records whose attendance date falls in [from, to).
func (r *PGRepository) Between(ctx context.Context, from, to time.Time) ([]Record, error) {
	return r.query(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE attendance_date >= $1 AND attendance_date < $2
		ORDER BY attendance_date DESC
	`, from, to)
}

// HasAttendanceOn reports whether the member already has a record on the
// given day. Exposed for callers that want to warn on re-scans; recording
// itself does not consult it.
func (r *PGRepository) HasAttendanceOn(ctx context.Context, memberRef string, day time.Time) (bool, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance_records
		WHERE member_id = $1 AND attendance_date >= $2 AND attendance_date < $3
	`, memberRef, start, end).Scan(&n)
	return n > 0, err
}

// CountForMember counts a member's records.
func (r *PGRepository) CountForMember(ctx context.Context, memberRef string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance_records WHERE member_id = $1
	`, memberRef).Scan(&n)
	return n, err
}

// DistinctDates counts distinct attendance dates across all members,
// i.e. the number of meetings held.
func (r *PGRepository) DistinctDates(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT attendance_date::date) FROM attendance_records
	`).Scan(&n)
	return n, err
}

var _ Repository = (*PGRepository)(nil)
