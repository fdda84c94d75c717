package store

import "context"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL UNIQUE,
		member_id_seq BIGINT,
		name TEXT NOT NULL,
		phone TEXT,
		email TEXT,
		date_of_birth TIMESTAMPTZ,
		address TEXT,
		father_of_confession TEXT,
		academic_status TEXT,
		academic_year TEXT,
		image_url TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS member_accounts (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT,
		email TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		member_id_str TEXT NOT NULL,
		member_name TEXT NOT NULL,
		attendance_date TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'present',
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS attendance_records_member_idx
		ON attendance_records (member_id)`,
	`CREATE INDEX IF NOT EXISTS attendance_records_date_idx
		ON attendance_records (attendance_date)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT,
		role TEXT NOT NULL DEFAULT 'user',
		last_signed_in TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		last_sequential_id BIGINT NOT NULL DEFAULT 0
	)`,
	`INSERT INTO counters (name, last_sequential_id)
		VALUES ('members', 0)
		ON CONFLICT (name) DO NOTHING`,
}

// Migrate applies the schema. Statements are idempotent so this is safe to
// run on every startup.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
