package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"membertrack/internal/attendance"
)

// AttendanceRepo is an in-memory attendance.Repository. It also satisfies
// member.AttendanceStats.
type AttendanceRepo struct {
	mu      sync.Mutex
	records []attendance.Record
}

// NewAttendanceRepo creates an empty repo.
func NewAttendanceRepo() *AttendanceRepo {
	return &AttendanceRepo{}
}

func (r *AttendanceRepo) Insert(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.AttendanceDate.IsZero() {
		rec.AttendanceDate = time.Now()
	}
	if rec.Status == "" {
		rec.Status = "present"
	}
	rec.CreatedAt = time.Now()
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *AttendanceRepo) filter(keep func(attendance.Record) bool) []attendance.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []attendance.Record
	for _, rec := range r.records {
		if keep(rec) {
			res = append(res, rec)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].AttendanceDate.After(res[j].AttendanceDate) })
	return res
}

func (r *AttendanceRepo) ByMember(ctx context.Context, memberRef string) ([]attendance.Record, error) {
	return r.filter(func(rec attendance.Record) bool { return rec.MemberRef == memberRef }), nil
}

func (r *AttendanceRepo) All(ctx context.Context) ([]attendance.Record, error) {
	return r.filter(func(attendance.Record) bool { return true }), nil
}

func (r *AttendanceRepo) Between(ctx context.Context, from, to time.Time) ([]attendance.Record, error) {
	return r.filter(func(rec attendance.Record) bool {
		return !rec.AttendanceDate.Before(from) && rec.AttendanceDate.Before(to)
	}), nil
}

func (r *AttendanceRepo) HasAttendanceOn(ctx context.Context, memberRef string, day time.Time) (bool, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	recs, err := r.Between(ctx, start, end)
	if err != nil {
		return false, err
	}
	for _, rec := range recs {
		if rec.MemberRef == memberRef {
			return true, nil
		}
	}
	return false, nil
}

func (r *AttendanceRepo) CountForMember(ctx context.Context, memberRef string) (int, error) {
	recs, err := r.ByMember(ctx, memberRef)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

func (r *AttendanceRepo) DistinctDates(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dates := make(map[string]struct{})
	for _, rec := range r.records {
		dates[rec.AttendanceDate.Format("2006-01-02")] = struct{}{}
	}
	return len(dates), nil
}

var _ attendance.Repository = (*AttendanceRepo)(nil)
