package attendance

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"membertrack/internal/member"
)

var scansRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "membertrack_attendance_records_total",
	Help: "Number of attendance records written.",
})

// MemberDirectory resolves a scanned or typed identifier to a member.
type MemberDirectory interface {
	Resolve(ctx context.Context, id string) (*member.Member, error)
}

// Service records and queries attendance.
type Service struct {
	repo    Repository
	members MemberDirectory
}

// NewService creates a service backed by a repository.
func NewService(repo Repository, members MemberDirectory) *Service {
	return &Service{repo: repo, members: members}
}

// Record logs one presence event for the identified member. The member is
// resolved by public id first, then internal id; an unknown id is
// member.ErrNotFound and nothing is written. Repeated scans on the same
// day each insert a new row.
func (s *Service) Record(ctx context.Context, id string) (Record, error) {
	m, err := s.members.Resolve(ctx, id)
	if err != nil {
		return Record{}, err
	}

	rec, err := s.repo.Insert(ctx, Record{
		MemberRef:      m.ID,
		MemberIDStr:    m.MemberID,
		MemberName:     m.Name,
		AttendanceDate: time.Now(),
		Status:         "present",
	})
	if err != nil {
		return Record{}, err
	}
	scansRecorded.Inc()
	return rec, nil
}

// Today returns records whose attendance date falls within the current
// local day.
func (s *Service) Today(ctx context.Context) ([]Record, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.repo.Between(ctx, start, start.AddDate(0, 0, 1))
}

// ByMember returns one member's records, resolving public or internal ids.
func (s *Service) ByMember(ctx context.Context, id string) ([]Record, error) {
	m, err := s.members.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.ByMember(ctx, m.ID)
}

// All returns the full history.
func (s *Service) All(ctx context.Context) ([]Record, error) {
	return s.repo.All(ctx)
}
