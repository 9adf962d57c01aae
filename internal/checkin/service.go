// Package checkin records attendance with an at-most-one-record
// guarantee per (event, user) pair.
package checkin

import (
	"context"
	"errors"
	"time"

	"rollcall/internal/auth"
	"rollcall/internal/timeform"
)

// Expected business outcomes and infrastructure faults. The two groups
// never cross: a Timeout or StorageFailure is never reported as a
// business result, because the write's final state is unknown.
var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventNotActive   = errors.New("event not active")
	ErrAlreadyCheckedIn = errors.New("already checked in")
	ErrTimeout          = errors.New("store timeout")
	ErrStorageFailure   = errors.New("storage failure")
)

// Event is the scheduling collaborator's view of an event. Start and end
// arrive in whatever shape the store emits and are normalized before
// comparison.
type Event struct {
	EventID   string `json:"event_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Record is one attendance check-in. Append-only: never mutated or
// deleted once created.
type Record struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Method    string    `json:"check_in_method"`
	CheckTime time.Time `json:"check_time"`
}

// Store is the persistence the recorder needs. InsertRecord must be a
// store-side conditional insert: it either persists the record or fails
// with ErrAlreadyCheckedIn, atomically, so concurrent duplicates cannot
// both succeed.
type Store interface {
	GetEvent(ctx context.Context, eventID string) (Event, error)
	InsertRecord(ctx context.Context, rec Record) (Record, error)
}

// Service enforces check-in preconditions and the event window.
type Service struct {
	store   Store
	grace   time.Duration
	timeout time.Duration
	now     func() time.Time
}

// NewService creates a service. grace widens the window before an
// event's start; timeout bounds every store call.
func NewService(store Store, grace, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{store: store, grace: grace, timeout: timeout, now: time.Now}
}

// CheckIn records attendance for userID at eventID.
//
// The requester must be checking in themselves unless their role is
// teacher or admin. The event must be today and the current time inside
// [start − grace, end]. The store's conditional insert decides races:
// exactly one concurrent caller wins, the rest get ErrAlreadyCheckedIn.
func (s *Service) CheckIn(ctx context.Context, eventID, userID, method string, requester auth.AuthContext) (Record, error) {
	if requester.Identity.UserID != userID && !requester.Identity.Role.Elevated() {
		return Record{}, auth.ErrForbidden
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	evt, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return Record{}, ErrEventNotFound
		}
		return Record{}, infra(err)
	}

	now := s.now()
	active, err := s.withinWindow(evt, now)
	if err != nil {
		return Record{}, err
	}
	if !active {
		return Record{}, ErrEventNotActive
	}

	rec, err := s.store.InsertRecord(ctx, Record{
		EventID: eventID,
		UserID:  userID,
		Method:  method,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyCheckedIn) {
			return Record{}, ErrAlreadyCheckedIn
		}
		// Unknown final state; the caller may re-query, never re-write.
		return Record{}, infra(err)
	}
	return rec, nil
}

// withinWindow normalizes the event bounds and compares them to now as
// seconds of day. The event date must match today's local date.
func (s *Service) withinWindow(evt Event, now time.Time) (bool, error) {
	if evt.Date != now.Format("2006-01-02") {
		return false, nil
	}
	start, err := timeform.Normalize(evt.StartTime)
	if err != nil {
		return false, err
	}
	end, err := timeform.Normalize(evt.EndTime)
	if err != nil {
		return false, err
	}
	startSec, err := timeform.SecondOfDay(start)
	if err != nil {
		return false, err
	}
	endSec, err := timeform.SecondOfDay(end)
	if err != nil {
		return false, err
	}
	// Grace never wraps past midnight: for an event starting within
	// grace of 00:00:00 the window simply opens at midnight.
	earliest := startSec - int(s.grace.Seconds())
	if earliest < 0 {
		earliest = 0
	}
	nowSec := now.Hour()*3600 + now.Minute()*60 + now.Second()
	return nowSec >= earliest && nowSec <= endSec, nil
}

// infra maps a failed store call to its fault kind. Writes are attempted
// at most once from this layer; nothing here retries.
func infra(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrStorageFailure
}
