package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thejerf/abtime"
	"gorm.io/gorm"
)

var (
	// ErrSessionNotFound is returned when no live row matches the id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDatabaseUnavailable wraps every infrastructure failure.
	ErrDatabaseUnavailable = errors.New("session database unavailable")
)

// Store persists sessions through gorm. It is safe for concurrent use; the
// only shared state is the connection pool behind db.
type Store struct {
	abtime.AbstractTime

	db  *gorm.DB
	ttl time.Duration
}

// NewStore returns a Store issuing sessions that live for ttl after creation
// or last renewal. A nil clock means real time.
func NewStore(db *gorm.DB, ttl time.Duration, clock abtime.AbstractTime) *Store {
	if clock == nil {
		clock = abtime.NewRealTime()
	}
	return &Store{
		AbstractTime: clock,
		db:           db,
		ttl:          ttl,
	}
}

// Migrate creates or upgrades the session table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Session{})
}

// TTL reports the sliding lifetime applied by Create and Renew.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create inserts a fresh session for accountID expiring ttl from now.
func (s *Store) Create(ctx context.Context, accountID uuid.UUID) (*Session, error) {
	sess := &Session{
		ID:        uuid.New(),
		AccountID: accountID,
		ExpiresAt: s.expiry(),
	}

	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}

	return sess, nil
}

// Fetch returns the row for id, dead or alive. Expiry is the caller's
// decision.
func (s *Store) Fetch(ctx context.Context, id uuid.UUID) (*Session, error) {
	var sess Session
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}

	sess.ExpiresAt = sess.ExpiresAt.UTC()
	return &sess, nil
}

// Renew slides the expiry of a live session to now+ttl and returns the new
// value. The update is a single statement guarded by expires_at > now, so a
// row that was deleted or died since it was fetched yields
// ErrSessionNotFound instead of being resurrected.
func (s *Store) Renew(ctx context.Context, id uuid.UUID) (time.Time, error) {
	now := s.AbstractTime.Now().UTC()
	next := now.Add(s.ttl).Truncate(time.Microsecond)

	res := s.db.WithContext(ctx).
		Model(&Session{}).
		Where("id = ? AND expires_at > ?", id, now).
		Update("expires_at", next)
	if res.Error != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return time.Time{}, ErrSessionNotFound
	}

	return next, nil
}

// Delete removes the session. Deleting a missing row is not an error.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Session{}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	return nil
}

// DeleteExpired removes every row with expires_at strictly before cutoff and
// reports how many were removed.
func (s *Store) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", cutoff.UTC()).Delete(&Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, res.Error)
	}
	return res.RowsAffected, nil
}

// Now reads the store clock in UTC so callers compare against the same
// time source the store writes with.
func (s *Store) Now() time.Time {
	return s.AbstractTime.Now().UTC()
}

func (s *Store) expiry() time.Time {
	return s.AbstractTime.Now().UTC().Add(s.ttl).Truncate(time.Microsecond)
}
