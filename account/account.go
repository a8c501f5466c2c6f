// Package account stores the principals that sessions belong to.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Language is an account's preferred UI language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageGerman  Language = "de"
)

// ParseLanguage maps a stored value to a Language, falling back to English
// for anything unrecognised.
func ParseLanguage(s string) Language {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LanguageGerman:
		return LanguageGerman
	default:
		return LanguageEnglish
	}
}

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrDatabaseUnavailable = errors.New("account database unavailable")
)

// Account is a row of the "account" table.
type Account struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username          string    `gorm:"size:20;not null;uniqueIndex"`
	PasswordHash      string    `gorm:"column:pw_hash;not null"`
	Name              string    `gorm:"not null"`
	PreferredLanguage Language  `gorm:"size:2;not null;default:en"`
}

func (Account) TableName() string {
	return "account"
}

// Store reads and writes accounts through gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or upgrades the account table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Account{})
}

// Create inserts acc, assigning an id when it has none.
func (s *Store) Create(ctx context.Context, acc *Account) error {
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	if acc.PreferredLanguage == "" {
		acc.PreferredLanguage = LanguageEnglish
	}

	err := s.db.WithContext(ctx).Create(acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	return nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*Account, error) {
	return s.find(ctx, "username = ?", username)
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.find(ctx, "id = ?", id)
}

// UpdatePasswordHash replaces the stored hash for id.
func (s *Store) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res := s.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).Update("pw_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *Store) find(ctx context.Context, query string, arg any) (*Account, error) {
	var acc Account
	err := s.db.WithContext(ctx).Where(query, arg).Take(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	acc.PreferredLanguage = ParseLanguage(string(acc.PreferredLanguage))
	return &acc, nil
}

// gorm only translates driver errors when TranslateError is set, so match
// the raw messages of the drivers in use as well.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
