package filestore

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tracker000/gridtrack/internal/domain/account"
)

// accountRecord is the on-disk shape of an account. It exists because the
// domain type hides the password hash from JSON, and here the hash is
// exactly what has to survive a restart.
type accountRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone"`
	ProfilePic   string    `json:"profilePic"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (r accountRecord) toDomain() account.Account {
	return account.Account{
		ID:           r.ID,
		Email:        r.Email,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		Phone:        r.Phone,
		ProfilePic:   r.ProfilePic,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type Accounts struct {
	mu   sync.RWMutex
	path string
	byID map[string]accountRecord
}

func NewAccounts(dir string) (*Accounts, error) {
	s := &Accounts{
		path: filepath.Join(dir, "accounts.json"),
		byID: make(map[string]accountRecord),
	}

	if err := loadSnapshot(s.path, &s.byID); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Accounts) persist() error {
	return saveSnapshot(s.path, s.byID)
}

// GetByEmail is an exact, case-sensitive match.
func (s *Accounts) GetByEmail(_ context.Context, email string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.byID {
		if r.Email == email {
			return r.toDomain(), nil
		}
	}

	return account.Account{}, account.ErrNotFound
}

func (s *Accounts) GetByID(_ context.Context, id string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]

	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	return r.toDomain(), nil
}

func (s *Accounts) Create(_ context.Context, email, username, passwordHash, role string) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.byID {
		if r.Email == email {
			return account.Account{}, account.ErrEmailTaken
		}
	}

	now := time.Now().UTC()

	rec := accountRecord{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.byID[rec.ID] = rec

	if err := s.persist(); err != nil {
		delete(s.byID, rec.ID)
		return account.Account{}, err
	}

	return rec.toDomain(), nil
}

func (s *Accounts) UpdateProfile(_ context.Context, id string, upd account.ProfileUpdate) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byID[id]

	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	rec := prev

	if upd.Username != nil {
		rec.Username = *upd.Username
	}
	if upd.Phone != nil {
		rec.Phone = *upd.Phone
	}
	if upd.ProfilePic != nil {
		rec.ProfilePic = *upd.ProfilePic
	}

	rec.UpdatedAt = time.Now().UTC()
	s.byID[id] = rec

	if err := s.persist(); err != nil {
		s.byID[id] = prev
		return account.Account{}, err
	}

	return rec.toDomain(), nil
}

func (s *Accounts) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byID[id]

	if !ok {
		return account.ErrNotFound
	}

	rec := prev
	rec.PasswordHash = passwordHash
	rec.UpdatedAt = time.Now().UTC()
	s.byID[id] = rec

	if err := s.persist(); err != nil {
		s.byID[id] = prev
		return err
	}

	return nil
}
