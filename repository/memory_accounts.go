package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/models"
)

type MemoryAccountStore struct {
	mu     sync.RWMutex
	users  map[primitive.ObjectID]models.User
	orgs   map[primitive.ObjectID]models.Organization
	audits []models.AuditLog
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		users: make(map[primitive.ObjectID]models.User),
		orgs:  make(map[primitive.ObjectID]models.Organization),
	}
}

func (s *MemoryAccountStore) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryAccountStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (s *MemoryAccountStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	return &u, nil
}

func (s *MemoryAccountStore) InsertOrganization(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orgs {
		if o.RegistrationNumber == org.RegistrationNumber {
			return ErrDuplicate
		}
	}
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	s.orgs[org.ID] = *org
	return nil
}

func (s *MemoryAccountStore) FindOrganizationByID(_ context.Context, id primitive.ObjectID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orgs[id]
	if !ok {
		return nil, apperrors.NotFound("organization not found")
	}
	return &o, nil
}

func (s *MemoryAccountStore) Record(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	s.audits = append(s.audits, *entry)
	return nil
}

func (s *MemoryAccountStore) ListByApplication(_ context.Context, applicationID string) ([]models.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.AuditLog{}
	for _, e := range s.audits {
		if e.ApplicationID == applicationID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
