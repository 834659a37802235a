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

// MemoryApplicationStore keeps applications in process. It honours the same
// uniqueness and atomicity rules as the Mongo store and backs tests and
// storage.driver=memory.
type MemoryApplicationStore struct {
	mu   sync.RWMutex
	apps map[string]*models.Application
	// used remembers every id ever inserted so deleted ids are never reissued.
	used map[string]struct{}
}

func NewMemoryApplicationStore() *MemoryApplicationStore {
	return &MemoryApplicationStore{
		apps: make(map[string]*models.Application),
		used: make(map[string]struct{}),
	}
}

func cloneApplication(a *models.Application) *models.Application {
	c := *a
	if a.Event.Categories != nil {
		c.Event.Categories = append([]string(nil), a.Event.Categories...)
	}
	return &c
}

func (s *MemoryApplicationStore) Insert(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.used[app.ApplicationID]; ok {
		return ErrDuplicate
	}
	if app.ID.IsZero() {
		app.ID = primitive.NewObjectID()
	}
	s.apps[app.ApplicationID] = cloneApplication(app)
	s.used[app.ApplicationID] = struct{}{}
	return nil
}

func (s *MemoryApplicationStore) FindByApplicationID(_ context.Context, applicationID string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[applicationID]
	if !ok {
		return nil, apperrors.NotFound("application %s not found", applicationID)
	}
	return cloneApplication(app), nil
}

func (s *MemoryApplicationStore) ExistsByApplicationID(_ context.Context, applicationID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.apps[applicationID]
	return ok, nil
}

func (s *MemoryApplicationStore) UpdateFields(_ context.Context, applicationID string, fields map[string]interface{}) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(applicationID, nil, fields)
}

func (s *MemoryApplicationStore) UpdateFieldsIf(_ context.Context, applicationID string, current models.Status, fields map[string]interface{}) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(applicationID, &current, fields)
}

// set applies fields to a copy first so a bad field leaves the record as it was.
func (s *MemoryApplicationStore) set(applicationID string, current *models.Status, fields map[string]interface{}) (*models.Application, error) {
	app, ok := s.apps[applicationID]
	if !ok {
		return nil, apperrors.NotFound("application %s not found", applicationID)
	}
	if current != nil && app.Status != *current {
		return nil, apperrors.Conflict("application %s is no longer %q", applicationID, *current)
	}
	next := cloneApplication(app)
	if err := applyFields(next, fields); err != nil {
		return nil, apperrors.Validation("", err.Error())
	}
	s.apps[applicationID] = next
	return cloneApplication(next), nil
}

func (s *MemoryApplicationStore) List(_ context.Context, f ListFilter) ([]models.Application, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	matched := make([]models.Application, 0)
	for _, app := range s.apps {
		if f.Status != "" && app.Status != f.Status {
			continue
		}
		if f.OrganizationID != nil && app.OrganizationID != *f.OrganizationID {
			continue
		}
		if f.State != "" && app.Event.State != f.State {
			continue
		}
		if !f.Since.IsZero() && app.SubmissionDate.Before(f.Since) {
			continue
		}
		if search != "" && !matchesSearch(app, search) {
			continue
		}
		matched = append(matched, *cloneApplication(app))
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SubmissionDate.Equal(matched[j].SubmissionDate) {
			return matched[i].ApplicationID < matched[j].ApplicationID
		}
		return matched[i].SubmissionDate.After(matched[j].SubmissionDate)
	})

	total := int64(len(matched))
	if f.Skip >= len(matched) {
		return []models.Application{}, total, nil
	}
	matched = matched[f.Skip:]
	if n := f.EffectiveLimit(); len(matched) > n {
		matched = matched[:n]
	}
	return matched, total, nil
}

func matchesSearch(app *models.Application, needle string) bool {
	for _, hay := range []string{app.ApplicationID, app.Event.EventTitle, app.Event.OrganiserName, app.Event.Venue} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

func (s *MemoryApplicationStore) CountByStatus(_ context.Context, orgID *primitive.ObjectID, state string) (map[models.Status]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Status]int64)
	for _, st := range models.AllStatuses() {
		counts[st] = 0
	}
	for _, app := range s.apps {
		if orgID != nil && app.OrganizationID != *orgID {
			continue
		}
		if state != "" && app.Event.State != state {
			continue
		}
		counts[app.Status]++
	}
	return counts, nil
}

func (s *MemoryApplicationStore) Delete(_ context.Context, applicationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[applicationID]; !ok {
		return apperrors.NotFound("application %s not found", applicationID)
	}
	delete(s.apps, applicationID)
	return nil
}
