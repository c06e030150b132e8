// Package memstore is an in-process implementation of the domain
// repositories. It backs STORE_DRIVER=memory and the service and HTTP tests,
// and enforces the same constraints as the PostgreSQL schema.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yourorg/taskflow/internal/domain"
)

type record[T any] struct {
	seq uint64
	val T
}

// Store holds all tenants, users, projects and tasks behind one mutex
type Store struct {
	mu       sync.RWMutex
	seq      uint64
	now      func() time.Time
	tenants  map[string]record[domain.Tenant]
	users    map[string]record[domain.User]
	projects map[string]record[domain.Project]
	tasks    map[string]record[domain.Task]
}

// New creates an empty store
func New() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		tenants:  make(map[string]record[domain.Tenant]),
		users:    make(map[string]record[domain.User]),
		projects: make(map[string]record[domain.Project]),
		tasks:    make(map[string]record[domain.Task]),
	}
}

// Health always succeeds
func (s *Store) Health(context.Context) error { return nil }

func (s *Store) Tenants() *TenantRepository   { return &TenantRepository{s} }
func (s *Store) Users() *UserRepository       { return &UserRepository{s} }
func (s *Store) Projects() *ProjectRepository { return &ProjectRepository{s} }
func (s *Store) Tasks() *TaskRepository       { return &TaskRepository{s} }

func (s *Store) next() uint64 {
	s.seq++
	return s.seq
}

// countTenant counts the records owned by tenantID. The caller holds s.mu.
func countTenant[T any](recs map[string]record[T], tenantID string, owner func(T) string) int {
	n := 0
	for _, rec := range recs {
		if owner(rec.val) == tenantID {
			n++
		}
	}
	return n
}

// newestFirst sorts by insertion order, latest first
func newestFirst[T any](recs []record[T]) []record[T] {
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	return recs
}

// TenantRepository implements domain.TenantRepository
type TenantRepository struct{ s *Store }

func (r *TenantRepository) CreateWithAdmin(_ context.Context, tenant *domain.Tenant, admin *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if t.val.Subdomain == tenant.Subdomain {
			return domain.Errorf(domain.ErrConflict, "Subdomain already taken")
		}
	}
	if _, ok := s.tenants[tenant.ID]; ok {
		return domain.Errorf(domain.ErrConflict, "Tenant already exists")
	}
	if _, ok := s.users[admin.ID]; ok {
		return domain.Errorf(domain.ErrConflict, "Email already registered")
	}

	ts := s.now()
	tenant.CreatedAt, tenant.UpdatedAt = ts, ts
	admin.CreatedAt, admin.UpdatedAt = ts, ts
	admin.TenantID = tenant.ID

	s.tenants[tenant.ID] = record[domain.Tenant]{seq: s.next(), val: *tenant}
	s.users[admin.ID] = record[domain.User]{seq: s.next(), val: *admin}
	return nil
}

func (r *TenantRepository) GetByID(_ context.Context, id string) (*domain.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tenants[id]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "Tenant not found")
	}
	out := t.val
	return &out, nil
}

// SetStatus changes a tenant's lifecycle state
func (r *TenantRepository) SetStatus(id string, status domain.TenantStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tenants[id]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "Tenant not found")
	}
	t.val.Status = status
	t.val.UpdatedAt = r.s.now()
	r.s.tenants[id] = t
	return nil
}

// UserRepository implements domain.UserRepository
type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *domain.User, limit int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[user.TenantID]; !ok {
		return domain.Errorf(domain.ErrValidation, "Referenced record does not exist")
	}
	if countTenant(s.users, user.TenantID, func(v domain.User) string { return v.TenantID }) >= limit {
		return domain.Errorf(domain.ErrLimitExceeded, "User limit reached")
	}
	for _, u := range s.users {
		if u.val.TenantID == user.TenantID && strings.EqualFold(u.val.Email, user.Email) {
			return domain.Errorf(domain.ErrConflict, "Email already exists in this tenant")
		}
	}

	ts := s.now()
	user.CreatedAt, user.UpdatedAt = ts, ts
	s.users[user.ID] = record[domain.User]{seq: s.next(), val: *user}
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, tenantID, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok || u.val.TenantID != tenantID {
		return nil, domain.Errorf(domain.ErrNotFound, "User not found")
	}
	out := u.val
	return &out, nil
}

func (r *UserRepository) GetByEmailInTenant(_ context.Context, email, subdomain string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		t, ok := r.s.tenants[u.val.TenantID]
		if ok && t.val.Subdomain == subdomain && u.val.Email == email {
			out := u.val
			return &out, nil
		}
	}
	return nil, domain.Errorf(domain.ErrNotFound, "User not found")
}

func (r *UserRepository) ListByTenant(_ context.Context, tenantID string) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var recs []record[domain.User]
	for _, u := range r.s.users {
		if u.val.TenantID == tenantID {
			recs = append(recs, u)
		}
	}
	out := make([]*domain.User, 0, len(recs))
	for _, rec := range newestFirst(recs) {
		u := rec.val
		out = append(out, &u)
	}
	return out, nil
}

// SetActive toggles a user's active flag
func (r *UserRepository) SetActive(id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "User not found")
	}
	u.val.IsActive = active
	u.val.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

// ProjectRepository implements domain.ProjectRepository
type ProjectRepository struct{ s *Store }

func (r *ProjectRepository) Create(_ context.Context, p *domain.Project, limit int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[p.TenantID]; !ok {
		return domain.Errorf(domain.ErrValidation, "Referenced record does not exist")
	}
	if countTenant(s.projects, p.TenantID, func(v domain.Project) string { return v.TenantID }) >= limit {
		return domain.Errorf(domain.ErrLimitExceeded, "Project limit reached")
	}
	if _, ok := s.projects[p.ID]; ok {
		return domain.Errorf(domain.ErrConflict, "Project already exists")
	}

	ts := s.now()
	p.CreatedAt, p.UpdatedAt = ts, ts
	s.projects[p.ID] = record[domain.Project]{seq: s.next(), val: *p}
	return nil
}

func (r *ProjectRepository) GetByID(_ context.Context, tenantID, id string) (*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok || p.val.TenantID != tenantID {
		return nil, domain.Errorf(domain.ErrNotFound, "Project not found")
	}
	out := p.val
	return &out, nil
}

func (r *ProjectRepository) ListByTenant(_ context.Context, tenantID string) ([]*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var recs []record[domain.Project]
	for _, p := range r.s.projects {
		if p.val.TenantID == tenantID {
			recs = append(recs, p)
		}
	}
	out := make([]*domain.Project, 0, len(recs))
	for _, rec := range newestFirst(recs) {
		p := rec.val
		out = append(out, &p)
	}
	return out, nil
}

func (r *ProjectRepository) Update(_ context.Context, tenantID, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok || p.val.TenantID != tenantID {
		return nil, domain.Errorf(domain.ErrNotFound, "Project not found")
	}
	if patch.Name != nil {
		p.val.Name = *patch.Name
	}
	if patch.Description != nil {
		p.val.Description = *patch.Description
	}
	if patch.Status != nil {
		p.val.Status = *patch.Status
	}
	p.val.UpdatedAt = r.s.now()
	r.s.projects[id] = p

	out := p.val
	return &out, nil
}

func (r *ProjectRepository) Delete(_ context.Context, tenantID, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok || p.val.TenantID != tenantID {
		return false, nil
	}
	delete(r.s.projects, id)
	for taskID, t := range r.s.tasks {
		if t.val.ProjectID == id {
			delete(r.s.tasks, taskID)
		}
	}
	return true, nil
}

// TaskRepository implements domain.TaskRepository
type TaskRepository struct{ s *Store }

func (r *TaskRepository) Create(_ context.Context, t *domain.Task) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[t.ProjectID]
	if !ok || p.val.TenantID != t.TenantID {
		return domain.Errorf(domain.ErrValidation, "Referenced record does not exist")
	}
	if t.AssignedTo != nil {
		if _, ok := s.users[*t.AssignedTo]; !ok {
			return domain.Errorf(domain.ErrValidation, "Referenced record does not exist")
		}
	}

	ts := s.now()
	t.CreatedAt, t.UpdatedAt = ts, ts
	s.tasks[t.ID] = record[domain.Task]{seq: s.next(), val: copyTask(*t)}
	return nil
}

func (r *TaskRepository) GetByID(_ context.Context, tenantID, id string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok || t.val.TenantID != tenantID {
		return nil, domain.Errorf(domain.ErrNotFound, "Task not found")
	}
	out := copyTask(t.val)
	return &out, nil
}

func (r *TaskRepository) ListByProject(_ context.Context, tenantID, projectID string, filter domain.TaskFilter) ([]*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var recs []record[domain.Task]
	for _, t := range r.s.tasks {
		v := t.val
		if v.TenantID != tenantID || v.ProjectID != projectID {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && v.Priority != filter.Priority {
			continue
		}
		if filter.AssignedTo != "" && (v.AssignedTo == nil || *v.AssignedTo != filter.AssignedTo) {
			continue
		}
		recs = append(recs, t)
	}
	out := make([]*domain.Task, 0, len(recs))
	for _, rec := range newestFirst(recs) {
		t := copyTask(rec.val)
		out = append(out, &t)
	}
	return out, nil
}

func (r *TaskRepository) Update(_ context.Context, tenantID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok || t.val.TenantID != tenantID {
		return nil, domain.Errorf(domain.ErrNotFound, "Task not found")
	}
	if patch.Title != nil {
		t.val.Title = *patch.Title
	}
	if patch.Description != nil {
		t.val.Description = *patch.Description
	}
	if patch.Status != nil {
		t.val.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.val.Priority = *patch.Priority
	}
	if patch.AssignedTo != nil {
		if *patch.AssignedTo == "" {
			t.val.AssignedTo = nil
		} else {
			if _, ok := r.s.users[*patch.AssignedTo]; !ok {
				return nil, domain.Errorf(domain.ErrValidation, "Referenced record does not exist")
			}
			assignee := *patch.AssignedTo
			t.val.AssignedTo = &assignee
		}
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		t.val.DueDate = &due
	}
	t.val.UpdatedAt = r.s.now()
	r.s.tasks[id] = t

	out := copyTask(t.val)
	return &out, nil
}

func (r *TaskRepository) Delete(_ context.Context, tenantID, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok || t.val.TenantID != tenantID {
		return false, nil
	}
	delete(r.s.tasks, id)
	return true, nil
}

// copyTask detaches the pointer fields so callers cannot mutate stored rows
func copyTask(t domain.Task) domain.Task {
	if t.AssignedTo != nil {
		a := *t.AssignedTo
		t.AssignedTo = &a
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}
