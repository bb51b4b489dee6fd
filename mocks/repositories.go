// Package mocks provides in-memory implementations of the repository and
// infrastructure interfaces for tests. Each method can be overridden with a
// func field to inject failures.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fixmyarea-be/models"
	"fixmyarea-be/repository"
)

// MockUserRepository is an in-memory repository.UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User

	CreateFunc func(ctx context.Context, user *models.User) error
	DeleteFunc func(ctx context.Context, id primitive.ObjectID) error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[primitive.ObjectID]models.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == user.Phone {
			return repository.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *MockUserRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	setIf := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setIf(&u.Name, update.Name)
	setIf(&u.Email, update.Email)
	setIf(&u.Gender, update.Gender)
	setIf(&u.State, update.State)
	setIf(&u.District, update.District)
	setIf(&u.Village, update.Village)
	setIf(&u.Pincode, update.Pincode)
	if update.DOB != nil {
		dob := *update.DOB
		u.DOB = &dob
	}
	m.users[id] = u
	return &u, nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := []models.User{}
	for _, u := range m.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (m *MockUserRepository) GroupWorkersByVillage(ctx context.Context) ([]models.WorkerVillageGroup, error) {
	workers, _ := m.ListByRole(ctx, models.RoleWorker)
	index := map[string]int{}
	groups := []models.WorkerVillageGroup{}
	for _, w := range workers {
		i, ok := index[w.Village]
		if !ok {
			i = len(groups)
			index[w.Village] = i
			groups = append(groups, models.WorkerVillageGroup{Village: w.Village})
		}
		groups[i].Workers = append(groups[i].Workers, models.WorkerSummary{ID: w.ID, Name: w.Name, Phone: w.Phone})
		groups[i].Count++
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Village < groups[j].Village })
	return groups, nil
}

// Put stores a user directly, bypassing the unique phone check.
func (m *MockUserRepository) Put(user models.User) models.User {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.mu.Lock()
	m.users[user.ID] = user
	m.mu.Unlock()
	return user
}

func (m *MockUserRepository) ref(id primitive.ObjectID) *models.UserRef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	return &models.UserRef{ID: u.ID, Name: u.Name}
}

// MockComplaintRepository is an in-memory repository.ComplaintRepository.
// Names are joined from the user repository it was created with.
type MockComplaintRepository struct {
	mu         sync.Mutex
	complaints map[primitive.ObjectID]models.Complaint
	users      *MockUserRepository
	now        func() time.Time

	InsertFunc             func(ctx context.Context, complaint *models.Complaint) error
	SetStatusFunc          func(ctx context.Context, id primitive.ObjectID, status models.Status, assignee primitive.ObjectID) (*models.Complaint, error)
	BeforeSetStatus        func(id primitive.ObjectID)
	ReleaseAssignmentsFunc func(ctx context.Context, workerID primitive.ObjectID, reopenResolved bool) (int64, error)
	CountByStatusFunc      func(ctx context.Context) (models.StatusCounts, error)
}

func NewMockComplaintRepository(users *MockUserRepository) *MockComplaintRepository {
	return &MockComplaintRepository{
		complaints: make(map[primitive.ObjectID]models.Complaint),
		users:      users,
		now:        time.Now,
	}
}

func (m *MockComplaintRepository) Insert(ctx context.Context, complaint *models.Complaint) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, complaint)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if complaint.ID.IsZero() {
		complaint.ID = primitive.NewObjectID()
	}
	m.complaints[complaint.ID] = clone(*complaint)
	return nil
}

func (m *MockComplaintRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c = clone(c)
	return &c, nil
}

func (m *MockComplaintRepository) FindView(ctx context.Context, id primitive.ObjectID) (*models.ComplaintView, error) {
	c, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := m.view(*c)
	return &view, nil
}

func (m *MockComplaintRepository) List(ctx context.Context, filter repository.ComplaintFilter) ([]models.ComplaintView, error) {
	m.mu.Lock()
	matched := []models.Complaint{}
	for _, c := range m.complaints {
		if filter.CreatedBy != nil && c.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.AssignedTo != nil && (c.AssignedTo == nil || *c.AssignedTo != *filter.AssignedTo) {
			continue
		}
		matched = append(matched, clone(c))
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	views := make([]models.ComplaintView, 0, len(matched))
	for _, c := range matched {
		views = append(views, m.view(c))
	}
	return views, nil
}

func (m *MockComplaintRepository) view(c models.Complaint) models.ComplaintView {
	view := models.ComplaintView{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		PhotoURL:    c.PhotoURL,
		Location:    c.Location,
		Address:     c.Address,
		State:       c.State,
		District:    c.District,
		Village:     c.Village,
		Status:      c.Status,
		Upvotes:     c.Upvotes,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if m.users != nil {
		view.CreatedBy = m.users.ref(c.CreatedBy)
		if c.AssignedTo != nil {
			view.AssignedTo = m.users.ref(*c.AssignedTo)
		}
	}
	return view
}

func (m *MockComplaintRepository) Assign(ctx context.Context, id, workerID primitive.ObjectID) (*models.Complaint, error) {
	return m.guarded(id, func(c *models.Complaint) bool {
		if c.Status == models.StatusResolved {
			return false
		}
		c.AssignedTo = &workerID
		c.Status = models.StatusInProgress
		return true
	})
}

func (m *MockComplaintRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.Status, assignee primitive.ObjectID) (*models.Complaint, error) {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, id, status, assignee)
	}
	if m.BeforeSetStatus != nil {
		m.BeforeSetStatus(id)
	}
	return m.guarded(id, func(c *models.Complaint) bool {
		if c.Status == models.StatusResolved || (c.AssignedTo != nil && *c.AssignedTo != assignee) {
			return false
		}
		c.AssignedTo = &assignee
		c.Status = status
		return true
	})
}

// guarded applies fn under the lock, mirroring a filtered FindOneAndUpdate:
// when fn reports false nothing is stored and ErrPrecondition is returned.
func (m *MockComplaintRepository) guarded(id primitive.ObjectID, fn func(c *models.Complaint) bool) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !fn(&c) {
		return nil, repository.ErrPrecondition
	}
	c.UpdatedAt = m.now()
	m.complaints[id] = c
	out := clone(c)
	return &out, nil
}

// AddUpvote checks and inserts under one lock, matching the conditional
// update the Mongo repository performs.
func (m *MockComplaintRepository) AddUpvote(ctx context.Context, id, userID primitive.ObjectID) (*models.Complaint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if c.HasUpvote(userID) {
		out := clone(c)
		return &out, false, nil
	}
	c.Upvotes = append(c.Upvotes, userID)
	c.UpdatedAt = m.now()
	m.complaints[id] = c
	out := clone(c)
	return &out, true, nil
}

func (m *MockComplaintRepository) ReleaseAssignments(ctx context.Context, workerID primitive.ObjectID, reopenResolved bool) (int64, error) {
	if m.ReleaseAssignmentsFunc != nil {
		return m.ReleaseAssignmentsFunc(ctx, workerID, reopenResolved)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var released int64
	for id, c := range m.complaints {
		if c.AssignedTo == nil || *c.AssignedTo != workerID {
			continue
		}
		c.AssignedTo = nil
		if c.Status != models.StatusResolved || reopenResolved {
			c.Status = models.StatusOpen
		}
		c.UpdatedAt = m.now()
		m.complaints[id] = c
		released++
	}
	return released, nil
}

func (m *MockComplaintRepository) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts models.StatusCounts
	for _, c := range m.complaints {
		if c.Status == models.StatusResolved {
			counts.Solved++
		} else {
			counts.Pending++
		}
	}
	return counts, nil
}

func (m *MockComplaintRepository) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	m.mu.Lock()
	byCategory := map[models.Category]int64{}
	for _, c := range m.complaints {
		byCategory[c.Category]++
	}
	m.mu.Unlock()

	counts := []models.CategoryCount{}
	for category, n := range byCategory {
		counts = append(counts, models.CategoryCount{Category: category, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Category < counts[j].Category })
	return counts, nil
}

func (m *MockComplaintRepository) GroupByVillage(ctx context.Context) ([]models.VillageGroup, error) {
	m.mu.Lock()
	index := map[string]int{}
	groups := []models.VillageGroup{}
	for _, c := range m.complaints {
		i, ok := index[c.Village]
		if !ok {
			i = len(groups)
			index[c.Village] = i
			groups = append(groups, models.VillageGroup{Village: c.Village})
		}
		groups[i].Complaints = append(groups[i].Complaints, models.ComplaintSummary{ID: c.ID, Title: c.Title, Status: c.Status})
		groups[i].Count++
	}
	m.mu.Unlock()

	sort.Slice(groups, func(i, j int) bool { return groups[i].Village < groups[j].Village })
	return groups, nil
}

func clone(c models.Complaint) models.Complaint {
	c.Upvotes = append([]primitive.ObjectID{}, c.Upvotes...)
	if c.AssignedTo != nil {
		id := *c.AssignedTo
		c.AssignedTo = &id
	}
	return c
}

// MockWorkerUpdateRepository is an in-memory append-only update log.
type MockWorkerUpdateRepository struct {
	mu      sync.Mutex
	updates []models.WorkerUpdate
	users   *MockUserRepository

	AppendFunc func(ctx context.Context, update *models.WorkerUpdate) error
}

func NewMockWorkerUpdateRepository(users *MockUserRepository) *MockWorkerUpdateRepository {
	return &MockWorkerUpdateRepository{users: users}
}

func (m *MockWorkerUpdateRepository) Append(ctx context.Context, update *models.WorkerUpdate) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, update)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if update.ID.IsZero() {
		update.ID = primitive.NewObjectID()
	}
	m.updates = append(m.updates, *update)
	return nil
}

func (m *MockWorkerUpdateRepository) ListByComplaint(ctx context.Context, complaintID primitive.ObjectID) ([]models.WorkerUpdateView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	views := []models.WorkerUpdateView{}
	for _, u := range m.updates {
		if u.ComplaintID != complaintID {
			continue
		}
		view := models.WorkerUpdateView{
			ID:          u.ID,
			ComplaintID: u.ComplaintID,
			UpdateText:  u.UpdateText,
			PhotoURL:    u.PhotoURL,
			Status:      u.Status,
			Timestamp:   u.Timestamp,
		}
		if m.users != nil {
			view.Worker = m.users.ref(u.WorkerID)
		}
		views = append(views, view)
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Timestamp.Before(views[j].Timestamp) })
	return views, nil
}

// Len reports how many updates were appended.
func (m *MockWorkerUpdateRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates)
}
