package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"crmserver/internal/model"
	"crmserver/internal/priority"
	"crmserver/pkg/metrics"
)

var ErrInvalidStatus = errors.New("invalid task status")

// CustomerStore is the slice of the customer repository the service needs.
type CustomerStore interface {
	Insert(ctx context.Context, c *model.Customer) error
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context) ([]model.Customer, error)
	Update(ctx context.Context, c *model.Customer) error
	Delete(ctx context.Context, id string) error
	AddContact(ctx context.Context, ct *model.Contact) error
	DeleteContact(ctx context.Context, customerID, contactID string) error
}

// TaskStore is the slice of the task repository the service needs.
type TaskStore interface {
	Insert(ctx context.Context, t *model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.Task, error)
	ListActive(ctx context.Context) ([]model.Task, error)
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id string) error
}

const (
	dashboardVersionKey = "dashboard:ver"
	dashboardCacheTTL   = 30 * time.Second
)

type Service struct {
	customers CustomerStore
	tasks     TaskStore
	rdb       *redis.Client
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(customers CustomerStore, tasks TaskStore, rdb *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		customers: customers,
		tasks:     tasks,
		rdb:       rdb,
		logger:    logger,
		now:       time.Now,
	}
}

// CustomerView decorates a customer with the computed renewal flags.
// Both flags are reported; rendering lets expired win.
type CustomerView struct {
	model.Customer
	RenewalDueSoon bool `json:"renewal_due_soon"`
	RenewalExpired bool `json:"renewal_expired"`
}

func (s *Service) view(c model.Customer) CustomerView {
	now := s.now()
	return CustomerView{
		Customer:       c,
		RenewalDueSoon: priority.RenewalDueSoon(c.RenewalDate, now),
		RenewalExpired: priority.RenewalExpired(c.RenewalDate, now),
	}
}

// CreateCustomer assigns an id and stores the customer.
func (s *Service) CreateCustomer(ctx context.Context, c *model.Customer) (*CustomerView, error) {
	c.ID = uuid.NewString()
	if err := s.customers.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	v := s.view(*c)
	return &v, nil
}

// GetCustomer returns a single customer with contacts and renewal flags.
func (s *Service) GetCustomer(ctx context.Context, id string) (*CustomerView, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(*c)
	return &v, nil
}

// ListCustomers returns all customers, optionally filtered by a
// case-insensitive name substring.
func (s *Service) ListCustomers(ctx context.Context, query string) ([]CustomerView, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	views := make([]CustomerView, 0, len(customers))
	for _, c := range customers {
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) {
			continue
		}
		views = append(views, s.view(c))
	}
	return views, nil
}

// CustomerPatch carries field-level updates; nil means leave unchanged.
type CustomerPatch struct {
	Name        *string    `json:"name"`
	ARRUSD      *float64   `json:"arr_usd"`
	RenewalDate *time.Time `json:"renewal_date"`
	IsSatisfied *bool      `json:"is_satisfied"`
	IsAtRisk    *bool      `json:"is_at_risk"`
	LogoURL     *string    `json:"logo_url"`
	Notes       *string    `json:"notes"`
}

// UpdateCustomer applies a partial update. The satisfaction and risk
// flags are operator-set booleans, never derived from task data.
func (s *Service) UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (*CustomerView, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.ARRUSD != nil {
		c.ARRUSD = *patch.ARRUSD
	}
	if patch.RenewalDate != nil {
		c.RenewalDate = patch.RenewalDate
	}
	if patch.IsSatisfied != nil {
		c.IsSatisfied = *patch.IsSatisfied
	}
	if patch.IsAtRisk != nil {
		c.IsAtRisk = *patch.IsAtRisk
	}
	if patch.LogoURL != nil {
		c.LogoURL = *patch.LogoURL
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}

	if err := s.customers.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	s.invalidateDashboard(ctx)
	v := s.view(*c)
	return &v, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *Service) AddContact(ctx context.Context, ct *model.Contact) error {
	ct.ID = uuid.NewString()
	return s.customers.AddContact(ctx, ct)
}

func (s *Service) DeleteContact(ctx context.Context, customerID, contactID string) error {
	return s.customers.DeleteContact(ctx, customerID, contactID)
}

// CustomerTasks returns a customer's active tasks in urgency order.
func (s *Service) CustomerTasks(ctx context.Context, customerID string) ([]model.Task, error) {
	tasks, err := s.tasks.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	active := tasks[:0]
	for _, t := range tasks {
		if t.Active() {
			active = append(active, t)
		}
	}
	return priority.SortTasks(active, s.now()), nil
}

// CreateTask stores a new task. Missing priority defaults to medium,
// missing status to pending.
func (s *Service) CreateTask(ctx context.Context, t *model.Task) error {
	t.ID = uuid.NewString()
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	if t.Source == "" {
		t.Source = model.TaskSourceManual
	}
	if !validStatus(t.Status) {
		return ErrInvalidStatus
	}
	if t.Status == model.StatusCompleted && t.CompletedAt == nil {
		now := s.now()
		t.CompletedAt = &now
	}

	if err := s.tasks.Insert(ctx, t); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	metrics.IncrementTaskCreated(t.Source)
	s.invalidateDashboard(ctx)
	return nil
}

// TaskPatch carries field-level updates; nil means leave unchanged.
type TaskPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *string    `json:"priority"`
	Status      *string    `json:"status"`
}

// UpdateTask applies a partial update. Status changes go through the
// transition rules: entering completed stamps completed_at, leaving
// completed clears it.
func (s *Service) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*model.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Status != nil {
		if !validStatus(*patch.Status) {
			return nil, ErrInvalidStatus
		}
		s.applyStatus(t, *patch.Status)
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	s.invalidateDashboard(ctx)
	return t, nil
}

// ToggleTaskCompletion flips a task between completed and pending.
// The "mark complete" UI action is a toggle: completing a completed
// task reopens it.
func (s *Service) ToggleTaskCompletion(ctx context.Context, id string) (*model.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if t.Status == model.StatusCompleted {
		s.applyStatus(t, model.StatusPending)
	} else {
		s.applyStatus(t, model.StatusCompleted)
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	s.invalidateDashboard(ctx)
	return t, nil
}

// applyStatus keeps completed_at in sync with status: present iff the
// task is completed.
func (s *Service) applyStatus(t *model.Task, status string) {
	entering := status == model.StatusCompleted && t.Status != model.StatusCompleted
	leaving := status != model.StatusCompleted && t.Status == model.StatusCompleted

	t.Status = status
	if entering {
		now := s.now()
		t.CompletedAt = &now
	} else if leaving {
		t.CompletedAt = nil
	}
}

func validStatus(status string) bool {
	switch status {
	case model.StatusPending, model.StatusInProgress, model.StatusCompleted:
		return true
	}
	return false
}

func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

// Dashboard ranks customers by urgency, serving from the redis cache
// when a fresh snapshot exists. Cache keys are versioned; task and
// customer writes bump the version instead of scanning for keys.
func (s *Service) Dashboard(ctx context.Context, query string) ([]priority.RankedCustomer, error) {
	key := s.dashboardKey(ctx, query)

	if key != "" {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var ranked []priority.RankedCustomer
			if json.Unmarshal([]byte(cached), &ranked) == nil {
				return ranked, nil
			}
		}
	}

	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	ranked := priority.RankCustomers(customers, tasks, query, s.now())

	if key != "" {
		if data, err := json.Marshal(ranked); err == nil {
			if err := s.rdb.Set(ctx, key, data, dashboardCacheTTL).Err(); err != nil {
				s.logger.Warn("Failed to cache dashboard snapshot", zap.Error(err))
			}
		}
	}

	return ranked, nil
}

func (s *Service) dashboardKey(ctx context.Context, query string) string {
	if s.rdb == nil {
		return ""
	}
	ver, err := s.rdb.Get(ctx, dashboardVersionKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return ""
		}
		ver = "0"
	}
	return fmt.Sprintf("dashboard:urgent:v%s:q:%s", ver, strings.ToLower(strings.TrimSpace(query)))
}

func (s *Service) invalidateDashboard(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Incr(ctx, dashboardVersionKey).Err(); err != nil {
		s.logger.Warn("Failed to invalidate dashboard cache", zap.Error(err))
	}
}
