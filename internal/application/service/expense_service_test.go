package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/domain/event"
)

// memExpenseRepo is an in-memory ExpenseRepository; the func fields override individual calls
type memExpenseRepo struct {
	mu       sync.Mutex
	expenses map[string]*entity.Expense
	users    map[string]*entity.User

	findByIDFunc func(ctx context.Context, id string) (*entity.Expense, error)
	updateFunc   func(ctx context.Context, expense *entity.Expense) error
	createFunc   func(ctx context.Context, expense *entity.Expense) error
}

func newMemExpenseRepo() *memExpenseRepo {
	return &memExpenseRepo{
		expenses: make(map[string]*entity.Expense),
		users:    make(map[string]*entity.User),
	}
}

func (m *memExpenseRepo) put(e *entity.Expense) *entity.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *e
	m.expenses[e.ID] = &clone
	return e
}

func (m *memExpenseRepo) stored(id string) *entity.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expenses[id]
}

func (m *memExpenseRepo) FindByID(ctx context.Context, id string) (*entity.Expense, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

func (m *memExpenseRepo) FindMany(ctx context.Context, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*entity.Expense{}
	for _, e := range m.expenses {
		if filter.OwnerID != "" && e.OwnerID != filter.OwnerID {
			continue
		}
		clone := *e
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memExpenseRepo) FindAllWithOwner(ctx context.Context) ([]*entity.ExpenseWithOwner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*entity.ExpenseWithOwner{}
	for _, e := range m.expenses {
		row := &entity.ExpenseWithOwner{Expense: *e}
		if u, ok := m.users[e.OwnerID]; ok {
			row.OwnerEmail = u.Email
			row.OwnerRole = u.Role
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memExpenseRepo) Create(ctx context.Context, expense *entity.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, expense)
	}
	m.put(expense)
	return nil
}

func (m *memExpenseRepo) Update(ctx context.Context, expense *entity.Expense) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, expense)
	}
	m.put(expense)
	return nil
}

func (m *memExpenseRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expenses, id)
	return nil
}

type mockTxManager struct {
	calls               int
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, evt *event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

const (
	ownerID = "user-1"
	otherID = "user-2"
	adminID = "admin-1"
)

func strPtr(s string) *string { return &s }

func newTestExpenseService(t *testing.T) (ExpenseService, *memExpenseRepo, *recordingPublisher) {
	t.Helper()
	repo := newMemExpenseRepo()
	pub := &recordingPublisher{}
	svc := NewExpenseService(repo, &mockTxManager{}, pub, &mockLogger{}, ExpenseServiceConfig{})
	return svc, repo, pub
}

func seedExpense(repo *memExpenseRepo, id, owner, status string) *entity.Expense {
	return repo.put(&entity.Expense{
		ID:      id,
		OwnerID: owner,
		Amount:  decimal.RequireFromString("42.50"),
		Date:    time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		Vendor:  strPtr("Starbucks"),
		Status:  status,
	})
}

func TestExpenseService_Create(t *testing.T) {
	tests := []struct {
		name       string
		input      CreateExpenseInput
		wantStatus string
		wantErr    error
	}{
		{
			name:       "defaults to draft",
			input:      CreateExpenseInput{OwnerID: ownerID, Amount: decimal.NewFromInt(10), Date: "2024-02-05"},
			wantStatus: entity.StatusDraft,
		},
		{
			name:       "submit directly",
			input:      CreateExpenseInput{OwnerID: ownerID, Amount: decimal.NewFromInt(10), Date: "2024-02-05", Status: entity.StatusSubmitted},
			wantStatus: entity.StatusSubmitted,
		},
		{
			name:       "timestamp date keeps calendar day",
			input:      CreateExpenseInput{OwnerID: ownerID, Amount: decimal.NewFromInt(10), Date: "2024-02-05T18:30:00Z"},
			wantStatus: entity.StatusDraft,
		},
		{
			name:    "approved at creation",
			input:   CreateExpenseInput{OwnerID: ownerID, Amount: decimal.NewFromInt(10), Date: "2024-02-05", Status: entity.StatusApproved},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "revision requested at creation",
			input:   CreateExpenseInput{OwnerID: ownerID, Amount: decimal.NewFromInt(10), Date: "2024-02-05", Status: entity.StatusRevisionRequested},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "zero amount",
			input:   CreateExpenseInput{OwnerID: ownerID, Amount: decimal.Zero, Date: "2024-02-05"},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			input:   CreateExpenseInput{OwnerID: ownerID, Amount: decimal.NewFromInt(-3), Date: "2024-02-05"},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "unparseable date",
			input:   CreateExpenseInput{OwnerID: ownerID, Amount: decimal.NewFromInt(10), Date: "05/02/2024"},
			wantErr: ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestExpenseService(t)

			got, err := svc.Create(context.Background(), tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, "2024-02-05", got.DateString())
			assert.Equal(t, ownerID, got.OwnerID)
			assert.NotNil(t, repo.stored(got.ID))
		})
	}
}

func TestExpenseService_CreateErrorMessageNamesStatuses(t *testing.T) {
	svc, _, _ := newTestExpenseService(t)

	_, err := svc.Create(context.Background(), CreateExpenseInput{
		OwnerID: ownerID, Amount: decimal.NewFromInt(1), Date: "2024-01-01", Status: entity.StatusApproved,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only DRAFT or SUBMITTED status can be set during creation")
}

func TestExpenseService_CreateSubmittedPublishesBothEvents(t *testing.T) {
	svc, _, pub := newTestExpenseService(t)

	_, err := svc.Create(context.Background(), CreateExpenseInput{
		OwnerID: ownerID, Amount: decimal.NewFromInt(1), Date: "2024-01-01", Status: entity.StatusSubmitted,
	})
	require.NoError(t, err)
	assert.Equal(t, []event.Type{event.TypeExpenseCreated, event.TypeExpenseSubmitted}, pub.types())
}

func TestExpenseService_Update(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		actor      string
		fields     entity.ExpenseUpdate
		wantStatus string
		wantErr    error
	}{
		{
			name:       "edit draft vendor",
			status:     entity.StatusDraft,
			actor:      ownerID,
			fields:     entity.ExpenseUpdate{Vendor: strPtr("Costa")},
			wantStatus: entity.StatusDraft,
		},
		{
			name:       "edit and submit in one step",
			status:     entity.StatusDraft,
			actor:      ownerID,
			fields:     entity.ExpenseUpdate{Status: strPtr(entity.StatusSubmitted)},
			wantStatus: entity.StatusSubmitted,
		},
		{
			name:       "revision requested stays editable",
			status:     entity.StatusRevisionRequested,
			actor:      ownerID,
			fields:     entity.ExpenseUpdate{Description: strPtr("fixed")},
			wantStatus: entity.StatusRevisionRequested,
		},
		{
			name:       "revision requested saved as draft",
			status:     entity.StatusRevisionRequested,
			actor:      ownerID,
			fields:     entity.ExpenseUpdate{Status: strPtr(entity.StatusDraft)},
			wantStatus: entity.StatusDraft,
		},
		{
			name:    "other user",
			status:  entity.StatusDraft,
			actor:   otherID,
			fields:  entity.ExpenseUpdate{Vendor: strPtr("x")},
			wantErr: ErrNotFoundOrUnauthorized,
		},
		{
			name:    "submitted is locked",
			status:  entity.StatusSubmitted,
			actor:   ownerID,
			fields:  entity.ExpenseUpdate{Vendor: strPtr("x")},
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "approved is locked",
			status:  entity.StatusApproved,
			actor:   ownerID,
			fields:  entity.ExpenseUpdate{Vendor: strPtr("x")},
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "cannot self approve",
			status:  entity.StatusDraft,
			actor:   ownerID,
			fields:  entity.ExpenseUpdate{Status: strPtr(entity.StatusApproved)},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "bad amount",
			status:  entity.StatusDraft,
			actor:   ownerID,
			fields:  entity.ExpenseUpdate{Amount: func() *decimal.Decimal { d := decimal.Zero; return &d }()},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "bad date",
			status:  entity.StatusDraft,
			actor:   ownerID,
			fields:  entity.ExpenseUpdate{Date: strPtr("tomorrow")},
			wantErr: ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestExpenseService(t)
			seedExpense(repo, "exp-1", ownerID, tt.status)

			got, err := svc.Update(context.Background(), "exp-1", tt.actor, tt.fields)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.status, repo.stored("exp-1").Status, "stored status must not change")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantStatus, repo.stored("exp-1").Status)
		})
	}
}

func TestExpenseService_UpdateMissingExpense(t *testing.T) {
	svc, _, _ := newTestExpenseService(t)

	_, err := svc.Update(context.Background(), "missing", ownerID, entity.ExpenseUpdate{Vendor: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)
}

func TestExpenseService_UpdateAppliesFields(t *testing.T) {
	svc, repo, _ := newTestExpenseService(t)
	seedExpense(repo, "exp-1", ownerID, entity.StatusDraft)

	amount := decimal.RequireFromString("99.95")
	got, err := svc.Update(context.Background(), "exp-1", ownerID, entity.ExpenseUpdate{
		Amount:   &amount,
		Date:     strPtr("2024-03-01"),
		Category: strPtr("Travel"),
	})

	require.NoError(t, err)
	assert.True(t, amount.Equal(got.Amount))
	assert.Equal(t, "2024-03-01", got.DateString())
	assert.Equal(t, "Travel", *got.Category)
	assert.Equal(t, "Starbucks", *got.Vendor, "untouched fields survive")
}

func TestExpenseService_UpdateOwnershipCheckedBeforeStatus(t *testing.T) {
	svc, repo, _ := newTestExpenseService(t)
	seedExpense(repo, "exp-1", ownerID, entity.StatusApproved)

	_, err := svc.Update(context.Background(), "exp-1", otherID, entity.ExpenseUpdate{Status: strPtr(entity.StatusApproved)})
	assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)
}

func TestExpenseService_Submit(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		actor   string
		wantErr error
	}{
		{"draft", entity.StatusDraft, ownerID, nil},
		{"revision requested", entity.StatusRevisionRequested, ownerID, nil},
		{"already submitted", entity.StatusSubmitted, ownerID, ErrInvalidTransition},
		{"approved", entity.StatusApproved, ownerID, ErrInvalidTransition},
		{"rejected", entity.StatusRejected, ownerID, ErrInvalidTransition},
		{"not owner", entity.StatusDraft, otherID, ErrNotFoundOrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub := newTestExpenseService(t)
			seedExpense(repo, "exp-1", ownerID, tt.status)

			got, err := svc.Submit(context.Background(), "exp-1", tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, pub.types())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, entity.StatusSubmitted, got.Status)
			assert.Equal(t, []event.Type{event.TypeExpenseSubmitted}, pub.types())
		})
	}
}

func TestExpenseService_SubmitKeepsRejectionReason(t *testing.T) {
	svc, repo, _ := newTestExpenseService(t)
	e := seedExpense(repo, "exp-1", ownerID, entity.StatusRevisionRequested)
	e.RejectionReason = strPtr("missing receipt")
	repo.put(e)

	got, err := svc.Submit(context.Background(), "exp-1", ownerID)
	require.NoError(t, err)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, "missing receipt", *got.RejectionReason)
}

func TestExpenseService_RequestRevision(t *testing.T) {
	t.Run("sets reason and status", func(t *testing.T) {
		svc, repo, pub := newTestExpenseService(t)
		seedExpense(repo, "exp-1", ownerID, entity.StatusSubmitted)

		got, err := svc.RequestRevision(context.Background(), "exp-1", adminID, "attach the receipt")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusRevisionRequested, got.Status)
		require.NotNil(t, got.RejectionReason)
		assert.Equal(t, "attach the receipt", *got.RejectionReason)

		require.Len(t, pub.events, 1)
		evt := pub.events[0]
		assert.Equal(t, event.TypeExpenseRevisionRequested, evt.Type)
		assert.Equal(t, adminID, evt.ActorID)
		assert.Equal(t, "attach the receipt", evt.GetPayloadString(event.KeyReason))
		assert.Equal(t, entity.StatusSubmitted, evt.GetPayloadString(event.KeyPreviousStatus))
	})

	t.Run("reason checked before lookup", func(t *testing.T) {
		svc, _, _ := newTestExpenseService(t)
		_, err := svc.RequestRevision(context.Background(), "missing", adminID, "  ")
		assert.ErrorIs(t, err, ErrMissingReason)
	})

	t.Run("missing expense", func(t *testing.T) {
		svc, _, _ := newTestExpenseService(t)
		_, err := svc.RequestRevision(context.Background(), "missing", adminID, "why")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrNotFoundOrUnauthorized)
	})

	t.Run("only from submitted", func(t *testing.T) {
		for _, status := range []string{entity.StatusDraft, entity.StatusRevisionRequested, entity.StatusApproved, entity.StatusRejected} {
			svc, repo, _ := newTestExpenseService(t)
			seedExpense(repo, "exp-1", ownerID, status)
			_, err := svc.RequestRevision(context.Background(), "exp-1", adminID, "why")
			assert.ErrorIs(t, err, ErrInvalidTransition, status)
		}
	})
}

func TestExpenseService_Approve(t *testing.T) {
	svc, repo, pub := newTestExpenseService(t)
	seedExpense(repo, "exp-1", ownerID, entity.StatusSubmitted)

	got, err := svc.Approve(context.Background(), "exp-1", adminID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, adminID, *got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
	assert.WithinDuration(t, time.Now(), *got.ApprovedAt, time.Minute)
	assert.Equal(t, []event.Type{event.TypeExpenseApproved}, pub.types())

	_, err = svc.Approve(context.Background(), "exp-1", adminID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Approve(context.Background(), "missing", adminID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpenseService_Reject(t *testing.T) {
	svc, repo, _ := newTestExpenseService(t)
	seedExpense(repo, "exp-1", ownerID, entity.StatusSubmitted)

	_, err := svc.Reject(context.Background(), "exp-1", adminID, "")
	assert.ErrorIs(t, err, ErrMissingReason)

	got, err := svc.Reject(context.Background(), "exp-1", adminID, "personal purchase")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, got.Status)
	assert.Equal(t, "personal purchase", *got.RejectionReason)

	_, err = svc.Submit(context.Background(), "exp-1", ownerID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "rejected is terminal")
}

func TestExpenseService_Remove(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		actor   string
		wantErr error
	}{
		{"draft", entity.StatusDraft, ownerID, nil},
		{"rejected", entity.StatusRejected, ownerID, nil},
		{"revision requested", entity.StatusRevisionRequested, ownerID, nil},
		{"submitted", entity.StatusSubmitted, ownerID, ErrInvalidTransition},
		{"approved", entity.StatusApproved, ownerID, ErrInvalidTransition},
		{"not owner", entity.StatusDraft, otherID, ErrNotFoundOrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestExpenseService(t)
			seedExpense(repo, "exp-1", ownerID, tt.status)

			err := svc.Remove(context.Background(), "exp-1", tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NotNil(t, repo.stored("exp-1"))
				return
			}
			require.NoError(t, err)
			assert.Nil(t, repo.stored("exp-1"))

			_, err = svc.Get(context.Background(), "exp-1", ownerID)
			assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)
		})
	}
}

func TestExpenseService_FullRevisionCycle(t *testing.T) {
	svc, _, pub := newTestExpenseService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, CreateExpenseInput{OwnerID: ownerID, Amount: decimal.NewFromInt(15), Date: "2024-02-05"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, e.ID, ownerID)
	require.NoError(t, err)
	_, err = svc.RequestRevision(ctx, e.ID, adminID, "wrong amount")
	require.NoError(t, err)

	amount := decimal.NewFromInt(16)
	_, err = svc.Update(ctx, e.ID, ownerID, entity.ExpenseUpdate{Amount: &amount})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, e.ID, ownerID)
	require.NoError(t, err)

	final, err := svc.Approve(ctx, e.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, final.Status)
	assert.True(t, amount.Equal(final.Amount))

	assert.Equal(t, []event.Type{
		event.TypeExpenseCreated,
		event.TypeExpenseSubmitted,
		event.TypeExpenseRevisionRequested,
		event.TypeExpenseUpdated,
		event.TypeExpenseSubmitted,
		event.TypeExpenseApproved,
	}, pub.types())
}

func TestExpenseService_FindAll(t *testing.T) {
	svc, repo, _ := newTestExpenseService(t)
	seedExpense(repo, "exp-1", ownerID, entity.StatusDraft)
	seedExpense(repo, "exp-2", otherID, entity.StatusDraft)

	got, err := svc.FindAll(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "exp-1", got[0].ID)

	got, err = svc.FindAll(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpenseService_FindAllSeedsDemoData(t *testing.T) {
	repo := newMemExpenseRepo()
	tx := &mockTxManager{}
	svc := NewExpenseService(repo, tx, &recordingPublisher{}, &mockLogger{}, ExpenseServiceConfig{SeedDemoExpenses: true})

	got, err := svc.FindAll(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, entity.StatusSubmitted, got[2].Status)
	assert.Equal(t, "Amazon", *got[2].Vendor)

	again, err := svc.FindAll(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Len(t, again, 3, "seeding only happens once")
	assert.Equal(t, 1, tx.calls)
}

func TestExpenseService_FindAllGlobal(t *testing.T) {
	svc, repo, _ := newTestExpenseService(t)
	repo.users[ownerID] = &entity.User{ID: ownerID, Email: "alice@example.com", Role: entity.RoleEmployee}

	older := seedExpense(repo, "exp-old", ownerID, entity.StatusDraft)
	older.Date = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.put(older)
	seedExpense(repo, "exp-new", ownerID, entity.StatusSubmitted)

	rows, err := svc.FindAllGlobal(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "exp-new", rows[0].ID)
	assert.Equal(t, "alice@example.com", rows[0].OwnerEmail)
}

func TestExpenseService_RepositoryFailure(t *testing.T) {
	svc, repo, pub := newTestExpenseService(t)
	seedExpense(repo, "exp-1", ownerID, entity.StatusDraft)
	dbErr := errors.New("database is locked")
	repo.updateFunc = func(ctx context.Context, expense *entity.Expense) error { return dbErr }

	_, err := svc.Submit(context.Background(), "exp-1", ownerID)
	assert.ErrorIs(t, err, dbErr)
	assert.Empty(t, pub.types())

	repo.findByIDFunc = func(ctx context.Context, id string) (*entity.Expense, error) { return nil, dbErr }
	_, err = svc.Approve(context.Background(), "exp-1", adminID)
	assert.ErrorIs(t, err, dbErr)
}
