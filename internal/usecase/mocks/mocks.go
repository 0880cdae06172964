package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/usecase"
)

// The Fake types below are in-memory implementations with overridable Func
// fields. Writes made through a *FakeTransaction are undone on rollback.

// FakeWeekRepository is an in-memory WeekRepository.
type FakeWeekRepository struct {
	mu    sync.RWMutex
	weeks map[string]*domain.Week

	CreateFunc  func(ctx context.Context, tx usecase.Transaction, week *domain.Week) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Week, error)
	ListFunc    func(ctx context.Context) ([]domain.Week, error)
}

func NewFakeWeekRepository() *FakeWeekRepository {
	return &FakeWeekRepository{
		weeks: make(map[string]*domain.Week),
	}
}

func (m *FakeWeekRepository) Create(ctx context.Context, tx usecase.Transaction, week *domain.Week) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, week)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w := *week
	m.weeks[week.ID] = &w
	onRollback(tx, func() {
		m.mu.Lock()
		delete(m.weeks, week.ID)
		m.mu.Unlock()
	})
	return nil
}

func (m *FakeWeekRepository) GetByID(ctx context.Context, id string) (*domain.Week, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.weeks[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, domain.ErrWeekNotFound
}

func (m *FakeWeekRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Week, error) {
	return m.GetByID(ctx, id)
}

func (m *FakeWeekRepository) UpdatePercentage(ctx context.Context, tx usecase.Transaction, id string, percentage decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.weeks[id]
	if !ok {
		return domain.ErrWeekNotFound
	}
	prev := w.Percentage
	w.Percentage = percentage
	onRollback(tx, func() {
		m.mu.Lock()
		w.Percentage = prev
		m.mu.Unlock()
	})
	return nil
}

func (m *FakeWeekRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.weeks[id]
	if !ok {
		return domain.ErrWeekNotFound
	}
	delete(m.weeks, id)
	onRollback(tx, func() {
		m.mu.Lock()
		m.weeks[id] = w
		m.mu.Unlock()
	})
	return nil
}

func (m *FakeWeekRepository) List(ctx context.Context) ([]domain.Week, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	weeks := make([]domain.Week, 0, len(m.weeks))
	for _, w := range m.weeks {
		weeks = append(weeks, *w)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if !weeks[i].StartDate.Equal(weeks[j].StartDate) {
			return weeks[i].StartDate.Before(weeks[j].StartDate)
		}
		return weeks[i].WeekNumber < weeks[j].WeekNumber
	})
	return weeks, nil
}

func (m *FakeWeekRepository) ListTx(ctx context.Context, tx usecase.Transaction) ([]domain.Week, error) {
	return m.List(ctx)
}

func (m *FakeWeekRepository) MaxWeekNumber(ctx context.Context, tx usecase.Transaction) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	maxNumber := 0
	for _, w := range m.weeks {
		if w.WeekNumber > maxNumber {
			maxNumber = w.WeekNumber
		}
	}
	return maxNumber, nil
}

// FakeLedgerRepository is an in-memory LedgerRepository.
type FakeLedgerRepository struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry

	AppendFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
}

func NewFakeLedgerRepository() *FakeLedgerRepository {
	return &FakeLedgerRepository{}
}

func (m *FakeLedgerRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	id := entry.ID
	onRollback(tx, func() { m.remove(func(e *domain.LedgerEntry) bool { return e.ID == id }) })
	return nil
}

func (m *FakeLedgerRepository) List(ctx context.Context, pool *domain.Pool, limit, offset int) ([]domain.LedgerEntry, error) {
	all, _ := m.ListTx(ctx, nil)
	out := make([]domain.LedgerEntry, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if pool == nil || all[i].Pool == *pool {
			out = append(out, all[i])
		}
	}
	if offset >= len(out) {
		return []domain.LedgerEntry{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *FakeLedgerRepository) ListTx(ctx context.Context, tx usecase.Transaction) ([]domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *FakeLedgerRepository) Totals(ctx context.Context, pool domain.Pool) (*usecase.LedgerTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t := &usecase.LedgerTotals{Deposits: decimal.Zero, Withdrawals: decimal.Zero, Fees: decimal.Zero}
	for _, e := range m.entries {
		if e.Pool != pool {
			continue
		}
		switch e.Kind {
		case domain.KindDeposit:
			t.Deposits = t.Deposits.Add(e.Amount)
		case domain.KindWithdrawal:
			t.Withdrawals = t.Withdrawals.Add(e.Amount)
		case domain.KindPerformanceFee:
			t.Fees = t.Fees.Add(e.Amount)
		}
	}
	return t, nil
}

// replaceFees swaps every engine-written entry for fees.
func (m *FakeLedgerRepository) replaceFees(tx usecase.Transaction, fees []domain.LedgerEntry) {
	m.mu.Lock()
	prev := make([]domain.LedgerEntry, len(m.entries))
	copy(prev, m.entries)
	kept := m.entries[:0:0]
	for _, e := range m.entries {
		if !e.IsEngineOutput() {
			kept = append(kept, e)
		}
	}
	m.entries = append(kept, fees...)
	m.mu.Unlock()

	onRollback(tx, func() {
		m.mu.Lock()
		m.entries = prev
		m.mu.Unlock()
	})
}

func (m *FakeLedgerRepository) remove(match func(*domain.LedgerEntry) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0:0]
	for i := range m.entries {
		if !match(&m.entries[i]) {
			kept = append(kept, m.entries[i])
		}
	}
	m.entries = kept
}

// FakeResultRepository is an in-memory ResultRepository. Fee entries are
// written to Ledger when set.
type FakeResultRepository struct {
	mu      sync.RWMutex
	state   domain.StoredState
	results []domain.WeeklyResult

	Ledger *FakeLedgerRepository

	LockFunc    func(ctx context.Context, tx usecase.Transaction) error
	ReplaceFunc func(ctx context.Context, tx usecase.Transaction, expected int64, out *usecase.Persisted) (int64, error)
}

func NewFakeResultRepository(ledger *FakeLedgerRepository) *FakeResultRepository {
	return &FakeResultRepository{
		Ledger: ledger,
		state: domain.StoredState{FinancialState: domain.FinancialState{
			CapitalBalance:  decimal.Zero,
			OperatorBalance: decimal.Zero,
			HWM:             decimal.Zero,
		}},
	}
}

func (m *FakeResultRepository) Lock(ctx context.Context, tx usecase.Transaction) error {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, tx)
	}
	return nil
}

func (m *FakeResultRepository) GetState(ctx context.Context) (*domain.StoredState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	return &s, nil
}

func (m *FakeResultRepository) GetStateTx(ctx context.Context, tx usecase.Transaction) (*domain.StoredState, error) {
	return m.GetState(ctx)
}

func (m *FakeResultRepository) ListResults(ctx context.Context) ([]domain.WeeklyResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.WeeklyResult, len(m.results))
	copy(out, m.results)
	return out, nil
}

func (m *FakeResultRepository) ListResultsTx(ctx context.Context, tx usecase.Transaction) ([]domain.WeeklyResult, error) {
	return m.ListResults(ctx)
}

func (m *FakeResultRepository) Replace(ctx context.Context, tx usecase.Transaction, expected int64, out *usecase.Persisted) (int64, error) {
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(ctx, tx, expected, out)
	}

	m.mu.Lock()
	if m.state.Generation != expected {
		actual := m.state.Generation
		m.mu.Unlock()
		return 0, &domain.ConsistencyError{Expected: expected, Actual: actual}
	}

	prevState, prevResults := m.state, m.results
	m.results = append([]domain.WeeklyResult(nil), out.Results...)
	m.state = domain.StoredState{
		FinancialState: out.State,
		Generation:     expected + 1,
		SettledAt:      out.SettledAt,
	}
	generation := m.state.Generation
	m.mu.Unlock()

	onRollback(tx, func() {
		m.mu.Lock()
		m.state, m.results = prevState, prevResults
		m.mu.Unlock()
	})

	if m.Ledger != nil {
		m.Ledger.replaceFees(tx, out.FeeEntries)
	}

	return generation, nil
}

// SetState overwrites the stored state, for drift tests.
func (m *FakeResultRepository) SetState(state domain.StoredState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// FakeOutboxRepository is an in-memory OutboxRepository.
type FakeOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent
}

func NewFakeOutboxRepository() *FakeOutboxRepository {
	return &FakeOutboxRepository{}
}

func (m *FakeOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	id := event.ID
	onRollback(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		kept := m.events[:0:0]
		for _, e := range m.events {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		m.events = kept
	})
	return nil
}

func (m *FakeOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *FakeOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
		}
	}
	return nil
}

func (m *FakeOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0:0]
	for _, e := range m.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// Events returns every stored event.
func (m *FakeOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

// FakeTransactionManager hands out FakeTransactions.
type FakeTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu        sync.Mutex
	Begun     int
	Committed int
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	m.Begun++
	m.mu.Unlock()
	return &FakeTransaction{manager: m}, nil
}

// FakeTransaction records undo steps and replays them on rollback.
type FakeTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	manager *FakeTransactionManager
	mu      sync.Mutex
	undo    []func()
	done    bool
}

func (m *FakeTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = true
	m.undo = nil
	if m.manager != nil {
		m.manager.mu.Lock()
		m.manager.Committed++
		m.manager.mu.Unlock()
	}
	return nil
}

func (m *FakeTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.mu.Lock()
	undo := m.undo
	m.undo = nil
	done := m.done
	m.done = true
	m.mu.Unlock()
	if done {
		return nil
	}
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	return nil
}

func onRollback(tx usecase.Transaction, f func()) {
	ft, ok := tx.(*FakeTransaction)
	if !ok {
		return
	}
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.undo = append(ft.undo, f)
}

// FakeIDGenerator returns sequential ids.
type FakeIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewFakeIDGenerator() *FakeIDGenerator {
	return &FakeIDGenerator{}
}

func (m *FakeIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%04d", m.counter)
}

// FakeCache is an in-memory Cache without expiry.
type FakeCache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewFakeCache() *FakeCache {
	return &FakeCache{data: make(map[string][]byte)}
}

func (m *FakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *FakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *FakeCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// FakeIdempotencyStore is an in-memory IdempotencyStore.
type FakeIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewFakeIdempotencyStore() *FakeIdempotencyStore {
	return &FakeIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *FakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *FakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *FakeIdempotencyStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
