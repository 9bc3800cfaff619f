package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"markline/backend/internal/model"
	"markline/backend/internal/repository"
	"markline/backend/internal/state"
)

// ── mock OrderRepository ──

type mockOrderRepo struct {
	orders map[uint]*model.Order
	nextID uint
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uint]*model.Order), nextID: 1}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	if order.ID == 0 {
		order.ID = m.nextID
		m.nextID++
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uint) (*model.Order, error) {
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrderRepo) List(_ context.Context, offset, limit int) ([]model.Order, int64, error) {
	ids := make([]int, 0, len(m.orders))
	for id := range m.orders {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	var result []model.Order
	for i, id := range ids {
		if i < offset || len(result) >= limit {
			continue
		}
		result = append(result, *m.orders[uint(id)])
	}
	return result, int64(len(m.orders)), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uint, status string) error {
	o, ok := m.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	return nil
}

// ── mock PassRepository ──

type mockPassRepo struct {
	passes map[uint]*model.Pass
	nextID uint
}

func newMockPassRepo() *mockPassRepo {
	return &mockPassRepo{passes: make(map[uint]*model.Pass), nextID: 1}
}

func (m *mockPassRepo) BatchCreate(_ context.Context, passes []*model.Pass) error {
	for _, p := range passes {
		if p.ID == 0 {
			p.ID = m.nextID
			m.nextID++
		}
		m.passes[p.ID] = p
	}
	return nil
}

func (m *mockPassRepo) GetByID(_ context.Context, id uint) (*model.Pass, error) {
	if p, ok := m.passes[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPassRepo) GetByToken(_ context.Context, token string) (*model.Pass, error) {
	for _, p := range m.passes {
		if p.AccessToken == token && p.Active {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPassRepo) ListByOrder(_ context.Context, orderID uint) ([]model.Pass, error) {
	ids := make([]int, 0, len(m.passes))
	for id, p := range m.passes {
		if p.OrderID == orderID {
			ids = append(ids, int(id))
		}
	}
	sort.Ints(ids)
	result := make([]model.Pass, 0, len(ids))
	for _, id := range ids {
		result = append(result, *m.passes[uint(id)])
	}
	return result, nil
}

func (m *mockPassRepo) Senior(_ context.Context, orderID uint) (*model.Pass, error) {
	var senior *model.Pass
	for _, p := range m.passes {
		if p.OrderID != orderID || !p.Active {
			continue
		}
		if senior == nil || p.ID < senior.ID {
			senior = p
		}
	}
	if senior == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return senior, nil
}

// ── mock WorkSessionRepository ──

type mockWorkSessionRepo struct {
	sessions map[uint]*model.WorkSession
	nextID   uint
}

func newMockWorkSessionRepo() *mockWorkSessionRepo {
	return &mockWorkSessionRepo{sessions: make(map[uint]*model.WorkSession), nextID: 1}
}

func (m *mockWorkSessionRepo) Create(_ context.Context, session *model.WorkSession) error {
	if session.ID == 0 {
		session.ID = m.nextID
		m.nextID++
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *mockWorkSessionRepo) GetByID(_ context.Context, id uint) (*model.WorkSession, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkSessionRepo) Finish(_ context.Context, id uint, endedAt time.Time) error {
	s, ok := m.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if s.EndedAt == nil {
		s.EndedAt = &endedAt
	}
	return nil
}

// ── mock AggregationRepository ──

type mockAggregationRepo struct {
	mu            sync.Mutex // scans from different passes run concurrently
	rows          []model.Aggregation
	nextID        uint
	failure       error // forced error for every call
	insertFailure error // forced error for InsertBatch only
}

func newMockAggregationRepo() *mockAggregationRepo {
	return &mockAggregationRepo{nextID: 1}
}

func (m *mockAggregationRepo) InsertBatch(_ context.Context, batch *repository.AggregationBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	if m.insertFailure != nil {
		return m.insertFailure
	}
	for _, row := range m.rows {
		if row.OrderID != batch.OrderID {
			continue
		}
		if row.ParentCode == batch.ParentCode {
			return repository.ErrDuplicateParent
		}
	}
	for _, child := range batch.Children {
		for _, row := range m.rows {
			if row.OrderID == batch.OrderID && row.ChildCode == child {
				return repository.ErrDuplicateChild
			}
		}
	}
	for _, child := range batch.Children {
		m.rows = append(m.rows, model.Aggregation{
			ID:         m.nextID,
			OrderID:    batch.OrderID,
			PassID:     batch.PassID,
			SessionID:  batch.SessionID,
			ChildCode:  child,
			ChildType:  batch.ChildType,
			ParentCode: batch.ParentCode,
			ParentType: batch.ParentType,
			CreatedAt:  time.Now(),
		})
		m.nextID++
	}
	return nil
}

func (m *mockAggregationRepo) ExistsAsChild(_ context.Context, orderID uint, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return false, m.failure
	}
	for _, row := range m.rows {
		if row.OrderID == orderID && row.ChildCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAggregationRepo) ExistsAsParent(_ context.Context, orderID uint, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return false, m.failure
	}
	for _, row := range m.rows {
		if row.OrderID == orderID && row.ParentCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAggregationRepo) UndoLastByPass(_ context.Context, orderID, passID uint) (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return "", 0, m.failure
	}
	var latest *model.Aggregation
	for i := range m.rows {
		row := &m.rows[i]
		if row.OrderID != orderID || row.PassID != passID {
			continue
		}
		if latest == nil || row.ID > latest.ID {
			latest = row
		}
	}
	if latest == nil {
		return "", 0, nil
	}
	return m.deleteByParent(orderID, latest.ParentCode)
}

func (m *mockAggregationRepo) DeleteByParent(_ context.Context, orderID uint, parentCode string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return 0, m.failure
	}
	_, n, err := m.deleteByParent(orderID, parentCode)
	return n, err
}

func (m *mockAggregationRepo) deleteByParent(orderID uint, parentCode string) (string, int64, error) {
	var kept []model.Aggregation
	var removed int64
	for _, row := range m.rows {
		if row.OrderID == orderID && row.ParentCode == parentCode {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return parentCode, removed, nil
}

func (m *mockAggregationRepo) ListByOrder(_ context.Context, orderID uint) ([]model.Aggregation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return nil, m.failure
	}
	var result []model.Aggregation
	for _, row := range m.rows {
		if row.OrderID == orderID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *mockAggregationRepo) countByParent(orderID uint, parentCode string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, row := range m.rows {
		if row.OrderID == orderID && row.ParentCode == parentCode {
			n++
		}
	}
	return n
}

// ── in-memory session store ──

// memStore implements state.Store for tests; failure forces every call
// to error like a dropped Redis connection.
type memStore struct {
	mu      sync.Mutex // employee states are hit from concurrent passes
	states  map[uint]*state.EmployeeState
	locks   map[uint]bool
	modes   map[uint]state.Mode
	models  map[uint]*state.CodeModel
	toCheck map[uint]map[string]struct{}
	okSet   map[uint]map[string]struct{}
	errSet  map[uint]map[string]struct{}
	pending map[uint]string
	serials map[uint]int64
	failure error
}

func newMemStore() *memStore {
	return &memStore{
		states:  make(map[uint]*state.EmployeeState),
		locks:   make(map[uint]bool),
		modes:   make(map[uint]state.Mode),
		models:  make(map[uint]*state.CodeModel),
		toCheck: make(map[uint]map[string]struct{}),
		okSet:   make(map[uint]map[string]struct{}),
		errSet:  make(map[uint]map[string]struct{}),
		pending: make(map[uint]string),
		serials: make(map[uint]int64),
	}
}

func (m *memStore) GetEmployeeState(_ context.Context, passID uint) (*state.EmployeeState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return nil, m.failure
	}
	return m.states[passID], nil
}

func (m *memStore) SaveEmployeeState(_ context.Context, passID uint, st *state.EmployeeState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	m.states[passID] = st
	return nil
}

func (m *memStore) ClearEmployeeState(_ context.Context, passID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	delete(m.states, passID)
	return nil
}

func (m *memStore) AcquireSessionLock(_ context.Context, passID uint) (bool, error) {
	if m.failure != nil {
		return false, m.failure
	}
	if m.locks[passID] {
		return false, nil
	}
	m.locks[passID] = true
	return true, nil
}

func (m *memStore) ReleaseSessionLock(_ context.Context, passID uint) error {
	if m.failure != nil {
		return m.failure
	}
	delete(m.locks, passID)
	return nil
}

func (m *memStore) GetOrderMode(_ context.Context, orderID uint) (state.Mode, error) {
	if m.failure != nil {
		return "", m.failure
	}
	mode, ok := m.modes[orderID]
	if !ok {
		return state.ModeOperational, nil
	}
	return mode, nil
}

func (m *memStore) SetOrderMode(_ context.Context, orderID uint, mode state.Mode) error {
	if m.failure != nil {
		return m.failure
	}
	m.modes[orderID] = mode
	return nil
}

func (m *memStore) GetCodeModel(_ context.Context, orderID uint) (*state.CodeModel, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	return m.models[orderID], nil
}

func (m *memStore) SaveCodeModel(_ context.Context, orderID uint, mdl *state.CodeModel) error {
	if m.failure != nil {
		return m.failure
	}
	m.models[orderID] = mdl
	return nil
}

func (m *memStore) ReplaceSetsToCheck(_ context.Context, orderID uint, codes []string) error {
	if m.failure != nil {
		return m.failure
	}
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	m.toCheck[orderID] = set
	m.okSet[orderID] = make(map[string]struct{})
	m.errSet[orderID] = make(map[string]struct{})
	return nil
}

func (m *memStore) IsSetToCheck(_ context.Context, orderID uint, code string) (bool, error) {
	if m.failure != nil {
		return false, m.failure
	}
	_, ok := m.toCheck[orderID][code]
	return ok, nil
}

func (m *memStore) ConfirmErrorSet(_ context.Context, orderID, passID uint, code string) error {
	if m.failure != nil {
		return m.failure
	}
	delete(m.toCheck[orderID], code)
	if m.errSet[orderID] == nil {
		m.errSet[orderID] = make(map[string]struct{})
	}
	m.errSet[orderID][code] = struct{}{}
	delete(m.pending, passID)
	return nil
}

func (m *memStore) AddScannedOK(_ context.Context, orderID uint, code string) error {
	if m.failure != nil {
		return m.failure
	}
	if m.okSet[orderID] == nil {
		m.okSet[orderID] = make(map[string]struct{})
	}
	m.okSet[orderID][code] = struct{}{}
	return nil
}

func (m *memStore) CorrectionStats(_ context.Context, orderID uint) (*state.CorrectionStats, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	return &state.CorrectionStats{
		Remaining:    int64(len(m.toCheck[orderID])),
		ScannedOK:    int64(len(m.okSet[orderID])),
		ScannedError: int64(len(m.errSet[orderID])),
	}, nil
}

func (m *memStore) CorrectionSets(_ context.Context, orderID uint) (remaining, ok, errored []string, err error) {
	if m.failure != nil {
		return nil, nil, nil, m.failure
	}
	return keys(m.toCheck[orderID]), keys(m.okSet[orderID]), keys(m.errSet[orderID]), nil
}

func (m *memStore) ClearCorrection(_ context.Context, orderID uint) error {
	if m.failure != nil {
		return m.failure
	}
	delete(m.toCheck, orderID)
	delete(m.okSet, orderID)
	delete(m.errSet, orderID)
	return nil
}

func (m *memStore) SetPendingConfirm(_ context.Context, passID uint, code string) error {
	if m.failure != nil {
		return m.failure
	}
	m.pending[passID] = code
	return nil
}

func (m *memStore) GetPendingConfirm(_ context.Context, passID uint) (string, error) {
	if m.failure != nil {
		return "", m.failure
	}
	return m.pending[passID], nil
}

func (m *memStore) ClearPendingConfirm(_ context.Context, passID uint) error {
	if m.failure != nil {
		return m.failure
	}
	delete(m.pending, passID)
	return nil
}

func (m *memStore) NextSSCCSerial(_ context.Context, orderID uint) (int64, error) {
	if m.failure != nil {
		return 0, m.failure
	}
	m.serials[orderID]++
	return m.serials[orderID], nil
}

func keys(set map[string]struct{}) []string {
	result := make([]string, 0, len(set))
	for k := range set {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// ── shared fixtures ──

const (
	productFamily = "0104600000000001" // 16-char product prefix
	setFamily     = "0104600000009999" // 16-char set prefix
	seniorBadge   = "badge-senior"
	workerBadge   = "badge-worker"
)

func productCode(n int) string { return fmt.Sprintf("%s21PROD%04d", productFamily, n) }
func setCode(n int) string     { return fmt.Sprintf("%s21SET%05d", setFamily, n) }

func trainedModel() *state.CodeModel {
	return &state.CodeModel{
		ProductPrefixes:    []string{productFamily},
		SetPrefixes:        []string{setFamily},
		LearningSuccessful: true,
	}
}

type testRepos struct {
	order       *mockOrderRepo
	pass        *mockPassRepo
	workSession *mockWorkSessionRepo
	aggregation *mockAggregationRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		order:       newMockOrderRepo(),
		pass:        newMockPassRepo(),
		workSession: newMockWorkSessionRepo(),
		aggregation: newMockAggregationRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		Order:       r.order,
		Pass:        r.pass,
		WorkSession: r.workSession,
		Aggregation: r.aggregation,
	}
}

// seedOrder creates an active order with the given levels plus a senior
// pass (id 1) and a worker pass (id 2).
func seedOrder(repos *testRepos, levels []string, setCapacity *int) *model.Order {
	order := &model.Order{
		Client:        "JSC Pharmstandard",
		Levels:        model.StringArray(levels),
		EmployeeCount: 2,
		SetCapacity:   setCapacity,
		Status:        model.OrderStatusActive,
	}
	_ = repos.order.Create(context.Background(), order)
	_ = repos.pass.BatchCreate(context.Background(), []*model.Pass{
		{OrderID: order.ID, AccessToken: seniorBadge, Active: true},
		{OrderID: order.ID, AccessToken: workerBadge, Active: true},
	})
	return order
}
