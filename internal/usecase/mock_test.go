//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"skyline-store/internal/domain"
	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/adapter"
	"skyline-store/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Repositories
// =============================

// MockSessionRepo is an in-memory PaymentSessionRepository. Assign the
// XxxFunc fields to override individual behaviors.
type MockSessionRepo struct {
	mu         sync.Mutex
	store      map[string]*model.PaymentSession // by ID
	byExternal map[string]string

	SaveFunc             func(ctx context.Context, tx repository.Tx, s *model.PaymentSession) error
	FindByExternalIDFunc func(ctx context.Context, tx repository.Tx, externalID string) (*model.PaymentSession, error)
	MarkTerminalFunc     func(ctx context.Context, tx repository.Tx, id string, status model.SessionStatus) (bool, error)
}

var _ repository.PaymentSessionRepository = (*MockSessionRepo)(nil)

func NewMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{store: map[string]*model.PaymentSession{}, byExternal: map[string]string{}}
}

func (m *MockSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.PaymentSession) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	m.byExternal[s.ExternalSessionID] = s.ID
	return nil
}

func (m *MockSessionRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalID string) (*model.PaymentSession, error) {
	if m.FindByExternalIDFunc != nil {
		return m.FindByExternalIDFunc(ctx, tx, externalID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byExternal[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.store[id]
	return &cp, nil
}

func (m *MockSessionRepo) MarkTerminal(ctx context.Context, tx repository.Tx, id string, status model.SessionStatus) (bool, error) {
	if m.MarkTerminalFunc != nil {
		return m.MarkTerminalFunc(ctx, tx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if s.Status != model.SessionStatusPending {
		return false, nil
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	return true, nil
}

// Status reads back a session's stored status.
func (m *MockSessionRepo) Status(id string) model.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.store[id]; ok {
		return s.Status
	}
	return ""
}

// MockOrderRepo is an in-memory OrderRepository enforcing the unique
// session_id constraint the way storage does.
type MockOrderRepo struct {
	mu        sync.Mutex
	store     map[string]*model.Order
	bySession map[string]string

	CreateFunc          func(ctx context.Context, tx repository.Tx, o *model.Order) error
	FindBySessionIDFunc func(ctx context.Context, tx repository.Tx, sessionID string) (*model.Order, error)
}

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{store: map[string]*model.Order{}, bySession: map[string]string{}}
}

func (m *MockOrderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.bySession[o.SessionID]; dup {
		return domain.ErrAlreadyExists
	}
	cp := *o
	m.store[o.ID] = &cp
	m.bySession[o.SessionID] = o.ID
	return nil
}

func (m *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Order, error) {
	if m.FindBySessionIDFunc != nil {
		return m.FindBySessionIDFunc(ctx, tx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.bySession[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.store[id]
	return &cp, nil
}

func (m *MockOrderRepo) FindByPaymentIntentID(ctx context.Context, tx repository.Tx, intentID string) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.store {
		if o.PaymentIntentID == intentID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockOrderRepo) SetNeedsFulfillment(ctx context.Context, tx repository.Tx, id string, flag bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.NeedsFulfillment = flag
	return nil
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *MockOrderRepo) ListNeedingFulfillment(ctx context.Context, tx repository.Tx, limit int) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.store {
		if o.NeedsFulfillment && len(out) < limit {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Count returns how many orders exist.
func (m *MockOrderRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// MockLicenseRepo is an in-memory LicenseRepository. ClaimOne holds the
// mutex across the whole check-and-set, mirroring the atomic conditional
// update the real repo issues.
type MockLicenseRepo struct {
	mu    sync.Mutex
	store []*model.License

	ClaimOneFunc func(ctx context.Context, tx repository.Tx, productID, duration, orderID string) (*model.License, error)
}

var _ repository.LicenseRepository = (*MockLicenseRepo)(nil)

func NewMockLicenseRepo() *MockLicenseRepo { return &MockLicenseRepo{} }

func (m *MockLicenseRepo) Save(ctx context.Context, tx repository.Tx, l *model.License) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.store = append(m.store, &cp)
	return nil
}

func (m *MockLicenseRepo) ClaimOne(ctx context.Context, tx repository.Tx, productID, duration, orderID string) (*model.License, error) {
	if m.ClaimOneFunc != nil {
		return m.ClaimOneFunc(ctx, tx, productID, duration, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.store {
		if l.ProductID == productID && l.Duration == duration && l.Status == model.LicenseStatusUnused {
			now := time.Now()
			oid := orderID
			l.Status = model.LicenseStatusAssigned
			l.OrderID = &oid
			l.AssignedAt = &now
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrOutOfStock
}

func (m *MockLicenseRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.License, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.store {
		if l.OrderID != nil && *l.OrderID == orderID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockLicenseRepo) CountUnused(ctx context.Context, tx repository.Tx, productID, duration string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.store {
		if l.ProductID == productID && l.Duration == duration && l.Status == model.LicenseStatusUnused {
			n++
		}
	}
	return n, nil
}

// MockCouponRepo is an in-memory CouponRepository with the same bounded
// increment semantics as the conditional SQL update.
type MockCouponRepo struct {
	mu    sync.Mutex
	store map[string]*model.Coupon

	RedeemOnceFunc func(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error)
}

var _ repository.CouponRepository = (*MockCouponRepo)(nil)

func NewMockCouponRepo() *MockCouponRepo { return &MockCouponRepo{store: map[string]*model.Coupon{}} }

func (m *MockCouponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.Code] = &cp
	return nil
}

func (m *MockCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCouponRepo) RedeemOnce(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	if m.RedeemOnceFunc != nil {
		return m.RedeemOnceFunc(ctx, tx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := c.Redeemable(time.Now()); err != nil {
		return nil, err
	}
	c.CurrentUses++
	cp := *c
	return &cp, nil
}

// Uses reads back a coupon's usage counter.
func (m *MockCouponRepo) Uses(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.store[code]; ok {
		return c.CurrentUses
	}
	return -1
}

// MockJobRepo is an in-memory NotificationJobRepository with the claim
// and retry semantics of the real queue.
type MockJobRepo struct {
	mu        sync.Mutex
	store     []*model.NotificationJob
	claimedAt map[string]time.Time

	SaveFunc       func(ctx context.Context, tx repository.Tx, j *model.NotificationJob) error
	ClaimBatchFunc func(ctx context.Context, limit int) ([]*model.NotificationJob, error)
}

var _ repository.NotificationJobRepository = (*MockJobRepo)(nil)

func NewMockJobRepo() *MockJobRepo {
	return &MockJobRepo{claimedAt: make(map[string]time.Time)}
}

func (m *MockJobRepo) Save(ctx context.Context, tx repository.Tx, j *model.NotificationJob) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, j)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.store = append(m.store, &cp)
	return nil
}

func (m *MockJobRepo) ClaimBatch(ctx context.Context, limit int) ([]*model.NotificationJob, error) {
	if m.ClaimBatchFunc != nil {
		return m.ClaimBatchFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []*model.NotificationJob
	for _, j := range m.store {
		if j.Status == model.NotificationStatusPending {
			pending = append(pending, j)
		}
	}
	sort.Slice(pending, func(i, k int) bool { return pending[i].CreatedAt.Before(pending[k].CreatedAt) })
	if len(pending) > limit {
		pending = pending[:limit]
	}
	out := make([]*model.NotificationJob, 0, len(pending))
	for _, j := range pending {
		j.Status = model.NotificationStatusProcessing
		m.claimedAt[j.ID] = time.Now()
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockJobRepo) RequeueProcessing(ctx context.Context, tx repository.Tx, olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	n := 0
	for _, j := range m.store {
		if j.Status == model.NotificationStatusProcessing && m.claimedAt[j.ID].Before(cutoff) {
			j.Status = model.NotificationStatusPending
			delete(m.claimedAt, j.ID)
			n++
		}
	}
	return n, nil
}

// BackdateClaim ages a held claim so requeue-threshold behavior can be
// exercised without sleeping.
func (m *MockJobRepo) BackdateClaim(id string, age time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimedAt[id] = time.Now().Add(-age)
}

func (m *MockJobRepo) MarkSent(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.store {
		if j.ID == id && j.Status == model.NotificationStatusProcessing {
			now := time.Now()
			j.Status = model.NotificationStatusSent
			j.Attempts++
			j.SentAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockJobRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string, errMsg string, maxAttempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.store {
		if j.ID == id && j.Status == model.NotificationStatusProcessing {
			j.Attempts++
			j.ErrorMessage = &errMsg
			if j.Attempts >= maxAttempts {
				j.Status = model.NotificationStatusFailed
			} else {
				j.Status = model.NotificationStatusPending
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockJobRepo) ListByOrderID(ctx context.Context, tx repository.Tx, orderID string) ([]*model.NotificationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.NotificationJob
	for _, j := range m.store {
		if j.OrderID == orderID {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockJobRepo) ListTerminallyFailed(ctx context.Context, tx repository.Tx, limit int) ([]*model.NotificationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.NotificationJob
	for _, j := range m.store {
		if j.Status == model.NotificationStatusFailed && len(out) < limit {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Jobs returns a snapshot of all stored jobs.
func (m *MockJobRepo) Jobs() []*model.NotificationJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.NotificationJob, 0, len(m.store))
	for _, j := range m.store {
		cp := *j
		out = append(out, &cp)
	}
	return out
}

// MockProductRepo is an in-memory ProductRepository for catalog reads.
type MockProductRepo struct {
	mu     sync.Mutex
	store  map[string]*model.Product
	prices map[string]map[string]*model.ProductPrice // productID -> duration
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{store: map[string]*model.Product{}, prices: map[string]map[string]*model.ProductPrice{}}
}

func (m *MockProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockProductRepo) SavePrice(ctx context.Context, tx repository.Tx, price *model.ProductPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prices[price.ProductID] == nil {
		m.prices[price.ProductID] = map[string]*model.ProductPrice{}
	}
	cp := *price
	m.prices[price.ProductID][price.Duration] = &cp
	return nil
}

func (m *MockProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProductRepo) FindPrice(ctx context.Context, tx repository.Tx, productID, duration string) (*model.ProductPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.prices[productID][duration]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *pr
	return &cp, nil
}

func (m *MockProductRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Product
	for _, p := range m.store {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// =============================
// Transaction manager
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

// WithTx runs the function directly with a nil handle by default, which
// exercises the same code path repositories take outside a transaction.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// =============================
// Delivery adapters
// =============================

type SentMail struct {
	To      string
	Subject string
	Body    []byte
}

type MockMailer struct {
	mu   sync.Mutex
	Sent []SentMail

	SendFunc func(ctx context.Context, to, subject string, htmlBody []byte) error
}

var _ adapter.Mailer = (*MockMailer)(nil)

func (m *MockMailer) Name() string { return "mock-mailer" }

func (m *MockMailer) Send(ctx context.Context, to, subject string, htmlBody []byte) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, htmlBody)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *MockMailer) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

type MockChat struct {
	mu     sync.Mutex
	Posted [][]byte

	PostFunc func(ctx context.Context, payload []byte) error
}

var _ adapter.ChatNotifier = (*MockChat)(nil)

func (m *MockChat) Name() string { return "mock-chat" }

func (m *MockChat) Post(ctx context.Context, payload []byte) error {
	if m.PostFunc != nil {
		return m.PostFunc(ctx, payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posted = append(m.Posted, append([]byte(nil), payload...))
	return nil
}

func (m *MockChat) PostedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Posted)
}
