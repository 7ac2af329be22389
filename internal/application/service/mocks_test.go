package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/access"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

var seoul = time.FixedZone("KST", 9*60*60)

// testNow is 2025-03-03 14:00 in Seoul
var testNow = time.Date(2025, 3, 3, 14, 0, 0, 0, seoul)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

func actor(name string, roles ...string) access.Actor {
	return access.NewActor(name, name+"@hansl.kr", roles)
}

func newLine(order string, no int, requester string) *entity.PurchaseLine {
	price := decimal.NewFromInt(1000)
	return &entity.PurchaseLine{
		OrderNumber:         order,
		LineNumber:          no,
		ItemName:            "item",
		Quantity:            2,
		UnitPrice:           price,
		Amount:              entity.LineAmount(2, price),
		Currency:            entity.DefaultCurrency,
		RequesterName:       requester,
		VendorID:            1,
		VendorName:          "한슬상사",
		RequestDate:         testNow.Add(-24 * time.Hour),
		ProgressType:        entity.ProgressNormal,
		PaymentCategory:     entity.PaymentOrder,
		MiddleManagerStatus: entity.ApprovalPending,
		FinalManagerStatus:  entity.ApprovalPending,
	}
}

// memLineRepo keeps lines in memory; the *Func fields override behaviour.
type memLineRepo struct {
	mu    sync.Mutex
	lines []*entity.PurchaseLine

	listFunc        func(ctx context.Context, f entity.LineFilter) ([]*entity.PurchaseLine, error)
	getFunc         func(ctx context.Context, orderNumber string) ([]*entity.PurchaseLine, error)
	updateOrderFunc func(ctx context.Context, orderNumber string, f entity.OrderFields) (int64, error)
	updateLineFunc  func(ctx context.Context, orderNumber string, lineNumber int, f entity.LineFields) error
	createFunc      func(ctx context.Context, lines []*entity.PurchaseLine) error

	updateOrderCalls int
	orderFields      []entity.OrderFields
}

func (m *memLineRepo) clone(l *entity.PurchaseLine) *entity.PurchaseLine {
	c := *l
	return &c
}

func (m *memLineRepo) List(ctx context.Context, f entity.LineFilter) ([]*entity.PurchaseLine, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.PurchaseLine, 0, len(m.lines))
	for _, l := range m.lines {
		out = append(out, m.clone(l))
	}
	return out, nil
}

func (m *memLineRepo) GetByOrderNumber(ctx context.Context, orderNumber string) ([]*entity.PurchaseLine, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, orderNumber)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.PurchaseLine
	for _, l := range m.lines {
		if l.OrderNumber == orderNumber {
			out = append(out, m.clone(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNumber < out[j].LineNumber })
	return out, nil
}

func (m *memLineRepo) CreateLines(ctx context.Context, lines []*entity.PurchaseLine) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, lines)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range lines {
		l.ID = int64(len(m.lines) + 1)
		m.lines = append(m.lines, m.clone(l))
	}
	return nil
}

func (m *memLineRepo) UpdateOrder(ctx context.Context, orderNumber string, f entity.OrderFields) (int64, error) {
	m.mu.Lock()
	m.updateOrderCalls++
	m.orderFields = append(m.orderFields, f)
	m.mu.Unlock()

	if m.updateOrderFunc != nil {
		return m.updateOrderFunc(ctx, orderNumber, f)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var touched []*entity.PurchaseLine
	for _, l := range m.lines {
		if l.OrderNumber == orderNumber {
			touched = append(touched, l)
		}
	}
	applyOrderFields(touched, f, testNow)
	return int64(len(touched)), nil
}

func (m *memLineRepo) UpdateLine(ctx context.Context, orderNumber string, lineNumber int, f entity.LineFields) error {
	if m.updateLineFunc != nil {
		return m.updateLineFunc(ctx, orderNumber, lineNumber, f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lines {
		if l.OrderNumber != orderNumber || l.LineNumber != lineNumber {
			continue
		}
		if f.ItemName != nil {
			l.ItemName = *f.ItemName
		}
		if f.Specification != nil {
			l.Specification = *f.Specification
		}
		if f.Quantity != nil {
			l.Quantity = *f.Quantity
		}
		if f.UnitPrice != nil {
			l.UnitPrice = *f.UnitPrice
		}
		if f.Amount != nil {
			l.Amount = *f.Amount
		}
		if f.Remark != nil {
			l.Remark = *f.Remark
		}
		if f.Link != nil {
			l.Link = *f.Link
		}
	}
	return nil
}

func (m *memLineRepo) DeleteOrder(ctx context.Context, orderNumber string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.lines[:0]
	var n int64
	for _, l := range m.lines {
		if l.OrderNumber == orderNumber {
			n++
			continue
		}
		kept = append(kept, l)
	}
	m.lines = kept
	return n, nil
}

func (m *memLineRepo) DeleteLine(ctx context.Context, orderNumber string, lineNumber int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.lines[:0]
	var n int64
	for _, l := range m.lines {
		if l.OrderNumber == orderNumber && l.LineNumber == lineNumber {
			n++
			continue
		}
		kept = append(kept, l)
	}
	m.lines = kept
	return n, nil
}

func (m *memLineRepo) NextOrderSequence(ctx context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	for _, l := range m.lines {
		if len(l.OrderNumber) > len(prefix) && l.OrderNumber[:len(prefix)] == prefix {
			seen[l.OrderNumber] = true
		}
	}
	return len(seen) + 1, nil
}

func (m *memLineRepo) CountByVendor(ctx context.Context, vendorID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.lines {
		if l.VendorID == vendorID {
			n++
		}
	}
	return n, nil
}

type mockVendorRepo struct {
	vendors  map[int64]*entity.Vendor
	contacts map[int64]*entity.Contact
	getErr   error
	deleted  []int64
}

func newMockVendorRepo() *mockVendorRepo {
	return &mockVendorRepo{
		vendors:  map[int64]*entity.Vendor{1: {ID: 1, Name: "한슬상사"}, 2: {ID: 2, Name: "대한기계"}},
		contacts: map[int64]*entity.Contact{10: {ID: 10, VendorID: 1, Name: "이영희", Email: "lee@vendor.kr"}},
	}
}

func (m *mockVendorRepo) Create(ctx context.Context, v *entity.Vendor) error {
	v.ID = int64(len(m.vendors) + 100)
	m.vendors[v.ID] = v
	return nil
}

func (m *mockVendorRepo) GetByID(ctx context.Context, id int64) (*entity.Vendor, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.vendors[id]
	if !ok {
		return nil, nil
	}
	c := *v
	return &c, nil
}

func (m *mockVendorRepo) List(ctx context.Context) ([]*entity.Vendor, error) {
	out := make([]*entity.Vendor, 0, len(m.vendors))
	for _, v := range m.vendors {
		out = append(out, v)
	}
	return out, nil
}

func (m *mockVendorRepo) Update(ctx context.Context, v *entity.Vendor) error {
	m.vendors[v.ID] = v
	return nil
}

func (m *mockVendorRepo) Delete(ctx context.Context, id int64) error {
	delete(m.vendors, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockVendorRepo) CreateContact(ctx context.Context, c *entity.Contact) error {
	c.ID = int64(len(m.contacts) + 100)
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *mockVendorRepo) GetContact(ctx context.Context, id int64) (*entity.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockVendorRepo) ListContacts(ctx context.Context, vendorID int64) ([]*entity.Contact, error) {
	var out []*entity.Contact
	for _, c := range m.contacts {
		if c.VendorID == vendorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockVendorRepo) UpdateContact(ctx context.Context, c *entity.Contact) error {
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *mockVendorRepo) DeleteContact(ctx context.Context, id int64) error {
	delete(m.contacts, id)
	return nil
}

type mockEmployeeRepo struct {
	employees []*entity.Employee
	err       error
}

func (m *mockEmployeeRepo) GetByEmail(ctx context.Context, email string) (*entity.Employee, error) {
	for _, e := range m.employees {
		if e.Email == email {
			return e, nil
		}
	}
	return nil, m.err
}

func (m *mockEmployeeRepo) GetByName(ctx context.Context, name string) (*entity.Employee, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, e := range m.employees {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockEmployeeRepo) List(ctx context.Context) ([]*entity.Employee, error) {
	return m.employees, m.err
}

func (m *mockEmployeeRepo) ListByRole(ctx context.Context, role string) ([]*entity.Employee, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*entity.Employee
	for _, e := range m.employees {
		for _, r := range e.Roles {
			if r == role {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (m *mockEmployeeRepo) Create(ctx context.Context, e *entity.Employee) error {
	m.employees = append(m.employees, e)
	return nil
}

type mockNotificationRepo struct {
	mu        sync.Mutex
	records   []*entity.OrderNotification
	deleted   []string
	createErr error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.OrderNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = int64(len(m.records) + 1)
	m.records = append(m.records, n)
	return nil
}

func (m *mockNotificationRepo) GetByOrderNumber(ctx context.Context, orderNumber string) ([]*entity.OrderNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.OrderNotification
	for _, n := range m.records {
		if n.OrderNumber == orderNumber {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.OrderNotification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	return nil
}

func (m *mockNotificationRepo) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	return nil
}

func (m *mockNotificationRepo) DeleteByOrderNumber(ctx context.Context, orderNumber string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, orderNumber)
	return 0, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockSender struct {
	mu    sync.Mutex
	sent  []string
	failU map[string]error
}

func (m *mockSender) SendText(ctx context.Context, recipient, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failU[recipient]; err != nil {
		return err
	}
	m.sent = append(m.sent, recipient)
	return nil
}

type mockRenderer struct {
	orderSheet *port.OrderSheet
	boardSheet *port.BoardSheet
	err        error
}

func (m *mockRenderer) RenderOrder(sheet *port.OrderSheet) ([]byte, error) {
	m.orderSheet = sheet
	return []byte("order-xlsx"), m.err
}

func (m *mockRenderer) RenderBoard(sheet *port.BoardSheet) ([]byte, error) {
	m.boardSheet = sheet
	return []byte("board-xlsx"), m.err
}

type mockStorage struct {
	saved   map[string][]byte
	saveErr error
}

func (m *mockStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[path] = content
	return nil
}

func (m *mockStorage) Read(ctx context.Context, path string) ([]byte, error) {
	return m.saved[path], nil
}

func (m *mockStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.saved[path]
	return ok
}

func (m *mockStorage) Delete(ctx context.Context, path string) error {
	delete(m.saved, path)
	return nil
}

func (m *mockStorage) GetFullPath(relativePath string) string {
	return "/tmp/" + relativePath
}
