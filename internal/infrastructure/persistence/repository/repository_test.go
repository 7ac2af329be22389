package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/persistence/sqldb"
	"github.com/hyeunung/hanslwebapp-sub000/pkg/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Run(context.Background()))
	return db
}

func seedVendor(t *testing.T, db *database.DB, name string) *entity.Vendor {
	t.Helper()
	v := &entity.Vendor{Name: name}
	require.NoError(t, NewVendorRepository(db, zap.NewNop()).Create(context.Background(), v))
	return v
}

func testLine(order string, lineNo int, vendorID int64, requestDate time.Time) *entity.PurchaseLine {
	price := decimal.NewFromInt(1500)
	return &entity.PurchaseLine{
		OrderNumber:         order,
		LineNumber:          lineNo,
		ItemName:            "Resistor",
		Quantity:            2,
		UnitPrice:           price,
		Amount:              entity.LineAmount(2, price),
		Currency:            entity.DefaultCurrency,
		RequesterName:       "kim",
		VendorID:            vendorID,
		RequestDate:         requestDate,
		ProgressType:        entity.ProgressNormal,
		PaymentCategory:     entity.PaymentPurchaseRequest,
		MiddleManagerStatus: entity.ApprovalPending,
		FinalManagerStatus:  entity.ApprovalPending,
	}
}

func TestPurchaseLineRepository_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	vendor := seedVendor(t, db, "Hansl Parts")
	repo := NewPurchaseLineRepository(db, zap.NewNop())

	day := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	lines := []*entity.PurchaseLine{
		testLine("F20250303_001", 2, vendor.ID, day),
		testLine("F20250303_001", 1, vendor.ID, day),
	}
	lines[0].UnitPrice = decimal.RequireFromString("1234.5")
	lines[0].Amount = entity.LineAmount(2, lines[0].UnitPrice)

	require.NoError(t, repo.CreateLines(ctx, lines))
	assert.NotZero(t, lines[0].ID)
	assert.NotZero(t, lines[1].ID)

	got, err := repo.GetByOrderNumber(ctx, "F20250303_001")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].LineNumber)
	assert.Equal(t, "Hansl Parts", got[0].VendorName)
	assert.True(t, decimal.RequireFromString("2469").Equal(got[1].Amount))
	assert.Equal(t, entity.PaymentPurchaseRequest, got[0].PaymentCategory)
	assert.Nil(t, got[0].ContactID)
	assert.Nil(t, got[0].FinalApprovedAt)
	assert.True(t, day.Equal(got[0].RequestDate))

	missing, err := repo.GetByOrderNumber(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestPurchaseLineRepository_ListOrderingAndFilter(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	vendor := seedVendor(t, db, "V")
	repo := NewPurchaseLineRepository(db, zap.NewNop())

	older := time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 2, 5, 9, 0, 0, 0, time.UTC)

	a := testLine("F20250105_001", 1, vendor.ID, older)
	b1 := testLine("F20250205_001", 1, vendor.ID, newer)
	b2 := testLine("F20250205_001", 2, vendor.ID, newer)
	c := testLine("F20250205_002", 1, vendor.ID, newer)
	c.RequesterName = "lee"
	require.NoError(t, repo.CreateLines(ctx, []*entity.PurchaseLine{a, b2, b1, c}))

	all, err := repo.List(ctx, entity.LineFilter{})
	require.NoError(t, err)

	var keys []string
	for _, l := range all {
		keys = append(keys, l.OrderNumber+"#"+string(rune('0'+l.LineNumber)))
	}
	assert.Equal(t, []string{"F20250205_002#1", "F20250205_001#1", "F20250205_001#2", "F20250105_001#1"}, keys)

	mine, err := repo.List(ctx, entity.LineFilter{RequesterName: "kim", From: &newer})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	byNumber, err := repo.List(ctx, entity.LineFilter{OrderNumbers: []string{"F20250105_001", "F20250205_002"}})
	require.NoError(t, err)
	assert.Len(t, byNumber, 2)
}

func TestPurchaseLineRepository_UpdateOrderAndLine(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	vendor := seedVendor(t, db, "V")
	repo := NewPurchaseLineRepository(db, zap.NewNop())

	day := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateLines(ctx, []*entity.PurchaseLine{
		testLine("PO-1", 1, vendor.ID, day),
		testLine("PO-1", 2, vendor.ID, day),
	}))

	approved := entity.ApprovalApproved
	received := true
	now := time.Now()
	n, err := repo.UpdateOrder(ctx, "PO-1", entity.OrderFields{
		MiddleManagerStatus: &approved,
		FinalManagerStatus:  &approved,
		FinalApprovedAt:     &now,
		Received:            &received,
		ReceivedAt:          &now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	lines, err := repo.GetByOrderNumber(ctx, "PO-1")
	require.NoError(t, err)
	for _, l := range lines {
		assert.Equal(t, entity.ApprovalApproved, l.FinalManagerStatus)
		assert.True(t, l.Received)
		require.NotNil(t, l.FinalApprovedAt)
		assert.WithinDuration(t, now, *l.FinalApprovedAt, time.Second)
	}

	notReceived := false
	_, err = repo.UpdateOrder(ctx, "PO-1", entity.OrderFields{
		ClearFinalApproved: true,
		Received:           &notReceived,
		ClearReceivedAt:    true,
	})
	require.NoError(t, err)

	name := "Capacitor"
	qty := 5
	require.NoError(t, repo.UpdateLine(ctx, "PO-1", 2, entity.LineFields{ItemName: &name, Quantity: &qty}))

	err = repo.UpdateLine(ctx, "PO-1", 9, entity.LineFields{ItemName: &name})
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	lines, err = repo.GetByOrderNumber(ctx, "PO-1")
	require.NoError(t, err)
	assert.Nil(t, lines[0].FinalApprovedAt)
	assert.Nil(t, lines[0].ReceivedAt)
	assert.False(t, lines[0].Received)
	assert.Equal(t, "Resistor", lines[0].ItemName)
	assert.Equal(t, "Capacitor", lines[1].ItemName)
	assert.Equal(t, 5, lines[1].Quantity)

	n, err = repo.UpdateOrder(ctx, "PO-1", entity.OrderFields{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurchaseLineRepository_UpdateOrderClearsContact(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	oldVendor := seedVendor(t, db, "Old")
	newVendor := seedVendor(t, db, "New")
	contact := &entity.Contact{VendorID: oldVendor.ID, Name: "Park"}
	require.NoError(t, NewVendorRepository(db, zap.NewNop()).CreateContact(ctx, contact))
	repo := NewPurchaseLineRepository(db, zap.NewNop())

	line := testLine("PO-2", 1, oldVendor.ID, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC))
	line.ContactID = &contact.ID
	require.NoError(t, repo.CreateLines(ctx, []*entity.PurchaseLine{line}))

	n, err := repo.UpdateOrder(ctx, "PO-2", entity.OrderFields{VendorID: &newVendor.ID, ClearContact: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByOrderNumber(ctx, "PO-2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, newVendor.ID, got[0].VendorID)
	assert.Nil(t, got[0].ContactID)
}

func TestPurchaseLineRepository_DeleteAndSequence(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	vendor := seedVendor(t, db, "V")
	repo := NewPurchaseLineRepository(db, zap.NewNop())

	day := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateLines(ctx, []*entity.PurchaseLine{
		testLine("F20250303_001", 1, vendor.ID, day),
		testLine("F20250303_002", 1, vendor.ID, day),
		testLine("F20250303_002", 2, vendor.ID, day),
		testLine("F20250304_007", 1, vendor.ID, day),
	}))

	seq, err := repo.NextOrderSequence(ctx, "F20250303_")
	require.NoError(t, err)
	assert.Equal(t, 3, seq)

	seq, err = repo.NextOrderSequence(ctx, "F20250305_")
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	count, err := repo.CountByVendor(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	n, err := repo.DeleteLine(ctx, "F20250303_002", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteOrder(ctx, "F20250303_002")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteOrder(ctx, "F20250303_002")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTxManager_RollsBackCreateLines(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	vendor := seedVendor(t, db, "V")
	repo := NewPurchaseLineRepository(db, zap.NewNop())
	tm := sqldb.NewTxManager(db, zap.NewNop())

	day := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
		return repo.CreateLines(txCtx, []*entity.PurchaseLine{
			testLine("PO-TX", 1, vendor.ID, day),
			testLine("PO-TX", 1, vendor.ID, day), // duplicate line number
		})
	})
	require.Error(t, err)

	lines, err := repo.GetByOrderNumber(ctx, "PO-TX")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestVendorRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewVendorRepository(db, zap.NewNop())

	v := &entity.Vendor{Name: "Alpha", Phone: "02-000-0000"}
	require.NoError(t, repo.Create(ctx, v))

	err := repo.Create(ctx, &entity.Vendor{Name: "Alpha"})
	assert.Error(t, err, "names are unique")

	c := &entity.Contact{VendorID: v.ID, Name: "Park", Email: "park@alpha.example"}
	require.NoError(t, repo.CreateContact(ctx, c))

	got, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alpha", got.Name)
	require.Len(t, got.Contacts, 1)
	assert.Equal(t, "Park", got.Contacts[0].Name)

	got.Note = "net 30"
	require.NoError(t, repo.Update(ctx, got))

	c.Position = "Sales"
	require.NoError(t, repo.UpdateContact(ctx, c))
	gotContact, err := repo.GetContact(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sales", gotContact.Position)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "net 30", list[0].Note)

	require.NoError(t, repo.Delete(ctx, v.ID))
	gone, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	contact, err := repo.GetContact(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, contact, "contacts cascade")

	assert.True(t, errors.Is(repo.Delete(ctx, v.ID), sql.ErrNoRows))
}

func TestEmployeeRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewEmployeeRepository(db, zap.NewNop())

	require.NoError(t, repo.Create(ctx, &entity.Employee{Name: "Kim", Email: "kim@example.com", Roles: []string{"middle_manager"}}))
	require.NoError(t, repo.Create(ctx, &entity.Employee{Name: "Lee", Email: "lee@example.com", Roles: []string{"final_approver", "purchase_manager"}}))
	require.NoError(t, repo.Create(ctx, &entity.Employee{Name: "Park", Email: "park@example.com"}))

	e, err := repo.GetByEmail(ctx, " KIM@example.com")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Kim", e.Name)
	assert.Equal(t, []string{"middle_manager"}, e.Roles)

	none, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, none)

	byName, err := repo.GetByName(ctx, "Park")
	require.NoError(t, err)
	assert.Empty(t, byName.Roles)

	approvers, err := repo.ListByRole(ctx, "final_approver")
	require.NoError(t, err)
	require.Len(t, approvers, 1)
	assert.Equal(t, "Lee", approvers[0].Name)
	assert.Equal(t, []string{"final_approver", "purchase_manager"}, approvers[0].Roles)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewNotificationRepository(db, zap.NewNop())

	ok := &entity.OrderNotification{OrderNumber: "PO-1", Kind: entity.NotificationKindApproved, Recipient: "ou_1"}
	bad := &entity.OrderNotification{OrderNumber: "PO-1", Kind: entity.NotificationKindApproved, Recipient: "ou_2"}
	other := &entity.OrderNotification{OrderNumber: "PO-2", Kind: entity.NotificationKindRejected, Recipient: "ou_3"}
	for _, n := range []*entity.OrderNotification{ok, bad, other} {
		require.NoError(t, repo.Create(ctx, n))
	}

	require.NoError(t, repo.MarkSent(ctx, ok.ID, time.Now()))
	require.NoError(t, repo.MarkFailed(ctx, bad.ID, "timeout"))
	require.NoError(t, repo.MarkFailed(ctx, other.ID, "timeout"))
	require.NoError(t, repo.MarkFailed(ctx, other.ID, "timeout"))

	retry, err := repo.ListRetryable(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, retry, 1)
	assert.Equal(t, bad.ID, retry[0].ID)
	assert.Equal(t, "timeout", retry[0].ErrorMessage)
	assert.Equal(t, 1, retry[0].Attempts)

	list, err := repo.GetByOrderNumber(ctx, "PO-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.NotificationStatusSent, list[0].Status)
	assert.NotNil(t, list[0].SentAt)

	n, err := repo.DeleteByOrderNumber(ctx, "PO-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
