package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/persistence/sqldb"
	"github.com/hyeunung/hanslwebapp-sub000/pkg/database"
)

const lineColumns = `
	l.id, l.order_number, l.line_number, l.item_name, l.specification,
	l.quantity, l.unit_price, l.amount, l.remark, l.link, l.currency,
	l.requester_name, l.vendor_id, COALESCE(v.name, ''), l.contact_id,
	l.request_date, l.delivery_request_date, l.progress_type, l.payment_category,
	l.project_vendor, l.sales_order_number, l.project_item,
	l.middle_manager_status, l.final_manager_status, l.final_approved_at,
	l.payment_completed, l.payment_completed_at, l.received, l.received_at,
	l.po_downloaded, l.created_at, l.updated_at`

const lineFrom = `
	FROM purchase_lines l
	LEFT JOIN vendors v ON v.id = l.vendor_id`

// PurchaseLineRepository implements port.PurchaseLineRepository
type PurchaseLineRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewPurchaseLineRepository creates a new purchase line repository
func NewPurchaseLineRepository(db *database.DB, logger *zap.Logger) port.PurchaseLineRepository {
	return &PurchaseLineRepository{
		db:     db,
		logger: logger,
	}
}

// List returns lines matching filter, newest request first
func (r *PurchaseLineRepository) List(ctx context.Context, filter entity.LineFilter) ([]*entity.PurchaseLine, error) {
	var where []string
	var args []interface{}

	if len(filter.OrderNumbers) > 0 {
		where = append(where, "l.order_number IN ("+placeholders(len(filter.OrderNumbers))+")")
		for _, n := range filter.OrderNumbers {
			args = append(args, n)
		}
	}
	if filter.RequesterName != "" {
		where = append(where, "l.requester_name = ?")
		args = append(args, filter.RequesterName)
	}
	if filter.From != nil {
		where = append(where, "l.request_date >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		where = append(where, "l.request_date <= ?")
		args = append(args, filter.To.UTC())
	}

	query := "SELECT " + lineColumns + lineFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY l.request_date DESC, l.order_number DESC, l.line_number ASC"

	lines, err := r.query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list purchase lines", zap.Error(err))
		return nil, fmt.Errorf("failed to list purchase lines: %w", err)
	}
	return lines, nil
}

// GetByOrderNumber returns the lines of one order, empty when it does not exist
func (r *PurchaseLineRepository) GetByOrderNumber(ctx context.Context, orderNumber string) ([]*entity.PurchaseLine, error) {
	query := "SELECT " + lineColumns + lineFrom +
		" WHERE l.order_number = ? ORDER BY l.line_number ASC"

	lines, err := r.query(ctx, query, orderNumber)
	if err != nil {
		r.logger.Error("Failed to get order lines",
			zap.String("order_number", orderNumber),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get order lines: %w", err)
	}
	return lines, nil
}

// CreateLines inserts the lines in order; run it inside a transaction to
// make the insert all-or-nothing
func (r *PurchaseLineRepository) CreateLines(ctx context.Context, lines []*entity.PurchaseLine) error {
	query := r.db.Rebind(`
		INSERT INTO purchase_lines (
			order_number, line_number, item_name, specification, quantity,
			unit_price, amount, remark, link, currency, requester_name,
			vendor_id, contact_id, request_date, delivery_request_date,
			progress_type, payment_category, project_vendor, sales_order_number,
			project_item, middle_manager_status, final_manager_status,
			payment_completed, received, po_downloaded, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	now := time.Now().UTC()
	for _, l := range lines {
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		l.UpdatedAt = now

		err := sqldb.Conn(ctx, r.db).QueryRowContext(ctx, query,
			l.OrderNumber, l.LineNumber, l.ItemName, l.Specification, l.Quantity,
			l.UnitPrice, l.Amount, l.Remark, l.Link, l.Currency, l.RequesterName,
			l.VendorID, nullInt64(l.ContactID), l.RequestDate.UTC(), nullTime(l.DeliveryRequestDate),
			string(l.ProgressType), string(l.PaymentCategory), l.ProjectVendor, l.SalesOrderNumber,
			l.ProjectItem, string(l.MiddleManagerStatus), string(l.FinalManagerStatus),
			l.PaymentCompleted, l.Received, l.PODownloaded, l.CreatedAt, l.UpdatedAt,
		).Scan(&l.ID)
		if err != nil {
			r.logger.Error("Failed to create purchase line",
				zap.String("order_number", l.OrderNumber),
				zap.Int("line_number", l.LineNumber),
				zap.Error(err))
			return fmt.Errorf("failed to create purchase line %s/%d: %w", l.OrderNumber, l.LineNumber, err)
		}
	}
	return nil
}

// UpdateOrder applies order-level fields to all lines of the order
func (r *PurchaseLineRepository) UpdateOrder(ctx context.Context, orderNumber string, f entity.OrderFields) (int64, error) {
	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if f.MiddleManagerStatus != nil {
		set("middle_manager_status", string(*f.MiddleManagerStatus))
	}
	if f.FinalManagerStatus != nil {
		set("final_manager_status", string(*f.FinalManagerStatus))
	}
	if f.ClearFinalApproved {
		set("final_approved_at", sql.NullTime{})
	} else if f.FinalApprovedAt != nil {
		set("final_approved_at", nullTime(f.FinalApprovedAt))
	}
	if f.PaymentCompleted != nil {
		set("payment_completed", *f.PaymentCompleted)
	}
	if f.ClearPaymentCompletedAt {
		set("payment_completed_at", sql.NullTime{})
	} else if f.PaymentCompletedAt != nil {
		set("payment_completed_at", nullTime(f.PaymentCompletedAt))
	}
	if f.Received != nil {
		set("received", *f.Received)
	}
	if f.ClearReceivedAt {
		set("received_at", sql.NullTime{})
	} else if f.ReceivedAt != nil {
		set("received_at", nullTime(f.ReceivedAt))
	}
	if f.PODownloaded != nil {
		set("po_downloaded", *f.PODownloaded)
	}
	if f.DeliveryRequestDate != nil {
		set("delivery_request_date", nullTime(f.DeliveryRequestDate))
	}
	if f.VendorID != nil {
		set("vendor_id", *f.VendorID)
	}
	if f.ClearContact {
		set("contact_id", sql.NullInt64{})
	} else if f.ContactID != nil {
		set("contact_id", nullInt64(f.ContactID))
	}

	if len(sets) == 0 {
		return 0, nil
	}
	set("updated_at", time.Now().UTC())
	args = append(args, orderNumber)

	query := r.db.Rebind("UPDATE purchase_lines SET " + strings.Join(sets, ", ") + " WHERE order_number = ?")
	res, err := sqldb.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update order",
			zap.String("order_number", orderNumber),
			zap.Error(err))
		return 0, fmt.Errorf("failed to update order %s: %w", orderNumber, err)
	}
	return res.RowsAffected()
}

// UpdateLine applies item-level fields to one line
func (r *PurchaseLineRepository) UpdateLine(ctx context.Context, orderNumber string, lineNumber int, f entity.LineFields) error {
	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if f.ItemName != nil {
		set("item_name", *f.ItemName)
	}
	if f.Specification != nil {
		set("specification", *f.Specification)
	}
	if f.Quantity != nil {
		set("quantity", *f.Quantity)
	}
	if f.UnitPrice != nil {
		set("unit_price", *f.UnitPrice)
	}
	if f.Amount != nil {
		set("amount", *f.Amount)
	}
	if f.Remark != nil {
		set("remark", *f.Remark)
	}
	if f.Link != nil {
		set("link", *f.Link)
	}

	if len(sets) == 0 {
		return nil
	}
	set("updated_at", time.Now().UTC())
	args = append(args, orderNumber, lineNumber)

	query := r.db.Rebind("UPDATE purchase_lines SET " + strings.Join(sets, ", ") +
		" WHERE order_number = ? AND line_number = ?")
	res, err := sqldb.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update purchase line",
			zap.String("order_number", orderNumber),
			zap.Int("line_number", lineNumber),
			zap.Error(err))
		return fmt.Errorf("failed to update line %s/%d: %w", orderNumber, lineNumber, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("line %s/%d: %w", orderNumber, lineNumber, sql.ErrNoRows)
	}
	return nil
}

// DeleteOrder removes every line of the order
func (r *PurchaseLineRepository) DeleteOrder(ctx context.Context, orderNumber string) (int64, error) {
	res, err := sqldb.Conn(ctx, r.db).ExecContext(ctx,
		r.db.Rebind("DELETE FROM purchase_lines WHERE order_number = ?"), orderNumber)
	if err != nil {
		r.logger.Error("Failed to delete order",
			zap.String("order_number", orderNumber),
			zap.Error(err))
		return 0, fmt.Errorf("failed to delete order %s: %w", orderNumber, err)
	}
	return res.RowsAffected()
}

// DeleteLine removes one line
func (r *PurchaseLineRepository) DeleteLine(ctx context.Context, orderNumber string, lineNumber int) (int64, error) {
	res, err := sqldb.Conn(ctx, r.db).ExecContext(ctx,
		r.db.Rebind("DELETE FROM purchase_lines WHERE order_number = ? AND line_number = ?"),
		orderNumber, lineNumber)
	if err != nil {
		r.logger.Error("Failed to delete purchase line",
			zap.String("order_number", orderNumber),
			zap.Int("line_number", lineNumber),
			zap.Error(err))
		return 0, fmt.Errorf("failed to delete line %s/%d: %w", orderNumber, lineNumber, err)
	}
	return res.RowsAffected()
}

// NextOrderSequence scans existing order numbers starting with prefix and
// returns the highest numeric suffix plus one
func (r *PurchaseLineRepository) NextOrderSequence(ctx context.Context, prefix string) (int, error) {
	rows, err := sqldb.Conn(ctx, r.db).QueryContext(ctx,
		r.db.Rebind("SELECT DISTINCT order_number FROM purchase_lines WHERE substr(order_number, 1, ?) = ?"),
		len(prefix), prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to read order sequence: %w", err)
	}
	defer rows.Close()

	max := 0
	for rows.Next() {
		var num string
		if err := rows.Scan(&num); err != nil {
			return 0, fmt.Errorf("failed to scan order number: %w", err)
		}
		if seq, err := strconv.Atoi(strings.TrimPrefix(num, prefix)); err == nil && seq > max {
			max = seq
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read order sequence: %w", err)
	}
	return max + 1, nil
}

// CountByVendor returns how many lines reference the vendor
func (r *PurchaseLineRepository) CountByVendor(ctx context.Context, vendorID int64) (int, error) {
	var n int
	err := sqldb.Conn(ctx, r.db).QueryRowContext(ctx,
		r.db.Rebind("SELECT COUNT(*) FROM purchase_lines WHERE vendor_id = ?"), vendorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count vendor lines: %w", err)
	}
	return n, nil
}

func (r *PurchaseLineRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.PurchaseLine, error) {
	rows, err := sqldb.Conn(ctx, r.db).QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*entity.PurchaseLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanLine(rows *sql.Rows) (*entity.PurchaseLine, error) {
	var l entity.PurchaseLine
	var (
		contactID                             sql.NullInt64
		delivery, finalAt, paidAt, receivedAt sql.NullTime
		progress, category, middle, final     string
	)

	err := rows.Scan(
		&l.ID, &l.OrderNumber, &l.LineNumber, &l.ItemName, &l.Specification,
		&l.Quantity, &l.UnitPrice, &l.Amount, &l.Remark, &l.Link, &l.Currency,
		&l.RequesterName, &l.VendorID, &l.VendorName, &contactID,
		&l.RequestDate, &delivery, &progress, &category,
		&l.ProjectVendor, &l.SalesOrderNumber, &l.ProjectItem,
		&middle, &final, &finalAt,
		&l.PaymentCompleted, &paidAt, &l.Received, &receivedAt,
		&l.PODownloaded, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan purchase line: %w", err)
	}

	l.ContactID = int64Ptr(contactID)
	l.DeliveryRequestDate = timePtr(delivery)
	l.ProgressType = entity.ProgressType(progress)
	l.PaymentCategory = entity.PaymentCategory(category)
	l.MiddleManagerStatus = entity.ApprovalStatus(middle)
	l.FinalManagerStatus = entity.ApprovalStatus(final)
	l.FinalApprovedAt = timePtr(finalAt)
	l.PaymentCompletedAt = timePtr(paidAt)
	l.ReceivedAt = timePtr(receivedAt)

	return &l, nil
}

// Verify interface compliance
var _ port.PurchaseLineRepository = (*PurchaseLineRepository)(nil)
