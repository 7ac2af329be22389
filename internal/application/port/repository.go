package port

import (
	"context"
	"time"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

// PurchaseLineRepository defines persistence operations for purchase order lines
type PurchaseLineRepository interface {
	// List returns lines matching the filter ordered by request date
	// (newest first), then order number descending, then line number.
	List(ctx context.Context, filter entity.LineFilter) ([]*entity.PurchaseLine, error)

	// GetByOrderNumber returns every line of one order sorted by line number.
	GetByOrderNumber(ctx context.Context, orderNumber string) ([]*entity.PurchaseLine, error)

	// CreateLines inserts the lines of one order. IDs are filled in.
	CreateLines(ctx context.Context, lines []*entity.PurchaseLine) error

	// UpdateOrder applies order-level fields to every line of the order and
	// returns the number of rows touched.
	UpdateOrder(ctx context.Context, orderNumber string, fields entity.OrderFields) (int64, error)

	// UpdateLine applies item-level fields to one line.
	UpdateLine(ctx context.Context, orderNumber string, lineNumber int, fields entity.LineFields) error

	DeleteOrder(ctx context.Context, orderNumber string) (int64, error)
	DeleteLine(ctx context.Context, orderNumber string, lineNumber int) (int64, error)

	// NextOrderSequence returns the next free sequence for order numbers
	// with the given prefix.
	NextOrderSequence(ctx context.Context, prefix string) (int, error)

	// CountByVendor returns how many lines reference the vendor.
	CountByVendor(ctx context.Context, vendorID int64) (int, error)
}

// VendorRepository defines persistence operations for vendors and their contacts
type VendorRepository interface {
	Create(ctx context.Context, vendor *entity.Vendor) error
	GetByID(ctx context.Context, id int64) (*entity.Vendor, error)
	List(ctx context.Context) ([]*entity.Vendor, error)
	Update(ctx context.Context, vendor *entity.Vendor) error
	Delete(ctx context.Context, id int64) error

	CreateContact(ctx context.Context, contact *entity.Contact) error
	GetContact(ctx context.Context, id int64) (*entity.Contact, error)
	ListContacts(ctx context.Context, vendorID int64) ([]*entity.Contact, error)
	UpdateContact(ctx context.Context, contact *entity.Contact) error
	DeleteContact(ctx context.Context, id int64) error
}

// EmployeeRepository defines read operations for employees
type EmployeeRepository interface {
	GetByEmail(ctx context.Context, email string) (*entity.Employee, error)
	GetByName(ctx context.Context, name string) (*entity.Employee, error)
	List(ctx context.Context) ([]*entity.Employee, error)
	// ListByRole returns employees holding the role token.
	ListByRole(ctx context.Context, role string) ([]*entity.Employee, error)
	Create(ctx context.Context, employee *entity.Employee) error
}

// NotificationRepository defines persistence operations for OrderNotification
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.OrderNotification) error
	GetByOrderNumber(ctx context.Context, orderNumber string) ([]*entity.OrderNotification, error)
	// ListRetryable returns FAILED records with fewer than maxAttempts attempts.
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.OrderNotification, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkFailed(ctx context.Context, id int64, errorMsg string) error
	DeleteByOrderNumber(ctx context.Context, orderNumber string) (int64, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
