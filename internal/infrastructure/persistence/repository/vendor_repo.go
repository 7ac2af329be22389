package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/persistence/sqldb"
	"github.com/hyeunung/hanslwebapp-sub000/pkg/database"
)

// VendorRepository implements port.VendorRepository
type VendorRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *database.DB, logger *zap.Logger) port.VendorRepository {
	return &VendorRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a vendor
func (r *VendorRepository) Create(ctx context.Context, v *entity.Vendor) error {
	query := r.db.Rebind(`
		INSERT INTO vendors (
			name, business_number, address, phone, fax, payment_schedule, note,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	err := sqldb.Conn(ctx, r.db).QueryRowContext(ctx, query,
		v.Name, v.BusinessNumber, v.Address, v.Phone, v.Fax, v.PaymentSchedule, v.Note,
		v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID)
	if err != nil {
		r.logger.Error("Failed to create vendor", zap.String("name", v.Name), zap.Error(err))
		return fmt.Errorf("failed to create vendor: %w", err)
	}
	return nil
}

// GetByID returns the vendor with its contacts, or nil when missing
func (r *VendorRepository) GetByID(ctx context.Context, id int64) (*entity.Vendor, error) {
	query := r.db.Rebind(`
		SELECT id, name, business_number, address, phone, fax, payment_schedule, note,
			created_at, updated_at
		FROM vendors WHERE id = ?`)

	var v entity.Vendor
	err := sqldb.Conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.Name, &v.BusinessNumber, &v.Address, &v.Phone, &v.Fax,
		&v.PaymentSchedule, &v.Note, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get vendor", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}

	contacts, err := r.ListContacts(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, c := range contacts {
		v.Contacts = append(v.Contacts, *c)
	}
	return &v, nil
}

// List returns all vendors ordered by name, without contacts
func (r *VendorRepository) List(ctx context.Context) ([]*entity.Vendor, error) {
	rows, err := sqldb.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT id, name, business_number, address, phone, fax, payment_schedule, note,
			created_at, updated_at
		FROM vendors ORDER BY name`)
	if err != nil {
		r.logger.Error("Failed to list vendors", zap.Error(err))
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*entity.Vendor
	for rows.Next() {
		var v entity.Vendor
		if err := rows.Scan(
			&v.ID, &v.Name, &v.BusinessNumber, &v.Address, &v.Phone, &v.Fax,
			&v.PaymentSchedule, &v.Note, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, &v)
	}
	return vendors, rows.Err()
}

// Update overwrites the vendor's fields
func (r *VendorRepository) Update(ctx context.Context, v *entity.Vendor) error {
	query := r.db.Rebind(`
		UPDATE vendors
		SET name = ?, business_number = ?, address = ?, phone = ?, fax = ?,
			payment_schedule = ?, note = ?, updated_at = ?
		WHERE id = ?`)

	v.UpdatedAt = time.Now().UTC()
	res, err := sqldb.Conn(ctx, r.db).ExecContext(ctx, query,
		v.Name, v.BusinessNumber, v.Address, v.Phone, v.Fax, v.PaymentSchedule, v.Note,
		v.UpdatedAt, v.ID)
	if err != nil {
		r.logger.Error("Failed to update vendor", zap.Int64("id", v.ID), zap.Error(err))
		return fmt.Errorf("failed to update vendor: %w", err)
	}
	return requireRow(res, "vendor", v.ID)
}

// Delete removes the vendor and, by cascade, its contacts
func (r *VendorRepository) Delete(ctx context.Context, id int64) error {
	res, err := sqldb.Conn(ctx, r.db).ExecContext(ctx, r.db.Rebind("DELETE FROM vendors WHERE id = ?"), id)
	if err != nil {
		r.logger.Error("Failed to delete vendor", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete vendor: %w", err)
	}
	return requireRow(res, "vendor", id)
}

// CreateContact inserts a contact
func (r *VendorRepository) CreateContact(ctx context.Context, c *entity.Contact) error {
	query := r.db.Rebind(`
		INSERT INTO vendor_contacts (vendor_id, name, email, phone, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	c.CreatedAt = time.Now().UTC()
	err := sqldb.Conn(ctx, r.db).QueryRowContext(ctx, query,
		c.VendorID, c.Name, c.Email, c.Phone, c.Position, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		r.logger.Error("Failed to create contact", zap.Int64("vendor_id", c.VendorID), zap.Error(err))
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// GetContact returns a contact, or nil when missing
func (r *VendorRepository) GetContact(ctx context.Context, id int64) (*entity.Contact, error) {
	query := r.db.Rebind(`
		SELECT id, vendor_id, name, email, phone, position, created_at
		FROM vendor_contacts WHERE id = ?`)

	var c entity.Contact
	err := sqldb.Conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.VendorID, &c.Name, &c.Email, &c.Phone, &c.Position, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &c, nil
}

// ListContacts returns a vendor's contacts ordered by name
func (r *VendorRepository) ListContacts(ctx context.Context, vendorID int64) ([]*entity.Contact, error) {
	rows, err := sqldb.Conn(ctx, r.db).QueryContext(ctx, r.db.Rebind(`
		SELECT id, vendor_id, name, email, phone, position, created_at
		FROM vendor_contacts WHERE vendor_id = ? ORDER BY name, id`), vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*entity.Contact
	for rows.Next() {
		var c entity.Contact
		if err := rows.Scan(&c.ID, &c.VendorID, &c.Name, &c.Email, &c.Phone, &c.Position, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

// UpdateContact overwrites a contact's fields
func (r *VendorRepository) UpdateContact(ctx context.Context, c *entity.Contact) error {
	res, err := sqldb.Conn(ctx, r.db).ExecContext(ctx, r.db.Rebind(`
		UPDATE vendor_contacts SET name = ?, email = ?, phone = ?, position = ?
		WHERE id = ?`),
		c.Name, c.Email, c.Phone, c.Position, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return requireRow(res, "contact", c.ID)
}

// DeleteContact removes a contact; lines referencing it keep no contact
func (r *VendorRepository) DeleteContact(ctx context.Context, id int64) error {
	res, err := sqldb.Conn(ctx, r.db).ExecContext(ctx, r.db.Rebind("DELETE FROM vendor_contacts WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return requireRow(res, "contact", id)
}

func requireRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, sql.ErrNoRows)
	}
	return nil
}

// Verify interface compliance
var _ port.VendorRepository = (*VendorRepository)(nil)
