package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/persistence/sqldb"
	"github.com/hyeunung/hanslwebapp-sub000/pkg/database"
)

const employeeColumns = "e.id, e.name, e.email, e.department, e.position, e.chat_id, e.created_at"

// EmployeeRepository implements port.EmployeeRepository
type EmployeeRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB, logger *zap.Logger) port.EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

// GetByEmail returns the employee with that email (case-insensitive), or nil
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*entity.Employee, error) {
	return r.getOne(ctx, "LOWER(e.email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

// GetByName returns the first employee with that display name, or nil
func (r *EmployeeRepository) GetByName(ctx context.Context, name string) (*entity.Employee, error) {
	return r.getOne(ctx, "e.name = ?", name)
}

func (r *EmployeeRepository) getOne(ctx context.Context, cond string, arg interface{}) (*entity.Employee, error) {
	query := r.db.Rebind("SELECT " + employeeColumns + " FROM employees e WHERE " + cond + " ORDER BY e.id LIMIT 1")

	var e entity.Employee
	err := sqldb.Conn(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&e.ID, &e.Name, &e.Email, &e.Department, &e.Position, &e.ChatID, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get employee", zap.Error(err))
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	roles, err := r.roles(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Roles = roles
	return &e, nil
}

// List returns every employee ordered by name
func (r *EmployeeRepository) List(ctx context.Context) ([]*entity.Employee, error) {
	return r.list(ctx, "SELECT "+employeeColumns+" FROM employees e ORDER BY e.name, e.id")
}

// ListByRole returns employees holding role
func (r *EmployeeRepository) ListByRole(ctx context.Context, role string) ([]*entity.Employee, error) {
	return r.list(ctx, "SELECT "+employeeColumns+`
		FROM employees e
		JOIN employee_roles er ON er.employee_id = e.id
		WHERE er.role = ?
		ORDER BY e.name, e.id`, role)
}

func (r *EmployeeRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Employee, error) {
	rows, err := sqldb.Conn(ctx, r.db).QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		r.logger.Error("Failed to list employees", zap.Error(err))
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	var employees []*entity.Employee
	for rows.Next() {
		var e entity.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.Position, &e.ChatID, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, &e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	// Roles are read after the cursor is released; a single-connection pool
	// cannot hold two open statements.
	rows.Close()

	for _, e := range employees {
		if e.Roles, err = r.roles(ctx, e.ID); err != nil {
			return nil, err
		}
	}
	return employees, nil
}

func (r *EmployeeRepository) roles(ctx context.Context, employeeID int64) ([]string, error) {
	rows, err := sqldb.Conn(ctx, r.db).QueryContext(ctx,
		r.db.Rebind("SELECT role FROM employee_roles WHERE employee_id = ? ORDER BY role"), employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee roles: %w", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Create inserts an employee and its roles
func (r *EmployeeRepository) Create(ctx context.Context, e *entity.Employee) error {
	e.CreatedAt = time.Now().UTC()
	err := sqldb.Conn(ctx, r.db).QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO employees (name, email, department, position, chat_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		e.Name, e.Email, e.Department, e.Position, e.ChatID, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		r.logger.Error("Failed to create employee", zap.String("email", e.Email), zap.Error(err))
		return fmt.Errorf("failed to create employee: %w", err)
	}

	for _, role := range e.Roles {
		if _, err := sqldb.Conn(ctx, r.db).ExecContext(ctx,
			r.db.Rebind("INSERT INTO employee_roles (employee_id, role) VALUES (?, ?)"), e.ID, role); err != nil {
			return fmt.Errorf("failed to add role %s: %w", role, err)
		}
	}
	return nil
}

// Verify interface compliance
var _ port.EmployeeRepository = (*EmployeeRepository)(nil)
