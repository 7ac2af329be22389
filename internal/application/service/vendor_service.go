package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/access"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

// VendorService manages vendors and their contacts
type VendorService interface {
	List(ctx context.Context) ([]*entity.Vendor, error)
	Get(ctx context.Context, id int64) (*entity.Vendor, error)
	Create(ctx context.Context, actor access.Actor, vendor *entity.Vendor) error
	Update(ctx context.Context, actor access.Actor, vendor *entity.Vendor) error
	Delete(ctx context.Context, actor access.Actor, id int64) error

	AddContact(ctx context.Context, actor access.Actor, contact *entity.Contact) error
	UpdateContact(ctx context.Context, actor access.Actor, contact *entity.Contact) error
	DeleteContact(ctx context.Context, actor access.Actor, id int64) error
}

type vendorServiceImpl struct {
	vendorRepo port.VendorRepository
	lineRepo   port.PurchaseLineRepository
	logger     Logger
}

// NewVendorService creates a new VendorService
func NewVendorService(vendorRepo port.VendorRepository, lineRepo port.PurchaseLineRepository, logger Logger) VendorService {
	return &vendorServiceImpl{
		vendorRepo: vendorRepo,
		lineRepo:   lineRepo,
		logger:     logger,
	}
}

func (s *vendorServiceImpl) List(ctx context.Context) ([]*entity.Vendor, error) {
	return s.vendorRepo.List(ctx)
}

// Get returns the vendor with its contacts
func (s *vendorServiceImpl) Get(ctx context.Context, id int64) (*entity.Vendor, error) {
	v, err := s.vendorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load vendor %d: %w", id, err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: vendor %d", ErrNotFound, id)
	}

	contacts, err := s.vendorRepo.ListContacts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load contacts of vendor %d: %w", id, err)
	}
	v.Contacts = make([]entity.Contact, len(contacts))
	for i, c := range contacts {
		v.Contacts[i] = *c
	}
	return v, nil
}

func (s *vendorServiceImpl) Create(ctx context.Context, actor access.Actor, vendor *entity.Vendor) error {
	if err := s.checkVendor(actor, vendor); err != nil {
		return err
	}
	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		return fmt.Errorf("create vendor: %w", err)
	}
	s.logger.Info("Vendor created", "vendor_id", vendor.ID, "name", vendor.Name, "actor", actor.Name)
	return nil
}

func (s *vendorServiceImpl) Update(ctx context.Context, actor access.Actor, vendor *entity.Vendor) error {
	if err := s.checkVendor(actor, vendor); err != nil {
		return err
	}
	if err := s.exists(ctx, vendor.ID); err != nil {
		return err
	}
	if err := s.vendorRepo.Update(ctx, vendor); err != nil {
		return fmt.Errorf("update vendor %d: %w", vendor.ID, err)
	}
	return nil
}

// Delete refuses vendors that any order line still references
func (s *vendorServiceImpl) Delete(ctx context.Context, actor access.Actor, id int64) error {
	if !actor.Can(access.CapManageVendors) {
		return fmt.Errorf("%w: managing vendors requires a buyer role", ErrPermissionDenied)
	}
	if err := s.exists(ctx, id); err != nil {
		return err
	}

	n, err := s.lineRepo.CountByVendor(ctx, id)
	if err != nil {
		return fmt.Errorf("count vendor usage: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: vendor %d is used by %d lines", ErrVendorInUse, id, n)
	}

	if err := s.vendorRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete vendor %d: %w", id, err)
	}
	s.logger.Info("Vendor deleted", "vendor_id", id, "actor", actor.Name)
	return nil
}

func (s *vendorServiceImpl) AddContact(ctx context.Context, actor access.Actor, contact *entity.Contact) error {
	if err := s.checkContact(actor, contact); err != nil {
		return err
	}
	if err := s.exists(ctx, contact.VendorID); err != nil {
		return err
	}
	if err := s.vendorRepo.CreateContact(ctx, contact); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (s *vendorServiceImpl) UpdateContact(ctx context.Context, actor access.Actor, contact *entity.Contact) error {
	if err := s.checkContact(actor, contact); err != nil {
		return err
	}
	current, err := s.vendorRepo.GetContact(ctx, contact.ID)
	if err != nil {
		return fmt.Errorf("load contact %d: %w", contact.ID, err)
	}
	if current == nil {
		return fmt.Errorf("%w: contact %d", ErrNotFound, contact.ID)
	}
	contact.VendorID = current.VendorID
	if err := s.vendorRepo.UpdateContact(ctx, contact); err != nil {
		return fmt.Errorf("update contact %d: %w", contact.ID, err)
	}
	return nil
}

func (s *vendorServiceImpl) DeleteContact(ctx context.Context, actor access.Actor, id int64) error {
	if !actor.Can(access.CapManageVendors) {
		return fmt.Errorf("%w: managing vendors requires a buyer role", ErrPermissionDenied)
	}
	current, err := s.vendorRepo.GetContact(ctx, id)
	if err != nil {
		return fmt.Errorf("load contact %d: %w", id, err)
	}
	if current == nil {
		return fmt.Errorf("%w: contact %d", ErrNotFound, id)
	}
	if err := s.vendorRepo.DeleteContact(ctx, id); err != nil {
		return fmt.Errorf("delete contact %d: %w", id, err)
	}
	return nil
}

func (s *vendorServiceImpl) exists(ctx context.Context, id int64) error {
	v, err := s.vendorRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load vendor %d: %w", id, err)
	}
	if v == nil {
		return fmt.Errorf("%w: vendor %d", ErrNotFound, id)
	}
	return nil
}

func (s *vendorServiceImpl) checkVendor(actor access.Actor, v *entity.Vendor) error {
	if !actor.Can(access.CapManageVendors) {
		return fmt.Errorf("%w: managing vendors requires a buyer role", ErrPermissionDenied)
	}
	if v == nil || strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("%w: vendor name is required", ErrValidation)
	}
	v.Name = strings.TrimSpace(v.Name)
	return nil
}

func (s *vendorServiceImpl) checkContact(actor access.Actor, c *entity.Contact) error {
	if !actor.Can(access.CapManageVendors) {
		return fmt.Errorf("%w: managing vendors requires a buyer role", ErrPermissionDenied)
	}
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: contact name is required", ErrValidation)
	}
	return nil
}
