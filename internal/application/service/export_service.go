package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/access"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

// ExportedFile is a rendered spreadsheet kept in file storage
type ExportedFile struct {
	FileName string
	Path     string
	Content  []byte
}

// ExportService renders orders and boards to spreadsheets
type ExportService interface {
	ExportOrder(ctx context.Context, actor access.Actor, orderNumber string) (*ExportedFile, error)
	ExportBoard(ctx context.Context, actor access.Actor, q BoardQuery) (*ExportedFile, error)
}

type exportServiceImpl struct {
	lineRepo    port.PurchaseLineRepository
	vendorRepo  port.VendorRepository
	board       BoardService
	renderer    port.SheetRenderer
	storage     port.FileStorage
	companyName string
	logger      Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	lineRepo port.PurchaseLineRepository,
	vendorRepo port.VendorRepository,
	board BoardService,
	renderer port.SheetRenderer,
	storage port.FileStorage,
	companyName string,
	logger Logger,
) ExportService {
	return &exportServiceImpl{
		lineRepo:    lineRepo,
		vendorRepo:  vendorRepo,
		board:       board,
		renderer:    renderer,
		storage:     storage,
		companyName: companyName,
		logger:      logger,
	}
}

// ExportOrder renders the purchase order sheet and stores it at
// orders/<order>.xlsx. A buyer downloading the sheet marks the order's
// PO as downloaded.
func (s *exportServiceImpl) ExportOrder(ctx context.Context, actor access.Actor, orderNumber string) (*ExportedFile, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, fmt.Errorf("%w: order number is required", ErrValidation)
	}

	lines, err := s.lineRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderNumber, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
	}
	header := lines[0]

	sheet := &port.OrderSheet{
		CompanyName: s.companyName,
		Header:      header,
		Lines:       lines,
		Total:       orderTotal(lines),
	}

	vendor, err := s.vendorRepo.GetByID(ctx, header.VendorID)
	if err != nil {
		return nil, fmt.Errorf("load vendor: %w", err)
	}
	sheet.Vendor = vendor

	if header.ContactID != nil {
		contact, err := s.vendorRepo.GetContact(ctx, *header.ContactID)
		if err != nil {
			return nil, fmt.Errorf("load contact: %w", err)
		}
		sheet.Contact = contact
	}

	content, err := s.renderer.RenderOrder(sheet)
	if err != nil {
		return nil, fmt.Errorf("render order %s: %w", orderNumber, err)
	}

	file := &ExportedFile{
		FileName: orderNumber + ".xlsx",
		Path:     "orders/" + orderNumber + ".xlsx",
		Content:  content,
	}
	if err := s.storage.Save(ctx, file.Path, content); err != nil {
		s.logger.Error("Failed to store order sheet", "order_number", orderNumber, "error", err)
		return nil, fmt.Errorf("store order sheet: %w", err)
	}

	if actor.Can(access.CapMarkPODownload) && !header.PODownloaded {
		if _, err := s.lineRepo.UpdateOrder(ctx, orderNumber, entity.OrderFields{PODownloaded: ptr(true)}); err != nil {
			s.logger.Error("Failed to mark PO downloaded", "order_number", orderNumber, "error", err)
		}
	}

	s.logger.Info("Order sheet exported",
		"order_number", orderNumber,
		"path", file.Path,
		"actor", actor.Name)
	return file, nil
}

// ExportBoard renders the rows the actor currently sees on the board
func (s *exportServiceImpl) ExportBoard(ctx context.Context, actor access.Actor, q BoardQuery) (*ExportedFile, error) {
	board, err := s.board.Load(ctx, actor, q)
	if err != nil {
		return nil, err
	}

	content, err := s.renderer.RenderBoard(&port.BoardSheet{
		Title: fmt.Sprintf("%s %s ~ %s", board.Tab, board.From, board.To),
		Rows:  board.Rows,
	})
	if err != nil {
		return nil, fmt.Errorf("render board: %w", err)
	}

	name := fmt.Sprintf("board-%s-%s.xlsx", board.Tab, board.GeneratedAt.Format("20060102"))
	file := &ExportedFile{
		FileName: name,
		Path:     "boards/" + uuid.NewString() + ".xlsx",
		Content:  content,
	}
	if err := s.storage.Save(ctx, file.Path, content); err != nil {
		s.logger.Error("Failed to store board sheet", "error", err)
		return nil, fmt.Errorf("store board sheet: %w", err)
	}

	s.logger.Info("Board exported",
		"tab", board.Tab,
		"rows", len(board.Rows),
		"path", file.Path)
	return file, nil
}
