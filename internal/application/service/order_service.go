package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/iter"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/dispatcher"
	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/access"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/event"
)

// LineInput is one item of a new order
type LineInput struct {
	ItemName      string          `json:"item_name"`
	Specification string          `json:"specification"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Remark        string          `json:"remark"`
	Link          string          `json:"link"`
}

// CreateOrderInput is a purchase request submission
type CreateOrderInput struct {
	VendorID            int64                  `json:"vendor_id"`
	ContactID           *int64                 `json:"contact_id"`
	RequestDate         *time.Time             `json:"request_date"`
	DeliveryRequestDate *time.Time             `json:"delivery_request_date"`
	Currency            string                 `json:"currency"`
	ProgressType        entity.ProgressType    `json:"progress_type"`
	PaymentCategory     entity.PaymentCategory `json:"payment_category"`
	ProjectVendor       string                 `json:"project_vendor"`
	SalesOrderNumber    string                 `json:"sales_order_number"`
	ProjectItem         string                 `json:"project_item"`
	Lines               []LineInput            `json:"lines"`
}

// LineEdit changes one existing line. Nil fields are kept.
type LineEdit struct {
	LineNumber    int              `json:"line_number"`
	ItemName      *string          `json:"item_name"`
	Specification *string          `json:"specification"`
	Quantity      *int             `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	Remark        *string          `json:"remark"`
	Link          *string          `json:"link"`
}

// EditOrderInput is an edit of one order
type EditOrderInput struct {
	DeliveryRequestDate *time.Time `json:"delivery_request_date"`
	VendorID            *int64     `json:"vendor_id"`
	ContactID           *int64     `json:"contact_id"`
	Lines               []LineEdit `json:"lines"`
}

// LineOutcome reports how one line edit went
type LineOutcome struct {
	LineNumber int    `json:"line_number"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// EditResult is the order as stored after an edit plus per-line outcomes
type EditResult struct {
	OrderNumber  string                 `json:"order_number"`
	Lines        []*entity.PurchaseLine `json:"lines"`
	OrderUpdated bool                   `json:"order_updated"`
	Outcomes     []LineOutcome          `json:"outcomes"`
}

// OrderService manages the order lifecycle outside the approval gates
type OrderService interface {
	Create(ctx context.Context, actor access.Actor, input CreateOrderInput) ([]*entity.PurchaseLine, error)
	Get(ctx context.Context, orderNumber string) ([]*entity.PurchaseLine, error)
	Edit(ctx context.Context, actor access.Actor, orderNumber string, input EditOrderInput) (*EditResult, error)
	DeleteOrder(ctx context.Context, actor access.Actor, orderNumber string, confirm bool) error
	DeleteLine(ctx context.Context, actor access.Actor, orderNumber string, lineNumber int, confirm bool) error
	MarkReceived(ctx context.Context, actor access.Actor, orderNumber string) ([]*entity.PurchaseLine, error)
	MarkPaymentCompleted(ctx context.Context, actor access.Actor, orderNumber string) ([]*entity.PurchaseLine, error)
	ClearCompletion(ctx context.Context, actor access.Actor, orderNumber string, kind entity.CompletionKind) ([]*entity.PurchaseLine, error)
}

type orderServiceImpl struct {
	lineRepo         port.PurchaseLineRepository
	vendorRepo       port.VendorRepository
	notificationRepo port.NotificationRepository
	txManager        port.TransactionManager
	dispatcher       dispatcher.Dispatcher
	clock            Clock
	orderPrefix      string
	logger           Logger
}

// NewOrderService creates a new OrderService. Order numbers are
// <orderPrefix><YYYYMMDD>_<NNN>.
func NewOrderService(
	lineRepo port.PurchaseLineRepository,
	vendorRepo port.VendorRepository,
	notificationRepo port.NotificationRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	clock Clock,
	orderPrefix string,
	logger Logger,
) OrderService {
	if orderPrefix == "" {
		orderPrefix = "F"
	}
	return &orderServiceImpl{
		lineRepo:         lineRepo,
		vendorRepo:       vendorRepo,
		notificationRepo: notificationRepo,
		txManager:        txManager,
		dispatcher:       d,
		clock:            clock,
		orderPrefix:      orderPrefix,
		logger:           logger,
	}
}

// Create stores the lines of a new order in one transaction
func (s *orderServiceImpl) Create(ctx context.Context, actor access.Actor, input CreateOrderInput) ([]*entity.PurchaseLine, error) {
	if actor.Name == "" {
		return nil, fmt.Errorf("%w: requester has no name", ErrValidation)
	}
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	vendor, err := s.vendorRepo.GetByID(ctx, input.VendorID)
	if err != nil {
		return nil, fmt.Errorf("load vendor: %w", err)
	}
	if vendor == nil {
		return nil, fmt.Errorf("%w: vendor %d does not exist", ErrValidation, input.VendorID)
	}
	if err := s.checkContact(ctx, input.ContactID, input.VendorID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	requestDate := now
	if input.RequestDate != nil {
		requestDate = input.RequestDate.In(now.Location())
	}
	datePrefix := s.orderPrefix + requestDate.Format("20060102") + "_"

	lines := make([]*entity.PurchaseLine, len(input.Lines))
	for i, in := range input.Lines {
		lines[i] = &entity.PurchaseLine{
			LineNumber:          i + 1,
			ItemName:            strings.TrimSpace(in.ItemName),
			Specification:       in.Specification,
			Quantity:            in.Quantity,
			UnitPrice:           in.UnitPrice,
			Amount:              entity.LineAmount(in.Quantity, in.UnitPrice),
			Remark:              in.Remark,
			Link:                in.Link,
			Currency:            input.Currency,
			RequesterName:       actor.Name,
			VendorID:            vendor.ID,
			VendorName:          vendor.Name,
			ContactID:           input.ContactID,
			RequestDate:         requestDate,
			DeliveryRequestDate: input.DeliveryRequestDate,
			ProgressType:        input.ProgressType,
			PaymentCategory:     input.PaymentCategory,
			ProjectVendor:       input.ProjectVendor,
			SalesOrderNumber:    input.SalesOrderNumber,
			ProjectItem:         input.ProjectItem,
			MiddleManagerStatus: entity.ApprovalPending,
			FinalManagerStatus:  entity.ApprovalPending,
		}
	}

	var orderNumber string
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		seq, err := s.lineRepo.NextOrderSequence(txCtx, datePrefix)
		if err != nil {
			return fmt.Errorf("next order sequence: %w", err)
		}
		orderNumber = fmt.Sprintf("%s%03d", datePrefix, seq)
		for _, l := range lines {
			l.OrderNumber = orderNumber
		}
		return s.lineRepo.CreateLines(txCtx, lines)
	})
	if err != nil {
		s.logger.Error("Failed to create order", "requester", actor.Name, "error", err)
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("Order created",
		"order_number", orderNumber,
		"requester", actor.Name,
		"lines", len(lines))

	s.dispatcher.DispatchAsync(context.WithoutCancel(ctx),
		event.NewEvent(event.TypeOrderCreated, orderNumber, actor.Name, orderPayload(lines)))
	return lines, nil
}

func validateCreate(input *CreateOrderInput) error {
	if len(input.Lines) == 0 {
		return fmt.Errorf("%w: an order needs at least one line", ErrValidation)
	}
	if input.VendorID <= 0 {
		return fmt.Errorf("%w: vendor is required", ErrValidation)
	}
	for i, l := range input.Lines {
		if strings.TrimSpace(l.ItemName) == "" {
			return fmt.Errorf("%w: line %d has no item name", ErrValidation, i+1)
		}
		if l.Quantity < 0 {
			return fmt.Errorf("%w: line %d has a negative quantity", ErrValidation, i+1)
		}
		if l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative unit price", ErrValidation, i+1)
		}
		if !entity.FitsMoneyScale(l.UnitPrice) {
			return fmt.Errorf("%w: line %d unit price has more than %d decimal places", ErrValidation, i+1, entity.MoneyScale)
		}
	}

	if input.Currency == "" {
		input.Currency = entity.DefaultCurrency
	}
	if input.ProgressType == "" {
		input.ProgressType = entity.ProgressNormal
	}
	if !input.ProgressType.IsValid() {
		return fmt.Errorf("%w: unknown progress type %q", ErrValidation, input.ProgressType)
	}
	if input.PaymentCategory == "" {
		input.PaymentCategory = entity.PaymentOrder
	}
	if !input.PaymentCategory.IsValid() {
		return fmt.Errorf("%w: unknown payment category %q", ErrValidation, input.PaymentCategory)
	}
	return nil
}

func (s *orderServiceImpl) checkContact(ctx context.Context, contactID *int64, vendorID int64) error {
	if contactID == nil {
		return nil
	}
	contact, err := s.vendorRepo.GetContact(ctx, *contactID)
	if err != nil {
		return fmt.Errorf("load contact: %w", err)
	}
	if contact == nil || contact.VendorID != vendorID {
		return fmt.Errorf("%w: contact %d does not belong to vendor %d", ErrValidation, *contactID, vendorID)
	}
	return nil
}

// Get returns the lines of one order
func (s *orderServiceImpl) Get(ctx context.Context, orderNumber string) ([]*entity.PurchaseLine, error) {
	return s.load(ctx, orderNumber)
}

func (s *orderServiceImpl) load(ctx context.Context, orderNumber string) ([]*entity.PurchaseLine, error) {
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
	return lines, nil
}

// Edit applies one order-level update and the line updates concurrently.
// Every attempt is awaited; when some fail the returned error wraps
// ErrPartialBatch and the result still carries the order as re-read from
// storage.
func (s *orderServiceImpl) Edit(ctx context.Context, actor access.Actor, orderNumber string, input EditOrderInput) (*EditResult, error) {
	if !actor.Can(access.CapEditOrder) {
		return nil, fmt.Errorf("%w: editing orders requires a buyer role", ErrPermissionDenied)
	}

	lines, err := s.load(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	orderNumber = lines[0].OrderNumber

	byNumber := make(map[int]*entity.PurchaseLine, len(lines))
	for _, l := range lines {
		byNumber[l.LineNumber] = l
	}

	updates := make([]lineUpdate, 0, len(input.Lines))
	seen := make(map[int]bool, len(input.Lines))
	for _, e := range input.Lines {
		current, ok := byNumber[e.LineNumber]
		if !ok {
			return nil, fmt.Errorf("%w: order %s has no line %d", ErrValidation, orderNumber, e.LineNumber)
		}
		if seen[e.LineNumber] {
			return nil, fmt.Errorf("%w: line %d edited twice", ErrValidation, e.LineNumber)
		}
		seen[e.LineNumber] = true

		fields, err := lineFields(e, current)
		if err != nil {
			return nil, err
		}
		if !fields.IsEmpty() {
			updates = append(updates, lineUpdate{lineNumber: e.LineNumber, fields: fields})
		}
	}

	orderFields := entity.OrderFields{
		DeliveryRequestDate: input.DeliveryRequestDate,
		VendorID:            input.VendorID,
		ContactID:           input.ContactID,
	}
	if input.VendorID != nil {
		vendor, err := s.vendorRepo.GetByID(ctx, *input.VendorID)
		if err != nil {
			return nil, fmt.Errorf("load vendor: %w", err)
		}
		if vendor == nil {
			return nil, fmt.Errorf("%w: vendor %d does not exist", ErrValidation, *input.VendorID)
		}
	}
	vendorID := lines[0].VendorID
	if input.VendorID != nil {
		vendorID = *input.VendorID
	}
	if err := s.checkContact(ctx, input.ContactID, vendorID); err != nil {
		return nil, err
	}
	// A contact never outlives a vendor change.
	if input.ContactID == nil && vendorID != lines[0].VendorID && lines[0].ContactID != nil {
		orderFields.ClearContact = true
	}

	result := &EditResult{OrderNumber: orderNumber}
	var failed []string

	if !orderFields.IsEmpty() {
		if _, err := s.lineRepo.UpdateOrder(ctx, orderNumber, orderFields); err != nil {
			s.logger.Error("Failed to update order fields", "order_number", orderNumber, "error", err)
			failed = append(failed, "order")
		} else {
			result.OrderUpdated = true
		}
	}

	result.Outcomes = iter.Map(updates, func(u *lineUpdate) LineOutcome {
		out := LineOutcome{LineNumber: u.lineNumber, Success: true}
		if err := s.lineRepo.UpdateLine(ctx, orderNumber, u.lineNumber, u.fields); err != nil {
			s.logger.Error("Failed to update line",
				"order_number", orderNumber,
				"line_number", u.lineNumber,
				"error", err)
			out.Success = false
			out.Error = err.Error()
		}
		return out
	})
	sort.Slice(result.Outcomes, func(i, j int) bool {
		return result.Outcomes[i].LineNumber < result.Outcomes[j].LineNumber
	})
	for _, o := range result.Outcomes {
		if !o.Success {
			failed = append(failed, fmt.Sprintf("line %d", o.LineNumber))
		}
	}

	result.Lines, err = s.lineRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		s.logger.Error("Failed to re-read order after edit", "order_number", orderNumber, "error", err)
		return result, fmt.Errorf("re-read order %s: %w", orderNumber, err)
	}

	if len(failed) > 0 {
		return result, fmt.Errorf("%w: %s", ErrPartialBatch, strings.Join(failed, ", "))
	}

	s.logger.Info("Order edited",
		"order_number", orderNumber,
		"lines", len(updates),
		"order_updated", result.OrderUpdated,
		"actor", actor.Name)
	s.dispatcher.DispatchAsync(context.WithoutCancel(ctx),
		event.NewEvent(event.TypeOrderEdited, orderNumber, actor.Name, orderPayload(result.Lines)))
	return result, nil
}

type lineUpdate struct {
	lineNumber int
	fields     entity.LineFields
}

// lineFields validates an edit and recomputes the amount from whatever
// mix of new and current quantity and price results.
func lineFields(e LineEdit, current *entity.PurchaseLine) (entity.LineFields, error) {
	if e.ItemName != nil && strings.TrimSpace(*e.ItemName) == "" {
		return entity.LineFields{}, fmt.Errorf("%w: line %d item name is empty", ErrValidation, e.LineNumber)
	}
	if e.Quantity != nil && *e.Quantity < 0 {
		return entity.LineFields{}, fmt.Errorf("%w: line %d has a negative quantity", ErrValidation, e.LineNumber)
	}
	if e.UnitPrice != nil && e.UnitPrice.IsNegative() {
		return entity.LineFields{}, fmt.Errorf("%w: line %d has a negative unit price", ErrValidation, e.LineNumber)
	}
	if e.UnitPrice != nil && !entity.FitsMoneyScale(*e.UnitPrice) {
		return entity.LineFields{}, fmt.Errorf("%w: line %d unit price has more than %d decimal places", ErrValidation, e.LineNumber, entity.MoneyScale)
	}

	f := entity.LineFields{
		ItemName:      e.ItemName,
		Specification: e.Specification,
		Quantity:      e.Quantity,
		UnitPrice:     e.UnitPrice,
		Remark:        e.Remark,
		Link:          e.Link,
	}
	if e.Quantity != nil || e.UnitPrice != nil {
		qty, price := current.Quantity, current.UnitPrice
		if e.Quantity != nil {
			qty = *e.Quantity
		}
		if e.UnitPrice != nil {
			price = *e.UnitPrice
		}
		f.Amount = ptr(entity.LineAmount(qty, price))
	}
	return f, nil
}

// DeleteOrder removes every line of the order and its notification records
func (s *orderServiceImpl) DeleteOrder(ctx context.Context, actor access.Actor, orderNumber string, confirm bool) error {
	if !actor.Can(access.CapDeleteOrder) {
		return fmt.Errorf("%w: deleting orders requires lead buyer", ErrPermissionDenied)
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return fmt.Errorf("%w: order number is required", ErrValidation)
	}
	if !confirm {
		return ErrConfirmationRequired
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		n, err := s.lineRepo.DeleteOrder(txCtx, orderNumber)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
		}
		_, err = s.notificationRepo.DeleteByOrderNumber(txCtx, orderNumber)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		s.logger.Error("Failed to delete order", "order_number", orderNumber, "error", err)
		return fmt.Errorf("delete order %s: %w", orderNumber, err)
	}

	s.logger.Info("Order deleted", "order_number", orderNumber, "actor", actor.Name)
	s.dispatcher.DispatchAsync(context.WithoutCancel(ctx),
		event.NewEvent(event.TypeOrderDeleted, orderNumber, actor.Name, nil))
	return nil
}

// DeleteLine removes one line. Removing the last line removes the order,
// so its notification records go too.
func (s *orderServiceImpl) DeleteLine(ctx context.Context, actor access.Actor, orderNumber string, lineNumber int, confirm bool) error {
	if !actor.Can(access.CapDeleteOrder) {
		return fmt.Errorf("%w: deleting orders requires lead buyer", ErrPermissionDenied)
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" || lineNumber <= 0 {
		return fmt.Errorf("%w: order number and line number are required", ErrValidation)
	}
	if !confirm {
		return ErrConfirmationRequired
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		n, err := s.lineRepo.DeleteLine(txCtx, orderNumber, lineNumber)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: line %d of order %s", ErrNotFound, lineNumber, orderNumber)
		}

		rest, err := s.lineRepo.GetByOrderNumber(txCtx, orderNumber)
		if err != nil {
			return err
		}
		if len(rest) == 0 {
			_, err = s.notificationRepo.DeleteByOrderNumber(txCtx, orderNumber)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		s.logger.Error("Failed to delete line",
			"order_number", orderNumber,
			"line_number", lineNumber,
			"error", err)
		return fmt.Errorf("delete line %d of order %s: %w", lineNumber, orderNumber, err)
	}

	s.logger.Info("Line deleted",
		"order_number", orderNumber,
		"line_number", lineNumber,
		"actor", actor.Name)
	return nil
}

// MarkReceived records that the goods arrived
func (s *orderServiceImpl) MarkReceived(ctx context.Context, actor access.Actor, orderNumber string) ([]*entity.PurchaseLine, error) {
	lines, err := s.load(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	h := lines[0]

	if !actor.CanMarkReceived(h.RequesterName) {
		return nil, fmt.Errorf("%w: only the requester or a lead buyer can mark receipt", ErrPermissionDenied)
	}
	if h.FinalManagerStatus != entity.ApprovalApproved && h.ProgressType != entity.ProgressAdvance {
		return nil, fmt.Errorf("%w: order %s is not approved", ErrPrecondition, h.OrderNumber)
	}

	now := s.clock.Now()
	return s.update(ctx, actor, lines, entity.OrderFields{
		Received:   ptr(true),
		ReceivedAt: &now,
	}, event.TypeOrderReceived)
}

// MarkPaymentCompleted records payment of a purchase-request order
func (s *orderServiceImpl) MarkPaymentCompleted(ctx context.Context, actor access.Actor, orderNumber string) ([]*entity.PurchaseLine, error) {
	if !actor.Can(access.CapMarkPayment) {
		return nil, fmt.Errorf("%w: marking payment requires a buyer role", ErrPermissionDenied)
	}
	lines, err := s.load(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if lines[0].PaymentCategory != entity.PaymentPurchaseRequest {
		return nil, fmt.Errorf("%w: order %s is not a purchase request", ErrPrecondition, lines[0].OrderNumber)
	}

	now := s.clock.Now()
	return s.update(ctx, actor, lines, entity.OrderFields{
		PaymentCompleted:   ptr(true),
		PaymentCompletedAt: &now,
	}, event.TypeOrderPaymentCompleted)
}

// ClearCompletion resets the receipt or payment flag pair
func (s *orderServiceImpl) ClearCompletion(ctx context.Context, actor access.Actor, orderNumber string, kind entity.CompletionKind) ([]*entity.PurchaseLine, error) {
	if !actor.Can(access.CapClearCompletion) {
		return nil, fmt.Errorf("%w: clearing completion requires an administrator", ErrPermissionDenied)
	}

	var fields entity.OrderFields
	switch kind {
	case entity.CompletionReceipt:
		fields = entity.OrderFields{Received: ptr(false), ClearReceivedAt: true}
	case entity.CompletionPayment:
		fields = entity.OrderFields{PaymentCompleted: ptr(false), ClearPaymentCompletedAt: true}
	default:
		return nil, fmt.Errorf("%w: unknown completion kind %q", ErrValidation, kind)
	}

	lines, err := s.load(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, actor, lines, fields, "")
}

// update writes order-level fields and mirrors them onto lines
func (s *orderServiceImpl) update(ctx context.Context, actor access.Actor, lines []*entity.PurchaseLine, fields entity.OrderFields, evtType event.Type) ([]*entity.PurchaseLine, error) {
	orderNumber := lines[0].OrderNumber

	n, err := s.lineRepo.UpdateOrder(ctx, orderNumber, fields)
	if err != nil {
		s.logger.Error("Failed to update order", "order_number", orderNumber, "error", err)
		return nil, fmt.Errorf("update order %s: %w", orderNumber, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
	}

	applyOrderFields(lines, fields, s.clock.Now())
	s.logger.Info("Order updated", "order_number", orderNumber, "actor", actor.Name)

	if evtType != "" {
		s.dispatcher.DispatchAsync(context.WithoutCancel(ctx),
			event.NewEvent(evtType, orderNumber, actor.Name, orderPayload(lines)))
	}
	return lines, nil
}
