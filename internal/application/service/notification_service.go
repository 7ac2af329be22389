package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/dispatcher"
	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/access"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/event"
	"github.com/hyeunung/hanslwebapp-sub000/pkg/utils"
)

// NotificationService tells the right people about approval transitions
type NotificationService interface {
	// Register subscribes the notification handlers to d
	Register(d dispatcher.Dispatcher)
	// Notify sends the messages for one transition event
	Notify(ctx context.Context, evt *event.Event) error
	// History lists notification records of an order
	History(ctx context.Context, orderNumber string) ([]*entity.OrderNotification, error)
}

type notificationServiceImpl struct {
	employeeRepo     port.EmployeeRepository
	notificationRepo port.NotificationRepository
	sender           port.MessageSender
	clock            Clock
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	employeeRepo port.EmployeeRepository,
	notificationRepo port.NotificationRepository,
	sender port.MessageSender,
	clock Clock,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		employeeRepo:     employeeRepo,
		notificationRepo: notificationRepo,
		sender:           sender,
		clock:            clock,
		logger:           logger,
	}
}

var notificationKinds = map[event.Type]string{
	event.TypeOrderCreated:  entity.NotificationKindSubmitted,
	event.TypeOrderVerified: entity.NotificationKindVerified,
	event.TypeOrderApproved: entity.NotificationKindApproved,
	event.TypeOrderRejected: entity.NotificationKindRejected,
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	for t := range notificationKinds {
		d.Subscribe(t, "notify-"+string(t), s.Notify)
	}
	for _, t := range event.AllTypes() {
		d.Subscribe(t, "activity-log", s.logActivity)
	}
}

// logActivity writes one structured line per order event so edits,
// deletions and completions leave a trail next to the chat notifications.
func (s *notificationServiceImpl) logActivity(_ context.Context, evt *event.Event) error {
	s.logger.Info("Order event",
		"type", string(evt.Type),
		"order_number", evt.OrderNumber,
		"actor", evt.Actor,
		"event_id", evt.ID,
		"correlation_id", evt.CorrelationID)
	return nil
}

// Notify resolves recipients for the event, sends each one a chat message
// and records the attempt. The returned error joins every failed send.
func (s *notificationServiceImpl) Notify(ctx context.Context, evt *event.Event) error {
	kind, ok := notificationKinds[evt.Type]
	if !ok {
		return nil
	}

	recipients, err := s.recipients(ctx, evt)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		s.logger.Info("No notification recipients",
			"order_number", evt.OrderNumber,
			"kind", kind)
		return nil
	}

	text := notificationText(kind, evt)

	var errs []error
	for _, to := range recipients {
		n := &entity.OrderNotification{
			OrderNumber: evt.OrderNumber,
			Kind:        kind,
			Recipient:   to,
			Message:     text,
			Attempts:    1,
		}

		if sendErr := s.sender.SendText(ctx, to, text); sendErr != nil {
			n.Status = entity.NotificationStatusFailed
			n.ErrorMessage = sendErr.Error()
			errs = append(errs, fmt.Errorf("notify %s: %w", to, sendErr))
		} else {
			sentAt := s.clock.Now()
			n.Status = entity.NotificationStatusSent
			n.SentAt = &sentAt
		}

		if err := s.notificationRepo.Create(ctx, n); err != nil {
			s.logger.Error("Failed to record notification",
				"order_number", evt.OrderNumber,
				"recipient", to,
				"error", err)
			errs = append(errs, fmt.Errorf("record notification for %s: %w", to, err))
		}
	}

	s.logger.Info("Order notifications processed",
		"order_number", evt.OrderNumber,
		"kind", kind,
		"recipients", len(recipients),
		"failures", len(errs))
	return errors.Join(errs...)
}

// recipients maps the event to chat addresses:
// created goes to middle managers, verified to final approvers, approved to the requester and purchase
// managers, rejected to the requester.
func (s *notificationServiceImpl) recipients(ctx context.Context, evt *event.Event) ([]string, error) {
	var employees []*entity.Employee

	switch evt.Type {
	case event.TypeOrderCreated:
		managers, err := s.employeeRepo.ListByRole(ctx, string(access.RoleMiddleManager))
		if err != nil {
			return nil, err
		}
		employees = managers

	case event.TypeOrderVerified:
		approvers, err := s.employeeRepo.ListByRole(ctx, string(access.RoleFinalApprover))
		if err != nil {
			return nil, err
		}
		employees = approvers

	case event.TypeOrderApproved:
		requester, err := s.requester(ctx, evt)
		if err != nil {
			return nil, err
		}
		if requester != nil {
			employees = append(employees, requester)
		}
		buyers, err := s.employeeRepo.ListByRole(ctx, string(access.RolePurchaseManager))
		if err != nil {
			return nil, err
		}
		employees = append(employees, buyers...)

	case event.TypeOrderRejected:
		requester, err := s.requester(ctx, evt)
		if err != nil {
			return nil, err
		}
		if requester != nil {
			employees = append(employees, requester)
		}
	}

	seen := make(map[string]bool, len(employees))
	out := make([]string, 0, len(employees))
	for _, e := range employees {
		addr := e.ChatID
		if addr == "" {
			addr = e.Email
		}
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out, nil
}

func (s *notificationServiceImpl) requester(ctx context.Context, evt *event.Event) (*entity.Employee, error) {
	name := evt.GetPayloadString(event.KeyRequester)
	if name == "" {
		return nil, nil
	}
	return s.employeeRepo.GetByName(ctx, name)
}

func (s *notificationServiceImpl) History(ctx context.Context, orderNumber string) ([]*entity.OrderNotification, error) {
	return s.notificationRepo.GetByOrderNumber(ctx, strings.TrimSpace(orderNumber))
}

var notificationTitles = map[string]string{
	entity.NotificationKindSubmitted: "[발주 요청] 검증을 요청합니다",
	entity.NotificationKindVerified:  "[발주 검증 완료] 최종 승인을 요청합니다",
	entity.NotificationKindApproved:  "[발주 최종 승인]",
	entity.NotificationKindRejected:  "[발주 반려]",
}

func notificationText(kind string, evt *event.Event) string {
	item := evt.GetPayloadString(event.KeyItemName)
	if n := evt.GetPayloadInt(event.KeyLineCount); n > 1 {
		item = fmt.Sprintf("%s 외 %d건", item, n-1)
	}

	total := evt.GetPayloadString(event.KeyTotal)
	if d, err := decimal.NewFromString(total); err == nil {
		total = utils.FormatThousands(d)
	}

	return fmt.Sprintf("%s\n발주번호: %s\n요청자: %s\n업체: %s\n품목: %s\n금액: %s %s\n처리자: %s",
		notificationTitles[kind],
		evt.OrderNumber,
		evt.GetPayloadString(event.KeyRequester),
		evt.GetPayloadString(event.KeyVendor),
		item,
		total,
		evt.GetPayloadString(event.KeyCurrency),
		evt.Actor)
}
