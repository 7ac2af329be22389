package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/dispatcher"
	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/access"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/event"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/workflow"
)

// Result is the outcome of an approval action
type Result struct {
	OrderNumber string                 `json:"order_number"`
	Header      *entity.PurchaseLine   `json:"header"`
	Lines       []*entity.PurchaseLine `json:"lines"`
	From        string                 `json:"from"`
	To          string                 `json:"to"`
	// Changed is false when the action was a no-op (verify on an already
	// verified order).
	Changed bool `json:"changed"`
	// NotificationWarning is set when the status change was stored but a
	// follow-up notification failed.
	NotificationWarning string `json:"notification_warning,omitempty"`
}

// ApprovalService applies approval transitions to orders
type ApprovalService interface {
	Verify(ctx context.Context, actor access.Actor, orderNumber string) (*Result, error)
	Approve(ctx context.Context, actor access.Actor, orderNumber string) (*Result, error)
	Reject(ctx context.Context, actor access.Actor, orderNumber string) (*Result, error)
	Reset(ctx context.Context, actor access.Actor, orderNumber string) (*Result, error)
	Transition(ctx context.Context, actor access.Actor, orderNumber string, trigger workflow.Trigger) (*Result, error)
}

type approvalServiceImpl struct {
	lineRepo   port.PurchaseLineRepository
	dispatcher dispatcher.Dispatcher
	clock      Clock
	logger     Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	lineRepo port.PurchaseLineRepository,
	d dispatcher.Dispatcher,
	clock Clock,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		lineRepo:   lineRepo,
		dispatcher: d,
		clock:      clock,
		logger:     logger,
	}
}

var transitionEvents = map[workflow.Trigger]event.Type{
	workflow.TriggerVerify:  event.TypeOrderVerified,
	workflow.TriggerApprove: event.TypeOrderApproved,
	workflow.TriggerReject:  event.TypeOrderRejected,
	workflow.TriggerReset:   event.TypeOrderReset,
}

func (s *approvalServiceImpl) Verify(ctx context.Context, actor access.Actor, orderNumber string) (*Result, error) {
	return s.Transition(ctx, actor, orderNumber, workflow.TriggerVerify)
}

func (s *approvalServiceImpl) Approve(ctx context.Context, actor access.Actor, orderNumber string) (*Result, error) {
	return s.Transition(ctx, actor, orderNumber, workflow.TriggerApprove)
}

func (s *approvalServiceImpl) Reject(ctx context.Context, actor access.Actor, orderNumber string) (*Result, error) {
	return s.Transition(ctx, actor, orderNumber, workflow.TriggerReject)
}

func (s *approvalServiceImpl) Reset(ctx context.Context, actor access.Actor, orderNumber string) (*Result, error) {
	return s.Transition(ctx, actor, orderNumber, workflow.TriggerReset)
}

// Transition checks the actor's role, then the order's state, stores the
// new status pair on every line of the order and dispatches the matching
// event. Notification failures surface as Result.NotificationWarning.
func (s *approvalServiceImpl) Transition(ctx context.Context, actor access.Actor, orderNumber string, trigger workflow.Trigger) (*Result, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, fmt.Errorf("%w: order number is required", ErrValidation)
	}
	if !trigger.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrValidation, trigger)
	}
	if !actor.CanFire(trigger) {
		s.logger.Info("Approval action refused",
			"order_number", orderNumber,
			"action", trigger,
			"actor", actor.Email)
		return nil, fmt.Errorf("%w: %s requires another role", ErrPermissionDenied, trigger)
	}

	lines, err := s.lineRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderNumber, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
	}

	from := workflow.StateOf(lines[0])
	machine := workflow.NewApprovalMachine(from, access.TriggerGuard())
	if err := machine.Fire(access.WithActor(ctx, actor), trigger); err != nil {
		if errors.Is(err, workflow.ErrGuardFailed) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("%s order %s: %w", trigger, orderNumber, err)
	}
	to := machine.State()

	result := &Result{
		OrderNumber: orderNumber,
		Header:      lines[0],
		Lines:       lines,
		From:        from.String(),
		To:          to.String(),
	}

	if to == from && trigger == workflow.TriggerVerify {
		s.logger.Info("Order already verified", "order_number", orderNumber)
		return result, nil
	}

	now := s.clock.Now()
	fields := transitionFields(trigger, to, now)

	n, err := s.lineRepo.UpdateOrder(ctx, orderNumber, fields)
	if err != nil {
		s.logger.Error("Failed to store approval status",
			"order_number", orderNumber,
			"action", trigger,
			"error", err)
		return nil, fmt.Errorf("store %s for order %s: %w", trigger, orderNumber, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
	}

	applyOrderFields(lines, fields, now)
	result.Changed = true

	s.logger.Info("Approval status changed",
		"order_number", orderNumber,
		"action", trigger,
		"from", from.String(),
		"to", to.String(),
		"actor", actor.Name)

	evt := event.NewEvent(transitionEvents[trigger], orderNumber, actor.Name, orderPayload(lines))
	if err := s.dispatcher.Dispatch(ctx, evt); err != nil {
		s.logger.Error("Notification failed after status change",
			"order_number", orderNumber,
			"event_type", evt.Type,
			"error", err)
		result.NotificationWarning = err.Error()
	}

	return result, nil
}

// transitionFields is the single update a transition writes
func transitionFields(trigger workflow.Trigger, to workflow.State, now time.Time) entity.OrderFields {
	fields := entity.OrderFields{
		MiddleManagerStatus: ptr(to.Middle),
		FinalManagerStatus:  ptr(to.Final),
	}

	switch trigger {
	case workflow.TriggerApprove:
		fields.FinalApprovedAt = &now
	case workflow.TriggerReset:
		fields.ClearFinalApproved = true
		fields.PaymentCompleted = ptr(false)
		fields.ClearPaymentCompletedAt = true
		fields.Received = ptr(false)
		fields.ClearReceivedAt = true
	}
	return fields
}
