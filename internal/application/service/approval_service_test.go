package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/dispatcher"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/event"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/workflow"
)

const orderNo = "F20250302_001"

func newApprovalFixture(t *testing.T, mid, fin entity.ApprovalStatus) (*memLineRepo, dispatcher.Dispatcher, *[]*event.Event, ApprovalService) {
	t.Helper()

	lines := []*entity.PurchaseLine{newLine(orderNo, 1, "kim"), newLine(orderNo, 2, "kim")}
	for _, l := range lines {
		l.MiddleManagerStatus, l.FinalManagerStatus = mid, fin
	}
	repo := &memLineRepo{lines: lines}

	d := dispatcher.NewDispatcher()
	var events []*event.Event
	record := func(ctx context.Context, evt *event.Event) error {
		events = append(events, evt)
		return nil
	}
	for _, typ := range []event.Type{event.TypeOrderVerified, event.TypeOrderApproved, event.TypeOrderRejected, event.TypeOrderReset} {
		d.Subscribe(typ, "record", record)
	}

	svc := NewApprovalService(repo, d, FixedClock(testNow), &mockLogger{})
	return repo, d, &events, svc
}

func TestApprovalService_VerifyThenApprove(t *testing.T) {
	ctx := context.Background()
	repo, _, events, svc := newApprovalFixture(t, entity.ApprovalPending, entity.ApprovalPending)

	res, err := svc.Verify(ctx, actor("park", "middle_manager"), orderNo)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "pending/pending", res.From)
	assert.Equal(t, "approved/pending", res.To)
	assert.Equal(t, entity.ApprovalApproved, res.Header.MiddleManagerStatus)
	require.Len(t, *events, 1)
	assert.Equal(t, event.TypeOrderVerified, (*events)[0].Type)
	assert.Equal(t, "kim", (*events)[0].GetPayloadString(event.KeyRequester))
	assert.Equal(t, "4000", (*events)[0].GetPayloadString(event.KeyTotal))

	res, err = svc.Approve(ctx, actor("choi", "final_approver"), orderNo)
	require.NoError(t, err)
	assert.Equal(t, "approved/approved", res.To)
	require.NotNil(t, res.Header.FinalApprovedAt)
	assert.True(t, res.Header.FinalApprovedAt.Equal(testNow))

	stored, _ := repo.GetByOrderNumber(ctx, orderNo)
	for _, l := range stored {
		assert.Equal(t, workflow.StateApproved, workflow.StateOf(l))
		assert.NotNil(t, l.FinalApprovedAt)
	}
	assert.Equal(t, 2, repo.updateOrderCalls)
	assert.Len(t, *events, 2)
}

func TestApprovalService_VerifyAlreadyVerifiedIsNoop(t *testing.T) {
	repo, _, events, svc := newApprovalFixture(t, entity.ApprovalApproved, entity.ApprovalPending)

	res, err := svc.Verify(context.Background(), actor("park", "middle_manager"), orderNo)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, res.From, res.To)
	assert.Zero(t, repo.updateOrderCalls)
	assert.Empty(t, *events)
}

func TestApprovalService_ApproveRequiresVerifiedMiddle(t *testing.T) {
	for _, s := range workflow.AllStates() {
		t.Run(s.String(), func(t *testing.T) {
			repo, _, _, svc := newApprovalFixture(t, s.Middle, s.Final)

			res, err := svc.Approve(context.Background(), actor("choi", "final_approver"), orderNo)
			if s.Middle == entity.ApprovalApproved && s.Final != entity.ApprovalApproved {
				require.NoError(t, err)
				assert.Equal(t, "approved/approved", res.To)
				return
			}
			assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
			var refused *workflow.TransitionError
			require.ErrorAs(t, err, &refused)
			if s.Middle != entity.ApprovalApproved {
				assert.Equal(t, workflow.GateMiddle, refused.Gate)
			} else {
				assert.Equal(t, workflow.GateFinal, refused.Gate)
			}
			assert.Zero(t, repo.updateOrderCalls)
		})
	}
}

func TestApprovalService_RejectFromEveryState(t *testing.T) {
	for _, s := range workflow.AllStates() {
		t.Run(s.String(), func(t *testing.T) {
			repo, _, _, svc := newApprovalFixture(t, s.Middle, s.Final)

			res, err := svc.Reject(context.Background(), actor("choi", "final_approver"), orderNo)
			require.NoError(t, err)
			assert.Equal(t, "rejected/rejected", res.To)

			stored, _ := repo.GetByOrderNumber(context.Background(), orderNo)
			for _, l := range stored {
				assert.Equal(t, workflow.StateRejected, workflow.StateOf(l))
			}
		})
	}
}

func TestApprovalService_ResetClearsTimestamps(t *testing.T) {
	ctx := context.Background()
	repo, _, _, svc := newApprovalFixture(t, entity.ApprovalApproved, entity.ApprovalApproved)
	for _, l := range repo.lines {
		l.FinalApprovedAt = ptr(testNow)
		l.Received, l.ReceivedAt = true, ptr(testNow)
		l.PaymentCompleted, l.PaymentCompletedAt = true, ptr(testNow)
	}

	res, err := svc.Reset(ctx, actor("admin", "app_admin"), orderNo)
	require.NoError(t, err)
	assert.Equal(t, "pending/pending", res.To)

	stored, _ := repo.GetByOrderNumber(ctx, orderNo)
	for _, l := range stored {
		assert.Equal(t, workflow.StatePending, workflow.StateOf(l))
		assert.Nil(t, l.FinalApprovedAt)
		assert.Nil(t, l.ReceivedAt)
		assert.Nil(t, l.PaymentCompletedAt)
		assert.False(t, l.Received)
		assert.False(t, l.PaymentCompleted)
	}
}

func TestApprovalService_PermissionCheckedFirst(t *testing.T) {
	tests := []struct {
		name    string
		trigger workflow.Trigger
		roles   []string
		allowed bool
	}{
		{"verify by middle manager", workflow.TriggerVerify, []string{"middle_manager"}, true},
		{"verify by final approver", workflow.TriggerVerify, []string{"final_approver"}, false},
		{"verify by ceo", workflow.TriggerVerify, []string{"ceo"}, true},
		{"approve by middle manager", workflow.TriggerApprove, []string{"middle_manager"}, false},
		{"approve by admin", workflow.TriggerApprove, []string{"app_admin"}, true},
		{"reject by lead buyer", workflow.TriggerReject, []string{"lead_buyer"}, false},
		{"reject by final approver", workflow.TriggerReject, []string{"final_approver"}, true},
		{"reset by final approver", workflow.TriggerReset, []string{"final_approver"}, false},
		{"reset by ceo", workflow.TriggerReset, []string{"ceo"}, true},
		{"anything by role-less", workflow.TriggerReject, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _, _, svc := newApprovalFixture(t, entity.ApprovalApproved, entity.ApprovalPending)
			loaded := false
			repo.getFunc = func(ctx context.Context, orderNumber string) ([]*entity.PurchaseLine, error) {
				loaded = true
				return []*entity.PurchaseLine{newLine(orderNumber, 1, "kim")}, nil
			}

			_, err := svc.Transition(context.Background(), actor("someone", tt.roles...), orderNo, tt.trigger)
			if tt.allowed {
				assert.False(t, errors.Is(err, ErrPermissionDenied))
				return
			}
			assert.ErrorIs(t, err, ErrPermissionDenied)
			assert.False(t, loaded, "no storage call before the role check")
			assert.Zero(t, repo.updateOrderCalls)
		})
	}
}

func TestApprovalService_Errors(t *testing.T) {
	ctx := context.Background()
	middle := actor("park", "middle_manager")

	t.Run("empty order number", func(t *testing.T) {
		_, _, _, svc := newApprovalFixture(t, entity.ApprovalPending, entity.ApprovalPending)
		_, err := svc.Verify(ctx, middle, "  ")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, _, _, svc := newApprovalFixture(t, entity.ApprovalPending, entity.ApprovalPending)
		_, err := svc.Verify(ctx, middle, "F20990101_001")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("load failure", func(t *testing.T) {
		repo, _, _, svc := newApprovalFixture(t, entity.ApprovalPending, entity.ApprovalPending)
		repo.getFunc = func(ctx context.Context, orderNumber string) ([]*entity.PurchaseLine, error) {
			return nil, errors.New("connection reset")
		}
		_, err := svc.Verify(ctx, middle, orderNo)
		assert.ErrorContains(t, err, "connection reset")
	})

	t.Run("storage failure reports nothing applied", func(t *testing.T) {
		repo, _, events, svc := newApprovalFixture(t, entity.ApprovalPending, entity.ApprovalPending)
		repo.updateOrderFunc = func(ctx context.Context, orderNumber string, f entity.OrderFields) (int64, error) {
			return 0, errors.New("disk full")
		}
		res, err := svc.Verify(ctx, middle, orderNo)
		assert.ErrorContains(t, err, "disk full")
		assert.Nil(t, res)
		assert.Empty(t, *events)
	})

	t.Run("order vanished during update", func(t *testing.T) {
		repo, _, _, svc := newApprovalFixture(t, entity.ApprovalPending, entity.ApprovalPending)
		repo.updateOrderFunc = func(ctx context.Context, orderNumber string, f entity.OrderFields) (int64, error) {
			return 0, nil
		}
		_, err := svc.Verify(ctx, middle, orderNo)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestApprovalService_NotificationFailureIsWarning(t *testing.T) {
	_, d, _, svc := newApprovalFixture(t, entity.ApprovalPending, entity.ApprovalPending)
	d.Subscribe(event.TypeOrderVerified, "notify", func(ctx context.Context, evt *event.Event) error {
		return errors.New("chat unavailable")
	})

	res, err := svc.Verify(context.Background(), actor("park", "middle_manager"), orderNo)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Contains(t, res.NotificationWarning, "chat unavailable")
}
