package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/dispatcher"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/event"
)

func staff() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: []*entity.Employee{
		{Name: "kim", Email: "kim@hansl.kr", ChatID: "ou_kim"},
		{Name: "park", Email: "park@hansl.kr", Roles: []string{"middle_manager"}, ChatID: "ou_park"},
		{Name: "jung", Email: "jung@hansl.kr", Roles: []string{"middle_manager", "lead_buyer"}},
		{Name: "choi", Email: "choi@hansl.kr", Roles: []string{"final_approver"}},
		{Name: "ceo", Email: "ceo@hansl.kr", Roles: []string{"ceo", "final_approver"}, ChatID: "ou_ceo"},
		{Name: "buyer", Email: "buyer@hansl.kr", Roles: []string{"purchase_manager"}},
		{Name: "nobody", Roles: []string{"purchase_manager"}},
	}}
}

func orderEvent(typ event.Type) *event.Event {
	return event.NewEvent(typ, orderNo, "park", orderPayload([]*entity.PurchaseLine{
		newLine(orderNo, 1, "kim"), newLine(orderNo, 2, "kim"),
	}))
}

func TestNotificationService_Recipients(t *testing.T) {
	tests := []struct {
		typ  event.Type
		kind string
		want []string
	}{
		{event.TypeOrderCreated, entity.NotificationKindSubmitted, []string{"ou_park", "jung@hansl.kr"}},
		{event.TypeOrderVerified, entity.NotificationKindVerified, []string{"choi@hansl.kr", "ou_ceo"}},
		{event.TypeOrderApproved, entity.NotificationKindApproved, []string{"ou_kim", "buyer@hansl.kr"}},
		{event.TypeOrderRejected, entity.NotificationKindRejected, []string{"ou_kim"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			sender := &mockSender{}
			records := &mockNotificationRepo{}
			svc := NewNotificationService(staff(), records, sender, FixedClock(testNow), &mockLogger{})

			require.NoError(t, svc.Notify(context.Background(), orderEvent(tt.typ)))
			assert.Equal(t, tt.want, sender.sent)

			require.Len(t, records.records, len(tt.want))
			for _, r := range records.records {
				assert.Equal(t, tt.kind, r.Kind)
				assert.Equal(t, orderNo, r.OrderNumber)
				assert.Equal(t, entity.NotificationStatusSent, r.Status)
				assert.Equal(t, 1, r.Attempts)
				assert.NotNil(t, r.SentAt)
				assert.Contains(t, r.Message, orderNo)
				assert.Contains(t, r.Message, "item 외 1건")
				assert.Contains(t, r.Message, "4,000 KRW")
			}
		})
	}
}

func TestNotificationService_FailedSendIsRecorded(t *testing.T) {
	sender := &mockSender{failU: map[string]error{"ou_kim": errors.New("bot not in chat")}}
	records := &mockNotificationRepo{}
	svc := NewNotificationService(staff(), records, sender, FixedClock(testNow), &mockLogger{})

	err := svc.Notify(context.Background(), orderEvent(event.TypeOrderApproved))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot not in chat")

	require.Len(t, records.records, 2)
	assert.Equal(t, entity.NotificationStatusFailed, records.records[0].Status)
	assert.Equal(t, "bot not in chat", records.records[0].ErrorMessage)
	assert.Nil(t, records.records[0].SentAt)
	assert.Equal(t, entity.NotificationStatusSent, records.records[1].Status)

	history, err := svc.History(context.Background(), " "+orderNo)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestNotificationService_IgnoresOtherEvents(t *testing.T) {
	sender := &mockSender{}
	svc := NewNotificationService(staff(), &mockNotificationRepo{}, sender, FixedClock(testNow), &mockLogger{})

	require.NoError(t, svc.Notify(context.Background(), orderEvent(event.TypeOrderReset)))
	assert.Empty(t, sender.sent)
}

func TestNotificationService_LookupFailure(t *testing.T) {
	svc := NewNotificationService(&mockEmployeeRepo{err: errors.New("db gone")},
		&mockNotificationRepo{}, &mockSender{}, FixedClock(testNow), &mockLogger{})

	err := svc.Notify(context.Background(), orderEvent(event.TypeOrderVerified))
	assert.ErrorContains(t, err, "db gone")
}

func TestNotificationService_RegisterAndWarn(t *testing.T) {
	d := dispatcher.NewDispatcher()
	sender := &mockSender{failU: map[string]error{"ou_kim": errors.New("rate limited")}}
	notifier := NewNotificationService(staff(), &mockNotificationRepo{}, sender, FixedClock(testNow), &mockLogger{})
	notifier.Register(d)

	assert.Equal(t, []string{"notify-order.created", "activity-log"}, handlerNames(d, event.TypeOrderCreated))
	assert.Equal(t, []string{"notify-order.rejected", "activity-log"}, handlerNames(d, event.TypeOrderRejected))
	assert.Equal(t, []string{"activity-log"}, handlerNames(d, event.TypeOrderReset))
	for _, typ := range event.AllTypes() {
		assert.NotEmpty(t, d.ListHandlers(typ), "no subscriber for %s", typ)
	}

	repo := &memLineRepo{lines: []*entity.PurchaseLine{newLine(orderNo, 1, "kim")}}
	approvals := NewApprovalService(repo, d, FixedClock(testNow), &mockLogger{})

	res, err := approvals.Reject(context.Background(), actor("choi", "final_approver"), orderNo)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Contains(t, res.NotificationWarning, "rate limited")
}

func handlerNames(d dispatcher.Dispatcher, typ event.Type) []string {
	var names []string
	for _, h := range d.ListHandlers(typ) {
		names = append(names, h.Name)
	}
	return names
}

type entryLogger struct {
	mu      sync.Mutex
	entries []map[string]interface{}
}

func (l *entryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := map[string]interface{}{"msg": msg}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	l.entries = append(l.entries, entry)
}

func (l *entryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.Info(msg, keysAndValues...)
}

func TestNotificationService_ActivityLog(t *testing.T) {
	tests := []event.Type{
		event.TypeOrderEdited,
		event.TypeOrderDeleted,
		event.TypeOrderReceived,
		event.TypeOrderPaymentCompleted,
		event.TypeOrderReset,
	}

	for _, typ := range tests {
		t.Run(string(typ), func(t *testing.T) {
			d := dispatcher.NewDispatcher()
			logger := &entryLogger{}
			sender := &mockSender{}
			NewNotificationService(staff(), &mockNotificationRepo{}, sender, FixedClock(testNow), logger).Register(d)

			evt := orderEvent(typ)
			require.NoError(t, d.Dispatch(context.Background(), evt))
			assert.Empty(t, sender.sent)

			require.Len(t, logger.entries, 1)
			entry := logger.entries[0]
			assert.Equal(t, "Order event", entry["msg"])
			assert.Equal(t, string(typ), entry["type"])
			assert.Equal(t, orderNo, entry["order_number"])
			assert.Equal(t, "park", entry["actor"])
			assert.Equal(t, evt.CorrelationID, entry["correlation_id"])
		})
	}
}
