package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
)

// messageCreator is the slice of the IM API the messenger uses.
type messageCreator interface {
	Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
}

// Messenger implements port.MessageSender with the IM message API
type Messenger struct {
	messages messageCreator
	logger   *zap.Logger
}

// NewMessenger creates a new Lark message sender
func NewMessenger(sdk *SDKClient, logger *zap.Logger) *Messenger {
	return &Messenger{
		messages: sdk.GetClient().Im.Message,
		logger:   logger,
	}
}

// SendText sends a plain text message. The recipient may be an open_id
// (ou_...), a chat_id (oc_...), an email address or a user_id.
func (m *Messenger) SendText(ctx context.Context, recipient, text string) error {
	if recipient == "" {
		return fmt.Errorf("recipient cannot be empty")
	}
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	body, err := textMessageBody(recipient, text)
	if err != nil {
		return err
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType(recipient)).
		Body(body).
		Build()

	resp, err := m.messages.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("recipient", recipient),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("recipient", recipient),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	m.logger.Info("Message sent",
		zap.String("message_id", messageID),
		zap.String("recipient", recipient))

	return nil
}

// textMessageBody builds the create-message body for a plain text message
func textMessageBody(recipient, text string) (*larkim.CreateMessageReqBody, error) {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message content: %w", err)
	}
	return larkim.NewCreateMessageReqBodyBuilder().
		ReceiveId(recipient).
		MsgType("text").
		Content(string(content)).
		Build(), nil
}

func receiveIDType(recipient string) string {
	switch {
	case strings.Contains(recipient, "@"):
		return "email"
	case strings.HasPrefix(recipient, "ou_"):
		return "open_id"
	case strings.HasPrefix(recipient, "oc_"):
		return "chat_id"
	default:
		return "user_id"
	}
}

// Verify interface compliance
var _ port.MessageSender = (*Messenger)(nil)
