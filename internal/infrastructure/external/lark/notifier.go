package lark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/port"
)

// Config holds Lark notifier configuration
type Config struct {
	AppID     string
	AppSecret string
	// ChatID is the group chat reviewers read
	ChatID string
	// BaseURL overrides the open platform endpoint; empty means the SDK default
	BaseURL string
	Timeout time.Duration
}

// Notifier posts text messages to a Lark group chat
type Notifier struct {
	client *lark.Client
	chatID string
	logger *zap.Logger
}

// NewNotifier creates a Lark notifier
func NewNotifier(cfg Config, logger *zap.Logger) (*Notifier, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, errors.New("lark app_id and app_secret are required")
	}
	if cfg.ChatID == "" {
		return nil, errors.New("lark chat_id is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := []lark.ClientOptionFunc{
		lark.WithLogLevel(larkcore.LogLevelError),
		lark.WithEnableTokenCache(true),
		lark.WithReqTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lark.WithOpenBaseUrl(cfg.BaseURL))
	}

	return &Notifier{
		client: lark.NewClient(cfg.AppID, cfg.AppSecret, opts...),
		chatID: cfg.ChatID,
		logger: logger,
	}, nil
}

// Notify sends message as a text message to the configured chat
func (n *Notifier) Notify(ctx context.Context, message string) error {
	if message == "" {
		return errors.New("message cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType(larkIm.ReceiveIdTypeChatId).
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(n.chatID).
			MsgType(larkIm.MsgTypeText).
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send message",
			zap.String("chat_id", n.chatID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		n.logger.Error("API returned failure",
			zap.String("chat_id", n.chatID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	n.logger.Debug("Message sent", zap.String("message_id", messageID))
	return nil
}

// LogNotifier writes notifications to the log when no chat is configured
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs message
func (n *LogNotifier) Notify(ctx context.Context, message string) error {
	n.logger.Info("Notification", zap.String("message", message))
	return nil
}

var (
	_ port.Notifier = (*Notifier)(nil)
	_ port.Notifier = (*LogNotifier)(nil)
)
