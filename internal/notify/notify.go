package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogNotifier writes every message to the log instead of sending it.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, phone, text string) error {
	n.log.Info("sms_logged", zap.String("phone", phone), zap.String("text", text))
	return nil
}

// SMSMessage is the payload consumed by the SMS gateway worker.
type SMSMessage struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

const RoutingKeySMS = "notification.sms"

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// QueueNotifier hands messages to the SMS gateway through the message
// broker. A message counts as sent once the broker accepted it.
type QueueNotifier struct {
	pub Publisher
	log *zap.Logger
	now func() time.Time
}

func NewQueueNotifier(pub Publisher, log *zap.Logger) *QueueNotifier {
	return &QueueNotifier{pub: pub, log: log, now: time.Now}
}

func (n *QueueNotifier) Send(ctx context.Context, phone, text string) error {
	msg := SMSMessage{
		ID:        uuid.NewString(),
		Phone:     phone,
		Text:      text,
		CreatedAt: n.now().UTC(),
	}
	if err := n.pub.Publish(ctx, RoutingKeySMS, msg); err != nil {
		return fmt.Errorf("queue sms %s: %w", msg.ID, err)
	}
	n.log.Debug("sms_queued", zap.String("message_id", msg.ID), zap.String("phone", phone))
	return nil
}
