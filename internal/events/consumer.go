package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/adityaprs/klinik-auth/internal/logging"
	"github.com/adityaprs/klinik-auth/internal/service"
)

// OCRRegistration is the payload the document-recognition pipeline emits
// for every scanned identity card.
type OCRRegistration struct {
	NIK  string `json:"nik"`
	Name string `json:"name"`
}

// OCRConsumer turns OCR registration events into credential-less accounts.
type OCRConsumer struct {
	reader *kafka.Reader
	users  *service.UserService
}

func NewOCRConsumer(brokers []string, topic, groupID string, users *service.UserService) *OCRConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return &OCRConsumer{reader: r, users: users}
}

// Run blocks until ctx is cancelled. Malformed or failing messages are
// logged and committed anyway; the queue must not wedge on one bad scan.
func (c *OCRConsumer) Run(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "ocr_consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		var reg OCRRegistration
		if err := json.Unmarshal(msg.Value, &reg); err != nil {
			l.Warn("skipping malformed ocr event", "error", err, "offset", msg.Offset)
		} else if _, err := c.users.CreateFromOCR(ctx, reg.NIK, reg.Name); err != nil {
			l.Error("ocr registration failed", "error", err, "nik", reg.NIK)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			l.Error("commit failed", "error", err)
		}
	}
}

func (c *OCRConsumer) Close() error {
	return c.reader.Close()
}
