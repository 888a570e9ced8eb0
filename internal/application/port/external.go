package port

import (
	"context"

	"github.com/garyjia/expense-desk/internal/domain/event"
)

// ReceiptExtraction is what a vision model read off a receipt image; every field may be missing
type ReceiptExtraction struct {
	Vendor *string  `json:"vendor"`
	Amount *float64 `json:"amount"`
	Date   *string  `json:"date"`
}

// ReceiptAnalyzer extracts structured fields from a receipt image
type ReceiptAnalyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (*ReceiptExtraction, error)
	HealthCheck(ctx context.Context) bool
}

// ImagePreparer converts an uploaded receipt into an image the analyzer accepts
type ImagePreparer interface {
	Prepare(data []byte, mimeType string) ([]byte, string, error)
}

// Notifier delivers a human-readable message to reviewers
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// EventPublisher hands domain events to interested handlers without blocking the caller
type EventPublisher interface {
	Publish(ctx context.Context, evt *event.Event)
}
