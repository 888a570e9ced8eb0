package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/domain/event"
)

// EventHandlerFunc matches the dispatcher handler signature
type EventHandlerFunc func(ctx context.Context, evt *event.Event) error

var historyActions = map[event.Type]string{
	event.TypeExpenseCreated:           entity.ActionCreated,
	event.TypeExpenseUpdated:           entity.ActionUpdated,
	event.TypeExpenseSubmitted:         entity.ActionSubmitted,
	event.TypeExpenseRevisionRequested: entity.ActionRevisionRequested,
	event.TypeExpenseApproved:          entity.ActionApproved,
	event.TypeExpenseRejected:          entity.ActionRejected,
	event.TypeExpenseDeleted:           entity.ActionDeleted,
}

// NewHistoryHandler records every expense event in the audit trail
func NewHistoryHandler(repo port.HistoryRepository, logger Logger) EventHandlerFunc {
	return func(ctx context.Context, evt *event.Event) error {
		action, ok := historyActions[evt.Type]
		if !ok {
			return nil
		}

		history := &entity.ExpenseHistory{
			ExpenseID:      evt.ExpenseID,
			ActorID:        evt.ActorID,
			PreviousStatus: evt.GetPayloadString(event.KeyPreviousStatus),
			NewStatus:      evt.GetPayloadString(event.KeyNewStatus),
			Action:         action,
			Note:           evt.GetPayloadString(event.KeyReason),
			Timestamp:      evt.Timestamp,
		}
		if err := repo.Create(ctx, history); err != nil {
			logger.Error("Failed to record history", "error", err, "expense_id", evt.ExpenseID, "event", evt.Type.String())
			return fmt.Errorf("record history: %w", err)
		}
		return nil
	}
}

// NewNotificationHandler tells reviewers about submissions and owners about review outcomes
func NewNotificationHandler(notifier port.Notifier, logger Logger) EventHandlerFunc {
	return func(ctx context.Context, evt *event.Event) error {
		if evt.Type != event.TypeExpenseSubmitted && !evt.Type.IsReviewOutcome() {
			return nil
		}

		msg := FormatNotification(evt)
		if err := notifier.Notify(ctx, msg); err != nil {
			logger.Error("Failed to send notification", "error", err, "expense_id", evt.ExpenseID, "event", evt.Type.String())
			return fmt.Errorf("notify: %w", err)
		}
		logger.Info("Notification sent", "expense_id", evt.ExpenseID, "event", evt.Type.String())
		return nil
	}
}

// FormatNotification renders a one-line chat message for an expense event
func FormatNotification(evt *event.Event) string {
	var b strings.Builder

	switch evt.Type {
	case event.TypeExpenseSubmitted:
		b.WriteString("Expense submitted for review")
	case event.TypeExpenseRevisionRequested:
		b.WriteString("Revision requested")
	case event.TypeExpenseApproved:
		b.WriteString("Expense approved")
	case event.TypeExpenseRejected:
		b.WriteString("Expense rejected")
	default:
		b.WriteString(evt.Type.String())
	}

	fmt.Fprintf(&b, ": %s", evt.ExpenseID)
	if vendor := evt.GetPayloadString(event.KeyVendor); vendor != "" {
		fmt.Fprintf(&b, " (%s", vendor)
		if amount := evt.GetPayloadString(event.KeyAmount); amount != "" {
			fmt.Fprintf(&b, ", %s", amount)
		}
		b.WriteString(")")
	} else if amount := evt.GetPayloadString(event.KeyAmount); amount != "" {
		fmt.Fprintf(&b, " (%s)", amount)
	}
	if reason := evt.GetPayloadString(event.KeyReason); reason != "" {
		fmt.Fprintf(&b, ". Reason: %s", reason)
	}
	return b.String()
}
