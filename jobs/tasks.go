package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrderCreated mails the order summary to the billing contact.
	TaskOrderCreated = "order:created"
	// TaskRenewalScan looks for live orders that end soon.
	TaskRenewalScan = "order:renewal-scan"
	// TaskRenewalReminder mails one renewal reminder.
	TaskRenewalReminder = "order:renewal-reminder"
)

// OrderCreatedPayload identifies a freshly created order.
type OrderCreatedPayload struct {
	OrderID string `json:"order_id"`
}

// RenewalScanPayload configures how far ahead the scan looks.
type RenewalScanPayload struct {
	LookaheadDays int `json:"lookahead_days"`
}

// RenewalReminderPayload identifies the order and the end date being
// announced. A changed end date makes the reminder stale.
type RenewalReminderPayload struct {
	OrderID string `json:"order_id"`
	EndDate string `json:"end_date"`
}

// NewOrderCreatedTask constructs an Asynq task.
func NewOrderCreatedTask(orderID string) (*asynq.Task, error) {
	data, err := json.Marshal(OrderCreatedPayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderCreated, data, asynq.MaxRetry(5)), nil
}

// NewRenewalScanTask constructs the scheduled scan task.
func NewRenewalScanTask(lookaheadDays int) (*asynq.Task, error) {
	if lookaheadDays <= 0 {
		lookaheadDays = 30
	}
	data, err := json.Marshal(RenewalScanPayload{LookaheadDays: lookaheadDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRenewalScan, data), nil
}

// NewRenewalReminderTask constructs a reminder for one order.
func NewRenewalReminderTask(orderID string, endDate time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(RenewalReminderPayload{OrderID: orderID, EndDate: endDate.Format("2006-01-02")})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRenewalReminder, data, asynq.MaxRetry(5)), nil
}

// reminderTaskID dedupes reminders: one per order and end date.
func reminderTaskID(orderID string, endDate time.Time) string {
	return "renewal-reminder:" + orderID + ":" + endDate.Format("2006-01-02")
}
