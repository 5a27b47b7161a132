package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-crm/internal/jobs"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/mail"
	"github.com/odyssey-erp/odyssey-crm/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

// OrderSource loads orders for the mail jobs.
type OrderSource interface {
	Get(ctx context.Context, id string) (*orders.Order, error)
	EndingWithin(ctx context.Context, days int) ([]orders.Order, error)
}

// ReminderEnqueuer schedules one reminder per order.
type ReminderEnqueuer interface {
	EnqueueRenewalReminder(ctx context.Context, orderID string, endDate time.Time) error
}

// HTMLRenderer executes a named email template.
type HTMLRenderer interface {
	Execute(w io.Writer, name string, data any) error
}

// OrderMailJob handles the order notification tasks.
type OrderMailJob struct {
	Orders    OrderSource
	Mailer    mail.Sender
	Reminders ReminderEnqueuer
	Templates HTMLRenderer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// HandleOrderCreated mails the order summary to the billing contact.
func (j *OrderMailJob) HandleOrderCreated(ctx context.Context, t *asynq.Task) (err error) {
	var payload OrderCreatedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.OrderID == "" {
		return fmt.Errorf("decode %s payload: %w", TaskOrderCreated, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskOrderCreated)
	defer func() { err = tracker.End(err) }()

	order, err := j.loadOrder(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	msg, err := j.message(order, "email_order_created",
		fmt.Sprintf("Order confirmation for %s", order.CustomerName()),
		orderSummaryText(order))
	if err != nil {
		return err
	}
	if err := j.Mailer.Send(ctx, msg); err != nil {
		return err
	}
	j.Metrics.AddEmails(TaskOrderCreated, 1)
	j.logger().Info("order confirmation sent", slog.String("order_id", order.ID))
	return nil
}

// HandleRenewalScan enqueues a reminder for every live order ending within
// the lookahead window.
func (j *OrderMailJob) HandleRenewalScan(ctx context.Context, t *asynq.Task) (err error) {
	var payload RenewalScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", TaskRenewalScan, asynq.SkipRetry)
	}
	if payload.LookaheadDays <= 0 {
		payload.LookaheadDays = 30
	}
	tracker := j.Metrics.Track(TaskRenewalScan)
	defer func() { err = tracker.End(err) }()

	due, err := j.Orders.EndingWithin(ctx, payload.LookaheadDays)
	if err != nil {
		j.logger().Error("load renewals", slog.Any("error", err))
		return err
	}
	var errs []error
	for _, order := range due {
		if err := j.Reminders.EnqueueRenewalReminder(ctx, order.ID, order.EndDate); err != nil {
			errs = append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		j.Metrics.Reminder(jobmetrics.ReminderQueued)
	}
	j.logger().Info("renewal scan complete", slog.Int("due", len(due)), slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// HandleRenewalReminder mails one reminder. Reminders for orders that are no
// longer live, or whose end date moved, are dropped.
func (j *OrderMailJob) HandleRenewalReminder(ctx context.Context, t *asynq.Task) (err error) {
	var payload RenewalReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.OrderID == "" {
		return fmt.Errorf("decode %s payload: %w", TaskRenewalReminder, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskRenewalReminder)
	defer func() { err = tracker.End(err) }()

	order, err := j.loadOrder(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	if order.Status != orders.StatusLive || order.EndDate.Format("2006-01-02") != payload.EndDate {
		j.logger().Info("stale renewal reminder skipped", slog.String("order_id", order.ID))
		j.Metrics.Reminder(jobmetrics.ReminderSkipped)
		return nil
	}
	msg, err := j.message(order, "email_renewal_reminder",
		fmt.Sprintf("Your %s agreement ends on %s", order.Term, order.EndDate.Format("Jan 2, 2006")),
		renewalText(order))
	if err != nil {
		return err
	}
	if err := j.Mailer.Send(ctx, msg); err != nil {
		return err
	}
	j.Metrics.AddEmails(TaskRenewalReminder, 1)
	j.Metrics.Reminder(jobmetrics.ReminderSent)
	return nil
}

func (j *OrderMailJob) loadOrder(ctx context.Context, id string) (*orders.Order, error) {
	order, err := j.Orders.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		j.logger().Warn("order vanished before notification", slog.String("order_id", id))
		return nil, fmt.Errorf("order %s: %w", id, asynq.SkipRetry)
	}
	return order, err
}

func (j *OrderMailJob) message(order *orders.Order, template, subject, text string) (mail.Message, error) {
	msg := mail.Message{To: order.BillingContact.Email, Subject: subject, Text: text}
	if j.Templates != nil {
		var buf bytes.Buffer
		if err := j.Templates.Execute(&buf, template, order); err != nil {
			return msg, fmt.Errorf("render %s: %w", template, err)
		}
		msg.HTML = buf.String()
	}
	return msg, nil
}

func (j *OrderMailJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

func orderSummaryText(o *orders.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your order. Summary for %s:\n\n", o.BillingContact.Name, o.CustomerName())
	for _, l := range o.Products {
		fmt.Fprintf(&b, "  %-30s %4d x %10s = %10s\n", l.ProductName(), l.Units, shared.FormatMoney(l.PricePerUnit), shared.FormatMoney(l.LineTotal))
	}
	fmt.Fprintf(&b, "\nOne-time fee: %s\nGrand total:  %s\n", shared.FormatMoney(o.OneTimeFee), shared.FormatMoney(o.Total))
	fmt.Fprintf(&b, "Term: %s, %s to %s\n", o.Term, o.StartDate.Format("2006-01-02"), o.EndDate.Format("2006-01-02"))
	return b.String()
}

func renewalText(o *orders.Order) string {
	return fmt.Sprintf("Hi %s,\n\nThe %s agreement for %s ends on %s.\nCurrent value: %s.\n",
		o.BillingContact.Name, o.Term, o.CustomerName(), o.EndDate.Format("2006-01-02"), shared.FormatMoney(o.Total))
}
