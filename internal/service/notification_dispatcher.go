package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-adm-api/pkg/config"
	"github.com/noah-isme/uni-adm-api/pkg/jobs"
)

type dispatchMarker interface {
	MarkDispatched(ctx context.Context, id string, dispatchedAt time.Time) error
}

type deliveryPayload struct {
	NotificationID string
	StudentID      string
}

// NotificationDispatcher delivers student notifications asynchronously
// through the in-process job queue. Delivery here means stamping the
// dispatch time; an external channel (mail, SMS) would hang off the same
// handler.
type NotificationDispatcher struct {
	queue  *jobs.Queue
	repo   dispatchMarker
	logger *zap.Logger
}

// NewNotificationDispatcher builds a dispatcher backed by a worker queue.
func NewNotificationDispatcher(repo dispatchMarker, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &NotificationDispatcher{repo: repo, logger: logger}
	d.queue = jobs.NewQueue("notifications", d.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return d
}

// Start launches the delivery workers.
func (d *NotificationDispatcher) Start() {
	d.queue.Start()
}

// Stop halts the delivery workers. Notifications not yet dispatched keep
// their row in the store without a dispatch timestamp.
func (d *NotificationDispatcher) Stop() {
	d.queue.Stop()
}

// EnqueueDelivery schedules a notification for delivery.
func (d *NotificationDispatcher) EnqueueDelivery(notificationID, studentID string) error {
	return d.queue.Enqueue(jobs.Job{
		ID:      notificationID,
		Type:    "notification.deliver",
		Payload: deliveryPayload{NotificationID: notificationID, StudentID: studentID},
	})
}

func (d *NotificationDispatcher) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(deliveryPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	if err := d.repo.MarkDispatched(ctx, payload.NotificationID, time.Now().UTC()); err != nil {
		return err
	}
	d.logger.Info("notification dispatched",
		zap.String("notification_id", payload.NotificationID),
		zap.String("student_id", payload.StudentID))
	return nil
}
