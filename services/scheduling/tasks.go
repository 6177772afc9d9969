package scheduling

import (
	"encoding/json"
	"fmt"
	"time"

	"ibook/models"

	"github.com/hibiken/asynq"
)

// TypeExpirePending is the asynq task type for Pending-booking expiry.
const TypeExpirePending = "booking:expire_pending"

// AsynqExpiryQueue schedules expiry tasks on the shared Redis queue.
type AsynqExpiryQueue struct {
	Client *asynq.Client
}

func NewAsynqExpiryQueue(client *asynq.Client) *AsynqExpiryQueue {
	return &AsynqExpiryQueue{Client: client}
}

// EnqueuePendingExpiry schedules the booking's expiry check after delay.
func (q *AsynqExpiryQueue) EnqueuePendingExpiry(payload models.ExpirePendingPayload, delay time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal expiry payload: %w", err)
	}
	task := asynq.NewTask(TypeExpirePending, data)
	if _, err := q.Client.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to enqueue expiry task: %w", err)
	}
	return nil
}
