package services

import (
	"encoding/json"
	"log"

	"curio/internal/metrics"
)

// NotifyEvent is the payload handed to the notification collaborator.
type NotifyEvent struct {
	Event      string `json:"event"` // activity.created | activity.status.changed
	ActivityID string `json:"activityId"`
	UserID     string `json:"userId"`
	OldStatus  string `json:"oldStatus,omitempty"`
	NewStatus  string `json:"newStatus,omitempty"`
}

// Notifier delivers events to the external notification collaborator.
// Delivery is fire-and-forget; failures are logged and never propagated.
type Notifier interface {
	Notify(ev NotifyEvent) error
}

// LogNotifier writes events to the log. Stands in for the real collaborator.
type LogNotifier struct{}

func (LogNotifier) Notify(ev NotifyEvent) error {
	b, _ := json.Marshal(ev)
	log.Printf("[notify] %s", b)
	return nil
}

// dispatch sends ev on a fresh goroutine, swallowing any failure.
func dispatch(n Notifier, ev NotifyEvent) {
	if n == nil {
		return
	}
	go func() {
		if err := n.Notify(ev); err != nil {
			metrics.NotifyFailures.Inc()
			log.Printf("[notify] dropped %s for %s: %v", ev.Event, ev.ActivityID, err)
		}
	}()
}
