// Package queue carries dataset lifecycle events over RabbitMQ: the payload
// types, a publisher used by the service layer and a background consumer
// that appends every event to logs/datasets.log.
package queue

import "github.com/iliyamo/showtime-inventory-bench/internal/model"

// QueueName is the durable queue lifecycle events are routed to.
const QueueName = "inventory.datasets"

// Event types.
const (
	EventGenerated = "dataset.generated"
	EventDestroyed = "dataset.destroyed"
)

// DatasetEvent is published when a dataset enters or leaves the registry.
// It contains enough information for downstream consumers to log or chart
// benchmark runs without calling back into the service.
type DatasetEvent struct {
	Type       string         `json:"type"`
	DatasetID  string         `json:"dataset_id"`
	Items      int            `json:"items,omitempty"`
	Days       int            `json:"days,omitempty"`
	Timings    *model.Timings `json:"timings,omitempty"`
	OccurredAt string         `json:"occurred_at"`
}
