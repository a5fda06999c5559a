package interfaces

import (
	"context"
	"errors"
	"log"

	"glucose-sentinel/internal/analysis/application"
	"glucose-sentinel/internal/eventing"
	"glucose-sentinel/internal/telemetry/application/events"
)

// ConsumerName identifies this consumer in the processed-event store.
const ConsumerName = "analysis.sample_stored"

// SampleStoredConsumer runs the analysis pipeline whenever a sample lands.
// It always returns nil: the pipeline maps every failure to an outcome and
// the trigger must be acknowledged either way.
type SampleStoredConsumer struct {
	service *application.Service
	logger  *log.Logger
}

// NewSampleStoredConsumer constructs the consumer.
func NewSampleStoredConsumer(service *application.Service, logger *log.Logger) (*SampleStoredConsumer, error) {
	if service == nil {
		return nil, errors.New("analysis consumer: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SampleStoredConsumer{service: service, logger: logger}, nil
}

// Register subscribes the consumer on the bus, with idempotency when a
// processed store is provided.
func (c *SampleStoredConsumer) Register(bus eventing.EventBus, store eventing.ProcessedStore) {
	eventing.Subscribe(bus, eventing.EventTypeOf[events.SampleStored](), ConsumerName, c.Handle, store)
}

// Handle processes one SampleStored event.
func (c *SampleStoredConsumer) Handle(ctx context.Context, event any) error {
	stored, ok := event.(events.SampleStored)
	if !ok {
		c.logger.Printf("analysis consumer: unexpected event %T", event)
		return nil
	}
	result := c.service.Analyze(ctx, stored.DeviceID)
	c.logger.Printf("analysis consumer: device %s outcome %s", stored.DeviceID, result.Outcome)
	return nil
}
